package objtree

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Key strings are interned so that key equality and hashing never touch the
// string bytes after construction. A slot holds the string together with its
// xxhash, computed once.
type istr struct {
	s    string
	hash uint64
}

var internTable = struct {
	sync.Mutex
	m map[string]*istr
}{m: make(map[string]*istr)}

func intern(s string) *istr {
	internTable.Lock()
	p := internTable.m[s]
	if p == nil {
		p = &istr{s: s, hash: xxhash.Sum64String(s)}
		internTable.m[s] = p
	}
	internTable.Unlock()
	return p
}

// internedCount reports the number of distinct strings interned so far.
func internedCount() int {
	internTable.Lock()
	n := len(internTable.m)
	internTable.Unlock()
	return n
}
