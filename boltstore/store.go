// Package boltstore persists an objtree map in a bbolt bucket, one key per
// bucket entry. The adapter is sparse: keys load individually, mutations
// buffer in the tree, and Save applies them in a single bolt transaction.
package boltstore

import (
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/andreyvit/objtree"
)

// Store is a sparse map adapter over one bucket of a bolt database.
type Store struct {
	objtree.SourceBase
	db     *bbolt.DB
	path   string
	bucket []byte

	pendingPuts map[string][]byte
	pendingDels map[string]bool
}

// Open opens (or reuses) the bolt database at path and returns a store over
// the named bucket. Call Close when done; the underlying database closes when
// its last store does.
func Open(path, bucket string) (*Store, error) {
	db, err := openShared(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, path: path, bucket: []byte(bucket)}, nil
}

// NewStore wraps an already open bolt database. The caller keeps ownership of
// the database; Close is a no-op.
func NewStore(db *bbolt.DB, bucket string) *Store {
	return &Store{db: db, bucket: []byte(bucket)}
}

func (s *Store) Close() error {
	if s.path == "" {
		return nil
	}
	return closeShared(s.path)
}

func (s *Store) Meta() objtree.SourceMeta {
	return objtree.SourceMeta{Sparse: true, Kind: objtree.OMap}
}

func (s *Store) NewInstance(origin objtree.Origin) objtree.DataSource {
	return &Store{db: s.db, path: s.path, bucket: s.bucket}
}

func (s *Store) ReadKey(key objtree.Key) (objtree.Object, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		if v := b.Get(encodeKey(key)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return objtree.Object{}, err
	}
	if data == nil {
		return objtree.Object{}, nil
	}
	return decodeValue(data)
}

// Read loads the entire bucket; it backs whole-value materialization of the
// bound node.
func (s *Store) Read() (objtree.Object, error) {
	out := objtree.NewOMap()
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			key, err := decodeKey(k)
			if err != nil {
				return err
			}
			val, err := decodeValue(v)
			if err != nil {
				return err
			}
			out.Set(key, val)
		}
		return nil
	})
	if err != nil {
		return objtree.Object{}, err
	}
	return out, nil
}

// Write replaces the entire bucket with data's entries.
func (s *Store) Write(data objtree.Object) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(s.bucket) != nil {
			if err := tx.DeleteBucket(s.bucket); err != nil {
				return err
			}
		}
		b, err := tx.CreateBucket(s.bucket)
		if err != nil {
			return err
		}
		it := data.IterItems()
		for it.Next() {
			item := it.Item()
			v, err := encodeValue(item.Value)
			if err != nil {
				return err
			}
			if err := b.Put(encodeKey(item.Key), v); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteKey and DeleteKey buffer; Commit applies the whole batch in one bolt
// transaction, deletes first, matching the tree's save order.
func (s *Store) WriteKey(key objtree.Key, value objtree.Object) error {
	v, err := encodeValue(value)
	if err != nil {
		return err
	}
	if s.pendingPuts == nil {
		s.pendingPuts = make(map[string][]byte)
	}
	ek := string(encodeKey(key))
	s.pendingPuts[ek] = v
	delete(s.pendingDels, ek)
	return nil
}

func (s *Store) DeleteKey(key objtree.Key) error {
	if s.pendingDels == nil {
		s.pendingDels = make(map[string]bool)
	}
	ek := string(encodeKey(key))
	s.pendingDels[ek] = true
	delete(s.pendingPuts, ek)
	return nil
}

func (s *Store) Commit(data objtree.Object, deleted []objtree.Key) error {
	if len(s.pendingPuts) == 0 && len(s.pendingDels) == 0 {
		return nil
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}
		for k := range s.pendingDels {
			if err := b.Delete([]byte(k)); err != nil {
				return err
			}
		}
		for k, v := range s.pendingPuts {
			if err := b.Put([]byte(k), v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.pendingPuts = nil
	s.pendingDels = nil
	return nil
}

// memCursor iterates a snapshot taken in one view transaction, so a long
// iteration never holds a bolt transaction open across calls.
type memCursor struct {
	items []objtree.Item
	pos   int
	err   error
}

func (c *memCursor) Next() bool {
	if c.err != nil || c.pos >= len(c.items) {
		return false
	}
	c.pos++
	return true
}

func (c *memCursor) Key() objtree.Key { return c.items[c.pos-1].Key }

func (c *memCursor) Item() objtree.Item { return c.items[c.pos-1] }

func (c *memCursor) Err() error { return c.err }

func (s *Store) snapshot(sl objtree.Slice, withValues bool) *memCursor {
	cur := &memCursor{}
	cur.err = s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		k, v := c.First()
		if mn := sl.Min(); !mn.Value.IsNil() {
			k, v = c.Seek(encodeKey(mn.Value))
		}
		for ; k != nil; k, v = c.Next() {
			key, err := decodeKey(k)
			if err != nil {
				return err
			}
			if !sl.Contains(key) {
				continue
			}
			item := objtree.Item{Key: key}
			if withValues {
				val, err := decodeValue(v)
				if err != nil {
					return err
				}
				item.Value = val
			}
			cur.items = append(cur.items, item)
		}
		return nil
	})
	return cur
}

func (s *Store) IterKeys(sl objtree.Slice) (objtree.KeyCursor, error) {
	cur := s.snapshot(sl, false)
	return cur, nil
}

func (s *Store) IterItems(sl objtree.Slice) (objtree.ItemCursor, error) {
	cur := s.snapshot(sl, true)
	return cur, nil
}

// Shared database handles, one per path, so several stores can bind buckets
// of the same file without fighting over the bolt file lock.
var shared = struct {
	sync.Mutex
	dbs map[string]*sharedDB
}{dbs: make(map[string]*sharedDB)}

type sharedDB struct {
	db   *bbolt.DB
	refs int
}

func openShared(path string) (*bbolt.DB, error) {
	shared.Lock()
	defer shared.Unlock()
	if h := shared.dbs[path]; h != nil {
		h.refs++
		return h.db, nil
	}
	db, err := bbolt.Open(path, 0o644, &bbolt.Options{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %s: %w", path, err)
	}
	shared.dbs[path] = &sharedDB{db: db, refs: 1}
	return db, nil
}

func closeShared(path string) error {
	shared.Lock()
	defer shared.Unlock()
	h := shared.dbs[path]
	if h == nil {
		return nil
	}
	h.refs--
	if h.refs > 0 {
		return nil
	}
	delete(shared.dbs, path)
	return h.db.Close()
}

func init() {
	objtree.RegisterScheme("bolt", func(uri objtree.URI, opts objtree.Options) (objtree.DataSource, error) {
		if uri.Path == "" {
			return nil, fmt.Errorf("bolt URI has no path")
		}
		bucket := uri.Query["bucket"]
		if bucket == "" {
			bucket = "objtree"
		}
		return Open(uri.Path, bucket)
	})
}
