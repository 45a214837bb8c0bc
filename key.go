package objtree

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Key is a scalar map key or list index: nil, bool, int, uint, float, or an
// interned string. Keys are small immutable values; the zero Key is the nil
// key. Uints that fit in an int64 are canonicalized to Int so that value-equal
// integer keys land in the same map slot regardless of how they were written.
type Key struct {
	kind Kind
	i    int64
	f    float64
	s    *istr
}

func StrKey(s string) Key { return Key{kind: Str, s: intern(s)} }
func IntKey(i int64) Key { return Key{kind: Int, i: i} }
func FloatKey(f float64) Key { return Key{kind: Float, f: f} }
func BoolKey(b bool) Key { return Key{kind: Bool, i: boolInt(b)} }

func UintKey(u uint64) Key {
	if u <= math.MaxInt64 {
		return Key{kind: Int, i: int64(u)}
	}
	return Key{kind: Uint, i: int64(u)}
}

// NewKey converts a Go value to a Key. Accepted: nil, bool, any integer type,
// float32/64, string, Key, and Object (via Object.ToKey). Anything else panics.
func NewKey(v any) Key {
	switch v := v.(type) {
	case nil:
		return Key{kind: Nil}
	case Key:
		return v
	case bool:
		return BoolKey(v)
	case int:
		return IntKey(int64(v))
	case int8:
		return IntKey(int64(v))
	case int16:
		return IntKey(int64(v))
	case int32:
		return IntKey(int64(v))
	case int64:
		return IntKey(v)
	case uint:
		return UintKey(uint64(v))
	case uint8:
		return UintKey(uint64(v))
	case uint16:
		return UintKey(uint64(v))
	case uint32:
		return UintKey(uint64(v))
	case uint64:
		return UintKey(v)
	case uintptr:
		return UintKey(uint64(v))
	case float32:
		return FloatKey(float64(v))
	case float64:
		return FloatKey(v)
	case string:
		return StrKey(v)
	case Object:
		return v.ToKey()
	default:
		panic(fmt.Sprintf("objtree: cannot use %T as key", v))
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Kind returns the key's representation. The zero Key reports Nil.
func (k Key) Kind() Kind {
	if k.kind == Empty {
		return Nil
	}
	return k.kind
}

func (k Key) IsNil() bool { return k.Kind() == Nil }

// Bool returns the bool payload, panicking unless the key is a bool.
func (k Key) Bool() bool {
	if k.kind != Bool {
		panic(wrongType(k.Kind(), Bool))
	}
	return k.i != 0
}

// Int returns the int payload, panicking unless the key is an int.
func (k Key) Int() int64 {
	if k.kind != Int {
		panic(wrongType(k.Kind(), Int))
	}
	return k.i
}

// Uint returns the uint payload, panicking unless the key is a uint.
func (k Key) Uint() uint64 {
	if k.kind != Uint {
		panic(wrongType(k.Kind(), Uint))
	}
	return uint64(k.i)
}

// Float returns the float payload, panicking unless the key is a float.
func (k Key) Float() float64 {
	if k.kind != Float {
		panic(wrongType(k.Kind(), Float))
	}
	return k.f
}

// Str returns the string payload, panicking unless the key is a string.
func (k Key) Str() string {
	if k.kind != Str {
		panic(wrongType(k.Kind(), Str))
	}
	return k.s.s
}

// ToBool converts the key to a bool the way the data model converts values:
// numbers are true when nonzero, strings parse as booleans.
func (k Key) ToBool() bool {
	switch k.Kind() {
	case Nil:
		return false
	case Bool, Int, Uint:
		return k.i != 0
	case Float:
		return k.f != 0
	case Str:
		b, err := strconv.ParseBool(k.s.s)
		if err != nil {
			panic(wrongType(Str, Bool))
		}
		return b
	}
	panic(wrongType(k.Kind(), Bool))
}

func (k Key) ToInt() int64 {
	switch k.Kind() {
	case Bool, Int, Uint:
		return k.i
	case Float:
		return int64(k.f)
	case Str:
		i, err := strconv.ParseInt(k.s.s, 10, 64)
		if err != nil {
			panic(wrongType(Str, Int))
		}
		return i
	}
	panic(wrongType(k.Kind(), Int))
}

func (k Key) ToUint() uint64 {
	switch k.Kind() {
	case Bool, Int, Uint:
		return uint64(k.i)
	case Float:
		return uint64(k.f)
	case Str:
		u, err := strconv.ParseUint(k.s.s, 10, 64)
		if err != nil {
			panic(wrongType(Str, Uint))
		}
		return u
	}
	panic(wrongType(k.Kind(), Uint))
}

func (k Key) ToFloat() float64 {
	switch k.Kind() {
	case Bool, Int:
		return float64(k.i)
	case Uint:
		return float64(uint64(k.i))
	case Float:
		return k.f
	case Str:
		f, err := strconv.ParseFloat(k.s.s, 64)
		if err != nil {
			panic(wrongType(Str, Float))
		}
		return f
	}
	panic(wrongType(k.Kind(), Float))
}

// ToStr renders the key as plain text (no quoting).
func (k Key) ToStr() string {
	switch k.Kind() {
	case Nil:
		return "nil"
	case Bool:
		if k.i != 0 {
			return "true"
		}
		return "false"
	case Int:
		return strconv.FormatInt(k.i, 10)
	case Uint:
		return strconv.FormatUint(uint64(k.i), 10)
	case Float:
		return formatFloat(k.f)
	case Str:
		return k.s.s
	}
	return "?"
}

func (k Key) String() string { return k.ToStr() }

// StepStr renders the key as a path step: "[3]" for numeric keys, ".name" for
// identifier-like strings, and a quoted bracket form otherwise.
func (k Key) StepStr() string {
	switch k.Kind() {
	case Str:
		s := k.s.s
		if isIdentLike(s) {
			return "." + s
		}
		return "[" + strconv.Quote(s) + "]"
	default:
		return "[" + k.ToStr() + "]"
	}
}

func isIdentLike(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Hash returns a stable hash of the key. String keys reuse the hash computed
// when the string was interned.
func (k Key) Hash() uint64 {
	var buf [9]byte
	switch k.Kind() {
	case Nil:
		return 0x736f1d34c2f1a3b7
	case Bool:
		buf[0] = byte(Bool)
		buf[1] = byte(k.i)
		return xxhash.Sum64(buf[:2])
	case Int, Uint:
		buf[0] = byte(Int)
		binary.LittleEndian.PutUint64(buf[1:], uint64(k.i))
		return xxhash.Sum64(buf[:])
	case Float:
		buf[0] = byte(Float)
		binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(k.f))
		return xxhash.Sum64(buf[:])
	case Str:
		return k.s.hash
	}
	return 0
}

// Equal reports value equality, with numeric keys comparing across int, uint
// and float representations.
func (k Key) Equal(other Key) bool {
	return k.Compare(other) == 0
}

// Compare imposes a total order on keys: nil < bool < numbers < strings, with
// numbers comparing sign-safely across representations and strings comparing
// lexically.
func (k Key) Compare(other Key) int {
	ra, rb := keyRank(k.Kind()), keyRank(other.Kind())
	if ra != rb {
		return cmpOrdered(ra, rb)
	}
	switch ra {
	case rankNil:
		return 0
	case rankBool:
		return cmpOrdered(k.i, other.i)
	case rankNum:
		return cmpNumKeys(k, other)
	case rankStr:
		if k.s == other.s {
			return 0
		}
		return strings.Compare(k.s.s, other.s.s)
	}
	return 0
}

const (
	rankNil = iota
	rankBool
	rankNum
	rankStr
)

func keyRank(k Kind) int {
	switch k {
	case Nil:
		return rankNil
	case Bool:
		return rankBool
	case Int, Uint, Float:
		return rankNum
	case Str:
		return rankStr
	}
	panic(wrongType(k))
}

func cmpNumKeys(a, b Key) int {
	switch a.kind {
	case Int:
		switch b.kind {
		case Int:
			return cmpOrdered(a.i, b.i)
		case Uint:
			return cmpIntUint(a.i, uint64(b.i))
		case Float:
			return cmpFloats(float64(a.i), b.f)
		}
	case Uint:
		switch b.kind {
		case Int:
			return -cmpIntUint(b.i, uint64(a.i))
		case Uint:
			return cmpOrdered(uint64(a.i), uint64(b.i))
		case Float:
			return cmpFloats(float64(uint64(a.i)), b.f)
		}
	case Float:
		switch b.kind {
		case Int:
			return cmpFloats(a.f, float64(b.i))
		case Uint:
			return cmpFloats(a.f, float64(uint64(b.i)))
		case Float:
			return cmpFloats(a.f, b.f)
		}
	}
	panic(wrongType(a.kind))
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnI") {
		s += ".0"
	}
	return s
}
