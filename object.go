package objtree

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Object is a handle on a node of a dynamic tree. Scalars other than strings
// are stored inline; strings, containers and bound nodes share a heap block,
// so copying an Object copies the handle, not the data. The zero Object is an
// empty reference: it is not a valid node, and operations on it panic with an
// EmptyReferenceError.
type Object struct {
	kind Kind
	i    int64
	f    float64
	blk  *block
}

// block backs strings, containers and bound nodes. All handles on the same
// node share one block. The parent handle is maintained by the tree ops and
// cleared when the node is removed from its container.
type block struct {
	parent Object
	id     uint64
	str    string
	list   []Object
	smap   *sortedMap
	omap   *orderedMap
	ds     *proxy
}

func strObject(s string) Object {
	return Object{kind: Str, blk: &block{str: s}}
}

func intObject(i int64) Object { return Object{kind: Int, i: i} }
func uintObject(u uint64) Object { return Object{kind: Uint, i: int64(u)} }
func boolObject(b bool) Object { return Object{kind: Bool, i: boolInt(b)} }
func floatObject(f float64) Object { return Object{kind: Float, f: f} }

func newContainer(kind Kind) Object {
	blk := &block{}
	switch kind {
	case List:
	case SMap:
		blk.smap = &sortedMap{}
	case OMap:
		blk.omap = newOrderedMap()
	default:
		panic(wrongType(kind, List, SMap, OMap))
	}
	return Object{kind: kind, blk: blk}
}

// New converts a Go value to an Object. Accepted: nil, bool, integer and float
// types, string, Key, Object, []any, []Object, and map[string]any (which
// becomes a sorted map, since Go maps have no order of their own). Anything
// else panics.
func New(v any) Object {
	switch v := v.(type) {
	case nil:
		return Object{kind: Nil}
	case Object:
		return v
	case Key:
		return v.Object()
	case bool:
		return boolObject(v)
	case int:
		return intObject(int64(v))
	case int8:
		return intObject(int64(v))
	case int16:
		return intObject(int64(v))
	case int32:
		return intObject(int64(v))
	case int64:
		return intObject(v)
	case uint:
		return uintObject(uint64(v))
	case uint8:
		return uintObject(uint64(v))
	case uint16:
		return uintObject(uint64(v))
	case uint32:
		return uintObject(uint64(v))
	case uint64:
		return uintObject(v)
	case uintptr:
		return uintObject(uint64(v))
	case float32:
		return floatObject(float64(v))
	case float64:
		return floatObject(v)
	case string:
		return strObject(v)
	case []any:
		return NewList(v...)
	case []Object:
		items := make([]any, len(v))
		for i, o := range v {
			items[i] = o
		}
		return NewList(items...)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := newContainer(SMap)
		for _, k := range keys {
			out.blk.smap.put(StrKey(k), adoptChild(out, New(v[k])))
		}
		return out
	default:
		panic(fmt.Sprintf("objtree: cannot convert %T to Object", v))
	}
}

// NewList builds a list from the given items, converting each with New.
func NewList(items ...any) Object {
	out := newContainer(List)
	out.blk.list = make([]Object, 0, len(items))
	for _, item := range items {
		out.blk.list = append(out.blk.list, adoptChild(out, New(item)))
	}
	return out
}

// NewSMap builds a sorted map from alternating key/value arguments.
func NewSMap(kv ...any) Object {
	out := newContainer(SMap)
	fillMap(out, kv)
	return out
}

// NewOMap builds an insertion-ordered map from alternating key/value arguments.
func NewOMap(kv ...any) Object {
	out := newContainer(OMap)
	fillMap(out, kv)
	return out
}

func fillMap(out Object, kv []any) {
	if len(kv)%2 != 0 {
		panic("objtree: odd number of key/value arguments")
	}
	for i := 0; i < len(kv); i += 2 {
		key := NewKey(kv[i])
		val := adoptChild(out, New(kv[i+1]))
		switch out.kind {
		case SMap:
			if prev, ok := out.blk.smap.put(key, val); ok {
				prev.clearParent()
			}
		case OMap:
			if prev, ok := out.blk.omap.put(key, val); ok {
				prev.clearParent()
			}
		}
	}
}

// adoptChild prepares a value for insertion under parent: a value that already
// lives in another container is deep-copied so that no node ever has two
// parents.
func adoptChild(parent, child Object) Object {
	if !child.Parent().IsEmpty() {
		child = child.Copy()
	}
	child.setParent(parent)
	return child
}

// Object converts the key to the equivalent scalar object.
func (k Key) Object() Object {
	switch k.Kind() {
	case Nil:
		return Object{kind: Nil}
	case Bool:
		return Object{kind: Bool, i: k.i}
	case Int:
		return intObject(k.i)
	case Uint:
		return uintObject(uint64(k.i))
	case Float:
		return floatObject(k.f)
	case Str:
		return strObject(k.s.s)
	}
	panic(wrongType(k.Kind()))
}

// Kind reports the node's resolved representation. A bound node reports the
// kind of its content, probing the data source's type if nothing is cached
// yet; it never reports DSrc.
func (o Object) Kind() Kind { return o.valueKind() }

func (o Object) valueKind() Kind {
	if o.kind == DSrc {
		return o.blk.ds.kind(o)
	}
	return o.kind
}

// resolve returns the node holding the actual data: the fully loaded cache for
// a bound node, the node itself otherwise.
func (o Object) resolve() Object {
	if o.kind == DSrc {
		return o.blk.ds.cached(o)
	}
	return o
}

func (o Object) IsEmpty() bool { return o.kind == Empty }
func (o Object) IsNil() bool { return o.valueKind() == Nil }

// IsBound reports whether the node is backed by a data source.
func (o Object) IsBound() bool { return o.kind == DSrc }

// Source returns the adapter backing a bound node, or nil.
func (o Object) Source() DataSource {
	if o.kind == DSrc {
		return o.blk.ds.adapter
	}
	return nil
}

// IsValid reports whether the node's backing data can be read. Unbound nodes
// are valid unless empty.
func (o Object) IsValid() bool {
	switch o.kind {
	case Empty:
		return false
	case DSrc:
		return o.blk.ds.isValid(o)
	}
	return true
}

func (o Object) isDeleted() bool { return o.kind == Del }

// Is reports handle identity: both handles designate the same node. Scalars
// other than strings have no identity beyond their value.
func (o Object) Is(other Object) bool {
	if o.blk != nil || other.blk != nil {
		return o.blk == other.blk
	}
	if o.kind != other.kind {
		return false
	}
	switch o.kind {
	case Float:
		return math.Float64bits(o.f) == math.Float64bits(other.f)
	default:
		return o.i == other.i
	}
}

// Bool returns the bool payload, panicking unless the node holds a bool.
func (o Object) Bool() bool {
	r := o.resolve()
	if r.kind != Bool {
		panic(wrongType(r.valueKind(), Bool))
	}
	return r.i != 0
}

// Int returns the int payload, panicking unless the node holds an int.
func (o Object) Int() int64 {
	r := o.resolve()
	if r.kind != Int {
		panic(wrongType(r.valueKind(), Int))
	}
	return r.i
}

// Uint returns the uint payload, panicking unless the node holds a uint.
func (o Object) Uint() uint64 {
	r := o.resolve()
	if r.kind != Uint {
		panic(wrongType(r.valueKind(), Uint))
	}
	return uint64(r.i)
}

// Float returns the float payload, panicking unless the node holds a float.
func (o Object) Float() float64 {
	r := o.resolve()
	if r.kind != Float {
		panic(wrongType(r.valueKind(), Float))
	}
	return r.f
}

// Str returns the string payload, panicking unless the node holds a string.
func (o Object) Str() string {
	r := o.resolve()
	if r.kind != Str {
		panic(wrongType(r.valueKind(), Str))
	}
	return r.blk.str
}

// ToBool converts the node to a bool: numbers are true when nonzero, strings
// parse as booleans.
func (o Object) ToBool() bool {
	r := o.resolve()
	switch r.kind {
	case Nil:
		return false
	case Bool, Int, Uint:
		return r.i != 0
	case Float:
		return r.f != 0
	case Str:
		b, err := strconv.ParseBool(r.blk.str)
		if err != nil {
			panic(wrongType(Str, Bool))
		}
		return b
	}
	panic(wrongType(r.valueKind(), Bool))
}

func (o Object) ToInt() int64 {
	r := o.resolve()
	switch r.kind {
	case Bool, Int, Uint:
		return r.i
	case Float:
		return int64(r.f)
	case Str:
		i, err := strconv.ParseInt(r.blk.str, 10, 64)
		if err != nil {
			panic(wrongType(Str, Int))
		}
		return i
	}
	panic(wrongType(r.valueKind(), Int))
}

func (o Object) ToUint() uint64 {
	r := o.resolve()
	switch r.kind {
	case Bool, Int, Uint:
		return uint64(r.i)
	case Float:
		return uint64(r.f)
	case Str:
		u, err := strconv.ParseUint(r.blk.str, 10, 64)
		if err != nil {
			panic(wrongType(Str, Uint))
		}
		return u
	}
	panic(wrongType(r.valueKind(), Uint))
}

func (o Object) ToFloat() float64 {
	r := o.resolve()
	switch r.kind {
	case Bool, Int:
		return float64(r.i)
	case Uint:
		return float64(uint64(r.i))
	case Float:
		return r.f
	case Str:
		f, err := strconv.ParseFloat(r.blk.str, 64)
		if err != nil {
			panic(wrongType(Str, Float))
		}
		return f
	}
	panic(wrongType(r.valueKind(), Float))
}

// ToStr renders the node as plain text: scalars like Key.ToStr, strings
// verbatim, containers as JSON.
func (o Object) ToStr() string {
	r := o.resolve()
	switch r.kind {
	case Empty:
		panic(emptyRef("ToStr"))
	case Str:
		return r.blk.str
	case List, SMap, OMap:
		return r.ToJSON()
	default:
		return r.ToKey().ToStr()
	}
}

func (o Object) String() string {
	if o.kind == Empty {
		return "<empty>"
	}
	return o.ToStr()
}

// ToKey converts a scalar node to a Key. Containers panic.
func (o Object) ToKey() Key {
	r := o.resolve()
	switch r.kind {
	case Empty:
		panic(emptyRef("ToKey"))
	case Nil:
		return Key{kind: Nil}
	case Bool:
		return Key{kind: Bool, i: r.i}
	case Int:
		return IntKey(r.i)
	case Uint:
		return UintKey(uint64(r.i))
	case Float:
		return FloatKey(r.f)
	case Str:
		return StrKey(r.blk.str)
	}
	panic(wrongType(r.valueKind(), Nil, Bool, Int, Uint, Float, Str))
}

// Parent returns the container this node lives in, or an empty Object for
// roots and parentless scalars.
func (o Object) Parent() Object {
	if o.blk == nil {
		return Object{}
	}
	return o.blk.parent
}

// Root follows parent links to the top of the tree.
func (o Object) Root() Object {
	root := o
	for {
		p := root.Parent()
		if p.IsEmpty() {
			return root
		}
		root = p
	}
}

func (o Object) setParent(p Object) {
	if o.blk != nil {
		o.blk.parent = p
	}
}

func (o Object) clearParent() {
	if o.blk != nil {
		o.blk.parent = Object{}
	}
}

// Copy returns a deep copy of the subtree rooted at this node. The copy has no
// parent. Copying a bound node clones its adapter with a memory origin, so the
// copy is unsaved and fully cached.
func (o Object) Copy() Object {
	switch o.kind {
	case Empty, Nil, Bool, Int, Uint, Float, Del:
		return o
	case Str:
		return strObject(o.blk.str)
	case List:
		out := newContainer(List)
		out.blk.list = make([]Object, 0, len(o.blk.list))
		for _, child := range o.blk.list {
			c := child.Copy()
			c.setParent(out)
			out.blk.list = append(out.blk.list, c)
		}
		return out
	case SMap:
		out := newContainer(SMap)
		o.blk.smap.each(func(k Key, v Object) {
			c := v.Copy()
			c.setParent(out)
			out.blk.smap.put(k, c)
		})
		return out
	case OMap:
		out := newContainer(OMap)
		o.blk.omap.each(func(k Key, v Object) {
			c := v.Copy()
			c.setParent(out)
			out.blk.omap.put(k, c)
		})
		return out
	case DSrc:
		return o.blk.ds.copyObject(o)
	}
	panic(wrongType(o.kind))
}

// Interface returns the subtree as plain Go values: nil, bool, int64, uint64,
// float64, string, []any, and map[string]any. Map key order and non-string
// key types are lost; use the iterators when they matter.
func (o Object) Interface() any {
	r := o.resolve()
	switch r.kind {
	case Empty, Nil:
		return nil
	case Bool:
		return r.i != 0
	case Int:
		return r.i
	case Uint:
		return uint64(r.i)
	case Float:
		return r.f
	case Str:
		return r.blk.str
	case List:
		out := make([]any, 0, len(r.blk.list))
		for _, c := range r.blk.list {
			out = append(out, c.Interface())
		}
		return out
	case SMap, OMap:
		out := make(map[string]any, r.Size())
		r.each(func(k Key, v Object) {
			if !v.isDeleted() {
				out[k.ToStr()] = v.Interface()
			}
		})
		return out
	}
	panic(wrongType(r.kind))
}

// Compare orders two scalar nodes: nil < bool < numbers < strings, with
// numbers comparing sign-safely across int, uint and float. Containers panic.
func (o Object) Compare(other any) int {
	return compareObjects(o, New(other))
}

// Equal reports deep value equality with the given value, which is converted
// with New. Numeric scalars compare across representations.
func (o Object) Equal(other any) bool {
	return equalObjects(o, New(other))
}
