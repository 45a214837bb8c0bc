package objtree

var nilValue = Object{kind: Nil}

func normIndex(i int64, size int) int {
	if i < 0 {
		i += int64(size)
	}
	if i < 0 || i >= int64(size) {
		return -1
	}
	return int(i)
}

func keyIndex(k Key) int64 {
	switch k.Kind() {
	case Int:
		return k.Int()
	case Uint:
		return int64(k.Uint())
	}
	panic(wrongType(k.Kind(), Int, Uint))
}

// Get returns the child under the given key, or a nil Object when the key is
// absent or a list index is out of range. Negative indices count from the end.
// Getting from a bound node reads through the data source.
func (o Object) Get(key any) Object {
	k := NewKey(key)
	switch o.kind {
	case Empty:
		panic(emptyRef("Get"))
	case Str:
		i := normIndex(keyIndex(k), len(o.blk.str))
		if i < 0 {
			return nilValue
		}
		return strObject(o.blk.str[i : i+1])
	case List:
		i := normIndex(keyIndex(k), len(o.blk.list))
		if i < 0 {
			return nilValue
		}
		return o.blk.list[i]
	case SMap:
		if v, ok := o.blk.smap.get(k); ok {
			return v
		}
		return nilValue
	case OMap:
		if v, ok := o.blk.omap.get(k); ok {
			return v
		}
		return nilValue
	case DSrc:
		return o.blk.ds.get(o, k)
	}
	return nilValue
}

// HasKey reports whether the key is present, without the nil-value ambiguity
// of Get. Probing a sparse bound node reads the key but does not cache it.
func (o Object) HasKey(key any) bool {
	k := NewKey(key)
	switch o.kind {
	case Empty:
		panic(emptyRef("HasKey"))
	case Str:
		return normIndex(keyIndex(k), len(o.blk.str)) >= 0
	case List:
		return normIndex(keyIndex(k), len(o.blk.list)) >= 0
	case SMap:
		_, ok := o.blk.smap.get(k)
		return ok
	case OMap:
		_, ok := o.blk.omap.get(k)
		return ok
	case DSrc:
		return o.blk.ds.hasKey(o, k)
	}
	return false
}

// Set stores value under key and returns the stored node. List indices must be
// in range, except that the index just past the end appends. A value that
// already has a parent is deep-copied first; the displaced child, if any, is
// detached from the tree.
func (o Object) Set(key, value any) Object {
	k := NewKey(key)
	v := New(value)
	switch o.kind {
	case Empty:
		panic(emptyRef("Set"))
	case Str:
		o.strSplice(k, v)
		return v
	case List:
		return o.listSet(k, v)
	case SMap:
		v = adoptChild(o, v)
		if prev, ok := o.blk.smap.put(k, v); ok {
			prev.clearParent()
		}
		markDirty(o)
		return v
	case OMap:
		v = adoptChild(o, v)
		if prev, ok := o.blk.omap.put(k, v); ok {
			prev.clearParent()
		}
		markDirty(o)
		return v
	case DSrc:
		return o.blk.ds.set(o, k, v)
	}
	panic(wrongType(o.kind, Str, List, SMap, OMap))
}

func (o Object) listSet(k Key, v Object) Object {
	idx := keyIndex(k)
	size := len(o.blk.list)
	i := idx
	if i < 0 {
		i += int64(size)
	}
	if i < 0 || i > int64(size) {
		panic(&RangeError{Index: idx, Size: size})
	}
	v = adoptChild(o, v)
	if i == int64(size) {
		o.blk.list = append(o.blk.list, v)
	} else {
		o.blk.list[i].clearParent()
		o.blk.list[i] = v
	}
	markDirty(o)
	return v
}

// strSplice overwrites string bytes starting at the index, growing the string
// when the replacement runs past the end.
func (o Object) strSplice(k Key, v Object) {
	i := normIndex(keyIndex(k), len(o.blk.str))
	if i < 0 {
		return
	}
	s, repl := o.blk.str, v.ToStr()
	if len(repl) > len(s)-i {
		o.blk.str = s[:i] + repl
	} else {
		o.blk.str = s[:i] + repl + s[i+len(repl):]
	}
	markDirty(o)
}

// SetValue replaces this node's value within its parent and returns the new
// node. On a parentless bound node it replaces the entire cached content.
func (o Object) SetValue(value any) Object {
	if o.kind == Empty {
		panic(emptyRef("SetValue"))
	}
	v := New(value)
	par := o.Parent()
	if par.IsEmpty() {
		if o.kind == DSrc {
			o.blk.ds.setAll(o, v)
			return v
		}
		panic("objtree: SetValue: node has no parent")
	}
	return par.Set(par.KeyOf(o), v)
}

// Insert places value at a list index, shifting later elements right. On maps
// it behaves like Set. On strings it inserts text at the index.
func (o Object) Insert(key, value any) Object {
	k := NewKey(key)
	v := New(value)
	switch o.kind {
	case Empty:
		panic(emptyRef("Insert"))
	case Str:
		idx := keyIndex(k)
		size := len(o.blk.str)
		i := idx
		if i < 0 {
			i += int64(size)
		}
		if i < 0 || i > int64(size) {
			return nilValue
		}
		o.blk.str = o.blk.str[:i] + v.ToStr() + o.blk.str[i:]
		markDirty(o)
		return v
	case List:
		idx := keyIndex(k)
		size := len(o.blk.list)
		i := idx
		if i < 0 {
			i += int64(size)
		}
		if i < 0 || i > int64(size) {
			panic(&RangeError{Index: idx, Size: size})
		}
		v = adoptChild(o, v)
		o.blk.list = append(o.blk.list, Object{})
		copy(o.blk.list[i+1:], o.blk.list[i:])
		o.blk.list[i] = v
		markDirty(o)
		return v
	case SMap, OMap:
		return o.Set(k, v)
	}
	panic(wrongType(o.kind, Str, List, SMap, OMap))
}

// Del removes the child under the given key, detaching it from the tree.
// Missing keys and out-of-range indices are ignored. Deleting from a sparse
// bound node records a tombstone that becomes a store delete on Save.
func (o Object) Del(key any) {
	k := NewKey(key)
	switch o.kind {
	case Empty:
		panic(emptyRef("Del"))
	case List:
		i := normIndex(keyIndex(k), len(o.blk.list))
		if i < 0 {
			return
		}
		child := o.blk.list[i]
		o.blk.list = append(o.blk.list[:i], o.blk.list[i+1:]...)
		child.clearParent()
		markDirty(o)
	case SMap:
		if prev, ok := o.blk.smap.del(k); ok {
			prev.clearParent()
			markDirty(o)
		}
	case OMap:
		if prev, ok := o.blk.omap.del(k); ok {
			prev.clearParent()
			markDirty(o)
		}
	case DSrc:
		o.blk.ds.del(o, k)
	default:
		panic(wrongType(o.kind, List, SMap, OMap))
	}
}

// DelFromParent removes this node from its parent, if it has one.
func (o Object) DelFromParent() {
	par := o.Parent()
	if !par.IsEmpty() {
		par.Del(par.KeyOf(o))
	}
}

// Clear removes all children, detaching each from the tree. Clearing a sparse
// bound node tombstones every key in the store.
func (o Object) Clear() {
	switch o.kind {
	case Empty:
		panic(emptyRef("Clear"))
	case Str:
		o.blk.str = ""
		markDirty(o)
	case List:
		for _, child := range o.blk.list {
			child.clearParent()
		}
		o.blk.list = o.blk.list[:0]
		markDirty(o)
	case SMap:
		o.blk.smap.each(func(_ Key, v Object) { v.clearParent() })
		*o.blk.smap = sortedMap{}
		markDirty(o)
	case OMap:
		o.blk.omap.each(func(_ Key, v Object) { v.clearParent() })
		*o.blk.omap = *newOrderedMap()
		markDirty(o)
	case DSrc:
		o.blk.ds.clear(o)
	default:
		panic(wrongType(o.kind, Str, List, SMap, OMap))
	}
}

// Size returns the number of children, the byte length of a string, or zero
// for other scalars.
func (o Object) Size() int {
	switch o.kind {
	case Empty:
		panic(emptyRef("Size"))
	case Str:
		return len(o.blk.str)
	case List:
		return len(o.blk.list)
	case SMap:
		return o.blk.smap.len()
	case OMap:
		return o.blk.omap.len()
	case DSrc:
		return o.blk.ds.size(o)
	}
	return 0
}

// KeyOf returns the key under which the child lives in this container, found
// by handle identity, or the nil key if the child is not here.
func (o Object) KeyOf(child Object) Key {
	switch o.kind {
	case Nil:
		return Key{}
	case List:
		for i, item := range o.blk.list {
			if item.Is(child) {
				return IntKey(int64(i))
			}
		}
	case SMap:
		for i, k := range o.blk.smap.keys {
			if o.blk.smap.vals[i].Is(child) {
				return k
			}
		}
	case OMap:
		for i, k := range o.blk.omap.keys {
			if o.blk.omap.vals[i].Is(child) {
				return k
			}
		}
	case DSrc:
		return o.blk.ds.keyOf(child)
	default:
		panic(wrongType(o.kind, List, SMap, OMap))
	}
	return Key{}
}

// GetSlice returns a new list holding deep copies of the selected elements.
// For maps, keys within the slice bounds are selected in iteration order;
// insertion-ordered maps do not support slicing.
func (o Object) GetSlice(s Slice) Object {
	switch o.kind {
	case Empty:
		panic(emptyRef("GetSlice"))
	case Str:
		start, stop, step := clampStr(s, len(o.blk.str))
		var b []byte
		if step > 0 {
			for i := start; i < stop; i += step {
				b = append(b, o.blk.str[i])
			}
		} else {
			for i := start; i > stop; i += step {
				b = append(b, o.blk.str[i])
			}
		}
		return strObject(string(b))
	default:
		out := newContainer(List)
		it := o.IterValues(s)
		for it.Next() {
			v := it.Value().Copy()
			v.setParent(out)
			out.blk.list = append(out.blk.list, v)
		}
		return out
	}
}

func clampStr(s Slice, size int) (int, int, int) {
	start, stop, step := s.Indices(size)
	return clampIndices(start, stop, step, size)
}

// SetSlice splices values into the selected range. With step 1 or -1 the
// range is replaced python-style, growing or shrinking the list; larger steps
// assign elementwise and require the value count to match the range. On
// sorted maps the range is deleted and values are stored under consecutive
// integer keys starting at the slice minimum.
func (o Object) SetSlice(s Slice, values any) {
	in := New(values)
	if !in.Kind().IsContainer() {
		panic(wrongType(in.Kind(), List, SMap, OMap))
	}
	if in.Size() == 0 {
		return
	}
	vals := in.Values()
	switch o.kind {
	case Empty:
		panic(emptyRef("SetSlice"))
	case List:
		o.listSetSlice(s, vals)
	case SMap:
		o.DelSlice(s)
		start := keyIndex(s.Min().Value)
		for _, v := range vals {
			o.Set(IntKey(start), v)
			start++
		}
	case DSrc:
		o.blk.ds.setSlice(o, s, vals)
	default:
		panic(wrongType(o.kind, List, SMap))
	}
}

func (o Object) listSetSlice(s Slice, vals []Object) {
	markDirty(o)
	start, stop, step := clampList(s, len(o.blk.list))
	switch {
	case step == 1:
		o.spliceForward(start, stop, vals)
	case step == -1:
		rev := make([]Object, len(vals))
		for i, v := range vals {
			rev[len(vals)-1-i] = v
		}
		o.spliceForward(stop+1, start+1, rev)
	default:
		var count int
		if step > 0 {
			count = max(0, (stop-start+step-1)/step)
		} else {
			count = max(0, (stop-start+step+1)/step)
		}
		if count != len(vals) {
			panic(&RangeError{Index: int64(len(vals)), Size: count})
		}
		i := start
		for _, v := range vals {
			o.blk.list[i].clearParent()
			o.blk.list[i] = adoptChild(o, v)
			i += step
		}
	}
}

func clampList(s Slice, size int) (int, int, int) {
	start, stop, step := s.Indices(size)
	return clampIndices(start, stop, step, size)
}

func (o Object) spliceForward(start, stop int, vals []Object) {
	if stop < start {
		stop = start
	}
	list := o.blk.list
	for i := start; i < stop; i++ {
		list[i].clearParent()
	}
	adopted := make([]Object, len(vals))
	for i, v := range vals {
		adopted[i] = adoptChild(o, v)
	}
	tail := append(adopted, list[stop:]...)
	o.blk.list = append(list[:start], tail...)
}

// DelSlice removes the selected elements. Insertion-ordered maps do not
// support slicing.
func (o Object) DelSlice(s Slice) {
	switch o.kind {
	case Empty:
		panic(emptyRef("DelSlice"))
	case Str:
		start, stop, step := clampStr(s, len(o.blk.str))
		drop := make(map[int]bool)
		if step > 0 {
			for i := start; i < stop; i += step {
				drop[i] = true
			}
		} else {
			for i := start; i > stop; i += step {
				drop[i] = true
			}
		}
		keep := make([]byte, 0, len(o.blk.str))
		for i := 0; i < len(o.blk.str); i++ {
			if !drop[i] {
				keep = append(keep, o.blk.str[i])
			}
		}
		o.blk.str = string(keep)
		markDirty(o)
	case List:
		start, stop, step := clampList(s, len(o.blk.list))
		// collect highest-first so earlier removals do not shift pending indices
		var idx []int
		if step > 0 {
			for i := start; i < stop; i += step {
				idx = append(idx, i)
			}
			for l, r := 0, len(idx)-1; l < r; l, r = l+1, r-1 {
				idx[l], idx[r] = idx[r], idx[l]
			}
		} else {
			for i := start; i > stop; i += step {
				idx = append(idx, i)
			}
		}
		for _, i := range idx {
			o.blk.list[i].clearParent()
			o.blk.list = append(o.blk.list[:i], o.blk.list[i+1:]...)
		}
		markDirty(o)
	case SMap:
		var keys []Key
		it := o.IterKeys(s)
		for it.Next() {
			keys = append(keys, it.Key())
		}
		for _, k := range keys {
			o.Del(k)
		}
	case DSrc:
		o.blk.ds.delSlice(o, s)
	default:
		panic(wrongType(o.kind, Str, List, SMap))
	}
}
