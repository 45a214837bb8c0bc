package objtree

// Item is one key/value pair produced by item iteration.
type Item struct {
	Key   Key
	Value Object
}

// KeyCursor streams keys out of a data source adapter. Next advances and
// reports whether a key is available; Err reports the first failure after
// Next returns false.
type KeyCursor interface {
	Next() bool
	Key() Key
	Err() error
}

// ItemCursor streams key/value pairs out of a data source adapter.
type ItemCursor interface {
	Next() bool
	Item() Item
	Err() error
}

type iterMode uint8

const (
	iterDone iterMode = iota
	iterList
	iterSMap
	iterOMap
	iterCursorKeys
	iterCursorItems
)

// iterCore drives all three public iterators. Plain containers iterate by
// position; a bound node resolves to its cache when fully cached and
// otherwise streams from the adapter, filtering tombstones and preferring
// cached values over store values so iteration agrees with Get.
type iterCore struct {
	mode iterMode

	list []Object
	smap *sortedMap
	omap *orderedMap
	pos  int
	stop int
	step int

	maxKey  Key
	maxOpen bool
	hasMax  bool

	kcur  KeyCursor
	icur  ItemCursor
	cache Object
	px    *proxy

	key Key
	val Object
}

func (c *iterCore) init(o Object, slices []Slice, wantValues bool) {
	var sl Slice
	if len(slices) > 1 {
		panic("objtree: at most one slice per iteration")
	}
	if len(slices) == 1 {
		sl = slices[0]
		if !sl.IsValid() {
			panic("objtree: invalid slice")
		}
	}
	sliced := sl.IsValid()

	switch o.kind {
	case Empty:
		panic(emptyRef("Iter"))
	case List:
		c.initList(o.blk.list, sl, sliced)
	case SMap:
		c.initSMap(o.blk.smap, sl, sliced)
	case OMap:
		if sliced {
			panic(wrongType(OMap, List, SMap))
		}
		c.mode = iterOMap
		c.omap = o.blk.omap
	case DSrc:
		px := o.blk.ds
		if !px.meta.Sparse || px.fullyCached {
			c.init(px.cached(o), slices, wantValues)
			return
		}
		px.seedSparse(o)
		c.px = px
		c.cache = px.cache
		if !sliced {
			sl = All()
		}
		if wantValues {
			cur, err := px.adapter.IterItems(sl)
			if err != nil {
				px.readError(o, err)
				c.mode = iterDone
				return
			}
			c.mode = iterCursorItems
			c.icur = cur
		} else {
			cur, err := px.adapter.IterKeys(sl)
			if err != nil {
				px.readError(o, err)
				c.mode = iterDone
				return
			}
			c.mode = iterCursorKeys
			c.kcur = cur
		}
	default:
		panic(wrongType(o.kind, List, SMap, OMap))
	}
}

func (c *iterCore) initList(list []Object, sl Slice, sliced bool) {
	c.mode = iterList
	c.list = list
	if sliced {
		start, stop, step := sl.Indices(len(list))
		c.pos, c.stop, c.step = clampIndices(start, stop, step, len(list))
	} else {
		c.pos, c.stop, c.step = 0, len(list), 1
	}
}

func (c *iterCore) initSMap(m *sortedMap, sl Slice, sliced bool) {
	c.mode = iterSMap
	c.smap = m
	if sliced {
		if mn := sl.Min(); !mn.Value.IsNil() {
			c.pos = m.lowerBound(mn.Value, mn.Open)
		}
		if mx := sl.Max(); !mx.Value.IsNil() {
			c.hasMax = true
			c.maxKey = mx.Value
			c.maxOpen = mx.Open
		}
	}
}

func (c *iterCore) beyondMax(k Key) bool {
	if !c.hasMax {
		return false
	}
	cmp := k.Compare(c.maxKey)
	if c.maxOpen {
		return cmp >= 0
	}
	return cmp > 0
}

func (c *iterCore) cacheLookup(k Key) (Object, bool) {
	switch c.cache.kind {
	case SMap:
		return c.cache.blk.smap.get(k)
	case OMap:
		return c.cache.blk.omap.get(k)
	}
	return Object{}, false
}

func (c *iterCore) next() bool {
	switch c.mode {
	case iterList:
		if c.step > 0 {
			if c.pos >= c.stop {
				c.mode = iterDone
				return false
			}
		} else if c.pos <= c.stop {
			c.mode = iterDone
			return false
		}
		c.key = IntKey(int64(c.pos))
		c.val = c.list[c.pos]
		c.pos += c.step
		return true

	case iterSMap:
		for c.pos < c.smap.len() {
			k := c.smap.keys[c.pos]
			if c.beyondMax(k) {
				break
			}
			v := c.smap.vals[c.pos]
			c.pos++
			if v.isDeleted() {
				continue
			}
			c.key, c.val = k, v
			return true
		}
		c.mode = iterDone
		return false

	case iterOMap:
		for c.pos < c.omap.len() {
			k, v := c.omap.keys[c.pos], c.omap.vals[c.pos]
			c.pos++
			if v.isDeleted() {
				continue
			}
			c.key, c.val = k, v
			return true
		}
		c.mode = iterDone
		return false

	case iterCursorKeys:
		for c.kcur.Next() {
			k := c.kcur.Key()
			if cached, ok := c.cacheLookup(k); ok && cached.isDeleted() {
				continue
			}
			c.key = k
			c.val = Object{}
			return true
		}
		if err := c.kcur.Err(); err != nil {
			c.px.readError(Object{}, err)
		}
		c.mode = iterDone
		return false

	case iterCursorItems:
		for c.icur.Next() {
			item := c.icur.Item()
			if cached, ok := c.cacheLookup(item.Key); ok {
				if cached.isDeleted() {
					continue
				}
				c.key, c.val = item.Key, cached
			} else {
				c.key, c.val = item.Key, item.Value
			}
			return true
		}
		if err := c.icur.Err(); err != nil {
			c.px.readError(Object{}, err)
		}
		c.mode = iterDone
		return false
	}
	return false
}

// KeyIter iterates container keys. List keys are the element indices.
type KeyIter struct{ core iterCore }

// IterKeys iterates the container's keys, optionally restricted to a slice.
func (o Object) IterKeys(slice ...Slice) *KeyIter {
	it := &KeyIter{}
	it.core.init(o, slice, false)
	return it
}

func (it *KeyIter) Next() bool { return it.core.next() }
func (it *KeyIter) Key() Key   { return it.core.key }

// ValueIter iterates container values.
type ValueIter struct{ core iterCore }

// IterValues iterates the container's values, optionally restricted to a slice.
func (o Object) IterValues(slice ...Slice) *ValueIter {
	it := &ValueIter{}
	it.core.init(o, slice, true)
	return it
}

func (it *ValueIter) Next() bool    { return it.core.next() }
func (it *ValueIter) Value() Object { return it.core.val }

// ItemIter iterates key/value pairs.
type ItemIter struct{ core iterCore }

// IterItems iterates the container's key/value pairs, optionally restricted
// to a slice.
func (o Object) IterItems(slice ...Slice) *ItemIter {
	it := &ItemIter{}
	it.core.init(o, slice, true)
	return it
}

func (it *ItemIter) Next() bool { return it.core.next() }
func (it *ItemIter) Item() Item { return Item{Key: it.core.key, Value: it.core.val} }

// Keys collects the container's keys into a slice.
func (o Object) Keys(slice ...Slice) []Key {
	var out []Key
	it := o.IterKeys(slice...)
	for it.Next() {
		out = append(out, it.Key())
	}
	return out
}

// Values collects the container's values into a slice.
func (o Object) Values(slice ...Slice) []Object {
	var out []Object
	it := o.IterValues(slice...)
	for it.Next() {
		out = append(out, it.Value())
	}
	return out
}

// Items collects the container's key/value pairs into a slice.
func (o Object) Items(slice ...Slice) []Item {
	var out []Item
	it := o.IterItems(slice...)
	for it.Next() {
		out = append(out, it.Item())
	}
	return out
}
