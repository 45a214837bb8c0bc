package objtree

import (
	"errors"
	"testing"
)

// memSource is a complete adapter over an in-memory value, counting calls.
type memSource struct {
	SourceBase
	data      Object
	reads     int
	writes    int
	commits   int
	failRead  bool
	failWrite bool
}

func newMemSource(kv ...any) *memSource {
	return &memSource{data: NewOMap(kv...)}
}

func (s *memSource) Meta() SourceMeta { return SourceMeta{Kind: OMap} }

func (s *memSource) NewInstance(origin Origin) DataSource { return &memSource{data: NewOMap()} }

func (s *memSource) Read() (Object, error) {
	if s.failRead {
		return Object{}, errors.New("read refused")
	}
	s.reads++
	return s.data.Copy(), nil
}

func (s *memSource) Write(data Object) error {
	if s.failWrite {
		return errors.New("write refused")
	}
	s.writes++
	s.data = data.Copy()
	return nil
}

func (s *memSource) Commit(data Object, deleted []Key) error {
	s.commits++
	return nil
}

// kvSource is a sparse adapter over an in-memory ordered map, recording every
// per-key call.
type kvSource struct {
	SourceBase
	data        Object
	readKeys    map[string]int
	writeKeys   map[string]int
	deleteKeys  map[string]int
	commits     int
	lastDeleted []Key
	failRead    bool
	failWrite   bool
}

func newKVSource(kv ...any) *kvSource {
	return &kvSource{
		data:       NewOMap(kv...),
		readKeys:   make(map[string]int),
		writeKeys:  make(map[string]int),
		deleteKeys: make(map[string]int),
	}
}

func (s *kvSource) Meta() SourceMeta { return SourceMeta{Sparse: true, Kind: OMap} }

func (s *kvSource) NewInstance(origin Origin) DataSource { return newKVSource() }

func (s *kvSource) Read() (Object, error) {
	if s.failRead {
		return Object{}, errors.New("read refused")
	}
	return s.data.Copy(), nil
}

func (s *kvSource) ReadKey(key Key) (Object, error) {
	if s.failRead {
		return Object{}, errors.New("read refused")
	}
	s.readKeys[key.ToStr()]++
	if !s.data.HasKey(key) {
		return Object{}, nil
	}
	return s.data.Get(key).Copy(), nil
}

func (s *kvSource) WriteKey(key Key, value Object) error {
	if s.failWrite {
		return errors.New("write refused")
	}
	s.writeKeys[key.ToStr()]++
	s.data.Set(key, value.Copy())
	return nil
}

func (s *kvSource) DeleteKey(key Key) error {
	if s.failWrite {
		return errors.New("write refused")
	}
	s.deleteKeys[key.ToStr()]++
	s.data.Del(key)
	return nil
}

func (s *kvSource) Commit(data Object, deleted []Key) error {
	s.commits++
	s.lastDeleted = deleted
	return nil
}

func (s *kvSource) IterKeys(sl Slice) (KeyCursor, error) {
	var keys []Key
	for _, k := range s.data.Keys() {
		if sl.Contains(k) {
			keys = append(keys, k)
		}
	}
	return &stubKeyCursor{keys: keys}, nil
}

func (s *kvSource) IterItems(sl Slice) (ItemCursor, error) {
	var items []Item
	for _, item := range s.data.Items() {
		if sl.Contains(item.Key) {
			items = append(items, item)
		}
	}
	return &stubItemCursor{items: items}, nil
}

type stubKeyCursor struct {
	keys []Key
	pos  int
}

func (c *stubKeyCursor) Next() bool {
	if c.pos >= len(c.keys) {
		return false
	}
	c.pos++
	return true
}

func (c *stubKeyCursor) Key() Key   { return c.keys[c.pos-1] }
func (c *stubKeyCursor) Err() error { return nil }

type stubItemCursor struct {
	items []Item
	pos   int
}

func (c *stubItemCursor) Next() bool {
	if c.pos >= len(c.items) {
		return false
	}
	c.pos++
	return true
}

func (c *stubItemCursor) Item() Item { return c.items[c.pos-1] }
func (c *stubItemCursor) Err() error { return nil }

func TestCompleteLoadsOnce(t *testing.T) {
	src := newMemSource("x", 1, "y", NewList(2, 3))
	o := NewSource(src, OriginSource, Options{})

	deepEqual(t, o.IsBound(), true)
	deepEqual(t, o.IsFullyCached(), false)
	deepEqual(t, o.Get("x").Int(), int64(1))
	deepEqual(t, o.Get("y").Get(1).Int(), int64(3))
	deepEqual(t, o.Size(), 2)
	deepEqual(t, src.reads, 1)
	deepEqual(t, o.IsFullyCached(), true)

	// loaded children are parented to the bound node
	deepEqual(t, o.Get("y").Parent().Is(o), true)
}

func TestCompleteSave(t *testing.T) {
	src := newMemSource("x", 1)
	o := NewSource(src, OriginSource, Options{})

	deepEqual(t, o.IsUnsaved(), false)
	o.Set("x", 2)
	deepEqual(t, o.IsUnsaved(), true)
	o.Save()
	deepEqual(t, src.writes, 1)
	deepEqual(t, src.commits, 1)
	deepEqual(t, o.IsUnsaved(), false)
	deepEqual(t, src.data.Get("x").Int(), int64(2))

	// no changes, no write
	o.Save()
	deepEqual(t, src.writes, 1)
}

func TestMemoryOriginStartsUnsaved(t *testing.T) {
	src := newMemSource()
	o := NewSource(src, OriginMemory, Options{})
	deepEqual(t, o.IsUnsaved(), true)
	deepEqual(t, o.IsFullyCached(), true)
	o.Set("a", 1)
	o.Save()
	deepEqual(t, src.reads, 0)
	deepEqual(t, src.writes, 1)
	deepEqual(t, src.data.Get("a").Int(), int64(1))
}

func TestSparseGetMemoizes(t *testing.T) {
	src := newKVSource("a", 1)
	o := NewSource(src, OriginSource, Options{})

	deepEqual(t, o.Get("a").Int(), int64(1))
	deepEqual(t, o.Get("a").Int(), int64(1))
	deepEqual(t, src.readKeys["a"], 1)

	// misses are memoized too
	deepEqual(t, o.Get("nope").IsNil(), true)
	deepEqual(t, o.Get("nope").IsNil(), true)
	deepEqual(t, src.readKeys["nope"], 1)

	deepEqual(t, o.IsFullyCached(), false)
}

func TestSparseHasKeyNilStable(t *testing.T) {
	src := newKVSource("a", nil, "b", 1)
	o := NewSource(src, OriginSource, Options{})

	deepEqual(t, o.HasKey("b"), true)
	deepEqual(t, o.Get("b").Int(), int64(1))
	deepEqual(t, o.HasKey("b"), true)

	// a stored nil answers like a missing key, memoized or not
	deepEqual(t, o.HasKey("a"), false)
	deepEqual(t, o.Get("a").IsNil(), true)
	deepEqual(t, o.HasKey("a"), false)
}

func TestSparseDelAndSave(t *testing.T) {
	src := newKVSource("a", 1, "b", 2)
	o := NewSource(src, OriginSource, Options{})

	deepEqual(t, o.Size(), 2)
	o.Del("a")
	deepEqual(t, o.Get("a").IsNil(), true)
	deepEqual(t, o.Size(), 1)

	o.Save()
	deepEqual(t, src.deleteKeys["a"], 1)
	deepEqual(t, len(src.writeKeys), 0)
	deepEqual(t, src.commits, 1)
	deepEqual(t, src.lastDeleted, []Key{StrKey("a")})
	deepEqual(t, src.data.HasKey("a"), false)
	deepEqual(t, src.data.Get("b").Int(), int64(2))

	// tombstone purged, repeated save is a no-op
	o.Save()
	deepEqual(t, src.deleteKeys["a"], 1)
}

func TestSparseSaveWritesEveryCachedKey(t *testing.T) {
	src := newKVSource("a", 1, "b", 2)
	o := NewSource(src, OriginSource, Options{})

	deepEqual(t, o.Get("b").Int(), int64(2)) // cached, unchanged
	o.Set("c", 3)
	o.Save()

	deepEqual(t, src.writeKeys["b"], 1)
	deepEqual(t, src.writeKeys["c"], 1)
	deepEqual(t, src.writeKeys["a"], 0)
	deepEqual(t, src.data.Get("c").Int(), int64(3))
}

func TestBindSeededSparse(t *testing.T) {
	obj := NewOMap("x", 1, "y", 2)
	src := newKVSource()
	o := Bind(obj, src, Options{})

	deepEqual(t, o.IsBound(), true)
	deepEqual(t, o.IsFullyCached(), true)
	deepEqual(t, o.IsUnsaved(), true)

	o.Del("x")
	deepEqual(t, o.Size(), 1)
	deepEqual(t, o.Get("x").IsNil(), true)

	o.Save()
	deepEqual(t, src.deleteKeys["x"], 1)
	deepEqual(t, src.writeKeys["y"], 1)
	deepEqual(t, src.commits, 1)

	o.Reset()
	deepEqual(t, o.Get("x").IsNil(), true)
	deepEqual(t, o.Get("y").Int(), int64(2))
}

func TestBindReplacesNodeInTree(t *testing.T) {
	root := NewOMap("cfg", NewOMap("a", NewList(1)))
	src := newMemSource()
	bound := Bind(root.Get("cfg"), src, Options{})

	deepEqual(t, root.Get("cfg").Is(bound), true)
	deepEqual(t, bound.Parent().Is(root), true)
	deepEqual(t, bound.Get("a").Get(0).Int(), int64(1))
	deepEqual(t, bound.Get("a").Parent().Is(bound), true)

	root.Save()
	deepEqual(t, src.writes, 1)
	deepEqual(t, src.data.Get("a").Get(0).Int(), int64(1))
}

func TestSparseIteration(t *testing.T) {
	src := newKVSource("a", 1, "b", 2, "c", 3)
	o := NewSource(src, OriginSource, Options{})

	o.Set("b", 99) // cached value wins over the store
	o.Del("a")     // tombstones are skipped

	items := o.Items()
	deepEqual(t, len(items), 2)
	deepEqual(t, items[0].Key, StrKey("b"))
	deepEqual(t, items[0].Value.Int(), int64(99))
	deepEqual(t, items[1].Key, StrKey("c"))
	deepEqual(t, items[1].Value.Int(), int64(3))

	deepEqual(t, o.Keys(), []Key{StrKey("b"), StrKey("c")})
}

func TestSparseIterationSliced(t *testing.T) {
	src := newKVSource("a", 1, "b", 2, "c", 3, "d", 4)
	o := NewSource(src, OriginSource, Options{})

	keys := o.Keys(NewSliceBounds(Endpoint{Value: StrKey("b")}, Endpoint{Value: StrKey("c")}, 1))
	deepEqual(t, keys, []Key{StrKey("b"), StrKey("c")})
}

func TestSparseClearTombstonesEverything(t *testing.T) {
	src := newKVSource("a", 1, "b", 2)
	o := NewSource(src, OriginSource, Options{Mode: ModeRead | ModeWrite | ModeClobber})

	o.Clear()
	deepEqual(t, o.Size(), 0)
	deepEqual(t, o.Get("a").IsNil(), true)

	o.Save()
	deepEqual(t, src.deleteKeys["a"], 1)
	deepEqual(t, src.deleteKeys["b"], 1)
	deepEqual(t, src.data.Size(), 0)
}

func TestWriteProtected(t *testing.T) {
	o := NewSource(newKVSource("a", 1), OriginSource, Options{Mode: ModeRead})
	deepEqual(t, o.Get("a").Int(), int64(1))
	mustPanic(t, &WriteProtectedError{}, func() { o.Set("a", 2) })
	mustPanic(t, &WriteProtectedError{}, func() { o.Del("a") })
}

func TestClobberProtected(t *testing.T) {
	o := NewSource(newKVSource("a", 1), OriginSource, Options{})
	mustPanic(t, &ClobberProtectedError{}, func() { o.Clear() })
	mustPanic(t, &ClobberProtectedError{}, func() { o.SetValue(NewOMap("b", 2)) })

	// clobber mode allows wholesale replacement
	oc := NewSource(newKVSource("a", 1), OriginSource, Options{Mode: ModeRead | ModeWrite | ModeClobber})
	oc.SetValue(NewOMap("b", 2))
	deepEqual(t, oc.Get("b").Int(), int64(2))
}

func TestModeInherit(t *testing.T) {
	child := NewSource(newMemSource("k", 1), OriginSource, Options{Mode: ModeInherit})
	parent := NewSource(newMemSource(), OriginMemory, Options{Mode: ModeRead | ModeWrite})
	parent.Set("child", child)

	child.Set("k", 2) // inherits rw from parent
	deepEqual(t, child.Get("k").Int(), int64(2))

	// a read-only parent denies writes through an inheriting child; the child
	// is wired in directly since Set on the parent itself is protected
	inh := NewSource(newMemSource("k", 1), OriginSource, Options{Mode: ModeInherit})
	top := NewSource(newKVSource(), OriginMemory, Options{Mode: ModeRead})
	top.blk.ds.cache.Set(StrKey("child"), inh)
	inh.setParent(top)
	mustPanic(t, &WriteProtectedError{}, func() { inh.Set("k", 2) })
}

func TestReadErrorModes(t *testing.T) {
	src := newMemSource("a", 1)
	src.failRead = true

	op := NewSource(src, OriginSource, Options{})
	mustPanic(t, &DataSourceError{}, func() { op.Get("a") })

	oq := NewSource(src, OriginSource, Options{ReadErrors: ErrorQuiet})
	deepEqual(t, oq.Get("a").IsNil(), true)
	deepEqual(t, oq.IsValid(), false)

	src.failRead = false
	oq.Reset()
	deepEqual(t, oq.Get("a").Int(), int64(1))
	deepEqual(t, oq.IsValid(), true)
}

func TestFailedSaveKeepsUnsaved(t *testing.T) {
	src := newMemSource("a", 1)
	o := NewSource(src, OriginSource, Options{WriteErrors: ErrorQuiet})

	o.Set("a", 2)
	src.failWrite = true
	o.Save()
	deepEqual(t, o.IsUnsaved(), true)

	src.failWrite = false
	o.Save()
	deepEqual(t, o.IsUnsaved(), false)
	deepEqual(t, src.data.Get("a").Int(), int64(2))
}

func TestFailedSparseDeleteKeepsTombstone(t *testing.T) {
	src := newKVSource("a", 1)
	o := NewSource(src, OriginSource, Options{WriteErrors: ErrorQuiet})

	o.Del("a")
	src.failWrite = true
	o.Save()
	deepEqual(t, o.IsUnsaved(), true)
	deepEqual(t, src.data.HasKey("a"), true)

	src.failWrite = false
	o.Save()
	deepEqual(t, o.IsUnsaved(), false)
	deepEqual(t, src.data.HasKey("a"), false)
}

func TestReset(t *testing.T) {
	src := newMemSource("a", 1)
	o := NewSource(src, OriginSource, Options{})

	deepEqual(t, o.Get("a").Int(), int64(1))
	src.data.Set("a", 2)
	deepEqual(t, o.Get("a").Int(), int64(1)) // cached
	o.Reset()
	deepEqual(t, o.Get("a").Int(), int64(2))
	deepEqual(t, src.reads, 2)
}

func TestResetKey(t *testing.T) {
	src := newKVSource("a", 1, "b", 2)
	o := NewSource(src, OriginSource, Options{})

	deepEqual(t, o.Get("a").Int(), int64(1))
	deepEqual(t, o.Get("b").Int(), int64(2))
	src.data.Set("a", 10)
	src.data.Set("b", 20)

	o.ResetKey("a")
	deepEqual(t, o.Get("a").Int(), int64(10))
	deepEqual(t, o.Get("b").Int(), int64(2)) // still cached
}

func TestRefresh(t *testing.T) {
	src := newMemSource("a", 1)
	o := NewSource(src, OriginSource, Options{})

	// not loaded yet: refresh must not trigger a load
	o.Refresh()
	deepEqual(t, src.reads, 0)

	o.Set("a", 99)
	src.data.Set("a", 2)
	o.Refresh()
	deepEqual(t, o.Get("a").Int(), int64(2))
	deepEqual(t, o.IsUnsaved(), false)
}

func TestMarkDirtyThroughNestedContainer(t *testing.T) {
	src := newMemSource("m", NewOMap("k", 1))
	o := NewSource(src, OriginSource, Options{})

	o.Get("m").Set("k", 2)
	deepEqual(t, o.IsUnsaved(), true)
	o.Save()
	deepEqual(t, src.data.Get("m").Get("k").Int(), int64(2))
}

func TestCopyBoundNode(t *testing.T) {
	src := newKVSource("a", 1)
	o := NewSource(src, OriginSource, Options{})

	cp := o.Copy()
	deepEqual(t, cp.IsBound(), true)
	deepEqual(t, cp.IsFullyCached(), true)
	deepEqual(t, cp.IsUnsaved(), true)
	deepEqual(t, cp.Get("a").Int(), int64(1))

	cp.Set("a", 2)
	deepEqual(t, o.Get("a").Int(), int64(1))
	cp.Save()
	deepEqual(t, src.writeKeys["a"], 0) // writes go to the copy's own instance
}

func TestSaveWalksNestedSources(t *testing.T) {
	inner := newMemSource("k", 1)
	child := NewSource(inner, OriginSource, Options{})

	root := NewOMap("child", child)
	child = root.Get("child")
	child.Set("k", 2)

	root.Save()
	deepEqual(t, inner.writes, 1)
	deepEqual(t, inner.data.Get("k").Int(), int64(2))
}

func TestKindProbesWithoutLoad(t *testing.T) {
	src := newKVSource("a", 1)
	o := NewSource(src, OriginSource, Options{})
	deepEqual(t, o.Kind(), OMap) // declared by Meta, no store access
	deepEqual(t, len(src.readKeys), 0)
}
