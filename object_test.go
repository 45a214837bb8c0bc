package objtree

import (
	"testing"
)

func TestNewConversions(t *testing.T) {
	deepEqual(t, New(nil).Kind(), Nil)
	deepEqual(t, New(true).Bool(), true)
	deepEqual(t, New(42).Int(), int64(42))
	deepEqual(t, New(uint64(42)).Uint(), uint64(42))
	deepEqual(t, New(2.5).Float(), 2.5)
	deepEqual(t, New("hi").Str(), "hi")

	list := New([]any{1, "two", 3.0})
	deepEqual(t, list.Kind(), List)
	deepEqual(t, list.Size(), 3)
	deepEqual(t, list.Get(1).Str(), "two")

	m := New(map[string]any{"b": 2, "a": 1})
	deepEqual(t, m.Kind(), SMap)
	deepEqual(t, m.Get("a").Int(), int64(1))
	deepEqual(t, m.Keys(), []Key{StrKey("a"), StrKey("b")})
}

func TestZeroObjectIsEmpty(t *testing.T) {
	var o Object
	deepEqual(t, o.IsEmpty(), true)
	deepEqual(t, o.IsValid(), false)
	mustPanic(t, &EmptyReferenceError{}, func() { o.Get("x") })
	mustPanic(t, &EmptyReferenceError{}, func() { o.Set("x", 1) })
	mustPanic(t, &EmptyReferenceError{}, func() { o.Size() })
}

func TestWrongTypeAccess(t *testing.T) {
	o := New(42)
	mustPanic(t, &WrongTypeError{}, func() { o.Str() })
	mustPanic(t, &WrongTypeError{}, func() { o.Bool() })
	mustPanic(t, &WrongTypeError{}, func() { New("x").IterKeys() })
}

func TestObjectIdentity(t *testing.T) {
	a := NewList(1, 2)
	b := a
	c := a.Copy()
	deepEqual(t, a.Is(b), true)
	deepEqual(t, a.Is(c), false)
	deepEqual(t, a.Equal(c), true)
	deepEqual(t, a.ID() == b.ID(), true)
	deepEqual(t, a.ID() == c.ID(), false)

	// non-string scalars identify by value
	deepEqual(t, New(5).Is(New(5)), true)
	deepEqual(t, New(5).ID() == New(5).ID(), true)
}

func TestCopyIsDeepAndReparents(t *testing.T) {
	orig := NewOMap("x", NewList(1, 2, 3), "y", "str")
	cp := orig.Copy()

	deepEqual(t, cp.Equal(orig), true)
	deepEqual(t, cp.Parent().IsEmpty(), true)
	deepEqual(t, cp.Get("x").Parent().Is(cp), true)

	cp.Get("x").Set(0, 99)
	deepEqual(t, orig.Get("x").Get(0).Int(), int64(1))
	deepEqual(t, cp.Get("x").Get(0).Int(), int64(99))
}

func TestParentLinks(t *testing.T) {
	root := NewOMap("x", NewList(1, 2, 3))
	x := root.Get("x")
	deepEqual(t, x.Parent().Is(root), true)
	deepEqual(t, x.Root().Is(root), true)
	deepEqual(t, root.KeyOf(x), StrKey("x"))

	// scalars with no block have no parent
	deepEqual(t, x.Get(0).Parent().IsEmpty(), true)

	str := root.Set("s", "hello")
	deepEqual(t, str.Parent().Is(root), true)
}

func TestSetReplacedChildDetaches(t *testing.T) {
	root := NewOMap("x", NewList(1, 2, 3))
	lst := root.Get("x")

	// {"x":[1,2,3]}; set x[1]=9; inline scalars carry no parent link
	neu := root.Get("x").Set(1, 9)
	deepEqual(t, root.Get("x").Get(1).Int(), int64(9))
	deepEqual(t, neu.Parent().IsEmpty(), true)

	// with container children both attach and detach are observable
	child := lst.Set(0, NewList(7))
	deepEqual(t, child.Parent().Is(lst), true)
	lst.Set(0, NewList(8))
	deepEqual(t, child.Parent().IsEmpty(), true)
	deepEqual(t, lst.Get(0).Parent().Is(lst), true)
}

func TestAdoptCopiesParentedValues(t *testing.T) {
	a := NewOMap("k", NewList(1))
	v := a.Get("k")

	b := NewOMap()
	stored := b.Set("k2", v)

	// the original stays in a; b got its own copy
	deepEqual(t, v.Parent().Is(a), true)
	deepEqual(t, stored.Is(v), false)
	deepEqual(t, stored.Parent().Is(b), true)
	deepEqual(t, stored.Equal(v), true)
}

func TestDelClearsParent(t *testing.T) {
	root := NewOMap("x", NewList(1), "y", NewList(2))
	x := root.Get("x")
	root.Del("x")
	deepEqual(t, x.Parent().IsEmpty(), true)
	deepEqual(t, root.Size(), 1)

	y := root.Get("y")
	root.Clear()
	deepEqual(t, y.Parent().IsEmpty(), true)
	deepEqual(t, root.Size(), 0)
}

func TestObjectCompareAndEqual(t *testing.T) {
	deepEqual(t, New(1).Compare(2), -1)
	deepEqual(t, New(2).Compare(1.5), 1)
	deepEqual(t, New(3).Compare(uint64(3)), 0)
	deepEqual(t, New("a").Compare("b"), -1)
	deepEqual(t, New(false).Compare(true), -1)
	mustPanic(t, &WrongTypeError{}, func() { NewList(1).Compare(2) })

	deepEqual(t, New(3).Equal(3.0), true)
	deepEqual(t, New(3).Equal("3"), false)
	deepEqual(t, NewList(1, 2).Equal(NewList(1, 2)), true)
	deepEqual(t, NewList(1, 2).Equal(NewList(2, 1)), false)
	deepEqual(t, NewSMap("a", 1).Equal(NewOMap("a", 1)), true)
	deepEqual(t, NewSMap("a", 1).Equal(NewOMap("a", 2)), false)
}

func TestObjectConversions(t *testing.T) {
	deepEqual(t, New("42").ToInt(), int64(42))
	deepEqual(t, New(42).ToStr(), "42")
	deepEqual(t, New(1).ToBool(), true)
	deepEqual(t, New("2.5").ToFloat(), 2.5)
	deepEqual(t, New(7).ToKey(), IntKey(7))
	deepEqual(t, New("k").ToKey(), StrKey("k"))
	mustPanic(t, &WrongTypeError{}, func() { NewList(1).ToKey() })
}

func TestInterface(t *testing.T) {
	o := NewOMap("a", NewList(1, "x"), "b", true)
	deepEqual(t, o.Interface(), any(map[string]any{
		"a": []any{int64(1), "x"},
		"b": true,
	}))
}
