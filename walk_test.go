package objtree

import "testing"

func TestWalkDF(t *testing.T) {
	root := NewOMap("a", NewList(1, 2), "b", 3)

	var trace []string
	root.WalkDF(func(parent Object, key Key, node Object, event WalkEvent) bool {
		switch event {
		case WalkEnter:
			trace = append(trace, "enter "+key.ToStr())
		case WalkLeave:
			trace = append(trace, "leave "+key.ToStr())
		case WalkValue:
			trace = append(trace, key.ToStr()+"="+node.ToStr())
		}
		return true
	})
	deepEqual(t, trace, []string{
		"enter nil",
		"enter a",
		"0=1",
		"1=2",
		"leave a",
		"b=3",
		"leave nil",
	})
}

func TestWalkDFSkipsSubtree(t *testing.T) {
	root := NewOMap("a", NewList(1, 2), "b", 3)
	var seen []string
	root.WalkDF(func(parent Object, key Key, node Object, event WalkEvent) bool {
		if event == WalkEnter && key.Equal(StrKey("a")) {
			return false
		}
		if event == WalkValue {
			seen = append(seen, key.ToStr())
		}
		return true
	})
	deepEqual(t, seen, []string{"b"})
}

func TestWalkBF(t *testing.T) {
	root := NewOMap("a", NewList(10, 20), "b", 3)
	var vals []string
	root.WalkBF(func(parent Object, key Key, node Object, event WalkEvent) bool {
		if event == WalkValue {
			vals = append(vals, node.ToStr())
		}
		return true
	})
	// b comes before the list's elements: one level at a time
	deepEqual(t, vals, []string{"3", "10", "20"})
}

func TestLine(t *testing.T) {
	root := NewOMap()
	leaf := root.SetPath("a.b", NewList(1))
	line := leaf.Line()
	deepEqual(t, len(line), 3)
	deepEqual(t, line[0].Is(leaf), true)
	deepEqual(t, line[2].Is(root), true)
}

func TestFindAncestor(t *testing.T) {
	root := NewOMap()
	leaf := root.SetPath("a.b", NewList(1))
	found := leaf.FindAncestor(func(n Object) bool { return n.Is(root) })
	deepEqual(t, found.Is(root), true)
	missing := leaf.FindAncestor(func(n Object) bool { return false })
	deepEqual(t, missing.IsEmpty(), true)
}
