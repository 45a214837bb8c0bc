package objtree

// WalkEvent tells a visitor where it stands relative to a container: scalars
// arrive as WalkValue, containers as a WalkEnter/WalkLeave pair around their
// children.
type WalkEvent uint8

const (
	WalkValue WalkEvent = iota
	WalkEnter
	WalkLeave
)

// Visitor receives one node per call during a walk. The parent is empty and
// the key nil for the walk's origin. Returning false from a WalkEnter call
// skips the container's children; the return value is ignored otherwise.
type Visitor func(parent Object, key Key, node Object, event WalkEvent) bool

// WalkDF visits the subtree depth-first in document order. Bound nodes are
// entered through their content, loading it if necessary.
func (o Object) WalkDF(visit Visitor) {
	walkDF(Object{}, Key{}, o, visit)
}

func walkDF(parent Object, key Key, node Object, visit Visitor) {
	r := node.resolve()
	if r.kind.IsContainer() {
		if !visit(parent, key, node, WalkEnter) {
			return
		}
		it := r.IterItems()
		for it.Next() {
			item := it.Item()
			walkDF(node, item.Key, item.Value, visit)
		}
		visit(parent, key, node, WalkLeave)
		return
	}
	visit(parent, key, node, WalkValue)
}

// WalkBF visits the subtree breadth-first: the origin, then its children,
// then theirs. Containers arrive as WalkEnter only; there is no WalkLeave in
// a breadth-first walk.
func (o Object) WalkBF(visit Visitor) {
	type entry struct {
		parent Object
		key    Key
		node   Object
	}
	queue := []entry{{node: o}}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		r := e.node.resolve()
		if r.kind.IsContainer() {
			if !visit(e.parent, e.key, e.node, WalkEnter) {
				continue
			}
			it := r.IterItems()
			for it.Next() {
				item := it.Item()
				queue = append(queue, entry{parent: e.node, key: item.Key, node: item.Value})
			}
		} else {
			visit(e.parent, e.key, e.node, WalkValue)
		}
	}
}

// Line returns the chain from this node to the root, the node itself first.
func (o Object) Line() []Object {
	var line []Object
	for n := o; !n.IsEmpty(); n = n.Parent() {
		line = append(line, n)
	}
	return line
}

// FindAncestor returns the nearest node on the parent chain, the node itself
// included, for which pred returns true.
func (o Object) FindAncestor(pred func(Object) bool) Object {
	for n := o; !n.IsEmpty(); n = n.Parent() {
		if pred(n) {
			return n
		}
	}
	return Object{}
}

// walkTree visits the subtree in depth-first pre-order. enter gates descent,
// which lets callers avoid faulting in unloaded data sources.
func walkTree(o Object, enter func(Object) bool, visit func(Object)) {
	visit(o)
	if !enter(o) {
		return
	}
	for _, child := range containerChildren(o) {
		walkTree(child, enter, visit)
	}
}

func containerChildren(o Object) []Object {
	switch o.kind {
	case List:
		return o.blk.list
	case SMap:
		return o.blk.smap.vals
	case OMap:
		return o.blk.omap.vals
	case DSrc:
		return containerChildren(o.blk.ds.cache)
	}
	return nil
}
