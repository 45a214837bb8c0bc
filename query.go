package objtree

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Query is a compiled predicate over tree nodes. The expression sees each
// node through an environment with:
//
//	key    the key under which the node lives (string form; nil at the origin)
//	value  the node's scalar payload, or nil for containers
//	kind   the node's kind name ("int", "list", ...)
//	path   the node's path from the query origin
//	size   the node's size
//
// and must evaluate to a boolean.
type Query struct {
	src string
	prg *vm.Program
}

// CompileQuery compiles a predicate expression.
func CompileQuery(src string) (*Query, error) {
	prg, err := expr.Compile(src, expr.Env(queryEnv{}), expr.AsBool())
	if err != nil {
		return nil, err
	}
	return &Query{src: src, prg: prg}, nil
}

// MustCompileQuery is CompileQuery for expressions in code; it panics on
// error.
func MustCompileQuery(src string) *Query {
	q, err := CompileQuery(src)
	if err != nil {
		panic(err)
	}
	return q
}

func (q *Query) String() string { return q.src }

type queryEnv map[string]any

func queryEnvFor(origin, parent Object, key Key, node Object) queryEnv {
	env := queryEnv{
		"key":   nil,
		"value": nil,
		"kind":  node.Kind().String(),
		"path":  node.PathFrom(origin).String(),
		"size":  node.Size(),
	}
	if !parent.IsEmpty() {
		env["key"] = key.ToStr()
	}
	r := node.resolve()
	switch r.kind {
	case Bool:
		env["value"] = r.i != 0
	case Int:
		env["value"] = r.i
	case Uint:
		env["value"] = uint64(r.i)
	case Float:
		env["value"] = r.f
	case Str:
		env["value"] = r.blk.str
	}
	return env
}

func (q *Query) match(origin, parent Object, key Key, node Object) (bool, error) {
	out, err := expr.Run(q.prg, queryEnvFor(origin, parent, key, node))
	if err != nil {
		return false, err
	}
	return out.(bool), nil
}

// Find returns the first node in the subtree, in depth-first document order,
// matching the query, or an empty Object.
func (o Object) Find(q *Query) (Object, error) {
	var found Object
	var ferr error
	o.WalkDF(func(parent Object, key Key, node Object, event WalkEvent) bool {
		if ferr != nil || !found.IsEmpty() || event == WalkLeave {
			return false
		}
		ok, err := q.match(o, parent, key, node)
		if err != nil {
			ferr = err
			return false
		}
		if ok {
			found = node
			return false
		}
		return true
	})
	return found, ferr
}

// FindAll returns every node in the subtree, in depth-first document order,
// matching the query.
func (o Object) FindAll(q *Query) ([]Object, error) {
	var found []Object
	var ferr error
	o.WalkDF(func(parent Object, key Key, node Object, event WalkEvent) bool {
		if ferr != nil || event == WalkLeave {
			return false
		}
		ok, err := q.match(o, parent, key, node)
		if err != nil {
			ferr = err
			return false
		}
		if ok {
			found = append(found, node)
		}
		return true
	})
	return found, ferr
}
