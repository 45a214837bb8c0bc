package objtree

import (
	"fmt"
	"strconv"
	"strings"
)

// Path addresses a node by the keys leading to it from an origin. The zero
// Path addresses the origin itself.
type Path struct {
	keys []Key
}

// NewPath builds a path from keys, each converted with NewKey.
func NewPath(keys ...any) Path {
	p := Path{keys: make([]Key, 0, len(keys))}
	for _, k := range keys {
		p.keys = append(p.keys, NewKey(k))
	}
	return p
}

// ParsePath parses a path expression like "a.b[3]" or `tags["first name"]`.
// Identifier steps follow dots; bracketed steps hold an integer index or a
// quoted string key.
func ParsePath(src string) (Path, error) {
	var keys []Key
	i, n := 0, len(src)
	for i < n && isSpaceByte(src[i]) {
		i++
	}
	if i < n && src[i] != '.' && src[i] != '[' {
		keys = append(keys, parseDotKey(src, &i))
	}
	for i < n {
		switch src[i] {
		case '.':
			i++
			if i < n {
				keys = append(keys, parseDotKey(src, &i))
			}
		case '[':
			i++
			if i < n {
				k, err := parseBraceKey(src, &i)
				if err != nil {
					return Path{}, err
				}
				keys = append(keys, k)
			}
		default:
			return Path{}, &PathError{Path: src, Reason: fmt.Sprintf("expected '.' or '[' at offset %d", i)}
		}
	}
	return Path{keys: keys}, nil
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func parseDotKey(src string, i *int) Key {
	start := *i
	for *i < len(src) {
		c := src[*i]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			*i++
		} else {
			break
		}
	}
	return StrKey(src[start:*i])
}

func parseBraceKey(src string, i *int) (Key, error) {
	start := *i
	c := src[*i]
	if c == '\'' || c == '"' {
		quote := c
		*i++
		qstart := *i
		escaped := false
		for *i < len(src) {
			c := src[*i]
			if escaped {
				escaped = false
				*i++
				continue
			}
			if c == '\\' {
				escaped = true
				*i++
				continue
			}
			if c == quote {
				key := src[qstart:*i]
				*i++
				for *i < len(src) && isSpaceByte(src[*i]) {
					*i++
				}
				if *i >= len(src) || src[*i] != ']' {
					return Key{}, &PathError{Path: src, Reason: "missing closing ']'"}
				}
				*i++
				return StrKey(key), nil
			}
			*i++
		}
		return Key{}, &PathError{Path: src, Reason: "missing closing quote"}
	}

	for *i < len(src) && src[*i] != ']' {
		*i++
	}
	if *i >= len(src) {
		return Key{}, &PathError{Path: src, Reason: "missing closing ']'"}
	}
	text := src[start:*i]
	*i++
	v, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return Key{}, &PathError{Path: src, Reason: fmt.Sprintf("invalid index %q", text)}
	}
	return IntKey(v), nil
}

// Append returns the path extended by one key.
func (p Path) Append(key any) Path {
	keys := make([]Key, len(p.keys), len(p.keys)+1)
	copy(keys, p.keys)
	return Path{keys: append(keys, NewKey(key))}
}

// Parent returns the path without its final key.
func (p Path) Parent() Path {
	if len(p.keys) < 2 {
		return Path{}
	}
	return Path{keys: p.keys[:len(p.keys)-1]}
}

func (p Path) Len() int    { return len(p.keys) }
func (p Path) Keys() []Key { return p.keys }

// Tail returns the final key, or the nil key for an empty path.
func (p Path) Tail() Key {
	if len(p.keys) == 0 {
		return Key{}
	}
	return p.keys[len(p.keys)-1]
}

func (p Path) String() string {
	if len(p.keys) == 0 {
		return "."
	}
	var b strings.Builder
	for i, k := range p.keys {
		step := k.StepStr()
		if i == 0 {
			step = strings.TrimPrefix(step, ".")
		}
		b.WriteString(step)
	}
	return b.String()
}

// lookup follows the path from origin, returning nil as soon as a step is
// missing.
func (p Path) lookup(origin Object) Object {
	obj := origin
	for _, k := range p.keys {
		child := obj.Get(k)
		if child.IsNil() {
			return nilValue
		}
		obj = child
	}
	return obj
}

// create follows the path from origin, building missing intermediate
// containers, and stores last at the end. An intermediate is a list when the
// following key is an integer, and an ordered map otherwise.
func (p Path) create(origin Object, last Object) Object {
	if len(p.keys) == 0 {
		return last
	}
	obj := origin
	for i := 0; i < len(p.keys)-1; i++ {
		k, next := p.keys[i], p.keys[i+1]
		child := obj.Get(k)
		if child.IsNil() {
			kind := OMap
			if nk := next.Kind(); nk == Int || nk == Uint {
				kind = List
			}
			child = obj.Set(k, newContainer(kind))
		}
		obj = child
	}
	return obj.Set(p.keys[len(p.keys)-1], last)
}

func toPath(path any) Path {
	switch p := path.(type) {
	case Path:
		return p
	case string:
		parsed, err := ParsePath(p)
		if err != nil {
			panic(err)
		}
		return parsed
	case Key:
		return Path{keys: []Key{p}}
	case []Key:
		return Path{keys: p}
	default:
		return Path{keys: []Key{NewKey(path)}}
	}
}

// Path returns the keys leading from the root of the tree to this node.
func (o Object) Path() Path {
	return o.PathFrom(Object{})
}

// PathFrom returns the keys leading from the given ancestor to this node.
func (o Object) PathFrom(root Object) Path {
	var keys []Key
	obj := o
	for {
		if !root.IsEmpty() && obj.Is(root) {
			break
		}
		par := obj.Parent()
		if par.IsEmpty() {
			break
		}
		keys = append(keys, par.KeyOf(obj))
		obj = par
	}
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
	return Path{keys: keys}
}

// GetPath resolves a path (a Path, a path string, or a single key) against
// this node.
func (o Object) GetPath(path any) Object {
	return toPath(path).lookup(o)
}

// SetPath stores value at the path, creating intermediate containers as
// needed, and returns the stored node.
func (o Object) SetPath(path, value any) Object {
	return toPath(path).create(o, New(value))
}

// DelPath removes the node at the path, if present.
func (o Object) DelPath(path any) {
	obj := toPath(path).lookup(o)
	if !obj.IsNil() {
		obj.DelFromParent()
	}
}
