package objtree

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Endpoint is one bound of a Slice: a key value plus whether the bound is
// exclusive. A nil Value leaves the bound open-ended.
type Endpoint struct {
	Value Key
	Open  bool
}

// Slice selects a range of list indices or map keys, python-style: the min
// bound is inclusive and the max bound is exclusive unless stated otherwise,
// and a negative step walks backwards. The zero Slice is invalid.
type Slice struct {
	min   Endpoint
	max   Endpoint
	step  int
	valid bool
}

// NewSlice builds a slice from min (inclusive) to max (exclusive) with the
// given step. Bounds are converted with NewKey; nil leaves a bound open.
func NewSlice(min, max any, step int) Slice {
	return NewSliceBounds(Endpoint{Value: NewKey(min)}, Endpoint{Value: NewKey(max), Open: true}, step)
}

// NewSliceBounds builds a slice with explicit bound exclusivity.
func NewSliceBounds(min, max Endpoint, step int) Slice {
	if step == 0 {
		panic("objtree: slice step must be nonzero")
	}
	return Slice{min: min, max: max, step: step, valid: true}
}

// All returns the slice selecting everything, in order.
func All() Slice { return NewSlice(nil, nil, 1) }

var sliceRE = regexp.MustCompile(`^([-+]?[0-9]+)?(:([-+]?[0-9]+)?)?(:([-+]?[0-9]+)?)?$`)

// ParseSlice parses python slice syntax: "start:stop:step" with every part
// optional, or a bare index selecting a single element.
func ParseSlice(s string) (Slice, error) {
	m := sliceRE.FindStringSubmatch(s)
	if m == nil {
		return Slice{}, fmt.Errorf("objtree: invalid slice %q", s)
	}
	start, stop, sep, stepStr := m[1], m[3], m[2], m[5]

	step := 1
	if stepStr != "" {
		var err error
		step, err = strconv.Atoi(stepStr)
		if err != nil || step == 0 {
			return Slice{}, fmt.Errorf("objtree: invalid slice step %q", s)
		}
	}

	if start == "" && stop == "" && sep == "" {
		return Slice{}, fmt.Errorf("objtree: invalid slice %q", s)
	}

	var min, max Endpoint
	max.Open = true
	if start != "" {
		v, err := strconv.ParseInt(start, 10, 64)
		if err != nil {
			return Slice{}, fmt.Errorf("objtree: invalid slice %q", s)
		}
		min.Value = IntKey(v)
		if stop == "" && sep == "" {
			// bare index selects a single element
			max = Endpoint{Value: IntKey(v)}
			return Slice{min: min, max: max, step: step, valid: true}, nil
		}
	}
	if stop != "" {
		v, err := strconv.ParseInt(stop, 10, 64)
		if err != nil {
			return Slice{}, fmt.Errorf("objtree: invalid slice %q", s)
		}
		max.Value = IntKey(v)
	}
	return Slice{min: min, max: max, step: step, valid: true}, nil
}

func (s Slice) IsValid() bool { return s.valid }
func (s Slice) Min() Endpoint { return s.min }
func (s Slice) Max() Endpoint { return s.max }
func (s Slice) Step() int { return s.step }

// Contains reports whether the key falls within the slice bounds. The step is
// not considered.
func (s Slice) Contains(k Key) bool {
	if !s.min.Value.IsNil() {
		c := k.Compare(s.min.Value)
		if s.min.Open && c <= 0 {
			return false
		}
		if !s.min.Open && c < 0 {
			return false
		}
	}
	if !s.max.Value.IsNil() {
		c := k.Compare(s.max.Value)
		if s.max.Open && c >= 0 {
			return false
		}
		if !s.max.Open && c > 0 {
			return false
		}
	}
	return true
}

// Indices resolves the slice against a list of the given size, returning
// start, stop and step such that iteration visits start, start+step, ... while
// short of stop (or above it, for negative steps). Bounds must be nil or
// integers.
func (s Slice) Indices(size int) (start, stop, step int) {
	step = s.step

	switch s.min.Value.Kind() {
	case Nil:
		if step > 0 {
			start = 0
		} else {
			start = size - 1
		}
	case Int:
		start = int(s.min.Value.Int())
		if size > 0 && start < 0 {
			start = max(0, start+size)
		}
		if s.min.Open {
			start++
		}
	case Uint:
		start = int(s.min.Value.Uint())
		if s.min.Open {
			start++
		}
	default:
		panic(wrongType(s.min.Value.Kind(), Nil, Int, Uint))
	}

	switch s.max.Value.Kind() {
	case Nil:
		if step > 0 {
			stop = size
		} else {
			stop = -1
		}
	case Int:
		stop = int(s.max.Value.Int())
		if size > 0 && stop < 0 {
			stop = max(0, stop+size)
		}
		if !s.max.Open {
			stop++
		}
	case Uint:
		stop = int(s.max.Value.Uint())
		if !s.max.Open {
			stop++
		}
	default:
		panic(wrongType(s.max.Value.Kind(), Nil, Int, Uint))
	}

	return start, stop, step
}

// clampIndices bounds the resolved indices to the valid positions of a list
// of the given size, so iteration can index without further checks.
func clampIndices(start, stop, step, size int) (int, int, int) {
	if step > 0 {
		start = max(start, 0)
		stop = min(stop, size)
	} else {
		start = min(start, size-1)
		stop = max(stop, -1)
	}
	return start, stop, step
}

// Normalize resolves the slice against a list size into pure index form.
func (s Slice) Normalize(size int) Slice {
	start, stop, step := s.Indices(size)
	return Slice{
		min:   Endpoint{Value: IntKey(int64(start))},
		max:   Endpoint{Value: IntKey(int64(stop)), Open: true},
		step:  step,
		valid: true,
	}
}

func (s Slice) String() string {
	var b strings.Builder
	if s.min.Open {
		b.WriteByte('(')
	} else {
		b.WriteByte('[')
	}
	b.WriteString(s.min.Value.ToStr())
	b.WriteString(", ")
	b.WriteString(s.max.Value.ToStr())
	if s.max.Open {
		b.WriteByte(')')
	} else {
		b.WriteByte(']')
	}
	return b.String()
}
