package objtree

import "testing"

func TestSliceIndices(t *testing.T) {
	check := func(s Slice, size, wantStart, wantStop, wantStep int) {
		t.Helper()
		start, stop, step := s.Indices(size)
		if start != wantStart || stop != wantStop || step != wantStep {
			t.Errorf("** %v.Indices(%d) = (%d,%d,%d), wanted (%d,%d,%d)",
				s, size, start, stop, step, wantStart, wantStop, wantStep)
		}
	}

	check(NewSlice(nil, nil, 1), 5, 0, 5, 1)
	check(NewSlice(-2, nil, 1), 5, 3, 5, 1)
	check(NewSlice(nil, nil, -1), 5, 4, -1, -1)

	check(NewSlice(1, 4, 1), 5, 1, 4, 1)
	check(NewSlice(nil, -1, 1), 5, 0, 4, 1)
	check(NewSlice(-2, -5, -1), 5, 3, 0, -1)
	check(NewSlice(0, 5, 2), 5, 0, 5, 2)

	// closed max includes the endpoint
	check(NewSliceBounds(Endpoint{Value: IntKey(1)}, Endpoint{Value: IntKey(3)}, 1), 5, 1, 4, 1)
	// open min excludes it
	check(NewSliceBounds(Endpoint{Value: IntKey(1), Open: true}, Endpoint{Value: IntKey(4), Open: true}, 1), 5, 2, 4, 1)
}

func TestSliceStepZeroPanics(t *testing.T) {
	mustPanic(t, "", func() { NewSlice(0, 5, 0) })
}

func TestSliceContains(t *testing.T) {
	s := NewSliceBounds(Endpoint{Value: StrKey("b")}, Endpoint{Value: StrKey("d")}, 1)
	deepEqual(t, s.Contains(StrKey("a")), false)
	deepEqual(t, s.Contains(StrKey("b")), true)
	deepEqual(t, s.Contains(StrKey("c")), true)
	deepEqual(t, s.Contains(StrKey("d")), true)
	deepEqual(t, s.Contains(StrKey("e")), false)

	open := NewSliceBounds(Endpoint{Value: StrKey("b"), Open: true}, Endpoint{Value: StrKey("d"), Open: true}, 1)
	deepEqual(t, open.Contains(StrKey("b")), false)
	deepEqual(t, open.Contains(StrKey("c")), true)
	deepEqual(t, open.Contains(StrKey("d")), false)

	// nil endpoints are unbounded
	deepEqual(t, All().Contains(StrKey("zzz")), true)
	deepEqual(t, All().Contains(IntKey(-100)), true)
}

func TestSliceParse(t *testing.T) {
	s := must(ParseSlice("1:4"))
	start, stop, step := s.Indices(10)
	deepEqual(t, []int{start, stop, step}, []int{1, 4, 1})

	s = must(ParseSlice("::-1"))
	start, stop, step = s.Indices(5)
	deepEqual(t, []int{start, stop, step}, []int{4, -1, -1})

	s = must(ParseSlice(":3"))
	start, stop, step = s.Indices(5)
	deepEqual(t, []int{start, stop, step}, []int{0, 3, 1})

	s = must(ParseSlice("2::2"))
	start, stop, step = s.Indices(6)
	deepEqual(t, []int{start, stop, step}, []int{2, 6, 2})

	// a bare index selects a single element
	s = must(ParseSlice("2"))
	start, stop, step = s.Indices(5)
	deepEqual(t, []int{start, stop, step}, []int{2, 3, 1})

	if _, err := ParseSlice(""); err == nil {
		t.Errorf("** empty slice expression should not parse")
	}
	if _, err := ParseSlice("1:2:0"); err == nil {
		t.Errorf("** zero step should not parse")
	}
	if _, err := ParseSlice("a:b"); err == nil {
		t.Errorf("** non-numeric slice should not parse")
	}
}

func TestSliceNormalize(t *testing.T) {
	n := NewSlice(-2, nil, 1).Normalize(5)
	deepEqual(t, n.Min().Value.Int(), int64(3))
	deepEqual(t, n.Max().Value.Int(), int64(5))
	deepEqual(t, n.Max().Open, true)
	deepEqual(t, n.Step(), 1)
}
