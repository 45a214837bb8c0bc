package objtree

import "cmp"

func cmpOrdered[T cmp.Ordered](a, b T) int { return cmp.Compare(a, b) }

// cmpFloats orders NaN before every other value so float comparisons stay total.
func cmpFloats(a, b float64) int { return cmp.Compare(a, b) }

func cmpIntUint(a int64, b uint64) int {
	if a < 0 {
		return -1
	}
	return cmp.Compare(uint64(a), b)
}

// compareObjects orders two scalar objects: nil < bool < numbers < strings.
// Numbers compare sign-safely across int, uint and float. Containers have no
// order and panic with a WrongTypeError.
func compareObjects(a, b Object) int {
	a, b = a.resolve(), b.resolve()
	if a.kind == Empty || b.kind == Empty {
		panic(emptyRef("Compare"))
	}
	ra, rb := keyRank(a.kind), keyRank(b.kind)
	if ra != rb {
		return cmpOrdered(ra, rb)
	}
	switch ra {
	case rankNil:
		return 0
	case rankBool:
		return cmpOrdered(a.i, b.i)
	case rankNum:
		return cmpNumObjects(a, b)
	case rankStr:
		return cmpOrdered(a.blk.str, b.blk.str)
	}
	return 0
}

func cmpNumObjects(a, b Object) int {
	switch a.kind {
	case Int:
		switch b.valueKind() {
		case Int:
			return cmpOrdered(a.i, b.i)
		case Uint:
			return cmpIntUint(a.i, uint64(b.i))
		case Float:
			return cmpFloats(float64(a.i), b.f)
		}
	case Uint:
		switch b.valueKind() {
		case Int:
			return -cmpIntUint(b.i, uint64(a.i))
		case Uint:
			return cmpOrdered(uint64(a.i), uint64(b.i))
		case Float:
			return cmpFloats(float64(uint64(a.i)), b.f)
		}
	case Float:
		switch b.valueKind() {
		case Int:
			return cmpFloats(a.f, float64(b.i))
		case Uint:
			return cmpFloats(a.f, float64(uint64(b.i)))
		case Float:
			return cmpFloats(a.f, b.f)
		}
	}
	panic(wrongType(a.valueKind()))
}

// equalObjects is deep value equality: scalars compare across numeric
// representations, lists compare elementwise, maps compare key sets and the
// values under them. Bound objects compare by their loaded content.
func equalObjects(a, b Object) bool {
	if a.Is(b) {
		return true
	}
	ka, kb := a.valueKind(), b.valueKind()
	switch ka {
	case Nil, Bool, Int, Uint, Float, Str:
		if keyRank(ka) != keyRank(kb) {
			return false
		}
		return compareObjects(a, b) == 0
	case List:
		if kb != List {
			return false
		}
		if a.Size() != b.Size() {
			return false
		}
		av, bv := a.resolve().blk.list, b.resolve().blk.list
		for i := range av {
			if !equalObjects(av[i], bv[i]) {
				return false
			}
		}
		return true
	case SMap, OMap:
		if !kb.IsMap() {
			return false
		}
		if a.Size() != b.Size() {
			return false
		}
		it := a.IterItems()
		for it.Next() {
			item := it.Item()
			bv := b.Get(item.Key)
			if bv.IsNil() && !b.HasKey(item.Key) {
				return false
			}
			if !equalObjects(item.Value, bv) {
				return false
			}
		}
		return true
	}
	return false
}
