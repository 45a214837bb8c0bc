package objtree

import (
	"slices"
	"sort"
)

func (k Key) canon() Key {
	if k.kind == Empty {
		k.kind = Nil
	}
	return k
}

// sortedMap stores items in Key.Compare order, with binary search on lookup.
type sortedMap struct {
	keys []Key
	vals []Object
}

func (m *sortedMap) len() int { return len(m.keys) }

func (m *sortedMap) search(k Key) (int, bool) {
	i := sort.Search(len(m.keys), func(i int) bool { return m.keys[i].Compare(k) >= 0 })
	return i, i < len(m.keys) && m.keys[i].Compare(k) == 0
}

// lowerBound returns the position of the first key >= k; when strict, the
// first key > k.
func (m *sortedMap) lowerBound(k Key, strict bool) int {
	if strict {
		return sort.Search(len(m.keys), func(i int) bool { return m.keys[i].Compare(k) > 0 })
	}
	i, _ := m.search(k)
	return i
}

func (m *sortedMap) get(k Key) (Object, bool) {
	if i, ok := m.search(k); ok {
		return m.vals[i], true
	}
	return Object{}, false
}

func (m *sortedMap) put(k Key, v Object) (Object, bool) {
	k = k.canon()
	i, ok := m.search(k)
	if ok {
		prev := m.vals[i]
		m.vals[i] = v
		return prev, true
	}
	m.keys = slices.Insert(m.keys, i, k)
	m.vals = slices.Insert(m.vals, i, v)
	return Object{}, false
}

func (m *sortedMap) del(k Key) (Object, bool) {
	i, ok := m.search(k)
	if !ok {
		return Object{}, false
	}
	prev := m.vals[i]
	m.keys = slices.Delete(m.keys, i, i+1)
	m.vals = slices.Delete(m.vals, i, i+1)
	return prev, true
}

func (m *sortedMap) each(fn func(Key, Object)) {
	for i, k := range m.keys {
		fn(k, m.vals[i])
	}
}

// orderedMap preserves insertion order and indexes keys for O(1) lookup.
// Deletion is O(n) to keep the order dense.
type orderedMap struct {
	keys  []Key
	vals  []Object
	index map[Key]int
}

func newOrderedMap() *orderedMap {
	return &orderedMap{index: make(map[Key]int)}
}

func (m *orderedMap) len() int { return len(m.keys) }

func (m *orderedMap) get(k Key) (Object, bool) {
	if i, ok := m.index[k.canon()]; ok {
		return m.vals[i], true
	}
	return Object{}, false
}

func (m *orderedMap) put(k Key, v Object) (Object, bool) {
	k = k.canon()
	if i, ok := m.index[k]; ok {
		prev := m.vals[i]
		m.vals[i] = v
		return prev, true
	}
	m.index[k] = len(m.keys)
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
	return Object{}, false
}

func (m *orderedMap) del(k Key) (Object, bool) {
	k = k.canon()
	i, ok := m.index[k]
	if !ok {
		return Object{}, false
	}
	prev := m.vals[i]
	m.keys = slices.Delete(m.keys, i, i+1)
	m.vals = slices.Delete(m.vals, i, i+1)
	delete(m.index, k)
	for j := i; j < len(m.keys); j++ {
		m.index[m.keys[j]] = j
	}
	return prev, true
}

func (m *orderedMap) each(fn func(Key, Object)) {
	for i, k := range m.keys {
		fn(k, m.vals[i])
	}
}
