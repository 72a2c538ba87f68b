package pkg

import "sort"

type Map[K comparable, V any] map[K]V

func (m Map[K, V]) Get(key K) V {
	return m[key]
}

func (m Map[K, V]) Set(key K, value V) {
	m[key] = value
}

func (m Map[K, V]) Has(key K) bool {
	_, ok := m[key]
	return ok
}

func (m Map[K, V]) Delete(key K) {
	delete(m, key)
}

func (m Map[K, V]) Keys() []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// Clone returns a shallow copy. A nil map clones to an empty one.
func (m Map[K, V]) Clone() Map[K, V] {
	c := make(Map[K, V], len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Set is a membership-only map.
type Set[K comparable] map[K]struct{}

func NewSet[K comparable](items ...K) Set[K] {
	s := make(Set[K], len(items))
	s.Add(items...)
	return s
}

func (s Set[K]) Add(items ...K) {
	for _, item := range items {
		s[item] = struct{}{}
	}
}

func (s Set[K]) Has(key K) bool {
	_, ok := s[key]
	return ok
}

func (s Set[K]) Delete(key K) { delete(s, key) }

func (s Set[K]) Len() int { return len(s) }

// SortedSetKeys returns the members in ascending order so callers get a
// deterministic view of an otherwise unordered set.
func SortedSetKeys[K ~string](s Set[K]) []K {
	keys := make([]K, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

type InsertSortMap[K comparable, V any] struct {
	Idx    Map[K, V]
	Sorted []K
}

func NewInsertSortMap[K comparable, V any]() *InsertSortMap[K, V] {
	return &InsertSortMap[K, V]{Idx: Map[K, V]{}, Sorted: []K{}}
}

func (m *InsertSortMap[K, V]) Len() int { return len(m.Sorted) }

func (m *InsertSortMap[K, V]) Get(key K) V { return m.Idx.Get(key) }

func (m *InsertSortMap[K, V]) Has(key K) bool { return m.Idx.Has(key) }

// Push appends key in insertion order. Pushing an existing key replaces its
// value and keeps its original position.
func (m *InsertSortMap[K, V]) Push(key K, value V) {
	if !m.Idx.Has(key) {
		m.Sorted = append(m.Sorted, key)
	}
	m.Idx.Set(key, value)
}

func (m *InsertSortMap[K, V]) Delete(key K) {
	m.Idx.Delete(key)
	for i, k := range m.Sorted {
		if k == key {
			m.Sorted = append(m.Sorted[:i], m.Sorted[i+1:]...)
			break
		}
	}
}

// Values returns the values in insertion order.
func (m *InsertSortMap[K, V]) Values() []V {
	values := make([]V, 0, len(m.Sorted))
	for _, k := range m.Sorted {
		values = append(values, m.Idx[k])
	}
	return values
}
