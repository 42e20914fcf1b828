package broadcast

import "sort"

// MessageSet is an append-only set of broadcast values.
//
// MessageSet is not safe for concurrent use. It is owned by the goroutine
// handling node events.
type MessageSet struct {
	values map[uint64]struct{}
}

func NewMessageSet() *MessageSet {
	return &MessageSet{
		values: make(map[uint64]struct{}),
	}
}

// Add adds the value to the set. Returns true if the value was not already
// in the set.
func (s *MessageSet) Add(v uint64) bool {
	if _, ok := s.values[v]; ok {
		return false
	}
	s.values[v] = struct{}{}
	return true
}

// AddAll adds each of the given values to the set, returning the number of
// values that were not already in the set.
func (s *MessageSet) AddAll(vs []uint64) int {
	added := 0
	for _, v := range vs {
		if s.Add(v) {
			added++
		}
	}
	return added
}

func (s *MessageSet) Contains(v uint64) bool {
	_, ok := s.values[v]
	return ok
}

func (s *MessageSet) Len() int {
	return len(s.values)
}

// Values returns the values in the set in ascending order. The returned
// slice is never nil.
func (s *MessageSet) Values() []uint64 {
	values := make([]uint64, 0, len(s.values))
	for v := range s.values {
		values = append(values, v)
	}
	sortValues(values)
	return values
}

// Difference returns the values in s that are not in other, in ascending
// order.
func (s *MessageSet) Difference(other *MessageSet) []uint64 {
	var diff []uint64
	for v := range s.values {
		if !other.Contains(v) {
			diff = append(diff, v)
		}
	}
	sortValues(diff)
	return diff
}

func sortValues(values []uint64) {
	sort.Slice(values, func(i, j int) bool {
		return values[i] < values[j]
	})
}
