// Package sparse provides a sparse set over small unsigned integers.
//
// The engines use it to deduplicate program counters while building a
// thread list: membership tests and inserts are O(1), and clearing the
// set between input positions is O(1) as well, which matters because it
// happens once per input position.
package sparse

// Set is a set of uint32 values below a fixed capacity.
// It keeps a sparse array (value -> dense index) for membership tests
// and a dense array for iteration in insertion order. Insertion order
// is what gives threads their priority, so it must be preserved.
type Set struct {
	sparse []uint32
	dense  []uint32
}

// New returns a set able to hold values in [0, capacity).
func New(capacity uint32) *Set {
	return &Set{
		sparse: make([]uint32, capacity),
		dense:  make([]uint32, 0, capacity),
	}
}

// Insert adds v to the set and reports whether it was newly added.
// Returns false (without modifying the set) if v was already present.
func (s *Set) Insert(v uint32) bool {
	if s.Contains(v) {
		return false
	}
	s.sparse[v] = uint32(len(s.dense))
	s.dense = append(s.dense, v)
	return true
}

// Contains reports whether v is in the set.
func (s *Set) Contains(v uint32) bool {
	if v >= uint32(len(s.sparse)) {
		return false
	}
	i := s.sparse[v]
	return i < uint32(len(s.dense)) && s.dense[i] == v
}

// Clear empties the set in O(1).
func (s *Set) Clear() {
	s.dense = s.dense[:0]
}

// Len returns the number of values in the set.
func (s *Set) Len() int {
	return len(s.dense)
}

// Values returns the values in insertion order.
// The slice is valid until the next mutation.
func (s *Set) Values() []uint32 {
	return s.dense
}
