package container

import "nitrocore/internal/allocator"

// optionalIndex is a one-indexed uint32 whose zero value means "absent",
// so a freshly zeroed indirection array starts out fully empty without an
// explicit initialization pass.
type optionalIndex struct {
	indexPlusOne uint32
}

func (o optionalIndex) get() (uint32, bool) {
	if o.indexPlusOne == 0 {
		return 0, false
	}
	return o.indexPlusOne - 1, true
}

func (o *optionalIndex) set(index uint32) {
	o.indexPlusOne = index + 1
}

func (o *optionalIndex) take() (uint32, bool) {
	v, ok := o.get()
	o.indexPlusOne = 0
	return v, ok
}

// SparseArray is a two-level mapping from a stable index space of size
// arrayLen to a smaller pool of at most residentLen live elements. Useful
// for tracking residency (e.g. which chunks of a resource are currently
// loaded) without needing backing storage for every possible index at
// once.
type SparseArray[T any] struct {
	indexMap    []optionalIndex
	freeIndices []uint32
	freeLen     int
	elements    []T
	elementsLen int
}

// NewSparseArray carves a SparseArray out of a with an index space of
// arrayLen and room for residentLen simultaneously-loaded elements.
func NewSparseArray[T any](a *allocator.Arena, arrayLen, residentLen int) (*SparseArray[T], bool) {
	indexMap, ok := allocator.AllocZeroed[optionalIndex](a, arrayLen)
	if !ok {
		return nil, false
	}
	freeIndices, ok := allocator.Alloc[uint32](a, residentLen)
	if !ok {
		return nil, false
	}
	elements, ok := allocator.Alloc[T](a, residentLen)
	if !ok {
		return nil, false
	}
	return &SparseArray[T]{
		indexMap:    indexMap,
		freeIndices: freeIndices,
		elements:    elements,
	}, true
}

// ArrayLen returns the size of the stable index space, not the number of
// currently-resident elements.
func (s *SparseArray[T]) ArrayLen() int { return len(s.indexMap) }

// Unload removes the mapping for index, if any, and returns its resident
// slot to the reuse pool.
func (s *SparseArray[T]) Unload(index uint32) {
	residentIndex, ok := s.indexMap[index].take()
	if !ok {
		return
	}
	s.freeIndices[s.freeLen] = residentIndex
	s.freeLen++
}

// Insert maps index to a resident slot, preferring a reused slot over a
// fresh one. When no slot is being reused, initFn is called to produce the
// value for the new slot; if initFn declines (ok=false), Insert fails and
// index is left unmapped. Returns a pointer into the resident pool so the
// caller can fill or overwrite it in place — when reusing a slot, the
// pointed-to value still holds whatever was last stored there.
func (s *SparseArray[T]) Insert(index uint32, initFn func() (T, bool)) (*T, bool) {
	var residentIndex uint32
	if s.freeLen > 0 {
		s.freeLen--
		residentIndex = s.freeIndices[s.freeLen]
	} else {
		if s.elementsLen >= len(s.elements) {
			return nil, false
		}
		value, ok := initFn()
		if !ok {
			return nil, false
		}
		residentIndex = uint32(s.elementsLen)
		s.elements[residentIndex] = value
		s.elementsLen++
	}
	s.indexMap[index].set(residentIndex)
	return &s.elements[residentIndex], true
}

// Get returns the resident element at index, if loaded.
func (s *SparseArray[T]) Get(index uint32) (*T, bool) {
	residentIndex, ok := s.indexMap[index].get()
	if !ok {
		return nil, false
	}
	return &s.elements[residentIndex], true
}
