// Package container implements the fixed-capacity, arena-backed containers
// every other subsystem is built from: a bounded vector, a FIFO queue, a
// ring buffer with handle-based slice allocation, and a sparse indirection
// array. None of these grow; all of their backing storage comes from a
// single allocator.Arena allocation made at construction time.
package container

import "nitrocore/internal/allocator"

// BoundedVector is a fixed-capacity, contiguous array of T. Unlike a Go
// slice built with append, it never reallocates: Push fails once length
// reaches capacity instead of growing the backing store.
type BoundedVector[T any] struct {
	items  []T
	length int
}

// NewBoundedVector carves a BoundedVector of the given capacity out of a.
func NewBoundedVector[T any](a *allocator.Arena, capacity int) (*BoundedVector[T], bool) {
	items, ok := allocator.Alloc[T](a, capacity)
	if !ok {
		return nil, false
	}
	return &BoundedVector[T]{items: items}, true
}

// Len returns the current number of live elements.
func (v *BoundedVector[T]) Len() int { return v.length }

// Cap returns the fixed capacity.
func (v *BoundedVector[T]) Cap() int { return len(v.items) }

// IsFull reports whether the vector has no remaining capacity.
func (v *BoundedVector[T]) IsFull() bool { return v.length == len(v.items) }

// IsEmpty reports whether the vector has no live elements.
func (v *BoundedVector[T]) IsEmpty() bool { return v.length == 0 }

// Push appends value to the end. Reports false without modifying the
// vector if it's already full.
func (v *BoundedVector[T]) Push(value T) bool {
	if v.length >= len(v.items) {
		return false
	}
	v.items[v.length] = value
	v.length++
	return true
}

// Pop removes and returns the final element, if any.
func (v *BoundedVector[T]) Pop() (value T, ok bool) {
	if v.length == 0 {
		return value, false
	}
	v.length--
	value = v.items[v.length]
	var zero T
	v.items[v.length] = zero
	return value, true
}

// Truncate shortens the vector to newLen, zeroing the dropped slots so they
// don't keep referenced values (pointers, slices) alive past their logical
// lifetime. No-op if newLen >= Len().
func (v *BoundedVector[T]) Truncate(newLen int) {
	if newLen >= v.length {
		return
	}
	var zero T
	for i := newLen; i < v.length; i++ {
		v.items[i] = zero
	}
	v.length = newLen
}

// Clear empties the vector.
func (v *BoundedVector[T]) Clear() {
	v.Truncate(0)
}

// FillWithZeroes fills the remaining capacity with the zero value of T and
// marks the vector full. Intended for element types whose zero value is a
// meaningful default (byte buffers, POD structs).
func (v *BoundedVector[T]) FillWithZeroes() {
	var zero T
	for i := v.length; i < len(v.items); i++ {
		v.items[i] = zero
	}
	v.length = len(v.items)
}

// Slice returns the live elements as a slice. The slice aliases the
// vector's backing storage and is invalidated by any subsequent mutating
// call.
func (v *BoundedVector[T]) Slice() []T {
	return v.items[:v.length]
}

// At returns the element at index i.
func (v *BoundedVector[T]) At(i int) T {
	return v.items[i]
}

// SetAt overwrites the element at index i, which must be < Len().
func (v *BoundedVector[T]) SetAt(i int, value T) {
	v.items[i] = value
}
