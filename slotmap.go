package slotmap

import (
	"fmt"
	"iter"
	"slices"
)

// A slot is either occupied (odd version, value set) or vacant (even
// version, next threading the free list). The version survives the slot's
// whole lifetime and increases by one on every occupancy transition, so a
// key minted for an earlier occupancy can never match again.
type slot[T any] struct {
	value   T
	version uint32
	next    uint32 // next vacant slot in the free list; meaningful only while vacant
}

func occupied(version uint32) bool {
	return version&1 == 1
}

// SlotMap is the base slot map engine: a growable slot array with a LIFO
// free list threaded through vacant slots. All single-key operations are
// O(1); iteration visits every slot, vacant or not. See the package
// documentation for how it compares to [HopSlotMap].
//
// The zero value is not usable; construct with [New].
type SlotMap[T any] struct {
	slots    []slot[T]
	freeHead uint32 // index of the most recently vacated slot, noIndex when none
	count    uint32
	mod      uint64 // structural modification counter, guards iterators
}

// New creates an empty SlotMap.
func New[T any](optFns ...Option) *SlotMap[T] {
	o := applyOptions(optFns)
	return &SlotMap[T]{
		slots:    make([]slot[T], 0, o.capacity),
		freeHead: noIndex,
	}
}

// Insert stores v and returns a freshly minted key for it, reusing a vacated
// slot when one is available. It panics with [ErrIndexSpaceExhausted] if the
// map already holds 2^32 - 2 elements.
func (sm *SlotMap[T]) Insert(v T) Key {
	return sm.InsertWith(func(Key) T { return v })
}

// InsertWith is like [SlotMap.Insert] but lets the value observe its own
// key, for self-referential records. fn is called exactly once, after the
// key is minted and before the value is stored.
func (sm *SlotMap[T]) InsertWith(fn func(Key) T) Key {
	sm.mod++
	if sm.freeHead != noIndex {
		idx := sm.freeHead
		s := &sm.slots[idx]
		sm.freeHead = s.next
		s.version++ // even -> odd
		k := Key{idx: idx, version: s.version}
		v := fn(k) // before the slot write: fn may reentrantly grow the map
		sm.slots[idx].value = v
		sm.count++
		return k
	}
	if uint64(len(sm.slots)) >= maxSlots {
		panic(ErrIndexSpaceExhausted)
	}
	idx := uint32(len(sm.slots))
	k := Key{idx: idx, version: 1}
	sm.slots = append(sm.slots, slot[T]{version: 1})
	v := fn(k)
	sm.slots[idx].value = v
	sm.count++
	return k
}

// slotFor is the validity oracle: a key addresses live data iff its index is
// in range and the stored version equals the key's version. Key versions are
// odd by construction and by deserialization normalization, vacant versions
// are even, so a key cannot validate against a vacant slot.
func (sm *SlotMap[T]) slotFor(k Key) *slot[T] {
	if uint64(k.idx) >= uint64(len(sm.slots)) {
		return nil
	}
	s := &sm.slots[k.idx]
	if s.version != k.version {
		return nil
	}
	return s
}

// Get returns the value addressed by k, or the zero value and false if k is
// null, stale or foreign.
func (sm *SlotMap[T]) Get(k Key) (T, bool) {
	if s := sm.slotFor(k); s != nil {
		return s.value, true
	}
	var zero T
	return zero, false
}

// Ptr returns a pointer to the value addressed by k for in-place mutation,
// or nil if k is invalid. The pointer is invalidated by any subsequent
// insert or removal.
func (sm *SlotMap[T]) Ptr(k Key) *T {
	if s := sm.slotFor(k); s != nil {
		return &s.value
	}
	return nil
}

// Set overwrites the value addressed by k and reports whether k was valid.
func (sm *SlotMap[T]) Set(k Key, v T) bool {
	s := sm.slotFor(k)
	if s == nil {
		return false
	}
	s.value = v
	return true
}

// Remove deletes the value addressed by k and returns it. An invalid key has
// no effect and reports false; in particular removing the same key twice
// never succeeds, even after the slot has been reused.
func (sm *SlotMap[T]) Remove(k Key) (T, bool) {
	var zero T
	s := sm.slotFor(k)
	if s == nil {
		return zero, false
	}
	sm.mod++
	v := s.value
	s.value = zero // release the reference for the GC
	s.version++    // odd -> even
	s.next = sm.freeHead
	sm.freeHead = k.idx
	sm.count--
	return v, true
}

// Contains reports whether k addresses a live value.
func (sm *SlotMap[T]) Contains(k Key) bool {
	return sm.slotFor(k) != nil
}

// Len returns the number of live values.
func (sm *SlotMap[T]) Len() int {
	return int(sm.count)
}

// IsEmpty reports whether the map holds no values.
func (sm *SlotMap[T]) IsEmpty() bool {
	return sm.count == 0
}

// Capacity returns the number of elements the map can hold without
// reallocating its backing storage.
func (sm *SlotMap[T]) Capacity() int {
	return cap(sm.slots)
}

// Reserve grows the backing storage so at least n further inserts need no
// reallocation.
func (sm *SlotMap[T]) Reserve(n int) {
	if n > 0 {
		sm.slots = slices.Grow(sm.slots, n)
	}
}

// All returns an iterator over all live (key, value) pairs in increasing
// index order. The map must not be mutated while the iteration is in
// progress; doing so panics.
func (sm *SlotMap[T]) All() iter.Seq2[Key, T] {
	return func(yield func(Key, T) bool) {
		mod := sm.mod
		for i := range sm.slots {
			if sm.mod != mod {
				panic("slotmap: map modified during iteration")
			}
			s := &sm.slots[i]
			if !occupied(s.version) {
				continue
			}
			if !yield(Key{idx: uint32(i), version: s.version}, s.value) {
				return
			}
		}
	}
}

// Keys returns an iterator over all live keys in increasing index order.
func (sm *SlotMap[T]) Keys() iter.Seq[Key] {
	return func(yield func(Key) bool) {
		for k := range sm.All() {
			if !yield(k) {
				return
			}
		}
	}
}

// Values returns an iterator over all live values in increasing index order.
func (sm *SlotMap[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range sm.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// Drain returns an iterator that removes each (key, value) pair as it is
// yielded, in increasing index order. The map is empty afterwards even if
// the consumer stops early: the remaining elements are removed unyielded.
func (sm *SlotMap[T]) Drain() iter.Seq2[Key, T] {
	return func(yield func(Key, T) bool) {
		stopped := false
		for i := range sm.slots {
			s := &sm.slots[i]
			if !occupied(s.version) {
				continue
			}
			k := Key{idx: uint32(i), version: s.version}
			v, _ := sm.Remove(k)
			if !stopped && !yield(k, v) {
				stopped = true
			}
		}
	}
}

// Clear removes all values. Storage is retained, and keys from before the
// clear stay permanently invalid.
func (sm *SlotMap[T]) Clear() {
	for range sm.Drain() {
	}
}

// Retain removes every value for which keep returns false.
func (sm *SlotMap[T]) Retain(keep func(Key, T) bool) {
	for i := range sm.slots {
		s := &sm.slots[i]
		if !occupied(s.version) {
			continue
		}
		k := Key{idx: uint32(i), version: s.version}
		if !keep(k, s.value) {
			sm.Remove(k)
		}
	}
}

// Stats returns a snapshot of the map's storage bookkeeping.
func (sm *SlotMap[T]) Stats() Stats {
	return Stats{
		Occupied: int(sm.count),
		Vacant:   len(sm.slots) - int(sm.count),
		Capacity: cap(sm.slots),
	}
}

func (sm *SlotMap[T]) String() string {
	return fmt.Sprintf("SlotMap{occupied: %d, vacant: %d, capacity: %d}",
		sm.count, len(sm.slots)-int(sm.count), cap(sm.slots))
}
