package slotmap

import (
	"fmt"
	"iter"
	"slices"
)

// A hopSlot augments the base slot layout with run metadata. Maximal
// contiguous vacant runs [begin, end] form a circular doubly linked list
// threaded through their begin slots and rooted at the sentinel slot 0: the
// begin slot's next/prev link neighboring runs and its otherEnd names the
// run's last slot, while the end slot's otherEnd points back at begin.
// Interior slots of a run carry no meaningful metadata.
type hopSlot[T any] struct {
	value    T
	version  uint32
	next     uint32
	prev     uint32
	otherEnd uint32
}

// HopSlotMap is the iteration-optimized slot map engine. It keeps the same
// versioned-slot scheme as [SlotMap] but tracks contiguous vacant runs so a
// full iteration hops directly between occupied slots in O(1) per element,
// no matter how sparse the map is. Insert and remove pay roughly double the
// bookkeeping of [SlotMap] in exchange.
//
// Slot 0 is a permanent sentinel rooting the run list; user values occupy
// indices from 1 upward. The zero value is not usable; construct with
// [NewHop].
type HopSlotMap[T any] struct {
	slots []hopSlot[T]
	count uint32
	mod   uint64
}

// NewHop creates an empty HopSlotMap.
func NewHop[T any](optFns ...Option) *HopSlotMap[T] {
	o := applyOptions(optFns)
	// Slot 0 is the sentinel: version 0 never matches a key, and its zeroed
	// next/prev links form the empty circular run list.
	slots := make([]hopSlot[T], 1, o.capacity+1)
	return &HopSlotMap[T]{slots: slots}
}

// unlink removes the run whose begin slot is at index run from the run list.
func (hm *HopSlotMap[T]) unlink(run uint32) {
	n, p := hm.slots[run].next, hm.slots[run].prev
	hm.slots[p].next = n
	hm.slots[n].prev = p
}

// linkFront inserts the run whose begin slot is at index run right after the
// sentinel. LIFO, matching the base engine's free-list discipline.
func (hm *HopSlotMap[T]) linkFront(run uint32) {
	first := hm.slots[0].next
	hm.slots[run].next = first
	hm.slots[run].prev = 0
	hm.slots[first].prev = run
	hm.slots[0].next = run
}

// Insert stores v and returns a freshly minted key for it. It panics with
// [ErrIndexSpaceExhausted] if the map already holds 2^32 - 2 elements.
func (hm *HopSlotMap[T]) Insert(v T) Key {
	return hm.InsertWith(func(Key) T { return v })
}

// InsertWith is like [HopSlotMap.Insert] but lets the value observe its own
// key. fn is called exactly once, after the key is minted and before the
// value is stored.
func (hm *HopSlotMap[T]) InsertWith(fn func(Key) T) Key {
	hm.mod++
	if begin := hm.slots[0].next; begin != 0 {
		end := hm.slots[begin].otherEnd
		idx := end // consume the run from its tail; the list links stay on begin
		if begin == end {
			hm.unlink(begin)
		} else {
			hm.slots[begin].otherEnd = end - 1
			hm.slots[end-1].otherEnd = begin
		}
		hm.slots[idx].version++ // even -> odd
		k := Key{idx: idx, version: hm.slots[idx].version}
		v := fn(k) // before the slot write: fn may reentrantly grow the map
		hm.slots[idx].value = v
		hm.count++
		return k
	}
	if uint64(len(hm.slots)) >= maxSlots+1 {
		panic(ErrIndexSpaceExhausted)
	}
	idx := uint32(len(hm.slots))
	k := Key{idx: idx, version: 1}
	hm.slots = append(hm.slots, hopSlot[T]{version: 1})
	v := fn(k)
	hm.slots[idx].value = v
	hm.count++
	return k
}

// slotFor is the same validity oracle as the base engine's, with index 0
// additionally out of range because it is the sentinel.
func (hm *HopSlotMap[T]) slotFor(k Key) *hopSlot[T] {
	if k.idx == 0 || uint64(k.idx) >= uint64(len(hm.slots)) {
		return nil
	}
	s := &hm.slots[k.idx]
	if s.version != k.version {
		return nil
	}
	return s
}

// Get returns the value addressed by k, or the zero value and false if k is
// null, stale or foreign.
func (hm *HopSlotMap[T]) Get(k Key) (T, bool) {
	if s := hm.slotFor(k); s != nil {
		return s.value, true
	}
	var zero T
	return zero, false
}

// Ptr returns a pointer to the value addressed by k for in-place mutation,
// or nil if k is invalid. The pointer is invalidated by any subsequent
// insert or removal.
func (hm *HopSlotMap[T]) Ptr(k Key) *T {
	if s := hm.slotFor(k); s != nil {
		return &s.value
	}
	return nil
}

// Set overwrites the value addressed by k and reports whether k was valid.
func (hm *HopSlotMap[T]) Set(k Key, v T) bool {
	s := hm.slotFor(k)
	if s == nil {
		return false
	}
	s.value = v
	return true
}

// Remove deletes the value addressed by k and returns it. An invalid key has
// no effect and reports false.
//
// Freeing a slot extends, creates or merges vacant runs. The four adjacency
// cases: no vacant neighbor starts a fresh one-slot run; a vacant left
// neighbor's run absorbs the slot; a vacant right neighbor's run gains the
// slot as its new begin (the list links move over); vacant neighbors on both
// sides merge into the left run and the right run leaves the list.
func (hm *HopSlotMap[T]) Remove(k Key) (T, bool) {
	var zero T
	s := hm.slotFor(k)
	if s == nil {
		return zero, false
	}
	hm.mod++
	v := s.value
	s.value = zero // release the reference for the GC
	s.version++    // odd -> even
	hm.count--

	i := k.idx
	left := i > 1 && !occupied(hm.slots[i-1].version)
	right := uint64(i)+1 < uint64(len(hm.slots)) && !occupied(hm.slots[i+1].version)

	switch {
	case left && right:
		// [a, i-1] + i + [i+1, e] -> [a, e]
		a := hm.slots[i-1].otherEnd
		e := hm.slots[i+1].otherEnd
		hm.unlink(i + 1)
		hm.slots[a].otherEnd = e
		hm.slots[e].otherEnd = a
	case left:
		// [a, i-1] + i -> [a, i]
		a := hm.slots[i-1].otherEnd
		hm.slots[a].otherEnd = i
		hm.slots[i].otherEnd = a
	case right:
		// i + [i+1, e] -> [i, e]; i takes over the begin slot's links.
		e := hm.slots[i+1].otherEnd
		n, p := hm.slots[i+1].next, hm.slots[i+1].prev
		hm.slots[i].otherEnd = e
		hm.slots[e].otherEnd = i
		hm.slots[i].next = n
		hm.slots[i].prev = p
		hm.slots[p].next = i
		hm.slots[n].prev = i
	default:
		hm.slots[i].otherEnd = i
		hm.linkFront(i)
	}
	return v, true
}

// Contains reports whether k addresses a live value.
func (hm *HopSlotMap[T]) Contains(k Key) bool {
	return hm.slotFor(k) != nil
}

// Len returns the number of live values.
func (hm *HopSlotMap[T]) Len() int {
	return int(hm.count)
}

// IsEmpty reports whether the map holds no values.
func (hm *HopSlotMap[T]) IsEmpty() bool {
	return hm.count == 0
}

// Capacity returns the number of elements the map can hold without
// reallocating its backing storage.
func (hm *HopSlotMap[T]) Capacity() int {
	return cap(hm.slots) - 1
}

// Reserve grows the backing storage so at least n further inserts need no
// reallocation.
func (hm *HopSlotMap[T]) Reserve(n int) {
	if n > 0 {
		hm.slots = slices.Grow(hm.slots, n)
	}
}

// All returns an iterator over all live (key, value) pairs in increasing
// index order, hopping over vacant runs in O(1). The map must not be mutated
// while the iteration is in progress; doing so panics.
func (hm *HopSlotMap[T]) All() iter.Seq2[Key, T] {
	return func(yield func(Key, T) bool) {
		mod := hm.mod
		i := uint32(1)
		for uint64(i) < uint64(len(hm.slots)) {
			if hm.mod != mod {
				panic("slotmap: map modified during iteration")
			}
			s := &hm.slots[i]
			if !occupied(s.version) {
				// A vacant slot reached going forward is its run's begin.
				i = s.otherEnd + 1
				continue
			}
			if !yield(Key{idx: i, version: s.version}, s.value) {
				return
			}
			i++
		}
	}
}

// Keys returns an iterator over all live keys in increasing index order.
func (hm *HopSlotMap[T]) Keys() iter.Seq[Key] {
	return func(yield func(Key) bool) {
		for k := range hm.All() {
			if !yield(k) {
				return
			}
		}
	}
}

// Values returns an iterator over all live values in increasing index order.
func (hm *HopSlotMap[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range hm.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// Drain returns an iterator that removes each (key, value) pair as it is
// yielded, in increasing index order. The map is empty afterwards even if
// the consumer stops early: the remaining elements are removed unyielded.
func (hm *HopSlotMap[T]) Drain() iter.Seq2[Key, T] {
	return func(yield func(Key, T) bool) {
		stopped := false
		i := uint32(1)
		for uint64(i) < uint64(len(hm.slots)) {
			s := &hm.slots[i]
			if !occupied(s.version) {
				i = s.otherEnd + 1
				continue
			}
			k := Key{idx: i, version: s.version}
			// Removing i may merge it into the run on its right, so find the
			// next occupied index before the runs move.
			next := i + 1
			if uint64(next) < uint64(len(hm.slots)) && !occupied(hm.slots[next].version) {
				next = hm.slots[next].otherEnd + 1
			}
			v, _ := hm.Remove(k)
			if !stopped && !yield(k, v) {
				stopped = true
			}
			i = next
		}
	}
}

// Clear removes all values. Storage is retained, and keys from before the
// clear stay permanently invalid.
func (hm *HopSlotMap[T]) Clear() {
	for range hm.Drain() {
	}
}

// Retain removes every value for which keep returns false.
func (hm *HopSlotMap[T]) Retain(keep func(Key, T) bool) {
	i := uint32(1)
	for uint64(i) < uint64(len(hm.slots)) {
		s := &hm.slots[i]
		if !occupied(s.version) {
			i = s.otherEnd + 1
			continue
		}
		k := Key{idx: i, version: s.version}
		if keep(k, s.value) {
			i++
			continue
		}
		next := i + 1
		if uint64(next) < uint64(len(hm.slots)) && !occupied(hm.slots[next].version) {
			next = hm.slots[next].otherEnd + 1
		}
		hm.Remove(k)
		i = next
	}
}

// Stats returns a snapshot of the map's storage bookkeeping, including the
// number of vacant runs currently linked.
func (hm *HopSlotMap[T]) Stats() Stats {
	runs := 0
	for i := hm.slots[0].next; i != 0; i = hm.slots[i].next {
		runs++
	}
	return Stats{
		Occupied: int(hm.count),
		Vacant:   len(hm.slots) - 1 - int(hm.count),
		Capacity: cap(hm.slots) - 1,
		Runs:     runs,
	}
}

func (hm *HopSlotMap[T]) String() string {
	return fmt.Sprintf("HopSlotMap{occupied: %d, vacant: %d, capacity: %d}",
		hm.count, len(hm.slots)-1-int(hm.count), cap(hm.slots)-1)
}
