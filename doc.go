// Package slotmap provides containers with persistent unique keys to access
// stored values. Upon insertion a [Key] is returned that can be used to later
// access, mutate or remove the value. Insertion, removal and access all take
// O(1) time with low overhead. Great for storing collections of objects that
// need stable, safe references but have no clear ownership otherwise, such as
// game entities or graph nodes.
//
// The difference between a plain map and a slot map is that the slot map
// generates and returns the key when inserting a value. A key is always
// unique and will only ever refer to the value that was inserted.
//
// # Quick Start
//
//	sm := slotmap.New[string]()
//	foo := sm.Insert("foo") // Key generated on insert.
//	bar := sm.Insert("bar")
//
//	v, _ := sm.Get(foo) // "foo"
//
//	sm.Remove(bar)
//	reused := sm.Insert("reuse") // Space from bar reused.
//	_ = sm.Contains(bar)         // false: a removed key stays invalid.
//	_ = reused
//
// # Versioning
//
// Behind the scenes each slot in the backing array carries a version counter.
// The returned key carries the same version, and a key is valid only while
// the stored version and the key's version match. This lets the map reuse
// storage after removal without removed keys ever addressing new elements.
// After 2^31 removals and insertions into the same underlying slot the
// version wraps around and such a spurious reference could in principle
// occur. It is astronomically unlikely, and in all circumstances the behavior
// is memory-safe. A map can hold up to 2^32 - 2 elements at a time.
//
// # Choosing SlotMap or HopSlotMap
//
// A [SlotMap] never shrinks its backing storage, because every slot must
// remember its latest version even when vacant. Iteration therefore scans
// over potentially many vacant slots.
//
// A [HopSlotMap] maintains additional metadata on insert and remove that
// lets iteration hop over contiguous blocks of vacant slots. If you iterate
// over all elements a lot, choose [HopSlotMap]. The trade-off is that insert
// and remove do roughly twice the bookkeeping. Random access costs the same
// for both.
//
// # Serialization
//
// [Key] implements the json and binary (un)marshaler interfaces, so keys and
// structures containing them survive a round trip through persistence. Keys
// decoded from untrusted input are normalized rather than rejected: a decoded
// key can never masquerade as an internal vacant-slot encoding, it is at
// worst a valid-shaped key that the map reports as not found.
//
// # Concurrency
//
// The maps perform no internal locking. A map is owned by one goroutine at a
// time; embedders that share a map must serialize access themselves, for
// example with a sync.Mutex around every operation. Mutating a map while a
// range over [SlotMap.All], [SlotMap.Keys] or [SlotMap.Values] is in
// progress panics; [SlotMap.Drain] is the one iterator that mutates, because
// removal is precisely what each of its steps performs.
package slotmap
