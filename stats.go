package slotmap

import "fmt"

// Stats is a point-in-time snapshot of a map's storage bookkeeping.
type Stats struct {
	Occupied int // slots currently holding a value
	Vacant   int // slots awaiting reuse
	Capacity int // allocated slot capacity
	Runs     int // maximal contiguous vacant runs; tracked by HopSlotMap, 0 for SlotMap
}

func (s Stats) String() string {
	return fmt.Sprintf("Stats{occupied: %d, vacant: %d, capacity: %d, runs: %d}",
		s.Occupied, s.Vacant, s.Capacity, s.Runs)
}
