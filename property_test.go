package slotmap

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestEnginesAgreeUnderRandomChurn drives both engines through the same long
// random insert/remove/clear interleaving and checks after every step that
// they agree with a reference model and with each other, and that the hop
// engine's run metadata stays consistent. This is the test that exercises
// every run shrink/split/merge path, not just the handpicked ones.
func TestEnginesAgreeUnderRandomChurn(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	sm := New[int]()
	hm := NewHop[int]()

	var live []churnEntry
	var graveyard []churnEntry // removed entries, checked for tombstone permanence

	seq := 0
	for step := 0; step < 5000; step++ {
		switch r := rng.Float64(); {
		case r < 0.55 || len(live) == 0:
			seq++
			live = append(live, churnEntry{sm.Insert(seq), hm.Insert(seq), seq})

		case r < 0.99:
			i := rng.Intn(len(live))
			e := live[i]
			v1, ok1 := sm.Remove(e.smKey)
			v2, ok2 := hm.Remove(e.hmKey)
			require.True(t, ok1)
			require.True(t, ok2)
			require.Equal(t, e.val, v1)
			require.Equal(t, e.val, v2)
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
			if len(graveyard) < 200 {
				graveyard = append(graveyard, e)
			}

		default:
			sm.Clear()
			hm.Clear()
			for _, e := range live {
				if len(graveyard) >= 200 {
					break
				}
				graveyard = append(graveyard, e)
			}
			live = live[:0]
		}

		require.Equal(t, len(live), sm.Len())
		require.Equal(t, len(live), hm.Len())

		if step%25 == 0 {
			auditRuns(t, hm)
			checkAgainstModel(t, sm, hm, live)
			for _, e := range graveyard {
				require.False(t, sm.Contains(e.smKey))
				require.False(t, hm.Contains(e.hmKey))
			}
		}
	}

	auditRuns(t, hm)
	checkAgainstModel(t, sm, hm, live)
}

type churnEntry struct {
	smKey, hmKey Key
	val          int
}

func checkAgainstModel(t *testing.T, sm *SlotMap[int], hm *HopSlotMap[int], live []churnEntry) {
	t.Helper()

	smWant := make(map[Key]int, len(live))
	hmWant := make(map[Key]int, len(live))
	for _, e := range live {
		smWant[e.smKey] = e.val
		hmWant[e.hmKey] = e.val

		v, ok := sm.Get(e.smKey)
		require.True(t, ok)
		require.Equal(t, e.val, v)
		v, ok = hm.Get(e.hmKey)
		require.True(t, ok)
		require.Equal(t, e.val, v)
	}

	// Iteration yields exactly the live pairs, each once, in increasing
	// index order, on both engines.
	var smVals, hmVals []int
	prev := -1
	for k, v := range sm.All() {
		require.Greater(t, int(k.idx), prev)
		prev = int(k.idx)
		require.Equal(t, smWant[k], v)
		smVals = append(smVals, v)
	}
	prev = -1
	for k, v := range hm.All() {
		require.Greater(t, int(k.idx), prev)
		prev = int(k.idx)
		require.Equal(t, hmWant[k], v)
		hmVals = append(hmVals, v)
	}
	require.Len(t, smVals, len(live))
	require.Len(t, hmVals, len(live))

	// The two engines may place values in different slots after churn, but
	// their contents are identical as sets.
	slices.Sort(smVals)
	slices.Sort(hmVals)
	require.Equal(t, smVals, hmVals)
}
