package loader

import "sort"

// promote implements the uniqueness arbiter: CredentialsPassed candidates
// are ordered version-descending, then address-ascending to break ties,
// and promoted to Running in that order unless a candidate's Application
// Identifier or Short Identifier conflicts with an already-Running slot.
// LocallyUnique values never conflict, by construction of their Equal
// methods.
//
// Descending-version-first defeats downgrade attacks where an older
// signed binary is re-flashed to shadow a newer one; the address
// tie-break makes the result reproducible across identical boots.
func promote(slots []ProcessSlot, setState func(idx int, to SlotState)) {
	candidates := make([]int, 0, len(slots))
	for i, s := range slots {
		if s.State == CredentialsPassed {
			candidates = append(candidates, i)
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		ia, ib := candidates[a], candidates[b]
		if slots[ia].Version != slots[ib].Version {
			return slots[ia].Version > slots[ib].Version
		}
		return slots[ia].Address < slots[ib].Address
	})

	var running []int
	for _, idx := range candidates {
		if conflictsWithRunning(slots, idx, running) {
			// Retained, not failed: an identity collision leaves the slot
			// in CredentialsPassed, observable but not fatal.
			// Re-recording the same state as a self-transition is how
			// that observability reaches SlotSink without a fourth
			// terminal state.
			setState(idx, CredentialsPassed)
			continue
		}
		setState(idx, Running)
		running = append(running, idx)
	}
}

// conflictsWithRunning reports whether slots[candidate]'s identifiers
// collide with any slot already selected for promotion this pass.
func conflictsWithRunning(slots []ProcessSlot, candidate int, running []int) bool {
	for _, r := range running {
		if slots[candidate].AppID.Equal(slots[r].AppID) {
			return true
		}
		if slots[candidate].ShortID.Equal(slots[r].ShortID) {
			return true
		}
	}
	return false
}
