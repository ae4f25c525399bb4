package alignment

import (
	"math"
	"sort"
)

// #region inertia-table

// InertiaTable maps element ids to coherence inertia κ. Explicitly owned,
// single-writer (the alignment engine); the leap and decision engines only
// read it. Values never fall below the floor.
type InertiaTable struct {
	kappa   map[string]float64
	floor   float64
	initial float64
	decay   float64
}

// NewInertiaTable creates an empty table with the given floor, default
// value for unseen ids, and per-tick decay factor.
func NewInertiaTable(floor, initial, decay float64) *InertiaTable {
	return &InertiaTable{
		kappa:   map[string]float64{},
		floor:   floor,
		initial: initial,
		decay:   decay,
	}
}

// Get returns κ for an element, or the default for unseen ids.
func (t *InertiaTable) Get(id string) float64 {
	if v, ok := t.kappa[id]; ok {
		return v
	}
	return t.initial
}

// Set stores κ for an element, floored.
func (t *InertiaTable) Set(id string, v float64) {
	t.kappa[id] = math.Max(t.floor, v)
}

// Touch ensures an id is tracked, seeding it with the default.
func (t *InertiaTable) Touch(id string) {
	if _, ok := t.kappa[id]; !ok {
		t.kappa[id] = t.initial
	}
}

// Decay multiplies every tracked κ toward the floor.
func (t *InertiaTable) Decay() {
	for id, v := range t.kappa {
		v *= t.decay
		if v < t.floor {
			v = t.floor
		}
		t.kappa[id] = v
	}
}

// Len returns the number of tracked elements.
func (t *InertiaTable) Len() int {
	return len(t.kappa)
}

// Mean returns the average tracked κ, or the default when empty.
func (t *InertiaTable) Mean() float64 {
	if len(t.kappa) == 0 {
		return t.initial
	}
	sum := 0.0
	for _, v := range t.kappa {
		sum += v
	}
	return sum / float64(len(t.kappa))
}

// Std returns the standard deviation of tracked κ, or the floor when fewer
// than two values are tracked.
func (t *InertiaTable) Std() float64 {
	if len(t.kappa) < 2 {
		return t.floor
	}
	mean := t.Mean()
	sum := 0.0
	for _, v := range t.kappa {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(t.kappa)))
}

// Sum returns the total tracked κ.
func (t *InertiaTable) Sum() float64 {
	sum := 0.0
	for _, v := range t.kappa {
		sum += v
	}
	return sum
}

// SortedIDs returns tracked ids in sorted order.
func (t *InertiaTable) SortedIDs() []string {
	ids := make([]string, 0, len(t.kappa))
	for id := range t.kappa {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// #endregion inertia-table
