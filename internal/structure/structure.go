// Package structure defines the four-layer structural model a single agent
// carries: the layer taxonomy, structural elements with activation and
// coherence inertia, and the typed two-level arena that replaces ad-hoc
// nested tables.
package structure

import (
	"errors"
	"math/rand"
	"sort"
)

// ErrInvalidConfiguration is the only fatal error the core surfaces: a
// caller omitted a required table or layer. Everything else degrades to a
// neutral value.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// #region layers

// Layer is one of the four ordered structural categories, from least to
// most plastic.
type Layer int

const (
	Physical Layer = iota // basic constraints, hardest to move
	Base                  // instinct, emotion, survival
	Core                  // identity, values
	Upper                 // concepts and ideals, lightest
)

// Layers returns the four layers in their fixed order.
func Layers() [4]Layer {
	return [4]Layer{Physical, Base, Core, Upper}
}

func (l Layer) String() string {
	switch l {
	case Physical:
		return "physical"
	case Base:
		return "base"
	case Core:
		return "core"
	case Upper:
		return "upper"
	}
	return "unknown"
}

// Mobility is the fixed plasticity coefficient of the layer.
func (l Layer) Mobility() float64 {
	switch l {
	case Physical:
		return 0.1
	case Base:
		return 0.3
	case Core:
		return 0.6
	case Upper:
		return 0.9
	}
	return 0.5
}

// SurvivalWeight colors a layer by how directly it serves survival.
func (l Layer) SurvivalWeight() float64 {
	switch l {
	case Physical:
		return 1.0
	case Base:
		return 0.9
	case Core:
		return 0.6
	case Upper:
		return 0.3
	}
	return 0.5
}

// #endregion layers

// #region mobility-table

// MobilityTable maps each layer to its mobility coefficient. Supplied by
// the caller on every tick; DefaultMobility returns the canonical values.
type MobilityTable map[Layer]float64

// DefaultMobility returns the standard mobility coefficients.
func DefaultMobility() MobilityTable {
	return MobilityTable{
		Physical: Physical.Mobility(),
		Base:     Base.Mobility(),
		Core:     Core.Mobility(),
		Upper:    Upper.Mobility(),
	}
}

// Validate checks that every layer has a coefficient.
func (m MobilityTable) Validate() error {
	if m == nil {
		return ErrInvalidConfiguration
	}
	for _, layer := range Layers() {
		if _, ok := m[layer]; !ok {
			return ErrInvalidConfiguration
		}
	}
	return nil
}

// #endregion mobility-table

// #region element

// Element is one structural unit within a layer. Activation is kept in
// [0,1]; stability defaults to the inverse of the layer's mobility.
type Element struct {
	Layer       Layer
	Activation  float64
	Stability   float64
	Connections map[string]float64 // element id → connection strength
	Kappa       map[string]float64 // element id → local coherence inertia
}

// NewElement creates an element with layer-appropriate stability and empty
// connection/inertia maps.
func NewElement(layer Layer) *Element {
	return &Element{
		Layer:       layer,
		Stability:   1.0 / layer.Mobility(),
		Connections: map[string]float64{},
		Kappa:       map[string]float64{},
	}
}

// #endregion element

// #region arena

// Arena is the typed two-level element table addressed by (layer, id).
// Owned by the caller, mutated by the alignment and leap engines.
type Arena struct {
	elements [4]map[string]*Element
}

// NewArena creates an empty arena with all four layers present.
func NewArena() *Arena {
	a := &Arena{}
	for i := range a.elements {
		a.elements[i] = map[string]*Element{}
	}
	return a
}

// Put inserts or replaces an element under (layer, id).
func (a *Arena) Put(layer Layer, id string, el *Element) {
	a.elements[layer][id] = el
}

// Get looks up the element at (layer, id).
func (a *Arena) Get(layer Layer, id string) (*Element, bool) {
	el, ok := a.elements[layer][id]
	return el, ok
}

// Remove deletes the element at (layer, id), if present.
func (a *Arena) Remove(layer Layer, id string) {
	delete(a.elements[layer], id)
}

// LayerElements returns the live element map for one layer. Callers must
// not retain it across mutations.
func (a *Arena) LayerElements(layer Layer) map[string]*Element {
	return a.elements[layer]
}

// SortedIDs returns the element ids of a layer in sorted order. Any code
// path that consumes randomness per element must iterate in this order to
// keep runs reproducible under a fixed seed.
func (a *Arena) SortedIDs(layer Layer) []string {
	ids := make([]string, 0, len(a.elements[layer]))
	for id := range a.elements[layer] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the total element count across layers.
func (a *Arena) Len() int {
	n := 0
	for _, m := range a.elements {
		n += len(m)
	}
	return n
}

// #endregion arena

// #region stabilize

// Stabilize runs the per-tick maintenance pass: over-activated elements
// gain stability and shed activation, and dormant unconnected elements are
// evicted with 10% probability. Returns the number of evicted elements.
func (a *Arena) Stabilize(rng *rand.Rand) int {
	evicted := 0
	for _, layer := range Layers() {
		var remove []string
		for _, id := range a.SortedIDs(layer) {
			el := a.elements[layer][id]
			if el.Activation > 0.9 {
				el.Stability = min(1.0, el.Stability+0.1)
				el.Activation *= 0.9
			}
			if el.Activation < 0.05 && len(el.Connections) == 0 {
				if rng.Float64() < 0.1 {
					remove = append(remove, id)
				}
			}
		}
		for _, id := range remove {
			delete(a.elements[layer], id)
			evicted++
		}
	}
	return evicted
}

// #endregion stabilize
