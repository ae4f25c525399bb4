// Package alignment resolves unresolved meaning pressure into layer-local
// structural change. Two computation modes exist: a flow model that raises
// element activation, and a thermal-loss model that additionally accounts
// for the work dissipated as irrecoverable heat.
package alignment

import (
	"fmt"
	"math/rand"

	"github.com/hermanndegner/ssd-core-engine/internal/structure"
)

// #region config

// Config holds flow coefficients and inertia bounds.
type Config struct {
	FlowG0   float64 // base conductance, flow mode
	FlowGain float64 // inertia gain, flow mode

	ThermalG0   float64 // base conductance per unit mobility, thermal mode
	ThermalGain float64 // inertia coupling, thermal mode

	ActivationStep float64 // activation increment per unit flow

	KappaFloor   float64 // minimum coherence inertia
	KappaInitial float64 // default for unseen elements
	KappaDecay   float64 // multiplicative per-tick decay

	MaxEnhancedInertia float64 // cap on survival-weighted inertia
	MaxEfficiencyLoss  float64 // cap on reported heat/κ ratio
}

// DefaultConfig returns the canonical alignment coefficients.
func DefaultConfig() Config {
	return Config{
		FlowG0:             0.5,
		FlowGain:           0.7,
		ThermalG0:          0.2,
		ThermalGain:        0.3,
		ActivationStep:     0.1,
		KappaFloor:         0.05,
		KappaInitial:       0.1,
		KappaDecay:         0.995,
		MaxEnhancedInertia: 5.0,
		MaxEfficiencyLoss:  0.95,
	}
}

// #endregion config

// #region layer-resistance

// layerResistance is the per-layer viscosity ρ in the thermal-loss model.
var layerResistance = map[structure.Layer]float64{
	structure.Physical: 0.1,
	structure.Base:     0.3,
	structure.Core:     0.5,
	structure.Upper:    0.2,
}

// #endregion layer-resistance

// #region engine

// Result carries the per-layer alignment flows of one flow-mode step.
type Result struct {
	Flows map[structure.Layer]map[string]float64
}

// Engine performs alignment steps and owns the global inertia table and
// the cumulative heat-loss total.
type Engine struct {
	config  Config
	inertia *InertiaTable
	rng     *rand.Rand

	totalHeatLoss float64
}

// NewEngine creates an alignment engine with its own inertia table.
func NewEngine(rng *rand.Rand, config Config) *Engine {
	return &Engine{
		config:  config,
		inertia: NewInertiaTable(config.KappaFloor, config.KappaInitial, config.KappaDecay),
		rng:     rng,
	}
}

// Inertia exposes the global inertia table for read access by the leap and
// decision engines.
func (e *Engine) Inertia() *InertiaTable {
	return e.inertia
}

// #endregion engine

// #region flow-mode

// Align runs one flow-mode step: j = (G0 + g·κ)·p with p = E scaled by
// layer mobility; each element's activation rises by ActivationStep·j,
// capped at 1. The inertia table decays once per call.
func (e *Engine) Align(arena *structure.Arena, currentE float64, mobility structure.MobilityTable) (Result, error) {
	if arena == nil {
		return Result{}, fmt.Errorf("align: %w", structure.ErrInvalidConfiguration)
	}
	if err := mobility.Validate(); err != nil {
		return Result{}, fmt.Errorf("align: %w", err)
	}

	result := Result{Flows: map[structure.Layer]map[string]float64{}}

	for _, layer := range structure.Layers() {
		elements := arena.LayerElements(layer)
		if len(elements) == 0 {
			continue
		}
		flows := make(map[string]float64, len(elements))
		p := currentE * mobility[layer]

		for id, el := range elements {
			kappa := e.elementKappa(el, id)
			j := (e.config.FlowG0 + e.config.FlowGain*kappa) * p
			flows[id] = j

			el.Activation = min(1.0, el.Activation+j*e.config.ActivationStep)
			e.inertia.Touch(id)
		}
		result.Flows[layer] = flows
	}

	e.inertia.Decay()
	return result, nil
}

// elementKappa prefers an element's local κ over the global table.
func (e *Engine) elementKappa(el *structure.Element, id string) float64 {
	if v, ok := el.Kappa[id]; ok {
		return v
	}
	return e.inertia.Get(id)
}

// #endregion flow-mode

// #region thermal-mode

// AlignWithHeatLoss runs one thermal-loss step. The pressure term comes
// from the element itself (p = activation·(2−stability): unstable, active
// elements push hardest), flow is j = (G0′+g′κ)p, and the work
// W = p·j − ρj² loses its second term irreversibly as heat. Returns the
// work done per element, keyed "<layer>_<id>".
func (e *Engine) AlignWithHeatLoss(arena *structure.Arena) (map[string]float64, error) {
	if arena == nil {
		return nil, fmt.Errorf("align with heat loss: %w", structure.ErrInvalidConfiguration)
	}

	work := map[string]float64{}
	for _, layer := range structure.Layers() {
		rho := layerResistance[layer]
		g0 := e.config.ThermalG0 * layer.Mobility()

		for id, el := range arena.LayerElements(layer) {
			kappa := e.inertia.Get(id)
			p := el.Activation * (2.0 - el.Stability)
			j := (g0 + e.config.ThermalGain*kappa) * p

			heat := rho * j * j
			work[fmt.Sprintf("%s_%s", layer, id)] = p*j - heat
			e.totalHeatLoss += heat
		}
	}
	return work, nil
}

// #endregion thermal-mode

// #region statistics

// Statistics summarizes the engine state.
type Statistics struct {
	AvgInertia        float64
	TotalHeatLoss     float64
	ActiveElements    int
	ThermalEfficiency float64
}

// Statistics reports average inertia, cumulative heat loss, and the
// efficiency 1 − min(heat/Σκ, cap).
func (e *Engine) Statistics() Statistics {
	denom := max(1.0, e.inertia.Sum())
	loss := min(e.totalHeatLoss/denom, e.config.MaxEfficiencyLoss)
	avg := 0.0 // unlike the leap threshold, an empty table reports no inertia
	if e.inertia.Len() > 0 {
		avg = e.inertia.Mean()
	}
	return Statistics{
		AvgInertia:        avg,
		TotalHeatLoss:     e.totalHeatLoss,
		ActiveElements:    e.inertia.Len(),
		ThermalEfficiency: 1.0 - loss,
	}
}

// #endregion statistics

// #region enhanced-inertia

// EnhancedInertia re-weights each layer's mean κ by the survival relevance
// of the current perception set and the layer's survival weight, averaged
// across layers and capped. This is the inertia value the leap controller
// reads for threshold computation.
//
// The per-entity similarity draw is a placeholder for a real metric, kept
// deliberately (see the pressure package's Similarity seam).
func (e *Engine) EnhancedInertia(arena *structure.Arena, entities map[string]*structure.Entity) float64 {
	entityIDs := structure.SortedEntityIDs(entities)

	layerKappa := map[structure.Layer]float64{}
	totalWeight := 0.0

	for _, layer := range structure.Layers() {
		weight := layer.SurvivalWeight()
		totalWeight += weight

		ids := arena.SortedIDs(layer)
		if len(ids) == 0 {
			layerKappa[layer] = 0
			continue
		}

		sum := 0.0
		for _, id := range ids {
			el, _ := arena.Get(layer, id)
			base := el.Stability * el.Activation

			relevance := 0.0
			for _, eid := range entityIDs {
				entity := entities[eid]
				if entity.SurvivalRelevance() > 0.5 {
					similarity := 0.3 + e.rng.Float64()*0.5
					relevance += entity.SurvivalRelevance() * similarity
				}
			}

			sum += base * (1.0 + relevance*weight)
		}
		layerKappa[layer] = sum / float64(len(ids))
	}

	weighted := 0.0
	for _, layer := range structure.Layers() {
		weighted += layerKappa[layer] * layer.SurvivalWeight()
	}
	weighted /= totalWeight

	return min(weighted, e.config.MaxEnhancedInertia)
}

// #endregion enhanced-inertia
