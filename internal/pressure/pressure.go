// Package pressure converts perceived entities into scalar meaning
// pressure per structural layer and maintains the agent's decaying global
// pressure E.
package pressure

import (
	"fmt"
	"math/rand"

	"github.com/hermanndegner/ssd-core-engine/internal/structure"
)

// #region config

// Config holds the pressure formula coefficients and memory bounds.
type Config struct {
	Alpha     float64 // structural interaction gain in the φ term
	Beta      float64 // resistance coefficient
	Gamma     float64 // interaction coefficient
	Coupling  float64 // fraction of total pressure added to E
	DecayRate float64 // multiplicative natural decay per tick
	MaxE      float64 // hard cap on unresolved pressure
	MemoCap   int     // similarity memo hard cap
}

// DefaultConfig returns the canonical coefficients.
func DefaultConfig() Config {
	return Config{
		Alpha:     0.3,
		Beta:      0.1,
		Gamma:     0.4,
		Coupling:  0.3,
		DecayRate: 0.95,
		MaxE:      10.0,
		MemoCap:   1000,
	}
}

// #endregion config

// #region experience

// Experience is one append-only log entry recorded per accumulation.
type Experience struct {
	Source   string
	Pressure float64
	TotalE   float64
	Seq      int
}

// #endregion experience

// #region accumulator

// Accumulator owns the global pressure scalar E, the similarity memo, and
// the experience log. Single-writer; constructed once per agent.
type Accumulator struct {
	config Config
	sim    Similarity

	e        float64
	memo     map[memoKey]float64
	memoSeq  []memoKey // insertion order, for oldest-half eviction
	log      []Experience
	totalSeq int
}

// NewAccumulator creates an accumulator using the bounded random
// similarity stand-in, drawing from rng.
func NewAccumulator(rng *rand.Rand, config Config) *Accumulator {
	return NewAccumulatorWithSimilarity(NewRandomSimilarity(rng), config)
}

// NewAccumulatorWithSimilarity creates an accumulator with an injected
// similarity metric.
func NewAccumulatorWithSimilarity(sim Similarity, config Config) *Accumulator {
	return &Accumulator{
		config: config,
		sim:    sim,
		memo:   map[memoKey]float64{},
	}
}

// E returns the current unresolved pressure.
func (a *Accumulator) E() float64 {
	return a.e
}

// SetE overwrites E, clamped to [0, MaxE]. Used by the leap controller to
// apply post-leap pressure release.
func (a *Accumulator) SetE(e float64) {
	a.e = clamp(e, 0, a.config.MaxE)
}

// #endregion accumulator

// #region layer-pressure

// LayerPressure computes the meaning pressure an entity exerts on one
// layer: P = φ(1+αS) − βR + γS, floored at zero. φ is the layer meaning
// value colored by survival relevance; R accumulates dissimilarity against
// active same-layer elements; S is the similarity-stability interaction.
func (a *Accumulator) LayerPressure(entity *structure.Entity, layer structure.Layer, arena *structure.Arena) float64 {
	phi := entity.Meaning(layer) * entity.SurvivalRelevance()

	var resistance, interaction float64
	for _, id := range arena.SortedIDs(layer) {
		el, _ := arena.Get(layer, id)
		sim := a.similarity(entity, id, layer)
		resistance += (1.0 - sim) * el.Activation
		interaction += sim * el.Stability * 0.2
	}

	p := phi*(1+a.config.Alpha*interaction) - a.config.Beta*resistance + a.config.Gamma*interaction
	return max(0.0, p)
}

// #endregion layer-pressure

// #region accumulate

// Accumulate sums layer pressures weighted by mobility, folds the total
// into E, and appends an experience entry. Returns the total pressure.
func (a *Accumulator) Accumulate(entity *structure.Entity, arena *structure.Arena, mobility structure.MobilityTable) (float64, error) {
	if arena == nil || entity == nil {
		return 0, fmt.Errorf("accumulate: %w", structure.ErrInvalidConfiguration)
	}
	if err := mobility.Validate(); err != nil {
		return 0, fmt.Errorf("accumulate: %w", err)
	}

	total := 0.0
	for _, layer := range structure.Layers() {
		total += a.LayerPressure(entity, layer, arena) * mobility[layer]
	}

	a.e = min(a.config.MaxE, a.e+total*a.config.Coupling)
	a.totalSeq++
	a.log = append(a.log, Experience{
		Source:   entity.ID,
		Pressure: total,
		TotalE:   a.e,
		Seq:      a.totalSeq,
	})

	return total, nil
}

// Decay applies the natural per-tick decay to E. Monotone non-increasing.
func (a *Accumulator) Decay() {
	a.e = max(0.0, a.e*a.config.DecayRate)
}

// #endregion accumulate

// #region maintenance

// Log returns the experience entries recorded so far.
func (a *Accumulator) Log() []Experience {
	return a.log
}

// CompactLog keeps only the newest keep entries. Called by the driver
// during maintenance; the accumulator itself only appends.
func (a *Accumulator) CompactLog(keep int) {
	if len(a.log) > keep {
		a.log = append([]Experience(nil), a.log[len(a.log)-keep:]...)
	}
}

// CompactMemo evicts the oldest half of the similarity memo when it has
// grown past half the cap.
func (a *Accumulator) CompactMemo() {
	if len(a.memoSeq) <= a.config.MemoCap/2 {
		return
	}
	cut := len(a.memoSeq) / 2
	for _, k := range a.memoSeq[:cut] {
		delete(a.memo, k)
	}
	a.memoSeq = append([]memoKey(nil), a.memoSeq[cut:]...)
}

// MemoSize returns the similarity memo entry count.
func (a *Accumulator) MemoSize() int {
	return len(a.memo)
}

// #endregion maintenance

// #region statistics

// Statistics summarizes the experience log.
type Statistics struct {
	MeanPressure float64
	MaxPressure  float64
	Count        int
	CurrentE     float64
}

// Statistics reports mean/max pressure over the retained log and the
// current E.
func (a *Accumulator) Statistics() Statistics {
	s := Statistics{CurrentE: a.e, Count: len(a.log)}
	if len(a.log) == 0 {
		return s
	}
	sum := 0.0
	for _, exp := range a.log {
		sum += exp.Pressure
		if exp.Pressure > s.MaxPressure {
			s.MaxPressure = exp.Pressure
		}
	}
	s.MeanPressure = sum / float64(len(a.log))
	return s
}

// #endregion statistics

// #region memo

type memoKey struct {
	entityID  string
	elementID string
	layer     structure.Layer
}

func (a *Accumulator) similarity(entity *structure.Entity, elementID string, layer structure.Layer) float64 {
	key := memoKey{entity.ID, elementID, layer}
	if v, ok := a.memo[key]; ok {
		return v
	}
	v := a.sim.Score(entity, elementID, layer)
	if len(a.memo) < a.config.MemoCap {
		a.memo[key] = v
		a.memoSeq = append(a.memoSeq, key)
	}
	return v
}

// #endregion memo

// #region helpers

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// #endregion helpers
