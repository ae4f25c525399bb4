// Package leap implements discontinuous structural reorganization: when
// accumulated pressure exceeds a dynamically computed threshold, the
// controller fires a leap that rewires elements and discharges pressure.
// Two variants exist — a basic threshold controller and a chaotic one
// driven by a Lorenz attractor — selected once at construction via Mode.
package leap

import (
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/hermanndegner/ssd-core-engine/internal/alignment"
	"github.com/hermanndegner/ssd-core-engine/internal/structure"
)

// #region mode

// Mode selects the leap capability at construction time.
type Mode int

const (
	BasicLeap Mode = iota
	ChaoticLeap
)

func (m Mode) String() string {
	switch m {
	case BasicLeap:
		return "basic"
	case ChaoticLeap:
		return "chaotic"
	}
	return "unknown"
}

// #endregion mode

// #region config

// Config holds the threshold and execution coefficients of the basic
// controller.
type Config struct {
	ThresholdBase float64 // θ base
	SurvivalAlpha float64 // survival suppression of the threshold
	ThresholdMin  float64 // floor on the survival suppression factor

	ProbBase     float64 // h0
	ProbGamma    float64 // exponent scale
	SurvivalBeta float64 // survival amplification of probability
	ProbMin      float64
	ProbMax      float64

	SurvivalCutoff    float64 // S above which traversal is survival-driven
	MaxSurvivalLayers int     // affected-layer cap in survival order

	ConnectionMin float64 // emergent connection strength bounds
	ConnectionMax float64

	ReleaseBase float64 // post-leap pressure discharge: base + gain·S
	ReleaseGain float64
}

// DefaultConfig returns the canonical leap coefficients.
func DefaultConfig() Config {
	return Config{
		ThresholdBase:     0.8,
		SurvivalAlpha:     0.6,
		ThresholdMin:      0.2,
		ProbBase:          0.1,
		ProbGamma:         0.5,
		SurvivalBeta:      2.5,
		ProbMin:           0.05,
		ProbMax:           0.95,
		SurvivalCutoff:    0.6,
		MaxSurvivalLayers: 2,
		ConnectionMin:     0.3,
		ConnectionMax:     0.8,
		ReleaseBase:       0.3,
		ReleaseGain:       0.4,
	}
}

// #endregion config

// #region result

// Result records one executed leap.
type Result struct {
	ID             string
	Type           string
	AffectedLayers []structure.Layer
	Connections    int
	SurvivalDriven bool
}

// #endregion result

// #region controller

// Controller is the basic threshold-driven leap engine.
type Controller struct {
	config Config
	rng    *rand.Rand
}

// NewController creates a basic leap controller.
func NewController(rng *rand.Rand, config Config) *Controller {
	return &Controller{config: config, rng: rng}
}

// Threshold computes θ = base·(1 + κ̄ + U(−σ,σ)·0.5)·max(floor, 1 − α·S).
// High inertia raises the bar; survival urgency lowers it.
func (c *Controller) Threshold(meanKappa, stdKappa, survival float64) float64 {
	jitter := (c.rng.Float64()*2 - 1) * stdKappa * 0.5
	suppression := math.Max(c.config.ThresholdMin, 1-c.config.SurvivalAlpha*survival)
	return c.config.ThresholdBase * (1 + meanKappa + jitter) * suppression
}

// Probability maps excess pressure to a firing probability through a
// tanh-shaped sigmoid: raw = h0·exp((E−θ)/γ)·(1+β·S), p = 2/(1+e^−raw)−1,
// clamped to the configured band.
func (c *Controller) Probability(e, threshold, survival float64) float64 {
	raw := c.config.ProbBase * math.Exp((e-threshold)/c.config.ProbGamma) * (1 + c.config.SurvivalBeta*survival)
	p := 2/(1+math.Exp(-raw)) - 1
	if p < c.config.ProbMin {
		return c.config.ProbMin
	}
	if p > c.config.ProbMax {
		return c.config.ProbMax
	}
	return p
}

// CheckCondition reports whether a leap fires this tick given the current
// pressure, the inertia table, and the perceived entities.
func (c *Controller) CheckCondition(e float64, inertia *alignment.InertiaTable, entities map[string]*structure.Entity) bool {
	survival := structure.SurvivalUrgency(entities)
	threshold := c.Threshold(inertia.Mean(), inertia.Std(), survival)
	if e <= threshold {
		return false
	}
	return c.rng.Float64() < c.Probability(e, threshold, survival)
}

// Execute performs a fired leap. Survival urgency above the cutoff walks
// the layers bottom-up and keeps going until two layers are affected;
// otherwise the traversal runs top-down and stops at the first success.
// A successful attempt marks the layer affected and, when the layer holds
// at least two elements, wires one emergent bidirectional connection.
// Returns the leap record and the discharged pressure value.
func (c *Controller) Execute(arena *structure.Arena, entities map[string]*structure.Entity, e float64) (Result, float64) {
	survival := structure.SurvivalUrgency(entities)
	driven := survival > c.config.SurvivalCutoff

	var order []structure.Layer
	var leapType string
	maxAffected := 1
	if driven {
		order = []structure.Layer{structure.Physical, structure.Base, structure.Core, structure.Upper}
		leapType = "survival_driven_leap"
		maxAffected = c.config.MaxSurvivalLayers
	} else {
		order = []structure.Layer{structure.Upper, structure.Core, structure.Base}
		leapType = "alignment_reorganization"
	}

	result := Result{
		ID:             uuid.NewString(),
		Type:           leapType,
		SurvivalDriven: driven,
	}

	for _, layer := range order {
		if c.rng.Float64() >= c.attemptProbability(layer, survival) {
			continue
		}
		result.AffectedLayers = append(result.AffectedLayers, layer)
		if c.connectRandomPair(arena, layer) {
			result.Connections++
		}
		if len(result.AffectedLayers) >= maxAffected {
			break
		}
	}

	release := c.config.ReleaseBase + c.config.ReleaseGain*survival
	return result, e * (1 - release)
}

// attemptProbability is the per-layer success chance of one leap attempt.
// The survival weight enters twice: once coloring the urgency into the
// enhancement, once scaling the enhancement onto the mobility.
func (c *Controller) attemptProbability(layer structure.Layer, survival float64) float64 {
	weight := layer.SurvivalWeight()
	enhancement := survival * weight
	return math.Min(c.config.ProbMax, layer.Mobility()+enhancement*weight*0.5)
}

// connectRandomPair wires two distinct elements of a layer with a random
// symmetric connection. Returns false when the layer holds fewer than two
// elements.
func (c *Controller) connectRandomPair(arena *structure.Arena, layer structure.Layer) bool {
	ids := arena.SortedIDs(layer)
	if len(ids) < 2 {
		return false
	}

	i := c.rng.Intn(len(ids))
	j := c.rng.Intn(len(ids) - 1)
	if j >= i {
		j++
	}

	a, _ := arena.Get(layer, ids[i])
	b, _ := arena.Get(layer, ids[j])
	strength := c.config.ConnectionMin + c.rng.Float64()*(c.config.ConnectionMax-c.config.ConnectionMin)
	a.Connections[ids[j]] = strength
	b.Connections[ids[i]] = strength
	return true
}

// #endregion controller
