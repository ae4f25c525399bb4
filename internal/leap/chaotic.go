package leap

import (
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/hermanndegner/ssd-core-engine/internal/structure"
)

// #region chaotic-config

// ChaoticConfig holds the attractor and event coefficients of the chaotic
// controller.
type ChaoticConfig struct {
	Sigma float64 // Lorenz σ
	Rho   float64 // Lorenz ρ
	Beta  float64 // Lorenz β
	Dt    float64 // Euler step
	Noise float64 // stddev of the per-step Gaussian perturbation

	ConditionFactor float64 // pressure must exceed factor·resistance
	Lambda          float64 // Lyapunov proxy for unpredictability
	PressureScale   float64 // normalization for the coupling term

	MaxMagnitude float64
	EnergyFactor float64 // energy = factor·magnitude²

	HistoryCap   int
	RecentWindow int
}

// DefaultChaoticConfig returns the canonical chaotic coefficients.
func DefaultChaoticConfig() ChaoticConfig {
	return ChaoticConfig{
		Sigma:           10.0,
		Rho:             28.0,
		Beta:            8.0 / 3.0,
		Dt:              0.01,
		Noise:           0.01,
		ConditionFactor: 1.2,
		Lambda:          0.3,
		PressureScale:   10.0,
		MaxMagnitude:    10.0,
		EnergyFactor:    0.1,
		HistoryCap:      100,
		RecentWindow:    10,
	}
}

// layerSensitivity scales the chaos factor per layer: plastic layers
// respond more strongly to the attractor.
var layerSensitivity = map[structure.Layer]float64{
	structure.Physical: 0.1,
	structure.Base:     0.4,
	structure.Core:     0.7,
	structure.Upper:    0.9,
}

// #endregion chaotic-config

// #region event

// Event records one chaotic leap. Immutable once appended to history.
type Event struct {
	ID               string
	Seq              int
	Type             string
	SourceLayer      structure.Layer
	TargetLayer      structure.Layer
	Magnitude        float64
	EnergyRelease    float64
	ChaosFactor      float64
	Unpredictability float64
	Deltas           map[string]float64
}

// Patterns summarizes the recent leap history.
type Patterns struct {
	CreativeRatio    float64
	DestructiveRatio float64
	MeanUnpredict    float64
	ChaosIntensity   float64 // stddev of recent chaos factors
	Frequency        float64 // window fill ratio
}

// #endregion event

// #region chaotic-controller

// ChaoticController modulates leaps by a continuous Lorenz attractor. The
// attractor advances once per tick via Advance; AnalyzeLeap reads the
// current state without stepping it.
type ChaoticController struct {
	config ChaoticConfig
	rng    *rand.Rand

	x, y, z float64
	history []*Event
}

// NewChaoticController creates a chaotic leap controller with the attractor
// near the origin.
func NewChaoticController(rng *rand.Rand, config ChaoticConfig) *ChaoticController {
	return &ChaoticController{
		config: config,
		rng:    rng,
		x:      0.1,
		y:      0.1,
		z:      0.1,
	}
}

// State returns the current attractor coordinates.
func (c *ChaoticController) State() (x, y, z float64) {
	return c.x, c.y, c.z
}

// Advance runs one Euler step of the Lorenz system with a small Gaussian
// perturbation per coordinate. Called once per tick.
func (c *ChaoticController) Advance() {
	dx := c.config.Sigma * (c.y - c.x)
	dy := c.x*(c.config.Rho-c.z) - c.y
	dz := c.x*c.y - c.config.Beta*c.z

	c.x += dx*c.config.Dt + c.rng.NormFloat64()*c.config.Noise
	c.y += dy*c.config.Dt + c.rng.NormFloat64()*c.config.Noise
	c.z += dz*c.config.Dt + c.rng.NormFloat64()*c.config.Noise
}

// coupling mixes normalized pressure and resistance with the attractor
// state. Non-linear on purpose: small input changes can flip the sign.
func (c *ChaoticController) coupling(pressure, resistance float64) float64 {
	p := pressure / c.config.PressureScale
	r := resistance / c.config.PressureScale
	return math.Sin(math.Pi*p)*math.Exp(-r) + math.Cos(math.Pi*r)*math.Tanh(p) + c.x*c.y*c.z/10.0
}

// AnalyzeLeap checks the chaotic leap condition for one layer and, when a
// leap fires, records and returns the event. Returns nil when pressure does
// not clear the resistance bar or the stochastic draw fails.
func (c *ChaoticController) AnalyzeLeap(pressure, resistance float64, layer structure.Layer, arena *structure.Arena) *Event {
	if pressure <= c.config.ConditionFactor*resistance {
		return nil
	}

	chaosFactor := math.Abs(c.coupling(pressure, resistance)) * layerSensitivity[layer]
	prob := math.Min(1.0, chaosFactor*(0.3+c.rng.Float64()*1.4))
	if c.rng.Float64() >= prob {
		return nil
	}

	unpredictability := 1 - math.Exp(-c.config.Lambda*chaosFactor)
	magnitude := math.Min(c.config.MaxMagnitude, pressure*unpredictability*(0.5+c.rng.Float64()*1.5))

	target := layer
	if c.rng.Float64() < 0.3 {
		target = structure.Layers()[c.rng.Intn(4)]
	}

	event := &Event{
		ID:               uuid.NewString(),
		Seq:              len(c.history),
		Type:             c.classify(),
		SourceLayer:      layer,
		TargetLayer:      target,
		Magnitude:        magnitude,
		EnergyRelease:    c.config.EnergyFactor * magnitude * magnitude,
		ChaosFactor:      chaosFactor,
		Unpredictability: unpredictability,
		Deltas:           c.structuralDeltas(arena, target, magnitude),
	}

	c.history = append(c.history, event)
	if len(c.history) > c.config.HistoryCap {
		c.history = c.history[len(c.history)-c.config.HistoryCap:]
	}

	// A leap kicks the attractor off its trajectory.
	scale := 1 + (c.rng.Float64()-0.5)
	c.x *= scale
	c.y *= scale
	c.z *= scale

	return event
}

// classify maps the attractor's first coordinate magnitude to a leap type.
func (c *ChaoticController) classify() string {
	switch ax := math.Abs(c.x); {
	case ax < 5:
		return "creative"
	case ax < 10:
		return "transformative"
	case ax < 15:
		return "emergent"
	}
	return "destructive"
}

// structuralDeltas records a sinusoidal perturbation per element of the
// target layer. Recorded, not applied: consumers decide how to integrate.
func (c *ChaoticController) structuralDeltas(arena *structure.Arena, layer structure.Layer, magnitude float64) map[string]float64 {
	deltas := map[string]float64{}
	base := math.Sin(magnitude * math.Pi / 4)
	for _, id := range arena.SortedIDs(layer) {
		deltas[id] = base * (c.rng.Float64()*2 - 1)
	}
	return deltas
}

// History returns the bounded leap history, oldest first.
func (c *ChaoticController) History() []*Event {
	return c.history
}

// LeapPatterns analyzes the last RecentWindow events.
func (c *ChaoticController) LeapPatterns() Patterns {
	recent := c.history
	if len(recent) > c.config.RecentWindow {
		recent = recent[len(recent)-c.config.RecentWindow:]
	}
	if len(recent) == 0 {
		return Patterns{}
	}

	var creative, destructive int
	var unpredict float64
	factors := make([]float64, 0, len(recent))
	for _, ev := range recent {
		switch ev.Type {
		case "creative":
			creative++
		case "destructive":
			destructive++
		}
		unpredict += ev.Unpredictability
		factors = append(factors, ev.ChaosFactor)
	}

	n := float64(len(recent))
	return Patterns{
		CreativeRatio:    float64(creative) / n,
		DestructiveRatio: float64(destructive) / n,
		MeanUnpredict:    unpredict / n,
		ChaosIntensity:   stddev(factors),
		Frequency:        n / float64(c.config.RecentWindow),
	}
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// #endregion chaotic-controller
