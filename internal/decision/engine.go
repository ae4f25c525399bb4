// Package decision selects actions under an exploration/exploitation
// temperature that rises with unresolved pressure. Scoring blends learned
// coherence inertia, survival need, and layer activation.
package decision

import (
	"math"
	"math/rand"

	"github.com/hermanndegner/ssd-core-engine/internal/alignment"
	"github.com/hermanndegner/ssd-core-engine/internal/structure"
)

// #region config

// Config holds the scoring and temperature coefficients.
type Config struct {
	BaseScore     float64
	InertiaWeight float64
	SurvivalScale float64
	LayerScale    float64
	MaxScore      float64

	TempBase          float64 // temperature floor
	TempGain          float64
	TempPressureScale float64 // E value at which temperature saturates

	ExplorationFactor float64 // exploration probability = T·factor
	RelevanceCutoff   float64 // entities above this count toward need

	HistoryCap   int
	RecentWindow int
}

// DefaultConfig returns the canonical decision coefficients.
func DefaultConfig() Config {
	return Config{
		BaseScore:         0.5,
		InertiaWeight:     0.4,
		SurvivalScale:     0.8,
		LayerScale:        0.2,
		MaxScore:          2.0,
		TempBase:          0.3,
		TempGain:          0.7,
		TempPressureScale: 5.0,
		ExplorationFactor: 0.5,
		RelevanceCutoff:   0.7,
		HistoryCap:        100,
		RecentWindow:      10,
	}
}

// survivalValues maps action names to their fixed survival contribution.
var survivalValues = map[string]float64{
	"eat":          1.0,
	"drink":        1.0,
	"seek_shelter": 0.9,
	"craft":        0.7,
	"avoid":        0.6,
	"gather":       0.6,
	"rest":         0.5,
	"store":        0.5,
	"use":          0.5,
	"explore":      0.4,
	"approach":     0.4,
	"observe":      0.3,
	"investigate":  0.3,
}

const defaultSurvivalValue = 0.2

// #endregion config

// #region engine

// Decision records one selection.
type Decision struct {
	Action      string
	Score       float64
	Explored    bool
	Temperature float64
}

// Statistics summarizes recent decision behavior.
type Statistics struct {
	Count            int
	Temperature      float64
	ExplorationRatio float64 // over the recent window
}

// Engine owns the temperature and the bounded decision history.
type Engine struct {
	config      Config
	rng         *rand.Rand
	temperature float64
	history     []Decision
}

// NewEngine creates a decision engine at full temperature.
func NewEngine(rng *rand.Rand, config Config) *Engine {
	return &Engine{config: config, rng: rng, temperature: 1.0}
}

// Temperature returns the current exploration temperature.
func (e *Engine) Temperature() float64 {
	return e.temperature
}

// UpdateTemperature recomputes T = base + gain·min(1, E/scale) and returns
// it. Unresolved pressure makes the agent more exploratory.
func (e *Engine) UpdateTemperature(pressure float64) float64 {
	e.temperature = e.config.TempBase + e.config.TempGain*math.Min(1, pressure/e.config.TempPressureScale)
	return e.temperature
}

// Decide scores the candidate actions and selects one: with probability
// T·factor a uniform exploration pick, otherwise the arg-max (ties resolved
// by first-seen order). An empty candidate set returns the zero decision.
func (e *Engine) Decide(actions []string, arena *structure.Arena, inertia *alignment.InertiaTable, entities map[string]*structure.Entity) Decision {
	if len(actions) == 0 {
		return Decision{}
	}

	need := survivalNeed(entities, e.config.RelevanceCutoff)
	layerEval := e.layerEvaluation(arena, need)

	scores := make([]float64, len(actions))
	for i, action := range actions {
		value, ok := survivalValues[action]
		if !ok {
			value = defaultSurvivalValue
		}
		score := e.config.BaseScore +
			inertia.Get(action)*e.config.InertiaWeight +
			value*need*e.config.SurvivalScale +
			layerEval
		scores[i] = math.Min(score, e.config.MaxScore)
	}

	d := Decision{Temperature: e.temperature}
	if e.rng.Float64() < e.temperature*e.config.ExplorationFactor {
		i := e.rng.Intn(len(actions))
		d.Action, d.Score, d.Explored = actions[i], scores[i], true
	} else {
		best := 0
		for i := 1; i < len(actions); i++ {
			if scores[i] > scores[best] {
				best = i
			}
		}
		d.Action, d.Score = actions[best], scores[best]
	}

	e.history = append(e.history, d)
	if len(e.history) > e.config.HistoryCap {
		e.history = e.history[len(e.history)-e.config.HistoryCap:]
	}
	return d
}

// layerEvaluation sums mean activation × mobility × survival weighting per
// layer. Action-independent: it shifts all scores equally but feeds the
// recorded score.
func (e *Engine) layerEvaluation(arena *structure.Arena, need float64) float64 {
	if arena == nil {
		return 0
	}
	total := 0.0
	for _, layer := range structure.Layers() {
		elements := arena.LayerElements(layer)
		if len(elements) == 0 {
			continue
		}
		sum := 0.0
		for _, el := range elements {
			sum += el.Activation
		}
		mean := sum / float64(len(elements))
		total += mean * layer.Mobility() * (1 + layer.SurvivalWeight()*need) * e.config.LayerScale
	}
	return total
}

// survivalNeed is the fraction of perceived entities above the relevance
// cutoff.
func survivalNeed(entities map[string]*structure.Entity, cutoff float64) float64 {
	if len(entities) == 0 {
		return 0
	}
	urgent := 0
	for _, entity := range entities {
		if entity.SurvivalRelevance() > cutoff {
			urgent++
		}
	}
	return float64(urgent) / float64(len(entities))
}

// History returns the bounded decision history, oldest first.
func (e *Engine) History() []Decision {
	return e.history
}

// Statistics reports the rolling exploration ratio over the recent window.
func (e *Engine) Statistics() Statistics {
	recent := e.history
	if len(recent) > e.config.RecentWindow {
		recent = recent[len(recent)-e.config.RecentWindow:]
	}
	explored := 0
	for _, d := range recent {
		if d.Explored {
			explored++
		}
	}
	ratio := 0.0
	if len(recent) > 0 {
		ratio = float64(explored) / float64(len(recent))
	}
	return Statistics{
		Count:            len(e.history),
		Temperature:      e.temperature,
		ExplorationRatio: ratio,
	}
}

// #endregion engine
