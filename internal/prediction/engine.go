// Package prediction forecasts entity values over short horizons and flags
// crisis conditions. Forecasts are cached with a tick-based TTL and a hard
// size cap.
package prediction

import (
	"math"
	"math/rand"

	"github.com/hermanndegner/ssd-core-engine/internal/structure"
)

// #region config

// Config holds the forecasting and cache coefficients.
type Config struct {
	DefaultHorizon int
	Accuracy       float64 // 1.0 silences forecast noise

	TrendMemory int     // retained delta maps
	TrendWindow int     // deltas consulted per entity
	TrendGain   float64 // delta mean → trend modifier slope
	TrendMin    float64
	TrendMax    float64

	ConfidenceDecay float64 // per-horizon-step decay
	ConfidenceMin   float64

	CacheTTL float64 // ticks an entry stays valid
	CacheCap int
	StaleAge float64 // cleanup drops entries older than this
	ShrinkTo int     // then evicts oldest until at this size
}

// DefaultConfig returns the canonical prediction coefficients.
func DefaultConfig() Config {
	return Config{
		DefaultHorizon:  3,
		Accuracy:        0.8,
		TrendMemory:     10,
		TrendWindow:     3,
		TrendGain:       0.3,
		TrendMin:        0.5,
		TrendMax:        2.0,
		ConfidenceDecay: 0.9,
		ConfidenceMin:   0.1,
		CacheTTL:        5,
		CacheCap:        100,
		StaleAge:        10,
		ShrinkTo:        50,
	}
}

// crisisBands maps entity types to {critical, severe, moderate} value
// thresholds. For most types a low forecast is bad; for danger/threat the
// comparison inverts — a high forecast is bad.
var crisisBands = map[string][3]float64{
	"health": {20, 40, 60},
	"water":  {10, 30, 50},
	"food":   {15, 35, 55},
	"energy": {25, 45, 65},
	"danger": {80, 60, 40},
	"threat": {80, 60, 40},
}

var defaultBand = crisisBands["health"]

func inverted(entityType string) bool {
	return entityType == "danger" || entityType == "threat"
}

// #endregion config

// #region types

// Forecast is one cached prediction.
type Forecast struct {
	EntityID   string
	Values     []float64
	MinValue   float64
	Crisis     string // none, moderate, severe, critical
	Confidence float64
	CachedAt   float64
}

// Outlook aggregates forecasts over several entities.
type Outlook struct {
	Level     string
	Score     float64
	Urgency   float64 // cooperation urgency
	Forecasts map[string]Forecast
}

type cacheKey struct {
	id      string
	horizon int
}

// #endregion types

// #region engine

// Engine owns the forecast cache and the trend memory.
type Engine struct {
	config Config
	rng    *rand.Rand

	cache map[cacheKey]*Forecast
	order []cacheKey // insertion order, for oldest-first eviction

	deltas []map[string]float64
}

// NewEngine creates a prediction engine with an empty cache.
func NewEngine(rng *rand.Rand, config Config) *Engine {
	return &Engine{
		config: config,
		rng:    rng,
		cache:  map[cacheKey]*Forecast{},
	}
}

// CacheSize returns the live cache entry count.
func (e *Engine) CacheSize() int {
	return len(e.cache)
}

// RecordDeltas feeds one tick's per-entity value deltas into the bounded
// trend memory.
func (e *Engine) RecordDeltas(d map[string]float64) {
	e.deltas = append(e.deltas, d)
	if len(e.deltas) > e.config.TrendMemory {
		e.deltas = e.deltas[len(e.deltas)-e.config.TrendMemory:]
	}
}

// Predict forecasts an entity's value over the horizon. A cached entry
// within its TTL is returned as-is. An unknown id yields a zero-confidence
// neutral forecast that is not cached.
func (e *Engine) Predict(id string, entities map[string]*structure.Entity, horizon int, now float64) Forecast {
	if horizon <= 0 {
		horizon = e.config.DefaultHorizon
	}
	key := cacheKey{id: id, horizon: horizon}
	if cached, ok := e.cache[key]; ok && now-cached.CachedAt <= e.config.CacheTTL {
		return *cached
	}

	entity, ok := entities[id]
	if !ok {
		return Forecast{EntityID: id, Crisis: "none"}
	}

	trend := e.trendModifier(id)
	noiseScale := (1 - e.config.Accuracy) * entity.Volatility

	values := make([]float64, horizon)
	minValue := math.Inf(1)
	for k := 1; k <= horizon; k++ {
		noise := (e.rng.Float64()*2 - 1) * noiseScale
		v := math.Max(0, entity.CurrentValue-entity.DeclineRate*trend*float64(k)+noise)
		values[k-1] = v
		if v < minValue {
			minValue = v
		}
	}

	confidence := e.config.Accuracy *
		math.Pow(e.config.ConfidenceDecay, float64(horizon)) *
		(1 - 0.5*entity.Volatility)
	confidence = math.Min(math.Max(confidence, e.config.ConfidenceMin), 1.0)

	forecast := &Forecast{
		EntityID:   id,
		Values:     values,
		MinValue:   minValue,
		Crisis:     crisisLevel(entity.Type, minValue),
		Confidence: confidence,
		CachedAt:   now,
	}
	e.store(key, forecast, now)
	return *forecast
}

// trendModifier derives the decline multiplier from the recent deltas of
// one entity: clamp(1 + mean·gain). The trend only engages once the memory
// holds a full window and that window carries at least two changes for the
// entity; until then the modifier stays neutral.
func (e *Engine) trendModifier(id string) float64 {
	if len(e.deltas) < e.config.TrendWindow {
		return 1.0
	}
	var recent []float64
	for _, d := range e.deltas[len(e.deltas)-e.config.TrendWindow:] {
		if v, ok := d[id]; ok {
			recent = append(recent, v)
		}
	}
	if len(recent) < 2 {
		return 1.0
	}
	sum := 0.0
	for _, d := range recent {
		sum += d
	}
	trend := 1 + (sum/float64(len(recent)))*e.config.TrendGain
	return math.Min(math.Max(trend, e.config.TrendMin), e.config.TrendMax)
}

// crisisLevel compares the minimum forecast against the type's band.
func crisisLevel(entityType string, minValue float64) string {
	band, ok := crisisBands[entityType]
	if !ok {
		band = defaultBand
	}
	if inverted(entityType) {
		switch {
		case minValue >= band[0]:
			return "critical"
		case minValue >= band[1]:
			return "severe"
		case minValue >= band[2]:
			return "moderate"
		}
		return "none"
	}
	switch {
	case minValue <= band[0]:
		return "critical"
	case minValue <= band[1]:
		return "severe"
	case minValue <= band[2]:
		return "moderate"
	}
	return "none"
}

// store inserts a cache entry and runs cleanup past the cap: stale entries
// go first, then the oldest until the shrink target holds.
func (e *Engine) store(key cacheKey, forecast *Forecast, now float64) {
	if _, ok := e.cache[key]; !ok {
		e.order = append(e.order, key)
	}
	e.cache[key] = forecast

	if len(e.cache) <= e.config.CacheCap {
		return
	}

	kept := e.order[:0]
	for _, k := range e.order {
		entry := e.cache[k]
		if now-entry.CachedAt > e.config.StaleAge {
			delete(e.cache, k)
			continue
		}
		kept = append(kept, k)
	}
	e.order = kept

	for len(e.cache) > e.config.ShrinkTo {
		k := e.order[0]
		e.order = e.order[1:]
		delete(e.cache, k)
	}
}

// #endregion engine

// #region aggregation

// crisisWeights scores individual crisis levels for aggregation.
var crisisWeights = map[string]float64{
	"moderate": 0.3,
	"severe":   0.6,
	"critical": 1.0,
}

// PredictMany forecasts a set of entities and aggregates their crisis
// levels into an overall outlook with a cooperation-urgency score.
func (e *Engine) PredictMany(ids []string, entities map[string]*structure.Entity, horizon int, now float64) Outlook {
	outlook := Outlook{Level: "none", Forecasts: map[string]Forecast{}}
	if len(ids) == 0 {
		return outlook
	}

	total := 0.0
	for _, id := range ids {
		f := e.Predict(id, entities, horizon, now)
		outlook.Forecasts[id] = f
		total += crisisWeights[f.Crisis]
	}

	outlook.Score = total / float64(len(ids))
	switch {
	case outlook.Score >= 0.7:
		outlook.Level = "critical"
	case outlook.Score >= 0.4:
		outlook.Level = "severe"
	case outlook.Score >= 0.15:
		outlook.Level = "moderate"
	}
	outlook.Urgency = math.Min(1, outlook.Score*0.8)
	return outlook
}

// DetectCrisis runs PredictMany over every perceived entity.
func (e *Engine) DetectCrisis(entities map[string]*structure.Entity, now float64) Outlook {
	return e.PredictMany(structure.SortedEntityIDs(entities), entities, e.config.DefaultHorizon, now)
}

// #endregion aggregation
