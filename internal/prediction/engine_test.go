package prediction

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/hermanndegner/ssd-core-engine/internal/structure"
)

func exactConfig() Config {
	c := DefaultConfig()
	c.Accuracy = 1.0 // silence forecast noise
	return c
}

func waterEntity(id string, current, decline float64) *structure.Entity {
	e := structure.NewEntity(id, "water")
	e.CurrentValue = current
	e.DeclineRate = decline
	e.Volatility = 0
	return e
}

func TestDecliningWaterTurnsCritical(t *testing.T) {
	engine := NewEngine(rand.New(rand.NewSource(1)), exactConfig())
	entities := map[string]*structure.Entity{
		"spring": waterEntity("spring", 20, 3.0),
	}

	// Three recorded positive deltas push the trend modifier to 1.3.
	for i := 0; i < 3; i++ {
		engine.RecordDeltas(map[string]float64{"spring": 1.0})
	}

	f := engine.Predict("spring", entities, 3, 0)
	want := []float64{20 - 3.9, 20 - 7.8, 20 - 11.7}
	for i, v := range f.Values {
		if diff := v - want[i]; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("step %d = %v, want %v", i+1, v, want[i])
		}
	}
	if diff := f.MinValue - 8.3; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("min = %v, want 8.3", f.MinValue)
	}
	if f.Crisis != "critical" {
		t.Fatalf("crisis = %q, want critical", f.Crisis)
	}
}

func TestUnknownEntityNeutral(t *testing.T) {
	engine := NewEngine(rand.New(rand.NewSource(1)), DefaultConfig())

	f := engine.Predict("ghost", nil, 3, 0)
	if f.Crisis != "none" || f.Confidence != 0 || len(f.Values) != 0 {
		t.Fatalf("unknown entity forecast = %+v, want neutral zero-confidence", f)
	}
	if engine.CacheSize() != 0 {
		t.Fatal("neutral forecast must not be cached")
	}
}

func TestForecastFloorsAtZero(t *testing.T) {
	engine := NewEngine(rand.New(rand.NewSource(1)), exactConfig())
	entities := map[string]*structure.Entity{
		"puddle": waterEntity("puddle", 2, 5.0),
	}

	f := engine.Predict("puddle", entities, 3, 0)
	for i, v := range f.Values {
		if v < 0 {
			t.Fatalf("step %d = %v, below zero", i+1, v)
		}
	}
}

func TestCacheHitWithinTTL(t *testing.T) {
	engine := NewEngine(rand.New(rand.NewSource(2)), DefaultConfig())
	entity := waterEntity("spring", 40, 1.0)
	entity.Volatility = 0.5 // noisy: a recompute would differ
	entities := map[string]*structure.Entity{"spring": entity}

	f1 := engine.Predict("spring", entities, 3, 0)
	f2 := engine.Predict("spring", entities, 3, 3)
	if f2.CachedAt != f1.CachedAt {
		t.Fatalf("entry recomputed within TTL: cachedAt %v vs %v", f2.CachedAt, f1.CachedAt)
	}
	for i := range f1.Values {
		if f1.Values[i] != f2.Values[i] {
			t.Fatal("cached forecast values differ")
		}
	}

	f3 := engine.Predict("spring", entities, 3, 6)
	if f3.CachedAt != 6 {
		t.Fatalf("entry not refreshed past TTL: cachedAt %v", f3.CachedAt)
	}
}

func TestCacheBounded(t *testing.T) {
	engine := NewEngine(rand.New(rand.NewSource(3)), DefaultConfig())
	entities := map[string]*structure.Entity{}
	for i := 0; i < 150; i++ {
		id := fmt.Sprintf("e%d", i)
		entities[id] = waterEntity(id, 50, 0.1)
	}

	for i := 0; i < 150; i++ {
		engine.Predict(fmt.Sprintf("e%d", i), entities, 3, float64(i)*0.1)
		if engine.CacheSize() > 100 {
			t.Fatalf("cache grew to %d, cap is 100", engine.CacheSize())
		}
	}
}

func TestCacheDropsStaleFirst(t *testing.T) {
	engine := NewEngine(rand.New(rand.NewSource(4)), DefaultConfig())
	entities := map[string]*structure.Entity{}
	for i := 0; i < 160; i++ {
		id := fmt.Sprintf("e%d", i)
		entities[id] = waterEntity(id, 50, 0.1)
	}

	for i := 0; i < 60; i++ {
		engine.Predict(fmt.Sprintf("e%d", i), entities, 3, 0)
	}
	// Much later, a second wave overflows the cap; the first wave is stale.
	for i := 60; i < 160; i++ {
		engine.Predict(fmt.Sprintf("e%d", i), entities, 3, 20)
	}

	if engine.CacheSize() > 100 {
		t.Fatalf("cache size = %d after stale cleanup", engine.CacheSize())
	}
	f := engine.Predict("e159", entities, 3, 21)
	if f.CachedAt != 20 {
		t.Fatalf("fresh entry evicted before stale ones: cachedAt %v", f.CachedAt)
	}
}

func TestInvertedCrisisBands(t *testing.T) {
	engine := NewEngine(rand.New(rand.NewSource(5)), exactConfig())
	danger := structure.NewEntity("wolf", "danger")
	danger.CurrentValue = 85
	danger.Volatility = 0
	entities := map[string]*structure.Entity{"wolf": danger}

	if f := engine.Predict("wolf", entities, 2, 0); f.Crisis != "critical" {
		t.Fatalf("danger at 85 = %q, want critical", f.Crisis)
	}

	danger.CurrentValue = 50
	if f := engine.Predict("wolf", entities, 2, 10); f.Crisis != "moderate" {
		t.Fatalf("danger at 50 = %q, want moderate", f.Crisis)
	}
}

func TestTrendModifierClamped(t *testing.T) {
	engine := NewEngine(rand.New(rand.NewSource(6)), exactConfig())
	entities := map[string]*structure.Entity{
		"spring": waterEntity("spring", 20, 2.0),
	}

	for i := 0; i < 3; i++ {
		engine.RecordDeltas(map[string]float64{"spring": 10.0})
	}
	f := engine.Predict("spring", entities, 1, 0)
	// Raw trend 1 + 10·0.3 = 4 clamps to 2.0.
	if diff := f.Values[0] - 16.0; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("upper clamp: value = %v, want 16", f.Values[0])
	}

	for i := 0; i < 3; i++ {
		engine.RecordDeltas(map[string]float64{"spring": -10.0})
	}
	f = engine.Predict("spring", entities, 1, 10)
	if diff := f.Values[0] - 19.0; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("lower clamp: value = %v, want 19", f.Values[0])
	}
}

func TestTrendNeutralUntilHistoryFills(t *testing.T) {
	engine := NewEngine(rand.New(rand.NewSource(9)), exactConfig())
	entities := map[string]*structure.Entity{
		"spring": waterEntity("spring", 20, 2.0),
	}

	// One recorded delta is not a trend yet.
	engine.RecordDeltas(map[string]float64{"spring": 10.0})
	f := engine.Predict("spring", entities, 1, 0)
	if diff := f.Values[0] - 18.0; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("single delta: value = %v, want neutral 18", f.Values[0])
	}

	// A full window with only one change for the entity stays neutral too.
	engine.RecordDeltas(map[string]float64{"other": 1.0})
	engine.RecordDeltas(map[string]float64{"other": 1.0})
	f = engine.Predict("spring", entities, 2, 0)
	if diff := f.Values[0] - 18.0; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("sparse window: value = %v, want neutral 18", f.Values[0])
	}

	// Two changes inside the window engage the trend.
	engine.RecordDeltas(map[string]float64{"spring": 10.0})
	engine.RecordDeltas(map[string]float64{"spring": 10.0})
	f = engine.Predict("spring", entities, 1, 10)
	if diff := f.Values[0] - 16.0; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("two changes: value = %v, want trend-applied 16", f.Values[0])
	}
}

func TestConfidenceBounds(t *testing.T) {
	engine := NewEngine(rand.New(rand.NewSource(7)), DefaultConfig())
	calm := waterEntity("calm", 50, 0.1)
	calm.Volatility = 0.1
	wild := waterEntity("wild", 50, 0.1)
	wild.Volatility = 2.0
	entities := map[string]*structure.Entity{"calm": calm, "wild": wild}

	f := engine.Predict("calm", entities, 3, 0)
	want := 0.8 * 0.9 * 0.9 * 0.9 * 0.95
	if diff := f.Confidence - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("confidence = %v, want %v", f.Confidence, want)
	}

	if f := engine.Predict("wild", entities, 3, 0); f.Confidence != 0.1 {
		t.Fatalf("extreme volatility confidence = %v, want floor 0.1", f.Confidence)
	}
}

func TestCrisisAggregation(t *testing.T) {
	engine := NewEngine(rand.New(rand.NewSource(8)), exactConfig())
	entities := map[string]*structure.Entity{
		"spring": waterEntity("spring", 5, 0),
		"well":   waterEntity("well", 5, 0),
	}

	outlook := engine.DetectCrisis(entities, 0)
	if outlook.Level != "critical" {
		t.Fatalf("level = %q, want critical", outlook.Level)
	}
	if outlook.Score != 1.0 {
		t.Fatalf("score = %v, want 1.0", outlook.Score)
	}
	if diff := outlook.Urgency - 0.8; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("urgency = %v, want 0.8", outlook.Urgency)
	}
	if len(outlook.Forecasts) != 2 {
		t.Fatalf("forecasts = %d, want 2", len(outlook.Forecasts))
	}

	if empty := engine.PredictMany(nil, entities, 3, 0); empty.Level != "none" || empty.Score != 0 {
		t.Fatalf("empty aggregation = %+v", empty)
	}
}
