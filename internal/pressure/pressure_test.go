package pressure

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/hermanndegner/ssd-core-engine/internal/structure"
)

// fixedSimilarity returns a constant score, removing randomness from
// formula tests.
type fixedSimilarity struct{ v float64 }

func (f fixedSimilarity) Score(*structure.Entity, string, structure.Layer) float64 { return f.v }

func testEntity(id string) *structure.Entity {
	e := structure.NewEntity(id, "food")
	for _, layer := range structure.Layers() {
		e.MeaningValues[layer] = 0.8
	}
	return e
}

func TestEStaysBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	acc := NewAccumulator(rng, DefaultConfig())
	arena := structure.NewArena()
	mobility := structure.DefaultMobility()

	for i := 0; i < 500; i++ {
		if _, err := acc.Accumulate(testEntity(fmt.Sprintf("e%d", i)), arena, mobility); err != nil {
			t.Fatalf("accumulate: %v", err)
		}
		if acc.E() < 0 || acc.E() > 10 {
			t.Fatalf("E = %v out of [0,10] at step %d", acc.E(), i)
		}
	}
	if acc.E() == 0 {
		t.Fatal("expected pressure to accumulate")
	}
}

func TestDecayIsMonotone(t *testing.T) {
	acc := NewAccumulator(rand.New(rand.NewSource(1)), DefaultConfig())
	acc.SetE(7.5)

	e0 := acc.E()
	acc.Decay()
	e1 := acc.E()
	acc.Decay()
	e2 := acc.E()

	if !(e2 <= e1 && e1 <= e0) {
		t.Fatalf("decay not monotone: %v, %v, %v", e0, e1, e2)
	}
	if e1 != 7.5*0.95 {
		t.Fatalf("e1 = %v, want %v", e1, 7.5*0.95)
	}
}

func TestLayerPressureFormula(t *testing.T) {
	acc := NewAccumulatorWithSimilarity(fixedSimilarity{v: 0.5}, DefaultConfig())
	arena := structure.NewArena()
	el := structure.NewElement(structure.Core)
	el.Activation = 0.4
	el.Stability = 1.0
	arena.Put(structure.Core, "existing", el)

	entity := structure.NewEntity("berry", "food")
	entity.MeaningValues[structure.Core] = 0.5

	// φ = 0.5 * 1.0 = 0.5; R = (1-0.5)*0.4 = 0.2; S = 0.5*1.0*0.2 = 0.1
	// P = 0.5*(1 + 0.3*0.1) - 0.1*0.2 + 0.4*0.1 = 0.515 - 0.02 + 0.04
	got := acc.LayerPressure(entity, structure.Core, arena)
	want := 0.535
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("layer pressure = %v, want %v", got, want)
	}
}

func TestLayerPressureNeverNegative(t *testing.T) {
	acc := NewAccumulatorWithSimilarity(fixedSimilarity{v: 0.0}, DefaultConfig())
	arena := structure.NewArena()
	for i := 0; i < 20; i++ {
		el := structure.NewElement(structure.Base)
		el.Activation = 1.0
		arena.Put(structure.Base, fmt.Sprintf("el%d", i), el)
	}

	entity := structure.NewEntity("whisper", "abstract")
	// Zero meaning, maximal resistance: raw formula goes negative, result
	// must clamp at zero.
	if got := acc.LayerPressure(entity, structure.Base, arena); got != 0 {
		t.Fatalf("pressure = %v, want 0", got)
	}
}

func TestAccumulateRejectsMissingTables(t *testing.T) {
	acc := NewAccumulator(rand.New(rand.NewSource(1)), DefaultConfig())

	_, err := acc.Accumulate(testEntity("x"), nil, structure.DefaultMobility())
	if !errors.Is(err, structure.ErrInvalidConfiguration) {
		t.Fatalf("nil arena: got %v", err)
	}

	_, err = acc.Accumulate(testEntity("x"), structure.NewArena(), structure.MobilityTable{})
	if !errors.Is(err, structure.ErrInvalidConfiguration) {
		t.Fatalf("empty mobility: got %v", err)
	}
}

func TestExperienceLogAndCompaction(t *testing.T) {
	acc := NewAccumulator(rand.New(rand.NewSource(2)), DefaultConfig())
	arena := structure.NewArena()
	mobility := structure.DefaultMobility()

	for i := 0; i < 30; i++ {
		acc.Accumulate(testEntity(fmt.Sprintf("e%d", i)), arena, mobility)
	}
	if len(acc.Log()) != 30 {
		t.Fatalf("log length = %d, want 30", len(acc.Log()))
	}

	acc.CompactLog(10)
	log := acc.Log()
	if len(log) != 10 {
		t.Fatalf("compacted log length = %d, want 10", len(log))
	}
	if log[0].Source != "e20" {
		t.Fatalf("compaction kept wrong entries, first = %s", log[0].Source)
	}
}

func TestSimilarityMemoBounded(t *testing.T) {
	config := DefaultConfig()
	config.MemoCap = 40
	acc := NewAccumulator(rand.New(rand.NewSource(3)), config)
	arena := structure.NewArena()
	for i := 0; i < 5; i++ {
		arena.Put(structure.Upper, fmt.Sprintf("idea%d", i), structure.NewElement(structure.Upper))
	}
	mobility := structure.DefaultMobility()

	for i := 0; i < 50; i++ {
		acc.Accumulate(testEntity(fmt.Sprintf("e%d", i)), arena, mobility)
		if acc.MemoSize() > config.MemoCap {
			t.Fatalf("memo size %d exceeds cap %d", acc.MemoSize(), config.MemoCap)
		}
	}

	acc.CompactMemo()
	if acc.MemoSize() > config.MemoCap/2 {
		t.Fatalf("memo size after compaction = %d, want <= %d", acc.MemoSize(), config.MemoCap/2)
	}
}

func TestRandomSimilarityBounds(t *testing.T) {
	sim := NewRandomSimilarity(rand.New(rand.NewSource(4)))
	entity := structure.NewEntity("wolf", "threat")
	entity.Properties["danger_level"] = 0.8

	for i := 0; i < 200; i++ {
		s := sim.Score(entity, "threat_memory", structure.Base)
		if s < 0 || s > 1 {
			t.Fatalf("similarity %v out of [0,1]", s)
		}
	}
}

func TestStatistics(t *testing.T) {
	acc := NewAccumulatorWithSimilarity(fixedSimilarity{v: 0.5}, DefaultConfig())
	arena := structure.NewArena()
	mobility := structure.DefaultMobility()

	if s := acc.Statistics(); s.Count != 0 || s.MeanPressure != 0 {
		t.Fatalf("empty statistics = %+v", s)
	}

	acc.Accumulate(testEntity("a"), arena, mobility)
	acc.Accumulate(testEntity("b"), arena, mobility)

	s := acc.Statistics()
	if s.Count != 2 {
		t.Fatalf("count = %d, want 2", s.Count)
	}
	if s.MaxPressure < s.MeanPressure {
		t.Fatalf("max %v < mean %v", s.MaxPressure, s.MeanPressure)
	}
	if s.CurrentE != acc.E() {
		t.Fatalf("statistics E = %v, accumulator E = %v", s.CurrentE, acc.E())
	}
}
