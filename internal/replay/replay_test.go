package replay

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hermanndegner/ssd-core-engine/internal/structure"
)

func survivalFixture(seed int64, mode string, ticks int) *Fixture {
	f := &Fixture{
		Description: "declining water source with intermittent threats",
		Seed:        seed,
		LeapMode:    mode,
	}
	for i := 0; i < ticks; i++ {
		in := Interaction{
			Clock: float64(i),
			Entities: []EntitySpec{
				{
					ID:           "spring",
					Type:         "water",
					CurrentValue: 50 - float64(i),
					DeclineRate:  1.0,
					Meanings:     map[string]float64{"base": 0.8, "physical": 0.5},
				},
				{
					ID:           "berries",
					Type:         "food",
					CurrentValue: 30,
					DeclineRate:  0.5,
					Meanings:     map[string]float64{"base": 0.6},
				},
			},
			Actions: []string{"drink", "observe", "explore"},
		}
		if i%5 == 0 {
			in.Stimuli = append(in.Stimuli, StimulusSpec{
				ID: fmt.Sprintf("wolf%d", i), Type: "threat", Intensity: 0.9,
			})
		}
		f.Interactions = append(f.Interactions, in)
	}
	return f
}

func TestRunDeterministicUnderSeed(t *testing.T) {
	for _, mode := range []string{"basic", "chaotic"} {
		fixture := survivalFixture(42, mode, 30)

		a, err := NewHarnessForFixture(fixture).Run(fixture)
		if err != nil {
			t.Fatalf("%s run a: %v", mode, err)
		}
		b, err := NewHarnessForFixture(fixture).Run(fixture)
		if err != nil {
			t.Fatalf("%s run b: %v", mode, err)
		}

		if diff := cmp.Diff(a, b); diff != "" {
			t.Fatalf("%s traces diverged under equal seeds (-a +b):\n%s", mode, diff)
		}
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	f1 := survivalFixture(1, "basic", 30)
	f2 := survivalFixture(2, "basic", 30)

	a, err := NewHarnessForFixture(f1).Run(f1)
	if err != nil {
		t.Fatalf("run a: %v", err)
	}
	b, err := NewHarnessForFixture(f2).Run(f2)
	if err != nil {
		t.Fatalf("run b: %v", err)
	}

	if diff := cmp.Diff(a, b); diff == "" {
		t.Fatal("30 ticks under different seeds produced identical traces")
	}
}

func TestRunHoldsInvariants(t *testing.T) {
	fixture := survivalFixture(7, "basic", 60)
	h := NewHarnessForFixture(fixture)

	traces, err := h.Run(fixture)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(traces) != 60 {
		t.Fatalf("traces = %d, want 60", len(traces))
	}

	for _, tr := range traces {
		if tr.E < 0 || tr.E > 10 {
			t.Fatalf("tick %d: E = %v out of [0,10]", tr.Tick, tr.E)
		}
		if tr.Temperature < 0.3 || tr.Temperature > 1.0 {
			t.Fatalf("tick %d: T = %v out of [0.3,1]", tr.Tick, tr.Temperature)
		}
	}

	for _, layer := range structure.Layers() {
		for id, el := range h.Arena().LayerElements(layer) {
			if el.Activation < 0 || el.Activation > 1 {
				t.Fatalf("element %s activation %v out of [0,1]", id, el.Activation)
			}
		}
	}
	for _, id := range h.Alignment().Inertia().SortedIDs() {
		if v := h.Alignment().Inertia().Get(id); v < 0.05 {
			t.Fatalf("κ of %s = %v, below floor", id, v)
		}
	}
}

func TestPerceptionCreatesElements(t *testing.T) {
	fixture := survivalFixture(3, "basic", 1)
	h := NewHarnessForFixture(fixture)

	if _, err := h.Run(fixture); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, ok := h.Arena().Get(structure.Base, "spring"); !ok {
		t.Fatal("perceived entity did not spawn a base-layer element")
	}
}

func TestChaoticModeAdvancesAttractor(t *testing.T) {
	fixture := survivalFixture(5, "chaotic", 20)
	h := NewHarnessForFixture(fixture)
	x0, y0, z0 := h.Chaotic().State()

	if _, err := h.Run(fixture); err != nil {
		t.Fatalf("run: %v", err)
	}
	x1, y1, z1 := h.Chaotic().State()
	if x0 == x1 && y0 == y1 && z0 == z1 {
		t.Fatal("chaotic mode never advanced the attractor")
	}
}

func TestFixtureRoundTrip(t *testing.T) {
	fixture := survivalFixture(9, "chaotic", 3)
	path := filepath.Join(t.TempDir(), "fixture.json")

	if err := SaveFixture(path, fixture); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(fixture, loaded); diff != "" {
		t.Fatalf("fixture round-trip mismatch (-saved +loaded):\n%s", diff)
	}

	if _, err := LoadFixture(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing fixture")
	}
}
