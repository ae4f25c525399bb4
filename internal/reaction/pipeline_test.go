package reaction

import (
	"fmt"
	"testing"

	"github.com/hermanndegner/ssd-core-engine/internal/structure"
)

func almost(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

func TestImmediateThreatResponses(t *testing.T) {
	p := NewPipeline(DefaultConfig())

	imm := p.React(Stimulus{ID: "wolf", Type: "threat", Intensity: 0.9}, 0)
	if imm.Action != "flee" {
		t.Fatalf("high-intensity threat action = %q, want flee", imm.Action)
	}
	if !almost(imm.Strength, 0.855) {
		t.Fatalf("strength = %v, want 0.855", imm.Strength)
	}
	if imm.Latency != 0.05 {
		t.Fatalf("latency = %v, want 0.05", imm.Latency)
	}

	imm = p.React(Stimulus{ID: "shadow", Type: "threat", Intensity: 0.75}, 0)
	if imm.Action != "freeze" {
		t.Fatalf("moderate threat action = %q, want freeze", imm.Action)
	}
}

func TestImmediateSustenanceAndDefault(t *testing.T) {
	p := NewPipeline(DefaultConfig())

	if imm := p.React(Stimulus{ID: "spring", Type: "water", Intensity: 0.8}, 0); imm.Action != "approach" {
		t.Fatalf("water action = %q, want approach", imm.Action)
	}
	if imm := p.React(Stimulus{ID: "riddle", Type: "abstract", Intensity: 1.0}, 0); imm.Action != "observe" {
		t.Fatalf("abstract action = %q, want observe", imm.Action)
	}
	if imm := p.React(Stimulus{ID: "hum", Type: "unknown_kind", Intensity: 1.0}, 0); !almost(imm.Strength, 0.3) {
		t.Fatalf("default weight strength = %v, want 0.3", imm.Strength)
	}
}

func TestReprocessReleasesOnSchedule(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	p.React(Stimulus{ID: "wolf", Type: "threat", Intensity: 0.9}, 0)

	if out := p.Reprocess(0.2, nil); len(out) != 0 {
		t.Fatalf("released %d entries before schedule", len(out))
	}
	out := p.Reprocess(0.4, nil)
	if len(out) != 1 {
		t.Fatalf("released %d entries, want 1", len(out))
	}
	if out[0].StimulusID != "wolf" {
		t.Fatalf("released wrong stimulus %q", out[0].StimulusID)
	}

	// Same clock value again: nothing new.
	if out := p.Reprocess(0.4, nil); len(out) != 0 {
		t.Fatalf("repeated timestamp released %d entries", len(out))
	}
	if p.Pending() != 0 {
		t.Fatalf("pending = %d after full release", p.Pending())
	}
}

func TestSocialContextWithdrawal(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	p.React(Stimulus{
		ID: "rival", Type: "threat", Intensity: 0.9,
		Context: map[string]float64{"social": 1.0},
	}, 0)

	out := p.Reprocess(1.0, nil)
	if len(out) != 1 {
		t.Fatalf("released %d entries, want 1", len(out))
	}
	d := out[0]
	if d.CoreAction != "controlled_withdrawal" {
		t.Fatalf("core action = %q, want controlled_withdrawal", d.CoreAction)
	}
	if d.Suppression != 0.6 {
		t.Fatalf("suppression = %v, want 0.6", d.Suppression)
	}
	// 0.855·0.4·0.8 falls below the core-action bar: explicit hold.
	if !almost(d.FinalStrength, 0.855*0.4*0.8) {
		t.Fatalf("final strength = %v, want %v", d.FinalStrength, 0.855*0.4*0.8)
	}
	if d.Action != "deliberate" {
		t.Fatalf("final action = %q, want deliberate", d.Action)
	}
}

func TestDangerTempersApproach(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	p.React(Stimulus{
		ID: "berries", Type: "water", Intensity: 1.0,
		Context: map[string]float64{"danger": 0.5, "value_alignment": 0.6},
	}, 0)

	out := p.Reprocess(1.0, nil)
	d := out[0]
	if d.CoreAction != "cautious_approach" {
		t.Fatalf("core action = %q, want cautious_approach", d.CoreAction)
	}
	// 0.85·0.6·0.8 = 0.408: core-adjusted action wins.
	if d.Action != "cautious_approach" {
		t.Fatalf("final action = %q, want cautious_approach", d.Action)
	}
}

func TestUpperEnhanceKeepsReflex(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	p.React(Stimulus{
		ID: "wolf", Type: "threat", Intensity: 0.9,
		Context: map[string]float64{"value_alignment": 0.9},
	}, 0)

	d := p.Reprocess(1.0, nil)[0]
	if d.Recommendation != "enhance" {
		t.Fatalf("recommendation = %q, want enhance", d.Recommendation)
	}
	// 0.855·0.9·1.0 clears the immediate bar.
	if d.Action != "flee" {
		t.Fatalf("final action = %q, want flee", d.Action)
	}
}

func TestUpperSuppressHolds(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	p.React(Stimulus{
		ID: "wolf", Type: "threat", Intensity: 0.9,
		Context: map[string]float64{"value_alignment": 0.1},
	}, 0)

	d := p.Reprocess(1.0, nil)[0]
	if d.Recommendation != "suppress" {
		t.Fatalf("recommendation = %q, want suppress", d.Recommendation)
	}
	if d.Action != "deliberate" {
		t.Fatalf("final action = %q, want deliberate", d.Action)
	}
}

func TestUpperDefaultFromArena(t *testing.T) {
	arena := structure.NewArena()
	el := structure.NewElement(structure.Upper)
	el.Activation = 0.9
	arena.Put(structure.Upper, "ideal", el)

	p := NewPipeline(DefaultConfig())
	p.React(Stimulus{ID: "wolf", Type: "threat", Intensity: 0.9}, 0)

	d := p.Reprocess(1.0, arena)[0]
	if d.Recommendation != "enhance" {
		t.Fatalf("active upper layer should enhance, got %q", d.Recommendation)
	}
}

func TestQueueBounded(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	for i := 0; i < 150; i++ {
		p.React(Stimulus{ID: fmt.Sprintf("s%d", i), Type: "abstract", Intensity: 0.5}, float64(i)*0.01)
		if p.Pending() > 100 {
			t.Fatalf("queue grew to %d, cap is 100", p.Pending())
		}
	}

	out := p.Reprocess(100.0, nil)
	if len(out) != 100 {
		t.Fatalf("released %d, want the 100 newest", len(out))
	}
	if out[0].StimulusID != "s50" {
		t.Fatalf("oldest kept entry = %q, want s50", out[0].StimulusID)
	}
}
