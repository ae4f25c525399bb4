package replay

import (
	"fmt"
	"math/rand"

	"github.com/hermanndegner/ssd-core-engine/internal/alignment"
	"github.com/hermanndegner/ssd-core-engine/internal/decision"
	"github.com/hermanndegner/ssd-core-engine/internal/leap"
	"github.com/hermanndegner/ssd-core-engine/internal/prediction"
	"github.com/hermanndegner/ssd-core-engine/internal/pressure"
	"github.com/hermanndegner/ssd-core-engine/internal/reaction"
	"github.com/hermanndegner/ssd-core-engine/internal/structure"
)

// #region options

// Options bundles the component configs and the seed for a harness run.
type Options struct {
	Seed int64
	Mode leap.Mode

	Pressure   pressure.Config
	Alignment  alignment.Config
	Leap       leap.Config
	Chaotic    leap.ChaoticConfig
	Reaction   reaction.Config
	Decision   decision.Config
	Prediction prediction.Config

	MaintenanceEvery int // ticks between maintenance passes
	ExperienceKeep   int // experience log entries kept on compaction
}

// DefaultOptions returns the canonical configuration for all components.
func DefaultOptions() Options {
	return Options{
		Seed:             1,
		Mode:             leap.BasicLeap,
		Pressure:         pressure.DefaultConfig(),
		Alignment:        alignment.DefaultConfig(),
		Leap:             leap.DefaultConfig(),
		Chaotic:          leap.DefaultChaoticConfig(),
		Reaction:         reaction.DefaultConfig(),
		Decision:         decision.DefaultConfig(),
		Prediction:       prediction.DefaultConfig(),
		MaintenanceEvery: 10,
		ExperienceKeep:   200,
	}
}

// #endregion options

// #region trace

// TickTrace snapshots one tick's observable outcomes.
type TickTrace struct {
	Tick        int
	Clock       float64
	E           float64
	Temperature float64
	MeanInertia float64
	HeatLoss    float64
	Immediate   []string
	Deliberated []string
	LeapFired   bool
	LeapType    string
	Decision    string
	Explored    bool
	CrisisLevel string
	Evicted     int
}

// #endregion trace

// #region harness

// Harness owns one agent's components and a single seeded generator, and
// drives the fixed tick order. Two harnesses with equal options and
// fixtures produce identical traces.
type Harness struct {
	opts Options
	rng  *rand.Rand

	arena     *structure.Arena
	mobility  structure.MobilityTable
	acc       *pressure.Accumulator
	align     *alignment.Engine
	basic     *leap.Controller
	chaotic   *leap.ChaoticController
	pipeline  *reaction.Pipeline
	decider   *decision.Engine
	predictor *prediction.Engine

	prevValues map[string]float64
	tick       int
}

// NewHarness constructs an agent harness. All components share the one
// seeded generator, so the tick order fully determines every draw.
func NewHarness(opts Options) *Harness {
	rng := rand.New(rand.NewSource(opts.Seed))
	return &Harness{
		opts:       opts,
		rng:        rng,
		arena:      structure.NewArena(),
		mobility:   structure.DefaultMobility(),
		acc:        pressure.NewAccumulator(rng, opts.Pressure),
		align:      alignment.NewEngine(rng, opts.Alignment),
		basic:      leap.NewController(rng, opts.Leap),
		chaotic:    leap.NewChaoticController(rng, opts.Chaotic),
		pipeline:   reaction.NewPipeline(opts.Reaction),
		decider:    decision.NewEngine(rng, opts.Decision),
		predictor:  prediction.NewEngine(rng, opts.Prediction),
		prevValues: map[string]float64{},
	}
}

// Arena exposes the structural table for inspection.
func (h *Harness) Arena() *structure.Arena {
	return h.arena
}

// Pressure exposes the accumulator for inspection.
func (h *Harness) Pressure() *pressure.Accumulator {
	return h.acc
}

// Alignment exposes the alignment engine for inspection.
func (h *Harness) Alignment() *alignment.Engine {
	return h.align
}

// Chaotic exposes the chaotic controller for inspection.
func (h *Harness) Chaotic() *leap.ChaoticController {
	return h.chaotic
}

// Predictor exposes the prediction engine for inspection.
func (h *Harness) Predictor() *prediction.Engine {
	return h.predictor
}

// Tick executes one agent step in the fixed order: perceive/accumulate →
// align → decay → thermal align → immediate reactions → deferred
// reprocessing → leap → temperature → decision → crisis scan →
// maintenance.
func (h *Harness) Tick(in Interaction) (TickTrace, error) {
	h.tick++
	trace := TickTrace{Tick: h.tick, Clock: in.Clock}

	entities := make(map[string]*structure.Entity, len(in.Entities))
	for i := range in.Entities {
		spec := &in.Entities[i]
		entity := spec.ToEntity()
		entities[entity.ID] = entity
		h.ensureElement(entity)
		if _, err := h.acc.Accumulate(entity, h.arena, h.mobility); err != nil {
			return trace, fmt.Errorf("tick %d accumulate: %w", h.tick, err)
		}
	}

	if _, err := h.align.Align(h.arena, h.acc.E(), h.mobility); err != nil {
		return trace, fmt.Errorf("tick %d align: %w", h.tick, err)
	}
	h.acc.Decay()
	if _, err := h.align.AlignWithHeatLoss(h.arena); err != nil {
		return trace, fmt.Errorf("tick %d thermal align: %w", h.tick, err)
	}

	for _, spec := range in.Stimuli {
		imm := h.pipeline.React(spec.ToStimulus(), in.Clock)
		trace.Immediate = append(trace.Immediate, imm.Action)
	}
	for _, d := range h.pipeline.Reprocess(in.Clock, h.arena) {
		trace.Deliberated = append(trace.Deliberated, d.Action)
	}

	h.runLeap(&trace, entities)

	trace.Temperature = h.decider.UpdateTemperature(h.acc.E())
	d := h.decider.Decide(in.Actions, h.arena, h.align.Inertia(), entities)
	trace.Decision = d.Action
	trace.Explored = d.Explored

	h.recordDeltas(entities)
	trace.CrisisLevel = h.predictor.DetectCrisis(entities, in.Clock).Level

	if h.opts.MaintenanceEvery > 0 && h.tick%h.opts.MaintenanceEvery == 0 {
		h.acc.CompactMemo()
		h.acc.CompactLog(h.opts.ExperienceKeep)
		trace.Evicted = h.arena.Stabilize(h.rng)
	}

	trace.E = h.acc.E()
	stats := h.align.Statistics()
	trace.MeanInertia = stats.AvgInertia
	trace.HeatLoss = stats.TotalHeatLoss
	return trace, nil
}

// runLeap executes the capability selected at construction.
func (h *Harness) runLeap(trace *TickTrace, entities map[string]*structure.Entity) {
	switch h.opts.Mode {
	case leap.ChaoticLeap:
		h.chaotic.Advance()
		resistance := h.align.EnhancedInertia(h.arena, entities)
		layer := h.mostActiveLayer()
		if ev := h.chaotic.AnalyzeLeap(h.acc.E(), resistance, layer, h.arena); ev != nil {
			trace.LeapFired = true
			trace.LeapType = ev.Type
			h.acc.SetE(h.acc.E() * (1 - h.opts.Leap.ReleaseBase))
		}
	default:
		if h.basic.CheckCondition(h.acc.E(), h.align.Inertia(), entities) {
			result, newE := h.basic.Execute(h.arena, entities, h.acc.E())
			trace.LeapFired = true
			trace.LeapType = result.Type
			h.acc.SetE(newE)
		}
	}
}

// mostActiveLayer picks the layer with the highest mean activation, first
// in fixed order on ties. Empty layers count as zero.
func (h *Harness) mostActiveLayer() structure.Layer {
	best := structure.Physical
	bestMean := -1.0
	for _, layer := range structure.Layers() {
		elements := h.arena.LayerElements(layer)
		mean := 0.0
		if len(elements) > 0 {
			for _, el := range elements {
				mean += el.Activation
			}
			mean /= float64(len(elements))
		}
		if mean > bestMean {
			best, bestMean = layer, mean
		}
	}
	return best
}

// ensureElement creates a structural element for a newly perceived entity
// in its strongest meaning layer, defaulting to the base layer.
func (h *Harness) ensureElement(entity *structure.Entity) {
	layer := structure.Base
	bestMeaning := 0.0
	for _, l := range structure.Layers() {
		if m := entity.Meaning(l); m > bestMeaning {
			layer, bestMeaning = l, m
		}
	}
	if _, ok := h.arena.Get(layer, entity.ID); !ok {
		h.arena.Put(layer, entity.ID, structure.NewElement(layer))
	}
}

// recordDeltas feeds observed value changes into the prediction trend
// memory.
func (h *Harness) recordDeltas(entities map[string]*structure.Entity) {
	deltas := map[string]float64{}
	for _, id := range structure.SortedEntityIDs(entities) {
		entity := entities[id]
		if prev, ok := h.prevValues[id]; ok {
			deltas[id] = entity.CurrentValue - prev
		}
		h.prevValues[id] = entity.CurrentValue
	}
	if len(deltas) > 0 {
		h.predictor.RecordDeltas(deltas)
	}
}

// Run replays a fixture from a fresh clock, one trace per interaction.
func (h *Harness) Run(f *Fixture) ([]TickTrace, error) {
	traces := make([]TickTrace, 0, len(f.Interactions))
	for _, in := range f.Interactions {
		trace, err := h.Tick(in)
		if err != nil {
			return traces, err
		}
		traces = append(traces, trace)
	}
	return traces, nil
}

// NewHarnessForFixture builds a harness from a fixture's seed and leap
// mode with default component configs.
func NewHarnessForFixture(f *Fixture) *Harness {
	opts := DefaultOptions()
	opts.Seed = f.Seed
	if f.LeapMode == "chaotic" {
		opts.Mode = leap.ChaoticLeap
	}
	return NewHarness(opts)
}

// #endregion harness
