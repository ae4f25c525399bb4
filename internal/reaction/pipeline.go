// Package reaction implements the two-stage response pipeline: a fast
// reflex stage that classifies a stimulus within a fixed latency, and a
// slow deliberation stage that re-evaluates held reflexes against core and
// upper layer judgment once their scheduled time elapses.
package reaction

import (
	"github.com/hermanndegner/ssd-core-engine/internal/structure"
)

// #region config

// Config holds the pipeline timing and queue bounds.
type Config struct {
	ImmediateLatency  float64 // reflex latency, time units
	DeliberationDelay float64 // reflex → deliberation gap
	QueueCap          int     // pending deliberations hard cap
}

// DefaultConfig returns the canonical pipeline timing.
func DefaultConfig() Config {
	return Config{
		ImmediateLatency:  0.05,
		DeliberationDelay: 0.35,
		QueueCap:          100,
	}
}

// baseWeights maps stimulus types to reflex response weights.
var baseWeights = map[string]float64{
	"threat":   0.95,
	"water":    0.85,
	"food":     0.8,
	"shelter":  0.7,
	"social":   0.6,
	"tool":     0.4,
	"abstract": 0.2,
}

const defaultWeight = 0.3

// #endregion config

// #region types

// Stimulus is one perceived trigger entering the pipeline. Context carries
// optional situational scalars read by the deliberation stage: "social"
// (social presence), "danger" (environmental danger level),
// "value_alignment" and "long_term_benefit" (upper-layer judgment inputs).
type Stimulus struct {
	ID        string
	Type      string
	Intensity float64
	Context   map[string]float64
}

// Immediate is the stage-1 reflex output.
type Immediate struct {
	Action   string
	Strength float64
	Latency  float64
}

// Deliberated is the stage-2 output for one held reflex.
type Deliberated struct {
	StimulusID     string
	Action         string // final action; "deliberate" is an explicit hold
	CoreAction     string
	Recommendation string // enhance, suppress, neutral
	FinalStrength  float64
	Confidence     float64
	Suppression    float64
}

type pending struct {
	stimulus    Stimulus
	immediate   Immediate
	scheduledAt float64
}

// #endregion types

// #region pipeline

// Pipeline owns the bounded deliberation queue. Entries release only when
// the caller's clock crosses their scheduled time; repeated calls on an
// unadvanced clock release nothing.
type Pipeline struct {
	config Config
	queue  []pending
}

// NewPipeline creates an empty reaction pipeline.
func NewPipeline(config Config) *Pipeline {
	return &Pipeline{config: config}
}

// Pending returns the number of queued deliberations.
func (p *Pipeline) Pending() int {
	return len(p.queue)
}

// React runs the reflex stage: strength = type weight × intensity, action
// by the threat/sustenance rules, then the stimulus is queued for
// deliberation at now + delay. The queue drops its oldest entry when full.
func (p *Pipeline) React(s Stimulus, now float64) Immediate {
	weight, ok := baseWeights[s.Type]
	if !ok {
		weight = defaultWeight
	}
	strength := weight * s.Intensity

	action := "observe"
	switch {
	case s.Type == "threat" && strength > 0.7:
		if s.Intensity > 0.8 {
			action = "flee"
		} else {
			action = "freeze"
		}
	case (s.Type == "food" || s.Type == "water") && strength > 0.6:
		action = "approach"
	}

	immediate := Immediate{
		Action:   action,
		Strength: strength,
		Latency:  p.config.ImmediateLatency,
	}

	p.queue = append(p.queue, pending{
		stimulus:    s,
		immediate:   immediate,
		scheduledAt: now + p.config.DeliberationDelay,
	})
	if len(p.queue) > p.config.QueueCap {
		p.queue = p.queue[len(p.queue)-p.config.QueueCap:]
	}

	return immediate
}

// Reprocess runs the deliberation stage over every queued entry whose
// scheduled time has elapsed. The arena supplies the upper-layer judgment
// default: when a stimulus carries no value-alignment context, the mean
// activation of the upper layer stands in for it.
func (p *Pipeline) Reprocess(now float64, arena *structure.Arena) []Deliberated {
	var released []pending
	var kept []pending
	for _, entry := range p.queue {
		if entry.scheduledAt <= now {
			released = append(released, entry)
		} else {
			kept = append(kept, entry)
		}
	}
	p.queue = kept

	results := make([]Deliberated, 0, len(released))
	for _, entry := range released {
		results = append(results, p.deliberate(entry, arena))
	}
	return results
}

// deliberate applies the core adjustment then the upper evaluation to one
// held reflex.
func (p *Pipeline) deliberate(entry pending, arena *structure.Arena) Deliberated {
	s := entry.stimulus
	imm := entry.immediate

	coreAction := imm.Action
	confidence := 0.7
	suppression := 0.1
	switch {
	case imm.Action == "flee" && s.Context["social"] > 0.5:
		coreAction = "controlled_withdrawal"
		confidence = 0.8
		suppression = 0.6
	case imm.Action == "approach" && s.Context["danger"] > 0.3:
		coreAction = "cautious_approach"
		confidence = 0.7
		suppression = 0.4
	}

	value, ok := s.Context["value_alignment"]
	if !ok {
		value = upperActivation(arena)
	}
	longTerm, ok := s.Context["long_term_benefit"]
	if !ok {
		longTerm = 0.5
	}

	recommendation := "neutral"
	modifier := 0.8
	switch {
	case value > 0.8:
		recommendation = "enhance"
		modifier = 1.0
	case value < 0.3:
		recommendation = "suppress"
		modifier = 0.5
	}
	upperConfidence := (value + longTerm) / 2

	finalStrength := imm.Strength * (1 - suppression) * modifier
	final := "deliberate"
	switch {
	case finalStrength > 0.7:
		final = imm.Action
	case finalStrength > 0.4:
		final = coreAction
	}

	return Deliberated{
		StimulusID:     s.ID,
		Action:         final,
		CoreAction:     coreAction,
		Recommendation: recommendation,
		FinalStrength:  finalStrength,
		Confidence:     (confidence + upperConfidence) / 2,
		Suppression:    suppression,
	}
}

// upperActivation is the mean activation of the upper layer, or 0.5 when
// the layer is empty.
func upperActivation(arena *structure.Arena) float64 {
	if arena == nil {
		return 0.5
	}
	elements := arena.LayerElements(structure.Upper)
	if len(elements) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, el := range elements {
		sum += el.Activation
	}
	return sum / float64(len(elements))
}

// #endregion pipeline
