package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hermanndegner/ssd-core-engine/internal/reaction"
	"github.com/hermanndegner/ssd-core-engine/internal/structure"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description  string        `json:"description"`
	Seed         int64         `json:"seed"`
	LeapMode     string        `json:"leap_mode"` // "basic" | "chaotic"
	Interactions []Interaction `json:"interactions"`
}

// Interaction is one recorded tick of external input.
type Interaction struct {
	Clock    float64        `json:"clock"`
	Entities []EntitySpec   `json:"entities,omitempty"`
	Stimuli  []StimulusSpec `json:"stimuli,omitempty"`
	Actions  []string       `json:"actions,omitempty"`
}

// EntitySpec mirrors structure.Entity with JSON tags.
type EntitySpec struct {
	ID           string             `json:"id"`
	Type         string             `json:"type"`
	Properties   map[string]float64 `json:"properties,omitempty"`
	CurrentValue float64            `json:"current_value"`
	DeclineRate  float64            `json:"decline_rate"`
	Volatility   float64            `json:"volatility"`
	Meanings     map[string]float64 `json:"meanings,omitempty"` // layer name → value
}

// StimulusSpec mirrors reaction.Stimulus with JSON tags.
type StimulusSpec struct {
	ID        string             `json:"id"`
	Type      string             `json:"type"`
	Intensity float64            `json:"intensity"`
	Context   map[string]float64 `json:"context,omitempty"`
}

// #endregion fixture-types

// #region fixture-io

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// SaveFixture writes a fixture as indented JSON.
func SaveFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// #endregion fixture-io

// #region conversions

var layerNames = map[string]structure.Layer{
	"physical": structure.Physical,
	"base":     structure.Base,
	"core":     structure.Core,
	"upper":    structure.Upper,
}

// ToEntity converts an EntitySpec to a domain Entity.
func (s *EntitySpec) ToEntity() *structure.Entity {
	e := structure.NewEntity(s.ID, s.Type)
	for k, v := range s.Properties {
		e.Properties[k] = v
	}
	e.CurrentValue = s.CurrentValue
	e.DeclineRate = s.DeclineRate
	if s.Volatility != 0 {
		e.Volatility = s.Volatility
	}
	for name, v := range s.Meanings {
		if layer, ok := layerNames[name]; ok {
			e.MeaningValues[layer] = v
		}
	}
	return e
}

// ToStimulus converts a StimulusSpec to a domain Stimulus.
func (s *StimulusSpec) ToStimulus() reaction.Stimulus {
	return reaction.Stimulus{
		ID:        s.ID,
		Type:      s.Type,
		Intensity: s.Intensity,
		Context:   s.Context,
	}
}

// #endregion conversions
