// Package config loads the agent configuration from YAML. The file mirrors
// the component config structs; omitted fields keep their defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hermanndegner/ssd-core-engine/internal/leap"
	"github.com/hermanndegner/ssd-core-engine/internal/replay"
	"github.com/hermanndegner/ssd-core-engine/internal/structure"
)

// #region agent-config

// AgentConfig is the YAML-facing aggregate of all component settings.
type AgentConfig struct {
	Seed             int64  `yaml:"seed"`
	LeapMode         string `yaml:"leap_mode"` // "basic" | "chaotic"
	MaintenanceEvery int    `yaml:"maintenance_every"`
	ExperienceKeep   int    `yaml:"experience_keep"`

	Pressure   PressureConfig   `yaml:"pressure"`
	Alignment  AlignmentConfig  `yaml:"alignment"`
	Leap       LeapConfig       `yaml:"leap"`
	Chaotic    ChaoticConfig    `yaml:"chaotic"`
	Reaction   ReactionConfig   `yaml:"reaction"`
	Decision   DecisionConfig   `yaml:"decision"`
	Prediction PredictionConfig `yaml:"prediction"`
}

// PressureConfig mirrors pressure.Config with YAML tags.
type PressureConfig struct {
	Alpha     float64 `yaml:"alpha"`
	Beta      float64 `yaml:"beta"`
	Gamma     float64 `yaml:"gamma"`
	Coupling  float64 `yaml:"coupling"`
	DecayRate float64 `yaml:"decay_rate"`
	MaxE      float64 `yaml:"max_e"`
	MemoCap   int     `yaml:"memo_cap"`
}

// AlignmentConfig mirrors alignment.Config with YAML tags.
type AlignmentConfig struct {
	FlowG0         float64 `yaml:"flow_g0"`
	FlowGain       float64 `yaml:"flow_gain"`
	ThermalG0      float64 `yaml:"thermal_g0"`
	ThermalGain    float64 `yaml:"thermal_gain"`
	ActivationStep float64 `yaml:"activation_step"`
	KappaFloor     float64 `yaml:"kappa_floor"`
	KappaInitial   float64 `yaml:"kappa_initial"`
	KappaDecay     float64 `yaml:"kappa_decay"`
}

// LeapConfig mirrors the tunable subset of leap.Config with YAML tags.
type LeapConfig struct {
	ThresholdBase float64 `yaml:"threshold_base"`
	SurvivalAlpha float64 `yaml:"survival_alpha"`
	ProbBase      float64 `yaml:"prob_base"`
	ProbGamma     float64 `yaml:"prob_gamma"`
	SurvivalBeta  float64 `yaml:"survival_beta"`
	ReleaseBase   float64 `yaml:"release_base"`
	ReleaseGain   float64 `yaml:"release_gain"`
}

// ChaoticConfig mirrors the tunable subset of leap.ChaoticConfig.
type ChaoticConfig struct {
	Sigma float64 `yaml:"sigma"`
	Rho   float64 `yaml:"rho"`
	Beta  float64 `yaml:"beta"`
	Dt    float64 `yaml:"dt"`
	Noise float64 `yaml:"noise"`
}

// ReactionConfig mirrors reaction.Config with YAML tags.
type ReactionConfig struct {
	ImmediateLatency  float64 `yaml:"immediate_latency"`
	DeliberationDelay float64 `yaml:"deliberation_delay"`
	QueueCap          int     `yaml:"queue_cap"`
}

// DecisionConfig mirrors the tunable subset of decision.Config.
type DecisionConfig struct {
	TempBase          float64 `yaml:"temp_base"`
	TempGain          float64 `yaml:"temp_gain"`
	TempPressureScale float64 `yaml:"temp_pressure_scale"`
	ExplorationFactor float64 `yaml:"exploration_factor"`
}

// PredictionConfig mirrors the tunable subset of prediction.Config.
type PredictionConfig struct {
	DefaultHorizon int     `yaml:"default_horizon"`
	Accuracy       float64 `yaml:"accuracy"`
	CacheTTL       float64 `yaml:"cache_ttl"`
	CacheCap       int     `yaml:"cache_cap"`
}

// #endregion agent-config

// #region defaults

// Default returns the canonical agent configuration.
func Default() AgentConfig {
	opts := replay.DefaultOptions()
	return AgentConfig{
		Seed:             opts.Seed,
		LeapMode:         "basic",
		MaintenanceEvery: opts.MaintenanceEvery,
		ExperienceKeep:   opts.ExperienceKeep,
		Pressure: PressureConfig{
			Alpha:     opts.Pressure.Alpha,
			Beta:      opts.Pressure.Beta,
			Gamma:     opts.Pressure.Gamma,
			Coupling:  opts.Pressure.Coupling,
			DecayRate: opts.Pressure.DecayRate,
			MaxE:      opts.Pressure.MaxE,
			MemoCap:   opts.Pressure.MemoCap,
		},
		Alignment: AlignmentConfig{
			FlowG0:         opts.Alignment.FlowG0,
			FlowGain:       opts.Alignment.FlowGain,
			ThermalG0:      opts.Alignment.ThermalG0,
			ThermalGain:    opts.Alignment.ThermalGain,
			ActivationStep: opts.Alignment.ActivationStep,
			KappaFloor:     opts.Alignment.KappaFloor,
			KappaInitial:   opts.Alignment.KappaInitial,
			KappaDecay:     opts.Alignment.KappaDecay,
		},
		Leap: LeapConfig{
			ThresholdBase: opts.Leap.ThresholdBase,
			SurvivalAlpha: opts.Leap.SurvivalAlpha,
			ProbBase:      opts.Leap.ProbBase,
			ProbGamma:     opts.Leap.ProbGamma,
			SurvivalBeta:  opts.Leap.SurvivalBeta,
			ReleaseBase:   opts.Leap.ReleaseBase,
			ReleaseGain:   opts.Leap.ReleaseGain,
		},
		Chaotic: ChaoticConfig{
			Sigma: opts.Chaotic.Sigma,
			Rho:   opts.Chaotic.Rho,
			Beta:  opts.Chaotic.Beta,
			Dt:    opts.Chaotic.Dt,
			Noise: opts.Chaotic.Noise,
		},
		Reaction: ReactionConfig{
			ImmediateLatency:  opts.Reaction.ImmediateLatency,
			DeliberationDelay: opts.Reaction.DeliberationDelay,
			QueueCap:          opts.Reaction.QueueCap,
		},
		Decision: DecisionConfig{
			TempBase:          opts.Decision.TempBase,
			TempGain:          opts.Decision.TempGain,
			TempPressureScale: opts.Decision.TempPressureScale,
			ExplorationFactor: opts.Decision.ExplorationFactor,
		},
		Prediction: PredictionConfig{
			DefaultHorizon: opts.Prediction.DefaultHorizon,
			Accuracy:       opts.Prediction.Accuracy,
			CacheTTL:       opts.Prediction.CacheTTL,
			CacheCap:       opts.Prediction.CacheCap,
		},
	}
}

// #endregion defaults

// #region load

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (AgentConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the fields that would silently corrupt a run.
func (c AgentConfig) Validate() error {
	if c.LeapMode != "basic" && c.LeapMode != "chaotic" {
		return fmt.Errorf("leap_mode %q: %w", c.LeapMode, structure.ErrInvalidConfiguration)
	}
	if c.MaintenanceEvery < 1 {
		return fmt.Errorf("maintenance_every %d: %w", c.MaintenanceEvery, structure.ErrInvalidConfiguration)
	}
	if c.Pressure.MaxE <= 0 {
		return fmt.Errorf("pressure.max_e %v: %w", c.Pressure.MaxE, structure.ErrInvalidConfiguration)
	}
	if c.Alignment.KappaFloor <= 0 || c.Alignment.KappaDecay <= 0 || c.Alignment.KappaDecay > 1 {
		return fmt.Errorf("alignment inertia bounds: %w", structure.ErrInvalidConfiguration)
	}
	if c.Prediction.CacheCap < 1 || c.Prediction.DefaultHorizon < 1 {
		return fmt.Errorf("prediction bounds: %w", structure.ErrInvalidConfiguration)
	}
	return nil
}

// #endregion load

// #region to-options

// ToOptions converts the YAML-facing config into harness options.
func (c AgentConfig) ToOptions() replay.Options {
	opts := replay.DefaultOptions()
	opts.Seed = c.Seed
	if c.LeapMode == "chaotic" {
		opts.Mode = leap.ChaoticLeap
	}
	opts.MaintenanceEvery = c.MaintenanceEvery
	opts.ExperienceKeep = c.ExperienceKeep

	opts.Pressure.Alpha = c.Pressure.Alpha
	opts.Pressure.Beta = c.Pressure.Beta
	opts.Pressure.Gamma = c.Pressure.Gamma
	opts.Pressure.Coupling = c.Pressure.Coupling
	opts.Pressure.DecayRate = c.Pressure.DecayRate
	opts.Pressure.MaxE = c.Pressure.MaxE
	opts.Pressure.MemoCap = c.Pressure.MemoCap

	opts.Alignment.FlowG0 = c.Alignment.FlowG0
	opts.Alignment.FlowGain = c.Alignment.FlowGain
	opts.Alignment.ThermalG0 = c.Alignment.ThermalG0
	opts.Alignment.ThermalGain = c.Alignment.ThermalGain
	opts.Alignment.ActivationStep = c.Alignment.ActivationStep
	opts.Alignment.KappaFloor = c.Alignment.KappaFloor
	opts.Alignment.KappaInitial = c.Alignment.KappaInitial
	opts.Alignment.KappaDecay = c.Alignment.KappaDecay

	opts.Leap.ThresholdBase = c.Leap.ThresholdBase
	opts.Leap.SurvivalAlpha = c.Leap.SurvivalAlpha
	opts.Leap.ProbBase = c.Leap.ProbBase
	opts.Leap.ProbGamma = c.Leap.ProbGamma
	opts.Leap.SurvivalBeta = c.Leap.SurvivalBeta
	opts.Leap.ReleaseBase = c.Leap.ReleaseBase
	opts.Leap.ReleaseGain = c.Leap.ReleaseGain

	opts.Chaotic.Sigma = c.Chaotic.Sigma
	opts.Chaotic.Rho = c.Chaotic.Rho
	opts.Chaotic.Beta = c.Chaotic.Beta
	opts.Chaotic.Dt = c.Chaotic.Dt
	opts.Chaotic.Noise = c.Chaotic.Noise

	opts.Reaction.ImmediateLatency = c.Reaction.ImmediateLatency
	opts.Reaction.DeliberationDelay = c.Reaction.DeliberationDelay
	opts.Reaction.QueueCap = c.Reaction.QueueCap

	opts.Decision.TempBase = c.Decision.TempBase
	opts.Decision.TempGain = c.Decision.TempGain
	opts.Decision.TempPressureScale = c.Decision.TempPressureScale
	opts.Decision.ExplorationFactor = c.Decision.ExplorationFactor

	opts.Prediction.DefaultHorizon = c.Prediction.DefaultHorizon
	opts.Prediction.Accuracy = c.Prediction.Accuracy
	opts.Prediction.CacheTTL = c.Prediction.CacheTTL
	opts.Prediction.CacheCap = c.Prediction.CacheCap

	return opts
}

// #endregion to-options
