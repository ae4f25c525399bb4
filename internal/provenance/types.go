package provenance

import "time"

// #region tick-record
// TickRecord is one per-tick snapshot of the agent's scalar state.
type TickRecord struct {
	Tick        int
	Pressure    float64 // accumulated E
	Temperature float64
	MeanInertia float64
	HeatLoss    float64
	CreatedAt   time.Time
}
// #endregion tick-record

// #region experience-record
// ExperienceRecord is one accumulated experience row.
type ExperienceRecord struct {
	Source   string
	Pressure float64
	TotalE   float64
}
// #endregion experience-record

// #region leap-record
// LeapRecord is one persisted leap event.
type LeapRecord struct {
	ID             string
	TickID         string
	Type           string
	Magnitude      float64
	ChaosFactor    float64
	Predictability float64
	Energy         float64
	Layers         []string
	CreatedAt      time.Time
}
// #endregion leap-record
