package structure

import "sort"

// #region survival-types

// survivalTypes maps entity type tags to their base survival relevance.
var survivalTypes = map[string]float64{
	"food":     1.0,
	"water":    1.0,
	"shelter":  0.9,
	"fire":     0.8,
	"tool":     0.7,
	"weapon":   0.8,
	"medicine": 0.9,
	"obstacle": 0.4,
	"threat":   0.9,
	"danger":   0.9,
	"resource": 0.5,
}

const defaultSurvivalRelevance = 0.3

// #endregion survival-types

// #region entity

// Entity is a perceived object: the unit of input to the pressure and
// prediction engines. Created fresh by perception each tick; not retained
// by the core.
type Entity struct {
	ID         string
	Type       string
	Properties map[string]float64

	// Forecasting state
	CurrentValue float64
	DeclineRate  float64
	Volatility   float64

	// Per-layer meaning values in [0,1]
	MeaningValues map[Layer]float64
}

// NewEntity creates an entity with the default volatility and zeroed
// per-layer meaning values.
func NewEntity(id, entityType string) *Entity {
	e := &Entity{
		ID:            id,
		Type:          entityType,
		Properties:    map[string]float64{},
		Volatility:    0.1,
		MeaningValues: map[Layer]float64{},
	}
	for _, layer := range Layers() {
		e.MeaningValues[layer] = 0.0
	}
	return e
}

// Meaning returns the entity's meaning value for a layer.
func (e *Entity) Meaning(layer Layer) float64 {
	return e.MeaningValues[layer]
}

// Property returns a named property and whether it is set.
func (e *Entity) Property(name string) (float64, bool) {
	v, ok := e.Properties[name]
	return v, ok
}

// #endregion entity

// #region survival-relevance

// SurvivalRelevance derives the urgency score in [0,1] from the entity's
// type and properties. Dangerous things score high because avoiding them
// is itself survival-relevant.
func (e *Entity) SurvivalRelevance() float64 {
	relevance, ok := survivalTypes[e.Type]
	if !ok {
		relevance = defaultSurvivalRelevance
	}

	if danger, ok := e.Property("danger_level"); ok {
		relevance += min(danger*0.4, 0.3)
	}
	if nutrition, ok := e.Property("nutritional_value"); ok {
		relevance += min(nutrition/100.0, 0.2)
	}
	if durability, ok := e.Property("durability"); ok && e.Type == "tool" {
		relevance += min(durability/200.0, 0.1)
	}
	if temp, ok := e.Property("temperature"); ok && e.Type == "fire" {
		relevance += min(temp/1000.0, 0.15)
	}

	return min(relevance, 1.0)
}

// SurvivalUrgency is the mean survival relevance over a perception set, or
// zero when nothing is perceived.
func SurvivalUrgency(entities map[string]*Entity) float64 {
	if len(entities) == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range entities {
		sum += e.SurvivalRelevance()
	}
	return sum / float64(len(entities))
}

// SortedEntityIDs returns perception ids in sorted order, for code paths
// that consume randomness per entity.
func SortedEntityIDs(entities map[string]*Entity) []string {
	ids := make([]string, 0, len(entities))
	for id := range entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// #endregion survival-relevance
