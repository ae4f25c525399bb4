package pressure

import (
	"math/rand"
	"strings"

	"github.com/hermanndegner/ssd-core-engine/internal/structure"
)

// #region interface

// Similarity scores how alike a perceived entity and an existing element
// are, in [0,1]. The default implementation is a bounded random stand-in;
// an embedding-backed metric can be injected without touching the
// accumulator.
type Similarity interface {
	Score(entity *structure.Entity, elementID string, layer structure.Layer) float64
}

// #endregion interface

// #region random-similarity

// RandomSimilarity approximates similarity from type overlap and survival
// coloring plus a bounded random perturbation for emergent variability.
type RandomSimilarity struct {
	rng *rand.Rand
}

// NewRandomSimilarity creates the default similarity stand-in.
func NewRandomSimilarity(rng *rand.Rand) *RandomSimilarity {
	return &RandomSimilarity{rng: rng}
}

// Score combines a 0.5 baseline, a type-overlap bonus, survival-weighted
// relevance, a flat property bonus, and a U(−0.2, 0.2) perturbation,
// clamped to [0,1].
func (s *RandomSimilarity) Score(entity *structure.Entity, elementID string, layer structure.Layer) float64 {
	base := 0.5

	typeBonus := 0.0
	if entity.Type != "" && strings.Contains(elementID, entity.Type) {
		typeBonus = 0.3
	}

	survivalModifier := entity.SurvivalRelevance() * layer.SurvivalWeight() * 0.2

	propertyBonus := 0.0
	if len(entity.Properties) > 0 {
		propertyBonus = 0.1
	}

	perturbation := s.rng.Float64()*0.4 - 0.2

	return clamp(base+typeBonus+survivalModifier+propertyBonus+perturbation, 0, 1)
}

// #endregion random-similarity
