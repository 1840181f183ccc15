package scoring

import (
	"sort"

	"github.com/ajharbinger/msa-market-engine/internal/models"
)

// ScoreEngine computes weighted attractiveness scores and quartile categories.
// It holds no state; every method returns freshly built values.
type ScoreEngine struct{}

// NewScoreEngine creates a new score engine instance
func NewScoreEngine() *ScoreEngine {
	return &ScoreEngine{}
}

// ParameterScore explains one parameter's contribution to a record's score
type ParameterScore struct {
	Parameter    models.Parameter `json:"parameter_id"`
	Value        string           `json:"value"`
	Ordinal      int              `json:"ordinal"`
	Weight       int              `json:"weight"`
	Contribution float64          `json:"contribution"`
}

// ScoreToValue maps a categorical label to an ordinal in 1..3, or 0 when the
// label is empty or unknown. inverse flips High/Low style labels for
// parameters where the low end is desirable. Premium/Par/Discount and
// Rational/Irrational ignore inverse.
func (e *ScoreEngine) ScoreToValue(value string, inverse bool) int {
	if canonical, ok := models.CanonicalValue(models.DomainLevel, value); ok {
		return directional(canonical, models.LevelHigh, models.LevelMedium, models.LevelLow, inverse)
	}
	if canonical, ok := models.CanonicalValue(models.DomainNationalAverage, value); ok {
		return directional(canonical, models.AboveNationalAvg, models.AtNationalAvg, models.BelowNationalAvg, inverse)
	}
	if canonical, ok := models.CanonicalValue(models.DomainPremiumDiscount, value); ok {
		switch canonical {
		case models.PricePremium:
			return 3
		case models.PricePar:
			return 2
		default:
			return 1
		}
	}
	if canonical, ok := models.CanonicalValue(models.DomainRationality, value); ok {
		if canonical == models.PricingRational {
			return 3
		}
		return 1
	}
	return 0
}

func directional(value, top, middle, bottom string, inverse bool) int {
	switch value {
	case top:
		if inverse {
			return 1
		}
		return 3
	case middle:
		return 2
	case bottom:
		if inverse {
			return 3
		}
		return 1
	}
	return 0
}

// CalculateAttractivenessScore returns the weighted sum of parameter ordinals,
// each multiplied by weight/100, rounded to 2 decimals. Weights that do not
// sum to 100 are used as given.
func (e *ScoreEngine) CalculateAttractivenessScore(record models.AttractivenessRecord, weights models.Weights) float64 {
	score := 0.0
	for _, p := range models.Parameters() {
		score += float64(e.ScoreToValue(record.Values.Get(p), p.Inverse())) * float64(weights[p]) / 100
	}
	return models.Round(score, 2)
}

// Breakdown returns the per-parameter contributions behind a score
func (e *ScoreEngine) Breakdown(record models.AttractivenessRecord, weights models.Weights) []ParameterScore {
	breakdown := make([]ParameterScore, 0, models.ParameterCount)
	for _, p := range models.Parameters() {
		value := record.Values.Get(p)
		ordinal := e.ScoreToValue(value, p.Inverse())
		breakdown = append(breakdown, ParameterScore{
			Parameter:    p,
			Value:        value,
			Ordinal:      ordinal,
			Weight:       weights[p],
			Contribution: models.Round(float64(ordinal)*float64(weights[p])/100, 4),
		})
	}
	return breakdown
}

// CategoriesByQuartiles assigns each score a category relative to the whole
// population using nearest-rank quartiles (no interpolation). A score equal
// to a boundary falls into the lower category.
func CategoriesByQuartiles(scores []float64) []models.Category {
	categories := make([]models.Category, len(scores))
	n := len(scores)
	if n == 0 {
		return categories
	}

	sorted := make([]float64, n)
	copy(sorted, scores)
	sort.Float64s(sorted)

	q1 := sorted[int(float64(n)*0.25)]
	q2 := sorted[int(float64(n)*0.5)]
	q3 := sorted[int(float64(n)*0.75)]

	for i, s := range scores {
		switch {
		case s <= q1:
			categories[i] = models.CategoryChallenging
		case s <= q2:
			categories[i] = models.CategoryNeutral
		case s <= q3:
			categories[i] = models.CategoryAttractive
		default:
			categories[i] = models.CategoryHighlyAttractive
		}
	}
	return categories
}

// Recalculate scores every record with weights and assigns categories over
// the resulting population. Input records are not modified.
func (e *ScoreEngine) Recalculate(records []models.AttractivenessRecord, weights models.Weights) []models.AttractivenessRecord {
	return rescore(records, func(r models.AttractivenessRecord) float64 {
		return e.CalculateAttractivenessScore(r, weights)
	})
}

func rescore(records []models.AttractivenessRecord, score func(models.AttractivenessRecord) float64) []models.AttractivenessRecord {
	out := make([]models.AttractivenessRecord, len(records))
	scores := make([]float64, len(records))
	for i, r := range records {
		r.Values = r.Values.Clone()
		r.AttractivenessScore = score(r)
		scores[i] = r.AttractivenessScore
		out[i] = r
	}

	for i, category := range CategoriesByQuartiles(scores) {
		out[i].AttractivenessCategory = category
	}
	return out
}
