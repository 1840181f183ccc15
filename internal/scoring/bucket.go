package scoring

import (
	"github.com/ajharbinger/msa-market-engine/internal/models"
)

// BucketScoreEngine scores records against target values grouped into
// priority buckets. This is the default scoring mode.
type BucketScoreEngine struct {
	base *ScoreEngine
}

// NewBucketScoreEngine creates a new bucket score engine instance
func NewBucketScoreEngine() *BucketScoreEngine {
	return &BucketScoreEngine{base: NewScoreEngine()}
}

// ScoreForValue rates how well an actual value matches the target value of a
// parameter: 3 for an exact match, 2 for a near miss, 1 for the wrong end.
// An empty or unrecognized actual value scores 0.
func (e *BucketScoreEngine) ScoreForValue(actualValue, targetValue string, param models.Parameter) int {
	domain := param.Domain()
	actual, ok := models.CanonicalValue(domain, actualValue)
	if !ok {
		return 0
	}
	target, targetOK := models.CanonicalValue(domain, targetValue)
	if targetOK && actual == target {
		return 3
	}

	switch domain {
	case models.DomainRationality:
		return 1
	case models.DomainNationalAverage:
		if actual == models.AtNationalAvg {
			return 2
		}
		return 1
	default:
		// High/Medium/Low and Premium/Par/Discount are ordered scales; the
		// middle value is always one step from either end.
		if !targetOK {
			if actual == middleOf(domain) {
				return 2
			}
			return 1
		}
		if distance(domain, actual, target) == 1 {
			return 2
		}
		return 1
	}
}

func middleOf(domain models.ValueDomain) string {
	return models.DomainValues(domain)[1]
}

func distance(domain models.ValueDomain, a, b string) int {
	values := models.DomainValues(domain)
	ia, ib := -1, -1
	for i, v := range values {
		if v == a {
			ia = i
		}
		if v == b {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return len(values)
	}
	if ia > ib {
		return ia - ib
	}
	return ib - ia
}

// CalculateBucketModeScore averages the match scores inside each scoring
// bucket, weights each average by its bucket percentage and sums the result.
// Position inside a bucket does not affect the score. With no high or medium
// assignments the flat default weights are used instead.
func (e *BucketScoreEngine) CalculateBucketModeScore(record models.AttractivenessRecord, assignments []models.BucketAssignment, bucketWeights models.BucketWeights) float64 {
	if !hasScoringAssignments(assignments) {
		return e.base.CalculateAttractivenessScore(record, models.DefaultWeights())
	}

	score := 0.0
	for _, bucket := range []models.Bucket{models.BucketHigh, models.BucketMedium} {
		items := InBucket(assignments, bucket)
		if len(items) == 0 {
			continue
		}
		sum := 0
		for _, a := range items {
			sum += e.ScoreForValue(record.Values.Get(a.Parameter), a.TargetValue, a.Parameter)
		}
		average := float64(sum) / float64(len(items))
		score += average * bucketWeights.For(bucket) / 100
	}
	return models.Round(score, 2)
}

// Recalculate drops excluded records, scores the rest in bucket mode and
// assigns quartile categories over the surviving population.
func (e *BucketScoreEngine) Recalculate(records []models.AttractivenessRecord, assignments []models.BucketAssignment, bucketWeights models.BucketWeights) []models.AttractivenessRecord {
	kept := make([]models.AttractivenessRecord, 0, len(records))
	for _, r := range records {
		if !IsExcluded(r, assignments) {
			kept = append(kept, r)
		}
	}
	return rescore(kept, func(r models.AttractivenessRecord) float64 {
		return e.CalculateBucketModeScore(r, assignments, bucketWeights)
	})
}

// IsExcluded reports whether any exclusion-bucket assignment matches the
// record's value for that parameter. Synonyms such as "Above National
// Average" and "Above National Avg" match.
func IsExcluded(record models.AttractivenessRecord, assignments []models.BucketAssignment) bool {
	for _, a := range assignments {
		if a.Bucket != models.BucketExclusions {
			continue
		}
		if models.SameDomainValue(a.Parameter.Domain(), record.Values.Get(a.Parameter), a.TargetValue) {
			return true
		}
	}
	return false
}

func hasScoringAssignments(assignments []models.BucketAssignment) bool {
	for _, a := range assignments {
		if a.Bucket == models.BucketHigh || a.Bucket == models.BucketMedium {
			return true
		}
	}
	return false
}
