package scoring

import (
	"math"

	"github.com/ajharbinger/msa-market-engine/internal/models"
)

// positionDecay is the weight given up by each step down a bucket
const positionDecay = 0.02

// ConvertBucketsToWeights derives a flat weight map equivalent to a bucket
// layout, for display. Items in a bucket share its percentage almost equally,
// with earlier positions slightly heavier. Rounding drift is pushed onto the
// first scoring parameter that is not also excluded, so the result sums to 100.
func ConvertBucketsToWeights(assignments []models.BucketAssignment, bucketWeights models.BucketWeights) models.Weights {
	if !hasScoringAssignments(assignments) {
		return models.DefaultWeights()
	}

	excluded := make(map[models.Parameter]bool)
	for _, a := range InBucket(assignments, models.BucketExclusions) {
		excluded[a.Parameter] = true
	}

	raw := make(map[models.Parameter]float64, models.ParameterCount)
	var order []models.Parameter
	for _, bucket := range []models.Bucket{models.BucketHigh, models.BucketMedium} {
		items := InBucket(assignments, bucket)
		if len(items) == 0 {
			continue
		}
		rawSum := 0.0
		for i := range items {
			rawSum += 1 - positionDecay*float64(i)
		}
		for i, a := range items {
			raw[a.Parameter] += (1 - positionDecay*float64(i)) / rawSum * bucketWeights.For(bucket)
			order = append(order, a.Parameter)
		}
	}

	weights := make(models.Weights, models.ParameterCount)
	total := 0
	for _, p := range models.Parameters() {
		weights[p] = int(math.Round(raw[p]))
		total += weights[p]
	}

	if drift := 100 - total; drift != 0 {
		adjust := order[0]
		for _, p := range order {
			if !excluded[p] {
				adjust = p
				break
			}
		}
		weights[adjust] += drift
	}
	return weights
}
