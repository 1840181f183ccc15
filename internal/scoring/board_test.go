package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/msa-market-engine/internal/models"
)

func TestAssign(t *testing.T) {
	var board []models.BucketAssignment

	board = Assign(board, models.ParamMarketSize, "High", models.BucketHigh, 0)
	require.Len(t, board, 1)
	assert.Equal(t, models.BucketAssignment{
		Parameter:   models.ParamMarketSize,
		TargetValue: "High",
		Bucket:      models.BucketHigh,
		Position:    0,
	}, board[0])

	board = Assign(board, models.ParamCreditRisk, "Low", models.BucketHigh, 0)
	high := InBucket(board, models.BucketHigh)
	require.Len(t, high, 2)
	assert.Equal(t, models.ParamCreditRisk, high[0].Parameter)
	assert.Equal(t, models.ParamMarketSize, high[1].Parameter)
	assert.Equal(t, 1, high[1].Position)

	// moving between buckets removes the old placement
	board = Assign(board, models.ParamMarketSize, "high", models.BucketMedium, 10)
	require.Len(t, board, 2)
	high = InBucket(board, models.BucketHigh)
	medium := InBucket(board, models.BucketMedium)
	require.Len(t, high, 1)
	require.Len(t, medium, 1)
	assert.Equal(t, models.ParamCreditRisk, high[0].Parameter)
	assert.Equal(t, 0, high[0].Position)
	assert.Equal(t, models.ParamMarketSize, medium[0].Parameter)
	assert.Equal(t, 0, medium[0].Position)
}

func TestAssign_SameParameterDifferentTargets(t *testing.T) {
	var board []models.BucketAssignment
	board = Assign(board, models.ParamMarketSize, "High", models.BucketHigh, 0)
	board = Assign(board, models.ParamMarketSize, "Low", models.BucketExclusions, 0)

	assert.Len(t, board, 2)
	assert.Len(t, InBucket(board, models.BucketExclusions), 1)
}

func TestAssign_NegativePositionClamps(t *testing.T) {
	var board []models.BucketAssignment
	board = Assign(board, models.ParamMarketSize, "High", models.BucketHigh, 0)
	board = Assign(board, models.ParamMarketGrowth, "High", models.BucketHigh, -3)

	high := InBucket(board, models.BucketHigh)
	require.Len(t, high, 2)
	assert.Equal(t, models.ParamMarketGrowth, high[0].Parameter)
}

func TestNormalize(t *testing.T) {
	input := []models.BucketAssignment{
		{Parameter: models.ParamMarketSize, TargetValue: "High", Bucket: models.BucketHigh, Position: 4},
		{Parameter: models.ParamPremiumDiscount, TargetValue: "Premium", Bucket: models.BucketMedium, Position: 7},
		{Parameter: models.ParamCreditRisk, TargetValue: "Low", Bucket: models.BucketHigh, Position: 9},
		{Parameter: models.ParamMarketSize, TargetValue: "HIGH", Bucket: models.BucketMedium, Position: 0},
		{Parameter: models.ParamRiskMigration, TargetValue: "Low", Bucket: "someday", Position: 0},
		{Parameter: models.Parameter(42), TargetValue: "Low", Bucket: models.BucketHigh, Position: 0},
	}

	out := Normalize(input)
	require.Len(t, out, 3)

	assert.Equal(t, models.ParamCreditRisk, out[0].Parameter)
	assert.Equal(t, models.BucketHigh, out[0].Bucket)
	assert.Equal(t, 0, out[0].Position)

	assert.Equal(t, models.ParamMarketSize, out[1].Parameter)
	assert.Equal(t, models.BucketMedium, out[1].Bucket)
	assert.Equal(t, 0, out[1].Position)

	assert.Equal(t, models.ParamPremiumDiscount, out[2].Parameter)
	assert.Equal(t, 1, out[2].Position)

	// input is not modified
	assert.Equal(t, 4, input[0].Position)
}

func TestRemove(t *testing.T) {
	var board []models.BucketAssignment
	board = Assign(board, models.ParamMarketSize, "High", models.BucketHigh, 0)
	board = Assign(board, models.ParamCreditRisk, "Low", models.BucketHigh, 1)
	board = Assign(board, models.ParamMarketGrowth, "High", models.BucketHigh, 2)

	board = Remove(board, models.ParamCreditRisk, " low ")
	require.Len(t, board, 2)
	assert.Equal(t, models.ParamMarketSize, board[0].Parameter)
	assert.Equal(t, models.ParamMarketGrowth, board[1].Parameter)
	assert.Equal(t, 1, board[1].Position)

	// removing a missing pair is a no-op
	assert.Equal(t, board, Remove(board, models.ParamPricingRationality, "Rational"))
}
