package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/msa-market-engine/internal/models"
)

func TestBucketScoreEngine_ScoreForValue(t *testing.T) {
	engine := NewBucketScoreEngine()

	testCases := []struct {
		name     string
		actual   string
		target   string
		param    models.Parameter
		expected int
	}{
		{"Level exact", "High", "High", models.ParamMarketSize, 3},
		{"Level exact case insensitive", "high ", "HIGH", models.ParamMarketSize, 3},
		{"Level medium vs high", "Medium", "High", models.ParamMarketSize, 2},
		{"Level medium vs low", "Medium", "Low", models.ParamCreditRisk, 2},
		{"Level wrong extreme", "Low", "High", models.ParamMarketSize, 1},
		{"Level wrong extreme reversed", "High", "Low", models.ParamCreditRisk, 1},
		{"Level high vs medium", "High", "Medium", models.ParamMarketGrowth, 2},
		{"Level empty actual", "", "High", models.ParamMarketSize, 0},
		{"Premium exact", "Discount", "Discount", models.ParamPremiumDiscount, 3},
		{"Premium par", "Par", "Premium", models.ParamPremiumDiscount, 2},
		{"Premium opposite", "Discount", "Premium", models.ParamPremiumDiscount, 1},
		{"Rationality exact", "Rational", "Rational", models.ParamPricingRationality, 3},
		{"Rationality miss", "Irrational", "Rational", models.ParamPricingRationality, 1},
		{"National exact", "Below National Avg", "Below National Avg", models.ParamRelativeRiskMigration, 3},
		{"National at", "At National Avg", "Below National Avg", models.ParamRelativeRiskMigration, 2},
		{"National opposite", "Above National Avg", "Below National Avg", models.ParamRelativeRiskMigration, 1},
		{"National above vs at", "Above National Avg", "At National Avg", models.ParamRelativeRiskMigration, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, engine.ScoreForValue(tc.actual, tc.target, tc.param))
		})
	}
}

func TestBucketScoreEngine_CalculateBucketModeScore(t *testing.T) {
	engine := NewBucketScoreEngine()

	assignments := []models.BucketAssignment{
		{Parameter: models.ParamMarketSize, TargetValue: "High", Bucket: models.BucketHigh, Position: 0},
		{Parameter: models.ParamCreditRisk, TargetValue: "Low", Bucket: models.BucketHigh, Position: 1},
		{Parameter: models.ParamPremiumDiscount, TargetValue: "Premium", Bucket: models.BucketMedium, Position: 0},
		{Parameter: models.ParamMarketGrowth, TargetValue: "Low", Bucket: models.BucketExclusions, Position: 0},
	}
	record := models.AttractivenessRecord{Values: models.ParameterValues{
		models.ParamMarketSize:      "High",
		models.ParamCreditRisk:      "Medium",
		models.ParamPremiumDiscount: "Par",
	}}

	// high: (3 + 2) / 2 * 0.6 = 1.5, medium: 2 * 0.4 = 0.8
	assert.Equal(t, 2.3, engine.CalculateBucketModeScore(record, assignments, models.DefaultBucketWeights()))

	// reordering inside a bucket does not change the score
	swapped := []models.BucketAssignment{assignments[1], assignments[0], assignments[2]}
	swapped[0].Position, swapped[1].Position = 0, 1
	assert.Equal(t, 2.3, engine.CalculateBucketModeScore(record, swapped, models.DefaultBucketWeights()))

	custom := models.BucketWeights{High: 80, Medium: 20}
	assert.Equal(t, 2.4, engine.CalculateBucketModeScore(record, assignments, custom))
}

func TestBucketScoreEngine_EmptyAssignmentsFallBackToDefaultWeights(t *testing.T) {
	engine := NewBucketScoreEngine()
	flat := NewScoreEngine()

	records := []models.AttractivenessRecord{bestRecord(), worstRecord(), {}}
	records = append(records, models.AttractivenessRecord{Values: models.ParameterValues{
		models.ParamMarketSize:         "Medium",
		models.ParamPricingRationality: "Irrational",
	}})

	onlyExclusions := []models.BucketAssignment{
		{Parameter: models.ParamMarketSize, TargetValue: "Low", Bucket: models.BucketExclusions},
	}

	for _, r := range records {
		expected := flat.CalculateAttractivenessScore(r, models.DefaultWeights())
		assert.Equal(t, expected, engine.CalculateBucketModeScore(r, nil, models.DefaultBucketWeights()))
		assert.Equal(t, expected, engine.CalculateBucketModeScore(r, onlyExclusions, models.DefaultBucketWeights()))
	}
}

func TestBucketScoreEngine_RecalculateDropsExcluded(t *testing.T) {
	engine := NewBucketScoreEngine()

	assignments := []models.BucketAssignment{
		{Parameter: models.ParamMarketSize, TargetValue: "High", Bucket: models.BucketHigh},
		{Parameter: models.ParamCreditRisk, TargetValue: "high", Bucket: models.BucketExclusions},
	}

	out := engine.Recalculate([]models.AttractivenessRecord{bestRecord(), worstRecord()}, assignments, models.DefaultBucketWeights())
	require.Len(t, out, 1)
	assert.Equal(t, bestRecord().MSA, out[0].MSA)
	assert.Equal(t, 1.8, out[0].AttractivenessScore)
	assert.Equal(t, models.CategoryChallenging, out[0].AttractivenessCategory)
}

func TestIsExcluded(t *testing.T) {
	assignments := []models.BucketAssignment{
		{Parameter: models.ParamPricingRationality, TargetValue: " irrational", Bucket: models.BucketExclusions},
		{Parameter: models.ParamMarketSize, TargetValue: "Low", Bucket: models.BucketHigh},
	}

	assert.True(t, IsExcluded(worstRecord(), assignments))
	assert.False(t, IsExcluded(bestRecord(), assignments))
	assert.False(t, IsExcluded(models.AttractivenessRecord{}, assignments))
}

func TestIsExcluded_Synonyms(t *testing.T) {
	tests := []struct {
		name   string
		param  models.Parameter
		actual string
		target string
		want   bool
	}{
		{"long form against canonical", models.ParamRelativeRiskMigration, "Above National Average", models.AboveNationalAvg, true},
		{"short form against long form", models.ParamRelativeRiskMigration, "above", "Above National Average", true},
		{"level abbreviation", models.ParamCreditRisk, "H", models.LevelHigh, true},
		{"different value", models.ParamCreditRisk, "Med", models.LevelHigh, false},
		{"unknown value compared as text", models.ParamCreditRisk, "Severe", " severe", true},
		{"empty value", models.ParamCreditRisk, "", models.LevelHigh, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := models.AttractivenessRecord{MSA: "TX-Austin", Values: models.ParameterValues{tt.param: tt.actual}}
			assignments := []models.BucketAssignment{{Parameter: tt.param, TargetValue: tt.target, Bucket: models.BucketExclusions}}
			assert.Equal(t, tt.want, IsExcluded(record, assignments))
		})
	}
}
