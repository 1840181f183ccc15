package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWeights(t *testing.T) {
	weights := DefaultWeights()
	assert.Len(t, weights, ParameterCount)
	assert.Equal(t, 100, weights.Total())
	assert.NoError(t, weights.Validate())
}

func TestWeightsFromIDs(t *testing.T) {
	weights, err := WeightsFromIDs(map[string]int{"market_size": 40, "Credit Risk": 60})
	require.NoError(t, err)
	assert.Equal(t, Weights{ParamMarketSize: 40, ParamCreditRisk: 60}, weights)

	_, err = WeightsFromIDs(map[string]int{"nope": 10})
	assert.Error(t, err)

	_, err = WeightsFromIDs(map[string]int{"market_size": -5})
	assert.Error(t, err)
}

func TestParseBucket(t *testing.T) {
	b, err := ParseBucket(" High ")
	require.NoError(t, err)
	assert.Equal(t, BucketHigh, b)

	b, err = ParseBucket("excluded")
	require.NoError(t, err)
	assert.Equal(t, BucketExclusions, b)

	_, err = ParseBucket("low")
	assert.Error(t, err)
}

func TestBucketAssignment_JSON(t *testing.T) {
	var a BucketAssignment
	require.NoError(t, json.Unmarshal([]byte(`{
		"parameter_id": "premium_discount",
		"selected_target_value": "Premium",
		"bucket": "medium",
		"position": 2
	}`), &a))

	assert.Equal(t, ParamPremiumDiscount, a.Parameter)
	assert.Equal(t, "Premium", a.TargetValue)
	assert.Equal(t, BucketMedium, a.Bucket)
	assert.Equal(t, 2, a.Position)
	assert.True(t, a.SamePair(BucketAssignment{Parameter: ParamPremiumDiscount, TargetValue: "premium"}))
}

func TestRange(t *testing.T) {
	assert.True(t, Range{}.IsUnset())
	assert.False(t, Range{Min: 0, Max: 10}.IsUnset())
	assert.True(t, Range{Min: 5, Max: 10}.Contains(5))
	assert.True(t, Range{Min: 5, Max: 10}.Contains(10))
	assert.False(t, Range{Min: 5, Max: 10}.Contains(10.01))
}

func TestProfileSettings_ValueScan(t *testing.T) {
	haircut := 12.5
	settings := ProfileSettings{
		Mode:    ModeBuckets,
		Weights: DefaultWeights(),
		BucketAssignments: []BucketAssignment{
			{Parameter: ParamMarketSize, TargetValue: "High", Bucket: BucketHigh},
		},
		BucketWeights: &BucketWeights{High: 70, Medium: 30},
		Filters: GlobalFilters{
			MarketSizeRange: Range{Min: 1, Max: 2},
			SelectedRegions: []string{"Southeast"},
		},
		HaircutPct: &haircut,
	}

	value, err := settings.Value()
	require.NoError(t, err)

	var decoded ProfileSettings
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, settings, decoded)
}

func TestSharePercent(t *testing.T) {
	testCases := []struct {
		name     string
		raw      float64
		unit     ShareUnit
		expected float64
	}{
		{"percent passthrough", 12.5, ShareUnitPercent, 12.5},
		{"percent below one stays", 0.5, ShareUnitPercent, 0.5},
		{"fraction", 0.125, ShareUnitFraction, 12.5},
		{"auto fraction", 0.2, ShareUnitAuto, 20},
		{"auto percent", 20, ShareUnitAuto, 20},
		{"auto one", 1, ShareUnitAuto, 1},
		{"auto zero", 0, ShareUnitAuto, 0},
		{"nan", math.NaN(), ShareUnitPercent, 0},
		{"inf", math.Inf(1), ShareUnitAuto, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, SharePercent(tc.raw, tc.unit), 1e-9)
		})
	}
}

func TestParseShareUnit(t *testing.T) {
	unit, err := ParseShareUnit("")
	require.NoError(t, err)
	assert.Equal(t, ShareUnitAuto, unit)

	unit, err = ParseShareUnit("Fraction")
	require.NoError(t, err)
	assert.Equal(t, ShareUnitFraction, unit)

	_, err = ParseShareUnit("basis_points")
	assert.Error(t, err)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 2.35, Round(2.345, 2))
	assert.Equal(t, 0.0, Round(math.NaN(), 2))
	assert.Equal(t, 1.0, Round(0.999999, 4))
	assert.Equal(t, 0.0, SafeDiv(5, 0))
	assert.Equal(t, 2.5, SafeDiv(5, 2))
}

func TestSameDomainValue(t *testing.T) {
	assert.True(t, SameDomainValue(DomainNationalAverage, "Above National Average", AboveNationalAvg))
	assert.True(t, SameDomainValue(DomainLevel, "h", "HIGH"))
	assert.False(t, SameDomainValue(DomainLevel, "Medium", "High"))
	assert.True(t, SameDomainValue(DomainLevel, "Severe ", "severe"))
	assert.False(t, SameDomainValue(DomainLevel, "", ""))

	a := BucketAssignment{Parameter: ParamRelativeRiskMigration, TargetValue: "above"}
	b := BucketAssignment{Parameter: ParamRelativeRiskMigration, TargetValue: AboveNationalAvg}
	assert.True(t, a.SamePair(b))
	b.Parameter = ParamCreditRisk
	assert.False(t, a.SamePair(b))
}
