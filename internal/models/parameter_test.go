package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParameter(t *testing.T) {
	testCases := []struct {
		input    string
		expected Parameter
	}{
		{"market_size", ParamMarketSize},
		{"Market Size", ParamMarketSize},
		{"  credit-risk ", ParamCreditRisk},
		{"Premium/Discount", ParamPremiumDiscount},
		{"premium_discount", ParamPremiumDiscount},
		{"Relative Risk Migration", ParamRelativeRiskMigration},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			p, err := ParseParameter(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, p)
		})
	}

	_, err := ParseParameter("deposit_growth")
	assert.Error(t, err)
}

func TestParameter_Metadata(t *testing.T) {
	assert.Len(t, Parameters(), ParameterCount)

	inverse := 0
	for _, p := range Parameters() {
		assert.True(t, p.Valid())
		assert.NotEmpty(t, p.Label())
		if p.Inverse() {
			inverse++
		}
	}
	assert.Equal(t, 4, inverse)

	assert.Equal(t, DomainNationalAverage, ParamRelativeRiskMigration.Domain())
	assert.Equal(t, DomainRationality, ParamPricingRationality.Domain())
	assert.False(t, Parameter(ParameterCount).Valid())
	assert.False(t, Parameter(-1).Inverse())
}

func TestParameterValues_JSONKeys(t *testing.T) {
	values := ParameterValues{
		ParamMarketSize:         "High",
		ParamPricingRationality: "Rational",
	}

	data, err := json.Marshal(values)
	require.NoError(t, err)
	assert.JSONEq(t, `{"market_size":"High","pricing_rationality":"Rational"}`, string(data))

	var decoded ParameterValues
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, values, decoded)

	assert.Error(t, json.Unmarshal([]byte(`{"unknown":"High"}`), &decoded))
}

func TestParameterValues_Scan(t *testing.T) {
	var values ParameterValues
	require.NoError(t, values.Scan([]byte(`{"credit_risk":"Low"}`)))
	assert.Equal(t, "Low", values.Get(ParamCreditRisk))
	assert.Equal(t, "", values.Get(ParamMarketSize))

	require.NoError(t, values.Scan(nil))
	assert.Nil(t, values)
	assert.Error(t, values.Scan(42))
}

func TestCanonicalValue(t *testing.T) {
	testCases := []struct {
		domain   ValueDomain
		raw      string
		expected string
		ok       bool
	}{
		{DomainLevel, "HIGH", LevelHigh, true},
		{DomainLevel, " med ", LevelMedium, true},
		{DomainLevel, "Premium", "", false},
		{DomainNationalAverage, "above national average", AboveNationalAvg, true},
		{DomainNationalAverage, "Below-National-Avg", BelowNationalAvg, true},
		{DomainPremiumDiscount, "par", PricePar, true},
		{DomainRationality, "IRRATIONAL", PricingIrrational, true},
		{DomainRationality, "", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			got, ok := CanonicalValue(tc.domain, tc.raw)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestSameValue(t *testing.T) {
	assert.True(t, SameValue("Above National Avg", "above_national_avg"))
	assert.True(t, SameValue(" Low", "low "))
	assert.False(t, SameValue("", ""))
	assert.False(t, SameValue("High", "Medium"))
}
