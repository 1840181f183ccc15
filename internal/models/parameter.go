package models

import (
	"fmt"
	"strings"
)

// Parameter identifies one of the nine categorical attractiveness parameters
type Parameter int

const (
	ParamMarketSize Parameter = iota
	ParamRevenueGrowth
	ParamMarketGrowth
	ParamMarketConcentration
	ParamCreditRisk
	ParamRiskMigration
	ParamRelativeRiskMigration
	ParamPremiumDiscount
	ParamPricingRationality
)

// ParameterCount is the number of known parameters
const ParameterCount = 9

// ValueDomain is the closed set of labels a parameter can take
type ValueDomain int

const (
	// DomainLevel is High / Medium / Low
	DomainLevel ValueDomain = iota
	// DomainNationalAverage is Below / At / Above National Avg
	DomainNationalAverage
	// DomainPremiumDiscount is Premium / Par / Discount
	DomainPremiumDiscount
	// DomainRationality is Rational / Irrational
	DomainRationality
)

// Canonical labels
const (
	LevelHigh   = "High"
	LevelMedium = "Medium"
	LevelLow    = "Low"

	AboveNationalAvg = "Above National Avg"
	AtNationalAvg    = "At National Avg"
	BelowNationalAvg = "Below National Avg"

	PricePremium  = "Premium"
	PricePar      = "Par"
	PriceDiscount = "Discount"

	PricingRational   = "Rational"
	PricingIrrational = "Irrational"
)

type parameterDef struct {
	id      string
	label   string
	domain  ValueDomain
	inverse bool
}

var parameterDefs = [ParameterCount]parameterDef{
	ParamMarketSize:            {id: "market_size", label: "Market Size", domain: DomainLevel},
	ParamRevenueGrowth:         {id: "revenue_growth", label: "Revenue Growth", domain: DomainLevel},
	ParamMarketGrowth:          {id: "market_growth", label: "Market Growth", domain: DomainLevel},
	ParamMarketConcentration:   {id: "market_concentration", label: "Market Concentration", domain: DomainLevel, inverse: true},
	ParamCreditRisk:            {id: "credit_risk", label: "Credit Risk", domain: DomainLevel, inverse: true},
	ParamRiskMigration:         {id: "risk_migration", label: "Risk Migration", domain: DomainLevel, inverse: true},
	ParamRelativeRiskMigration: {id: "relative_risk_migration", label: "Relative Risk Migration", domain: DomainNationalAverage, inverse: true},
	ParamPremiumDiscount:       {id: "premium_discount", label: "Premium/Discount", domain: DomainPremiumDiscount},
	ParamPricingRationality:    {id: "pricing_rationality", label: "Pricing Rationality", domain: DomainRationality},
}

// Parameters returns all parameters in canonical order
func Parameters() []Parameter {
	params := make([]Parameter, ParameterCount)
	for i := range params {
		params[i] = Parameter(i)
	}
	return params
}

// Valid reports whether p is one of the known parameters
func (p Parameter) Valid() bool {
	return p >= 0 && int(p) < ParameterCount
}

// ID returns the stable identifier used in JSON, CSV headers and the database
func (p Parameter) ID() string {
	if !p.Valid() {
		return fmt.Sprintf("parameter(%d)", int(p))
	}
	return parameterDefs[p].id
}

// Label returns the display name
func (p Parameter) Label() string {
	if !p.Valid() {
		return p.ID()
	}
	return parameterDefs[p].label
}

// Domain returns the value domain of the parameter
func (p Parameter) Domain() ValueDomain {
	if !p.Valid() {
		return DomainLevel
	}
	return parameterDefs[p].domain
}

// Inverse reports whether a low value is the desirable one
func (p Parameter) Inverse() bool {
	return p.Valid() && parameterDefs[p].inverse
}

// String implements fmt.Stringer
func (p Parameter) String() string {
	return p.ID()
}

// MarshalText encodes the parameter as its ID so it can key JSON objects
func (p Parameter) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("unknown parameter %d", int(p))
	}
	return []byte(p.ID()), nil
}

// UnmarshalText decodes a parameter ID
func (p *Parameter) UnmarshalText(text []byte) error {
	parsed, err := ParseParameter(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParseParameter resolves a parameter from its ID or display label
func ParseParameter(s string) (Parameter, error) {
	key := NormalizeLabel(s)
	for i, def := range parameterDefs {
		if key == def.id || key == NormalizeLabel(def.label) {
			return Parameter(i), nil
		}
	}
	return -1, fmt.Errorf("unknown parameter %q", s)
}

// NormalizeLabel lower-cases a label and collapses whitespace, dashes and
// slashes to single underscores so "Above National Avg" and "above_national_avg"
// compare equal.
func NormalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastSep := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '-', '_', '/':
			if !lastSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			lastSep = true
		default:
			b.WriteRune(r)
			lastSep = false
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// ParameterValues holds a record's categorical value per parameter
type ParameterValues map[Parameter]string

// Get returns the raw value for p, empty when absent
func (v ParameterValues) Get(p Parameter) string {
	if v == nil {
		return ""
	}
	return v[p]
}

// Clone returns an independent copy
func (v ParameterValues) Clone() ParameterValues {
	if v == nil {
		return nil
	}
	out := make(ParameterValues, len(v))
	for p, val := range v {
		out[p] = val
	}
	return out
}
