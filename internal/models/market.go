package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Category is the quartile-relative attractiveness label
type Category string

const (
	CategoryHighlyAttractive Category = "Highly Attractive"
	CategoryAttractive       Category = "Attractive"
	CategoryNeutral          Category = "Neutral"
	CategoryChallenging      Category = "Challenging"
)

// AttractivenessRecord is one (MSA, Product) row with its scoring inputs.
// AttractivenessScore and AttractivenessCategory are derived and are always
// rewritten together by a full recalculation.
type AttractivenessRecord struct {
	MSA               string          `json:"msa" db:"msa"`
	Product           string          `json:"product" db:"product"`
	Values            ParameterValues `json:"parameters" db:"parameters"`
	MarketSize        float64         `json:"market_size" db:"market_size"`
	RevenuePerCompany float64         `json:"revenue_per_company" db:"revenue_per_company"`
	Risk              float64         `json:"risk" db:"risk"`
	Price             float64         `json:"price" db:"price"`
	Latitude          *float64        `json:"latitude,omitempty" db:"latitude"`
	Longitude         *float64        `json:"longitude,omitempty" db:"longitude"`

	AttractivenessScore    float64  `json:"attractiveness_score"`
	AttractivenessCategory Category `json:"attractiveness_category,omitempty"`
}

// Key returns the (MSA, Product) identity
func (r AttractivenessRecord) Key() string {
	return r.MSA + "|" + r.Product
}

// OpportunityRecord is one (MSA, Provider, Product) row. MarketSharePct is
// always a percentage (0-100); unit conversion happens at ingestion.
type OpportunityRecord struct {
	MSA                  string   `json:"msa" db:"msa"`
	Provider             string   `json:"provider" db:"provider"`
	Product              string   `json:"product" db:"product"`
	MarketSharePct       float64  `json:"market_share_pct" db:"market_share_pct"`
	MarketSize           float64  `json:"market_size" db:"market_size"`
	DefendDollars        float64  `json:"defend_dollars" db:"defend_dollars"`
	OpportunityCategory  string   `json:"opportunity_category,omitempty" db:"opportunity_category"`
	WeightedAverageScore *float64 `json:"weighted_average_score,omitempty" db:"weighted_average_score"`
	IncludedInRanking    bool     `json:"included_in_ranking" db:"included_in_ranking"`
	Exclusion            bool     `json:"exclusion" db:"exclusion"`
}

// DepositRecord is a provider's deposit market share in one MSA, in percent
type DepositRecord struct {
	MSA            string  `json:"msa" db:"msa"`
	Provider       string  `json:"provider" db:"provider"`
	MarketSharePct float64 `json:"market_share_pct" db:"market_share_pct"`
}

// Value implements driver.Valuer so parameter values persist as JSONB
func (v ParameterValues) Value() (driver.Value, error) {
	return json.Marshal(v)
}

// Scan implements sql.Scanner for ParameterValues
func (v *ParameterValues) Scan(value interface{}) error {
	if value == nil {
		*v = nil
		return nil
	}

	var data []byte
	switch src := value.(type) {
	case []byte:
		data = src
	case string:
		data = []byte(src)
	default:
		return fmt.Errorf("cannot scan %T into ParameterValues", value)
	}

	return json.Unmarshal(data, v)
}
