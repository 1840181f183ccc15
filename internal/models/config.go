package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Weights maps each parameter to an integer percentage. The values are meant
// to sum to 100 but nothing forces them to.
type Weights map[Parameter]int

// DefaultWeights returns the stock weighting scheme
func DefaultWeights() Weights {
	return Weights{
		ParamMarketSize:            15,
		ParamRevenueGrowth:         10,
		ParamMarketGrowth:          10,
		ParamMarketConcentration:   10,
		ParamCreditRisk:            15,
		ParamRiskMigration:         10,
		ParamRelativeRiskMigration: 10,
		ParamPremiumDiscount:       10,
		ParamPricingRationality:    10,
	}
}

// Total returns the sum of all weights
func (w Weights) Total() int {
	total := 0
	for _, v := range w {
		total += v
	}
	return total
}

// Validate rejects unknown parameters and negative weights
func (w Weights) Validate() error {
	for p, v := range w {
		if !p.Valid() {
			return fmt.Errorf("unknown parameter %d", int(p))
		}
		if v < 0 {
			return fmt.Errorf("weight for %s must not be negative, got %d", p.ID(), v)
		}
	}
	return nil
}

// WeightsFromIDs converts an id-keyed map (as found in YAML or query input)
func WeightsFromIDs(raw map[string]int) (Weights, error) {
	w := make(Weights, len(raw))
	for id, v := range raw {
		p, err := ParseParameter(id)
		if err != nil {
			return nil, err
		}
		w[p] = v
	}
	return w, w.Validate()
}

// Bucket is a priority tier for bucket-mode scoring
type Bucket string

const (
	BucketHigh       Bucket = "high"
	BucketMedium     Bucket = "medium"
	BucketExclusions Bucket = "exclusions"
)

// Buckets returns the buckets in display order
func Buckets() []Bucket {
	return []Bucket{BucketHigh, BucketMedium, BucketExclusions}
}

// ParseBucket parses a bucket name
func ParseBucket(s string) (Bucket, error) {
	switch Bucket(strings.ToLower(strings.TrimSpace(s))) {
	case BucketHigh:
		return BucketHigh, nil
	case BucketMedium:
		return BucketMedium, nil
	case BucketExclusions, "exclusion", "excluded":
		return BucketExclusions, nil
	}
	return "", fmt.Errorf("unknown bucket %q", s)
}

// BucketAssignment places a (parameter, target value) pair in a bucket
type BucketAssignment struct {
	Parameter   Parameter `json:"parameter_id"`
	TargetValue string    `json:"selected_target_value"`
	Bucket      Bucket    `json:"bucket"`
	Position    int       `json:"position"`
}

// SamePair reports whether two assignments refer to the same parameter/value pair
func (a BucketAssignment) SamePair(b BucketAssignment) bool {
	return a.Parameter == b.Parameter && SameDomainValue(a.Parameter.Domain(), a.TargetValue, b.TargetValue)
}

// BucketWeights holds the aggregate percentage per scoring bucket.
// Exclusions never carry weight.
type BucketWeights struct {
	High   float64 `json:"high" yaml:"high"`
	Medium float64 `json:"medium" yaml:"medium"`
}

// DefaultBucketWeights returns High=60, Medium=40
func DefaultBucketWeights() BucketWeights {
	return BucketWeights{High: 60, Medium: 40}
}

// For returns the weight of a bucket
func (bw BucketWeights) For(b Bucket) float64 {
	switch b {
	case BucketHigh:
		return bw.High
	case BucketMedium:
		return bw.Medium
	default:
		return 0
	}
}

// Range is an inclusive [Min, Max] interval
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// IsUnset reports the uninitialized [0,0] sentinel
func (r Range) IsUnset() bool {
	return r.Min == 0 && r.Max == 0
}

// Contains reports whether v lies inside the range
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// GlobalFilters is the scope selection applied before any per-MSA computation
type GlobalFilters struct {
	MarketSizeRange        Range    `json:"market_size_range"`
	RevenuePerCompanyRange Range    `json:"revenue_per_company_range"`
	SelectedRegions        []string `json:"selected_regions"`
	// SelectedIndustries is carried for the UI but has no effect on filtering
	SelectedIndustries []string `json:"selected_industries"`
}

// FilterBucketRanges are the full known ranges of the filterable numerics
type FilterBucketRanges struct {
	MarketSize        Range `json:"market_size"`
	RevenuePerCompany Range `json:"revenue_per_company"`
}

// ScoringMode selects flat weights or priority buckets
type ScoringMode string

const (
	ModeWeights ScoringMode = "weights"
	ModeBuckets ScoringMode = "buckets"
)

// ProfileSettings is the user-editable configuration object
type ProfileSettings struct {
	Mode              ScoringMode        `json:"mode"`
	Weights           Weights            `json:"weights,omitempty"`
	BucketAssignments []BucketAssignment `json:"bucket_assignments,omitempty"`
	BucketWeights     *BucketWeights     `json:"bucket_weights,omitempty"`
	Filters           GlobalFilters      `json:"filters"`
	HaircutPct        *float64           `json:"haircut_pct,omitempty"`
}

// Value implements driver.Valuer for ProfileSettings
func (s ProfileSettings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for ProfileSettings
func (s *ProfileSettings) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var data []byte
	switch src := value.(type) {
	case []byte:
		data = src
	case string:
		data = []byte(src)
	default:
		return fmt.Errorf("cannot scan %T into ProfileSettings", value)
	}

	return json.Unmarshal(data, s)
}

// Profile is a saved, named configuration
type Profile struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Settings    ProfileSettings `json:"settings" db:"settings"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}
