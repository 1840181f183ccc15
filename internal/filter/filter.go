package filter

import (
	"strings"

	"github.com/ajharbinger/msa-market-engine/internal/models"
	"github.com/ajharbinger/msa-market-engine/internal/scoring"
)

// FilterEngine is the single gate records pass before scoring, aggregation
// or acquisition simulation. It never mutates its inputs.
type FilterEngine struct{}

// NewFilterEngine creates a new filter engine instance
func NewFilterEngine() *FilterEngine {
	return &FilterEngine{}
}

// ApplyGlobalFilters returns the records that pass every filter: market size
// range, revenue per company range, selected regions and the exclusion
// bucket. A range equal to the full known range, or the unset [0,0] range,
// filters nothing. An empty region selection filters nothing.
func (f *FilterEngine) ApplyGlobalFilters(
	records []models.AttractivenessRecord,
	filters models.GlobalFilters,
	assignments []models.BucketAssignment,
	ranges models.FilterBucketRanges,
) []models.AttractivenessRecord {
	sizeActive := rangeActive(filters.MarketSizeRange, ranges.MarketSize)
	revenueActive := rangeActive(filters.RevenuePerCompanyRange, ranges.RevenuePerCompany)

	regions := make(map[string]bool, len(filters.SelectedRegions))
	for _, r := range filters.SelectedRegions {
		if r = strings.TrimSpace(r); r != "" {
			regions[strings.ToLower(r)] = true
		}
	}

	out := make([]models.AttractivenessRecord, 0, len(records))
	for _, r := range records {
		if sizeActive && !filters.MarketSizeRange.Contains(models.Finite(r.MarketSize)) {
			continue
		}
		if revenueActive && !filters.RevenuePerCompanyRange.Contains(models.Finite(r.RevenuePerCompany)) {
			continue
		}
		if len(regions) > 0 && !regions[strings.ToLower(RecordRegion(r))] {
			continue
		}
		if scoring.IsExcluded(r, assignments) {
			continue
		}

		copied := r
		copied.Values = r.Values.Clone()
		out = append(out, copied)
	}
	return out
}

func rangeActive(selected, full models.Range) bool {
	if selected.IsUnset() {
		return false
	}
	return selected != full
}

// ComputeRanges derives the full known ranges from a record set. An empty set
// yields the unset ranges.
func (f *FilterEngine) ComputeRanges(records []models.AttractivenessRecord) models.FilterBucketRanges {
	var ranges models.FilterBucketRanges
	for i, r := range records {
		size, revenue := models.Finite(r.MarketSize), models.Finite(r.RevenuePerCompany)
		if i == 0 {
			ranges.MarketSize = models.Range{Min: size, Max: size}
			ranges.RevenuePerCompany = models.Range{Min: revenue, Max: revenue}
			continue
		}
		ranges.MarketSize = widen(ranges.MarketSize, size)
		ranges.RevenuePerCompany = widen(ranges.RevenuePerCompany, revenue)
	}
	return ranges
}

func widen(r models.Range, v float64) models.Range {
	if v < r.Min {
		r.Min = v
	}
	if v > r.Max {
		r.Max = v
	}
	return r
}

// VisibleMSAs returns the set of MSA keys present in records
func VisibleMSAs(records []models.AttractivenessRecord) map[string]bool {
	visible := make(map[string]bool, len(records))
	for _, r := range records {
		visible[MSAKey(r.MSA)] = true
	}
	return visible
}

// MSAKey normalizes an MSA name for matching across datasets
func MSAKey(msa string) string {
	return strings.ToLower(strings.Join(strings.Fields(msa), " "))
}

// RestrictOpportunities keeps the opportunity records whose MSA survived
// filtering of the attractiveness population.
func (f *FilterEngine) RestrictOpportunities(records []models.OpportunityRecord, visible map[string]bool) []models.OpportunityRecord {
	out := make([]models.OpportunityRecord, 0, len(records))
	for _, r := range records {
		if visible[MSAKey(r.MSA)] {
			out = append(out, r)
		}
	}
	return out
}

// RestrictDeposits keeps the deposit records whose MSA survived filtering
func (f *FilterEngine) RestrictDeposits(records []models.DepositRecord, visible map[string]bool) []models.DepositRecord {
	out := make([]models.DepositRecord, 0, len(records))
	for _, r := range records {
		if visible[MSAKey(r.MSA)] {
			out = append(out, r)
		}
	}
	return out
}
