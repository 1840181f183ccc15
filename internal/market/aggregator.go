package market

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ajharbinger/msa-market-engine/internal/filter"
	"github.com/ajharbinger/msa-market-engine/internal/models"
)

// Display thresholds for share at risk
const (
	riskFloorPct   = 5.0
	riskCeilingPct = 25.0
)

// ProviderMetrics is one provider's rollup across the opportunity records
type ProviderMetrics struct {
	Rank                      int      `json:"rank"`
	Provider                  string   `json:"provider"`
	MarketShareDollars        float64  `json:"market_share_dollars"`
	OverallShareSizePct       float64  `json:"overall_share_size_pct"`
	MSAsPenetrated            int      `json:"msas_penetrated"`
	DefendDollars             float64  `json:"defend_dollars"`
	MarketShareAtRiskPct      float64  `json:"market_share_at_risk_pct"`
	RiskDisplay               string   `json:"risk_display"`
	CustomerSatisfactionScore *float64 `json:"customer_satisfaction_score"`
	SatisfactionPct           *float64 `json:"satisfaction_pct"`
	RecordCount               int      `json:"record_count"`
}

// MarketSummary describes the market the providers were ranked against
type MarketSummary struct {
	UniqueMSAs        int     `json:"unique_msas"`
	TotalMarketSize   float64 `json:"total_market_size"`
	ProviderCount     int     `json:"provider_count"`
	TotalShareDollars float64 `json:"total_share_dollars"`
}

// Options tune which records take part in aggregation
type Options struct {
	// RankedOnly keeps only records flagged IncludedInRanking
	RankedOnly bool `json:"ranked_only"`
}

// Result is the output of Aggregate
type Result struct {
	Providers []ProviderMetrics `json:"providers"`
	Summary   MarketSummary     `json:"summary"`
}

// MarketAggregator rolls opportunity records up per provider
type MarketAggregator struct{}

// NewMarketAggregator creates a new aggregator instance
func NewMarketAggregator() *MarketAggregator {
	return &MarketAggregator{}
}

type providerAcc struct {
	name         string
	shareDollars float64
	defend       float64
	msas         map[string]bool
	satisfaction []float64
	records      int
}

// Aggregate groups records by provider and computes share, penetration,
// risk and satisfaction. Records flagged Exclusion, or unranked ones under
// RankedOnly, add no provider metrics but still size their MSA: the market
// denominator counts every MSA in records once, at the largest size seen.
// Providers are ordered by overall share, largest first.
func (a *MarketAggregator) Aggregate(records []models.OpportunityRecord, opts Options) Result {
	marketByMSA := make(map[string]float64)
	providers := make(map[string]*providerAcc)
	var order []string

	for _, r := range records {
		// Every record sizes its MSA, excluded or not
		msa := filter.MSAKey(r.MSA)
		size := models.Finite(r.MarketSize)
		if current, seen := marketByMSA[msa]; !seen || size > current {
			marketByMSA[msa] = size
		}

		if r.Exclusion || (opts.RankedOnly && !r.IncludedInRanking) {
			continue
		}
		name := strings.TrimSpace(r.Provider)
		if name == "" {
			continue
		}

		key := ProviderKey(name)
		acc, ok := providers[key]
		if !ok {
			acc = &providerAcc{name: name, msas: make(map[string]bool)}
			providers[key] = acc
			order = append(order, key)
		}
		acc.shareDollars += ShareDollars(r)
		acc.defend += models.Finite(r.DefendDollars)
		acc.msas[msa] = true
		acc.records++
		if r.WeightedAverageScore != nil {
			if s := models.Finite(*r.WeightedAverageScore); s > 0 {
				acc.satisfaction = append(acc.satisfaction, s)
			}
		}
	}

	totalMarket := 0.0
	for _, size := range marketByMSA {
		totalMarket += size
	}

	result := Result{
		Providers: make([]ProviderMetrics, 0, len(providers)),
		Summary: MarketSummary{
			UniqueMSAs:      len(marketByMSA),
			TotalMarketSize: models.Round(totalMarket, 2),
			ProviderCount:   len(providers),
		},
	}

	totalShare := 0.0
	for _, key := range order {
		acc := providers[key]
		totalShare += acc.shareDollars

		atRisk := models.SafeDiv(acc.defend, acc.shareDollars) * 100
		m := ProviderMetrics{
			Provider:             acc.name,
			MarketShareDollars:   models.Round(acc.shareDollars, 2),
			OverallShareSizePct:  models.Round(models.SafeDiv(acc.shareDollars, totalMarket)*100, 2),
			MSAsPenetrated:       len(acc.msas),
			DefendDollars:        models.Round(acc.defend, 2),
			MarketShareAtRiskPct: models.Round(atRisk, 2),
			RiskDisplay:          RiskDisplay(atRisk),
			RecordCount:          acc.records,
		}
		if len(acc.satisfaction) > 0 {
			sum := 0.0
			for _, s := range acc.satisfaction {
				sum += s
			}
			score := models.Round(sum/float64(len(acc.satisfaction)), 2)
			pct := models.Round(score*20, 1)
			m.CustomerSatisfactionScore = &score
			m.SatisfactionPct = &pct
		}
		result.Providers = append(result.Providers, m)
	}
	result.Summary.TotalShareDollars = models.Round(totalShare, 2)

	sort.SliceStable(result.Providers, func(i, j int) bool {
		pi, pj := result.Providers[i], result.Providers[j]
		if pi.OverallShareSizePct != pj.OverallShareSizePct {
			return pi.OverallShareSizePct > pj.OverallShareSizePct
		}
		return pi.Provider < pj.Provider
	})
	for i := range result.Providers {
		result.Providers[i].Rank = i + 1
	}
	return result
}

// Provider returns the metrics of one provider from a result
func (r Result) Provider(name string) (ProviderMetrics, bool) {
	key := ProviderKey(name)
	for _, p := range r.Providers {
		if ProviderKey(p.Provider) == key {
			return p, true
		}
	}
	return ProviderMetrics{}, false
}

// ShareDollars is the provider's share of an opportunity record's market, in currency
func ShareDollars(r models.OpportunityRecord) float64 {
	return models.Finite(r.MarketSharePct) / 100 * models.Finite(r.MarketSize)
}

// RiskDisplay buckets a share-at-risk percentage for display
func RiskDisplay(pct float64) string {
	pct = models.Finite(pct)
	switch {
	case pct < riskFloorPct:
		return "<5%"
	case pct > riskCeilingPct:
		return ">25%"
	default:
		return fmt.Sprintf("%.1f%%", pct)
	}
}

// ProviderKey normalizes a provider name for matching
func ProviderKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// ProviderFootprint returns the records that belong to one provider
func ProviderFootprint(records []models.OpportunityRecord, provider string) []models.OpportunityRecord {
	key := ProviderKey(provider)
	var out []models.OpportunityRecord
	for _, r := range records {
		if key != "" && ProviderKey(r.Provider) == key {
			out = append(out, r)
		}
	}
	return out
}
