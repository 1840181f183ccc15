package acquisition

import (
	"github.com/ajharbinger/msa-market-engine/internal/filter"
	"github.com/ajharbinger/msa-market-engine/internal/market"
	"github.com/ajharbinger/msa-market-engine/internal/models"
)

// Thresholds are the merger screening limits on HHI
type Thresholds struct {
	DeltaHHI        float64 `json:"delta_hhi"`
	ConcentratedHHI float64 `json:"concentrated_hhi"`
}

// DefaultThresholds returns the U.S. bank merger screen: a change of at least
// 200 points into a market of at least 1800.
func DefaultThresholds() Thresholds {
	return Thresholds{DeltaHHI: 200, ConcentratedHHI: 1800}
}

// IsRegulatoryRisk reports whether a merger moving a market from current to
// merged HHI crosses both thresholds.
func (t Thresholds) IsRegulatoryRisk(current, merged float64) bool {
	return merged-current >= t.DeltaHHI && merged >= t.ConcentratedHHI
}

// HHI is the sum of squared percentage shares
func HHI(shares map[string]float64) float64 {
	total := 0.0
	for _, s := range shares {
		s = models.Finite(s)
		total += s * s
	}
	return total
}

// MergedHHI computes HHI after the target's share is folded into the
// acquirer's and the target disappears as a separate line.
func MergedHHI(shares map[string]float64, acquirerKey, targetKey string) float64 {
	merged := make(map[string]float64, len(shares))
	for k, v := range shares {
		merged[k] = v
	}
	if acquirerKey != targetKey {
		merged[acquirerKey] += merged[targetKey]
		delete(merged, targetKey)
	}
	return HHI(merged)
}

// DepositShares groups deposit shares by MSA and provider, summing repeats
func DepositShares(deposits []models.DepositRecord) map[string]map[string]float64 {
	byMSA := make(map[string]map[string]float64)
	for _, d := range deposits {
		provider := market.ProviderKey(d.Provider)
		if provider == "" {
			continue
		}
		msa := filter.MSAKey(d.MSA)
		shares, ok := byMSA[msa]
		if !ok {
			shares = make(map[string]float64)
			byMSA[msa] = shares
		}
		shares[provider] += models.Finite(d.MarketSharePct)
	}
	return byMSA
}
