package acquisition

import (
	"sort"
	"strings"

	"github.com/ajharbinger/msa-market-engine/internal/filter"
	"github.com/ajharbinger/msa-market-engine/internal/market"
	"github.com/ajharbinger/msa-market-engine/internal/models"
)

// Config holds the simulator limits
type Config struct {
	Thresholds    Thresholds
	TopMSAs       int
	MaxHaircutPct float64
}

// DefaultConfig returns the stock thresholds, 50 rows and a 20% haircut cap
func DefaultConfig() Config {
	return Config{
		Thresholds:    DefaultThresholds(),
		TopMSAs:       50,
		MaxHaircutPct: 20,
	}
}

// Scenario names the two providers of a full acquisition. A nil HaircutPct
// defaults to the target's share at risk.
type Scenario struct {
	Acquirer   string   `json:"acquirer"`
	Target     string   `json:"target"`
	HaircutPct *float64 `json:"haircut_pct,omitempty"`
}

// FootprintRow is the projected effect of the acquisition in one MSA. Shares
// are percentages. HHI values come from deposit shares and ignore the haircut.
type FootprintRow struct {
	MSA                   string  `json:"msa"`
	CurrentShare          float64 `json:"current_share"`
	AcquiredShare         float64 `json:"acquired_share"`
	ProjectedShare        float64 `json:"projected_share"`
	MarketSize            float64 `json:"market_size"`
	DefendDollars         float64 `json:"defend_dollars"`
	ProjectedShareDollars float64 `json:"projected_share_dollars"`
	CurrentHHI            float64 `json:"current_hhi"`
	NewHHI                float64 `json:"new_hhi"`
	DeltaHHI              float64 `json:"delta_hhi"`
	RegulatoryRisk        bool    `json:"regulatory_risk"`
	Overlap               bool    `json:"overlap"`
}

// Summary totals an acquisition over every MSA in the union, not only the
// rows returned.
type Summary struct {
	AcquirerMSAs               int     `json:"acquirer_msas"`
	TargetMSAs                 int     `json:"target_msas"`
	MSAsInUnion                int     `json:"msas_in_union"`
	OverlapMSAs                int     `json:"overlap_msas"`
	FlaggedMSAs                int     `json:"flagged_msas"`
	HaircutPct                 float64 `json:"haircut_pct"`
	TotalProjectedShareDollars float64 `json:"total_projected_share_dollars"`
}

// Impact is the full result of a simulation
type Impact struct {
	Scenario Scenario       `json:"scenario"`
	Rows     []FootprintRow `json:"rows"`
	Summary  Summary        `json:"summary"`
}

// Simulator projects a full acquisition of one provider by another
type Simulator struct {
	cfg        Config
	aggregator *market.MarketAggregator
}

// NewSimulator creates a simulator, filling zero config values with defaults
func NewSimulator(cfg Config) *Simulator {
	def := DefaultConfig()
	if cfg.Thresholds.DeltaHHI <= 0 {
		cfg.Thresholds.DeltaHHI = def.Thresholds.DeltaHHI
	}
	if cfg.Thresholds.ConcentratedHHI <= 0 {
		cfg.Thresholds.ConcentratedHHI = def.Thresholds.ConcentratedHHI
	}
	if cfg.TopMSAs <= 0 {
		cfg.TopMSAs = def.TopMSAs
	}
	if cfg.MaxHaircutPct <= 0 {
		cfg.MaxHaircutPct = def.MaxHaircutPct
	}
	return &Simulator{cfg: cfg, aggregator: market.NewMarketAggregator()}
}

// Config returns the effective configuration
func (s *Simulator) Config() Config {
	return s.cfg
}

type msaAcc struct {
	name           string
	acquirerShare  float64
	targetShare    float64
	acquirerSize   float64
	acquirerDefend float64
	targetSize     float64
	targetDefend   float64
	hasAcquirer    bool
	hasTarget      bool
}

// DefaultHaircut is the target's share at risk clamped to the haircut range
func (s *Simulator) DefaultHaircut(opportunities []models.OpportunityRecord, target string) float64 {
	result := s.aggregator.Aggregate(opportunities, market.Options{})
	metrics, ok := result.Provider(target)
	if !ok {
		return 0
	}
	return s.clampHaircut(metrics.MarketShareAtRiskPct)
}

func (s *Simulator) clampHaircut(pct float64) float64 {
	pct = models.Finite(pct)
	if pct < 0 {
		return 0
	}
	if pct > s.cfg.MaxHaircutPct {
		return s.cfg.MaxHaircutPct
	}
	return pct
}

// Simulate recomputes the footprint of the scenario from scratch. Share rows
// come from the opportunity records; HHI comes from the deposit records.
func (s *Simulator) Simulate(scenario Scenario, opportunities []models.OpportunityRecord, deposits []models.DepositRecord) Impact {
	acquirerKey := market.ProviderKey(scenario.Acquirer)
	targetKey := market.ProviderKey(scenario.Target)

	var haircut float64
	if scenario.HaircutPct != nil {
		haircut = s.clampHaircut(*scenario.HaircutPct)
	} else {
		haircut = s.DefaultHaircut(opportunities, scenario.Target)
	}
	used := haircut
	scenario.HaircutPct = &used

	impact := Impact{Scenario: scenario, Rows: []FootprintRow{}}
	impact.Summary.HaircutPct = haircut
	if acquirerKey == "" || targetKey == "" {
		return impact
	}

	byMSA := make(map[string]*msaAcc)
	var order []string
	for _, r := range opportunities {
		if r.Exclusion {
			continue
		}
		provider := market.ProviderKey(r.Provider)
		isAcquirer, isTarget := provider == acquirerKey, provider == targetKey
		if !isAcquirer && !isTarget {
			continue
		}

		key := filter.MSAKey(r.MSA)
		acc, ok := byMSA[key]
		if !ok {
			acc = &msaAcc{name: strings.TrimSpace(r.MSA)}
			byMSA[key] = acc
			order = append(order, key)
		}
		share := models.Finite(r.MarketSharePct)
		if isAcquirer {
			acc.hasAcquirer = true
			acc.acquirerShare += share
			acc.acquirerSize += models.Finite(r.MarketSize)
			acc.acquirerDefend += models.Finite(r.DefendDollars)
		} else {
			acc.hasTarget = true
			acc.targetShare += share
			acc.targetSize += models.Finite(r.MarketSize)
			acc.targetDefend += models.Finite(r.DefendDollars)
		}
	}

	depositShares := DepositShares(deposits)
	retained := 1 - haircut/100

	rows := make([]FootprintRow, 0, len(order))
	for _, key := range order {
		acc := byMSA[key]

		size, defend := acc.acquirerSize, acc.acquirerDefend
		if !acc.hasAcquirer {
			size, defend = acc.targetSize, acc.targetDefend
		}

		shares := depositShares[key]
		current := HHI(shares)
		merged := MergedHHI(shares, acquirerKey, targetKey)
		projected := acc.acquirerShare + acc.targetShare*retained

		row := FootprintRow{
			MSA:                   acc.name,
			CurrentShare:          models.Round(acc.acquirerShare, 2),
			AcquiredShare:         models.Round(acc.targetShare, 2),
			ProjectedShare:        models.Round(projected, 2),
			MarketSize:            models.Round(size, 2),
			DefendDollars:         models.Round(defend, 2),
			ProjectedShareDollars: models.Round(projected/100*size, 2),
			CurrentHHI:            models.Round(current, 2),
			NewHHI:                models.Round(merged, 2),
			DeltaHHI:              models.Round(merged-current, 2),
			RegulatoryRisk:        s.cfg.Thresholds.IsRegulatoryRisk(current, merged),
			Overlap:               acc.hasAcquirer && acc.hasTarget,
		}
		rows = append(rows, row)

		impact.Summary.MSAsInUnion++
		if acc.hasAcquirer {
			impact.Summary.AcquirerMSAs++
		}
		if acc.hasTarget {
			impact.Summary.TargetMSAs++
		}
		if row.Overlap {
			impact.Summary.OverlapMSAs++
		}
		if row.RegulatoryRisk {
			impact.Summary.FlaggedMSAs++
		}
		impact.Summary.TotalProjectedShareDollars += projected / 100 * size
	}
	impact.Summary.TotalProjectedShareDollars = models.Round(impact.Summary.TotalProjectedShareDollars, 2)

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].MarketSize != rows[j].MarketSize {
			return rows[i].MarketSize > rows[j].MarketSize
		}
		return rows[i].MSA < rows[j].MSA
	})
	if len(rows) > s.cfg.TopMSAs {
		rows = rows[:s.cfg.TopMSAs]
	}
	impact.Rows = rows
	return impact
}
