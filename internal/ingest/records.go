package ingest

import (
	"fmt"

	"github.com/ajharbinger/msa-market-engine/internal/models"
)

const maxWarnings = 20

// Header aliases, already normalized
var (
	msaColumns          = []string{"msa", "msa_name", "market", "cbsa", "cbsa_title", "metro_area"}
	productColumns      = []string{"product", "product_line", "product_name"}
	providerColumns     = []string{"provider", "provider_name", "bank", "institution", "competitor"}
	sizeValueColumns    = []string{"market_size_usd", "market_size_dollars", "market_size_value", "total_market_size"}
	revenueColumns      = []string{"revenue_per_company", "avg_revenue_per_company", "average_revenue_per_company", "revenue_company"}
	riskColumns         = []string{"risk", "risk_value", "risk_pct"}
	priceColumns        = []string{"price", "price_value", "pricing"}
	latColumns          = []string{"latitude", "lat"}
	lonColumns          = []string{"longitude", "lon", "lng", "long"}
	shareColumns        = []string{"market_share", "market_share_pct", "share", "share_pct"}
	oppSizeColumns      = []string{"market_size", "market_size_usd", "market_size_dollars", "total_market_size"}
	defendColumns       = []string{"defend_dollars", "defend_usd", "defend", "dollars_at_risk"}
	categoryColumns     = []string{"opportunity_category", "category"}
	satisfactionColumns = []string{"weighted_average_score", "satisfaction", "satisfaction_score", "customer_satisfaction"}
	includedColumns     = []string{"included_in_ranking", "include_in_ranking", "ranked", "included"}
	exclusionColumns    = []string{"exclusion", "excluded", "exclude"}
	depositShareColumns = []string{"deposit_market_share", "deposit_share", "deposit_share_pct", "market_share", "market_share_pct", "share"}
)

// Report summarizes one parse
type Report struct {
	Rows     int      `json:"rows"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r *Report) warn(format string, args ...interface{}) {
	if len(r.Warnings) < maxWarnings {
		r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
	}
}

// Parser converts tables into records
type Parser struct {
	unit models.ShareUnit
}

// NewParser creates a parser that reads unsuffixed shares in the given unit
func NewParser(unit models.ShareUnit) *Parser {
	if unit == "" {
		unit = models.ShareUnitAuto
	}
	return &Parser{unit: unit}
}

func requireColumn(cols columns, name string, aliases []string) (int, error) {
	i, ok := cols.find(aliases...)
	if !ok {
		return -1, fmt.Errorf("missing required column %q", name)
	}
	return i, nil
}

func optionalColumn(cols columns, aliases []string) int {
	i, _ := cols.find(aliases...)
	return i
}

// Attractiveness maps a table onto attractiveness records. Parameter columns
// are matched by ID or label; unrecognized values are kept and score 0.
func (p *Parser) Attractiveness(t *Table) ([]models.AttractivenessRecord, Report, error) {
	var report Report
	cols := t.columns()

	msaIdx, err := requireColumn(cols, "msa", msaColumns)
	if err != nil {
		return nil, report, err
	}
	productIdx := optionalColumn(cols, productColumns)
	sizeIdx := optionalColumn(cols, sizeValueColumns)
	revenueIdx := optionalColumn(cols, revenueColumns)
	riskIdx := optionalColumn(cols, riskColumns)
	priceIdx := optionalColumn(cols, priceColumns)
	latIdx := optionalColumn(cols, latColumns)
	lonIdx := optionalColumn(cols, lonColumns)

	paramIdx := make(map[models.Parameter]int)
	for i, h := range t.Header {
		param, err := models.ParseParameter(h)
		if err != nil {
			continue
		}
		if _, seen := paramIdx[param]; !seen {
			paramIdx[param] = i
		}
	}
	if len(paramIdx) == 0 {
		report.warn("no parameter columns found")
	}

	records := make([]models.AttractivenessRecord, 0, len(t.Rows))
	for n, row := range t.Rows {
		msa := cell(row, msaIdx)
		if msa == "" {
			report.Skipped++
			report.warn("row %d: missing msa", n+2)
			continue
		}

		values := make(models.ParameterValues, len(paramIdx))
		for _, param := range models.Parameters() {
			i, ok := paramIdx[param]
			if !ok {
				continue
			}
			raw := cell(row, i)
			if raw == "" {
				continue
			}
			if canonical, ok := models.CanonicalValue(param.Domain(), raw); ok {
				values[param] = canonical
				continue
			}
			values[param] = raw
			report.warn("row %d: unrecognized %s value %q", n+2, param.ID(), raw)
		}

		records = append(records, models.AttractivenessRecord{
			MSA:               msa,
			Product:           cell(row, productIdx),
			Values:            values,
			MarketSize:        ParseAmount(cell(row, sizeIdx)),
			RevenuePerCompany: ParseAmount(cell(row, revenueIdx)),
			Risk:              ParseAmount(cell(row, riskIdx)),
			Price:             ParseAmount(cell(row, priceIdx)),
			Latitude:          ParseCoordinate(cell(row, latIdx)),
			Longitude:         ParseCoordinate(cell(row, lonIdx)),
		})
	}

	report.Rows = len(records)
	return records, report, nil
}

// Opportunities maps a table onto opportunity records
func (p *Parser) Opportunities(t *Table) ([]models.OpportunityRecord, Report, error) {
	var report Report
	cols := t.columns()

	msaIdx, err := requireColumn(cols, "msa", msaColumns)
	if err != nil {
		return nil, report, err
	}
	providerIdx, err := requireColumn(cols, "provider", providerColumns)
	if err != nil {
		return nil, report, err
	}
	productIdx := optionalColumn(cols, productColumns)
	shareIdx := optionalColumn(cols, shareColumns)
	sizeIdx := optionalColumn(cols, oppSizeColumns)
	defendIdx := optionalColumn(cols, defendColumns)
	categoryIdx := optionalColumn(cols, categoryColumns)
	satisfactionIdx := optionalColumn(cols, satisfactionColumns)
	includedIdx := optionalColumn(cols, includedColumns)
	exclusionIdx := optionalColumn(cols, exclusionColumns)

	records := make([]models.OpportunityRecord, 0, len(t.Rows))
	for n, row := range t.Rows {
		msa, provider := cell(row, msaIdx), cell(row, providerIdx)
		if msa == "" || provider == "" {
			report.Skipped++
			report.warn("row %d: missing msa or provider", n+2)
			continue
		}

		records = append(records, models.OpportunityRecord{
			MSA:                  msa,
			Provider:             provider,
			Product:              cell(row, productIdx),
			MarketSharePct:       ParseShare(cell(row, shareIdx), p.unit),
			MarketSize:           ParseAmount(cell(row, sizeIdx)),
			DefendDollars:        ParseAmount(cell(row, defendIdx)),
			OpportunityCategory:  cell(row, categoryIdx),
			WeightedAverageScore: ParseOptionalScore(cell(row, satisfactionIdx)),
			IncludedInRanking:    ParseFlag(cell(row, includedIdx), true),
			Exclusion:            ParseFlag(cell(row, exclusionIdx), false),
		})
	}

	report.Rows = len(records)
	return records, report, nil
}

// Deposits maps a table onto deposit share records
func (p *Parser) Deposits(t *Table) ([]models.DepositRecord, Report, error) {
	var report Report
	cols := t.columns()

	msaIdx, err := requireColumn(cols, "msa", msaColumns)
	if err != nil {
		return nil, report, err
	}
	providerIdx, err := requireColumn(cols, "provider", providerColumns)
	if err != nil {
		return nil, report, err
	}
	shareIdx, err := requireColumn(cols, "market_share", depositShareColumns)
	if err != nil {
		return nil, report, err
	}

	records := make([]models.DepositRecord, 0, len(t.Rows))
	for n, row := range t.Rows {
		msa, provider := cell(row, msaIdx), cell(row, providerIdx)
		if msa == "" || provider == "" {
			report.Skipped++
			report.warn("row %d: missing msa or provider", n+2)
			continue
		}
		records = append(records, models.DepositRecord{
			MSA:            msa,
			Provider:       provider,
			MarketSharePct: ParseShare(cell(row, shareIdx), p.unit),
		})
	}

	report.Rows = len(records)
	return records, report, nil
}
