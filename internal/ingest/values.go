package ingest

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ajharbinger/msa-market-engine/internal/models"
)

var magnitudes = map[byte]decimal.Decimal{
	'k': decimal.NewFromInt(1_000),
	'm': decimal.NewFromInt(1_000_000),
	'b': decimal.NewFromInt(1_000_000_000),
}

// ParseAmount reads a currency or plain number such as "$1,250.50",
// "(300)", "2.5M" or "12%". Anything unparsable is 0.
func ParseAmount(s string) float64 {
	v, _ := parseNumber(s)
	return v
}

// parseNumber also reports whether the value carried a percent sign
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")
	s = strings.NewReplacer("$", "", ",", "", " ", "", "\u00a0", "").Replace(s)
	if s == "" {
		return 0, false
	}

	multiplier := decimal.NewFromInt(1)
	if m, ok := magnitudes[strings.ToLower(s[len(s)-1:])[0]]; ok && !percent {
		multiplier = m
		s = s[:len(s)-1]
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	d = d.Mul(multiplier)
	if negative {
		d = d.Neg()
	}
	return models.Finite(d.InexactFloat64()), percent
}

// ParseShare reads a market share and returns it in percent. A trailing
// percent sign always means percent; otherwise unit decides.
func ParseShare(s string, unit models.ShareUnit) float64 {
	v, percent := parseNumber(s)
	if percent {
		return v
	}
	return models.SharePercent(v, unit)
}

// ParseOptionalScore reads a satisfaction score, nil when empty, unparsable
// or not positive.
func ParseOptionalScore(s string) *float64 {
	v, _ := parseNumber(s)
	if v <= 0 {
		return nil
	}
	return &v
}

// ParseFlag reads yes/no style booleans, returning def for empty or unknown
// values.
func ParseFlag(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1", "x":
		return true
	case "false", "f", "no", "n", "0":
		return false
	}
	return def
}

// ParseCoordinate reads a latitude or longitude, nil when empty or unparsable
func ParseCoordinate(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	v := d.InexactFloat64()
	return &v
}

// normalizeHeader maps "Market Share (%)" and "market_share_pct" style
// headers onto one key.
func normalizeHeader(h string) string {
	h = strings.NewReplacer("(", " ", ")", " ", "%", " pct ", "$", " usd ", "#", " ", ".", " ").Replace(h)
	return models.NormalizeLabel(h)
}
