package models

var domainSynonyms = map[ValueDomain]map[string]string{
	DomainLevel: {
		"high":   LevelHigh,
		"h":      LevelHigh,
		"medium": LevelMedium,
		"med":    LevelMedium,
		"m":      LevelMedium,
		"low":    LevelLow,
		"l":      LevelLow,
	},
	DomainNationalAverage: {
		"above_national_avg":     AboveNationalAvg,
		"above_national_average": AboveNationalAvg,
		"above_avg":              AboveNationalAvg,
		"above":                  AboveNationalAvg,
		"at_national_avg":        AtNationalAvg,
		"at_national_average":    AtNationalAvg,
		"at_avg":                 AtNationalAvg,
		"at":                     AtNationalAvg,
		"below_national_avg":     BelowNationalAvg,
		"below_national_average": BelowNationalAvg,
		"below_avg":              BelowNationalAvg,
		"below":                  BelowNationalAvg,
	},
	DomainPremiumDiscount: {
		"premium":  PricePremium,
		"par":      PricePar,
		"discount": PriceDiscount,
	},
	DomainRationality: {
		"rational":   PricingRational,
		"irrational": PricingIrrational,
	},
}

// CanonicalValue maps a raw label onto the canonical label of the given
// domain. The second result is false for empty or unrecognized labels.
func CanonicalValue(domain ValueDomain, raw string) (string, bool) {
	key := NormalizeLabel(raw)
	if key == "" {
		return "", false
	}
	canonical, ok := domainSynonyms[domain][key]
	return canonical, ok
}

// DomainValues returns the canonical labels of a domain, most desirable first
// for non-inverse parameters.
func DomainValues(domain ValueDomain) []string {
	switch domain {
	case DomainNationalAverage:
		return []string{AboveNationalAvg, AtNationalAvg, BelowNationalAvg}
	case DomainPremiumDiscount:
		return []string{PricePremium, PricePar, PriceDiscount}
	case DomainRationality:
		return []string{PricingRational, PricingIrrational}
	default:
		return []string{LevelHigh, LevelMedium, LevelLow}
	}
}

// SameValue compares two labels case and space insensitively
func SameValue(a, b string) bool {
	na, nb := NormalizeLabel(a), NormalizeLabel(b)
	return na != "" && na == nb
}

// SameDomainValue compares two labels of one domain with synonyms resolved,
// so "H" matches "High". Labels outside the domain fall back to SameValue.
func SameDomainValue(domain ValueDomain, a, b string) bool {
	ca, okA := CanonicalValue(domain, a)
	cb, okB := CanonicalValue(domain, b)
	if okA && okB {
		return ca == cb
	}
	return SameValue(a, b)
}
