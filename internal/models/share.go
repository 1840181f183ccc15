package models

import (
	"fmt"
	"math"
	"strings"
)

// ShareUnit tags how a raw market-share number was expressed by its source
type ShareUnit string

const (
	// ShareUnitPercent means 12.5 is 12.5%
	ShareUnitPercent ShareUnit = "percent"
	// ShareUnitFraction means 0.125 is 12.5%
	ShareUnitFraction ShareUnit = "fraction"
	// ShareUnitAuto treats values strictly between 0 and 1 as fractions and
	// everything else as percentages. A genuine share below 1% is misread as
	// a fraction under this rule, so sources that know their unit should say so.
	ShareUnitAuto ShareUnit = "auto"
)

// ParseShareUnit parses a unit name, defaulting to auto when empty
func ParseShareUnit(s string) (ShareUnit, error) {
	switch ShareUnit(strings.ToLower(strings.TrimSpace(s))) {
	case "", ShareUnitAuto:
		return ShareUnitAuto, nil
	case ShareUnitPercent:
		return ShareUnitPercent, nil
	case ShareUnitFraction:
		return ShareUnitFraction, nil
	}
	return "", fmt.Errorf("unknown share unit %q", s)
}

// SharePercent converts a raw share value to a percentage. NaN and infinite
// inputs yield 0.
func SharePercent(raw float64, unit ShareUnit) float64 {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0
	}
	switch unit {
	case ShareUnitFraction:
		return raw * 100
	case ShareUnitPercent:
		return raw
	default:
		if raw > 0 && raw < 1 {
			return raw * 100
		}
		return raw
	}
}
