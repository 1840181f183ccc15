package filter

import (
	"regexp"
	"strings"

	"github.com/ajharbinger/msa-market-engine/internal/models"
)

// Region names follow the eight BEA economic regions
const (
	RegionNewEngland    = "New England"
	RegionMideast       = "Mideast"
	RegionGreatLakes    = "Great Lakes"
	RegionPlains        = "Plains"
	RegionSoutheast     = "Southeast"
	RegionSouthwest     = "Southwest"
	RegionRockyMountain = "Rocky Mountain"
	RegionFarWest       = "Far West"
	RegionOther         = "Other"
)

// Regions returns every region a record can resolve to, Other last
func Regions() []string {
	return []string{
		RegionNewEngland,
		RegionMideast,
		RegionGreatLakes,
		RegionPlains,
		RegionSoutheast,
		RegionSouthwest,
		RegionRockyMountain,
		RegionFarWest,
		RegionOther,
	}
}

var stateRegions = map[string]string{
	"CT": RegionNewEngland, "ME": RegionNewEngland, "MA": RegionNewEngland,
	"NH": RegionNewEngland, "RI": RegionNewEngland, "VT": RegionNewEngland,

	"DE": RegionMideast, "DC": RegionMideast, "MD": RegionMideast,
	"NJ": RegionMideast, "NY": RegionMideast, "PA": RegionMideast,

	"IL": RegionGreatLakes, "IN": RegionGreatLakes, "MI": RegionGreatLakes,
	"OH": RegionGreatLakes, "WI": RegionGreatLakes,

	"IA": RegionPlains, "KS": RegionPlains, "MN": RegionPlains, "MO": RegionPlains,
	"NE": RegionPlains, "ND": RegionPlains, "SD": RegionPlains,

	"AL": RegionSoutheast, "AR": RegionSoutheast, "FL": RegionSoutheast,
	"GA": RegionSoutheast, "KY": RegionSoutheast, "LA": RegionSoutheast,
	"MS": RegionSoutheast, "NC": RegionSoutheast, "SC": RegionSoutheast,
	"TN": RegionSoutheast, "VA": RegionSoutheast, "WV": RegionSoutheast,

	"AZ": RegionSouthwest, "NM": RegionSouthwest, "OK": RegionSouthwest, "TX": RegionSouthwest,

	"CO": RegionRockyMountain, "ID": RegionRockyMountain, "MT": RegionRockyMountain,
	"UT": RegionRockyMountain, "WY": RegionRockyMountain,

	"AK": RegionFarWest, "CA": RegionFarWest, "HI": RegionFarWest,
	"NV": RegionFarWest, "OR": RegionFarWest, "WA": RegionFarWest,
}

var (
	// "NC-SC-Charlotte-Concord-Gastonia"
	leadingStates = regexp.MustCompile(`^([A-Z]{2}(-[A-Z]{2})*)-`)
	// "Charlotte-Concord-Gastonia, NC-SC"
	trailingStates = regexp.MustCompile(`,\s*([A-Z]{2}(-[A-Z]{2})*)$`)
)

type box struct {
	region         string
	minLat, maxLat float64
	minLon, maxLon float64
}

// Checked in order, first match wins. The boxes overlap at their edges and
// are only meant to place a metro in the right neighbourhood.
var regionBoxes = []box{
	{RegionFarWest, 18, 72, -180, -114},
	{RegionRockyMountain, 37, 49.5, -114, -102},
	{RegionSouthwest, 25, 37, -114, -94},
	{RegionPlains, 36.5, 49.5, -102, -89.5},
	{RegionGreatLakes, 37, 49, -89.5, -80.5},
	{RegionNewEngland, 41, 47.5, -73.7, -66.9},
	{RegionMideast, 38.4, 45.1, -80.5, -73.7},
	{RegionSoutheast, 24, 39.5, -94, -75},
}

// StateCodes extracts the state codes embedded in an MSA name, in order.
// It returns nil when the name carries none.
func StateCodes(msa string) []string {
	msa = strings.TrimSpace(msa)
	if m := leadingStates.FindStringSubmatch(msa); m != nil {
		return strings.Split(m[1], "-")
	}
	if m := trailingStates.FindStringSubmatch(msa); m != nil {
		return strings.Split(m[1], "-")
	}
	return nil
}

// ResolveRegion maps an MSA to its region using the first state code in the
// name, then the coordinates, and finally Other.
func ResolveRegion(msa string, lat, lon *float64) string {
	// only the first code decides; unknown codes such as PR fall through
	if codes := StateCodes(msa); len(codes) > 0 {
		if region, ok := stateRegions[codes[0]]; ok {
			return region
		}
	}

	if lat == nil || lon == nil {
		return RegionOther
	}
	la, lo := models.Finite(*lat), models.Finite(*lon)
	for _, b := range regionBoxes {
		if la >= b.minLat && la <= b.maxLat && lo >= b.minLon && lo <= b.maxLon {
			return b.region
		}
	}
	return RegionOther
}

// RecordRegion resolves the region of an attractiveness record
func RecordRegion(record models.AttractivenessRecord) string {
	return ResolveRegion(record.MSA, record.Latitude, record.Longitude)
}

// RegionCounts reports how many records fall into each region
func RegionCounts(records []models.AttractivenessRecord) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		counts[RecordRegion(r)]++
	}
	return counts
}
