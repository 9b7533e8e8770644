// utils/districts.go
package utils

import "strings"

// districtAbbreviations expands the shorthand forms that show up in some
// upstream payload variants.
var districtAbbreviations = map[string]string{
	"TST": "Tsim Sha Tsui",
	"CWB": "Causeway Bay",
	"SSP": "Sham Shui Po",
	"MK":  "Mong Kok",
	"YTM": "Yau Tsim Mong",
}

// CollapseWhitespace trims and folds internal runs of whitespace to single
// spaces.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeDistrict cleans up a raw district value and expands known
// abbreviations. Returns "" when the input is blank.
func NormalizeDistrict(raw string) string {
	d := CollapseWhitespace(raw)
	if d == "" {
		return ""
	}
	if full, ok := districtAbbreviations[strings.ToUpper(d)]; ok {
		return full
	}
	return d
}
