// utils/counties.go
package utils

import "strings"

// UnknownCounty is the source's label for cases/deaths with no county of residence.
const UnknownCounty = "Unknown/missing"

// countyLabelFixes covers labels the source truncates or spells differently
// from the county reference table.
var countyLabelFixes = map[string]string{
	"otter": "Otter Tail",
}

// NormalizeCountyName collapses internal whitespace (including non-breaking
// spaces), trims, and drops a trailing " County". "Otter" becomes "Otter Tail".
func NormalizeCountyName(label string) string {
	name := strings.Join(strings.Fields(label), " ")
	name = strings.TrimSuffix(name, " County")
	if fixed, ok := countyLabelFixes[strings.ToLower(name)]; ok {
		return fixed
	}
	return name
}

// IsUnknown reports whether a label (a county, or a date cell) is the source's
// "Unknown/missing" placeholder.
func IsUnknown(label string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(label), " "), UnknownCounty)
}

// CollapseSpace joins whitespace-separated fields with single spaces.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
