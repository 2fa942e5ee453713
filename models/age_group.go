// models/age_group.go
package models

import (
	"strconv"
	"strings"
)

// OpenEndedAgeMax is the sentinel upper bound for "N+" age groups.
const OpenEndedAgeMax = 200

// ParseAgeGroup derives the bounds of an age group label.
// "50-64 years" -> (50, 64), "100+ years" -> (100, 200). Labels that are not a
// range (e.g. "Unknown/missing") return nil bounds.
func ParseAgeGroup(label string) (ageMin, ageMax *int) {
	s := strings.TrimSpace(strings.Replace(label, "years", "", 1))
	if strings.HasSuffix(s, "+") {
		lo, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(s, "+")))
		if err != nil {
			return nil, nil
		}
		hi := OpenEndedAgeMax
		return &lo, &hi
	}
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return nil, nil
	}
	lo, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, nil
	}
	hi, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, nil
	}
	return &lo, &hi
}

// SetAgeBounds fills AgeMin/AgeMax from AgeGroup.
func (a *StatewideAgeDate) SetAgeBounds() {
	a.AgeMin, a.AgeMax = ParseAgeGroup(a.AgeGroup)
}
