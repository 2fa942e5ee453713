// export/ages.go
package export

import (
	"math"

	"github.com/gewnthar/mncovid/models"
)

type AgeRow struct {
	AgeGroup        string   `json:"age_group"`
	AgeMin          *int     `json:"age_min"`
	AgeMax          *int     `json:"age_max"`
	CaseCount       *int     `json:"case_count"`
	DeathCount      *int     `json:"death_count"`
	CasesPct        *int     `json:"cases_pct"`
	DeathsPct       *int     `json:"deaths_pct"`
	Population      *int     `json:"population"`
	PctOfPopulation *int     `json:"pct_of_population"`
	CasesPer100K    *float64 `json:"cases_per_100k"`
}

// AgeRows joins each age group to the population bracket with the same
// bounds. Groups with no matching bracket carry no population fields.
func AgeRows(ages []models.StatewideAgeDate, pops []models.AgeGroupPop) []AgeRow {
	type bounds struct{ lo, hi int }
	byBounds := make(map[bounds]models.AgeGroupPop, len(pops))
	for _, p := range pops {
		if p.AgeMin != nil && p.AgeMax != nil {
			byBounds[bounds{*p.AgeMin, *p.AgeMax}] = p
		}
	}

	out := make([]AgeRow, len(ages))
	for i, a := range ages {
		out[i] = AgeRow{
			AgeGroup:   a.AgeGroup,
			AgeMin:     a.AgeMin,
			AgeMax:     a.AgeMax,
			CaseCount:  a.CaseCount,
			DeathCount: a.DeathCount,
			CasesPct:   a.CasesPct,
			DeathsPct:  a.DeathsPct,
		}
		if a.AgeMin == nil || a.AgeMax == nil {
			continue
		}
		p, ok := byBounds[bounds{*a.AgeMin, *a.AgeMax}]
		if !ok {
			continue
		}
		pop := p.Population
		out[i].Population = &pop
		out[i].PctOfPopulation = p.PctPop
		if a.CaseCount != nil && pop > 0 {
			rate := math.Round(float64(*a.CaseCount)/float64(pop)*100000*10) / 10
			out[i].CasesPer100K = &rate
		}
	}
	return out
}
