// export/counties.go
package export

import (
	"cmp"
	"math"
	"slices"

	"github.com/gewnthar/mncovid/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type CountyTallRow struct {
	Date             models.Date `csv:"date"`
	County           string      `csv:"county"`
	DailyCases       int         `csv:"daily_cases"`
	CumulativeCases  int         `csv:"cumulative_cases"`
	DailyDeaths      int         `csv:"daily_deaths"`
	CumulativeDeaths int         `csv:"cumulative_deaths"`
}

// CountyTallRows orders by date, then county.
func CountyTallRows(in []models.CountyTestDate) []CountyTallRow {
	out := make([]CountyTallRow, len(in))
	for i, r := range in {
		out[i] = CountyTallRow{
			Date:             r.ScrapeDate,
			County:           r.CountyName,
			DailyCases:       r.DailyTotalCases,
			CumulativeCases:  r.CumulativeCount,
			DailyDeaths:      r.DailyDeaths,
			CumulativeDeaths: r.CumulativeDeaths,
		}
	}
	slices.SortStableFunc(out, func(a, b CountyTallRow) int {
		if c := a.Date.Sub(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.County, b.County)
	})
	return out
}

type LatestCountyRow struct {
	FIPS               string   `csv:"county_fips" json:"county_fips"`
	Name               string   `csv:"county_name" json:"county_name"`
	TotalPositiveTests int      `csv:"total_positive_tests" json:"total_positive_tests"`
	TotalDeaths        int      `csv:"total_deaths" json:"total_deaths"`
	CasesPer10K        *float64 `csv:"cases_per_10k" json:"cases_per_10k"`
	Latitude           float64  `csv:"latitude" json:"-"`
	Longitude          float64  `csv:"longitude" json:"-"`
	ScrapeDate         string   `csv:"scrape_date" json:"scrape_date"`
}

// LatestCountyRows adds a per-10k rate where a 2019 population is known.
func LatestCountyRows(in []models.CountyLatest) []LatestCountyRow {
	out := make([]LatestCountyRow, len(in))
	for i, l := range in {
		out[i] = LatestCountyRow{
			FIPS:               l.County.FIPS,
			Name:               l.County.Name,
			TotalPositiveTests: l.CumulativeCount,
			TotalDeaths:        l.CumulativeDeaths,
			Latitude:           l.County.Latitude,
			Longitude:          l.County.Longitude,
			ScrapeDate:         l.ScrapeDate.String(),
		}
		if l.County.Pop2019 != nil && *l.County.Pop2019 > 0 {
			rate := math.Round(float64(l.CumulativeCount)/float64(*l.County.Pop2019)*10000*10) / 10
			out[i].CasesPer10K = &rate
		}
	}
	return out
}

// LatestCountiesGeoJSON is one point feature per county at its centroid.
func LatestCountiesGeoJSON(rows []LatestCountyRow) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, r := range rows {
		f := geojson.NewFeature(orb.Point{r.Longitude, r.Latitude})
		f.Properties["county_fips"] = r.FIPS
		f.Properties["county_name"] = r.Name
		f.Properties["total_positive_tests"] = r.TotalPositiveTests
		f.Properties["total_deaths"] = r.TotalDeaths
		f.Properties["scrape_date"] = r.ScrapeDate
		if r.CasesPer10K != nil {
			f.Properties["cases_per_10k"] = *r.CasesPer10K
		}
		fc.Append(f)
	}
	return fc.MarshalJSON()
}
