// models/county_observation.go
package models

// CountyTestDate is one row per (county, scrape_date). Re-running a scrape on
// the same day updates the row in place.
type CountyTestDate struct {
	ID                       int64  `db:"id" json:"-"`
	CountyID                 int64  `db:"county_id" json:"-"`
	CountyName               string `db:"-" json:"county"`                                              // Filled by joined reads only
	ScrapeDate               Date   `db:"scrape_date" json:"scrape_date"`
	UpdateDate               *Date  `db:"update_date" json:"update_date"`
	DailyTotalCases          int    `db:"daily_total_cases" json:"daily_total_cases"`
	CumulativeCount          int    `db:"cumulative_count" json:"cumulative_count"`
	CumulativeConfirmedCases *int   `db:"cumulative_confirmed_cases" json:"cumulative_confirmed_cases"`
	CumulativeProbableCases  *int   `db:"cumulative_probable_cases" json:"cumulative_probable_cases"`
	DailyDeaths              int    `db:"daily_deaths" json:"daily_deaths"`
	CumulativeDeaths         int    `db:"cumulative_deaths" json:"cumulative_deaths"`
}
