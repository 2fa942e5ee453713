// models/api_models.go
package models

// CountyLatest is the most recent observation for one county, joined with the
// county reference row. Used by the read API and the latest-counts exports.
type CountyLatest struct {
	County           County `json:"county"`
	ScrapeDate       Date   `json:"scrape_date"`
	CumulativeCount  int    `json:"cumulative_count"`
	CumulativeDeaths int    `json:"cumulative_deaths"`
	DailyTotalCases  int    `json:"daily_total_cases"`
	DailyDeaths      int    `json:"daily_deaths"`
}

// TimeseriesResponse is the JSON body for /api/timeseries/{series}.
type TimeseriesResponse struct {
	Series string `json:"series"`
	AsOf   Date   `json:"as_of"`
	Rows   any    `json:"rows"`
}
