// export/topline.go
package export

import "github.com/gewnthar/mncovid/models"

// Topline is the latest statewide snapshot for dashboards.
type Topline struct {
	ScrapeDate              models.Date  `json:"scrape_date"`
	UpdateDate              *models.Date `json:"update_date"`
	TotalPositiveTests      int          `json:"total_positive_tests"`
	CasesDailyChange        int          `json:"cases_daily_change"`
	CasesNewlyReported      *int         `json:"cases_newly_reported"`
	RemovedCases            *int         `json:"removed_cases"`
	TotalCompletedTests     int          `json:"total_completed_tests"`
	TestsDailyChange        int          `json:"tests_daily_change"`
	TotalHospitalized       int          `json:"total_hospitalized"`
	HospitalizedDailyChange int          `json:"hospitalized_daily_change"`
	TotalICU                int          `json:"total_icu"`
	ICUDailyChange          int          `json:"icu_daily_change"`
	TotalDeaths             int          `json:"total_deaths"`
	DeathsDailyChange       int          `json:"deaths_daily_change"`
	TotalRecoveries         *int         `json:"total_recoveries"`
}

func ToplineOf(r *models.StatewideTotalDate) Topline {
	return Topline{
		ScrapeDate:              r.ScrapeDate,
		UpdateDate:              r.UpdateDate,
		TotalPositiveTests:      r.CumulativePositiveTests,
		CasesDailyChange:        r.CasesDailyChange,
		CasesNewlyReported:      r.CasesNewlyReported,
		RemovedCases:            r.RemovedCases,
		TotalCompletedTests:     r.CumulativeCompletedTests,
		TestsDailyChange:        r.TestsDailyChange,
		TotalHospitalized:       r.CumulativeHospitalized,
		HospitalizedDailyChange: r.HospitalizedTotalDailyChange,
		TotalICU:                r.CumulativeICU,
		ICUDailyChange:          r.ICUTotalDailyChange,
		TotalDeaths:             r.CumulativeStatewideDeaths,
		DeathsDailyChange:       r.DeathsDailyChange,
		TotalRecoveries:         r.CumulativeStatewideRecoveries,
	}
}
