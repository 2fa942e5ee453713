// models/statewide.go
package models

// StatewideTotalDate holds the topline numbers, one row per scrape_date.
// Cumulative fields come straight from the page; *DailyChange fields are
// today's cumulative minus the previous scrape day's cumulative.
type StatewideTotalDate struct {
	ID         int64 `db:"id" json:"-"`
	ScrapeDate Date  `db:"scrape_date" json:"scrape_date"`
	UpdateDate *Date `db:"update_date" json:"update_date"` // The day the source said the page was last updated

	CasesDailyChange             int  `db:"cases_daily_change" json:"cases_daily_change"`
	CasesNewlyReported           *int `db:"cases_newly_reported" json:"cases_newly_reported"`
	ConfirmedCasesNewlyReported  *int `db:"confirmed_cases_newly_reported" json:"confirmed_cases_newly_reported"`
	ProbableCasesNewlyReported   *int `db:"probable_cases_newly_reported" json:"probable_cases_newly_reported"`
	RemovedCases                 *int `db:"removed_cases" json:"removed_cases"`
	DeathsDailyChange            int  `db:"deaths_daily_change" json:"deaths_daily_change"`
	TestsDailyChange             int  `db:"tests_daily_change" json:"tests_daily_change"`
	HospitalizedTotalDailyChange int  `db:"hospitalized_total_daily_change" json:"hospitalized_total_daily_change"`
	ICUTotalDailyChange          int  `db:"icu_total_daily_change" json:"icu_total_daily_change"`

	CumulativePositiveTests            int  `db:"cumulative_positive_tests" json:"cumulative_positive_tests"`
	CumulativeConfirmedCases           *int `db:"cumulative_confirmed_cases" json:"cumulative_confirmed_cases"`
	CumulativeProbableCases            *int `db:"cumulative_probable_cases" json:"cumulative_probable_cases"`
	CumulativeCompletedTests           int  `db:"cumulative_completed_tests" json:"cumulative_completed_tests"`
	CumulativePCRTests                 *int `db:"cumulative_pcr_tests" json:"cumulative_pcr_tests"`
	CumulativeAntigenTests             *int `db:"cumulative_antigen_tests" json:"cumulative_antigen_tests"`
	CumulativeHospitalized             int  `db:"cumulative_hospitalized" json:"cumulative_hospitalized"`
	CumulativeICU                      int  `db:"cumulative_icu" json:"cumulative_icu"`
	CumulativeStatewideDeaths          int  `db:"cumulative_statewide_deaths" json:"cumulative_statewide_deaths"`                     // Captured separately from county totals, so they may not match
	CumulativeConfirmedStatewideDeaths *int `db:"cumulative_confirmed_statewide_deaths" json:"cumulative_confirmed_statewide_deaths"`
	CumulativeProbableStatewideDeaths  *int `db:"cumulative_probable_statewide_deaths" json:"cumulative_probable_statewide_deaths"`
	CumulativeStatewideRecoveries      *int `db:"cumulative_statewide_recoveries" json:"cumulative_statewide_recoveries"`
}

// StatewideAgeDate is one row per (scrape_date, age_group). AgeMin/AgeMax are
// derived from the label when the row is written.
type StatewideAgeDate struct {
	ID         int64  `db:"id" json:"-"`
	ScrapeDate Date   `db:"scrape_date" json:"scrape_date"`
	AgeGroup   string `db:"age_group" json:"age_group"`
	AgeMin     *int   `db:"age_min" json:"age_min"`
	AgeMax     *int   `db:"age_max" json:"age_max"`
	CasesPct   *int   `db:"cases_pct" json:"cases_pct"`
	DeathsPct  *int   `db:"deaths_pct" json:"deaths_pct"`
	CaseCount  *int   `db:"case_count" json:"case_count"`
	DeathCount *int   `db:"death_count" json:"death_count"`
}
