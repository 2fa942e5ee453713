// models/timeseries.go
package models

// The four tables below are indexed by a real-world date (sample or reported)
// but re-captured wholesale on every scrape, so ScrapeDate is part of the key.
// A nil SampleDate/ReportedDate is the source's "Unknown/missing" row.

type StatewideCasesBySampleDate struct {
	ID                int64 `db:"id" json:"-"`
	SampleDate        *Date `db:"sample_date" json:"sample_date"`
	NewCases          *int  `db:"new_cases" json:"new_cases"`
	TotalCases        *int  `db:"total_cases" json:"total_cases"`
	NewPCRTests       *int  `db:"new_pcr_tests" json:"new_pcr_tests"`
	NewAntigenTests   *int  `db:"new_antigen_tests" json:"new_antigen_tests"`
	TotalPCRTests     *int  `db:"total_pcr_tests" json:"total_pcr_tests"`
	TotalAntigenTests *int  `db:"total_antigen_tests" json:"total_antigen_tests"`
	UpdateDate        *Date `db:"update_date" json:"update_date"`
	ScrapeDate        Date  `db:"scrape_date" json:"scrape_date"`
}

type StatewideTestsDate struct {
	ID                int64 `db:"id" json:"-"`
	ReportedDate      *Date `db:"reported_date" json:"reported_date"`
	NewStateTests     *int  `db:"new_state_tests" json:"new_state_tests"`
	NewExternalTests  *int  `db:"new_external_tests" json:"new_external_tests"`
	NewPCRTests       *int  `db:"new_pcr_tests" json:"new_pcr_tests"`
	NewAntigenTests   *int  `db:"new_antigen_tests" json:"new_antigen_tests"`
	TotalPCRTests     *int  `db:"total_pcr_tests" json:"total_pcr_tests"`
	TotalAntigenTests *int  `db:"total_antigen_tests" json:"total_antigen_tests"`
	NewTests          *int  `db:"new_tests" json:"new_tests"`
	TotalTests        *int  `db:"total_tests" json:"total_tests"`
	UpdateDate        *Date `db:"update_date" json:"update_date"`
	ScrapeDate        Date  `db:"scrape_date" json:"scrape_date"`
}

type StatewideHospitalizationsDate struct {
	ID                    int64 `db:"id" json:"-"`
	ReportedDate          *Date `db:"reported_date" json:"reported_date"`
	NewHospAdmissions     *int  `db:"new_hosp_admissions" json:"new_hosp_admissions"`
	NewICUAdmissions      *int  `db:"new_icu_admissions" json:"new_icu_admissions"`
	TotalHospitalizations *int  `db:"total_hospitalizations" json:"total_hospitalizations"`
	TotalICUAdmissions    *int  `db:"total_icu_admissions" json:"total_icu_admissions"`
	UpdateDate            *Date `db:"update_date" json:"update_date"`
	ScrapeDate            Date  `db:"scrape_date" json:"scrape_date"`
}

type StatewideDeathsDate struct {
	ID           int64 `db:"id" json:"-"`
	ReportedDate *Date `db:"reported_date" json:"reported_date"`
	NewDeaths    *int  `db:"new_deaths" json:"new_deaths"`
	TotalDeaths  *int  `db:"total_deaths" json:"total_deaths"`
	UpdateDate   *Date `db:"update_date" json:"update_date"`
	ScrapeDate   Date  `db:"scrape_date" json:"scrape_date"`
}
