// export/series.go
package export

import "github.com/gewnthar/mncovid/models"

type CasesRow struct {
	SampleDate        models.Date `csv:"sample_date"`
	NewCases          *int        `csv:"new_cases"`
	NewCasesRolling   *float64    `csv:"new_cases_rolling"`
	TotalCases        *int        `csv:"total_cases"`
	NewPCRTests       *int        `csv:"new_pcr_tests"`
	NewAntigenTests   *int        `csv:"new_antigen_tests"`
	TotalPCRTests     *int        `csv:"total_pcr_tests"`
	TotalAntigenTests *int        `csv:"total_antigen_tests"`
	ScrapeDate        models.Date `csv:"scrape_date"`
}

type TestsRow struct {
	ReportedDate      models.Date `csv:"reported_date"`
	NewTests          *int        `csv:"new_tests"`
	NewTestsRolling   *float64    `csv:"new_tests_rolling"`
	TotalTests        *int        `csv:"total_tests"`
	NewPCRTests       *int        `csv:"new_pcr_tests"`
	NewAntigenTests   *int        `csv:"new_antigen_tests"`
	TotalPCRTests     *int        `csv:"total_pcr_tests"`
	TotalAntigenTests *int        `csv:"total_antigen_tests"`
	ScrapeDate        models.Date `csv:"scrape_date"`
}

type DeathsRow struct {
	ReportedDate     models.Date `csv:"reported_date"`
	NewDeaths        *int        `csv:"new_deaths"`
	NewDeathsRolling *float64    `csv:"new_deaths_rolling"`
	TotalDeaths      *int        `csv:"total_deaths"`
	ScrapeDate       models.Date `csv:"scrape_date"`
}

type HospitalizationsRow struct {
	ReportedDate             models.Date `csv:"reported_date"`
	NewHospAdmissions        *int        `csv:"new_hosp_admissions"`
	NewHospAdmissionsRolling *float64    `csv:"new_hosp_admissions_rolling"`
	NewICUAdmissions         *int        `csv:"new_icu_admissions"`
	NewICUAdmissionsRolling  *float64    `csv:"new_icu_admissions_rolling"`
	TotalHospitalizations    *int        `csv:"total_hospitalizations"`
	TotalICUAdmissions       *int        `csv:"total_icu_admissions"`
	ScrapeDate               models.Date `csv:"scrape_date"`
}

// The store only returns rows with a real date, in real-date order.

func CasesRows(in []models.StatewideCasesBySampleDate) []CasesRow {
	dates, vals := make([]models.Date, len(in)), make([]*int, len(in))
	for i, r := range in {
		dates[i], vals[i] = *r.SampleDate, r.NewCases
	}
	rolling := Rolling(dates, vals)

	out := make([]CasesRow, len(in))
	for i, r := range in {
		out[i] = CasesRow{
			SampleDate:        *r.SampleDate,
			NewCases:          r.NewCases,
			NewCasesRolling:   rolling[i],
			TotalCases:        r.TotalCases,
			NewPCRTests:       r.NewPCRTests,
			NewAntigenTests:   r.NewAntigenTests,
			TotalPCRTests:     r.TotalPCRTests,
			TotalAntigenTests: r.TotalAntigenTests,
			ScrapeDate:        r.ScrapeDate,
		}
	}
	return out
}

func TestsRows(in []models.StatewideTestsDate) []TestsRow {
	dates, vals := make([]models.Date, len(in)), make([]*int, len(in))
	for i, r := range in {
		dates[i], vals[i] = *r.ReportedDate, r.NewTests
	}
	rolling := Rolling(dates, vals)

	out := make([]TestsRow, len(in))
	for i, r := range in {
		out[i] = TestsRow{
			ReportedDate:      *r.ReportedDate,
			NewTests:          r.NewTests,
			NewTestsRolling:   rolling[i],
			TotalTests:        r.TotalTests,
			NewPCRTests:       r.NewPCRTests,
			NewAntigenTests:   r.NewAntigenTests,
			TotalPCRTests:     r.TotalPCRTests,
			TotalAntigenTests: r.TotalAntigenTests,
			ScrapeDate:        r.ScrapeDate,
		}
	}
	return out
}

func DeathsRows(in []models.StatewideDeathsDate) []DeathsRow {
	dates, vals := make([]models.Date, len(in)), make([]*int, len(in))
	for i, r := range in {
		dates[i], vals[i] = *r.ReportedDate, r.NewDeaths
	}
	rolling := Rolling(dates, vals)

	out := make([]DeathsRow, len(in))
	for i, r := range in {
		out[i] = DeathsRow{
			ReportedDate:     *r.ReportedDate,
			NewDeaths:        r.NewDeaths,
			NewDeathsRolling: rolling[i],
			TotalDeaths:      r.TotalDeaths,
			ScrapeDate:       r.ScrapeDate,
		}
	}
	return out
}

func HospitalizationsRows(in []models.StatewideHospitalizationsDate) []HospitalizationsRow {
	dates := make([]models.Date, len(in))
	hosp, icu := make([]*int, len(in)), make([]*int, len(in))
	for i, r := range in {
		dates[i], hosp[i], icu[i] = *r.ReportedDate, r.NewHospAdmissions, r.NewICUAdmissions
	}
	hospRolling, icuRolling := Rolling(dates, hosp), Rolling(dates, icu)

	out := make([]HospitalizationsRow, len(in))
	for i, r := range in {
		out[i] = HospitalizationsRow{
			ReportedDate:             *r.ReportedDate,
			NewHospAdmissions:        r.NewHospAdmissions,
			NewHospAdmissionsRolling: hospRolling[i],
			NewICUAdmissions:         r.NewICUAdmissions,
			NewICUAdmissionsRolling:  icuRolling[i],
			TotalHospitalizations:    r.TotalHospitalizations,
			TotalICUAdmissions:       r.TotalICUAdmissions,
			ScrapeDate:               r.ScrapeDate,
		}
	}
	return out
}
