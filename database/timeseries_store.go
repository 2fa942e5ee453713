// database/timeseries_store.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gewnthar/mncovid/models"
)

// Series tables are indexed by a real date but re-captured on every scrape.
// A scrape's rows are replaced as a unit (delete by scrape_date, then insert);
// readers pick, per real date, the row from the newest scrape on or before
// the date they ask about.

type seriesTable struct {
	name    string
	dateCol string
	cols    []string // Value columns, between the real date and update_date
}

var (
	casesBySampleTable = seriesTable{
		name:    "statewide_cases_by_sample_dates",
		dateCol: "sample_date",
		cols:    []string{"new_cases", "total_cases", "new_pcr_tests", "new_antigen_tests", "total_pcr_tests", "total_antigen_tests"},
	}
	testsTable = seriesTable{
		name:    "statewide_tests_dates",
		dateCol: "reported_date",
		cols: []string{"new_state_tests", "new_external_tests", "new_pcr_tests", "new_antigen_tests",
			"total_pcr_tests", "total_antigen_tests", "new_tests", "total_tests"},
	}
	hospitalizationsTable = seriesTable{
		name:    "statewide_hospitalizations_dates",
		dateCol: "reported_date",
		cols:    []string{"new_hosp_admissions", "new_icu_admissions", "total_hospitalizations", "total_icu_admissions"},
	}
	deathsSeriesTable = seriesTable{
		name:    "statewide_deaths_dates",
		dateCol: "reported_date",
		cols:    []string{"new_deaths", "total_deaths"},
	}
)

func (t seriesTable) insertCols() []string {
	cols := append([]string{t.dateCol}, t.cols...)
	return append(cols, "update_date", "scrape_date")
}

// asOfQuery selects the current belief as of a scrape date: for each real
// date, the row from the greatest scrape_date <= ?. Rows with no real date
// ("Unknown/missing") are not part of the series.
func (t seriesTable) asOfQuery() string {
	cols := "t.id, t." + strings.Join(t.insertCols(), ", t.")
	return fmt.Sprintf(
		"SELECT %s FROM %s t JOIN (SELECT %s, MAX(scrape_date) AS scrape_date FROM %s"+
			" WHERE scrape_date <= ? AND %s IS NOT NULL GROUP BY %s) latest"+
			" ON latest.%s = t.%s AND latest.scrape_date = t.scrape_date ORDER BY t.%s",
		cols, t.name, t.dateCol, t.name, t.dateCol, t.dateCol, t.dateCol, t.dateCol, t.dateCol)
}

func (c conn) deleteScrape(ctx context.Context, t seriesTable, scrapeDate models.Date) (int64, error) {
	res, err := c.q.ExecContext(ctx, "DELETE FROM "+t.name+" WHERE scrape_date = ?", scrapeDate)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s rows for scrape %s: %w", t.name, scrapeDate, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted %s rows: %w", t.name, err)
	}
	return n, nil
}

func (c conn) countScrape(ctx context.Context, t seriesTable, scrapeDate models.Date) (int, error) {
	var n int
	err := c.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.name+" WHERE scrape_date = ?", scrapeDate).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s rows for scrape %s: %w", t.name, scrapeDate, err)
	}
	return n, nil
}

// --- cases by sample date

func (c conn) DeleteCasesBySampleDate(ctx context.Context, scrapeDate models.Date) (int64, error) {
	return c.deleteScrape(ctx, casesBySampleTable, scrapeDate)
}

func (c conn) CountCasesBySampleDate(ctx context.Context, scrapeDate models.Date) (int, error) {
	return c.countScrape(ctx, casesBySampleTable, scrapeDate)
}

func (c conn) InsertCasesBySampleDate(ctx context.Context, rows []models.StatewideCasesBySampleDate) error {
	args := make([][]any, 0, len(rows))
	for _, r := range rows {
		args = append(args, []any{r.SampleDate, r.NewCases, r.TotalCases, r.NewPCRTests, r.NewAntigenTests,
			r.TotalPCRTests, r.TotalAntigenTests, r.UpdateDate, r.ScrapeDate})
	}
	return insertAll(ctx, c.q, casesBySampleTable.name, casesBySampleTable.insertCols(), args)
}

// CasesBySampleDateAsOf is the series as it was believed on asOf, ordered by
// sample date.
func (c conn) CasesBySampleDateAsOf(ctx context.Context, asOf models.Date) ([]models.StatewideCasesBySampleDate, error) {
	rows, err := queryAll(ctx, c.q, casesBySampleTable.asOfQuery(), []any{asOf},
		func(s *sql.Rows) (models.StatewideCasesBySampleDate, error) {
			var r models.StatewideCasesBySampleDate
			err := s.Scan(&r.ID, &r.SampleDate, &r.NewCases, &r.TotalCases, &r.NewPCRTests, &r.NewAntigenTests,
				&r.TotalPCRTests, &r.TotalAntigenTests, &r.UpdateDate, &r.ScrapeDate)
			return r, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to read cases by sample date as of %s: %w", asOf, err)
	}
	return rows, nil
}

// --- tests

func (c conn) DeleteTests(ctx context.Context, scrapeDate models.Date) (int64, error) {
	return c.deleteScrape(ctx, testsTable, scrapeDate)
}

func (c conn) CountTests(ctx context.Context, scrapeDate models.Date) (int, error) {
	return c.countScrape(ctx, testsTable, scrapeDate)
}

func (c conn) InsertTests(ctx context.Context, rows []models.StatewideTestsDate) error {
	args := make([][]any, 0, len(rows))
	for _, r := range rows {
		args = append(args, []any{r.ReportedDate, r.NewStateTests, r.NewExternalTests, r.NewPCRTests, r.NewAntigenTests,
			r.TotalPCRTests, r.TotalAntigenTests, r.NewTests, r.TotalTests, r.UpdateDate, r.ScrapeDate})
	}
	return insertAll(ctx, c.q, testsTable.name, testsTable.insertCols(), args)
}

func (c conn) TestsAsOf(ctx context.Context, asOf models.Date) ([]models.StatewideTestsDate, error) {
	rows, err := queryAll(ctx, c.q, testsTable.asOfQuery(), []any{asOf},
		func(s *sql.Rows) (models.StatewideTestsDate, error) {
			var r models.StatewideTestsDate
			err := s.Scan(&r.ID, &r.ReportedDate, &r.NewStateTests, &r.NewExternalTests, &r.NewPCRTests, &r.NewAntigenTests,
				&r.TotalPCRTests, &r.TotalAntigenTests, &r.NewTests, &r.TotalTests, &r.UpdateDate, &r.ScrapeDate)
			return r, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to read tests as of %s: %w", asOf, err)
	}
	return rows, nil
}

// --- hospitalizations

func (c conn) DeleteHospitalizations(ctx context.Context, scrapeDate models.Date) (int64, error) {
	return c.deleteScrape(ctx, hospitalizationsTable, scrapeDate)
}

func (c conn) CountHospitalizations(ctx context.Context, scrapeDate models.Date) (int, error) {
	return c.countScrape(ctx, hospitalizationsTable, scrapeDate)
}

func (c conn) InsertHospitalizations(ctx context.Context, rows []models.StatewideHospitalizationsDate) error {
	args := make([][]any, 0, len(rows))
	for _, r := range rows {
		args = append(args, []any{r.ReportedDate, r.NewHospAdmissions, r.NewICUAdmissions,
			r.TotalHospitalizations, r.TotalICUAdmissions, r.UpdateDate, r.ScrapeDate})
	}
	return insertAll(ctx, c.q, hospitalizationsTable.name, hospitalizationsTable.insertCols(), args)
}

func (c conn) HospitalizationsAsOf(ctx context.Context, asOf models.Date) ([]models.StatewideHospitalizationsDate, error) {
	rows, err := queryAll(ctx, c.q, hospitalizationsTable.asOfQuery(), []any{asOf},
		func(s *sql.Rows) (models.StatewideHospitalizationsDate, error) {
			var r models.StatewideHospitalizationsDate
			err := s.Scan(&r.ID, &r.ReportedDate, &r.NewHospAdmissions, &r.NewICUAdmissions,
				&r.TotalHospitalizations, &r.TotalICUAdmissions, &r.UpdateDate, &r.ScrapeDate)
			return r, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to read hospitalizations as of %s: %w", asOf, err)
	}
	return rows, nil
}

// --- deaths by reported date

func (c conn) DeleteDeathsSeries(ctx context.Context, scrapeDate models.Date) (int64, error) {
	return c.deleteScrape(ctx, deathsSeriesTable, scrapeDate)
}

func (c conn) CountDeathsSeries(ctx context.Context, scrapeDate models.Date) (int, error) {
	return c.countScrape(ctx, deathsSeriesTable, scrapeDate)
}

func (c conn) InsertDeathsSeries(ctx context.Context, rows []models.StatewideDeathsDate) error {
	args := make([][]any, 0, len(rows))
	for _, r := range rows {
		args = append(args, []any{r.ReportedDate, r.NewDeaths, r.TotalDeaths, r.UpdateDate, r.ScrapeDate})
	}
	return insertAll(ctx, c.q, deathsSeriesTable.name, deathsSeriesTable.insertCols(), args)
}

func (c conn) DeathsSeriesAsOf(ctx context.Context, asOf models.Date) ([]models.StatewideDeathsDate, error) {
	rows, err := queryAll(ctx, c.q, deathsSeriesTable.asOfQuery(), []any{asOf},
		func(s *sql.Rows) (models.StatewideDeathsDate, error) {
			var r models.StatewideDeathsDate
			err := s.Scan(&r.ID, &r.ReportedDate, &r.NewDeaths, &r.TotalDeaths, &r.UpdateDate, &r.ScrapeDate)
			return r, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to read deaths by reported date as of %s: %w", asOf, err)
	}
	return rows, nil
}
