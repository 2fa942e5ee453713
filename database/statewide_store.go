// database/statewide_store.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gewnthar/mncovid/models"
)

var statewideTotalCols = []string{
	"scrape_date", "update_date",
	"cases_daily_change", "cases_newly_reported", "confirmed_cases_newly_reported",
	"probable_cases_newly_reported", "removed_cases", "deaths_daily_change", "tests_daily_change",
	"hospitalized_total_daily_change", "icu_total_daily_change",
	"cumulative_positive_tests", "cumulative_confirmed_cases", "cumulative_probable_cases",
	"cumulative_completed_tests", "cumulative_pcr_tests", "cumulative_antigen_tests",
	"cumulative_hospitalized", "cumulative_icu", "cumulative_statewide_deaths",
	"cumulative_confirmed_statewide_deaths", "cumulative_probable_statewide_deaths",
	"cumulative_statewide_recoveries",
}

var selectStatewideTotal = "SELECT id, " + strings.Join(statewideTotalCols, ", ") + " FROM statewide_total_dates"

func statewideTotalArgs(r *models.StatewideTotalDate) []any {
	return []any{
		r.ScrapeDate, r.UpdateDate,
		r.CasesDailyChange, r.CasesNewlyReported, r.ConfirmedCasesNewlyReported,
		r.ProbableCasesNewlyReported, r.RemovedCases, r.DeathsDailyChange, r.TestsDailyChange,
		r.HospitalizedTotalDailyChange, r.ICUTotalDailyChange,
		r.CumulativePositiveTests, r.CumulativeConfirmedCases, r.CumulativeProbableCases,
		r.CumulativeCompletedTests, r.CumulativePCRTests, r.CumulativeAntigenTests,
		r.CumulativeHospitalized, r.CumulativeICU, r.CumulativeStatewideDeaths,
		r.CumulativeConfirmedStatewideDeaths, r.CumulativeProbableStatewideDeaths,
		r.CumulativeStatewideRecoveries,
	}
}

func scanStatewideTotal(s interface{ Scan(...any) error }) (models.StatewideTotalDate, error) {
	var r models.StatewideTotalDate
	err := s.Scan(&r.ID, &r.ScrapeDate, &r.UpdateDate,
		&r.CasesDailyChange, &r.CasesNewlyReported, &r.ConfirmedCasesNewlyReported,
		&r.ProbableCasesNewlyReported, &r.RemovedCases, &r.DeathsDailyChange, &r.TestsDailyChange,
		&r.HospitalizedTotalDailyChange, &r.ICUTotalDailyChange,
		&r.CumulativePositiveTests, &r.CumulativeConfirmedCases, &r.CumulativeProbableCases,
		&r.CumulativeCompletedTests, &r.CumulativePCRTests, &r.CumulativeAntigenTests,
		&r.CumulativeHospitalized, &r.CumulativeICU, &r.CumulativeStatewideDeaths,
		&r.CumulativeConfirmedStatewideDeaths, &r.CumulativeProbableStatewideDeaths,
		&r.CumulativeStatewideRecoveries)
	return r, err
}

func (c conn) statewideTotal(ctx context.Context, query string, args ...any) (*models.StatewideTotalDate, error) {
	r, err := scanStatewideTotal(c.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetStatewideTotal returns the row for scrapeDate, or nil, nil. With lock set
// the row is locked for the rest of the transaction.
func (c conn) GetStatewideTotal(ctx context.Context, scrapeDate models.Date, lock bool) (*models.StatewideTotalDate, error) {
	r, err := c.statewideTotal(ctx, selectStatewideTotal+" WHERE scrape_date = ?"+c.dialect.forUpdate(lock), scrapeDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query statewide totals for %s: %w", scrapeDate, err)
	}
	return r, nil
}

// LatestStatewideTotal returns the newest row on or before asOf. A zero asOf
// means no upper bound.
func (c conn) LatestStatewideTotal(ctx context.Context, asOf models.Date) (*models.StatewideTotalDate, error) {
	query := selectStatewideTotal
	var args []any
	if !asOf.IsZero() {
		query += " WHERE scrape_date <= ?"
		args = append(args, asOf)
	}
	r, err := c.statewideTotal(ctx, query+" ORDER BY scrape_date DESC LIMIT 1", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest statewide totals: %w", err)
	}
	return r, nil
}

// UpsertStatewideTotal writes the row keyed by scrape_date.
func (c conn) UpsertStatewideTotal(ctx context.Context, r *models.StatewideTotalDate) error {
	_, err := c.q.ExecContext(ctx, c.dialect.upsert("statewide_total_dates", statewideTotalCols, []string{"scrape_date"}),
		statewideTotalArgs(r)...)
	if err != nil {
		return fmt.Errorf("failed to upsert statewide totals for %s: %w", r.ScrapeDate, err)
	}
	return nil
}

// ListStatewideTotals returns every row on or before asOf (zero for all),
// oldest first.
func (c conn) ListStatewideTotals(ctx context.Context, asOf models.Date) ([]models.StatewideTotalDate, error) {
	query := selectStatewideTotal
	var args []any
	if !asOf.IsZero() {
		query += " WHERE scrape_date <= ?"
		args = append(args, asOf)
	}
	rows, err := queryAll(ctx, c.q, query+" ORDER BY scrape_date", args,
		func(r *sql.Rows) (models.StatewideTotalDate, error) { return scanStatewideTotal(r) })
	if err != nil {
		return nil, fmt.Errorf("failed to list statewide totals: %w", err)
	}
	return rows, nil
}
