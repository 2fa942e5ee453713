// database/county_observation_store.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gewnthar/mncovid/models"
)

var countyTestCols = []string{
	"county_id", "scrape_date", "update_date", "daily_total_cases", "cumulative_count",
	"cumulative_confirmed_cases", "cumulative_probable_cases", "daily_deaths", "cumulative_deaths",
}

var selectCountyTest = "SELECT ctd.id, ctd." + strings.Join(countyTestCols, ", ctd.") + ", c.name" +
	" FROM county_test_dates ctd JOIN counties c ON c.id = ctd.county_id"

func scanCountyTest(s interface{ Scan(...any) error }) (models.CountyTestDate, error) {
	var r models.CountyTestDate
	err := s.Scan(&r.ID, &r.CountyID, &r.ScrapeDate, &r.UpdateDate, &r.DailyTotalCases, &r.CumulativeCount,
		&r.CumulativeConfirmedCases, &r.CumulativeProbableCases, &r.DailyDeaths, &r.CumulativeDeaths, &r.CountyName)
	return r, err
}

func (c conn) countyTest(ctx context.Context, query string, args ...any) (*models.CountyTestDate, error) {
	r, err := scanCountyTest(c.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// LatestCountyTestBefore returns the county's newest row strictly before
// scrapeDate, or nil, nil for a county never seen before.
func (c conn) LatestCountyTestBefore(ctx context.Context, countyID int64, scrapeDate models.Date) (*models.CountyTestDate, error) {
	r, err := c.countyTest(ctx,
		selectCountyTest+" WHERE ctd.county_id = ? AND ctd.scrape_date < ? ORDER BY ctd.scrape_date DESC LIMIT 1",
		countyID, scrapeDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query previous observation for county %d: %w", countyID, err)
	}
	return r, nil
}

// GetCountyTest returns the (county, scrape_date) row, optionally locked.
func (c conn) GetCountyTest(ctx context.Context, countyID int64, scrapeDate models.Date, lock bool) (*models.CountyTestDate, error) {
	r, err := c.countyTest(ctx,
		selectCountyTest+" WHERE ctd.county_id = ? AND ctd.scrape_date = ?"+c.dialect.forUpdate(lock),
		countyID, scrapeDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query observation for county %d on %s: %w", countyID, scrapeDate, err)
	}
	return r, nil
}

// UpsertCountyTest writes the row keyed by (county_id, scrape_date).
func (c conn) UpsertCountyTest(ctx context.Context, r *models.CountyTestDate) error {
	_, err := c.q.ExecContext(ctx, c.dialect.upsert("county_test_dates", countyTestCols, []string{"county_id", "scrape_date"}),
		r.CountyID, r.ScrapeDate, r.UpdateDate, r.DailyTotalCases, r.CumulativeCount,
		r.CumulativeConfirmedCases, r.CumulativeProbableCases, r.DailyDeaths, r.CumulativeDeaths)
	if err != nil {
		return fmt.Errorf("failed to upsert observation for county %d on %s: %w", r.CountyID, r.ScrapeDate, err)
	}
	return nil
}

// ListCountyTests returns every county row on or before asOf (zero for all),
// ordered by county name then scrape date.
func (c conn) ListCountyTests(ctx context.Context, asOf models.Date) ([]models.CountyTestDate, error) {
	query := selectCountyTest
	var args []any
	if !asOf.IsZero() {
		query += " WHERE ctd.scrape_date <= ?"
		args = append(args, asOf)
	}
	rows, err := queryAll(ctx, c.q, query+" ORDER BY c.name, ctd.scrape_date", args,
		func(r *sql.Rows) (models.CountyTestDate, error) { return scanCountyTest(r) })
	if err != nil {
		return nil, fmt.Errorf("failed to list county observations: %w", err)
	}
	return rows, nil
}

// LatestCountyTests returns each county's newest row on or before asOf (zero
// for no bound) joined with its reference row. Counties never observed are
// left out.
func (c conn) LatestCountyTests(ctx context.Context, asOf models.Date) ([]models.CountyLatest, error) {
	var (
		where string
		args  []any
	)
	if !asOf.IsZero() {
		where = " WHERE scrape_date <= ?"
		args = append(args, asOf)
	}
	query := "SELECT c.id, c." + strings.Join(countyCols, ", c.") +
		", ctd.scrape_date, ctd.cumulative_count, ctd.cumulative_deaths, ctd.daily_total_cases, ctd.daily_deaths" +
		" FROM county_test_dates ctd" +
		" JOIN (SELECT county_id, MAX(scrape_date) AS scrape_date FROM county_test_dates" + where + " GROUP BY county_id) latest" +
		" ON latest.county_id = ctd.county_id AND latest.scrape_date = ctd.scrape_date" +
		" JOIN counties c ON c.id = ctd.county_id" +
		" ORDER BY c.name"

	rows, err := queryAll(ctx, c.q, query, args, func(r *sql.Rows) (models.CountyLatest, error) {
		var l models.CountyLatest
		err := r.Scan(&l.County.ID, &l.County.Name, &l.County.FIPS, &l.County.Latitude, &l.County.Longitude,
			&l.County.Pop2010, &l.County.Pop2019,
			&l.ScrapeDate, &l.CumulativeCount, &l.CumulativeDeaths, &l.DailyTotalCases, &l.DailyDeaths)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query latest county observations: %w", err)
	}
	return rows, nil
}
