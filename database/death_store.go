// database/death_store.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gewnthar/mncovid/models"
)

// CountDeathsByGroup returns how many death rows exist per (county, age
// group) for scrapeDate.
func (c conn) CountDeathsByGroup(ctx context.Context, scrapeDate models.Date) (map[models.DeathGroup]int, error) {
	rows, err := c.q.QueryContext(ctx,
		"SELECT county_id, age_group, COUNT(*) FROM deaths WHERE scrape_date = ? GROUP BY county_id, age_group",
		scrapeDate)
	if err != nil {
		return nil, fmt.Errorf("failed to count deaths for %s: %w", scrapeDate, err)
	}
	defer rows.Close()

	counts := make(map[models.DeathGroup]int)
	for rows.Next() {
		var (
			g models.DeathGroup
			n int
		)
		if err := rows.Scan(&g.CountyID, &g.AgeGroup, &n); err != nil {
			return nil, fmt.Errorf("failed to scan death count: %w", err)
		}
		counts[g] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate death counts: %w", err)
	}
	return counts, nil
}

// InsertDeaths adds n identical rows for the group.
func (c conn) InsertDeaths(ctx context.Context, scrapeDate models.Date, g models.DeathGroup, n int) error {
	args := make([][]any, n)
	for i := range args {
		args[i] = []any{scrapeDate, g.AgeGroup, nil, g.CountyID, nil}
	}
	return insertAll(ctx, c.q, "deaths", []string{"scrape_date", "age_group", "actual_age", "county_id", "bool_ltc"}, args)
}

// DeleteDeaths removes up to n rows of the group, newest ids first, and
// returns how many were removed.
func (c conn) DeleteDeaths(ctx context.Context, scrapeDate models.Date, g models.DeathGroup, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	countyCond, args := "county_id IS NULL", []any{scrapeDate, g.AgeGroup}
	if g.CountyID.Valid {
		countyCond = "county_id = ?"
		args = append(args, g.CountyID.Int64)
	}
	args = append(args, n)

	ids, err := queryAll(ctx, c.q,
		"SELECT id FROM deaths WHERE scrape_date = ? AND age_group = ? AND "+countyCond+" ORDER BY id DESC LIMIT ?",
		args, func(r *sql.Rows) (int64, error) {
			var id int64
			err := r.Scan(&id)
			return id, err
		})
	if err != nil {
		return 0, fmt.Errorf("failed to select deaths to remove: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	idArgs := make([]any, len(ids))
	for i, id := range ids {
		idArgs[i] = id
	}
	if _, err := c.q.ExecContext(ctx, "DELETE FROM deaths WHERE id IN ("+placeholders(len(ids))+")", idArgs...); err != nil {
		return 0, fmt.Errorf("failed to delete deaths: %w", err)
	}
	return len(ids), nil
}

// ListDeaths returns every death row for scrapeDate in insertion order.
func (c conn) ListDeaths(ctx context.Context, scrapeDate models.Date) ([]models.Death, error) {
	deaths, err := queryAll(ctx, c.q,
		"SELECT id, scrape_date, age_group, actual_age, county_id, bool_ltc FROM deaths WHERE scrape_date = ? ORDER BY id",
		[]any{scrapeDate}, func(r *sql.Rows) (models.Death, error) {
			var d models.Death
			err := r.Scan(&d.ID, &d.ScrapeDate, &d.AgeGroup, &d.ActualAge, &d.CountyID, &d.BoolLTC)
			return d, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list deaths for %s: %w", scrapeDate, err)
	}
	return deaths, nil
}

// DeathTotalsByDate returns the number of death rows per scrape date on or
// before asOf (zero for all), oldest first.
func (c conn) DeathTotalsByDate(ctx context.Context, asOf models.Date) ([]models.DeathCount, error) {
	query := "SELECT scrape_date, COUNT(*) FROM deaths"
	var args []any
	if !asOf.IsZero() {
		query += " WHERE scrape_date <= ?"
		args = append(args, asOf)
	}
	counts, err := queryAll(ctx, c.q, query+" GROUP BY scrape_date ORDER BY scrape_date", args,
		func(r *sql.Rows) (models.DeathCount, error) {
			var d models.DeathCount
			err := r.Scan(&d.ScrapeDate, &d.Count)
			return d, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to count deaths by date: %w", err)
	}
	return counts, nil
}
