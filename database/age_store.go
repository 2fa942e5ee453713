// database/age_store.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gewnthar/mncovid/models"
)

var statewideAgeCols = []string{
	"scrape_date", "age_group", "age_min", "age_max", "cases_pct", "deaths_pct", "case_count", "death_count",
}

func scanStatewideAge(r *sql.Rows) (models.StatewideAgeDate, error) {
	var a models.StatewideAgeDate
	err := r.Scan(&a.ID, &a.ScrapeDate, &a.AgeGroup, &a.AgeMin, &a.AgeMax, &a.CasesPct, &a.DeathsPct,
		&a.CaseCount, &a.DeathCount)
	return a, err
}

// UpsertStatewideAge writes the row keyed by (scrape_date, age_group).
func (c conn) UpsertStatewideAge(ctx context.Context, a *models.StatewideAgeDate) error {
	_, err := c.q.ExecContext(ctx, c.dialect.upsert("statewide_age_dates", statewideAgeCols, []string{"scrape_date", "age_group"}),
		a.ScrapeDate, a.AgeGroup, a.AgeMin, a.AgeMax, a.CasesPct, a.DeathsPct, a.CaseCount, a.DeathCount)
	if err != nil {
		return fmt.Errorf("failed to upsert age group %s for %s: %w", a.AgeGroup, a.ScrapeDate, err)
	}
	return nil
}

// ListStatewideAges returns the rows captured on scrapeDate, youngest group
// first. Groups without bounds sort last.
func (c conn) ListStatewideAges(ctx context.Context, scrapeDate models.Date) ([]models.StatewideAgeDate, error) {
	rows, err := queryAll(ctx, c.q,
		"SELECT id, "+strings.Join(statewideAgeCols, ", ")+" FROM statewide_age_dates WHERE scrape_date = ?"+
			" ORDER BY CASE WHEN age_min IS NULL THEN 1 ELSE 0 END, age_min, age_group",
		[]any{scrapeDate}, scanStatewideAge)
	if err != nil {
		return nil, fmt.Errorf("failed to list age groups for %s: %w", scrapeDate, err)
	}
	return rows, nil
}

// LatestStatewideAges returns the age rows of the newest scrape on or before
// asOf (zero for no bound).
func (c conn) LatestStatewideAges(ctx context.Context, asOf models.Date) ([]models.StatewideAgeDate, error) {
	query := "SELECT MAX(scrape_date) FROM statewide_age_dates"
	var args []any
	if !asOf.IsZero() {
		query += " WHERE scrape_date <= ?"
		args = append(args, asOf)
	}
	var latest *models.Date
	if err := c.q.QueryRowContext(ctx, query, args...).Scan(&latest); err != nil {
		return nil, fmt.Errorf("failed to find latest age scrape: %w", err)
	}
	if latest == nil {
		return nil, nil
	}
	return c.ListStatewideAges(ctx, *latest)
}
