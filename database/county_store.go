// database/county_store.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gewnthar/mncovid/models"
)

var countyCols = []string{"name", "fips", "latitude", "longitude", "pop_2010", "pop_2019"}

func scanCounty(s interface{ Scan(...any) error }) (models.County, error) {
	var c models.County
	err := s.Scan(&c.ID, &c.Name, &c.FIPS, &c.Latitude, &c.Longitude, &c.Pop2010, &c.Pop2019)
	return c, err
}

// UpsertCounty inserts or updates a county keyed by FIPS.
func (c conn) UpsertCounty(ctx context.Context, county models.County) error {
	_, err := c.q.ExecContext(ctx, c.dialect.upsert("counties", countyCols, []string{"fips"}),
		county.Name, county.FIPS, county.Latitude, county.Longitude, county.Pop2010, county.Pop2019)
	if err != nil {
		return fmt.Errorf("failed to upsert county %s (%s): %w", county.Name, county.FIPS, err)
	}
	return nil
}

// GetCountyByName matches case-insensitively after trimming. Returns nil, nil
// when nothing matches.
func (c conn) GetCountyByName(ctx context.Context, name string) (*models.County, error) {
	row := c.q.QueryRowContext(ctx,
		"SELECT id, "+strings.Join(countyCols, ", ")+" FROM counties WHERE LOWER(name) = LOWER(?)",
		strings.TrimSpace(name))
	county, err := scanCounty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query county %q: %w", name, err)
	}
	return &county, nil
}

func (c conn) ListCounties(ctx context.Context) ([]models.County, error) {
	counties, err := queryAll(ctx, c.q,
		"SELECT id, "+strings.Join(countyCols, ", ")+" FROM counties ORDER BY name", nil,
		func(r *sql.Rows) (models.County, error) { return scanCounty(r) })
	if err != nil {
		return nil, fmt.Errorf("failed to list counties: %w", err)
	}
	return counties, nil
}

var ageGroupPopCols = []string{"age_group", "age_min", "age_max", "population", "pct_pop"}

func (c conn) UpsertAgeGroupPop(ctx context.Context, p models.AgeGroupPop) error {
	_, err := c.q.ExecContext(ctx, c.dialect.upsert("age_group_pops", ageGroupPopCols, []string{"age_group"}),
		p.AgeGroup, p.AgeMin, p.AgeMax, p.Population, p.PctPop)
	if err != nil {
		return fmt.Errorf("failed to upsert age group population %s: %w", p.AgeGroup, err)
	}
	return nil
}

func (c conn) ListAgeGroupPops(ctx context.Context) ([]models.AgeGroupPop, error) {
	pops, err := queryAll(ctx, c.q,
		"SELECT id, "+strings.Join(ageGroupPopCols, ", ")+" FROM age_group_pops ORDER BY age_min", nil,
		func(r *sql.Rows) (models.AgeGroupPop, error) {
			var p models.AgeGroupPop
			err := r.Scan(&p.ID, &p.AgeGroup, &p.AgeMin, &p.AgeMax, &p.Population, &p.PctPop)
			return p, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list age group populations: %w", err)
	}
	return pops, nil
}
