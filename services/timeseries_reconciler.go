// services/timeseries_reconciler.go
package services

import (
	"context"

	"github.com/gewnthar/mncovid/database"
	"github.com/gewnthar/mncovid/models"
)

// Series names, also used as metric labels and API path segments.
const (
	SeriesCases            = "cases"
	SeriesTests            = "tests"
	SeriesHospitalizations = "hospitalizations"
	SeriesDeaths           = "deaths"
)

// TimeseriesResult reports one full replace of a scrape's rows.
type TimeseriesResult struct {
	Series   string
	Deleted  int64
	Inserted int
	Skipped  bool
}

// replaceScrape deletes this scrape's earlier rows and inserts rows in one
// transaction. Older scrapes are never touched. An empty parse is skipped
// rather than wiping what an earlier run of the day stored.
func replaceScrape[T any](ctx context.Context, r *Reconciler, series, table string, scrapeDate models.Date, rows []T,
	del func(*database.Tx) (int64, error), ins func(*database.Tx, []T) error) (*TimeseriesResult, error) {
	res := &TimeseriesResult{Series: series}
	if len(rows) == 0 {
		r.logger.Warn("no rows parsed, keeping stored rows", "series", series, "scrape_date", scrapeDate)
		res.Skipped = true
		return res, nil
	}

	err := r.store.WithTx(ctx, func(tx *database.Tx) error {
		n, err := del(tx)
		if err != nil {
			return err
		}
		res.Deleted = n
		return ins(tx, rows)
	})
	if err != nil {
		return nil, err
	}
	res.Inserted = len(rows)

	r.rowsWritten(table, res.Inserted)
	r.logger.Info("replaced series rows", "series", series, "scrape_date", scrapeDate,
		"deleted", res.Deleted, "inserted", res.Inserted)
	return res, nil
}

func (r *Reconciler) ReconcileCasesBySampleDate(ctx context.Context, scrapeDate, updateDate models.Date, rows []models.StatewideCasesBySampleDate) (*TimeseriesResult, error) {
	for i := range rows {
		rows[i].ScrapeDate, rows[i].UpdateDate = scrapeDate, updateDate.Ptr()
	}
	return replaceScrape(ctx, r, SeriesCases, "statewide_cases_by_sample_dates", scrapeDate, rows,
		func(tx *database.Tx) (int64, error) { return tx.DeleteCasesBySampleDate(ctx, scrapeDate) },
		func(tx *database.Tx, rows []models.StatewideCasesBySampleDate) error {
			return tx.InsertCasesBySampleDate(ctx, rows)
		})
}

func (r *Reconciler) ReconcileTests(ctx context.Context, scrapeDate, updateDate models.Date, rows []models.StatewideTestsDate) (*TimeseriesResult, error) {
	for i := range rows {
		rows[i].ScrapeDate, rows[i].UpdateDate = scrapeDate, updateDate.Ptr()
	}
	return replaceScrape(ctx, r, SeriesTests, "statewide_tests_dates", scrapeDate, rows,
		func(tx *database.Tx) (int64, error) { return tx.DeleteTests(ctx, scrapeDate) },
		func(tx *database.Tx, rows []models.StatewideTestsDate) error { return tx.InsertTests(ctx, rows) })
}

func (r *Reconciler) ReconcileHospitalizations(ctx context.Context, scrapeDate, updateDate models.Date, rows []models.StatewideHospitalizationsDate) (*TimeseriesResult, error) {
	for i := range rows {
		rows[i].ScrapeDate, rows[i].UpdateDate = scrapeDate, updateDate.Ptr()
	}
	return replaceScrape(ctx, r, SeriesHospitalizations, "statewide_hospitalizations_dates", scrapeDate, rows,
		func(tx *database.Tx) (int64, error) { return tx.DeleteHospitalizations(ctx, scrapeDate) },
		func(tx *database.Tx, rows []models.StatewideHospitalizationsDate) error {
			return tx.InsertHospitalizations(ctx, rows)
		})
}

func (r *Reconciler) ReconcileDeathsSeries(ctx context.Context, scrapeDate, updateDate models.Date, rows []models.StatewideDeathsDate) (*TimeseriesResult, error) {
	for i := range rows {
		rows[i].ScrapeDate, rows[i].UpdateDate = scrapeDate, updateDate.Ptr()
	}
	return replaceScrape(ctx, r, SeriesDeaths, "statewide_deaths_dates", scrapeDate, rows,
		func(tx *database.Tx) (int64, error) { return tx.DeleteDeathsSeries(ctx, scrapeDate) },
		func(tx *database.Tx, rows []models.StatewideDeathsDate) error { return tx.InsertDeathsSeries(ctx, rows) })
}
