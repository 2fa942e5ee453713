// services/county_reconciler.go
package services

import (
	"context"

	"github.com/gewnthar/mncovid/database"
	"github.com/gewnthar/mncovid/models"
)

// CountyChange is one stored county row. NewCounty is set on a county's
// first ever observation, where the delta is the whole cumulative count.
type CountyChange struct {
	Row        models.CountyTestDate
	NewCounty  bool
	Retraction bool
}

// ReconcileCounties upserts one row per observed county for scrapeDate. The
// baseline for each county is its newest row before scrapeDate. An unmatched
// county name aborts the whole batch.
func (r *Reconciler) ReconcileCounties(ctx context.Context, scrapeDate, updateDate models.Date, obs []models.CountyObservation) ([]CountyChange, error) {
	var changes []CountyChange
	err := r.store.WithTx(ctx, func(tx *database.Tx) error {
		changes = changes[:0]
		for _, o := range obs {
			county, err := tx.GetCountyByName(ctx, o.County)
			if err != nil {
				return err
			}
			if county == nil {
				return &CountyNotFoundError{Name: o.County}
			}

			prev, err := tx.LatestCountyTestBefore(ctx, county.ID, scrapeDate)
			if err != nil {
				return err
			}
			existing, err := tx.GetCountyTest(ctx, county.ID, scrapeDate, true)
			if err != nil {
				return err
			}

			row := models.CountyTestDate{
				CountyID:                 county.ID,
				CountyName:               county.Name,
				ScrapeDate:               scrapeDate,
				UpdateDate:               updateDate.Ptr(),
				DailyTotalCases:          o.CumulativeCount,
				CumulativeCount:          o.CumulativeCount,
				CumulativeConfirmedCases: o.CumulativeConfirmedCases,
				CumulativeProbableCases:  o.CumulativeProbableCases,
				DailyDeaths:              o.CumulativeDeaths,
				CumulativeDeaths:         o.CumulativeDeaths,
			}
			change := CountyChange{NewCounty: prev == nil}
			if prev != nil {
				row.DailyTotalCases -= prev.CumulativeCount
				row.DailyDeaths -= prev.CumulativeDeaths
				change.Retraction = row.DailyTotalCases < 0 || row.DailyDeaths < 0
			}

			if err := tx.UpsertCountyTest(ctx, &row); err != nil {
				return err
			}
			if existing != nil {
				r.logger.Debug("updated county", "county", county.Name, "cumulative_count", row.CumulativeCount)
			} else {
				r.logger.Debug("created first county record of day", "county", county.Name, "cumulative_count", row.CumulativeCount)
			}

			change.Row = row
			changes = append(changes, change)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.rowsWritten("county_test_dates", len(changes))
	for _, c := range changes {
		if c.Retraction {
			r.retraction("county")
			r.logger.Warn("county cumulative value decreased", "county", c.Row.CountyName,
				"daily_cases", c.Row.DailyTotalCases, "daily_deaths", c.Row.DailyDeaths)
		}
	}
	r.logger.Info("reconciled counties", "scrape_date", scrapeDate, "counties", len(changes))
	return changes, nil
}
