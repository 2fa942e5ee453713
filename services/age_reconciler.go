// services/age_reconciler.go
package services

import (
	"context"

	"github.com/gewnthar/mncovid/database"
	"github.com/gewnthar/mncovid/models"
)

// ReconcileAges upserts one row per (scrapeDate, age group). Bounds come from
// the label.
func (r *Reconciler) ReconcileAges(ctx context.Context, scrapeDate models.Date, obs []models.AgeObservation) (int, error) {
	err := r.store.WithTx(ctx, func(tx *database.Tx) error {
		for _, o := range obs {
			row := models.StatewideAgeDate{
				ScrapeDate: scrapeDate,
				AgeGroup:   o.AgeGroup,
				CasesPct:   o.CasesPct,
				DeathsPct:  o.DeathsPct,
				CaseCount:  o.CaseCount,
				DeathCount: o.DeathCount,
			}
			row.SetAgeBounds()
			if err := tx.UpsertStatewideAge(ctx, &row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.rowsWritten("statewide_age_dates", len(obs))
	r.logger.Info("updated age records", "scrape_date", scrapeDate, "groups", len(obs))
	return len(obs), nil
}
