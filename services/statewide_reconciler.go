// services/statewide_reconciler.go
package services

import (
	"context"

	"github.com/gewnthar/mncovid/database"
	"github.com/gewnthar/mncovid/models"
)

// StatewideResult is the stored row plus the metrics whose cumulative value
// went down versus the baseline.
type StatewideResult struct {
	Row         models.StatewideTotalDate
	Retractions []string
}

// ReconcileStatewide computes today's deltas against the row for the day
// before scrapeDate and upserts today's row. Re-running the same day
// recomputes from the same baseline, so the stored row does not drift.
func (r *Reconciler) ReconcileStatewide(ctx context.Context, scrapeDate, updateDate models.Date, t *models.StatewideTotals) (*StatewideResult, error) {
	var res StatewideResult
	err := r.store.WithTx(ctx, func(tx *database.Tx) error {
		baselineDate := scrapeDate.AddDays(-1)
		baseline, err := tx.GetStatewideTotal(ctx, baselineDate, false)
		if err != nil {
			return err
		}
		if baseline == nil {
			return &MissingBaselineError{ScrapeDate: scrapeDate, Baseline: baselineDate}
		}

		existing, err := tx.GetStatewideTotal(ctx, scrapeDate, true)
		if err != nil {
			return err
		}

		row := models.StatewideTotalDate{
			ScrapeDate: scrapeDate,
			UpdateDate: updateDate.Ptr(),

			CasesNewlyReported:          t.CasesNewlyReported,
			ConfirmedCasesNewlyReported: t.ConfirmedCasesNewlyReported,
			ProbableCasesNewlyReported:  t.ProbableCasesNewlyReported,
			RemovedCases:                t.RemovedCases,

			CumulativePositiveTests:            t.CumulativePositiveTests,
			CumulativeConfirmedCases:           t.CumulativeConfirmedCases,
			CumulativeProbableCases:            t.CumulativeProbableCases,
			CumulativeCompletedTests:           t.CumulativeCompletedTests,
			CumulativePCRTests:                 t.CumulativePCRTests,
			CumulativeAntigenTests:             t.CumulativeAntigenTests,
			CumulativeHospitalized:             t.CumulativeHospitalized,
			CumulativeICU:                      t.CumulativeICU,
			CumulativeStatewideDeaths:          t.CumulativeStatewideDeaths,
			CumulativeConfirmedStatewideDeaths: t.CumulativeConfirmedStatewideDeaths,
			CumulativeProbableStatewideDeaths:  t.CumulativeProbableStatewideDeaths,
			CumulativeStatewideRecoveries:      t.CumulativeStatewideRecoveries,
		}

		deltas := []struct {
			metric     string
			dst        *int
			today, was int
		}{
			{"cases", &row.CasesDailyChange, t.CumulativePositiveTests, baseline.CumulativePositiveTests},
			{"deaths", &row.DeathsDailyChange, t.CumulativeStatewideDeaths, baseline.CumulativeStatewideDeaths},
			{"hospitalized", &row.HospitalizedTotalDailyChange, t.CumulativeHospitalized, baseline.CumulativeHospitalized},
			{"icu", &row.ICUTotalDailyChange, t.CumulativeICU, baseline.CumulativeICU},
			{"tests", &row.TestsDailyChange, t.CumulativeCompletedTests, baseline.CumulativeCompletedTests},
		}
		res.Retractions = nil
		for _, d := range deltas {
			*d.dst = d.today - d.was
			if *d.dst < 0 {
				res.Retractions = append(res.Retractions, d.metric)
			}
		}

		if err := tx.UpsertStatewideTotal(ctx, &row); err != nil {
			return err
		}
		if existing != nil {
			r.logger.Info("updated statewide totals", "scrape_date", scrapeDate, "cumulative_cases", row.CumulativePositiveTests)
		} else {
			r.logger.Info("created first statewide totals of day", "scrape_date", scrapeDate, "cumulative_cases", row.CumulativePositiveTests)
		}
		res.Row = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.rowsWritten("statewide_total_dates", 1)
	for _, m := range res.Retractions {
		r.retraction(m)
		r.logger.Warn("statewide cumulative value decreased", "metric", m, "scrape_date", scrapeDate)
	}
	return &res, nil
}
