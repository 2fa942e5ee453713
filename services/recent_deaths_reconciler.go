// services/recent_deaths_reconciler.go
package services

import (
	"cmp"
	"context"
	"database/sql"
	"slices"

	"github.com/gewnthar/mncovid/database"
	"github.com/gewnthar/mncovid/models"
)

// DeathsResult summarizes one recent deaths reconciliation.
type DeathsResult struct {
	Added         int
	Removed       int
	ConfirmedZero bool // Table absent, daily cell reads 0
	Skipped       bool // Table present but empty
}

// ReconcileRecentDeaths converges the Death rows for scrapeDate to the parsed
// breakdown: per (county, age group) it synthesizes or removes rows until
// the stored count equals the parsed count. Groups stored but no longer
// listed are reduced to zero. Running it again on the same breakdown writes
// nothing.
func (r *Reconciler) ReconcileRecentDeaths(ctx context.Context, scrapeDate models.Date, rd *models.RecentDeaths) (*DeathsResult, error) {
	res := &DeathsResult{}
	if !rd.Present {
		if rd.DailyTotal != nil && *rd.DailyTotal == 0 {
			r.logger.Info("no recent deaths table, daily deaths cell confirms zero", "scrape_date", scrapeDate)
			res.ConfirmedZero = true
			return res, nil
		}
		return nil, &AmbiguousZeroDeathsError{Cell: rd.DailyTotal, Text: rd.DailyTotalText}
	}
	if len(rd.Groups) == 0 {
		r.logger.Warn("recent deaths table has no rows, keeping stored deaths", "scrape_date", scrapeDate)
		res.Skipped = true
		return res, nil
	}

	err := r.store.WithTx(ctx, func(tx *database.Tx) error {
		res.Added, res.Removed = 0, 0

		target := make(map[models.DeathGroup]int)
		countyIDs := make(map[string]sql.NullInt64)
		for _, g := range rd.Groups {
			id, ok := countyIDs[g.County]
			if !ok && g.County != "" {
				county, err := tx.GetCountyByName(ctx, g.County)
				if err != nil {
					return err
				}
				if county == nil {
					return &CountyNotFoundError{Name: g.County}
				}
				id = sql.NullInt64{Int64: county.ID, Valid: true}
				countyIDs[g.County] = id
			}
			target[models.DeathGroup{CountyID: id, AgeGroup: g.AgeGroup}] += g.Count
		}

		existing, err := tx.CountDeathsByGroup(ctx, scrapeDate)
		if err != nil {
			return err
		}

		for _, g := range sortedGroups(target, existing) {
			delta := target[g] - existing[g]
			switch {
			case delta > 0:
				if err := tx.InsertDeaths(ctx, scrapeDate, g, delta); err != nil {
					return err
				}
				r.logger.Info("adding deaths", "county_id", g.CountyID.Int64, "unknown_county", !g.CountyID.Valid, "age_group", g.AgeGroup, "count", delta)
				res.Added += delta
			case delta < 0:
				n, err := tx.DeleteDeaths(ctx, scrapeDate, g, -delta)
				if err != nil {
					return err
				}
				r.logger.Warn("subtracting deaths", "county_id", g.CountyID.Int64, "unknown_county", !g.CountyID.Valid, "age_group", g.AgeGroup, "count", n)
				res.Removed += n
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.rowsWritten("deaths", res.Added+res.Removed)
	if res.Removed > 0 {
		r.retraction("recent_deaths")
	}
	if res.Added == 0 && res.Removed == 0 {
		r.logger.Info("no death updates needed", "scrape_date", scrapeDate)
	}
	return res, nil
}

// sortedGroups is the union of both key sets in a stable order.
func sortedGroups(a, b map[models.DeathGroup]int) []models.DeathGroup {
	seen := make(map[models.DeathGroup]bool, len(a)+len(b))
	var groups []models.DeathGroup
	for _, m := range []map[models.DeathGroup]int{a, b} {
		for g := range m {
			if !seen[g] {
				seen[g] = true
				groups = append(groups, g)
			}
		}
	}
	slices.SortFunc(groups, func(x, y models.DeathGroup) int {
		if c := cmp.Compare(x.CountyID.Int64, y.CountyID.Int64); c != 0 {
			return c
		}
		return cmp.Compare(x.AgeGroup, y.AgeGroup)
	})
	return groups
}
