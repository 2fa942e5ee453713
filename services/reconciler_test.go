package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/gewnthar/mncovid/config"
	"github.com/gewnthar/mncovid/database"
	"github.com/gewnthar/mncovid/metrics"
	"github.com/gewnthar/mncovid/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

var day = models.NewDate(2020, 11, 10)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(v int) *int { return &v }

func newTestStore(t *testing.T, counties ...string) *database.Store {
	t.Helper()
	ctx := context.Background()
	store, err := database.Open(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"}, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(ctx))

	for i, name := range counties {
		require.NoError(t, store.UpsertCounty(ctx, models.County{Name: name, FIPS: string(rune('A' + i))}))
	}
	return store
}

func newTestReconciler(t *testing.T, counties ...string) (*Reconciler, *database.Store, *metrics.Metrics) {
	t.Helper()
	store := newTestStore(t, counties...)
	m := metrics.New()
	return NewReconciler(store, m, discardLogger()), store, m
}

func countyID(t *testing.T, s *database.Store, name string) sql.NullInt64 {
	t.Helper()
	c, err := s.GetCountyByName(context.Background(), name)
	require.NoError(t, err)
	require.NotNil(t, c)
	return sql.NullInt64{Int64: c.ID, Valid: true}
}

func TestReconcileStatewide(t *testing.T) {
	r, store, _ := newTestReconciler(t)
	ctx := context.Background()
	require.NoError(t, store.UpsertStatewideTotal(ctx, &models.StatewideTotalDate{
		ScrapeDate:                day.AddDays(-1),
		CumulativePositiveTests:   1000,
		CumulativeStatewideDeaths: 50,
		CumulativeHospitalized:    200,
		CumulativeICU:             40,
		CumulativeCompletedTests:  9000,
	}))

	totals := &models.StatewideTotals{
		CumulativePositiveTests:   1042,
		CumulativeStatewideDeaths: 53,
		CumulativeHospitalized:    210,
		CumulativeICU:             40,
		CumulativeCompletedTests:  9500,
		CasesNewlyReported:        intPtr(45),
		RemovedCases:              intPtr(3),
	}
	res, err := r.ReconcileStatewide(ctx, day, day, totals)
	require.NoError(t, err)
	require.Empty(t, res.Retractions)

	got, err := store.GetStatewideTotal(ctx, day, false)
	require.NoError(t, err)
	require.Equal(t, 42, got.CasesDailyChange)
	require.Equal(t, 1042, got.CumulativePositiveTests)
	require.Equal(t, 3, got.DeathsDailyChange)
	require.Equal(t, 10, got.HospitalizedTotalDailyChange)
	require.Equal(t, 0, got.ICUTotalDailyChange)
	require.Equal(t, 500, got.TestsDailyChange)
	require.Equal(t, 45, *got.CasesNewlyReported)
	require.Equal(t, day, *got.UpdateDate)
}

func TestReconcileStatewideIsIdempotent(t *testing.T) {
	r, store, _ := newTestReconciler(t)
	ctx := context.Background()
	require.NoError(t, store.UpsertStatewideTotal(ctx, &models.StatewideTotalDate{ScrapeDate: day.AddDays(-1), CumulativePositiveTests: 1000}))

	totals := &models.StatewideTotals{CumulativePositiveTests: 1042}
	first, err := r.ReconcileStatewide(ctx, day, day, totals)
	require.NoError(t, err)
	second, err := r.ReconcileStatewide(ctx, day, day, totals)
	require.NoError(t, err)
	require.Equal(t, first.Row, second.Row)

	all, err := store.ListStatewideTotals(ctx, models.Date{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, 42, all[1].CasesDailyChange)
}

func TestReconcileStatewideMissingBaseline(t *testing.T) {
	r, store, _ := newTestReconciler(t)
	ctx := context.Background()
	// Two days back is not a baseline.
	require.NoError(t, store.UpsertStatewideTotal(ctx, &models.StatewideTotalDate{ScrapeDate: day.AddDays(-2), CumulativePositiveTests: 1000}))

	_, err := r.ReconcileStatewide(ctx, day, day, &models.StatewideTotals{CumulativePositiveTests: 1042})
	var missing *MissingBaselineError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, day.AddDays(-1), missing.Baseline)

	got, err := store.GetStatewideTotal(ctx, day, false)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestReconcileStatewideRetraction(t *testing.T) {
	r, store, m := newTestReconciler(t)
	ctx := context.Background()
	require.NoError(t, store.UpsertStatewideTotal(ctx, &models.StatewideTotalDate{ScrapeDate: day.AddDays(-1), CumulativePositiveTests: 1000, CumulativeICU: 10}))

	res, err := r.ReconcileStatewide(ctx, day, day, &models.StatewideTotals{CumulativePositiveTests: 990, CumulativeICU: 12})
	require.NoError(t, err)
	require.Equal(t, []string{"cases"}, res.Retractions)
	require.Equal(t, -10, res.Row.CasesDailyChange)
	require.Equal(t, 1.0, testutil.ToFloat64(m.Retractions.WithLabelValues("cases")))
	require.Contains(t, StatewideMessage("u", &res.Row), ":rotating_light: -10")
}

func TestReconcileCountiesFirstAppearance(t *testing.T) {
	r, store, _ := newTestReconciler(t, "Hennepin")
	ctx := context.Background()

	changes, err := r.ReconcileCounties(ctx, day, day, []models.CountyObservation{
		{County: " hennepin ", CumulativeCount: 5},
	})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.True(t, changes[0].NewCounty)
	require.Equal(t, 5, changes[0].Row.DailyTotalCases)
	require.Equal(t, 5, changes[0].Row.CumulativeCount)
	require.Contains(t, CountyMessage(changes), "NEW COUNTY 5")

	rows, err := store.ListCountyTests(ctx, models.Date{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 5, rows[0].DailyTotalCases)
}

func TestReconcileCountiesDeltaConsistency(t *testing.T) {
	r, store, m := newTestReconciler(t, "Hennepin", "Aitkin")
	ctx := context.Background()

	series := []struct {
		date     models.Date
		hennepin int
		aitkin   int
	}{
		{day.AddDays(-3), 10, 1},
		{day.AddDays(-2), 14, 1},
		{day.AddDays(-1), 13, 4},
		{day, 20, 4},
	}
	for _, s := range series {
		_, err := r.ReconcileCounties(ctx, s.date, s.date, []models.CountyObservation{
			{County: "Hennepin", CumulativeCount: s.hennepin, CumulativeDeaths: 1},
			{County: "Aitkin", CumulativeCount: s.aitkin},
		})
		require.NoError(t, err)
	}
	// Same-day re-run compares against yesterday, not the earlier run.
	_, err := r.ReconcileCounties(ctx, day, day, []models.CountyObservation{
		{County: "Hennepin", CumulativeCount: 20, CumulativeDeaths: 1},
		{County: "Aitkin", CumulativeCount: 4},
	})
	require.NoError(t, err)

	rows, err := store.ListCountyTests(ctx, models.Date{})
	require.NoError(t, err)
	require.Len(t, rows, 8)

	prev := map[int64]*models.CountyTestDate{}
	for i := range rows {
		row := &rows[i]
		if p, ok := prev[row.CountyID]; ok {
			require.Equal(t, row.CumulativeCount-p.CumulativeCount, row.DailyTotalCases, "%s %s", row.CountyName, row.ScrapeDate)
			require.Equal(t, row.CumulativeDeaths-p.CumulativeDeaths, row.DailyDeaths)
		} else {
			require.Equal(t, row.CumulativeCount, row.DailyTotalCases)
		}
		prev[row.CountyID] = row
	}
	// Hennepin went 14 -> 13 once.
	require.Equal(t, 1.0, testutil.ToFloat64(m.Retractions.WithLabelValues("county")))
}

func TestReconcileCountiesUnknownNameAbortsBatch(t *testing.T) {
	r, store, _ := newTestReconciler(t, "Hennepin")
	ctx := context.Background()

	_, err := r.ReconcileCounties(ctx, day, day, []models.CountyObservation{
		{County: "Hennepin", CumulativeCount: 5},
		{County: "Atlantis", CumulativeCount: 1},
	})
	var notFound *CountyNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "Atlantis", notFound.Name)

	rows, err := store.ListCountyTests(ctx, models.Date{})
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestReconcileTestsFullReplace(t *testing.T) {
	r, store, _ := newTestReconciler(t)
	ctx := context.Background()
	reported := models.NewDate(2020, 4, 1)

	parsed := func(n int) []models.StatewideTestsDate {
		return []models.StatewideTestsDate{
			{ReportedDate: reported.Ptr(), NewTests: intPtr(n)},
			{ReportedDate: models.NewDate(2020, 4, 2).Ptr(), NewTests: intPtr(80)},
		}
	}

	first := models.NewDate(2020, 4, 5)
	_, err := r.ReconcileTests(ctx, first, first, parsed(500))
	require.NoError(t, err)

	later := models.NewDate(2020, 4, 10)
	for range 2 {
		res, err := r.ReconcileTests(ctx, later, later, parsed(520))
		require.NoError(t, err)
		require.Equal(t, 2, res.Inserted)
	}

	n, err := store.CountTests(ctx, later)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	n, err = store.CountTests(ctx, first)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	asOf := func(d models.Date) int {
		rows, err := store.TestsAsOf(ctx, d)
		require.NoError(t, err)
		require.Equal(t, reported, *rows[0].ReportedDate)
		return *rows[0].NewTests
	}
	require.Equal(t, 520, asOf(later))
	require.Equal(t, 500, asOf(models.NewDate(2020, 4, 6)))
}

func TestReconcileSeriesEmptyParseKeepsRows(t *testing.T) {
	r, store, _ := newTestReconciler(t)
	ctx := context.Background()

	_, err := r.ReconcileDeathsSeries(ctx, day, day, []models.StatewideDeathsDate{{ReportedDate: day.Ptr(), NewDeaths: intPtr(4)}})
	require.NoError(t, err)
	res, err := r.ReconcileDeathsSeries(ctx, day, day, nil)
	require.NoError(t, err)
	require.True(t, res.Skipped)

	rows, err := store.DeathsSeriesAsOf(ctx, day)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, day, *rows[0].UpdateDate)
}

func TestReconcileCasesAndHospitalizations(t *testing.T) {
	r, store, m := newTestReconciler(t)
	ctx := context.Background()

	_, err := r.ReconcileCasesBySampleDate(ctx, day, day, []models.StatewideCasesBySampleDate{
		{SampleDate: day.AddDays(-1).Ptr(), NewCases: intPtr(30)},
		{SampleDate: nil, NewCases: intPtr(2)},
	})
	require.NoError(t, err)
	_, err = r.ReconcileHospitalizations(ctx, day, day, []models.StatewideHospitalizationsDate{
		{ReportedDate: day.AddDays(-1).Ptr(), NewHospAdmissions: intPtr(9)},
	})
	require.NoError(t, err)

	cases, err := store.CasesBySampleDateAsOf(ctx, day)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	require.Equal(t, day, cases[0].ScrapeDate)

	n, err := store.CountCasesBySampleDate(ctx, day)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, 2.0, testutil.ToFloat64(m.RowsWritten.WithLabelValues("statewide_cases_by_sample_dates")))
}

func TestReconcileRecentDeathsRemovesRevisedGroup(t *testing.T) {
	r, store, m := newTestReconciler(t, "Hennepin")
	ctx := context.Background()
	hennepin := models.DeathGroup{CountyID: countyID(t, store, "Hennepin"), AgeGroup: "50-64"}
	require.NoError(t, store.InsertDeaths(ctx, day, hennepin, 2))

	res, err := r.ReconcileRecentDeaths(ctx, day, &models.RecentDeaths{
		Present: true,
		Groups:  []models.RecentDeathGroup{{County: "Hennepin", AgeGroup: "50-64", Count: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Removed)
	require.Equal(t, 0, res.Added)

	counts, err := store.CountDeathsByGroup(ctx, day)
	require.NoError(t, err)
	require.Equal(t, map[models.DeathGroup]int{hennepin: 1}, counts)
	require.Equal(t, 1.0, testutil.ToFloat64(m.Retractions.WithLabelValues("recent_deaths")))
}

func TestReconcileRecentDeathsIsIdempotent(t *testing.T) {
	r, store, _ := newTestReconciler(t, "Hennepin", "Otter Tail")
	ctx := context.Background()
	rd := &models.RecentDeaths{Present: true, Groups: []models.RecentDeathGroup{
		{County: "Hennepin", AgeGroup: "50-64", Count: 2},
		{County: "Otter Tail", AgeGroup: "80-84", Count: 1},
		{County: "", AgeGroup: "90-94", Count: 1},
	}}

	res, err := r.ReconcileRecentDeaths(ctx, day, rd)
	require.NoError(t, err)
	require.Equal(t, 4, res.Added)

	res, err = r.ReconcileRecentDeaths(ctx, day, rd)
	require.NoError(t, err)
	require.Zero(t, res.Added)
	require.Zero(t, res.Removed)

	deaths, err := store.ListDeaths(ctx, day)
	require.NoError(t, err)
	require.Len(t, deaths, 4)
	unknown := 0
	for _, d := range deaths {
		if !d.CountyID.Valid {
			unknown++
		}
	}
	require.Equal(t, 1, unknown)
}

// Whatever is stored for the day, one pass leaves exactly the target.
func TestReconcileRecentDeathsConverges(t *testing.T) {
	names := []string{"Hennepin", "Ramsey", "Aitkin"}
	ages := []string{"50-64", "65-69", "85-89"}
	rng := rand.New(rand.NewSource(7))

	for trial := range 20 {
		r, store, _ := newTestReconciler(t, names...)
		ctx := context.Background()

		ids := map[string]sql.NullInt64{"": {}}
		for _, n := range names {
			ids[n] = countyID(t, store, n)
		}
		labels := append([]string{""}, names...)

		for _, c := range labels {
			for _, a := range ages {
				if n := rng.Intn(4); n > 0 {
					require.NoError(t, store.InsertDeaths(ctx, day, models.DeathGroup{CountyID: ids[c], AgeGroup: a}, n))
				}
			}
		}
		// Another day's rows must be left alone.
		require.NoError(t, store.InsertDeaths(ctx, day.AddDays(-1), models.DeathGroup{AgeGroup: "50-64"}, 3))

		want := map[models.DeathGroup]int{}
		var groups []models.RecentDeathGroup
		for _, c := range labels {
			for _, a := range ages {
				n := rng.Intn(4)
				if n == 0 {
					continue
				}
				groups = append(groups, models.RecentDeathGroup{County: c, AgeGroup: a, Count: n})
				want[models.DeathGroup{CountyID: ids[c], AgeGroup: a}] = n
			}
		}
		if len(groups) == 0 {
			continue
		}

		_, err := r.ReconcileRecentDeaths(ctx, day, &models.RecentDeaths{Present: true, Groups: groups})
		require.NoError(t, err)

		got, err := store.CountDeathsByGroup(ctx, day)
		require.NoError(t, err)
		require.Equal(t, want, got, "trial %d", trial)

		other, err := store.ListDeaths(ctx, day.AddDays(-1))
		require.NoError(t, err)
		require.Len(t, other, 3)
	}
}

func TestReconcileRecentDeathsMissingTable(t *testing.T) {
	r, _, _ := newTestReconciler(t)
	ctx := context.Background()

	res, err := r.ReconcileRecentDeaths(ctx, day, &models.RecentDeaths{DailyTotal: intPtr(0)})
	require.NoError(t, err)
	require.True(t, res.ConfirmedZero)

	var ambiguous *AmbiguousZeroDeathsError
	_, err = r.ReconcileRecentDeaths(ctx, day, &models.RecentDeaths{DailyTotal: intPtr(5)})
	require.ErrorAs(t, err, &ambiguous)
	require.Equal(t, 5, *ambiguous.Cell)

	_, err = r.ReconcileRecentDeaths(ctx, day, &models.RecentDeaths{})
	require.True(t, errors.As(err, &ambiguous))
	require.Nil(t, ambiguous.Cell)

	_, err = r.ReconcileRecentDeaths(ctx, day, &models.RecentDeaths{DailyTotalText: "five"})
	require.ErrorAs(t, err, &ambiguous)
	require.Equal(t, "five", ambiguous.Text)
	require.ErrorContains(t, err, `"five"`)
}

func TestReconcileRecentDeathsUnknownCounty(t *testing.T) {
	r, store, _ := newTestReconciler(t, "Hennepin")
	ctx := context.Background()

	_, err := r.ReconcileRecentDeaths(ctx, day, &models.RecentDeaths{Present: true, Groups: []models.RecentDeathGroup{
		{County: "Hennepin", AgeGroup: "50-64", Count: 2},
		{County: "Atlantis", AgeGroup: "50-64", Count: 1},
	}})
	var notFound *CountyNotFoundError
	require.ErrorAs(t, err, &notFound)

	deaths, err := store.ListDeaths(ctx, day)
	require.NoError(t, err)
	require.Empty(t, deaths)
}

func TestReconcileAges(t *testing.T) {
	r, store, _ := newTestReconciler(t)
	ctx := context.Background()

	obs := []models.AgeObservation{
		{AgeGroup: "50-64 years", CaseCount: intPtr(30120), CasesPct: intPtr(16)},
		{AgeGroup: "100+ years", CaseCount: intPtr(300), CasesPct: intPtr(-1)},
	}
	for range 2 {
		n, err := r.ReconcileAges(ctx, day, obs)
		require.NoError(t, err)
		require.Equal(t, 2, n)
	}

	ages, err := store.ListStatewideAges(ctx, day)
	require.NoError(t, err)
	require.Len(t, ages, 2)
	require.Equal(t, 50, *ages[0].AgeMin)
	require.Equal(t, 64, *ages[0].AgeMax)
	require.Equal(t, 100, *ages[1].AgeMin)
	require.Equal(t, models.OpenEndedAgeMax, *ages[1].AgeMax)
	require.Equal(t, -1, *ages[1].CasesPct)
}
