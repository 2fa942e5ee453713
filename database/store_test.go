package database

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/gewnthar/mncovid/config"
	"github.com/gewnthar/mncovid/models"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	store, err := Open(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(ctx))
	return store
}

func intPtr(v int) *int { return &v }

func seedCounty(t *testing.T, s *Store, name, fips string) models.County {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.UpsertCounty(ctx, models.County{Name: name, FIPS: fips, Pop2010: 1000, Pop2019: intPtr(1100)}))
	c, err := s.GetCountyByName(ctx, name)
	require.NoError(t, err)
	require.NotNil(t, c)
	return *c
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "postgres"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.ErrorContains(t, err, "unsupported database driver")
}

func TestDialectUpsert(t *testing.T) {
	require.Equal(t,
		"INSERT INTO t (a, b, c) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE b = VALUES(b), c = VALUES(c)",
		MySQL.upsert("t", []string{"a", "b", "c"}, []string{"a"}))
	require.Equal(t,
		"INSERT INTO t (a, b, c) VALUES (?, ?, ?) ON CONFLICT (a, b) DO UPDATE SET c = excluded.c",
		SQLite.upsert("t", []string{"a", "b", "c"}, []string{"a", "b"}))
	require.Equal(t, " FOR UPDATE", MySQL.forUpdate(true))
	require.Empty(t, MySQL.forUpdate(false))
	require.Empty(t, SQLite.forUpdate(true))
}

func TestCountyLookupIsCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedCounty(t, s, "Hennepin", "27053")

	c, err := s.GetCountyByName(ctx, "  HENNEPIN ")
	require.NoError(t, err)
	require.NotNil(t, c)
	require.Equal(t, "27053", c.FIPS)
	require.Equal(t, 1100, *c.Pop2019)

	c, err = s.GetCountyByName(ctx, "Nowhere")
	require.NoError(t, err)
	require.Nil(t, c)
}

func TestUpsertCountyByFIPS(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedCounty(t, s, "Otter", "27111")
	require.NoError(t, s.UpsertCounty(ctx, models.County{Name: "Otter Tail", FIPS: "27111", Pop2010: 57303}))

	counties, err := s.ListCounties(ctx)
	require.NoError(t, err)
	require.Len(t, counties, 1)
	require.Equal(t, "Otter Tail", counties[0].Name)
	require.Nil(t, counties[0].Pop2019)
}

func TestAgeGroupPops(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertAgeGroupPop(ctx, models.AgeGroupPop{AgeGroup: "20-29", AgeMin: intPtr(20), AgeMax: intPtr(29), Population: 700000}))
	require.NoError(t, s.UpsertAgeGroupPop(ctx, models.AgeGroupPop{AgeGroup: "0-5", AgeMin: intPtr(0), AgeMax: intPtr(5), Population: 400000}))
	require.NoError(t, s.UpsertAgeGroupPop(ctx, models.AgeGroupPop{AgeGroup: "0-5", AgeMin: intPtr(0), AgeMax: intPtr(5), Population: 410000}))

	pops, err := s.ListAgeGroupPops(ctx)
	require.NoError(t, err)
	require.Len(t, pops, 2)
	require.Equal(t, "0-5", pops[0].AgeGroup)
	require.Equal(t, 410000, pops[0].Population)
}

func TestStatewideTotalUpsertIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day := models.NewDate(2020, 11, 10)

	row := &models.StatewideTotalDate{
		ScrapeDate:              day,
		UpdateDate:              day.Ptr(),
		CasesDailyChange:        42,
		RemovedCases:            intPtr(3),
		CumulativePositiveTests: 1042,
	}
	require.NoError(t, s.UpsertStatewideTotal(ctx, row))
	require.NoError(t, s.UpsertStatewideTotal(ctx, row))

	all, err := s.ListStatewideTotals(ctx, models.Date{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, 42, all[0].CasesDailyChange)
	require.Equal(t, day, *all[0].UpdateDate)
	require.Equal(t, 3, *all[0].RemovedCases)
	require.Nil(t, all[0].CumulativeProbableCases)

	got, err := s.GetStatewideTotal(ctx, day.AddDays(-1), false)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestLatestStatewideTotal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i, n := range []int{1000, 1042, 1100} {
		require.NoError(t, s.UpsertStatewideTotal(ctx, &models.StatewideTotalDate{
			ScrapeDate:              models.NewDate(2020, 11, 8+i),
			CumulativePositiveTests: n,
		}))
	}

	latest, err := s.LatestStatewideTotal(ctx, models.Date{})
	require.NoError(t, err)
	require.Equal(t, 1100, latest.CumulativePositiveTests)

	latest, err = s.LatestStatewideTotal(ctx, models.NewDate(2020, 11, 9))
	require.NoError(t, err)
	require.Equal(t, 1042, latest.CumulativePositiveTests)

	latest, err = s.LatestStatewideTotal(ctx, models.NewDate(2020, 1, 1))
	require.NoError(t, err)
	require.Nil(t, latest)
}

func TestCountyTests(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	hennepin := seedCounty(t, s, "Hennepin", "27053")
	aitkin := seedCounty(t, s, "Aitkin", "27001")

	write := func(c models.County, day models.Date, cum int) {
		require.NoError(t, s.UpsertCountyTest(ctx, &models.CountyTestDate{
			CountyID: c.ID, ScrapeDate: day, CumulativeCount: cum, DailyTotalCases: 1,
		}))
	}
	write(hennepin, models.NewDate(2020, 11, 8), 10)
	write(hennepin, models.NewDate(2020, 11, 9), 12)
	write(hennepin, models.NewDate(2020, 11, 9), 13)
	write(aitkin, models.NewDate(2020, 11, 8), 4)

	prev, err := s.LatestCountyTestBefore(ctx, hennepin.ID, models.NewDate(2020, 11, 10))
	require.NoError(t, err)
	require.Equal(t, 13, prev.CumulativeCount)
	require.Equal(t, "Hennepin", prev.CountyName)

	prev, err = s.LatestCountyTestBefore(ctx, hennepin.ID, models.NewDate(2020, 11, 8))
	require.NoError(t, err)
	require.Nil(t, prev)

	all, err := s.ListCountyTests(ctx, models.Date{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "Aitkin", all[0].CountyName)

	latest, err := s.LatestCountyTests(ctx, models.Date{})
	require.NoError(t, err)
	require.Len(t, latest, 2)
	require.Equal(t, "Aitkin", latest[0].County.Name)
	require.Equal(t, 13, latest[1].CumulativeCount)

	latest, err = s.LatestCountyTests(ctx, models.NewDate(2020, 11, 8))
	require.NoError(t, err)
	require.Equal(t, 10, latest[1].CumulativeCount)
}

func TestTestsAsOfRevision(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	reported := models.NewDate(2020, 4, 1)

	insert := func(scrape models.Date, newTests int) {
		require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
			if _, err := tx.DeleteTests(ctx, scrape); err != nil {
				return err
			}
			return tx.InsertTests(ctx, []models.StatewideTestsDate{
				{ReportedDate: reported.Ptr(), NewTests: intPtr(newTests), ScrapeDate: scrape},
				{ReportedDate: nil, NewTests: intPtr(7), ScrapeDate: scrape},
			})
		}))
	}
	insert(models.NewDate(2020, 4, 5), 500)
	insert(models.NewDate(2020, 4, 10), 520)
	insert(models.NewDate(2020, 4, 10), 520)

	n, err := s.CountTests(ctx, models.NewDate(2020, 4, 10))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	rows, err := s.TestsAsOf(ctx, models.NewDate(2020, 4, 10))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 520, *rows[0].NewTests)

	rows, err = s.TestsAsOf(ctx, models.NewDate(2020, 4, 6))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 500, *rows[0].NewTests)

	rows, err = s.TestsAsOf(ctx, models.NewDate(2020, 4, 4))
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestSeriesAsOfOrdersByRealDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	scrape := models.NewDate(2020, 11, 10)

	require.NoError(t, s.InsertCasesBySampleDate(ctx, []models.StatewideCasesBySampleDate{
		{SampleDate: models.NewDate(2020, 11, 9).Ptr(), NewCases: intPtr(30), ScrapeDate: scrape},
		{SampleDate: models.NewDate(2020, 3, 5).Ptr(), NewCases: intPtr(1), ScrapeDate: scrape},
	}))
	require.NoError(t, s.InsertHospitalizations(ctx, []models.StatewideHospitalizationsDate{
		{ReportedDate: models.NewDate(2020, 11, 9).Ptr(), NewHospAdmissions: intPtr(4), ScrapeDate: scrape},
	}))
	require.NoError(t, s.InsertDeathsSeries(ctx, []models.StatewideDeathsDate{
		{ReportedDate: models.NewDate(2020, 11, 9).Ptr(), NewDeaths: intPtr(2), TotalDeaths: intPtr(2793), ScrapeDate: scrape},
	}))

	cases, err := s.CasesBySampleDateAsOf(ctx, scrape)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	require.Equal(t, models.NewDate(2020, 3, 5), *cases[0].SampleDate)

	hosp, err := s.HospitalizationsAsOf(ctx, scrape)
	require.NoError(t, err)
	require.Equal(t, 4, *hosp[0].NewHospAdmissions)
	require.Nil(t, hosp[0].NewICUAdmissions)

	deaths, err := s.DeathsSeriesAsOf(ctx, scrape)
	require.NoError(t, err)
	require.Equal(t, 2793, *deaths[0].TotalDeaths)

	n, err := s.DeleteCasesBySampleDate(ctx, scrape)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}

var errBoom = errors.New("boom")

func TestWithTxRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day := models.NewDate(2020, 11, 10)

	err := s.WithTx(ctx, func(tx *Tx) error {
		if err := tx.UpsertStatewideTotal(ctx, &models.StatewideTotalDate{ScrapeDate: day}); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	got, err := s.GetStatewideTotal(ctx, day, false)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestStatewideAges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day := models.NewDate(2020, 11, 10)

	for _, label := range []string{"Unknown/missing", "100+ years", "50-64 years"} {
		a := &models.StatewideAgeDate{ScrapeDate: day, AgeGroup: label, CaseCount: intPtr(5)}
		a.SetAgeBounds()
		require.NoError(t, s.UpsertStatewideAge(ctx, a))
	}
	require.NoError(t, s.UpsertStatewideAge(ctx, &models.StatewideAgeDate{ScrapeDate: day, AgeGroup: "50-64 years", CaseCount: intPtr(9), AgeMin: intPtr(50), AgeMax: intPtr(64)}))

	ages, err := s.LatestStatewideAges(ctx, models.Date{})
	require.NoError(t, err)
	require.Len(t, ages, 3)
	require.Equal(t, "50-64 years", ages[0].AgeGroup)
	require.Equal(t, 9, *ages[0].CaseCount)
	require.Equal(t, 200, *ages[1].AgeMax)
	require.Equal(t, "Unknown/missing", ages[2].AgeGroup)
	require.Nil(t, ages[2].AgeMin)

	ages, err = s.LatestStatewideAges(ctx, models.NewDate(2020, 11, 1))
	require.NoError(t, err)
	require.Empty(t, ages)
}

func TestDeathGroups(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day := models.NewDate(2020, 11, 10)
	hennepin := seedCounty(t, s, "Hennepin", "27053")

	known := models.DeathGroup{CountyID: sql.NullInt64{Int64: hennepin.ID, Valid: true}, AgeGroup: "50-64"}
	unknown := models.DeathGroup{AgeGroup: "90-94"}

	require.NoError(t, s.InsertDeaths(ctx, day, known, 3))
	require.NoError(t, s.InsertDeaths(ctx, day, unknown, 1))
	require.NoError(t, s.InsertDeaths(ctx, day.AddDays(-1), known, 5))

	counts, err := s.CountDeathsByGroup(ctx, day)
	require.NoError(t, err)
	require.Equal(t, map[models.DeathGroup]int{known: 3, unknown: 1}, counts)

	removed, err := s.DeleteDeaths(ctx, day, known, 2)
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	removed, err = s.DeleteDeaths(ctx, day, unknown, 5)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	counts, err = s.CountDeathsByGroup(ctx, day)
	require.NoError(t, err)
	require.Equal(t, map[models.DeathGroup]int{known: 1}, counts)

	deaths, err := s.ListDeaths(ctx, day.AddDays(-1))
	require.NoError(t, err)
	require.Len(t, deaths, 5)
	require.True(t, deaths[0].CountyID.Valid)
	require.Nil(t, deaths[0].ActualAge)

	totals, err := s.DeathTotalsByDate(ctx, models.Date{})
	require.NoError(t, err)
	require.Equal(t, []models.DeathCount{{ScrapeDate: day.AddDays(-1), Count: 5}, {ScrapeDate: day, Count: 1}}, totals)
}
