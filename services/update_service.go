// services/update_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/gewnthar/mncovid/database"
	"github.com/gewnthar/mncovid/metrics"
	"github.com/gewnthar/mncovid/models"
	"github.com/gewnthar/mncovid/notify"
	"github.com/gewnthar/mncovid/scraper"
	"github.com/jonboulle/clockwork"
)

// Step is one independently reconciled part of the situation page.
type Step string

const (
	StepStatewide  Step = "statewide"
	StepCounties   Step = "counties"
	StepTimeseries Step = "timeseries"
	StepDeaths     Step = "deaths"
	StepAges       Step = "ages"
)

var AllSteps = []Step{StepStatewide, StepCounties, StepTimeseries, StepDeaths, StepAges}

// gated steps only mutate state when the page was updated today.
func (s Step) gated() bool {
	return s == StepStatewide || s == StepCounties || s == StepDeaths
}

// ParseSteps reads a comma separated step list. Empty means all steps.
func ParseSteps(s string) ([]Step, error) {
	if strings.TrimSpace(s) == "" {
		return AllSteps, nil
	}
	var steps []Step
	for _, part := range strings.Split(s, ",") {
		step := Step(strings.TrimSpace(part))
		if !slices.Contains(AllSteps, step) {
			return nil, fmt.Errorf("unknown step %q", part)
		}
		if !slices.Contains(steps, step) {
			steps = append(steps, step)
		}
	}
	return steps, nil
}

// PageFetcher returns the raw situation page.
type PageFetcher interface {
	FetchSituationPage(ctx context.Context) ([]byte, error)
	URL() string
}

type UpdaterConfig struct {
	Fetcher   PageFetcher
	Store     *database.Store
	Notifier  notify.Notifier
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Clock     clockwork.Clock
	Location  *time.Location
	Locators  scraper.Locators
	Heartbeat bool
}

// Updater runs one scrape: fetch, parse, gate on freshness, then each
// selected reconciler. Reconcilers are independent: one failing does not stop
// the others.
type Updater struct {
	cfg        UpdaterConfig
	reconciler *Reconciler
	log        *slog.Logger
}

func NewUpdater(cfg UpdaterConfig) *Updater {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Updater{
		cfg:        cfg,
		reconciler: NewReconciler(cfg.Store, cfg.Metrics, cfg.Logger),
		log:        cfg.Logger,
	}
}

// Report describes one run.
type Report struct {
	ScrapeDate models.Date     `json:"scrape_date"`
	UpdateDate models.Date     `json:"update_date"`
	Fresh      bool            `json:"fresh"`
	Outcomes   map[Step]string `json:"outcomes"`
}

// Run executes steps (all when empty). The returned error joins every step
// failure; each failure has already been sent to the operator channel.
func (u *Updater) Run(ctx context.Context, steps []Step) (*Report, error) {
	if len(steps) == 0 {
		steps = AllSteps
	}

	html, err := u.cfg.Fetcher.FetchSituationPage(ctx)
	if err != nil {
		u.cfg.Metrics.ScrapeFailures.WithLabelValues("fetch").Inc()
		u.log.Error("failed to fetch situation page", "error", err)
		u.cfg.Notifier.Notify(ctx, FetchErrorMessage, notify.Ops)
		return nil, err
	}

	page, err := scraper.ParsePage(html, u.cfg.Locators)
	if err != nil {
		return nil, u.structural(ctx, err)
	}
	updateDate, err := page.UpdateDate()
	if err != nil {
		return nil, u.structural(ctx, err)
	}

	report := &Report{
		ScrapeDate: scraper.Today(u.cfg.Clock.Now(), u.cfg.Location),
		UpdateDate: updateDate,
		Outcomes:   make(map[Step]string, len(steps)),
	}
	report.Fresh = scraper.IsFresh(updateDate, report.ScrapeDate)
	if report.Fresh {
		u.log.Info("situation page updated today", "update_date", updateDate)
	} else {
		u.log.Info("no update yet today", "update_date", updateDate, "scrape_date", report.ScrapeDate)
	}

	var errs []error
	for _, step := range steps {
		if step.gated() && !report.Fresh {
			report.Outcomes[step] = metrics.OutcomeSkipped
			u.cfg.Metrics.ReconcileRuns.WithLabelValues(string(step), metrics.OutcomeSkipped).Inc()
			continue
		}

		if err := u.runStep(ctx, step, page, report); err != nil {
			report.Outcomes[step] = metrics.OutcomeError
			u.cfg.Metrics.ReconcileRuns.WithLabelValues(string(step), metrics.OutcomeError).Inc()
			errs = append(errs, u.stepFailed(ctx, step, err))
			continue
		}
		report.Outcomes[step] = metrics.OutcomeSuccess
		u.cfg.Metrics.ReconcileRuns.WithLabelValues(string(step), metrics.OutcomeSuccess).Inc()
	}
	return report, errors.Join(errs...)
}

func (u *Updater) runStep(ctx context.Context, step Step, page *scraper.Page, report *Report) error {
	switch step {
	case StepStatewide:
		return u.statewide(ctx, page, report)
	case StepCounties:
		return u.counties(ctx, page, report)
	case StepTimeseries:
		return u.timeseries(ctx, page, report)
	case StepDeaths:
		return u.recentDeaths(ctx, page, report)
	case StepAges:
		return u.ages(ctx, page, report)
	default:
		return fmt.Errorf("unknown step %q", step)
	}
}

// structural reports a page layout change and returns err.
func (u *Updater) structural(ctx context.Context, err error) error {
	u.cfg.Metrics.ScrapeFailures.WithLabelValues("structure").Inc()
	u.log.Error("situation page layout changed", "error", err)
	u.cfg.Notifier.Notify(ctx, fmt.Sprintf("SCRAPER ERROR: %v", err), notify.Ops)
	return err
}

func (u *Updater) stepFailed(ctx context.Context, step Step, err error) error {
	var (
		tableErr  *scraper.TableNotFoundError
		bannerErr *scraper.BannerNotFoundError
	)
	if errors.As(err, &tableErr) || errors.As(err, &bannerErr) {
		u.cfg.Metrics.ScrapeFailures.WithLabelValues("structure").Inc()
	}
	err = fmt.Errorf("%s: %w", step, err)
	u.log.Error("reconciler failed", "step", step, "error", err)
	u.cfg.Notifier.Notify(ctx, fmt.Sprintf("SCRAPER ERROR: %v", err), notify.Ops)
	return err
}

func (u *Updater) statewide(ctx context.Context, page *scraper.Page, report *Report) error {
	totals, err := page.StatewideTotals()
	if err != nil {
		return err
	}

	previous, err := u.cfg.Store.LatestStatewideTotal(ctx, models.Date{})
	if err != nil {
		return err
	}

	res, err := u.reconciler.ReconcileStatewide(ctx, report.ScrapeDate, report.UpdateDate, totals)
	if err != nil {
		return err
	}

	// Retractions are always announced, even when the case total held.
	changed := previous == nil || previous.CumulativePositiveTests != totals.CumulativePositiveTests
	if changed || len(res.Retractions) > 0 {
		u.cfg.Notifier.Notify(ctx, StatewideMessage(u.cfg.Fetcher.URL(), &res.Row), notify.Virus)
	} else if u.cfg.Heartbeat {
		u.cfg.Notifier.Notify(ctx, NoChangesMessage, notify.Ops)
	}
	return nil
}

func (u *Updater) counties(ctx context.Context, page *scraper.Page, report *Report) error {
	obs, err := page.Counties()
	if err != nil {
		return err
	}
	if len(obs) == 0 {
		u.cfg.Notifier.Notify(ctx, "COVID scraper warning: No county records found.", notify.Ops)
		return nil
	}

	changes, err := u.reconciler.ReconcileCounties(ctx, report.ScrapeDate, report.UpdateDate, obs)
	if err != nil {
		return err
	}
	if msg := CountyMessage(changes); msg != "" {
		u.cfg.Notifier.Notify(ctx, msg, notify.Tracking)
	}
	return nil
}

// timeseries replaces all four real-date tables. Each table is its own
// transaction, so one bad table does not block the rest.
func (u *Updater) timeseries(ctx context.Context, page *scraper.Page, report *Report) error {
	scrape, update, ref := report.ScrapeDate, report.UpdateDate, report.UpdateDate
	var errs []error

	if rows, err := page.CasesBySampleDate(ref); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", SeriesCases, err))
	} else if _, err := u.reconciler.ReconcileCasesBySampleDate(ctx, scrape, update, rows); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", SeriesCases, err))
	}

	if rows, err := page.Tests(ref); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", SeriesTests, err))
	} else if _, err := u.reconciler.ReconcileTests(ctx, scrape, update, rows); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", SeriesTests, err))
	}

	if rows, err := page.Hospitalizations(ref); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", SeriesHospitalizations, err))
	} else if _, err := u.reconciler.ReconcileHospitalizations(ctx, scrape, update, rows); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", SeriesHospitalizations, err))
	}

	if rows, err := page.Deaths(ref); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", SeriesDeaths, err))
	} else if _, err := u.reconciler.ReconcileDeathsSeries(ctx, scrape, update, rows); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", SeriesDeaths, err))
	}

	return errors.Join(errs...)
}

func (u *Updater) recentDeaths(ctx context.Context, page *scraper.Page, report *Report) error {
	rd, err := page.RecentDeaths()
	if err != nil {
		return err
	}
	if rd.Present && len(rd.Groups) == 0 {
		u.cfg.Notifier.Notify(ctx, "COVID scraper warning: No recent deaths records found.", notify.Ops)
	}
	_, err = u.reconciler.ReconcileRecentDeaths(ctx, report.ScrapeDate, rd)
	return err
}

func (u *Updater) ages(ctx context.Context, page *scraper.Page, report *Report) error {
	obs, err := page.Ages()
	if err != nil {
		return err
	}
	if len(obs) == 0 {
		u.cfg.Notifier.Notify(ctx, "COVID scraper warning: No age records found.", notify.Ops)
		return nil
	}
	if _, err := u.reconciler.ReconcileAges(ctx, report.ScrapeDate, obs); err != nil {
		return err
	}
	u.cfg.Notifier.Notify(ctx, AgesUpdatedMessage, notify.Ops)
	return nil
}
