// commands/update.go
package commands

import (
	"errors"

	"github.com/gewnthar/mncovid/database"
	"github.com/gewnthar/mncovid/metrics"
	"github.com/gewnthar/mncovid/notify"
	"github.com/gewnthar/mncovid/scraper"
	"github.com/gewnthar/mncovid/services"
	"github.com/spf13/cobra"
)

var updateOnly string

func init() {
	updateCmd.Flags().StringVar(&updateOnly, "only", "", "Comma separated steps to run: statewide,counties,timeseries,deaths,ages (default all).")
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update [--only steps]",
	Short: "Scrapes the situation page once and reconciles it into the database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, err := services.ParseSteps(updateOnly)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		m := metrics.New()
		updater := newUpdater(store, m)
		report, runErr := updater.Run(ctx, steps)
		if report != nil {
			logger.Info("update finished",
				"scrape_date", report.ScrapeDate,
				"update_date", report.UpdateDate,
				"fresh", report.Fresh,
				"outcomes", report.Outcomes)
		}

		if cfg.Metrics.PushgatewayURL != "" {
			if err := m.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
				logger.Warn("metrics push failed", "error", err)
				runErr = errors.Join(runErr, err)
			}
		}
		return runErr
	},
}

func newUpdater(store *database.Store, m *metrics.Metrics) *services.Updater {
	return services.NewUpdater(services.UpdaterConfig{
		Fetcher:   scraper.NewFetcher(cfg.Source, logger),
		Store:     store,
		Notifier:  notify.NewSlack(cfg.Notify, m, logger),
		Metrics:   m,
		Logger:    logger,
		Location:  cfg.Location,
		Locators:  scraper.LocatorsFromConfig(cfg.ScraperSelectors),
		Heartbeat: cfg.Heartbeat(),
	})
}
