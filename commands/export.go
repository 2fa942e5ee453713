// commands/export.go
package commands

import (
	"github.com/gewnthar/mncovid/export"
	"github.com/gewnthar/mncovid/models"
	"github.com/spf13/cobra"
)

var (
	exportAsOf string
	exportOut  string
)

func init() {
	exportCmd.Flags().StringVar(&exportAsOf, "as-of", "", "Render the data as the scraper saw it on this date, YYYY-MM-DD (default everything stored).")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output directory (default exports.dir from the config).")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [--as-of YYYY-MM-DD] [--out dir]",
	Short: "Writes the CSV, GeoJSON and JSON exports from the database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var asOf models.Date
		if exportAsOf != "" {
			d, err := models.ParseDate(exportAsOf)
			if err != nil {
				return err
			}
			asOf = d
		}
		dir := exportOut
		if dir == "" {
			dir = cfg.Exports.Dir
		}

		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		written, err := export.NewExporter(store, logger).WriteAll(ctx, asOf, dir)
		if err != nil {
			return err
		}
		logger.Info("exports written", "dir", dir, "files", len(written))
		return nil
	},
}
