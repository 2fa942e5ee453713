// commands/load_reference.go
package commands

import (
	"github.com/gewnthar/mncovid/services"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var (
	refCounties string
	refAgePops  string
)

func init() {
	loadReferenceCmd.Flags().StringVar(&refCounties, "counties", "", "County reference CSV (path or URL).")
	loadReferenceCmd.Flags().StringVar(&refAgePops, "age-pops", "", "Population by age group CSV (path or URL).")
	loadReferenceCmd.MarkFlagRequired("counties")
	rootCmd.AddCommand(loadReferenceCmd)
}

var loadReferenceCmd = &cobra.Command{
	Use:   "load-reference --counties <file> [--age-pops <file>]",
	Short: "Loads the county and age group population reference tables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		client := resty.New().
			SetHeader("user-agent", cfg.Source.UserAgent).
			SetTimeout(cfg.Source.Timeout)
		_, err = services.NewReferenceLoader(store, client, logger).Load(ctx, refCounties, refAgePops)
		return err
	},
}
