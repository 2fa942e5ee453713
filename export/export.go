// export/export.go
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gewnthar/mncovid/database"
	"github.com/gewnthar/mncovid/models"
	"github.com/jszwec/csvutil"
)

const (
	CasesFile            = "mn_statewide_cases_by_sample_date.csv"
	TestsFile            = "mn_statewide_tests.csv"
	DeathsFile           = "mn_statewide_deaths.csv"
	HospitalizationsFile = "mn_statewide_hospitalizations.csv"
	CountyTallFile       = "mn_county_timeseries_tall.csv"
	LatestCountiesFile   = "mn_positive_tests_by_county.csv"
	LatestCountiesGeo    = "mn_positive_tests_by_county.geojson"
	ToplineFile          = "mn_statewide_latest.json"
	AgesFile             = "mn_ages_latest.json"
)

type Exporter struct {
	store  *database.Store
	logger *slog.Logger
}

func NewExporter(store *database.Store, logger *slog.Logger) *Exporter {
	return &Exporter{store: store, logger: logger}
}

// WriteAll renders every export as of asOf (zero for everything stored) into
// dir and returns the paths written. A missing statewide row skips the
// topline file rather than failing the run.
func (e *Exporter) WriteAll(ctx context.Context, asOf models.Date, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export dir %s: %w", dir, err)
	}

	var written []string
	write := func(name string, data []byte) error {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		e.logger.Info("wrote export", "file", path, "bytes", len(data))
		written = append(written, path)
		return nil
	}

	cases, err := e.store.CasesBySampleDateAsOf(ctx, asOf)
	if err != nil {
		return written, err
	}
	if err := writeCSV(write, CasesFile, CasesRows(cases)); err != nil {
		return written, err
	}

	tests, err := e.store.TestsAsOf(ctx, asOf)
	if err != nil {
		return written, err
	}
	if err := writeCSV(write, TestsFile, TestsRows(tests)); err != nil {
		return written, err
	}

	deaths, err := e.store.DeathsSeriesAsOf(ctx, asOf)
	if err != nil {
		return written, err
	}
	if err := writeCSV(write, DeathsFile, DeathsRows(deaths)); err != nil {
		return written, err
	}

	hosp, err := e.store.HospitalizationsAsOf(ctx, asOf)
	if err != nil {
		return written, err
	}
	if err := writeCSV(write, HospitalizationsFile, HospitalizationsRows(hosp)); err != nil {
		return written, err
	}

	countyRows, err := e.store.ListCountyTests(ctx, asOf)
	if err != nil {
		return written, err
	}
	if err := writeCSV(write, CountyTallFile, CountyTallRows(countyRows)); err != nil {
		return written, err
	}

	latest, err := e.store.LatestCountyTests(ctx, asOf)
	if err != nil {
		return written, err
	}
	latestRows := LatestCountyRows(latest)
	if err := writeCSV(write, LatestCountiesFile, latestRows); err != nil {
		return written, err
	}
	geo, err := LatestCountiesGeoJSON(latestRows)
	if err != nil {
		return written, fmt.Errorf("failed to encode county geojson: %w", err)
	}
	if err := write(LatestCountiesGeo, geo); err != nil {
		return written, err
	}

	top, err := e.store.LatestStatewideTotal(ctx, asOf)
	if err != nil {
		return written, err
	}
	if top == nil {
		e.logger.Warn("no statewide totals stored, skipping topline export", "as_of", asOf)
	} else if err := writeJSON(write, ToplineFile, ToplineOf(top)); err != nil {
		return written, err
	}

	ages, err := e.store.LatestStatewideAges(ctx, asOf)
	if err != nil {
		return written, err
	}
	pops, err := e.store.ListAgeGroupPops(ctx)
	if err != nil {
		return written, err
	}
	if err := writeJSON(write, AgesFile, AgeRows(ages, pops)); err != nil {
		return written, err
	}

	return written, nil
}

func writeCSV[T any](write func(string, []byte) error, name string, rows []T) error {
	if len(rows) == 0 {
		// Header only, so consumers still see the columns.
		header, err := csvutil.Header(*new(T), "csv")
		if err != nil {
			return fmt.Errorf("failed to build header for %s: %w", name, err)
		}
		var buf bytes.Buffer
		for i, h := range header {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(h)
		}
		buf.WriteByte('\n')
		return write(name, buf.Bytes())
	}
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return write(name, data)
}

func writeJSON(write func(string, []byte) error, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return write(name, append(data, '\n'))
}
