// scraper/csv_parser.go
package scraper

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gewnthar/mncovid/models"
	"github.com/jszwec/csvutil"
)

// ParseCountiesCsv reads the county reference file. Headers must match the
// csv tags on models.County.
func ParseCountiesCsv(reader io.Reader, logger *slog.Logger) ([]models.County, error) {
	var counties []models.County

	decoder, err := csvutil.NewDecoder(csv.NewReader(reader))
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV decoder for counties: %w", err)
	}
	if err := decoder.Decode(&counties); err != nil {
		return nil, fmt.Errorf("failed to decode county CSV data: %w", err)
	}

	for i := range counties {
		counties[i].Name = strings.TrimSpace(counties[i].Name)
		if counties[i].Name == "" || counties[i].FIPS == "" {
			return nil, fmt.Errorf("county CSV row %d: name and fips are required", i+2)
		}
	}

	logger.Info("parsed county reference CSV", "counties", len(counties))
	return counties, nil
}

// ParseAgeGroupPopsCsv reads population by age bracket. Missing age bounds are
// derived from the label.
func ParseAgeGroupPopsCsv(reader io.Reader, logger *slog.Logger) ([]models.AgeGroupPop, error) {
	var pops []models.AgeGroupPop

	decoder, err := csvutil.NewDecoder(csv.NewReader(reader))
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV decoder for age group populations: %w", err)
	}
	if err := decoder.Decode(&pops); err != nil {
		return nil, fmt.Errorf("failed to decode age group population CSV data: %w", err)
	}

	for i := range pops {
		if pops[i].AgeMin == nil && pops[i].AgeMax == nil {
			pops[i].AgeMin, pops[i].AgeMax = models.ParseAgeGroup(pops[i].AgeGroup)
		}
	}

	logger.Info("parsed age group population CSV", "age_groups", len(pops))
	return pops, nil
}
