// services/reference_service.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gewnthar/mncovid/database"
	"github.com/gewnthar/mncovid/models"
	"github.com/gewnthar/mncovid/scraper"
	"github.com/go-resty/resty/v2"
)

// ReferenceLoader fills the counties and age_group_pops tables from CSV files.
// The reconcilers only read these tables.
type ReferenceLoader struct {
	store  *database.Store
	client *resty.Client
	logger *slog.Logger
}

func NewReferenceLoader(store *database.Store, client *resty.Client, logger *slog.Logger) *ReferenceLoader {
	return &ReferenceLoader{store: store, client: client, logger: logger}
}

type ReferenceResult struct {
	Counties  int
	AgeGroups int
}

// Load reads countiesSrc and, when set, agePopsSrc (local paths or URLs) and
// upserts every row in one transaction.
func (l *ReferenceLoader) Load(ctx context.Context, countiesSrc, agePopsSrc string) (ReferenceResult, error) {
	var res ReferenceResult

	counties, err := l.readCounties(ctx, countiesSrc)
	if err != nil {
		return res, err
	}
	var pops []models.AgeGroupPop
	if agePopsSrc != "" {
		if pops, err = l.readAgePops(ctx, agePopsSrc); err != nil {
			return res, err
		}
	}

	err = l.store.WithTx(ctx, func(tx *database.Tx) error {
		for _, c := range counties {
			if err := tx.UpsertCounty(ctx, c); err != nil {
				return err
			}
		}
		for _, p := range pops {
			if err := tx.UpsertAgeGroupPop(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("failed to load reference data: %w", err)
	}

	res.Counties, res.AgeGroups = len(counties), len(pops)
	l.logger.Info("loaded reference data", "counties", res.Counties, "age_groups", res.AgeGroups)
	return res, nil
}

func (l *ReferenceLoader) readCounties(ctx context.Context, src string) ([]models.County, error) {
	rc, err := scraper.OpenReferenceCsv(ctx, l.client, src)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return scraper.ParseCountiesCsv(rc, l.logger)
}

func (l *ReferenceLoader) readAgePops(ctx context.Context, src string) ([]models.AgeGroupPop, error) {
	rc, err := scraper.OpenReferenceCsv(ctx, l.client, src)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return scraper.ParseAgeGroupPopsCsv(rc, l.logger)
}
