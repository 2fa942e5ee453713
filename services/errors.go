// services/errors.go
package services

import (
	"fmt"

	"github.com/gewnthar/mncovid/models"
)

// MissingBaselineError means there is no statewide row for the day before
// the scrape, so no delta can be computed. A zero baseline is never assumed.
type MissingBaselineError struct {
	ScrapeDate models.Date
	Baseline   models.Date
}

func (e *MissingBaselineError) Error() string {
	return fmt.Sprintf("no statewide totals stored for %s, cannot compute deltas for %s", e.Baseline, e.ScrapeDate)
}

// CountyNotFoundError means a county label from the page matched no county
// reference row.
type CountyNotFoundError struct {
	Name string
}

func (e *CountyNotFoundError) Error() string {
	return fmt.Sprintf("county %q not found in reference table", e.Name)
}

// AmbiguousZeroDeathsError means the recent deaths breakdown is missing and
// the daily deaths cell does not confirm a zero day. Cell is nil when that
// cell is missing or unreadable as well; Text is what the cell said, if any.
type AmbiguousZeroDeathsError struct {
	Cell *int
	Text string
}

func (e *AmbiguousZeroDeathsError) Error() string {
	if e.Cell == nil && e.Text != "" {
		return fmt.Sprintf("recent deaths table missing and daily deaths cell is unreadable: %q", e.Text)
	}
	if e.Cell == nil {
		return "recent deaths table missing and daily deaths cell unavailable"
	}
	return fmt.Sprintf("recent deaths table missing but daily deaths cell reads %d", *e.Cell)
}
