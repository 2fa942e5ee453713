// scraper/freshness.go
package scraper

import (
	"time"

	"github.com/gewnthar/mncovid/models"
)

// IsFresh reports whether the page's banner says it was updated on the run
// date. Reconcilers that write "today's" figures skip when it is false.
func IsFresh(updateDate, today models.Date) bool {
	return !updateDate.IsZero() && updateDate.Equal(today)
}

// Today is the calendar day of now in the source's timezone.
func Today(now time.Time, loc *time.Location) models.Date {
	if loc == nil {
		loc = time.Local
	}
	return models.DateOf(now.In(loc))
}
