// export/rolling.go
package export

import (
	"math"

	"github.com/gewnthar/mncovid/models"
)

// RollingWindow is the trailing window, in days, for averaged columns.
const RollingWindow = 7

// Rolling returns, for each i, the mean of the non-nil values whose date
// falls in the RollingWindow days ending at dates[i]. dates must be
// ascending. A window needs only one observation; with none the result is
// nil.
func Rolling(dates []models.Date, values []*int) []*float64 {
	out := make([]*float64, len(dates))
	start := 0
	for i, d := range dates {
		for dates[start].Before(d.AddDays(-(RollingWindow - 1))) {
			start++
		}
		sum, n := 0, 0
		for j := start; j <= i; j++ {
			if values[j] != nil {
				sum += *values[j]
				n++
			}
		}
		if n == 0 {
			continue
		}
		avg := math.Round(float64(sum)/float64(n)*100) / 100
		out[i] = &avg
	}
	return out
}
