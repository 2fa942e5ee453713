// services/format.go
package services

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/gewnthar/mncovid/models"
)

const (
	NoChangesMessage   = "COVID scraper update: No changes detected."
	FetchErrorMessage  = "WARNING: Scraper error. Not proceeding."
	AgesUpdatedMessage = "COVID scraper: Age records updated."
)

func comma(n int) string { return humanize.Comma(int64(n)) }

func commaOrDash(n *int) string {
	if n == nil {
		return "-"
	}
	return comma(*n)
}

// ChangeSign renders a daily delta for chat. Zero gets a shrug, decreases get
// an alert marker, and a delta equal to the new cumulative total (the metric
// just appeared) is called out as new.
func ChangeSign(delta, cumulative int) string {
	switch {
	case delta == 0:
		return "+:shrug:"
	case delta < 0:
		return ":rotating_light: " + comma(delta)
	case delta == cumulative:
		return ":heavy_plus_sign: NEW"
	default:
		return "+" + comma(delta)
	}
}

// StatewideMessage summarizes one reconciled statewide row.
func StatewideMessage(sourceURL string, r *models.StatewideTotalDate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "COVID scraper found updated data on the <%s|MDH situation page>...\n\n", sourceURL)
	fmt.Fprintf(&b, "*%s* cases total (change of *%s* today, *%s* newly reported, *%s* removed)\n",
		comma(r.CumulativePositiveTests), ChangeSign(r.CasesDailyChange, r.CumulativePositiveTests),
		commaOrDash(r.CasesNewlyReported), commaOrDash(r.RemovedCases))
	fmt.Fprintf(&b, "*%s* total hospitalizations (*%s* new admissions reported today)\n\n",
		comma(r.CumulativeHospitalized), ChangeSign(r.HospitalizedTotalDailyChange, r.CumulativeHospitalized))
	fmt.Fprintf(&b, "*%s* total icu (*%s* icu admissions reported today)\n\n",
		comma(r.CumulativeICU), ChangeSign(r.ICUTotalDailyChange, r.CumulativeICU))
	fmt.Fprintf(&b, "*%s* total deaths (*%s* reported today)\n\n",
		comma(r.CumulativeStatewideDeaths), ChangeSign(r.DeathsDailyChange, r.CumulativeStatewideDeaths))
	fmt.Fprintf(&b, "*%s* total tests completed (*%s* today)\n\n",
		comma(r.CumulativeCompletedTests), ChangeSign(r.TestsDailyChange, r.CumulativeCompletedTests))
	return b.String()
}

// CountyMessage lists the counties whose cases or deaths moved. Empty when
// nothing moved.
func CountyMessage(changes []CountyChange) string {
	var b strings.Builder
	for _, c := range changes {
		r := c.Row
		if r.DailyTotalCases == 0 && r.DailyDeaths == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s: %s cases", r.CountyName, comma(r.CumulativeCount))
		if r.DailyTotalCases != 0 {
			fmt.Fprintf(&b, " (:point_right: %s today)", countySign(r.DailyTotalCases, r.CumulativeCount))
		}
		if r.CumulativeDeaths > 0 {
			fmt.Fprintf(&b, ", %s %s", comma(r.CumulativeDeaths), english.PluralWord(r.CumulativeDeaths, "death", ""))
			if r.DailyDeaths != 0 {
				fmt.Fprintf(&b, " (:point_right: %s today)", countySign(r.DailyDeaths, r.CumulativeDeaths))
			}
		}
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return ""
	}
	return "COVID scraper county-by-county results: \n\n" + b.String()
}

func countySign(delta, cumulative int) string {
	switch {
	case delta < 0:
		return ":rotating_light::rotating_light: ALERT NEGATIVE *** " + comma(delta)
	case delta == cumulative:
		return ":heavy_plus_sign: NEW COUNTY " + comma(delta)
	default:
		return "+" + comma(delta)
	}
}

