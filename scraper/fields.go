// scraper/fields.go
package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gewnthar/mncovid/models"
	"github.com/gewnthar/mncovid/utils"
)

var (
	bannerRegex       = regexp.MustCompile(`Updated\s+([A-Za-z]+)\.?\s+(\d{1,2}),?\s+(\d{4})`)
	removedCasesRegex = regexp.MustCompile(`Cases removed:\s*([\d,]+)`)
)

// isNullSentinel reports the source's way of saying "no value". TrimSpace
// also strips the non-breaking spaces the page pads dashes with.
func isNullSentinel(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "-"
}

// ParseCommaInt parses "12,345". "-" and empty cells are nil. Anything else
// that is not an integer is an error, never 0.
func ParseCommaInt(text string) (*int, error) {
	if isNullSentinel(text) {
		return nil, nil
	}
	s := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("not a comma-grouped integer: %q", text)
	}
	return &n, nil
}

// ParsePercent parses "12%". "<1%" maps to -1 so known-small can be told apart
// from unknown (nil).
func ParsePercent(text string) (*int, error) {
	if isNullSentinel(text) {
		return nil, nil
	}
	s := strings.Join(strings.Fields(text), "")
	if s == "<1%" {
		n := -1
		return &n, nil
	}
	n, err := strconv.Atoi(strings.TrimSuffix(s, "%"))
	if err != nil {
		return nil, fmt.Errorf("not a percentage: %q", text)
	}
	return &n, nil
}

// ParseShortDate parses "M/D/YY", "M/D/YYYY" or "M/D".
//
// An explicit year always wins. For "M/D" the year is the latest of
// ref.Year+1, ref.Year and ref.Year-1 that puts the date no more than one day
// after ref: the source only reports dates up to the day it was published, so
// "12/31" scraped on 1/2 belongs to the previous year.
func ParseShortDate(text string, ref models.Date) (models.Date, error) {
	parts := strings.Split(strings.TrimSpace(text), "/")
	if len(parts) != 2 && len(parts) != 3 {
		return models.Date{}, fmt.Errorf("not a M/D[/YY] date: %q", text)
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil {
		return models.Date{}, fmt.Errorf("bad month in %q", text)
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil {
		return models.Date{}, fmt.Errorf("bad day in %q", text)
	}

	if len(parts) == 3 {
		year, err := strconv.Atoi(parts[2])
		if err != nil {
			return models.Date{}, fmt.Errorf("bad year in %q", text)
		}
		if len(parts[2]) == 2 {
			year += 2000
		}
		d, ok := validDate(year, month, day)
		if !ok {
			return models.Date{}, fmt.Errorf("no such date %q", text)
		}
		return d, nil
	}

	latest := ref.AddDays(1)
	for year := ref.Year() + 1; year >= ref.Year()-1; year-- {
		d, ok := validDate(year, month, day)
		if ok && !d.After(latest) {
			return d, nil
		}
	}
	return models.Date{}, fmt.Errorf("no plausible year for %q near %s", text, ref)
}

func validDate(year, month, day int) (models.Date, bool) {
	if month < 1 || month > 12 || day < 1 {
		return models.Date{}, false
	}
	d := models.NewDate(year, time.Month(month), day)
	return d, d.Month() == time.Month(month) && d.Day() == day
}

// ExtractUpdateBannerDate finds "Updated <Month> <Day>, <Year>" anywhere in
// the page text. Abbreviated months ("Sept.", "Oct") are accepted.
func ExtractUpdateBannerDate(doc *goquery.Document) (models.Date, error) {
	m := bannerRegex.FindStringSubmatch(utils.CollapseSpace(doc.Text()))
	if m == nil {
		return models.Date{}, &BannerNotFoundError{}
	}
	month, ok := monthByName(m[1])
	if !ok {
		return models.Date{}, &FieldParseError{Field: "update banner month", Text: m[0]}
	}
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	d, ok := validDate(year, int(month), day)
	if !ok {
		return models.Date{}, &FieldParseError{Field: "update banner date", Text: m[0]}
	}
	return d, nil
}

// monthByName accepts a full month name or its three letter abbreviation,
// plus "Sept".
func monthByName(name string) (time.Month, bool) {
	name = strings.ToLower(name)
	if name == "sept" {
		return time.September, true
	}
	for m := time.January; m <= time.December; m++ {
		full := strings.ToLower(m.String())
		if name == full || name == full[:3] {
			return m, true
		}
	}
	return 0, false
}

// ExtractRemovedCases reads the "Cases removed: N" bullet. It returns nil when
// the page does not carry one.
func ExtractRemovedCases(doc *goquery.Document) (*int, error) {
	var found *int
	var parseErr error
	doc.Find("ul").EachWithBreak(func(_ int, ul *goquery.Selection) bool {
		m := removedCasesRegex.FindStringSubmatch(ul.Text())
		if m == nil {
			return true
		}
		found, parseErr = ParseCommaInt(m[1])
		return false
	})
	if parseErr != nil {
		return nil, &FieldParseError{Field: "cases removed", Text: "", Err: parseErr}
	}
	return found, nil
}
