// scraper/errors.go
package scraper

import "fmt"

// TableNotFoundError means the source changed its page layout: the locator
// matched nothing.
type TableNotFoundError struct {
	Table   string
	Locator string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table %q not found on page (locator %s)", e.Table, e.Locator)
}

// BannerNotFoundError means the "Updated <Month> <Day>, <Year>" text is gone.
type BannerNotFoundError struct{}

func (e *BannerNotFoundError) Error() string {
	return "update banner (\"Updated <Month> <Day>, <Year>\") not found on page"
}

// MissingColumnError is returned by the typed mappers when a required column
// header is absent from an extracted table.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("table %q has no column %q", e.Table, e.Column)
}

// FieldParseError wraps a cell that could not be converted.
type FieldParseError struct {
	Field string
	Text  string
	Err   error
}

func (e *FieldParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot parse %s from %q: %v", e.Field, e.Text, e.Err)
	}
	return fmt.Sprintf("cannot parse %s from %q", e.Field, e.Text)
}

func (e *FieldParseError) Unwrap() error { return e.Err }

// FetchFailure is terminal for one invocation. There is no in-process retry;
// the next scheduled run is the retry.
type FetchFailure struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s failed with status %d", e.URL, e.StatusCode)
}

func (e *FetchFailure) Unwrap() error { return e.Err }
