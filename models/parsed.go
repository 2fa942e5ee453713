// models/parsed.go
package models

// Typed records produced by the scraper's table mappers. Reconcilers only ever
// see these, never raw header->cell maps.

// StatewideTotals are the topline cumulative numbers from the totals tables.
// The non-pointer fields are required: daily deltas are computed from them.
type StatewideTotals struct {
	CumulativePositiveTests            int
	CumulativeConfirmedCases           *int
	CumulativeProbableCases            *int
	CasesNewlyReported                 *int
	ConfirmedCasesNewlyReported        *int
	ProbableCasesNewlyReported         *int
	RemovedCases                       *int
	CumulativeCompletedTests           int
	CumulativePCRTests                 *int
	CumulativeAntigenTests             *int
	CumulativeHospitalized             int
	CumulativeICU                      int
	CumulativeStatewideDeaths          int
	CumulativeConfirmedStatewideDeaths *int
	CumulativeProbableStatewideDeaths  *int
	CumulativeStatewideRecoveries      *int
}

// CountyObservation is one row of the county table.
type CountyObservation struct {
	County                   string
	CumulativeCount          int
	CumulativeConfirmedCases *int
	CumulativeProbableCases  *int
	CumulativeDeaths         int
}

// AgeObservation is one row of the statewide age table.
type AgeObservation struct {
	AgeGroup   string
	CaseCount  *int
	DeathCount *int
	CasesPct   *int
	DeathsPct  *int
}

// RecentDeathGroup is one cell of the newly-reported-deaths breakdown.
// County is empty for "Unknown/missing".
type RecentDeathGroup struct {
	County   string
	AgeGroup string
	Count    int
}

// RecentDeaths is the parsed breakdown table. When the table is absent from the
// page, Present is false and DailyTotal carries the separate daily-deaths cell
// (nil if that cell is absent or unreadable too). DailyTotalText is the cell
// as printed.
type RecentDeaths struct {
	Present        bool
	Groups         []RecentDeathGroup
	DailyTotal     *int
	DailyTotalText string
}
