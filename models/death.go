// models/death.go
package models

import "database/sql"

// Death is one synthesized decedent row. The source only publishes counts per
// (county, age group), so a count of N becomes N rows.
type Death struct {
	ID         int64         `db:"id"`
	ScrapeDate Date          `db:"scrape_date"`
	AgeGroup   string        `db:"age_group"`
	ActualAge  *int          `db:"actual_age"`
	CountyID   sql.NullInt64 `db:"county_id"`   // NULL for "Unknown/missing"
	BoolLTC    *bool         `db:"bool_ltc"`
}

// DeathGroup is the aggregation key for Death rows on a given date.
type DeathGroup struct {
	CountyID sql.NullInt64
	AgeGroup string
}

// DeathCount is the number of Death rows captured on one scrape date.
type DeathCount struct {
	ScrapeDate Date `json:"scrape_date"`
	Count      int  `json:"count"`
}
