// models/county.go
package models

// County is reference data loaded once by `mncovid load-reference`.
// CSV tags match the county reference file headers.
type County struct {
	ID        int64   `csv:"-" db:"id" json:"-"`
	Name      string  `csv:"name" db:"name" json:"name"`
	FIPS      string  `csv:"fips" db:"fips" json:"fips"`
	Latitude  float64 `csv:"latitude" db:"latitude" json:"latitude"`
	Longitude float64 `csv:"longitude" db:"longitude" json:"longitude"`
	Pop2010   int     `csv:"pop_2010" db:"pop_2010" json:"pop_2010"`
	Pop2019   *int    `csv:"pop_2019,omitempty" db:"pop_2019" json:"pop_2019,omitempty"`
}

// AgeGroupPop is static population-by-age-bracket data, used only by exports.
type AgeGroupPop struct {
	ID         int64  `csv:"-" db:"id"`
	AgeGroup   string `csv:"age_group" db:"age_group"`
	AgeMin     *int   `csv:"age_min,omitempty" db:"age_min"`
	AgeMax     *int   `csv:"age_max,omitempty" db:"age_max"`
	Population int    `csv:"population" db:"population"`
	PctPop     *int   `csv:"pct_pop,omitempty" db:"pct_pop"`
}
