// scraper/situation.go
package scraper

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gewnthar/mncovid/config"
	"github.com/gewnthar/mncovid/models"
	"github.com/gewnthar/mncovid/utils"
)

// Locators for every table the situation page carries.
type Locators struct {
	HospitalizedTotals TableLocator
	CaseTotals         TableLocator
	DailyCaseTotals    TableLocator
	TestTotals         TableLocator
	DeathTotals        TableLocator
	DailyDeathTotals   TableLocator
	RecoveryTotals     TableLocator
	Counties           TableLocator
	CasesBySampleDate  TableLocator
	Tests              TableLocator
	Hospitalizations   TableLocator
	Deaths             TableLocator
	Ages               TableLocator
	RecentDeaths       TableLocator
}

func DefaultLocators() Locators {
	return Locators{
		HospitalizedTotals: ByID("hosptotal"),
		CaseTotals:         ByID("casetotal"),
		DailyCaseTotals:    ByID("dailycasetotal"),
		TestTotals:         ByID("testtotal"),
		DeathTotals:        ByID("deathtotal"),
		DailyDeathTotals:   ByID("dailydeathtotal"),
		RecoveryTotals:     ByID("noisototal"),
		Counties:           ByID("maptable"),
		CasesBySampleDate:  ByID("casetable"),
		Tests:              ByID("labtable"),
		Hospitalizations:   ByID("hosptable"),
		Deaths:             ByID("deathtable"),
		Ages:               ByID("agetable"),
		RecentDeaths:       ByID("dailydeathar"),
	}
}

// LocatorsFromConfig overrides the defaults with any ids set in config.
func LocatorsFromConfig(cfg config.ScraperSelectorsConfig) Locators {
	loc := DefaultLocators()
	overrides := []struct {
		id  string
		dst *TableLocator
	}{
		{cfg.HospitalizedTotals, &loc.HospitalizedTotals},
		{cfg.CaseTotals, &loc.CaseTotals},
		{cfg.DailyCaseTotals, &loc.DailyCaseTotals},
		{cfg.TestTotals, &loc.TestTotals},
		{cfg.DeathTotals, &loc.DeathTotals},
		{cfg.DailyDeathTotals, &loc.DailyDeathTotals},
		{cfg.RecoveryTotals, &loc.RecoveryTotals},
		{cfg.Counties, &loc.Counties},
		{cfg.CasesBySampleDate, &loc.CasesBySampleDate},
		{cfg.Tests, &loc.Tests},
		{cfg.Hospitalizations, &loc.Hospitalizations},
		{cfg.Deaths, &loc.Deaths},
		{cfg.Ages, &loc.Ages},
		{cfg.RecentDeaths, &loc.RecentDeaths},
	}
	for _, o := range overrides {
		if o.id != "" {
			*o.dst = ByID(o.id)
		}
	}
	return loc
}

// Column headers as they appear (whitespace-collapsed) on the page.
const (
	colHospitalized = "Total cases hospitalized (cumulative)"
	colICU          = "Total cases hospitalized in ICU (cumulative)"

	colPositive  = "Total positive cases (cumulative)"
	colConfirmed = "Total confirmed cases (PCR positive) (cumulative)"
	colProbable  = "Total probable cases (Antigen positive) (cumulative)"

	colNewlyReported          = "Newly reported cases"
	colConfirmedNewlyReported = "Newly reported confirmed cases"
	colProbableNewlyReported  = "Newly reported probable cases"

	colCompletedTests = "Total approximate completed tests (cumulative)"
	colPCRTests       = "Total approximate number of completed PCR tests (cumulative)"
	colAntigenTests   = "Total approximate number of completed antigen tests (cumulative)"

	colDeaths          = "Total deaths (cumulative)"
	colConfirmedDeaths = "Deaths from confirmed cases (cumulative)"
	colProbableDeaths  = "Deaths from probable cases (cumulative)"

	colRecoveries = "Patients no longer needing isolation (cumulative)"

	colNewlyReportedDeaths = "Newly reported deaths"

	colCounty               = "County"
	colCountyTotalCases     = "Total cases"
	colCountyConfirmedCases = "Total confirmed cases"
	colCountyProbableCases  = "Total probable cases"
	colCountyTotalDeaths    = "Total deaths"

	colSampleDate         = "Specimen collection date"
	colSampleConfirmed    = "Confirmed cases (PCR positive)"
	colSampleProbable     = "Probable cases (Antigen positive)"
	colSampleTotal        = "Total positive cases (cumulative)"
	colSampleTotalPCR     = "Total confirmed cases (cumulative)"
	colSampleTotalAntigen = "Total probable cases (cumulative)"

	colLabDate         = "Date reported to MDH"
	colLabState        = "Completed PCR tests reported from the MDH Public Health Lab"
	colLabExternal     = "Completed PCR tests reported from external laboratories"
	colLabAntigen      = "Completed antigen tests reported from external laboratories"
	colLabTotal        = "Total approximate number of completed tests (cumulative)"
	colLabTotalPCR     = "Total approximate number of completed PCR tests (cumulative)"
	colLabTotalAntigen = "Total approximate number of completed antigen tests (cumulative)"

	colHospDate     = "Date"
	colHospNew      = "Cases admitted to a hospital"
	colHospNewICU   = "Cases admitted to an ICU"
	colHospTotal    = "Total hospitalizations (cumulative)"
	colHospTotalICU = "Total ICU hospitalizations (cumulative)"

	colDeathDate  = "Date reported"
	colDeathNew   = "Newly reported deaths"
	colDeathTotal = "Total deaths (cumulative)"

	colAgeGroup     = "Age Group"
	colAgeCases     = "Number of Cases"
	colAgeDeaths    = "Number of Deaths"
	colAgeCasesPct  = "Percent of Cases"
	colAgeDeathsPct = "Percent of Deaths"

	colRecentCounty = "County of residence"
	colRecentAge    = "Age group"
	colRecentCount  = "Number of newly reported deaths"

	hospEarliestPrefix = "Admitted on or before "
)

// Page is a parsed situation page. Each method maps one table into typed
// records; none of them touch storage.
type Page struct {
	doc *goquery.Document
	loc Locators
}

func ParsePage(html []byte, loc Locators) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse situation page HTML: %w", err)
	}
	return &Page{doc: doc, loc: loc}, nil
}

func (p *Page) UpdateDate() (models.Date, error) {
	return ExtractUpdateBannerDate(p.doc)
}

// StatewideTotals reads the six totals tables plus the "Cases removed" bullet.
func (p *Page) StatewideTotals() (*models.StatewideTotals, error) {
	var out models.StatewideTotals

	hosp, err := p.totals("hospitalized totals", p.loc.HospitalizedTotals)
	if err != nil {
		return nil, err
	}
	if out.CumulativeHospitalized, err = hosp.Int(colHospitalized); err != nil {
		return nil, err
	}
	if out.CumulativeICU, err = hosp.Int(colICU); err != nil {
		return nil, err
	}

	cases, err := p.totals("case totals", p.loc.CaseTotals)
	if err != nil {
		return nil, err
	}
	if out.CumulativePositiveTests, err = cases.Int(colPositive); err != nil {
		return nil, err
	}
	if out.CumulativeConfirmedCases, err = cases.OptionalInt(colConfirmed); err != nil {
		return nil, err
	}
	if out.CumulativeProbableCases, err = cases.OptionalInt(colProbable); err != nil {
		return nil, err
	}

	daily, err := p.totals("daily case totals", p.loc.DailyCaseTotals)
	if err != nil {
		return nil, err
	}
	if out.CasesNewlyReported, err = daily.OptionalInt(colNewlyReported); err != nil {
		return nil, err
	}
	if out.ConfirmedCasesNewlyReported, err = daily.OptionalInt(colConfirmedNewlyReported); err != nil {
		return nil, err
	}
	if out.ProbableCasesNewlyReported, err = daily.OptionalInt(colProbableNewlyReported); err != nil {
		return nil, err
	}

	tests, err := p.totals("test totals", p.loc.TestTotals)
	if err != nil {
		return nil, err
	}
	if out.CumulativeCompletedTests, err = tests.Int(colCompletedTests); err != nil {
		return nil, err
	}
	if out.CumulativePCRTests, err = tests.OptionalInt(colPCRTests); err != nil {
		return nil, err
	}
	if out.CumulativeAntigenTests, err = tests.OptionalInt(colAntigenTests); err != nil {
		return nil, err
	}

	deaths, err := p.totals("death totals", p.loc.DeathTotals)
	if err != nil {
		return nil, err
	}
	if out.CumulativeStatewideDeaths, err = deaths.Int(colDeaths); err != nil {
		return nil, err
	}
	if out.CumulativeConfirmedStatewideDeaths, err = deaths.OptionalInt(colConfirmedDeaths); err != nil {
		return nil, err
	}
	if out.CumulativeProbableStatewideDeaths, err = deaths.OptionalInt(colProbableDeaths); err != nil {
		return nil, err
	}

	recoveries, err := p.totals("recovery totals", p.loc.RecoveryTotals)
	if err != nil {
		return nil, err
	}
	if out.CumulativeStatewideRecoveries, err = recoveries.OptionalInt(colRecoveries); err != nil {
		return nil, err
	}

	if out.RemovedCases, err = ExtractRemovedCases(p.doc); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *Page) totals(name string, loc TableLocator) (Row, error) {
	t, err := ExtractTotals(p.doc, name, loc)
	if err != nil {
		return Row{}, err
	}
	return t.Row(), nil
}

func (p *Page) table(name string, loc TableLocator) (*Table, error) {
	return ExtractTable(p.doc, name, loc)
}

// Counties maps the county table. The "Unknown/missing" row is not a county
// and is left out.
func (p *Page) Counties() ([]models.CountyObservation, error) {
	t, err := p.table("counties", p.loc.Counties)
	if err != nil {
		return nil, err
	}
	out := make([]models.CountyObservation, 0, len(t.Rows))
	for _, r := range t.Rows {
		label, err := r.Text(colCounty)
		if err != nil {
			return nil, err
		}
		if utils.IsUnknown(label) {
			continue
		}
		obs := models.CountyObservation{County: utils.NormalizeCountyName(label)}
		if obs.CumulativeCount, err = r.Int(colCountyTotalCases); err != nil {
			return nil, err
		}
		if obs.CumulativeConfirmedCases, err = r.OptionalInt(colCountyConfirmedCases); err != nil {
			return nil, err
		}
		if obs.CumulativeProbableCases, err = r.OptionalInt(colCountyProbableCases); err != nil {
			return nil, err
		}
		if obs.CumulativeDeaths, err = r.Int(colCountyTotalDeaths); err != nil {
			return nil, err
		}
		out = append(out, obs)
	}
	return out, nil
}

// realDate parses a sample/reported date column. "Unknown/missing" is a nil
// date, not an error.
func realDate(r Row, col string, ref models.Date) (*models.Date, error) {
	text, err := r.Text(col)
	if err != nil {
		return nil, err
	}
	if utils.IsUnknown(text) {
		return nil, nil
	}
	d, err := r.ShortDate(col, ref)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func sumInts(a, b *int) *int {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	n := *a + *b
	return &n
}

// CasesBySampleDate maps the cases-by-specimen-date table. ScrapeDate and
// UpdateDate are left for the reconciler to stamp.
func (p *Page) CasesBySampleDate(ref models.Date) ([]models.StatewideCasesBySampleDate, error) {
	t, err := p.table("cases by sample date", p.loc.CasesBySampleDate)
	if err != nil {
		return nil, err
	}
	out := make([]models.StatewideCasesBySampleDate, 0, len(t.Rows))
	for _, r := range t.Rows {
		var row models.StatewideCasesBySampleDate
		if row.SampleDate, err = realDate(r, colSampleDate, ref); err != nil {
			return nil, err
		}
		if row.NewPCRTests, err = r.OptionalInt(colSampleConfirmed); err != nil {
			return nil, err
		}
		if row.NewAntigenTests, err = r.OptionalInt(colSampleProbable); err != nil {
			return nil, err
		}
		if row.TotalCases, err = r.OptionalInt(colSampleTotal); err != nil {
			return nil, err
		}
		if row.TotalPCRTests, err = r.OptionalInt(colSampleTotalPCR); err != nil {
			return nil, err
		}
		if row.TotalAntigenTests, err = r.OptionalInt(colSampleTotalAntigen); err != nil {
			return nil, err
		}
		row.NewCases = sumInts(row.NewPCRTests, row.NewAntigenTests)
		out = append(out, row)
	}
	return out, nil
}

func (p *Page) Tests(ref models.Date) ([]models.StatewideTestsDate, error) {
	t, err := p.table("tests", p.loc.Tests)
	if err != nil {
		return nil, err
	}
	out := make([]models.StatewideTestsDate, 0, len(t.Rows))
	for _, r := range t.Rows {
		var row models.StatewideTestsDate
		if row.ReportedDate, err = realDate(r, colLabDate, ref); err != nil {
			return nil, err
		}
		if row.NewStateTests, err = r.OptionalInt(colLabState); err != nil {
			return nil, err
		}
		if row.NewExternalTests, err = r.OptionalInt(colLabExternal); err != nil {
			return nil, err
		}
		if row.NewAntigenTests, err = r.OptionalInt(colLabAntigen); err != nil {
			return nil, err
		}
		if row.TotalTests, err = r.OptionalInt(colLabTotal); err != nil {
			return nil, err
		}
		if row.TotalPCRTests, err = r.OptionalInt(colLabTotalPCR); err != nil {
			return nil, err
		}
		if row.TotalAntigenTests, err = r.OptionalInt(colLabTotalAntigen); err != nil {
			return nil, err
		}
		row.NewPCRTests = sumInts(row.NewStateTests, row.NewExternalTests)
		row.NewTests = sumInts(row.NewPCRTests, row.NewAntigenTests)
		out = append(out, row)
	}
	return out, nil
}

// Hospitalizations maps the admissions table. The first row reads "Admitted on
// or before 3/5/20" and is dated 3/5/20.
func (p *Page) Hospitalizations(ref models.Date) ([]models.StatewideHospitalizationsDate, error) {
	t, err := p.table("hospitalizations", p.loc.Hospitalizations)
	if err != nil {
		return nil, err
	}
	out := make([]models.StatewideHospitalizationsDate, 0, len(t.Rows))
	for _, r := range t.Rows {
		var row models.StatewideHospitalizationsDate
		if row.ReportedDate, err = hospDate(r, ref); err != nil {
			return nil, err
		}
		if row.NewHospAdmissions, err = r.OptionalInt(colHospNew); err != nil {
			return nil, err
		}
		if row.NewICUAdmissions, err = r.OptionalInt(colHospNewICU); err != nil {
			return nil, err
		}
		if row.TotalHospitalizations, err = r.OptionalInt(colHospTotal); err != nil {
			return nil, err
		}
		if row.TotalICUAdmissions, err = r.OptionalInt(colHospTotalICU); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func hospDate(r Row, ref models.Date) (*models.Date, error) {
	text, err := r.Text(colHospDate)
	if err != nil {
		return nil, err
	}
	if utils.IsUnknown(text) {
		return nil, nil
	}
	d, err := ParseShortDate(strings.TrimPrefix(text, hospEarliestPrefix), ref)
	if err != nil {
		return nil, &FieldParseError{Field: r.table + "." + colHospDate, Text: text, Err: err}
	}
	return &d, nil
}

func (p *Page) Deaths(ref models.Date) ([]models.StatewideDeathsDate, error) {
	t, err := p.table("deaths", p.loc.Deaths)
	if err != nil {
		return nil, err
	}
	out := make([]models.StatewideDeathsDate, 0, len(t.Rows))
	for _, r := range t.Rows {
		var row models.StatewideDeathsDate
		if row.ReportedDate, err = realDate(r, colDeathDate, ref); err != nil {
			return nil, err
		}
		if row.NewDeaths, err = r.OptionalInt(colDeathNew); err != nil {
			return nil, err
		}
		if row.TotalDeaths, err = r.OptionalInt(colDeathTotal); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (p *Page) Ages() ([]models.AgeObservation, error) {
	t, err := p.table("ages", p.loc.Ages)
	if err != nil {
		return nil, err
	}
	out := make([]models.AgeObservation, 0, len(t.Rows))
	for _, r := range t.Rows {
		var obs models.AgeObservation
		if obs.AgeGroup, err = r.Text(colAgeGroup); err != nil {
			return nil, err
		}
		obs.AgeGroup = utils.CollapseSpace(obs.AgeGroup)
		if obs.CaseCount, err = r.OptionalInt(colAgeCases); err != nil {
			return nil, err
		}
		if obs.DeathCount, err = r.OptionalInt(colAgeDeaths); err != nil {
			return nil, err
		}
		if obs.CasesPct, err = r.OptionalPercent(colAgeCasesPct); err != nil {
			return nil, err
		}
		if obs.DeathsPct, err = r.OptionalPercent(colAgeDeathsPct); err != nil {
			return nil, err
		}
		out = append(out, obs)
	}
	return out, nil
}

// RecentDeaths maps the newly-reported-deaths breakdown. A missing table is
// not an error here: Present is false and DailyTotal carries the separate
// daily-deaths cell so the reconciler can decide what the absence means.
func (p *Page) RecentDeaths() (*models.RecentDeaths, error) {
	t, err := p.table("recent deaths", p.loc.RecentDeaths)
	if err != nil {
		var notFound *TableNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		out := &models.RecentDeaths{}
		daily, err := p.totals("daily death totals", p.loc.DailyDeathTotals)
		if err != nil {
			return out, nil
		}
		// An unreadable cell stays nil; the reconciler treats nil as ambiguous
		// and reports the text.
		out.DailyTotalText, _ = daily.Text(colNewlyReportedDeaths)
		out.DailyTotal, _ = daily.OptionalInt(colNewlyReportedDeaths)
		return out, nil
	}

	out := &models.RecentDeaths{Present: true}
	for _, r := range t.Rows {
		label, err := r.Text(colRecentCounty)
		if err != nil {
			return nil, err
		}
		age, err := r.Text(colRecentAge)
		if err != nil {
			return nil, err
		}
		count, err := r.Int(colRecentCount)
		if err != nil {
			return nil, err
		}
		g := models.RecentDeathGroup{
			AgeGroup: strings.TrimSpace(strings.Replace(utils.CollapseSpace(age), " years", "", 1)),
			Count:    count,
		}
		if !utils.IsUnknown(label) {
			g.County = utils.NormalizeCountyName(label)
		}
		out.Groups = append(out.Groups, g)
	}
	return out, nil
}
