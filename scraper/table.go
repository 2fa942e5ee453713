// scraper/table.go
package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gewnthar/mncovid/models"
	"github.com/gewnthar/mncovid/utils"
)

// TableLocator finds a table either by its element id or by the text of one of
// its header cells. ID wins when both are set.
type TableLocator struct {
	ID         string
	HeaderText string
}

func ByID(id string) TableLocator { return TableLocator{ID: id} }
func ByHeader(text string) TableLocator { return TableLocator{HeaderText: text} }

func (l TableLocator) String() string {
	if l.ID != "" {
		return "#" + l.ID
	}
	return fmt.Sprintf("th=%q", l.HeaderText)
}

func (l TableLocator) find(doc *goquery.Document) *goquery.Selection {
	if l.ID != "" {
		return doc.Find(fmt.Sprintf("table[id=%q]", l.ID)).First()
	}
	want := utils.CollapseSpace(l.HeaderText)
	return doc.Find("th").FilterFunction(func(_ int, th *goquery.Selection) bool {
		return utils.CollapseSpace(th.Text()) == want
	}).First().Closest("table")
}

// Table is an extracted HTML table. Rows keep source order.
type Table struct {
	Name    string
	Headers []string
	Rows    []Row
}

// Row maps normalized column headers to trimmed cell text.
type Row struct {
	table string
	cells map[string]string
}

// NewRow builds a Row outside of extraction, mostly for tests.
func NewRow(table string, cells map[string]string) Row {
	return Row{table: table, cells: cells}
}

func (r Row) Has(col string) bool {
	_, ok := r.cells[col]
	return ok
}

// Text returns the cell for a required column.
func (r Row) Text(col string) (string, error) {
	v, ok := r.cells[col]
	if !ok {
		return "", &MissingColumnError{Table: r.table, Column: col}
	}
	return v, nil
}

// Int parses a required numeric column. A null sentinel is an error here.
func (r Row) Int(col string) (int, error) {
	v, err := r.OptionalInt(col)
	if err != nil {
		return 0, err
	}
	if !r.Has(col) {
		return 0, &MissingColumnError{Table: r.table, Column: col}
	}
	if v == nil {
		return 0, &FieldParseError{Field: r.table + "." + col, Text: r.cells[col]}
	}
	return *v, nil
}

// OptionalInt parses a numeric column that may be absent from older page
// layouts or hold the "-" sentinel.
func (r Row) OptionalInt(col string) (*int, error) {
	v, ok := r.cells[col]
	if !ok {
		return nil, nil
	}
	n, err := ParseCommaInt(v)
	if err != nil {
		return nil, &FieldParseError{Field: r.table + "." + col, Text: v, Err: err}
	}
	return n, nil
}

// OptionalPercent parses a percent column that may be absent.
func (r Row) OptionalPercent(col string) (*int, error) {
	v, ok := r.cells[col]
	if !ok {
		return nil, nil
	}
	n, err := ParsePercent(v)
	if err != nil {
		return nil, &FieldParseError{Field: r.table + "." + col, Text: v, Err: err}
	}
	return n, nil
}

// ShortDate parses a required "M/D[/YY]" column relative to ref.
func (r Row) ShortDate(col string, ref models.Date) (models.Date, error) {
	v, err := r.Text(col)
	if err != nil {
		return models.Date{}, err
	}
	d, err := ParseShortDate(v, ref)
	if err != nil {
		return models.Date{}, &FieldParseError{Field: r.table + "." + col, Text: v, Err: err}
	}
	return d, nil
}

// cleanTable returns a copy of the table with <br> replaced by a space so cell
// text never glues two words together.
func cleanTable(sel *goquery.Selection) *goquery.Selection {
	tbl := sel.Clone()
	tbl.Find("br").ReplaceWithHtml(" ")
	return tbl
}

// ExtractTable locates a table and turns it into header-labeled rows. The
// header is the first row made only of <th> cells. Rows with no <td> cells are
// section separators and are skipped.
func ExtractTable(doc *goquery.Document, name string, loc TableLocator) (*Table, error) {
	sel := loc.find(doc)
	if sel.Length() == 0 {
		return nil, &TableNotFoundError{Table: name, Locator: loc.String()}
	}
	tbl := cleanTable(sel)

	t := &Table{Name: name}
	tbl.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		hasData := tr.Find("td").Length() > 0
		if t.Headers == nil {
			if hasData || tr.Find("th").Length() == 0 {
				return
			}
			tr.Find("th").Each(func(_ int, th *goquery.Selection) {
				t.Headers = append(t.Headers, utils.CollapseSpace(th.Text()))
			})
			return
		}
		if !hasData {
			return
		}
		cells := make(map[string]string, len(t.Headers))
		tr.Find("th, td").Each(func(i int, c *goquery.Selection) {
			if i < len(t.Headers) {
				cells[t.Headers[i]] = strings.TrimSpace(c.Text())
			}
		})
		t.Rows = append(t.Rows, Row{table: name, cells: cells})
	})
	return t, nil
}

// Totals is a two-column "label | value" table keyed by the collapsed label.
type Totals struct {
	table  string
	values map[string]string
}

// ExtractTotals reads a totals table where each row is a <th> label and a <td>
// value.
func ExtractTotals(doc *goquery.Document, name string, loc TableLocator) (*Totals, error) {
	sel := loc.find(doc)
	if sel.Length() == 0 {
		return nil, &TableNotFoundError{Table: name, Locator: loc.String()}
	}
	t := &Totals{table: name, values: map[string]string{}}
	cleanTable(sel).Find("tr").Each(func(_ int, tr *goquery.Selection) {
		th, td := tr.Find("th").First(), tr.Find("td").First()
		if th.Length() == 0 || td.Length() == 0 {
			return
		}
		t.values[utils.CollapseSpace(th.Text())] = strings.TrimSpace(td.Text())
	})
	return t, nil
}

// Row exposes the totals as a single Row so the same typed accessors apply.
func (t *Totals) Row() Row {
	return Row{table: t.table, cells: t.values}
}
