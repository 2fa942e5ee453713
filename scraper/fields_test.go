package scraper

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gewnthar/mncovid/models"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestParseCommaInt(t *testing.T) {
	tests := []struct {
		in      string
		want    *int
		wantErr bool
	}{
		{in: "12,345", want: intPtr(12345)},
		{in: " 1,234,567 ", want: intPtr(1234567)},
		{in: "0", want: intPtr(0)},
		{in: "-", want: nil},
		{in: "-   ", want: nil},
		{in: "", want: nil},
		{in: "abc", wantErr: true},
		{in: "1.5", wantErr: true},
		{in: "12 345", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCommaInt(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParsePercent(t *testing.T) {
	got, err := ParsePercent("12%")
	require.NoError(t, err)
	require.Equal(t, 12, *got)

	got, err = ParsePercent("<1%")
	require.NoError(t, err)
	require.Equal(t, -1, *got)

	got, err = ParsePercent("-")
	require.NoError(t, err)
	require.Nil(t, got)

	_, err = ParsePercent("lots%")
	require.Error(t, err)
}

func TestParseShortDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		ref  models.Date
		want models.Date
	}{
		{"two digit year", "3/5/20", models.NewDate(2021, 1, 2), models.NewDate(2020, 3, 5)},
		{"four digit year", "11/9/2020", models.NewDate(2021, 1, 2), models.NewDate(2020, 11, 9)},
		{"same year", "11/9", models.NewDate(2020, 11, 10), models.NewDate(2020, 11, 9)},
		{"december seen in january", "12/31", models.NewDate(2021, 1, 2), models.NewDate(2020, 12, 31)},
		{"the run date itself", "1/2", models.NewDate(2021, 1, 2), models.NewDate(2021, 1, 2)},
		{"one day ahead is allowed", "1/1", models.NewDate(2020, 12, 31), models.NewDate(2021, 1, 1)},
		{"two days ahead falls back a year", "1/4", models.NewDate(2021, 1, 2), models.NewDate(2020, 1, 4)},
		{"leap day skips invalid years", "2/29", models.NewDate(2021, 3, 1), models.NewDate(2020, 2, 29)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseShortDate(tt.text, tt.ref)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"13/1", "2/30/20", "abc", "1/2/3/4", "Unknown/missing"} {
		_, err := ParseShortDate(bad, models.NewDate(2020, 6, 1))
		require.Error(t, err, bad)
	}
}

func docFromString(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractUpdateBannerDate(t *testing.T) {
	d, err := ExtractUpdateBannerDate(docFromString(t, `<p><strong>Updated November 10, 2020</strong></p>`))
	require.NoError(t, err)
	require.Equal(t, models.NewDate(2020, 11, 10), d)

	d, err = ExtractUpdateBannerDate(docFromString(t, `<p>Updated Sept. 3, 2020<br>Updated weekdays</p>`))
	require.NoError(t, err)
	require.Equal(t, models.NewDate(2020, 9, 3), d)

	d, err = ExtractUpdateBannerDate(docFromString(t, `<p>Updated Oct 1, 2020</p>`))
	require.NoError(t, err)
	require.Equal(t, models.NewDate(2020, 10, 1), d)

	var parseErr *FieldParseError
	_, err = ExtractUpdateBannerDate(docFromString(t, `<p>Updated Junk 3, 2020</p>`))
	require.ErrorAs(t, err, &parseErr)
	_, err = ExtractUpdateBannerDate(docFromString(t, `<p>Updated Marchington 3, 2020</p>`))
	require.ErrorAs(t, err, &parseErr)

	_, err = ExtractUpdateBannerDate(docFromString(t, `<p>Refreshed daily</p>`))
	var bannerErr *BannerNotFoundError
	require.True(t, errors.As(err, &bannerErr))
}

func TestExtractRemovedCases(t *testing.T) {
	n, err := ExtractRemovedCases(docFromString(t, `<ul><li>Other bullet</li></ul><ul><li>Cases removed: 1,012</li></ul>`))
	require.NoError(t, err)
	require.Equal(t, 1012, *n)

	n, err = ExtractRemovedCases(docFromString(t, `<ul><li>Nothing here</li></ul>`))
	require.NoError(t, err)
	require.Nil(t, n)
}

func TestIsFresh(t *testing.T) {
	today := models.NewDate(2020, 11, 10)
	require.True(t, IsFresh(today, today))
	require.False(t, IsFresh(today.AddDays(-1), today))
	require.False(t, IsFresh(models.Date{}, today))
}
