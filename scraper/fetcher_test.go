package scraper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gewnthar/mncovid/config"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetcherFetchSituationPage(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html>Updated November 10, 2020</html>"))
	}))
	defer srv.Close()

	f := NewFetcher(config.SourceConfig{SituationURL: srv.URL, UserAgent: "mncovid-test", Timeout: 5 * time.Second}, discardLogger())
	body, err := f.FetchSituationPage(context.Background())
	require.NoError(t, err)
	require.Contains(t, string(body), "Updated November 10, 2020")
	require.Equal(t, "mncovid-test", gotUA)
}

func TestFetcherFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewFetcher(config.SourceConfig{SituationURL: srv.URL, Timeout: 5 * time.Second}, discardLogger())
	_, err := f.FetchSituationPage(context.Background())

	var failure *FetchFailure
	require.True(t, errors.As(err, &failure))
	require.Equal(t, http.StatusServiceUnavailable, failure.StatusCode)
	require.Equal(t, srv.URL, failure.URL)
}

func TestOpenReferenceCsv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counties.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,fips\n"), 0o600))

	rc, err := OpenReferenceCsv(context.Background(), nil, path)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "name,fips\n", string(data))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("age_group,population\n"))
	}))
	defer srv.Close()

	rc, err = OpenReferenceCsv(context.Background(), nil, srv.URL+"/ages.csv")
	require.NoError(t, err)
	data, err = io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "age_group,population\n", string(data))

	_, err = OpenReferenceCsv(context.Background(), nil, filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}
