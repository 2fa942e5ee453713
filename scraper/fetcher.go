// scraper/fetcher.go
package scraper

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gewnthar/mncovid/config"
	"github.com/go-resty/resty/v2"
)

// Fetcher downloads the situation page. One attempt per call; a failure is a
// *FetchFailure and the caller stops for this invocation.
type Fetcher struct {
	client *resty.Client
	url    string
	logger *slog.Logger
}

func NewFetcher(cfg config.SourceConfig, logger *slog.Logger) *Fetcher {
	client := resty.New()
	client.SetHeader("user-agent", cfg.UserAgent)
	client.SetTimeout(cfg.Timeout)
	client.SetRetryCount(0)

	return &Fetcher{client: client, url: cfg.SituationURL, logger: logger}
}

// URL is the page this fetcher reads.
func (f *Fetcher) URL() string { return f.url }

func (f *Fetcher) FetchSituationPage(ctx context.Context) ([]byte, error) {
	f.logger.Debug("fetching situation page", "url", f.url)

	resp, err := f.client.R().SetContext(ctx).Get(f.url)
	if err != nil {
		return nil, &FetchFailure{URL: f.url, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &FetchFailure{URL: f.url, StatusCode: resp.StatusCode()}
	}
	body := resp.Body()
	if len(body) == 0 {
		return nil, &FetchFailure{URL: f.url, StatusCode: resp.StatusCode()}
	}

	f.logger.Info("fetched situation page", "url", f.url, "bytes", len(body))
	return body, nil
}
