// scraper/csv_downloader.go
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"
)

// OpenReferenceCsv opens a reference file given as a local path or an
// http(s) URL.
func OpenReferenceCsv(ctx context.Context, client *resty.Client, src string) (io.ReadCloser, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		f, err := os.Open(src)
		if err != nil {
			return nil, fmt.Errorf("failed to open reference file %s: %w", src, err)
		}
		return f, nil
	}

	if client == nil {
		client = resty.New()
	}
	resp, err := client.R().SetContext(ctx).Get(src)
	if err != nil {
		return nil, &FetchFailure{URL: src, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &FetchFailure{URL: src, StatusCode: resp.StatusCode()}
	}
	return io.NopCloser(bytes.NewReader(resp.Body())), nil
}
