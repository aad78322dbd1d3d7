package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/anime-shed/body-measure-go/pkg/sizing"
	"github.com/anime-shed/body-measure-go/pkg/validation"
)

const httpFetchAttempts = 3

// HTTPChartFetcher downloads a JSON size chart over HTTP
type HTTPChartFetcher struct {
	client    *http.Client
	backoff   time.Duration
	validator *validation.URLValidator
}

// NewHTTPChartFetcher creates an HTTP chart fetcher
func NewHTTPChartFetcher(timeout time.Duration) *HTTPChartFetcher {
	return newHTTPChartFetcher(timeout, time.Second)
}

func newHTTPChartFetcher(timeout, backoff time.Duration) *HTTPChartFetcher {
	transport := &http.Transport{
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 1,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPChartFetcher{
		backoff:   backoff,
		validator: validation.NewURLValidator(),
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,

			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
	}
}

// FetchChart downloads and validates the chart at chartURL. Network errors
// and 5xx responses are retried; 4xx responses are not.
func (h *HTTPChartFetcher) FetchChart(ctx context.Context, chartURL string) (*sizing.Chart, error) {
	if err := h.validator.ValidateChartURL(chartURL); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, chartURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "body-measure/1.0")

	var lastErr error
	for attempt := 0; attempt < httpFetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * h.backoff):
			}
		}

		resp, err := h.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		chart, retry, err := readChartResponse(resp)
		if err == nil {
			return chart, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}

	return nil, fmt.Errorf("failed to fetch size chart after %d attempts: %w", httpFetchAttempts, lastErr)
}

func readChartResponse(resp *http.Response) (chart *sizing.Chart, retry bool, err error) {
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, false, fmt.Errorf("client error: status code %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	chart, err = decodeChart(resp.Body)
	if err != nil {
		return nil, false, err
	}
	return chart, false, nil
}
