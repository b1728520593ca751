// Package seed fetches raw series records from the remote seed source.
package seed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker"

	"github.com/jmverlaan/climogram/pkg/model"
)

// ErrFetchFailed means the remote seed source returned a non-success
// status or the request failed outright. The client never retries; the
// caller decides what a failed cold load means.
var ErrFetchFailed = errors.New("seed fetch failed")

// Source is the remote origin of raw records for a category.
type Source interface {
	Fetch(ctx context.Context, cat model.Category) ([]model.RawRecord, error)
}

// Client fetches seed files over HTTP from GET {base}/data/{category}.json.
// A circuit breaker short-circuits a source that keeps failing so rapid
// user interaction does not hammer a dead endpoint; the breaker never
// retries on the caller's behalf.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewClient builds a Client for the given base URL. Pass nil to use a
// default HTTP client with a 30s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "seed-source",
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// Fetch retrieves the raw records for one category.
func (c *Client) Fetch(ctx context.Context, cat model.Category) ([]model.RawRecord, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, cat)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: source circuit open", ErrFetchFailed)
		}
		return nil, err
	}
	return out.([]model.RawRecord), nil
}

func (c *Client) fetch(ctx context.Context, cat model.Category) ([]model.RawRecord, error) {
	url := fmt.Sprintf("%s/data/%s.json", c.baseURL, cat)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request %s: %v", ErrFetchFailed, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status %s for %s", ErrFetchFailed, resp.Status, url)
	}

	var records []model.RawRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %v", ErrFetchFailed, err)
	}
	return records, nil
}
