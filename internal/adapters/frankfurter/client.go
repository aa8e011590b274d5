package frankfurter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/165cm/fxarchive/internal/domain"
)

const sourceID = "Frankfurter"

// Client fetches daily USD/JPY rates from the Frankfurter API.
type Client struct {
	http    *http.Client
	baseURL string
}

func NewClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{http: httpClient, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (c *Client) SourceID() string { return sourceID }

type singleDayResponse struct {
	Rates struct {
		JPY *float64 `json:"JPY"`
	} `json:"rates"`
}

type rangeResponse struct {
	Rates map[string]struct {
		JPY *float64 `json:"JPY"`
	} `json:"rates"`
}

// FetchRate returns the USD/JPY rate published for one date.
func (c *Client) FetchRate(ctx context.Context, date domain.Date) (float64, error) {
	body, err := c.get(ctx, string(date))
	if err != nil {
		return 0, err
	}

	var parsed singleDayResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, c.fail(fmt.Errorf("failed to decode response for %s: %w", date, err))
	}
	if parsed.Rates.JPY == nil {
		return 0, c.fail(fmt.Errorf("no JPY rate in response for %s", date))
	}
	return *parsed.Rates.JPY, nil
}

// FetchRateRange returns all published rates in [start, end]. The provider
// omits days it has no fixing for (weekends, some holidays).
func (c *Client) FetchRateRange(ctx context.Context, start, end domain.Date) (map[domain.Date]float64, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s..%s", start, end))
	if err != nil {
		return nil, err
	}

	var parsed rangeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, c.fail(fmt.Errorf("failed to decode range response %s..%s: %w", start, end, err))
	}

	rates := make(map[domain.Date]float64, len(parsed.Rates))
	for raw, entry := range parsed.Rates {
		d, parseErr := domain.ParseDate(raw)
		if parseErr != nil {
			return nil, c.fail(fmt.Errorf("range response %s..%s: %w", start, end, parseErr))
		}
		if entry.JPY == nil {
			return nil, c.fail(fmt.Errorf("no JPY rate for %s in range response", d))
		}
		rates[d] = *entry.JPY
	}
	return rates, nil
}

func (c *Client) get(ctx context.Context, datePart string) ([]byte, error) {
	u, err := url.Parse(c.baseURL + "/" + datePart)
	if err != nil {
		return nil, c.fail(fmt.Errorf("failed to build request URL: %w", err))
	}
	q := u.Query()
	q.Set("from", "USD")
	q.Set("to", "JPY")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, c.fail(fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.fail(fmt.Errorf("failed to execute request for %s: %w", datePart, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.fail(fmt.Errorf("unexpected status %d for %s: %s", resp.StatusCode, datePart, resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(fmt.Errorf("failed to read response for %s: %w", datePart, err))
	}
	return body, nil
}

func (c *Client) fail(err error) error {
	return &domain.UpstreamError{Provider: sourceID, Err: err}
}
