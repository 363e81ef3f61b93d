// Package oddsapi is the REST client for the upstream odds provider, which
// serves per-sport event odds and final scores.
package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tgrayson/oddsmith/internal/domain"
)

// Client is the REST client for the odds provider API. The API key travels as
// a query parameter, not a header.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new provider client.
//
// baseURL is the API root, e.g. "https://api.the-odds-api.com/v4".
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetOdds returns upcoming and live events for a league with each book's
// moneyline, spread, and total quotes attached. The raw response body is
// returned alongside the decoded events for archival.
func (c *Client) GetOdds(ctx context.Context, league domain.League) ([]Event, []byte, error) {
	sport, ok := SportKey(league)
	if !ok {
		return nil, nil, fmt.Errorf("oddsapi: %w: league %q has no sport key", domain.ErrInvalidArgument, league)
	}

	params := url.Values{}
	params.Set("regions", "us")
	params.Set("markets", "h2h,spreads,totals")
	params.Set("oddsFormat", "american")

	path := fmt.Sprintf("/sports/%s/odds?%s", url.PathEscape(sport), params.Encode())

	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("oddsapi: get odds for %s: %w", league, err)
	}

	var events []Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, nil, fmt.Errorf("oddsapi: decode odds: %w", err)
	}

	return events, body, nil
}

// GetScores returns events from the last daysFrom days with their scores.
// Only events with Completed set carry final scores.
func (c *Client) GetScores(ctx context.Context, league domain.League, daysFrom int) ([]ScoreEvent, error) {
	sport, ok := SportKey(league)
	if !ok {
		return nil, fmt.Errorf("oddsapi: %w: league %q has no sport key", domain.ErrInvalidArgument, league)
	}
	if daysFrom <= 0 {
		daysFrom = 1
	}

	params := url.Values{}
	params.Set("daysFrom", strconv.Itoa(daysFrom))

	path := fmt.Sprintf("/sports/%s/scores?%s", url.PathEscape(sport), params.Encode())

	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("oddsapi: get scores for %s: %w", league, err)
	}

	var scores []ScoreEvent
	if err := json.Unmarshal(body, &scores); err != nil {
		return nil, fmt.Errorf("oddsapi: decode scores: %w", err)
	}

	return scores, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends a GET request with the API key appended.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	full := c.baseURL + path + sep + "apiKey=" + url.QueryEscape(c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: provider quota exhausted", domain.ErrRateLimited)
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("unauthorized: check the provider API key")
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// parseScore parses the provider's string score field.
func parseScore(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse score %q: %w", s, err)
	}
	return n, nil
}
