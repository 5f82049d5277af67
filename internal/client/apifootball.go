package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"bc_tele/datafetcher/internal/metrics"
	"bc_tele/datafetcher/internal/models"

	"github.com/rs/zerolog/log"
)

// Client is the API-Football (api-sports.io v3) client
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter chan struct{} // Rate limiting semaphore
	maxRetries  int
	retryDelay  time.Duration
}

// NewClient creates a new API-Football client
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	// Create rate limiter (max 10 concurrent requests)
	rateLimiter := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		rateLimiter <- struct{}{}
	}

	return &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		rateLimiter: rateLimiter,
		maxRetries:  3,
		retryDelay:  1 * time.Second,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// get performs a GET request with bounded retries and rate limiting
func (c *Client) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, path)
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("url", url).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying API request after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		// Rate limiting: acquire semaphore
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.rateLimiter:
		}

		body, retryable, err := c.doRequest(ctx, url, params, attempt)
		c.rateLimiter <- struct{}{}

		if err == nil {
			metrics.RecordAPICall(path, "success", time.Since(start).Seconds())
			return body, nil
		}
		lastErr = err
		if !retryable || attempt == c.maxRetries {
			metrics.RecordAPICall(path, "error", time.Since(start).Seconds())
			return nil, lastErr
		}
	}

	metrics.RecordAPICall(path, "error", time.Since(start).Seconds())
	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, url string, params map[string]string, attempt int) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-apisports-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	if len(params) > 0 {
		q := req.URL.Query()
		for key, value := range params {
			q.Add(key, value)
		}
		req.URL.RawQuery = q.Encode()
	}

	log.Debug().
		Str("url", url).
		Int("attempt", attempt+1).
		Msg("Making API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Retry on network errors
		return nil, true, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		log.Debug().
			Str("url", url).
			Int("status", resp.StatusCode).
			Int("size", len(body)).
			Msg("API request successful")
		return body, false, nil

	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return nil, true, fmt.Errorf("API returned retryable status %d: %s", resp.StatusCode, string(body))

	case http.StatusUnauthorized, http.StatusForbidden:
		// Don't retry auth errors
		return nil, false, fmt.Errorf("API authentication failed (status %d): %s", resp.StatusCode, string(body))

	default:
		return nil, false, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}
}

// FetchFixturesByDate fetches all fixtures for a calendar date in the given
// IANA timezone
func (c *Client) FetchFixturesByDate(ctx context.Context, date, timezone string) (*models.FixturesResponse, error) {
	body, err := c.get(ctx, "fixtures", map[string]string{
		"date":     date,
		"timezone": timezone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fixtures for %s: %w", date, err)
	}

	var resp models.FixturesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fixtures for %s: %w", date, err)
	}

	log.Debug().
		Str("date", date).
		Str("timezone", timezone).
		Int("count", len(resp.Response)).
		Msg("Fixtures fetched")

	return &resp, nil
}

// FetchOdds fetches bookmaker odds for one fixture. A zero bookmakerID
// requests all bookmakers.
func (c *Client) FetchOdds(ctx context.Context, fixtureID int64, bookmakerID int32) (*models.OddsResponse, error) {
	params := map[string]string{
		"fixture": strconv.FormatInt(fixtureID, 10),
	}
	if bookmakerID != 0 {
		params["bookmaker"] = strconv.FormatInt(int64(bookmakerID), 10)
	}

	body, err := c.get(ctx, "odds", params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch odds for fixture %d: %w", fixtureID, err)
	}

	var resp models.OddsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal odds for fixture %d: %w", fixtureID, err)
	}

	return &resp, nil
}
