package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is the HTTP implementation of Backend.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a backend client for the given base URL. An empty token
// sends unauthenticated requests (local development backends).
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// UpsertProfileSummary mirrors the aggregate snapshot fields outward.
func (c *Client) UpsertProfileSummary(ctx context.Context, summary ProfileSummary) error {
	if err := c.doJSON(ctx, http.MethodPost, "/v1/profile-summary", summary, nil); err != nil {
		return fmt.Errorf("upsert profile summary: %w", err)
	}
	return nil
}

// UpsertDayRow mirrors one day record outward. Idempotent per (user, day)
// on the backend side.
func (c *Client) UpsertDayRow(ctx context.Context, row DayRow) error {
	if err := c.doJSON(ctx, http.MethodPost, "/v1/day-rows", row, nil); err != nil {
		return fmt.Errorf("upsert day row %d: %w", row.Day, err)
	}
	return nil
}

// FetchDayRows returns the remote per-day rows for a user, ordered by day.
func (c *Client) FetchDayRows(ctx context.Context, userID string) ([]DayRow, error) {
	var out struct {
		Rows []DayRow `json:"rows"`
	}
	path := "/v1/day-rows?user_id=" + url.QueryEscape(userID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("fetch day rows: %w", err)
	}
	return out.Rows, nil
}

// FetchAggregateXP returns the leaderboard-style XP total for a user.
// A 404 means the backend has no aggregate yet, which is not an error.
func (c *Client) FetchAggregateXP(ctx context.Context, userID string) (int64, bool, error) {
	var out struct {
		XP int64 `json:"xp"`
	}
	path := "/v1/aggregate-xp?user_id=" + url.QueryEscape(userID)
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	if err == errNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("fetch aggregate xp: %w", err)
	}
	return out.XP, true, nil
}

// FetchEnrollmentStartDate returns the authoritative enrollment start date
// for a journey, or ("", false) when the user is not enrolled.
func (c *Client) FetchEnrollmentStartDate(ctx context.Context, userID, journey string) (string, bool, error) {
	var out struct {
		StartDate string `json:"start_date"`
	}
	path := "/v1/enrollments?user_id=" + url.QueryEscape(userID) +
		"&journey=" + url.QueryEscape(journey)
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	if err == errNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("fetch enrollment: %w", err)
	}
	return out.StartDate, out.StartDate != "", nil
}

// errNotFound marks a 404 so callers can map it to "no value" instead of a
// failure.
var errNotFound = fmt.Errorf("not found")

// doJSON runs one JSON request. A nil out discards the response body.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
