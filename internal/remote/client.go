// Package remote talks to the sync service that stores one snapshot of
// app data per user, keyed by email. Sync is best effort: a failed push
// is reported and the local state stays authoritative.
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

	"github.com/ultiflow/ultiflow/internal/domain"
)

// Snapshot is the full app payload stored per email. Only the knowledge
// base is typed here; the planner, goal and journal payloads belong to
// other parts of the app and are carried through untouched so a sync
// round-trip never drops them.
type Snapshot struct {
	KnowledgeBase []*domain.Note  `json:"knowledgeBase"`
	Tasks         json.RawMessage `json:"tasks,omitempty"`
	YearlyGoals   json.RawMessage `json:"yearlyGoals,omitempty"`
	DailyLogs     json.RawMessage `json:"dailyLogs,omitempty"`
	Habits        json.RawMessage `json:"habits,omitempty"`
}

// Client is an HTTP client for the sync service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the sync service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Load fetches the stored snapshot for email. It returns nil with no
// error when the server has nothing for that email yet.
func (c *Client) Load(ctx context.Context, email string) (*Snapshot, error) {
	u := fmt.Sprintf("%s/api/data/%s", c.baseURL, url.PathEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build load request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to load remote data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sync service returned %s on load", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read load response: %w", err)
	}

	// The service answers JSON null for an unknown email.
	if string(bytes.TrimSpace(body)) == "null" {
		return nil, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode remote snapshot: %w", err)
	}
	return &snap, nil
}

type saveRequest struct {
	Email string    `json:"email"`
	Data  *Snapshot `json:"data"`
}

// Save upserts the snapshot for email.
func (c *Client) Save(ctx context.Context, email string, snap *Snapshot) error {
	payload, err := json.Marshal(saveRequest{Email: email, Data: snap})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/data", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build save request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to save remote data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sync service returned %s on save", resp.Status)
	}
	return nil
}
