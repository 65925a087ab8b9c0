// Package roster talks to the simulation-session service, which owns role
// requirements and participant assignment. This service only consumes the
// boundary; the pool and selection policy live on the other side.
package roster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client implements autofill.RosterProvider over the simulation service's
// HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) RolesRequired(ctx context.Context, simulationID string) ([]string, error) {
	var out struct {
		Roles []string `json:"roles"`
	}
	path := fmt.Sprintf("/internal/simulation/%s/roles", url.PathEscape(simulationID))
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Roles, nil
}

func (c *Client) AssignedParticipant(ctx context.Context, simulationID, roleID string) (string, bool, error) {
	var out struct {
		UserID   string `json:"user_id"`
		Assigned bool   `json:"assigned"`
	}
	path := fmt.Sprintf("/internal/simulation/%s/roles/%s/participant",
		url.PathEscape(simulationID), url.PathEscape(roleID))
	if err := c.get(ctx, path, &out); err != nil {
		return "", false, err
	}
	return out.UserID, out.Assigned, nil
}

func (c *Client) EligibleStandbyParticipants(ctx context.Context, excludeUserIDs []string) ([]string, error) {
	var out struct {
		UserIDs []string `json:"user_ids"`
	}
	q := url.Values{}
	for _, id := range excludeUserIDs {
		q.Add("exclude", id)
	}
	path := "/internal/simulation/standby?" + q.Encode()
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.UserIDs, nil
}

func (c *Client) AssignParticipant(ctx context.Context, simulationID, roleID, userID string) error {
	body, _ := json.Marshal(map[string]string{"user_id": userID})
	path := fmt.Sprintf("/internal/simulation/%s/roles/%s/participant",
		url.PathEscape(simulationID), url.PathEscape(roleID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("assign participant: simulation service returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("simulation service returned %d for %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
