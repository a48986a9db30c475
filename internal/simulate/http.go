package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseBytes = 1 << 20

// client wraps http.Client with JSON helpers for the ranking API.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// do sends a request and decodes a 2xx JSON body into out, if out is
// non-nil. Other statuses come back as *StatusError.
func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Status: resp.StatusCode}
		var e errorResponse
		if json.Unmarshal(data, &e) == nil {
			se.Code, se.Message = e.Code, e.Message
		}
		return se
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *client) health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *client) selectList(ctx context.Context, listID string) (viewResponse, error) {
	var v viewResponse
	err := c.do(ctx, http.MethodPost, "/lists/"+listID+"/select", nil, &v)
	return v, err
}

func (c *client) reset(ctx context.Context, listID string) error {
	return c.do(ctx, http.MethodDelete, "/lists/"+listID, nil, nil)
}

func (c *client) matchup(ctx context.Context, listID string) (matchupResponse, error) {
	var m matchupResponse
	err := c.do(ctx, http.MethodGet, "/lists/"+listID+"/matchup", nil, &m)
	return m, err
}

func (c *client) vote(ctx context.Context, listID string, v voteRequest) (voteResponse, error) {
	var res voteResponse
	err := c.do(ctx, http.MethodPost, "/lists/"+listID+"/votes", v, &res)
	return res, err
}

func (c *client) ranking(ctx context.Context, listID string) ([]string, error) {
	var r rankingResponse
	if err := c.do(ctx, http.MethodGet, "/lists/"+listID+"/ranking", nil, &r); err != nil {
		return nil, err
	}
	ids := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		ids[i] = e.ItemID
	}
	return ids, nil
}
