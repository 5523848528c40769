package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"loom/internal/config"
	"loom/internal/fleet"
	"loom/internal/runs"
)

// HTTPDoer describes the HTTP client used to reach the control plane.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the pipeline control plane endpoints.
type Client struct {
	baseURL string
	token   string
	http    HTTPDoer
}

// New constructs a client from application configuration.
func New(cfg *config.Config) *Client {
	return NewWithDoer(cfg.API.BaseURL, cfg.API.Token, &http.Client{Timeout: cfg.RequestTimeout()})
}

// NewWithDoer constructs a client over a caller-supplied HTTP doer.
func NewWithDoer(baseURL, token string, doer HTTPDoer) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    doer,
	}
}

// Paging describes the server-side pagination state of a run listing.
type Paging struct {
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	TotalPages  int  `json:"total_pages"`
	TotalItems  int  `json:"total_items"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// RunPage is one server-filtered, server-paginated page of runs.
type RunPage struct {
	Data   []runs.Record `json:"data"`
	Paging Paging        `json:"paging"`
}

// RunListQuery selects a page of runs from the listing endpoint.
// States may repeat; an empty slice means unfiltered.
type RunListQuery struct {
	GenerationID string
	Page         int
	PageSize     int
	States       []string
}

// ListRuns fetches one page of runs. Status filtering happens
// server-side through the repeated state parameter.
func (c *Client) ListRuns(ctx context.Context, query RunListQuery) (*RunPage, error) {
	values := url.Values{}
	if query.GenerationID != "" {
		values.Set("generation_id", query.GenerationID)
	}
	if query.Page > 0 {
		values.Set("page", strconv.Itoa(query.Page))
	}
	if query.PageSize > 0 {
		values.Set("page_size", strconv.Itoa(query.PageSize))
	}
	for _, state := range query.States {
		values.Add("state", state)
	}

	var page RunPage
	if err := c.getJSON(ctx, "/run", values, &page); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return &page, nil
}

// GetGeneration fetches a generation record. Runs are paged separately
// through ListRuns.
func (c *Client) GetGeneration(ctx context.Context, id string) (*runs.Generation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("get generation: id is empty")
	}
	var generation runs.Generation
	if err := c.getJSON(ctx, "/generation/"+url.PathEscape(id), nil, &generation); err != nil {
		return nil, fmt.Errorf("get generation %s: %w", id, err)
	}
	return &generation, nil
}

// FleetStatus fetches a wholesale fleet snapshot.
func (c *Client) FleetStatus(ctx context.Context) (*fleet.Snapshot, error) {
	var snapshot fleet.Snapshot
	if err := c.getJSON(ctx, "/infra/status", nil, &snapshot); err != nil {
		return nil, fmt.Errorf("fleet status: %w", err)
	}
	return &snapshot, nil
}

type workerActionRequest struct {
	Action fleet.Action `json:"action"`
	Option int          `json:"option,omitempty"`
}

type cancelConsumerRequest struct {
	Queue string `json:"queue"`
}

// WorkerAction dispatches a shutdown or pool resize against a worker.
// The response payload is not trusted for state updates; callers
// re-fetch the snapshot instead.
func (c *Client) WorkerAction(ctx context.Context, workerID string, action fleet.Action, option int) error {
	body := workerActionRequest{Action: action, Option: option}
	path := "/infra/workers/" + url.PathEscape(workerID) + "/action"
	if err := c.postJSON(ctx, path, body); err != nil {
		return fmt.Errorf("worker action %s: %w", action, err)
	}
	return nil
}

// CancelConsumer stops a worker consuming one queue.
func (c *Client) CancelConsumer(ctx context.Context, workerID, queue string) error {
	body := cancelConsumerRequest{Queue: queue}
	path := "/infra/workers/" + url.PathEscape(workerID) + "/cancel-consumer"
	if err := c.postJSON(ctx, path, body); err != nil {
		return fmt.Errorf("cancel consumer: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, values url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(values) > 0 {
		endpoint += "?" + values.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail := readErrorDetail(resp.Body)
		if detail != "" {
			return fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, detail)
		}
		return fmt.Errorf("endpoint returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readErrorDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 512))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
