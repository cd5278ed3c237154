// Package catalog fetches default reviewer templates and AI review
// workflows from the challenge metadata APIs.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/topcoder-platform/work-manager-sub000/internal/domain/model"
	"github.com/topcoder-platform/work-manager-sub000/pkg/logger"
)

const defaultTimeout = 10 * time.Second

// Client implements the engine's TemplateStore and WorkflowDirectory
// contracts over HTTP, with read-through caches; template and workflow
// definitions change rarely relative to an edit session.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     logger.Logger

	mu        sync.RWMutex
	templates map[string]*model.ReviewerTemplate
	workflows map[string]*model.Workflow
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithToken sets the bearer token attached to every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient builds a catalog client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		http:      &http.Client{Timeout: defaultTimeout},
		templates: make(map[string]*model.ReviewerTemplate),
		workflows: make(map[string]*model.Workflow),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get().Named("catalog")
	}
	return c
}

// FindDefaultReviewer returns the default reviewer template for a
// (track, type, phase) triple, or nil when none is defined. phaseID may
// be empty; the API then matches on track and type alone.
func (c *Client) FindDefaultReviewer(ctx context.Context, trackID, typeID, phaseID string) (*model.ReviewerTemplate, error) {
	key := trackID + "|" + typeID + "|" + phaseID
	c.mu.RLock()
	tpl, ok := c.templates[key]
	c.mu.RUnlock()
	if ok {
		return tpl, nil
	}

	q := url.Values{}
	q.Set("trackId", trackID)
	q.Set("typeId", typeID)
	if phaseID != "" {
		q.Set("phaseId", phaseID)
	}
	resp, err := c.get(ctx, "/default-reviewers?"+q.Encode())
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("find default reviewer: unexpected status %d", resp.StatusCode)
	}

	var rows []struct {
		TrackID                string  `json:"trackId"`
		TypeID                 string  `json:"typeId"`
		PhaseID                string  `json:"phaseId"`
		ScorecardID            string  `json:"scorecardId"`
		AIWorkflowID           string  `json:"aiWorkflowId"`
		IsMemberReview         bool    `json:"isMemberReview"`
		FixedAmount            float64 `json:"fixedAmount"`
		BaseCoefficient        float64 `json:"baseCoefficient"`
		IncrementalCoefficient float64 `json:"incrementalCoefficient"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode default reviewers: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	r := rows[0]
	tpl = &model.ReviewerTemplate{
		TrackID:                r.TrackID,
		TypeID:                 r.TypeID,
		PhaseID:                r.PhaseID,
		ScorecardID:            r.ScorecardID,
		AIWorkflowID:           r.AIWorkflowID,
		IsMemberReview:         r.IsMemberReview,
		FixedAmount:            r.FixedAmount,
		BaseCoefficient:        r.BaseCoefficient,
		IncrementalCoefficient: r.IncrementalCoefficient,
	}
	c.mu.Lock()
	c.templates[key] = tpl
	c.mu.Unlock()
	return tpl, nil
}

// LookupWorkflow resolves an AI review workflow by id, or nil when the
// workflow does not exist.
func (c *Client) LookupWorkflow(ctx context.Context, workflowID string) (*model.Workflow, error) {
	c.mu.RLock()
	wf, ok := c.workflows[workflowID]
	c.mu.RUnlock()
	if ok {
		return wf, nil
	}

	resp, err := c.get(ctx, "/ai-workflows/"+url.PathEscape(workflowID))
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("lookup workflow: unexpected status %d", resp.StatusCode)
	}

	var row struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		ScorecardID string `json:"scorecardId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&row); err != nil {
		return nil, fmt.Errorf("decode workflow: %w", err)
	}

	wf = &model.Workflow{ID: row.ID, Name: row.Name, ScorecardID: row.ScorecardID}
	c.mu.Lock()
	c.workflows[workflowID] = wf
	c.mu.Unlock()
	return wf, nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
