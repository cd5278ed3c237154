// Package resource talks to the resource API: the system of record for
// which members hold which roles on a challenge.
package resource

import (
	"bytes"
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

// Client implements the engine's ResourceService and RoleDirectory
// contracts over HTTP.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     logger.Logger

	// Role ids never change within a deploy; cache lookups.
	rolesMu   sync.RWMutex
	roleCache map[string]string
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

// NewClient builds a resource API client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		http:      &http.Client{Timeout: defaultTimeout},
		roleCache: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get().Named("resource")
	}
	return c
}

type assignmentBody struct {
	ChallengeID  string `json:"challengeId"`
	RoleID       string `json:"roleId"`
	MemberHandle string `json:"memberHandle"`
}

// CreateAssignment attaches a member to a role on a challenge. A 409
// (already assigned) is success: the contract is idempotent.
func (c *Client) CreateAssignment(ctx context.Context, challengeID, roleID, memberHandle string) error {
	body := assignmentBody{ChallengeID: challengeID, RoleID: roleID, MemberHandle: memberHandle}
	resp, err := c.do(ctx, http.MethodPost, "/resources", body)
	if err != nil {
		return err
	}
	defer drain(resp)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusConflict:
		return nil // already assigned
	default:
		return fmt.Errorf("create assignment: %w", statusError(resp))
	}
}

// DeleteAssignment detaches a member from a role on a challenge. A 404
// (not assigned) is success.
func (c *Client) DeleteAssignment(ctx context.Context, challengeID, roleID, memberHandle string) error {
	body := assignmentBody{ChallengeID: challengeID, RoleID: roleID, MemberHandle: memberHandle}
	resp, err := c.do(ctx, http.MethodDelete, "/resources", body)
	if err != nil {
		return err
	}
	defer drain(resp)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return nil // already absent
	default:
		return fmt.Errorf("delete assignment: %w", statusError(resp))
	}
}

// ListAssignments fetches the current role assignments for a challenge.
func (c *Client) ListAssignments(ctx context.Context, challengeID string) ([]model.RoleAssignment, error) {
	path := "/resources?challengeId=" + url.QueryEscape(challengeID)
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list assignments: %w", statusError(resp))
	}

	var rows []struct {
		ChallengeID  string `json:"challengeId"`
		RoleID       string `json:"roleId"`
		RoleName     string `json:"roleName"`
		MemberHandle string `json:"memberHandle"`
		MemberID     string `json:"memberId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode assignments: %w", err)
	}

	out := make([]model.RoleAssignment, len(rows))
	for i, r := range rows {
		out[i] = model.RoleAssignment{
			ChallengeID:  r.ChallengeID,
			RoleID:       r.RoleID,
			RoleName:     r.RoleName,
			MemberHandle: r.MemberHandle,
			MemberID:     r.MemberID,
		}
	}
	return out, nil
}

// LookupRoleID resolves a role display name to its id, caching hits.
func (c *Client) LookupRoleID(ctx context.Context, roleName string) (string, error) {
	c.rolesMu.RLock()
	id, ok := c.roleCache[roleName]
	c.rolesMu.RUnlock()
	if ok {
		return id, nil
	}

	path := "/resource-roles?name=" + url.QueryEscape(roleName)
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lookup role: %w", statusError(resp))
	}

	var roles []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&roles); err != nil {
		return "", fmt.Errorf("decode roles: %w", err)
	}
	for _, r := range roles {
		if r.Name == roleName {
			c.rolesMu.Lock()
			c.roleCache[roleName] = r.ID
			c.rolesMu.Unlock()
			return r.ID, nil
		}
	}
	return "", ErrRoleNotFound
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	return fmt.Errorf("unexpected status %d", resp.StatusCode)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
