package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/loominal/loominal/internal/client/models"
	"github.com/loominal/loominal/internal/common"
	"github.com/loominal/loominal/internal/logging"
)

const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is read for its message.
const maxErrorBody = 64 << 10

type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration
	log     logging.Logger

	mu     sync.RWMutex
	tokens TokenSource
	orgs   OrganizationSource
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client. Its own Timeout should
// be zero; the per-call timeout is applied through the context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(log logging.Logger) Option {
	return func(c *HTTPClient) { c.log = log }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *HTTPClient) { c.tokens = ts }
}

func WithOrganizationSource(src OrganizationSource) Option {
	return func(c *HTTPClient) { c.orgs = src }
}

func NewHTTPClient(baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base url %q must be http or https", baseURL)
	}

	c := &HTTPClient{
		baseURL: u,
		http:    &http.Client{},
		timeout: DefaultTimeout,
		log:     logging.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "api")
	return c, nil
}

// SetTokenSource swaps the token source, e.g. after the session is rebuilt.
func (c *HTTPClient) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

// SetOrganizationSource swaps the organization source. The tenancy manager
// needs the client to exist first, so it is attached after construction.
func (c *HTTPClient) SetOrganizationSource(src OrganizationSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orgs = src
}

func (c *HTTPClient) sources() (TokenSource, OrganizationSource) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens, c.orgs
}

// Do performs one request against the API. body, when non-nil, is sent as
// JSON; out, when non-nil, receives the decoded 2xx response.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body, out any) error {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(callCtx, method, path, body)
	if err != nil {
		return err
	}
	requestID := req.Header.Get(common.RequestIDHeaderName)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportError(ctx, callCtx, method, path, requestID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := c.statusError(resp)
		c.log.Warn(ctx, "api request failed",
			"method", method, "path", path, "status", resp.StatusCode,
			"request_id", requestID, "error", apiErr)
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctxErr := contextError(ctx, callCtx); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + path

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(common.RequestIDHeaderName, uuid.NewString())

	tokens, orgs := c.sources()
	if tokens != nil {
		if token, ok := tokens.Token(ctx); ok && token != "" {
			req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
		}
	}
	if orgs != nil {
		if id, ok := orgs.CurrentOrganizationID(); ok {
			req.Header.Set(common.OrganizationHeaderName, strconv.FormatInt(id, 10))
		}
	}
	return req, nil
}

// contextError distinguishes the caller giving up from the call's own
// deadline firing.
func contextError(parent, call context.Context) error {
	if err := parent.Err(); err != nil {
		return err
	}
	if errors.Is(call.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return nil
}

func (c *HTTPClient) transportError(parent, call context.Context, method, path, requestID string, err error) error {
	if ctxErr := contextError(parent, call); ctxErr != nil {
		if errors.Is(ctxErr, ErrTimeout) {
			c.log.Warn(parent, "api request timed out",
				"method", method, "path", path, "timeout", c.timeout, "request_id", requestID)
		}
		return ctxErr
	}
	c.log.Warn(parent, "api transport failure",
		"method", method, "path", path, "request_id", requestID, "error", err)
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (c *HTTPClient) statusError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, Kind: kindForStatus(resp.StatusCode)}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		apiErr.Message = eb.text()
	}
	return apiErr
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.Do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return err
	}
	if !strings.EqualFold(resp.Status, "ok") && !strings.EqualFold(resp.Status, "healthy") {
		return ErrUnavailable
	}
	return nil
}

func (c *HTTPClient) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	var resp struct {
		Organizations []models.Organization `json:"organizations"`
	}
	if err := c.Do(ctx, http.MethodGet, "/api/organizations", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Organizations == nil {
		return []models.Organization{}, nil
	}
	return resp.Organizations, nil
}

func (c *HTTPClient) CreateOrganization(ctx context.Context, req models.CreateOrganizationRequest) (*models.Organization, error) {
	var resp struct {
		Organization *models.Organization `json:"organization"`
	}
	if err := c.Do(ctx, http.MethodPost, "/api/organizations", req, &resp); err != nil {
		return nil, err
	}
	if resp.Organization == nil {
		return nil, errors.New("create organization: response has no organization")
	}
	return resp.Organization, nil
}

func (c *HTTPClient) GetOrganization(ctx context.Context, id int64) (*models.Organization, error) {
	var resp struct {
		Organization *models.Organization `json:"organization"`
	}
	if err := c.Do(ctx, http.MethodGet, orgPath(id), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Organization == nil {
		return nil, ErrNotFound
	}
	return resp.Organization, nil
}

func (c *HTTPClient) ListMembers(ctx context.Context, orgID int64) ([]models.Member, error) {
	var resp struct {
		Members []models.Member `json:"members"`
	}
	if err := c.Do(ctx, http.MethodGet, orgPath(orgID)+"/members", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Members, nil
}

func (c *HTTPClient) UpdateMemberRole(ctx context.Context, orgID, memberID int64, role models.Role) error {
	path := orgPath(orgID) + "/members/" + strconv.FormatInt(memberID, 10)
	return c.Do(ctx, http.MethodPut, path, models.UpdateMemberRequest{Role: role}, nil)
}

func (c *HTTPClient) RemoveMember(ctx context.Context, orgID, memberID int64) error {
	path := orgPath(orgID) + "/members/" + strconv.FormatInt(memberID, 10)
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *HTTPClient) Invite(ctx context.Context, orgID int64, req models.InviteRequest) (*models.Invitation, error) {
	var resp struct {
		Invitation *models.Invitation `json:"invitation"`
	}
	if err := c.Do(ctx, http.MethodPost, orgPath(orgID)+"/invite", req, &resp); err != nil {
		return nil, err
	}
	if resp.Invitation == nil {
		return nil, errors.New("invite: response has no invitation")
	}
	return resp.Invitation, nil
}

func (c *HTTPClient) ListInvitations(ctx context.Context, orgID int64) ([]models.Invitation, error) {
	var resp struct {
		Invitations []models.Invitation `json:"invitations"`
	}
	if err := c.Do(ctx, http.MethodGet, orgPath(orgID)+"/invitations", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Invitations, nil
}

func (c *HTTPClient) RevokeInvitation(ctx context.Context, orgID, invitationID int64) error {
	path := orgPath(orgID) + "/invitations/" + strconv.FormatInt(invitationID, 10)
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

func orgPath(id int64) string {
	return "/api/organizations/" + strconv.FormatInt(id, 10)
}

var _ Client = (*HTTPClient)(nil)
