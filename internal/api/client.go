// Package api is the client for the study-plan backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/alexanderramin/studymap/internal/logging"
	"github.com/alexanderramin/studymap/internal/roadmap"
	"golang.org/x/sync/singleflight"
)

const (
	pathToken        = "/api/token/"
	pathTokenRefresh = "/api/token/refresh/"
	pathProfile      = "/api/profile/"
	pathCreatePlan   = "/roadmap/studyplan/create/"
	pathListPlans    = "/roadmap/user_study_plans/"
	pathGetPlan      = "/roadmap/roadmap/get_plan/%s/"
	pathDeletePlan   = "/roadmap/delete_plan/%s/"

	DefaultTimeout = 30 * time.Second
)

// TokenSource is where the client reads and refreshes its credentials.
// store.ProgressStore implements it.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	SetAccessToken(ctx context.Context, token string) error
	ClearSession(ctx context.Context) error
}

// Client talks to the backend over HTTP. Requests carry the bearer token
// from the TokenSource; a 401 triggers one refresh shared by all concurrent
// callers and one retry.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *slog.Logger
	now     func() time.Time

	refreshes singleflight.Group
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTimeout bounds every request, including retries.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
			},
		},
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tokens is the pair issued at login.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Login exchanges a username or email and a password for tokens. It does
// not store them.
func (c *Client) Login(ctx context.Context, identifier, password string) (Tokens, error) {
	var out Tokens
	body := map[string]string{"identifier": identifier, "password": password}
	if err := c.do(ctx, http.MethodPost, pathToken, body, &out, false); err != nil {
		return Tokens{}, fmt.Errorf("logging in: %w", err)
	}
	if out.Access == "" {
		return Tokens{}, fmt.Errorf("logging in: %w", ErrUnauthorized)
	}
	return out, nil
}

// Profile returns the signed-in user.
func (c *Client) Profile(ctx context.Context) (domain.User, error) {
	var u domain.User
	if err := c.do(ctx, http.MethodGet, pathProfile, nil, &u, true); err != nil {
		return domain.User{}, fmt.Errorf("fetching profile: %w", err)
	}
	return u, nil
}

// Refresh obtains a new access token with the stored refresh token and
// stores it.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	stale, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}
	return c.refresh(ctx, stale)
}

// refresh is keyed on the rejected token so that callers arriving after a
// refresh already replaced it reuse the new token instead of refreshing
// again.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	v, err, shared := c.refreshes.Do(stale, func() (any, error) {
		if cur, err := c.accessToken(ctx); err == nil && cur != "" && cur != stale {
			return cur, nil
		}
		if c.tokens == nil {
			return "", ErrUnauthorized
		}
		rt, err := c.tokens.RefreshToken(ctx)
		if err != nil {
			return "", err
		}
		if rt == "" {
			return "", ErrUnauthorized
		}
		var out struct {
			Access string `json:"access"`
		}
		if err := c.do(ctx, http.MethodPost, pathTokenRefresh, map[string]string{"refresh": rt}, &out, false); err != nil {
			return "", err
		}
		if out.Access == "" {
			return "", ErrUnauthorized
		}
		if err := c.tokens.SetAccessToken(ctx, out.Access); err != nil {
			return "", fmt.Errorf("storing refreshed token: %w", err)
		}
		c.logger.Debug("access token refreshed")
		return out.Access, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.logger.Debug("joined in-flight token refresh")
	}
	return v.(string), nil
}

// CreatePlanRequest is the body of a plan creation.
type CreatePlanRequest struct {
	MainTopic     string         `json:"main_topic"`
	AvailableTime float64        `json:"available_time"`
	Purpose       domain.Purpose `json:"purpose_of_study,omitempty"`
}

// CreatePlan asks the backend to create a plan and generate its roadmap.
func (c *Client) CreatePlan(ctx context.Context, req CreatePlanRequest) (domain.StudyPlan, error) {
	var out struct {
		Plan    map[string]any `json:"plan"`
		Roadmap any            `json:"roadmap"`
	}
	if err := c.do(ctx, http.MethodPost, pathCreatePlan, req, &out, true); err != nil {
		return domain.StudyPlan{}, fmt.Errorf("creating plan: %w", err)
	}
	if out.Plan == nil {
		return domain.StudyPlan{}, fmt.Errorf("creating plan: response has no plan")
	}
	plan, issues := roadmap.DecodePlanWithReport(out.Plan, 0, c.now())
	c.logIssues(issues)
	if nodes := c.roadmapFromPayload(out.Roadmap); len(nodes) > 0 {
		plan.Roadmap = nodes
	}
	plan.Source = domain.SourceRemote
	return plan, nil
}

// GetPlan fetches one plan. A missing plan matches ErrNotFound.
func (c *Client) GetPlan(ctx context.Context, id string) (domain.StudyPlan, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf(pathGetPlan, url.PathEscape(id)), nil, &out, true); err != nil {
		return domain.StudyPlan{}, fmt.Errorf("fetching plan %s: %w", id, err)
	}
	plan, issues := roadmap.DecodePlanWithReport(out, 0, c.now())
	c.logIssues(issues)
	plan.Source = domain.SourceRemote
	return plan, nil
}

// ListPlans fetches every plan of the signed-in user.
func (c *Client) ListPlans(ctx context.Context) ([]domain.StudyPlan, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, pathListPlans, nil, &raw, true); err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	plans, issues, err := roadmap.DecodePlansWithReport(raw, c.now())
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	c.logIssues(issues)
	for i := range plans {
		plans[i].Source = domain.SourceRemote
	}
	return plans, nil
}

// DeletePlan removes a plan on the backend. A missing plan matches
// ErrNotFound.
func (c *Client) DeletePlan(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf(pathDeletePlan, url.PathEscape(id)), nil, nil, true); err != nil {
		return fmt.Errorf("deleting plan %s: %w", id, err)
	}
	return nil
}

// roadmapFromPayload accepts either the bare node array or the generator's
// {"main_topic":..., "roadmap":[...]} envelope.
func (c *Client) roadmapFromPayload(v any) []domain.RoadmapNode {
	if m, ok := v.(map[string]any); ok {
		v = m["roadmap"]
	}
	nodes, issues := roadmap.DecodeValueWithReport(v)
	c.logIssues(issues)
	return nodes
}

func (c *Client) logIssues(issues []roadmap.FieldIssue) {
	for _, is := range issues {
		c.logger.Warn("ignoring unreadable field in response", "path", is.Path, "error", is.Message)
	}
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", nil
	}
	tok, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return "", fmt.Errorf("reading access token: %w", err)
	}
	return tok, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, auth bool) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	var token string
	if auth {
		var err error
		if token, err = c.accessToken(ctx); err != nil {
			return err
		}
	}

	status, data, err := c.send(ctx, method, path, payload, token)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && auth && c.tokens != nil {
		fresh, rerr := c.refresh(ctx, token)
		if rerr != nil {
			return c.expire(ctx, rerr)
		}
		status, data, err = c.send(ctx, method, path, payload, fresh)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			return c.expire(ctx, &StatusError{Code: status, Body: string(data)})
		}
	}

	if status < 200 || status > 299 {
		return &StatusError{Code: status, Body: strings.TrimSpace(string(data))}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// expire clears the stored session after a failed refresh.
func (c *Client) expire(ctx context.Context, cause error) error {
	if errors.Is(cause, ErrUnavailable) {
		return cause
	}
	c.logger.Warn("session expired, clearing credentials", "error", cause)
	if err := c.tokens.ClearSession(ctx); err != nil {
		c.logger.Error("clearing session failed", "error", err)
	}
	return fmt.Errorf("%w: %v", ErrSessionExpired, cause)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, token string) (int, []byte, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, ctx.Err()
		}
		return 0, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}
	return resp.StatusCode, data, nil
}
