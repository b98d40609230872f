// Package api is the REST client for the platform's session, user, contact,
// message and status endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/resbox/resbox-core/internal/errors"
	"github.com/resbox/resbox-core/internal/identity"
	"github.com/resbox/resbox-core/internal/model"
	"github.com/resbox/resbox-core/internal/state"
	"github.com/resbox/resbox-core/internal/util"
)

// Literal response bodies the platform uses instead of structured errors.
const (
	SentinelInvalidCredentials = "Login.InvalidCredentials"
	SentinelInvalidUserID      = "Invalid User ID"
)

const maxResponseBytes = 8 << 20

type ClientConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Session is a copy of the client's authentication state.
type Session struct {
	DeviceHash string
	UserID     string
	Token      string
	LoggedIn   bool
}

// AuthorizationHeader is the value of the Authorization header for this session.
func (s Session) AuthorizationHeader() string {
	return fmt.Sprintf("res %s:%s", s.UserID, s.Token)
}

type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	identity   identity.Identity
	state      *state.AppState

	mu       sync.RWMutex
	userID   string
	token    string
	loggedIn bool
}

func NewClient(cfg ClientConfig, id identity.Identity, st *state.AppState) *Client {
	base := cfg.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &Client{
		baseURL:   base,
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		identity: id,
		state:    st,
	}
}

func (c *Client) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Session{
		DeviceHash: c.identity.DeviceHash,
		UserID:     c.userID,
		Token:      c.token,
		LoggedIn:   c.loggedIn,
	}
}

// Login authenticates and returns the session token. On success the user id
// and token are stored together.
func (c *Client) Login(ctx context.Context, username string, auth model.Authentication, rememberMe bool) (string, error) {
	body, err := json.Marshal(model.LoginRequest{
		Username:        username,
		Authentication:  auth,
		SecretMachineID: c.identity.SecretMachineID,
		RememberMe:      rememberMe,
	})
	if err != nil {
		return "", apperrors.Internal("marshal login request").WithCause(err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "userSessions", bytes.NewReader(body))
	if err != nil {
		return "", apperrors.RequestFailed(err)
	}

	resp, err := c.do(req)
	if err != nil {
		return "", apperrors.RequestFailed(err)
	}

	if sentinel(resp.body) == SentinelInvalidCredentials {
		log.Info().Str("username", username).Str("authType", auth.AuthType()).Msg("login rejected")
		return "", apperrors.InvalidCredentials()
	}
	if !resp.ok() {
		return "", apperrors.RequestFailed(fmt.Errorf("login failed with status %d", resp.status))
	}

	var decoded model.LoginResponse
	if err := json.Unmarshal(resp.body, &decoded); err != nil {
		log.Error().Err(err).Str("body", string(resp.body)).Msg("failed to decode login response")
		return "", apperrors.JSONParseFailed(err)
	}
	if decoded.Entity.UserID == "" || decoded.Entity.Token == "" {
		log.Error().Str("body", string(resp.body)).Msg("login response missing user id or token")
		return "", apperrors.JSONParseFailed(fmt.Errorf("login entity incomplete"))
	}

	c.mu.Lock()
	c.userID = decoded.Entity.UserID
	c.token = decoded.Entity.Token
	c.loggedIn = true
	c.mu.Unlock()

	log.Info().
		Str("userId", decoded.Entity.UserID).
		Str("expire", decoded.Entity.Expire).
		Msg("logged in")

	return decoded.Entity.Token, nil
}

// GetUser fetches one user record by id.
func (c *Client) GetUser(ctx context.Context, id string) (*model.UserInfo, error) {
	resp, err := c.getAuthenticated(ctx, "users/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	if err := userLookupError(resp); err != nil {
		return nil, err
	}

	var user model.UserInfo
	if err := json.Unmarshal(resp.body, &user); err != nil {
		log.Error().Err(err).Str("userId", id).Str("body", string(resp.body)).Msg("failed to decode user")
		return nil, apperrors.JSONParseFailed(err)
	}
	return &user, nil
}

// GetUsers looks up users by id when query carries the user id prefix and
// by name otherwise.
func (c *Client) GetUsers(ctx context.Context, query string) ([]model.UserInfo, error) {
	endpoint := "users?name=" + url.QueryEscape(query)
	if util.IsUserID(query) {
		endpoint = "users/" + url.PathEscape(query)
	}

	resp, err := c.getAuthenticated(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if err := userLookupError(resp); err != nil {
		return nil, err
	}

	users, err := decodeOneOrMany[model.UserInfo](resp.body)
	if err != nil {
		log.Error().Err(err).Str("query", query).Str("body", string(resp.body)).Msg("failed to decode users")
		return nil, apperrors.JSONParseFailed(err)
	}
	if len(users) == 0 {
		return nil, apperrors.NoResults()
	}
	return users, nil
}

// GetContacts fetches ownerID's contacts and replaces them in the cache.
func (c *Client) GetContacts(ctx context.Context, ownerID string) ([]model.Contact, error) {
	var contacts []model.Contact
	if err := c.fetch(ctx, "users/"+url.PathEscape(ownerID)+"/contacts", &contacts); err != nil {
		return nil, err
	}

	c.state.Contacts.Replace(ownerID, contacts)
	c.state.MarkDirty()
	return contacts, nil
}

// GetMessages fetches ownerID's recent messages and merges them into the
// per-peer cache.
func (c *Client) GetMessages(ctx context.Context, ownerID string) ([]model.Message, error) {
	var messages []model.Message
	if err := c.fetch(ctx, "users/"+url.PathEscape(ownerID)+"/messages", &messages); err != nil {
		return nil, err
	}

	peers := c.state.Messages.Merge(messages)
	c.state.MarkDirty()
	log.Debug().Int("count", len(messages)).Int("peers", len(peers)).Msg("merged messages")
	return messages, nil
}

// GetStatus fetches userID's status and stores it in the cache.
func (c *Client) GetStatus(ctx context.Context, userID string) (*model.UserStatus, error) {
	var status model.UserStatus
	if err := c.fetch(ctx, "users/"+url.PathEscape(userID)+"/status", &status); err != nil {
		return nil, err
	}
	if status.UserID == "" {
		status.UserID = userID
	}

	c.state.Statuses.Put(status)
	c.state.MarkDirty()
	return &status, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, out any) error {
	resp, err := c.getAuthenticated(ctx, endpoint)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return apperrors.RequestFailed(fmt.Errorf("%s failed with status %d", endpoint, resp.status))
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		log.Error().Err(err).Str("endpoint", endpoint).Str("body", string(resp.body)).Msg("failed to decode response")
		return apperrors.JSONParseFailed(err)
	}
	return nil
}

func (c *Client) getAuthenticated(ctx context.Context, endpoint string) (*response, error) {
	session := c.Session()
	if !session.LoggedIn || session.UserID == "" || session.Token == "" {
		return nil, apperrors.NotLoggedIn()
	}

	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.RequestFailed(err)
	}
	req.Header.Set("Authorization", session.AuthorizationHeader())

	resp, err := c.do(req)
	if err != nil {
		return nil, apperrors.RequestFailed(err)
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("UID", c.identity.DeviceHash)
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (c *Client) do(req *http.Request) (*response, error) {
	endpoint := req.URL.Path
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		log.Error().
			Err(err).
			Str("method", req.Method).
			Str("endpoint", endpoint).
			Dur("elapsed", elapsed).
			Msg("api request error")
		return nil, fmt.Errorf("%s %s: %w", req.Method, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	event := log.Debug()
	if resp.StatusCode >= 400 {
		event = log.Warn()
	}
	event.
		Str("method", req.Method).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("api request")

	return &response{status: resp.StatusCode, body: body}, nil
}

func userLookupError(resp *response) error {
	if sentinel(resp.body) == SentinelInvalidUserID {
		return apperrors.NoResults()
	}
	if !resp.ok() {
		return apperrors.RequestFailed(fmt.Errorf("user lookup failed with status %d", resp.status))
	}
	return nil
}

// sentinel normalizes a body for comparison against the literal sentinels,
// which may arrive bare or as a JSON string.
func sentinel(body []byte) string {
	return strings.Trim(strings.TrimSpace(string(body)), `"`)
}

func decodeOneOrMany[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var many []T
		if err := json.Unmarshal(trimmed, &many); err != nil {
			return nil, err
		}
		return many, nil
	}
	var one T
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return nil, err
	}
	return []T{one}, nil
}
