package msapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/motorsoft/msadmin-bot/internal/models"
)

const (
	// API endpoints, relative to the configured base URL.
	loginEndpoint          = "/admin/login"
	statsEndpoint          = "/admin/stats"
	usersEndpoint          = "/admin/users"
	ordersEndpoint         = "/admin/orders"
	firmwaresEndpoint      = "/admin/firmwares"
	firmwareUploadEndpoint = "/admin/firmwares/upload"
	staffEndpoint          = "/admin/staff"
	healthEndpoint         = "/health"
)

const defaultTimeout = 30 * time.Second

// TokenSource supplies the bearer credential attached to authenticated
// requests. The token is read at call time, never cached by the client, so a
// concurrent logout is picked up by the next request.
type TokenSource interface {
	// Token returns the stored credential, or an empty string when none is
	// available. An empty token means the request goes out unauthenticated.
	Token(ctx context.Context) string
	// Invalidate drops the stored credential. It is called exactly once per
	// request that the server rejected with a 401.
	Invalidate(ctx context.Context)
}

// Client is a typed client for the MotorSoft admin API. Every server
// operation is one method and one best-effort HTTP round trip: no retries,
// no backoff, no partial-success handling.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
	tokens     TokenSource
}

// NewClient creates an admin API client. httpClient may be nil, in which case
// a default client with a 30s timeout is used. tokens may be nil for purely
// unauthenticated use (login, health probe).
func NewClient(baseURL string, httpClient *http.Client, log *slog.Logger, tokens TokenSource) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
		tokens:     tokens,
	}
}

// LoginResult is the session issued by a successful login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
	Role        string `json:"role"`
}

// Login exchanges credentials for a session token. It deliberately bypasses
// the authenticated-request path: no token exists yet, and a 401 here means
// wrong credentials, not an expired session.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var result LoginResult

	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return result, fmt.Errorf("failed to encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginEndpoint, bytes.NewReader(body))
	if err != nil {
		return result, fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("Login request failed", "error", err)
		return result, fmt.Errorf("admin api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return result, &HTTPError{Status: resp.StatusCode, Message: errorMessage(resp)}
	}

	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return result, fmt.Errorf("failed to decode login response: %w", err)
	}

	return result, nil
}

// DashboardStats fetches the aggregate snapshot shown on the dashboard.
func (c *Client) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	err := c.doJSON(ctx, http.MethodGet, statsEndpoint, nil, nil, &stats)

	return stats, err
}

// Users fetches the full user list. The server applies no pagination here;
// any search or filtering happens on the caller's side.
func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := c.doJSON(ctx, http.MethodGet, usersEndpoint, nil, nil, &users)

	return users, err
}

// ToggleUserBlock sets the blocked flag of a user. The operation is
// idempotent: blocking a blocked user succeeds.
func (c *Client) ToggleUserBlock(ctx context.Context, userID int, block bool) error {
	payload := map[string]bool{"block": block}
	var ack successReply

	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("%s/%d/block", usersEndpoint, userID), nil, payload, &ack)
}

// DeleteUser removes a user account. The caller is responsible for confirming
// intent before calling; the client issues the request as given.
func (c *Client) DeleteUser(ctx context.Context, userID int) error {
	var ack successReply

	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", usersEndpoint, userID), nil, nil, &ack)
}

// PartnerUpdate is a partial update of a user's business-tier markers. Nil
// fields are omitted from the request and left unchanged by the server.
type PartnerUpdate struct {
	IsPartner   *bool    `json:"is_partner,omitempty"`
	IsSlave     *bool    `json:"is_slave,omitempty"`
	Coefficient *float64 `json:"coefficient,omitempty"`
}

// PartnerStatus is the resulting state after a partner update, including the
// server-derived discount percentage.
type PartnerStatus struct {
	Success         bool    `json:"success"`
	IsPartner       bool    `json:"is_partner"`
	IsSlave         bool    `json:"is_slave"`
	Coefficient     float64 `json:"coefficient"`
	DiscountPercent int     `json:"discount_percent"`
}

// UpdateUserPartnerStatus applies a partial update to a user's partner flags
// and price coefficient.
func (c *Client) UpdateUserPartnerStatus(
	ctx context.Context,
	userID int,
	update PartnerUpdate,
) (PartnerStatus, error) {
	var status PartnerStatus
	err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("%s/%d/partner", usersEndpoint, userID), nil, update, &status)

	return status, err
}

// UpdateUserBalance adjusts a user's balance by amount (negative to charge)
// and returns the resulting balance. reason is kept in the server-side audit
// trail.
func (c *Client) UpdateUserBalance(ctx context.Context, userID int, amount float64, reason string) (float64, error) {
	payload := map[string]any{"amount": amount, "reason": reason}
	var reply struct {
		Success    bool    `json:"success"`
		NewBalance float64 `json:"new_balance"`
	}

	err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("%s/%d/balance", usersEndpoint, userID), nil, payload, &reply)
	if err != nil {
		return 0, err
	}

	return reply.NewBalance, nil
}

// Orders fetches the most recent orders, bounded by limit.
func (c *Client) Orders(ctx context.Context, limit int) ([]models.Order, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	var orders []models.Order
	err := c.doJSON(ctx, http.MethodGet, ordersEndpoint, query, nil, &orders)

	return orders, err
}

// Firmwares fetches one page of the firmware catalog. Pagination is
// offset-based: the caller advances offset by the page size.
func (c *Client) Firmwares(ctx context.Context, limit, offset int) ([]models.Firmware, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	var firmwares []models.Firmware
	err := c.doJSON(ctx, http.MethodGet, firmwaresEndpoint, query, nil, &firmwares)

	return firmwares, err
}

// UploadFirmware streams a calibration file to the server as a multipart form
// and returns the created firmware record ID. Unlike the JSON operations,
// only the Authorization header is attached by hand; the multipart writer
// owns the Content-Type so the boundary stays correct.
func (c *Client) UploadFirmware(ctx context.Context, filename string, file io.Reader) (int, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return 0, fmt.Errorf("failed to create multipart field: %w", err)
	}
	if _, err = io.Copy(part, file); err != nil {
		return 0, fmt.Errorf("failed to copy file into multipart body: %w", err)
	}
	if err = writer.Close(); err != nil {
		return 0, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+firmwareUploadEndpoint, &buf)
	if err != nil {
		return 0, fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(ctx, req)

	var reply struct {
		Success    bool `json:"success"`
		FirmwareID int  `json:"firmware_id"`
	}
	if err = c.send(req, &reply); err != nil {
		return 0, err
	}

	return reply.FirmwareID, nil
}

// Staff fetches the admin panel staff list.
func (c *Client) Staff(ctx context.Context) ([]models.StaffMember, error) {
	var staff []models.StaffMember
	err := c.doJSON(ctx, http.MethodGet, staffEndpoint, nil, nil, &staff)

	return staff, err
}

// CreateStaff registers a new staff member and returns its ID. role is
// "admin" or "operator"; the server validates it.
func (c *Client) CreateStaff(ctx context.Context, username, password, role string) (int, error) {
	payload := map[string]string{"username": username, "password": password, "role": role}
	var reply struct {
		Success bool `json:"success"`
		ID      int  `json:"id"`
	}

	err := c.doJSON(ctx, http.MethodPost, staffEndpoint, nil, payload, &reply)
	if err != nil {
		return 0, err
	}

	return reply.ID, nil
}

// DeleteStaff removes a staff member.
func (c *Client) DeleteStaff(ctx context.Context, staffID int) error {
	var ack successReply

	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", staffEndpoint, staffID), nil, nil, &ack)
}

// Ping probes the API for reachability. Used by the health checker only.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthEndpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("admin api is unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &HTTPError{Status: resp.StatusCode, Message: errorMessage(resp)}
	}

	return nil
}

type successReply struct {
	Success bool `json:"success"`
}

// doJSON builds and sends one JSON request: base URL + path + optional query
// string, JSON content type, bearer token when one is stored.
func (c *Client) doJSON(
	ctx context.Context,
	method, path string,
	query url.Values,
	body, out any,
) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(ctx, req)

	return c.send(req, out)
}

// authorize attaches the bearer token if the token source holds one. The
// token is read here, at request time, not at client construction.
func (c *Client) authorize(ctx context.Context, req *http.Request) {
	if c.tokens == nil {
		return
	}
	if token := c.tokens.Token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// send performs the round trip and translates failures: 401 invalidates the
// token source and becomes ErrUnauthorized, other non-2xx replies become
// *HTTPError with a display-ready message, transport errors are wrapped.
func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("Admin API request failed",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Any("error", err))

		return fmt.Errorf("admin api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.log.Warn("Admin API rejected the stored token", "path", req.URL.Path)
		if c.tokens != nil {
			c.tokens.Invalidate(req.Context())
		}

		return ErrUnauthorized
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &HTTPError{Status: resp.StatusCode, Message: errorMessage(resp)}
	}

	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
