package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/parkit-app/parkit-go/internal/common"
	"github.com/parkit-app/parkit-go/internal/logging"
	"github.com/parkit-app/parkit-go/internal/models"
)

const (
	apiPrefix        = "/api/v1"
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "parkit-cli"
)

// HTTPClient is the JSON-over-HTTP implementation of Client.
//
// Authenticated requests carry a bearer token read from the TokenStore. On a
// 401 response the client refreshes the token pair once and replays the
// request; concurrent 401s share a single refresh call.
type HTTPClient struct {
	baseURL   string
	http      *http.Client
	tokens    TokenStore
	log       logging.Logger
	userAgent string
	limiter   *rate.Limiter
	refresh   singleflight.Group
}

var _ Client = (*HTTPClient)(nil)

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying http.Client, e.g. to change the
// timeout or install a test transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) {
		c.log = l
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *HTTPClient) {
		c.userAgent = ua
	}
}

// WithStatusRateLimit paces StatusPreview calls to at most one per interval,
// with the given burst. Location watchers poll the status endpoint on every
// coordinate fix, so the client throttles it instead of trusting callers.
func WithStatusRateLimit(interval time.Duration, burst int) Option {
	return func(c *HTTPClient) {
		c.limiter = rate.NewLimiter(rate.Every(interval), burst)
	}
}

// NewHTTPClient creates a client for the backend at endpointURL
// (scheme://host[:port], without the /api/v1 prefix).
func NewHTTPClient(endpointURL string, tokens TokenStore, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:   strings.TrimRight(endpointURL, "/") + apiPrefix,
		http:      &http.Client{Timeout: defaultTimeout},
		tokens:    tokens,
		log:       logging.NewTextLogger(io.Discard, slog.LevelInfo),
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do runs one logical request: marshal the body, attach the bearer token,
// send, and on a 401 refresh the pair and replay exactly once. The payload is
// marshaled up front so the replay reuses the same bytes.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any, public bool) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	token := ""
	if !public {
		t, err := c.tokens.Tokens(ctx)
		if err != nil {
			return fmt.Errorf("load tokens: %w", err)
		}
		if t != nil {
			token = t.AccessToken
		}
	}

	requestID := uuid.NewString()

	status, respBody, err := c.send(ctx, method, path, payload, token, requestID)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && !public {
		fresh, err := c.refreshTokens(ctx)
		if err != nil {
			return err
		}
		status, respBody, err = c.send(ctx, method, path, payload, fresh.AccessToken, requestID)
		if err != nil {
			return err
		}
	}

	if err := c.mapStatus(status, respBody); err != nil {
		return err
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *HTTPClient) send(ctx context.Context, method, path string, payload []byte, token, requestID string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(common.RequestIDHeaderName, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp.StatusCode, respBody, nil
}

// refreshTokens exchanges the stored refresh token for a fresh pair and
// persists it. The singleflight group collapses concurrent callers onto one
// exchange, so a burst of 401s cannot consume the rotated refresh token
// twice. A failed exchange clears the stored pair: the refresh token is
// spent or invalid either way, and keeping it would retry a dead session
// forever.
func (c *HTTPClient) refreshTokens(ctx context.Context) (*models.AuthTokens, error) {
	v, err, _ := c.refresh.Do("refresh", func() (any, error) {
		current, err := c.tokens.Tokens(ctx)
		if err != nil {
			return nil, fmt.Errorf("load tokens: %w", err)
		}
		if current == nil || current.RefreshToken == "" {
			return nil, ErrUnauthorized
		}

		fresh, err := c.RefreshSession(ctx, current.RefreshToken)
		if err != nil {
			c.log.Warn(ctx, "token refresh failed, clearing session", "error", err)
			if clearErr := c.tokens.ClearTokens(ctx); clearErr != nil {
				c.log.Error(ctx, "failed to clear tokens", "error", clearErr)
			}
			return nil, ErrUnauthorized
		}

		if err := c.tokens.StoreTokens(ctx, fresh); err != nil {
			return nil, fmt.Errorf("store tokens: %w", err)
		}
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.AuthTokens), nil
}

func (c *HTTPClient) mapStatus(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrUnauthorized
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, errorDetail(body))
	default:
		return &APIError{Status: status, Detail: errorDetail(body)}
	}
}

// ---------- auth ----------

type appleLoginRequest struct {
	IDToken string `json:"idToken"`
	Nonce   string `json:"nonce,omitempty"`
}

type googleLoginRequest struct {
	AccessToken string `json:"accessToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	Tokens models.AuthTokens `json:"tokens"`
}

func (c *HTTPClient) LoginWithApple(ctx context.Context, identityToken, nonce string) (*models.AuthResponse, error) {
	if identityToken == "" {
		return nil, fmt.Errorf("%w: empty identity token", common.ErrValidation)
	}

	req := appleLoginRequest{IDToken: identityToken, Nonce: nonce}
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/apple", req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) LoginWithGoogle(ctx context.Context, accessToken string) (*models.AuthResponse, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", common.ErrValidation)
	}

	req := googleLoginRequest{AccessToken: accessToken}
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/google", req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) RefreshSession(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	req := refreshRequest{RefreshToken: refreshToken}
	var resp refreshResponse
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", req, &resp, true); err != nil {
		return nil, err
	}
	return &resp.Tokens, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, false)
}

// ---------- profile ----------

func (c *HTTPClient) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &user, false); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, upd models.UserUpdate) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPatch, "/users/me", upd, &user, false); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *HTTPClient) DeleteAccount(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/users/me", nil, nil, false)
}

// ---------- parking sessions ----------

type createSessionRequest struct {
	Coordinates     models.Coordinates     `json:"coordinates"`
	DetectionMethod models.DetectionMethod `json:"detectionMethod"`
}

type updateLocationRequest struct {
	Coordinates models.Coordinates `json:"coordinates"`
}

type paymentRequest struct {
	Method          models.PaymentMethod `json:"method"`
	DurationMinutes int                  `json:"durationMinutes"`
}

func (c *HTTPClient) CurrentSession(ctx context.Context) (*models.ParkingSession, error) {
	var session models.ParkingSession
	if err := c.do(ctx, http.MethodGet, "/parking/current", nil, &session, false); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *HTTPClient) CreateSession(ctx context.Context, coords models.Coordinates, method models.DetectionMethod) (*models.ParkingSession, error) {
	if err := coords.Validate(); err != nil {
		return nil, err
	}
	if err := method.Validate(); err != nil {
		return nil, err
	}

	req := createSessionRequest{Coordinates: coords, DetectionMethod: method}
	var session models.ParkingSession
	if err := c.do(ctx, http.MethodPost, "/parking/sessions", req, &session, false); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *HTTPClient) EndSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: empty session id", common.ErrValidation)
	}
	return c.do(ctx, http.MethodPost, "/parking/sessions/"+url.PathEscape(sessionID)+"/end", nil, nil, false)
}

func (c *HTTPClient) UpdateSessionLocation(ctx context.Context, sessionID string, coords models.Coordinates) (*models.ParkingSession, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: empty session id", common.ErrValidation)
	}
	if err := coords.Validate(); err != nil {
		return nil, err
	}

	req := updateLocationRequest{Coordinates: coords}
	var session models.ParkingSession
	if err := c.do(ctx, http.MethodPatch, "/parking/sessions/"+url.PathEscape(sessionID)+"/location", req, &session, false); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *HTTPClient) PaySession(ctx context.Context, sessionID string, method models.PaymentMethod, durationMinutes int) (*models.ParkingSession, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: empty session id", common.ErrValidation)
	}
	if err := method.Validate(); err != nil {
		return nil, err
	}
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", common.ErrValidation)
	}

	req := paymentRequest{Method: method, DurationMinutes: durationMinutes}
	var session models.ParkingSession
	if err := c.do(ctx, http.MethodPost, "/parking/sessions/"+url.PathEscape(sessionID)+"/payment", req, &session, false); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *HTTPClient) StatusPreview(ctx context.Context, coords models.Coordinates) (*models.StatusPreview, error) {
	if err := coords.Validate(); err != nil {
		return nil, err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))

	var preview models.StatusPreview
	if err := c.do(ctx, http.MethodGet, "/parking/status?"+q.Encode(), nil, &preview, false); err != nil {
		return nil, err
	}
	return &preview, nil
}

func (c *HTTPClient) History(ctx context.Context, page, pageSize int) (*models.HistoryPage, error) {
	if page < 1 || pageSize < 1 {
		return nil, fmt.Errorf("%w: page and pageSize must be positive", common.ErrValidation)
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))

	var result models.HistoryPage
	if err := c.do(ctx, http.MethodGet, "/parking/history?"+q.Encode(), nil, &result, false); err != nil {
		return nil, err
	}
	return &result, nil
}

// ---------- saved locations ----------

type addLocationRequest struct {
	Name        string             `json:"name"`
	Coordinates models.Coordinates `json:"coordinates"`
	Address     string             `json:"address,omitempty"`
}

func (c *HTTPClient) SavedLocations(ctx context.Context) ([]models.SavedLocation, error) {
	var locations []models.SavedLocation
	if err := c.do(ctx, http.MethodGet, "/users/locations", nil, &locations, false); err != nil {
		return nil, err
	}
	return locations, nil
}

func (c *HTTPClient) AddSavedLocation(ctx context.Context, name string, coords models.Coordinates, address string) (*models.SavedLocation, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty location name", common.ErrValidation)
	}
	if err := coords.Validate(); err != nil {
		return nil, err
	}

	req := addLocationRequest{Name: name, Coordinates: coords, Address: address}
	var location models.SavedLocation
	if err := c.do(ctx, http.MethodPost, "/users/locations", req, &location, false); err != nil {
		return nil, err
	}
	return &location, nil
}

func (c *HTTPClient) DeleteSavedLocation(ctx context.Context, locationID string) error {
	if locationID == "" {
		return fmt.Errorf("%w: empty location id", common.ErrValidation)
	}
	return c.do(ctx, http.MethodDelete, "/users/locations/"+url.PathEscape(locationID), nil, nil, false)
}

// ---------- notifications ----------

type pushTokenRequest struct {
	Token    string              `json:"token"`
	Platform models.PushPlatform `json:"platform,omitempty"`
}

func (c *HTTPClient) RegisterPushToken(ctx context.Context, token string, platform models.PushPlatform) error {
	if token == "" {
		return fmt.Errorf("%w: empty push token", common.ErrValidation)
	}
	if err := platform.Validate(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/notifications/token", pushTokenRequest{Token: token, Platform: platform}, nil, false)
}

func (c *HTTPClient) UnregisterPushToken(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: empty push token", common.ErrValidation)
	}
	return c.do(ctx, http.MethodDelete, "/notifications/token", pushTokenRequest{Token: token}, nil, false)
}

func (c *HTTPClient) NotificationPreferences(ctx context.Context) (*models.NotificationPreferences, error) {
	var prefs models.NotificationPreferences
	if err := c.do(ctx, http.MethodGet, "/notifications/preferences", nil, &prefs, false); err != nil {
		return nil, err
	}
	return &prefs, nil
}

func (c *HTTPClient) UpdateNotificationPreferences(ctx context.Context, prefs models.NotificationPreferences) (*models.NotificationPreferences, error) {
	var stored models.NotificationPreferences
	if err := c.do(ctx, http.MethodPatch, "/notifications/preferences", prefs, &stored, false); err != nil {
		return nil, err
	}
	return &stored, nil
}

// ---------- health ----------

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Version  string `json:"version"`
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	var resp healthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp, true); err != nil {
		return err
	}

	if resp.Status != "healthy" {
		return ErrUnavailable
	}

	return nil
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
