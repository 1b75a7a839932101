package api

import (
	"context"

	"github.com/parkit-app/parkit-go/internal/models"
)

// TokenStore is the persistence capability the client uses for the token
// pair. The client never caches tokens itself: it reads the current pair
// before each authenticated request and writes back the result of a refresh.
//
// Contract:
//   - Tokens returns the stored pair, or nil when the user is logged out.
//   - StoreTokens replaces the stored pair atomically.
//   - ClearTokens removes the pair; clearing an empty store is not an error.
type TokenStore interface {
	Tokens(ctx context.Context) (*models.AuthTokens, error)
	StoreTokens(ctx context.Context, tokens *models.AuthTokens) error
	ClearTokens(ctx context.Context) error
}

// Client defines the full Park-IT backend contract. Implementations must be
// safe for concurrent use.
//
// Contract:
//   - All operations honor ctx cancellation and deadlines.
//   - ErrUnavailable is returned when the server cannot be reached.
//   - ErrUnauthorized is returned when no valid session could be established
//     for an authenticated call, refresh included.
//   - ErrNotFound is returned for missing resources; CurrentSession maps the
//     "no active session" reply to it as well.
//   - Remaining non-2xx responses are returned as *APIError.
type Client interface {
	// LoginWithApple exchanges an Apple identity token for a user and a
	// token pair. The nonce is optional and forwarded when present.
	LoginWithApple(ctx context.Context, identityToken, nonce string) (*models.AuthResponse, error)
	// LoginWithGoogle exchanges a Google access token for a user and a
	// token pair.
	LoginWithGoogle(ctx context.Context, accessToken string) (*models.AuthResponse, error)
	// RefreshSession exchanges a refresh token for a fresh token pair.
	RefreshSession(ctx context.Context, refreshToken string) (*models.AuthTokens, error)
	// Logout invalidates the server-side session for the stored tokens.
	Logout(ctx context.Context) error

	// CurrentUser fetches the profile of the authenticated user.
	CurrentUser(ctx context.Context) (*models.User, error)
	// UpdateProfile applies a partial profile update and returns the result.
	UpdateProfile(ctx context.Context, upd models.UserUpdate) (*models.User, error)
	// DeleteAccount removes the authenticated user's account and data.
	DeleteAccount(ctx context.Context) error

	// CurrentSession returns the active parking session, or ErrNotFound
	// when none exists.
	CurrentSession(ctx context.Context) (*models.ParkingSession, error)
	// CreateSession starts a parking session at the given coordinates.
	CreateSession(ctx context.Context, coords models.Coordinates, method models.DetectionMethod) (*models.ParkingSession, error)
	// EndSession marks the session ended on the server.
	EndSession(ctx context.Context, sessionID string) error
	// UpdateSessionLocation corrects the parked coordinates of a session
	// and returns the server's updated copy.
	UpdateSessionLocation(ctx context.Context, sessionID string, coords models.Coordinates) (*models.ParkingSession, error)
	// PaySession records a meter payment for a session and returns the
	// server's updated copy.
	PaySession(ctx context.Context, sessionID string, method models.PaymentMethod, durationMinutes int) (*models.ParkingSession, error)
	// StatusPreview evaluates the parking rules at a point without starting
	// a session.
	StatusPreview(ctx context.Context, coords models.Coordinates) (*models.StatusPreview, error)
	// History returns one page of past sessions, newest first.
	History(ctx context.Context, page, pageSize int) (*models.HistoryPage, error)

	// SavedLocations lists the user's saved parking spots.
	SavedLocations(ctx context.Context) ([]models.SavedLocation, error)
	// AddSavedLocation stores a named parking spot.
	AddSavedLocation(ctx context.Context, name string, coords models.Coordinates, address string) (*models.SavedLocation, error)
	// DeleteSavedLocation removes a saved spot by id.
	DeleteSavedLocation(ctx context.Context, locationID string) error

	// RegisterPushToken registers a device token for push delivery.
	RegisterPushToken(ctx context.Context, token string, platform models.PushPlatform) error
	// UnregisterPushToken removes a previously registered device token.
	UnregisterPushToken(ctx context.Context, token string) error
	// NotificationPreferences fetches the user's notification settings.
	NotificationPreferences(ctx context.Context) (*models.NotificationPreferences, error)
	// UpdateNotificationPreferences replaces the notification settings and
	// returns the stored result.
	UpdateNotificationPreferences(ctx context.Context, prefs models.NotificationPreferences) (*models.NotificationPreferences, error)

	// Ping probes the backend health endpoint. It returns nil only when the
	// server reports itself healthy.
	Ping(ctx context.Context) error
	// Close releases transport resources held by the client.
	Close() error
}
