package services

// Shared helpers and the fake API client used by the service tests: a real
// sqlite-backed secure store plus a canned remote.

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/parkit-app/parkit-go/internal/api"
	"github.com/parkit-app/parkit-go/internal/logging"
	"github.com/parkit-app/parkit-go/internal/models"
	"github.com/parkit-app/parkit-go/internal/securestore"
)

func setupSecureStore(t *testing.T) securestore.Store {
	t.Helper()
	dir := t.TempDir()

	db, err := securestore.InitDatabase(context.Background(), filepath.Join(dir, "parkit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	key, err := securestore.LoadDeviceKey(context.Background(), db, filepath.Join(dir, "parkit.key"))
	require.NoError(t, err)

	return securestore.NewSQLiteStore(db, key)
}

func testLogger() logging.Logger {
	return logging.NewTextLogger(io.Discard, slog.LevelDebug)
}

func testPair(access, refresh string, expiresAt time.Time) models.AuthTokens {
	return models.AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt.UnixMilli(),
	}
}

func testUser(id string) models.User {
	return models.User{ID: id, Email: id + "@example.com", Name: "Test Driver", Provider: models.ProviderApple}
}

// fakeAPI реализует api.Client для юнит-тестов сервисов. Встраивание
// интерфейса покрывает методы, которые конкретному тесту не нужны.
type fakeAPI struct {
	api.Client

	// поведение/результаты
	LoginAppleResp *models.AuthResponse
	LoginAppleErr  error

	LoginGoogleResp *models.AuthResponse
	LoginGoogleErr  error

	RefreshResp *models.AuthTokens
	RefreshErr  error

	LogoutErr error

	UserResp *models.User
	UserErr  error

	UpdateProfileResp *models.User
	UpdateProfileErr  error

	DeleteAccountErr error

	CurrentResp *models.ParkingSession
	CurrentErr  error

	CreateResp *models.ParkingSession
	CreateErr  error

	EndErr error

	UpdateLocationResp *models.ParkingSession
	UpdateLocationErr  error

	PayResp *models.ParkingSession
	PayErr  error

	PreviewResp *models.StatusPreview
	PreviewErr  error

	HistoryResp *models.HistoryPage
	HistoryErr  error

	LocationsResp []models.SavedLocation
	LocationsErr  error

	AddLocationResp *models.SavedLocation
	AddLocationErr  error

	DeleteLocationErr error

	RegisterPushErr   error
	UnregisterPushErr error

	PrefsResp *models.NotificationPreferences
	PrefsErr  error

	UpdatePrefsResp *models.NotificationPreferences
	UpdatePrefsErr  error

	PingErr  error
	CloseErr error

	// для проверок аргументов
	LastAppleToken   string
	LastAppleNonce   string
	LastGoogleToken  string
	LastRefreshToken string
	RefreshCalls     int
	LogoutCalls      int

	LastUpdateProfile models.UserUpdate

	LastCreateCoords models.Coordinates
	LastCreateMethod models.DetectionMethod
	LastEndID        string
	LastLocationID   string
	LastPayID        string
	LastPayMethod    models.PaymentMethod
	LastPayMinutes   int
	LastHistoryPage  int
	LastHistorySize  int

	LastAddName    string
	LastAddCoords  models.Coordinates
	LastDeleteID   string
	LastPushToken  string
	LastPlatform   models.PushPlatform
	LastPrefsInput models.NotificationPreferences
}

func (f *fakeAPI) LoginWithApple(ctx context.Context, identityToken, nonce string) (*models.AuthResponse, error) {
	f.LastAppleToken = identityToken
	f.LastAppleNonce = nonce
	return f.LoginAppleResp, f.LoginAppleErr
}

func (f *fakeAPI) LoginWithGoogle(ctx context.Context, accessToken string) (*models.AuthResponse, error) {
	f.LastGoogleToken = accessToken
	return f.LoginGoogleResp, f.LoginGoogleErr
}

func (f *fakeAPI) RefreshSession(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	f.RefreshCalls++
	f.LastRefreshToken = refreshToken
	return f.RefreshResp, f.RefreshErr
}

func (f *fakeAPI) Logout(ctx context.Context) error {
	f.LogoutCalls++
	return f.LogoutErr
}

func (f *fakeAPI) CurrentUser(ctx context.Context) (*models.User, error) {
	return f.UserResp, f.UserErr
}

func (f *fakeAPI) UpdateProfile(ctx context.Context, upd models.UserUpdate) (*models.User, error) {
	f.LastUpdateProfile = upd
	return f.UpdateProfileResp, f.UpdateProfileErr
}

func (f *fakeAPI) DeleteAccount(ctx context.Context) error {
	return f.DeleteAccountErr
}

func (f *fakeAPI) CurrentSession(ctx context.Context) (*models.ParkingSession, error) {
	return f.CurrentResp, f.CurrentErr
}

func (f *fakeAPI) CreateSession(ctx context.Context, coords models.Coordinates, method models.DetectionMethod) (*models.ParkingSession, error) {
	f.LastCreateCoords = coords
	f.LastCreateMethod = method
	return f.CreateResp, f.CreateErr
}

func (f *fakeAPI) EndSession(ctx context.Context, sessionID string) error {
	f.LastEndID = sessionID
	return f.EndErr
}

func (f *fakeAPI) UpdateSessionLocation(ctx context.Context, sessionID string, coords models.Coordinates) (*models.ParkingSession, error) {
	f.LastLocationID = sessionID
	return f.UpdateLocationResp, f.UpdateLocationErr
}

func (f *fakeAPI) PaySession(ctx context.Context, sessionID string, method models.PaymentMethod, durationMinutes int) (*models.ParkingSession, error) {
	f.LastPayID = sessionID
	f.LastPayMethod = method
	f.LastPayMinutes = durationMinutes
	return f.PayResp, f.PayErr
}

func (f *fakeAPI) StatusPreview(ctx context.Context, coords models.Coordinates) (*models.StatusPreview, error) {
	return f.PreviewResp, f.PreviewErr
}

func (f *fakeAPI) History(ctx context.Context, page, pageSize int) (*models.HistoryPage, error) {
	f.LastHistoryPage = page
	f.LastHistorySize = pageSize
	return f.HistoryResp, f.HistoryErr
}

func (f *fakeAPI) SavedLocations(ctx context.Context) ([]models.SavedLocation, error) {
	return f.LocationsResp, f.LocationsErr
}

func (f *fakeAPI) AddSavedLocation(ctx context.Context, name string, coords models.Coordinates, address string) (*models.SavedLocation, error) {
	f.LastAddName = name
	f.LastAddCoords = coords
	return f.AddLocationResp, f.AddLocationErr
}

func (f *fakeAPI) DeleteSavedLocation(ctx context.Context, locationID string) error {
	f.LastDeleteID = locationID
	return f.DeleteLocationErr
}

func (f *fakeAPI) RegisterPushToken(ctx context.Context, token string, platform models.PushPlatform) error {
	f.LastPushToken = token
	f.LastPlatform = platform
	return f.RegisterPushErr
}

func (f *fakeAPI) UnregisterPushToken(ctx context.Context, token string) error {
	f.LastPushToken = token
	return f.UnregisterPushErr
}

func (f *fakeAPI) NotificationPreferences(ctx context.Context) (*models.NotificationPreferences, error) {
	return f.PrefsResp, f.PrefsErr
}

func (f *fakeAPI) UpdateNotificationPreferences(ctx context.Context, prefs models.NotificationPreferences) (*models.NotificationPreferences, error) {
	f.LastPrefsInput = prefs
	return f.UpdatePrefsResp, f.UpdatePrefsErr
}

func (f *fakeAPI) Ping(ctx context.Context) error { return f.PingErr }

func (f *fakeAPI) Close() error { return f.CloseErr }
