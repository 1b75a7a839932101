package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/parkit-app/parkit-go/internal/logging"
	"github.com/parkit-app/parkit-go/internal/models"
	"github.com/parkit-app/parkit-go/internal/services"
)

/************* ввод/вывод *************/

// capturePrintln подменяет printlnFn и собирает весь вывод команд.
func capturePrintln(t *testing.T) *[]string {
	t.Helper()
	orig := printlnFn
	lines := &[]string{}
	printlnFn = func(args ...any) (int, error) {
		*lines = append(*lines, strings.TrimRight(fmt.Sprintln(args...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return lines
}

func joined(lines *[]string) string {
	return strings.Join(*lines, "\n")
}

// stubTextInputs отвечает на текстовые вопросы по очереди.
func stubTextInputs(t *testing.T, answers ...string) {
	t.Helper()
	orig := getSimpleText
	i := 0
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if i >= len(answers) {
			return "", io.EOF
		}
		a := answers[i]
		i++
		return a, nil
	}
	t.Cleanup(func() { getSimpleText = orig })
}

func stubSecretText(t *testing.T, secret []byte, err error) {
	t.Helper()
	orig := getSecretText
	getSecretText = func(_ io.Writer, _ string) ([]byte, error) {
		return append([]byte(nil), secret...), err
	}
	t.Cleanup(func() { getSecretText = orig })
}

func stubCoordinates(t *testing.T, c models.Coordinates, err error) {
	t.Helper()
	orig := getCoordinates
	getCoordinates = func(_ *bufio.Reader, _ string, _ io.Writer) (models.Coordinates, error) {
		return c, err
	}
	t.Cleanup(func() { getCoordinates = orig })
}

func stubPositiveInt(t *testing.T, n int, err error) {
	t.Helper()
	orig := getPositiveInt
	getPositiveInt = func(_ *bufio.Reader, _ string, _ io.Writer) (int, error) {
		return n, err
	}
	t.Cleanup(func() { getPositiveInt = orig })
}

func testLogger() logging.Logger {
	return logging.NewTextLogger(io.Discard, slog.LevelDebug)
}

func newTestApp(fa *fakeAuthSvc, fp *fakeParkingSvc, fn *fakeNotifSvc) *App {
	return &App{
		auth:          fa,
		parking:       fp,
		notifications: fn,
		log:           testLogger(),
		reader:        bufio.NewReader(strings.NewReader("")),
	}
}

/************* фейки сервисов *************/

// fakeAuthSvc реализует services.AuthService для тестов команд. Встраивание
// интерфейса покрывает методы, которые конкретному тесту не нужны.
type fakeAuthSvc struct {
	services.AuthService

	StatusRet services.AuthStatus
	UserRet   *models.User

	AppleResp      *models.User
	AppleErr       error
	LastAppleToken string
	LastNonce      string

	GoogleResp      *models.User
	GoogleErr       error
	LastGoogleToken string

	LogoutErr   error
	LogoutCalls int

	RefreshErr   error
	RefreshCalls int

	ProfileResp *models.User
	ProfileErr  error

	UpdateResp *models.User
	UpdateErr  error
	LastUpdate models.UserUpdate

	DeleteErr   error
	DeleteCalls int

	CheckAuthRet services.AuthStatus
	PingErr      error
}

func (f *fakeAuthSvc) Status() services.AuthStatus { return f.StatusRet }
func (f *fakeAuthSvc) User() *models.User          { return f.UserRet }

func (f *fakeAuthSvc) CheckAuth(context.Context) services.AuthStatus { return f.CheckAuthRet }

func (f *fakeAuthSvc) LoginWithApple(_ context.Context, token, nonce string) (*models.User, error) {
	f.LastAppleToken, f.LastNonce = token, nonce
	return f.AppleResp, f.AppleErr
}

func (f *fakeAuthSvc) LoginWithGoogle(_ context.Context, token string) (*models.User, error) {
	f.LastGoogleToken = token
	return f.GoogleResp, f.GoogleErr
}

func (f *fakeAuthSvc) Logout(context.Context) error {
	f.LogoutCalls++
	return f.LogoutErr
}

func (f *fakeAuthSvc) RefreshTokens(context.Context) error {
	f.RefreshCalls++
	return f.RefreshErr
}

func (f *fakeAuthSvc) FetchProfile(context.Context) (*models.User, error) {
	return f.ProfileResp, f.ProfileErr
}

func (f *fakeAuthSvc) UpdateProfile(_ context.Context, upd models.UserUpdate) (*models.User, error) {
	f.LastUpdate = upd
	return f.UpdateResp, f.UpdateErr
}

func (f *fakeAuthSvc) DeleteAccount(context.Context) error {
	f.DeleteCalls++
	return f.DeleteErr
}

func (f *fakeAuthSvc) Ping(context.Context) error { return f.PingErr }
func (f *fakeAuthSvc) Close() error               { return nil }

// fakeParkingSvc реализует services.ParkingService тем же способом.
type fakeParkingSvc struct {
	services.ParkingService

	CurrentRet *models.ParkingSession

	FetchCurrentResp  *models.ParkingSession
	FetchCurrentErr   error
	FetchCurrentCalls int

	CreateResp       *models.ParkingSession
	CreateErr        error
	LastCreateCoords models.Coordinates
	LastCreateMethod models.DetectionMethod

	EndErr   error
	EndCalls int

	MoveResp *models.ParkingSession
	MoveErr  error

	PayResp        *models.ParkingSession
	PayErr         error
	LastPayMethod  models.PaymentMethod
	LastPayMinutes int

	PreviewResp *models.StatusPreview
	PreviewErr  error

	HistoryHasMore  bool
	HistoryErr      error
	HistoryRet      []models.ParkingSession
	LastHistoryPage int

	LocationsResp  []models.SavedLocation
	LocationsErr   error
	FetchLocCalls  int
	AddLocResp     *models.SavedLocation
	AddLocErr      error
	LastAddName    string
	LastAddCoords  models.Coordinates
	LastAddAddress string
	RemoveLocErr   error
	LastRemoveID   string
	SavedRet       []models.SavedLocation
}

func (f *fakeParkingSvc) Current() *models.ParkingSession { return f.CurrentRet }

func (f *fakeParkingSvc) FetchCurrentSession(context.Context) (*models.ParkingSession, error) {
	f.FetchCurrentCalls++
	return f.FetchCurrentResp, f.FetchCurrentErr
}

func (f *fakeParkingSvc) CreateSession(_ context.Context, coords models.Coordinates, method models.DetectionMethod) (*models.ParkingSession, error) {
	f.LastCreateCoords, f.LastCreateMethod = coords, method
	return f.CreateResp, f.CreateErr
}

func (f *fakeParkingSvc) EndSession(context.Context) error {
	f.EndCalls++
	return f.EndErr
}

func (f *fakeParkingSvc) UpdateSessionLocation(_ context.Context, coords models.Coordinates) (*models.ParkingSession, error) {
	return f.MoveResp, f.MoveErr
}

func (f *fakeParkingSvc) ConfirmPayment(_ context.Context, method models.PaymentMethod, minutes int) (*models.ParkingSession, error) {
	f.LastPayMethod, f.LastPayMinutes = method, minutes
	return f.PayResp, f.PayErr
}

func (f *fakeParkingSvc) PreviewStatus(_ context.Context, _ models.Coordinates) (*models.StatusPreview, error) {
	return f.PreviewResp, f.PreviewErr
}

func (f *fakeParkingSvc) FetchHistory(_ context.Context, page int) (bool, error) {
	f.LastHistoryPage = page
	return f.HistoryHasMore, f.HistoryErr
}

func (f *fakeParkingSvc) History() []models.ParkingSession { return f.HistoryRet }

func (f *fakeParkingSvc) FetchSavedLocations(context.Context) ([]models.SavedLocation, error) {
	f.FetchLocCalls++
	return f.LocationsResp, f.LocationsErr
}

func (f *fakeParkingSvc) AddSavedLocation(_ context.Context, name string, coords models.Coordinates, address string) (*models.SavedLocation, error) {
	f.LastAddName, f.LastAddCoords, f.LastAddAddress = name, coords, address
	return f.AddLocResp, f.AddLocErr
}

func (f *fakeParkingSvc) RemoveSavedLocation(_ context.Context, id string) error {
	f.LastRemoveID = id
	return f.RemoveLocErr
}

func (f *fakeParkingSvc) SavedLocations() []models.SavedLocation { return f.SavedRet }

// fakeNotifSvc реализует services.NotificationService.
type fakeNotifSvc struct {
	services.NotificationService

	PrefsResp *models.NotificationPreferences
	PrefsErr  error

	UpdateResp *models.NotificationPreferences
	UpdateErr  error
	LastUpdate models.NotificationPreferences

	RegisterErr   error
	LastToken     string
	LastPlatform  models.PushPlatform
	UnregisterErr error
}

func (f *fakeNotifSvc) Preferences(context.Context) (*models.NotificationPreferences, error) {
	return f.PrefsResp, f.PrefsErr
}

func (f *fakeNotifSvc) UpdatePreferences(_ context.Context, prefs models.NotificationPreferences) (*models.NotificationPreferences, error) {
	f.LastUpdate = prefs
	return f.UpdateResp, f.UpdateErr
}

func (f *fakeNotifSvc) RegisterPushToken(_ context.Context, token string, platform models.PushPlatform) error {
	f.LastToken, f.LastPlatform = token, platform
	return f.RegisterErr
}

func (f *fakeNotifSvc) UnregisterPushToken(_ context.Context, token string) error {
	f.LastToken = token
	return f.UnregisterErr
}
