package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/parkit-app/parkit-go/internal/api"
	"github.com/parkit-app/parkit-go/internal/config"
	"github.com/parkit-app/parkit-go/internal/filex"
	"github.com/parkit-app/parkit-go/internal/logging"
	"github.com/parkit-app/parkit-go/internal/securestore"
	"github.com/parkit-app/parkit-go/internal/services"
)

// Mode describes the last observed connectivity state of the backend.
type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

// Fixed file names inside the data directory.
const (
	databaseFileName  = "parkit.db"
	deviceKeyFileName = "parkit.key"
)

// App ties the configuration, the services and the REPL together.
type App struct {
	config        *config.Config
	auth          services.AuthService
	parking       services.ParkingService
	notifications services.NotificationService
	log           logging.Logger
	reader        *bufio.Reader

	modeMu sync.Mutex
	mode   Mode

	// warnedUntil is the deadline the expiry watcher has already announced.
	// Touched only from the watcher goroutine.
	warnedUntil time.Time
}

// NewApp opens the local store in the configured data directory and wires
// the HTTP client and services.
func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	dir := c.DataDir
	if dir == "" {
		var err error
		dir, err = filex.EnsureSubDir("parkit")
		if err != nil {
			return nil, fmt.Errorf("data dir error: %w", err)
		}
	}

	db, err := securestore.InitDatabase(ctx, filepath.Join(dir, databaseFileName))
	if err != nil {
		logger.Error(ctx, "database initialization failed", "error", err.Error())
		return nil, err
	}

	key, err := securestore.LoadDeviceKey(ctx, db, filepath.Join(dir, deviceKeyFileName))
	if err != nil {
		logger.Error(ctx, "device key initialization failed", "error", err.Error())
		return nil, err
	}

	store := securestore.NewSQLiteStore(db, key)
	keeper := services.NewTokenKeeper(store)

	apiClient := api.NewHTTPClient(c.ServerEndpointURL, keeper,
		api.WithHTTPClient(&http.Client{Timeout: c.RequestTimeout}),
		api.WithLogger(logger),
		api.WithStatusRateLimit(c.StatusRateInterval, c.StatusRateBurst),
	)

	as := services.NewAuthService(apiClient, store, keeper, logger)
	ps := services.NewParkingService(apiClient, logger)
	ns := services.NewNotificationService(apiClient, logger)

	return &App{
		config:        c,
		auth:          as,
		parking:       ps,
		notifications: ns,
		log:           logger,
		reader:        bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run restores the persisted session, starts the background watchers and
// enters the REPL. It blocks until the user exits or the context is
// cancelled.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.initSignalHandler(cancel)
	defer func() { _ = a.auth.Close() }()

	printlnFn("Park-IT CLI (type 'help' for commands)")

	if a.auth.CheckAuth(ctx) == services.StatusLoggedIn {
		if u := a.auth.User(); u != nil {
			printlnFn("Welcome back,", u.Email)
		}
		a.hydrate(ctx)
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	go a.StartExpiryWatcher(ctx, a.config.ExpiryWatchInterval)

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

// hydrate pulls the state a signed-in user expects to see right away.
// Failures are logged by the services and never block startup.
func (a *App) hydrate(ctx context.Context) {
	_, _ = a.parking.FetchCurrentSession(ctx)
	_, _ = a.parking.FetchSavedLocations(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.auth.Status() == services.StatusLoggedIn
}

func (a *App) currentMode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.modeMu.Unlock()

	if changed {
		a.log.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

// getStatus renders the prompt decoration: signed-in user, connectivity and
// a marker while a parking session is active.
func (a *App) getStatus() string {
	parts := make([]string, 0, 3)
	if u := a.auth.User(); u != nil {
		parts = append(parts, u.Email)
	}
	if m := a.currentMode(); m != "" {
		parts = append(parts, string(m))
	}
	if cur := a.parking.Current(); cur != nil {
		parts = append(parts, "parked:"+string(cur.Status))
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, " "))
}
