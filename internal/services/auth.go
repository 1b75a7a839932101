// Package services contains application services for the Park-IT client.
// This file defines the auth session service: provider sign-in, silent
// session restore, token refresh, logout, and housekeeping of the locally
// persisted user/token pair.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/parkit-app/parkit-go/internal/api"
	"github.com/parkit-app/parkit-go/internal/common"
	"github.com/parkit-app/parkit-go/internal/logging"
	"github.com/parkit-app/parkit-go/internal/models"
	"github.com/parkit-app/parkit-go/internal/securestore"
)

// AuthStatus is the session state exposed to the UI layer.
type AuthStatus string

const (
	StatusLoggedOut AuthStatus = "loggedOut"
	StatusLoading   AuthStatus = "loading"
	StatusLoggedIn  AuthStatus = "loggedIn"
)

// AuthService manages the authenticated session.
//
// Contract:
//   - CheckAuth: restore the session from the secure store; never returns an
//     error, every failure degrades to loggedOut.
//   - LoginWithApple / LoginWithGoogle: exchange a provider credential for a
//     session; user and tokens are persisted in one transaction before the
//     in-memory state flips to loggedIn.
//   - Logout: best-effort server logout, then unconditional local cleanup.
//   - RefreshTokens: proactive token exchange; failure forces a local logout.
//   - UpdateUser: local profile merge, persisted, no server round-trip.
//   - FetchProfile / UpdateProfile / DeleteAccount: server-backed profile
//     operations; the local copy adopts the server result wholesale.
//   - Every state transition writes storage first, memory second.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	CheckAuth(ctx context.Context) AuthStatus
	LoginWithApple(ctx context.Context, identityToken, nonce string) (*models.User, error)
	LoginWithGoogle(ctx context.Context, accessToken string) (*models.User, error)
	Logout(ctx context.Context) error
	RefreshTokens(ctx context.Context) error
	UpdateUser(ctx context.Context, upd models.UserUpdate) (*models.User, error)
	FetchProfile(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, upd models.UserUpdate) (*models.User, error)
	DeleteAccount(ctx context.Context) error
	Status() AuthStatus
	User() *models.User
	Tokens(ctx context.Context) (*models.AuthTokens, error)
	Ping(ctx context.Context) error
	Close() error
}

// authService is the concrete AuthService backed by the API client, the
// secure store, and the shared TokenKeeper.
type authService struct {
	client api.Client
	store  securestore.Store
	keeper *TokenKeeper
	log    logging.Logger
	now    func() time.Time

	mu     sync.RWMutex
	status AuthStatus
	user   *models.User
}

// NewAuthService constructs an AuthService. The keeper must be the same
// instance the API client was built with, otherwise refreshed tokens would
// bypass the service's cache.
func NewAuthService(client api.Client, store securestore.Store, keeper *TokenKeeper, log logging.Logger) AuthService {
	return &authService{
		client: client,
		store:  store,
		keeper: keeper,
		log:    log,
		now:    time.Now,
		status: StatusLoading,
	}
}

// CheckAuth restores the session from storage: tokens and user present and
// usable means loggedIn, anything else resolves to loggedOut. An expired
// access token gets one refresh attempt before giving up.
func (a *authService) CheckAuth(ctx context.Context) AuthStatus {
	a.setStatus(StatusLoading)

	pair, err := a.keeper.Tokens(ctx)
	if err != nil {
		a.log.Error(ctx, "stored tokens unreadable", "error", err)
		return a.dropSession(ctx, false)
	}
	if pair == nil {
		return a.dropSession(ctx, false)
	}

	var user models.User
	err = a.store.Get(ctx, userKey, &user)
	switch {
	case errors.Is(err, common.ErrNotFound):
		// токены без пользователя — неполная запись, чистим всё
		return a.dropSession(ctx, true)
	case err != nil:
		a.log.Error(ctx, "stored user unreadable", "error", err)
		return a.dropSession(ctx, false)
	}

	if pair.ExpiresAt == 0 {
		// пара сохранена без expiresAt — срок действия берём из exp самого токена
		if claims, err := pair.AccessClaims(); err == nil && !claims.ExpiresAt.IsZero() {
			pair.ExpiresAt = claims.ExpiresAt.UnixMilli()
		}
	}

	if pair.Expired(a.now()) {
		if err := a.RefreshTokens(ctx); err != nil {
			return StatusLoggedOut
		}
	}

	a.mu.Lock()
	a.user = &user
	a.status = StatusLoggedIn
	a.mu.Unlock()

	a.log.Debug(ctx, "session restored", "user_id", user.ID)
	return StatusLoggedIn
}

func (a *authService) LoginWithApple(ctx context.Context, identityToken, nonce string) (*models.User, error) {
	return a.login(ctx, func(ctx context.Context) (*models.AuthResponse, error) {
		return a.client.LoginWithApple(ctx, identityToken, nonce)
	})
}

func (a *authService) LoginWithGoogle(ctx context.Context, accessToken string) (*models.User, error) {
	return a.login(ctx, func(ctx context.Context) (*models.AuthResponse, error) {
		return a.client.LoginWithGoogle(ctx, accessToken)
	})
}

// login runs one provider exchange. On failure the previous state is
// restored; a failed login never destroys an existing session.
func (a *authService) login(ctx context.Context, exchange func(context.Context) (*models.AuthResponse, error)) (*models.User, error) {
	prev := a.Status()
	if prev != StatusLoggedIn {
		prev = StatusLoggedOut
	}
	a.setStatus(StatusLoading)

	resp, err := exchange(ctx)
	if err != nil {
		a.setStatus(prev)
		return nil, fmt.Errorf("login error: %w", err)
	}

	if err := a.store.SetMany(ctx, map[string]any{
		tokensKey: resp.Tokens,
		userKey:   resp.User,
	}); err != nil {
		a.setStatus(prev)
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	a.keeper.prime(&resp.Tokens)

	user := resp.User
	a.mu.Lock()
	a.user = &user
	a.status = StatusLoggedIn
	a.mu.Unlock()

	a.log.Info(ctx, "logged in", "user_id", user.ID, "provider", string(user.Provider))
	return cloneUser(&user), nil
}

// Logout invalidates the server session when one exists and wipes the local
// one regardless. A server failure is logged and ignored.
func (a *authService) Logout(ctx context.Context) error {
	if a.Status() == StatusLoggedIn {
		if err := a.client.Logout(ctx); err != nil {
			a.log.Warn(ctx, "server logout failed", "error", err)
		}
	}
	return a.clearSession(ctx)
}

// RefreshTokens exchanges the stored refresh token for a fresh pair. Any
// failure forces a local logout: a spent or rejected refresh token cannot
// recover on its own.
func (a *authService) RefreshTokens(ctx context.Context) error {
	pair, err := a.keeper.Tokens(ctx)
	if err != nil {
		return fmt.Errorf("token read error: %w", err)
	}
	if pair == nil || pair.RefreshToken == "" {
		_ = a.clearSession(ctx)
		return api.ErrUnauthorized
	}

	fresh, err := a.client.RefreshSession(ctx, pair.RefreshToken)
	if err != nil {
		a.log.Warn(ctx, "token refresh failed, logging out", "error", err)
		if clearErr := a.clearSession(ctx); clearErr != nil {
			a.log.Error(ctx, "session cleanup failed", "error", clearErr)
		}
		return fmt.Errorf("token refresh error: %w", err)
	}

	if err := a.keeper.StoreTokens(ctx, fresh); err != nil {
		return fmt.Errorf("token saving error: %w", err)
	}
	return nil
}

// UpdateUser merges the partial update into the cached profile and persists
// the result. Quiet no-op when nobody is logged in.
func (a *authService) UpdateUser(ctx context.Context, upd models.UserUpdate) (*models.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.user == nil {
		return nil, nil
	}

	merged := a.user.Merge(upd)
	if err := a.store.Set(ctx, userKey, merged); err != nil {
		return nil, fmt.Errorf("profile saving error: %w", err)
	}
	a.user = &merged
	return cloneUser(&merged), nil
}

func (a *authService) FetchProfile(ctx context.Context) (*models.User, error) {
	user, err := a.client.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("profile fetch error: %w", err)
	}
	return a.adoptUser(ctx, user)
}

func (a *authService) UpdateProfile(ctx context.Context, upd models.UserUpdate) (*models.User, error) {
	user, err := a.client.UpdateProfile(ctx, upd)
	if err != nil {
		return nil, fmt.Errorf("profile update error: %w", err)
	}
	return a.adoptUser(ctx, user)
}

// DeleteAccount removes the account on the server and then drops the local
// session.
func (a *authService) DeleteAccount(ctx context.Context) error {
	if err := a.client.DeleteAccount(ctx); err != nil {
		return fmt.Errorf("account deletion error: %w", err)
	}
	return a.clearSession(ctx)
}

func (a *authService) Status() AuthStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

func (a *authService) User() *models.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return cloneUser(a.user)
}

func (a *authService) Tokens(ctx context.Context) (*models.AuthTokens, error) {
	return a.keeper.Tokens(ctx)
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases resources held by the underlying client.
func (a *authService) Close() error {
	return a.client.Close()
}

// adoptUser replaces the persisted and cached profile with the server's copy.
func (a *authService) adoptUser(ctx context.Context, user *models.User) (*models.User, error) {
	if err := a.store.Set(ctx, userKey, user); err != nil {
		return nil, fmt.Errorf("profile saving error: %w", err)
	}

	a.mu.Lock()
	a.user = cloneUser(user)
	a.mu.Unlock()
	return cloneUser(user), nil
}

// clearSession wipes the persisted pair and user and flips memory to
// loggedOut. Memory is cleared even when the storage delete fails, so a dead
// session is never kept alive by a broken store.
func (a *authService) clearSession(ctx context.Context) error {
	err := a.store.DeleteMany(ctx, tokensKey, userKey)
	a.keeper.prime(nil)

	a.mu.Lock()
	a.user = nil
	a.status = StatusLoggedOut
	a.mu.Unlock()

	if err != nil {
		return fmt.Errorf("session cleanup error: %w", err)
	}
	return nil
}

// dropSession is clearSession for the CheckAuth path: optionally clears
// storage and always reports loggedOut without an error. Without the wipe the
// keeper is left alone, so a transient storage error does not pin an empty
// cache.
func (a *authService) dropSession(ctx context.Context, wipeStorage bool) AuthStatus {
	if wipeStorage {
		if err := a.clearSession(ctx); err != nil {
			a.log.Error(ctx, "session cleanup failed", "error", err)
		}
		return StatusLoggedOut
	}

	a.mu.Lock()
	a.user = nil
	a.status = StatusLoggedOut
	a.mu.Unlock()
	return StatusLoggedOut
}

func (a *authService) setStatus(s AuthStatus) {
	a.mu.Lock()
	a.status = s
	a.mu.Unlock()
}

func cloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}
