package services

import (
	"context"
	"errors"
	"sync"

	"github.com/parkit-app/parkit-go/internal/api"
	"github.com/parkit-app/parkit-go/internal/common"
	"github.com/parkit-app/parkit-go/internal/models"
	"github.com/parkit-app/parkit-go/internal/securestore"
)

// Secure-store keys for the persisted session. The pair and the user are
// written together on login and deleted together on logout.
const (
	tokensKey = "auth.tokens"
	userKey   = "auth.user"
)

// TokenKeeper implements api.TokenStore over the secure store with a
// write-through memory cache, so the per-request token read does not hit
// storage. It is shared between the HTTP client (refresh path) and the
// AuthService (login/logout path); both go through it so the cache and the
// store never diverge.
type TokenKeeper struct {
	store securestore.Store

	mu     sync.RWMutex
	pair   *models.AuthTokens
	primed bool
}

var _ api.TokenStore = (*TokenKeeper)(nil)

func NewTokenKeeper(store securestore.Store) *TokenKeeper {
	return &TokenKeeper{store: store}
}

// Tokens returns a copy of the current pair, or nil when logged out. The
// first call loads the pair from the secure store; later calls are served
// from memory.
func (k *TokenKeeper) Tokens(ctx context.Context) (*models.AuthTokens, error) {
	k.mu.RLock()
	if k.primed {
		pair := clonePair(k.pair)
		k.mu.RUnlock()
		return pair, nil
	}
	k.mu.RUnlock()

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.primed {
		return clonePair(k.pair), nil
	}

	var pair models.AuthTokens
	err := k.store.Get(ctx, tokensKey, &pair)
	switch {
	case errors.Is(err, common.ErrNotFound):
		k.pair, k.primed = nil, true
		return nil, nil
	case err != nil:
		return nil, err
	}

	k.pair, k.primed = &pair, true
	return clonePair(&pair), nil
}

// StoreTokens persists the pair and then updates the cache. Storage first:
// a crash between the two leaves the durable state ahead of the cache, never
// behind it.
func (k *TokenKeeper) StoreTokens(ctx context.Context, tokens *models.AuthTokens) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := k.store.Set(ctx, tokensKey, tokens); err != nil {
		return err
	}
	k.pair, k.primed = clonePair(tokens), true
	return nil
}

// ClearTokens deletes the persisted pair and empties the cache.
func (k *TokenKeeper) ClearTokens(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := k.store.Delete(ctx, tokensKey); err != nil {
		return err
	}
	k.pair, k.primed = nil, true
	return nil
}

// prime overwrites the cache without touching storage. Used by AuthService
// after it has written (or deleted) the pair itself as part of a larger
// transaction.
func (k *TokenKeeper) prime(tokens *models.AuthTokens) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pair, k.primed = clonePair(tokens), true
}

func clonePair(t *models.AuthTokens) *models.AuthTokens {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}
