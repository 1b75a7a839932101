package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/parkit-app/parkit-go/internal/common"
	"github.com/parkit-app/parkit-go/internal/models"
)

/*************
 * Fake token store
 *************/

type memTokens struct {
	mu     sync.Mutex
	pair   *models.AuthTokens
	stores int
	clears int
}

func (m *memTokens) Tokens(ctx context.Context) (*models.AuthTokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pair, nil
}

func (m *memTokens) StoreTokens(ctx context.Context, tokens *models.AuthTokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = tokens
	m.stores++
	return nil
}

func (m *memTokens) ClearTokens(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = nil
	m.clears++
	return nil
}

func pair(access, refresh string) *models.AuthTokens {
	return &models.AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(time.Hour).UnixMilli(),
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

/*************
 * Headers and bearer injection
 *************/

func TestDo_AttachesBearerAndRequestID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/users/me", r.URL.Path)
		require.Equal(t, "Bearer A1", r.Header.Get("Authorization"))
		require.NotEmpty(t, r.Header.Get(common.RequestIDHeaderName))
		require.Equal(t, "parkit-cli", r.Header.Get("User-Agent"))
		writeJSON(t, w, http.StatusOK, models.User{ID: "u-1", Email: "x@y.z"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, &memTokens{pair: pair("A1", "R1")})
	user, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, "u-1", user.ID)
	require.Equal(t, "x@y.z", user.Email)
}

func TestLoginWithApple_PublicCallSkipsBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/apple", r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "apple-jwt", req["idToken"])
		require.Equal(t, "n0nce", req["nonce"])

		writeJSON(t, w, http.StatusOK, models.AuthResponse{
			User:   models.User{ID: "u-1", Provider: models.ProviderApple},
			Tokens: *pair("A1", "R1"),
		})
	}))
	defer srv.Close()

	// в хранилище уже лежит старая пара, но логин не должен её отправлять
	c := NewHTTPClient(srv.URL, &memTokens{pair: pair("OLD", "OLD")})
	resp, err := c.LoginWithApple(context.Background(), "apple-jwt", "n0nce")
	require.NoError(t, err)
	require.Equal(t, "u-1", resp.User.ID)
	require.Equal(t, "A1", resp.Tokens.AccessToken)
}

func TestLoginWithApple_EmptyToken_NoRequest(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, &memTokens{})
	_, err := c.LoginWithApple(context.Background(), "", "")
	require.ErrorIs(t, err, common.ErrValidation)
	require.EqualValues(t, 0, atomic.LoadInt32(&calls))
}

/*************
 * Refresh-and-retry
 *************/

func TestDo_RefreshesOnceAndRetries(t *testing.T) {
	var meCalls, refreshCalls int32
	var mu sync.Mutex
	var requestIDs []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/users/me":
			mu.Lock()
			requestIDs = append(requestIDs, r.Header.Get(common.RequestIDHeaderName))
			mu.Unlock()
			if atomic.AddInt32(&meCalls, 1) == 1 {
				writeJSON(t, w, http.StatusUnauthorized, map[string]string{"detail": "Token expired"})
				return
			}
			require.Equal(t, "Bearer A2", r.Header.Get("Authorization"))
			writeJSON(t, w, http.StatusOK, models.User{ID: "u-1"})
		case "/api/v1/auth/refresh":
			atomic.AddInt32(&refreshCalls, 1)
			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "R1", req["refreshToken"])
			writeJSON(t, w, http.StatusOK, map[string]any{"tokens": pair("A2", "R2")})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	store := &memTokens{pair: pair("A1", "R1")}
	c := NewHTTPClient(srv.URL, store)

	user, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, "u-1", user.ID)

	require.EqualValues(t, 2, atomic.LoadInt32(&meCalls))
	require.EqualValues(t, 1, atomic.LoadInt32(&refreshCalls))

	// replay keeps the request id, so both attempts correlate in server logs
	mu.Lock()
	require.Len(t, requestIDs, 2)
	require.Equal(t, requestIDs[0], requestIDs[1])
	require.NotEmpty(t, requestIDs[0])
	mu.Unlock()

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Equal(t, "A2", store.pair.AccessToken)
	require.Equal(t, "R2", store.pair.RefreshToken)
	require.Equal(t, 1, store.stores)
}

func TestDo_RefreshFails_ClearsTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/users/me":
			writeJSON(t, w, http.StatusUnauthorized, map[string]string{"detail": "Token expired"})
		case "/api/v1/auth/refresh":
			writeJSON(t, w, http.StatusUnauthorized, map[string]string{"detail": "Invalid refresh token"})
		}
	}))
	defer srv.Close()

	store := &memTokens{pair: pair("A1", "R1")}
	c := NewHTTPClient(srv.URL, store)

	_, err := c.CurrentUser(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Nil(t, store.pair)
	require.Equal(t, 1, store.clears)
}

func TestDo_NoRefreshToken_NoRefreshCall(t *testing.T) {
	var refreshCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/auth/refresh" {
			atomic.AddInt32(&refreshCalls, 1)
		}
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, &memTokens{})
	_, err := c.CurrentUser(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	require.EqualValues(t, 0, atomic.LoadInt32(&refreshCalls))
}

func TestDo_SecondUnauthorizedIsTerminal(t *testing.T) {
	var meCalls, refreshCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/users/me":
			atomic.AddInt32(&meCalls, 1)
			writeJSON(t, w, http.StatusUnauthorized, map[string]string{"detail": "Token expired"})
		case "/api/v1/auth/refresh":
			atomic.AddInt32(&refreshCalls, 1)
			writeJSON(t, w, http.StatusOK, map[string]any{"tokens": pair("A2", "R2")})
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, &memTokens{pair: pair("A1", "R1")})
	_, err := c.CurrentUser(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	require.EqualValues(t, 2, atomic.LoadInt32(&meCalls))
	require.EqualValues(t, 1, atomic.LoadInt32(&refreshCalls))
}

func TestDo_ConcurrentUnauthorized_SingleRefresh(t *testing.T) {
	const workers = 10

	var refreshCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/users/me":
			if r.Header.Get("Authorization") != "Bearer A2" {
				writeJSON(t, w, http.StatusUnauthorized, map[string]string{"detail": "Token expired"})
				return
			}
			writeJSON(t, w, http.StatusOK, models.User{ID: "u-1"})
		case "/api/v1/auth/refresh":
			atomic.AddInt32(&refreshCalls, 1)
			// держим обмен открытым, чтобы все 401 успели добежать до refresh
			time.Sleep(200 * time.Millisecond)
			writeJSON(t, w, http.StatusOK, map[string]any{"tokens": pair("A2", "R2")})
		}
	}))
	defer srv.Close()

	store := &memTokens{pair: pair("A1", "R1")}
	c := NewHTTPClient(srv.URL, store)

	start := make(chan struct{})
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := c.CurrentUser(context.Background())
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, atomic.LoadInt32(&refreshCalls))

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Equal(t, "A2", store.pair.AccessToken)
	require.Equal(t, 1, store.stores)
}

/*************
 * Error mapping
 *************/

func TestCurrentSession_NoActiveSession_ReturnsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]string{"detail": "No active session"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, &memTokens{pair: pair("A1", "R1")})
	_, err := c.CurrentSession(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorContains(t, err, "No active session")
}

func TestDo_UnprocessableEntity_ReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnprocessableEntity, map[string]string{"detail": "Invalid coordinates"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, &memTokens{pair: pair("A1", "R1")})
	_, err := c.CreateSession(context.Background(), models.Coordinates{Latitude: 40.7, Longitude: -73.9}, models.DetectionManual)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	require.Equal(t, "Invalid coordinates", apiErr.Detail)
}

func TestDo_TransportError_ReturnsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewHTTPClient(srv.URL, &memTokens{pair: pair("A1", "R1")})
	_, err := c.CurrentUser(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestMapStatus(t *testing.T) {
	c := NewHTTPClient("http://localhost", &memTokens{})

	require.NoError(t, c.mapStatus(http.StatusOK, nil))
	require.NoError(t, c.mapStatus(http.StatusCreated, nil))
	require.Equal(t, ErrUnauthorized, c.mapStatus(http.StatusUnauthorized, nil))
	require.Equal(t, ErrUnauthorized, c.mapStatus(http.StatusForbidden, nil))
	require.ErrorIs(t, c.mapStatus(http.StatusNotFound, []byte(`{"detail":"gone"}`)), ErrNotFound)

	err := c.mapStatus(http.StatusInternalServerError, []byte("boom"))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "boom", apiErr.Detail)
}

/*************
 * Parking endpoints
 *************/

func TestCreateSession_PostsCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/parking/sessions", r.URL.Path)

		var req createSessionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, 40.7128, req.Coordinates.Latitude)
		require.Equal(t, -74.006, req.Coordinates.Longitude)
		require.Equal(t, models.DetectionBluetooth, req.DetectionMethod)

		writeJSON(t, w, http.StatusCreated, models.ParkingSession{ID: "s-1", Status: models.StatusGreen})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, &memTokens{pair: pair("A1", "R1")})
	session, err := c.CreateSession(context.Background(), models.Coordinates{Latitude: 40.7128, Longitude: -74.006}, models.DetectionBluetooth)
	require.NoError(t, err)
	require.Equal(t, "s-1", session.ID)
	require.Equal(t, models.StatusGreen, session.Status)
}

func TestCreateSession_InvalidCoordinates_NoRequest(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, &memTokens{pair: pair("A1", "R1")})
	_, err := c.CreateSession(context.Background(), models.Coordinates{Latitude: 91}, models.DetectionManual)
	require.ErrorIs(t, err, common.ErrValidation)
	require.EqualValues(t, 0, atomic.LoadInt32(&calls))
}

func TestEndSession_PostsToEndPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/parking/sessions/s-1/end", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]string{"message": "Session ended"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, &memTokens{pair: pair("A1", "R1")})
	require.NoError(t, c.EndSession(context.Background(), "s-1"))
}

func TestPaySession_Validation(t *testing.T) {
	c := NewHTTPClient("http://localhost", &memTokens{})

	_, err := c.PaySession(context.Background(), "s-1", "cash", 60)
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = c.PaySession(context.Background(), "s-1", models.PaymentMethodParkmobile, 0)
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = c.PaySession(context.Background(), "", models.PaymentMethodParkmobile, 60)
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestStatusPreview_SendsCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/parking/status", r.URL.Path)
		require.Equal(t, "40.7128", r.URL.Query().Get("lat"))
		require.Equal(t, "-74.006", r.URL.Query().Get("lng"))
		writeJSON(t, w, http.StatusOK, models.StatusPreview{Status: models.StatusYellow, StatusReason: "Street cleaning in 45 minutes"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, &memTokens{pair: pair("A1", "R1")})
	preview, err := c.StatusPreview(context.Background(), models.Coordinates{Latitude: 40.7128, Longitude: -74.006})
	require.NoError(t, err)
	require.Equal(t, models.StatusYellow, preview.Status)
	require.Equal(t, "Street cleaning in 45 minutes", preview.StatusReason)
}

func TestHistory_PagesThroughQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/parking/history", r.URL.Path)
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "20", r.URL.Query().Get("pageSize"))
		writeJSON(t, w, http.StatusOK, models.HistoryPage{
			Items:    []models.ParkingSession{{ID: "s-9"}},
			Total:    41,
			Page:     2,
			PageSize: 20,
			HasMore:  true,
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, &memTokens{pair: pair("A1", "R1")})
	page, err := c.History(context.Background(), 2, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, 41, page.Total)
	require.True(t, page.HasMore)
}

/*************
 * Ping
 *************/

func TestPing_Healthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/health", r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, healthResponse{Status: "healthy", Database: "connected", Version: "1.0.0"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, &memTokens{})
	require.NoError(t, c.Ping(context.Background()))
}

func TestPing_Degraded_ReturnsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, healthResponse{Status: "degraded"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, &memTokens{})
	require.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
}
