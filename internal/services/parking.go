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
	"github.com/parkit-app/parkit-go/internal/timex"
)

const defaultHistoryPageSize = 20

// ParkingService tracks the active parking session, the session history, and
// the saved locations. Status, statusReason, and rules always come from the
// backend; the service adopts server responses wholesale and never computes
// them locally.
//
// Contract:
//   - FetchCurrentSession: 404 from the backend is the valid "not parked"
//     state, not an error.
//   - EndSession: no-op without an active session; on success the session
//     moves to the front of history with a locally stamped end time until the
//     next page-1 history fetch replaces it with the server record.
//   - Fetch failures keep the previous state.
type ParkingService interface {
	FetchCurrentSession(ctx context.Context) (*models.ParkingSession, error)
	CreateSession(ctx context.Context, coords models.Coordinates, method models.DetectionMethod) (*models.ParkingSession, error)
	EndSession(ctx context.Context) error
	UpdateSessionLocation(ctx context.Context, coords models.Coordinates) (*models.ParkingSession, error)
	ConfirmPayment(ctx context.Context, method models.PaymentMethod, durationMinutes int) (*models.ParkingSession, error)
	PreviewStatus(ctx context.Context, coords models.Coordinates) (*models.StatusPreview, error)
	FetchHistory(ctx context.Context, page int) (bool, error)
	FetchSavedLocations(ctx context.Context) ([]models.SavedLocation, error)
	AddSavedLocation(ctx context.Context, name string, coords models.Coordinates, address string) (*models.SavedLocation, error)
	RemoveSavedLocation(ctx context.Context, locationID string) error
	Current() *models.ParkingSession
	CurrentStatus() (models.SessionStatus, string)
	History() []models.ParkingSession
	SavedLocations() []models.SavedLocation
}

type parkingService struct {
	client   api.Client
	log      logging.Logger
	pageSize int
	now      func() time.Time

	mu      sync.RWMutex
	current *models.ParkingSession
	history []models.ParkingSession
	saved   []models.SavedLocation
}

func NewParkingService(client api.Client, log logging.Logger) ParkingService {
	return &parkingService{
		client:   client,
		log:      log,
		pageSize: defaultHistoryPageSize,
		now:      time.Now,
	}
}

func (s *parkingService) FetchCurrentSession(ctx context.Context) (*models.ParkingSession, error) {
	session, err := s.client.CurrentSession(ctx)
	switch {
	case errors.Is(err, api.ErrNotFound):
		// валидное состояние: активной сессии нет
		s.mu.Lock()
		s.current = nil
		s.mu.Unlock()
		return nil, nil
	case err != nil:
		s.log.Warn(ctx, "current session fetch failed", "error", err)
		return nil, fmt.Errorf("session fetch error: %w", err)
	}

	return s.adoptCurrent(session), nil
}

func (s *parkingService) CreateSession(ctx context.Context, coords models.Coordinates, method models.DetectionMethod) (*models.ParkingSession, error) {
	session, err := s.client.CreateSession(ctx, coords, method)
	if err != nil {
		return nil, fmt.Errorf("session create error: %w", err)
	}

	s.log.Info(ctx, "parking session started", "session_id", session.ID, "status", string(session.Status))
	return s.adoptCurrent(session), nil
}

// EndSession ends the active session on the server and locally. A 404 from
// the backend means the session is already gone there, so the local end
// proceeds the same way.
func (s *parkingService) EndSession(ctx context.Context) error {
	id := s.currentID()
	if id == "" {
		return nil
	}

	if err := s.client.EndSession(ctx, id); err != nil && !errors.Is(err, api.ErrNotFound) {
		return fmt.Errorf("session end error: %w", err)
	}

	endedAt := timex.Time{Time: s.now()}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.ID != id {
		return nil
	}
	ended := *s.current
	ended.EndedAt = &endedAt
	ended.EndedLocally = true
	s.history = append([]models.ParkingSession{ended}, s.history...)
	s.current = nil

	s.log.Info(ctx, "parking session ended", "session_id", id)
	return nil
}

func (s *parkingService) UpdateSessionLocation(ctx context.Context, coords models.Coordinates) (*models.ParkingSession, error) {
	id := s.currentID()
	if id == "" {
		return nil, nil
	}

	session, err := s.client.UpdateSessionLocation(ctx, id, coords)
	if err != nil {
		return nil, fmt.Errorf("location update error: %w", err)
	}
	return s.adoptCurrent(session), nil
}

func (s *parkingService) ConfirmPayment(ctx context.Context, method models.PaymentMethod, durationMinutes int) (*models.ParkingSession, error) {
	id := s.currentID()
	if id == "" {
		return nil, fmt.Errorf("%w: no active session", common.ErrValidation)
	}

	session, err := s.client.PaySession(ctx, id, method, durationMinutes)
	if err != nil {
		return nil, fmt.Errorf("payment error: %w", err)
	}

	s.log.Info(ctx, "payment recorded", "session_id", id, "minutes", durationMinutes)
	return s.adoptCurrent(session), nil
}

func (s *parkingService) PreviewStatus(ctx context.Context, coords models.Coordinates) (*models.StatusPreview, error) {
	preview, err := s.client.StatusPreview(ctx, coords)
	if err != nil {
		return nil, fmt.Errorf("status preview error: %w", err)
	}
	return preview, nil
}

// FetchHistory loads one page of past sessions. Page 1 replaces the local
// list, which also swaps any locally stamped end-session placeholder for the
// server's record; later pages append.
func (s *parkingService) FetchHistory(ctx context.Context, page int) (bool, error) {
	result, err := s.client.History(ctx, page, s.pageSize)
	if err != nil {
		s.log.Warn(ctx, "history fetch failed", "page", page, "error", err)
		return false, fmt.Errorf("history fetch error: %w", err)
	}

	s.mu.Lock()
	if page <= 1 {
		s.history = append([]models.ParkingSession(nil), result.Items...)
	} else {
		s.history = append(s.history, result.Items...)
	}
	s.mu.Unlock()
	return result.HasMore, nil
}

func (s *parkingService) FetchSavedLocations(ctx context.Context) ([]models.SavedLocation, error) {
	locations, err := s.client.SavedLocations(ctx)
	if err != nil {
		s.log.Warn(ctx, "saved locations fetch failed", "error", err)
		return s.SavedLocations(), fmt.Errorf("locations fetch error: %w", err)
	}

	s.mu.Lock()
	s.saved = append([]models.SavedLocation(nil), locations...)
	s.mu.Unlock()
	return append([]models.SavedLocation(nil), locations...), nil
}

func (s *parkingService) AddSavedLocation(ctx context.Context, name string, coords models.Coordinates, address string) (*models.SavedLocation, error) {
	location, err := s.client.AddSavedLocation(ctx, name, coords, address)
	if err != nil {
		return nil, fmt.Errorf("location saving error: %w", err)
	}

	s.mu.Lock()
	s.saved = append(s.saved, *location)
	s.mu.Unlock()

	cp := *location
	return &cp, nil
}

// RemoveSavedLocation deletes a saved spot. A 404 means it is already gone
// on the server, so it is still removed locally.
func (s *parkingService) RemoveSavedLocation(ctx context.Context, locationID string) error {
	if err := s.client.DeleteSavedLocation(ctx, locationID); err != nil && !errors.Is(err, api.ErrNotFound) {
		return fmt.Errorf("location removal error: %w", err)
	}

	s.mu.Lock()
	kept := s.saved[:0]
	for _, loc := range s.saved {
		if loc.ID != locationID {
			kept = append(kept, loc)
		}
	}
	s.saved = kept
	s.mu.Unlock()
	return nil
}

func (s *parkingService) Current() *models.ParkingSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSession(s.current)
}

func (s *parkingService) CurrentStatus() (models.SessionStatus, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return "", ""
	}
	return s.current.Status, s.current.StatusReason
}

func (s *parkingService) History() []models.ParkingSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ParkingSession(nil), s.history...)
}

func (s *parkingService) SavedLocations() []models.SavedLocation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.SavedLocation(nil), s.saved...)
}

func (s *parkingService) currentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.ID
}

// adoptCurrent replaces the cached session with the server's copy.
func (s *parkingService) adoptCurrent(session *models.ParkingSession) *models.ParkingSession {
	s.mu.Lock()
	s.current = cloneSession(session)
	s.mu.Unlock()
	return cloneSession(session)
}

func cloneSession(s *models.ParkingSession) *models.ParkingSession {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
