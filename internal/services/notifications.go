package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/parkit-app/parkit-go/internal/api"
	"github.com/parkit-app/parkit-go/internal/logging"
	"github.com/parkit-app/parkit-go/internal/models"
)

// NotificationService manages push registration and expiry-reminder
// preferences. Stateless apart from a cached copy of the last preferences
// seen from the backend.
type NotificationService interface {
	RegisterPushToken(ctx context.Context, token string, platform models.PushPlatform) error
	UnregisterPushToken(ctx context.Context, token string) error
	Preferences(ctx context.Context) (*models.NotificationPreferences, error)
	UpdatePreferences(ctx context.Context, prefs models.NotificationPreferences) (*models.NotificationPreferences, error)
	Cached() *models.NotificationPreferences
}

type notificationService struct {
	client api.Client
	log    logging.Logger

	mu    sync.RWMutex
	prefs *models.NotificationPreferences
}

func NewNotificationService(client api.Client, log logging.Logger) NotificationService {
	return &notificationService{client: client, log: log}
}

func (n *notificationService) RegisterPushToken(ctx context.Context, token string, platform models.PushPlatform) error {
	if err := n.client.RegisterPushToken(ctx, token, platform); err != nil {
		return fmt.Errorf("push registration error: %w", err)
	}
	n.log.Info(ctx, "push token registered", "platform", string(platform))
	return nil
}

func (n *notificationService) UnregisterPushToken(ctx context.Context, token string) error {
	if err := n.client.UnregisterPushToken(ctx, token); err != nil {
		return fmt.Errorf("push unregistration error: %w", err)
	}
	return nil
}

func (n *notificationService) Preferences(ctx context.Context) (*models.NotificationPreferences, error) {
	prefs, err := n.client.NotificationPreferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("preferences fetch error: %w", err)
	}
	return n.adopt(prefs), nil
}

func (n *notificationService) UpdatePreferences(ctx context.Context, prefs models.NotificationPreferences) (*models.NotificationPreferences, error) {
	stored, err := n.client.UpdateNotificationPreferences(ctx, prefs)
	if err != nil {
		return nil, fmt.Errorf("preferences update error: %w", err)
	}
	return n.adopt(stored), nil
}

func (n *notificationService) Cached() *models.NotificationPreferences {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return clonePrefs(n.prefs)
}

func (n *notificationService) adopt(prefs *models.NotificationPreferences) *models.NotificationPreferences {
	n.mu.Lock()
	n.prefs = clonePrefs(prefs)
	n.mu.Unlock()
	return clonePrefs(prefs)
}

func clonePrefs(p *models.NotificationPreferences) *models.NotificationPreferences {
	if p == nil {
		return nil
	}
	cp := *p
	cp.ReminderTimes = append([]int(nil), p.ReminderTimes...)
	return &cp
}
