package models

import (
	"fmt"

	"github.com/parkit-app/parkit-go/internal/common"
)

// PushPlatform identifies the mobile platform a push token belongs to.
type PushPlatform string

const (
	PlatformIOS     PushPlatform = "ios"
	PlatformAndroid PushPlatform = "android"
)

// Validate reports whether p is one of the accepted platforms.
func (p PushPlatform) Validate() error {
	switch p {
	case PlatformIOS, PlatformAndroid:
		return nil
	}
	return fmt.Errorf("%w: unknown platform %q", common.ErrValidation, string(p))
}

// NotificationPreferences controls expiry reminders. ReminderTimes are
// minutes before expiry at which the backend schedules a push.
type NotificationPreferences struct {
	Enabled       bool  `json:"enabled"`
	ReminderTimes []int `json:"reminderTimes"`
}
