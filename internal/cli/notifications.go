package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/parkit-app/parkit-go/internal/common"
	"github.com/parkit-app/parkit-go/internal/models"
)

// Preferences fetches and prints the reminder preferences.
func (a *App) Preferences(ctx context.Context) error {
	prefs, err := a.notifications.Preferences(ctx)
	if err != nil {
		printlnFn("error:", err.Error())
		return err
	}
	printPreferences(prefs)
	return nil
}

// EditPreferences updates the reminder preferences.
func (a *App) EditPreferences(ctx context.Context) error {
	enabled, err := getSimpleText(a.reader, "Enable reminders? (y/n)", os.Stdout)
	if err != nil {
		return err
	}

	times, err := getSimpleText(a.reader, "Reminder minutes before expiry (comma-separated, e.g. 15,5)", os.Stdout)
	if err != nil {
		return err
	}
	reminderTimes, err := parseReminderTimes(times)
	if err != nil {
		printlnFn("error:", err.Error())
		return err
	}

	prefs, err := a.notifications.UpdatePreferences(ctx, models.NotificationPreferences{
		Enabled:       strings.EqualFold(enabled, "y") || strings.EqualFold(enabled, "yes"),
		ReminderTimes: reminderTimes,
	})
	if err != nil {
		printlnFn("error:", err.Error())
		return err
	}

	printlnFn("Preferences updated")
	printPreferences(prefs)
	return nil
}

// RegisterPush registers a push token for this device.
func (a *App) RegisterPush(ctx context.Context) error {
	token, err := getSimpleText(a.reader, "Push token", os.Stdout)
	if err != nil {
		return err
	}

	platform, err := getSimpleText(a.reader, "Platform (ios/android)", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.notifications.RegisterPushToken(ctx, token, models.PushPlatform(strings.ToLower(platform))); err != nil {
		printlnFn("error:", err.Error())
		return err
	}
	printlnFn("Push token registered")
	return nil
}

// UnregisterPush removes a push token.
func (a *App) UnregisterPush(ctx context.Context) error {
	token, err := getSimpleText(a.reader, "Push token", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.notifications.UnregisterPushToken(ctx, token); err != nil {
		printlnFn("error:", err.Error())
		return err
	}
	printlnFn("Push token removed")
	return nil
}

// parseReminderTimes parses a comma-separated list of minute offsets.
// An empty input yields an empty list, which disables individual reminders.
func parseReminderTimes(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []int{}, nil
	}

	parts := strings.Split(s, ",")
	times := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: reminder offset %q", common.ErrValidation, p)
		}
		times = append(times, n)
	}
	return times, nil
}

func printPreferences(p *models.NotificationPreferences) {
	if p.Enabled {
		printlnFn("Reminders: enabled")
	} else {
		printlnFn("Reminders: disabled")
	}
	if len(p.ReminderTimes) > 0 {
		offsets := make([]string, len(p.ReminderTimes))
		for i, t := range p.ReminderTimes {
			offsets[i] = strconv.Itoa(t)
		}
		printlnFn("Minutes before expiry:", strings.Join(offsets, ", "))
	}
}
