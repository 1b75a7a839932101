package cli

import (
	"context"
	"fmt"
	"time"
)

// pingTimeout bounds each connectivity probe.
const pingTimeout = 3 * time.Second

// expiryWarnWindow is how far ahead of a deadline the expiry watcher starts
// warning.
const expiryWarnWindow = 10 * time.Minute

// StartOnlineStatusWatcher periodically pings the backend and flips the
// connectivity mode accordingly. It blocks until ctx is cancelled and is
// meant to run on its own goroutine.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), pingTimeout)
			err := a.auth.Ping(pingCtx)
			cancel()

			if err != nil {
				a.setMode(ModeOffline)
			} else {
				a.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}

// StartExpiryWatcher periodically inspects the active parking session and
// warns when paid time or a rule window is about to run out. Each deadline
// is announced once.
func (a *App) StartExpiryWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkExpiry(time.Now())
		case <-ctx.Done():
			return
		}
	}
}

// checkExpiry warns about the nearest deadline of the active session.
func (a *App) checkExpiry(now time.Time) {
	cur := a.parking.Current()
	if cur == nil {
		return
	}

	deadline := cur.ExpiresAt
	if cur.PaymentExpires != nil && (deadline == nil || cur.PaymentExpires.Before(deadline.Time)) {
		deadline = cur.PaymentExpires
	}
	if deadline == nil {
		return
	}

	left := deadline.Sub(now)
	if left > expiryWarnWindow {
		return
	}
	if a.warnedUntil.Equal(deadline.Time) {
		return
	}
	a.warnedUntil = deadline.Time

	if left <= 0 {
		printlnFn("WARNING: parking time expired")
		return
	}
	printlnFn(fmt.Sprintf("WARNING: parking expires in %s", left.Round(time.Second)))
}
