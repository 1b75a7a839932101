package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/parkit-app/parkit-go/internal/models"
)

// Park starts a parking session at the prompted coordinates. Status, rules
// and reminders come back from the server and are shown as returned.
func (a *App) Park(ctx context.Context) error {
	coords, err := getCoordinates(a.reader, "Where did you park? (latitude, longitude)", os.Stdout)
	if err != nil {
		printlnFn("error:", err.Error())
		return err
	}

	session, err := a.parking.CreateSession(ctx, coords, models.DetectionManual)
	if err != nil {
		printlnFn("error:", err.Error())
		return err
	}

	printlnFn("Parking session started")
	printSession(session)
	return nil
}

// Unpark ends the active parking session.
func (a *App) Unpark(ctx context.Context) error {
	if a.parking.Current() == nil {
		printlnFn("No active parking session")
		return nil
	}

	if err := a.parking.EndSession(ctx); err != nil {
		printlnFn("error:", err.Error())
		return err
	}
	printlnFn("Parking session ended")
	return nil
}

// Move corrects the coordinates of the active session, e.g. after a drag
// of the map pin. The server recomputes status and rules for the new spot.
func (a *App) Move(ctx context.Context) error {
	if a.parking.Current() == nil {
		printlnFn("No active parking session")
		return nil
	}

	coords, err := getCoordinates(a.reader, "New position (latitude, longitude)", os.Stdout)
	if err != nil {
		printlnFn("error:", err.Error())
		return err
	}

	session, err := a.parking.UpdateSessionLocation(ctx, coords)
	if err != nil {
		printlnFn("error:", err.Error())
		return err
	}
	if session == nil {
		printlnFn("No active parking session")
		return nil
	}

	printlnFn("Location updated")
	printSession(session)
	return nil
}

// Pay records a meter payment for the active session.
func (a *App) Pay(ctx context.Context) error {
	if a.parking.Current() == nil {
		printlnFn("No active parking session")
		return nil
	}

	method, err := getSimpleText(a.reader, "Payment method (parkmobile/paybyphone/coin/other)", os.Stdout)
	if err != nil {
		return err
	}

	minutes, err := getPositiveInt(a.reader, "Paid duration in minutes", os.Stdout)
	if err != nil {
		printlnFn("error:", err.Error())
		return err
	}

	session, err := a.parking.ConfirmPayment(ctx, models.PaymentMethod(strings.ToLower(method)), minutes)
	if err != nil {
		printlnFn("error:", err.Error())
		return err
	}

	printlnFn("Payment recorded")
	printSession(session)
	return nil
}

// Check previews the curbside status for arbitrary coordinates without
// starting a session.
func (a *App) Check(ctx context.Context) error {
	coords, err := getCoordinates(a.reader, "Check status at (latitude, longitude)", os.Stdout)
	if err != nil {
		printlnFn("error:", err.Error())
		return err
	}

	preview, err := a.parking.PreviewStatus(ctx, coords)
	if err != nil {
		printlnFn("error:", err.Error())
		return err
	}

	printlnFn(fmt.Sprintf("[%s] %s", strings.ToUpper(string(preview.Status)), preview.StatusReason))
	for _, rule := range preview.Rules {
		printlnFn(" -", rule.Description)
	}
	for _, rec := range preview.Recommendations {
		printlnFn("Tip:", rec)
	}
	return nil
}

// History fetches a page of past sessions and prints the accumulated list.
func (a *App) History(ctx context.Context) error {
	page, err := getPositiveInt(a.reader, "Page number", os.Stdout)
	if err != nil {
		printlnFn("error:", err.Error())
		return err
	}

	hasMore, err := a.parking.FetchHistory(ctx, page)
	if err != nil {
		printlnFn("error:", err.Error())
		return err
	}

	items := a.parking.History()
	if len(items) == 0 {
		printlnFn("No past parking sessions")
		return nil
	}
	for _, s := range items {
		printlnFn(historyLine(&s))
	}
	if hasMore {
		printlnFn("(more pages available)")
	}
	return nil
}

func historyLine(s *models.ParkingSession) string {
	where := s.Location.Address
	if where == "" {
		where = fmt.Sprintf("%.5f, %.5f", s.Location.Latitude, s.Location.Longitude)
	}

	ended := "still active"
	if s.EndedAt != nil {
		ended = s.EndedAt.Format(time.RFC822)
		if s.EndedLocally {
			ended += " (pending confirmation)"
		}
	}

	return fmt.Sprintf("%s  %s - %s  [%s]", s.ID, s.StartedAt.Format(time.RFC822), ended, where)
}

func printSession(s *models.ParkingSession) {
	printlnFn(fmt.Sprintf("[%s] %s", strings.ToUpper(string(s.Status)), s.StatusReason))

	if s.Location.Address != "" {
		printlnFn("Address:", s.Location.Address)
	} else {
		printlnFn(fmt.Sprintf("Position: %.5f, %.5f", s.Location.Latitude, s.Location.Longitude))
	}
	if s.Location.ZoneCode != "" {
		printlnFn("Zone:", s.Location.ZoneCode)
	}

	printlnFn("Parked since:", s.StartedAt.Format(time.RFC822))
	for _, rule := range s.ApplicableRules {
		printlnFn(" -", rule.Description)
	}
	if s.PaymentStatus == models.PaymentPaid && s.PaymentExpires != nil {
		printlnFn("Paid until:", s.PaymentExpires.Format(time.RFC822))
	}
	if s.ExpiresAt != nil {
		printlnFn("Expires:", s.ExpiresAt.Format(time.RFC822))
	}
}
