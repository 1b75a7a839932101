package models

import (
	"fmt"

	"github.com/parkit-app/parkit-go/internal/common"
	"github.com/parkit-app/parkit-go/internal/timex"
)

// SessionStatus is the server-computed traffic-light state of a session.
// The client never derives it locally.
type SessionStatus string

const (
	StatusGreen  SessionStatus = "green"
	StatusYellow SessionStatus = "yellow"
	StatusRed    SessionStatus = "red"
)

// ParkingType classifies the regulation at the parked location.
type ParkingType string

const (
	ParkingTypeMeter          ParkingType = "meter"
	ParkingTypeStreetCleaning ParkingType = "street_cleaning"
	ParkingTypeFree           ParkingType = "free"
	ParkingTypeNoParking      ParkingType = "no_parking"
	ParkingTypeNoStanding     ParkingType = "no_standing"
)

// PaymentStatus tracks the meter payment lifecycle of a session.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPaid    PaymentStatus = "paid"
	PaymentExpired PaymentStatus = "expired"
)

// PaymentMethod identifies how a meter session was paid.
type PaymentMethod string

const (
	PaymentMethodParkmobile PaymentMethod = "parkmobile"
	PaymentMethodPayByPhone PaymentMethod = "paybyphone"
	PaymentMethodCoin       PaymentMethod = "coin"
	PaymentMethodOther      PaymentMethod = "other"
)

// Validate reports whether m is one of the accepted payment methods.
func (m PaymentMethod) Validate() error {
	switch m {
	case PaymentMethodParkmobile, PaymentMethodPayByPhone, PaymentMethodCoin, PaymentMethodOther:
		return nil
	}
	return fmt.Errorf("%w: unknown payment method %q", common.ErrValidation, string(m))
}

// DetectionMethod records how the start of a session was detected.
type DetectionMethod string

const (
	DetectionManual              DetectionMethod = "manual"
	DetectionBluetooth           DetectionMethod = "bluetooth"
	DetectionActivityRecognition DetectionMethod = "activity_recognition"
)

// Validate reports whether m is one of the accepted detection methods.
func (m DetectionMethod) Validate() error {
	switch m {
	case DetectionManual, DetectionBluetooth, DetectionActivityRecognition:
		return nil
	}
	return fmt.Errorf("%w: unknown detection method %q", common.ErrValidation, string(m))
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks the coordinate ranges before they are sent to the backend.
func (c Coordinates) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", common.ErrValidation, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", common.ErrValidation, c.Longitude)
	}
	return nil
}

// Location is the resolved parking spot of a session: coordinates plus the
// address and zone attribution the backend derived from them.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
	ZoneCode  string  `json:"zoneCode,omitempty"`
	Borough   string  `json:"borough,omitempty"`
	Block     string  `json:"block,omitempty"`
}

// ParkingRule is one regulation applicable at a session's location, as
// evaluated by the backend's rules engine.
type ParkingRule struct {
	ID          string      `json:"id"`
	Type        ParkingType `json:"type"`
	Description string      `json:"description"`
	StartTime   string      `json:"startTime,omitempty"`
	EndTime     string      `json:"endTime,omitempty"`
	Days        []int       `json:"days,omitempty"`
	Side        string      `json:"side,omitempty"`
	MaxDuration int         `json:"maxDuration,omitempty"`
	Rate        float64     `json:"rate,omitempty"`
	ZoneCode    string      `json:"zoneCode,omitempty"`
}

// ParkingSession is the server-authoritative representation of one parking
// event. Status, statusReason, and applicableRules are always computed by the
// backend; every mutation replaces the whole struct with the server's copy.
type ParkingSession struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Location        Location        `json:"location"`
	Status          SessionStatus   `json:"status"`
	StatusReason    string          `json:"statusReason"`
	ParkingType     ParkingType     `json:"parkingType"`
	ApplicableRules []ParkingRule   `json:"applicableRules"`
	StartedAt       timex.Time      `json:"startedAt"`
	EndedAt         *timex.Time     `json:"endedAt,omitempty"`
	ExpiresAt       *timex.Time     `json:"expiresAt,omitempty"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod,omitempty"`
	PaidMinutes     int             `json:"paidDurationMinutes,omitempty"`
	PaymentExpires  *timex.Time     `json:"paymentExpiresAt,omitempty"`
	DetectionMethod DetectionMethod `json:"detectionMethod"`
	CreatedAt       timex.Time      `json:"createdAt"`
	UpdatedAt       timex.Time      `json:"updatedAt"`

	// EndedLocally marks a session whose EndedAt was stamped by this client
	// while the end call's server copy is not fetched yet. Reconciled on the
	// next history fetch. Never sent on the wire.
	EndedLocally bool `json:"-"`
}

// Active reports whether the session has not ended yet.
func (s ParkingSession) Active() bool {
	return s.EndedAt == nil
}

// HistoryPage is one page of ended sessions, newest first.
type HistoryPage struct {
	Items    []ParkingSession `json:"items"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
	HasMore  bool             `json:"hasMore"`
}
