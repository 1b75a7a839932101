package models

import "github.com/parkit-app/parkit-go/internal/timex"

// StatusPreview is the regulation preview for arbitrary coordinates, used
// before a session exists (map browsing). Same evaluation as a session's
// status but not tied to a session record.
type StatusPreview struct {
	Status          SessionStatus `json:"status"`
	StatusReason    string        `json:"statusReason"`
	ParkingType     ParkingType   `json:"parkingType"`
	Rules           []ParkingRule `json:"rules"`
	ExpiresAt       *timex.Time   `json:"expiresAt,omitempty"`
	Recommendations []string      `json:"recommendations,omitempty"`
}
