package models

import "github.com/parkit-app/parkit-go/internal/timex"

// SavedLocation is a user-named favorite parking spot.
type SavedLocation struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Name      string     `json:"name"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Address   string     `json:"address,omitempty"`
	CreatedAt timex.Time `json:"createdAt"`
}
