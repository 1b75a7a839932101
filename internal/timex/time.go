package timex

import (
	"encoding/json"
	"time"
)

// isoNoZone is the zone-less layout the backend uses for its UTC datetime
// columns, e.g. "2025-08-25T18:04:05". time.Parse accepts a fractional
// second after the seconds field even when the layout has none, so
// "2025-08-25T18:04:05.123456" parses with this layout too.
const isoNoZone = "2006-01-02T15:04:05"

// Time is a time.Time that can be unmarshalled from JSON either as RFC 3339
// or as a zone-less ISO 8601 string, which is interpreted as UTC. It
// marshals through the embedded time.Time, producing RFC 3339.
type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		parsed, err = time.ParseInLocation(isoNoZone, s, time.UTC)
	}
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
