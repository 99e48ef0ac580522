package orders

import (
	"fmt"
	"strings"
	"time"
)

// Layouts seen in order feeds. Zone-less ones are read in the caller's location.
var expiryLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04",
}

func hasExpiry(raw string) bool {
	return strings.TrimSpace(raw) != ""
}

// ParseExpiry turns a raw expire time into an instant. A nil loc means time.Local.
func ParseExpiry(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrNoExpiry
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range expiryLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedExpiry, raw)
}
