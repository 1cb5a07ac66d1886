package internal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewWordID creates a unique identifier for a word entry
func NewWordID() string {
	return uuid.NewString()
}

// DateString formats a calendar date the way words are stamped on creation.
// Month and day are not zero padded, e.g. "2024-3-7".
func DateString(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d", t.Year(), int(t.Month()), t.Day())
}

// Today returns the date string for the current local day
func Today() string {
	return DateString(time.Now())
}
