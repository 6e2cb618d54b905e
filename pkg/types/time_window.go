package types

import (
	"fmt"
	"time"
)

// TimeWindow is a proposed or agreed start/end span for a handoff.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate rejects zero bounds and windows that end on or before they start.
func (w TimeWindow) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("time window: start and end are required")
	}
	if !w.End.After(w.Start) {
		return fmt.Errorf("time window: end %s is not after start %s", w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t falls inside the window, inclusive of bounds.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Equal compares windows by instant rather than location.
func (w TimeWindow) Equal(other TimeWindow) bool {
	return w.Start.Equal(other.Start) && w.End.Equal(other.End)
}
