package generate

import (
	"fmt"
	"time"
)

// Window is an uninterrupted period of time, start inclusive, end exclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// WindowFor returns the window of durationHours starting at start truncated
// to the hour.
func WindowFor(start time.Time, durationHours int) Window {
	start = start.UTC().Truncate(time.Hour)
	return Window{
		Start: start,
		End:   start.Add(time.Duration(durationHours) * time.Hour),
	}
}

// DefaultStart is midnight UTC of the day before now, so that a one day
// scenario ends before now.
func DefaultStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

// Within returns true if t falls inside the window.
func (w Window) Within(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Hours is the number of whole hours in the window.
func (w Window) Hours() int {
	return int(w.End.Sub(w.Start) / time.Hour)
}

func (w Window) String() string {
	return fmt.Sprintf("%s/%s", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}
