package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrEventNotFound is returned when the remote event no longer exists.
var ErrEventNotFound = errors.New("calendar event not found")

// TransientError wraps a failed remote call (network, auth, quota, timeout).
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("calendar %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a transient calendar failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// Event is a remote calendar entry. AllDay events span whole days and their
// Start/End are midnight boundaries in the calendar location.
type Event struct {
	ID          string
	BookingID   string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Created     time.Time
}

// Overlaps reports whether the event intersects [start, end). A zero-length
// event occupies its start instant.
func (e Event) Overlaps(start, end time.Time) bool {
	if !e.End.After(e.Start) {
		return !e.Start.Before(start) && e.Start.Before(end)
	}
	return e.Start.Before(end) && e.End.After(start)
}

// Calendar is the remote calendar the bookings are mirrored into.
type Calendar interface {
	ListEvents(ctx context.Context, from, to time.Time) ([]Event, error)
	InsertEvent(ctx context.Context, ev Event) (string, error)
	// DeleteEvent returns ErrEventNotFound when the event is already gone.
	DeleteEvent(ctx context.Context, id string) error
}
