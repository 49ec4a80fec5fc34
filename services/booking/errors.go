package booking

import "fmt"

// BookingError is a classified booking failure. Two BookingErrors match under
// errors.Is when their codes are equal, so callers compare against the sentinels below.
type BookingError struct {
	Code    string
	Message string
	Err     error
}

func (e *BookingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BookingError) Unwrap() error { return e.Err }

func (e *BookingError) Is(target error) bool {
	t, ok := target.(*BookingError)
	return ok && t.Code == e.Code
}

var (
	ErrSlotTaken         = &BookingError{Code: "slot-taken", Message: "slot is already booked"}
	ErrSlotUnknown       = &BookingError{Code: "slot-unknown", Message: "slot availability could not be verified"}
	ErrInvalidContact    = &BookingError{Code: "invalid-contact", Message: "contact info is too short"}
	ErrInvalidSlot       = &BookingError{Code: "invalid-slot", Message: "slot is outside the bookable schedule"}
	ErrRemoteEventFailed = &BookingError{Code: "remote-event-creation-failed", Message: "could not create calendar event"}
	ErrPersistFailed     = &BookingError{Code: "persist-failed", Message: "could not save booking"}
	ErrNotFound          = &BookingError{Code: "not-found", Message: "booking not found"}
	ErrNotOwner          = &BookingError{Code: "not-owner", Message: "booking belongs to another user"}
)

func wrapErr(base *BookingError, err error) error {
	return &BookingError{Code: base.Code, Message: base.Message, Err: err}
}
