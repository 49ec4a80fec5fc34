package models

type ReminderKind string

const (
	ReminderDay  ReminderKind = "day"
	ReminderHour ReminderKind = "hour"
)

// ReminderPayload is the body of a queued reminder task.
type ReminderPayload struct {
	BookingID string       `json:"bookingId"`
	UserID    int64        `json:"userId"` // chat to notify
	Kind      ReminderKind `json:"kind"`
	Date      string       `json:"date"`
	Time      string       `json:"time"`
	FireDate  string       `json:"fireDate"`
}
