package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// SessionState is the position of a user in the booking flow.
type SessionState string

const (
	SessionIdle           SessionState = "idle"
	SessionDateChosen     SessionState = "date_chosen"
	SessionTimeChosen     SessionState = "time_chosen"
	SessionContactEntered SessionState = "contact_entered"
)

// BookingSession holds a user's booking-in-progress between chat events.
type BookingSession struct {
	UserID            int64        `json:"userId"`
	State             SessionState `json:"state"`
	Date              string       `json:"date,omitempty"`
	Time              string       `json:"time,omitempty"`
	DisplayName       string       `json:"displayName,omitempty"`
	ContactInfo       string       `json:"contactInfo,omitempty"`
	WaitingForContact bool         `json:"waitingForContact"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// MinContactLength is the shortest contact text accepted, in characters.
const MinContactLength = 5

// ValidContact reports whether contact is long enough to be accepted.
func ValidContact(contact string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(contact)) >= MinContactLength
}
