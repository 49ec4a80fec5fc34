package models

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Booking represents a confirmed or cancelled consultation.
type Booking struct {
	ID          string        `bson:"id" json:"id" gorm:"primaryKey;size:36"`
	UserID      int64         `bson:"user_id" json:"user_id" gorm:"not null;index:idx_user_id"`
	Username    string        `bson:"username" json:"username"`
	Date        string        `bson:"date" json:"date" gorm:"size:10;not null;index:idx_date_time,priority:1"` // "YYYY-MM-DD"
	Time        string        `bson:"time" json:"time" gorm:"size:5;not null;index:idx_date_time,priority:2"`  // "HH:MM"
	ContactInfo string        `bson:"contact_info" json:"contact_info" gorm:"not null"`
	EventID     string        `bson:"event_id,omitempty" json:"event_id,omitempty"` // remote calendar event
	Status      BookingStatus `bson:"status" json:"status" gorm:"size:16;default:confirmed;index:idx_status"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
}

func (Booking) TableName() string { return "bookings" }

// Start returns the appointment instant in loc.
func (b Booking) Start(loc *time.Location) (time.Time, error) {
	return SlotStart(b.Date, b.Time, loc)
}

func (b Booking) IsConfirmed() bool { return b.Status == BookingStatusConfirmed }

// SlotStart parses a (date, time) pair as a wall-clock instant in loc.
func SlotStart(date, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid slot %q %q: %w", date, clock, err)
	}
	return t, nil
}
