package bookingsRepo

import (
	"context"
	"errors"

	"consultbot/models"
)

var (
	// ErrSlotTaken is returned when a confirmed booking already occupies the (date, time) pair.
	ErrSlotTaken = errors.New("slot already has a confirmed booking")
	ErrNotFound  = errors.New("booking not found")
)

// BookingRepository persists booking records. At most one confirmed booking may
// exist per (date, time); implementations enforce it and report ErrSlotTaken.
type BookingRepository interface {
	// Create stores a booking and returns its id. An empty ID is assigned by the store.
	Create(ctx context.Context, booking *models.Booking) (string, error)
	// UpdateStatus changes the status; eventID is only written when non-empty.
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus, eventID string) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// GetByUser returns the user's bookings ordered by date and time, newest first.
	GetByUser(ctx context.Context, userID int64) ([]models.Booking, error)
	// GetConfirmed returns every active booking.
	GetConfirmed(ctx context.Context) ([]models.Booking, error)
	// GetConfirmedBetween returns confirmed bookings with fromDate <= date <= toDate.
	GetConfirmedBetween(ctx context.Context, fromDate, toDate string) ([]models.Booking, error)
	// GetCancelledBetween returns cancelled bookings with fromDate <= date <= toDate.
	GetCancelledBetween(ctx context.Context, fromDate, toDate string) ([]models.Booking, error)
	IsBooked(ctx context.Context, date, clock string) (bool, error)
}
