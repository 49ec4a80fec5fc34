package bookingsRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"consultbot/models"
)

// timeoutRepo bounds every call of the wrapped repository by a deadline so a
// hung store cannot hold the caller's locks indefinitely.
type timeoutRepo struct {
	next    BookingRepository
	timeout time.Duration
}

// WithTimeout wraps repo so each call runs under its own deadline. Expiry
// surfaces as an error wrapping context.DeadlineExceeded. A non-positive
// timeout returns repo unchanged.
func WithTimeout(repo BookingRepository, timeout time.Duration) BookingRepository {
	if timeout <= 0 {
		return repo
	}
	return &timeoutRepo{next: repo, timeout: timeout}
}

func (r *timeoutRepo) wrap(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("bookings %s: timed out after %s: %w", op, r.timeout, err)
	}
	return err
}

func (r *timeoutRepo) Create(ctx context.Context, booking *models.Booking) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	id, err := r.next.Create(ctx, booking)
	return id, r.wrap("create", err)
}

func (r *timeoutRepo) UpdateStatus(ctx context.Context, id string, status models.BookingStatus, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.wrap("update status", r.next.UpdateStatus(ctx, id, status, eventID))
}

func (r *timeoutRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	b, err := r.next.GetByID(ctx, id)
	return b, r.wrap("get by id", err)
}

func (r *timeoutRepo) GetByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	list, err := r.next.GetByUser(ctx, userID)
	return list, r.wrap("get by user", err)
}

func (r *timeoutRepo) GetConfirmed(ctx context.Context) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	list, err := r.next.GetConfirmed(ctx)
	return list, r.wrap("get confirmed", err)
}

func (r *timeoutRepo) GetConfirmedBetween(ctx context.Context, fromDate, toDate string) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	list, err := r.next.GetConfirmedBetween(ctx, fromDate, toDate)
	return list, r.wrap("get confirmed between", err)
}

func (r *timeoutRepo) GetCancelledBetween(ctx context.Context, fromDate, toDate string) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	list, err := r.next.GetCancelledBetween(ctx, fromDate, toDate)
	return list, r.wrap("get cancelled between", err)
}

func (r *timeoutRepo) IsBooked(ctx context.Context, date, clock string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	booked, err := r.next.IsBooked(ctx, date, clock)
	return booked, r.wrap("is booked", err)
}
