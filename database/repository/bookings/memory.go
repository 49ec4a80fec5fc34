package bookingsRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"consultbot/models"

	"github.com/google/uuid"
)

// MemoryBookingRepo keeps bookings in process memory. It is used for local
// runs (STORE_DRIVER=memory) and in tests.
type MemoryBookingRepo struct {
	mu       sync.RWMutex
	bookings map[string]models.Booking
}

func NewMemoryBookingRepo() *MemoryBookingRepo {
	return &MemoryBookingRepo{bookings: make(map[string]models.Booking)}
}

func (r *MemoryBookingRepo) Create(_ context.Context, booking *models.Booking) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if booking.Status == "" {
		booking.Status = models.BookingStatusConfirmed
	}
	if booking.IsConfirmed() && r.slotTakenLocked(booking.Date, booking.Time, "") {
		return "", ErrSlotTaken
	}
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	booking.CreatedAt = time.Now()
	r.bookings[booking.ID] = *booking
	return booking.ID, nil
}

func (r *MemoryBookingRepo) UpdateStatus(_ context.Context, id string, status models.BookingStatus, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return ErrNotFound
	}
	if status == models.BookingStatusConfirmed && !b.IsConfirmed() && r.slotTakenLocked(b.Date, b.Time, id) {
		return ErrSlotTaken
	}
	b.Status = status
	if eventID != "" {
		b.EventID = eventID
	}
	r.bookings[id] = b
	return nil
}

func (r *MemoryBookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (r *MemoryBookingRepo) GetByUser(_ context.Context, userID int64) ([]models.Booking, error) {
	out := r.filter(func(b models.Booking) bool { return b.UserID == userID })
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].Time > out[j].Time
	})
	return out, nil
}

func (r *MemoryBookingRepo) GetConfirmed(_ context.Context) ([]models.Booking, error) {
	return r.sorted(r.filter(func(b models.Booking) bool { return b.IsConfirmed() })), nil
}

func (r *MemoryBookingRepo) GetConfirmedBetween(_ context.Context, fromDate, toDate string) ([]models.Booking, error) {
	return r.sorted(r.filter(func(b models.Booking) bool {
		return b.IsConfirmed() && b.Date >= fromDate && b.Date <= toDate
	})), nil
}

func (r *MemoryBookingRepo) GetCancelledBetween(_ context.Context, fromDate, toDate string) ([]models.Booking, error) {
	return r.sorted(r.filter(func(b models.Booking) bool {
		return b.Status == models.BookingStatusCancelled && b.Date >= fromDate && b.Date <= toDate
	})), nil
}

func (r *MemoryBookingRepo) IsBooked(_ context.Context, date, clock string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slotTakenLocked(date, clock, ""), nil
}

func (r *MemoryBookingRepo) slotTakenLocked(date, clock, exceptID string) bool {
	for id, b := range r.bookings {
		if id != exceptID && b.IsConfirmed() && b.Date == date && b.Time == clock {
			return true
		}
	}
	return false
}

func (r *MemoryBookingRepo) filter(keep func(models.Booking) bool) []models.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Booking
	for _, b := range r.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

func (r *MemoryBookingRepo) sorted(in []models.Booking) []models.Booking {
	sort.Slice(in, func(i, j int) bool {
		if in[i].Date != in[j].Date {
			return in[i].Date < in[j].Date
		}
		return in[i].Time < in[j].Time
	})
	return in
}
