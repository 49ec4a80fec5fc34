package booking

import (
	"context"
	"fmt"
	"time"

	bookingsRepo "consultbot/database/repository/bookings"
	"consultbot/models"
	"consultbot/services/calendar"

	"go.uber.org/zap"
)

// SlotStatus is the outcome of a single-slot availability check.
type SlotStatus int

const (
	SlotFree SlotStatus = iota
	SlotTaken
	// SlotUnknown means an adapter failed; callers treat it as taken.
	SlotUnknown
)

func (s SlotStatus) String() string {
	switch s {
	case SlotFree:
		return "free"
	case SlotTaken:
		return "taken"
	default:
		return "unknown"
	}
}

// SlotResolver merges working hours, remote busy intervals and local bookings
// into bookable slots.
type SlotResolver struct {
	schedule models.Schedule
	cal      calendar.Calendar
	repo     bookingsRepo.BookingRepository
	logger   *zap.Logger

	// Now is the clock; replaced in tests.
	Now func() time.Time
}

func NewSlotResolver(schedule models.Schedule, cal calendar.Calendar, repo bookingsRepo.BookingRepository, logger *zap.Logger) *SlotResolver {
	return &SlotResolver{
		schedule: schedule,
		cal:      cal,
		repo:     repo,
		logger:   logger,
		Now:      time.Now,
	}
}

func (r *SlotResolver) Schedule() models.Schedule { return r.schedule }

func (r *SlotResolver) now() time.Time { return r.Now().In(r.schedule.Location) }

// AvailableSlots returns the bookable slots over the horizon ordered by date
// then time. An adapter failure yields an empty list and the error.
func (r *SlotResolver) AvailableSlots(ctx context.Context) ([]models.TimeSlot, error) {
	now := r.now()
	horizonEnd := now.AddDate(0, 0, r.schedule.DaysAhead+1)

	events, err := r.cal.ListEvents(ctx, now, horizonEnd)
	if err != nil {
		r.logger.Error("Failed to load calendar events", zap.Error(err))
		return nil, err
	}

	booked, err := r.repo.GetConfirmedBetween(ctx, now.Format(models.DateLayout), horizonEnd.Format(models.DateLayout))
	if err != nil {
		r.logger.Error("Failed to load confirmed bookings", zap.Error(err))
		return nil, err
	}
	taken := make(map[string]bool, len(booked))
	for _, b := range booked {
		taken[b.Date+" "+b.Time] = true
	}

	var slots []models.TimeSlot
	for _, start := range r.candidates(now) {
		if !start.After(now) {
			continue
		}
		date, clock := start.Format(models.DateLayout), start.Format(models.TimeLayout)
		if taken[date+" "+clock] || busy(events, start, start.Add(r.schedule.SlotDuration)) {
			continue
		}
		// The cap only ends the list at a date boundary so no date is offered partially.
		if r.schedule.MaxSlots > 0 && len(slots) >= r.schedule.MaxSlots && slots[len(slots)-1].Date != date {
			break
		}
		slots = append(slots, models.TimeSlot{Date: date, Time: clock, Start: start, Available: true})
	}
	return slots, nil
}

// candidates generates hourly slot starts for every working day in the horizon.
func (r *SlotResolver) candidates(now time.Time) []time.Time {
	var out []time.Time
	for offset := 1; offset <= r.schedule.DaysAhead; offset++ {
		day := time.Date(now.Year(), now.Month(), now.Day()+offset, 0, 0, 0, 0, r.schedule.Location)
		if !r.schedule.IsWorkingDay(day.Weekday()) {
			continue
		}
		for hour := r.schedule.StartHour; hour < r.schedule.EndHour; hour++ {
			out = append(out, time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, r.schedule.Location))
		}
	}
	return out
}

func busy(events []calendar.Event, start, end time.Time) bool {
	for _, ev := range events {
		if ev.Overlaps(start, end) {
			return true
		}
	}
	return false
}

// ValidateSlot checks that (date, clock) is a slot the schedule would offer.
func (r *SlotResolver) ValidateSlot(date, clock string) (time.Time, error) {
	start, err := models.SlotStart(date, clock, r.schedule.Location)
	if err != nil {
		return time.Time{}, err
	}
	if start.Minute() != 0 || start.Hour() < r.schedule.StartHour || start.Hour() >= r.schedule.EndHour {
		return time.Time{}, fmt.Errorf("%s is outside working hours", clock)
	}
	if !r.schedule.IsWorkingDay(start.Weekday()) {
		return time.Time{}, fmt.Errorf("%s is not a working day", date)
	}
	now := r.now()
	if !start.After(now) {
		return time.Time{}, fmt.Errorf("%s %s is in the past", date, clock)
	}
	lastDay := time.Date(now.Year(), now.Month(), now.Day()+r.schedule.DaysAhead+1, 0, 0, 0, 0, r.schedule.Location)
	if !start.Before(lastDay) {
		return time.Time{}, fmt.Errorf("%s is beyond the booking horizon", date)
	}
	return start, nil
}

// SlotStatus reports whether (date, clock) is free, taken, or could not be checked.
func (r *SlotResolver) SlotStatus(ctx context.Context, date, clock string) SlotStatus {
	start, err := models.SlotStart(date, clock, r.schedule.Location)
	if err != nil {
		return SlotUnknown
	}

	booked, err := r.repo.IsBooked(ctx, date, clock)
	if err != nil {
		r.logger.Error("Booking lookup failed", zap.String("date", date), zap.String("time", clock), zap.Error(err))
		return SlotUnknown
	}
	if booked {
		return SlotTaken
	}

	end := start.Add(r.schedule.SlotDuration)
	// The remote lower bound applies to event ends exclusively, so widen it to
	// include zero-length events sitting on the slot start.
	events, err := r.cal.ListEvents(ctx, start.Add(-time.Second), end)
	if err != nil {
		r.logger.Error("Calendar lookup failed", zap.String("date", date), zap.String("time", clock), zap.Error(err))
		return SlotUnknown
	}
	if busy(events, start, end) {
		return SlotTaken
	}
	return SlotFree
}

// IsSlotTaken is the fail-closed boolean form of SlotStatus.
func (r *SlotResolver) IsSlotTaken(ctx context.Context, date, clock string) bool {
	return r.SlotStatus(ctx, date, clock) != SlotFree
}
