package booking

import (
	"context"
	"errors"
	"time"

	bookingsRepo "consultbot/database/repository/bookings"
	"consultbot/models"
	"consultbot/services/calendar"

	"go.uber.org/zap"
)

// ReconcileReport summarises one reconciliation pass.
type ReconcileReport struct {
	DeletedCancelled int
	DeletedOrphans   int
	MissingRemote    int
}

// Reconcile repairs drift between the calendar and the store over the booking
// horizon. Remote events that belong to cancelled bookings are deleted, as are
// events tagged with a booking id the store does not know once they are older
// than grace. Confirmed bookings whose remote event disappeared are only logged.
// Events without a booking id are left alone.
func (s *Service) Reconcile(ctx context.Context, grace time.Duration) (ReconcileReport, error) {
	var report ReconcileReport

	sched := s.resolver.Schedule()
	now := s.resolver.now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, sched.Location)
	to := from.AddDate(0, 0, sched.DaysAhead+1)

	remote, err := s.cal.ListEvents(ctx, from, to)
	if err != nil {
		return report, err
	}
	fromDate, toDate := from.Format(models.DateLayout), to.Format(models.DateLayout)
	confirmed, err := s.repo.GetConfirmedBetween(ctx, fromDate, toDate)
	if err != nil {
		return report, err
	}
	cancelled, err := s.repo.GetCancelledBetween(ctx, fromDate, toDate)
	if err != nil {
		return report, err
	}

	confirmedByID := make(map[string]models.Booking, len(confirmed))
	for _, b := range confirmed {
		confirmedByID[b.ID] = b
	}
	cancelledByID := make(map[string]bool, len(cancelled))
	for _, b := range cancelled {
		cancelledByID[b.ID] = true
	}

	seen := make(map[string]bool, len(remote))
	for _, ev := range remote {
		seen[ev.ID] = true
		if ev.BookingID == "" {
			continue
		}
		if _, ok := confirmedByID[ev.BookingID]; ok {
			continue
		}

		switch {
		case cancelledByID[ev.BookingID]:
			if s.deleteRemote(ctx, ev) {
				report.DeletedCancelled++
			}
		case now.Sub(ev.Created) >= grace:
			// The record may sit outside the queried window.
			b, err := s.repo.GetByID(ctx, ev.BookingID)
			if err == nil && b.IsConfirmed() {
				continue
			}
			if err != nil && !errors.Is(err, bookingsRepo.ErrNotFound) {
				s.logger.Warn("Skipping remote event, booking lookup failed", zap.String("eventId", ev.ID), zap.Error(err))
				continue
			}
			if s.deleteRemote(ctx, ev) {
				report.DeletedOrphans++
			}
		}
	}

	for _, b := range confirmed {
		if b.EventID == "" || seen[b.EventID] {
			continue
		}
		start, err := b.Start(sched.Location)
		if err != nil || start.Before(now) {
			continue
		}
		report.MissingRemote++
		s.logger.Warn("Confirmed booking has no calendar event",
			zap.String("bookingId", b.ID), zap.String("eventId", b.EventID),
			zap.String("date", b.Date), zap.String("time", b.Time))
	}

	s.logger.Info("Reconciliation finished",
		zap.Int("deletedCancelled", report.DeletedCancelled),
		zap.Int("deletedOrphans", report.DeletedOrphans),
		zap.Int("missingRemote", report.MissingRemote))
	return report, nil
}

func (s *Service) deleteRemote(ctx context.Context, ev calendar.Event) bool {
	err := s.cal.DeleteEvent(ctx, ev.ID)
	if err != nil && !errors.Is(err, calendar.ErrEventNotFound) {
		s.logger.Error("Failed to delete calendar event", zap.String("eventId", ev.ID), zap.String("bookingId", ev.BookingID), zap.Error(err))
		return false
	}
	s.logger.Info("Deleted stale calendar event", zap.String("eventId", ev.ID), zap.String("bookingId", ev.BookingID))
	return true
}
