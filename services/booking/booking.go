package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	bookingsRepo "consultbot/database/repository/bookings"
	"consultbot/models"
	"consultbot/services/calendar"
	"consultbot/services/events"
	"consultbot/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ReminderScheduler stages and cancels the reminders of a booking.
type ReminderScheduler interface {
	Schedule(ctx context.Context, b models.Booking) error
	Cancel(ctx context.Context, bookingID string) error
}

// BookingRequest carries everything needed to commit a booking.
type BookingRequest struct {
	UserID      int64
	DisplayName string
	Date        string
	Time        string
	ContactInfo string
}

// Service coordinates booking commits across the calendar, the store and the reminder queue.
type Service struct {
	resolver  *SlotResolver
	repo      bookingsRepo.BookingRepository
	cal       calendar.Calendar
	reminders ReminderScheduler
	publisher events.Publisher
	info      models.ServiceInfo
	logger    *zap.Logger
	locks     *utils.KeyedMutex
	tracer    trace.Tracer
}

func NewService(
	resolver *SlotResolver,
	repo bookingsRepo.BookingRepository,
	cal calendar.Calendar,
	reminders ReminderScheduler,
	publisher events.Publisher,
	info models.ServiceInfo,
	logger *zap.Logger,
) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		resolver:  resolver,
		repo:      repo,
		cal:       cal,
		reminders: reminders,
		publisher: publisher,
		info:      info,
		logger:    logger,
		locks:     utils.NewKeyedMutex(),
		tracer:    otel.Tracer("consultbot/booking"),
	}
}

func (s *Service) Resolver() *SlotResolver { return s.resolver }

// CreateBooking commits a booking. The slot is re-checked under a per-slot lock,
// the remote event is created first and deleted again if the record cannot be saved.
func (s *Service) CreateBooking(ctx context.Context, req BookingRequest) (*models.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "booking.create", trace.WithAttributes(
		attribute.Int64("user.id", req.UserID),
		attribute.String("slot.date", req.Date),
		attribute.String("slot.time", req.Time),
	))
	defer span.End()

	b, err := s.createBooking(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("booking.id", b.ID))
	return b, nil
}

func (s *Service) createBooking(ctx context.Context, req BookingRequest) (*models.Booking, error) {
	logger := s.logger.With(zap.Int64("userId", req.UserID), zap.String("date", req.Date), zap.String("time", req.Time))

	if !models.ValidContact(req.ContactInfo) {
		return nil, ErrInvalidContact
	}
	start, err := s.resolver.ValidateSlot(req.Date, req.Time)
	if err != nil {
		return nil, wrapErr(ErrInvalidSlot, err)
	}

	unlock := s.locks.Lock(req.Date + " " + req.Time)
	defer unlock()

	switch s.resolver.SlotStatus(ctx, req.Date, req.Time) {
	case SlotTaken:
		logger.Info("Slot no longer free")
		return nil, ErrSlotTaken
	case SlotUnknown:
		return nil, ErrSlotUnknown
	}

	booking := &models.Booking{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		Username:    req.DisplayName,
		Date:        req.Date,
		Time:        req.Time,
		ContactInfo: strings.TrimSpace(req.ContactInfo),
		Status:      models.BookingStatusConfirmed,
	}

	eventID, err := s.cal.InsertEvent(ctx, calendar.Event{
		BookingID:   booking.ID,
		Summary:     fmt.Sprintf("%s: %s", s.info.Name, req.DisplayName),
		Description: s.eventDescription(booking),
		Start:       start,
		End:         start.Add(s.resolver.Schedule().SlotDuration),
	})
	if err != nil {
		logger.Error("Calendar event creation failed", zap.Error(err))
		return nil, wrapErr(ErrRemoteEventFailed, err)
	}
	booking.EventID = eventID

	if _, err := s.repo.Create(ctx, booking); err != nil {
		s.compensate(ctx, eventID, logger)
		if errors.Is(err, bookingsRepo.ErrSlotTaken) {
			logger.Warn("Lost race for slot")
			return nil, ErrSlotTaken
		}
		logger.Error("Failed to persist booking", zap.Error(err))
		return nil, wrapErr(ErrPersistFailed, err)
	}
	logger.Info("Booking confirmed", zap.String("bookingId", booking.ID), zap.String("eventId", eventID))

	if err := s.reminders.Schedule(ctx, *booking); err != nil {
		logger.Error("Failed to schedule reminders", zap.String("bookingId", booking.ID), zap.Error(err))
	}
	s.publish(ctx, events.BookingCreated, booking)
	return booking, nil
}

// compensate removes a remote event whose local record could not be written.
func (s *Service) compensate(ctx context.Context, eventID string, logger *zap.Logger) {
	ctx = context.WithoutCancel(ctx)
	if err := s.cal.DeleteEvent(ctx, eventID); err != nil && !errors.Is(err, calendar.ErrEventNotFound) {
		logger.Error("Failed to delete orphaned calendar event", zap.String("eventId", eventID), zap.Error(err))
		return
	}
	logger.Info("Deleted orphaned calendar event", zap.String("eventId", eventID))
}

func (s *Service) eventDescription(b *models.Booking) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Client: %s\n", b.Username)
	fmt.Fprintf(&sb, "Contact: %s\n", b.ContactInfo)
	if s.info.Price != "" {
		fmt.Fprintf(&sb, "Price: %s\n", s.info.Price)
	}
	if s.info.AdminContact != "" {
		fmt.Fprintf(&sb, "Admin: %s\n", s.info.AdminContact)
	}
	if s.info.Phone != "" {
		fmt.Fprintf(&sb, "Phone: %s\n", s.info.Phone)
	}
	fmt.Fprintf(&sb, "Booking ID: %s", b.ID)
	return sb.String()
}

// CancelBooking cancels a booking owned by userID, removes its remote event and
// drops its pending reminders. A userID of 0 skips the ownership check.
// Cancelling an already cancelled booking is a no-op.
func (s *Service) CancelBooking(ctx context.Context, bookingID string, userID int64) error {
	ctx, span := s.tracer.Start(ctx, "booking.cancel", trace.WithAttributes(attribute.String("booking.id", bookingID)))
	defer span.End()

	logger := s.logger.With(zap.String("bookingId", bookingID))

	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingsRepo.ErrNotFound) {
			return ErrNotFound
		}
		span.RecordError(err)
		return fmt.Errorf("load booking %s: %w", bookingID, err)
	}
	if userID != 0 && b.UserID != userID {
		return ErrNotOwner
	}
	if !b.IsConfirmed() {
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, bookingID, models.BookingStatusCancelled, ""); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("cancel booking %s: %w", bookingID, err)
	}
	logger.Info("Booking cancelled")

	if b.EventID != "" {
		if err := s.cal.DeleteEvent(ctx, b.EventID); err != nil && !errors.Is(err, calendar.ErrEventNotFound) {
			// Reconciliation removes it later.
			logger.Error("Failed to delete calendar event", zap.String("eventId", b.EventID), zap.Error(err))
		}
	}
	if err := s.reminders.Cancel(ctx, bookingID); err != nil {
		logger.Error("Failed to cancel reminders", zap.Error(err))
	}

	b.Status = models.BookingStatusCancelled
	s.publish(ctx, events.BookingCancelled, b)
	return nil
}

// ListUserBookings returns all of a user's bookings, newest first. Store
// failures are logged and yield an empty list.
func (s *Service) ListUserBookings(ctx context.Context, userID int64) []models.Booking {
	list, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load user bookings", zap.Int64("userId", userID), zap.Error(err))
		return nil
	}
	return list
}

// UpcomingBookings returns the user's confirmed bookings that have not started yet, newest first.
func (s *Service) UpcomingBookings(ctx context.Context, userID int64) []models.Booking {
	now := s.resolver.now()
	loc := s.resolver.Schedule().Location

	var out []models.Booking
	for _, b := range s.ListUserBookings(ctx, userID) {
		if !b.IsConfirmed() {
			continue
		}
		start, err := b.Start(loc)
		if err != nil || start.Before(now) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// ConfirmedBookings returns every active booking. Store failures yield an empty list.
func (s *Service) ConfirmedBookings(ctx context.Context) []models.Booking {
	list, err := s.repo.GetConfirmed(ctx)
	if err != nil {
		s.logger.Error("Failed to load confirmed bookings", zap.Error(err))
		return nil
	}
	return list
}

// GetBooking returns a single booking.
func (s *Service) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, bookingsRepo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *Service) publish(ctx context.Context, key string, b *models.Booking) {
	payload := map[string]any{
		"booking_id": b.ID,
		"user_id":    b.UserID,
		"date":       b.Date,
		"time":       b.Time,
		"status":     b.Status,
		"event_id":   b.EventID,
		"at":         time.Now().Unix(),
	}
	if err := s.publisher.PublishJSON(ctx, key, payload); err != nil {
		s.logger.Warn("Failed to publish booking event", zap.String("key", key), zap.String("bookingId", b.ID), zap.Error(err))
	}
}
