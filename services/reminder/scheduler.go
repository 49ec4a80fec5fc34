package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"consultbot/models"
	"consultbot/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskDeleter is satisfied by *asynq.Inspector.
type TaskDeleter interface {
	DeleteTask(queue, id string) error
}

// Scheduler stages the day-before and hour-before reminders of a booking on the
// durable task queue.
type Scheduler struct {
	enqueuer    Enqueuer
	deleter     TaskDeleter
	loc         *time.Location
	daysBefore  int
	hoursBefore int
	logger      *zap.Logger

	Now func() time.Time
}

func NewScheduler(enqueuer Enqueuer, deleter TaskDeleter, loc *time.Location, daysBefore, hoursBefore int, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		enqueuer:    enqueuer,
		deleter:     deleter,
		loc:         loc,
		daysBefore:  daysBefore,
		hoursBefore: hoursBefore,
		logger:      logger,
		Now:         time.Now,
	}
}

// FireTimes returns the instant of each reminder kind for an appointment.
func (s *Scheduler) FireTimes(appointment time.Time) map[models.ReminderKind]time.Time {
	return map[models.ReminderKind]time.Time{
		models.ReminderDay:  appointment.AddDate(0, 0, -s.daysBefore),
		models.ReminderHour: appointment.Add(-time.Duration(s.hoursBefore) * time.Hour),
	}
}

// Schedule enqueues both reminders. Reminders whose instant has passed are
// skipped, and a reminder that is already queued counts as scheduled.
func (s *Scheduler) Schedule(ctx context.Context, b models.Booking) error {
	appointment, err := b.Start(s.loc)
	if err != nil {
		return err
	}
	now := s.Now()

	var errs []error
	for _, kind := range []models.ReminderKind{models.ReminderDay, models.ReminderHour} {
		at := s.FireTimes(appointment)[kind]
		logger := s.logger.With(zap.String("bookingId", b.ID), zap.String("kind", string(kind)), zap.Time("fireAt", at))
		if !at.After(now) {
			logger.Debug("Reminder time already passed, skipping")
			continue
		}

		task, opts, err := tasks.NewReminderTask(models.ReminderPayload{
			BookingID: b.ID,
			UserID:    b.UserID,
			Kind:      kind,
			Date:      b.Date,
			Time:      b.Time,
			FireDate:  at.Format(time.RFC3339),
		}, at)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if _, err := s.enqueuer.EnqueueContext(ctx, task, opts...); err != nil {
			if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
				logger.Debug("Reminder already scheduled")
				continue
			}
			errs = append(errs, fmt.Errorf("enqueue %s reminder: %w", kind, err))
			continue
		}
		logger.Info("Reminder scheduled")
	}
	return errors.Join(errs...)
}

// Cancel removes both pending reminders of a booking. Missing tasks are ignored.
func (s *Scheduler) Cancel(ctx context.Context, bookingID string) error {
	var errs []error
	for _, kind := range []models.ReminderKind{models.ReminderDay, models.ReminderHour} {
		id := tasks.ReminderTaskID(kind, bookingID)
		err := s.deleter.DeleteTask(tasks.QueueReminders, id)
		if err == nil {
			s.logger.Info("Reminder cancelled", zap.String("taskId", id))
			continue
		}
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			continue
		}
		errs = append(errs, fmt.Errorf("delete task %s: %w", id, err))
	}
	return errors.Join(errs...)
}

// Rehydrate schedules reminders for every given booking and returns how many
// bookings were processed without error.
func (s *Scheduler) Rehydrate(ctx context.Context, bookings []models.Booking) int {
	ok := 0
	for _, b := range bookings {
		if !b.IsConfirmed() {
			continue
		}
		if err := s.Schedule(ctx, b); err != nil {
			s.logger.Error("Failed to rehydrate reminders", zap.String("bookingId", b.ID), zap.Error(err))
			continue
		}
		ok++
	}
	s.logger.Info("Reminder rehydration finished", zap.Int("bookings", len(bookings)), zap.Int("scheduled", ok))
	return ok
}
