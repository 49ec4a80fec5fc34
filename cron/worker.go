package cron

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"consultbot/config"
	bookingsRepo "consultbot/database/repository/bookings"
	"consultbot/services/notification"
	"consultbot/services/tasks"
	"consultbot/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// InitReminderWorker runs the reminder worker in background and returns the
// server so the caller can shut it down.
func InitReminderWorker(repo bookingsRepo.BookingRepository, notifSvc notification.NotificationService, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		utils.ReminderQueueOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				tasks.QueueReminders: 1,
			},
			Logger: logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendReminder, HandleReminderTask(repo, notifSvc, logger))

	go monitorRedisConnection(logger)

	go func() {
		logger.Info("[ReminderWorker] Starting async worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				logger.Error("[ReminderWorker] Failed to start worker", zap.Int("attempt", attempts), zap.Error(err))

				if attempts == maxAttempts {
					log.Fatal("[ReminderWorker] Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
	return srv
}

// HandleReminderTask delivers one reminder. The booking is re-read first and
// anything no longer confirmed is dropped. Delivery failures are not retried.
func HandleReminderTask(repo bookingsRepo.BookingRepository, notifSvc notification.NotificationService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseReminderPayload(task)
		if err != nil {
			logger.Error("[ReminderHandler] Invalid payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		l := logger.With(zap.String("bookingId", p.BookingID), zap.String("kind", string(p.Kind)))

		b, err := repo.GetByID(ctx, p.BookingID)
		if err != nil {
			if errors.Is(err, bookingsRepo.ErrNotFound) {
				l.Warn("[ReminderHandler] Booking no longer exists")
				return nil
			}
			l.Error("[ReminderHandler] Booking lookup failed", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if !b.IsConfirmed() {
			l.Info("[ReminderHandler] Booking not confirmed, skipping reminder", zap.String("status", string(b.Status)))
			return nil
		}

		if err := notifSvc.SendReminder(ctx, *b, p.Kind); err != nil {
			l.Error("[ReminderHandler] Failed to send reminder", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		l.Info("[ReminderHandler] Reminder sent", zap.String("fireDate", p.FireDate))
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection(logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("[ReminderWorker] Redis connection lost", zap.Error(err))
		}
		time.Sleep(10 * time.Second)
	}
}
