package cmd

import (
	"context"
	"fmt"

	"consultbot/config"
	"consultbot/database"
	bookingsRepo "consultbot/database/repository/bookings"
	"consultbot/models"
	"consultbot/services/booking"
	"consultbot/services/calendar"
	"consultbot/services/events"
	"consultbot/services/reminder"
	"consultbot/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// app holds the components shared by every command.
type app struct {
	logger    *zap.Logger
	schedule  models.Schedule
	info      models.ServiceInfo
	repo      bookingsRepo.BookingRepository
	bookings  *booking.Service
	reminders *reminder.Scheduler
	checks    map[string]utils.HealthCheck
	closers   []func()
}

func newApp(ctx context.Context) (*app, error) {
	config.LoadConfig()
	logger := utils.GetLogger()
	cfg := config.AppConfig

	schedule, err := cfg.Schedule()
	if err != nil {
		return nil, fmt.Errorf("invalid schedule config: %w", err)
	}

	a := &app{
		logger:   logger,
		schedule: schedule,
		info:     cfg.ServiceInfo(),
		checks:   map[string]utils.HealthCheck{},
	}

	shutdownTracer, err := utils.InitTracer(ctx, "consultbot")
	if err != nil {
		logger.Warn("Tracing disabled", zap.Error(err))
	} else {
		a.closers = append(a.closers, func() { _ = shutdownTracer(context.Background()) })
	}

	if err := a.openRepository(); err != nil {
		a.Close()
		return nil, err
	}
	a.repo = bookingsRepo.WithTimeout(a.repo, cfg.AdapterTimeout)

	cal, err := calendar.NewGoogleCalendar(ctx, cfg.GoogleServiceAccountFile, cfg.CalendarID, schedule.Location, cfg.AdapterTimeout, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	queueOpt := utils.ReminderQueueOpt()
	client := asynq.NewClient(queueOpt)
	inspector := asynq.NewInspector(queueOpt)
	a.closers = append(a.closers, func() { _ = client.Close() }, func() { _ = inspector.Close() })
	a.reminders = reminder.NewScheduler(client, inspector, schedule.Location, cfg.ReminderDaysBefore, cfg.ReminderHoursBefore, logger)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitURL != "" {
		p, err := events.NewRabbitPublisher(cfg.RabbitURL, cfg.BookingExchange)
		if err != nil {
			logger.Warn("Booking events disabled", zap.Error(err))
		} else {
			publisher = p
			a.closers = append(a.closers, func() { _ = p.Close() })
		}
	}

	resolver := booking.NewSlotResolver(schedule, cal, a.repo, logger)
	a.bookings = booking.NewService(resolver, a.repo, cal, a.reminders, publisher, a.info, logger)
	return a, nil
}

func (a *app) openRepository() error {
	switch driver := config.AppConfig.StoreDriver; driver {
	case "mongo":
		database.InitDB()
		db := database.Database()
		if err := bookingsRepo.EnsureIndexes(db); err != nil {
			return err
		}
		a.repo = bookingsRepo.NewMongoBookingRepo(db)
		a.checks["mongo"] = func(ctx context.Context) error { return database.MongoClient.Ping(ctx, nil) }
		a.closers = append(a.closers, func() { _ = database.MongoClient.Disconnect(context.Background()) })
	case "postgres":
		database.InitPostgres()
		if err := bookingsRepo.Migrate(database.DB); err != nil {
			return err
		}
		sqlDB, err := database.DB.DB()
		if err != nil {
			return err
		}
		a.repo = bookingsRepo.NewGormBookingRepo(database.DB)
		a.checks["postgres"] = sqlDB.PingContext
		a.closers = append(a.closers, func() { _ = sqlDB.Close() })
	case "memory":
		a.logger.Warn("Using in-memory booking store; bookings are lost on restart")
		a.repo = bookingsRepo.NewMemoryBookingRepo()
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", driver)
	}
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}
