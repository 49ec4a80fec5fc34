package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"consultbot/config"
	"consultbot/cron"
	"consultbot/handlers"
	"consultbot/middleware"
	"consultbot/routes"
	"consultbot/services/notification"
	"consultbot/services/session"
	"consultbot/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func newServeCmd() *cobra.Command {
	var skipRehydrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot, the reminder worker and the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			return serve(ctx, a, skipRehydrate)
		},
	}
	cmd.Flags().BoolVar(&skipRehydrate, "skip-rehydrate", false, "do not re-enqueue reminders of confirmed bookings at startup")
	return cmd
}

func serve(ctx context.Context, a *app, skipRehydrate bool) error {
	cfg := config.AppConfig
	logger := a.logger

	var store session.Store
	if cfg.StoreDriver == "memory" {
		mem := session.NewMemoryStore(cfg.SessionTTL)
		mem.StartSweeper(ctx, time.Minute)
		store = mem
	} else {
		client := utils.GetSessionCacheClient()
		store = session.NewRedisStore(client, cfg.SessionTTL)
		a.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	store = session.WithTimeout(store, cfg.AdapterTimeout)

	messenger, err := handlers.NewTelegramMessenger(cfg.TelegramToken)
	if err != nil {
		return err
	}
	notifier, err := notification.NewDefaultNotificationService(messenger, a.info)
	if err != nil {
		return err
	}

	worker := cron.InitReminderWorker(a.repo, notifier, logger)
	defer worker.Shutdown()

	if !skipRehydrate {
		a.reminders.Rehydrate(ctx, a.bookings.ConfirmedBookings(ctx))
	}

	reconciler, err := cron.StartReconciler(a.bookings, cfg.ReconcileSpec, utils.OrphanGracePeriod, 2*time.Minute, a.schedule.Location, logger)
	if err != nil {
		return fmt.Errorf("invalid RECONCILE_SPEC: %w", err)
	}
	defer reconciler.Stop()

	utils.StartHealthMonitor(ctx, a.checks, 30*time.Second)

	bot := handlers.NewBot(messenger, a.bookings, session.NewManager(store),
		middleware.NewKeyedLimiter(rate.Every(time.Second), 5), a.info, logger)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	webhook := cfg.TelegramMode == "webhook"
	var webhookBot *handlers.Bot
	if webhook {
		webhookBot = bot
	}
	routes.RegisterRoutes(router, webhookBot, middleware.NewKeyedLimiter(rate.Every(time.Minute/200), 200))

	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.AppPort,
		Handler: router,
	}
	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar().Fatalf("serve: server failed to start: %v", err)
		}
	}()

	if webhook {
		if err := messenger.SetWebhook(cfg.TelegramWebhookURL + routes.WebhookPath); err != nil {
			return fmt.Errorf("set webhook: %w", err)
		}
		logger.Info("Telegram webhook registered", zap.String("url", cfg.TelegramWebhookURL+routes.WebhookPath))
	} else {
		if err := messenger.DeleteWebhook(); err != nil {
			logger.Warn("Failed to delete webhook", zap.Error(err))
		}
		go handlers.RunPolling(ctx, messenger, bot, logger)
	}

	<-ctx.Done()
	logger.Sugar().Info("serve: shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("serve: server forced to shutdown", zap.Error(err))
	}
	logger.Sugar().Info("serve: stopped gracefully")
	return nil
}
