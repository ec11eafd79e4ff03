package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/user/remind-me/personal/internal/config"
	"github.com/user/remind-me/personal/internal/database"
	"github.com/user/remind-me/personal/internal/handler"
	"github.com/user/remind-me/personal/internal/jobs"
	"github.com/user/remind-me/personal/internal/logging"
	"github.com/user/remind-me/personal/internal/middleware"
	"github.com/user/remind-me/personal/internal/notification"
	"github.com/user/remind-me/personal/internal/notification/apns"
	"github.com/user/remind-me/personal/internal/notification/fcm"
	"github.com/user/remind-me/personal/internal/notification/slack"
	"github.com/user/remind-me/personal/internal/notification/sms"
	"github.com/user/remind-me/personal/internal/pubsub"
	"github.com/user/remind-me/personal/internal/repository"
	"github.com/user/remind-me/personal/internal/service"
	"go.uber.org/zap"
)

func main() {
	// Load .env file if it exists (for local development)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}
	loc, _ := cfg.Location()
	now := func() time.Time { return time.Now().In(loc) }

	// Storage. The CLI writes through this server while it holds the lock.
	writerLock, err := database.AcquireWriterLock(cfg)
	if err != nil {
		logger.Fatal("Failed to lock storage", zap.Error(err))
	}
	defer func() { _ = writerLock.Release() }()

	blobs, closeStorage, err := database.OpenBlobStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer func() {
		if err := closeStorage(); err != nil {
			logger.Warn("Failed to close storage", zap.Error(err))
		}
	}()

	ctx := context.Background()

	store := service.NewReminderStore(repository.NewReminderRepository(blobs), logger, service.WithClock(now))
	store.Load(ctx)

	prefs := notification.NewPreferences(repository.NewSettingsRepository(blobs), logger)
	_ = prefs.Load(ctx)

	// Initialize pub/sub hub for websocket clients
	hub := pubsub.NewHub()

	var slackClient *slack.Client
	if cfg.SlackWebhookURL != "" {
		slackClient = slack.NewClient(cfg.SlackWebhookURL)
		logger.Info("Slack notification client initialized")
	}

	var apnsClient *apns.Client
	if cfg.APNsEnabled() {
		apnsClient, err = apns.NewClient(apns.Config{
			KeyID:        cfg.APNsKeyID,
			TeamID:       cfg.APNsTeamID,
			PrivateKey:   cfg.APNsPrivateKey,
			BundleID:     cfg.APNsBundleID,
			IsProduction: cfg.IsProduction(),
		})
		if err != nil {
			logger.Warn("APNs client not initialized", zap.Error(err))
			apnsClient = nil
		}
	}

	var fcmClient *fcm.Client
	if cfg.FCMEnabled() {
		fcmClient, err = fcm.NewClient(fcm.Config{
			ProjectID:       cfg.FCMProjectID,
			CredentialsJSON: cfg.FCMPrivateKey,
		})
		if err != nil {
			logger.Warn("FCM client not initialized", zap.Error(err))
			fcmClient = nil
		}
	}

	var smsClient *sms.Client
	if cfg.SMSEnabled() {
		smsClient = sms.NewClient(sms.Config{
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			From:       cfg.TwilioFromNumber,
		})
	}

	dispatcher := notification.NewDispatcher(logger,
		notification.NewDesktopChannel(hub),
		notification.NewSlackChannel(slackClient),
		notification.NewAPNsChannel(apnsClient, cfg.APNsDeviceToken),
		notification.NewFCMChannel(fcmClient, cfg.FCMDeviceToken),
		notification.NewSMSChannel(smsClient, cfg.AlertSMSTo),
	)
	logger.Info("Notification dispatcher initialized", zap.Strings("channels", dispatcher.ChannelNames()))

	clock := notification.SystemClock()
	board := notification.NewBoard(clock, hub, logger)
	permissions := notification.NewPermissions(prefs, dispatcher, logger)
	scheduler := notification.NewScheduler(notification.SchedulerDeps{
		Clock:       clock,
		Dispatcher:  dispatcher,
		Permissions: permissions,
		Preferences: prefs,
		Board:       board,
		Publisher:   hub,
	}, logger)

	store.Subscribe(scheduler.OnReminderChanged)
	store.Subscribe(handler.BroadcastChanges(hub))

	armed := scheduler.ArmUpcoming(store.Snapshot())
	logger.Info("Alerts armed for upcoming reminders", zap.Int("armed", armed))

	// Cron jobs
	runner := jobs.NewRunner(loc, logger)
	rescanJob := jobs.NewRescanJob(store, scheduler, logger)
	if err := runner.Add("rescan", cfg.RescanSchedule, func(ctx context.Context) { rescanJob.Run(ctx) }); err != nil {
		logger.Fatal("Failed to schedule rescan job", zap.Error(err))
	}
	if slackClient != nil {
		digestJob := jobs.NewDigestJob(store, slackClient, now, logger)
		if err := runner.Add("digest", cfg.DigestSchedule, func(ctx context.Context) { _, _ = digestJob.Run(ctx) }); err != nil {
			logger.Fatal("Failed to schedule digest job", zap.Error(err))
		}
	}
	runner.Start()

	// Set up Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	// Rate limiter: 100 requests per minute
	rateLimiter := middleware.NewRateLimiter(100, time.Minute)
	defer rateLimiter.Stop()

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "app": "remind-me", "reminders": store.Len()})
	})

	protected := r.Group("/",
		middleware.RateLimitMiddleware(rateLimiter),
		middleware.AuthMiddleware(cfg.APIToken),
	)
	handler.New(handler.Deps{
		Store:       store,
		Scheduler:   scheduler,
		Preferences: prefs,
		Permissions: permissions,
		Board:       board,
		Hub:         hub,
		Now:         now,
	}, logger).RegisterRoutes(protected)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting remind-me server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server shutdown failed", zap.Error(err))
	}
	runner.Stop(shutdownCtx)
	scheduler.Close()
	board.Close()
}
