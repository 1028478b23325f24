package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/aicostguardian/guardian-backend-go/internal/config"
	appHTTP "github.com/aicostguardian/guardian-backend-go/internal/handler/http"
	appKafka "github.com/aicostguardian/guardian-backend-go/internal/handler/kafka"
	"github.com/aicostguardian/guardian-backend-go/internal/pkg/channel"
	"github.com/aicostguardian/guardian-backend-go/internal/pkg/cron"
	"github.com/aicostguardian/guardian-backend-go/internal/pkg/database"
	"github.com/aicostguardian/guardian-backend-go/internal/pkg/email"
	"github.com/aicostguardian/guardian-backend-go/internal/pkg/jwt"
	"github.com/aicostguardian/guardian-backend-go/internal/pkg/sse"
	"github.com/aicostguardian/guardian-backend-go/internal/pkg/ws"
	"github.com/aicostguardian/guardian-backend-go/internal/repository/memory"
	"github.com/aicostguardian/guardian-backend-go/internal/repository/postgresql"
	appRedis "github.com/aicostguardian/guardian-backend-go/internal/repository/redis"
	notificationService "github.com/aicostguardian/guardian-backend-go/internal/service/notification"
	"github.com/go-chi/httplog/v3"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeRepos := newRepositories(cfg)
	defer closeRepos()

	// Redis is optional: a cached preference store and a shared rate limiter
	limiter := memory.NewRateLimiter(time.Now)
	if cfg.Redis.Addr != "" {
		client, err := appRedis.NewClient(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis: ", err)
		}
		defer client.Close()
		repos.Preferences = appRedis.NewCachedPreferenceRepository(repos.Preferences, client, cfg.Redis.PreferenceTTL)
		limiter = appRedis.NewRateLimiter(client)
	}

	emailService, err := email.NewEmailService(cfg.SMTP)
	if err != nil {
		log.Fatal("Failed to initialize email service: ", err)
	}

	wsManager := ws.NewManager()
	hub := sse.NewHub(cfg.Notification.SSEBufferSize)
	webhookClient := &http.Client{Timeout: cfg.Webhook.Timeout}

	emailSender := channel.NewEmailSender(emailService)
	senders := channel.NewRegistry(
		emailSender,
		channel.NewSMSSender(cfg.SMS, webhookClient),
		channel.NewSlackSender(webhookClient),
		channel.NewTeamsSender(webhookClient, channel.NewSigner(cfg.Webhook.SigningSecret)),
		channel.NewPushSender(wsManager),
		channel.NewInAppSender(hub),
	)

	notifService := notificationService.NewNotificationService(
		repos,
		senders,
		emailSender,
		limiter,
		hub,
		notificationService.Config{
			WorkerCount:      cfg.Notification.WorkerCount,
			QueueSize:        cfg.Notification.QueueSize,
			DeliveryTimeout:  cfg.Notification.DeliveryTimeout,
			MaxParallelSends: cfg.Notification.MaxParallelSends,
			EscalationLease:  cfg.Notification.EscalationLease,
			EscalationBatch:  cfg.Notification.EscalationBatch,
			DigestBatch:      cfg.Notification.DigestBatch,
			DigestHour:       cfg.Notification.DigestHour,
			TestSendLimit:    cfg.Notification.TestSendLimit,
			TestSendWindow:   cfg.Notification.TestSendWindow,
		},
	)
	defer notifService.Stop()

	JWTService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.SSEExpiration)
	if err != nil {
		log.Fatal("Failed to initialize JWT service: ", err)
	}

	notificationHandler := appHTTP.NewNotificationHandler(notifService, JWTService, wsManager, cfg.CORS.AllowedOrigins)
	ingestHandler := appHTTP.NewIngestHandler(notifService)
	router := appHTTP.NewRouter(cfg, logger, JWTService, notificationHandler, ingestHandler)

	scheduler := cron.NewScheduler()
	cron.NewNotificationJobs(notifService, cfg.Notification.EscalationSweep, cfg.Notification.DigestSweep).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env, "storage", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		wsManager.Heartbeat(gctx, cfg.Notification.HeartbeatInterval)
		return nil
	})

	if len(cfg.Kafka.Brokers) > 0 {
		consumer := appKafka.NewConsumer(appKafka.NewReader(cfg.Kafka), notifService)
		g.Go(func() error {
			slog.Info("Kafka consumer started", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
			return consumer.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		slog.Info("Shutting down server")
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server error", "error", err)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.App.LogLevel))); err != nil {
		level = slog.LevelInfo
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "ai-cost-guardian-notifications"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)
}

func newRepositories(cfg *config.Config) (notificationService.Repositories, func()) {
	if cfg.Database.Driver == "memory" {
		slog.Warn("Using in-memory storage, data is lost on restart")
		return notificationService.Repositories{
			Notifications: memory.NewNotificationRepository(),
			Preferences:   memory.NewPreferenceRepository(),
			Escalations:   memory.NewEscalationRepository(),
			Digests:       memory.NewDigestRepository(),
			Contacts:      memory.NewContactRepository(),
		}, func() {}
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}

	return notificationService.Repositories{
		Notifications: postgresql.NewNotificationRepository(db),
		Preferences:   postgresql.NewPreferenceRepository(db),
		Escalations:   postgresql.NewEscalationRepository(db),
		Digests:       postgresql.NewDigestRepository(db),
		Contacts:      postgresql.NewContactRepository(db),
	}, db.Close
}
