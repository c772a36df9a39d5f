package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"mention_tracker/internal/config"
	"mention_tracker/internal/metrics"
	"mention_tracker/internal/notify/sheets"
	"mention_tracker/internal/notify/slack"
	"mention_tracker/internal/publisher"
	"mention_tracker/internal/scheduler"
	"mention_tracker/internal/service"
	"mention_tracker/internal/source/tiktok"
	"mention_tracker/internal/storage/postgres"
	"mention_tracker/internal/web"
)

const recapInterval = 6 * time.Hour

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single check cycle and exit")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize stores
	mentionStore := postgres.NewMentionStore(db)
	hashtagStore := postgres.NewHashtagStore(db)
	cycleLogStore := postgres.NewCycleLogStore(db)
	txManager := postgres.NewTransactionManager(db)

	// Initialize TikTok source
	tiktokSource := tiktok.New(tiktok.Config{
		BaseURL:        cfg.API.BaseURL,
		APIKey:         cfg.API.Key,
		APIHost:        cfg.API.Host,
		Count:          cfg.Tracker.Count,
		Region:         cfg.Tracker.Region,
		Timeout:        cfg.API.Timeout,
		MaxAttempts:    cfg.API.Retry.MaxAttempts,
		InitialBackoff: cfg.API.Retry.InitialBackoff,
		MaxBackoff:     cfg.API.Retry.MaxBackoff,
		RPS:            cfg.API.RPS,
		Burst:          cfg.API.Burst,
	}, logger)

	// Initialize notification sinks
	slackNotifier := slack.New(cfg.Slack, logger)
	sheetsSink := sheets.New(cfg.Sheets, logger)

	// RabbitMQ is optional; the tracker runs without it when no URL is set.
	var events service.EventPublisher
	if cfg.RabbitMQ.Enabled() {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		events = rabbitMQ
	}

	cycleService := service.NewCycleService(
		tiktokSource,
		mentionStore,
		hashtagStore,
		cycleLogStore,
		txManager,
		slackNotifier,
		sheetsSink,
		events,
		logger,
		cfg.Tracker,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *once {
		logger.Info("running single check cycle", "handle", cfg.Tracker.Handle)
		if _, err := cycleService.Run(ctx); err != nil {
			logger.Error("check cycle failed", "error", err)
			os.Exit(1)
		}
		return
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if cfg.MetricsAddr != "" {
		metrics.StartServer(cfg.MetricsAddr)
		logger.Info("metrics server started", "addr", cfg.MetricsAddr)
	}

	server := web.NewServer(cycleService, cfg.HTTP, cfg.Tracker, logger)
	go func() {
		if err := server.Start(ctx); err != nil {
			logger.Error("web server error", "error", err)
			cancel()
		}
	}()

	go runRecap(ctx, cycleService, logger)

	logger.Info("starting mention tracker",
		"source", tiktokSource.Name(),
		"handle", cfg.Tracker.Handle,
		"interval", cfg.Tracker.Interval,
		"window", cfg.Tracker.Window,
	)

	sched := scheduler.NewScheduler(cycleService, cfg.Tracker.Interval, logger)
	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

// runRecap periodically logs the most recently tracked mentions so the
// daemon's logs show activity between check cycles.
func runRecap(ctx context.Context, svc *service.CycleService, logger *slog.Logger) {
	ticker := time.NewTicker(recapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mentions, err := svc.Recent(ctx, 10)
			if err != nil {
				logger.Warn("recap query failed", "error", err)
				continue
			}
			logger.Info("recent mentions recap", "count", len(mentions))
			for _, m := range mentions {
				logger.Info("tracked mention",
					"post_id", m.PostID,
					"username", m.Username,
					"views", m.Views,
					"tracked_at", m.TrackedAt,
				)
			}
		}
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
