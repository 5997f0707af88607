package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"leadflow_backend/internal/automations"
	"leadflow_backend/internal/events"
	"leadflow_backend/internal/generator"
	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/internal/leads"
	leadrepo "leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/notification"
	"leadflow_backend/internal/qualification"
	"leadflow_backend/internal/qualification/extract"
	"leadflow_backend/internal/qualification/policy"
	"leadflow_backend/internal/qualification/scoring"
	"leadflow_backend/internal/scheduler"
	"leadflow_backend/internal/webhook"
	"leadflow_backend/internal/whatsapp"
	"leadflow_backend/migrations"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/db"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)

	qualCfg, err := qualification.Load(cfg.GetQualificationConfigPath())
	if err != nil {
		log.Error("failed to load qualification config", "error", err)
		panic("failed to load qualification config: " + err.Error())
	}
	log.Info("qualification config loaded", "questions", len(qualCfg.Questions), "enabled", qualCfg.Enabled)

	taskClient, closeTasks := initTaskScheduler(cfg, log)
	if closeTasks != nil {
		defer closeTasks()
	}

	whatsappClient := whatsapp.NewClient(cfg, log)
	if whatsappClient == nil {
		log.Warn("WHATSAPP_BASE_URL not configured; outbound messages disabled")
	}

	// ========================================================================
	// Domain Wiring (Composition Root)
	// ========================================================================

	repo := leadrepo.New(pool)
	engine := scoring.NewEngine(qualCfg)
	extractor := extract.New(qualCfg)
	auto := automations.New(qualCfg, repo, eventBus, taskClient, cfg, log)

	gen, err := generator.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize response generator", "error", err)
		panic("failed to initialize response generator: " + err.Error())
	}
	var replyGen policy.Generator
	if gen != nil {
		replyGen = gen
	} else {
		log.Warn("GEMINI_API_KEY not configured; using deterministic prompts")
	}

	pol := policy.New(qualCfg, repo, engine, extractor, replyGen, auto, log)

	mailer := notification.NewMailer(cfg)
	notifier := notification.NewNotifier(whatsappClient, mailer, cfg, log)
	notifier.Subscribe(eventBus)

	val := validator.New()

	leadsModule := leads.NewModule(repo, qualCfg, engine, pol)
	webhookModule := webhook.NewModule(repo, pol, whatsappClient, eventBus, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			webhookModule,
		},
	}

	router := apphttp.NewRouter(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- router.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initTaskScheduler(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.MessageScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; scheduled messages disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize task scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, lastErr)
}
