package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/infobip-sms-bridge/app/handlers"
	"github.com/amirphl/infobip-sms-bridge/app/infobip"
	"github.com/amirphl/infobip-sms-bridge/app/logging"
	"github.com/amirphl/infobip-sms-bridge/app/middleware"
	"github.com/amirphl/infobip-sms-bridge/app/router"
	"github.com/amirphl/infobip-sms-bridge/app/services"
	businessflow "github.com/amirphl/infobip-sms-bridge/business_flow"
	"github.com/amirphl/infobip-sms-bridge/config"
	"github.com/amirphl/infobip-sms-bridge/models"
	"github.com/amirphl/infobip-sms-bridge/repository"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	server    *fiber.App
	logger    zerolog.Logger
	stopFuncs []func()
}

func main() {
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	logger.Info().
		Str("version", cfg.Deployment.Version).
		Str("environment", cfg.Deployment.Environment).
		Str("commit", cfg.Deployment.CommitHash).
		Str("build_time", cfg.Deployment.BuildTime).
		Msg("Starting InfoBip SMS bridge...")

	app, err := initializeApplication(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-sigChan
	logger.Info().Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error during shutdown")
	}

	// Stop dependencies only after in-flight callbacks have drained
	for _, fn := range app.stopFuncs {
		fn()
	}

	logger.Info().Msg("Server stopped")
}

func initializeDatabase(cfg config.DatabaseConfig, logger zerolog.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	gormLog := logger.With().Str("component", "gorm").Logger()
	level := gormlogger.Error
	if cfg.SlowQueryLog {
		level = gormlogger.Warn
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(&gormLog, gormlogger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(
			&models.Campaign{},
			&models.CampaignEvent{},
			&models.Lead{},
			&models.SMSStat{},
			&models.DwhStat{},
			&models.DoNotContact{},
			&models.ReceiptLog{},
		); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	logger.Info().
		Int("max_open_conns", cfg.MaxOpenConns).
		Int("max_idle_conns", cfg.MaxIdleConns).
		Msg("Database connection established")

	return db, nil
}

func initializeCache(cfg config.CacheConfig, logger zerolog.Logger) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info().Int("db", cfg.RedisDB).Msg("Redis connection established")
	return rc, nil
}

func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration, logger zerolog.Logger) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					logger.Warn().Err(err).Msg("Redis healthcheck failed")
				}
				c()
			}
		}
	}()
	return cancel
}

func initializeApplication(cfg *config.ProductionConfig, logger zerolog.Logger) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stopFuncs = append(stopFuncs, func() {
		if err := sqlDB.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close database")
		}
	})

	probes := map[string]router.HealthProbe{
		"database": sqlDB.PingContext,
	}

	rc, err := initializeCache(cfg.Cache, logger)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		stopFuncs = append(stopFuncs, startCacheHealthMonitor(context.Background(), rc, 0, logger))
		stopFuncs = append(stopFuncs, func() { _ = rc.Close() })
		probes["redis"] = func(ctx context.Context) error { return rc.Ping(ctx).Err() }
	}

	statRepo := repository.NewSMSStatRepository(db)
	dwhRepo := repository.NewDwhStatRepository(db)
	receiptRepo := repository.NewReceiptLogRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	dncRepo := repository.NewDoNotContactRepository(db)

	sink, err := services.NewEventSink(cfg.EventSink, dwhRepo)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize event sink: %w", err)
	}
	stopFuncs = append(stopFuncs, func() {
		if err := sink.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close event sink")
		}
	})
	logger.Info().Str("provider", cfg.EventSink.Provider).Msg("Event sink initialized")

	client := infobip.NewClient(cfg.InfoBip)
	requestLog := logging.NewRequestLog(cfg.Logging, cfg.InfoBip)

	receiptFlow := businessflow.NewDeliveryReceiptFlow(
		statRepo,
		leadRepo,
		campaignRepo,
		receiptRepo,
		sink,
		cfg.InfoBip,
		logger,
	)

	sendFlow := businessflow.NewSMSSendFlow(
		client,
		statRepo,
		leadRepo,
		campaignRepo,
		sink,
		rc,
		cfg.InfoBip,
		cfg.Cache,
		logger,
		requestLog,
	)

	unsubscribeFlow := businessflow.NewUnsubscribeFlow(leadRepo, dncRepo, cfg.InfoBip, logger)

	callbackHandler := handlers.NewSMSCallbackHandler(receiptFlow, unsubscribeFlow, logger)
	smsHandler := handlers.NewSMSHandler(sendFlow, logger)

	apiKeyMiddleware := middleware.NewAPIKeyMiddleware(cfg.Security)

	appRouter := router.NewFiberRouter(
		cfg,
		callbackHandler,
		smsHandler,
		apiKeyMiddleware,
		probes,
		logger,
	)

	return &Application{
		router:    appRouter,
		config:    cfg,
		server:    appRouter.GetApp(),
		logger:    logger,
		stopFuncs: stopFuncs,
	}, nil
}
