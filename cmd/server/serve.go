package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/estatehub/service-scheduling/internal/application"
	"github.com/estatehub/service-scheduling/internal/config"
	"github.com/estatehub/service-scheduling/internal/dispatch"
	"github.com/estatehub/service-scheduling/internal/domain/availability"
	bookingDomain "github.com/estatehub/service-scheduling/internal/domain/booking"
	"github.com/estatehub/service-scheduling/internal/domain/deliverable"
	providerDomain "github.com/estatehub/service-scheduling/internal/domain/provider"
	bookingEvents "github.com/estatehub/service-scheduling/internal/events"
	"github.com/estatehub/service-scheduling/internal/handler"
	"github.com/estatehub/service-scheduling/internal/integration/notify"
	"github.com/estatehub/service-scheduling/internal/integration/payment"
	"github.com/estatehub/service-scheduling/internal/integration/subject"
	"github.com/estatehub/service-scheduling/internal/platform/auth"
	"github.com/estatehub/service-scheduling/internal/platform/cache"
	"github.com/estatehub/service-scheduling/internal/platform/database"
	"github.com/estatehub/service-scheduling/internal/platform/health"
	"github.com/estatehub/service-scheduling/internal/platform/kafka"
	"github.com/estatehub/service-scheduling/internal/platform/logger"
	"github.com/estatehub/service-scheduling/internal/platform/middleware"
	"github.com/estatehub/service-scheduling/internal/repository"
	"github.com/estatehub/service-scheduling/internal/repository/memory"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, payment consumer and side-effect worker",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log, err := logger.NewNamed(cfg.AppEnv, serviceName)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = log.Sync() }()
			return serve(cfg, log)
		},
	}
}

type stores struct {
	db           *gorm.DB
	bookings     bookingDomain.BookingRepository
	providers    providerDomain.ProviderRepository
	windows      availability.WindowRepository
	deliverables deliverable.DeliverableRepository
}

func postgresConfig(cfg *config.ServiceConfig) database.PostgresConfig {
	return database.PostgresConfig{
		Host:            cfg.DBConfig.Host,
		Port:            strconv.Itoa(cfg.DBConfig.Port),
		User:            cfg.DBConfig.User,
		Password:        cfg.DBConfig.Password,
		DBName:          cfg.DBConfig.DBName,
		SSLMode:         cfg.DBConfig.SSLMode,
		MaxOpenConns:    cfg.DBConfig.MaxOpenConns,
		MaxIdleConns:    cfg.DBConfig.MaxIdleConns,
		ConnMaxLifetime: cfg.DBConfig.ConnMaxLifetime,
	}
}

func openStores(cfg *config.ServiceConfig, log *zap.Logger) (*stores, error) {
	if cfg.StorageDriver == "memory" {
		log.Warn("using in-memory storage; data is lost on restart")
		return &stores{
			bookings:     memory.NewBookingRepository(),
			providers:    memory.NewProviderRepository(),
			windows:      memory.NewWindowRepository(),
			deliverables: memory.NewDeliverableRepository(),
		}, nil
	}

	dbConfig := postgresConfig(cfg)
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.IsDevelopment() {
		if err := db.AutoMigrate(
			&repository.ProviderModel{},
			&repository.AvailabilityModel{},
			&repository.BookingModel{},
			&repository.DeliverableModel{},
		); err != nil {
			return nil, fmt.Errorf("failed to run auto-migration: %w", err)
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else if err := database.RunMigrations(dbConfig.DatabaseURL(), cfg.MigrationsDir, log); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &stores{
		db:           db,
		bookings:     repository.NewGormBookingRepository(db),
		providers:    repository.NewGormProviderRepository(db),
		windows:      repository.NewGormWindowRepository(db),
		deliverables: repository.NewGormDeliverableRepository(db),
	}, nil
}

func serve(cfg *config.ServiceConfig, log *zap.Logger) error {
	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("storage", cfg.StorageDriver),
	)

	st, err := openStores(cfg, log)
	if err != nil {
		return err
	}

	// Redis backs the side-effect queue and the schedule cache. Without it
	// both fall back to in-process implementations.
	var rdb *redis.Client
	if cfg.RedisConfig.Enabled {
		rdb, err = cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.RedisConfig.Addr,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		if err != nil {
			log.Warn("redis unavailable, using in-process queue and no cache", zap.Error(err))
			rdb = nil
		} else {
			defer func() { _ = rdb.Close() }()
		}
	}

	windows := st.windows
	if rdb != nil {
		windows = repository.NewCachedWindowRepository(windows, rdb, cfg.RedisConfig.ScheduleTTL, log)
	}

	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		cfg.JWTConfig.AccessTokenTTL,
		cfg.JWTConfig.RefreshTokenTTL,
	)

	// Side effects
	processor := dispatch.NewProcessor(newNotifier(cfg, log), newSubjectUpdater(cfg, log), log)
	var tasks application.TaskQueue
	if rdb != nil {
		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.RedisConfig.Addr,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		}
		asynqQueue := dispatch.NewAsynqQueue(redisOpt)
		defer func() { _ = asynqQueue.Close() }()
		worker := dispatch.NewWorker(redisOpt, processor, cfg.WorkerConcurrency, log)
		if err := worker.Start(); err != nil {
			return fmt.Errorf("failed to start task worker: %w", err)
		}
		defer worker.Shutdown()
		tasks = asynqQueue
	} else {
		localQueue := dispatch.NewLocalQueue(processor, cfg.WorkerConcurrency, 256, log)
		defer localQueue.Close()
		tasks = localQueue
	}

	// Kafka producer
	var producer application.EventProducer
	if len(cfg.KafkaConfig.Brokers) > 0 {
		kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = kafkaProducer.Close() }()
		producer = kafkaProducer
	} else {
		log.Warn("no kafka brokers configured; booking events are not published")
	}

	var gateway application.PaymentGateway = payment.ManualGateway{}
	if cfg.StripeConfig.SecretKey != "" {
		gateway = payment.NewStripeGateway(cfg.StripeConfig.SecretKey, log)
	}

	// Application services
	clock := application.Clock(application.SystemClock)
	publisher := application.NewEventPublisher(producer, cfg.KafkaConfig.BookingTopic, log)
	checker := application.NewConflictChecker(st.bookings)
	// Coverage checks behind a booking read the store, never the cache.
	resolver := application.NewAssignmentResolver(
		st.providers, st.windows, st.bookings, checker,
		bookingDomain.NewStandardPricingStrategy(), clock, log,
	)
	lifecycle := application.NewStatusLifecycleManager(st.bookings, st.providers, tasks, publisher, clock, log)
	bookingService := application.NewBookingService(st.bookings, resolver, lifecycle, gateway, log)
	availabilityService := application.NewAvailabilityService(windows, st.providers, clock, log)
	providerService := application.NewProviderService(st.providers, log)
	deliverableService := application.NewDeliverableService(st.deliverables, st.bookings, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(cfg.KafkaConfig.Brokers) > 0 {
		paymentConsumer := bookingEvents.NewPaymentEventConsumer(
			cfg.KafkaConfig.Brokers,
			cfg.KafkaConfig.GroupPrefix+"scheduling-service",
			cfg.KafkaConfig.PaymentTopic,
			bookingService,
			log,
		)
		defer func() { _ = paymentConsumer.Close() }()

		go func() {
			log.Info("starting payment event consumer")
			if err := paymentConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("payment event consumer error", zap.Error(err))
			}
		}()
	}

	// Setup Gin router
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimitConfig.RPS, cfg.RateLimitConfig.Burst, log))

	health.NewHandler(st.db, rdb, serviceName).RegisterRoutes(router)

	handler.NewAvailabilityHandler(availabilityService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewDeliverableHandler(deliverableService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewProviderHandler(providerService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewAdminBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		log.Error("HTTP server error", zap.Error(err))
	}

	log.Info("shutting down " + serviceName + "...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
	return nil
}

func newNotifier(cfg *config.ServiceConfig, log *zap.Logger) dispatch.Notifier {
	if cfg.NotifierURL == "" {
		return notify.NewLogNotifier(log)
	}
	return notify.NewWebhookNotifier(cfg.NotifierURL, 10*time.Second)
}

func newSubjectUpdater(cfg *config.ServiceConfig, log *zap.Logger) dispatch.SubjectUpdater {
	sc := cfg.SupabaseConfig
	if sc.URL == "" || sc.ServiceKey == "" {
		return subject.NewLogUpdater(log)
	}
	updater, err := subject.NewSupabaseUpdater(sc.URL, sc.ServiceKey, subject.Tables{
		Leads:      sc.LeadsTable,
		Properties: sc.PropertyTable,
	}, log)
	if err != nil {
		log.Warn("supabase client unavailable, subject updates are only logged", zap.Error(err))
		return subject.NewLogUpdater(log)
	}
	return updater
}
