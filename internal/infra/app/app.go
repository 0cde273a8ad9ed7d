package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/alvarohurtadobo/iot-backend/internal/core/port"
	"github.com/alvarohurtadobo/iot-backend/internal/infra/config"
	"github.com/alvarohurtadobo/iot-backend/internal/infra/database"
	kafkainfra "github.com/alvarohurtadobo/iot-backend/internal/infra/kafka"
	"github.com/alvarohurtadobo/iot-backend/internal/infra/logger"
	mqttinfra "github.com/alvarohurtadobo/iot-backend/internal/infra/mqtt"
	"github.com/alvarohurtadobo/iot-backend/internal/infra/security"
	memoryrepo "github.com/alvarohurtadobo/iot-backend/internal/repository/memory"
	postgresrepo "github.com/alvarohurtadobo/iot-backend/internal/repository/postgres"
	redisrepo "github.com/alvarohurtadobo/iot-backend/internal/repository/redis"
	"github.com/alvarohurtadobo/iot-backend/internal/transport/http/middleware"
	"github.com/alvarohurtadobo/iot-backend/internal/transport/http/routes"
	"github.com/alvarohurtadobo/iot-backend/internal/usecase"
)

// Application owns the process lifecycle: wiring, serving, and shutdown.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *goredis.Client
	producer *kafkainfra.Producer
	ingestor *mqttinfra.Ingestor
}

// New wires all application dependencies.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	codec, err := security.NewTokenCodec(cfg.JWT.Secret, cfg.JWT.Algorithm)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init token codec: %w", err)
	}

	hasher, err := security.NewPasswordHasher(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init password hasher: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	// The in-memory store is the default; redis takes over for multi-replica
	// deployments where throttling state must be shared.
	var rateLimitStore port.RateLimitStore
	var redisClient *goredis.Client
	if cfg.Redis.Enabled {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}

		window := cfg.RateLimit.WindowDuration
		if window <= 0 {
			window = time.Minute
		}
		rateLimitStore = redisrepo.NewRateLimitStore(redisClient, redisrepo.SlidingWindowConfig{
			KeyPrefix: "iot:rate-limit",
			TTL:       window * 2,
		})
		log.Info("redis rate limit store initialized", zap.String("host", cfg.Redis.Host))
	} else {
		rateLimitStore = memoryrepo.NewRateLimitStore()
	}

	var eventPublisher port.EventPublisher
	var producer *kafkainfra.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	passwordValidator := security.DefaultPasswordValidator(cfg.Security.PasswordMinLength)

	authService := usecase.NewAuthService(
		cfg,
		repos.Users,
		repos.Audits,
		repos.RevokedTokens,
		rateLimitStore,
		hasher,
		codec,
		eventPublisher,
		log,
	)
	userService := usecase.NewUserService(repos.Users, hasher, passwordValidator, log)
	roleService := usecase.NewRoleService(repos.Roles)
	fleetService := usecase.NewFleetService(
		repos.Businesses,
		repos.Branches,
		repos.Machines,
		repos.DeviceTypes,
		repos.Devices,
		repos.SensorTypes,
		repos.Sensors,
		eventPublisher,
		log,
	)
	readingService := usecase.NewReadingService(repos.Readings, repos.Sensors, fleetService, log)

	var ingestor *mqttinfra.Ingestor
	if cfg.MQTT.Enabled {
		ingestor = mqttinfra.NewIngestor(cfg.MQTT, readingService, log)
	}

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{
		Namespace: cfg.App.Name,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: middleware.NewRateLimiter(rateLimitStore, log),
		Metrics:     metrics,
		Database:    pool,
		Services: routes.ServiceSet{
			Auth:     authService,
			Users:    userService,
			Roles:    roleService,
			Fleet:    fleetService,
			Readings: readingService,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
		ingestor: ingestor,
	}, nil
}

// Run serves HTTP and the MQTT ingestor until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()

	if a.ingestor != nil {
		if err := a.ingestor.Start(); err != nil {
			// The API stays up without the listener; readings still arrive
			// over HTTP.
			a.logger.Warn("mqtt ingestor failed to start", zap.Error(err))
		} else {
			defer a.ingestor.Stop()
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting IoT backend API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
