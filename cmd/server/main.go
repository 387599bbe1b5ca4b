package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	catalogapp "github.com/warrantyhub/backend/internal/application/catalog"
	identityapp "github.com/warrantyhub/backend/internal/application/identity"
	warrantyapp "github.com/warrantyhub/backend/internal/application/warranty"
	"github.com/warrantyhub/backend/internal/domain/identifier"
	"github.com/warrantyhub/backend/internal/domain/shared"
	"github.com/warrantyhub/backend/internal/domain/warranty"
	"github.com/warrantyhub/backend/internal/infrastructure/auth"
	"github.com/warrantyhub/backend/internal/infrastructure/config"
	"github.com/warrantyhub/backend/internal/infrastructure/event"
	"github.com/warrantyhub/backend/internal/infrastructure/logger"
	"github.com/warrantyhub/backend/internal/infrastructure/migration"
	"github.com/warrantyhub/backend/internal/infrastructure/persistence"
	"github.com/warrantyhub/backend/internal/infrastructure/persistence/kv"
	"github.com/warrantyhub/backend/internal/infrastructure/printing"
	"github.com/warrantyhub/backend/internal/infrastructure/storage"
	"github.com/warrantyhub/backend/internal/infrastructure/telemetry"
	"github.com/warrantyhub/backend/internal/interfaces/http/handler"
	"github.com/warrantyhub/backend/internal/interfaces/http/middleware"
	"github.com/warrantyhub/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Warranty Registration API
//	@version		1.0
//	@description	Product catalog, per-unit identifiers and customer warranty registration
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.url	https://github.com/warrantyhub/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// A missing .env is normal outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		panic("Failed to read .env: " + err.Error())
	}

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()

	// The OTLP log core is attached to the zap logger, so it must exist first.
	// It reports its own setup problems through a bootstrap logger.
	bootLog, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		Level:             cfg.Telemetry.LogsLevel,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}, logProvider.Core())
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()
	defer shutdown(log, "log exporter", logProvider.Shutdown)

	log.Info("Starting warranty service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Backend),
	)

	// Tracing, metrics and profiling
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer shutdown(log, "tracer provider", tracerProvider.Shutdown)

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer shutdown(log, "meter provider", meterProvider.Shutdown)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingServerURL,
		ApplicationName: cfg.Telemetry.ServiceName,
		Allocations:     true,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()
	if cfg.Telemetry.ProfilingEnabled {
		tracerProvider.EnableSpanProfiles()
	}

	// Database connection, only needed by the sql store backend
	var db *persistence.Database
	if cfg.Store.Backend == config.StoreBackendSQL {
		db = openDatabase(cfg, log)
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing database", zap.Error(err))
			}
		}()
	}

	// Key-value store and the repositories on top of it
	factoryOpts := []kv.FactoryOption{kv.WithLogger(log)}
	if db != nil {
		factoryOpts = append(factoryOpts, kv.WithDatabase(db.DB))
	}
	store, err := kv.NewFactory(cfg.Store, cfg.Redis, factoryOpts...).Open()
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing store", zap.Error(err))
		}
	}()

	adminStore, err := persistence.NewKVAdminStore(ctx, store, log)
	if err != nil {
		log.Fatal("Failed to load admin directory", zap.Error(err))
	}
	catalogStore, err := persistence.NewKVCatalogStore(ctx, store, log)
	if err != nil {
		log.Fatal("Failed to load catalog", zap.Error(err))
	}

	// Event bus with logging and Prometheus counters
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)

	eventBus := event.NewInMemoryEventBus(log)
	logHandler := event.NewLogHandler(eventSerializer, log)
	eventBus.Subscribe(logHandler, logHandler.EventTypes()...)
	businessMetrics := telemetry.NewBusinessMetrics()
	eventBus.Subscribe(businessMetrics, businessMetrics.EventTypes()...)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Object storage for product images and archived certificates
	var (
		objectStorage catalogapp.ObjectStorageService
		archive       warrantyapp.CertificateArchive
	)
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiry(cfg.Storage.PresignExpiry),
		)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare storage bucket", zap.Error(err))
		}
		objectStorage = s3Storage
		if cfg.Printing.Archive {
			archive = s3Storage
		}
	} else {
		log.Info("Object storage disabled, image upload is unavailable")
	}

	// Certificate rendering
	var pdfRenderer printing.PDFRenderer
	if cfg.Printing.PDFEnabled {
		chrome := printing.NewChromedpRenderer(printing.ChromedpConfig{
			Timeout:   cfg.Printing.Timeout,
			ExecPath:  cfg.Printing.ChromePath,
			NoSandbox: true,
			Logger:    log,
		})
		defer func() {
			if err := chrome.Close(); err != nil {
				log.Error("Error closing PDF renderer", zap.Error(err))
			}
		}()
		pdfRenderer = chrome
	}
	certificates, err := printing.NewCertificatePrinter(pdfRenderer, log)
	if err != nil {
		log.Fatal("Failed to prepare certificate template", zap.Error(err))
	}

	// Revoked tokens share Redis with the store when it is available
	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if redisStore, ok := store.(*kv.RedisStore); ok {
		blacklist = auth.NewRedisTokenBlacklist(redisStore.Client(), cfg.Store.KeyPrefix+"token_blacklist:")
	}

	// Application services
	clock := shared.SystemClock{}
	jwtService := auth.NewJWTService(cfg.JWT)

	serviceCfg := catalogapp.DefaultServiceConfig()
	if cfg.Warranty.IdentifierRetries > 0 {
		serviceCfg.IdentifierRetries = cfg.Warranty.IdentifierRetries
	}
	if cfg.Warranty.MaxBatchSize > 0 {
		serviceCfg.MaxBatchSize = cfg.Warranty.MaxBatchSize
	}
	if cfg.Storage.PresignExpiry > 0 {
		serviceCfg.PresignExpiry = cfg.Storage.PresignExpiry
	}
	if cfg.Storage.MaxImageBytes > 0 {
		serviceCfg.MaxImageBytes = cfg.Storage.MaxImageBytes
	}

	productService := catalogapp.NewProductService(
		catalogStore, identifier.NewGenerator(clock), eventBus, objectStorage, clock, serviceCfg, log,
	)
	registrationService := warrantyapp.NewRegistrationService(
		catalogStore, eventBus, certificates, archive,
		warranty.Policy{ExpiringSoonDays: cfg.Warranty.ExpiringSoonDays}, clock, log,
	)
	adminService := identityapp.NewAdminService(adminStore, blacklist, eventBus, clock, log)
	authService := identityapp.NewAuthService(adminStore, adminStore, jwtService, blacklist, eventBus, clock, log)

	if cfg.Seed.Enabled {
		seedSuperAdmin(ctx, cfg.Seed, adminService, log)
	}

	// HTTP stack
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.Server.CORSAllowOrigins
	if len(cfg.Server.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.Server.CORSAllowMethods
	}
	if len(cfg.Server.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.Server.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(middleware.DefaultSecurityConfig()),
		middleware.CORS(corsCfg),
		middleware.BodyLimit(cfg.Server.MaxBodySize),
		middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled),
		middleware.SpanEnricher(),
		middleware.HTTPMetrics(meterProvider, log),
		middleware.Profiling(cfg.Telemetry.ProfilingEnabled, "/health", "/metrics"),
	)

	var publicLimiter *middleware.RateLimiter
	if cfg.Server.PublicRateLimit > 0 {
		publicLimiter = middleware.NewRateLimiter(cfg.Server.PublicRateLimit, cfg.Server.PublicRateWindow)
		defer publicLimiter.Stop()
	}

	handlers := router.Handlers{
		Auth:       handler.NewAuthHandler(authService, adminService),
		Products:   handler.NewProductHandler(productService, adminService, serviceCfg.MaxImageBytes),
		Warranties: handler.NewWarrantyHandler(registrationService),
		Admins:     handler.NewAdminHandler(adminService),
		System: handler.NewSystemHandler(productService, handler.SystemInfo{
			Name:    cfg.App.Name,
			Version: version,
			Store:   cfg.Store.Backend,
		}, log),
	}
	router.NewRouter(engine, router.WithAPIVersion("v1"), router.WithSwagger()).
		RegisterAll(router.APIGroups(handlers, router.APIConfig{
			JWT: middleware.JWTMiddlewareConfig{
				JWTService:     jwtService,
				TokenBlacklist: blacklist,
				Sessions:       authService,
				Logger:         log,
			},
			Permission:    middleware.PermissionConfig{Logger: log},
			PublicLimiter: publicLimiter,
		})...).
		Setup()

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": handler.HealthStatusOK})
	})
	engine.GET("/metrics", gin.WrapH(businessMetrics.Handler()))

	srv := &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        engine,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// openDatabase connects with the zap-backed GORM logger, applies pending
// migrations when configured and hooks query tracing
func openDatabase(cfg *config.Config, log *zap.Logger) *persistence.Database {
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", db.Driver))

	if cfg.Database.AutoMigrate {
		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatal("Failed to get database handle", zap.Error(err))
		}
		// Closing the migrator would also close the shared connection
		migrator, err := migration.New(sqlDB, db.Driver, cfg.Database.MigrationsPath, log)
		if err != nil {
			log.Fatal("Failed to create migrator", zap.Error(err))
		}
		if err := migrator.Up(); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	tracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        db.Driver,
	}, log)
	if err := tracing.RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	return db
}

func seedSuperAdmin(ctx context.Context, seed config.SeedConfig, admins *identityapp.AdminService, log *zap.Logger) {
	admin, created, err := admins.SeedSuperAdmin(ctx, identityapp.SeedSuperAdminInput{
		Username:           seed.Username,
		Email:              seed.Email,
		Password:           seed.Password,
		PIN:                seed.PIN,
		FirstName:          seed.FirstName,
		LastName:           seed.LastName,
		Company:            seed.Company,
		SubscriptionMonths: seed.SubscriptionMonths,
	})
	if err != nil {
		log.Fatal("Failed to seed superadmin", zap.Error(err))
	}
	if created {
		log.Info("Superadmin created", zap.String("admin_id", admin.ID.String()), zap.String("username", admin.Username))
	}
}

func shutdown(log *zap.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Error("Error shutting down "+name, zap.Error(err))
	}
}
