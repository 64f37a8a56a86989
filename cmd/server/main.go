package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	printingapp "github.com/crm/backend/internal/application/printing"
	"github.com/crm/backend/internal/domain/printing"
	"github.com/crm/backend/internal/infrastructure/cache"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/infrastructure/migration"
	"github.com/crm/backend/internal/infrastructure/persistence"
	infraprinting "github.com/crm/backend/internal/infrastructure/printing"
	"github.com/crm/backend/internal/infrastructure/storage"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/crm/backend/internal/interfaces/http/handler"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/crm/backend/internal/interfaces/http/router"
	"github.com/crm/backend/migrations"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			CRM Document API
//	@version		1.0
//	@description	Totals, PDF rendering and archiving for quotes, orders and invoices
//	@BasePath		/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
		Version:    version,
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	// Telemetry providers. The log bridge has to exist before the final
	// logger so every entry is exported as well.
	tel := telemetry.Setup(ctx, telemetry.SetupConfig{
		Enabled:           cfg.Telemetry.Enabled,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.App.Name,
		ServiceVersion:    version,
	}, bootLog)
	level, _ := logger.ParseLevel(cfg.Log.Level)
	log, err := logger.New(logCfg, tel.Logs.ZapCore(level))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting CRM document backend",
		zap.String("app", cfg.App.Name),
		zap.String("version", version),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("backend", cfg.Printing.Backend),
		zap.String("storage", cfg.Storage.Driver),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), 200*time.Millisecond)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := migrateSchema(cfg, db, log); err != nil {
		log.Fatal("Failed to migrate schema", zap.Error(err))
	}
	dbSystem := "postgresql"
	if cfg.Database.Driver == "sqlite" {
		dbSystem = "sqlite"
	}
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTracing,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        dbSystem,
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Warn("Database tracing disabled", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	// Asset fetching and caching
	var redisCfg *cache.RedisConfig
	if cfg.Redis.Enabled {
		redisCfg = &cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
	}
	assetCache := cache.NewAssetCache(cache.Options{
		Enabled: cfg.Printing.AssetCache,
		Redis:   redisCfg,
		Logger:  log,
	})
	if assetCache != nil {
		defer func() {
			_ = assetCache.Close()
		}()
	}
	assets := infraprinting.NewAssetFetcher(&infraprinting.AssetFetcherConfig{
		Timeout:     cfg.Printing.AssetTimeout,
		MaxBytes:    cfg.Printing.AssetMaxBytes,
		CacheTTL:    cfg.Printing.AssetCacheTTL,
		FontURL:     cfg.Printing.FontURL,
		BoldFontURL: cfg.Printing.BoldFontURL,
		Logger:      log,
	}, assetCache).WithHTTPClient(&http.Client{
		Timeout:   cfg.Printing.AssetTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})

	// Rendering backends
	renderers := infraprinting.NewRenderers(
		infraprinting.NewLayoutRenderer(log),
		infraprinting.NewComponentRenderer(log),
	)
	var browser *infraprinting.ChromedpRenderer
	if cfg.Printing.ChromeEnabled {
		browser, err = infraprinting.NewChromedpRenderer(&infraprinting.ChromedpConfig{
			Timeout:   cfg.Printing.ChromeTimeout,
			RemoteURL: cfg.Printing.ChromeRemoteURL,
			NoSandbox: cfg.Printing.ChromeNoSandbox,
			Logger:    log,
		})
		if err != nil {
			log.Fatal("Failed to start headless browser", zap.Error(err))
		}
		defer func() {
			_ = browser.Close()
		}()
	}
	var pdfPrinter infraprinting.PDFRenderer
	if browser != nil {
		pdfPrinter = browser
	}
	htmlRenderer := infraprinting.NewHTMLRenderer(infraprinting.NewTemplateEngine(infraprinting.WithLocale(cfg.Printing.Locale)), nil, pdfPrinter, log)
	if browser != nil {
		renderers.Register(htmlRenderer)
	}

	// Archive
	archive, err := newArchive(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize PDF archive", zap.Error(err))
	}

	// Application service
	renderMetrics, err := telemetry.NewRenderMetrics(tel.Metrics.Meter(telemetry.TracerName))
	if err != nil {
		log.Warn("Render metrics disabled", zap.Error(err))
	}
	backend, _ := printing.ParseBackend(cfg.Printing.Backend)
	documentService := printingapp.NewDocumentService(
		persistence.NewGormDocumentRepository(db.DB),
		renderers,
		htmlRenderer,
		assets,
		archive,
		printingapp.Config{
			Locale:         cfg.Printing.Locale,
			Currency:       cfg.Printing.Currency,
			DefaultBackend: backend,
			PaperSize:      printing.PaperSize(strings.ToUpper(cfg.Printing.PaperSize)),
		},
		log,
		printingapp.WithMetrics(renderMetrics),
	)

	// HTTP engine
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	} else {
		_ = engine.SetTrustedProxies(nil)
	}

	// Tracing runs first so every later middleware sees the server span
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.App.Name,
		Enabled:     tel.Traces.IsEnabled(),
		SkipPaths:   []string{"/health"},
	}))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.SpanEnricher())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(tel.Metrics.Meter(telemetry.TracerName), log))
	engine.Use(middleware.Secure())
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Render endpoints get a per-client rate limit and a deadline
	renderGuard := []gin.HandlerFunc{middleware.Timeout(cfg.HTTP.WriteTimeout)}
	if cfg.HTTP.RenderRateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RenderRateLimit, time.Minute)
		go limiter.Run(ctx)
		renderGuard = append([]gin.HandlerFunc{middleware.RateLimit(limiter)}, renderGuard...)
	}

	backendNames := func() []string {
		var names []string
		for _, b := range renderers.Backends() {
			names = append(names, b.String())
		}
		return names
	}
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, backendNames)
	systemHandler.AddCheck("database", db.PingContext)

	documentRoutes := handler.DocumentRoutes(handler.NewDocumentHandler(documentService), renderGuard...)
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(documentRoutes).
		Register(systemRoutes).
		Register(router.RouteRegistrarFunc(func(rg *gin.RouterGroup) {
			rg.GET("/health", systemHandler.Health)
		}))
	r.Setup()

	// Health endpoints outside the versioned API for load balancers
	engine.GET("/health", systemHandler.Health)

	for _, group := range []*router.DomainGroup{documentRoutes, systemRoutes} {
		for _, route := range group.Routes() {
			log.Debug("Route registered",
				zap.String("group", group.Name()),
				zap.String("method", route.Method),
				zap.String("path", r.BasePath()+route.Path))
		}
	}

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		log.Error("Telemetry shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// migrateSchema applies the embedded migrations when configured. Without
// them a sqlite database gets its tables from gorm.
func migrateSchema(cfg *config.Config, db *persistence.Database, log *zap.Logger) error {
	if !cfg.Database.AutoMigrate {
		if cfg.Database.Driver == "sqlite" {
			return db.AutoMigrate()
		}
		return nil
	}
	// Not closed: closing the migrator would close the shared connection pool
	m, err := migration.NewFromFS(db.SQL(), cfg.Database.Driver, migrations.FS, log)
	if err != nil {
		return err
	}
	return m.Up()
}

// newArchive returns nil when archiving is switched off
func newArchive(ctx context.Context, cfg *config.Config, log *zap.Logger) (infraprinting.PDFStorage, error) {
	switch cfg.Storage.Driver {
	case "fs":
		return infraprinting.NewFileSystemStorage(&infraprinting.FileSystemStorageConfig{
			BasePath: cfg.Storage.BasePath,
			BaseURL:  cfg.Storage.BaseURL,
			Logger:   log,
		})
	case "s3":
		s3, err := storage.NewS3PDFStorage(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration))
		if err != nil {
			return nil, err
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		log.Info("Using S3 PDF archive", zap.String("bucket", s3.GetBucket()))
		return s3, nil
	default:
		return nil, nil
	}
}
