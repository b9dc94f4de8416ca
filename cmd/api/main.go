package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/lmittmann/tint"

	appdocs "github.com/bryanwahyu/docutrust/internal/application/documents"
	"github.com/bryanwahyu/docutrust/internal/config"
	domain "github.com/bryanwahyu/docutrust/internal/domain/documents"
	"github.com/bryanwahyu/docutrust/internal/domain/revsearch"
	openaiClient "github.com/bryanwahyu/docutrust/internal/infra/ai/openai"
	"github.com/bryanwahyu/docutrust/internal/infra/analysis/extract"
	"github.com/bryanwahyu/docutrust/internal/infra/analysis/format"
	"github.com/bryanwahyu/docutrust/internal/infra/analysis/imagecheck"
	memcache "github.com/bryanwahyu/docutrust/internal/infra/cache"
	mysqlp "github.com/bryanwahyu/docutrust/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/docutrust/internal/infra/db/postgres"
	"github.com/bryanwahyu/docutrust/internal/infra/httpserver"
	"github.com/bryanwahyu/docutrust/internal/infra/search"
	minioStore "github.com/bryanwahyu/docutrust/internal/infra/storage"
	"github.com/bryanwahyu/docutrust/internal/middleware"
)

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		TimeFormat: time.Kitchen,
	})))

	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("config load error", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// connect DB sesuai driver
	var (
		db   *sql.DB
		repo domain.Repository
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			slog.Error("postgres connect error", "err", err)
			os.Exit(1)
		}
		repo = postgresp.NewArchiveRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			slog.Error("mysql connect error", "err", err)
			os.Exit(1)
		}
		repo = mysqlp.NewArchiveRepository(db)
	}
	defer db.Close()

	// init minio (optional audit artifacts)
	var artifacts domain.ReportStore
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			slog.Error("minio init error", "err", err)
			os.Exit(1)
		}
		artifacts = store
	}

	// optional collaborators
	var assessor *openaiClient.Client
	if cfg.Assessor.APIKey != "" {
		assessor = openaiClient.NewClient(cfg.Assessor.APIKey, cfg.Assessor.Model)
	}
	var searcher revsearch.Searcher
	if cfg.ReverseSearch.Endpoint != "" {
		searcher = search.NewClient(cfg.ReverseSearch.Endpoint, cfg.ReverseSearch.APIKey,
			time.Duration(cfg.ReverseSearch.TimeoutSeconds)*time.Second)
	}

	clock := domain.SystemClock{}
	cache := memcache.New(time.Duration(cfg.Engine.CacheTTLHours)*time.Hour, 0, clock)

	// init service
	svc := &appdocs.Service{
		Repo:           repo,
		Cache:          cache,
		Extractor:      extract.New(),
		Format:         format.NewInspector(cfg.Engine),
		Image:          imagecheck.NewAnalyzer(cfg.Engine),
		Artifacts:      artifacts,
		Search:         searcher,
		Clock:          clock,
		Fingerprinter:  appdocs.NewFingerprinter(cfg.Engine.MaxUploadMiB),
		AssessTimeout:  time.Duration(cfg.Assessor.TimeoutSeconds) * time.Second,
		SearchTimeout:  time.Duration(cfg.ReverseSearch.TimeoutSeconds) * time.Second,
		ArchiveTimeout: time.Duration(cfg.Engine.ArchiveTimeoutSeconds) * time.Second,
		ArchiveRetries: cfg.Engine.ArchiveRetries,
	}
	if assessor != nil {
		svc.Assessor = assessor
	}

	// init router
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.LoggingMiddleware)
	if len(cfg.Auth.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	}
	mux.Use(middleware.RateLimitMiddleware(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate))
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Get("/health/deep", middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	}))
	mux.Mount("/", httpserver.NewRouter(svc))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	slog.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		slog.Warn("shutdown error", "err", err)
	}
}
