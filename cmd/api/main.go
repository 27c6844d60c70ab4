package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalysis "github.com/codeiq-dev/codeiq/internal/application/analysis"
	"github.com/codeiq-dev/codeiq/internal/application/indexing"
	appqa "github.com/codeiq-dev/codeiq/internal/application/qa"
	"github.com/codeiq-dev/codeiq/internal/application/summary"
	"github.com/codeiq-dev/codeiq/internal/config"
	domain "github.com/codeiq-dev/codeiq/internal/domain/analysis"
	openaiclient "github.com/codeiq-dev/codeiq/internal/infra/ai/openai"
	"github.com/codeiq-dev/codeiq/internal/infra/collector"
	mysqlp "github.com/codeiq-dev/codeiq/internal/infra/db/mysql"
	postgresp "github.com/codeiq-dev/codeiq/internal/infra/db/postgres"
	"github.com/codeiq-dev/codeiq/internal/infra/httpserver"
	minioStore "github.com/codeiq-dev/codeiq/internal/infra/storage"
	"github.com/codeiq-dev/codeiq/internal/infra/structural"
	"github.com/codeiq-dev/codeiq/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect database
	var db *sql.DB
	var repo domain.Repository
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		repo = postgresp.NewRunRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		repo = mysqlp.NewRunRepository(db)
	}
	defer db.Close()

	// init minio (optional)
	var artifacts appanalysis.ArtifactStore
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
			log.Fatalf("minio init error: %v", err)
		}
		artifacts = store
	}

	// init AI client
	client := openaiclient.NewClient(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.EmbedModel, cfg.AI.EmbedDim)

	// init structural analyzer
	analyzer := structural.NewAnalyzer()
	if cfg.Analysis.ComplexityThreshold > 0 {
		analyzer.ComplexityThreshold = cfg.Analysis.ComplexityThreshold
	}
	if !structural.IsAvailable() {
		log.Println("structural analysis unavailable in this build, agent reviews only")
	}

	// init pipeline
	tracker := appanalysis.NewTracker()
	coordinator := appanalysis.NewCoordinator(analyzer, appanalysis.DefaultSpecialists(client), tracker)
	if cfg.AI.MaxInFlight > 0 {
		coordinator.MaxInFlight = cfg.AI.MaxInFlight
	}
	if cfg.AI.CallTimeoutSeconds > 0 {
		coordinator.CallTimeout = time.Duration(cfg.AI.CallTimeoutSeconds) * time.Second
	}

	indexer := indexing.NewBuilder(client)
	if cfg.Index.ChunkSize > 0 {
		indexer.ChunkSize = cfg.Index.ChunkSize
	}
	if cfg.Index.ChunkOverlap > 0 {
		indexer.Overlap = cfg.Index.ChunkOverlap
	}
	if cfg.Index.BatchSize > 0 {
		indexer.BatchSize = cfg.Index.BatchSize
	}
	registry := indexing.NewRegistry()

	// init service
	svc := &appanalysis.Service{
		Repo:        repo,
		Collector:   collector.New(cfg.Analysis.MaxFileKB, cfg.Analysis.MaxFiles),
		Coordinator: coordinator,
		Indexer:     indexer,
		Indexes:     registry,
		Synth:       summary.New(client),
		Artifacts:   artifacts,
		Tracker:     tracker,
		Clock:       appanalysis.SystemClock{},
	}
	qaSvc := appqa.New(registry, client, client)

	// init router
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate))
	if len(cfg.Auth.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	}

	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Get("/health/live", middleware.LivenessHandler)
	mux.Get("/health/ready", middleware.ReadinessHandler)
	mux.Get("/health/full", middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
		"structural": middleware.Optional{Checker: middleware.CheckerFunc(func(ctx context.Context) error {
			if !structural.IsAvailable() {
				return fmt.Errorf("built without cgo")
			}
			return nil
		})},
	}))
	mux.Mount("/", httpserver.NewRouter(svc, qaSvc))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
