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

	"github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/application"
	appanalysis "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/application/analysis"
	appusers "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/application/users"
	"github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/auth"
	"github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/config"
	domanalysis "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/domain/analysis"
	domusers "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/domain/users"
	aiclient "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/infra/ai/openai"
	mysqlp "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/infra/db/mysql"
	postgresp "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/infra/db/postgres"
	"github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/infra/httpserver"
	"github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/infra/localstore"
	"github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/infra/pdf"
	minioStore "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/infra/storage"
	"github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// pick persistence backend
	var (
		history domanalysis.Repository
		creds   domusers.Repository
		prefs   domusers.PreferenceRepository
		db      *sql.DB
	)
	switch cfg.Storage.Driver {
	case "local":
		store, err := localstore.New(cfg.Storage.Dir)
		if err != nil {
			log.Fatalf("localstore init error: %v", err)
		}
		history = localstore.NewHistoryRepository(store)
		creds = localstore.NewCredentialRepository(store)
		prefs = localstore.NewPreferenceRepository(store)
	case "mysql":
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		history = mysqlp.NewHistoryRepository(db)
		userRepo := mysqlp.NewUserRepository(db)
		creds, prefs = userRepo, userRepo
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		history = postgresp.NewHistoryRepository(db)
		userRepo := postgresp.NewUserRepository(db)
		creds, prefs = userRepo, userRepo
	default:
		log.Fatalf("unknown storage driver: %s", cfg.Storage.Driver)
	}
	if db != nil {
		defer db.Close()
	}

	// init minio (optional; without it source images stay inline)
	var artifacts domanalysis.ArtifactStore
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

	tokens := auth.NewManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLH)*time.Hour)

	// init services
	analysisSvc := &appanalysis.Service{
		Repo:       history,
		Rasterizer: pdf.NewRasterizer(),
		Extractor:  aiclient.NewClient(cfg.AI.APIKey, cfg.AI.Model),
		Artifacts:  artifacts,
		Clock:      application.SystemClock{},
	}
	usersSvc := &appusers.Service{
		Creds:  creds,
		Prefs:  prefs,
		Tokens: tokens,
		Clock:  application.SystemClock{},
	}

	health := map[string]middleware.HealthChecker{}
	if db != nil {
		health["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}

	handler := httpserver.NewRouter(analysisSvc, usersSvc, httpserver.Options{
		Tokens:  tokens,
		Limiter: middleware.NewPerMinuteRateLimiter(cfg.Limits.AnalyzePerMinute),
		Health:  health,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second, // extraction round-trip runs inside the request
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
