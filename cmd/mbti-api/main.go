package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"mbti/internal/api"
	"mbti/internal/cache/memory"
	"mbti/internal/cache/redis"
	"mbti/internal/config"
	"mbti/internal/domain"
	"mbti/internal/model"
	"mbti/internal/service"
	"mbti/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/mbti/config.yaml if not provided)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// The server never starts without a valid artifact.
	artifact, err := model.Load(cfg.Artifact.Path)
	if err != nil {
		log.Fatalf("load model artifact: %v", err)
	}
	predictor, err := service.NewPredictor(artifact, cfg.Server.MinTextLength)
	if err != nil {
		log.Fatalf("init predictor: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cache domain.PredictionCache
	switch cfg.Cache.Type {
	case "none", "":
	case "memory":
		cache = memory.NewCache(time.Duration(cfg.Cache.TTLSecs)*time.Second, cfg.Cache.MaxEntries)
	case "redis":
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		rc, err := redis.NewCache(dialCtx, redis.Config{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			TTL:      time.Duration(cfg.Cache.TTLSecs) * time.Second,
		})
		cancel()
		if err != nil {
			log.Fatalf("redis cache init failed: %v", err)
		}
		defer rc.Close()
		cache = rc
	default:
		log.Fatalf("unknown cache: %s", cfg.Cache.Type)
	}

	var store domain.ResultStore
	switch cfg.Store.Type {
	case "none", "":
	case "postgres":
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		db, err := postgres.NewDB(dialCtx, cfg.Store.Postgres.URL)
		if err != nil {
			cancel()
			log.Fatalf("postgres init failed: %v", err)
		}
		repo := postgres.NewResultRepo(db)
		err = repo.Migrate(dialCtx)
		cancel()
		if err != nil {
			log.Fatalf("postgres migrate failed: %v", err)
		}
		defer db.Close()
		store = repo
	default:
		log.Fatalf("unknown store: %s", cfg.Store.Type)
	}

	svc := service.NewMBTIService(predictor, cache, store, logger)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewServer(svc, logger).Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("mbti api listening on %s model=%s cache=%s store=%s", cfg.Server.Addr, artifact.ModelID, cfg.Cache.Type, cfg.Store.Type)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
