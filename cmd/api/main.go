package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/anihan/farm-assist/internal/assist"
	"github.com/anihan/farm-assist/internal/config"
	"github.com/anihan/farm-assist/internal/db"
	apphttp "github.com/anihan/farm-assist/internal/http"
	"github.com/anihan/farm-assist/internal/kb"
	"github.com/anihan/farm-assist/internal/llm"
	"github.com/anihan/farm-assist/internal/logger"
	"github.com/anihan/farm-assist/internal/meteo"
	"github.com/anihan/farm-assist/internal/openstat"
	"github.com/anihan/farm-assist/internal/techniques"
)

func main() {
	ctx := context.Background()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	var techStore techniques.Store
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()
		techStore = techniques.NewPGStore(pool)
	} else {
		log.Warn("DATABASE_URL not set, techniques will use the built-in catalog")
	}

	var priceOpts []openstat.Option
	if cfg.OpenstatBaseURL != "" {
		priceOpts = append(priceOpts, openstat.WithBaseURL(cfg.OpenstatBaseURL))
	}
	priceClient := openstat.NewClient(log, priceOpts...)

	var meteoOpts []meteo.Option
	if cfg.OpenmeteoBaseURL != "" {
		meteoOpts = append(meteoOpts, meteo.WithBaseURL(cfg.OpenmeteoBaseURL))
	}
	weatherClient := meteo.NewClient(meteoOpts...)

	store := kb.NewFileStore(cfg.KBPath)
	engine := kb.NewEngine(store, kb.NewBuilder(cfg.GuidesDir, store, log))

	var model assist.ModelClient
	if cfg.ModelProvider == "gemini" {
		gemini, err := llm.NewGeminiClient(ctx)
		if err != nil {
			log.Fatal("failed to init Gemini client", zap.Error(err))
		}
		model = gemini
	} else {
		model = llm.NewQwenClient(cfg.DashscopeAPIKey)
	}

	service := assist.NewService(
		priceClient,
		weatherClient,
		techniques.NewFetcher(techStore, log),
		engine,
		model,
		log,
	)

	h := apphttp.NewHandler(service, engine)
	router := apphttp.NewRouter(h, log)

	addr := ":" + cfg.Port
	log.Info("API listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
