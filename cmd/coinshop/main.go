package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JinFuuMugen/coinshop/config"
	"github.com/JinFuuMugen/coinshop/internal/api"
	"github.com/JinFuuMugen/coinshop/internal/logger"
	"github.com/JinFuuMugen/coinshop/internal/resolver"
	"github.com/JinFuuMugen/coinshop/internal/session"
	"github.com/JinFuuMugen/coinshop/internal/storage"
	"github.com/JinFuuMugen/coinshop/internal/workflow"
)

func main() {
	if err := logger.InitLogger(); err != nil {
		log.Fatalf("cannot init custom logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.LoadCoinshopConfig()
	if err != nil {
		logger.Fatalf("cannot load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var lookup resolver.AccountLookup = resolver.Echo{}
	if cfg.DatabaseURI != "" {
		if err := storage.RunMigrations(cfg.DatabaseURI); err != nil {
			logger.Fatalf("cannot migrate database: %v", err)
		}

		db, err := storage.New(ctx, cfg.DatabaseURI)
		if err != nil {
			logger.Fatalf("cannot init database: %v", err)
		}
		defer db.Close()
		lookup = db
	} else {
		logger.Warnf("no database configured, every handle resolves")
	}

	flowCfg := workflow.Config{
		CoinRate:       cfg.CoinRate,
		MaxCoins:       cfg.MaxCoins,
		DebounceDelay:  cfg.LookupDebounce,
		LookupLatency:  cfg.LookupLatency,
		PaymentLatency: cfg.PaymentLatency,
		CountdownStart: cfg.CountdownStart,
	}
	flowLog := logger.With("component", "workflow")

	sessions := session.NewManager(func() *workflow.Controller {
		return workflow.New(flowCfg, workflow.Deps{Lookup: lookup, Logger: flowLog})
	}, nil, cfg.SessionTTL)
	defer sessions.Close()

	go session.Janitor(ctx, sessions, session.JanitorInterval)

	srv := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: api.InitRouter(sessions, []byte(cfg.SessionSecret)),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("cannot shut server down: %v", err)
		}
	}()

	logger.Infof("server starting at %s", cfg.RunAddress)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("cannot start server: %v", err)
	}
}
