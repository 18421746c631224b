// cmd/registry-server/main.go
package main

import (
	"context"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"prompt-registry/internal/common/config"
	"prompt-registry/internal/common/database"
	"prompt-registry/internal/common/logger"
	"prompt-registry/internal/common/observability"
	"prompt-registry/internal/prompt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("failed to load configuration", zap.Error(err))
	}

	zlog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zlog.Sync()
	log := logger.NewZapAdapter(zlog)

	log.Info("starting prompt registry", map[string]interface{}{
		"name":        cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		log.Error("failed to open postgres", map[string]interface{}{"error": err})
		os.Exit(1)
	}
	defer pg.Close()

	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		log.Error("failed to open redis", map[string]interface{}{"error": err})
		os.Exit(1)
	}
	defer rdb.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pg.Ping(pingCtx); err != nil {
		log.Error("postgres ping failed", map[string]interface{}{"error": err})
		os.Exit(1)
	}
	if err := rdb.Ping(pingCtx); err != nil {
		// Cache outages degrade to direct reads; startup proceeds.
		log.Warn("redis ping failed, cache will degrade to direct reads", map[string]interface{}{
			"error": err,
		})
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	repo := prompt.NewRepository(pg.GetDB(), log)
	cache := prompt.NewCache(rdb.GetClient(), cfg.Cache, log)
	store := prompt.NewStore(repo, cache, cfg.Cache, log, obs)

	// One-shot warm-up, off the critical startup path. A warming failure
	// is logged, never fatal.
	go func() {
		time.Sleep(cfg.Cache.WarmDelay())
		warmCtx, cancelWarm := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancelWarm()

		report, err := store.WarmCache(warmCtx, nil)
		if err != nil {
			log.Warn("cache warm-up failed", map[string]interface{}{"error": err})
			return
		}
		for _, failure := range report.Failed {
			log.Warn("template failed to warm", map[string]interface{}{
				"name":  failure.Name,
				"error": failure.Error,
			})
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pg.Ping(ctx); err != nil {
			http.Error(w, "postgres unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: mux,
	}

	go func() {
		log.Info("http listener started", map[string]interface{}{"address": cfg.Server.Address})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http listener failed", map[string]interface{}{"error": err})
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down", nil)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", map[string]interface{}{"error": err})
	}
}
