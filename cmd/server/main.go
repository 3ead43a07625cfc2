package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civicpulse/internal/config"
	"civicpulse/internal/db"
	"civicpulse/internal/logger"
	"civicpulse/internal/server"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadDotEnv(".env")
	cfg := config.Load()

	log := logger.New(cfg.Env)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := db.Open()
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		log.Error("database handle unavailable", "error", err)
		os.Exit(1)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeSeconds) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTimeSeconds) * time.Second)

	if err := db.Migrate(conn); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	srv := server.New(conn, cfg, log)
	if err := srv.StartSweeper(); err != nil {
		log.Error("sweeper failed to start", "error", err)
		os.Exit(1)
	}

	addr := ":8080"
	if env := os.Getenv("PORT"); env != "" {
		addr = ":" + env
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("civicpulse server listening", "addr", addr, "env", cfg.Env)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	srv.StopSweeper()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
	_ = sqlDB.Close()
}
