package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kevinaaaquil/poems/backend/config"
	"github.com/kevinaaaquil/poems/backend/handlers"
	"github.com/kevinaaaquil/poems/backend/logging"
	"github.com/kevinaaaquil/poems/backend/session"
	"github.com/kevinaaaquil/poems/backend/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fatal(logging.New(os.Stdout, "info", "json"), "config", err)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		fatal(logger, "config", err)
	}

	ctx := context.Background()
	db, err := store.Open(ctx, cfg.DatabaseURL, cfg.MongoDB)
	if err != nil {
		fatal(logger, "store", err)
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			logger.Warn(ctx, "store close", "error", err)
		}
	}()
	logger.Info(ctx, "store ready", "backend", backendName(cfg.DatabaseURL))

	sessions := session.NewManager([]byte(cfg.JWTSecret), cfg.JWTTTL, session.WithSecureCookies(cfg.CookieSecure))

	router := handlers.NewRouter(handlers.RouterConfig{
		Store:            db,
		Sessions:         sessions,
		Logger:           logger,
		CORSOrigin:       cfg.CORSOrigin,
		AdminRoleRefresh: cfg.AdminRoleRefresh,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info(ctx, "server listening", "addr", server.Addr, "session_ttl", cfg.JWTTTL.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "listen", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "shutdown", "error", err)
	}
}

func backendName(dsn string) string {
	if strings.HasPrefix(dsn, "mongodb") {
		return "mongodb"
	}
	return "postgres"
}

func fatal(l *logging.ZerologLogger, what string, err error) {
	z := l.Zerolog()
	z.Fatal().Err(err).Msg(what)
}
