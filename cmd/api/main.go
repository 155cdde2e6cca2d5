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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/dealersite/api/internal/app/migrate"
	"github.com/dealersite/api/internal/dnsx"
	httpx "github.com/dealersite/api/internal/http"
	"github.com/dealersite/api/internal/repository/postgres"
	"github.com/dealersite/api/internal/service/auth"
	"github.com/dealersite/api/internal/service/dnsscan"
	"github.com/dealersite/api/internal/service/lead"
	"github.com/dealersite/api/internal/service/onboarding"
	"github.com/dealersite/api/internal/service/propagation"
	"github.com/dealersite/api/internal/service/verify"
	"github.com/dealersite/api/internal/ws"
	"github.com/dealersite/api/pkg/config"
	"github.com/dealersite/api/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadAPIConfig()
	log := logger.New("api", logger.LevelFromString(config.GetString("LOG_LEVEL", "info")))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)
	hub := ws.NewHub()
	resolver := dnsx.NewResolver(cfg.DNSLookupTimeout)

	authSvc := auth.New(repo, log, cfg)
	verifier := verify.NewVerifier(resolver, nil, log, cfg.HTMLFetchTimeout)
	scanner := dnsscan.NewScanner(resolver, log)
	checker := propagation.NewChecker(resolver, log)
	onboardingSvc := onboarding.New(repo, verifier, scanner, checker, hub, log, cfg.PlatformServingIP, cfg.VerificationTTL)
	leadSvc := lead.New(repo, log)

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(log, authSvc, onboardingSvc, leadSvc, hub, limiter, pool.Ping)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr, "env", cfg.Environment)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
