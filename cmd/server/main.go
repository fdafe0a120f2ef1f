// Package main initializes and starts the TMSITI portal API server,
// setting up configuration, logging, the database, rate limiting,
// repositories, services and handlers.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/tmsiti/backend/internal/auth"
	"github.com/tmsiti/backend/internal/config"
	"github.com/tmsiti/backend/internal/db"
	"github.com/tmsiti/backend/internal/logger"
	"github.com/tmsiti/backend/internal/ratelimit"
	"github.com/tmsiti/backend/internal/repository"
	"github.com/tmsiti/backend/internal/security"
	"github.com/tmsiti/backend/internal/server/handler/http"
	"github.com/tmsiti/backend/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(cfg.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, dialect, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer conn.Close()
	zapLogger.Info("database ready", zap.String("dialect", string(dialect)))

	hasher := security.NewHasher(cfg.BcryptCost)
	tokens, err := security.NewTokenService(cfg.SecretKey, cfg.Algorithm, cfg.TokenTTL())
	if err != nil {
		zapLogger.Fatal("cannot init token service", zap.Error(err))
	}

	if err := db.Seed(ctx, conn,
		db.DefaultUsers(cfg.SeedAdminPassword, cfg.SeedEditorPassword),
		db.DefaultMenu(),
		hasher.Hash,
		zapLogger,
	); err != nil {
		zapLogger.Fatal("failed to seed database", zap.Error(err))
	}

	policies, err := ratelimit.ParsePolicies(map[ratelimit.Class]string{
		ratelimit.ClassLogin:    cfg.RateLimitLogin,
		ratelimit.ClassRegister: cfg.RateLimitRegister,
		ratelimit.ClassWrite:    cfg.RateLimitWrite,
		ratelimit.ClassRead:     cfg.RateLimitRead,
	})
	if err != nil {
		zapLogger.Fatal("invalid rate limit policy", zap.Error(err))
	}

	var store ratelimit.Store = ratelimit.NewMemoryStore()
	if cfg.RateLimitStore == "database" {
		store = ratelimit.NewSQLStore(conn)
		if cfg.RateLimitCleanupInterval > 0 {
			cleaner := &db.RateLimitCleaner{DB: conn, Retention: policies.MaxWindow(), Log: zapLogger}
			cleaner.Start(ctx, cfg.RateLimitCleanupInterval)
		}
	}
	limiter := ratelimit.New(store, policies, ratelimit.WithLogger(zapLogger))

	// Initialize repositories.
	users := repository.NewUserRepository(conn)
	menu := repository.NewMenuRepository(conn)
	categories := repository.NewCategoryRepository(conn)
	documents := repository.NewDocumentRepository(conn)

	// Create HTTP handlers backed by the business-logic services.
	handlers := http.Handlers{
		Auth:       &http.AuthHandler{AuthService: service.NewAuthService(users, hasher, tokens, zapLogger), Log: zapLogger},
		Menu:       &http.MenuHandler{MenuService: service.NewMenuService(menu, zapLogger), Log: zapLogger},
		Categories: &http.CategoryHandler{CategoryService: service.NewCategoryService(categories, zapLogger), Log: zapLogger},
		Documents:  &http.DocumentHandler{DocumentService: service.NewDocumentService(documents, zapLogger), Log: zapLogger},
		Users:      &http.UserHandler{UserService: service.NewUserService(users, zapLogger), Log: zapLogger},
		Health:     &http.HealthHandler{DB: conn, Log: zapLogger},
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(handlers, http.RouterConfig{
		Limiter:           limiter,
		Authenticator:     auth.NewGuard(tokens, users),
		AllowedHosts:      cfg.AllowedHosts,
		FrontendURL:       cfg.FrontendURL,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		RequestTimeout:    cfg.RequestTimeout,
	}, zapLogger)

	server := &nethttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if cfg.TLSCertFile != "" {
			zapLogger.Info("starting HTTPS server", zap.String("addr", cfg.Addr))
			errCh <- server.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		zapLogger.Info("starting HTTP server", zap.String("addr", cfg.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
