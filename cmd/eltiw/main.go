// Package main запускает HTTP-сервер сервиса ELTIW.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/eltiw/internal/config"
	"github.com/mmeshcher/eltiw/internal/handler"
	"github.com/mmeshcher/eltiw/internal/middleware"
	"github.com/mmeshcher/eltiw/internal/notify"
	"github.com/mmeshcher/eltiw/internal/repository"
	"github.com/mmeshcher/eltiw/internal/service"
	"github.com/mmeshcher/eltiw/internal/statecodec"
)

func main() {
	decimal.MarshalJSONWithoutQuotes = true

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := openRepository(cfg)
	if err != nil {
		sugar.Fatalw("storage initialization error", "error", err.Error())
	}

	codecOpts := statecodec.Options{Compress: cfg.EnableCompression}
	if cfg.EnableEncryption {
		codecOpts.Passphrase = cfg.StatePassphrase
	}
	codec, err := statecodec.New(codecOpts, nil)
	if err != nil {
		sugar.Fatalw("state codec initialization error", "error", err.Error())
	}

	mailer := notify.NewClient(notify.Config{
		APIKey:  cfg.ResendAPIKey,
		BaseURL: cfg.ResendBaseURL,
		From:    cfg.EmailFrom,
	}, logger)
	if !mailer.Configured() {
		sugar.Warn("RESEND_API_KEY is not set, e-mail snapshots are disabled")
	}

	svc := service.NewService(repo, codec,
		service.WithLogger(logger),
		service.WithNotifier(mailer),
		service.WithPublicURL(cfg.PublicURL),
	)
	defer svc.Close()

	if cfg.DefaultCookieSecret() {
		sugar.Warn("COOKIE_SECRET is not set, using built-in key")
	}
	authMiddleware := middleware.NewAuthMiddleware(cfg.CookieSecret)
	h := handler.NewHandler(svc, logger, authMiddleware)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting eltiw server",
			"addr", cfg.RunAddress,
			"compression", cfg.EnableCompression,
			"encryption", cfg.EnableEncryption,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}

// openRepository выбирает PostgreSQL, если задан DATABASE_URI, иначе локальный файл SQLite.
func openRepository(cfg *config.Config) (service.Repository, error) {
	if cfg.DatabaseURI != "" {
		return repository.NewPostgresRepository(cfg.DatabaseURI)
	}
	return repository.NewSQLiteRepository(cfg.SQLitePath)
}
