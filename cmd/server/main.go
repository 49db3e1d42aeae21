package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbops/stockroom/internal/auth"
	"github.com/mbops/stockroom/internal/config"
	"github.com/mbops/stockroom/internal/domain/catalog"
	"github.com/mbops/stockroom/internal/domain/requests"
	"github.com/mbops/stockroom/internal/domain/users"
	"github.com/mbops/stockroom/internal/infra/db"
	httpx "github.com/mbops/stockroom/internal/infra/http"
	"github.com/mbops/stockroom/internal/infra/logger"
	"github.com/mbops/stockroom/internal/infra/notify"
	"github.com/mbops/stockroom/internal/session"
	"github.com/mbops/stockroom/internal/web"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func runMigrations(dsn string, log *slog.Logger) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func main() {
	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	if err := runMigrations(cfg.Postgres.DSN, log); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	tokens := auth.NewTokenService(cfg.Auth.Secret, time.Duration(cfg.Auth.SessionTTLHours)*time.Hour)

	notifier, err := notify.New(cfg.Telegram.Token, cfg.Telegram.PurchasingChatID, log)
	if err != nil {
		log.Error("telegram notifier init failed", "err", err)
		return
	}
	if notifier != nil {
		log.Info("completion notifications enabled", "chat_id", cfg.Telegram.PurchasingChatID)
	}

	handler := web.New(
		log,
		catalog.NewRepo(pool),
		users.NewRepo(pool),
		requests.NewService(requests.NewPgStore(pool)),
		session.NewRepo(pool),
		tokens,
		notifier,
	)

	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, handler.Routes())
	go func() {
		if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
