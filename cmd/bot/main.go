package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Pijatow/isocrates-bot/internal/app"
	"github.com/Pijatow/isocrates-bot/internal/chat"
	"github.com/Pijatow/isocrates-bot/internal/chat/telegram"
	"github.com/Pijatow/isocrates-bot/internal/clock"
	"github.com/Pijatow/isocrates-bot/internal/config"
	"github.com/Pijatow/isocrates-bot/internal/heartbeat"
	"github.com/Pijatow/isocrates-bot/internal/storage/postgres"
	"github.com/Pijatow/isocrates-bot/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("bot stopped", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		return err
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		return err
	}

	bot, err := telegram.New(cfg.BotToken, logger)
	if err != nil {
		return err
	}
	sender := chat.NewRetrySender(bot, cfg.MaxSendRetries, cfg.RetryBaseDelay, logger)

	clk := clock.NewSystem()
	eventRepo := postgres.NewEventRepository(pool)
	regRepo := postgres.NewRegistrationRepository(pool)
	discountRepo := postgres.NewDiscountRepository(pool)
	userRepo := postgres.NewUserRepository(pool)

	regSvc := app.NewRegistrationService(eventRepo, regRepo, discountRepo, sender, logger, cfg.AdminChatID)
	adminSvc := app.NewAdminService(eventRepo, discountRepo, regRepo, sender, logger, cfg.AdminUserIDs)
	userSvc := app.NewUserService(userRepo, regRepo, eventRepo, sender, logger, bot.Username())
	reminderSvc := app.NewReminderService(eventRepo, regRepo, sender, clk, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	beat := func(now time.Time) error {
		return heartbeat.Write(cfg.HeartbeatPath, now)
	}
	dispatcher := app.NewDispatcher(
		bot.Updates(ctx), sender,
		regSvc, adminSvc, userSvc, reminderSvc,
		beat, cfg.HeartbeatInterval, clk, logger,
	)

	logger.Info("bot running", "heartbeat", cfg.HeartbeatPath)
	err = dispatcher.Run(ctx)

	if errors.Is(err, chat.ErrNetworkDown) {
		// Stop beating so the watchdog relaunches a fresh process.
		if clearErr := heartbeat.Clear(cfg.HeartbeatPath); clearErr != nil {
			logger.Error("clear heartbeat", "error", clearErr)
		}
		return err
	}
	if errors.Is(err, context.Canceled) {
		logger.Info("shutdown signal received")
		return nil
	}
	return err
}
