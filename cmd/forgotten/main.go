package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"forgotten/internal/bot"
	"forgotten/internal/config"
	"forgotten/internal/media"
	"forgotten/internal/repository"
	"forgotten/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config: Failed to load", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		fatal("db: Failed to open", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	store := repository.NewStore(db)
	if err := store.Initialize(ctx); err != nil {
		fatal("db: Failed to initialize schema", err)
	}

	mediaStore, err := media.NewFileStore(cfg.MediaPath)
	if err != nil {
		fatal("media: Failed to open store", err)
	}

	reminders := service.NewReminderService(store, mediaStore)

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		fatal("bot: Failed to connect to Telegram", err)
	}
	slog.Info("bot: Authorized", "account", api.Self.UserName)

	worker := service.NewDeliveryWorker(service.DeliveryWorkerConfig{
		Reminders: reminders,
		Messenger: bot.NewMessenger(api),
		Media:     mediaStore,
		Logger:    logger.With("component", "delivery"),
	})

	scheduler := service.NewSchedulerService(cfg.Location, logger.With("component", "scheduler"))
	if _, err := scheduler.ScheduleInterval(cfg.SweepInterval, func() {
		worker.Sweep(ctx)
	}); err != nil {
		fatal("scheduler: Failed to schedule sweep", err)
	}
	// Catch up on reminders that fell due while the bot was offline.
	worker.Sweep(ctx)

	scheduler.Start()
	defer scheduler.Stop()

	telegramBot := bot.New(api, reminders, mediaStore, bot.Options{
		OwnerID:  cfg.OwnerID,
		Location: cfg.Location,
	})

	slog.Info("Forgotten bot started", "sweep_interval", cfg.SweepInterval, "owner_configured", cfg.OwnerID > 0)
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fatal("bot: Stopped with error", err)
	}
	slog.Info("Shutdown complete")
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
