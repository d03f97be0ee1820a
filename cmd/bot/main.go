package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"butler_bot/internal/bot"
	"butler_bot/internal/calendar"
	"butler_bot/internal/camera"
	"butler_bot/internal/config"
	"butler_bot/internal/scheduler"
	"butler_bot/internal/store"
)

// The flag reset runs unconditionally every morning, after any overnight
// collection has happened.
var resetTime = config.ClockTime{Hour: 10}

func main() {
	_ = godotenv.Load()

	log := newLogger(os.Getenv("LOG_LEVEL"))

	cfgStore, err := store.OpenConfig(envOr("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}
	cfg := cfgStore.Config()

	schedule, err := calendar.Load(envOr("CALENDAR_PATH", "waste_calendar.ics"), cfg.SelectedTrashCans)
	if err != nil {
		log.Error("load waste calendar", "error", err)
		os.Exit(1)
	}

	watchlist, err := store.OpenWatchlist(envOr("WATCHLIST_PATH", "watchlist.yaml"))
	if err != nil {
		log.Error("load watchlist", "error", err)
		os.Exit(1)
	}

	cam := camera.New(cfg.CameraUser, cfg.CameraIP, cfg.CameraRemotePath, cfg.CameraLocalPath, log)

	b, err := bot.New(cfg.Token, cfgStore, watchlist, schedule, cam, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	sched := scheduler.New(cfg.Location(), log)
	snooze := cfg.SnoozeTime.Duration()
	sched.Once("startup-notice", 5*time.Second, b.StartupNotice)
	sched.Daily("trash-check", cfg.TrashMsgTime, b.DailyTrashCheck)
	sched.Daily("trash-reminder-1", cfg.TrashMsgTime.Add(snooze), b.TrashReminder)
	sched.Daily("trash-reminder-2", cfg.TrashMsgTime.Add(2*snooze), b.TrashReminder)
	sched.Daily("trash-reset", resetTime, b.ResetTrashFlag)
	sched.Daily("birthday-check", cfg.BirthdayMsgTime, b.DailyBirthdayCheck)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting bot", "collection_days", schedule.Len())

	go sched.Run(ctx)

	b.Run(ctx)

	log.Info("bot stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
