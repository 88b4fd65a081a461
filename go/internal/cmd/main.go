package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/escapekit/escapekit/go/clients/escapp"
	"github.com/escapekit/escapekit/go/internal/notify"
	"github.com/escapekit/escapekit/go/internal/reconcile"
	"github.com/escapekit/escapekit/go/internal/session"
	"github.com/escapekit/escapekit/go/internal/store"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file loaded")
	}

	configPath := getEnv("ESCAPEKIT_CONFIG", "escapekit.yaml")
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("failed to load config")
	}

	st, err := store.Open(store.Config{
		Path:      getEnv("ESCAPEKIT_STORE_PATH", cfg.StorePath),
		Namespace: cfg.Namespace,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open local store")
	}
	defer st.Close()

	client := escapp.NewClient(escapp.Config{
		Endpoint: cfg.Endpoint,
		Locale:   cfg.Locale,
	})

	notifier := notify.NewLimited(consoleNotifier{}, notify.LimiterConfig{
		PerMinute: cfg.Notifications.PerMinute,
		Burst:     cfg.Notifications.Burst,
	})

	sess, err := session.New(session.Config{
		Endpoint:         cfg.Endpoint,
		PushURL:          cfg.PushURL,
		EscapeRoomID:     cfg.EscapeRoomID,
		Namespace:        cfg.Namespace,
		Locale:           cfg.Locale,
		RestoreMode:      reconcile.RestoreMode(cfg.RestoreMode),
		TeamName:         cfg.TeamName,
		CountdownEnabled: cfg.CountdownEnabled,
	}, st, client, newConsoleDialogs(), notifier, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create session")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snap, err := sess.Validate(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("validation failed")
	}
	log.Info().
		Int("solved", len(snap.SolvedPuzzles)).
		Float64("progress", snap.ProgressPercent).
		Msg("session ready")

	if cfg.PushURL != "" {
		channel, err := sess.ConnectPush(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect push channel")
		}
		if err := channel.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("push channel terminated")
		}
		return
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")
}
