package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dosada05/tournament-bot/config"
	"github.com/Dosada05/tournament-bot/db"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tournament-bot",
		Short:         "Telegram bot for player registration and tournament team sign-up",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		logger := newLogger(slog.LevelInfo)
		logger.Error("failed to load configuration", slog.Any("error", err))
		return nil, nil, err
	}
	return cfg, newLogger(cfg.LogLevel), nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.StorageDriver != config.StorageDriverPostgres {
				return fmt.Errorf("migrate requires STORAGE_DRIVER=%s", config.StorageDriverPostgres)
			}

			dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
			if err != nil {
				logger.Error("failed to connect to database", slog.Any("error", err))
				return err
			}
			defer dbConn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := db.Migrate(ctx, dbConn); err != nil {
				logger.Error("migration failed", slog.Any("error", err))
				return err
			}
			logger.Info("database schema applied")
			return nil
		},
	}
}
