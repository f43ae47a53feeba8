package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/tournament-bot/bot"
	"github.com/Dosada05/tournament-bot/config"
	"github.com/Dosada05/tournament-bot/db"
	"github.com/Dosada05/tournament-bot/handlers"
	"github.com/Dosada05/tournament-bot/realtime"
	"github.com/Dosada05/tournament-bot/repositories"
	"github.com/Dosada05/tournament-bot/routes"
	"github.com/Dosada05/tournament-bot/services"
	"github.com/Dosada05/tournament-bot/storage"
	"github.com/Dosada05/tournament-bot/telegram"
	"github.com/Dosada05/tournament-bot/utils"
)

const shutdownTimeout = 15 * time.Second

type repositorySet struct {
	tx            repositories.TxManager
	users         repositories.UserRepository
	tournaments   repositories.TournamentRepository
	teams         repositories.TeamRepository
	members       repositories.TeamMemberRepository
	conversations repositories.ConversationRepository
	pinger        handlers.Pinger
	close         func() error
}

func newServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot and the web editor API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireBotToken(); err != nil {
				logger.Error("invalid configuration", slog.Any("error", err))
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the database schema before start")
	return cmd
}

func openRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrate bool) (*repositorySet, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		store := repositories.NewMemoryStore()
		logger.Warn("using in-memory storage, data is lost on restart")
		return &repositorySet{
			tx:            store,
			users:         store.Users(),
			tournaments:   store.Tournaments(),
			teams:         store.Teams(),
			members:       store.Members(),
			conversations: store.Conversations(),
			close:         func() error { return nil },
		}, nil
	}

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("database connection established")
	if migrate {
		if err := db.Migrate(ctx, dbConn); err != nil {
			dbConn.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
		logger.Info("database schema applied")
	}
	return postgresRepositories(dbConn), nil
}

func postgresRepositories(dbConn *sql.DB) *repositorySet {
	return &repositorySet{
		tx:            repositories.NewPostgresTxManager(dbConn),
		users:         repositories.NewPostgresUserRepository(dbConn),
		tournaments:   repositories.NewPostgresTournamentRepository(dbConn),
		teams:         repositories.NewPostgresTeamRepository(dbConn),
		members:       repositories.NewPostgresTeamMemberRepository(dbConn),
		conversations: repositories.NewPostgresConversationRepository(dbConn),
		pinger:        dbConn,
		close:         dbConn.Close,
	}
}

func newUploader(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.FileUploader, error) {
	if !cfg.R2.Enabled() {
		logger.Info("Cloudflare R2 is not configured, roster export disabled")
		return nil, nil
	}
	uploader, err := storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2.AccountID,
		AccessKeyID:     cfg.R2.AccessKeyID,
		SecretAccessKey: cfg.R2.SecretAccessKey,
		BucketName:      cfg.R2.BucketName,
		PublicBaseURL:   cfg.R2.PublicBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
	}
	logger.Info("Cloudflare R2 uploader initialized")
	return uploader, nil
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrate bool) error {
	repos, err := openRepositories(ctx, cfg, logger, migrate)
	if err != nil {
		logger.Error("storage initialization failed", slog.Any("error", err))
		return err
	}
	defer func() {
		if err := repos.close(); err != nil {
			logger.Error("failed to close storage", slog.Any("error", err))
		}
	}()

	uploader, err := newUploader(ctx, cfg, logger)
	if err != nil {
		logger.Error("uploader initialization failed", slog.Any("error", err))
		return err
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Error("failed to connect to Telegram", slog.Any("error", err))
		return err
	}
	logger.Info("authorized on Telegram", slog.String("bot", api.Self.UserName))

	hub := realtime.NewHub(logger)
	transport := telegram.NewTransport(api)
	fanout := bot.NewFanout(transport, cfg.AdminGroupID, hub, logger)

	tokens := utils.NewWebAppTokens(cfg.WebAppJWTSecret, cfg.WebAppTokenTTL)
	admins := services.NewAdminGate(telegram.NewAdminChecker(api, cfg.AdminGroupID), logger)

	userService := services.NewUserService(repos.users, logger)
	teamService := services.NewTeamService(repos.tx, repos.users, repos.tournaments, repos.teams, repos.members, logger)
	tournamentService := services.NewTournamentService(repos.tournaments, teamService, logger)
	webFormService := services.NewWebFormService(tournamentService, admins, fanout, logger)
	exportService := services.NewExportService(teamService, uploader, logger)

	b := bot.New(transport, repos.conversations, bot.Services{
		Users:       userService,
		Teams:       teamService,
		Tournaments: tournamentService,
		WebForm:     webFormService,
		Export:      exportService,
		Admins:      admins,
	}, fanout, utils.WebAppLinker{BaseURL: cfg.WebAppURL, Tokens: tokens}, logger)

	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Handlers{
		WebApp:      handlers.NewWebAppHandler(webFormService, logger),
		Tournaments: handlers.NewTournamentHandler(tournamentService, logger),
		WebSocket:   handlers.NewWebSocketHandler(hub, tournamentService, cfg.CORSAllowedOrigins, logger),
		Health:      handlers.NewHealthHandler(repos.pinger, logger),
	}, tokens, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return bot.NewSweeper(repos.conversations, cfg.ConversationIdleTimeout, logger).Run(gctx) })
	g.Go(func() error {
		logger.Info("starting update polling")
		return telegram.NewPoller(api, logger).Run(gctx, b.HandleEvent)
	})
	g.Go(func() error {
		logger.Info("starting server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			return server.Close()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("application stopped with error", slog.Any("error", err))
		return err
	}
	logger.Info("application exited")
	return nil
}
