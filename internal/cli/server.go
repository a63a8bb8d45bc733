package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"study-portal/internal/app"
	"study-portal/internal/auth"
	"study-portal/internal/config"
	"study-portal/internal/observability"
	transport "study-portal/internal/transport/http"

	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the portal API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg.Log.Level)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.close()

	users, err := auth.NewService(b.store, b.denylist, auth.Options{
		Secret:     cfg.Auth.Secret,
		TokenTTL:   config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour),
		BcryptCost: cfg.Auth.BcryptCost,
	})
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	ranks := app.NewRankKeeper(b.store, b.cache, cfg.Leaderboard.Size, logger)
	stats := app.NewStatsService(b.store, ranks, b.cache, loc)
	services := transport.Services{
		Auth:   users,
		Forum:  app.NewForumService(b.store, stats),
		Stats:  stats,
		Quiz:   app.NewDailyQuizService(b.quizzes, b.attempts, stats, config.TTLDuration(cfg.Quiz.TimeLimit, 5*time.Minute), logger),
		Issues: app.NewIssueService(b.store),
		Ranks:  ranks,
	}

	runCtx, stopRanks := context.WithCancel(ctx)
	defer stopRanks()
	if err := ranks.Refresh(runCtx); err != nil {
		logger.Warn("initial rank recompute failed", slog.Any("err", err))
	}
	go ranks.Run(runCtx, config.TTLDuration(cfg.Leaderboard.Debounce, 500*time.Millisecond))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(services, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting study portal", slog.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", slog.Any("err", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
