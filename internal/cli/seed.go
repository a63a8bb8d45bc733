package cli

import (
	"fmt"
	"log/slog"
	"time"

	"study-portal/internal/app"
	"study-portal/internal/config"
	"study-portal/internal/infra/memory"
	"study-portal/internal/infra/postgres"
	redisinfra "study-portal/internal/infra/redis"
	"study-portal/internal/observability"

	"github.com/spf13/cobra"
)

// NewSeedQuizCmd stores the built-in daily quiz in Postgres so it can be
// edited in place, and drops any cached copy.
func NewSeedQuizCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-quiz",
		Short: "Store the built-in daily quiz in Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			logger := observability.NewLogger(cfg.Log.Level)

			b, err := openBackends(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer b.close()

			quiz := app.DailyQuiz()
			loader := postgres.NewQuizLoader(b.pool)
			if err := loader.SaveQuiz(cmd.Context(), quiz); err != nil {
				return err
			}
			if b.redisClient != nil {
				cache := redisinfra.NewQuizRepository(b.redisClient, memory.NewStaticQuizLoader(), time.Minute)
				if err := cache.Invalidate(cmd.Context(), quiz.ID); err != nil {
					return err
				}
			}
			logger.Info("quiz seeded", slog.String("quiz_id", quiz.ID), slog.Int("questions", len(quiz.Questions)))
			return nil
		},
	}
}
