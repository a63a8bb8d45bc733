package cli

import (
	"study-portal/internal/app"
	"study-portal/internal/config"
	"study-portal/internal/observability"

	"github.com/spf13/cobra"
)

// NewRecomputeRanksCmd renumbers every user's rank once and refreshes the
// leaderboard cache.
func NewRecomputeRanksCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute-ranks",
		Short: "Recompute global ranks and refresh the leaderboard cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := observability.NewLogger(cfg.Log.Level)

			b, err := openBackends(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer b.close()

			keeper := app.NewRankKeeper(b.store, b.cache, cfg.Leaderboard.Size, logger)
			if err := keeper.Refresh(cmd.Context()); err != nil {
				return err
			}
			logger.Info("ranks recomputed")
			return nil
		},
	}
}
