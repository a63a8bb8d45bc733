package cli

import (
	"log/slog"

	"study-portal/internal/config"
	"study-portal/internal/observability"

	"github.com/spf13/cobra"
)

// NewGrantAdminCmd gives an existing account the admin role.
func NewGrantAdminCmd(configPath *string) *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "grant-admin <email>",
		Short: "Grant the admin role to an existing account",
		Args:  cobra.ExactArgs(1),
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

			user, err := b.store.FindUserByEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := b.store.GrantAdmin(cmd.Context(), user.ID, role); err != nil {
				return err
			}
			logger.Info("admin granted", slog.String("user_id", user.ID), slog.String("role", role))
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "admin", "role to grant")
	return cmd
}
