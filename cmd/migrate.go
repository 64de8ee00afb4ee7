package cmd

import (
	"duo-journal-backend/internal/migrations"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := migrations.Up(ctx, db, cfg.Database.Schema)
			if err != nil {
				return err
			}

			log.Info().Int("applied", applied).Msg("Migrations complete")
			return nil
		},
	}
}
