package command

import (
	"hrty-backend/internal/repository"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.close()

		return repository.Migrate(ctx, a.db, a.logger)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
