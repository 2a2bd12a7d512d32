package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = rootOpts.cfg.MigrationsPath
			}
			f := rootOpts.formatter(cmd)
			changed, err := rootOpts.migrate(rootOpts.DatabaseURL, path, rootOpts.logger)
			if err != nil {
				return f.Error(err)
			}
			return f.Success(map[string]bool{"applied": changed}, func(w io.Writer) error {
				if changed {
					_, err := fmt.Fprintln(w, "Migrations applied.")
					return err
				}
				_, err := fmt.Fprintln(w, "Schema already up to date.")
				return err
			})
		},
	}
	cmd.Flags().StringVar(&path, "migrations", "", "migrations source URL (defaults to MIGRATIONS_PATH)")
	return cmd
}
