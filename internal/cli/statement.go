package cli

import (
	"context"
	"io"
	"time"

	"github.com/asso7/concert_ledger/internal/dto"
	"github.com/spf13/cobra"
)

// NewStatementCommand creates the statement command.
func NewStatementCommand(rootOpts *RootOptions) *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "statement",
		Short: "Print the account statement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date := time.Now()
			if asOf != "" {
				parsed, err := dto.ParseDate(asOf)
				if err != nil {
					return err
				}
				date = parsed.Time
			}

			f := rootOpts.formatter(cmd)
			return rootOpts.withRuntime(cmd, func(ctx context.Context, rt *Runtime) error {
				statement, err := rt.Services.Statement.GetStatement(ctx, date)
				if err != nil {
					return f.Error(err)
				}
				return f.Success(statement, func(w io.Writer) error { return RenderStatement(w, statement) })
			})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "statement date, YYYY-MM-DD (defaults to today)")
	return cmd
}
