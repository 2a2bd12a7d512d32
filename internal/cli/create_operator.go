package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/asso7/concert_ledger/internal/dto"
	"github.com/spf13/cobra"
)

// NewCreateOperatorCommand creates the create-operator command.
func NewCreateOperatorCommand(rootOpts *RootOptions) *cobra.Command {
	var req dto.CreateOperatorRequest
	cmd := &cobra.Command{
		Use:   "create-operator",
		Short: "Create an operator account for the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Username == "" || req.Email == "" || req.Password == "" {
				return errors.New("--username, --email and --password are required")
			}
			f := rootOpts.formatter(cmd)
			return rootOpts.withRuntime(cmd, func(ctx context.Context, rt *Runtime) error {
				operator, err := rt.Services.Operator.CreateOperator(ctx, req, rootOpts.Actor)
				if err != nil {
					return f.Error(err)
				}
				return f.Success(operator, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Operator %s created (%s)\n", operator.Username, operator.OperatorID)
					return err
				})
			})
		},
	}
	cmd.Flags().StringVar(&req.Username, "username", "", "login name")
	cmd.Flags().StringVar(&req.Email, "email", "", "email used for Google sign-in")
	cmd.Flags().StringVar(&req.Password, "password", "", "password, at least 8 characters")
	return cmd
}
