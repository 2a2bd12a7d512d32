// Package cli implements ledgerctl, the operator command line for maintenance tasks.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/asso7/concert_ledger/internal/platform/config"
	"github.com/asso7/concert_ledger/pkg/database"
	"github.com/spf13/cobra"
)

// defaultActor is recorded in audit fields for changes made from the command line.
const defaultActor = "ledgerctl"

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// MigrateFunc applies the schema migrations and reports whether anything changed.
type MigrateFunc func(databaseURL, migrationsPath string, logger *slog.Logger) (bool, error)

// RootOptions holds global flags and the collaborators shared by every command.
type RootOptions struct {
	DatabaseURL string
	Format      string
	Actor       string
	Verbose     bool

	cfg     *config.Config
	logger  *slog.Logger
	connect Connector
	migrate MigrateFunc
}

// Option customises the root command, mostly for tests.
type Option func(*RootOptions)

// WithConnector replaces the database-backed runtime.
func WithConnector(c Connector) Option {
	return func(o *RootOptions) { o.connect = c }
}

// WithMigrator replaces the migration runner.
func WithMigrator(m MigrateFunc) Option {
	return func(o *RootOptions) { o.migrate = m }
}

// WithConfig skips loading configuration from the environment.
func WithConfig(cfg *config.Config) Option {
	return func(o *RootOptions) { o.cfg = cfg }
}

// NewRootCommand creates the ledgerctl root command.
func NewRootCommand(options ...Option) *cobra.Command {
	opts := &RootOptions{
		connect: DefaultConnector,
		migrate: database.RunMigrations,
	}
	for _, apply := range options {
		apply(opts)
	}

	cmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Concert ledger maintenance",
		Long:  "Operator tools for the concert ledger: migrations, recomputes, settlements, statements and imports.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.cfg == nil {
				cfg, err := config.LoadConfig()
				if err != nil {
					return err
				}
				opts.cfg = cfg
			}
			if opts.DatabaseURL == "" {
				opts.DatabaseURL = opts.cfg.DatabaseURL
			}
			opts.logger = newLogger(cmd.ErrOrStderr(), opts)
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.DatabaseURL, "database-url", "", "PostgreSQL URL (defaults to PGSQL_URL)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Actor, "actor", defaultActor, "name recorded as the author of changes")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging on stderr")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewRecomputeCommand(opts))
	cmd.AddCommand(NewSettleCommand(opts))
	cmd.AddCommand(NewUnsettleCommand(opts))
	cmd.AddCommand(NewStatementCommand(opts))
	cmd.AddCommand(NewImportMembersCommand(opts))
	cmd.AddCommand(NewCreateOperatorCommand(opts))

	return cmd
}

func newLogger(w io.Writer, opts *RootOptions) *slog.Logger {
	level := opts.cfg.SlogLevel()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}
