package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/revisions"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/store"
)

// RootOptions holds global settings for all commands, resolved from
// flags, MCR_* environment variables and the optional config file.
type RootOptions struct {
	ConfigFile string
	DB         string
	Dialect    string
	Debug      bool
	Verbose    bool
	Format     string // "json" | "text"

	config *viper.Viper
	logger zerolog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the mcr CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{config: viper.New(), logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:   "mcr",
		Short: "Managed care contract and rate revisions",
		Long: `Record contract and rate revisions, submit and unlock them, and
reconstruct the linked history of either side.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.load(cmd.ErrOrStderr()); err != nil {
				return err
			}
			cmd.SetContext(opts.logger.WithContext(commandContext(cmd)))
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.ConfigFile, "config", "", "config file (yaml)")
	pf.String("db", "mcr.db", "database path (sqlite) or connection string (postgres)")
	pf.String("dialect", string(store.DialectSQLite), "database dialect (sqlite|postgres)")
	pf.BoolP("debug", "d", false, "debug log output")
	pf.BoolP("verbose", "v", false, "verbose output")
	pf.String("format", "text", "output format (json|text)")

	for _, name := range []string{"db", "dialect", "debug", "verbose", "format"} {
		_ = opts.config.BindPFlag(name, pf.Lookup(name))
	}
	opts.config.SetEnvPrefix("MCR")
	opts.config.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	opts.config.AutomaticEnv()

	cmd.AddCommand(NewInsertCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewSubmitCommand(opts))
	cmd.AddCommand(NewUnlockCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// load reads the config file, resolves settings and configures logging.
func (o *RootOptions) load(stderr io.Writer) error {
	if o.ConfigFile != "" {
		o.config.SetConfigFile(o.ConfigFile)
		if err := o.config.ReadInConfig(); err != nil {
			return WrapExitError(ExitCommandError, "failed to read config", err)
		}
	}

	o.DB = o.config.GetString("db")
	o.Dialect = o.config.GetString("dialect")
	o.Debug = o.config.GetBool("debug")
	o.Verbose = o.config.GetBool("verbose")
	o.Format = o.config.GetString("format")

	if !slices.Contains(ValidFormats, o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}
	switch store.Dialect(o.Dialect) {
	case store.DialectSQLite, store.DialectPostgres:
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid dialect %q: must be sqlite or postgres", o.Dialect))
	}

	level := zerolog.WarnLevel
	switch {
	case o.Debug:
		level = zerolog.DebugLevel
	case o.Verbose:
		level = zerolog.InfoLevel
	}
	o.logger = zerolog.New(zerolog.ConsoleWriter{Out: stderr}).Level(level).With().Timestamp().Logger()
	if used := o.config.ConfigFileUsed(); used != "" {
		o.logger.Debug().Str("file", used).Msg("using config file")
	}
	return nil
}

// formatter returns an OutputFormatter for cmd's writers.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// openService opens the configured store. The returned func closes it.
func (o *RootOptions) openService(ctx context.Context, opts ...revisions.Option) (*revisions.Service, func(), error) {
	st, err := store.OpenConfig(ctx, store.Config{Dialect: store.Dialect(o.Dialect), DSN: o.DB})
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	svc, err := revisions.New(st, opts...)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return svc, func() {
		if err := st.Close(); err != nil {
			o.logger.Warn().Err(err).Msg("close database")
		}
	}, nil
}

// fail reports err in the configured format and returns it with its exit
// code attached.
func (o *RootOptions) fail(cmd *cobra.Command, err error) error {
	_ = o.formatter(cmd).ReportError(err)
	return &ExitError{Code: GetExitCode(err), Message: "command failed", Err: err, Reported: true}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
