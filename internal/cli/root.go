// Package cli implements the zraster command line interface.
package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	zarr "github.com/qri-io/zarr-raster"
	"github.com/qri-io/zarr-raster/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config is loaded from ConfigPath before any subcommand runs
	Config *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the zraster CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "zraster",
		Short: "zraster - out of core raster processing",
		Long: `Create, transform and filter large rasters stored as chunked zarr arrays.

Rasters live in a zarr group inside a memory, local directory or sqlite
store chosen by the config file. Operations stream through rasters a slice
at a time and write their results to new rasters in the same group.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			cfg, err := config.LoadConfig(opts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "loading config", err)
			}
			opts.Config = cfg

			lvl, err := cfg.LogLevel()
			if err != nil {
				return WrapExitError(ExitCommandError, "loading config", err)
			}
			if opts.Verbose {
				lvl = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl})))
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "zraster.yaml", "config file")

	// Add subcommands
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewInfoCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewCombineCommand(opts))
	cmd.AddCommand(NewFilterCommand(opts))
	cmd.AddCommand(NewPyramidCommand(opts))
	cmd.AddCommand(NewLowPassCommand(opts))
	cmd.AddCommand(NewNoiseCommand(opts))
	cmd.AddCommand(NewDrawCommand(opts))

	return cmd
}

// session is the state a subcommand runs with: the configured raster group
// and an output formatter bound to the command's writers
type session struct {
	opts  *RootOptions
	group *zarr.Group
	out   *OutputFormatter
	close func() error
}

func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	g, closeStore, err := opts.Config.OpenGroup()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "opening store", err)
	}
	return &session{
		opts:  opts,
		group: g,
		close: closeStore,
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}, nil
}

// run opens a session, calls fn with it and closes it again
func run(opts *RootOptions, cmd *cobra.Command, fn func(s *session) error) (err error) {
	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); cerr != nil && err == nil {
			err = WrapExitError(ExitCommandError, "closing store", cerr)
		}
	}()
	return fn(s)
}
