package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/machinist/internal/kv"
	"github.com/roach88/machinist/internal/repo"
)

// openRepository opens the configured database and wraps it in a repository.
// The caller must Close the returned store.
func openRepository(opts *RootOptions) (*repo.Repository, *kv.SQLite, error) {
	store, err := kv.OpenSQLite(opts.DBPath)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "open database", err)
	}
	return repo.New(store, repo.WithLogger(opts.Logger())), store, nil
}

// mapRepoError assigns exit codes to repository error kinds: conflicts and
// missing records are operation failures, bad arguments are command errors.
func mapRepoError(err error, message string) error {
	switch {
	case err == nil:
		return nil
	case repo.IsInvalidArgument(err):
		return WrapExitError(ExitCommandError, message, err)
	default:
		return WrapExitError(ExitFailure, message, err)
	}
}

// NewSchematicCommand creates the schematic command group.
func NewSchematicCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schematic",
		Short: "Store and inspect state-machine schematics",
	}
	cmd.AddCommand(newSchematicStoreCommand(rootOpts))
	cmd.AddCommand(newSchematicShowCommand(rootOpts))
	return cmd
}

func newSchematicStoreCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "store <file>",
		Short: "Store a schematic from a .cue or .yaml file",
		Long: `Store a schematic definition under its name, overwriting any
previously stored schematic with the same name (last write wins).

Example:
  machinist schematic store door.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := LoadSchematic(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "load schematic", err)
			}

			r, store, err := openRepository(rootOpts)
			if err != nil {
				return err
			}
			defer store.Close()

			stored, err := r.StoreByName(cmd.Context(), s)
			if err != nil {
				return mapRepoError(err, "store schematic")
			}

			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Message("stored schematic " + stored.Name)
		},
	}
}

func newSchematicShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <name>",
		Short:         "Show a stored schematic",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, store, err := openRepository(rootOpts)
			if err != nil {
				return err
			}
			defer store.Close()

			s, err := r.RetrieveByName(cmd.Context(), args[0])
			if err != nil {
				return mapRepoError(err, "show schematic")
			}

			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Schematic(s)
		},
	}
}
