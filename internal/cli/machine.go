package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/machinist/internal/machine"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	MachineID string
	Meta      []string
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <schematic-name>",
		Short: "Create a machine instance from a stored schematic",
		Long: `Create a machine instance from a schematic previously stored by name.
The machine starts in the schematic's initial state at commit number 0.

Example:
  machinist create Door --id m1 --meta owner=alice`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			metadata, err := parseMetadata(opts.Meta)
			if err != nil {
				return WrapExitError(ExitCommandError, "parse --meta", err)
			}

			r, store, err := openRepository(rootOpts)
			if err != nil {
				return err
			}
			defer store.Close()

			view, err := r.CreateFromName(cmd.Context(), args[0], opts.MachineID, metadata)
			if err != nil {
				return mapRepoError(err, "create machine")
			}

			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.StatusView(view)
		},
	}

	cmd.Flags().StringVar(&opts.MachineID, "id", "", "machine id (random UUID when omitted)")
	cmd.Flags().StringArrayVar(&opts.Meta, "meta", nil, "metadata entry as key=value (repeatable)")

	return cmd
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status <machine-id>",
		Short:         "Show the current status of a machine",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, store, err := openRepository(rootOpts)
			if err != nil {
				return err
			}
			defer store.Close()

			view, err := r.GetStatus(cmd.Context(), args[0])
			if err != nil {
				return mapRepoError(err, "get status")
			}

			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.StatusView(view)
		},
	}
}

// SetStateOptions holds flags for the set-state command.
type SetStateOptions struct {
	*RootOptions
	Expect int64
}

// NewSetStateCommand creates the set-state command.
func NewSetStateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SetStateOptions{RootOptions: rootOpts, Expect: -1}

	cmd := &cobra.Command{
		Use:   "set-state <machine-id> <state>",
		Short: "Set a machine's state with optimistic concurrency control",
		Long: `Set a machine's state. With --expect, the mutation only applies when the
stored commit number still matches; a conflict means another writer got there
first - re-read the status and retry.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, store, err := openRepository(rootOpts)
			if err != nil {
				return err
			}
			defer store.Close()

			var expected *int64
			if opts.Expect >= 0 {
				expected = &opts.Expect
			}

			view, err := r.SetState(cmd.Context(), args[0], args[1], expected)
			if err != nil {
				return mapRepoError(err, "set state")
			}

			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.StatusView(view)
		},
	}

	cmd.Flags().Int64Var(&opts.Expect, "expect", -1, "expected commit number (omit to skip the token check)")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <machine-id>",
		Short: "Delete a machine instance",
		Long: `Delete a machine instance. Deleting an unknown id is a no-op; the
referenced schematic is never deleted.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, store, err := openRepository(rootOpts)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := r.Delete(cmd.Context(), args[0]); err != nil {
				return mapRepoError(err, "delete machine")
			}

			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Message("deleted machine " + args[0])
		},
	}
}

// parseMetadata converts repeated key=value flags into machine metadata.
func parseMetadata(entries []string) (machine.Metadata, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	metadata := make(machine.Metadata, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata entry %q: want key=value", entry)
		}
		metadata[key] = value
	}
	return metadata, nil
}
