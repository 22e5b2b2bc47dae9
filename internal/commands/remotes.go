package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ericy3/lightweightGit/internal/repository"
)

const (
	addRemoteUseConstant                 = "add-remote <name> <directory>"
	addRemoteShortDescriptionConstant    = "Register a named remote repository directory"
	addRemoteLongDescriptionConstant     = "add-remote records a name for another repository's marker directory. Forward slashes in the directory are converted to the platform separator. Nothing is transferred."
	removeRemoteUseConstant              = "rm-remote <name>"
	removeRemoteShortDescriptionConstant = "Forget a registered remote"
)

// AddRemoteCommandBuilder assembles the add-remote command.
type AddRemoteCommandBuilder struct {
	Environment Environment
}

// Build constructs the add-remote command.
func (builder *AddRemoteCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   addRemoteUseConstant,
		Short: addRemoteShortDescriptionConstant,
		Long:  addRemoteLongDescriptionConstant,
		Args:  exactOperands(2),
		RunE:  builder.run,
	}, nil
}

func (builder *AddRemoteCommandBuilder) run(command *cobra.Command, arguments []string) error {
	return builder.Environment.mutate(command, arguments, func(opened *repository.Repository) error {
		return opened.Refs.AddRemote(arguments[0], filepath.FromSlash(arguments[1]))
	})
}

// RemoveRemoteCommandBuilder assembles the rm-remote command.
type RemoveRemoteCommandBuilder struct {
	Environment Environment
}

// Build constructs the rm-remote command.
func (builder *RemoveRemoteCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   removeRemoteUseConstant,
		Short: removeRemoteShortDescriptionConstant,
		Args:  exactOperands(1),
		RunE:  builder.run,
	}, nil
}

func (builder *RemoveRemoteCommandBuilder) run(command *cobra.Command, arguments []string) error {
	return builder.Environment.mutate(command, arguments, func(opened *repository.Repository) error {
		return opened.Refs.RemoveRemote(arguments[0])
	})
}
