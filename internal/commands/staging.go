package commands

import (
	"github.com/spf13/cobra"

	"github.com/ericy3/lightweightGit/internal/repository"
)

const (
	addUseConstant                 = "add <path>"
	addShortDescriptionConstant    = "Stage a working file for the next commit"
	removeUseConstant              = "rm <path>"
	removeShortDescriptionConstant = "Unstage a file or stage its removal"
	removeLongDescriptionConstant  = "rm drops a staged addition, or stages the removal of a tracked file and deletes it from the working directory."
)

// AddCommandBuilder assembles the add command.
type AddCommandBuilder struct {
	Environment Environment
}

// Build constructs the add command.
func (builder *AddCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   addUseConstant,
		Short: addShortDescriptionConstant,
		Args:  exactOperands(1),
		RunE:  builder.run,
	}, nil
}

func (builder *AddCommandBuilder) run(command *cobra.Command, arguments []string) error {
	return builder.Environment.mutate(command, arguments, func(opened *repository.Repository) error {
		head, headError := opened.Worktree.Head()
		if headError != nil {
			return headError
		}
		return opened.Staging.StageAdd(head, arguments[0])
	})
}

// RemoveCommandBuilder assembles the rm command.
type RemoveCommandBuilder struct {
	Environment Environment
}

// Build constructs the rm command.
func (builder *RemoveCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   removeUseConstant,
		Short: removeShortDescriptionConstant,
		Long:  removeLongDescriptionConstant,
		Args:  exactOperands(1),
		RunE:  builder.run,
	}, nil
}

func (builder *RemoveCommandBuilder) run(command *cobra.Command, arguments []string) error {
	return builder.Environment.mutate(command, arguments, func(opened *repository.Repository) error {
		head, headError := opened.Worktree.Head()
		if headError != nil {
			return headError
		}
		return opened.Staging.StageRemove(head, arguments[0])
	})
}
