package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericy3/lightweightGit/internal/repository"
)

const (
	branchUseConstant                    = "branch <name>"
	branchShortDescriptionConstant       = "Create a branch pointing at HEAD"
	removeBranchUseConstant              = "rm-branch <name>"
	removeBranchShortDescriptionConstant = "Delete a branch pointer"
	mergeUseConstant                     = "merge <branch>"
	mergeShortDescriptionConstant        = "Merge a branch into the current branch"
	mergeLongDescriptionConstant         = "merge combines the given branch with the current branch relative to their split point, fast-forwarding when possible and writing conflict markers into files changed differently on both sides."
)

// BranchCommandBuilder assembles the branch command.
type BranchCommandBuilder struct {
	Environment Environment
}

// Build constructs the branch command.
func (builder *BranchCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   branchUseConstant,
		Short: branchShortDescriptionConstant,
		Args:  exactOperands(1),
		RunE:  builder.run,
	}, nil
}

func (builder *BranchCommandBuilder) run(command *cobra.Command, arguments []string) error {
	return builder.Environment.mutate(command, arguments, func(opened *repository.Repository) error {
		return opened.Refs.CreateBranch(arguments[0])
	})
}

// RemoveBranchCommandBuilder assembles the rm-branch command.
type RemoveBranchCommandBuilder struct {
	Environment Environment
}

// Build constructs the rm-branch command.
func (builder *RemoveBranchCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   removeBranchUseConstant,
		Short: removeBranchShortDescriptionConstant,
		Args:  exactOperands(1),
		RunE:  builder.run,
	}, nil
}

func (builder *RemoveBranchCommandBuilder) run(command *cobra.Command, arguments []string) error {
	return builder.Environment.mutate(command, arguments, func(opened *repository.Repository) error {
		return opened.Refs.DeleteBranch(arguments[0])
	})
}

// MergeCommandBuilder assembles the merge command.
type MergeCommandBuilder struct {
	Environment Environment
}

// Build constructs the merge command.
func (builder *MergeCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   mergeUseConstant,
		Short: mergeShortDescriptionConstant,
		Long:  mergeLongDescriptionConstant,
		Args:  exactOperands(1),
		RunE:  builder.run,
	}, nil
}

func (builder *MergeCommandBuilder) run(command *cobra.Command, arguments []string) error {
	return builder.Environment.mutate(command, arguments, func(opened *repository.Repository) error {
		result, mergeError := opened.Merge.Merge(arguments[0])
		if mergeError != nil {
			return mergeError
		}
		if notice := result.Notice(); len(notice) > 0 {
			fmt.Fprintln(command.OutOrStdout(), notice)
		}
		return nil
	})
}
