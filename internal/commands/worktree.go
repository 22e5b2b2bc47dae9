package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericy3/lightweightGit/internal/failures"
	"github.com/ericy3/lightweightGit/internal/repository"
)

const (
	statusUseConstant                = "status"
	statusShortDescriptionConstant   = "Show branches, staged changes, and working-tree differences"
	checkoutUseConstant              = "checkout [<commit>] -- <path> | checkout <branch>"
	checkoutShortDescriptionConstant = "Restore a file or switch branches"
	checkoutLongDescriptionConstant  = "checkout -- <path> restores path from HEAD, checkout <commit> -- <path> restores it from the named commit, and checkout <branch> replaces the working tree with the branch tip."
	checkoutExampleConstant          = "lwgit checkout -- notes.txt\nlwgit checkout 3f9a1c -- notes.txt\nlwgit checkout feature"
	resetUseConstant                 = "reset <commit>"
	resetShortDescriptionConstant    = "Move the current branch to a commit and restore its files"
)

// StatusCommandBuilder assembles the status command.
type StatusCommandBuilder struct {
	Environment Environment
}

// Build constructs the status command.
func (builder *StatusCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   statusUseConstant,
		Short: statusShortDescriptionConstant,
		Args:  exactOperands(0),
		RunE:  builder.run,
	}, nil
}

func (builder *StatusCommandBuilder) run(command *cobra.Command, arguments []string) error {
	return builder.Environment.inspect(command, arguments, func(opened *repository.Repository) error {
		status, statusError := opened.Worktree.Status()
		if statusError != nil {
			return statusError
		}
		fmt.Fprint(command.OutOrStdout(), status.Render())
		return nil
	})
}

// CheckoutCommandBuilder assembles the checkout command in its three forms.
type CheckoutCommandBuilder struct {
	Environment Environment
}

// Build constructs the checkout command.
func (builder *CheckoutCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:     checkoutUseConstant,
		Short:   checkoutShortDescriptionConstant,
		Long:    checkoutLongDescriptionConstant,
		Example: checkoutExampleConstant,
		Args:    cobra.ArbitraryArgs,
		RunE:    builder.run,
	}, nil
}

func (builder *CheckoutCommandBuilder) run(command *cobra.Command, arguments []string) error {
	dashPosition := command.ArgsLenAtDash()
	switch {
	case dashPosition == 0 && len(arguments) == 1:
		return builder.Environment.mutate(command, arguments, func(opened *repository.Repository) error {
			return opened.Worktree.CheckoutPathFromHead(arguments[0])
		})
	case dashPosition == 1 && len(arguments) == 2:
		return builder.Environment.mutate(command, arguments, func(opened *repository.Repository) error {
			return opened.Worktree.CheckoutPathFromCommit(arguments[0], arguments[1])
		})
	case dashPosition < 0 && len(arguments) == 1:
		return builder.Environment.mutate(command, arguments, func(opened *repository.Repository) error {
			return opened.Worktree.CheckoutBranch(arguments[0])
		})
	default:
		return failures.New(failures.KindIncorrectOperands)
	}
}

// ResetCommandBuilder assembles the reset command.
type ResetCommandBuilder struct {
	Environment Environment
}

// Build constructs the reset command.
func (builder *ResetCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   resetUseConstant,
		Short: resetShortDescriptionConstant,
		Args:  exactOperands(1),
		RunE:  builder.run,
	}, nil
}

func (builder *ResetCommandBuilder) run(command *cobra.Command, arguments []string) error {
	return builder.Environment.mutate(command, arguments, func(opened *repository.Repository) error {
		return opened.Worktree.Reset(arguments[0])
	})
}
