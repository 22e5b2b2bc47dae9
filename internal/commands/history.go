package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericy3/lightweightGit/internal/failures"
	"github.com/ericy3/lightweightGit/internal/repository"
)

const (
	commitUseConstant                 = "commit <message>"
	commitShortDescriptionConstant    = "Record the staged changes as a new commit"
	logUseConstant                    = "log"
	logShortDescriptionConstant       = "Show the first-parent history of HEAD"
	globalLogUseConstant              = "global-log"
	globalLogShortDescriptionConstant = "Show every commit ever made"
	findUseConstant                   = "find <message>"
	findShortDescriptionConstant      = "Print the ids of commits with the given message"
)

// CommitCommandBuilder assembles the commit command.
type CommitCommandBuilder struct {
	Environment Environment
}

// Build constructs the commit command.
func (builder *CommitCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   commitUseConstant,
		Short: commitShortDescriptionConstant,
		Args:  commitOperands,
		RunE:  builder.run,
	}, nil
}

// commitOperands reports a missing message as EmptyMessage, not IncorrectOperands.
func commitOperands(command *cobra.Command, arguments []string) error {
	switch len(arguments) {
	case 0:
		return failures.New(failures.KindEmptyMessage)
	case 1:
		return nil
	default:
		return failures.New(failures.KindIncorrectOperands)
	}
}

func (builder *CommitCommandBuilder) run(command *cobra.Command, arguments []string) error {
	return builder.Environment.mutate(command, arguments, func(opened *repository.Repository) error {
		_, commitError := opened.History.Commit(arguments[0])
		return commitError
	})
}

// LogCommandBuilder assembles the log command.
type LogCommandBuilder struct {
	Environment Environment
}

// Build constructs the log command.
func (builder *LogCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   logUseConstant,
		Short: logShortDescriptionConstant,
		Args:  exactOperands(0),
		RunE:  builder.run,
	}, nil
}

func (builder *LogCommandBuilder) run(command *cobra.Command, arguments []string) error {
	return builder.Environment.inspect(command, arguments, func(opened *repository.Repository) error {
		rendered, logError := opened.History.Log()
		if logError != nil {
			return logError
		}
		fmt.Fprint(command.OutOrStdout(), rendered)
		return nil
	})
}

// GlobalLogCommandBuilder assembles the global-log command.
type GlobalLogCommandBuilder struct {
	Environment Environment
}

// Build constructs the global-log command.
func (builder *GlobalLogCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   globalLogUseConstant,
		Short: globalLogShortDescriptionConstant,
		Args:  exactOperands(0),
		RunE:  builder.run,
	}, nil
}

func (builder *GlobalLogCommandBuilder) run(command *cobra.Command, arguments []string) error {
	return builder.Environment.inspect(command, arguments, func(opened *repository.Repository) error {
		fmt.Fprint(command.OutOrStdout(), opened.History.GlobalLog())
		return nil
	})
}

// FindCommandBuilder assembles the find command.
type FindCommandBuilder struct {
	Environment Environment
}

// Build constructs the find command.
func (builder *FindCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   findUseConstant,
		Short: findShortDescriptionConstant,
		Args:  exactOperands(1),
		RunE:  builder.run,
	}, nil
}

func (builder *FindCommandBuilder) run(command *cobra.Command, arguments []string) error {
	return builder.Environment.inspect(command, arguments, func(opened *repository.Repository) error {
		found, findError := opened.History.Find(arguments[0])
		if findError != nil {
			return findError
		}
		fmt.Fprint(command.OutOrStdout(), found)
		return nil
	})
}
