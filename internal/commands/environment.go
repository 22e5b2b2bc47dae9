package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ericy3/lightweightGit/internal/failures"
	"github.com/ericy3/lightweightGit/internal/repository"
	"github.com/ericy3/lightweightGit/internal/utils"
)

const (
	commandStartedMessageConstant  = "command started"
	commandFinishedMessageConstant = "command finished"
	logFieldCommandConstant        = "command"
	logFieldArgumentsConstant      = "arguments"
	logFieldPersistedConstant      = "persisted"
	logFieldConfigFileConstant     = "config_file"
	logFieldRepositoryConstant     = "repository"
)

// LoggerProvider yields a zap logger instance.
type LoggerProvider func() *zap.Logger

// OptionsProvider yields the repository options resolved from configuration.
type OptionsProvider func() repository.Options

// Environment carries the collaborators shared by every command builder.
type Environment struct {
	LoggerProvider  LoggerProvider
	OptionsProvider OptionsProvider
}

// Builder constructs one command.
type Builder interface {
	Build() (*cobra.Command, error)
}

func (environment Environment) resolveLogger() *zap.Logger {
	if environment.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := environment.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (environment Environment) resolveOptions() repository.Options {
	options := repository.Options{}
	if environment.OptionsProvider != nil {
		options = environment.OptionsProvider()
	}
	if options.Logger == nil {
		options.Logger = environment.resolveLogger()
	}
	return options
}

// mutate opens the repository, runs action, and saves all state on success.
func (environment Environment) mutate(command *cobra.Command, arguments []string, action func(*repository.Repository) error) error {
	return environment.execute(command, arguments, true, action)
}

// inspect opens the repository and runs action without persisting anything.
func (environment Environment) inspect(command *cobra.Command, arguments []string, action func(*repository.Repository) error) error {
	return environment.execute(command, arguments, false, action)
}

func (environment Environment) execute(command *cobra.Command, arguments []string, persist bool, action func(*repository.Repository) error) error {
	logger := environment.resolveLogger()
	invocation, _ := utils.NewInvocationContext().From(command.Context())
	logger.Debug(
		commandStartedMessageConstant,
		zap.String(logFieldCommandConstant, command.Name()),
		zap.Strings(logFieldArgumentsConstant, arguments),
		zap.String(logFieldConfigFileConstant, invocation.ConfigurationFilePath),
		zap.String(logFieldRepositoryConstant, invocation.RepositoryRoot),
	)

	opened, openError := repository.Open(environment.resolveOptions())
	if openError != nil {
		return openError
	}
	if actionError := action(opened); actionError != nil {
		return actionError
	}
	if persist {
		if saveError := opened.Save(); saveError != nil {
			return saveError
		}
	}

	logger.Debug(commandFinishedMessageConstant, zap.String(logFieldCommandConstant, command.Name()), zap.Bool(logFieldPersistedConstant, persist))
	return nil
}

// exactOperands rejects any operand count other than expected with IncorrectOperands.
func exactOperands(expected int) cobra.PositionalArgs {
	return func(command *cobra.Command, arguments []string) error {
		if len(arguments) != expected {
			return failures.New(failures.KindIncorrectOperands)
		}
		return nil
	}
}
