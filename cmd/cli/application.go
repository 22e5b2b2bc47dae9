package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ericy3/lightweightGit/internal/commands"
	"github.com/ericy3/lightweightGit/internal/failures"
	"github.com/ericy3/lightweightGit/internal/repository"
	"github.com/ericy3/lightweightGit/internal/utils"
)

const (
	applicationNameConstant                 = "lwgit"
	applicationShortDescriptionConstant     = "A lightweight local version-control system"
	applicationLongDescriptionConstant      = "lwgit snapshots the files of a working directory into content-addressed commits, supports branches, and merges them three ways."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	repositoryFlagNameConstant              = "repository"
	repositoryFlagUsageConstant             = "Working directory that holds the repository (defaults to the current directory)."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	repositoryConfigurationKeyConstant      = "repository"
	repositoryDirectoryConfigKeyConstant    = repositoryConfigurationKeyConstant + ".directory_name"
	repositoryBranchConfigKeyConstant       = repositoryConfigurationKeyConstant + ".default_branch"
	repositoryTimeZoneConfigKeyConstant     = repositoryConfigurationKeyConstant + ".time_zone"
	defaultTimeZoneConstant                 = "Local"
	environmentPrefixConstant               = "LWGIT"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationRepositoryFieldConstant    = "repository"
	configurationTimeZoneFieldConstant      = "time_zone"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	timeZoneErrorTemplateConstant           = "unable to load time zone %q: %w"
	versionTemplateConstant                 = "{{.Name}} version: {{.Version}}\n"
	developmentVersionConstant              = "dev"
	unversionedBuildConstant                = "(devel)"
	defaultConfigurationSearchPathConstant  = "."
)

// Version is the release identifier, normally injected at build time with -ldflags.
var Version = ""

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common     ApplicationCommonConfiguration     `mapstructure:"common"`
	Repository ApplicationRepositoryConfiguration `mapstructure:"repository"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationRepositoryConfiguration controls where repositories live and how commits are dated.
type ApplicationRepositoryConfiguration struct {
	DirectoryName string `mapstructure:"directory_name"`
	DefaultBranch string `mapstructure:"default_branch"`
	TimeZone      string `mapstructure:"time_zone"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	repositoryOptions     repository.Options
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	repositoryFlagValue   string
	invocationContext     utils.InvocationContext
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		configurationSearchPaths(),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(applicationNameConstant),
		logger:              zap.NewNop(),
		invocationContext:   utils.NewInvocationContext(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       resolveVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: application.runRootCommand,
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.SetVersionTemplate(versionTemplateConstant)
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.repositoryFlagValue, repositoryFlagNameConstant, "", repositoryFlagUsageConstant)

	environment := commands.Environment{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		OptionsProvider: func() repository.Options {
			return application.repositoryOptions
		},
	}
	for _, builder := range commands.Builders(environment) {
		subcommand, buildError := builder.Build()
		if buildError == nil {
			cobraCommand.AddCommand(subcommand)
		}
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:      string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:     string(utils.LogFormatStructured),
		repositoryDirectoryConfigKeyConstant: repository.DefaultDirectoryName,
		repositoryBranchConfigKeyConstant:    repository.DefaultBranchName,
		repositoryTimeZoneConfigKeyConstant:  defaultTimeZoneConstant,
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger

	repositoryOptions, optionsError := application.resolveRepositoryOptions()
	if optionsError != nil {
		return optionsError
	}
	application.repositoryOptions = repositoryOptions

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.String(configurationRepositoryFieldConstant, repositoryOptions.Root),
		zap.String(configurationTimeZoneFieldConstant, repositoryOptions.Location.String()),
	)

	if command != nil {
		updatedContext := application.invocationContext.With(command.Context(), utils.Invocation{
			ConfigurationFilePath: application.configurationMetadata.ConfigFileUsed,
			RepositoryRoot:        repositoryOptions.Root,
		})
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) resolveRepositoryOptions() (repository.Options, error) {
	timeZone := strings.TrimSpace(application.configuration.Repository.TimeZone)
	if len(timeZone) == 0 {
		timeZone = defaultTimeZoneConstant
	}
	location, locationError := time.LoadLocation(timeZone)
	if locationError != nil {
		return repository.Options{}, fmt.Errorf(timeZoneErrorTemplateConstant, timeZone, locationError)
	}

	return repository.Options{
		Root:          strings.TrimSpace(application.repositoryFlagValue),
		DirectoryName: strings.TrimSpace(application.configuration.Repository.DirectoryName),
		DefaultBranch: strings.TrimSpace(application.configuration.Repository.DefaultBranch),
		Location:      location,
		Logger:        application.logger,
	}, nil
}

// runRootCommand rejects invocations that name no known command.
func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if len(arguments) == 0 {
		return failures.New(failures.KindMissingCommand)
	}
	return failures.New(failures.KindUnknownCommand)
}

func (application *Application) flushLogger() error {
	return application.syncLoggerInstance(application.logger)
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}

// configurationSearchPaths lists the working directory, then the per-user configuration directory.
func configurationSearchPaths() []string {
	searchPaths := []string{defaultConfigurationSearchPathConstant}
	if userConfigurationDirectory, userConfigurationError := os.UserConfigDir(); userConfigurationError == nil {
		searchPaths = append(searchPaths, filepath.Join(userConfigurationDirectory, applicationNameConstant))
	}
	return searchPaths
}

func resolveVersion() string {
	if len(strings.TrimSpace(Version)) > 0 {
		return Version
	}
	if buildInformation, available := debug.ReadBuildInfo(); available {
		mainVersion := strings.TrimSpace(buildInformation.Main.Version)
		if len(mainVersion) > 0 && mainVersion != unversionedBuildConstant {
			return mainVersion
		}
	}
	return developmentVersionConstant
}
