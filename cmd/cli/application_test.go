package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ericy3/lightweightGit/internal/failures"
	"github.com/ericy3/lightweightGit/internal/repository"
)

const (
	testSubtestTemplateConstant = "%d_%s"
	testStatusHeaderConstant    = "=== Branches ===\n"
)

var expectedCommandNames = []string{
	"add",
	"add-remote",
	"branch",
	"checkout",
	"commit",
	"find",
	"global-log",
	"init",
	"log",
	"merge",
	"reset",
	"rm",
	"rm-branch",
	"rm-remote",
	"status",
}

func executeApplication(testInstance *testing.T, arguments ...string) (string, error) {
	testInstance.Helper()
	application := NewApplication()
	outputBuffer := &bytes.Buffer{}
	application.rootCommand.SetOut(outputBuffer)
	application.rootCommand.SetErr(outputBuffer)
	application.rootCommand.SetArgs(arguments)
	executionError := application.Execute()
	return outputBuffer.String(), executionError
}

func TestEmbeddedDefaultConfigurationParses(testInstance *testing.T) {
	content, configurationType := EmbeddedDefaultConfiguration()
	require.Equal(testInstance, configurationTypeConstant, configurationType)

	var parsed struct {
		Common struct {
			LogLevel  string `yaml:"log_level"`
			LogFormat string `yaml:"log_format"`
		} `yaml:"common"`
		Repository struct {
			DirectoryName string `yaml:"directory_name"`
			DefaultBranch string `yaml:"default_branch"`
			TimeZone      string `yaml:"time_zone"`
		} `yaml:"repository"`
	}
	require.NoError(testInstance, yaml.Unmarshal(content, &parsed))

	require.Equal(testInstance, repository.DefaultDirectoryName, parsed.Repository.DirectoryName)
	require.Equal(testInstance, repository.DefaultBranchName, parsed.Repository.DefaultBranch)
	require.Equal(testInstance, defaultTimeZoneConstant, parsed.Repository.TimeZone)
	require.Contains(testInstance, []string{"debug", "info", "warn", "error"}, parsed.Common.LogLevel)
	require.Contains(testInstance, []string{"structured", "console"}, parsed.Common.LogFormat)
}

func TestApplicationRegistersEveryCommand(testInstance *testing.T) {
	application := NewApplication()
	registered := []string{}
	for _, subcommand := range application.rootCommand.Commands() {
		registered = append(registered, subcommand.Name())
	}
	for _, expectedName := range expectedCommandNames {
		require.Contains(testInstance, registered, expectedName)
	}
}

func TestApplicationRootCommandErrors(testInstance *testing.T) {
	testCases := []struct {
		name         string
		arguments    []string
		expectedKind failures.Kind
	}{
		{name: "missing_command", arguments: []string{}, expectedKind: failures.KindMissingCommand},
		{name: "unknown_command", arguments: []string{"push"}, expectedKind: failures.KindUnknownCommand},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testSubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			_, executionError := executeApplication(testInstance, testCase.arguments...)
			require.True(testInstance, failures.IsKind(executionError, testCase.expectedKind), "unexpected error: %v", executionError)
			require.Equal(testInstance, 1, failures.ExitCode(executionError))
		})
	}
}

func TestApplicationRunsRepositoryCommands(testInstance *testing.T) {
	root := testInstance.TempDir()
	_, initError := executeApplication(testInstance, "--repository", root, "init")
	require.NoError(testInstance, initError)
	require.DirExists(testInstance, filepath.Join(root, repository.DefaultDirectoryName))

	require.NoError(testInstance, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("notes\n"), 0o644))
	_, addError := executeApplication(testInstance, "--repository", root, "add", "notes.txt")
	require.NoError(testInstance, addError)

	statusOutput, statusError := executeApplication(testInstance, "--repository", root, "status")
	require.NoError(testInstance, statusError)
	require.Contains(testInstance, statusOutput, testStatusHeaderConstant+"*master\n")
	require.Contains(testInstance, statusOutput, "=== Staged Files ===\nnotes.txt\n")
}

func TestApplicationHonorsEnvironmentOverrides(testInstance *testing.T) {
	root := testInstance.TempDir()
	testInstance.Setenv("LWGIT_REPOSITORY_DEFAULT_BRANCH", "trunk")
	testInstance.Setenv("LWGIT_REPOSITORY_DIRECTORY_NAME", ".history")
	testInstance.Setenv("LWGIT_REPOSITORY_TIME_ZONE", "UTC")

	_, initError := executeApplication(testInstance, "--repository", root, "init")
	require.NoError(testInstance, initError)
	require.DirExists(testInstance, filepath.Join(root, ".history"))

	statusOutput, statusError := executeApplication(testInstance, "--repository", root, "status")
	require.NoError(testInstance, statusError)
	require.Contains(testInstance, statusOutput, testStatusHeaderConstant+"*trunk\n")
}

func TestApplicationRejectsUnknownTimeZone(testInstance *testing.T) {
	testInstance.Setenv("LWGIT_REPOSITORY_TIME_ZONE", "Nowhere/Imaginary")
	_, executionError := executeApplication(testInstance, "--repository", testInstance.TempDir(), "init")
	require.Error(testInstance, executionError)
	require.False(testInstance, failures.IsUser(executionError))
	require.Equal(testInstance, 2, failures.ExitCode(executionError))
}

func TestApplicationRejectsUnsupportedLogLevel(testInstance *testing.T) {
	_, executionError := executeApplication(testInstance, "--log-level", "verbose", "--repository", testInstance.TempDir(), "status")
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "unsupported log level")
}

func TestApplicationVersionFlag(testInstance *testing.T) {
	output, executionError := executeApplication(testInstance, "--version")
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, fmt.Sprintf("%s version: %s\n", applicationNameConstant, resolveVersion()), output)
}
