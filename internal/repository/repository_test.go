package repository_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ericy3/lightweightGit/internal/commitgraph"
	"github.com/ericy3/lightweightGit/internal/failures"
	"github.com/ericy3/lightweightGit/internal/repository"
)

const testTrackedPathConstant = "tracked.txt"

type fixedClock struct {
	moment time.Time
}

func (clock fixedClock) Now() time.Time {
	return clock.moment
}

func testOptions(root string) repository.Options {
	return repository.Options{
		Root:     root,
		Location: time.UTC,
		Clock:    fixedClock{moment: time.Date(2025, time.February, 14, 10, 0, 0, 0, time.UTC)},
	}
}

func TestInitCreatesInitialCommitAndDefaultBranch(testInstance *testing.T) {
	root := testInstance.TempDir()
	core, recorded := observer.New(zapcore.InfoLevel)
	options := testOptions(root)
	options.Logger = zap.New(core)

	opened, initError := repository.Init(options)
	require.NoError(testInstance, initError)

	require.DirExists(testInstance, filepath.Join(root, repository.DefaultDirectoryName))
	require.Equal(testInstance, repository.DefaultBranchName, opened.Refs.CurrentBranch())
	require.Equal(testInstance, []string{repository.DefaultBranchName}, opened.Refs.Branches())

	initial, known := opened.Graph.Lookup(opened.Refs.Head())
	require.True(testInstance, known)
	require.Equal(testInstance, commitgraph.InitialCommitMessage, initial.Message)
	require.Equal(testInstance, "Thu Jan 1 00:00:00 1970 +0000", initial.Timestamp)
	require.Empty(testInstance, initial.Tracked)
	require.Equal(testInstance, 1, recorded.FilterMessage("repository initialized").Len())

	_, secondInitError := repository.Init(testOptions(root))
	require.True(testInstance, failures.IsKind(secondInitError, failures.KindAlreadyInitialized))
}

func TestInitialCommitIdentityIsStableAcrossRepositories(testInstance *testing.T) {
	first, firstError := repository.Init(testOptions(testInstance.TempDir()))
	require.NoError(testInstance, firstError)
	second, secondError := repository.Init(testOptions(testInstance.TempDir()))
	require.NoError(testInstance, secondError)
	require.Equal(testInstance, first.Refs.Head(), second.Refs.Head())
}

func TestOpenRequiresMarker(testInstance *testing.T) {
	_, openError := repository.Open(testOptions(testInstance.TempDir()))
	require.True(testInstance, failures.IsKind(openError, failures.KindNotInitialized))
	require.Equal(testInstance, 1, failures.ExitCode(openError))
}

func TestCustomDirectoryAndBranch(testInstance *testing.T) {
	root := testInstance.TempDir()
	options := testOptions(root)
	options.DirectoryName = ".vault"
	options.DefaultBranch = "trunk"

	opened, initError := repository.Init(options)
	require.NoError(testInstance, initError)
	require.DirExists(testInstance, filepath.Join(root, ".vault"))
	require.Equal(testInstance, "trunk", opened.Refs.CurrentBranch())

	_, defaultOpenError := repository.Open(testOptions(root))
	require.True(testInstance, failures.IsKind(defaultOpenError, failures.KindNotInitialized))
}

func TestSaveAndReopenPreservesState(testInstance *testing.T) {
	root := testInstance.TempDir()
	opened, initError := repository.Init(testOptions(root))
	require.NoError(testInstance, initError)

	require.NoError(testInstance, os.WriteFile(filepath.Join(root, testTrackedPathConstant), []byte("tracked\n"), 0o644))
	head, headError := opened.Worktree.Head()
	require.NoError(testInstance, headError)
	require.NoError(testInstance, opened.Staging.StageAdd(head, testTrackedPathConstant))
	committed, commitError := opened.History.Commit("track file")
	require.NoError(testInstance, commitError)
	require.NoError(testInstance, opened.Refs.CreateBranch("feature"))
	require.NoError(testInstance, opened.Refs.AddRemote("origin", "../elsewhere/.lwgit"))

	require.NoError(testInstance, os.WriteFile(filepath.Join(root, "pending.txt"), []byte("pending\n"), 0o644))
	require.NoError(testInstance, opened.Staging.StageAdd(committed, "pending.txt"))
	require.NoError(testInstance, opened.Save())

	reopened, openError := repository.Open(testOptions(root))
	require.NoError(testInstance, openError)
	require.Equal(testInstance, committed.ID, reopened.Refs.Head())
	featureTip, known := reopened.Refs.Get("feature")
	require.True(testInstance, known)
	require.Equal(testInstance, committed.ID, featureTip)
	remoteDirectory, remoteKnown := reopened.Refs.Remote("origin")
	require.True(testInstance, remoteKnown)
	require.Equal(testInstance, "../elsewhere/.lwgit", remoteDirectory)

	reloaded, lookupKnown := reopened.Graph.Lookup(committed.ID)
	require.True(testInstance, lookupKnown)
	require.True(testInstance, reloaded.Frozen())
	require.Equal(testInstance, committed.Tracked, reloaded.Tracked)
	_, stagedKnown := reopened.Staging.Addition("pending.txt")
	require.True(testInstance, stagedKnown)

	require.NoError(testInstance, os.WriteFile(filepath.Join(root, testTrackedPathConstant), []byte("edited\n"), 0o644))
	require.NoError(testInstance, reopened.Worktree.CheckoutPathFromHead(testTrackedPathConstant))
	restored, readError := os.ReadFile(filepath.Join(root, testTrackedPathConstant))
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "tracked\n", string(restored))
}
