package merge_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ericy3/lightweightGit/internal/commitgraph"
	"github.com/ericy3/lightweightGit/internal/failures"
	"github.com/ericy3/lightweightGit/internal/merge"
	"github.com/ericy3/lightweightGit/internal/repository"
)

const (
	testMasterBranchConstant = "master"
	testOtherBranchConstant  = "other"
	testConflictPathConstant = "f.txt"
)

type tickingClock struct {
	moment time.Time
}

func (clock *tickingClock) Now() time.Time {
	clock.moment = clock.moment.Add(time.Minute)
	return clock.moment
}

func initTestRepository(testInstance *testing.T) *repository.Repository {
	testInstance.Helper()
	opened, initError := repository.Init(repository.Options{
		Root:     testInstance.TempDir(),
		Location: time.UTC,
		Clock:    &tickingClock{moment: time.Date(2024, time.September, 9, 8, 0, 0, 0, time.UTC)},
	})
	require.NoError(testInstance, initError)
	return opened
}

func writeWorking(testInstance *testing.T, opened *repository.Repository, path string, content string) {
	testInstance.Helper()
	require.NoError(testInstance, os.WriteFile(filepath.Join(opened.Root, path), []byte(content), 0o644))
}

func readWorking(testInstance *testing.T, opened *repository.Repository, path string) string {
	testInstance.Helper()
	content, readError := os.ReadFile(filepath.Join(opened.Root, path))
	require.NoError(testInstance, readError)
	return string(content)
}

// commitChanges writes the given files, removes the listed paths, and commits.
func commitChanges(testInstance *testing.T, opened *repository.Repository, message string, files map[string]string, removed ...string) *commitgraph.Commit {
	testInstance.Helper()
	head, headError := opened.Worktree.Head()
	require.NoError(testInstance, headError)
	for path, content := range files {
		writeWorking(testInstance, opened, path, content)
		require.NoError(testInstance, opened.Staging.StageAdd(head, path))
	}
	for _, path := range removed {
		require.NoError(testInstance, opened.Staging.StageRemove(head, path))
	}
	committed, commitError := opened.History.Commit(message)
	require.NoError(testInstance, commitError)
	return committed
}

func TestMergeReportsConflict(testInstance *testing.T) {
	opened := initTestRepository(testInstance)
	commitChanges(testInstance, opened, "base", map[string]string{testConflictPathConstant: "x\n"})
	require.NoError(testInstance, opened.Refs.CreateBranch(testOtherBranchConstant))
	masterTip := commitChanges(testInstance, opened, "master edit", map[string]string{testConflictPathConstant: "y\n"})
	require.NoError(testInstance, opened.Worktree.CheckoutBranch(testOtherBranchConstant))
	otherTip := commitChanges(testInstance, opened, "other edit", map[string]string{testConflictPathConstant: "z\n"})
	require.NoError(testInstance, opened.Worktree.CheckoutBranch(testMasterBranchConstant))

	result, mergeError := opened.Merge.Merge(testOtherBranchConstant)
	require.NoError(testInstance, mergeError)
	require.Equal(testInstance, merge.OutcomeMerged, result.Outcome)
	require.True(testInstance, result.Conflict)
	require.Equal(testInstance, "Encountered a merge conflict.", result.Notice())

	conflictContent := "<<<<<<< HEAD\ny\n=======\nz\n>>>>>>>\n"
	require.Equal(testInstance, conflictContent, readWorking(testInstance, opened, testConflictPathConstant))

	mergeCommit := result.Commit
	require.Equal(testInstance, "Merged other into master.", mergeCommit.Message)
	require.Equal(testInstance, masterTip.ID, mergeCommit.Parent)
	require.Equal(testInstance, otherTip.ID, mergeCommit.SecondParent)
	require.Equal(testInstance, mergeCommit.ID, opened.Refs.Head())
	masterRef, _ := opened.Refs.Get(testMasterBranchConstant)
	require.Equal(testInstance, mergeCommit.ID, masterRef)
	require.True(testInstance, opened.Staging.IsEmpty())

	conflictBlob, tracked := mergeCommit.BlobFor(testConflictPathConstant)
	require.True(testInstance, tracked)
	storedContent, getError := opened.Store.Get(conflictBlob)
	require.NoError(testInstance, getError)
	require.Equal(testInstance, conflictContent, string(storedContent))
}

func TestMergeAppliesCleanThreeWayChanges(testInstance *testing.T) {
	opened := initTestRepository(testInstance)
	commitChanges(testInstance, opened, "base", map[string]string{"a.txt": "a\n", "b.txt": "b\n", "c.txt": "c\n"})
	require.NoError(testInstance, opened.Refs.CreateBranch(testOtherBranchConstant))
	commitChanges(testInstance, opened, "master edit", map[string]string{"a.txt": "a2\n"})
	require.NoError(testInstance, opened.Worktree.CheckoutBranch(testOtherBranchConstant))
	commitChanges(testInstance, opened, "other edit", map[string]string{"b.txt": "b2\n", "d.txt": "d\n"}, "c.txt")
	require.NoError(testInstance, opened.Worktree.CheckoutBranch(testMasterBranchConstant))

	result, mergeError := opened.Merge.Merge(testOtherBranchConstant)
	require.NoError(testInstance, mergeError)
	require.Equal(testInstance, merge.OutcomeMerged, result.Outcome)
	require.False(testInstance, result.Conflict)
	require.Empty(testInstance, result.Notice())

	require.Equal(testInstance, "a2\n", readWorking(testInstance, opened, "a.txt"))
	require.Equal(testInstance, "b2\n", readWorking(testInstance, opened, "b.txt"))
	require.Equal(testInstance, "d\n", readWorking(testInstance, opened, "d.txt"))
	require.NoFileExists(testInstance, filepath.Join(opened.Root, "c.txt"))
	require.Equal(testInstance, []string{"a.txt", "b.txt", "d.txt"}, result.Commit.TrackedPaths())
}

func TestMergeFastForwards(testInstance *testing.T) {
	opened := initTestRepository(testInstance)
	require.NoError(testInstance, opened.Refs.CreateBranch(testOtherBranchConstant))
	require.NoError(testInstance, opened.Worktree.CheckoutBranch(testOtherBranchConstant))
	otherTip := commitChanges(testInstance, opened, "ahead", map[string]string{"ahead.txt": "ahead\n"})
	require.NoError(testInstance, opened.Worktree.CheckoutBranch(testMasterBranchConstant))
	commitCount := len(opened.Graph.IDs())

	result, mergeError := opened.Merge.Merge(testOtherBranchConstant)
	require.NoError(testInstance, mergeError)
	require.Equal(testInstance, merge.OutcomeFastForward, result.Outcome)
	require.Equal(testInstance, "Current branch fast-forwarded.", result.Notice())
	require.Equal(testInstance, otherTip.ID, opened.Refs.Head())
	require.Equal(testInstance, testOtherBranchConstant, opened.Refs.CurrentBranch())
	require.Equal(testInstance, "ahead\n", readWorking(testInstance, opened, "ahead.txt"))
	require.Len(testInstance, opened.Graph.IDs(), commitCount)
}

func TestMergePreconditions(testInstance *testing.T) {
	testCases := []struct {
		name         string
		prepare      func(testInstance *testing.T, opened *repository.Repository)
		branch       string
		expectedKind failures.Kind
	}{
		{
			name: "uncommitted_changes",
			prepare: func(testInstance *testing.T, opened *repository.Repository) {
				require.NoError(testInstance, opened.Refs.CreateBranch(testOtherBranchConstant))
				writeWorking(testInstance, opened, "pending.txt", "pending\n")
				head, _ := opened.Worktree.Head()
				require.NoError(testInstance, opened.Staging.StageAdd(head, "pending.txt"))
			},
			branch:       testOtherBranchConstant,
			expectedKind: failures.KindUncommittedChanges,
		},
		{
			name:         "missing_branch",
			prepare:      func(testInstance *testing.T, opened *repository.Repository) {},
			branch:       "nowhere",
			expectedKind: failures.KindBranchMissing,
		},
		{
			name:         "self_merge",
			prepare:      func(testInstance *testing.T, opened *repository.Repository) {},
			branch:       testMasterBranchConstant,
			expectedKind: failures.KindSelfMerge,
		},
		{
			name: "already_ancestor",
			prepare: func(testInstance *testing.T, opened *repository.Repository) {
				require.NoError(testInstance, opened.Refs.CreateBranch(testOtherBranchConstant))
				commitChanges(testInstance, opened, "beyond", map[string]string{"beyond.txt": "beyond\n"})
			},
			branch:       testOtherBranchConstant,
			expectedKind: failures.KindAlreadyAncestor,
		},
		{
			name: "untracked_obstruction",
			prepare: func(testInstance *testing.T, opened *repository.Repository) {
				commitChanges(testInstance, opened, "base", map[string]string{"base.txt": "base\n"})
				require.NoError(testInstance, opened.Refs.CreateBranch(testOtherBranchConstant))
				commitChanges(testInstance, opened, "master edit", map[string]string{"base.txt": "master\n"})
				require.NoError(testInstance, opened.Worktree.CheckoutBranch(testOtherBranchConstant))
				commitChanges(testInstance, opened, "other add", map[string]string{"blocked.txt": "other\n"})
				require.NoError(testInstance, opened.Worktree.CheckoutBranch(testMasterBranchConstant))
				writeWorking(testInstance, opened, "blocked.txt", "local\n")
			},
			branch:       testOtherBranchConstant,
			expectedKind: failures.KindUntrackedObstruction,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			opened := initTestRepository(testInstance)
			testCase.prepare(testInstance, opened)
			headBefore := opened.Refs.Head()
			commitCount := len(opened.Graph.IDs())

			_, mergeError := opened.Merge.Merge(testCase.branch)
			require.True(testInstance, failures.IsKind(mergeError, testCase.expectedKind), "unexpected error: %v", mergeError)
			require.True(testInstance, failures.IsUser(mergeError))
			require.Equal(testInstance, headBefore, opened.Refs.Head())
			require.Equal(testInstance, testMasterBranchConstant, opened.Refs.CurrentBranch())
			require.Len(testInstance, opened.Graph.IDs(), commitCount)
		})
	}
}

func TestMergeBaseIsSplitPoint(testInstance *testing.T) {
	opened := initTestRepository(testInstance)
	split := commitChanges(testInstance, opened, "split", map[string]string{"shared.txt": "shared\n"})
	require.NoError(testInstance, opened.Refs.CreateBranch(testOtherBranchConstant))
	commitChanges(testInstance, opened, "master one", map[string]string{"shared.txt": "m1\n"})
	masterTip := commitChanges(testInstance, opened, "master two", map[string]string{"shared.txt": "m2\n"})
	require.NoError(testInstance, opened.Worktree.CheckoutBranch(testOtherBranchConstant))
	otherTip := commitChanges(testInstance, opened, "other one", map[string]string{"other.txt": "o1\n"})

	baseID, baseError := opened.Merge.MergeBase(masterTip.ID, otherTip.ID)
	require.NoError(testInstance, baseError)
	require.Equal(testInstance, split.ID, baseID)

	ancestors, ancestorsError := opened.Merge.AncestorSet(masterTip.ID)
	require.NoError(testInstance, ancestorsError)
	require.Len(testInstance, ancestors, 4)
	require.Contains(testInstance, ancestors, split.ID)
	require.NotContains(testInstance, ancestors, otherTip.ID)
}

func TestMergeBaseFollowsSecondParents(testInstance *testing.T) {
	opened := initTestRepository(testInstance)
	commitChanges(testInstance, opened, "base", map[string]string{"a.txt": "a\n", "b.txt": "b\n"})
	require.NoError(testInstance, opened.Refs.CreateBranch(testOtherBranchConstant))
	commitChanges(testInstance, opened, "master edit", map[string]string{"a.txt": "a2\n"})
	require.NoError(testInstance, opened.Worktree.CheckoutBranch(testOtherBranchConstant))
	firstGiven := commitChanges(testInstance, opened, "other edit", map[string]string{"b.txt": "b2\n"})
	require.NoError(testInstance, opened.Worktree.CheckoutBranch(testMasterBranchConstant))

	firstMerge, firstError := opened.Merge.Merge(testOtherBranchConstant)
	require.NoError(testInstance, firstError)
	require.False(testInstance, firstMerge.Conflict)

	require.NoError(testInstance, opened.Worktree.CheckoutBranch(testOtherBranchConstant))
	secondGiven := commitChanges(testInstance, opened, "other again", map[string]string{"b.txt": "b3\n"})
	require.NoError(testInstance, opened.Worktree.CheckoutBranch(testMasterBranchConstant))

	ancestors, ancestorsError := opened.Merge.AncestorSet(firstMerge.Commit.ID)
	require.NoError(testInstance, ancestorsError)
	require.Contains(testInstance, ancestors, firstGiven.ID)

	baseID, baseError := opened.Merge.MergeBase(firstMerge.Commit.ID, secondGiven.ID)
	require.NoError(testInstance, baseError)
	require.Equal(testInstance, firstGiven.ID, baseID)

	secondMerge, secondError := opened.Merge.Merge(testOtherBranchConstant)
	require.NoError(testInstance, secondError)
	require.Equal(testInstance, merge.OutcomeMerged, secondMerge.Outcome)
	require.False(testInstance, secondMerge.Conflict)
	require.Equal(testInstance, firstMerge.Commit.ID, secondMerge.Commit.Parent)
	require.Equal(testInstance, secondGiven.ID, secondMerge.Commit.SecondParent)
	require.Equal(testInstance, "a2\n", readWorking(testInstance, opened, "a.txt"))
	require.Equal(testInstance, "b3\n", readWorking(testInstance, opened, "b.txt"))
}

func TestNewEngineValidatesDependencies(testInstance *testing.T) {
	_, engineError := merge.NewEngine(merge.Dependencies{})
	require.Error(testInstance, engineError)
}
