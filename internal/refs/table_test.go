package refs_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ericy3/lightweightGit/internal/digest"
	"github.com/ericy3/lightweightGit/internal/failures"
	"github.com/ericy3/lightweightGit/internal/filesystem"
	"github.com/ericy3/lightweightGit/internal/refs"
)

const (
	testRefsFileConstant      = "refs.yaml"
	testMasterBranchConstant  = "master"
	testFeatureBranchConstant = "feature"
	testInitialIDConstant     = digest.Digest("1111111111111111111111111111111111111111")
	testNextIDConstant        = digest.Digest("2222222222222222222222222222222222222222")
	testRemoteNameConstant    = "origin"
	testRemoteDirConstant     = "../other/.lwgit"
)

func openTestTable(testInstance *testing.T, root string) *refs.Table {
	testInstance.Helper()
	table, openError := refs.Open(refs.Dependencies{FileSystem: filesystem.OSFileSystem{}, Path: filepath.Join(root, testRefsFileConstant)})
	require.NoError(testInstance, openError)
	return table
}

func TestBranchLifecycle(testInstance *testing.T) {
	root := testInstance.TempDir()
	table := openTestTable(testInstance, root)
	table.Initialize(testMasterBranchConstant, testInitialIDConstant)

	require.NoError(testInstance, table.CreateBranch(testFeatureBranchConstant))
	featureID, known := table.Get(testFeatureBranchConstant)
	require.True(testInstance, known)
	require.Equal(testInstance, testInitialIDConstant, featureID)

	testCases := []struct {
		name         string
		operation    func() error
		expectedKind failures.Kind
	}{
		{name: "duplicate_branch", operation: func() error { return table.CreateBranch(testFeatureBranchConstant) }, expectedKind: failures.KindBranchExists},
		{name: "reserved_head_name", operation: func() error { return table.CreateBranch(refs.HeadName) }, expectedKind: failures.KindBranchExists},
		{name: "missing_branch", operation: func() error { return table.DeleteBranch("missing") }, expectedKind: failures.KindBranchMissing},
		{name: "current_branch", operation: func() error { return table.DeleteBranch(testMasterBranchConstant) }, expectedKind: failures.KindCannotDeleteCurrent},
	}
	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.True(testInstance, failures.IsKind(testCase.operation(), testCase.expectedKind))
		})
	}

	table.Set(refs.HeadName, testNextIDConstant)
	table.Set(testMasterBranchConstant, testNextIDConstant)
	require.Equal(testInstance, []string{testFeatureBranchConstant, testMasterBranchConstant}, table.Branches())
	require.NoError(testInstance, table.Save())

	reopened := openTestTable(testInstance, root)
	require.Equal(testInstance, testNextIDConstant, reopened.Head())
	require.Equal(testInstance, testMasterBranchConstant, reopened.CurrentBranch())
	headID, headKnown := reopened.Get(refs.HeadName)
	require.True(testInstance, headKnown)
	require.Equal(testInstance, testNextIDConstant, headID)

	require.NoError(testInstance, reopened.DeleteBranch(testFeatureBranchConstant))
	require.False(testInstance, reopened.HasBranch(testFeatureBranchConstant))
}

func TestRemoteRegistration(testInstance *testing.T) {
	root := testInstance.TempDir()
	table := openTestTable(testInstance, root)

	require.NoError(testInstance, table.AddRemote(testRemoteNameConstant, testRemoteDirConstant))
	require.True(testInstance, failures.IsKind(table.AddRemote(testRemoteNameConstant, testRemoteDirConstant), failures.KindRemoteExists))
	require.NoError(testInstance, table.Save())

	reopened := openTestTable(testInstance, root)
	directory, known := reopened.Remote(testRemoteNameConstant)
	require.True(testInstance, known)
	require.Equal(testInstance, testRemoteDirConstant, directory)

	require.NoError(testInstance, reopened.RemoveRemote(testRemoteNameConstant))
	require.True(testInstance, failures.IsKind(reopened.RemoveRemote(testRemoteNameConstant), failures.KindNoSuchRemote))
}
