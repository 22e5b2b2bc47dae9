package worktree

import (
	"errors"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ericy3/lightweightGit/internal/commitgraph"
	"github.com/ericy3/lightweightGit/internal/digest"
	"github.com/ericy3/lightweightGit/internal/failures"
	"github.com/ericy3/lightweightGit/internal/filesystem"
	"github.com/ericy3/lightweightGit/internal/objectstore"
	"github.com/ericy3/lightweightGit/internal/refs"
	"github.com/ericy3/lightweightGit/internal/staging"
)

const (
	workingPermissionsConstant       = 0o644
	fileSystemMissingMessageConstant = "reconciler file system not configured"
	rootMissingMessageConstant       = "reconciler working directory not configured"
	storeMissingMessageConstant      = "reconciler object store not configured"
	graphMissingMessageConstant      = "reconciler commit graph not configured"
	refsMissingMessageConstant       = "reconciler ref table not configured"
	stagingMissingMessageConstant    = "reconciler staging area not configured"
	headMissingMessageConstant       = "HEAD references a commit that is not in the graph"
	listWorkingOperationConstant     = "list working tree"
	readWorkingOperationConstant     = "read working file"
	writeWorkingOperationConstant    = "write working file"
	deleteWorkingOperationConstant   = "delete working file"
	readBlobOperationConstant        = "read tracked blob"
	resolveHeadOperationConstant     = "resolve HEAD"
	digestOperationConstant          = "compute working digest"
	clearStagingOperationConstant    = "clear staging overlay"
	pathRestoredMessageConstant      = "working file restored"
	pathDeletedMessageConstant       = "working file deleted"
	branchCheckedOutMessageConstant  = "branch checked out"
	headResetMessageConstant         = "head reset"
	logFieldPathConstant             = "path"
	logFieldDigestConstant           = "digest"
	logFieldBranchConstant           = "branch"
	logFieldCommitConstant           = "commit"
	logFieldPreviousCommitConstant   = "previous_commit"
	logFieldRestoredCountConstant    = "restored_count"
	logFieldDeletedCountConstant     = "deleted_count"
)

var (
	errFileSystemMissing = errors.New(fileSystemMissingMessageConstant)
	errRootMissing       = errors.New(rootMissingMessageConstant)
	errStoreMissing      = errors.New(storeMissingMessageConstant)
	errGraphMissing      = errors.New(graphMissingMessageConstant)
	errRefsMissing       = errors.New(refsMissingMessageConstant)
	errStagingMissing    = errors.New(stagingMissingMessageConstant)
	errHeadMissing       = errors.New(headMissingMessageConstant)
)

// Dependencies describes the collaborators required by Reconciler.
type Dependencies struct {
	Logger     *zap.Logger
	FileSystem filesystem.FileSystem
	Root       string
	Store      *objectstore.Store
	Graph      *commitgraph.Graph
	Refs       *refs.Table
	Staging    *staging.Area
}

// Reconciler synchronizes the flat working tree with commits and the overlay.
type Reconciler struct {
	logger     *zap.Logger
	fileSystem filesystem.FileSystem
	root       string
	store      *objectstore.Store
	graph      *commitgraph.Graph
	refs       *refs.Table
	staging    *staging.Area
}

// NewReconciler validates dependencies and constructs a Reconciler.
func NewReconciler(dependencies Dependencies) (*Reconciler, error) {
	switch {
	case dependencies.FileSystem == nil:
		return nil, errFileSystemMissing
	case len(dependencies.Root) == 0:
		return nil, errRootMissing
	case dependencies.Store == nil:
		return nil, errStoreMissing
	case dependencies.Graph == nil:
		return nil, errGraphMissing
	case dependencies.Refs == nil:
		return nil, errRefsMissing
	case dependencies.Staging == nil:
		return nil, errStagingMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Reconciler{
		logger:     logger,
		fileSystem: dependencies.FileSystem,
		root:       dependencies.Root,
		store:      dependencies.Store,
		graph:      dependencies.Graph,
		refs:       dependencies.Refs,
		staging:    dependencies.Staging,
	}, nil
}

// Head returns the commit HEAD points at.
func (reconciler *Reconciler) Head() (*commitgraph.Commit, error) {
	head, known := reconciler.graph.Lookup(reconciler.refs.Head())
	if !known {
		return nil, failures.Internal(resolveHeadOperationConstant, errHeadMissing)
	}
	return head, nil
}

// ResolveCommit resolves a branch name, HEAD, or a (partial) commit id.
func (reconciler *Reconciler) ResolveCommit(commitReference string) (*commitgraph.Commit, error) {
	commitID, named := reconciler.refs.Get(commitReference)
	if !named {
		resolvedID, found := reconciler.graph.ResolvePrefix(commitReference)
		if !found {
			return nil, failures.New(failures.KindNoSuchCommit)
		}
		commitID = resolvedID
	}
	commit, known := reconciler.graph.Lookup(commitID)
	if !known {
		return nil, failures.New(failures.KindNoSuchCommit)
	}
	return commit, nil
}

// CheckoutPathFromHead overwrites the working file with HEAD's tracked version.
func (reconciler *Reconciler) CheckoutPathFromHead(path string) error {
	head, headError := reconciler.Head()
	if headError != nil {
		return headError
	}
	return reconciler.RestorePath(head, path)
}

// CheckoutPathFromCommit overwrites the working file with the version tracked by commitReference.
func (reconciler *Reconciler) CheckoutPathFromCommit(commitReference string, path string) error {
	commit, resolveError := reconciler.ResolveCommit(commitReference)
	if resolveError != nil {
		return resolveError
	}
	return reconciler.RestorePath(commit, path)
}

// CheckoutBranch switches HEAD and HEAD_BRANCH to branchName and makes the
// working tree match the branch tip.
func (reconciler *Reconciler) CheckoutBranch(branchName string) error {
	targetID, known := reconciler.refs.Get(branchName)
	if !known || branchName == refs.HeadName {
		return failures.New(failures.KindNoSuchBranch)
	}
	if branchName == reconciler.refs.CurrentBranch() {
		return failures.New(failures.KindNoOp)
	}
	target, targetKnown := reconciler.graph.Lookup(targetID)
	if !targetKnown {
		return failures.New(failures.KindNoSuchBranch)
	}
	head, headError := reconciler.Head()
	if headError != nil {
		return headError
	}
	if obstructionError := reconciler.EnsureNoObstruction(head, target); obstructionError != nil {
		return obstructionError
	}

	restoredCount, restoreError := reconciler.restoreAll(target)
	if restoreError != nil {
		return restoreError
	}
	workingFiles, listError := reconciler.WorkingFiles()
	if listError != nil {
		return listError
	}
	deletedCount := 0
	for _, workingPath := range workingFiles {
		if target.Tracks(workingPath) {
			continue
		}
		if deleteError := reconciler.DeleteWorking(workingPath); deleteError != nil {
			return deleteError
		}
		deletedCount++
	}

	reconciler.refs.SetCurrentBranch(branchName)
	reconciler.refs.Set(refs.HeadName, target.ID)
	if clearError := reconciler.staging.Clear(); clearError != nil {
		return failures.Internal(clearStagingOperationConstant, clearError)
	}

	reconciler.logger.Debug(
		branchCheckedOutMessageConstant,
		zap.String(logFieldBranchConstant, branchName),
		zap.String(logFieldCommitConstant, target.ID.String()),
		zap.Int(logFieldRestoredCountConstant, restoredCount),
		zap.Int(logFieldDeletedCountConstant, deletedCount),
	)
	return nil
}

// Reset moves HEAD and the current branch to commitReference, clears the
// overlay, and replaces the previous head's files with the target's.
func (reconciler *Reconciler) Reset(commitReference string) error {
	target, resolveError := reconciler.ResolveCommit(commitReference)
	if resolveError != nil {
		return resolveError
	}
	previous, headError := reconciler.Head()
	if headError != nil {
		return headError
	}
	if obstructionError := reconciler.EnsureNoObstruction(previous, target); obstructionError != nil {
		return obstructionError
	}

	reconciler.refs.Set(refs.HeadName, target.ID)
	reconciler.refs.Set(reconciler.refs.CurrentBranch(), target.ID)
	if clearError := reconciler.staging.Clear(); clearError != nil {
		return failures.Internal(clearStagingOperationConstant, clearError)
	}

	workingFiles, listError := reconciler.WorkingFiles()
	if listError != nil {
		return listError
	}
	deletedCount := 0
	for _, workingPath := range workingFiles {
		if !previous.Tracks(workingPath) {
			continue
		}
		if deleteError := reconciler.DeleteWorking(workingPath); deleteError != nil {
			return deleteError
		}
		deletedCount++
	}
	restoredCount, restoreError := reconciler.restoreAll(target)
	if restoreError != nil {
		return restoreError
	}

	reconciler.logger.Debug(
		headResetMessageConstant,
		zap.String(logFieldCommitConstant, target.ID.String()),
		zap.String(logFieldPreviousCommitConstant, previous.ID.String()),
		zap.Int(logFieldRestoredCountConstant, restoredCount),
		zap.Int(logFieldDeletedCountConstant, deletedCount),
	)
	return nil
}

// EnsureNoObstruction fails with UntrackedObstruction when a working file
// untracked by current would be overwritten by a file tracked in target.
func (reconciler *Reconciler) EnsureNoObstruction(current *commitgraph.Commit, target *commitgraph.Commit) error {
	workingFiles, listError := reconciler.WorkingFiles()
	if listError != nil {
		return listError
	}
	for _, workingPath := range workingFiles {
		if !current.Tracks(workingPath) && target.Tracks(workingPath) {
			return failures.New(failures.KindUntrackedObstruction)
		}
	}
	return nil
}

// WorkingFiles lists the regular files directly under the working directory.
func (reconciler *Reconciler) WorkingFiles() ([]string, error) {
	workingFiles, listError := reconciler.fileSystem.ListFiles(reconciler.root)
	if listError != nil {
		return nil, failures.Internal(listWorkingOperationConstant, listError)
	}
	return workingFiles, nil
}

// ReadWorking returns the working file content and whether the file exists.
func (reconciler *Reconciler) ReadWorking(path string) ([]byte, bool, error) {
	if !filesystem.IsWorkingName(path) {
		return nil, false, nil
	}
	workingPath := reconciler.workingPath(path)
	present, existsError := filesystem.RegularFileExists(reconciler.fileSystem, workingPath)
	if existsError != nil {
		return nil, false, failures.Internal(readWorkingOperationConstant, existsError)
	}
	if !present {
		return nil, false, nil
	}
	content, readError := reconciler.fileSystem.ReadFile(workingPath)
	if readError != nil {
		return nil, false, failures.Internal(readWorkingOperationConstant, readError)
	}
	return content, true, nil
}

// WorkingDigest returns the blob digest the working file would be stored under.
func (reconciler *Reconciler) WorkingDigest(path string) (digest.Digest, bool, error) {
	content, present, readError := reconciler.ReadWorking(path)
	if readError != nil || !present {
		return digest.None, present, readError
	}
	workingDigest, digestError := digest.OfBlob(path, content)
	if digestError != nil {
		return digest.None, false, failures.Internal(digestOperationConstant, digestError)
	}
	return workingDigest, true, nil
}

// WriteWorking replaces the working file at path with content.
func (reconciler *Reconciler) WriteWorking(path string, content []byte) error {
	if writeError := reconciler.fileSystem.WriteFile(reconciler.workingPath(path), content, workingPermissionsConstant); writeError != nil {
		return failures.Internal(writeWorkingOperationConstant, writeError)
	}
	return nil
}

// DeleteWorking removes the working file at path. A missing file is ignored.
func (reconciler *Reconciler) DeleteWorking(path string) error {
	if !filesystem.IsWorkingName(path) {
		return nil
	}
	if removeError := reconciler.fileSystem.Remove(reconciler.workingPath(path)); removeError != nil {
		return failures.Internal(deleteWorkingOperationConstant, removeError)
	}
	reconciler.logger.Debug(pathDeletedMessageConstant, zap.String(logFieldPathConstant, path))
	return nil
}

// RestorePath writes the version of path tracked by commit into the working tree.
func (reconciler *Reconciler) RestorePath(commit *commitgraph.Commit, path string) error {
	blobDigest, tracked := commit.BlobFor(path)
	if !tracked || !filesystem.IsWorkingName(path) {
		return failures.New(failures.KindFileNotInCommit)
	}
	content, getError := reconciler.store.Get(blobDigest)
	if getError != nil {
		return failures.Internal(readBlobOperationConstant, getError)
	}
	if writeError := reconciler.WriteWorking(path, content); writeError != nil {
		return writeError
	}
	reconciler.logger.Debug(pathRestoredMessageConstant, zap.String(logFieldPathConstant, path), zap.String(logFieldDigestConstant, blobDigest.String()))
	return nil
}

// BlobContent returns the stored bytes commit tracks for path.
func (reconciler *Reconciler) BlobContent(commit *commitgraph.Commit, path string) ([]byte, error) {
	blobDigest, tracked := commit.BlobFor(path)
	if !tracked {
		return nil, failures.New(failures.KindFileNotInCommit)
	}
	content, getError := reconciler.store.Get(blobDigest)
	if getError != nil {
		return nil, failures.Internal(readBlobOperationConstant, getError)
	}
	return content, nil
}

func (reconciler *Reconciler) restoreAll(commit *commitgraph.Commit) (int, error) {
	trackedPaths := commit.TrackedPaths()
	for _, trackedPath := range trackedPaths {
		if restoreError := reconciler.RestorePath(commit, trackedPath); restoreError != nil {
			return 0, restoreError
		}
	}
	return len(trackedPaths), nil
}

func (reconciler *Reconciler) workingPath(path string) string {
	return filepath.Join(reconciler.root, path)
}
