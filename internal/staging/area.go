package staging

import (
	"errors"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/ericy3/lightweightGit/internal/commitgraph"
	"github.com/ericy3/lightweightGit/internal/digest"
	"github.com/ericy3/lightweightGit/internal/failures"
	"github.com/ericy3/lightweightGit/internal/filesystem"
	"github.com/ericy3/lightweightGit/internal/objectstore"
)

const (
	retainedPermissionsConstant       = 0o644
	additionsDirectoryNameConstant    = "additions"
	removalsDirectoryNameConstant     = "removals"
	indexFileNameConstant             = "index.json"
	fileSystemMissingMessageConstant  = "staging file system not configured"
	directoryMissingMessageConstant   = "staging directory not configured"
	workingTreeMissingMessageConstant = "staging working tree not configured"
	storeMissingMessageConstant       = "staging object store not configured"
	graphMissingMessageConstant       = "staging commit graph not configured"
	loadIndexOperationConstant        = "load staging index"
	saveIndexOperationConstant        = "save staging index"
	readWorkingOperationConstant      = "read working file"
	storeBlobOperationConstant        = "store staged blob"
	retainOperationConstant           = "retain staged content"
	releaseOperationConstant          = "release staged content"
	deleteWorkingOperationConstant    = "delete working file"
	createCommitOperationConstant     = "create commit"
	populateCommitOperationConstant   = "populate commit"
	digestOperationConstant           = "compute working digest"
	readBlobOperationConstant         = "read tracked blob"
	pathStagedMessageConstant         = "path staged for addition"
	pathUnstagedMessageConstant       = "path un-staged"
	pathRemovedMessageConstant        = "path staged for removal"
	unchangedMessageConstant          = "path matches head; overlay cleared"
	blobReleasedMessageConstant       = "unreferenced staged blob released"
	overlayFlushedMessageConstant     = "staging overlay flushed"
	overlayClearedMessageConstant     = "staging overlay cleared"
	logFieldPathConstant              = "path"
	logFieldDigestConstant            = "digest"
	logFieldCommitConstant            = "commit"
	logFieldAdditionsConstant         = "additions"
	logFieldRemovalsConstant          = "removals"
)

var (
	errFileSystemMissing  = errors.New(fileSystemMissingMessageConstant)
	errDirectoryMissing   = errors.New(directoryMissingMessageConstant)
	errWorkingTreeMissing = errors.New(workingTreeMissingMessageConstant)
	errStoreMissing       = errors.New(storeMissingMessageConstant)
	errGraphMissing       = errors.New(graphMissingMessageConstant)
)

// Dependencies describes the collaborators required by Area.
type Dependencies struct {
	Logger           *zap.Logger
	FileSystem       filesystem.FileSystem
	Directory        string
	WorkingDirectory string
	Store            *objectstore.Store
	Graph            *commitgraph.Graph
}

// MergeParent turns a flush into the two-parent merge variant.
type MergeParent struct {
	SecondParent  digest.Digest
	CurrentBranch string
	GivenBranch   string
}

// FlushOptions configures FlushInto.
type FlushOptions struct {
	Message string
	Merge   *MergeParent
	// AllowEmpty permits a flush with an empty overlay.
	AllowEmpty bool
}

type indexRecord struct {
	Additions map[string]digest.Digest `json:"additions"`
	Removals  map[string]digest.Digest `json:"removals"`
}

// Area is the pending addition/removal overlay on top of the HEAD commit.
// A path is never present in both maps.
type Area struct {
	logger           *zap.Logger
	fileSystem       filesystem.FileSystem
	directory        string
	workingDirectory string
	store            *objectstore.Store
	graph            *commitgraph.Graph
	record           indexRecord
	dirty            bool
}

// Open loads the overlay index, treating a missing index as an empty overlay.
func Open(dependencies Dependencies) (*Area, error) {
	switch {
	case dependencies.FileSystem == nil:
		return nil, errFileSystemMissing
	case len(dependencies.Directory) == 0:
		return nil, errDirectoryMissing
	case len(dependencies.WorkingDirectory) == 0:
		return nil, errWorkingTreeMissing
	case dependencies.Store == nil:
		return nil, errStoreMissing
	case dependencies.Graph == nil:
		return nil, errGraphMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	area := &Area{
		logger:           logger,
		fileSystem:       dependencies.FileSystem,
		directory:        dependencies.Directory,
		workingDirectory: dependencies.WorkingDirectory,
		store:            dependencies.Store,
		graph:            dependencies.Graph,
	}

	indexExists, existsError := filesystem.Exists(area.fileSystem, area.indexPath())
	if existsError != nil {
		return nil, failures.Internal(loadIndexOperationConstant, existsError)
	}
	if indexExists {
		if readError := filesystem.ReadJSON(area.fileSystem, area.indexPath(), &area.record); readError != nil {
			return nil, failures.Internal(loadIndexOperationConstant, readError)
		}
	}
	if area.record.Additions == nil {
		area.record.Additions = map[string]digest.Digest{}
	}
	if area.record.Removals == nil {
		area.record.Removals = map[string]digest.Digest{}
	}

	return area, nil
}

// Layout returns the directories the overlay keeps its retained copies in.
func Layout(directory string) []string {
	return []string{
		directory,
		filepath.Join(directory, additionsDirectoryNameConstant),
		filepath.Join(directory, removalsDirectoryNameConstant),
	}
}

// StageAdd records the working file at path as a pending addition. Re-adding
// content equal to head's tracked version un-stages the path instead.
func (area *Area) StageAdd(head *commitgraph.Commit, path string) error {
	if !filesystem.IsWorkingName(path) {
		return failures.New(failures.KindFileNotFound)
	}
	content, present, readError := area.readWorking(path)
	if readError != nil {
		return readError
	}
	if !present {
		return failures.New(failures.KindFileNotFound)
	}

	workingDigest, digestError := digest.OfBlob(path, content)
	if digestError != nil {
		return failures.Internal(digestOperationConstant, digestError)
	}

	if headDigest, tracked := head.BlobFor(path); tracked && headDigest == workingDigest {
		if unstageError := area.dropAddition(path); unstageError != nil {
			return unstageError
		}
		if releaseError := area.dropRemoval(path); releaseError != nil {
			return releaseError
		}
		area.logger.Debug(unchangedMessageConstant, zap.String(logFieldPathConstant, path))
		return nil
	}

	if releaseError := area.dropRemoval(path); releaseError != nil {
		return releaseError
	}
	if previousDigest, staged := area.record.Additions[path]; staged && previousDigest != workingDigest {
		if unstageError := area.dropAddition(path); unstageError != nil {
			return unstageError
		}
	}

	if _, putError := area.store.Put(path, content); putError != nil {
		return failures.Internal(storeBlobOperationConstant, putError)
	}
	if retainError := area.fileSystem.WriteFile(area.retainedPath(additionsDirectoryNameConstant, workingDigest), content, retainedPermissionsConstant); retainError != nil {
		return failures.Internal(retainOperationConstant, retainError)
	}
	area.record.Additions[path] = workingDigest
	area.dirty = true

	area.logger.Debug(pathStagedMessageConstant, zap.String(logFieldPathConstant, path), zap.String(logFieldDigestConstant, workingDigest.String()))
	return nil
}

// StageRemove un-stages a pending addition of path and, when head tracks
// path, deletes the working file and records a removal.
func (area *Area) StageRemove(head *commitgraph.Commit, path string) error {
	if !filesystem.IsWorkingName(path) {
		return failures.New(failures.KindNothingToRemove)
	}
	_, staged := area.record.Additions[path]
	headDigest, tracked := head.BlobFor(path)
	if !staged && !tracked {
		return failures.New(failures.KindNothingToRemove)
	}

	if staged {
		if unstageError := area.dropAddition(path); unstageError != nil {
			return unstageError
		}
	}
	if !tracked {
		return nil
	}

	content, present, readError := area.readWorking(path)
	if readError != nil {
		return readError
	}
	removalDigest := headDigest
	if present {
		workingDigest, digestError := digest.OfBlob(path, content)
		if digestError != nil {
			return failures.Internal(digestOperationConstant, digestError)
		}
		removalDigest = workingDigest
	} else {
		storedContent, getError := area.store.Get(headDigest)
		if getError != nil {
			return failures.Internal(readBlobOperationConstant, getError)
		}
		content = storedContent
	}

	if retainError := area.fileSystem.WriteFile(area.retainedPath(removalsDirectoryNameConstant, removalDigest), content, retainedPermissionsConstant); retainError != nil {
		return failures.Internal(retainOperationConstant, retainError)
	}
	area.record.Removals[path] = removalDigest
	area.dirty = true

	if present {
		if removeError := area.fileSystem.Remove(filepath.Join(area.workingDirectory, path)); removeError != nil {
			return failures.Internal(deleteWorkingOperationConstant, removeError)
		}
	}

	area.logger.Debug(pathRemovedMessageConstant, zap.String(logFieldPathConstant, path), zap.String(logFieldDigestConstant, removalDigest.String()))
	return nil
}

// FlushInto folds the overlay into a new child of parent and clears the
// overlay. The child is frozen before it is returned.
func (area *Area) FlushInto(parent *commitgraph.Commit, options FlushOptions) (*commitgraph.Commit, error) {
	if area.IsEmpty() && !options.AllowEmpty {
		return nil, failures.New(failures.KindNothingStaged)
	}

	child, createError := area.graph.Create(options.Message, parent.ID, digest.None)
	if createError != nil {
		return nil, failures.Internal(createCommitOperationConstant, createError)
	}

	for _, trackedPath := range parent.TrackedPaths() {
		if _, removed := area.record.Removals[trackedPath]; removed {
			continue
		}
		trackedDigest := parent.Tracked[trackedPath]
		if stagedDigest, staged := area.record.Additions[trackedPath]; staged {
			trackedDigest = stagedDigest
			area.store.Register(stagedDigest, trackedPath)
		}
		if updateError := area.graph.UpdateTracked(child, trackedPath, trackedDigest); updateError != nil {
			return nil, failures.Internal(populateCommitOperationConstant, updateError)
		}
	}
	for _, stagedPath := range area.AdditionPaths() {
		if parent.Tracks(stagedPath) {
			continue
		}
		if updateError := area.graph.UpdateTracked(child, stagedPath, area.record.Additions[stagedPath]); updateError != nil {
			return nil, failures.Internal(populateCommitOperationConstant, updateError)
		}
	}

	if options.Merge != nil {
		if mergeError := area.graph.UpdateToMerge(child, options.Merge.SecondParent, options.Merge.CurrentBranch, options.Merge.GivenBranch); mergeError != nil {
			return nil, failures.Internal(populateCommitOperationConstant, mergeError)
		}
	}
	area.graph.Freeze(child)

	area.logger.Debug(
		overlayFlushedMessageConstant,
		zap.String(logFieldCommitConstant, child.ID.String()),
		zap.Int(logFieldAdditionsConstant, len(area.record.Additions)),
		zap.Int(logFieldRemovalsConstant, len(area.record.Removals)),
	)

	if clearError := area.release(); clearError != nil {
		return nil, clearError
	}
	return child, nil
}

// Clear empties both maps and deletes their retained copies. Staged blobs no
// commit references are released from the object store.
func (area *Area) Clear() error {
	for _, stagedPath := range area.AdditionPaths() {
		if dropError := area.dropAddition(stagedPath); dropError != nil {
			return dropError
		}
	}
	if releaseError := area.release(); releaseError != nil {
		return releaseError
	}
	area.logger.Debug(overlayClearedMessageConstant)
	return nil
}

// IsEmpty reports whether no addition or removal is pending.
func (area *Area) IsEmpty() bool {
	return len(area.record.Additions) == 0 && len(area.record.Removals) == 0
}

// Addition returns the staged digest for path.
func (area *Area) Addition(path string) (digest.Digest, bool) {
	stagedDigest, staged := area.record.Additions[path]
	return stagedDigest, staged
}

// Removal returns the digest recorded when path was staged for removal.
func (area *Area) Removal(path string) (digest.Digest, bool) {
	removalDigest, removed := area.record.Removals[path]
	return removalDigest, removed
}

// AdditionPaths returns the staged paths in ascending order.
func (area *Area) AdditionPaths() []string {
	return sortedKeys(area.record.Additions)
}

// RemovalPaths returns the paths pending removal in ascending order.
func (area *Area) RemovalPaths() []string {
	return sortedKeys(area.record.Removals)
}

// Save writes the overlay index when it changed since Open.
func (area *Area) Save() error {
	if !area.dirty {
		return nil
	}
	if writeError := filesystem.WriteJSON(area.fileSystem, area.indexPath(), area.record); writeError != nil {
		return failures.Internal(saveIndexOperationConstant, writeError)
	}
	area.dirty = false
	return nil
}

// dropAddition un-stages path and releases the blob when nothing else uses it.
func (area *Area) dropAddition(path string) error {
	stagedDigest, staged := area.record.Additions[path]
	if !staged {
		return nil
	}
	delete(area.record.Additions, path)
	area.dirty = true

	if removeError := area.fileSystem.Remove(area.retainedPath(additionsDirectoryNameConstant, stagedDigest)); removeError != nil {
		return failures.Internal(releaseOperationConstant, removeError)
	}
	area.logger.Debug(pathUnstagedMessageConstant, zap.String(logFieldPathConstant, path), zap.String(logFieldDigestConstant, stagedDigest.String()))

	if area.graph.References(stagedDigest) {
		return nil
	}
	if removeError := area.store.Remove(stagedDigest); removeError != nil {
		return failures.Internal(releaseOperationConstant, removeError)
	}
	area.logger.Debug(blobReleasedMessageConstant, zap.String(logFieldDigestConstant, stagedDigest.String()))
	return nil
}

func (area *Area) dropRemoval(path string) error {
	removalDigest, removed := area.record.Removals[path]
	if !removed {
		return nil
	}
	delete(area.record.Removals, path)
	area.dirty = true
	if removeError := area.fileSystem.Remove(area.retainedPath(removalsDirectoryNameConstant, removalDigest)); removeError != nil {
		return failures.Internal(releaseOperationConstant, removeError)
	}
	return nil
}

// release empties both maps after their content is committed or discarded.
func (area *Area) release() error {
	for stagedPath, stagedDigest := range area.record.Additions {
		if removeError := area.fileSystem.Remove(area.retainedPath(additionsDirectoryNameConstant, stagedDigest)); removeError != nil {
			return failures.Internal(releaseOperationConstant, removeError)
		}
		delete(area.record.Additions, stagedPath)
	}
	for removedPath, removalDigest := range area.record.Removals {
		if removeError := area.fileSystem.Remove(area.retainedPath(removalsDirectoryNameConstant, removalDigest)); removeError != nil {
			return failures.Internal(releaseOperationConstant, removeError)
		}
		delete(area.record.Removals, removedPath)
	}
	area.dirty = true
	return nil
}

func (area *Area) readWorking(path string) ([]byte, bool, error) {
	workingPath := filepath.Join(area.workingDirectory, path)
	present, existsError := filesystem.RegularFileExists(area.fileSystem, workingPath)
	if existsError != nil {
		return nil, false, failures.Internal(readWorkingOperationConstant, existsError)
	}
	if !present {
		return nil, false, nil
	}
	content, readError := area.fileSystem.ReadFile(workingPath)
	if readError != nil {
		return nil, false, failures.Internal(readWorkingOperationConstant, readError)
	}
	return content, true, nil
}

func (area *Area) indexPath() string {
	return filepath.Join(area.directory, indexFileNameConstant)
}

func (area *Area) retainedPath(section string, retainedDigest digest.Digest) string {
	return filepath.Join(area.directory, section, retainedDigest.String())
}

func sortedKeys(entries map[string]digest.Digest) []string {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
