// Package commitgraph stores immutable commit records in an id-indexed arena.
//
// Parent links are ids, never live references, so the graph needs no cycle
// handling. Commits are created as drafts, populated, then frozen by the
// component that created them; Save persists every draft and drops records
// whose id changed during the command.
package commitgraph

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ericy3/lightweightGit/internal/digest"
	"github.com/ericy3/lightweightGit/internal/filesystem"
)

const (
	commitRecordExtensionConstant     = ".json"
	fileSystemMissingMessageConstant  = "commit graph file system not configured"
	directoryMissingMessageConstant   = "commit graph directory not configured"
	commitFrozenMessageConstant       = "commit is frozen"
	commitUnknownMessageConstant      = "commit is not part of the graph"
	commitFrozenTemplateConstant      = "%w: %s"
	listCommitsErrorTemplateConstant  = "list commit records: %w"
	loadCommitErrorTemplateConstant   = "load commit record %s: %w"
	saveCommitErrorTemplateConstant   = "save commit record %s: %w"
	removeCommitErrorTemplateConstant = "remove commit record %s: %w"
	computeIDErrorTemplateConstant    = "compute commit id: %w"
	commitCreatedMessageConstant      = "commit created"
	commitCollisionMessageConstant    = "commit id collision replaces existing record"
	commitRekeyedMessageConstant      = "commit converted to merge"
	commitFrozenLogMessageConstant    = "commit frozen"
	logFieldCommitConstant            = "commit"
	logFieldPreviousCommitConstant    = "previous_commit"
	logFieldParentConstant            = "parent"
	logFieldSecondParentConstant      = "second_parent"
	logFieldMessageConstant           = "message"
	logFieldTrackedCountConstant      = "tracked_count"
)

var (
	// ErrCommitFrozen reports an attempt to mutate a frozen commit.
	ErrCommitFrozen = errors.New(commitFrozenMessageConstant)
	// ErrCommitUnknown reports a commit handle that does not belong to the graph.
	ErrCommitUnknown = errors.New(commitUnknownMessageConstant)

	errFileSystemMissing = errors.New(fileSystemMissingMessageConstant)
	errDirectoryMissing  = errors.New(directoryMissingMessageConstant)
)

// Dependencies describes the collaborators required by Graph.
type Dependencies struct {
	Logger           *zap.Logger
	FileSystem       filesystem.FileSystem
	CommitsDirectory string
	Clock            Clock
	Location         *time.Location
}

// Graph is the persisted set of commits keyed by id.
type Graph struct {
	logger           *zap.Logger
	fileSystem       filesystem.FileSystem
	commitsDirectory string
	clock            Clock
	location         *time.Location
	commits          map[digest.Digest]*Commit
	pending          map[digest.Digest]struct{}
	stale            map[digest.Digest]struct{}
	displaced        map[digest.Digest]*Commit
}

// Open loads every commit record from the commits directory. Loaded commits are frozen.
func Open(dependencies Dependencies) (*Graph, error) {
	if dependencies.FileSystem == nil {
		return nil, errFileSystemMissing
	}
	if len(dependencies.CommitsDirectory) == 0 {
		return nil, errDirectoryMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := dependencies.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	location := dependencies.Location
	if location == nil {
		location = time.Local
	}

	graph := &Graph{
		logger:           logger,
		fileSystem:       dependencies.FileSystem,
		commitsDirectory: dependencies.CommitsDirectory,
		clock:            clock,
		location:         location,
		commits:          map[digest.Digest]*Commit{},
		pending:          map[digest.Digest]struct{}{},
		stale:            map[digest.Digest]struct{}{},
		displaced:        map[digest.Digest]*Commit{},
	}

	recordNames, listError := graph.fileSystem.ListFiles(graph.commitsDirectory)
	if listError != nil {
		return nil, fmt.Errorf(listCommitsErrorTemplateConstant, listError)
	}
	for _, recordName := range recordNames {
		if filepath.Ext(recordName) != commitRecordExtensionConstant {
			continue
		}
		var loaded Commit
		if readError := filesystem.ReadJSON(graph.fileSystem, filepath.Join(graph.commitsDirectory, recordName), &loaded); readError != nil {
			return nil, fmt.Errorf(loadCommitErrorTemplateConstant, recordName, readError)
		}
		if loaded.Tracked == nil {
			loaded.Tracked = map[string]digest.Digest{}
		}
		loaded.frozen = true
		graph.commits[loaded.ID] = &loaded
	}

	return graph, nil
}

// CreateInitial creates the parentless root commit dated at the Unix epoch.
func (graph *Graph) CreateInitial() (*Commit, error) {
	return graph.createAt(InitialCommitMessage, digest.None, digest.None, time.Unix(0, 0))
}

// Create builds a draft commit stamped with the current time. Its tracked
// table is empty until populated with UpdateTracked.
func (graph *Graph) Create(message string, parentID digest.Digest, secondParentID digest.Digest) (*Commit, error) {
	return graph.createAt(message, parentID, secondParentID, graph.clock.Now())
}

func (graph *Graph) createAt(message string, parentID digest.Digest, secondParentID digest.Digest, moment time.Time) (*Commit, error) {
	timestamp := moment.In(graph.location).Format(TimestampLayout)
	commitID, idError := computeID(message, timestamp, parentID, secondParentID)
	if idError != nil {
		return nil, fmt.Errorf(computeIDErrorTemplateConstant, idError)
	}

	if existing, collides := graph.commits[commitID]; collides {
		graph.logger.Warn(commitCollisionMessageConstant, zap.String(logFieldCommitConstant, commitID.String()))
		graph.displaced[commitID] = existing
	}

	commit := &Commit{
		ID:           commitID,
		Message:      message,
		Parent:       parentID,
		SecondParent: secondParentID,
		Timestamp:    timestamp,
		Tracked:      map[string]digest.Digest{},
	}
	graph.commits[commitID] = commit
	graph.pending[commitID] = struct{}{}
	delete(graph.stale, commitID)

	graph.logger.Debug(
		commitCreatedMessageConstant,
		zap.String(logFieldCommitConstant, commitID.String()),
		zap.String(logFieldParentConstant, parentID.String()),
		zap.String(logFieldMessageConstant, message),
	)
	return commit, nil
}

// UpdateTracked adds or overwrites one tracked entry of a draft commit.
func (graph *Graph) UpdateTracked(commit *Commit, path string, blobDigest digest.Digest) error {
	if mutableError := graph.requireMutable(commit); mutableError != nil {
		return mutableError
	}
	commit.Tracked[path] = blobDigest
	graph.pending[commit.ID] = struct{}{}
	return nil
}

// UpdateToMerge rewrites the draft's message to "Merged {given} into {current}."
// and records the second parent. The id changes; callers must re-read commit.ID.
func (graph *Graph) UpdateToMerge(commit *Commit, secondParentID digest.Digest, currentBranch string, givenBranch string) error {
	if mutableError := graph.requireMutable(commit); mutableError != nil {
		return mutableError
	}

	message := fmt.Sprintf(mergeMessageTemplateConstant, givenBranch, currentBranch)
	updatedID, idError := computeID(message, commit.Timestamp, commit.Parent, secondParentID)
	if idError != nil {
		return fmt.Errorf(computeIDErrorTemplateConstant, idError)
	}

	previousID := commit.ID
	if displaced, wasDisplaced := graph.displaced[previousID]; wasDisplaced {
		graph.commits[previousID] = displaced
		delete(graph.displaced, previousID)
	} else {
		delete(graph.commits, previousID)
		delete(graph.pending, previousID)
		graph.stale[previousID] = struct{}{}
	}

	commit.Message = message
	commit.SecondParent = secondParentID
	commit.ID = updatedID
	graph.commits[updatedID] = commit
	graph.pending[updatedID] = struct{}{}
	delete(graph.stale, updatedID)

	graph.logger.Debug(
		commitRekeyedMessageConstant,
		zap.String(logFieldCommitConstant, updatedID.String()),
		zap.String(logFieldPreviousCommitConstant, previousID.String()),
		zap.String(logFieldSecondParentConstant, secondParentID.String()),
	)
	return nil
}

// Freeze seals the commit's tracked table.
func (graph *Graph) Freeze(commit *Commit) {
	if commit == nil || commit.frozen {
		return
	}
	commit.frozen = true
	graph.logger.Debug(commitFrozenLogMessageConstant, zap.String(logFieldCommitConstant, commit.ID.String()), zap.Int(logFieldTrackedCountConstant, len(commit.Tracked)))
}

// Lookup returns the commit with the full id commitID.
func (graph *Graph) Lookup(commitID digest.Digest) (*Commit, bool) {
	commit, known := graph.commits[commitID]
	return commit, known
}

// AncestorsOnceRemoved returns the ids of the commit's parent and second parent, when present.
func (graph *Graph) AncestorsOnceRemoved(commit *Commit) []digest.Digest {
	parents := make([]digest.Digest, 0, 2)
	if !commit.Parent.IsZero() {
		parents = append(parents, commit.Parent)
	}
	if !commit.SecondParent.IsZero() {
		parents = append(parents, commit.SecondParent)
	}
	return parents
}

// ResolvePrefix returns the first id, in ascending order, containing partialID.
// Ambiguous input is not rejected; the first match wins.
func (graph *Graph) ResolvePrefix(partialID string) (digest.Digest, bool) {
	if len(partialID) == 0 {
		return digest.None, false
	}
	for _, commitID := range graph.IDs() {
		if strings.Contains(commitID.String(), partialID) {
			return commitID, true
		}
	}
	return digest.None, false
}

// IDs returns every commit id in persisted (ascending) order.
func (graph *Graph) IDs() []digest.Digest {
	commitIDs := make([]digest.Digest, 0, len(graph.commits))
	for commitID := range graph.commits {
		commitIDs = append(commitIDs, commitID)
	}
	sort.Slice(commitIDs, func(left int, right int) bool { return commitIDs[left] < commitIDs[right] })
	return commitIDs
}

// References reports whether any commit tracks blobDigest.
func (graph *Graph) References(blobDigest digest.Digest) bool {
	for _, commit := range graph.commits {
		for _, trackedDigest := range commit.Tracked {
			if trackedDigest == blobDigest {
				return true
			}
		}
	}
	return false
}

// Save persists created commits and removes records superseded by UpdateToMerge.
func (graph *Graph) Save() error {
	for staleID := range graph.stale {
		if removeError := graph.fileSystem.Remove(graph.recordPath(staleID)); removeError != nil {
			return fmt.Errorf(removeCommitErrorTemplateConstant, staleID, removeError)
		}
		delete(graph.stale, staleID)
	}
	for pendingID := range graph.pending {
		commit, known := graph.commits[pendingID]
		if !known {
			delete(graph.pending, pendingID)
			continue
		}
		if writeError := filesystem.WriteJSON(graph.fileSystem, graph.recordPath(pendingID), commit); writeError != nil {
			return fmt.Errorf(saveCommitErrorTemplateConstant, pendingID, writeError)
		}
		delete(graph.pending, pendingID)
	}
	clear(graph.displaced)
	return nil
}

func (graph *Graph) requireMutable(commit *Commit) error {
	if commit == nil {
		return ErrCommitUnknown
	}
	registered, known := graph.commits[commit.ID]
	if !known || registered != commit {
		return fmt.Errorf(commitFrozenTemplateConstant, ErrCommitUnknown, commit.ID)
	}
	if commit.frozen {
		return fmt.Errorf(commitFrozenTemplateConstant, ErrCommitFrozen, commit.ID)
	}
	return nil
}

func (graph *Graph) recordPath(commitID digest.Digest) string {
	return filepath.Join(graph.commitsDirectory, commitID.String()+commitRecordExtensionConstant)
}
