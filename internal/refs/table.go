// Package refs maps symbolic names (HEAD, HEAD_BRANCH, branches, remotes) to their targets.
package refs

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ericy3/lightweightGit/internal/digest"
	"github.com/ericy3/lightweightGit/internal/failures"
	"github.com/ericy3/lightweightGit/internal/filesystem"
)

const (
	// HeadName resolves to the current commit id.
	HeadName = "HEAD"
	// HeadBranchName resolves to the name of the checked-out branch.
	HeadBranchName = "HEAD_BRANCH"

	fileSystemMissingMessageConstant = "ref table file system not configured"
	pathMissingMessageConstant       = "ref table path not configured"
	loadErrorTemplateConstant        = "load ref table: %w"
	saveErrorTemplateConstant        = "save ref table: %w"
	refMovedMessageConstant          = "ref moved"
	branchCreatedMessageConstant     = "branch created"
	branchDeletedMessageConstant     = "branch deleted"
	remoteAddedMessageConstant       = "remote registered"
	remoteRemovedMessageConstant     = "remote removed"
	logFieldNameConstant             = "name"
	logFieldTargetConstant           = "target"
	logFieldDirectoryConstant        = "directory"
)

var (
	errFileSystemMissing = errors.New(fileSystemMissingMessageConstant)
	errPathMissing       = errors.New(pathMissingMessageConstant)
)

// Dependencies describes the collaborators required by Table.
type Dependencies struct {
	Logger     *zap.Logger
	FileSystem filesystem.FileSystem
	Path       string
}

type tableRecord struct {
	Head       digest.Digest            `yaml:"head"`
	HeadBranch string                   `yaml:"head_branch"`
	Branches   map[string]digest.Digest `yaml:"branches"`
	Remotes    map[string]string        `yaml:"remotes"`
}

// Table is the in-memory ref table backed by a single YAML record.
type Table struct {
	logger     *zap.Logger
	fileSystem filesystem.FileSystem
	path       string
	record     tableRecord
	dirty      bool
}

// Open loads the ref table, treating a missing record as empty.
func Open(dependencies Dependencies) (*Table, error) {
	if dependencies.FileSystem == nil {
		return nil, errFileSystemMissing
	}
	if len(dependencies.Path) == 0 {
		return nil, errPathMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	table := &Table{
		logger:     logger,
		fileSystem: dependencies.FileSystem,
		path:       dependencies.Path,
	}

	recordExists, existsError := filesystem.Exists(table.fileSystem, table.path)
	if existsError != nil {
		return nil, fmt.Errorf(loadErrorTemplateConstant, existsError)
	}
	if recordExists {
		if readError := filesystem.ReadYAML(table.fileSystem, table.path, &table.record); readError != nil {
			return nil, fmt.Errorf(loadErrorTemplateConstant, readError)
		}
	}
	if table.record.Branches == nil {
		table.record.Branches = map[string]digest.Digest{}
	}
	if table.record.Remotes == nil {
		table.record.Remotes = map[string]string{}
	}

	return table, nil
}

// Initialize points HEAD and branchName at commitID and checks out branchName.
func (table *Table) Initialize(branchName string, commitID digest.Digest) {
	table.record.Branches[branchName] = commitID
	table.record.Head = commitID
	table.record.HeadBranch = branchName
	table.dirty = true
}

// Get resolves HEAD or a branch name to a commit id.
func (table *Table) Get(name string) (digest.Digest, bool) {
	if name == HeadName {
		return table.record.Head, !table.record.Head.IsZero()
	}
	commitID, known := table.record.Branches[name]
	return commitID, known
}

// Set points HEAD or a branch name at commitID, creating the branch when absent.
func (table *Table) Set(name string, commitID digest.Digest) {
	if name == HeadName {
		table.record.Head = commitID
	} else {
		table.record.Branches[name] = commitID
	}
	table.dirty = true
	table.logger.Debug(refMovedMessageConstant, zap.String(logFieldNameConstant, name), zap.String(logFieldTargetConstant, commitID.String()))
}

// Head returns the current commit id.
func (table *Table) Head() digest.Digest {
	return table.record.Head
}

// CurrentBranch returns the checked-out branch name.
func (table *Table) CurrentBranch() string {
	return table.record.HeadBranch
}

// SetCurrentBranch records name as the checked-out branch.
func (table *Table) SetCurrentBranch(name string) {
	table.record.HeadBranch = name
	table.dirty = true
	table.logger.Debug(refMovedMessageConstant, zap.String(logFieldNameConstant, HeadBranchName), zap.String(logFieldTargetConstant, name))
}

// HasBranch reports whether name is a known branch.
func (table *Table) HasBranch(name string) bool {
	_, known := table.record.Branches[name]
	return known
}

// Branches returns every branch name in ascending order.
func (table *Table) Branches() []string {
	names := make([]string, 0, len(table.record.Branches))
	for name := range table.record.Branches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateBranch points a new branch at the current HEAD commit.
// The reserved names HEAD and HEAD_BRANCH count as existing.
func (table *Table) CreateBranch(name string) error {
	if table.HasBranch(name) || name == HeadName || name == HeadBranchName {
		return failures.New(failures.KindBranchExists)
	}
	table.record.Branches[name] = table.record.Head
	table.dirty = true
	table.logger.Debug(branchCreatedMessageConstant, zap.String(logFieldNameConstant, name), zap.String(logFieldTargetConstant, table.record.Head.String()))
	return nil
}

// DeleteBranch removes the branch pointer; the commits it referenced are untouched.
func (table *Table) DeleteBranch(name string) error {
	if !table.HasBranch(name) {
		return failures.New(failures.KindBranchMissing)
	}
	if name == table.record.HeadBranch {
		return failures.New(failures.KindCannotDeleteCurrent)
	}
	delete(table.record.Branches, name)
	table.dirty = true
	table.logger.Debug(branchDeletedMessageConstant, zap.String(logFieldNameConstant, name))
	return nil
}

// AddRemote records a name to directory association. No data is transferred.
func (table *Table) AddRemote(name string, directory string) error {
	if _, known := table.record.Remotes[name]; known {
		return failures.New(failures.KindRemoteExists)
	}
	table.record.Remotes[name] = directory
	table.dirty = true
	table.logger.Debug(remoteAddedMessageConstant, zap.String(logFieldNameConstant, name), zap.String(logFieldDirectoryConstant, directory))
	return nil
}

// RemoveRemote forgets a registered remote.
func (table *Table) RemoveRemote(name string) error {
	if _, known := table.record.Remotes[name]; !known {
		return failures.New(failures.KindNoSuchRemote)
	}
	delete(table.record.Remotes, name)
	table.dirty = true
	table.logger.Debug(remoteRemovedMessageConstant, zap.String(logFieldNameConstant, name))
	return nil
}

// Remote returns the directory registered for name.
func (table *Table) Remote(name string) (string, bool) {
	directory, known := table.record.Remotes[name]
	return directory, known
}

// Save writes the ref table when it changed since Open.
func (table *Table) Save() error {
	if !table.dirty {
		return nil
	}
	if writeError := filesystem.WriteYAML(table.fileSystem, table.path, table.record); writeError != nil {
		return fmt.Errorf(saveErrorTemplateConstant, writeError)
	}
	table.dirty = false
	return nil
}
