// Package repository loads every persisted component of an lwgit repository
// once per command and writes the dirty state back at completion.
package repository

import (
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ericy3/lightweightGit/internal/commitgraph"
	"github.com/ericy3/lightweightGit/internal/failures"
	"github.com/ericy3/lightweightGit/internal/filesystem"
	"github.com/ericy3/lightweightGit/internal/history"
	"github.com/ericy3/lightweightGit/internal/merge"
	"github.com/ericy3/lightweightGit/internal/objectstore"
	"github.com/ericy3/lightweightGit/internal/refs"
	"github.com/ericy3/lightweightGit/internal/staging"
	"github.com/ericy3/lightweightGit/internal/worktree"
)

const (
	// DefaultDirectoryName is the repository marker directory.
	DefaultDirectoryName = ".lwgit"
	// DefaultBranchName is the branch created by Init.
	DefaultBranchName = "master"

	directoryPermissionsConstant   = 0o755
	objectsDirectoryNameConstant   = "objects"
	commitsDirectoryNameConstant   = "commits"
	indexDirectoryNameConstant     = "index"
	blobIndexFileNameConstant      = "blobs.json"
	refsFileNameConstant           = "refs.yaml"
	stagingDirectoryNameConstant   = "staging"
	inspectMarkerOperationConstant = "inspect repository marker"
	createLayoutOperationConstant  = "create repository layout"
	openStoreOperationConstant     = "open object store"
	openGraphOperationConstant     = "open commit graph"
	openRefsOperationConstant      = "open ref table"
	openStagingOperationConstant   = "open staging overlay"
	openWorktreeOperationConstant  = "open working tree"
	openHistoryOperationConstant   = "open history service"
	openMergeOperationConstant     = "open merge engine"
	createInitialOperationConstant = "create initial commit"
	saveStoreOperationConstant     = "save object store index"
	saveGraphOperationConstant     = "save commit graph"
	saveRefsOperationConstant      = "save ref table"
	repositoryInitializedConstant  = "repository initialized"
	repositoryOpenedConstant       = "repository opened"
	repositorySavedConstant        = "repository saved"
	logFieldRootConstant           = "root"
	logFieldBranchConstant         = "branch"
	logFieldCommitConstant         = "commit"
	logFieldCommitCountConstant    = "commit_count"
)

// Options configures where and how a repository is opened.
type Options struct {
	Root          string
	DirectoryName string
	DefaultBranch string
	Location      *time.Location
	Clock         commitgraph.Clock
	Logger        *zap.Logger
	FileSystem    filesystem.FileSystem
}

// Repository is the per-command context holding every loaded component.
type Repository struct {
	Root            string
	MarkerDirectory string
	Logger          *zap.Logger
	FileSystem      filesystem.FileSystem
	Store           *objectstore.Store
	Graph           *commitgraph.Graph
	Refs            *refs.Table
	Staging         *staging.Area
	Worktree        *worktree.Reconciler
	History         *history.Service
	Merge           *merge.Engine
}

// Init creates the repository layout, the initial commit, and the default branch.
func Init(options Options) (*Repository, error) {
	resolved := options.sanitize()

	markerExists, existsError := filesystem.Exists(resolved.FileSystem, resolved.markerDirectory())
	if existsError != nil {
		return nil, failures.Internal(inspectMarkerOperationConstant, existsError)
	}
	if markerExists {
		return nil, failures.New(failures.KindAlreadyInitialized)
	}

	for _, directory := range resolved.layout() {
		if mkdirError := resolved.FileSystem.MkdirAll(directory, directoryPermissionsConstant); mkdirError != nil {
			return nil, failures.Internal(createLayoutOperationConstant, mkdirError)
		}
	}

	repository, loadError := load(resolved)
	if loadError != nil {
		return nil, loadError
	}

	initial, initialError := repository.Graph.CreateInitial()
	if initialError != nil {
		return nil, failures.Internal(createInitialOperationConstant, initialError)
	}
	repository.Graph.Freeze(initial)
	repository.Refs.Initialize(resolved.DefaultBranch, initial.ID)

	if saveError := repository.Save(); saveError != nil {
		return nil, saveError
	}

	repository.Logger.Info(
		repositoryInitializedConstant,
		zap.String(logFieldRootConstant, repository.Root),
		zap.String(logFieldBranchConstant, resolved.DefaultBranch),
		zap.String(logFieldCommitConstant, initial.ID.String()),
	)
	return repository, nil
}

// Open loads an existing repository, failing with NotInitialized when the marker is absent.
func Open(options Options) (*Repository, error) {
	resolved := options.sanitize()

	markerExists, existsError := filesystem.Exists(resolved.FileSystem, resolved.markerDirectory())
	if existsError != nil {
		return nil, failures.Internal(inspectMarkerOperationConstant, existsError)
	}
	if !markerExists {
		return nil, failures.New(failures.KindNotInitialized)
	}

	repository, loadError := load(resolved)
	if loadError != nil {
		return nil, loadError
	}
	repository.Logger.Debug(
		repositoryOpenedConstant,
		zap.String(logFieldRootConstant, repository.Root),
		zap.Int(logFieldCommitCountConstant, len(repository.Graph.IDs())),
	)
	return repository, nil
}

// Save persists the blob index, new commits, the overlay, and finally the ref table.
func (repository *Repository) Save() error {
	if saveError := repository.Store.Save(); saveError != nil {
		return failures.Internal(saveStoreOperationConstant, saveError)
	}
	if saveError := repository.Graph.Save(); saveError != nil {
		return failures.Internal(saveGraphOperationConstant, saveError)
	}
	if saveError := repository.Staging.Save(); saveError != nil {
		return saveError
	}
	if saveError := repository.Refs.Save(); saveError != nil {
		return failures.Internal(saveRefsOperationConstant, saveError)
	}
	repository.Logger.Debug(repositorySavedConstant, zap.String(logFieldRootConstant, repository.Root))
	return nil
}

func load(options Options) (*Repository, error) {
	marker := options.markerDirectory()

	store, storeError := objectstore.Open(objectstore.Dependencies{
		Logger:           options.Logger,
		FileSystem:       options.FileSystem,
		ObjectsDirectory: filepath.Join(marker, objectsDirectoryNameConstant),
		IndexPath:        filepath.Join(marker, indexDirectoryNameConstant, blobIndexFileNameConstant),
	})
	if storeError != nil {
		return nil, failures.Internal(openStoreOperationConstant, storeError)
	}

	graph, graphError := commitgraph.Open(commitgraph.Dependencies{
		Logger:           options.Logger,
		FileSystem:       options.FileSystem,
		CommitsDirectory: filepath.Join(marker, commitsDirectoryNameConstant),
		Clock:            options.Clock,
		Location:         options.Location,
	})
	if graphError != nil {
		return nil, failures.Internal(openGraphOperationConstant, graphError)
	}

	table, refsError := refs.Open(refs.Dependencies{
		Logger:     options.Logger,
		FileSystem: options.FileSystem,
		Path:       filepath.Join(marker, refsFileNameConstant),
	})
	if refsError != nil {
		return nil, failures.Internal(openRefsOperationConstant, refsError)
	}

	area, stagingError := staging.Open(staging.Dependencies{
		Logger:           options.Logger,
		FileSystem:       options.FileSystem,
		Directory:        filepath.Join(marker, stagingDirectoryNameConstant),
		WorkingDirectory: options.Root,
		Store:            store,
		Graph:            graph,
	})
	if stagingError != nil {
		return nil, failures.Internal(openStagingOperationConstant, stagingError)
	}

	reconciler, reconcilerError := worktree.NewReconciler(worktree.Dependencies{
		Logger:     options.Logger,
		FileSystem: options.FileSystem,
		Root:       options.Root,
		Store:      store,
		Graph:      graph,
		Refs:       table,
		Staging:    area,
	})
	if reconcilerError != nil {
		return nil, failures.Internal(openWorktreeOperationConstant, reconcilerError)
	}

	historyService, historyError := history.NewService(history.Dependencies{
		Logger:  options.Logger,
		Graph:   graph,
		Refs:    table,
		Staging: area,
	})
	if historyError != nil {
		return nil, failures.Internal(openHistoryOperationConstant, historyError)
	}

	engine, engineError := merge.NewEngine(merge.Dependencies{
		Logger:   options.Logger,
		Graph:    graph,
		Refs:     table,
		Staging:  area,
		Worktree: reconciler,
		History:  historyService,
	})
	if engineError != nil {
		return nil, failures.Internal(openMergeOperationConstant, engineError)
	}

	return &Repository{
		Root:            options.Root,
		MarkerDirectory: marker,
		Logger:          options.Logger,
		FileSystem:      options.FileSystem,
		Store:           store,
		Graph:           graph,
		Refs:            table,
		Staging:         area,
		Worktree:        reconciler,
		History:         historyService,
		Merge:           engine,
	}, nil
}

func (options Options) sanitize() Options {
	sanitized := options
	if len(strings.TrimSpace(sanitized.Root)) == 0 {
		sanitized.Root = "."
	}
	if len(strings.TrimSpace(sanitized.DirectoryName)) == 0 {
		sanitized.DirectoryName = DefaultDirectoryName
	}
	if len(strings.TrimSpace(sanitized.DefaultBranch)) == 0 {
		sanitized.DefaultBranch = DefaultBranchName
	}
	if sanitized.Location == nil {
		sanitized.Location = time.Local
	}
	if sanitized.Clock == nil {
		sanitized.Clock = commitgraph.SystemClock{}
	}
	if sanitized.Logger == nil {
		sanitized.Logger = zap.NewNop()
	}
	if sanitized.FileSystem == nil {
		sanitized.FileSystem = filesystem.OSFileSystem{}
	}
	return sanitized
}

func (options Options) markerDirectory() string {
	return filepath.Join(options.Root, options.DirectoryName)
}

func (options Options) layout() []string {
	marker := options.markerDirectory()
	directories := []string{
		marker,
		filepath.Join(marker, objectsDirectoryNameConstant),
		filepath.Join(marker, commitsDirectoryNameConstant),
		filepath.Join(marker, indexDirectoryNameConstant),
	}
	return append(directories, staging.Layout(filepath.Join(marker, stagingDirectoryNameConstant))...)
}
