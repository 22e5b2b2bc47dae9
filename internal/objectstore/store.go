// Package objectstore keeps blob snapshots addressed by their name-sensitive digest.
package objectstore

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ericy3/lightweightGit/internal/digest"
	"github.com/ericy3/lightweightGit/internal/filesystem"
)

const (
	blobPermissionsConstant          = 0o644
	fileSystemMissingMessageConstant = "object store file system not configured"
	directoryMissingMessageConstant  = "object store directory not configured"
	indexPathMissingMessageConstant  = "object store index path not configured"
	blobNotFoundMessageConstant      = "blob not found"
	blobNotFoundTemplateConstant     = "%w: %s"
	digestErrorTemplateConstant      = "compute blob digest for %s: %w"
	writeBlobErrorTemplateConstant   = "write blob %s: %w"
	readBlobErrorTemplateConstant    = "read blob %s: %w"
	removeBlobErrorTemplateConstant  = "remove blob %s: %w"
	loadIndexErrorTemplateConstant   = "load blob index: %w"
	saveIndexErrorTemplateConstant   = "save blob index: %w"
	blobStoredMessageConstant        = "blob stored"
	blobReusedMessageConstant        = "blob already stored"
	blobRemovedMessageConstant       = "blob removed"
	logFieldDigestConstant           = "digest"
	logFieldPathConstant             = "path"
	logFieldSizeConstant             = "size"
)

var (
	// ErrBlobNotFound reports a digest with no stored bytes.
	ErrBlobNotFound = errors.New(blobNotFoundMessageConstant)

	errFileSystemMissing = errors.New(fileSystemMissingMessageConstant)
	errDirectoryMissing  = errors.New(directoryMissingMessageConstant)
	errIndexPathMissing  = errors.New(indexPathMissingMessageConstant)
)

// Dependencies describes the collaborators required by Store.
type Dependencies struct {
	Logger           *zap.Logger
	FileSystem       filesystem.FileSystem
	ObjectsDirectory string
	IndexPath        string
}

// Store persists blob bytes under objects/<digest> and remembers the path name each digest belongs to.
type Store struct {
	logger           *zap.Logger
	fileSystem       filesystem.FileSystem
	objectsDirectory string
	indexPath        string
	names            map[digest.Digest]string
	dirty            bool
}

// Open loads the blob index, treating a missing index as empty.
func Open(dependencies Dependencies) (*Store, error) {
	if dependencies.FileSystem == nil {
		return nil, errFileSystemMissing
	}
	if len(dependencies.ObjectsDirectory) == 0 {
		return nil, errDirectoryMissing
	}
	if len(dependencies.IndexPath) == 0 {
		return nil, errIndexPathMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store := &Store{
		logger:           logger,
		fileSystem:       dependencies.FileSystem,
		objectsDirectory: dependencies.ObjectsDirectory,
		indexPath:        dependencies.IndexPath,
		names:            map[digest.Digest]string{},
	}

	indexExists, existsError := filesystem.Exists(store.fileSystem, store.indexPath)
	if existsError != nil {
		return nil, fmt.Errorf(loadIndexErrorTemplateConstant, existsError)
	}
	if indexExists {
		if readError := filesystem.ReadJSON(store.fileSystem, store.indexPath, &store.names); readError != nil {
			return nil, fmt.Errorf(loadIndexErrorTemplateConstant, readError)
		}
	}

	return store, nil
}

// Put stores content under the digest of (path, content) and returns that digest.
// Re-putting an identical pair only refreshes the name association.
func (store *Store) Put(path string, content []byte) (digest.Digest, error) {
	blobDigest, digestError := digest.OfBlob(path, content)
	if digestError != nil {
		return digest.None, fmt.Errorf(digestErrorTemplateConstant, path, digestError)
	}

	blobExists, existsError := filesystem.Exists(store.fileSystem, store.blobPath(blobDigest))
	if existsError != nil {
		return digest.None, fmt.Errorf(readBlobErrorTemplateConstant, blobDigest, existsError)
	}

	if blobExists {
		store.logger.Debug(blobReusedMessageConstant, zap.String(logFieldDigestConstant, blobDigest.String()), zap.String(logFieldPathConstant, path))
	} else {
		if writeError := store.fileSystem.WriteFile(store.blobPath(blobDigest), content, blobPermissionsConstant); writeError != nil {
			return digest.None, fmt.Errorf(writeBlobErrorTemplateConstant, blobDigest, writeError)
		}
		store.logger.Debug(
			blobStoredMessageConstant,
			zap.String(logFieldDigestConstant, blobDigest.String()),
			zap.String(logFieldPathConstant, path),
			zap.Int(logFieldSizeConstant, len(content)),
		)
	}

	store.Register(blobDigest, path)
	return blobDigest, nil
}

// Get returns the stored bytes for blobDigest or ErrBlobNotFound.
func (store *Store) Get(blobDigest digest.Digest) ([]byte, error) {
	blobExists, existsError := filesystem.Exists(store.fileSystem, store.blobPath(blobDigest))
	if existsError != nil {
		return nil, fmt.Errorf(readBlobErrorTemplateConstant, blobDigest, existsError)
	}
	if !blobExists {
		return nil, fmt.Errorf(blobNotFoundTemplateConstant, ErrBlobNotFound, blobDigest)
	}
	content, readError := store.fileSystem.ReadFile(store.blobPath(blobDigest))
	if readError != nil {
		return nil, fmt.Errorf(readBlobErrorTemplateConstant, blobDigest, readError)
	}
	return content, nil
}

// Has reports whether bytes are stored for blobDigest.
func (store *Store) Has(blobDigest digest.Digest) (bool, error) {
	return filesystem.Exists(store.fileSystem, store.blobPath(blobDigest))
}

// Remove deletes the stored bytes and the name association. Absent blobs are ignored.
func (store *Store) Remove(blobDigest digest.Digest) error {
	if removeError := store.fileSystem.Remove(store.blobPath(blobDigest)); removeError != nil {
		return fmt.Errorf(removeBlobErrorTemplateConstant, blobDigest, removeError)
	}
	if _, known := store.names[blobDigest]; known {
		delete(store.names, blobDigest)
		store.dirty = true
	}
	store.logger.Debug(blobRemovedMessageConstant, zap.String(logFieldDigestConstant, blobDigest.String()))
	return nil
}

// ResolveName returns the path most recently associated with blobDigest.
func (store *Store) ResolveName(blobDigest digest.Digest) (string, bool) {
	path, known := store.names[blobDigest]
	return path, known
}

// Register (re)associates blobDigest with path.
func (store *Store) Register(blobDigest digest.Digest, path string) {
	if existing, known := store.names[blobDigest]; known && existing == path {
		return
	}
	store.names[blobDigest] = path
	store.dirty = true
}

// Save writes the blob index when it changed since Open.
func (store *Store) Save() error {
	if !store.dirty {
		return nil
	}
	if writeError := filesystem.WriteJSON(store.fileSystem, store.indexPath, store.names); writeError != nil {
		return fmt.Errorf(saveIndexErrorTemplateConstant, writeError)
	}
	store.dirty = false
	return nil
}

func (store *Store) blobPath(blobDigest digest.Digest) string {
	return filepath.Join(store.objectsDirectory, blobDigest.String())
}
