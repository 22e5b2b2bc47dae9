// Package filesystem wraps the operating system primitives used by the
// repository: atomic writes for persisted state and plain file access for the
// working tree.
package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

const (
	temporaryFilePatternConstant       = ".lwgit-tmp-*"
	currentDirectoryNameConstant       = "."
	parentDirectoryNameConstant        = ".."
	createTemporaryErrorTemplate       = "create temp file: %w"
	writeTemporaryErrorTemplate        = "write temp file: %w"
	syncTemporaryErrorTemplate         = "fsync temp file: %w"
	chmodTemporaryErrorTemplate        = "chmod temp file: %w"
	closeTemporaryErrorTemplate        = "close temp file: %w"
	renameTemporaryErrorTemplate       = "rename temp to target: %w"
	readDirectoryErrorTemplateConstant = "read directory %s: %w"
)

// FileSystem exposes the file operations required by repository components.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, permissions fs.FileMode) error
	Remove(path string) error
	MkdirAll(path string, permissions fs.FileMode) error
	ListFiles(directory string) ([]string, error)
}

// OSFileSystem implements FileSystem using the operating system primitives.
type OSFileSystem struct{}

// Stat retrieves file metadata.
func (OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// ReadFile reads file contents.
func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes data atomically: tempfile, fsync, rename. The previous
// generation of path stays intact until the rename succeeds.
func (OSFileSystem) WriteFile(path string, data []byte, permissions fs.FileMode) (err error) {
	temporaryFile, createError := os.CreateTemp(filepath.Dir(path), temporaryFilePatternConstant)
	if createError != nil {
		return fmt.Errorf(createTemporaryErrorTemplate, createError)
	}
	temporaryPath := temporaryFile.Name()

	defer func() {
		if err != nil {
			_ = os.Remove(temporaryPath)
		}
	}()

	if _, err = temporaryFile.Write(data); err != nil {
		temporaryFile.Close()
		return fmt.Errorf(writeTemporaryErrorTemplate, err)
	}
	if err = temporaryFile.Sync(); err != nil {
		temporaryFile.Close()
		return fmt.Errorf(syncTemporaryErrorTemplate, err)
	}
	if err = temporaryFile.Chmod(permissions); err != nil {
		temporaryFile.Close()
		return fmt.Errorf(chmodTemporaryErrorTemplate, err)
	}
	if err = temporaryFile.Close(); err != nil {
		return fmt.Errorf(closeTemporaryErrorTemplate, err)
	}
	if err = os.Rename(temporaryPath, path); err != nil {
		return fmt.Errorf(renameTemporaryErrorTemplate, err)
	}
	return nil
}

// Remove deletes path. A missing path is not an error.
func (OSFileSystem) Remove(path string) error {
	removeError := os.Remove(path)
	if removeError != nil && !errors.Is(removeError, fs.ErrNotExist) {
		return removeError
	}
	return nil
}

// MkdirAll ensures a directory hierarchy exists with the provided permissions.
func (OSFileSystem) MkdirAll(path string, permissions fs.FileMode) error {
	return os.MkdirAll(path, permissions)
}

// ListFiles returns the names of regular files directly inside directory, sorted.
// Subdirectories and in-flight atomic write files are skipped.
func (OSFileSystem) ListFiles(directory string) ([]string, error) {
	entries, readError := os.ReadDir(directory)
	if readError != nil {
		return nil, fmt.Errorf(readDirectoryErrorTemplateConstant, directory, readError)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if matched, _ := filepath.Match(temporaryFilePatternConstant, entry.Name()); matched {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Exists reports whether path names an existing file or directory.
func Exists(fileSystem FileSystem, path string) (bool, error) {
	_, statError := fileSystem.Stat(path)
	if statError == nil {
		return true, nil
	}
	if errors.Is(statError, fs.ErrNotExist) {
		return false, nil
	}
	return false, statError
}

// RegularFileExists reports whether path names an existing regular file.
// Directories and other non-regular entries are reported as absent.
func RegularFileExists(fileSystem FileSystem, path string) (bool, error) {
	info, statError := fileSystem.Stat(path)
	if statError == nil {
		return info.Mode().IsRegular(), nil
	}
	if errors.Is(statError, fs.ErrNotExist) {
		return false, nil
	}
	return false, statError
}

// IsWorkingName reports whether name can address a file directly inside the
// working tree: a single path element that is neither "." nor "..".
func IsWorkingName(name string) bool {
	switch name {
	case "", currentDirectoryNameConstant, parentDirectoryNameConstant:
		return false
	}
	return filepath.Base(name) == name
}
