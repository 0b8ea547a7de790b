package fs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalFileSystem implements ports.FileSystemPort on the host filesystem.
type LocalFileSystem struct{}

func NewLocalFileSystem() *LocalFileSystem {
	return &LocalFileSystem{}
}

// Deletes a file. The returned error wraps fs.ErrNotExist if the file is already gone.
func (lfs *LocalFileSystem) DeleteFile(filePath string) error {
	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("error deleting file %s : %w", filePath, err)
	}
	return nil
}

// Read file contents.
func (lfs *LocalFileSystem) ReadFile(filePath string) ([]byte, error) {
	contents, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return contents, nil
}

func (lfs *LocalFileSystem) Stat(filePath string) (os.FileInfo, error) {
	return os.Stat(filePath)
}

// Checks if a file exists or not.
func (lfs *LocalFileSystem) Exists(file string) (bool, error) {
	_, err := os.Stat(file)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Search regular files with a matching extension below sourceDir.
// A directory is skipped entirely when an excludeDirs entry names it: an
// absolute entry must equal its path, a relative entry must equal either its
// path relative to sourceDir or its base name. sourceDir itself is never
// excluded.
func (lfs *LocalFileSystem) SearchFileExtensions(sourceDir string, excludeDirs []string, extension string) ([]string, error) {
	files := make([]string, 0)

	if err := filepath.WalkDir(sourceDir, func(path string, ds fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if ds.IsDir() {
			if path != sourceDir && isExcluded(excludeDirs, sourceDir, path) {
				return filepath.SkipDir
			}
			return nil
		}

		if ds.Type().IsRegular() && filepath.Ext(path) == extension {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return files, nil
}

func isExcluded(excludeDirs []string, sourceDir, dir string) bool {
	rel, err := filepath.Rel(sourceDir, dir)
	if err != nil {
		rel = ""
	}

	for _, excludeDir := range excludeDirs {
		if excludeDir == "" {
			continue
		}

		excludeDir = filepath.Clean(excludeDir)
		if filepath.IsAbs(excludeDir) {
			if excludeDir == filepath.Clean(dir) {
				return true
			}
			continue
		}

		if excludeDir == rel || excludeDir == filepath.Base(dir) {
			return true
		}
	}
	return false
}
