package ports

import (
	"os"

	"github.com/iamNilotpal/tsidx/internal/core/domain"
)

// FileSystemPort is the filesystem surface used by the retention engine.
type FileSystemPort interface {
	domain.FileRemover

	ReadFile(filePath string) ([]byte, error)
	Stat(filePath string) (os.FileInfo, error)
	Exists(filePath string) (bool, error)

	SearchFileExtensions(sourceDir string, excludeDirs []string, extension string) ([]string, error)
}
