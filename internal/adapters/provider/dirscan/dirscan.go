// Package dirscan lists TSIDX segment files by walking a directory tree laid
// out as <root>/<namespace>/.../<latest>-<earliest>-<id>.tsidx.
package dirscan

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/iamNilotpal/tsidx/internal/core/domain"
	"github.com/iamNilotpal/tsidx/internal/core/ports"
	"github.com/iamNilotpal/tsidx/pkg/errors"
)

const DefaultExtension = ".tsidx"

// Provider implements ports.FileMetadataProvider from the filesystem alone.
// Event times come from the file name; sizes come from stat.
type Provider struct {
	fs          ports.FileSystemPort
	root        string
	extension   string
	excludeDirs []string
}

// New creates a Provider scanning root. An empty extension means ".tsidx".
func New(fs ports.FileSystemPort, root, extension string, excludeDirs []string) *Provider {
	if extension == "" {
		extension = DefaultExtension
	}
	return &Provider{fs: fs, root: filepath.Clean(root), extension: extension, excludeDirs: excludeDirs}
}

// ListAllSegmentFiles walks the tree. Files directly under root have no
// namespace and are returned with an empty one. Files that vanish between
// the walk and the stat are skipped.
func (p *Provider) ListAllSegmentFiles(ctx context.Context, _ domain.Credentials) ([]domain.SegmentFile, error) {
	paths, err := p.fs.SearchFileExtensions(p.root, p.excludeDirs, p.extension)
	if err != nil {
		return nil, errors.NewRetentionError(errors.ErrorStorage, "scan "+p.root, err)
	}

	files := make([]domain.SegmentFile, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := p.fs.Stat(path)
		if err != nil {
			if exists, existsErr := p.fs.Exists(path); existsErr == nil && !exists {
				continue
			}
			return nil, errors.NewRetentionError(errors.ErrorStorage, "stat "+path, err)
		}

		file := domain.SegmentFile{
			Path:        path,
			Namespace:   p.namespaceOf(path),
			SizeOnDisk:  info.Size(),
			LogicalSize: info.Size(),
		}
		file.LatestEventTime, file.EarliestEventTime = ParseEventTimes(filepath.Base(path))
		files = append(files, file)
	}

	return files, nil
}

func (p *Provider) namespaceOf(path string) string {
	rel, err := filepath.Rel(p.root, path)
	if err != nil {
		return ""
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[0]
}

// ParseEventTimes reads the latest and earliest event times encoded in a
// TSIDX file name "<latest>-<earliest>-<id>.tsidx" (epoch seconds). Either
// result is nil when the name does not follow the convention.
func ParseEventTimes(name string) (latest, earliest *time.Time) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(base, "-")
	if len(parts) < 3 {
		return nil, nil
	}

	return parseEpoch(parts[0]), parseEpoch(parts[1])
}

func parseEpoch(s string) *time.Time {
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil || sec < 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
