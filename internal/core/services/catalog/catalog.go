// Package catalog groups the segment files known to the metadata store into
// per-namespace file sets ordered newest first.
package catalog

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/iamNilotpal/tsidx/internal/core/domain"
	"github.com/iamNilotpal/tsidx/internal/core/ports"
	"github.com/iamNilotpal/tsidx/pkg/errors"
	"go.uber.org/zap"
)

// Catalog is the NamespaceFileCatalog: it holds no state between calls and
// queries the provider afresh on every LoadAll.
type Catalog struct {
	provider ports.FileMetadataProvider
	log      *zap.SugaredLogger
	now      func() time.Time
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithClock replaces time.Now, which is read once per namespace when sorting.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) {
		c.now = now
	}
}

// New creates a Catalog over the given provider.
func New(provider ports.FileMetadataProvider, log *zap.SugaredLogger, opts ...Option) *Catalog {
	c := &Catalog{provider: provider, log: log, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = zap.NewNop().Sugar()
	}
	return c
}

// LoadAll lists every segment file, groups them by namespace and sorts each
// group newest first. Namespaces are returned in lexical order.
//
// Records without a path or namespace cannot be attributed to a policy and
// are dropped with a warning.
func (c *Catalog) LoadAll(ctx context.Context, creds domain.Credentials) ([]*domain.NamespaceFileSet, error) {
	files, err := c.provider.ListAllSegmentFiles(ctx, creds)
	if err != nil {
		return nil, errors.NewRetentionError(errors.ErrorProvider, "list segment files", err)
	}

	grouped := make(map[string][]domain.SegmentFile)
	for _, file := range files {
		if strings.TrimSpace(file.Path) == "" || strings.TrimSpace(file.Namespace) == "" {
			c.log.Warnw("dropping segment record without path or namespace",
				"path", file.Path, "namespace", file.Namespace)
			continue
		}
		if file.SizeOnDisk < 0 {
			file.SizeOnDisk = 0
		}
		grouped[file.Namespace] = append(grouped[file.Namespace], file)
	}

	namespaces := make([]string, 0, len(grouped))
	for ns := range grouped {
		namespaces = append(namespaces, ns)
	}
	slices.Sort(namespaces)

	sets := make([]*domain.NamespaceFileSet, 0, len(namespaces))
	for _, ns := range namespaces {
		set := domain.NewNamespaceFileSet(ns, grouped[ns], c.now())
		c.log.Debugw("loaded namespace", "namespace", ns, "files", len(set.Files), "bytes", set.TotalSizeOnDisk())
		sets = append(sets, set)
	}

	return sets, nil
}
