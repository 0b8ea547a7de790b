// Package domain defines the core types of the retention engine: segment
// files, the per-namespace file sets they are grouped into, and the
// retention policies enforced against them.
package domain

import (
	"errors"
	"io/fs"
	"slices"
	"time"
)

// FileRemover unlinks a single file. Implementations return an error
// wrapping fs.ErrNotExist when the file is already gone.
type FileRemover interface {
	DeleteFile(filePath string) error
}

// SegmentFile is one immutable index segment on disk belonging to a namespace.
type SegmentFile struct {
	// Path is the absolute location of the file. Deletion unlinks it.
	Path string

	// Namespace is the logical TSIDX namespace the file belongs to.
	Namespace string

	// SizeOnDisk is the number of bytes the file occupies on disk.
	// It is the only size counted against a policy's size cap.
	SizeOnDisk int64

	// LogicalSize is the uncompressed size reported by the metadata store.
	// It may differ from SizeOnDisk and is informational only.
	LogicalSize int64

	// EarliestEventTime and LatestEventTime bound the events indexed by
	// the file. Either may be nil when the metadata store does not know them.
	EarliestEventTime *time.Time
	LatestEventTime   *time.Time
}

// SortKey returns LatestEventTime, or now when the file has none.
func (f *SegmentFile) SortKey(now time.Time) time.Time {
	if f.LatestEventTime == nil {
		return now
	}
	return *f.LatestEventTime
}

// Delete unlinks the file. A file that is already gone counts as deleted,
// so calling Delete twice is safe. Any other error is returned as is.
func (f *SegmentFile) Delete(remover FileRemover) error {
	if err := remover.DeleteFile(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// NamespaceFileSet is a namespace and its segment files, most recent first.
//
// Files without a LatestEventTime sort as if their timestamp were the clock
// reading at sort time, so their position relative to each other (but not to
// timestamped files) can change between two sorts.
type NamespaceFileSet struct {
	Namespace string
	Files     []SegmentFile
}

// NewNamespaceFileSet builds a set and sorts it newest first using now for
// files without a LatestEventTime.
func NewNamespaceFileSet(namespace string, files []SegmentFile, now time.Time) *NamespaceFileSet {
	set := &NamespaceFileSet{Namespace: namespace, Files: slices.Clone(files)}
	set.Sort(now)
	return set
}

// Sort re-establishes the newest-first order.
func (s *NamespaceFileSet) Sort(now time.Time) {
	slices.SortStableFunc(s.Files, func(a, b SegmentFile) int {
		return b.SortKey(now).Compare(a.SortKey(now))
	})
}

// Add inserts a file and re-sorts the set.
func (s *NamespaceFileSet) Add(file SegmentFile, now time.Time) {
	s.Files = append(s.Files, file)
	s.Sort(now)
}

// Remove drops the file with the given path, keeping the order of the rest.
// Returns false when no file has that path.
func (s *NamespaceFileSet) Remove(path string) bool {
	i := slices.IndexFunc(s.Files, func(f SegmentFile) bool { return f.Path == path })
	if i < 0 {
		return false
	}
	s.Files = slices.Delete(s.Files, i, i+1)
	return true
}

// TotalSizeOnDisk sums SizeOnDisk over every file in the set.
func (s *NamespaceFileSet) TotalSizeOnDisk() int64 {
	var total int64
	for i := range s.Files {
		total += s.Files[i].SizeOnDisk
	}
	return total
}
