package dirscan_test

import (
	"context"
	iofs "io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iamNilotpal/tsidx/internal/adapters/fs"
	"github.com/iamNilotpal/tsidx/internal/adapters/provider/dirscan"
	"github.com/iamNilotpal/tsidx/internal/core/domain"
	"github.com/iamNilotpal/tsidx/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventTimes(t *testing.T) {
	latest, earliest := dirscan.ParseEventTimes("1700000000-1690000000-1612246429890249572.tsidx")
	require.NotNil(t, latest)
	require.NotNil(t, earliest)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), *latest)
	assert.Equal(t, time.Unix(1690000000, 0).UTC(), *earliest)

	latest, earliest = dirscan.ParseEventTimes("merged_lexicon.tsidx")
	assert.Nil(t, latest)
	assert.Nil(t, earliest)

	latest, earliest = dirscan.ParseEventTimes("abc-1690000000-1.tsidx")
	assert.Nil(t, latest)
	assert.NotNil(t, earliest)
}

func TestProvider_ListAllSegmentFiles(t *testing.T) {
	root := t.TempDir()
	write := func(rel string, size int) string {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, make([]byte, size), 0644))
		return p
	}

	web := write("web/1700000000-1690000000-1.tsidx", 100)
	nested := write("fw/2024/1700000500-1700000000-2.tsidx", 50)
	loose := write("lexicon.tsidx", 10)
	write("web/readme.txt", 5)

	p := dirscan.New(fs.NewLocalFileSystem(), root, "", nil)
	files, err := p.ListAllSegmentFiles(context.Background(), domain.Credentials{})
	require.NoError(t, err)
	require.Len(t, files, 3)

	byPath := make(map[string]domain.SegmentFile)
	for _, f := range files {
		byPath[f.Path] = f
	}

	assert.Equal(t, "web", byPath[web].Namespace)
	assert.Equal(t, int64(100), byPath[web].SizeOnDisk)
	require.NotNil(t, byPath[web].LatestEventTime)
	assert.Equal(t, int64(1700000000), byPath[web].LatestEventTime.Unix())

	assert.Equal(t, "fw", byPath[nested].Namespace)
	assert.Equal(t, int64(50), byPath[nested].LogicalSize)

	assert.Equal(t, "", byPath[loose].Namespace)
	assert.Nil(t, byPath[loose].LatestEventTime)
}

func TestProvider_MissingRoot(t *testing.T) {
	p := dirscan.New(fs.NewLocalFileSystem(), filepath.Join(t.TempDir(), "missing"), "", nil)
	_, err := p.ListAllSegmentFiles(context.Background(), domain.Credentials{})
	assert.Error(t, err)
}

func TestProvider_ExcludedNamespaceDoesNotHideSimilarNames(t *testing.T) {
	root := filepath.Join(t.TempDir(), "splunk-index")
	for _, rel := range []string{"web/1-1-1.tsidx", "webapp/2-2-2.tsidx", "fw/3-3-3.tsidx"} {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	}

	files, err := dirscan.New(fs.NewLocalFileSystem(), root, "", []string{"web"}).
		ListAllSegmentFiles(context.Background(), domain.Credentials{})
	require.NoError(t, err)

	namespaces := make([]string, 0, len(files))
	for _, f := range files {
		namespaces = append(namespaces, f.Namespace)
	}
	assert.ElementsMatch(t, []string{"webapp", "fw"}, namespaces)
}

// deniedStatFS reports a permission error for every stat of a segment file.
type deniedStatFS struct {
	*fs.LocalFileSystem
	vanished bool
}

func (d deniedStatFS) Stat(path string) (os.FileInfo, error) {
	if d.vanished {
		return nil, &iofs.PathError{Op: "stat", Path: path, Err: iofs.ErrNotExist}
	}
	return nil, &iofs.PathError{Op: "stat", Path: path, Err: iofs.ErrPermission}
}

func (d deniedStatFS) Exists(path string) (bool, error) {
	if d.vanished {
		return false, nil
	}
	return false, &iofs.PathError{Op: "stat", Path: path, Err: iofs.ErrPermission}
}

func TestProvider_StatFailureIsReported(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "web", "1-1-1.tsidx")
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte("x"), 0644))

	denied := deniedStatFS{LocalFileSystem: fs.NewLocalFileSystem()}
	_, err := dirscan.New(denied, root, "", nil).ListAllSegmentFiles(context.Background(), domain.Credentials{})
	require.Error(t, err)
	assert.ErrorIs(t, err, iofs.ErrPermission)

	retErr := errors.AsRetentionError(err)
	require.NotNil(t, retErr)
	assert.Equal(t, errors.ErrorStorage, retErr.Category)

	vanished := deniedStatFS{LocalFileSystem: fs.NewLocalFileSystem(), vanished: true}
	files, err := dirscan.New(vanished, root, "", nil).ListAllSegmentFiles(context.Background(), domain.Credentials{})
	require.NoError(t, err)
	assert.Empty(t, files)
}
