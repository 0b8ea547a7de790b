package manifest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/iamNilotpal/tsidx/internal/adapters/compression"
	"github.com/iamNilotpal/tsidx/internal/adapters/fs"
	"github.com/iamNilotpal/tsidx/internal/adapters/provider/manifest"
	"github.com/iamNilotpal/tsidx/internal/core/domain"
	rerrors "github.com/iamNilotpal/tsidx/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

const jsonManifest = `{
  "files": [
    {"path": "/idx/web/a.tsidx", "namespace": "web", "size_on_disk": 100, "logical_size": 250,
     "earliest_time": 1690000000, "latest_time": 1700000000.5},
    {"path": "/idx/web/b.tsidx", "namespace": "web", "size_on_disk": null, "latest_time": null}
  ],
  "policies": [
    {"namespace": "default", "max_total_size_mb": 4096, "retention_time_period_in_secs": 7776000},
    {"namespace": "web", "max_total_size_mb": null}
  ]
}`

const yamlManifest = `
files:
  - path: /idx/fw/c.tsidx
    namespace: fw
    size_on_disk: 42
    latest_time: 1700000000
policies:
  - namespace: fw
    max_total_size_mb: 100
    retention_time_period_in_secs: 86400
`

func writeManifest(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestProvider_JSON(t *testing.T) {
	p := manifest.New(fs.NewLocalFileSystem(), nil, writeManifest(t, "segments.json", []byte(jsonManifest)))

	files, err := p.ListAllSegmentFiles(context.Background(), domain.Credentials{})
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "web", files[0].Namespace)
	assert.Equal(t, int64(100), files[0].SizeOnDisk)
	assert.Equal(t, int64(250), files[0].LogicalSize)
	require.NotNil(t, files[0].LatestEventTime)
	assert.Equal(t, int64(1700000000), files[0].LatestEventTime.Unix())
	assert.Equal(t, 500_000_000, files[0].LatestEventTime.Nanosecond())
	assert.Equal(t, int64(1690000000), files[0].EarliestEventTime.Unix())

	assert.Equal(t, int64(0), files[1].SizeOnDisk, "null size reads as zero")
	assert.Nil(t, files[1].LatestEventTime)
	assert.Nil(t, files[1].EarliestEventTime)

	policies, err := p.ListAllPolicies(context.Background(), domain.Credentials{})
	require.NoError(t, err)
	require.Len(t, policies, 2)
	assert.Equal(t, domain.RetentionPolicy{Namespace: "default", MaxTotalSizeMB: 4096, RetentionPeriodSeconds: 7776000}, policies[0])
	assert.False(t, policies[1].IsValid(), "absent thresholds make the policy invalid")
}

func TestProvider_YAML(t *testing.T) {
	p := manifest.New(fs.NewLocalFileSystem(), nil, writeManifest(t, "segments.yaml", []byte(yamlManifest)))

	files, err := p.ListAllSegmentFiles(context.Background(), domain.Credentials{})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "/idx/fw/c.tsidx", files[0].Path)
	assert.Equal(t, int64(42), files[0].SizeOnDisk)

	policies, err := p.ListAllPolicies(context.Background(), domain.Credentials{})
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.True(t, policies[0].IsValid())
}

func TestProvider_Compressed(t *testing.T) {
	codec, err := compression.NewZstdCompression(compression.DefaultOptions())
	require.NoError(t, err)
	defer codec.Close()

	compressed, err := codec.Compress([]byte(yamlManifest))
	require.NoError(t, err)
	path := writeManifest(t, "segments.yaml.zst", compressed)

	files, err := manifest.New(fs.NewLocalFileSystem(), codec, path).ListAllSegmentFiles(context.Background(), domain.Credentials{})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "fw", files[0].Namespace)

	_, err = manifest.New(fs.NewLocalFileSystem(), nil, path).ListAllSegmentFiles(context.Background(), domain.Credentials{})
	assert.Error(t, err, "compressed manifest without codec")
}

func TestProvider_RejectsMalformedRecords(t *testing.T) {
	bad := `{"files": [
	  {"path": "/a", "namespace": "web", "size_on_disk": -1},
	  {"path": "/b", "namespace": "web", "latest_time": -5},
	  {"path": "/c", "namespace": "web", "size_on_disk": 1}
	], "policies": [{"max_total_size_mb": 100}]}`
	p := manifest.New(fs.NewLocalFileSystem(), nil, writeManifest(t, "bad.json", []byte(bad)))

	_, err := p.ListAllSegmentFiles(context.Background(), domain.Credentials{})
	require.Error(t, err)
	assert.Len(t, multierr.Errors(errorsUnwrap(err)), 2)
	assert.Contains(t, err.Error(), "files[0]")
	assert.Contains(t, err.Error(), "files[1]")

	_, err = p.ListAllPolicies(context.Background(), domain.Credentials{})
	assert.ErrorContains(t, err, "policies[0]: namespace is required")
}

func TestProvider_RejectsOutOfRangeEpochs(t *testing.T) {
	for _, v := range []string{"1e30", "9300000000", "-1"} {
		doc := `{"files": [{"path": "/a", "namespace": "web", "latest_time": ` + v + `}]}`
		p := manifest.New(fs.NewLocalFileSystem(), nil, writeManifest(t, "epoch.json", []byte(doc)))

		_, err := p.ListAllSegmentFiles(context.Background(), domain.Credentials{})
		assert.ErrorContains(t, err, "invalid epoch", v)
	}

	doc := `{"files": [{"path": "/a", "namespace": "web", "latest_time": 9000000000}]}`
	p := manifest.New(fs.NewLocalFileSystem(), nil, writeManifest(t, "epoch.json", []byte(doc)))
	files, err := p.ListAllSegmentFiles(context.Background(), domain.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, int64(9000000000), files[0].LatestEventTime.Unix())
}

func TestProvider_MissingFile(t *testing.T) {
	p := manifest.New(fs.NewLocalFileSystem(), nil, filepath.Join(t.TempDir(), "none.json"))
	_, err := p.ListAllSegmentFiles(context.Background(), domain.Credentials{})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	retErr := rerrors.AsRetentionError(err)
	require.NotNil(t, retErr)
	assert.Equal(t, rerrors.ErrorStorage, retErr.Category)
}

// errorsUnwrap strips the "manifest <path>:" wrapper to reach the multierr value.
func errorsUnwrap(err error) error {
	if u, ok := err.(interface{ Unwrap() error }); ok {
		return u.Unwrap()
	}
	return err
}
