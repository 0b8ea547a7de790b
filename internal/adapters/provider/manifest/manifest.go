// Package manifest reads segment metadata and retention policies exported
// by the metadata store as a JSON or YAML document, optionally zstd
// compressed.
//
// Document layout:
//
//	files:
//	  - path: /opt/tsidx/web/1700000000-1690000000-1.tsidx
//	    namespace: web
//	    size_on_disk: 104857600
//	    logical_size: 209715200
//	    earliest_time: 1690000000
//	    latest_time: 1700000000
//	policies:
//	  - namespace: default
//	    max_total_size_mb: 4096
//	    retention_time_period_in_secs: 7776000
//
// Null or absent sizes read as zero; null or absent times read as unknown.
package manifest

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/iamNilotpal/tsidx/internal/adapters/compression"
	"github.com/iamNilotpal/tsidx/internal/core/domain"
	"github.com/iamNilotpal/tsidx/internal/core/ports"
	"github.com/iamNilotpal/tsidx/internal/serialize"
	"github.com/iamNilotpal/tsidx/pkg/errors"
	"go.uber.org/multierr"
)

type fileRecord struct {
	Path         string   `json:"path" yaml:"path"`
	Namespace    string   `json:"namespace" yaml:"namespace"`
	SizeOnDisk   *int64   `json:"size_on_disk" yaml:"size_on_disk"`
	LogicalSize  *int64   `json:"logical_size" yaml:"logical_size"`
	EarliestTime *float64 `json:"earliest_time" yaml:"earliest_time"`
	LatestTime   *float64 `json:"latest_time" yaml:"latest_time"`
}

type policyRecord struct {
	Namespace                 string `json:"namespace" yaml:"namespace"`
	MaxTotalSizeMB            *int64 `json:"max_total_size_mb" yaml:"max_total_size_mb"`
	RetentionTimePeriodInSecs *int64 `json:"retention_time_period_in_secs" yaml:"retention_time_period_in_secs"`
}

type document struct {
	Files    []fileRecord   `json:"files" yaml:"files"`
	Policies []policyRecord `json:"policies" yaml:"policies"`
}

// Provider implements both ports.FileMetadataProvider and
// ports.PolicyProvider. The manifest is re-read on every call.
type Provider struct {
	fs    ports.FileSystemPort
	codec ports.CompressionPort
	path  string
}

// New creates a Provider for the manifest at path. codec is only used when
// the file starts with a zstd frame header and may be nil otherwise.
func New(fs ports.FileSystemPort, codec ports.CompressionPort, path string) *Provider {
	return &Provider{fs: fs, codec: codec, path: path}
}

// ListAllSegmentFiles returns the files section. A manifest with any
// malformed record is rejected as a whole so that a corrupt export never
// drives deletions.
func (p *Provider) ListAllSegmentFiles(ctx context.Context, _ domain.Credentials) ([]domain.SegmentFile, error) {
	doc, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	var errs error
	files := make([]domain.SegmentFile, 0, len(doc.Files))
	for i, rec := range doc.Files {
		file, err := rec.toDomain()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("files[%d]: %w", i, err))
			continue
		}
		files = append(files, file)
	}

	if errs != nil {
		return nil, fmt.Errorf("manifest %s: %w", p.path, errs)
	}
	return files, nil
}

// ListAllPolicies returns the policies section. Absent thresholds read as
// zero, which the enforcer treats as an invalid policy.
func (p *Provider) ListAllPolicies(ctx context.Context, _ domain.Credentials) ([]domain.RetentionPolicy, error) {
	doc, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	var errs error
	policies := make([]domain.RetentionPolicy, 0, len(doc.Policies))
	for i, rec := range doc.Policies {
		if strings.TrimSpace(rec.Namespace) == "" {
			errs = multierr.Append(errs, fmt.Errorf("policies[%d]: namespace is required", i))
			continue
		}
		policies = append(policies, domain.RetentionPolicy{
			Namespace:              rec.Namespace,
			MaxTotalSizeMB:         deref(rec.MaxTotalSizeMB),
			RetentionPeriodSeconds: deref(rec.RetentionTimePeriodInSecs),
		})
	}

	if errs != nil {
		return nil, fmt.Errorf("manifest %s: %w", p.path, errs)
	}
	return policies, nil
}

func (p *Provider) load(ctx context.Context) (*document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := p.fs.ReadFile(p.path)
	if err != nil {
		return nil, errors.NewRetentionError(errors.ErrorStorage, "read manifest "+p.path, err)
	}

	if compression.IsCompressed(data) {
		if p.codec == nil {
			return nil, fmt.Errorf("manifest %s is compressed but no codec is configured", p.path)
		}
		if data, err = p.codec.Decompress(data); err != nil {
			return nil, fmt.Errorf("decompress manifest %s: %w", p.path, err)
		}
	}

	var doc document
	name := strings.TrimSuffix(p.path, ".zst")
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		err = serialize.UnMarshalYAML(data, &doc)
	default:
		err = serialize.UnMarshalJSON(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", p.path, err)
	}

	return &doc, nil
}

func (r fileRecord) toDomain() (domain.SegmentFile, error) {
	file := domain.SegmentFile{
		Path:        r.Path,
		Namespace:   r.Namespace,
		SizeOnDisk:  deref(r.SizeOnDisk),
		LogicalSize: deref(r.LogicalSize),
	}

	var errs error
	if file.SizeOnDisk < 0 {
		errs = multierr.Append(errs, fmt.Errorf("size_on_disk %d is negative", file.SizeOnDisk))
	}
	if file.LogicalSize < 0 {
		errs = multierr.Append(errs, fmt.Errorf("logical_size %d is negative", file.LogicalSize))
	}

	var err error
	if file.EarliestEventTime, err = epoch(r.EarliestTime); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("earliest_time: %w", err))
	}
	if file.LatestEventTime, err = epoch(r.LatestTime); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("latest_time: %w", err))
	}

	return file, errs
}

// maxEpochSeconds keeps every accepted time representable in nanoseconds
// (year 2262).
const maxEpochSeconds = math.MaxInt64 / int64(time.Second)

func epoch(v *float64) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 || *v > float64(maxEpochSeconds) {
		return nil, fmt.Errorf("invalid epoch %v", *v)
	}

	sec, frac := math.Modf(*v)
	t := time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
	return &t, nil
}

func deref(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
