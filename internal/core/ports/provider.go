package ports

import (
	"context"

	"github.com/iamNilotpal/tsidx/internal/core/domain"
)

// FileMetadataProvider lists every known segment file with its metadata.
// The result must be complete and current: the engine does not stat files
// on its own before deciding what to delete.
type FileMetadataProvider interface {
	ListAllSegmentFiles(ctx context.Context, creds domain.Credentials) ([]domain.SegmentFile, error)
}

// PolicyProvider lists the retention policies, including the one whose
// namespace is domain.DefaultPolicyNamespace.
type PolicyProvider interface {
	ListAllPolicies(ctx context.Context, creds domain.Credentials) ([]domain.RetentionPolicy, error)
}
