package retention

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/iamNilotpal/tsidx/internal/core/domain"
	"github.com/iamNilotpal/tsidx/internal/core/ports"
	"github.com/iamNilotpal/tsidx/internal/core/services/catalog"
	"github.com/iamNilotpal/tsidx/pkg/errors"
	"go.uber.org/zap"
)

// Service runs one complete cleanup pass: it reloads policies and the file
// catalog from the metadata store, then hands both to the enforcer.
type Service struct {
	catalog  *catalog.Catalog
	policies ports.PolicyProvider
	enforcer *Enforcer
	log      *zap.SugaredLogger
}

// NewService wires a catalog, a policy provider and an enforcer together.
func NewService(
	catalog *catalog.Catalog, policies ports.PolicyProvider, enforcer *Enforcer, log *zap.SugaredLogger,
) *Service {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Service{catalog: catalog, policies: policies, enforcer: enforcer, log: log}
}

// Run performs one batch invocation. Provider failures are returned as
// *errors.RetentionError and nothing is deleted; there are no retries.
func (s *Service) Run(ctx context.Context, creds domain.Credentials) (*Result, error) {
	runID := uuid.NewString()
	log := s.log.With("run_id", runID)
	log.Infow("retention run started")

	policies, err := s.policies.ListAllPolicies(ctx, creds)
	if err != nil {
		log.Errorw("could not load retention policies", "error", err)
		return nil, errors.NewRetentionError(errors.ErrorProvider, "list retention policies", err)
	}

	policySet := domain.NewPolicySet(policies)
	if _, ok := policySet[domain.DefaultPolicyNamespace]; !ok {
		log.Warnw("no default retention policy; namespaces without their own policy will be skipped")
	}

	sets, err := s.catalog.LoadAll(ctx, creds)
	if err != nil {
		log.Errorw("could not load segment catalog", "error", err)
		return nil, err
	}

	result, err := s.enforcer.withLogger(log).Enforce(ctx, sets, policySet)
	if err != nil {
		return result, fmt.Errorf("retention run %s interrupted: %w", runID, err)
	}

	log.Infow("retention run finished",
		"namespaces", len(sets), "deleted", result.Deleted, "failed", result.Failed,
		"bytes_reclaimed", result.BytesReclaimed, "aborted", result.Aborted, "dry_run", result.DryRun)
	return result, nil
}
