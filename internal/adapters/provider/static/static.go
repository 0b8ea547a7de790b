// Package static serves retention policies held in memory, typically the
// policies section of the process configuration.
package static

import (
	"context"
	"slices"

	"github.com/iamNilotpal/tsidx/internal/core/domain"
)

// PolicyProvider implements ports.PolicyProvider over a fixed list.
type PolicyProvider struct {
	policies []domain.RetentionPolicy
}

func NewPolicyProvider(policies []domain.RetentionPolicy) *PolicyProvider {
	return &PolicyProvider{policies: slices.Clone(policies)}
}

// ListAllPolicies returns a copy of the configured policies.
func (p *PolicyProvider) ListAllPolicies(ctx context.Context, _ domain.Credentials) ([]domain.RetentionPolicy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(p.policies), nil
}
