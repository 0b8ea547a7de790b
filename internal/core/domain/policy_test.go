package domain_test

import (
	"testing"
	"time"

	"github.com/iamNilotpal/tsidx/internal/core/domain"
	validation "github.com/iamNilotpal/tsidx/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetentionPolicy_Validate(t *testing.T) {
	tests := []struct {
		name   string
		policy domain.RetentionPolicy
		field  string
	}{
		{name: "valid", policy: domain.RetentionPolicy{MaxTotalSizeMB: 50, RetentionPeriodSeconds: 86400}},
		{name: "size below minimum", policy: domain.RetentionPolicy{MaxTotalSizeMB: 10, RetentionPeriodSeconds: 86400}, field: "maxTotalSizeMB"},
		{name: "period below minimum", policy: domain.RetentionPolicy{MaxTotalSizeMB: 500, RetentionPeriodSeconds: 86399}, field: "retentionTimePeriodInSecs"},
		{name: "missing fields", policy: domain.RetentionPolicy{Namespace: "ns"}, field: "retentionTimePeriodInSecs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.field == "" {
				require.NoError(t, err)
				assert.True(t, tt.policy.IsValid())
				return
			}

			require.True(t, validation.IsValidationError(err))
			assert.Equal(t, tt.field, validation.AsValidationError(err).Field)
			assert.False(t, tt.policy.IsValid())
		})
	}
}

func TestRetentionPolicy_DateLimit(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	p := domain.RetentionPolicy{MaxTotalSizeMB: 100, RetentionPeriodSeconds: 7 * 86400}

	limit := p.DateLimit(now)
	assert.Equal(t, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), limit)

	assert.True(t, p.IsOutsideRetention(limit.Add(-time.Second), now))
	assert.False(t, p.IsOutsideRetention(limit, now), "the limit itself is still retained")
	assert.False(t, p.IsOutsideRetention(now, now))
	assert.Equal(t, int64(100*1024*1024), p.MaxTotalSizeBytes())
}

func TestPolicySet_Lookup(t *testing.T) {
	set := domain.NewPolicySet([]domain.RetentionPolicy{
		{Namespace: domain.DefaultPolicyNamespace, MaxTotalSizeMB: 100, RetentionPeriodSeconds: 86400},
		{Namespace: "web", MaxTotalSizeMB: 200, RetentionPeriodSeconds: 86400},
	})

	p, ok := set.Lookup("web")
	require.True(t, ok)
	assert.Equal(t, int64(200), p.MaxTotalSizeMB)

	p, ok = set.Lookup("unknown")
	require.True(t, ok)
	assert.Equal(t, domain.DefaultPolicyNamespace, p.Namespace)

	_, ok = domain.NewPolicySet(nil).Lookup("web")
	assert.False(t, ok)
}
