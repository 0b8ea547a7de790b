package domain

import (
	"fmt"
	"time"

	validation "github.com/iamNilotpal/tsidx/pkg/errors"
)

const (
	// DefaultPolicyNamespace names the policy applied to namespaces that
	// have no policy of their own.
	DefaultPolicyNamespace = "default"

	// MinRetentionPeriodSeconds is the shortest accepted retention period (1 day).
	MinRetentionPeriodSeconds = 86400

	// MinMaxTotalSizeMB is the smallest accepted size cap.
	MinMaxTotalSizeMB = 50

	bytesPerMB = 1024 * 1024
)

// RetentionPolicy holds the eviction thresholds of one namespace.
// A zero field means the metadata store did not provide it.
type RetentionPolicy struct {
	Namespace              string
	MaxTotalSizeMB         int64
	RetentionPeriodSeconds int64
}

// Validate checks both thresholds against their minimums.
func (p *RetentionPolicy) Validate() error {
	if p.RetentionPeriodSeconds < MinRetentionPeriodSeconds {
		return validation.NewValidationError(
			"retentionTimePeriodInSecs",
			p.RetentionPeriodSeconds,
			fmt.Errorf("must be at least %d seconds", MinRetentionPeriodSeconds),
		)
	}

	if p.MaxTotalSizeMB < MinMaxTotalSizeMB {
		return validation.NewValidationError(
			"maxTotalSizeMB",
			p.MaxTotalSizeMB,
			fmt.Errorf("must be at least %d MB", MinMaxTotalSizeMB),
		)
	}

	return nil
}

// IsValid reports whether the policy can be enforced.
func (p *RetentionPolicy) IsValid() bool {
	return p.Validate() == nil
}

// RetentionPeriod returns the retention period as a duration.
func (p *RetentionPolicy) RetentionPeriod() time.Duration {
	return time.Duration(p.RetentionPeriodSeconds) * time.Second
}

// DateLimit returns the oldest event time still inside the retention period.
func (p *RetentionPolicy) DateLimit(now time.Time) time.Time {
	return now.Add(-p.RetentionPeriod())
}

// IsOutsideRetention reports whether ts is strictly older than DateLimit(now).
func (p *RetentionPolicy) IsOutsideRetention(ts, now time.Time) bool {
	return ts.Before(p.DateLimit(now))
}

// MaxTotalSizeBytes returns the size cap in bytes.
func (p *RetentionPolicy) MaxTotalSizeBytes() int64 {
	return p.MaxTotalSizeMB * bytesPerMB
}

// PolicySet indexes policies by namespace.
type PolicySet map[string]RetentionPolicy

// NewPolicySet indexes the given policies. A later duplicate namespace
// replaces an earlier one.
func NewPolicySet(policies []RetentionPolicy) PolicySet {
	set := make(PolicySet, len(policies))
	for _, p := range policies {
		set[p.Namespace] = p
	}
	return set
}

// Lookup returns the namespace's own policy, or the default policy.
func (s PolicySet) Lookup(namespace string) (RetentionPolicy, bool) {
	if p, ok := s[namespace]; ok {
		return p, true
	}
	p, ok := s[DefaultPolicyNamespace]
	return p, ok
}
