package retention

import (
	"fmt"
	"time"

	"github.com/iamNilotpal/tsidx/internal/core/domain"
	"github.com/iamNilotpal/tsidx/internal/metrics"
	validation "github.com/iamNilotpal/tsidx/pkg/errors"
)

// Options controls how the enforcer treats invalid policies and whether it
// actually unlinks files.
type Options struct {
	// AbortOnInvalidPolicy stops the whole run, returning an empty tally, as
	// soon as one namespace has a missing or invalid policy. Namespaces
	// processed before that point keep their deletions but are not counted.
	// This reproduces the behaviour of the legacy cleanup job; when false,
	// only the offending namespace is skipped.
	//
	// Default: false
	AbortOnInvalidPolicy bool

	// DryRun logs and counts the files that would be deleted without
	// touching the filesystem.
	//
	// Default: false
	DryRun bool

	// Clock returns the current time. It is read once per namespace.
	//
	// Default: time.Now
	Clock func() time.Time

	// Metrics receives per-namespace counters. May be nil.
	Metrics *metrics.RetentionMetrics
}

func prepareDefaults(opts *Options) *Options {
	if opts == nil {
		opts = &Options{}
	}

	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return opts
}

func validate(remover domain.FileRemover) error {
	if remover == nil {
		return validation.NewValidationError("remover", nil, fmt.Errorf("a file remover is required"))
	}
	return nil
}
