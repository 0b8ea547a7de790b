// Package retention enforces per-namespace retention policies over TSIDX
// segment files: files whose newest event is older than the retention
// period are deleted, and once the newest-first running size reaches the
// namespace's size cap every older file is deleted as well.
package retention

import (
	"context"
	"time"

	"github.com/iamNilotpal/tsidx/internal/core/domain"
	"github.com/iamNilotpal/tsidx/internal/metrics"
	"go.uber.org/zap"
)

const (
	reasonAge  = "age"
	reasonSize = "size"
)

// Enforcer applies retention policies to namespace file sets. It is
// single-threaded and keeps no state between calls.
type Enforcer struct {
	remover domain.FileRemover
	log     *zap.SugaredLogger
	opts    *Options
}

// NewEnforcer creates an enforcer deleting files through remover.
func NewEnforcer(remover domain.FileRemover, log *zap.SugaredLogger, opts *Options) (*Enforcer, error) {
	if err := validate(remover); err != nil {
		return nil, err
	}

	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Enforcer{remover: remover, log: log, opts: prepareDefaults(opts)}, nil
}

func (e *Enforcer) withLogger(log *zap.SugaredLogger) *Enforcer {
	cp := *e
	cp.log = log
	return &cp
}

// Enforce processes every namespace in order and returns the tally.
//
// The context is only checked between namespaces; a cancelled run returns
// the tally so far together with the context error.
func (e *Enforcer) Enforce(ctx context.Context, sets []*domain.NamespaceFileSet, policies domain.PolicySet) (*Result, error) {
	start := e.opts.Clock()
	result := &Result{DryRun: e.opts.DryRun}

	for _, set := range sets {
		if err := ctx.Err(); err != nil {
			e.opts.Metrics.RecordRun(start, e.opts.Clock(), metrics.OutcomeCanceled)
			return result, err
		}

		ns := e.enforceNamespace(set, policies)
		if ns.Skipped {
			e.opts.Metrics.RecordSkipped()
			if e.opts.AbortOnInvalidPolicy {
				e.log.Warnw("aborting retention run on invalid policy",
					"namespace", ns.Namespace, "reason", ns.Reason, "discarded_deleted", result.Deleted,
					"discarded_failed", result.Failed)
				e.opts.Metrics.RecordRun(start, e.opts.Clock(), metrics.OutcomeAborted)
				return &Result{Aborted: true, DryRun: e.opts.DryRun}, nil
			}
		}

		result.add(ns)
	}

	e.opts.Metrics.RecordRun(start, e.opts.Clock(), metrics.OutcomeCompleted)
	return result, nil
}

// enforceNamespace scans one namespace newest first. A file is deleted when
// its newest event is outside retention, or when the bytes of the files
// scanned before it already reached the size cap. Files without a
// LatestEventTime are only ever deleted by the size rule.
func (e *Enforcer) enforceNamespace(set *domain.NamespaceFileSet, policies domain.PolicySet) NamespaceResult {
	ns := NamespaceResult{Namespace: set.Namespace}
	log := e.log.With("namespace", set.Namespace)

	policy, ok := policies.Lookup(set.Namespace)
	if !ok {
		ns.Skipped, ns.Reason = true, "no policy and no default policy"
		log.Warnw("retention policy invalid", "reason", ns.Reason)
		return ns
	}
	ns.PolicyNamespace = policy.Namespace

	if err := policy.Validate(); err != nil {
		ns.Skipped, ns.Reason = true, err.Error()
		log.Warnw("retention policy invalid", "policy", policy.Namespace, "reason", ns.Reason,
			"max_total_size_mb", policy.MaxTotalSizeMB, "retention_period_secs", policy.RetentionPeriodSeconds)
		return ns
	}

	now := e.opts.Clock()
	maxBytes := policy.MaxTotalSizeBytes()
	sizeLimitReached := false
	var runningTotal int64

	log.Infow("enforcing retention policy", "policy", policy.Namespace, "files", len(set.Files),
		"date_limit", policy.DateLimit(now), "max_total_size_mb", policy.MaxTotalSizeMB)

	for i := range set.Files {
		file := &set.Files[i]

		reason := ""
		if file.LatestEventTime != nil && policy.IsOutsideRetention(*file.LatestEventTime, now) {
			reason = reasonAge
		} else if sizeLimitReached {
			reason = reasonSize
		}

		if reason != "" {
			e.delete(log, file, reason, &ns)
		} else {
			log.Debugw("kept", "path", file.Path, "running_total", runningTotal)
		}

		if file.SizeOnDisk > 0 {
			runningTotal += file.SizeOnDisk
		}
		if !sizeLimitReached && runningTotal >= maxBytes {
			sizeLimitReached = true
			log.Infow("size limit reached, older files will be deleted",
				"path", file.Path, "running_total", runningTotal, "max_bytes", maxBytes)
		}
	}

	log.Infow("namespace retention finished", "deleted", ns.Deleted, "failed", ns.Failed,
		"bytes_reclaimed", ns.BytesReclaimed, "dry_run", e.opts.DryRun)
	return ns
}

func (e *Enforcer) delete(log *zap.SugaredLogger, file *domain.SegmentFile, reason string, ns *NamespaceResult) {
	fields := []any{"path", file.Path, "reason", reason, "size_on_disk", file.SizeOnDisk}
	if file.LatestEventTime != nil {
		fields = append(fields, "latest_time", file.LatestEventTime.Format(time.RFC3339))
	}

	if e.opts.DryRun {
		log.Infow("would delete", fields...)
		ns.Deleted++
		ns.BytesReclaimed += max(file.SizeOnDisk, 0)
		return
	}

	if err := file.Delete(e.remover); err != nil {
		log.Errorw("could not delete", append(fields, "error", err)...)
		ns.Failed++
		e.opts.Metrics.RecordFailed(ns.Namespace)
		return
	}

	log.Infow("deleted", fields...)
	ns.Deleted++
	ns.BytesReclaimed += max(file.SizeOnDisk, 0)
	e.opts.Metrics.RecordDeleted(ns.Namespace, file.SizeOnDisk)
}
