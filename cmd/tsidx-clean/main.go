package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iamNilotpal/tsidx/config"
	"github.com/iamNilotpal/tsidx/internal/adapters/compression"
	"github.com/iamNilotpal/tsidx/internal/adapters/fs"
	"github.com/iamNilotpal/tsidx/internal/adapters/provider/dirscan"
	"github.com/iamNilotpal/tsidx/internal/adapters/provider/manifest"
	"github.com/iamNilotpal/tsidx/internal/adapters/provider/static"
	"github.com/iamNilotpal/tsidx/internal/core/ports"
	"github.com/iamNilotpal/tsidx/internal/core/services/catalog"
	"github.com/iamNilotpal/tsidx/internal/core/services/retention"
	"github.com/iamNilotpal/tsidx/internal/metrics"
	"github.com/iamNilotpal/tsidx/pkg/errors"
	"github.com/iamNilotpal/tsidx/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	dryRun := flag.Bool("dry-run", false, "log deletions without removing files")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *dryRun {
		cfg.Retention.DryRun = true
	}

	log, err := logger.New("tsidx-clean", cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		if errors.IsValidationError(err) {
			verr := errors.AsValidationError(err)
			log.Errorw("retention run failed", "field", verr.Field, "value", verr.Value, "error", verr.Err)
		} else if rerr := errors.AsRetentionError(err); rerr != nil {
			log.Errorw("retention run failed",
				"category", rerr.Category.String(), "operation", rerr.Operation, "error", rerr.Err)
		} else {
			log.Errorw("retention run failed", "error", err)
		}
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	localFS := fs.NewLocalFileSystem()

	var (
		files    ports.FileMetadataProvider
		policies ports.PolicyProvider
	)

	var mf *manifest.Provider
	if cfg.Catalog.ManifestPath != "" {
		opts := compression.DefaultOptions()
		opts.Level = cfg.Catalog.CompressionLevel
		codec, err := compression.NewZstdCompression(opts)
		if err != nil {
			return errors.NewRetentionError(errors.ErrorConfig, "create manifest codec", err)
		}
		defer codec.Close()
		mf = manifest.New(localFS, codec, cfg.Catalog.ManifestPath)
	}

	switch cfg.Catalog.Source {
	case config.SourceManifest:
		files = mf
	default:
		files = dirscan.New(localFS, cfg.Catalog.Root, cfg.Catalog.Extension, cfg.Catalog.ExcludeDirs)
	}

	switch cfg.PolicySource {
	case config.SourceManifest:
		policies = mf
	default:
		policies = static.NewPolicyProvider(cfg.RetentionPolicies())
	}

	var (
		registry *prometheus.Registry
		rm       *metrics.RetentionMetrics
	)
	if cfg.Metrics.Enable {
		registry = prometheus.NewRegistry()
		rm = metrics.NewRetentionMetrics(registry)
	}

	enforcer, err := retention.NewEnforcer(localFS, log, &retention.Options{
		AbortOnInvalidPolicy: cfg.Retention.AbortOnInvalidPolicy,
		DryRun:               cfg.Retention.DryRun,
		Metrics:              rm,
	})
	if err != nil {
		return errors.NewRetentionError(errors.ErrorConfig, "create enforcer", err)
	}

	svc := retention.NewService(catalog.New(files, log), policies, enforcer, log)
	result, err := svc.Run(ctx, cfg.CredentialsValue())
	if err != nil {
		return err
	}

	fmt.Printf("deleted=%d failed=%d bytes_reclaimed=%d aborted=%t dry_run=%t\n",
		result.Deleted, result.Failed, result.BytesReclaimed, result.Aborted, result.DryRun)

	if registry != nil && cfg.Metrics.TextfilePath != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.TextfilePath, registry); err != nil {
			log.Warnw("could not write metrics textfile", "path", cfg.Metrics.TextfilePath, "error", err)
		}
	}

	if result.Aborted {
		return errors.NewRetentionError(errors.ErrorPolicy, "enforce retention", fmt.Errorf("run aborted on invalid policy"))
	}
	return nil
}
