package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/iamNilotpal/tsidx/internal/adapters/compression"
	"github.com/iamNilotpal/tsidx/internal/core/domain"
	"github.com/iamNilotpal/tsidx/pkg/logger"
	"gopkg.in/yaml.v3"
)

const (
	SourceDirScan  = "dirscan"
	SourceManifest = "manifest"
	SourceConfig   = "config"
)

type Config struct {
	Log          logger.Config     `yaml:"log"`
	Catalog      CatalogConfig     `yaml:"catalog"`
	Retention    RetentionConfig   `yaml:"retention"`
	PolicySource string            `yaml:"policy_source"` // "config" or "manifest"
	Policies     []PolicyConfig    `yaml:"policies"`
	Metrics      MetricsConfig     `yaml:"metrics"`
	Credentials  CredentialsConfig `yaml:"credentials"`
}

// Where segment file metadata comes from.
type CatalogConfig struct {
	Source           string   `yaml:"source"`            // "dirscan" or "manifest"
	Root             string   `yaml:"root"`              // Index root, one directory per namespace
	Extension        string   `yaml:"extension"`         // Segment file extension
	ExcludeDirs      []string `yaml:"exclude_dirs"`      // Directories skipped by the scan
	ManifestPath     string   `yaml:"manifest_path"`     // JSON or YAML export, optionally .zst
	CompressionLevel uint8    `yaml:"compression_level"` // zstd level for the manifest codec
}

type RetentionConfig struct {
	AbortOnInvalidPolicy bool `yaml:"abort_on_invalid_policy"` // Legacy abort-the-run behaviour
	DryRun               bool `yaml:"dry_run"`                 // Log deletions without unlinking
}

type PolicyConfig struct {
	Namespace                 string `yaml:"namespace"`
	MaxTotalSizeMB            int64  `yaml:"max_total_size_mb"`
	RetentionTimePeriodInSecs int64  `yaml:"retention_time_period_in_secs"`
}

type MetricsConfig struct {
	Enable       bool   `yaml:"enable"`
	TextfilePath string `yaml:"textfile_path"` // node_exporter textfile collector target
}

type CredentialsConfig struct {
	// SessionKey is passed through to the providers. Environment
	// references such as ${TSIDX_SESSION_KEY} are expanded.
	SessionKey string `yaml:"session_key"`
}

// Returns a Config struct with reasonable default values.
func DefaultConfig() *Config {
	return &Config{
		Log: logger.Config{Level: "info", Format: "json", OutputFile: "stdout"},
		Catalog: CatalogConfig{
			Source:           SourceDirScan,
			Root:             "/opt/tsidx",
			Extension:        ".tsidx",
			CompressionLevel: compression.DefaultLevel,
		},
		PolicySource: SourceConfig,
		Policies: []PolicyConfig{
			{
				Namespace:                 domain.DefaultPolicyNamespace,
				MaxTotalSizeMB:            500 * 1024, // 500GB
				RetentionTimePeriodInSecs: 188697600,  // ~6 years
			},
		},
	}
}

// Loads configuration from a YAML file. Keys absent from the file keep
// their DefaultConfig value.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	config.Credentials.SessionKey = os.ExpandEnv(config.Credentials.SessionKey)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// RetentionPolicies converts the policies section to domain policies.
// Thresholds are checked by the enforcer, not here, so an invalid policy
// only affects its own namespace.
func (c *Config) RetentionPolicies() []domain.RetentionPolicy {
	policies := make([]domain.RetentionPolicy, 0, len(c.Policies))
	for _, p := range c.Policies {
		policies = append(policies, domain.RetentionPolicy{
			Namespace:              p.Namespace,
			MaxTotalSizeMB:         p.MaxTotalSizeMB,
			RetentionPeriodSeconds: p.RetentionTimePeriodInSecs,
		})
	}
	return policies
}

func (c *Config) CredentialsValue() domain.Credentials {
	return domain.Credentials{SessionKey: c.Credentials.SessionKey}
}

func validateConfig(config *Config) error {
	if err := validateCatalogConfig(&config.Catalog); err != nil {
		return fmt.Errorf("invalid catalog configuration: %w", err)
	}

	switch config.PolicySource {
	case SourceConfig:
		for i, p := range config.Policies {
			if strings.TrimSpace(p.Namespace) == "" {
				return fmt.Errorf("policies[%d]: namespace is required", i)
			}
		}
	case SourceManifest:
		if config.Catalog.ManifestPath == "" {
			return fmt.Errorf("policy_source manifest requires catalog.manifest_path")
		}
	default:
		return fmt.Errorf("policy_source must be %q or %q", SourceConfig, SourceManifest)
	}

	if config.Metrics.TextfilePath != "" && !config.Metrics.Enable {
		return fmt.Errorf("metrics.textfile_path is set but metrics are disabled")
	}

	return nil
}

func validateCatalogConfig(config *CatalogConfig) error {
	switch config.Source {
	case SourceDirScan:
		if config.Root == "" {
			return fmt.Errorf("root is required for the dirscan source")
		}
	case SourceManifest:
		if config.ManifestPath == "" {
			return fmt.Errorf("manifest_path is required for the manifest source")
		}
	default:
		return fmt.Errorf("source must be %q or %q", SourceDirScan, SourceManifest)
	}

	if config.CompressionLevel < compression.FastestLevel || config.CompressionLevel > compression.BestLevel {
		return fmt.Errorf("compression_level must be between %d and %d", compression.FastestLevel, compression.BestLevel)
	}

	return nil
}
