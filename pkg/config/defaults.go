// Package config loads depchain settings from a YAML file and DEPCHAIN_*
// environment variables.
package config

import (
	"os"
	"path/filepath"
)

// Check defaults.
const (
	DefaultConcurrency     = 4
	DefaultFileConcurrency = 0 // GOMAXPROCS.
)

// Cache defaults.
const (
	DefaultCacheEnabled    = true
	DefaultCacheMaxEntries = 4096
	DefaultCacheMaxSize    = "256MB"
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Observability defaults.
const (
	DefaultOTLPEndpoint = ""
	DefaultMetricsAddr  = ""
	DefaultSampleRatio  = 0.0
)

// DefaultAreas checks only the package root.
var DefaultAreas = []string{"package"}

// DefaultCacheDirectory returns the per-user cache directory for extraction results.
func DefaultCacheDirectory() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "depchain-cache")
	}

	return filepath.Join(dir, "depchain")
}
