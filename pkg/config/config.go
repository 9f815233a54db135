// Package config loads coldb's server configuration from a YAML file,
// layered under command-line flags the way cmd/coldb's cobra flags are
// layered over it (flag > file > default).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every build-time-tunable constant the spec calls out as a
// "build-time constant" (B+-tree fanout, partition count, ...) plus the
// ambient server settings (data directory, socket path, logging).
type Config struct {
	DataDir    string `yaml:"data_dir"`
	SocketPath string `yaml:"socket_path"`

	// HealthAddr is the plain-HTTP address serving /health, /ready, and
	// /metrics (pkg/api.HealthServer), separate from SocketPath's DSL
	// protocol.
	HealthAddr string `yaml:"health_addr"`

	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`

	// WorkerPoolSize is T, the number of goroutines in the batched-select
	// worker pool (spec.md §4.9).
	WorkerPoolSize int `yaml:"worker_pool_size"`

	// BTreeFanout is the B+-tree's FANOUT constant (spec.md §4.4).
	BTreeFanout int `yaml:"btree_fanout"`

	// SelectivityThreshold is the planner's scan-vs-index switch point
	// (spec.md §4.5); ~0.6.
	SelectivityThreshold float64 `yaml:"selectivity_threshold"`

	// CacheSizeThreshold is the per-side row-count ceiling below which the
	// join executor uses an in-memory hash join instead of partitioning
	// (spec.md §4.10).
	CacheSizeThreshold int `yaml:"cache_size_threshold"`

	// PartitionCount is P, the grace hash join's partition count.
	PartitionCount int `yaml:"partition_count"`

	// MaxConnections bounds concurrently-dispatched client goroutines.
	MaxConnections int `yaml:"max_connections"`

	// SnapshotIntervalSeconds, in seconds, paces the background snapshotter; 0
	// disables periodic snapshotting (shutdown still snapshots).
	SnapshotIntervalSeconds int `yaml:"snapshot_interval_seconds"`
}

// Default returns the configuration coldb runs with when no config file is
// given.
func Default() Config {
	return Config{
		DataDir:                 "./data",
		SocketPath:              "./data/coldb.sock",
		HealthAddr:              "127.0.0.1:8089",
		LogLevel:                "info",
		LogJSON:                 false,
		WorkerPoolSize:          4,
		BTreeFanout:             256,
		SelectivityThreshold:    0.6,
		CacheSizeThreshold:      4096,
		PartitionCount:          16,
		MaxConnections:          256,
		SnapshotIntervalSeconds: 30,
	}
}

// Load reads a YAML config file and overlays it onto Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	return cfg, nil
}
