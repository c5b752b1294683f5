package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults used when neither the config file, the environment nor a flag
// sets a value.
const (
	DefaultListenAddr  = ":7400"
	DefaultWaitSeconds = 10
	DefaultQueueSize   = 64
)

// Config holds the node configuration. Values resolve in order: defaults,
// then the YAML file, then KVMETA_* environment variables; flag overrides
// are applied by the caller on top.
type Config struct {
	// NodeID prefixes log lines. Empty means the hostname.
	NodeID string `yaml:"node_id"`
	// ListenAddr is the HTTP listen address.
	ListenAddr string `yaml:"listen_addr"`
	// DataDir is where the catalog database lives. Empty means an
	// in-memory catalog.
	DataDir string `yaml:"data_dir"`
	// WaitSeconds bounds operations whose request carries no timeout.
	WaitSeconds uint64 `yaml:"wait_seconds"`
	// QueueSize is the coordinator operation queue capacity.
	QueueSize int `yaml:"queue_size"`
	// UpstreamURL, when set, puts the node in proxy mode: requests are
	// forwarded to the kvmeta node at this base URL instead of a local
	// coordinator.
	UpstreamURL string `yaml:"upstream_url"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:  DefaultListenAddr,
		WaitSeconds: DefaultWaitSeconds,
		QueueSize:   DefaultQueueSize,
	}
}

// Load resolves the configuration from the optional YAML file at path and
// the environment. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("KVMETA_NODE_ID"); v != "" {
		c.NodeID = v
	}
	if v := os.Getenv("KVMETA_LISTEN"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("KVMETA_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("KVMETA_UPSTREAM"); v != "" {
		c.UpstreamURL = v
	}
	if v := os.Getenv("KVMETA_WAIT_SECONDS"); v != "" {
		secs, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("KVMETA_WAIT_SECONDS: %w", err)
		}
		c.WaitSeconds = secs
	}
	if v := os.Getenv("KVMETA_QUEUE_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("KVMETA_QUEUE_SIZE: %w", err)
		}
		c.QueueSize = size
	}
	return nil
}

// Validate checks the resolved configuration.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if c.WaitSeconds == 0 {
		return fmt.Errorf("wait_seconds must be at least 1")
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("queue_size must be at least 1")
	}
	if c.UpstreamURL != "" && c.DataDir != "" {
		return fmt.Errorf("data_dir and upstream_url are mutually exclusive: a proxy node holds no catalog")
	}
	return nil
}

// DefaultWait returns WaitSeconds as a duration.
func (c Config) DefaultWait() time.Duration {
	return time.Duration(c.WaitSeconds) * time.Second
}
