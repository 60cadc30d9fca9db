// Package config loads worker configuration from JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/issac1998/kafka-client/internal/discovery"
	"github.com/issac1998/kafka-client/internal/logging"
)

// Defaults returned by the duration accessors when a field is empty or
// unparsable
const (
	DefaultMetadataUpdateInterval      = 30 * time.Second
	DefaultConsumerGroupUpdateInterval = 30 * time.Second
	DefaultSyncTimeout                 = time.Second
)

// WorkerConfig is the on-disk configuration for one client worker
type WorkerConfig struct {
	Uris                        []string                   `json:"uris"`
	MetadataUpdateInterval      string                     `json:"metadata_update_interval"`
	ConsumerGroupUpdateInterval string                     `json:"consumer_group_update_interval"`
	SyncTimeout                 string                     `json:"sync_timeout"`
	ConsumerGroup               string                     `json:"consumer_group"`
	WorkerName                  string                     `json:"worker_name"`
	Logging                     *logging.Config            `json:"logging,omitempty"`
	Discovery                   *discovery.DiscoveryConfig `json:"discovery,omitempty"`
}

// LoadWorkerConfig reads and validates a worker config file
func LoadWorkerConfig(path string) (*WorkerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	var cfg WorkerConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks required fields and the duration strings
func (c *WorkerConfig) Validate() error {
	if len(c.Uris) == 0 && (c.Discovery == nil || c.Discovery.Type == "" || c.Discovery.Type == "static") {
		return fmt.Errorf("config requires at least one broker uri")
	}

	for _, field := range []string{c.MetadataUpdateInterval, c.ConsumerGroupUpdateInterval, c.SyncTimeout} {
		if field == "" {
			continue
		}
		if _, err := time.ParseDuration(field); err != nil {
			return fmt.Errorf("invalid duration %q: %v", field, err)
		}
	}

	return nil
}

// MetadataInterval returns the parsed metadata refresh interval
func (c *WorkerConfig) MetadataInterval() time.Duration {
	return parseDuration(c.MetadataUpdateInterval, DefaultMetadataUpdateInterval)
}

// ConsumerGroupInterval returns the parsed coordinator refresh interval
func (c *WorkerConfig) ConsumerGroupInterval() time.Duration {
	return parseDuration(c.ConsumerGroupUpdateInterval, DefaultConsumerGroupUpdateInterval)
}

// SyncTimeoutDuration returns the parsed per-exchange timeout
func (c *WorkerConfig) SyncTimeoutDuration() time.Duration {
	return parseDuration(c.SyncTimeout, DefaultSyncTimeout)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
