package client

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/issac1998/kafka-client/internal/config"
	"github.com/issac1998/kafka-client/internal/discovery"
	"github.com/issac1998/kafka-client/internal/logging"
)

// clientID is stamped into the header of every request sent on the wire
const clientID = "kafka_ex"

// NoConsumerGroup configures a worker without consumer group support;
// group-scoped operations on such a worker are caller contract violations.
const NoConsumerGroup = ""

// Defaults applied by NewClient
const (
	DefaultMetadataUpdateInterval      = 30 * time.Second
	DefaultConsumerGroupUpdateInterval = 30 * time.Second
	DefaultSyncTimeout                 = time.Second
)

// Config configures one client worker
type Config struct {
	// Uris is the seed broker list as host:port strings. Ignored when
	// Discovery is set.
	Uris []string

	// MetadataUpdateInterval is the period of the background metadata
	// refresh. Defaults to 30s.
	MetadataUpdateInterval time.Duration

	// ConsumerGroupUpdateInterval is the period of the background
	// coordinator refresh. Only used when a consumer group is configured.
	// Defaults to 30s.
	ConsumerGroupUpdateInterval time.Duration

	// SyncTimeout bounds every synchronous broker exchange. Defaults to 1s.
	SyncTimeout time.Duration

	// ConsumerGroup names the consumer group, or NoConsumerGroup.
	ConsumerGroup string

	// WorkerName names the worker for diagnostics. Defaults to a generated
	// name.
	WorkerName string

	// Discovery resolves the seed broker list instead of Uris when set.
	Discovery discovery.Discovery

	// Logger receives worker logs. Defaults to a text logger on stdout.
	Logger *logging.Logger

	// Network substitutes the socket layer, for tests. Defaults to TCP.
	Network NetworkClient
}

func (c *Config) applyDefaults() error {
	if c.MetadataUpdateInterval == 0 {
		c.MetadataUpdateInterval = DefaultMetadataUpdateInterval
	}
	if c.ConsumerGroupUpdateInterval == 0 {
		c.ConsumerGroupUpdateInterval = DefaultConsumerGroupUpdateInterval
	}
	if c.SyncTimeout == 0 {
		c.SyncTimeout = DefaultSyncTimeout
	}
	if c.WorkerName == "" {
		c.WorkerName = fmt.Sprintf("worker-%s", uuid.NewString()[:8])
	}
	if c.Network == nil {
		c.Network = DefaultNetworkClient()
	}
	if c.Logger == nil {
		logger, err := logging.New(logging.Config{EnableConsole: true})
		if err != nil {
			return err
		}
		c.Logger = logger
	}
	if len(c.Uris) == 0 && c.Discovery == nil {
		return fmt.Errorf("config requires at least one broker uri")
	}
	return nil
}

// LoadConfig reads a worker configuration file and maps it onto a Config,
// building the configured logger and discovery backend.
func LoadConfig(path string) (Config, error) {
	fileCfg, err := config.LoadWorkerConfig(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Uris:                        fileCfg.Uris,
		MetadataUpdateInterval:      fileCfg.MetadataInterval(),
		ConsumerGroupUpdateInterval: fileCfg.ConsumerGroupInterval(),
		SyncTimeout:                 fileCfg.SyncTimeoutDuration(),
		ConsumerGroup:               fileCfg.ConsumerGroup,
		WorkerName:                  fileCfg.WorkerName,
	}

	if fileCfg.Logging != nil {
		logger, err := logging.New(*fileCfg.Logging)
		if err != nil {
			return Config{}, err
		}
		cfg.Logger = logger
	}

	if fileCfg.Discovery != nil {
		backend, err := discovery.NewDiscovery(fileCfg.Discovery, fileCfg.Uris)
		if err != nil {
			return Config{}, err
		}
		cfg.Discovery = backend
	}

	return cfg, nil
}
