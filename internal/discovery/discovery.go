package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Discovery resolves the seed broker list a worker bootstraps from.
type Discovery interface {
	// DiscoverBrokers returns the currently known brokers
	DiscoverBrokers() ([]*BrokerInfo, error)

	// Close closes the discovery backend
	Close() error
}

// BrokerInfo contains information about a broker
type BrokerInfo struct {
	ID       string            `json:"id"`
	Host     string            `json:"host"`
	Port     int32             `json:"port"`
	Status   string            `json:"status"`
	LastSeen time.Time         `json:"last_seen"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Addr returns the host:port form of the broker address
func (b *BrokerInfo) Addr() string {
	return net.JoinHostPort(b.Host, strconv.Itoa(int(b.Port)))
}

// DiscoveryConfig contains service discovery configuration
type DiscoveryConfig struct {
	Type      string   `json:"type"`
	Endpoints []string `json:"endpoints"`
	Prefix    string   `json:"prefix"`
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	Timeout   string   `json:"timeout"`
}

// NewDiscovery creates a Discovery instance based on configuration. A nil
// config, an empty type or "static" yields a static discovery over uris;
// an unknown type is an error.
func NewDiscovery(config *DiscoveryConfig, uris []string) (Discovery, error) {
	if config == nil {
		return NewStaticDiscovery(uris)
	}

	switch config.Type {
	case "etcd":
		return NewEtcdDiscovery(config)
	case "static", "":
		return NewStaticDiscovery(uris)
	default:
		return nil, fmt.Errorf("unknown discovery type: %s", config.Type)
	}
}

// ParseBrokerURI splits a host:port seed uri
func ParseBrokerURI(uri string) (string, int32, error) {
	host, portStr, err := net.SplitHostPort(uri)
	if err != nil {
		return "", 0, fmt.Errorf("invalid broker uri %q: %v", uri, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid broker port in %q: %v", uri, err)
	}
	return host, int32(port), nil
}
