package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const defaultEtcdPrefix = "/kafka-client/brokers"

// EtcdDiscovery resolves the seed broker list from broker registrations in etcd
type EtcdDiscovery struct {
	client  *clientv3.Client
	prefix  string
	timeout time.Duration
}

// NewEtcdDiscovery creates an etcd-based discovery
func NewEtcdDiscovery(config *DiscoveryConfig) (*EtcdDiscovery, error) {
	timeout := 5 * time.Second
	if config.Timeout != "" {
		parsed, err := time.ParseDuration(config.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid discovery timeout %q: %v", config.Timeout, err)
		}
		timeout = parsed
	}

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   config.Endpoints,
		DialTimeout: timeout,
		Username:    config.Username,
		Password:    config.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %v", err)
	}

	prefix := config.Prefix
	if prefix == "" {
		prefix = defaultEtcdPrefix
	}

	return &EtcdDiscovery{
		client:  client,
		prefix:  prefix,
		timeout: timeout,
	}, nil
}

// DiscoverBrokers lists broker registrations under the configured prefix
func (ed *EtcdDiscovery) DiscoverBrokers() ([]*BrokerInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ed.timeout)
	defer cancel()

	resp, err := ed.client.Get(ctx, ed.prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list brokers from etcd: %v", err)
	}

	brokers := make([]*BrokerInfo, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var broker BrokerInfo
		if err := json.Unmarshal(kv.Value, &broker); err != nil {
			return nil, fmt.Errorf("invalid broker registration at %s: %v", kv.Key, err)
		}
		brokers = append(brokers, &broker)
	}

	return brokers, nil
}

// Close closes the etcd client
func (ed *EtcdDiscovery) Close() error {
	return ed.client.Close()
}
