package discovery

// StaticDiscovery serves a fixed seed list, the default bootstrap path.
type StaticDiscovery struct {
	brokers []*BrokerInfo
}

// NewStaticDiscovery creates a discovery over a fixed host:port list
func NewStaticDiscovery(uris []string) (*StaticDiscovery, error) {
	brokers := make([]*BrokerInfo, 0, len(uris))
	for _, uri := range uris {
		host, port, err := ParseBrokerURI(uri)
		if err != nil {
			return nil, err
		}
		brokers = append(brokers, &BrokerInfo{
			ID:   uri,
			Host: host,
			Port: port,
		})
	}

	return &StaticDiscovery{brokers: brokers}, nil
}

// DiscoverBrokers returns the configured seed brokers
func (sd *StaticDiscovery) DiscoverBrokers() ([]*BrokerInfo, error) {
	brokers := make([]*BrokerInfo, 0, len(sd.brokers))
	for _, broker := range sd.brokers {
		brokerCopy := *broker
		brokers = append(brokers, &brokerCopy)
	}
	return brokers, nil
}

// Close is a no-op for static discovery
func (sd *StaticDiscovery) Close() error {
	return nil
}
