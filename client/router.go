package client

// Request routing: resolve the broker an operation must go to, refreshing
// cluster state once on a miss.

// brokerForPartition routes a partition-scoped operation to the partition
// leader. On a cache miss it refreshes metadata and consults once more; a
// nil result means the caller reports leader-not-available or
// topic-not-found.
func (w *worker) brokerForPartition(topic string, partition int32) (*Broker, error) {
	if broker := leaderFor(w.metadata, w.registry, topic, partition); broker != nil {
		return broker, nil
	}

	if err := w.updateMetadata(""); err != nil {
		return nil, err
	}
	return leaderFor(w.metadata, w.registry, topic, partition), nil
}

// brokerForProduce routes a produce. On a miss it first refreshes metadata
// scoped to the produced topic, which creates the topic on clusters with
// auto-create enabled, then falls back to a full refresh.
func (w *worker) brokerForProduce(topic string, partition int32) (*Broker, error) {
	if broker := leaderFor(w.metadata, w.registry, topic, partition); broker != nil {
		return broker, nil
	}

	if err := w.updateMetadata(topic); err != nil {
		return nil, err
	}
	if broker := leaderFor(w.metadata, w.registry, topic, partition); broker != nil {
		return broker, nil
	}

	if err := w.updateMetadata(""); err != nil {
		return nil, err
	}
	return leaderFor(w.metadata, w.registry, topic, partition), nil
}

// brokerForCoordinator routes a coordinator-scoped operation. On a miss it
// rediscovers the coordinator and consults once more. With
// useFirstAsDefault set, a still-unresolved coordinator falls back to the
// registry head.
func (w *worker) brokerForCoordinator(useFirstAsDefault bool) *Broker {
	if broker := coordinatorFor(w.coordinator, w.registry); broker != nil {
		return broker
	}

	w.updateCoordinator()
	if broker := coordinatorFor(w.coordinator, w.registry); broker != nil {
		return broker
	}

	if useFirstAsDefault {
		return w.registry.First()
	}
	return nil
}
