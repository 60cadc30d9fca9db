package client

import (
	"github.com/issac1998/kafka-client/internal/protocol"
)

// Leader and coordinator lookups are pure over (snapshot, registry) so the
// routers and the tests share them.

// leaderFor resolves the broker leading a partition, or nil when the topic
// or partition is unknown, a leader election is in progress, or the leader
// is not currently registered.
func leaderFor(metadata *protocol.MetadataResponse, registry *brokerRegistry, topic string, partition int32) *Broker {
	if metadata == nil {
		return nil
	}

	topicMeta := metadata.Topic(topic)
	if topicMeta == nil || topicMeta.ErrorCode == protocol.ErrLeaderNotAvailable.Code {
		return nil
	}

	partitionMeta := topicMeta.Partition(partition)
	if partitionMeta == nil || partitionMeta.ErrorCode == protocol.ErrLeaderNotAvailable.Code {
		return nil
	}

	node := metadata.BrokerByNode(partitionMeta.Leader)
	if node == nil {
		return nil
	}

	return registry.Find(node.Host, node.Port)
}

// coordinatorFor resolves the group coordinator broker, or nil when no
// coordinator snapshot is installed or it is not currently registered.
func coordinatorFor(coordinator *protocol.ConsumerMetadataResponse, registry *brokerRegistry) *Broker {
	if coordinator == nil {
		return nil
	}
	return registry.Find(coordinator.CoordinatorHost, coordinator.CoordinatorPort)
}
