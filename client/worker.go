package client

import (
	"log/slog"
	"time"

	"github.com/issac1998/kafka-client/internal/discovery"
	"github.com/issac1998/kafka-client/internal/protocol"
)

// worker owns all mutable client state: the broker registry, the metadata
// and coordinator snapshots, the correlation id, and the stream sink. One
// goroutine runs the loop; every mutation happens there, one request at a
// time. Blocking work (socket exchanges, retry sleeps) completes inside
// the current request before the next is dequeued.
type worker struct {
	name                string
	net                 NetworkClient
	logger              *slog.Logger
	syncTimeout         time.Duration
	metadataInterval    time.Duration
	coordinatorInterval time.Duration
	consumerGroup       string

	registry      *brokerRegistry
	metadata      *protocol.MetadataResponse
	coordinator   *protocol.ConsumerMetadataResponse
	correlationID uint32
	sink          *streamSink

	events chan workerEvent
	stop   chan struct{}
	closed chan struct{}
}

func newWorker(cfg Config) *worker {
	logger := cfg.Logger.WithWorker(cfg.WorkerName).Logger

	w := &worker{
		name:                cfg.WorkerName,
		net:                 cfg.Network,
		logger:              logger,
		syncTimeout:         cfg.SyncTimeout,
		metadataInterval:    cfg.MetadataUpdateInterval,
		coordinatorInterval: cfg.ConsumerGroupUpdateInterval,
		consumerGroup:       cfg.ConsumerGroup,
		events:              make(chan workerEvent),
		stop:                make(chan struct{}),
		closed:              make(chan struct{}),
	}
	w.registry = newBrokerRegistry(cfg.Network, cfg.SyncTimeout, logger)
	return w
}

// init connects the seed brokers and performs the initial metadata
// retrieval, on the caller's goroutine so construction fails loudly.
func (w *worker) init(seeds []*discovery.BrokerInfo) error {
	// Add prepends; walk the seeds backwards so the first uri stays the
	// registry head.
	for i := len(seeds) - 1; i >= 0; i-- {
		w.registry.Add(seeds[i].Host, seeds[i].Port)
	}

	if err := w.updateMetadata(""); err != nil {
		w.registry.CloseAll()
		return err
	}
	return nil
}

// run is the worker event loop. The metadata ticker is always armed; the
// coordinator ticker only when a consumer group is configured. A tick
// never preempts an in-flight request.
func (w *worker) run() {
	defer w.shutdown()

	metadataTicker := time.NewTicker(w.metadataInterval)
	defer metadataTicker.Stop()

	var coordinatorTick <-chan time.Time
	if w.consumerGroup != NoConsumerGroup {
		coordinatorTicker := time.NewTicker(w.coordinatorInterval)
		defer coordinatorTicker.Stop()
		coordinatorTick = coordinatorTicker.C
	}

	for {
		select {
		case <-w.stop:
			return
		case e := <-w.events:
			if err := w.handle(e); err != nil {
				w.logger.Error("worker terminating", "error", err)
				return
			}
		case <-metadataTicker.C:
			if err := w.updateMetadata(""); err != nil {
				w.logger.Error("worker terminating", "error", err)
				return
			}
		case <-coordinatorTick:
			w.updateCoordinator()
		}
	}
}

func (w *worker) handle(e workerEvent) error {
	switch e := e.(type) {
	case produceEvent:
		return w.handleProduce(e)
	case fetchEvent:
		return w.handleFetch(e)
	case offsetEvent:
		return w.handleOffset(e)
	case offsetFetchEvent:
		return w.handleOffsetFetch(e)
	case offsetCommitEvent:
		return w.handleOffsetCommit(e)
	case consumerGroupEvent:
		e.reply <- w.consumerGroup
		return nil
	case consumerGroupMetadataEvent:
		return w.handleConsumerGroupMetadata(e)
	case metadataEvent:
		return w.handleMetadata(e)
	case joinGroupEvent:
		return w.handleJoinGroup(e)
	case syncGroupEvent:
		return w.handleSyncGroup(e)
	case heartbeatEvent:
		return w.handleHeartbeat(e)
	case leaveGroupEvent:
		return w.handleLeaveGroup(e)
	case createStreamEvent:
		w.handleCreateStream(e)
		return nil
	case startStreamingEvent:
		w.handleStartStreaming(e)
		return nil
	case stopStreamingEvent:
		w.handleStopStreaming(e)
		return nil
	default:
		w.logger.Warn("ignoring unknown worker event")
		return nil
	}
}

// shutdown releases everything the worker owns: the sink, then every
// broker socket.
func (w *worker) shutdown() {
	if w.sink != nil {
		w.sink.Stop()
		w.sink = nil
	}
	w.registry.CloseAll()
	close(w.closed)
	w.logger.Info("worker closed")
}
