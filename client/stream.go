package client

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	kerrors "github.com/issac1998/kafka-client/internal/errors"
	"github.com/issac1998/kafka-client/internal/protocol"
)

// Streaming defaults: the fetch shape used by the polling loop
const (
	streamWaitTime   = 900
	streamMinBytes   = 1
	streamMaxBytes   = 1_000_000
	streamBufferSize = 1024
)

// MessageHandler is invoked by the sink for every streamed message, before
// the message is delivered on the output channel. May be nil.
type MessageHandler func(Message)

// streamSink delivers fetched messages to the consumer. The worker is the
// only producer; the output channel may be read concurrently.
type streamSink struct {
	id       string
	handler  MessageHandler
	messages chan protocol.Message
}

func newStreamSink(handler MessageHandler) *streamSink {
	return &streamSink{
		id:       uuid.NewString(),
		handler:  handler,
		messages: make(chan protocol.Message, streamBufferSize),
	}
}

// Emit hands one message to the sink. A full buffer drops the message
// rather than stalling the worker loop.
func (s *streamSink) Emit(msg protocol.Message, logger *slog.Logger) {
	if s.handler != nil {
		s.handler(msg)
	}
	select {
	case s.messages <- msg:
	default:
		logger.Warn("stream buffer full, dropping message",
			"sink", s.id, "offset", msg.Offset)
	}
}

// Stop closes the output channel
func (s *streamSink) Stop() {
	close(s.messages)
}

func (w *worker) handleCreateStream(e createStreamEvent) {
	if w.sink != nil {
		w.logger.Warn("stream already active, not replacing it", "sink", w.sink.id)
		e.reply <- createStreamReply{
			messages: w.sink.messages,
			err: &kerrors.TypedError{
				Type:    kerrors.StreamError,
				Message: kerrors.StreamAlreadyActiveMsg,
			},
		}
		return
	}

	w.sink = newStreamSink(e.handler)
	w.logger.Info("stream created", "sink", w.sink.id)
	e.reply <- createStreamReply{messages: w.sink.messages}
}

// handleStartStreaming performs one poll of the streaming loop and
// reschedules itself with the next offset. A poll arriving after the
// stream was stopped is discarded.
func (w *worker) handleStartStreaming(e startStreamingEvent) {
	if w.sink == nil {
		return
	}

	opts := e.opts
	offset := opts.Offset

	resp, err := w.fetch(FetchOptions{
		Topic:      opts.Topic,
		Partition:  opts.Partition,
		Offset:     offset,
		WaitTime:   streamWaitTime,
		MinBytes:   streamMinBytes,
		MaxBytes:   streamMaxBytes,
		AutoCommit: opts.AutoCommit,
	})
	if err != nil {
		if !kerrors.IsTopicNotFound(err) {
			w.logger.Warn("stream fetch failed",
				"topic", opts.Topic, "partition", opts.Partition, "error", err)
		}
	} else if partition := resp.FirstPartition(); partition != nil {
		for _, msg := range partition.Messages {
			w.sink.Emit(msg, w.logger)
		}
		if last := partition.LastOffset(); last != nil {
			offset = *last + 1
		}
	}

	opts.Offset = offset
	w.scheduleStreaming(opts)
}

// scheduleStreaming posts the next streaming self-message after the poll
// interval, unless the worker shuts down first.
func (w *worker) scheduleStreaming(opts StreamOptions) {
	time.AfterFunc(opts.PollInterval, func() {
		select {
		case w.events <- startStreamingEvent{opts: opts}:
		case <-w.closed:
		}
	})
}

func (w *worker) handleStopStreaming(e stopStreamingEvent) {
	if w.sink != nil {
		w.logger.Info("stream stopped", "sink", w.sink.id)
		w.sink.Stop()
		w.sink = nil
	}
	if e.reply != nil {
		e.reply <- struct{}{}
	}
}
