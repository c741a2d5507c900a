package journal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"

	"github.com/segmentio/kafka-go"
)

// KafkaReplayReader consumes the topic a KafkaForwarder publishes to,
// decoding each message back into a wireEvent for a downstream consumer
// (analytics, a read replica, an external matching-quality audit) that
// wants the event stream without talking to the engine directly. The
// teacher's kafka-go producer was never wired to a consumer; this adds
// the missing read side using the same library.
type KafkaReplayReader struct {
	reader *kafka.Reader
}

// NewKafkaReplayReader joins consumer group groupID on topic.
func NewKafkaReplayReader(brokers []string, topic, groupID string) *KafkaReplayReader {
	return &KafkaReplayReader{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
	}
}

// Handler is invoked once per decoded message.
type Handler func(instrumentKey string, ev *wireEvent) error

// Run reads messages until ctx is cancelled or fn returns an error,
// committing each message's offset only after fn succeeds.
func (r *KafkaReplayReader) Run(ctx context.Context, fn Handler) error {
	for {
		msg, err := r.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		var w wireEvent
		if err := json.Unmarshal(msg.Value, &w); err != nil {
			log.Printf("kafka replay: dropping malformed message at offset %d: %v", msg.Offset, err)
			if cerr := r.reader.CommitMessages(ctx, msg); cerr != nil {
				return cerr
			}
			continue
		}

		if err := fn(string(msg.Key), &w); err != nil {
			return err
		}
		if err := r.reader.CommitMessages(ctx, msg); err != nil {
			return err
		}
	}
}

// Close closes the underlying reader.
func (r *KafkaReplayReader) Close() error {
	return r.reader.Close()
}
