package journal

import (
	"context"
	"log"
	"time"

	"github.com/IBM/sarama"

	"matchengine/id"
)

// KafkaForwarder drains the Outbox and publishes each pending entry to a
// Kafka topic, adapted from the teacher's ticker-driven broadcaster
// replay loop. Delivery is at-least-once: a message is marked Sent
// before the produce call so a crash mid-send is retried on the next
// tick rather than silently skipped, and marked Acked only once Kafka
// has confirmed receipt.
type KafkaForwarder struct {
	outbox   *Outbox
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
}

// NewKafkaForwarder dials brokers with acks-from-all-replicas semantics,
// matching the teacher's producer configuration.
func NewKafkaForwarder(outbox *Outbox, brokers []string, topic string) (*KafkaForwarder, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &KafkaForwarder{
		outbox:   outbox,
		producer: producer,
		topic:    topic,
		interval: 250 * time.Millisecond,
	}, nil
}

// Run drains the outbox on a fixed interval until ctx is cancelled.
func (f *KafkaForwarder) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.drainOnce()
		}
	}
}

// maxRetries caps a Failed entry's Retries counter. MarkState bumps that
// counter on every state change, so each failed attempt adds two (Sent,
// then Failed) and a Failed entry stops being retried after five attempts
// in all; it is then left in place for an operator to inspect.
const maxRetries = 10

func (f *KafkaForwarder) drainOnce() {
	for _, state := range []DeliveryState{StateNew, StateSent, StateFailed} {
		err := f.outbox.ScanByState(state, func(instrumentID id.InstrumentID, seq uint64, rec DeliveryRecord) error {
			if state == StateFailed && rec.Retries >= maxRetries {
				return nil
			}
			return f.forwardOne(instrumentID, seq, rec)
		})
		if err != nil {
			log.Printf("kafka forwarder: scan failed: %v", err)
		}
	}
}

func (f *KafkaForwarder) forwardOne(instrumentID id.InstrumentID, seq uint64, rec DeliveryRecord) error {
	if err := f.outbox.MarkState(instrumentID, seq, StateSent); err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: f.topic,
		Key:   sarama.StringEncoder(instrumentID.String()),
		Value: sarama.ByteEncoder(rec.Payload),
	}
	if _, _, err := f.producer.SendMessage(msg); err != nil {
		log.Printf("kafka forwarder: send failed for instrument=%s seq=%d: %v", instrumentID, seq, err)
		_ = f.outbox.MarkState(instrumentID, seq, StateFailed)
		return nil // the StateFailed mark above leaves it for the next tick's retry
	}

	return f.outbox.MarkState(instrumentID, seq, StateAcked)
}

// Close closes the underlying producer.
func (f *KafkaForwarder) Close() error {
	return f.producer.Close()
}
