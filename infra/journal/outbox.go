package journal

import (
	"encoding/binary"
	"errors"
	"time"

	"github.com/cockroachdb/pebble"

	"matchengine/id"
)

// DeliveryState tracks an outbox entry's progress toward a downstream
// consumer (§10.3), adapted from the teacher's pebble-backed exit WAL.
type DeliveryState uint8

const (
	StateNew DeliveryState = iota
	StateSent
	StateAcked
	StateFailed
)

func (s DeliveryState) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// DeliveryRecord is one outbox entry: the serialized event payload plus
// its current delivery state.
type DeliveryRecord struct {
	State       DeliveryState
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

// Outbox durably records every event pending delivery to an external
// consumer (e.g. the Kafka forwarder) so a crash between "matched" and
// "published externally" cannot silently drop an event.
type Outbox struct {
	db *pebble.DB
}

// OpenOutbox opens (or creates) a pebble-backed outbox at dir.
func OpenOutbox(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{DisableWAL: false})
	if err != nil {
		return nil, err
	}
	return &Outbox{db: db}, nil
}

// Close closes the underlying database.
func (o *Outbox) Close() error { return o.db.Close() }

// PutPending records a new outbox entry in the New state.
func (o *Outbox) PutPending(instrumentID id.InstrumentID, seq uint64, payload []byte) error {
	rec := DeliveryRecord{State: StateNew, Payload: payload}
	return o.db.Set(keyFor(instrumentID, seq), encodeDeliveryRecord(rec), pebble.Sync)
}

// MarkState transitions an existing entry's delivery state, incrementing
// its retry counter and recording the attempt time.
func (o *Outbox) MarkState(instrumentID id.InstrumentID, seq uint64, state DeliveryState) error {
	existing, err := o.Get(instrumentID, seq)
	if err != nil {
		return err
	}
	existing.State = state
	existing.Retries++
	existing.LastAttempt = time.Now().UnixNano()
	return o.db.Set(keyFor(instrumentID, seq), encodeDeliveryRecord(existing), pebble.Sync)
}

// Delete removes an acknowledged entry.
func (o *Outbox) Delete(instrumentID id.InstrumentID, seq uint64) error {
	return o.db.Delete(keyFor(instrumentID, seq), pebble.Sync)
}

// Get returns the current record for one (instrument, seq) pair.
func (o *Outbox) Get(instrumentID id.InstrumentID, seq uint64) (DeliveryRecord, error) {
	val, closer, err := o.db.Get(keyFor(instrumentID, seq))
	if err != nil {
		return DeliveryRecord{}, err
	}
	defer closer.Close()
	return decodeDeliveryRecord(val)
}

// ScanByState iterates every entry currently in the given state, in key
// (instrument, seq) order, invoking fn for each. Used by the Kafka
// forwarder's replay loop to find work.
func (o *Outbox) ScanByState(state DeliveryState, fn func(instrumentID id.InstrumentID, seq uint64, rec DeliveryRecord) error) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{0x01},
		UpperBound: []byte{0x02},
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		instrumentID, seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		rec, err := decodeDeliveryRecord(iter.Value())
		if err != nil {
			return err
		}
		if rec.State != state {
			continue
		}
		if err := fn(instrumentID, seq, rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

const keyPrefix = 0x01

func keyFor(instrumentID id.InstrumentID, seq uint64) []byte {
	key := make([]byte, 1+16+8)
	key[0] = keyPrefix
	copy(key[1:17], instrumentID[:])
	binary.BigEndian.PutUint64(key[17:25], seq)
	return key
}

func parseKey(b []byte) (id.InstrumentID, uint64, error) {
	if len(b) != 1+16+8 {
		return id.InstrumentID{}, 0, errors.New("journal: malformed outbox key")
	}
	var instrumentID id.InstrumentID
	copy(instrumentID[:], b[1:17])
	seq := binary.BigEndian.Uint64(b[17:25])
	return instrumentID, seq, nil
}

func encodeDeliveryRecord(r DeliveryRecord) []byte {
	buf := make([]byte, 1+4+8+4+len(r.Payload))
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))
	binary.BigEndian.PutUint32(buf[13:17], uint32(len(r.Payload)))
	copy(buf[17:], r.Payload)
	return buf
}

func decodeDeliveryRecord(b []byte) (DeliveryRecord, error) {
	if len(b) < 17 {
		return DeliveryRecord{}, errors.New("journal: malformed delivery record")
	}
	payloadLen := binary.BigEndian.Uint32(b[13:17])
	if len(b) != 17+int(payloadLen) {
		return DeliveryRecord{}, errors.New("journal: delivery record length mismatch")
	}
	payload := make([]byte, payloadLen)
	copy(payload, b[17:])
	return DeliveryRecord{
		State:       DeliveryState(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     payload,
	}, nil
}
