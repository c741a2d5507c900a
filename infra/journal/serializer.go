package journal

import (
	"encoding/json"
	"time"

	"matchengine/domain"
	"matchengine/id"
)

func timeFromUnixNano(ns int64) time.Time { return time.Unix(0, ns).UTC() }

// wireEvent is the JSON-serializable mirror of domain.Event. No decimal
// or serialization library appears anywhere in the retrieved corpus, so
// encoding/json over decimal.Decimal's canonical String()/FromString
// round trip is the one standard-library fallback in this package,
// justified by the absence of any shown alternative (DESIGN.md).
type wireEvent struct {
	Sequence       uint64              `json:"sequence"`
	Kind           domain.EventKind    `json:"kind"`
	Timestamp      int64               `json:"timestamp"`
	Order          *domain.OrderSnapshot `json:"order,omitempty"`
	Trade          *domain.Trade       `json:"trade,omitempty"`
	Depth          *domain.DepthPayload `json:"depth,omitempty"`
	Trigger        *domain.TriggerPayload `json:"trigger,omitempty"`
	RejectedReason string              `json:"rejected_reason,omitempty"`
}

// Encode serializes an Event to JSON: sequence, kind, timestamp and the
// kind-specific payload. The instrument id is not included; the Record
// frame carries it.
func Encode(ev *domain.Event) ([]byte, error) {
	return json.Marshal(wireEvent{
		Sequence:       ev.Sequence,
		Kind:           ev.Kind,
		Timestamp:      ev.Timestamp.UnixNano(),
		Order:          ev.Order,
		Trade:          ev.Trade,
		Depth:          ev.Depth,
		Trigger:        ev.Trigger,
		RejectedReason: ev.RejectedReason,
	})
}

// Decode reconstructs an Event from a journal Record, restoring the
// instrument id from the frame header and the sequence, kind and
// timestamp from the JSON payload.
func Decode(rec *Record) (*domain.Event, error) {
	var w wireEvent
	if err := json.Unmarshal(rec.Payload, &w); err != nil {
		return nil, err
	}
	return &domain.Event{
		InstrumentID:   id.InstrumentID(rec.InstrumentID),
		Sequence:       w.Sequence,
		Kind:           w.Kind,
		Timestamp:      timeFromUnixNano(w.Timestamp),
		Order:          w.Order,
		Trade:          w.Trade,
		Depth:          w.Depth,
		Trigger:        w.Trigger,
		RejectedReason: w.RejectedReason,
	}, nil
}
