package journal

import "time"

// Record is the on-disk framing unit: one published domain.Event,
// serialized. Framing mirrors the teacher's WAL: [kind:1][seq:8][time:8]
// [instrument:16][len:4][payload][crc:4] (§4.7, §6 suggested journal
// representation).
type Record struct {
	Kind         uint8
	Seq          uint64
	Time         int64
	InstrumentID [16]byte
	Payload      []byte
}

func newRecord(kind uint8, seq uint64, instrumentID [16]byte, payload []byte) *Record {
	return &Record{
		Kind:         kind,
		Seq:          seq,
		Time:         time.Now().UnixNano(),
		InstrumentID: instrumentID,
		Payload:      payload,
	}
}
