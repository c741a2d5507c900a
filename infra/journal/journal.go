// Package journal durably records every published Event as a
// segment-rotated, CRC-checked append-only log, adapted from the
// teacher's entry WAL (§6 suggested journal representation: sequence,
// instrument id, kind, timestamp, payload). A Journal is an Event Bus
// subscriber, not part of the matching core — the book never reads from
// it during normal operation, only during a cold-start replay.
package journal

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"matchengine/domain"
)

var errCRCMismatch = errors.New("journal: crc mismatch")

// Config parameterizes an on-disk Journal.
type Config struct {
	Dir             string
	SegmentSize     int64
	SegmentDuration time.Duration
}

// Journal appends serialized events to segment files, rotating once the
// current segment crosses SegmentSize.
type Journal struct {
	dir        string
	segSize    int64
	current    *segment
	segIndex   int
	lastRotate time.Time
}

// Open creates dir if needed and opens (or creates) its first segment.
func Open(cfg Config) (*Journal, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	seg, err := openSegment(cfg.Dir, 0)
	if err != nil {
		return nil, err
	}
	return &Journal{
		dir:        cfg.Dir,
		segSize:    cfg.SegmentSize,
		current:    seg,
		lastRotate: time.Now(),
	}, nil
}

// Append serializes ev and writes it to the current segment, rotating if
// that pushes the segment past its configured size.
func (j *Journal) Append(ev *domain.Event) error {
	payload, err := Encode(ev)
	if err != nil {
		return err
	}
	rec := newRecord(uint8(ev.Kind), ev.Sequence, [16]byte(ev.InstrumentID), payload)
	if err := j.writeRecord(rec); err != nil {
		return err
	}
	if j.current.offset >= j.segSize {
		return j.rotate()
	}
	return nil
}

// frame layout: [kind:1][seq:8][time:8][instrument:16][len:4][payload][crc:4]
const headerLen = 1 + 8 + 8 + 16 + 4

func (j *Journal) writeRecord(r *Record) error {
	payloadLen := uint32(len(r.Payload))
	buf := make([]byte, headerLen+int(payloadLen)+4)

	buf[0] = r.Kind
	binary.BigEndian.PutUint64(buf[1:9], r.Seq)
	binary.BigEndian.PutUint64(buf[9:17], uint64(r.Time))
	copy(buf[17:33], r.InstrumentID[:])
	binary.BigEndian.PutUint32(buf[33:37], payloadLen)
	copy(buf[37:], r.Payload)

	crc := crc32Sum(buf[:headerLen+int(payloadLen)])
	binary.BigEndian.PutUint32(buf[headerLen+int(payloadLen):], crc)

	return j.current.append(buf)
}

func (j *Journal) rotate() error {
	_ = j.current.close()
	j.segIndex++
	seg, err := openSegment(j.dir, j.segIndex)
	if err != nil {
		return err
	}
	j.current = seg
	j.lastRotate = time.Now()
	return nil
}

// Close closes the current segment file.
func (j *Journal) Close() error {
	return j.current.close()
}

// ReplayHandler is invoked once per record found during Replay, already
// decoded back into an Event.
type ReplayHandler func(*domain.Event) error

// Replay reads every segment in dir in file order, decoding and
// validating each record's CRC, and returns the highest sequence number
// seen — the value a Sequencer should be Reset to before the engine
// resumes accepting new commands.
func Replay(dir string, fn ReplayHandler) (lastSeq uint64, err error) {
	files, err := filepath.Glob(filepath.Join(dir, "segment-*.journal"))
	if err != nil {
		return 0, err
	}
	for _, path := range files {
		f, ferr := os.Open(path)
		if ferr != nil {
			return lastSeq, ferr
		}
		for {
			rec, rerr := readRecord(f)
			if rerr != nil {
				if rerr == io.EOF {
					break
				}
				_ = f.Close()
				return lastSeq, rerr
			}
			if rec.Seq > lastSeq {
				lastSeq = rec.Seq
			}
			ev, derr := Decode(rec)
			if derr != nil {
				_ = f.Close()
				return lastSeq, derr
			}
			if herr := fn(ev); herr != nil {
				_ = f.Close()
				return lastSeq, herr
			}
		}
		_ = f.Close()
	}
	return lastSeq, nil
}

func readRecord(r io.Reader) (*Record, error) {
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	kind := header[0]
	seq := binary.BigEndian.Uint64(header[1:9])
	ts := binary.BigEndian.Uint64(header[9:17])
	var instrumentID [16]byte
	copy(instrumentID[:], header[17:33])
	l := binary.BigEndian.Uint32(header[33:37])

	rest := make([]byte, l+4)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, err
	}
	payload := rest[:l]
	crc := binary.BigEndian.Uint32(rest[l:])

	if !crc32Valid(append(header, payload...), crc) {
		return nil, errCRCMismatch
	}
	return &Record{Kind: kind, Seq: seq, Time: int64(ts), InstrumentID: instrumentID, Payload: payload}, nil
}
