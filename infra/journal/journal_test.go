package journal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"matchengine/decimal"
	"matchengine/domain"
	"matchengine/id"
)

func TestAppendAndReplayRoundTrips(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(Config{Dir: dir, SegmentSize: 1 << 20})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	instrument := id.NewInstrumentID()
	trade := &domain.Trade{
		ID:           id.NewTradeID(),
		InstrumentID: instrument,
		BaseAmount:   decimal.MustFromString("1.5"),
		QuoteAmount:  decimal.MustFromString("150.00"),
		Price:        decimal.MustFromString("100.00"),
		CreatedAt:    time.Now().UTC(),
	}
	ev := &domain.Event{
		InstrumentID: instrument,
		Sequence:     1,
		Kind:         domain.EventTradeExecuted,
		Timestamp:    time.Now().UTC(),
		Trade:        trade,
	}
	if err := j.Append(ev); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var replayed []*domain.Event
	lastSeq, err := Replay(dir, func(e *domain.Event) error {
		replayed = append(replayed, e)
		return nil
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if lastSeq != 1 {
		t.Fatalf("expected lastSeq 1, got %d", lastSeq)
	}
	if len(replayed) != 1 {
		t.Fatalf("expected 1 replayed event, got %d", len(replayed))
	}
	got := replayed[0]
	if got.InstrumentID != instrument {
		t.Fatalf("instrument id did not round-trip")
	}
	if got.Kind != domain.EventTradeExecuted {
		t.Fatalf("kind did not round-trip")
	}
	if !decimal.Equal(got.Trade.Price, decimal.MustFromString("100.00")) {
		t.Fatalf("trade price did not round-trip: %v", got.Trade.Price)
	}
}

func TestReplayDetectsCorruption(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(Config{Dir: dir, SegmentSize: 1 << 20})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ev := &domain.Event{InstrumentID: id.NewInstrumentID(), Sequence: 1, Kind: domain.EventOrderAccepted, Timestamp: time.Now().UTC()}
	if err := j.Append(ev); err != nil {
		t.Fatalf("append: %v", err)
	}
	j.Close()

	// Flip a byte inside the payload region to corrupt the CRC.
	path := filepath.Join(dir, "segment-000000.journal")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	data[headerLen] ^= 0xFF
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err = Replay(dir, func(*domain.Event) error { return nil })
	if err == nil {
		t.Fatalf("expected CRC mismatch error")
	}
}
