package journal

import (
	"testing"

	"matchengine/id"
)

func TestOutboxPutAndScanByState(t *testing.T) {
	dir := t.TempDir()
	ob, err := OpenOutbox(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer ob.Close()

	instrument := id.NewInstrumentID()
	if err := ob.PutPending(instrument, 1, []byte("payload-1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := ob.PutPending(instrument, 2, []byte("payload-2")); err != nil {
		t.Fatalf("put: %v", err)
	}

	var seen []uint64
	err = ob.ScanByState(StateNew, func(_ id.InstrumentID, seq uint64, rec DeliveryRecord) error {
		seen = append(seen, seq)
		if rec.State != StateNew {
			t.Fatalf("expected StateNew, got %v", rec.State)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 pending entries, got %d", len(seen))
	}
}

func TestOutboxMarkStateTransitions(t *testing.T) {
	dir := t.TempDir()
	ob, err := OpenOutbox(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer ob.Close()

	instrument := id.NewInstrumentID()
	if err := ob.PutPending(instrument, 1, []byte("payload")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := ob.MarkState(instrument, 1, StateSent); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	rec, err := ob.Get(instrument, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.State != StateSent {
		t.Fatalf("expected StateSent, got %v", rec.State)
	}
	if rec.Retries != 1 {
		t.Fatalf("expected retries=1, got %d", rec.Retries)
	}

	if err := ob.MarkState(instrument, 1, StateAcked); err != nil {
		t.Fatalf("mark acked: %v", err)
	}
	rec, err = ob.Get(instrument, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.State != StateAcked {
		t.Fatalf("expected StateAcked, got %v", rec.State)
	}
	if string(rec.Payload) != "payload" {
		t.Fatalf("payload did not survive transitions: %q", rec.Payload)
	}
}

func TestOutboxDelete(t *testing.T) {
	dir := t.TempDir()
	ob, err := OpenOutbox(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer ob.Close()

	instrument := id.NewInstrumentID()
	if err := ob.PutPending(instrument, 1, []byte("payload")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := ob.Delete(instrument, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := ob.Get(instrument, 1); err == nil {
		t.Fatalf("expected error reading deleted entry")
	}
}
