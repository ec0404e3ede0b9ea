package kafka

import (
	"testing"
)

func TestEncodeConfluentWireFraming(t *testing.T) {
	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	got := encodeConfluentWire(42, payload)

	if got[0] != 0x00 {
		t.Fatalf("expected magic byte 0x00, got %#x", got[0])
	}
	wantID := []byte{0x00, 0x00, 0x00, 42}
	for i, b := range wantID {
		if got[1+i] != b {
			t.Fatalf("schema id byte %d: got %#x, want %#x", i, got[1+i], b)
		}
	}
	if got[5] != 0x00 {
		t.Fatalf("expected message-index varint(0), got %#x", got[5])
	}
	if string(got[6:]) != string(payload) {
		t.Fatalf("payload mismatch: got %v, want %v", got[6:], payload)
	}
}

func TestEncodeConfluentWireLength(t *testing.T) {
	payload := make([]byte, 10)
	got := encodeConfluentWire(1, payload)
	if len(got) != 6+len(payload) {
		t.Fatalf("expected length %d, got %d", 6+len(payload), len(got))
	}
}
