package devid

import (
	"errors"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"empty", make([]byte, 8)},
		{"short", append([]byte{0xde, 0xad, 0xbe, 0xef}, make([]byte, 12)...)},
		{"full", []byte{1, 2, 3, 4, 5, 6, 7, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := Encode(tt.raw)

			dst := make([]byte, len(tt.raw))
			if err := Decode(id, dst); err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if string(dst) != string(tt.raw) {
				t.Fatalf("round trip mismatch: %v != %v", dst, tt.raw)
			}
		})
	}
}

func TestDecodeTooLong(t *testing.T) {
	if err := Decode("0102030405", make([]byte, 2)); !errors.Is(err, ErrTooLong) {
		t.Fatalf("expected ErrTooLong, got %v", err)
	}
}

func TestDecodeBadHex(t *testing.T) {
	if err := Decode("zz", make([]byte, 4)); err == nil {
		t.Fatal("expected error for invalid hex")
	}
}
