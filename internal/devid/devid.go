// Package devid round-trips opaque backend device identifiers through
// printable strings. miniaudio device IDs are fixed-size binary unions, so
// the host-visible ID is the hex of the meaningful prefix.
package devid

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrTooLong is returned when a decoded ID does not fit the destination.
var ErrTooLong = errors.New("device id too long")

// Encode returns the hex form of raw with trailing zero padding stripped.
func Encode(raw []byte) string {
	end := len(raw)
	for end > 0 && raw[end-1] == 0 {
		end--
	}
	return hex.EncodeToString(raw[:end])
}

// Decode writes the binary form of id into dst, zero-filling the rest.
func Decode(id string, dst []byte) error {
	raw, err := hex.DecodeString(id)
	if err != nil {
		return fmt.Errorf("decode device id: %w", err)
	}
	if len(raw) > len(dst) {
		return ErrTooLong
	}
	copy(dst, raw)
	for i := len(raw); i < len(dst); i++ {
		dst[i] = 0
	}
	return nil
}
