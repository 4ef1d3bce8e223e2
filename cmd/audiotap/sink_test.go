package main

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"go.aimuz.me/audiotap/bridge"
)

func tempFile(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWavSinkHeader(t *testing.T) {
	f := tempFile(t)
	meta := bridge.Metadata{
		SampleRate:       48000,
		ChannelsPerFrame: 2,
		BitsPerChannel:   32,
		IsFloat:          true,
		Encoding:         "pcm_f32le",
	}

	s, err := newWavSink(f, meta)
	if err != nil {
		t.Fatalf("newWavSink: %v", err)
	}
	data := make([]byte, 256)
	if err := s.write(data); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	raw, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != wavHeaderSize+len(data) {
		t.Fatalf("file size = %d, want %d", len(raw), wavHeaderSize+len(data))
	}

	if got := string(raw[0:4]); got != "RIFF" {
		t.Errorf("chunk id = %q", got)
	}
	if got := string(raw[8:12]); got != "WAVE" {
		t.Errorf("format = %q", got)
	}
	if got := binary.LittleEndian.Uint32(raw[4:8]); got != 36+256 {
		t.Errorf("riff size = %d, want %d", got, 36+256)
	}
	if got := binary.LittleEndian.Uint16(raw[20:22]); got != 3 {
		t.Errorf("audio format = %d, want 3 (IEEE float)", got)
	}
	if got := binary.LittleEndian.Uint16(raw[22:24]); got != 2 {
		t.Errorf("channels = %d, want 2", got)
	}
	if got := binary.LittleEndian.Uint32(raw[24:28]); got != 48000 {
		t.Errorf("sample rate = %d, want 48000", got)
	}
	if got := binary.LittleEndian.Uint32(raw[28:32]); got != 48000*8 {
		t.Errorf("byte rate = %d, want %d", got, 48000*8)
	}
	if got := binary.LittleEndian.Uint32(raw[40:44]); got != 256 {
		t.Errorf("data size = %d, want 256", got)
	}
}

func TestNewSinkRejectsUnknownEncoding(t *testing.T) {
	if _, err := newSink("mp3", tempFile(t), bridge.Metadata{}); err == nil {
		t.Fatal("expected error for unknown encoding")
	}
}

func TestOpusSinkRejectsBadFormats(t *testing.T) {
	tests := []struct {
		name string
		meta bridge.Metadata
	}{
		{"int16 stream", bridge.Metadata{SampleRate: 48000, ChannelsPerFrame: 1, BitsPerChannel: 16, IsFloat: false}},
		{"wrong rate", bridge.Metadata{SampleRate: 44100, ChannelsPerFrame: 1, BitsPerChannel: 32, IsFloat: true}},
		{"too many channels", bridge.Metadata{SampleRate: 48000, ChannelsPerFrame: 6, BitsPerChannel: 32, IsFloat: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := newOpusSink(tempFile(t), tt.meta); err == nil {
				t.Fatal("expected format error")
			}
		})
	}
}
