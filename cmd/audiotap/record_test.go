package main

import (
	"encoding/binary"
	"os"
	"testing"

	"go.aimuz.me/audiotap/bridge"
	"go.aimuz.me/audiotap/config"
)

func TestConsumeFinalizesOutputOnCaptureError(t *testing.T) {
	f := tempFile(t)
	var snk sink

	events := []bridge.Event{
		bridge.Metadata{
			SampleRate:       48000,
			ChannelsPerFrame: 1,
			BitsPerChannel:   32,
			IsFloat:          true,
			Encoding:         "pcm_f32le",
		},
		bridge.Data{Bytes: make([]byte, 256)},
		bridge.Error{Message: "device lost"},
	}

	_, err := consume(events, f, &snk, config.Profile{Encode: "wav"})
	if err == nil {
		t.Fatal("expected capture error to propagate")
	}

	// The sink must have been closed on the way out: the RIFF and data
	// size fields hold the bytes written before the failure, not zero.
	raw, rerr := os.ReadFile(f.Name())
	if rerr != nil {
		t.Fatal(rerr)
	}
	if got := binary.LittleEndian.Uint32(raw[4:8]); got != 36+256 {
		t.Errorf("riff size = %d, want %d", got, 36+256)
	}
	if got := binary.LittleEndian.Uint32(raw[40:44]); got != 256 {
		t.Errorf("data size = %d, want 256", got)
	}
}

func TestConsumeStopsOnStoppedEvent(t *testing.T) {
	f := tempFile(t)
	var snk sink

	events := []bridge.Event{
		bridge.Metadata{SampleRate: 48000, ChannelsPerFrame: 1, BitsPerChannel: 32, IsFloat: true},
		bridge.Data{Bytes: make([]byte, 64)},
		bridge.Stopped{},
	}

	done, err := consume(events, f, &snk, config.Profile{Encode: "wav"})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !done {
		t.Fatal("expected done after Stopped event")
	}
}
