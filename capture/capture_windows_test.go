//go:build windows

package capture

import (
	"testing"

	"go.aimuz.me/audiotap/bridge"
)

func TestStreamHeaderPrecedesFirstChunk(t *testing.T) {
	s := &windowsSession{queue: bridge.NewQueue(), running: true, gain: 1.0, chunkTarget: 8}

	// startDevice publishes the header before the device starts, so even
	// a data callback landing immediately afterwards queues behind it.
	s.publishFormat(48000, 1)
	s.onData(make([]byte, 8))

	events := s.queue.DrainAll()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if _, ok := events[0].(bridge.Metadata); !ok {
		t.Fatalf("event 0 = %T, want Metadata", events[0])
	}
	if _, ok := events[1].(bridge.Started); !ok {
		t.Fatalf("event 1 = %T, want Started", events[1])
	}
	if _, ok := events[2].(bridge.Data); !ok {
		t.Fatalf("event 2 = %T, want Data", events[2])
	}
}

func TestDataDuringStopStillAccumulates(t *testing.T) {
	// Buffers delivered while the device is halting belong to the tail
	// flush, not the floor.
	s := &windowsSession{queue: bridge.NewQueue(), running: true, stopping: true, gain: 1.0, chunkTarget: 1 << 20}
	s.onData(make([]byte, 64))

	s.mu.Lock()
	got := len(s.chunk)
	s.mu.Unlock()
	if got != 64 {
		t.Fatalf("accumulated %d bytes, want 64", got)
	}
}

func TestRequestedStopIsNotAnError(t *testing.T) {
	s := &windowsSession{queue: bridge.NewQueue(), running: true, stopping: true}
	s.onDeviceStop()

	if events := s.queue.DrainAll(); len(events) != 0 {
		t.Fatalf("expected no events for a requested stop, got %v", events)
	}
}

func TestUnexpectedDeviceStopSurfacesError(t *testing.T) {
	s := &windowsSession{queue: bridge.NewQueue(), running: true}
	s.onDeviceStop()

	events := s.queue.DrainAll()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if _, ok := events[0].(bridge.Error); !ok {
		t.Fatalf("event = %T, want Error", events[0])
	}
}
