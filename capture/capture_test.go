package capture

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.aimuz.me/audiotap/bridge"
)

// fakeImpl stands in for the native capture layer.
type fakeImpl struct {
	queue *bridge.Queue

	startCode int32
	stopCode  int32

	running   bool
	destroyed bool

	lastSystem *SystemAudioOptions
	lastMic    *MicrophoneOptions
}

func (f *fakeImpl) startSystemAudio(opts SystemAudioOptions) int32 {
	f.lastSystem = &opts
	if f.startCode != 0 {
		return f.startCode
	}
	f.running = true
	return 0
}

func (f *fakeImpl) startMicrophone(opts MicrophoneOptions) int32 {
	f.lastMic = &opts
	if f.startCode != 0 {
		return f.startCode
	}
	f.running = true
	return 0
}

func (f *fakeImpl) stop() int32 {
	f.running = false
	return f.stopCode
}

func (f *fakeImpl) destroy() {
	f.destroyed = true
}

func (f *fakeImpl) isRunning() bool {
	return f.running
}

func newTestSession(impl *fakeImpl) *Session {
	queue := bridge.NewQueue()
	impl.queue = queue
	return &Session{id: uuid.NewString(), queue: queue, impl: impl}
}

func TestNewUnsupportedPlatform(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("platform has a capture backend")
	}

	if _, err := New(); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestStartErrorLeavesSessionStopped(t *testing.T) {
	impl := &fakeImpl{startCode: -42}
	s := newTestSession(impl)

	err := s.StartSystemAudio(SystemAudioOptions{SampleRate: 44100})

	var startErr *StartError
	if !errors.As(err, &startErr) {
		t.Fatalf("expected *StartError, got %v", err)
	}
	if startErr.Code != -42 {
		t.Fatalf("expected code -42, got %d", startErr.Code)
	}
	if s.IsRunning() {
		t.Fatal("session must not be running after failed start")
	}

	// The caller may adjust options and retry.
	impl.startCode = 0
	if err := s.StartSystemAudio(SystemAudioOptions{SampleRate: 48000}); err != nil {
		t.Fatalf("retry after failed start: %v", err)
	}
	if !s.IsRunning() {
		t.Fatal("expected session running after successful retry")
	}
}

func TestDoubleStart(t *testing.T) {
	s := newTestSession(&fakeImpl{})

	if err := s.StartMicrophone(MicrophoneOptions{}); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if err := s.StartMicrophone(MicrophoneOptions{}); !errors.Is(err, ErrRunning) {
		t.Fatalf("expected ErrRunning, got %v", err)
	}
}

func TestOptionDefaults(t *testing.T) {
	impl := &fakeImpl{}
	s := newTestSession(impl)

	if err := s.StartMicrophone(MicrophoneOptions{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if impl.lastMic.ChunkDuration != DefaultChunkDuration {
		t.Fatalf("expected default chunk duration, got %v", impl.lastMic.ChunkDuration)
	}
	if impl.lastMic.Gain != 1.0 {
		t.Fatalf("expected default gain 1.0, got %v", impl.lastMic.Gain)
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if err := s.StartSystemAudio(SystemAudioOptions{ChunkDuration: 50 * time.Millisecond}); err != nil {
		t.Fatalf("start system audio: %v", err)
	}
	if impl.lastSystem.ChunkDuration != 50*time.Millisecond {
		t.Fatalf("explicit chunk duration overridden: %v", impl.lastSystem.ChunkDuration)
	}
}

func TestStopIsAdvisory(t *testing.T) {
	impl := &fakeImpl{stopCode: 7}
	s := newTestSession(impl)

	if err := s.StartSystemAudio(SystemAudioOptions{}); err != nil {
		t.Fatalf("start: %v", err)
	}

	err := s.Stop()
	var stopErr *StopError
	if !errors.As(err, &stopErr) {
		t.Fatalf("expected *StopError, got %v", err)
	}
	if stopErr.Code != 7 {
		t.Fatalf("expected code 7, got %d", stopErr.Code)
	}

	// The session still transitioned to stopped: stop again is a no-op
	// and destroy stays reachable.
	if err := s.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}
	s.Destroy()
	if !impl.destroyed {
		t.Fatal("expected native session destroyed")
	}
}

func TestStopWhenNotRunning(t *testing.T) {
	s := newTestSession(&fakeImpl{})
	if err := s.Stop(); err != nil {
		t.Fatalf("stop on created session: %v", err)
	}
}

func TestDrainDeliversEventsInOrder(t *testing.T) {
	impl := &fakeImpl{}
	s := newTestSession(impl)

	impl.queue.Enqueue(bridge.Metadata{SampleRate: 44100, ChannelsPerFrame: 2, BitsPerChannel: 32, IsFloat: true, Encoding: "pcm_f32"})
	impl.queue.Enqueue(bridge.Data{Bytes: []byte{0, 1, 2, 3}})
	impl.queue.Enqueue(bridge.Stopped{})

	events := s.Drain()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if _, ok := events[0].(bridge.Metadata); !ok {
		t.Fatalf("event 0: expected Metadata, got %T", events[0])
	}
	if data, ok := events[1].(bridge.Data); !ok || len(data.Bytes) != 4 {
		t.Fatalf("event 1: expected 4-byte Data, got %T %v", events[1], events[1])
	}
	if _, ok := events[2].(bridge.Stopped); !ok {
		t.Fatalf("event 2: expected Stopped, got %T", events[2])
	}
}

func TestDestroy(t *testing.T) {
	impl := &fakeImpl{}
	s := newTestSession(impl)

	if err := s.StartSystemAudio(SystemAudioOptions{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	impl.queue.Enqueue(bridge.Data{Bytes: []byte{1}})

	s.Destroy()

	if !impl.destroyed {
		t.Fatal("expected native session destroyed")
	}
	if impl.running {
		t.Fatal("expected stream stopped before destroy")
	}
	if s.IsRunning() {
		t.Fatal("destroyed session must not report running")
	}

	// Events queued before destroy are gone; late callbacks are
	// discarded; drain is empty forever.
	impl.queue.Enqueue(bridge.Data{Bytes: []byte{2}})
	if got := s.Drain(); len(got) != 0 {
		t.Fatalf("expected empty drain after destroy, got %d events", len(got))
	}

	// Destroy is idempotent and start is rejected.
	s.Destroy()
	if err := s.StartMicrophone(MicrophoneOptions{}); !errors.Is(err, ErrDestroyed) {
		t.Fatalf("expected ErrDestroyed, got %v", err)
	}
}
