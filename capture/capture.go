// Package capture binds one native audio-capture stream to an event queue
// the caller drains at its own pace.
//
// A Session owns exactly one OS capture stream (a system-audio tap or a
// microphone) and the bridge queue its callbacks write into. The native
// layer delivers chunks on its own threads; the caller polls Drain from a
// single goroutine and receives the accumulated events in order. On macOS
// the stream is a CoreAudio/ScreenCaptureKit process tap; on Windows it is
// a WASAPI loopback or capture device driven through miniaudio.
package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.aimuz.me/audiotap/bridge"
)

// ErrRunning is returned when trying to start a session that is already
// capturing.
var ErrRunning = errors.New("capture session already running")

// ErrDestroyed is returned when operating on a destroyed session.
var ErrDestroyed = errors.New("capture session destroyed")

// ErrUnsupported is returned on platforms without a capture backend.
var ErrUnsupported = errors.New("audio capture not supported on this platform")

// StartError reports a nonzero status code from the native capture layer.
// The code is platform-specific and surfaced verbatim; the session is not
// running and start may be retried with adjusted options.
type StartError struct {
	Code int32
}

func (e *StartError) Error() string {
	return fmt.Sprintf("start capture: native error code %d", e.Code)
}

// StopError reports a nonzero status code from the native stop call. It is
// advisory: the session has already transitioned to stopped when it is
// returned.
type StopError struct {
	Code int32
}

func (e *StopError) Error() string {
	return fmt.Sprintf("stop capture: native error code %d", e.Code)
}

// DefaultChunkDuration is used when options leave ChunkDuration zero.
const DefaultChunkDuration = 200 * time.Millisecond

// SystemAudioOptions configures a system-audio tap.
type SystemAudioOptions struct {
	// SampleRate in Hz; 0 selects the device's native rate.
	SampleRate float64

	// ChunkDuration is the target duration of each Data event.
	// Defaults to DefaultChunkDuration.
	ChunkDuration time.Duration

	// Mute silences local playback while tapping. macOS only; ignored
	// elsewhere.
	Mute bool

	// Stereo captures two channels. The default is mono.
	Stereo bool

	// IncludeProcesses restricts the tap to audio rendered by these
	// pids. Empty means all processes.
	IncludeProcesses []int32

	// ExcludeProcesses removes these pids from the tap.
	ExcludeProcesses []int32

	// EmitSilence keeps zeroed chunks flowing when nothing is rendering
	// audio. Windows only: WASAPI loopback goes quiet between renders,
	// which stalls consumers that pace themselves on chunk arrival.
	EmitSilence bool
}

// MicrophoneOptions configures a microphone capture.
type MicrophoneOptions struct {
	// SampleRate in Hz; 0 selects the device's native rate.
	SampleRate float64

	// ChunkDuration is the target duration of each Data event.
	// Defaults to DefaultChunkDuration.
	ChunkDuration time.Duration

	// Stereo captures two channels. The default is mono.
	Stereo bool

	// DeviceID selects the input device; empty means the default input.
	DeviceID string

	// Gain scales the captured samples, 0.0 to 1.0. 0 means 1.0.
	Gain float64
}

// sessionImpl is the platform-specific collaborator. Its start and stop
// calls return native status codes: 0 is success, anything else is passed
// through to the caller unchanged.
type sessionImpl interface {
	startSystemAudio(opts SystemAudioOptions) int32
	startMicrophone(opts MicrophoneOptions) int32
	stop() int32
	destroy()
	isRunning() bool
}

type state int

const (
	stateCreated state = iota
	stateRunning
	stateStopped
	stateDestroyed
)

// Session wraps one native capture stream and the queue its callbacks
// feed. Start, Stop and Destroy are meant to be called from the same
// goroutine that drains; Drain itself is safe in any state and after
// Destroy returns nothing forever.
type Session struct {
	id    string
	queue *bridge.Queue

	mu   sync.Mutex
	st   state
	impl sessionImpl
}

// New allocates the event queue and asks the platform layer to create a
// native capture session bound to it. On platforms without a backend it
// returns ErrUnsupported.
func New() (*Session, error) {
	queue := bridge.NewQueue()
	impl, err := newSessionImpl(queue)
	if err != nil {
		return nil, fmt.Errorf("create capture session: %w", err)
	}

	s := &Session{
		id:    uuid.NewString(),
		queue: queue,
		impl:  impl,
	}
	slog.Debug("capture session created", "session", s.id)
	return s, nil
}

// ID returns the session's identifier, used for log correlation.
func (s *Session) ID() string {
	return s.id
}

// StartSystemAudio begins tapping system audio. On a nonzero native status
// the session stays stopped and the call may be retried.
func (s *Session) StartSystemAudio(opts SystemAudioOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.startable(); err != nil {
		return err
	}
	if opts.ChunkDuration <= 0 {
		opts.ChunkDuration = DefaultChunkDuration
	}

	if code := s.impl.startSystemAudio(opts); code != 0 {
		return &StartError{Code: code}
	}

	s.st = stateRunning
	slog.Info("system audio capture started",
		"session", s.id,
		"sampleRate", opts.SampleRate,
		"chunk", opts.ChunkDuration,
		"stereo", opts.Stereo)
	return nil
}

// StartMicrophone begins capturing from a microphone. On a nonzero native
// status the session stays stopped and the call may be retried.
func (s *Session) StartMicrophone(opts MicrophoneOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.startable(); err != nil {
		return err
	}
	if opts.ChunkDuration <= 0 {
		opts.ChunkDuration = DefaultChunkDuration
	}
	if opts.Gain == 0 {
		opts.Gain = 1.0
	}

	if code := s.impl.startMicrophone(opts); code != 0 {
		return &StartError{Code: code}
	}

	s.st = stateRunning
	slog.Info("microphone capture started",
		"session", s.id,
		"sampleRate", opts.SampleRate,
		"chunk", opts.ChunkDuration,
		"device", opts.DeviceID)
	return nil
}

func (s *Session) startable() error {
	switch s.st {
	case stateDestroyed:
		return ErrDestroyed
	case stateRunning:
		return ErrRunning
	default:
		return nil
	}
}

// Stop halts the stream. The session transitions to stopped regardless of
// the native outcome; a nonzero status is returned as an advisory
// *StopError so Destroy always remains reachable.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st != stateRunning {
		return nil
	}

	code := s.impl.stop()
	s.st = stateStopped
	if code != 0 {
		slog.Warn("native stop reported failure", "session", s.id, "code", code)
		return &StopError{Code: code}
	}
	slog.Info("capture stopped", "session", s.id)
	return nil
}

// IsRunning queries the native layer. A destroyed session reports false.
func (s *Session) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st == stateDestroyed {
		return false
	}
	return s.impl.isRunning()
}

// Drain atomically removes and returns all queued events in FIFO order.
// Valid in every state; after Destroy it returns nothing forever.
func (s *Session) Drain() []bridge.Event {
	return s.queue.DrainAll()
}

// Destroy stops the stream if needed and releases the native session. The
// queue is marked destroyed *before* the native release so a callback
// still in flight observes the flag and discards its event instead of
// writing into a queue about to go away. Destroy is idempotent.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st == stateDestroyed {
		return
	}
	if s.st == stateRunning {
		s.impl.stop()
	}

	s.queue.Destroy()
	s.impl.destroy()
	s.st = stateDestroyed
	slog.Debug("capture session destroyed", "session", s.id)
}
