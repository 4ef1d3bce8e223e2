//go:build windows

package capture

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"go.aimuz.me/audiotap/bridge"
	"go.aimuz.me/audiotap/internal/devid"
	"go.aimuz.me/audiotap/internal/pcm"
)

// Status codes reported to the wrapper. The macOS bridge surfaces OSStatus
// values verbatim; these fill the same slot for the WASAPI backend.
const (
	statusDeviceFailed      int32 = -3
	statusStartFailed       int32 = -4
	statusBadDevice         int32 = -5
	statusUnsupportedOption int32 = -6
	statusStopFailed        int32 = -7
)

// WASAPI shared-mode streams mix at 48kHz unless told otherwise.
const defaultSampleRate = 48000

// windowsSession drives WASAPI through miniaudio: loopback on the default
// render endpoint for system audio, a capture device for the microphone.
// miniaudio invokes the data callback on its own audio thread; everything
// it touches is either the bridge queue or state guarded by mu.
type windowsSession struct {
	queue *bridge.Queue

	mu          sync.Mutex
	ctx         *malgo.AllocatedContext
	device      *malgo.Device
	running     bool
	stopping    bool
	gain        float32
	chunk       []byte
	chunkTarget int
	lastData    time.Time
	silenceStop chan struct{}
}

func newSessionImpl(queue *bridge.Queue) (sessionImpl, error) {
	ctx, err := malgo.InitContext([]malgo.Backend{malgo.BackendWasapi}, malgo.ContextConfig{}, func(message string) {
		slog.Debug("miniaudio", "message", strings.TrimSpace(message))
	})
	if err != nil {
		return nil, fmt.Errorf("init wasapi context: %w", err)
	}
	return &windowsSession{queue: queue, ctx: ctx}, nil
}

func (s *windowsSession) startSystemAudio(opts SystemAudioOptions) int32 {
	// Loopback here is endpoint-wide; the backend has no per-process tap
	// surface, so pid filters cannot be honored silently.
	if len(opts.IncludeProcesses) > 0 || len(opts.ExcludeProcesses) > 0 {
		return statusUnsupportedOption
	}
	// opts.Mute is ignored: WASAPI loopback observes the mix without
	// owning playback.

	channels := uint32(1)
	if opts.Stereo {
		channels = 2
	}
	rate := uint32(opts.SampleRate)
	if rate == 0 {
		rate = defaultSampleRate
	}

	config := malgo.DefaultDeviceConfig(malgo.Loopback)
	config.Capture.Format = malgo.FormatF32
	config.Capture.Channels = channels
	config.SampleRate = rate

	return s.startDevice(config, rate, channels, opts.ChunkDuration, 1.0, opts.EmitSilence)
}

func (s *windowsSession) startMicrophone(opts MicrophoneOptions) int32 {
	channels := uint32(1)
	if opts.Stereo {
		channels = 2
	}
	rate := uint32(opts.SampleRate)
	if rate == 0 {
		rate = defaultSampleRate
	}

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.Capture.Format = malgo.FormatF32
	config.Capture.Channels = channels
	config.SampleRate = rate

	if opts.DeviceID != "" {
		var id malgo.DeviceID
		if err := devid.Decode(opts.DeviceID, id[:]); err != nil {
			return statusBadDevice
		}
		config.Capture.DeviceID = id.Pointer()
	}

	gain := opts.Gain
	if gain < 0 {
		gain = 0
	} else if gain > 1 {
		gain = 1
	}

	return s.startDevice(config, rate, channels, opts.ChunkDuration, float32(gain), false)
}

func (s *windowsSession) startDevice(config malgo.DeviceConfig, rate, channels uint32, chunkDuration time.Duration, gain float32, emitSilence bool) int32 {
	s.mu.Lock()
	s.gain = gain
	s.chunkTarget = pcm.ChunkBytes(float64(rate), int(channels), pcm.BytesPerSampleF32, chunkDuration)
	s.chunk = make([]byte, 0, s.chunkTarget)
	s.mu.Unlock()

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			s.onData(input)
		},
		Stop: func() {
			s.onDeviceStop()
		},
	}

	device, err := malgo.InitDevice(s.ctx.Context, config, callbacks)
	if err != nil {
		slog.Error("init capture device failed", "error", err)
		return statusDeviceFailed
	}

	// The audio thread can deliver its first buffer the moment Start
	// returns; the stream header must already be queued by then so no
	// Data event can precede Metadata.
	s.publishFormat(rate, channels)

	s.mu.Lock()
	s.device = device
	s.running = true
	s.stopping = false
	s.lastData = time.Now()
	var stop chan struct{}
	if emitSilence {
		stop = make(chan struct{})
		s.silenceStop = stop
	}
	s.mu.Unlock()

	if err := device.Start(); err != nil {
		slog.Error("start capture device failed", "error", err)
		s.mu.Lock()
		s.device = nil
		s.running = false
		if s.silenceStop != nil {
			close(s.silenceStop)
			s.silenceStop = nil
		}
		s.mu.Unlock()
		device.Uninit()
		// Balance the Started already queued; the stream never ran.
		s.queue.Enqueue(bridge.Stopped{})
		return statusStartFailed
	}

	if stop != nil {
		go s.emitSilence(chunkDuration, stop)
	}
	return 0
}

// publishFormat queues the stream header events. It must run before the
// device starts delivering data.
func (s *windowsSession) publishFormat(rate, channels uint32) {
	s.queue.Enqueue(bridge.Metadata{
		SampleRate:       float64(rate),
		ChannelsPerFrame: channels,
		BitsPerChannel:   32,
		IsFloat:          true,
		Encoding:         "pcm_f32le",
	})
	s.queue.Enqueue(bridge.Started{})
}

// onData runs on the miniaudio audio thread. It accumulates callback
// buffers until a full chunk is available, then hands complete chunks to
// the queue. Chunk assembly happens under mu; the enqueue itself is the
// queue's own short critical section.
func (s *windowsSession) onData(input []byte) {
	if s.queue.Destroyed() {
		return
	}

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	gain := s.gain
	s.chunk = append(s.chunk, input...)
	var ready [][]byte
	for len(s.chunk) >= s.chunkTarget {
		chunk := make([]byte, s.chunkTarget)
		copy(chunk, s.chunk)
		s.chunk = s.chunk[:copy(s.chunk, s.chunk[s.chunkTarget:])]
		ready = append(ready, chunk)
	}
	s.lastData = time.Now()
	s.mu.Unlock()

	for _, chunk := range ready {
		pcm.ApplyGainF32(chunk, gain)
		s.queue.Enqueue(bridge.Data{Bytes: chunk})
	}
}

// onDeviceStop fires for every device stop, including ones we requested.
// Only an unexpected stop (device removal, backend failure) is surfaced.
func (s *windowsSession) onDeviceStop() {
	s.mu.Lock()
	unexpected := s.running && !s.stopping
	s.running = false
	s.mu.Unlock()

	if unexpected && !s.queue.Destroyed() {
		s.queue.Enqueue(bridge.Error{Message: "capture device stopped unexpectedly"})
	}
}

// emitSilence keeps chunk cadence alive while the loopback endpoint is
// idle. WASAPI only delivers buffers while something renders.
func (s *windowsSession) emitSilence(chunkDuration time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(chunkDuration)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			idle := s.running && time.Since(s.lastData) >= chunkDuration
			target := s.chunkTarget
			s.mu.Unlock()
			if idle && !s.queue.Destroyed() {
				s.queue.Enqueue(bridge.Data{Bytes: make([]byte, target)})
			}
		}
	}
}

func (s *windowsSession) stop() int32 {
	s.mu.Lock()
	device := s.device
	wasRunning := s.running
	s.device = nil
	// Leave running set until the device halts: onData must keep
	// accumulating the buffers still in flight so they reach the tail
	// flush. stopping tells onDeviceStop the halt is ours.
	s.stopping = true
	if s.silenceStop != nil {
		close(s.silenceStop)
		s.silenceStop = nil
	}
	s.mu.Unlock()

	if device == nil {
		s.mu.Lock()
		s.running = false
		s.stopping = false
		s.mu.Unlock()
		return 0
	}

	var code int32
	if err := device.Stop(); err != nil {
		slog.Warn("device stop failed", "error", err)
		code = statusStopFailed
	}
	device.Uninit()

	s.mu.Lock()
	s.running = false
	s.stopping = false
	gain := s.gain
	tail := s.chunk
	s.chunk = nil
	s.mu.Unlock()

	if wasRunning {
		if len(tail) > 0 {
			pcm.ApplyGainF32(tail, gain)
			s.queue.Enqueue(bridge.Data{Bytes: tail})
		}
		s.queue.Enqueue(bridge.Stopped{})
	}
	return code
}

func (s *windowsSession) destroy() {
	s.stop()

	s.mu.Lock()
	ctx := s.ctx
	s.ctx = nil
	s.mu.Unlock()

	if ctx != nil {
		_ = ctx.Uninit()
		ctx.Free()
	}
}

func (s *windowsSession) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
