//go:build darwin

package capture

/*
#cgo CFLAGS: -x objective-c -fobjc-arc -mmacosx-version-min=13.0
#cgo LDFLAGS: -framework CoreAudio -framework AudioToolbox -framework ScreenCaptureKit -framework AVFoundation -framework Foundation

#include <stdbool.h>
#include <stdint.h>
#include <stdlib.h>

// Declarations of the native capture bridge implemented in capture_darwin.m.
// The native side holds the Go context handle and feeds it back through the
// exported goCapture* callbacks below.
typedef void* AudioSessionHandle;

extern AudioSessionHandle coreaudio_create(uintptr_t context);
extern int32_t coreaudio_start_system_audio(AudioSessionHandle handle,
    double sampleRate, double chunkDurationMs, bool mute, bool isMono,
    const int32_t* includePids, int32_t includeCount,
    const int32_t* excludePids, int32_t excludeCount);
extern int32_t coreaudio_start_microphone(AudioSessionHandle handle,
    double sampleRate, double chunkDurationMs, bool isMono,
    const char* deviceUID, double gain);
extern int32_t coreaudio_stop(AudioSessionHandle handle);
extern void coreaudio_destroy(AudioSessionHandle handle);
extern bool coreaudio_is_running(AudioSessionHandle handle);
*/
import "C"

import (
	"errors"
	"runtime/cgo"
	"unsafe"

	"go.aimuz.me/audiotap/bridge"
)

// Lifecycle codes used by the native event callback.
const (
	nativeEventStarted = 0
	nativeEventStopped = 1
	nativeEventError   = 2
)

//export goCaptureData
func goCaptureData(context C.uintptr_t, data *C.uint8_t, length C.int32_t) {
	queue, ok := queueFromContext(context)
	if !ok || queue.Destroyed() {
		return
	}

	// Copy out before returning: the native buffer is reused by the
	// audio thread as soon as this callback completes.
	queue.Enqueue(bridge.Data{Bytes: C.GoBytes(unsafe.Pointer(data), length)})
}

//export goCaptureEvent
func goCaptureEvent(context C.uintptr_t, eventType C.int32_t, message *C.char) {
	queue, ok := queueFromContext(context)
	if !ok || queue.Destroyed() {
		return
	}

	switch int32(eventType) {
	case nativeEventStarted:
		queue.Enqueue(bridge.Started{})
	case nativeEventStopped:
		queue.Enqueue(bridge.Stopped{})
	case nativeEventError:
		var msg string
		if message != nil {
			msg = C.GoString(message)
		}
		queue.Enqueue(bridge.Error{Message: msg})
	}
}

//export goCaptureMetadata
func goCaptureMetadata(context C.uintptr_t, sampleRate C.double,
	channelsPerFrame C.uint32_t, bitsPerChannel C.uint32_t,
	isFloat C.bool, encoding *C.char) {
	queue, ok := queueFromContext(context)
	if !ok || queue.Destroyed() {
		return
	}

	var enc string
	if encoding != nil {
		enc = C.GoString(encoding)
	}
	queue.Enqueue(bridge.Metadata{
		SampleRate:       float64(sampleRate),
		ChannelsPerFrame: uint32(channelsPerFrame),
		BitsPerChannel:   uint32(bitsPerChannel),
		IsFloat:          bool(isFloat),
		Encoding:         enc,
	})
}

func queueFromContext(context C.uintptr_t) (*bridge.Queue, bool) {
	queue, ok := cgo.Handle(context).Value().(*bridge.Queue)
	return queue, ok
}

// darwinSession drives the CoreAudio/ScreenCaptureKit bridge. The queue is
// threaded to the native side as a cgo handle rather than a raw pointer so
// callbacks can never outlive it unchecked.
type darwinSession struct {
	handle  C.AudioSessionHandle
	context cgo.Handle
}

func newSessionImpl(queue *bridge.Queue) (sessionImpl, error) {
	context := cgo.NewHandle(queue)
	handle := C.coreaudio_create(C.uintptr_t(context))
	if handle == nil {
		context.Delete()
		return nil, errors.New("native session allocation failed")
	}
	return &darwinSession{handle: handle, context: context}, nil
}

func (s *darwinSession) startSystemAudio(opts SystemAudioOptions) int32 {
	var includePtr, excludePtr *C.int32_t
	if len(opts.IncludeProcesses) > 0 {
		includePtr = (*C.int32_t)(unsafe.Pointer(&opts.IncludeProcesses[0]))
	}
	if len(opts.ExcludeProcesses) > 0 {
		excludePtr = (*C.int32_t)(unsafe.Pointer(&opts.ExcludeProcesses[0]))
	}

	return int32(C.coreaudio_start_system_audio(
		s.handle,
		C.double(opts.SampleRate),
		C.double(opts.ChunkDuration.Seconds()*1000),
		C.bool(opts.Mute),
		C.bool(!opts.Stereo),
		includePtr, C.int32_t(len(opts.IncludeProcesses)),
		excludePtr, C.int32_t(len(opts.ExcludeProcesses)),
	))
}

func (s *darwinSession) startMicrophone(opts MicrophoneOptions) int32 {
	var deviceUID *C.char
	if opts.DeviceID != "" {
		deviceUID = C.CString(opts.DeviceID)
		defer C.free(unsafe.Pointer(deviceUID))
	}

	return int32(C.coreaudio_start_microphone(
		s.handle,
		C.double(opts.SampleRate),
		C.double(opts.ChunkDuration.Seconds()*1000),
		C.bool(!opts.Stereo),
		deviceUID,
		C.double(opts.Gain),
	))
}

func (s *darwinSession) stop() int32 {
	return int32(C.coreaudio_stop(s.handle))
}

func (s *darwinSession) destroy() {
	// coreaudio_destroy synchronizes with in-flight callbacks before
	// returning, so the handle is safe to delete afterwards.
	C.coreaudio_destroy(s.handle)
	s.handle = nil
	s.context.Delete()
}

func (s *darwinSession) isRunning() bool {
	if s.handle == nil {
		return false
	}
	return bool(C.coreaudio_is_running(s.handle))
}
