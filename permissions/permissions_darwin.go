//go:build darwin

package permissions

/*
#cgo CFLAGS: -x objective-c -fobjc-arc -mmacosx-version-min=13.0
#cgo LDFLAGS: -framework AVFoundation -framework AppKit -framework Foundation

#include <stdbool.h>
#include <stdint.h>

// Declarations of the native authorization bridge implemented in
// permissions_darwin.m. System audio goes through the TCC framework,
// microphone through the public AVFoundation API. Request completion is
// delivered back through the exported goPermissionResult callback.
extern int32_t coreaudio_system_audio_permission_status(void);
extern bool coreaudio_system_audio_permission_available(void);
extern void coreaudio_system_audio_permission_request(uintptr_t context);
extern int32_t coreaudio_mic_permission_status(void);
extern void coreaudio_mic_permission_request(uintptr_t context);
extern bool coreaudio_open_system_settings(void);
*/
import "C"

import "runtime/cgo"

//export goPermissionResult
func goPermissionResult(context C.uintptr_t, granted C.bool) {
	handle := cgo.Handle(context)
	req, ok := handle.Value().(*requestState)
	handle.Delete()
	if ok {
		req.deliver(bool(granted))
	}
}

func statusImpl(c Capability) State {
	switch c {
	case SystemAudio:
		return stateFromCode(int32(C.coreaudio_system_audio_permission_status()))
	case Microphone:
		return stateFromCode(int32(C.coreaudio_mic_permission_status()))
	default:
		return Unknown
	}
}

func availableImpl(c Capability) bool {
	switch c {
	case SystemAudio:
		// The TCC system-audio service only exists on macOS 14.4+.
		return bool(C.coreaudio_system_audio_permission_available())
	case Microphone:
		return true
	default:
		return false
	}
}

func requestImpl(c Capability, fn func(granted bool)) {
	// The handle is created once here and deleted once inside the
	// callback; requestState guards against a misbehaving native side
	// invoking it twice.
	context := C.uintptr_t(cgo.NewHandle(&requestState{fn: fn}))

	switch c {
	case SystemAudio:
		C.coreaudio_system_audio_permission_request(context)
	case Microphone:
		C.coreaudio_mic_permission_request(context)
	default:
		goPermissionResult(context, C.bool(false))
	}
}

func openSystemSettingsImpl() bool {
	return bool(C.coreaudio_open_system_settings())
}
