// Package permissions wraps the platform authorization checks for audio
// capture.
//
// Status queries are synchronous and side-effect free. Request triggers
// the OS prompt (or a silent check where no prompt exists) and reports the
// outcome exactly once through the supplied callback, on an OS-chosen
// goroutine. Platforms without an authorization mechanism report it as
// unavailable rather than as an error.
package permissions

import "sync"

// Capability identifies an audio capability subject to authorization.
type Capability int

const (
	// SystemAudio is the right to tap audio rendered by other processes.
	SystemAudio Capability = iota
	// Microphone is the right to capture from input devices.
	Microphone
)

func (c Capability) String() string {
	switch c {
	case SystemAudio:
		return "system-audio"
	case Microphone:
		return "microphone"
	default:
		return "unknown"
	}
}

// State is the authorization state of a capability.
type State int

const (
	Unknown State = iota
	Denied
	Authorized
)

func (s State) String() string {
	switch s {
	case Denied:
		return "denied"
	case Authorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// stateFromCode maps the native status integers (0=unknown, 1=denied,
// 2=authorized) onto State, defaulting to Unknown.
func stateFromCode(code int32) State {
	switch code {
	case 1:
		return Denied
	case 2:
		return Authorized
	default:
		return Unknown
	}
}

// Status returns the current authorization state of c without prompting.
func Status(c Capability) State {
	return statusImpl(c)
}

// Available reports whether an authorization mechanism for c exists on
// this platform at all, independent of whether it has been granted.
func Available(c Capability) bool {
	return availableImpl(c)
}

// Request asks the OS to authorize c and invokes fn exactly once with the
// outcome. The call returns immediately; fn runs later on an OS-chosen
// goroutine. Concurrent requests are independent: each gets its own single
// callback.
func Request(c Capability, fn func(granted bool)) {
	requestImpl(c, fn)
}

// OpenSystemSettings opens the OS settings pane for capture permissions.
// The return value reports whether the action was initiated, not whether
// the user changed anything.
func OpenSystemSettings() bool {
	return openSystemSettingsImpl()
}

// requestState delivers one Request outcome at most once, no matter how
// the platform layer behaves. It replaces the fire-and-forget heap context
// the native side would otherwise need.
type requestState struct {
	once sync.Once
	fn   func(granted bool)
}

func (r *requestState) deliver(granted bool) {
	r.once.Do(func() {
		r.fn(granted)
	})
}
