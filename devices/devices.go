// Package devices enumerates the audio devices the capture backends can
// target.
//
// Descriptors are immutable snapshots taken at call time; they carry no
// lifecycle beyond the call that returned them. A machine with no audio
// devices yields an empty list, not an error.
package devices

// Device describes one audio endpoint. A device may be both input- and
// output-capable; IsDefault marks the platform's default endpoint for the
// device's direction.
type Device struct {
	// ID uniquely identifies the device for the capture options.
	ID string

	// Name is the human-readable display name.
	Name string

	// Manufacturer may be empty on platforms that do not expose it.
	Manufacturer string

	IsDefault bool
	IsInput   bool
	IsOutput  bool

	// SampleRate is the device's nominal rate in Hz.
	SampleRate float64

	// Channels is the device's channel count.
	Channels uint32
}

// List returns a snapshot of all audio devices.
func List() ([]Device, error) {
	return listDevices()
}

// DefaultInput returns the ID of the default input device. The second
// return is false when the platform has no default input device; that is
// a valid outcome, not an error.
func DefaultInput() (string, bool) {
	return defaultInput()
}

// DefaultOutput returns the ID of the default output device, if any.
func DefaultOutput() (string, bool) {
	return defaultOutput()
}
