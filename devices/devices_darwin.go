//go:build darwin

package devices

/*
#cgo CFLAGS: -x objective-c -fobjc-arc -mmacosx-version-min=13.0
#cgo LDFLAGS: -framework CoreAudio -framework Foundation

#include <stdbool.h>
#include <stdint.h>
#include <stdlib.h>

// Declarations of the native enumeration bridge implemented in
// devices_darwin.m. The device list is a packed array of fixed-size
// records documented at decodeDeviceList; it must be released exactly once
// with coreaudio_free_device_list. The default-device calls return a
// malloc'd UTF-8 string or NULL.
extern int32_t coreaudio_list_devices(void** devices, int32_t* count);
extern void coreaudio_free_device_list(void* devices, int32_t count);
extern char* coreaudio_get_default_input_device(void);
extern char* coreaudio_get_default_output_device(void);
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// deviceRecordSize is the stride of one native device record:
//
//	offset 0   uid          char*  (8 bytes)
//	offset 8   name         char*  (8 bytes)
//	offset 16  manufacturer char*  (8 bytes)
//	offset 24  isDefault    bool   (1 byte)
//	offset 25  isInput      bool   (1 byte)
//	offset 26  isOutput     bool   (1 byte)
//	offset 27  padding             (5 bytes)
//	offset 32  sampleRate   double (8 bytes)
//	offset 40  channelCount uint32 (4 bytes)
//	offset 44  padding             (4 bytes)
const deviceRecordSize = 48

func listDevices() ([]Device, error) {
	var raw unsafe.Pointer
	var count C.int32_t

	if status := C.coreaudio_list_devices(&raw, &count); status != 0 {
		return nil, fmt.Errorf("list devices: native error code %d", int32(status))
	}
	if raw == nil || count == 0 {
		// Nothing was allocated, so nothing to free.
		return nil, nil
	}
	defer C.coreaudio_free_device_list(raw, count)

	return decodeDeviceList(raw, int(count)), nil
}

// decodeDeviceList copies every record out of the native buffer. String
// handles are read before the single free in listDevices; NULL handles
// degrade to empty strings.
func decodeDeviceList(raw unsafe.Pointer, count int) []Device {
	devices := make([]Device, 0, count)
	for i := 0; i < count; i++ {
		base := unsafe.Add(raw, i*deviceRecordSize)
		devices = append(devices, Device{
			ID:           goStringAt(base, 0),
			Name:         goStringAt(base, 8),
			Manufacturer: goStringAt(base, 16),
			IsDefault:    bool(*(*C.bool)(unsafe.Add(base, 24))),
			IsInput:      bool(*(*C.bool)(unsafe.Add(base, 25))),
			IsOutput:     bool(*(*C.bool)(unsafe.Add(base, 26))),
			SampleRate:   float64(*(*C.double)(unsafe.Add(base, 32))),
			Channels:     uint32(*(*C.uint32_t)(unsafe.Add(base, 40))),
		})
	}
	return devices
}

func goStringAt(base unsafe.Pointer, offset int) string {
	p := *(**C.char)(unsafe.Add(base, offset))
	if p == nil {
		return ""
	}
	return C.GoString(p)
}

func defaultInput() (string, bool) {
	return takeOwnedString(C.coreaudio_get_default_input_device())
}

func defaultOutput() (string, bool) {
	return takeOwnedString(C.coreaudio_get_default_output_device())
}

// takeOwnedString copies a malloc'd native string and frees it. NULL means
// the device does not exist.
func takeOwnedString(p *C.char) (string, bool) {
	if p == nil {
		return "", false
	}
	defer C.free(unsafe.Pointer(p))
	return C.GoString(p), true
}
