//go:build windows

package devices

import (
	"fmt"

	"github.com/gen2brain/malgo"
	"go.aimuz.me/audiotap/internal/devid"
)

func listDevices() ([]Device, error) {
	return withContext(func(ctx *malgo.AllocatedContext) ([]Device, error) {
		var devices []Device

		inputs, err := ctx.Devices(malgo.Capture)
		if err != nil {
			return nil, fmt.Errorf("enumerate capture devices: %w", err)
		}
		for _, info := range inputs {
			devices = append(devices, describe(ctx, malgo.Capture, info))
		}

		outputs, err := ctx.Devices(malgo.Playback)
		if err != nil {
			return nil, fmt.Errorf("enumerate playback devices: %w", err)
		}
		for _, info := range outputs {
			devices = append(devices, describe(ctx, malgo.Playback, info))
		}

		return devices, nil
	})
}

// describe builds a Device from the enumeration entry, filling in format
// details from the full device query where possible. WASAPI does not
// expose a manufacturer, so that field stays empty.
func describe(ctx *malgo.AllocatedContext, kind malgo.DeviceType, info malgo.DeviceInfo) Device {
	d := Device{
		ID:        devid.Encode(info.ID[:]),
		Name:      info.Name(),
		IsDefault: info.IsDefault != 0,
		IsInput:   kind == malgo.Capture,
		IsOutput:  kind == malgo.Playback,
	}

	if full, err := ctx.DeviceInfo(kind, info.ID, malgo.Shared); err == nil && full.FormatCount > 0 {
		native := full.Formats[0]
		d.SampleRate = float64(native.SampleRate)
		d.Channels = native.Channels
	}
	return d
}

func defaultInput() (string, bool) {
	return defaultDevice(malgo.Capture)
}

func defaultOutput() (string, bool) {
	return defaultDevice(malgo.Playback)
}

func defaultDevice(kind malgo.DeviceType) (string, bool) {
	id, err := withContext(func(ctx *malgo.AllocatedContext) (string, error) {
		infos, err := ctx.Devices(kind)
		if err != nil {
			return "", err
		}
		for _, info := range infos {
			if info.IsDefault != 0 {
				return devid.Encode(info.ID[:]), nil
			}
		}
		return "", nil
	})
	if err != nil || id == "" {
		return "", false
	}
	return id, true
}

// withContext runs fn inside a short-lived miniaudio context.
func withContext[T any](fn func(ctx *malgo.AllocatedContext) (T, error)) (T, error) {
	var zero T
	ctx, err := malgo.InitContext([]malgo.Backend{malgo.BackendWasapi}, malgo.ContextConfig{}, nil)
	if err != nil {
		return zero, fmt.Errorf("init wasapi context: %w", err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	return fn(ctx)
}
