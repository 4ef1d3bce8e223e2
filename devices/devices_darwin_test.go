//go:build darwin

package devices

import "testing"

func TestDecodeDeviceListEmpty(t *testing.T) {
	// A zero-count list with a nil buffer is the "no devices" shape the
	// native side produces; nothing may be dereferenced or freed.
	if got := decodeDeviceList(nil, 0); len(got) != 0 {
		t.Fatalf("expected no devices, got %d", len(got))
	}
}

func TestListDevicesSmoke(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	devices, err := List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, d := range devices {
		if !d.IsInput && !d.IsOutput {
			t.Errorf("device %q is neither input nor output", d.ID)
		}
	}
}
