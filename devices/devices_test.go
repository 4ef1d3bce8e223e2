package devices

import (
	"runtime"
	"testing"
)

func TestListOnBarePlatform(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("platform has an enumeration backend")
	}

	// No backend means no devices: an empty list and no error.
	devices, err := List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(devices) != 0 {
		t.Fatalf("expected no devices, got %d", len(devices))
	}

	if id, ok := DefaultInput(); ok || id != "" {
		t.Fatalf("expected no default input, got %q", id)
	}
	if id, ok := DefaultOutput(); ok || id != "" {
		t.Fatalf("expected no default output, got %q", id)
	}
}
