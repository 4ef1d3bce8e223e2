package permissions

import (
	"runtime"
	"testing"
	"time"
)

func TestCapabilityString(t *testing.T) {
	tests := []struct {
		c    Capability
		want string
	}{
		{SystemAudio, "system-audio"},
		{Microphone, "microphone"},
		{Capability(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("Capability(%d).String() = %q, want %q", tt.c, got, tt.want)
		}
	}
}

func TestStateFromCode(t *testing.T) {
	tests := []struct {
		code int32
		want State
	}{
		{0, Unknown},
		{1, Denied},
		{2, Authorized},
		{-1, Unknown},
		{42, Unknown},
	}
	for _, tt := range tests {
		if got := stateFromCode(tt.code); got != tt.want {
			t.Errorf("stateFromCode(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestStateString(t *testing.T) {
	if Unknown.String() != "unknown" || Denied.String() != "denied" || Authorized.String() != "authorized" {
		t.Fatal("unexpected State string values")
	}
}

func TestRequestStateDeliversOnce(t *testing.T) {
	calls := 0
	req := &requestState{fn: func(bool) { calls++ }}

	req.deliver(true)
	req.deliver(false)
	req.deliver(true)

	if calls != 1 {
		t.Fatalf("expected exactly one delivery, got %d", calls)
	}
}

func TestConcurrentRequestsAreIsolated(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("would trigger a user-facing authorization prompt")
	}

	// Two in-flight requests must each see exactly one callback with no
	// cross-talk between their contexts.
	first := make(chan bool, 2)
	second := make(chan bool, 2)

	Request(Microphone, func(granted bool) { first <- granted })
	Request(SystemAudio, func(granted bool) { second <- granted })

	waitOne := func(name string, ch chan bool) {
		select {
		case <-ch:
		case <-time.After(5 * time.Second):
			t.Fatalf("%s request: no callback within timeout", name)
		}
		select {
		case <-ch:
			t.Fatalf("%s request: callback invoked twice", name)
		case <-time.After(50 * time.Millisecond):
		}
	}

	waitOne("first", first)
	waitOne("second", second)
}
