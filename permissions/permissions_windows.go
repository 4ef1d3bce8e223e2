//go:build windows

package permissions

import (
	"os/exec"

	"golang.org/x/sys/windows/registry"
)

// Windows gates microphone access per user through the capability access
// manager consent store; loopback capture of rendered audio has no consent
// mechanism at all.
const micConsentKey = `Software\Microsoft\Windows\CurrentVersion\CapabilityAccessManager\ConsentStore\microphone`

func statusImpl(c Capability) State {
	switch c {
	case SystemAudio:
		// Nothing to grant: loopback is always permitted.
		return Authorized
	case Microphone:
		return micConsentState()
	default:
		return Unknown
	}
}

func micConsentState() State {
	key, err := registry.OpenKey(registry.CURRENT_USER, micConsentKey, registry.QUERY_VALUE)
	if err != nil {
		return Unknown
	}
	defer key.Close()

	value, _, err := key.GetStringValue("Value")
	if err != nil {
		return Unknown
	}
	switch value {
	case "Allow":
		return Authorized
	case "Deny":
		return Denied
	default:
		return Unknown
	}
}

func availableImpl(c Capability) bool {
	switch c {
	case SystemAudio:
		// There is no system-audio authorization mechanism on Windows.
		return false
	case Microphone:
		return true
	default:
		return false
	}
}

// requestImpl has no prompt to show: Windows surfaces microphone consent
// through its own settings UI. The request degrades to a silent check
// reported once, off the calling goroutine.
func requestImpl(c Capability, fn func(granted bool)) {
	req := &requestState{fn: fn}
	go func() {
		req.deliver(statusImpl(c) == Authorized)
	}()
}

func openSystemSettingsImpl() bool {
	err := exec.Command("rundll32", "url.dll,FileProtocolHandler", "ms-settings:privacy-microphone").Start()
	return err == nil
}
