//go:build !darwin && !windows

package permissions

func statusImpl(Capability) State {
	return Unknown
}

func availableImpl(Capability) bool {
	return false
}

func requestImpl(_ Capability, fn func(granted bool)) {
	req := &requestState{fn: fn}
	go func() {
		req.deliver(false)
	}()
}

func openSystemSettingsImpl() bool {
	return false
}
