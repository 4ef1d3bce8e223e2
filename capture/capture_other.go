//go:build !darwin && !windows

package capture

import "go.aimuz.me/audiotap/bridge"

// newSessionImpl returns ErrUnsupported on platforms without a capture
// backend.
func newSessionImpl(_ *bridge.Queue) (sessionImpl, error) {
	return nil, ErrUnsupported
}
