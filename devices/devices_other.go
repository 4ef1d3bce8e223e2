//go:build !darwin && !windows

package devices

func listDevices() ([]Device, error) {
	return nil, nil
}

func defaultInput() (string, bool) {
	return "", false
}

func defaultOutput() (string, bool) {
	return "", false
}
