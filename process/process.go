// Package process resolves process names to pids for the capture
// include/exclude filters. Callers usually know applications by name; the
// native tap API wants pids.
package process

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// FindPids returns the pids of all running processes whose executable
// name matches one of names. Matching is case-insensitive and ignores a
// trailing ".exe". Names that match nothing are simply absent from the
// result; an empty result is not an error.
func FindPids(names ...string) ([]int32, error) {
	if len(names) == 0 {
		return nil, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[normalize(name)] = true
	}

	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}

	var pids []int32
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			// Processes can exit or deny access mid-enumeration.
			continue
		}
		if wanted[normalize(name)] {
			pids = append(pids, p.Pid)
		}
	}
	return pids, nil
}

func normalize(name string) string {
	name = strings.ToLower(name)
	return strings.TrimSuffix(name, ".exe")
}
