// Package sysinfo reports lightweight host information attached to
// captures, currently the set of running application names.
package sysinfo

import (
	"fmt"
	"sort"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessInspector enumerates running processes and reports their
// executable names, deduplicated and sorted. Enumeration is best effort:
// processes that disappear mid-scan or deny access are skipped.
type ProcessInspector struct{}

// Snapshot returns the names of currently running processes.
func (ProcessInspector) Snapshot() ([]string, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	seen := make(map[string]struct{}, len(procs))
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil || name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
