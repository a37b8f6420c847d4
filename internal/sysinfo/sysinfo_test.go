package sysinfo

import (
	"sort"
	"testing"
)

func TestProcessInspectorSnapshot(t *testing.T) {
	insp := ProcessInspector{}
	apps, err := insp.Snapshot()
	if err != nil {
		t.Skipf("process enumeration unavailable: %v", err)
	}

	if !sort.StringsAreSorted(apps) {
		t.Error("names are not sorted")
	}

	seen := make(map[string]struct{}, len(apps))
	for _, app := range apps {
		if app == "" {
			t.Error("empty process name in snapshot")
		}
		if _, ok := seen[app]; ok {
			t.Errorf("duplicate process name %q", app)
		}
		seen[app] = struct{}{}
	}
}
