package capture

import (
	"crypto/sha256"
	"fmt"
	"path/filepath"
	"strings"
)

// PrivacyFilter applies masking and pattern-based filtering to capture
// metadata before it is stored or broadcast. The zero value is a no-op
// filter.
type PrivacyFilter struct {
	MaskAppNames bool
	BlockedApps  []string
}

// IsAllowed reports whether an app name may appear in capture metadata.
// Patterns are matched case-insensitively so "chrome*" blocks both
// "chrome" and "Chrome.exe".
func (f *PrivacyFilter) IsAllowed(app string) bool {
	for _, pattern := range f.BlockedApps {
		if matchAppName(pattern, app) {
			return false
		}
	}
	return true
}

func matchAppName(pattern, app string) bool {
	matched, _ := filepath.Match(strings.ToLower(pattern), strings.ToLower(app))
	return matched
}

// FilterApps returns a new slice containing only the allowed app names,
// masked if configured. The original slice is not modified.
func (f *PrivacyFilter) FilterApps(apps []string) []string {
	if f.IsNoop() {
		return apps
	}

	result := make([]string, 0, len(apps))
	for _, app := range apps {
		if !f.IsAllowed(app) {
			continue
		}
		if f.MaskAppNames {
			app = shortHash(app)
		}
		result = append(result, app)
	}
	return result
}

// IsNoop reports whether the filter does nothing.
func (f *PrivacyFilter) IsNoop() bool {
	return !f.MaskAppNames && len(f.BlockedApps) == 0
}

// shortHash returns a truncated SHA-256 hex digest for an opaque identifier.
func shortHash(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h[:6])
}
