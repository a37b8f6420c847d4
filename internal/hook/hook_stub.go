//go:build !windows

package hook

import (
	"context"
	"fmt"
	"runtime"
)

func (l *Listener) run(ctx context.Context) error {
	return fmt.Errorf("%s: %w", runtime.GOOS, ErrUnavailable)
}
