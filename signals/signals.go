// Package signals maps process signals onto the app: SIGUSR1 toggles
// recording and SIGINT/SIGTERM shut down.
package signals

import (
	"context"
	"os"
	"os/signal"
)

// ForwardToggle calls toggle once per toggle signal until ctx is done. The
// handler side only receives from a channel, so no work happens in signal
// context. It returns false when the platform has no toggle signal.
func ForwardToggle(ctx context.Context, toggle func()) bool {
	if toggleSignal == nil {
		return false
	}
	ch := make(chan os.Signal, 8)
	signal.Notify(ch, toggleSignal)
	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ch:
				toggle()
			}
		}
	}()
	return true
}

// ToggleSignalName is how users trigger a toggle from outside, for help text.
func ToggleSignalName() string {
	if toggleSignal == nil {
		return ""
	}
	return toggleSignal.String()
}
