// Package hotkey turns a global Ctrl+Shift+Space press into a toggle
// request. Only key-down edges matter; holding the chord does not repeat.
package hotkey

import "context"

type Hotkey interface {
	Register() error
	Unregister()
	Pressed() <-chan struct{}
}

// Forward calls toggle for every press until ctx is done.
func Forward(ctx context.Context, hk Hotkey, toggle func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-hk.Pressed():
			toggle()
		}
	}
}
