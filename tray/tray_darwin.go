//go:build darwin

package tray

import "golang.design/x/hotkey/mainthread"

// AppKit must be driven from the main thread.
func runOnMain(fn func()) {
	mainthread.Call(fn)
}
