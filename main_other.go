//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

// The tray and the global hotkey both need the OS main thread here.
func main() {
	mainthread.Init(run)
}
