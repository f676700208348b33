//go:build linux || darwin

package audio

import (
	"os"

	"golang.org/x/sys/unix"
)

// Quiet runs fn with the process stderr (fd 2) pointed at /dev/null, so native
// audio backends cannot spray diagnostics over the terminal. Stderr is restored
// on every exit path, including a panic in fn.
func Quiet(fn func() error) error {
	devnull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		return fn()
	}
	defer devnull.Close()

	saved, err := unix.Dup(int(os.Stderr.Fd()))
	if err != nil {
		return fn()
	}
	defer unix.Close(saved)

	if err := redirectFd(int(devnull.Fd()), int(os.Stderr.Fd())); err != nil {
		return fn()
	}
	defer redirectFd(saved, int(os.Stderr.Fd()))

	return fn()
}
