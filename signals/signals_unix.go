//go:build !windows

package signals

import (
	"os"
	"os/signal"
	"syscall"
)

var toggleSignal os.Signal = syscall.SIGUSR1

func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
}
