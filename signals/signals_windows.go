//go:build windows

package signals

import (
	"os"
	"os/signal"
)

var toggleSignal os.Signal

func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
