package doctor

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"golang.org/x/term"

	"voxtray/signals"
)

// resetTerminal undoes a raw mode left behind by an interrupted device
// picker.
func resetTerminal() {
	if runtime.GOOS == "windows" || !term.IsTerminal(int(os.Stdin.Fd())) {
		return
	}
	cmd := exec.Command("stty", "sane")
	cmd.Stdin = os.Stdin
	cmd.Run()
}

// exitOnInterrupt aborts the remaining checks on Ctrl+C. The microphone
// probe can otherwise hold the terminal for its full duration.
func exitOnInterrupt() {
	ch := make(chan os.Signal, 1)
	signals.Notify(ch)
	go func() {
		<-ch
		fmt.Fprintln(os.Stderr, "\nInterrupted")
		os.Exit(130)
	}()
}
