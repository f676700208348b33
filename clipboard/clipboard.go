// Package clipboard writes transcriptions to the system clipboard. It never
// pastes or types into other applications.
package clipboard

import (
	"errors"
	"fmt"
	"time"

	cb "github.com/atotto/clipboard"
)

const writeTimeout = 3 * time.Second

var (
	ErrUnsupported = errors.New("no clipboard utility found (install xclip, xsel or wl-clipboard)")
	ErrTimeout     = errors.New("clipboard tool timed out")
)

// Check reports whether a clipboard backend is available on this system.
func Check() error {
	if cb.Unsupported {
		return ErrUnsupported
	}
	return nil
}

func Read() (string, error) {
	return cb.ReadAll()
}

// Copy writes text to the clipboard. On Linux this shells out to a helper
// that can hang when no display is reachable, so the write is bounded.
func Copy(text string) error {
	if err := Check(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- cb.WriteAll(text) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("clipboard write: %w", err)
		}
		return nil
	case <-time.After(writeTimeout):
		return ErrTimeout
	}
}

// System is the clipboard as a value, for code that takes a copier.
type System struct{}

func (System) Copy(text string) error { return Copy(text) }
