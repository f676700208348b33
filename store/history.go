// Package store keeps the files that live in the data directory: the
// transcription history and the prompt hint.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	HistoryFile = "transcriptions.log"
	PromptFile  = "prompt.txt"

	timestampLayout = "2006-01-02 15:04:05"
)

// History appends one line per successful transcription.
type History struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

func NewHistory(dir string) *History {
	return &History{path: filepath.Join(dir, HistoryFile), now: time.Now}
}

func (h *History) Path() string { return h.path }

// SetClock replaces the time source used for timestamps.
func (h *History) SetClock(now func() time.Time) { h.now = now }

// Append writes "[YYYY-MM-DD HH:MM:SS] text" followed by a newline.
func (h *History) Append(text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	line := fmt.Sprintf("[%s] %s\n", h.now().Format(timestampLayout), text)
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("writing history: %w", err)
	}
	return f.Close()
}
