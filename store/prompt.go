package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"voxtray/log"
)

const DefaultPrompt = "Technical terms: Go, goroutine, Kubernetes, gRPC, Groq API, Whisper, " +
	"PulseAudio, systray, xclip, SIGUSR1, transcription, audio recording"

// Prompt is the optional hint sent with every transcription. It is re-read
// on each attempt so edits apply without a restart.
type Prompt struct {
	path string
}

func NewPrompt(dir string) *Prompt {
	return &Prompt{path: filepath.Join(dir, PromptFile)}
}

func (p *Prompt) Path() string { return p.path }

// Seed writes text to the prompt file unless it already exists.
func (p *Prompt) Seed(text string) error {
	f, err := os.OpenFile(p.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("seeding prompt: %w", err)
	}
	if _, err := f.WriteString(text + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("seeding prompt: %w", err)
	}
	return f.Close()
}

// Load returns the trimmed prompt. A missing, unreadable or blank file means
// no prompt.
func (p *Prompt) Load() (string, bool) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warnf("prompt read error: %v", err)
		}
		return "", false
	}
	text := strings.TrimSpace(string(data))
	return text, text != ""
}

// EnsureDir creates the data directory.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	return nil
}
