package doctor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"voxtray/audio"
	"voxtray/clipboard"
	"voxtray/config"
	"voxtray/hotkey"
	"voxtray/status"
	"voxtray/store"
	"voxtray/transcriber"
)

// Check is one diagnostic step. Run returns a short PASS detail or the
// reason for failing.
type Check struct {
	Name string
	Run  func() (string, error)
}

// RunChecks prints each check in order and returns an exit code (0=all pass,
// 1=any fail). Later checks still run after a failure.
func RunChecks(w io.Writer, checks []Check) int {
	failed := 0
	for i, c := range checks {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "[%d/%d] %s\n", i+1, len(checks), c.Name)
		msg, err := c.Run()
		if err != nil {
			failed++
			fmt.Fprintf(w, "  FAIL: %v\n", err)
			continue
		}
		fmt.Fprintf(w, "  PASS: %s\n", msg)
	}

	fmt.Fprintln(w)
	if failed == 0 {
		fmt.Fprintln(w, "All checks passed!")
		return 0
	}
	fmt.Fprintf(w, "%d check(s) failed. See details above.\n", failed)
	return 1
}

// Run executes the standard diagnostics against cfg.
func Run(cfg *config.Config) int {
	resetTerminal()
	exitOnInterrupt()

	fmt.Println("voxtray doctor - system diagnostics")
	fmt.Println("===================================")

	return RunChecks(os.Stdout, Checks(cfg))
}

func Checks(cfg *config.Config) []Check {
	return []Check{
		{"Configuration", func() (string, error) { return checkConfig(cfg) }},
		{"Data directory", func() (string, error) { return checkDataDir(cfg.DataDir) }},
		{"Clipboard", checkClipboard},
		{"Microphone", func() (string, error) { return checkMicrophone(cfg.Device) }},
		{"Transcription endpoint", func() (string, error) { return checkEndpoint(cfg) }},
		{"Global hotkey (optional)", hotkey.Diagnose},
	}
}

func checkConfig(cfg *config.Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrNoAPIKey) {
			return "", fmt.Errorf("%w (export it, or set api_key in %s)", err, filepath.Join(config.Dir(), "config.toml"))
		}
		return "", err
	}
	src := "environment"
	if cfg.Path != "" {
		src = cfg.Path
	}
	return fmt.Sprintf("api key set, model %s, language %q (from %s)", cfg.Model, cfg.Language, src), nil
}

func checkDataDir(dir string) (string, error) {
	if err := store.EnsureDir(dir); err != nil {
		return "", err
	}
	probe, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return "", fmt.Errorf("%s is not writable: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	if _, ok := store.NewPrompt(dir).Load(); ok {
		return dir + " (prompt present)", nil
	}
	return dir + " (no prompt, one is seeded on first run)", nil
}

func checkClipboard() (string, error) {
	if err := clipboard.Check(); err != nil {
		return "", err
	}
	testStr := fmt.Sprintf("voxtray-doctor-%d", time.Now().UnixNano())
	if err := clipboard.Copy(testStr); err != nil {
		return "", err
	}
	got, err := clipboard.Read()
	if err != nil {
		return "", fmt.Errorf("clipboard read failed: %w", err)
	}
	if got != testStr {
		return "", fmt.Errorf("clipboard mismatch: wrote %q, got %q", testStr, got)
	}
	return "clipboard write/read verified", nil
}

const micProbe = time.Second

func checkMicrophone(name string) (string, error) {
	actx, err := audio.NewContext()
	if err != nil {
		return "", fmt.Errorf("cannot connect to audio: %w", err)
	}
	defer actx.Close()

	dev, err := audio.ResolveDevice(actx, name)
	if err != nil {
		return "", err
	}

	engine := audio.NewEngine(actx, dev, audio.WithTempDir(os.TempDir()))
	return probeEngine(engine, micProbe)
}

// probeEngine records for d and reports the loudest tier seen.
func probeEngine(engine *audio.Engine, d time.Duration) (string, error) {
	var cancel atomic.Bool
	timer := time.AfterFunc(d, func() { cancel.Store(true) })
	defer timer.Stop()

	peak, chunks := 0, 0
	captured, err := engine.Record(&cancel, func(level int) {
		chunks++
		peak = max(peak, level)
	})
	if err != nil {
		return "", err
	}
	if captured == nil {
		return "", fmt.Errorf("no audio received from %s", engine.Device())
	}
	defer captured.Remove()

	return fmt.Sprintf("%s: %d chunks, peak level %d (%s)", engine.Device(), chunks, peak, status.Quantize(peak)), nil
}

func checkEndpoint(cfg *config.Config) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := transcriber.NewTracedClient(5 * time.Second)
	start := time.Now()
	client.WarmConnection(ctx, cfg.BaseURL)
	if ctx.Err() != nil {
		return "", fmt.Errorf("%s did not answer within 5s", cfg.BaseURL)
	}
	return fmt.Sprintf("%s reachable in %dms", cfg.BaseURL, time.Since(start).Milliseconds()), nil
}
