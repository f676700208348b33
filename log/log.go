// Package log writes the diagnostics log, a human-readable zerolog stream in
// diagnostics_log.txt. Every call is a no-op until Init succeeds.
package log

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var (
	mu      sync.Mutex
	file    *os.File
	current atomic.Pointer[zerolog.Logger]
)

// event starts a log line, or returns nil before Init. zerolog treats a nil
// *Event as disabled, so callers chain fields unconditionally.
func event(level zerolog.Level) *zerolog.Event {
	l := current.Load()
	if l == nil {
		return nil
	}
	return l.WithLevel(level)
}

// Init opens diagnostics_log.txt in the log directory. With console set,
// every line is mirrored to stderr as well.
func Init(console bool) error {
	mu.Lock()
	defer mu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dir, "diagnostics_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	var out io.Writer = zerolog.ConsoleWriter{Out: f, TimeFormat: "2006-01-02 15:04:05", NoColor: true}
	if console {
		out = zerolog.MultiLevelWriter(out, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
	l := zerolog.New(out).With().Timestamp().Int("pid", os.Getpid()).Logger()

	if file != nil {
		file.Close()
	}
	file = f
	current.Store(&l)
	return nil
}

func Close() {
	mu.Lock()
	defer mu.Unlock()
	current.Store(nil)
	if file != nil {
		file.Close()
		file = nil
	}
}

func Info(msg string) { event(zerolog.InfoLevel).Msg(msg) }
func Warn(msg string) { event(zerolog.WarnLevel).Msg(msg) }
func Error(msg string) { event(zerolog.ErrorLevel).Msg(msg) }

func Infof(format string, args ...any) { event(zerolog.InfoLevel).Msgf(format, args...) }
func Warnf(format string, args ...any) { event(zerolog.WarnLevel).Msgf(format, args...) }
func Errorf(format string, args ...any) { event(zerolog.ErrorLevel).Msgf(format, args...) }

func AppStart(version, device, ui string) {
	event(zerolog.InfoLevel).
		Str("version", version).
		Str("device", device).
		Str("ui", ui).
		Msg("app_start")
}

func AppEnd(sessions uint64) {
	event(zerolog.InfoLevel).Uint64("sessions", sessions).Msg("app_end")
}

func SessionStart(id, device string) {
	event(zerolog.InfoLevel).Str("session", id).Str("device", device).Msg("capture_start")
}

func SessionEnd(id string, frames int) {
	event(zerolog.InfoLevel).Str("session", id).Int("frames", frames).Msg("capture_end")
}

// Transition records a state machine edge for session seq.
func Transition(seq uint64, from, to string) {
	event(zerolog.DebugLevel).Uint64("seq", seq).Str("from", from).Str("to", to).Msg("state")
}

func Outcome(seq uint64, kind string, chars int, audioS float64) {
	event(zerolog.InfoLevel).
		Uint64("seq", seq).
		Str("outcome", kind).
		Int("chars", chars).
		Float64("audio_s", audioS).
		Msg("transcription")
}

// NetworkMetrics is the subset of request timings worth a log line.
type NetworkMetrics struct {
	DNSMs      float64
	TCPMs      float64
	TLSMs      float64
	TTFBMs     float64
	TotalMs    float64
	ConnReused bool
	Status     int
}

func (m NetworkMetrics) conn() string {
	if m.ConnReused {
		return "reused"
	}
	return "new"
}

func Network(m NetworkMetrics) {
	event(zerolog.InfoLevel).
		Str("conn", m.conn()).
		Int("status", m.Status).
		Float64("dns_ms", m.DNSMs).
		Float64("tcp_ms", m.TCPMs).
		Float64("tls_ms", m.TLSMs).
		Float64("ttfb_ms", m.TTFBMs).
		Float64("total_ms", m.TotalMs).
		Msg("http")
}
