package transcriber

import (
	"context"
	"net/http"
	"time"
)

type NetworkMetrics struct {
	DNS         time.Duration
	ConnWait    time.Duration
	TCP         time.Duration
	TLS         time.Duration
	ReqHeaders  time.Duration
	ReqBody     time.Duration
	TTFB        time.Duration
	Download    time.Duration
	Total       time.Duration
	ConnReused  bool
	TLSProtocol string
	Status      int
}

func (m *NetworkMetrics) Sum() time.Duration {
	return m.ConnWait + m.DNS + m.TCP + m.TLS + m.ReqHeaders + m.ReqBody + m.TTFB + m.Download
}

func firstNonEmpty(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return "?"
}

// Request is one transcription attempt for a captured WAV file.
type Request struct {
	Path     string
	Prompt   string
	Duration time.Duration
}

type Result struct {
	Text      string
	Metrics   *NetworkMetrics
	RateLimit string
}

// Transcriber turns recorded audio into text. Implementations are called from
// one worker at a time but must honour ctx.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, req Request) (*Result, error)
}

// Warmer is implemented by transcribers that can open their connection ahead
// of the first request.
type Warmer interface {
	Warm(ctx context.Context)
}
