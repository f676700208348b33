package transcriber

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"voxtray/log"
)

const (
	DefaultBaseURL  = "https://api.groq.com/openai/v1"
	DefaultModel    = "whisper-large-v3-turbo"
	DefaultLanguage = "ru"

	// DefaultRequestsPerMinute matches the free-tier quota for Whisper.
	DefaultRequestsPerMinute = 20

	requestTimeout = 2 * time.Minute
)

type GroqConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string

	// RequestsPerMinute caps outgoing requests. Zero means the default and
	// a negative value disables the cap.
	RequestsPerMinute int
}

// Groq talks to an OpenAI-compatible transcription endpoint. Decoding is
// pinned: temperature 0 and a plain-text response.
type Groq struct {
	client  *openai.Client
	traced  *TracedClient
	baseURL string
	model   string
	lang    string
	limiter *rate.Limiter
}

func NewGroq(cfg GroqConfig) *Groq {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	switch rpm := cfg.RequestsPerMinute; {
	case rpm == 0:
		limiter = rate.NewLimiter(rate.Every(time.Minute/DefaultRequestsPerMinute), DefaultRequestsPerMinute)
	case rpm > 0:
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)
	}

	traced := NewTracedClient(requestTimeout)
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = traced

	return &Groq{
		client:  openai.NewClientWithConfig(oc),
		traced:  traced,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		lang:    cfg.Language,
		limiter: limiter,
	}
}

func (g *Groq) Name() string { return "groq" }

func (g *Groq) Language() string { return g.lang }

func (g *Groq) Warm(ctx context.Context) {
	d := g.traced.WarmConnection(ctx, g.baseURL)
	if d > 0 {
		log.Infof("connection warmed, tls %dms", d.Milliseconds())
	}
}

func (g *Groq) Transcribe(ctx context.Context, req Request) (*Result, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("groq rate limit: %w", err)
	}

	metrics := &NetworkMetrics{}
	ctx = withMetrics(ctx, metrics)

	resp, err := g.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:       g.model,
		FilePath:    req.Path,
		Prompt:      req.Prompt,
		Temperature: 0,
		Language:    g.lang,
		Format:      openai.AudioResponseFormatText,
	})
	logMetrics(metrics)
	if err != nil {
		return nil, fmt.Errorf("groq transcription: %w", err)
	}

	h := resp.Header()
	remaining := firstNonEmpty(h, "x-ratelimit-remaining-requests")
	limit := firstNonEmpty(h, "x-ratelimit-limit-requests")

	return &Result{
		Text:      resp.Text,
		Metrics:   metrics,
		RateLimit: remaining + "/" + limit,
	}, nil
}

func logMetrics(m *NetworkMetrics) {
	if m.Status == 0 {
		return
	}
	ms := func(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }
	log.Network(log.NetworkMetrics{
		DNSMs:      ms(m.DNS),
		TCPMs:      ms(m.TCP),
		TLSMs:      ms(m.TLS),
		TTFBMs:     ms(m.TTFB),
		TotalMs:    ms(m.Total),
		ConnReused: m.ConnReused,
		Status:     m.Status,
	})
}
