package transcriber

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNetworkMetricsSum(t *testing.T) {
	m := &NetworkMetrics{
		ConnWait:   10 * time.Millisecond,
		DNS:        20 * time.Millisecond,
		TCP:        30 * time.Millisecond,
		TLS:        40 * time.Millisecond,
		ReqHeaders: 5 * time.Millisecond,
		ReqBody:    15 * time.Millisecond,
		TTFB:       50 * time.Millisecond,
		Download:   25 * time.Millisecond,
	}
	got := m.Sum()
	want := 195 * time.Millisecond
	if got != want {
		t.Errorf("Sum() = %v, want %v", got, want)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	h := http.Header{}
	h.Set("X-Rate-Limit", "100")

	if got := firstNonEmpty(h, "X-Missing", "X-Rate-Limit"); got != "100" {
		t.Errorf("got %q, want %q", got, "100")
	}
	if got := firstNonEmpty(h, "X-A", "X-B"); got != "?" {
		t.Errorf("got %q, want %q", got, "?")
	}
}

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, []byte("RIFF....WAVE"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

type seenRequest struct {
	auth, model, lang, format, prompt, temperature, filename string
}

func newServer(t *testing.T, status int, body string, seen *seenRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if seen != nil {
			seen.auth = r.Header.Get("Authorization")
			seen.model = r.FormValue("model")
			seen.lang = r.FormValue("language")
			seen.format = r.FormValue("response_format")
			seen.prompt = r.FormValue("prompt")
			seen.temperature = r.FormValue("temperature")
			if _, fh, err := r.FormFile("file"); err == nil {
				seen.filename = fh.Filename
			}
		}
		w.Header().Set("x-ratelimit-remaining-requests", "19")
		w.Header().Set("x-ratelimit-limit-requests", "20")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGroqTranscribe(t *testing.T) {
	var seen seenRequest
	srv := newServer(t, http.StatusOK, "hello world\n", &seen)

	g := NewGroq(GroqConfig{APIKey: "k-123", BaseURL: srv.URL, Language: "ru"})
	res, err := g.Transcribe(context.Background(), Request{Path: writeAudio(t), Prompt: "Kubernetes, gRPC"})
	if err != nil {
		t.Fatal(err)
	}

	if got := strings.TrimSpace(res.Text); got != "hello world" {
		t.Errorf("Text = %q, want hello world", got)
	}
	if res.RateLimit != "19/20" {
		t.Errorf("RateLimit = %q, want 19/20", res.RateLimit)
	}
	if res.Metrics == nil || res.Metrics.Status != http.StatusOK {
		t.Errorf("metrics not recorded: %+v", res.Metrics)
	}

	if seen.auth != "Bearer k-123" {
		t.Errorf("Authorization = %q", seen.auth)
	}
	if seen.model != DefaultModel {
		t.Errorf("model = %q, want %q", seen.model, DefaultModel)
	}
	if seen.lang != "ru" {
		t.Errorf("language = %q, want ru", seen.lang)
	}
	if seen.format != "text" {
		t.Errorf("response_format = %q, want text", seen.format)
	}
	if seen.prompt != "Kubernetes, gRPC" {
		t.Errorf("prompt = %q", seen.prompt)
	}
	if seen.temperature != "" && seen.temperature != "0" {
		t.Errorf("temperature = %q, want 0 or omitted", seen.temperature)
	}
	if seen.filename != "clip.wav" {
		t.Errorf("file name = %q, want clip.wav", seen.filename)
	}
}

func TestGroqOmitsEmptyPrompt(t *testing.T) {
	var seen seenRequest
	srv := newServer(t, http.StatusOK, "ok", &seen)

	g := NewGroq(GroqConfig{APIKey: "k", BaseURL: srv.URL})
	if _, err := g.Transcribe(context.Background(), Request{Path: writeAudio(t)}); err != nil {
		t.Fatal(err)
	}
	if seen.prompt != "" {
		t.Errorf("prompt = %q, want empty", seen.prompt)
	}
}

func TestGroqServerError(t *testing.T) {
	srv := newServer(t, http.StatusInternalServerError, `{"error":{"message":"boom","type":"server_error"}}`, nil)

	g := NewGroq(GroqConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := g.Transcribe(context.Background(), Request{Path: writeAudio(t)})
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "groq transcription") {
		t.Errorf("error not wrapped: %v", err)
	}
}

func TestGroqMissingFile(t *testing.T) {
	srv := newServer(t, http.StatusOK, "unused", nil)

	g := NewGroq(GroqConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := g.Transcribe(context.Background(), Request{Path: filepath.Join(t.TempDir(), "gone.wav")})
	if err == nil {
		t.Fatal("expected error for missing audio file")
	}
}

func TestGroqRateLimit(t *testing.T) {
	srv := newServer(t, http.StatusOK, "ok", nil)

	g := NewGroq(GroqConfig{APIKey: "k", BaseURL: srv.URL, RequestsPerMinute: 1})
	if _, err := g.Transcribe(context.Background(), Request{Path: writeAudio(t)}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := g.Transcribe(ctx, Request{Path: writeAudio(t)})
	if err == nil || !strings.Contains(err.Error(), "groq rate limit") {
		t.Errorf("second request within a minute: err = %v, want rate limit error", err)
	}
}

func TestGroqUnlimited(t *testing.T) {
	srv := newServer(t, http.StatusOK, "ok", nil)

	g := NewGroq(GroqConfig{APIKey: "k", BaseURL: srv.URL, RequestsPerMinute: -1})
	for i := 0; i < 3; i++ {
		if _, err := g.Transcribe(context.Background(), Request{Path: writeAudio(t)}); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
}

func TestNewGroqDefaults(t *testing.T) {
	g := NewGroq(GroqConfig{APIKey: "k"})
	if g.baseURL != DefaultBaseURL || g.model != DefaultModel {
		t.Errorf("defaults not applied: %q %q", g.baseURL, g.model)
	}
}

func TestTracedClientBuffersBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "payload")
	}))
	defer srv.Close()

	m := &NetworkMetrics{}
	req, err := http.NewRequestWithContext(withMetrics(context.Background(), m), http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := NewTracedClient(time.Second).Do(req)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if string(body) != "payload" {
		t.Errorf("body = %q", body)
	}
	if m.Status != http.StatusOK || m.Total <= 0 {
		t.Errorf("metrics not filled: %+v", m)
	}
}

func TestWarmConnection(t *testing.T) {
	var method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
	}))
	defer srv.Close()

	NewTracedClient(time.Second).WarmConnection(context.Background(), srv.URL)
	if method != http.MethodHead {
		t.Errorf("warm used %q, want HEAD", method)
	}
}

func TestFake(t *testing.T) {
	f := NewFake("hi", nil)
	res, err := f.Transcribe(context.Background(), Request{Path: "a.wav", Prompt: "p"})
	if err != nil || res.Text != "hi" {
		t.Fatalf("got %v, %v", res, err)
	}
	if reqs := f.Requests(); len(reqs) != 1 || reqs[0].Prompt != "p" {
		t.Errorf("requests = %+v", reqs)
	}

	boom := errors.New("boom")
	_, err = NewFake("", boom).Transcribe(context.Background(), Request{})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapping boom", err)
	}
}

func TestSpan(t *testing.T) {
	a := time.Unix(100, 0)
	b := a.Add(250 * time.Millisecond)
	if got := span(a, b); got != 250*time.Millisecond {
		t.Errorf("span = %v", got)
	}
	if got := span(time.Time{}, b); got != 0 {
		t.Errorf("span with missing start = %v, want 0", got)
	}
	if got := span(a, time.Time{}); got != 0 {
		t.Errorf("span with missing end = %v, want 0", got)
	}
}
