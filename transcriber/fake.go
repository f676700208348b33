package transcriber

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Fake returns a fixed text or error and records every request.
type Fake struct {
	Text  string
	Err   error
	Delay time.Duration

	mu       sync.Mutex
	requests []Request
}

func NewFake(text string, err error) *Fake {
	return &Fake{Text: text, Err: err}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Transcribe(ctx context.Context, req Request) (*Result, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.Err != nil {
		return nil, fmt.Errorf("fake transcriber error: %w", f.Err)
	}
	return &Result{Text: f.Text, Metrics: &NetworkMetrics{Total: f.Delay}}, nil
}

func (f *Fake) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}
