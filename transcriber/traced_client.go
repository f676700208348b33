package transcriber

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptrace"
	"time"
)

type metricsKey struct{}

// withMetrics makes the traced client fill m for requests made under ctx.
func withMetrics(ctx context.Context, m *NetworkMetrics) context.Context {
	return context.WithValue(ctx, metricsKey{}, m)
}

func metricsFrom(ctx context.Context) *NetworkMetrics {
	if m, ok := ctx.Value(metricsKey{}).(*NetworkMetrics); ok {
		return m
	}
	return &NetworkMetrics{}
}

// TracedClient is an HTTP client that times each phase of a request. It
// satisfies openai.HTTPDoer.
type TracedClient struct {
	client *http.Client
}

func NewTracedClient(timeout time.Duration) *TracedClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 4
	transport.MaxIdleConnsPerHost = 4
	transport.IdleConnTimeout = 90 * time.Second
	return &TracedClient{client: &http.Client{Timeout: timeout, Transport: transport}}
}

// phases collects the instants httptrace reports for one request.
type phases struct {
	getConn, gotConn       time.Time
	dnsStart, dnsDone      time.Time
	dialStart, dialDone    time.Time
	tlsStart, tlsDone      time.Time
	wroteHeaders, wroteReq time.Time
	firstByte              time.Time

	reused bool
	proto  string
}

func (p *phases) trace() *httptrace.ClientTrace {
	now := func(t *time.Time) { *t = time.Now() }
	return &httptrace.ClientTrace{
		GetConn: func(string) { now(&p.getConn) },
		GotConn: func(info httptrace.GotConnInfo) {
			now(&p.gotConn)
			p.reused = info.Reused
		},
		DNSStart:          func(httptrace.DNSStartInfo) { now(&p.dnsStart) },
		DNSDone:           func(httptrace.DNSDoneInfo) { now(&p.dnsDone) },
		ConnectStart:      func(string, string) { now(&p.dialStart) },
		ConnectDone:       func(string, string, error) { now(&p.dialDone) },
		TLSHandshakeStart: func() { now(&p.tlsStart) },
		TLSHandshakeDone: func(cs tls.ConnectionState, _ error) {
			now(&p.tlsDone)
			p.proto = cs.NegotiatedProtocol
		},
		WroteHeaders:         func() { now(&p.wroteHeaders) },
		WroteRequest:         func(httptrace.WroteRequestInfo) { now(&p.wroteReq) },
		GotFirstResponseByte: func() { now(&p.firstByte) },
	}
}

// span is b-a, or zero when either end never happened.
func span(a, b time.Time) time.Duration {
	if a.IsZero() || b.IsZero() {
		return 0
	}
	return b.Sub(a)
}

// fill copies the phase durations into m. end marks the last body byte.
func (p *phases) fill(m *NetworkMetrics, end time.Time) {
	m.ConnWait = span(p.getConn, p.gotConn)
	m.ConnReused = p.reused
	m.DNS = span(p.dnsStart, p.dnsDone)
	m.TCP = span(p.dialStart, p.dialDone)
	m.TLS = span(p.tlsStart, p.tlsDone)
	m.TLSProtocol = p.proto
	m.ReqHeaders = span(p.gotConn, p.wroteHeaders)
	m.ReqBody = span(p.wroteHeaders, p.wroteReq)
	m.TTFB = span(p.wroteReq, p.firstByte)
	m.Download = span(p.firstByte, end)
}

// Do sends req and buffers the whole response body so the download phase is
// part of the recorded timings.
func (c *TracedClient) Do(req *http.Request) (*http.Response, error) {
	metrics := metricsFrom(req.Context())
	var p phases
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), p.trace()))

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		p.fill(metrics, time.Now())
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	end := time.Now()
	p.fill(metrics, end)
	metrics.Total = end.Sub(start)
	metrics.Status = resp.StatusCode
	if err != nil {
		return nil, err
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	return resp, nil
}

// WarmConnection opens a connection to url with a HEAD request so the next
// real request can reuse it. It returns the TLS handshake time, or zero when
// the request failed or no handshake happened.
func (c *TracedClient) WarmConnection(ctx context.Context, url string) time.Duration {
	var p phases
	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, p.trace()), http.MethodHead, url, nil)
	if err != nil {
		return 0
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return span(p.tlsStart, p.tlsDone)
}
