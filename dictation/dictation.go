// Package dictation is the recording state machine. All state lives on the
// control loop; a worker goroutine per session owns the capture device and
// the transcription call and reports back by posting to the loop.
package dictation

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"voxtray/audio"
	"voxtray/log"
	"voxtray/loop"
	"voxtray/status"
	"voxtray/transcriber"
)

const DefaultPreviewLen = 30

// Recorder captures until cancel is set and hands back the WAV file, or nil
// when nothing was captured.
type Recorder interface {
	Record(cancel *atomic.Bool, onLevel func(level int)) (*audio.Captured, error)
}

type History interface {
	Append(text string) error
}

type Clipboard interface {
	Copy(text string) error
}

type PromptSource interface {
	Load() (string, bool)
}

type Config struct {
	SuccessDelay time.Duration
	ErrorDelay   time.Duration
	PreviewLen   int
}

func DefaultConfig() Config {
	return Config{
		SuccessDelay: 3 * time.Second,
		ErrorDelay:   2 * time.Second,
		PreviewLen:   DefaultPreviewLen,
	}
}

type Deps struct {
	Recorder    Recorder
	Transcriber transcriber.Transcriber
	History     History
	Clipboard   Clipboard
	Prompt      PromptSource
	Publisher   status.Publisher

	// Remove deletes a captured file once it has been processed. Defaults to
	// (*audio.Captured).Remove.
	Remove func(*audio.Captured) error
}

type Dictation struct {
	ctx  context.Context
	loop *loop.Loop
	cfg  Config
	deps Deps

	// Owned by the loop goroutine.
	state  status.Kind
	gen    uint64
	cancel *atomic.Bool
	reset  *loop.Timer
	last   status.Status

	workers sync.WaitGroup
}

// New wires a state machine onto l. ctx bounds in-flight transcriptions.
func New(ctx context.Context, l *loop.Loop, cfg Config, deps Deps) *Dictation {
	if cfg.PreviewLen <= 0 {
		cfg.PreviewLen = DefaultPreviewLen
	}
	if deps.Remove == nil {
		deps.Remove = (*audio.Captured).Remove
	}
	if deps.Publisher == nil {
		deps.Publisher = status.PublisherFunc(func(status.Status) {})
	}
	return &Dictation{ctx: ctx, loop: l, cfg: cfg, deps: deps, state: status.Idle, last: status.Ready()}
}

// Toggle starts or stops a recording. It only enqueues, so it is safe from
// any goroutine including signal forwarders.
func (d *Dictation) Toggle() {
	d.loop.Post(d.toggle)
}

// State reads the current state through the loop.
func (d *Dictation) State() status.Kind {
	var k status.Kind
	if !d.loop.Call(func() { k = d.state }) {
		return d.state
	}
	return k
}

// Sessions is the number of recordings started so far.
func (d *Dictation) Sessions() uint64 {
	var n uint64
	if !d.loop.Call(func() { n = d.gen }) {
		return d.gen
	}
	return n
}

// Wait blocks until every worker has returned.
func (d *Dictation) Wait() { d.workers.Wait() }

// Stop cancels an active recording, if any. The session still runs through
// processing unless ctx is cancelled as well.
func (d *Dictation) Stop() {
	d.loop.Call(func() {
		if d.state == status.Recording {
			d.stop()
		}
	})
}

// Announce publishes the current state, for surfaces that attach late.
func (d *Dictation) Announce() {
	d.loop.Post(func() { d.publish(d.last) })
}

func (d *Dictation) toggle() {
	switch d.state {
	case status.Recording:
		d.stop()
	case status.Processing:
		log.Info("toggle ignored while processing")
	default:
		d.start()
	}
}

func (d *Dictation) start() {
	if d.reset != nil {
		d.reset.Stop()
		d.reset = nil
	}
	d.gen++
	d.cancel = new(atomic.Bool)
	d.setState(status.Recording)
	d.publish(status.Level(status.TierLow))

	if w, ok := d.deps.Transcriber.(transcriber.Warmer); ok {
		go w.Warm(d.ctx)
	}

	s := session{gen: d.gen, cancel: d.cancel}
	d.workers.Add(1)
	go d.work(s)
}

// stop only raises the flag. The worker notices before its next chunk read
// and reports what it captured.
func (d *Dictation) stop() {
	d.cancel.Store(true)
	d.setState(status.Processing)
}

func (d *Dictation) onLevel(gen uint64, level int) {
	if gen != d.gen || d.state != status.Recording {
		return
	}
	d.publish(status.Level(status.Quantize(level)))
}

// onCaptured runs when the worker has released the device. A nil capture
// skips processing entirely.
func (d *Dictation) onCaptured(gen uint64, got bool) {
	if gen != d.gen || (d.state != status.Recording && d.state != status.Processing) {
		return
	}
	if !got {
		d.setState(status.Idle)
		d.publish(status.Ready())
		return
	}
	d.setState(status.Processing)
	d.publish(status.Busy())
}

func (d *Dictation) onOutcome(gen uint64, out outcome) {
	if gen != d.gen || (d.state != status.Recording && d.state != status.Processing) {
		return
	}
	d.setState(out.kind)

	delay := d.cfg.ErrorDelay
	switch out.kind {
	case status.Success:
		delay = d.cfg.SuccessDelay
		d.publish(status.Copied(status.Preview(out.text, d.cfg.PreviewLen)))
	case status.NoSpeech:
		d.publish(status.Silent())
	default:
		d.publish(status.Failed())
	}

	d.reset = d.loop.AfterFunc(delay, func() { d.onReset(gen) })
}

func (d *Dictation) onReset(gen uint64) {
	if gen != d.gen || !d.state.Terminal() {
		return
	}
	d.reset = nil
	d.setState(status.Idle)
	d.publish(status.Ready())
}

func (d *Dictation) setState(k status.Kind) {
	if d.state == k {
		return
	}
	log.Transition(d.gen, d.state.String(), k.String())
	d.state = k
}

func (d *Dictation) publish(s status.Status) {
	d.last = s
	d.deps.Publisher.Publish(s)
}
