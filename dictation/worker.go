package dictation

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"voxtray/audio"
	"voxtray/log"
	"voxtray/status"
	"voxtray/transcriber"
)

type session struct {
	gen    uint64
	cancel *atomic.Bool
}

type outcome struct {
	kind status.Kind
	text string
	err  error
}

func (d *Dictation) work(s session) {
	defer d.workers.Done()

	captured, err := d.capture(s)
	if err != nil {
		log.Errorf("capture failed: %v", err)
		d.loop.Post(func() { d.onOutcome(s.gen, outcome{kind: status.Error, err: err}) })
		return
	}
	d.loop.Post(func() { d.onCaptured(s.gen, captured != nil) })
	if captured == nil {
		log.Info("no audio captured")
		return
	}

	out := d.process(captured)
	log.Outcome(s.gen, out.kind.String(), len([]rune(out.text)), captured.Duration().Seconds())
	d.loop.Post(func() { d.onOutcome(s.gen, out) })
}

func (d *Dictation) capture(s session) (c *audio.Captured, err error) {
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, fmt.Errorf("capture panic: %v", r)
		}
	}()
	return d.deps.Recorder.Record(s.cancel, func(level int) {
		d.loop.Post(func() { d.onLevel(s.gen, level) })
	})
}

// process transcribes c and applies the success side effects. The file is
// removed on every path and a failed removal is only logged.
func (d *Dictation) process(c *audio.Captured) (out outcome) {
	defer func() {
		if err := d.deps.Remove(c); err != nil {
			log.Warnf("removing %s: %v", c.Path, err)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			out = outcome{kind: status.Error, err: fmt.Errorf("transcription panic: %v", r)}
		}
	}()

	var prompt string
	if d.deps.Prompt != nil {
		prompt, _ = d.deps.Prompt.Load()
	}

	res, err := d.deps.Transcriber.Transcribe(d.ctx, transcriber.Request{
		Path:     c.Path,
		Prompt:   prompt,
		Duration: c.Duration(),
	})
	if err == nil && res == nil {
		err = errors.New("empty transcription result")
	}
	if err != nil {
		log.Errorf("transcription failed: %v", err)
		return outcome{kind: status.Error, err: err}
	}

	text := strings.TrimSpace(res.Text)
	if text == "" {
		return outcome{kind: status.NoSpeech}
	}

	if d.deps.History != nil {
		if err := d.deps.History.Append(text); err != nil {
			log.Warnf("history append failed: %v", err)
		}
	}
	if d.deps.Clipboard != nil {
		if err := d.deps.Clipboard.Copy(text); err != nil {
			log.Warnf("clipboard write failed: %v", err)
		}
	}
	return outcome{kind: status.Success, text: text}
}
