package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"voxtray/audio"
	"voxtray/clipboard"
	"voxtray/config"
	"voxtray/dictation"
	"voxtray/log"
	"voxtray/loop"
	"voxtray/status"
	"voxtray/transcriber"
)

// runTestMode replays a WAV file instead of the microphone and reads
// commands from stdin, one per line:
//
//	TOGGLE           start or stop recording
//	WAIT             block until the current session settles
//	WAIT_AUDIO_DONE  block until the WAV has been fully replayed
//	SLEEP <ms>
//	STATE            print the current state
//	QUIT
func runTestMode(cfg *config.Config, opts *options) error {
	fake, err := audio.NewFakeContext(opts.testWAV, true)
	if err != nil {
		return fmt.Errorf("loading WAV: %w", err)
	}
	actx := &trackingContext{FakeContext: fake}
	dev := &audio.DeviceInfo{ID: "test", Name: "test: " + filepath.Base(opts.testWAV), Default: true}

	var tr transcriber.Transcriber
	if opts.fakeText != "" {
		tr = transcriber.NewFake(opts.fakeText, nil)
	} else {
		if err := cfg.Validate(); err != nil {
			return err
		}
		tr = transcriber.NewGroq(transcriber.GroqConfig{
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Model:    cfg.Model,
			Language: cfg.Language,
		})
	}

	var clip dictation.Clipboard = clipboard.System{}
	if err := clipboard.Check(); err != nil {
		clip = stdoutClipboard{}
	}

	if err := log.Init(opts.console); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()
	log.AppStart(version, dev.String(), "test")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := loop.New(nil)
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	go l.Run(loopCtx)

	settled := &settleWaiter{ch: make(chan struct{}, 16)}
	d, err := newDictation(ctx, l, cfg, dictation.Deps{
		Recorder:    audio.NewEngine(actx, dev),
		Transcriber: tr,
		Clipboard:   clip,
		Publisher:   status.Multi(status.Writer(os.Stdout), settled),
	})
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch cmd {
		case "":
		case "TOGGLE":
			d.Toggle()
		case "WAIT":
			<-settled.ch
		case "WAIT_AUDIO_DONE":
			if c := actx.last(); c != nil {
				<-c.AudioDone()
			}
		case "STATE":
			fmt.Printf("STATE %s\n", d.State())
		case "QUIT":
			shutdown(d, cancel)
			return nil
		default:
			if ms, ok := strings.CutPrefix(cmd, "SLEEP "); ok {
				if n, err := strconv.Atoi(ms); err == nil {
					time.Sleep(time.Duration(n) * time.Millisecond)
				}
				continue
			}
			log.Warnf("test mode: unknown command %q", cmd)
		}
	}
	shutdown(d, cancel)
	return nil
}

// trackingContext remembers the most recent capture so WAIT_AUDIO_DONE can
// block on it.
type trackingContext struct {
	*audio.FakeContext

	mu      sync.Mutex
	capture *audio.FakeCapture
}

func (t *trackingContext) NewCapture(device *audio.DeviceInfo, cfg audio.CaptureConfig) (audio.CaptureDevice, error) {
	c, err := t.FakeContext.NewCapture(device, cfg)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	t.capture = c.(*audio.FakeCapture)
	t.mu.Unlock()
	return c, nil
}

func (t *trackingContext) last() *audio.FakeCapture {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.capture
}

// settleWaiter signals once per session: on its outcome, or on the return
// to Ready when nothing was captured.
type settleWaiter struct {
	ch   chan struct{}
	prev status.Kind
}

func (w *settleWaiter) Publish(s status.Status) {
	settled := s.Kind.Terminal() ||
		(s.Kind == status.Idle && (w.prev == status.Recording || w.prev == status.Processing))
	w.prev = s.Kind
	if settled {
		select {
		case w.ch <- struct{}{}:
		default:
		}
	}
}

// stdoutClipboard stands in on machines without a clipboard backend.
type stdoutClipboard struct{}

func (stdoutClipboard) Copy(text string) error {
	fmt.Printf("CLIPBOARD %s\n", text)
	return nil
}
