package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"voxtray/audio"
	"voxtray/clipboard"
	"voxtray/config"
	"voxtray/dictation"
	"voxtray/hotkey"
	"voxtray/log"
	"voxtray/loop"
	"voxtray/signals"
	"voxtray/status"
	"voxtray/store"
	"voxtray/transcriber"
	"voxtray/tray"
)

// runApp performs the fatal startup checks, wires the state machine to the
// chosen surface and blocks until the user quits.
func runApp(cfg *config.Config, opts *options) error {
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrNoAPIKey) {
			return fmt.Errorf("%w: export it or add api_key to %s", err, filepath.Join(config.Dir(), "config.toml"))
		}
		return err
	}
	if err := clipboard.Check(); err != nil {
		return fmt.Errorf("%w: install xclip, xsel or wl-clipboard", err)
	}

	actx, err := audio.NewContext()
	if err != nil {
		return fmt.Errorf("initializing audio: %w", err)
	}
	defer actx.Close()

	dev, err := pickDevice(actx, cfg.Device, opts.setup)
	if err != nil {
		return err
	}

	if err := log.Init(opts.console); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	groq := transcriber.NewGroq(transcriber.GroqConfig{
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Model:    cfg.Model,
		Language: cfg.Language,
	})

	var pub status.Publisher
	switch cfg.UI {
	case config.UITray:
		pub = tray.Publisher{}
	case config.UITUI:
		pub = tuiPublisher{}
	default:
		pub = status.Writer(os.Stdout)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := loop.New(nil)
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	go l.Run(loopCtx)

	d, err := newDictation(ctx, l, cfg, dictation.Deps{
		Recorder:    audio.NewEngine(actx, dev),
		Transcriber: groq,
		Clipboard:   clipboard.System{},
		Publisher:   pub,
	})
	if err != nil {
		return err
	}

	log.AppStart(version, dev.String(), cfg.UI)
	if signals.ForwardToggle(ctx, d.Toggle) {
		log.Infof("toggle with: kill -%s %d", signals.ToggleSignalName(), os.Getpid())
	}
	if cfg.Hotkey {
		startHotkey(ctx, d.Toggle)
	}

	quit := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signals.Notify(sigCh)

	switch cfg.UI {
	case config.UITray:
		trayQuit := tray.Init(d.Toggle)
		d.Announce()
		go func() {
			select {
			case <-trayQuit:
			case <-sigCh:
			}
			close(quit)
		}()
	case config.UITUI:
		tuiMu.Lock()
		tuiProgram = NewTUIProgram(d.Toggle)
		tuiMu.Unlock()
		go func() {
			<-sigCh
			tuiProgram.Quit()
		}()
		go func() {
			tuiSend(DeviceLineMsg{Text: "mic: " + dev.String()})
			tuiSend(ModeLineMsg{Text: modeLineText(cfg)})
			d.Announce()
		}()
		if _, err := tuiProgram.Run(); err != nil {
			log.Errorf("TUI error: %v", err)
		}
		close(quit)
	default:
		fmt.Printf("voxtray %s recording from %s\n", version, dev)
		if name := signals.ToggleSignalName(); name != "" {
			fmt.Printf("toggle with: kill -%s %d\n", name, os.Getpid())
		}
		d.Announce()
		go func() {
			<-sigCh
			close(quit)
		}()
	}

	<-quit
	shutdown(d, cancel)
	if cfg.UI == config.UITray {
		tray.Quit()
	}
	return nil
}

// newDictation prepares the data directory and builds the state machine
// around deps. History and prompt always come from cfg.DataDir.
func newDictation(ctx context.Context, l *loop.Loop, cfg *config.Config, deps dictation.Deps) (*dictation.Dictation, error) {
	if err := store.EnsureDir(cfg.DataDir); err != nil {
		return nil, err
	}
	prompt := store.NewPrompt(cfg.DataDir)
	if err := prompt.Seed(store.DefaultPrompt); err != nil {
		log.Warnf("%v", err)
	}
	deps.Prompt = prompt
	deps.History = store.NewHistory(cfg.DataDir)

	dcfg := dictation.DefaultConfig()
	dcfg.SuccessDelay = cfg.SuccessDelay
	dcfg.ErrorDelay = cfg.ErrorDelay
	return dictation.New(ctx, l, dcfg, deps), nil
}

// shutdown stops any live recording, aborts in-flight requests and waits
// for the worker to clean up its temp file.
func shutdown(d *dictation.Dictation, cancel context.CancelFunc) {
	d.Stop()
	cancel()
	d.Wait()
	log.AppEnd(d.Sessions())
}

func pickDevice(actx audio.Context, name string, setup bool) (*audio.DeviceInfo, error) {
	if setup && name == "" {
		dev, err := audio.SelectDevice(actx)
		if err == nil {
			return dev, nil
		}
		fmt.Printf("Warning: device selection failed: %v\n", err)
		fmt.Println("Falling back to default device")
	}
	dev, err := audio.ResolveDevice(actx, name)
	if err != nil {
		if errors.Is(err, audio.ErrNoDevice) {
			return nil, fmt.Errorf("%w: connect a microphone or pass --device", err)
		}
		return nil, err
	}
	return dev, nil
}

func startHotkey(ctx context.Context, toggle func()) {
	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		log.Warnf("global hotkey unavailable: %v", err)
		return
	}
	go func() {
		<-ctx.Done()
		hk.Unregister()
	}()
	go hotkey.Forward(ctx, hk, toggle)
}

func modeLineText(cfg *config.Config) string {
	lang := cfg.Language
	if lang == "" {
		lang = "auto"
	}
	return fmt.Sprintf("[%s | %s]", cfg.Model, lang)
}
