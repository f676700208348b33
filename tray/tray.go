// Package tray shows the dictation status as a system tray icon with a small
// menu: a title, the current status line, a toggle item and Quit.
package tray

import (
	"sync"

	"fyne.io/systray"

	"voxtray/status"
)

const appTitle = "Voice to Text"

var (
	quitCh    = make(chan struct{})
	closeOnce sync.Once

	toggleFn func()

	mu      sync.Mutex
	ready   bool
	pending *status.Status

	mStatus *systray.MenuItem
	mToggle *systray.MenuItem
)

// Init starts the tray and returns a channel that closes when the user picks
// Quit. onToggle runs on a tray goroutine for each click on the toggle item.
func Init(onToggle func()) <-chan struct{} {
	toggleFn = onToggle
	start, _ := systray.RunWithExternalLoop(onReady, onExit)
	runOnMain(start)
	return quitCh
}

func Quit() {
	closeOnce.Do(func() {
		close(quitCh)
		systray.Quit()
	})
}

// Publisher renders statuses into the tray. Statuses published before the
// tray is ready are held and applied once it is.
type Publisher struct{}

func (Publisher) Publish(s status.Status) {
	mu.Lock()
	if !ready {
		pending = &s
		mu.Unlock()
		return
	}
	mu.Unlock()
	apply(s)
}

type menuState struct {
	title        string
	tooltip      string
	statusLine   string
	toggleTitle  string
	toggleActive bool
}

func stateFor(s status.Status) menuState {
	m := menuState{
		title:        s.Label(),
		tooltip:      appTitle + ": " + s.Text(),
		statusLine:   "Status: " + s.Text(),
		toggleTitle:  "Start recording",
		toggleActive: true,
	}
	switch s.Kind {
	case status.Recording:
		m.toggleTitle = "Stop recording"
	case status.Processing:
		m.toggleActive = false
	}
	return m
}

func apply(s status.Status) {
	m := stateFor(s)
	systray.SetIcon(iconFor(s))
	systray.SetTitle(m.title)
	systray.SetTooltip(m.tooltip)
	if mStatus != nil {
		mStatus.SetTitle(m.statusLine)
	}
	if mToggle != nil {
		mToggle.SetTitle(m.toggleTitle)
		if m.toggleActive {
			mToggle.Enable()
		} else {
			mToggle.Disable()
		}
	}
}

func onReady() {
	systray.SetIcon(iconFor(status.Ready()))
	systray.SetTitle(status.Ready().Label())
	systray.SetTooltip(appTitle)

	mTitle := systray.AddMenuItem(appTitle, "")
	mTitle.Disable()
	mStatus = systray.AddMenuItem("Status: "+status.Ready().Text(), "")
	mStatus.Disable()
	systray.AddSeparator()
	mToggle = systray.AddMenuItem("Start recording", "Start or stop recording")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit "+appTitle)

	go func() {
		for {
			select {
			case <-mToggle.ClickedCh:
				if toggleFn != nil {
					toggleFn()
				}
			case <-mQuit.ClickedCh:
				Quit()
				return
			case <-quitCh:
				return
			}
		}
	}()

	mu.Lock()
	ready = true
	p := pending
	pending = nil
	mu.Unlock()
	if p != nil {
		apply(*p)
	}
}

func onExit() {
	closeOnce.Do(func() { close(quitCh) })
}
