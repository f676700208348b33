package status

import (
	"fmt"
	"strings"
)

type Kind int

const (
	Idle Kind = iota
	Recording
	Processing
	Success
	NoSpeech
	Error
)

func (k Kind) String() string {
	switch k {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	case Success:
		return "success"
	case NoSpeech:
		return "no_speech"
	case Error:
		return "error"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Terminal reports whether k is one of the transient outcome states that
// return to Idle on their own.
func (k Kind) Terminal() bool {
	return k == Success || k == NoSpeech || k == Error
}

// Icon is a rendering hint for surfaces that draw an icon per state.
type Icon int

const (
	IconIdle Icon = iota
	IconRecording
	IconBusy
	IconDone
	IconWarn
)

// Status is what the state machine presents to a UI. Tier is only meaningful
// for Recording and Preview only for Success.
type Status struct {
	Kind    Kind
	Tier    Tier
	Preview string
}

func Ready() Status { return Status{Kind: Idle} }
func Level(t Tier) Status { return Status{Kind: Recording, Tier: t} }
func Busy() Status { return Status{Kind: Processing} }
func Copied(preview string) Status { return Status{Kind: Success, Preview: preview} }
func Silent() Status { return Status{Kind: NoSpeech} }
func Failed() Status { return Status{Kind: Error} }

// Text is the status line shown in menus and terminals.
func (s Status) Text() string {
	switch s.Kind {
	case Recording:
		return "Recording " + s.Tier.Dots()
	case Processing:
		return "Processing..."
	case Success:
		return "✓ Copied: " + s.Preview
	case NoSpeech:
		return "No speech detected"
	case Error:
		return "Error"
	default:
		return "Ready"
	}
}

// Label is the short form used as a tray title.
func (s Status) Label() string {
	switch s.Kind {
	case Recording:
		return "🎤" + s.Tier.Dots()
	case Processing:
		return "🎤..."
	case Success:
		return "🎤✓"
	case NoSpeech, Error:
		return "🎤!"
	default:
		return "🎤"
	}
}

func (s Status) Icon() Icon {
	switch s.Kind {
	case Recording:
		return IconRecording
	case Processing:
		return IconBusy
	case Success:
		return IconDone
	case NoSpeech, Error:
		return IconWarn
	default:
		return IconIdle
	}
}

func (s Status) String() string { return s.Text() }

// Preview returns the first n runes of text, followed by "..." when text
// was longer than that.
func Preview(text string, n int) string {
	text = strings.TrimSpace(text)
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}
