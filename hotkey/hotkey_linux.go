//go:build linux

package hotkey

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Linux input_event: 16 bytes of timeval, then type, code and value.
const inputEventSize = 24

const (
	evKey      = 1
	keyPress   = 1
	keyRelease = 0
	keyLCtrl   = 29
	keyRCtrl   = 97
	keyLShift  = 42
	keyRShift  = 54
	keySpace   = 57
)

var (
	devInputDir = "/dev/input"
	sysInputDir = "/sys/class/input"
)

var errNoKeyboard = errors.New("no keyboard devices found (is user in 'input' group?)")

type keyboard struct {
	path string
	name string
}

type linuxHotkey struct {
	pressed chan struct{}

	mu    sync.Mutex
	files []*os.File
	once  sync.Once
}

// New reads every keyboard under /dev/input directly, so the chord works
// under X11 and Wayland alike. It needs read access to the event devices.
func New() Hotkey {
	return &linuxHotkey{pressed: make(chan struct{}, 1)}
}

func (h *linuxHotkey) Register() error {
	kbs, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("finding keyboards: %w", err)
	}
	if len(kbs) == 0 {
		return errNoKeyboard
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, kb := range kbs {
		f, err := os.Open(kb.path)
		if err != nil {
			continue
		}
		h.files = append(h.files, f)
		go h.readEvents(f)
	}
	if len(h.files) == 0 {
		return fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}
	return nil
}

// chord tracks Ctrl+Shift+Space on one keyboard. Left and right modifiers
// are tracked apart so releasing one side keeps the other held.
type chord struct {
	lctrl, rctrl, lshift, rshift bool
	space                        bool
}

// feed consumes raw input_event records and reports how many times the
// chord went down. Auto-repeat of a held space does not count.
func (c *chord) feed(buf []byte) int {
	presses := 0
	for i := 0; i+inputEventSize <= len(buf); i += inputEventSize {
		typ := binary.LittleEndian.Uint16(buf[i+16:])
		code := binary.LittleEndian.Uint16(buf[i+18:])
		value := int32(binary.LittleEndian.Uint32(buf[i+20:]))
		if typ != evKey || (value != keyPress && value != keyRelease) {
			continue
		}
		down := value == keyPress

		switch code {
		case keyLCtrl:
			c.lctrl = down
		case keyRCtrl:
			c.rctrl = down
		case keyLShift:
			c.lshift = down
		case keyRShift:
			c.rshift = down
		case keySpace:
			if down && !c.space && (c.lctrl || c.rctrl) && (c.lshift || c.rshift) {
				presses++
			}
			c.space = down
		}
	}
	return presses
}

func (h *linuxHotkey) readEvents(f *os.File) {
	buf := make([]byte, inputEventSize*16)
	var c chord
	for {
		n, err := f.Read(buf)
		if err != nil {
			// Unregister closes f, which ends the read.
			return
		}
		for range c.feed(buf[:n]) {
			select {
			case h.pressed <- struct{}{}:
			default:
			}
		}
	}
}

func (h *linuxHotkey) Unregister() {
	h.once.Do(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for _, f := range h.files {
			f.Close()
		}
		h.files = nil
	})
}

func (h *linuxHotkey) Pressed() <-chan struct{} {
	return h.pressed
}

func findKeyboards() ([]keyboard, error) {
	entries, err := os.ReadDir(devInputDir)
	if err != nil {
		return nil, err
	}
	var kbs []keyboard
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		caps, err := os.ReadFile(filepath.Join(sysInputDir, e.Name(), "device", "capabilities", "key"))
		if err != nil || !hasChordKeys(string(caps)) {
			continue
		}
		name, _ := os.ReadFile(filepath.Join(sysInputDir, e.Name(), "device", "name"))
		kbs = append(kbs, keyboard{
			path: filepath.Join(devInputDir, e.Name()),
			name: strings.TrimSpace(string(name)),
		})
	}
	return kbs, nil
}

// hasChordKeys parses a sysfs key capability bitmap (hex words, most
// significant first) and reports whether Ctrl, Shift and Space are present.
// Mice and power buttons expose key bitmaps too, but not these keys.
func hasChordKeys(caps string) bool {
	words := strings.Fields(caps)
	bit := func(n int) bool {
		idx := len(words) - 1 - n/64
		if idx < 0 {
			return false
		}
		w, err := strconv.ParseUint(words[idx], 16, 64)
		if err != nil {
			return false
		}
		return w&(1<<(n%64)) != 0
	}
	return bit(keyLCtrl) && bit(keyLShift) && bit(keySpace)
}

func Diagnose() (string, error) {
	kbs, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(kbs) == 0 {
		return "", errNoKeyboard
	}

	for _, kb := range kbs {
		f, err := os.Open(kb.path)
		if err != nil {
			continue
		}
		f.Close()
		label := kb.path
		if kb.name != "" {
			label = kb.name + " (" + kb.path + ")"
		}
		return fmt.Sprintf("%d keyboard(s) found, opened %s", len(kbs), label), nil
	}
	return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(kbs))
}
