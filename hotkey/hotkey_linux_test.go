//go:build linux

package hotkey

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func event(typ, code uint16, value int32) []byte {
	b := make([]byte, inputEventSize)
	binary.LittleEndian.PutUint16(b[16:], typ)
	binary.LittleEndian.PutUint16(b[18:], code)
	binary.LittleEndian.PutUint32(b[20:], uint32(value))
	return b
}

func events(evs ...[]byte) []byte {
	var out []byte
	for _, e := range evs {
		out = append(out, e...)
	}
	return out
}

const keyRepeat = 2

func TestChordPress(t *testing.T) {
	var c chord
	buf := events(
		event(evKey, keyLCtrl, keyPress),
		event(evKey, keyLShift, keyPress),
		event(evKey, keySpace, keyPress),
		event(evKey, keySpace, keyRepeat),
		event(evKey, keySpace, keyRepeat),
		event(evKey, keySpace, keyRelease),
		event(evKey, keySpace, keyPress),
	)
	if got := c.feed(buf); got != 2 {
		t.Errorf("presses = %d, want 2 (repeats ignored)", got)
	}
}

func TestChordNeedsModifiers(t *testing.T) {
	var c chord
	buf := events(
		event(evKey, keyRCtrl, keyPress),
		event(evKey, keySpace, keyPress),
		event(evKey, keySpace, keyRelease),
		event(evKey, keyRShift, keyPress),
		event(evKey, keyRCtrl, keyRelease),
		event(evKey, keySpace, keyPress),
	)
	if got := c.feed(buf); got != 0 {
		t.Errorf("presses = %d, want 0", got)
	}
}

func TestChordSpansReads(t *testing.T) {
	var c chord
	if got := c.feed(events(event(evKey, keyLCtrl, keyPress), event(evKey, keyLShift, keyPress))); got != 0 {
		t.Fatalf("presses = %d before space", got)
	}
	if got := c.feed(events(event(0, 0, 0), event(evKey, keySpace, keyPress))); got != 1 {
		t.Errorf("presses = %d, want 1", got)
	}
}

func TestChordSideRelease(t *testing.T) {
	var c chord
	buf := events(
		event(evKey, keyLCtrl, keyPress),
		event(evKey, keyLShift, keyPress),
		event(evKey, keyRShift, keyPress),
		event(evKey, keyLShift, keyRelease),
		event(evKey, keySpace, keyPress),
	)
	if got := c.feed(buf); got != 1 {
		t.Errorf("presses = %d, want 1 with right shift still held", got)
	}
}

func keyBits(codes ...int) uint64 {
	var w uint64
	for _, c := range codes {
		w |= 1 << c
	}
	return w
}

func TestHasChordKeys(t *testing.T) {
	kb := strconv.FormatUint(keyBits(keyLCtrl, keyLShift, keySpace, 30, 31), 16)
	tests := []struct {
		caps string
		want bool
	}{
		{kb, true},
		{"1f0000 0 0 " + kb, true},
		{"1f0000 0 0 0 0", false},
		{strconv.FormatUint(keyBits(keySpace), 16), false},
		{"", false},
		{"zz", false},
	}
	for _, tt := range tests {
		if got := hasChordKeys(tt.caps); got != tt.want {
			t.Errorf("hasChordKeys(%q) = %v, want %v", tt.caps, got, tt.want)
		}
	}
}

func TestFindKeyboards(t *testing.T) {
	dev, sys := t.TempDir(), t.TempDir()
	oldDev, oldSys := devInputDir, sysInputDir
	devInputDir, sysInputDir = dev, sys
	t.Cleanup(func() { devInputDir, sysInputDir = oldDev, oldSys })

	kb := strconv.FormatUint(keyBits(keyLCtrl, keyLShift, keySpace), 16)
	for name, caps := range map[string]string{"event0": kb + "\n", "event1": "1f0000 0 0 0 0\n"} {
		os.WriteFile(filepath.Join(dev, name), nil, 0644)
		d := filepath.Join(sys, name, "device")
		os.MkdirAll(filepath.Join(d, "capabilities"), 0755)
		os.WriteFile(filepath.Join(d, "capabilities", "key"), []byte(caps), 0644)
		os.WriteFile(filepath.Join(d, "name"), []byte("Test "+name+"\n"), 0644)
	}
	os.WriteFile(filepath.Join(dev, "mouse0"), nil, 0644)

	kbs, err := findKeyboards()
	if err != nil {
		t.Fatal(err)
	}
	if len(kbs) != 1 {
		t.Fatalf("keyboards = %+v, want only event0", kbs)
	}
	if kbs[0].path != filepath.Join(dev, "event0") || kbs[0].name != "Test event0" {
		t.Errorf("keyboard = %+v", kbs[0])
	}

	msg, err := Diagnose()
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if want := "1 keyboard(s) found, opened Test event0"; len(msg) < len(want) || msg[:len(want)] != want {
		t.Errorf("Diagnose = %q", msg)
	}
}
