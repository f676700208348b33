package audio

import (
	"errors"
	"strings"
	"testing"
)

func TestResolveDevice(t *testing.T) {
	mic := DeviceInfo{ID: "alsa_input.usb", Name: "USB Mic"}
	builtin := DeviceInfo{ID: "alsa_input.pci", Name: "Built-in", Default: true}

	for _, tt := range []struct {
		name    string
		devices []DeviceInfo
		want    string
		wantErr bool
		config  string
	}{
		{name: "default preferred", devices: []DeviceInfo{mic, builtin}, want: "Built-in"},
		{name: "first when no default", devices: []DeviceInfo{mic, {ID: "x", Name: "Other"}}, want: "USB Mic"},
		{name: "configured by name", devices: []DeviceInfo{mic, builtin}, config: "USB Mic", want: "USB Mic"},
		{name: "configured by id", devices: []DeviceInfo{mic, builtin}, config: "alsa_input.pci", want: "Built-in"},
		{name: "configured missing", devices: []DeviceInfo{mic}, config: "Headset", wantErr: true},
		{name: "none", wantErr: true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &FakeContext{DeviceList: tt.devices}
			dev, err := ResolveDevice(ctx, tt.config)
			if tt.wantErr {
				if !errors.Is(err, ErrNoDevice) {
					t.Fatalf("err = %v, want ErrNoDevice", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if dev.Name != tt.want {
				t.Errorf("got %q, want %q", dev.Name, tt.want)
			}
		})
	}
}

func TestIsMonitor(t *testing.T) {
	if !isMonitor("alsa_output.pci.analog-stereo.monitor") {
		t.Error("monitor source not detected")
	}
	if isMonitor("alsa_input.pci.analog-stereo") {
		t.Error("input source flagged as monitor")
	}
}

func TestDecodeKey(t *testing.T) {
	for _, tt := range []struct {
		in   []byte
		want pickKey
	}{
		{[]byte{'\r'}, keyAccept},
		{[]byte{3}, keyAbort},
		{[]byte{'k'}, keyUp},
		{[]byte{'j'}, keyDown},
		{[]byte{0x1b, '[', 'A'}, keyUp},
		{[]byte{0x1b, '[', 'B'}, keyDown},
		{[]byte{0x1b, '[', 'C'}, keyNone},
		{[]byte{'x'}, keyNone},
		{nil, keyNone},
	} {
		if got := decodeKey(tt.in); got != tt.want {
			t.Errorf("decodeKey(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPickerStartsOnDefaultAndClamps(t *testing.T) {
	p := newPicker([]DeviceInfo{{Name: "a"}, {Name: "b", Default: true}, {Name: "c"}})
	if p.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", p.cursor)
	}
	p.move(keyDown)
	p.move(keyDown)
	if p.cursor != 2 {
		t.Errorf("cursor = %d after moving past end, want 2", p.cursor)
	}
	for range 4 {
		p.move(keyUp)
	}
	if p.cursor != 0 {
		t.Errorf("cursor = %d after moving past start, want 0", p.cursor)
	}

	var sb strings.Builder
	p.render(&sb)
	if got := strings.Count(sb.String(), "\r\n"); got != p.lines() {
		t.Errorf("render wrote %d lines, want %d", got, p.lines())
	}
	if !strings.Contains(sb.String(), "▶ a") {
		t.Errorf("cursor row not highlighted:\n%q", sb.String())
	}
}
