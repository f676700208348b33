package audio

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ResolveDevice picks the input device a session records from. An explicitly
// named device must exist. Otherwise the system default input wins, then the
// first input-capable device. No devices at all yields ErrNoDevice.
func ResolveDevice(ctx Context, name string) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}

	if name != "" {
		for i := range devices {
			if devices[i].Name == name || devices[i].ID == name {
				return &devices[i], nil
			}
		}
		return nil, fmt.Errorf("input device %q not found: %w", name, ErrNoDevice)
	}

	if len(devices) == 0 {
		return nil, ErrNoDevice
	}
	for i := range devices {
		if devices[i].Default {
			return &devices[i], nil
		}
	}
	return &devices[0], nil
}

type pickKey int

const (
	keyNone pickKey = iota
	keyUp
	keyDown
	keyAccept
	keyAbort
)

// decodeKey maps one raw-mode read to a picker action. Arrow keys arrive as
// a three byte CSI sequence.
func decodeKey(b []byte) pickKey {
	switch {
	case len(b) == 1:
		switch b[0] {
		case '\r', '\n':
			return keyAccept
		case 3, 'q':
			return keyAbort
		case 'k':
			return keyUp
		case 'j':
			return keyDown
		}
	case len(b) == 3 && b[0] == 0x1b && b[1] == '[':
		switch b[2] {
		case 'A':
			return keyUp
		case 'B':
			return keyDown
		}
	}
	return keyNone
}

type picker struct {
	devices []DeviceInfo
	cursor  int
}

func newPicker(devices []DeviceInfo) *picker {
	p := &picker{devices: devices}
	for i := range devices {
		if devices[i].Default {
			p.cursor = i
			break
		}
	}
	return p
}

func (p *picker) move(k pickKey) {
	switch k {
	case keyUp:
		if p.cursor > 0 {
			p.cursor--
		}
	case keyDown:
		if p.cursor < len(p.devices)-1 {
			p.cursor++
		}
	}
}

// lines is the number of terminal rows one render occupies.
func (p *picker) lines() int { return len(p.devices) + 2 }

func (p *picker) render(w io.Writer) {
	fmt.Fprint(w, "\r\x1b[J")
	fmt.Fprint(w, "Select input device (↑/↓, Enter to confirm):\r\n\r\n")
	for i, d := range p.devices {
		tag := ""
		if d.Default {
			tag = " \x1b[2m(default)\x1b[0m"
		}
		if i == p.cursor {
			fmt.Fprintf(w, "  \x1b[1;36m▶ %s\x1b[0m%s\r\n", d.Name, tag)
		} else {
			fmt.Fprintf(w, "    %s%s\r\n", d.Name, tag)
		}
	}
}

// SelectDevice lets the user choose an input device with the arrow keys.
// A single device is returned without prompting. Aborting the picker exits
// the process with status 130.
func SelectDevice(ctx Context) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	switch len(devices) {
	case 0:
		return nil, ErrNoDevice
	case 1:
		return &devices[0], nil
	}

	fd := int(os.Stdin.Fd())
	saved, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, saved)

	p := newPicker(devices)
	p.render(os.Stdout)

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		switch k := decodeKey(buf[:n]); k {
		case keyAccept:
			fmt.Print("\r\n")
			return &devices[p.cursor], nil
		case keyAbort:
			fmt.Print("\r\n")
			term.Restore(fd, saved)
			os.Exit(130)
		default:
			p.move(k)
		}
		fmt.Printf("\x1b[%dA", p.lines())
		p.render(os.Stdout)
	}
}
