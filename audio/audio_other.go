//go:build !linux

package audio

import (
	"encoding/hex"
	"fmt"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

// miniaudio backend for macOS and Windows.
type malgoContext struct {
	ctx *malgo.AllocatedContext
}

func NewContext() (Context, error) {
	m := &malgoContext{}
	err := Quiet(func() (err error) {
		m.ctx, err = malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("malgo init: %w", err)
	}
	return m, nil
}

func (m *malgoContext) Devices() ([]DeviceInfo, error) {
	infos, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("malgo devices: %w", err)
	}
	out := make([]DeviceInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, DeviceInfo{
			ID:      hex.EncodeToString(info.ID[:]),
			Name:    info.Name(),
			Default: info.IsDefault != 0,
		})
	}
	return out, nil
}

// parseDeviceID reverses the hex encoding Devices hands out.
func parseDeviceID(s string) (malgo.DeviceID, error) {
	var id malgo.DeviceID
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("invalid device ID %q: %w", s, err)
	}
	copy(id[:], raw)
	return id, nil
}

func (m *malgoContext) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	dc := malgo.DefaultDeviceConfig(malgo.Capture)
	dc.SampleRate = config.SampleRate
	dc.PeriodSizeInFrames = ChunkFrames
	dc.Capture.Format = malgo.FormatS16
	dc.Capture.Channels = config.Channels
	if device != nil {
		id, err := parseDeviceID(device.ID)
		if err != nil {
			return nil, err
		}
		dc.Capture.DeviceID = id.Pointer()
	}

	c := &malgoCapture{info: device}
	err := Quiet(func() (err error) {
		c.dev, err = malgo.InitDevice(m.ctx.Context, dc, malgo.DeviceCallbacks{Data: c.onData})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", device, err)
	}
	return c, nil
}

func (m *malgoContext) Close() {
	m.ctx.Uninit()
	m.ctx.Free()
}

type malgoCapture struct {
	dev  *malgo.Device
	info *DeviceInfo
	cb   atomic.Pointer[DataCallback]
}

// onData runs on the miniaudio thread.
func (c *malgoCapture) onData(_, input []byte, frames uint32) {
	if cb := c.cb.Load(); cb != nil {
		(*cb)(input, frames)
	}
}

func (c *malgoCapture) Start() error { return c.dev.Start() }

func (c *malgoCapture) Stop() { c.dev.Stop() }

func (c *malgoCapture) Close() { c.dev.Uninit() }

func (c *malgoCapture) SetCallback(cb DataCallback) { c.cb.Store(&cb) }

func (c *malgoCapture) ClearCallback() { c.cb.Store(nil) }

func (c *malgoCapture) DeviceName() string { return c.info.String() }
