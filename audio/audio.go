package audio

import (
	"errors"
	"strings"
)

// Fixed PCM layout of every capture session.
const (
	SampleRate     = 16000
	Channels       = 1
	BitsPerSample  = 16
	BytesPerFrame  = Channels * BitsPerSample / 8
	ChunkFrames    = 1024
	ChunkBytes     = ChunkFrames * BytesPerFrame
	WAVHeaderSize  = 44
	levelFullScale = 3276.70 // 32767 / 10; typical speech peaks land around 300-500
)

var ErrNoDevice = errors.New("no audio input device found")

// DataCallback receives raw S16LE frames from a capture backend. data is
// only valid for the duration of the call; backends reuse the buffer.
type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

// DefaultCaptureConfig is the only layout the engine records in.
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{SampleRate: SampleRate, Channels: Channels}
}

type DeviceInfo struct {
	ID      string // opaque platform-specific identifier
	Name    string
	Default bool
}

func (d *DeviceInfo) String() string {
	if d == nil {
		return "system default"
	}
	return d.Name
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	DeviceName() string
}

// isMonitor reports whether a source only mirrors an output (PulseAudio "*.monitor").
func isMonitor(id string) bool {
	return strings.HasSuffix(id, ".monitor")
}
