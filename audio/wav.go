package audio

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Captured is the audio a finished session hands off: a temporary WAV file
// holding the session's PCM. Whoever receives it is responsible for Remove.
type Captured struct {
	Path       string
	SampleRate int
	Channels   int
	Frames     int
}

func (c *Captured) Duration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(c.Frames) * time.Second / time.Duration(c.SampleRate)
}

func (c *Captured) Remove() error {
	return os.Remove(c.Path)
}

// WriteWAV stores s16le mono PCM in a new temp file under dir ("" = os.TempDir).
func WriteWAV(dir string, pcm []byte) (*Captured, error) {
	f, err := os.CreateTemp(dir, "voxtray-*.wav")
	if err != nil {
		return nil, fmt.Errorf("creating temp wav: %w", err)
	}

	nSamples := len(pcm) / 2
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: Channels,
			SampleRate:  SampleRate,
		},
		Data:           make([]int, nSamples),
		SourceBitDepth: BitsPerSample,
	}
	for i := range nSamples {
		buf.Data[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}

	enc := wav.NewEncoder(f, SampleRate, BitsPerSample, Channels, 1)
	if err := enc.Write(buf); err != nil {
		enc.Close()
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("writing wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("finalizing wav: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, err
	}

	return &Captured{
		Path:       f.Name(),
		SampleRate: SampleRate,
		Channels:   Channels,
		Frames:     nSamples / Channels,
	}, nil
}

// ReadWAV returns the PCM payload of a 16-bit WAV file as s16le bytes.
func ReadWAV(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: not a valid wav file", path)
	}
	if dec.BitDepth != BitsPerSample {
		return nil, fmt.Errorf("%s: %d-bit wav, want %d-bit", path, dec.BitDepth, BitsPerSample)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	pcm := make([]byte, len(buf.Data)*2)
	for i, s := range buf.Data {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(s)))
	}
	return pcm, nil
}
