package audio

import (
	"bytes"
	"os"
	"testing"
	"time"
)

func TestWriteWAVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	pcm := pcmOf(0, 1, -1, 32767, -32768, 1234)

	c, err := WriteWAV(dir, pcm)
	if err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	if c.Frames != 6 || c.SampleRate != SampleRate || c.Channels != Channels {
		t.Errorf("captured = %+v", c)
	}

	info, err := os.Stat(c.Path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != int64(WAVHeaderSize+len(pcm)) {
		t.Errorf("file size = %d, want %d", info.Size(), WAVHeaderSize+len(pcm))
	}

	got, err := ReadWAV(c.Path)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	if !bytes.Equal(got, pcm) {
		t.Errorf("pcm mismatch: got %v, want %v", got, pcm)
	}

	if err := c.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(c.Path); !os.IsNotExist(err) {
		t.Errorf("file still exists after Remove")
	}
}

func TestCapturedDuration(t *testing.T) {
	c := &Captured{SampleRate: SampleRate, Frames: SampleRate / 2}
	if got := c.Duration(); got != 500*time.Millisecond {
		t.Errorf("Duration() = %v, want 500ms", got)
	}
}

func TestReadWAVRejectsGarbage(t *testing.T) {
	path := t.TempDir() + "/junk.wav"
	if err := os.WriteFile(path, []byte("not a riff file at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadWAV(path); err == nil {
		t.Error("expected error for invalid wav")
	}
}
