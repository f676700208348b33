package doctor

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"voxtray/audio"
	"voxtray/config"
)

func TestRunChecks(t *testing.T) {
	var buf bytes.Buffer
	code := RunChecks(&buf, []Check{
		{"first", func() (string, error) { return "fine", nil }},
		{"second", func() (string, error) { return "", errors.New("broken") }},
		{"third", func() (string, error) { return "still ran", nil }},
	})

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	out := buf.String()
	for _, want := range []string{"[1/3] first", "PASS: fine", "FAIL: broken", "PASS: still ran", "1 check(s) failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunChecksAllPass(t *testing.T) {
	var buf bytes.Buffer
	code := RunChecks(&buf, []Check{{"only", func() (string, error) { return "ok", nil }}})
	if code != 0 || !strings.Contains(buf.String(), "All checks passed!") {
		t.Errorf("code = %d, output:\n%s", code, buf.String())
	}
}

func TestCheckConfig(t *testing.T) {
	cfg := config.Default()
	if _, err := checkConfig(cfg); !errors.Is(err, config.ErrNoAPIKey) {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
	cfg.APIKey = "k"
	if msg, err := checkConfig(cfg); err != nil || !strings.Contains(msg, cfg.Model) {
		t.Errorf("msg = %q, err = %v", msg, err)
	}
}

func TestCheckDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	msg, err := checkDataDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(msg, "no prompt") {
		t.Errorf("msg = %q", msg)
	}
	if err := os.WriteFile(filepath.Join(dir, "prompt.txt"), []byte("Go"), 0644); err != nil {
		t.Fatal(err)
	}
	if msg, _ := checkDataDir(dir); !strings.Contains(msg, "prompt present") {
		t.Errorf("msg = %q", msg)
	}
}

func TestProbeEngine(t *testing.T) {
	pcm := make([]byte, audio.ChunkBytes*4)
	for i := 0; i < len(pcm); i += 2 {
		pcm[i] = 0x90 // 400
		pcm[i+1] = 0x01
	}
	fake := &audio.FakeContext{PCM: pcm}
	dev := &audio.DeviceInfo{ID: "fake", Name: "Fake Mic"}
	engine := audio.NewEngine(fake, dev, audio.WithTempDir(t.TempDir()))

	msg, err := probeEngine(engine, 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(msg, "Fake Mic") || !strings.Contains(msg, "peak level 12") {
		t.Errorf("msg = %q", msg)
	}
	if fake.Open() != 0 {
		t.Error("device left open")
	}
}
