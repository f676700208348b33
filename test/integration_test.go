//go:build integration

package test_test

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var (
	testBinary string
	toneWAV    string
	silenceWAV string
)

func TestMain(m *testing.M) {
	testBinary = os.Getenv("VOXTRAY_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "VOXTRAY_TEST_BIN not set; build with: go build -o /tmp/voxtray . && VOXTRAY_TEST_BIN=/tmp/voxtray")
		os.Exit(1)
	}

	dir, err := os.MkdirTemp("", "voxtray-integration")
	if err != nil {
		fmt.Fprintf(os.Stderr, "temp dir: %v\n", err)
		os.Exit(1)
	}

	toneWAV = filepath.Join(dir, "tone.wav")
	silenceWAV = filepath.Join(dir, "silence.wav")
	if err := generateWAV(toneWAV, 16000, 1.0, 440, 8000); err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate tone.wav: %v\n", err)
		os.Exit(1)
	}
	if err := generateWAV(silenceWAV, 16000, 1.0, 0, 0); err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate silence.wav: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// generateWAV writes mono 16-bit PCM: a sine of freq Hz at amp, or silence.
func generateWAV(path string, sampleRate int, durationS float64, freq, amp float64) error {
	const headerSize = 44
	numSamples := int(float64(sampleRate) * durationS)
	dataSize := numSamples * 2

	buf := make([]byte, headerSize+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(headerSize-8+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)  // block align
	binary.LittleEndian.PutUint16(buf[34:36], 16) // bits per sample
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	for i := 0; i < numSamples; i++ {
		v := amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
		binary.LittleEndian.PutUint16(buf[headerSize+2*i:], uint16(int16(v)))
	}

	return os.WriteFile(path, buf, 0644)
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

type runDirs struct {
	logDir  string
	dataDir string
	stdout  string
}

func runVoxtray(t *testing.T, stdin string, args ...string) runDirs {
	t.Helper()
	d := runDirs{logDir: t.TempDir(), dataDir: t.TempDir()}
	cmdArgs := append([]string{"--logpath", d.logDir}, args...)

	cmd := exec.Command(testBinary, cmdArgs...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(os.Environ(),
		"VOXTRAY_DATA_DIR="+d.dataDir,
		"XDG_CONFIG_HOME="+t.TempDir(),
	)

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("voxtray exited with error: %v\noutput: %s", err, out)
	}
	d.stdout = string(out)
	return d
}

func readFile(t *testing.T, dir, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

func requireGroqKey(t *testing.T) {
	t.Helper()
	if os.Getenv("GROQ_API_KEY") == "" {
		t.Skip("GROQ_API_KEY not set")
	}
}

func TestFakeTranscription(t *testing.T) {
	d := runVoxtray(t, cmds("TOGGLE", "SLEEP 300", "TOGGLE", "WAIT", "QUIT"),
		"--test", toneWAV, "--fake-text", "hello world")

	history := readFile(t, d.dataDir, "transcriptions.log")
	if !strings.Contains(history, "] hello world") {
		t.Errorf("transcriptions.log = %q, want a hello world entry", history)
	}
	if !strings.Contains(d.stdout, "STATUS ✓ Copied: hello world") {
		t.Errorf("stdout missing copied status:\n%s", d.stdout)
	}
	if readFile(t, d.dataDir, "prompt.txt") == "" {
		t.Error("prompt.txt was not seeded")
	}
}

func TestStatusSequence(t *testing.T) {
	d := runVoxtray(t, cmds("TOGGLE", "WAIT_AUDIO_DONE", "TOGGLE", "WAIT", "QUIT"),
		"--test", toneWAV, "--fake-text", "done")

	want := []string{"STATUS Recording", "STATUS Processing...", "STATUS ✓ Copied: done"}
	pos := 0
	for _, w := range want {
		i := strings.Index(d.stdout[pos:], w)
		if i < 0 {
			t.Fatalf("missing %q after offset %d in:\n%s", w, pos, d.stdout)
		}
		pos += i + len(w)
	}
}

func TestNoTempFilesLeft(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)
	_ = runVoxtray(t, cmds("TOGGLE", "SLEEP 200", "TOGGLE", "WAIT", "TOGGLE", "SLEEP 200", "TOGGLE", "WAIT", "QUIT"),
		"--test", toneWAV, "--fake-text", "again")

	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".wav") {
			t.Errorf("leftover capture file %s", e.Name())
		}
	}
}

func TestDiagnostics(t *testing.T) {
	d := runVoxtray(t, cmds("TOGGLE", "SLEEP 200", "TOGGLE", "WAIT", "QUIT"),
		"--test", toneWAV, "--fake-text", "logged")

	diag := readFile(t, d.logDir, "diagnostics_log.txt")
	for _, want := range []string{"app_start", "capture_start", "capture_end", "outcome=success", "app_end"} {
		if !strings.Contains(diag, want) {
			t.Errorf("diagnostics missing %q", want)
		}
	}
}

func TestGroqConnReuse(t *testing.T) {
	requireGroqKey(t)
	d := runVoxtray(t, cmds("TOGGLE", "WAIT_AUDIO_DONE", "TOGGLE", "WAIT", "TOGGLE", "WAIT_AUDIO_DONE", "TOGGLE", "WAIT", "QUIT"),
		"--test", toneWAV)
	diag := readFile(t, d.logDir, "diagnostics_log.txt")
	if strings.Count(diag, "transcription") < 2 {
		t.Error("expected 2 transcription entries in diagnostics")
	}
	if !strings.Contains(diag, "conn=reused") {
		t.Error("expected conn=reused in diagnostics")
	}
}

func TestGroqSilence(t *testing.T) {
	requireGroqKey(t)
	d := runVoxtray(t, cmds("TOGGLE", "SLEEP 1200", "TOGGLE", "WAIT", "QUIT"), "--test", silenceWAV)
	if strings.Contains(d.stdout, "STATUS Error") {
		t.Errorf("silence produced an error:\n%s", d.stdout)
	}
}
