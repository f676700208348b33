package log

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

var dir string

// ResolveDir picks the log directory: the --logpath flag, then
// VOXTRAY_LOG_PATH, then the platform default. Relative paths are taken
// from the working directory.
func ResolveDir(flagPath string) (string, error) {
	for _, p := range []string{flagPath, os.Getenv("VOXTRAY_LOG_PATH")} {
		if p != "" {
			return filepath.Abs(p)
		}
	}
	return getDefaultDir()
}

// getDefaultDir is ~/Library/Logs/voxtray on macOS, %LOCALAPPDATA%\voxtray\logs
// on Windows and $XDG_CONFIG_HOME/voxtray/logs elsewhere.
func getDefaultDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Logs", "voxtray"), nil
	case "windows":
		local, err := os.UserCacheDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(local, "voxtray", "logs"), nil
	default:
		base, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(base, "voxtray", "logs"), nil
	}
}

func SetDir(d string) { dir = d }

func Dir() string { return dir }

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}
