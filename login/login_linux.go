//go:build linux

package login

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const desktopName = "voxtray.desktop"

// Path is the XDG autostart entry.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, "autostart", desktopName)
}

func Enabled() bool {
	_, err := os.Stat(Path())
	return err == nil
}

func Enable() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	return writeEntry(Path(), exe)
}

func writeEntry(path, exe string) error {
	var env strings.Builder
	for _, key := range passEnv {
		if v := os.Getenv(key); v != "" {
			fmt.Fprintf(&env, "%s=%s ", key, quoteExec(v))
		}
	}
	cmd := quoteExec(exe) + " " + strings.Join(launchArgs, " ")
	if env.Len() > 0 {
		cmd = "env " + env.String() + cmd
	}

	entry := "[Desktop Entry]\n" +
		"Type=Application\n" +
		"Name=Voice to Text\n" +
		"Comment=Toggle dictation from the system tray\n" +
		"Exec=" + cmd + "\n" +
		"Terminal=false\n" +
		"X-GNOME-Autostart-enabled=true\n"

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create autostart dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(entry), 0600); err != nil {
		return fmt.Errorf("write desktop entry: %w", err)
	}
	return nil
}

// quoteExec quotes s for an Exec key when it holds anything but plain
// path characters.
func quoteExec(s string) string {
	if !strings.ContainsAny(s, " \t\"'\\$`") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", `$`, `\$`)
	return `"` + r.Replace(s) + `"`
}

func Disable() error {
	if err := os.Remove(Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove desktop entry: %w", err)
	}
	return nil
}
