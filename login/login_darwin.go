//go:build darwin

package login

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"
)

const agentLabel = "com.voxtray.app"

var plistTmpl = template.Must(template.New("plist").Funcs(template.FuncMap{"x": html.EscapeString}).Parse(
	`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>{{.Label}}</string>
	<key>ProgramArguments</key>
	<array>
{{- range .Args}}
		<string>{{x .}}</string>
{{- end}}
	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>LimitLoadToSessionType</key>
	<string>Aqua</string>
	<key>EnvironmentVariables</key>
	<dict>
{{- range .Env}}
		<key>{{.Key}}</key>
		<string>{{x .Value}}</string>
{{- end}}
	</dict>
</dict>
</plist>
`))

type envVar struct{ Key, Value string }

// Path is the per-user LaunchAgent definition.
func Path() string {
	return filepath.Join(os.Getenv("HOME"), "Library", "LaunchAgents", agentLabel+".plist")
}

func Enabled() bool {
	_, err := os.Stat(Path())
	return err == nil
}

func renderPlist(exe string) ([]byte, error) {
	data := struct {
		Label string
		Args  []string
		Env   []envVar
	}{Label: agentLabel, Args: append([]string{exe}, launchArgs...)}
	for _, key := range passEnv {
		if v := os.Getenv(key); v != "" {
			data.Env = append(data.Env, envVar{key, v})
		}
	}
	var buf bytes.Buffer
	if err := plistTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func launchctl(verb, path string) ([]byte, error) {
	return exec.Command("launchctl", verb, fmt.Sprintf("gui/%d", os.Getuid()), path).CombinedOutput()
}

func Enable() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	plist, err := renderPlist(exe)
	if err != nil {
		return fmt.Errorf("render plist: %w", err)
	}

	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create LaunchAgents dir: %w", err)
	}
	if err := os.WriteFile(path, plist, 0600); err != nil {
		return fmt.Errorf("write plist: %w", err)
	}

	// an agent that is already loaded has to be booted out first
	launchctl("bootout", path)
	if out, err := launchctl("bootstrap", path); err != nil {
		return fmt.Errorf("launchctl bootstrap: %w (%s)", err, out)
	}
	return nil
}

func Disable() error {
	path := Path()
	if !Enabled() {
		return nil
	}
	launchctl("bootout", path)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove plist: %w", err)
	}
	return nil
}
