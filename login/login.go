// Package login registers voxtray to start with the desktop session.
package login

import "errors"

var ErrUnsupported = errors.New("start at login is not supported on this platform")

// launchArgs are passed to the binary when the session starts it.
var launchArgs = []string{"--ui", "tray"}

// passEnv lists variables copied into the launch definition where the
// session manager does not inherit the shell environment.
var passEnv = []string{"GROQ_API_KEY", "VOXTRAY_DATA_DIR", "VOXTRAY_DEVICE", "VOXTRAY_LANGUAGE"}
