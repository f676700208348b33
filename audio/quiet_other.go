//go:build !linux && !darwin

package audio

// Quiet runs fn as-is; stderr redirection is only implemented on unix.
func Quiet(fn func() error) error {
	return fn()
}
