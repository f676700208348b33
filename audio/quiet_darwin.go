//go:build darwin

package audio

import "golang.org/x/sys/unix"

func redirectFd(from, to int) error {
	return unix.Dup2(from, to)
}
