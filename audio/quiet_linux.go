//go:build linux

package audio

import "golang.org/x/sys/unix"

func redirectFd(from, to int) error {
	return unix.Dup3(from, to, 0)
}
