//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package cli

import (
	"os"

	"golang.org/x/sys/unix"
)

// disableEcho turns off terminal echo on file until restore is called.
func disableEcho(file *os.File) (restore func(), err error) {
	fd := int(file.Fd())
	termios, err := getTermios(fd)
	if err != nil {
		return nil, errNotTerminal
	}
	original := *termios
	silent := original
	silent.Lflag &^= unix.ECHO
	if err := setTermios(fd, &silent); err != nil {
		return nil, err
	}
	return func() {
		_ = setTermios(fd, &original)
	}, nil
}
