//go:build unix

package platform

import "golang.org/x/sys/unix"

// SetRawMode toggles ICANON/ECHO off on a terminal stream's file
// descriptor, for the TermSetOptions pcall. Non-terminal streams are
// rejected by the caller before this is reached (spec §9 asymmetry
// note).
func SetRawMode(s *Stream) error {
	fd := int(s.File().Fd())
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}
	raw := *termios
	raw.Lflag &^= unix.ICANON | unix.ECHO
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	return unix.IoctlSetTermios(fd, unix.TCSETS, &raw)
}

// UnsetRawMode restores ICANON/ECHO (TermUnsetOptions pcall).
func UnsetRawMode(s *Stream) error {
	fd := int(s.File().Fd())
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}
	cooked := *termios
	cooked.Lflag |= unix.ICANON | unix.ECHO
	return unix.IoctlSetTermios(fd, unix.TCSETS, &cooked)
}
