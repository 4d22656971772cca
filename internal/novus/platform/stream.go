// Package platform implements the host-side shims the executor's pcall
// dispatcher delegates to: file/console streams, terminal raw-mode
// toggling, clocks, and environment access (spec §4.7, §6 Platform
// interface).
package platform

import (
	"bufio"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Stream wraps a readable/writable file handle with the buffering and
// validity tracking the pcall surface needs. A Stream that has hit an
// unrecoverable I/O error becomes invalid rather than panicking or
// propagating a Go error up through the executor (spec §7 "PCall-level
// I/O errors are not runtime errors").
type Stream struct {
	file    *os.File
	reader  *bufio.Reader
	writer  *bufio.Writer
	valid   bool
	isTerm  bool
}

// OpenFile opens path for the given flag/perm, wrapping it as a Stream.
func OpenFile(path string, flag int, perm os.FileMode) (*Stream, error) {
	f, err := os.OpenFile(path, flag, perm)
	if err != nil {
		return nil, err
	}
	return newStream(f), nil
}

// OpenConsole wraps an already-open console handle (stdin/stdout/stderr).
func OpenConsole(f *os.File) *Stream {
	return newStream(f)
}

func newStream(f *os.File) *Stream {
	return &Stream{
		file:   f,
		reader: bufio.NewReader(f),
		writer: bufio.NewWriter(f),
		valid:  true,
		isTerm: isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()),
	}
}

// Valid reports whether the stream may still be used. StreamCheckValid
// returns this directly as 0/1.
func (s *Stream) Valid() bool { return s != nil && s.valid }

// IsTerminal reports whether the underlying handle is a terminal,
// gating which StreamSetOptions flags are legal (spec §9's
// non-blocking-reads-on-terminal-only asymmetry note).
func (s *Stream) IsTerminal() bool { return s.isTerm }

// File exposes the underlying *os.File for terminal-mode toggling.
func (s *Stream) File() *os.File { return s.file }

// ReadString reads up to a newline (inclusive), returning ("", false) on
// EOF/error — never an error value, per the pcall I/O contract.
func (s *Stream) ReadString() (string, bool) {
	if !s.valid {
		return "", false
	}
	line, err := s.reader.ReadString('\n')
	if err != nil && line == "" {
		if err != io.EOF {
			s.valid = false
		}
		return "", false
	}
	return line, true
}

// ReadChar reads a single byte, returning (0, false) on EOF/error.
func (s *Stream) ReadChar() (byte, bool) {
	if !s.valid {
		return 0, false
	}
	b, err := s.reader.ReadByte()
	if err != nil {
		if err != io.EOF {
			s.valid = false
		}
		return 0, false
	}
	return b, true
}

// WriteString writes s to the stream, invalidating it on a hard error.
func (s *Stream) WriteString(str string) bool {
	if !s.valid {
		return false
	}
	if _, err := s.writer.WriteString(str); err != nil {
		s.valid = false
		return false
	}
	return true
}

// WriteChar writes a single byte.
func (s *Stream) WriteChar(b byte) bool {
	if !s.valid {
		return false
	}
	if err := s.writer.WriteByte(b); err != nil {
		s.valid = false
		return false
	}
	return true
}

// Flush flushes buffered writes.
func (s *Stream) Flush() bool {
	if !s.valid {
		return false
	}
	if err := s.writer.Flush(); err != nil {
		s.valid = false
		return false
	}
	return true
}

// Close releases the underlying handle (invoked only by the GC's
// destroy path, never the mutator).
func (s *Stream) Close() error {
	if s.file == nil {
		return nil
	}
	_ = s.writer.Flush()
	return s.file.Close()
}
