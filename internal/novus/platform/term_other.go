//go:build !unix

package platform

import "fmt"

// SetRawMode is unsupported off unix; TermSetOptions reports it as a
// platform error rather than failing the executor (spec §7).
func SetRawMode(s *Stream) error {
	return fmt.Errorf("platform: raw terminal mode is not supported on this OS")
}

// UnsetRawMode mirrors SetRawMode's stub.
func UnsetRawMode(s *Stream) error {
	return fmt.Errorf("platform: raw terminal mode is not supported on this OS")
}
