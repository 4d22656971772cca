package vm

import "github.com/novus-lang/novus/internal/novus/platform"

// pcallTermToggle pushes true/false rather than failing the executor on
// a platform error, per spec §7's "PCall-level I/O errors are not
// runtime errors".
func (e *Executor) pcallTermToggle(s *platform.Stream, set bool) error {
	var err error
	if set {
		err = platform.SetRawMode(s)
	} else {
		err = platform.UnsetRawMode(s)
	}
	return e.push(Bool(err == nil))
}
