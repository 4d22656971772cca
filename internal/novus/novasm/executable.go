package novasm

// Executable is the assembled program: code bytes, the ordered literal
// string table, and the entry offset into code (spec §4.3).
type Executable struct {
	Code       []byte
	LitStrings [][]byte
	Entrypoint uint32
}

// LitString returns the literal string's bytes at index, or (nil, false)
// if index is out of range.
func (e *Executable) LitString(index uint32) ([]byte, bool) {
	if int(index) >= len(e.LitStrings) {
		return nil, false
	}
	return e.LitStrings[index], true
}
