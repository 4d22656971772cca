package novasm

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// FormatVersion is the on-disk executable format version (spec §6).
const FormatVersion uint16 = 1

var magic = [4]byte{'N', 'O', 'V', 'A'}

// Serialize encodes exe in the bit-exact format:
//
//	magic(4) | version(2) | entrypoint(u32) | litCount(u32) |
//	{u32 len, bytes}* | codeLen(u32) | codeBytes
func Serialize(exe *Executable) []byte {
	size := 4 + 2 + 4 + 4
	for _, s := range exe.LitStrings {
		size += 4 + len(s)
	}
	size += 4 + len(exe.Code)

	buf := make([]byte, 0, size)
	buf = append(buf, magic[:]...)

	var u16 [2]byte
	binary.LittleEndian.PutUint16(u16[:], FormatVersion)
	buf = append(buf, u16[:]...)

	buf = appendUint32(buf, exe.Entrypoint)
	buf = appendUint32(buf, uint32(len(exe.LitStrings)))
	for _, s := range exe.LitStrings {
		buf = appendUint32(buf, uint32(len(s)))
		buf = append(buf, s...)
	}

	buf = appendUint32(buf, uint32(len(exe.Code)))
	buf = append(buf, exe.Code...)

	return buf
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// Deserialize decodes data produced by Serialize. It rejects a
// mismatched magic or version, and any truncation or internally
// inconsistent length field.
func Deserialize(data []byte) (*Executable, error) {
	r := &reader{data: data}

	gotMagic, err := r.take(4)
	if err != nil {
		return nil, fmt.Errorf("novasm: %w", err)
	}
	if [4]byte(gotMagic) != magic {
		return nil, fmt.Errorf("novasm: bad magic %q", gotMagic)
	}

	version, err := r.uint16()
	if err != nil {
		return nil, fmt.Errorf("novasm: %w", err)
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("novasm: unsupported format version %d", version)
	}

	entrypoint, err := r.uint32()
	if err != nil {
		return nil, fmt.Errorf("novasm: %w", err)
	}

	litCount, err := r.uint32()
	if err != nil {
		return nil, fmt.Errorf("novasm: %w", err)
	}

	litStrings := make([][]byte, 0, litCount)
	for i := uint32(0); i < litCount; i++ {
		length, err := r.uint32()
		if err != nil {
			return nil, fmt.Errorf("novasm: literal string %d: %w", i, err)
		}
		bytes, err := r.take(int(length))
		if err != nil {
			return nil, fmt.Errorf("novasm: literal string %d: %w", i, err)
		}
		litStrings = append(litStrings, append([]byte(nil), bytes...))
	}

	codeLen, err := r.uint32()
	if err != nil {
		return nil, fmt.Errorf("novasm: %w", err)
	}
	code, err := r.take(int(codeLen))
	if err != nil {
		return nil, fmt.Errorf("novasm: code: %w", err)
	}
	if !r.exhausted() {
		return nil, fmt.Errorf("novasm: %d trailing bytes after code", len(r.data)-r.pos)
	}
	if entrypoint >= codeLen {
		return nil, fmt.Errorf("novasm: entrypoint %d out of range for code length %d", entrypoint, codeLen)
	}

	return &Executable{
		Code:       append([]byte(nil), code...),
		LitStrings: litStrings,
		Entrypoint: entrypoint,
	}, nil
}

// reader is a bounds-checked little-endian cursor over a byte slice,
// used only to keep Deserialize free of repetitive length checks.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, fmt.Errorf("truncated at offset %d (need %d, have %d)", r.pos, n, len(r.data)-r.pos)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *reader) uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) exhausted() bool { return r.pos == len(r.data) }

// Fingerprint returns the hex-encoded SHA3-256 digest of exe's serialized
// form: a diagnostics-only content hash, not part of the wire format
// itself, used to detect whether two builds produced byte-identical
// executables.
func Fingerprint(exe *Executable) string {
	sum := sha3.Sum256(Serialize(exe))
	return hex.EncodeToString(sum[:])
}
