package novasm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAssemblerResolvesForwardLabel(t *testing.T) {
	a := New()
	a.Label("start")
	a.AddJump("end")
	a.AddLoadLitInt0()
	a.Label("end")
	a.AddRet()
	a.SetEntrypoint("start")

	exe, err := a.Close()
	if err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// jump opcode(1) + label(4) == 5 bytes before the resolved target.
	wantTarget := uint32(5 + 1) // past load_lit_int_0's single opcode byte
	gotTarget := uint32(exe.Code[1]) | uint32(exe.Code[2])<<8 | uint32(exe.Code[3])<<16 | uint32(exe.Code[4])<<24
	if gotTarget != wantTarget {
		t.Fatalf("jump target = %d, want %d", gotTarget, wantTarget)
	}
}

func TestAssemblerResolvesBackwardLabel(t *testing.T) {
	a := New()
	a.Label("loop")
	a.AddLoadLitInt1()
	a.AddJump("loop")
	a.SetEntrypoint("loop")

	exe, err := a.Close()
	if err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	gotTarget := uint32(exe.Code[2]) | uint32(exe.Code[3])<<8 | uint32(exe.Code[4])<<16 | uint32(exe.Code[5])<<24
	if gotTarget != 0 {
		t.Fatalf("backward jump target = %d, want 0", gotTarget)
	}
}

func TestAssemblerUndefinedLabelIsFatalAtClose(t *testing.T) {
	a := New()
	a.Label("start")
	a.AddJump("nowhere")
	a.SetEntrypoint("start")

	if _, err := a.Close(); err == nil {
		t.Fatalf("expected an error for an undefined label")
	}
}

func TestAssemblerMissingEntrypointIsFatal(t *testing.T) {
	a := New()
	a.Label("start")
	a.AddRet()

	if _, err := a.Close(); err == nil {
		t.Fatalf("expected an error for a missing entrypoint")
	}
}

func TestAssemblerDuplicateLabelIsFatal(t *testing.T) {
	a := New()
	a.Label("x")
	a.AddRet()
	a.Label("x")
	a.SetEntrypoint("x")

	if _, err := a.Close(); err == nil {
		t.Fatalf("expected an error for a duplicate label")
	}
}

func TestLitStringInterningDeduplicates(t *testing.T) {
	a := New()
	i1 := a.AddLitString("hello")
	i2 := a.AddLitString("world")
	i3 := a.AddLitString("hello")
	if i1 != i3 {
		t.Fatalf("expected repeated literal to reuse index: %d != %d", i1, i3)
	}
	if i2 == i1 {
		t.Fatalf("expected distinct literals to get distinct indices")
	}
}

func buildSampleExecutable(t *testing.T) *Executable {
	t.Helper()
	a := New()
	a.Label("main")
	idx := a.AddLitString("hello world")
	a.AddLoadLitString(idx)
	a.AddPCall(7)
	a.AddLoadLitInt(42)
	a.AddRet()
	a.SetEntrypoint("main")
	exe, err := a.Close()
	if err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return exe
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	exe := buildSampleExecutable(t)
	data := Serialize(exe)

	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	if diff := cmp.Diff(exe, got); diff != "" {
		t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDeserializeRejectsBadMagic(t *testing.T) {
	exe := buildSampleExecutable(t)
	data := Serialize(exe)
	data[0] = 'X'
	if _, err := Deserialize(data); err == nil {
		t.Fatalf("expected an error for a bad magic")
	}
}

func TestDeserializeRejectsTruncation(t *testing.T) {
	exe := buildSampleExecutable(t)
	data := Serialize(exe)
	for _, cut := range []int{0, 4, 10, len(data) - 1} {
		if cut < 0 || cut > len(data) {
			continue
		}
		if _, err := Deserialize(data[:cut]); err == nil {
			t.Fatalf("expected an error for truncation at %d", cut)
		}
	}
}

func TestDeserializeRejectsTrailingBytes(t *testing.T) {
	exe := buildSampleExecutable(t)
	data := append(Serialize(exe), 0xFF)
	if _, err := Deserialize(data); err == nil {
		t.Fatalf("expected an error for trailing bytes")
	}
}

func TestFingerprintIsStableAndContentSensitive(t *testing.T) {
	exe := buildSampleExecutable(t)
	fp1 := Fingerprint(exe)
	fp2 := Fingerprint(exe)
	if fp1 != fp2 {
		t.Fatalf("Fingerprint is not deterministic: %s != %s", fp1, fp2)
	}

	other := New()
	other.Label("main")
	other.AddRet()
	other.SetEntrypoint("main")
	otherExe, err := other.Close()
	if err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if Fingerprint(otherExe) == fp1 {
		t.Fatalf("expected different executables to have different fingerprints")
	}
}

func TestOpcodeSizeAccountsForImmediates(t *testing.T) {
	if got := OpLoadLitInt.Size(); got != 5 {
		t.Fatalf("OpLoadLitInt.Size() = %d, want 5", got)
	}
	if got := OpCall.Size(); got != 6 { // opcode + byte + u32 label
		t.Fatalf("OpCall.Size() = %d, want 6", got)
	}
	if got := OpRet.Size(); got != 1 {
		t.Fatalf("OpRet.Size() = %d, want 1", got)
	}
}
