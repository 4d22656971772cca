package novasm

import (
	"encoding/binary"
	"fmt"
	"math"
)

// fixup records a label reference that could not be resolved at the
// point it was written; pos is the byte offset of its 4-byte
// placeholder within code.
type fixup struct {
	pos   int
	label string
}

// Assembler is a byte-level encoder (spec §4.3). Each `Add*` method
// appends an opcode byte followed by its fixed-width little-endian
// immediates. Control-flow targets are referenced by label name: the
// assembler writes a placeholder uint32 and resolves it at Close.
type Assembler struct {
	code       []byte
	litStrings [][]byte
	litIndex   map[string]uint32

	labels          map[string]int
	fixups          []fixup
	entrypointLabel string
	entrypointSet   bool

	closed bool
	err    error
}

// New returns an empty Assembler.
func New() *Assembler {
	return &Assembler{
		labels:   make(map[string]int),
		litIndex: make(map[string]uint32),
	}
}

// Label marks the current code offset with name, for later reference by
// AddJump, AddCall, AddLoadLitIp, and SetEntrypoint.
func (a *Assembler) Label(name string) {
	if _, exists := a.labels[name]; exists {
		a.fail(fmt.Errorf("label %q defined more than once", name))
		return
	}
	a.labels[name] = len(a.code)
}

// SetEntrypoint records name as the executable's entry label.
func (a *Assembler) SetEntrypoint(name string) {
	a.entrypointLabel = name
	a.entrypointSet = true
}

// AddLitString interns s into the literal-string table (in encounter
// order) and returns its index, for use with AddLoadLitString.
func (a *Assembler) AddLitString(s string) uint32 {
	if idx, ok := a.litIndex[s]; ok {
		return idx
	}
	idx := uint32(len(a.litStrings))
	a.litStrings = append(a.litStrings, []byte(s))
	a.litIndex[s] = idx
	return idx
}

func (a *Assembler) fail(err error) {
	if a.err == nil {
		a.err = err
	}
}

func (a *Assembler) writeByte(b byte) {
	a.code = append(a.code, b)
}

func (a *Assembler) writeUint16(v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	a.code = append(a.code, buf[:]...)
}

func (a *Assembler) writeUint32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	a.code = append(a.code, buf[:]...)
}

func (a *Assembler) writeInt64(v int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	a.code = append(a.code, buf[:]...)
}

func (a *Assembler) writeFloat32(v float32) {
	a.writeUint32(math.Float32bits(v))
}

// writeLabel emits a placeholder and records a fixup against label,
// resolved once the label's offset is known (possibly forward-declared).
func (a *Assembler) writeLabel(label string) {
	if off, ok := a.labels[label]; ok {
		a.writeUint32(uint32(off))
		return
	}
	a.fixups = append(a.fixups, fixup{pos: len(a.code), label: label})
	a.writeUint32(0xFFFFFFFF)
}

func (a *Assembler) emit(op Opcode) {
	a.writeByte(byte(op))
}

// --- Literal loads ---

func (a *Assembler) AddLoadLitInt(v int32) {
	a.emit(OpLoadLitInt)
	a.writeUint32(uint32(v))
}

func (a *Assembler) AddLoadLitIntSmall(v int8) {
	a.emit(OpLoadLitIntSmall)
	a.writeByte(byte(v))
}

func (a *Assembler) AddLoadLitInt0() { a.emit(OpLoadLitInt0) }
func (a *Assembler) AddLoadLitInt1() { a.emit(OpLoadLitInt1) }

func (a *Assembler) AddLoadLitLong(v int64) {
	a.emit(OpLoadLitLong)
	a.writeInt64(v)
}

func (a *Assembler) AddLoadLitFloat(v float32) {
	a.emit(OpLoadLitFloat)
	a.writeFloat32(v)
}

func (a *Assembler) AddLoadLitString(index uint32) {
	a.emit(OpLoadLitString)
	a.writeUint32(index)
}

func (a *Assembler) AddLoadLitIp(label string) {
	a.emit(OpLoadLitIp)
	a.writeLabel(label)
}

// --- Stack-frame ops ---

func (a *Assembler) AddStackAlloc(n uint16) {
	a.emit(OpStackAlloc)
	a.writeUint16(n)
}

func (a *Assembler) AddStackAllocSmall(n uint8) {
	a.emit(OpStackAllocSmall)
	a.writeByte(n)
}

func (a *Assembler) AddStackStore(slot uint16) {
	a.emit(OpStackStore)
	a.writeUint16(slot)
}

func (a *Assembler) AddStackStoreSmall(slot uint8) {
	a.emit(OpStackStoreSmall)
	a.writeByte(slot)
}

func (a *Assembler) AddStackLoad(slot uint16) {
	a.emit(OpStackLoad)
	a.writeUint16(slot)
}

func (a *Assembler) AddStackLoadSmall(slot uint8) {
	a.emit(OpStackLoadSmall)
	a.writeByte(slot)
}

// --- Arithmetic (no immediate) ---

func (a *Assembler) AddAddInt() { a.emit(OpAddInt) }
func (a *Assembler) AddAddLong() { a.emit(OpAddLong) }
func (a *Assembler) AddAddFloat() { a.emit(OpAddFloat) }
func (a *Assembler) AddSubInt() { a.emit(OpSubInt) }
func (a *Assembler) AddSubLong() { a.emit(OpSubLong) }
func (a *Assembler) AddSubFloat() { a.emit(OpSubFloat) }
func (a *Assembler) AddMulInt() { a.emit(OpMulInt) }
func (a *Assembler) AddMulLong() { a.emit(OpMulLong) }
func (a *Assembler) AddMulFloat() { a.emit(OpMulFloat) }
func (a *Assembler) AddDivInt() { a.emit(OpDivInt) }
func (a *Assembler) AddDivLong() { a.emit(OpDivLong) }
func (a *Assembler) AddDivFloat() { a.emit(OpDivFloat) }
func (a *Assembler) AddRemInt() { a.emit(OpRemInt) }
func (a *Assembler) AddRemLong() { a.emit(OpRemLong) }

// --- Comparisons (no immediate) ---

func (a *Assembler) AddCheckEqInt() { a.emit(OpCheckEqInt) }
func (a *Assembler) AddCheckEqLong() { a.emit(OpCheckEqLong) }
func (a *Assembler) AddCheckEqFloat() { a.emit(OpCheckEqFloat) }
func (a *Assembler) AddCheckEqString() { a.emit(OpCheckEqString) }
func (a *Assembler) AddCheckEqChar() { a.emit(OpCheckEqChar) }
func (a *Assembler) AddCheckEqCallDynTgt() { a.emit(OpCheckEqCallDynTgt) }
func (a *Assembler) AddCheckGtInt() { a.emit(OpCheckGtInt) }
func (a *Assembler) AddCheckGtLong() { a.emit(OpCheckGtLong) }
func (a *Assembler) AddCheckGtFloat() { a.emit(OpCheckGtFloat) }
func (a *Assembler) AddCheckLtInt() { a.emit(OpCheckLtInt) }
func (a *Assembler) AddCheckLtLong() { a.emit(OpCheckLtLong) }
func (a *Assembler) AddCheckLtFloat() { a.emit(OpCheckLtFloat) }

// --- String ops (no immediate) ---

func (a *Assembler) AddAddString() { a.emit(OpAddString) }
func (a *Assembler) AddCombineChar() { a.emit(OpCombineChar) }
func (a *Assembler) AddAppendChar() { a.emit(OpAppendChar) }
func (a *Assembler) AddLengthString() { a.emit(OpLengthString) }
func (a *Assembler) AddIndexString() { a.emit(OpIndexString) }
func (a *Assembler) AddSliceString() { a.emit(OpSliceString) }

// --- Conversions (no immediate) ---

func (a *Assembler) AddConvIntLong() { a.emit(OpConvIntLong) }
func (a *Assembler) AddConvIntFloat() { a.emit(OpConvIntFloat) }
func (a *Assembler) AddConvLongInt() { a.emit(OpConvLongInt) }
func (a *Assembler) AddConvLongFloat() { a.emit(OpConvLongFloat) }
func (a *Assembler) AddConvFloatInt() { a.emit(OpConvFloatInt) }
func (a *Assembler) AddConvIntString() { a.emit(OpConvIntString) }
func (a *Assembler) AddConvLongString() { a.emit(OpConvLongString) }
func (a *Assembler) AddConvFloatString() { a.emit(OpConvFloatString) }
func (a *Assembler) AddConvCharString() { a.emit(OpConvCharString) }
func (a *Assembler) AddConvIntChar() { a.emit(OpConvIntChar) }
func (a *Assembler) AddConvLongChar() { a.emit(OpConvLongChar) }
func (a *Assembler) AddConvFloatChar() { a.emit(OpConvFloatChar) }
func (a *Assembler) AddConvFloatLong() { a.emit(OpConvFloatLong) }

// --- Struct ops ---

func (a *Assembler) AddMakeStruct(fieldCount uint8) {
	a.emit(OpMakeStruct)
	a.writeByte(fieldCount)
}

func (a *Assembler) AddMakeNullStruct() { a.emit(OpMakeNullStruct) }

func (a *Assembler) AddStructLoadField(index uint8) {
	a.emit(OpStructLoadField)
	a.writeByte(index)
}

func (a *Assembler) AddStructStoreField(index uint8) {
	a.emit(OpStructStoreField)
	a.writeByte(index)
}

// --- Branching ---

func (a *Assembler) AddJump(target string) {
	a.emit(OpJump)
	a.writeLabel(target)
}

func (a *Assembler) AddJumpIf(target string) {
	a.emit(OpJumpIf)
	a.writeLabel(target)
}

// --- Calls ---

func (a *Assembler) AddCall(argCount uint8, target string) {
	a.emit(OpCall)
	a.writeByte(argCount)
	a.writeLabel(target)
}

func (a *Assembler) AddCallTail(argCount uint8, target string) {
	a.emit(OpCallTail)
	a.writeByte(argCount)
	a.writeLabel(target)
}

func (a *Assembler) AddCallForked(argCount uint8, target string) {
	a.emit(OpCallForked)
	a.writeByte(argCount)
	a.writeLabel(target)
}

func (a *Assembler) AddCallDyn(argCount uint8) {
	a.emit(OpCallDyn)
	a.writeByte(argCount)
}

func (a *Assembler) AddCallDynTail(argCount uint8) {
	a.emit(OpCallDynTail)
	a.writeByte(argCount)
}

func (a *Assembler) AddCallDynForked(argCount uint8) {
	a.emit(OpCallDynForked)
	a.writeByte(argCount)
}

// --- Return ---

func (a *Assembler) AddRet() { a.emit(OpRet) }

// --- Atomics ---

func (a *Assembler) AddAllocAtomic() { a.emit(OpAllocAtomic) }
func (a *Assembler) AddAtomicLoad()  { a.emit(OpAtomicLoad) }
func (a *Assembler) AddAtomicStore() { a.emit(OpAtomicStore) }
func (a *Assembler) AddAtomicCAS()   { a.emit(OpAtomicCAS) }
func (a *Assembler) AddAtomicBlock() { a.emit(OpAtomicBlock) }

// --- Futures ---

func (a *Assembler) AddFutureWaitNano(timeoutNanos int64) {
	a.emit(OpFutureWaitNano)
	a.writeInt64(timeoutNanos)
}

func (a *Assembler) AddFutureBlock() { a.emit(OpFutureBlock) }

// --- Platform call ---

func (a *Assembler) AddPCall(code byte) {
	a.emit(OpPCall)
	a.writeByte(code)
}

// --- Misc ---

func (a *Assembler) AddDup()  { a.emit(OpDup) }
func (a *Assembler) AddPop()  { a.emit(OpPop) }
func (a *Assembler) AddSwap() { a.emit(OpSwap) }
func (a *Assembler) AddFail() { a.emit(OpFail) }

// Close resolves every label fixup and produces the finished Executable.
// An unresolved label, at any point, is fatal.
func (a *Assembler) Close() (*Executable, error) {
	if a.err != nil {
		return nil, a.err
	}
	if !a.entrypointSet {
		return nil, fmt.Errorf("novasm: no entrypoint set")
	}
	entrypoint, ok := a.labels[a.entrypointLabel]
	if !ok {
		return nil, fmt.Errorf("novasm: undefined entrypoint label %q", a.entrypointLabel)
	}

	for _, fx := range a.fixups {
		off, ok := a.labels[fx.label]
		if !ok {
			return nil, fmt.Errorf("novasm: undefined label %q", fx.label)
		}
		binary.LittleEndian.PutUint32(a.code[fx.pos:fx.pos+4], uint32(off))
	}

	return &Executable{
		Code:       a.code,
		LitStrings: a.litStrings,
		Entrypoint: uint32(entrypoint),
	}, nil
}
