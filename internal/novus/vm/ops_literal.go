package vm

// opLoadLitInt, opLoadLitIntSmall, opLoadLitLong, opLoadLitFloat and
// opLoadLitString implement the literal-load opcodes (spec §4.4).

func (e *Executor) opLoadLitInt() error {
	return e.push(Int32(e.readInt32()))
}

func (e *Executor) opLoadLitIntSmall() error {
	return e.push(Int32(int32(int8(e.readByte()))))
}

// opLoadLitLong pushes inline when the high bit is clear, else
// allocates a LongRef, per invariant (a).
func (e *Executor) opLoadLitLong() error {
	v := e.readInt64()
	val, err := Int64(e.alloc, v)
	if err != nil {
		e.handle.SetState(ExecAllocFailed)
		return errTerminal
	}
	return e.push(val)
}

func (e *Executor) opLoadLitFloat() error {
	return e.push(Float32(e.readFloat32()))
}

// opLoadLitString reads a u32 literal-table index and pushes a
// freshly-wrapped reference to the image's literal bytes (spec §4.4:
// "push a freshly-wrapped reference"). The bytes themselves are not
// copied — they are owned by the executable image for its lifetime.
func (e *Executor) opLoadLitString() error {
	idx := e.readUint32()
	bytes, ok := e.exe.LitString(idx)
	if !ok {
		e.handle.SetState(ExecInvalidAssembly)
		return errTerminal
	}
	ref, err := e.alloc.AllocStringUnowned(bytes)
	if err != nil {
		e.handle.SetState(ExecAllocFailed)
		return errTerminal
	}
	return e.push(RefValue(ref))
}
