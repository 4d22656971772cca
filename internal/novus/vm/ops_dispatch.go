package vm

import (
	"fmt"

	"github.com/novus-lang/novus/internal/novus/novasm"
)

// dispatch is the main opcode switch (spec §4.4), grouped into the
// same categories the opcode table uses, mirroring the teacher's
// ExecuteInstruction idiom (vm_state.go).
func (e *Executor) dispatch(op novasm.Opcode) error {
	switch op {
	// Literal loads
	case novasm.OpLoadLitInt:
		return e.opLoadLitInt()
	case novasm.OpLoadLitIntSmall:
		return e.opLoadLitIntSmall()
	case novasm.OpLoadLitInt0:
		return e.push(Int32(0))
	case novasm.OpLoadLitInt1:
		return e.push(Int32(1))
	case novasm.OpLoadLitLong:
		return e.opLoadLitLong()
	case novasm.OpLoadLitFloat:
		return e.opLoadLitFloat()
	case novasm.OpLoadLitString:
		return e.opLoadLitString()
	case novasm.OpLoadLitIp:
		return e.push(IP(e.readLabel()))

	// Stack-frame ops
	case novasm.OpStackAlloc:
		return e.opStackAlloc(int(e.readUint16()))
	case novasm.OpStackAllocSmall:
		return e.opStackAlloc(int(e.readByte()))
	case novasm.OpStackStore:
		return e.opStackStore(int(e.readUint16()))
	case novasm.OpStackStoreSmall:
		return e.opStackStore(int(e.readByte()))
	case novasm.OpStackLoad:
		return e.opStackLoad(int(e.readUint16()))
	case novasm.OpStackLoadSmall:
		return e.opStackLoad(int(e.readByte()))

	// Arithmetic
	case novasm.OpAddInt, novasm.OpSubInt, novasm.OpMulInt, novasm.OpDivInt, novasm.OpRemInt:
		return e.opArithInt(op)
	case novasm.OpAddLong, novasm.OpSubLong, novasm.OpMulLong, novasm.OpDivLong, novasm.OpRemLong:
		return e.opArithLong(op)
	case novasm.OpAddFloat, novasm.OpSubFloat, novasm.OpMulFloat, novasm.OpDivFloat:
		return e.opArithFloat(op)

	// Comparisons
	case novasm.OpCheckEqInt, novasm.OpCheckGtInt, novasm.OpCheckLtInt:
		return e.opCompareInt(op)
	case novasm.OpCheckEqLong, novasm.OpCheckGtLong, novasm.OpCheckLtLong:
		return e.opCompareLong(op)
	case novasm.OpCheckEqFloat, novasm.OpCheckGtFloat, novasm.OpCheckLtFloat:
		return e.opCompareFloat(op)
	case novasm.OpCheckEqString:
		return e.opCheckEqString()
	case novasm.OpCheckEqChar:
		return e.opCheckEqChar()
	case novasm.OpCheckEqCallDynTgt:
		return e.opCheckEqCallDynTgt()

	// String ops
	case novasm.OpAddString:
		return e.opAddString()
	case novasm.OpCombineChar, novasm.OpAppendChar:
		return e.opAddString()
	case novasm.OpLengthString:
		return e.opLengthString()
	case novasm.OpIndexString:
		return e.opIndexString()
	case novasm.OpSliceString:
		return e.opSliceString()

	// Conversions
	case novasm.OpConvIntLong, novasm.OpConvIntFloat, novasm.OpConvLongInt,
		novasm.OpConvLongFloat, novasm.OpConvFloatInt, novasm.OpConvIntString,
		novasm.OpConvLongString, novasm.OpConvFloatString, novasm.OpConvCharString,
		novasm.OpConvIntChar, novasm.OpConvLongChar, novasm.OpConvFloatChar,
		novasm.OpConvFloatLong:
		return e.opConvert(op)

	// Struct ops
	case novasm.OpMakeStruct:
		return e.opMakeStruct(int(e.readByte()))
	case novasm.OpMakeNullStruct:
		return e.push(NullRef)
	case novasm.OpStructLoadField:
		return e.opStructLoadField(int(e.readByte()))
	case novasm.OpStructStoreField:
		return e.opStructStoreField(int(e.readByte()))

	// Branching
	case novasm.OpJump:
		e.ip = int(e.readLabel())
		return nil
	case novasm.OpJumpIf:
		return e.opJumpIf()

	// Calls
	case novasm.OpCall:
		return e.opCall(false)
	case novasm.OpCallTail:
		return e.opCall(true)
	case novasm.OpCallForked:
		return e.opCallForked()
	case novasm.OpCallDyn:
		return e.opCallDyn(false)
	case novasm.OpCallDynTail:
		return e.opCallDyn(true)
	case novasm.OpCallDynForked:
		return e.opCallDynForked()

	// Return
	case novasm.OpRet:
		return e.opRet()

	// Atomics
	case novasm.OpAllocAtomic:
		return e.opAllocAtomic()
	case novasm.OpAtomicLoad:
		return e.opAtomicLoad()
	case novasm.OpAtomicStore:
		return e.opAtomicStore()
	case novasm.OpAtomicCAS:
		return e.opAtomicCAS()
	case novasm.OpAtomicBlock:
		return e.opAtomicBlock()

	// Futures
	case novasm.OpFutureWaitNano:
		return e.opFutureWaitNano()
	case novasm.OpFutureBlock:
		return e.opFutureBlock()

	// PCall
	case novasm.OpPCall:
		return e.dispatchPCall(PCallCode(e.readByte()))

	// Misc
	case novasm.OpDup:
		return e.opDup()
	case novasm.OpPop:
		_, err := e.pop()
		return err
	case novasm.OpSwap:
		return e.opSwap()
	case novasm.OpFail:
		e.handle.SetState(ExecFailed)
		return errTerminal

	default:
		e.handle.SetState(ExecInvalidAssembly)
		return fmt.Errorf("vm: unknown opcode %d at ip %d", op, e.ip-1)
	}
}
