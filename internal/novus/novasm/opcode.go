// Package novasm is the byte-level assembler and executable format for
// Novus bytecode: label-based encoding on the way in, a bit-exact
// on-disk format on the way out (spec §4.3/§6).
package novasm

import "fmt"

// Opcode is a single-byte Novus instruction tag.
type Opcode uint8

const (
	// Literal loads.
	OpLoadLitInt Opcode = iota
	OpLoadLitIntSmall
	OpLoadLitInt0
	OpLoadLitInt1
	OpLoadLitLong
	OpLoadLitFloat
	OpLoadLitString
	OpLoadLitIp

	// Stack-frame ops.
	OpStackAlloc
	OpStackAllocSmall
	OpStackStore
	OpStackStoreSmall
	OpStackLoad
	OpStackLoadSmall

	// Arithmetic, paired per type.
	OpAddInt
	OpAddLong
	OpAddFloat
	OpSubInt
	OpSubLong
	OpSubFloat
	OpMulInt
	OpMulLong
	OpMulFloat
	OpDivInt
	OpDivLong
	OpDivFloat
	OpRemInt
	OpRemLong

	// Comparisons.
	OpCheckEqInt
	OpCheckEqLong
	OpCheckEqFloat
	OpCheckEqString
	OpCheckEqChar
	OpCheckEqCallDynTgt
	OpCheckGtInt
	OpCheckGtLong
	OpCheckGtFloat
	OpCheckLtInt
	OpCheckLtLong
	OpCheckLtFloat

	// String ops.
	OpAddString
	OpCombineChar
	OpAppendChar
	OpLengthString
	OpIndexString
	OpSliceString

	// Conversions.
	OpConvIntLong
	OpConvIntFloat
	OpConvLongInt
	OpConvLongFloat
	OpConvFloatInt
	OpConvIntString
	OpConvLongString
	OpConvFloatString
	OpConvCharString
	OpConvIntChar
	OpConvLongChar
	OpConvFloatChar
	OpConvFloatLong

	// Struct ops.
	OpMakeStruct
	OpMakeNullStruct
	OpStructLoadField
	OpStructStoreField

	// Branching.
	OpJump
	OpJumpIf

	// Calls.
	OpCall
	OpCallTail
	OpCallForked
	OpCallDyn
	OpCallDynTail
	OpCallDynForked

	// Return.
	OpRet

	// Atomics.
	OpAllocAtomic
	OpAtomicLoad
	OpAtomicStore
	OpAtomicCAS
	OpAtomicBlock

	// Futures.
	OpFutureWaitNano
	OpFutureBlock

	// Platform call.
	OpPCall

	// Misc.
	OpDup
	OpPop
	OpSwap
	OpFail
)

// ImmKind is the fixed little-endian encoding width of one immediate
// operand (spec §4.3: "byte, ushort, int32, uint32, int64, float32").
type ImmKind int

const (
	ImmByte ImmKind = iota
	ImmUShort
	ImmInt32
	ImmUint32
	ImmInt64
	ImmFloat32
	// ImmLabel is a uint32 immediate resolved from a label name by the
	// assembler rather than supplied literally (spec §4.3 fixup list).
	ImmLabel
)

func (k ImmKind) Size() int {
	switch k {
	case ImmByte:
		return 1
	case ImmUShort:
		return 2
	case ImmInt32, ImmUint32, ImmFloat32, ImmLabel:
		return 4
	case ImmInt64:
		return 8
	default:
		return 0
	}
}

// OpcodeInfo is the per-opcode metadata entry, in the teacher's
// AllInstructions table idiom (vm/instruction.go): name, encoding shape,
// nothing about stack effect since Novus's analyzer/optimizer (out of
// scope here) is what verifies stack depth before assembly.
type OpcodeInfo struct {
	Opcode     Opcode
	Name       string
	Immediates []ImmKind
}

// AllOpcodes is the full Novus bytecode ISA, keyed by opcode.
var AllOpcodes = map[Opcode]OpcodeInfo{
	OpLoadLitInt:      {OpLoadLitInt, "load_lit_int", []ImmKind{ImmInt32}},
	OpLoadLitIntSmall: {OpLoadLitIntSmall, "load_lit_int_small", []ImmKind{ImmByte}},
	OpLoadLitInt0:     {OpLoadLitInt0, "load_lit_int_0", nil},
	OpLoadLitInt1:     {OpLoadLitInt1, "load_lit_int_1", nil},
	OpLoadLitLong:     {OpLoadLitLong, "load_lit_long", []ImmKind{ImmInt64}},
	OpLoadLitFloat:    {OpLoadLitFloat, "load_lit_float", []ImmKind{ImmFloat32}},
	OpLoadLitString:   {OpLoadLitString, "load_lit_string", []ImmKind{ImmUint32}},
	OpLoadLitIp:       {OpLoadLitIp, "load_lit_ip", []ImmKind{ImmLabel}},

	OpStackAlloc:      {OpStackAlloc, "stack_alloc", []ImmKind{ImmUShort}},
	OpStackAllocSmall: {OpStackAllocSmall, "stack_alloc_small", []ImmKind{ImmByte}},
	OpStackStore:      {OpStackStore, "stack_store", []ImmKind{ImmUShort}},
	OpStackStoreSmall: {OpStackStoreSmall, "stack_store_small", []ImmKind{ImmByte}},
	OpStackLoad:       {OpStackLoad, "stack_load", []ImmKind{ImmUShort}},
	OpStackLoadSmall:  {OpStackLoadSmall, "stack_load_small", []ImmKind{ImmByte}},

	OpAddInt:   {OpAddInt, "add_int", nil},
	OpAddLong:  {OpAddLong, "add_long", nil},
	OpAddFloat: {OpAddFloat, "add_float", nil},
	OpSubInt:   {OpSubInt, "sub_int", nil},
	OpSubLong:  {OpSubLong, "sub_long", nil},
	OpSubFloat: {OpSubFloat, "sub_float", nil},
	OpMulInt:   {OpMulInt, "mul_int", nil},
	OpMulLong:  {OpMulLong, "mul_long", nil},
	OpMulFloat: {OpMulFloat, "mul_float", nil},
	OpDivInt:   {OpDivInt, "div_int", nil},
	OpDivLong:  {OpDivLong, "div_long", nil},
	OpDivFloat: {OpDivFloat, "div_float", nil},
	OpRemInt:   {OpRemInt, "rem_int", nil},
	OpRemLong:  {OpRemLong, "rem_long", nil},

	OpCheckEqInt:        {OpCheckEqInt, "check_eq_int", nil},
	OpCheckEqLong:       {OpCheckEqLong, "check_eq_long", nil},
	OpCheckEqFloat:      {OpCheckEqFloat, "check_eq_float", nil},
	OpCheckEqString:     {OpCheckEqString, "check_eq_string", nil},
	OpCheckEqChar:       {OpCheckEqChar, "check_eq_char", nil},
	OpCheckEqCallDynTgt: {OpCheckEqCallDynTgt, "check_eq_call_dyn_tgt", nil},
	OpCheckGtInt:        {OpCheckGtInt, "check_gt_int", nil},
	OpCheckGtLong:       {OpCheckGtLong, "check_gt_long", nil},
	OpCheckGtFloat:      {OpCheckGtFloat, "check_gt_float", nil},
	OpCheckLtInt:        {OpCheckLtInt, "check_lt_int", nil},
	OpCheckLtLong:       {OpCheckLtLong, "check_lt_long", nil},
	OpCheckLtFloat:      {OpCheckLtFloat, "check_lt_float", nil},

	OpAddString:    {OpAddString, "add_string", nil},
	OpCombineChar:  {OpCombineChar, "combine_char", nil},
	OpAppendChar:   {OpAppendChar, "append_char", nil},
	OpLengthString: {OpLengthString, "length_string", nil},
	OpIndexString:  {OpIndexString, "index_string", nil},
	OpSliceString:  {OpSliceString, "slice_string", nil},

	OpConvIntLong:     {OpConvIntLong, "conv_int_long", nil},
	OpConvIntFloat:    {OpConvIntFloat, "conv_int_float", nil},
	OpConvLongInt:     {OpConvLongInt, "conv_long_int", nil},
	OpConvLongFloat:   {OpConvLongFloat, "conv_long_float", nil},
	OpConvFloatInt:    {OpConvFloatInt, "conv_float_int", nil},
	OpConvIntString:   {OpConvIntString, "conv_int_string", nil},
	OpConvLongString:  {OpConvLongString, "conv_long_string", nil},
	OpConvFloatString: {OpConvFloatString, "conv_float_string", nil},
	OpConvCharString:  {OpConvCharString, "conv_char_string", nil},
	OpConvIntChar:     {OpConvIntChar, "conv_int_char", nil},
	OpConvLongChar:    {OpConvLongChar, "conv_long_char", nil},
	OpConvFloatChar:   {OpConvFloatChar, "conv_float_char", nil},
	OpConvFloatLong:   {OpConvFloatLong, "conv_float_long", nil},

	OpMakeStruct:       {OpMakeStruct, "make_struct", []ImmKind{ImmByte}},
	OpMakeNullStruct:   {OpMakeNullStruct, "make_null_struct", nil},
	OpStructLoadField:  {OpStructLoadField, "struct_load_field", []ImmKind{ImmByte}},
	OpStructStoreField: {OpStructStoreField, "struct_store_field", []ImmKind{ImmByte}},

	OpJump:   {OpJump, "jump", []ImmKind{ImmLabel}},
	OpJumpIf: {OpJumpIf, "jump_if", []ImmKind{ImmLabel}},

	OpCall:          {OpCall, "call", []ImmKind{ImmByte, ImmLabel}},
	OpCallTail:      {OpCallTail, "call_tail", []ImmKind{ImmByte, ImmLabel}},
	OpCallForked:    {OpCallForked, "call_forked", []ImmKind{ImmByte, ImmLabel}},
	OpCallDyn:       {OpCallDyn, "call_dyn", []ImmKind{ImmByte}},
	OpCallDynTail:   {OpCallDynTail, "call_dyn_tail", []ImmKind{ImmByte}},
	OpCallDynForked: {OpCallDynForked, "call_dyn_forked", []ImmKind{ImmByte}},

	OpRet: {OpRet, "ret", nil},

	OpAllocAtomic: {OpAllocAtomic, "alloc_atomic", nil},
	OpAtomicLoad:  {OpAtomicLoad, "atomic_load", nil},
	OpAtomicStore: {OpAtomicStore, "atomic_store", nil},
	OpAtomicCAS:   {OpAtomicCAS, "atomic_cas", nil},
	OpAtomicBlock: {OpAtomicBlock, "atomic_block", nil},

	OpFutureWaitNano: {OpFutureWaitNano, "future_wait_nano", []ImmKind{ImmInt64}},
	OpFutureBlock:    {OpFutureBlock, "future_block", nil},

	OpPCall: {OpPCall, "pcall", []ImmKind{ImmByte}},

	OpDup:  {OpDup, "dup", nil},
	OpPop:  {OpPop, "pop", nil},
	OpSwap: {OpSwap, "swap", nil},
	OpFail: {OpFail, "fail", nil},
}

func (o Opcode) String() string {
	if info, ok := AllOpcodes[o]; ok {
		return info.Name
	}
	return fmt.Sprintf("unknown-opcode(%d)", uint8(o))
}

// Info returns o's metadata, or an error if o is not a recognized opcode.
func (o Opcode) Info() (OpcodeInfo, error) {
	info, ok := AllOpcodes[o]
	if !ok {
		return OpcodeInfo{}, fmt.Errorf("unknown opcode: %d", uint8(o))
	}
	return info, nil
}

// Size is the total encoded length in bytes: the opcode byte plus every
// immediate's fixed width.
func (o Opcode) Size() int {
	info, err := o.Info()
	if err != nil {
		return 1
	}
	size := 1
	for _, imm := range info.Immediates {
		size += imm.Size()
	}
	return size
}
