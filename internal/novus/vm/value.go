// Package vm is the Novus bytecode executor: value representation,
// reference allocator, concurrent garbage collector, executor registry,
// and the platform-call dispatcher.
package vm

import (
	"fmt"
	"math"
)

// ValueKind discriminates the scalar/ip/reference interpretations a
// Value can carry. Go has no bit-packed union, so the tag is an
// explicit field rather than a stolen high bit (see DESIGN.md's Open
// Question decision on the LongRef boundary).
type ValueKind uint8

const (
	VKInt32 ValueKind = iota
	VKBool
	VKLongInline // non-negative int64, fits inline
	VKFloat32
	VKIp      // raw instruction-pointer offset (uint32)
	VKRawPtr  // raw function pointer (uint32), an unclosed call target
	VKRef     // reference to a heap object
	VKNullRef // the sentinel null-ref
)

func (k ValueKind) String() string {
	switch k {
	case VKInt32:
		return "int32"
	case VKBool:
		return "bool"
	case VKLongInline:
		return "long"
	case VKFloat32:
		return "float32"
	case VKIp:
		return "ip"
	case VKRawPtr:
		return "rawptr"
	case VKRef:
		return "ref"
	case VKNullRef:
		return "null-ref"
	default:
		return fmt.Sprintf("unknown-value-kind(%d)", uint8(k))
	}
}

// Value is the VM's 64-bit cell: a tagged union over int32, bool,
// inline non-negative int64, float32, raw IP, raw pointer, heap
// reference, or null-ref (spec §3 Value).
type Value struct {
	Kind ValueKind
	Bits uint64 // scalar payload, interpretation depends on Kind
	Ref  *Ref   // non-nil only when Kind == VKRef
}

// NullRef is the sentinel reference value.
var NullRef = Value{Kind: VKNullRef}

func Int32(v int32) Value   { return Value{Kind: VKInt32, Bits: uint64(uint32(v))} }
func Bool(v bool) Value     { return Value{Kind: VKBool, Bits: boolBit(v)}  }
func Float32(v float32) Value {
	return Value{Kind: VKFloat32, Bits: uint64(math.Float32bits(v))}
}
func IP(offset uint32) Value     { return Value{Kind: VKIp, Bits: uint64(offset)} }
func RawPtr(offset uint32) Value { return Value{Kind: VKRawPtr, Bits: uint64(offset)} }
func RefValue(r *Ref) Value      { return Value{Kind: VKRef, Ref: r} }

func boolBit(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}

// Int64 implements invariant (a): a negative int64 must be allocated as
// a LongRef; a non-negative one is stored inline. alloc is consulted
// only for negative values.
func Int64(alloc *RefAllocator, v int64) (Value, error) {
	if v >= 0 {
		return Value{Kind: VKLongInline, Bits: uint64(v)}, nil
	}
	ref, err := alloc.AllocLong(v)
	if err != nil {
		return Value{}, err
	}
	return RefValue(ref), nil
}

// ToInt32 extracts an int32 payload.
func (v Value) ToInt32() (int32, bool) {
	if v.Kind != VKInt32 {
		return 0, false
	}
	return int32(uint32(v.Bits)), true
}

// ToBool extracts a bool payload.
func (v Value) ToBool() (bool, bool) {
	if v.Kind != VKBool {
		return false, false
	}
	return v.Bits != 0, true
}

// ToFloat32 extracts a float32 payload.
func (v Value) ToFloat32() (float32, bool) {
	if v.Kind != VKFloat32 {
		return 0, false
	}
	return math.Float32frombits(uint32(v.Bits)), true
}

// ToLong implements the Value round-trip property (spec §8): regardless
// of sign, Int64(alloc, v) followed by ToLong returns v.
func (v Value) ToLong() (int64, bool) {
	switch v.Kind {
	case VKLongInline:
		return int64(v.Bits), true
	case VKRef:
		if v.Ref != nil && v.Ref.Kind == RefKindLong {
			return v.Ref.Long, true
		}
	}
	return 0, false
}

// ToIP extracts a raw instruction-pointer offset, accepting either a
// plain VKIp/VKRawPtr value or a closure struct's trailing IP field per
// invariant (b)/(c).
func (v Value) ToIP() (uint32, bool) {
	switch v.Kind {
	case VKIp, VKRawPtr:
		return uint32(v.Bits), true
	case VKRef:
		if v.Ref != nil && v.Ref.Kind == RefKindStruct && len(v.Ref.Fields) > 0 {
			last := v.Ref.Fields[len(v.Ref.Fields)-1]
			return last.ToIP()
		}
	}
	return 0, false
}

// IsRef reports whether v discriminates as "is-reference".
func (v Value) IsRef() bool { return v.Kind == VKRef }
