package vm

import (
	"strconv"

	"github.com/novus-lang/novus/internal/novus/novasm"
)

// opConvert implements the numeric/string conversion family (spec
// §4.4): numeric-to-string conversions use six significant digits for
// floats; ConvIntChar truncates to one byte.
func (e *Executor) opConvert(op novasm.Opcode) error {
	v, err := e.pop()
	if err != nil {
		return err
	}

	switch op {
	case novasm.OpConvIntLong:
		n, _ := v.ToInt32()
		out, verr := Int64(e.alloc, int64(n))
		if verr != nil {
			e.handle.SetState(ExecAllocFailed)
			return errTerminal
		}
		return e.push(out)
	case novasm.OpConvIntFloat:
		n, _ := v.ToInt32()
		return e.push(Float32(float32(n)))
	case novasm.OpConvLongInt:
		n, _ := v.ToLong()
		return e.push(Int32(int32(n)))
	case novasm.OpConvLongFloat:
		n, _ := v.ToLong()
		return e.push(Float32(float32(n)))
	case novasm.OpConvFloatInt:
		f, _ := v.ToFloat32()
		return e.push(Int32(int32(f)))
	case novasm.OpConvFloatLong:
		f, _ := v.ToFloat32()
		out, verr := Int64(e.alloc, int64(f))
		if verr != nil {
			e.handle.SetState(ExecAllocFailed)
			return errTerminal
		}
		return e.push(out)
	case novasm.OpConvIntString:
		n, _ := v.ToInt32()
		return e.pushString(strconv.Itoa(int(n)))
	case novasm.OpConvLongString:
		n, _ := v.ToLong()
		return e.pushString(strconv.FormatInt(n, 10))
	case novasm.OpConvFloatString:
		f, _ := v.ToFloat32()
		return e.pushString(strconv.FormatFloat(float64(f), 'g', 6, 32))
	case novasm.OpConvCharString:
		n, _ := v.ToInt32()
		return e.pushString(string([]byte{byte(n)}))
	case novasm.OpConvIntChar:
		n, _ := v.ToInt32()
		return e.push(Int32(int32(byte(n))))
	case novasm.OpConvLongChar:
		n, _ := v.ToLong()
		return e.push(Int32(int32(byte(n))))
	case novasm.OpConvFloatChar:
		f, _ := v.ToFloat32()
		return e.push(Int32(int32(byte(int32(f)))))
	}
	return nil
}

func (e *Executor) pushString(s string) error {
	ref, err := e.alloc.AllocString([]byte(s))
	if err != nil {
		e.handle.SetState(ExecAllocFailed)
		return errTerminal
	}
	return e.push(RefValue(ref))
}
