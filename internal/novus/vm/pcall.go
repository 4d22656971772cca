package vm

import (
	"fmt"
	"os"

	"github.com/novus-lang/novus/internal/novus/platform"
)

// PCallCode is the one-byte operand of the PCall opcode (spec §4.7).
type PCallCode byte

const (
	PCallStreamOpenFile PCallCode = iota
	PCallStreamOpenConsole
	PCallStreamCheckValid
	PCallStreamReadString
	PCallStreamReadChar
	PCallStreamWriteString
	PCallStreamWriteChar
	PCallStreamFlush
	PCallStreamSetOptions
	PCallStreamUnsetOptions

	PCallFileRemove

	PCallTermSetOptions
	PCallTermUnsetOptions

	PCallGetEnvArg
	PCallGetEnvArgCount
	PCallGetEnvVar

	PCallClockMicroSinceEpoch
	PCallClockNanoSteady

	PCallSleepNano

	PCallAssert

	PCallTCPOpenConnection
	PCallTCPStartServer
	PCallTCPAcceptConnection
	PCallTCPDNSLookup

	PCallProcessStart
	PCallProcessBlock
	PCallProcessOpenStream

	PCallVersion
)

// consoleKind selects which of the three standard streams a
// StreamOpenConsole call opens.
type consoleKind int32

const (
	consoleStdin consoleKind = iota
	consoleStdout
	consoleStderr
)

// dispatchPCall executes one pcall against e's stack, per spec §4.7.
// Blocking calls bracket their blocking region with Paused/Running and
// a trap() check on resume (spec §5 suspension points).
func (e *Executor) dispatchPCall(code PCallCode) error {
	switch code {
	case PCallStreamOpenFile:
		return e.pcallStreamOpenFile()
	case PCallStreamOpenConsole:
		return e.pcallStreamOpenConsole()
	case PCallStreamCheckValid:
		return e.pcallStreamCheckValid()
	case PCallStreamReadString:
		return e.pcallBlocking(e.pcallStreamReadString)
	case PCallStreamReadChar:
		return e.pcallBlocking(e.pcallStreamReadChar)
	case PCallStreamWriteString:
		return e.pcallBlocking(e.pcallStreamWriteString)
	case PCallStreamWriteChar:
		return e.pcallBlocking(e.pcallStreamWriteChar)
	case PCallStreamFlush:
		return e.pcallStreamFlush()
	case PCallStreamSetOptions:
		return e.pcallStreamSetOptions(true)
	case PCallStreamUnsetOptions:
		return e.pcallStreamSetOptions(false)

	case PCallFileRemove:
		return e.pcallFileRemove()

	case PCallTermSetOptions:
		return e.pcallTermOptions(true)
	case PCallTermUnsetOptions:
		return e.pcallTermOptions(false)

	case PCallGetEnvArg:
		return e.pcallGetEnvArg()
	case PCallGetEnvArgCount:
		return e.pcallGetEnvArgCount()
	case PCallGetEnvVar:
		return e.pcallGetEnvVar()

	case PCallClockMicroSinceEpoch:
		return e.push(Int32Wide(platform.MicroSinceEpoch()))
	case PCallClockNanoSteady:
		return e.push(Int32Wide(platform.NanoSteady()))

	case PCallSleepNano:
		return e.pcallSleepNano()

	case PCallAssert:
		return e.pcallAssert()

	case PCallTCPOpenConnection, PCallTCPStartServer, PCallTCPAcceptConnection, PCallTCPDNSLookup:
		return e.pcallSockets(code)

	case PCallProcessStart, PCallProcessBlock, PCallProcessOpenStream:
		return e.pcallProcessUnsupported(code)

	case PCallVersion:
		return e.pcallVersion()

	default:
		return fmt.Errorf("unknown pcall code: %d", code)
	}
}

// pcallBlocking brackets fn with the Paused/Running/trap protocol
// required of every blocking pcall (spec §5).
func (e *Executor) pcallBlocking(fn func() error) error {
	e.handle.SetState(ExecPaused)
	err := fn()
	e.handle.SetState(ExecRunning)
	if !e.handle.Trap() {
		return errAborted
	}
	return err
}

func (e *Executor) pcallStreamOpenFile() error {
	pathVal, err := e.pop()
	if err != nil {
		return err
	}
	path, ok := e.stringOf(pathVal)
	if !ok {
		return fmt.Errorf("pcall StreamOpenFile: operand is not a string")
	}
	s, openErr := platform.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if openErr != nil {
		return e.push(NullRef)
	}
	ref, err := e.alloc.AllocPlatform(RefKindStream, s)
	if err != nil {
		return err
	}
	return e.push(RefValue(ref))
}

func (e *Executor) pcallStreamOpenConsole() error {
	kindVal, err := e.pop()
	if err != nil {
		return err
	}
	kind, _ := kindVal.ToInt32()
	var f *os.File
	switch consoleKind(kind) {
	case consoleStdin:
		f = e.platform.Stdin.File()
	case consoleStdout:
		f = e.platform.Stdout.File()
	case consoleStderr:
		f = e.platform.Stderr.File()
	default:
		return fmt.Errorf("pcall StreamOpenConsole: unknown console kind %d", kind)
	}
	ref, err := e.alloc.AllocPlatform(RefKindStream, platform.OpenConsole(f))
	if err != nil {
		return err
	}
	return e.push(RefValue(ref))
}

func (e *Executor) streamOf(v Value) (*platform.Stream, bool) {
	if v.Kind != VKRef || v.Ref == nil || v.Ref.Kind != RefKindStream {
		return nil, false
	}
	s, ok := v.Ref.Platform.(*platform.Stream)
	return s, ok
}

func (e *Executor) pcallStreamCheckValid() error {
	v, err := e.pop()
	if err != nil {
		return err
	}
	s, ok := e.streamOf(v)
	valid := ok && s.Valid()
	return e.push(Bool(valid))
}

func (e *Executor) pcallStreamReadString() error {
	v, err := e.pop()
	if err != nil {
		return err
	}
	s, ok := e.streamOf(v)
	if !ok || !s.Valid() {
		ref, aerr := e.alloc.AllocString(nil)
		if aerr != nil {
			return aerr
		}
		return e.push(RefValue(ref))
	}
	str, _ := s.ReadString()
	ref, aerr := e.alloc.AllocString([]byte(str))
	if aerr != nil {
		return aerr
	}
	return e.push(RefValue(ref))
}

func (e *Executor) pcallStreamReadChar() error {
	v, err := e.pop()
	if err != nil {
		return err
	}
	s, ok := e.streamOf(v)
	if !ok || !s.Valid() {
		return e.push(Int32(-1))
	}
	b, ok := s.ReadChar()
	if !ok {
		return e.push(Int32(-1))
	}
	return e.push(Int32(int32(b)))
}

func (e *Executor) pcallStreamWriteString() error {
	strVal, err := e.pop()
	if err != nil {
		return err
	}
	streamVal, err := e.pop()
	if err != nil {
		return err
	}
	s, ok := e.streamOf(streamVal)
	if !ok {
		return e.push(Bool(false))
	}
	str, _ := e.stringOf(strVal)
	return e.push(Bool(s.WriteString(str)))
}

func (e *Executor) pcallStreamWriteChar() error {
	chVal, err := e.pop()
	if err != nil {
		return err
	}
	streamVal, err := e.pop()
	if err != nil {
		return err
	}
	s, ok := e.streamOf(streamVal)
	if !ok {
		return e.push(Bool(false))
	}
	ch, _ := chVal.ToInt32()
	return e.push(Bool(s.WriteChar(byte(ch))))
}

func (e *Executor) pcallStreamFlush() error {
	v, err := e.pop()
	if err != nil {
		return err
	}
	s, ok := e.streamOf(v)
	if !ok {
		return e.push(Bool(false))
	}
	return e.push(Bool(s.Flush()))
}

// pcallStreamSetOptions implements StreamSetOptions/StreamUnsetOptions,
// which for a console stream means the terminal raw-mode toggle (spec
// §9: non-terminal handles report unsupported rather than failing).
func (e *Executor) pcallStreamSetOptions(set bool) error {
	v, err := e.pop()
	if err != nil {
		return err
	}
	s, ok := e.streamOf(v)
	if !ok || !s.IsTerminal() {
		return e.push(Bool(false))
	}
	return e.pcallTermToggle(s, set)
}

func (e *Executor) pcallFileRemove() error {
	v, err := e.pop()
	if err != nil {
		return err
	}
	path, _ := e.stringOf(v)
	return e.push(Bool(os.Remove(path) == nil))
}

func (e *Executor) pcallTermOptions(set bool) error {
	v, err := e.pop()
	if err != nil {
		return err
	}
	s, ok := e.streamOf(v)
	if !ok || !s.IsTerminal() {
		return e.push(Bool(false))
	}
	return e.pcallTermToggle(s, set)
}

func (e *Executor) pcallGetEnvArg() error {
	idxVal, err := e.pop()
	if err != nil {
		return err
	}
	idx, _ := idxVal.ToInt32()
	if int(idx) < 0 || int(idx) >= len(e.platform.EnvArgs) {
		ref, aerr := e.alloc.AllocString(nil)
		if aerr != nil {
			return aerr
		}
		return e.push(RefValue(ref))
	}
	ref, aerr := e.alloc.AllocString([]byte(e.platform.EnvArgs[idx]))
	if aerr != nil {
		return aerr
	}
	return e.push(RefValue(ref))
}

func (e *Executor) pcallGetEnvArgCount() error {
	return e.push(Int32(int32(len(e.platform.EnvArgs))))
}

func (e *Executor) pcallGetEnvVar() error {
	v, err := e.pop()
	if err != nil {
		return err
	}
	name, _ := e.stringOf(v)
	value, ok := os.LookupEnv(name)
	if !ok {
		value = ""
	}
	ref, aerr := e.alloc.AllocString([]byte(value))
	if aerr != nil {
		return aerr
	}
	return e.push(RefValue(ref))
}

func (e *Executor) pcallSleepNano() error {
	v, err := e.pop()
	if err != nil {
		return err
	}
	nanos, _ := v.ToLong()
	return e.pcallBlocking(func() error {
		platform.Sleep(nanos)
		return nil
	})
}

func (e *Executor) pcallAssert() error {
	predVal, err := e.pop()
	if err != nil {
		return err
	}
	msgVal, err := e.pop()
	if err != nil {
		return err
	}
	pred, _ := predVal.ToInt32()
	if pred != 0 {
		return nil
	}
	msg, _ := e.stringOf(msgVal)
	fmt.Fprintln(os.Stderr, msg)
	e.handle.SetState(ExecAssertFailed)
	return errTerminal
}

// pcallSockets implements the TCP pcall family, gated by SocketsEnabled
// (spec §4.7). A disabled gate is a normal refusal: push NullRef, same
// as any other "no connection" result. An enabled gate promises a real
// TCP surface this VM core does not implement, so that case is an
// irrecoverable pcall failure (spec §4.7 "sets executor state on
// irrecoverable failure") rather than a null indistinguishable from a
// refused connection.
func (e *Executor) pcallSockets(code PCallCode) error {
	if !e.platform.SocketsEnabled {
		return e.push(NullRef)
	}
	e.handle.SetState(ExecFailed)
	return errTerminal
}

func (e *Executor) pcallProcessUnsupported(code PCallCode) error {
	return e.push(NullRef)
}

func (e *Executor) pcallVersion() error {
	ref, err := e.alloc.AllocString([]byte("novus-0"))
	if err != nil {
		return err
	}
	return e.push(RefValue(ref))
}

// Int32Wide packs an int64 clock reading as an inline Value. Clock
// readings always fit inline since time.Now() never yields a negative
// epoch value.
func Int32Wide(v int64) Value {
	if v < 0 {
		v = 0
	}
	return Value{Kind: VKLongInline, Bits: uint64(v)}
}
