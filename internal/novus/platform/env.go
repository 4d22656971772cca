package platform

import "time"

// MicroSinceEpoch implements the ClockMicroSinceEpoch pcall.
func MicroSinceEpoch() int64 { return time.Now().UnixMicro() }

// steadyBase anchors NanoSteady; time.Since reads the monotonic clock
// reading that time.Now records.
var steadyBase = time.Now()

// NanoSteady implements the ClockNanoSteady pcall: a monotonic
// nanosecond counter not tied to wall-clock adjustments.
func NanoSteady() int64 { return int64(time.Since(steadyBase)) }

// Sleep implements the SleepNano pcall.
func Sleep(nanos int64) {
	if nanos <= 0 {
		return
	}
	time.Sleep(time.Duration(nanos))
}
