package vm

import "testing"

func TestValueRoundTripScalars(t *testing.T) {
	if n, ok := Int32(-7).ToInt32(); !ok || n != -7 {
		t.Fatalf("Int32 round trip: got (%d, %v)", n, ok)
	}
	if b, ok := Bool(true).ToBool(); !ok || !b {
		t.Fatalf("Bool round trip: got (%v, %v)", b, ok)
	}
	if f, ok := Float32(3.5).ToFloat32(); !ok || f != 3.5 {
		t.Fatalf("Float32 round trip: got (%v, %v)", f, ok)
	}
	if ip, ok := IP(42).ToIP(); !ok || ip != 42 {
		t.Fatalf("IP round trip: got (%d, %v)", ip, ok)
	}
}

// TestValueRoundTripLong exercises invariant (a): Int64 boxes negative
// values as a LongRef and stores non-negative ones inline, but ToLong
// recovers the original value either way.
func TestValueRoundTripLong(t *testing.T) {
	alloc := NewRefAllocator()

	cases := []int64{0, 1, 1 << 40, -1, -(1 << 40)}
	for _, want := range cases {
		v, err := Int64(alloc, want)
		if err != nil {
			t.Fatalf("Int64(%d): %v", want, err)
		}
		if want >= 0 && v.Kind != VKLongInline {
			t.Fatalf("Int64(%d): expected inline, got %v", want, v.Kind)
		}
		if want < 0 && v.Kind != VKRef {
			t.Fatalf("Int64(%d): expected boxed ref, got %v", want, v.Kind)
		}
		got, ok := v.ToLong()
		if !ok || got != want {
			t.Fatalf("ToLong round trip for %d: got (%d, %v)", want, got, ok)
		}
	}
}

func TestValueWrongKindAccessorsFail(t *testing.T) {
	v := Int32(5)
	if _, ok := v.ToBool(); ok {
		t.Fatal("ToBool should fail on an int32 Value")
	}
	if _, ok := v.ToFloat32(); ok {
		t.Fatal("ToFloat32 should fail on an int32 Value")
	}
	if _, ok := v.ToLong(); ok {
		t.Fatal("ToLong should fail on an int32 Value")
	}
}

func TestValueToIPFromClosureStruct(t *testing.T) {
	alloc := NewRefAllocator()
	bound := Int32(9)
	closure, err := alloc.AllocStruct([]Value{bound, IP(100)})
	if err != nil {
		t.Fatalf("AllocStruct: %v", err)
	}
	v := RefValue(closure)
	ip, ok := v.ToIP()
	if !ok || ip != 100 {
		t.Fatalf("ToIP from closure: got (%d, %v)", ip, ok)
	}
}

func TestNullRefIsRefFalse(t *testing.T) {
	if NullRef.IsRef() {
		t.Fatal("NullRef must not report IsRef() true")
	}
	if NullRef.Kind != VKNullRef {
		t.Fatalf("NullRef.Kind = %v, want VKNullRef", NullRef.Kind)
	}
}
