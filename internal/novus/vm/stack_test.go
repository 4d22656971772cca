package vm

import "testing"

func TestStackPushPopOrder(t *testing.T) {
	s := NewStack(4)
	if err := s.Push(Int32(1)); err != nil {
		t.Fatal(err)
	}
	if err := s.Push(Int32(2)); err != nil {
		t.Fatal(err)
	}
	v, err := s.Pop()
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := v.ToInt32(); n != 2 {
		t.Fatalf("Pop: got %d, want 2", n)
	}
	v, err = s.Pop()
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := v.ToInt32(); n != 1 {
		t.Fatalf("Pop: got %d, want 1", n)
	}
}

func TestStackOverflow(t *testing.T) {
	s := NewStack(2)
	if err := s.Push(Int32(1)); err != nil {
		t.Fatal(err)
	}
	if err := s.Push(Int32(2)); err != nil {
		t.Fatal(err)
	}
	if err := s.Push(Int32(3)); err != ErrStackOverflow {
		t.Fatalf("Push past capacity: got %v, want ErrStackOverflow", err)
	}
}

func TestStackUnderflowRespectsBottom(t *testing.T) {
	s := NewStack(4)
	_ = s.Push(Int32(1))
	s.SetBottom(1)
	if _, err := s.Pop(); err != ErrStackUnderflow {
		t.Fatalf("Pop below bottom: got %v, want ErrStackUnderflow", err)
	}
}

func TestStackFrameLoadStoreAlloc(t *testing.T) {
	s := NewStack(8)
	_ = s.Push(Int32(10)) // arg0 at bottom+0
	_ = s.Push(Int32(20)) // arg1 at bottom+1
	if err := s.Alloc(2); err != nil {
		t.Fatal(err)
	}
	if err := s.StoreAt(2, Int32(99)); err != nil {
		t.Fatal(err)
	}
	v, err := s.LoadAt(2)
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := v.ToInt32(); n != 99 {
		t.Fatalf("LoadAt(2): got %d, want 99", n)
	}
	v0, _ := s.LoadAt(0)
	if n, _ := v0.ToInt32(); n != 10 {
		t.Fatalf("LoadAt(0): got %d, want 10", n)
	}
}

func TestStackRewindToNextClearsAboveAndPreservesBelow(t *testing.T) {
	s := NewStack(8)
	_ = s.Push(Int32(1))
	_ = s.Push(Int32(2))
	_ = s.Push(Int32(3))
	if err := s.RewindToNext(1); err != nil {
		t.Fatal(err)
	}
	if s.Next() != 1 {
		t.Fatalf("Next() after rewind: got %d, want 1", s.Next())
	}
	v, err := s.AbsoluteAt(0)
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := v.ToInt32(); n != 1 {
		t.Fatalf("AbsoluteAt(0) survives rewind: got %d, want 1", n)
	}
}

func TestStackAbsoluteAtOutOfRange(t *testing.T) {
	s := NewStack(4)
	_ = s.Push(Int32(1))
	if _, err := s.AbsoluteAt(5); err != ErrStackUnderflow {
		t.Fatalf("AbsoluteAt out of range: got %v, want ErrStackUnderflow", err)
	}
}

func TestStackWalkValuesVisitsOnlyLive(t *testing.T) {
	s := NewStack(8)
	_ = s.Push(Int32(1))
	_ = s.Push(Int32(2))
	var seen []int32
	s.WalkValues(func(v Value) {
		n, _ := v.ToInt32()
		seen = append(seen, n)
	})
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("WalkValues: got %v, want [1 2]", seen)
	}
}
