package rollingavg

import "testing"

func TestPushWarmsUpBeforeWindowFills(t *testing.T) {
	a := New(4)

	if got := a.Push(2); got != 2 {
		t.Errorf("expected avg 2 after first push, got %v", got)
	}
	if got := a.Push(4); got != 3 {
		t.Errorf("expected avg 3 after second push, got %v", got)
	}
}

func TestPushDropsOldestOnceWindowFull(t *testing.T) {
	a := New(3)
	a.Push(1)
	a.Push(2)
	a.Push(3)
	if got := a.Push(6); got != 11.0/3.0 {
		t.Errorf("expected avg %v, got %v", 11.0/3.0, got)
	}
}

func TestNewSeededStartsAtPrior(t *testing.T) {
	a := NewSeeded(4, 0.5)
	if got, ok := a.LastAvg(); !ok || got != 0.5 {
		t.Errorf("expected seeded LastAvg 0.5, got %v (ok=%v)", got, ok)
	}
	got := a.Push(0.5)
	if got != 0.5 {
		t.Errorf("expected avg unchanged at 0.5 when pushing the same value, got %v", got)
	}
}

func TestLastAvgFalseBeforeFirstPush(t *testing.T) {
	a := New(4)
	if _, ok := a.LastAvg(); ok {
		t.Error("expected LastAvg to report false before any push")
	}
}
