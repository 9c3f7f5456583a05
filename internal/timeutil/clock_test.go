package timeutil

import (
	"testing"
	"time"
)

func TestRealClock(t *testing.T) {
	var c Clock = RealClock{}
	if c.Now().IsZero() {
		t.Fatal("RealClock.Now returned zero time")
	}
	tk := c.NewTicker(time.Millisecond)
	defer tk.Stop()
	select {
	case <-tk.C():
	case <-time.After(time.Second):
		t.Fatal("real ticker never fired")
	}
}

func TestMockClock_AdvanceFiresTicker(t *testing.T) {
	start := time.Date(2025, 5, 19, 0, 0, 0, 0, time.UTC)
	c := NewMockClock(start)
	tk := c.NewTicker(100 * time.Millisecond)

	select {
	case <-c.TickerCreated():
	default:
		t.Fatal("TickerCreated not signalled")
	}

	c.Advance(50 * time.Millisecond)
	select {
	case <-tk.C():
		t.Fatal("ticker fired early")
	default:
	}

	c.Advance(50 * time.Millisecond)
	select {
	case got := <-tk.C():
		if !got.Equal(start.Add(100 * time.Millisecond)) {
			t.Errorf("tick time = %v", got)
		}
	default:
		t.Fatal("ticker did not fire")
	}
}

func TestMockTicker_StopAndTrigger(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	tk := c.NewTicker(time.Second).(*MockTicker)
	tk.Stop()
	if !tk.Stopped() {
		t.Fatal("Stopped = false after Stop")
	}
	c.Advance(2 * time.Second)
	select {
	case <-tk.C():
		t.Fatal("stopped ticker fired")
	default:
	}

	tk.Trigger(time.Unix(5, 0))
	tk.Trigger(time.Unix(6, 0)) // dropped, buffer full
	if got := <-tk.C(); got.Unix() != 5 {
		t.Errorf("Trigger delivered %v, want unix 5", got)
	}
}

func TestMockClock_Set(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	c.Set(time.Unix(42, 0))
	if c.Now().Unix() != 42 {
		t.Errorf("Now = %v, want unix 42", c.Now())
	}
}
