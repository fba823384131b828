package chron

import "testing"

func TestTimerExpiry(t *testing.T) {
	tm := New()
	tm.Start(1000)

	tm.Clock(500)
	if tm.HasExpired() {
		t.Errorf("timer expired early at 500ms of 1000ms")
	}

	tm.Clock(500)
	if !tm.HasExpired() {
		t.Errorf("timer should have expired at exactly 1000ms")
	}
}

func TestZeroTimeoutNeverExpires(t *testing.T) {
	tm := New()
	tm.Start(0)
	tm.Clock(1_000_000)
	if tm.IsRunning() {
		t.Errorf("Start(0) should disarm the timer")
	}
	if tm.HasExpired() {
		t.Errorf("a zero-timeout timer must never report expired")
	}
}

func TestStopHaltsAdvancement(t *testing.T) {
	tm := New()
	tm.Start(100)
	tm.Stop()
	tm.Clock(1000)
	if tm.HasExpired() {
		t.Errorf("a stopped timer must not expire")
	}
}

func TestClockNoOpWhenNotRunning(t *testing.T) {
	tm := New()
	tm.Clock(500)
	if tm.IsRunning() {
		t.Errorf("Clock() on a never-started timer should not start it")
	}
}
