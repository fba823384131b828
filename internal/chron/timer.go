// Package chron provides the millisecond-resolution inactivity timer used
// by the routing engine.
package chron

// Timer is a countdown armed in milliseconds and advanced by repeated
// Clock(ms) calls from the cooperative loop. It never performs its own
// wall-clock reads; the caller supplies elapsed time each tick.
type Timer struct {
	timeoutMS int
	elapsedMS int
	running   bool
}

// New returns a stopped timer with no timeout set.
func New() *Timer {
	return &Timer{}
}

// Start arms the timer for timeoutMS milliseconds, discarding any elapsed
// time from a previous arm. A timeoutMS of 0 disarms the timer: it will
// never report expired.
func (t *Timer) Start(timeoutMS int) {
	t.timeoutMS = timeoutMS
	t.elapsedMS = 0
	t.running = timeoutMS > 0
}

// Stop halts the timer without clearing its configured timeout.
func (t *Timer) Stop() {
	t.running = false
}

// IsRunning reports whether the timer is currently armed.
func (t *Timer) IsRunning() bool {
	return t.running
}

// Clock advances the timer by ms milliseconds. A timer that has reached
// its timeout keeps running and keeps reporting expired until the caller
// calls Stop or Start.
func (t *Timer) Clock(ms int) {
	if !t.running {
		return
	}
	t.elapsedMS += ms
}

// HasExpired reports whether the timer has reached or exceeded its
// configured timeout. A zero timeout never expires.
func (t *Timer) HasExpired() bool {
	if t.timeoutMS == 0 || !t.running {
		return false
	}
	return t.elapsedMS >= t.timeoutMS
}
