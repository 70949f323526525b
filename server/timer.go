package main

// Timer is a repeating countdown driven by the simulation clock.
type Timer struct {
	Duration float64 // seconds
	elapsed  float64
}

func NewTimer(seconds float64) *Timer {
	return &Timer{Duration: seconds}
}

// Tick advances the timer by dt and reports whether it fired. Several
// periods elapsing in one call still fire once.
func (t *Timer) Tick(dt float64) bool {
	if t.Duration <= 0 {
		return false
	}
	t.elapsed += dt
	if t.elapsed < t.Duration {
		return false
	}
	for t.elapsed >= t.Duration {
		t.elapsed -= t.Duration
	}
	return true
}

func (t *Timer) Reset() { t.elapsed = 0 }

// Remaining returns the seconds left until the timer next fires.
func (t *Timer) Remaining() float64 {
	return t.Duration - t.elapsed
}
