package util

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Timer measures how long a generation step or outbound call took.
type Timer struct {
	start time.Time
}

// StartTimer starts a timer at the current time.
func StartTimer() Timer {
	return Timer{start: time.Now()}
}

// Elapsed is zero for a timer that was never started.
func (t Timer) Elapsed() time.Duration {
	if t.start.IsZero() {
		return 0
	}
	return time.Since(t.start)
}

// ElapsedMs returns the elapsed milliseconds since start.
func (t Timer) ElapsedMs() int64 {
	return t.Elapsed().Milliseconds()
}

// Fields tags a log entry with the step name and its latency.
func (t Timer) Fields(step string) logrus.Fields {
	return logrus.Fields{"step": step, "elapsed_ms": t.ElapsedMs()}
}
