package scheduler

import "time"

// Recorder receives session metrics. pkg/metrics provides a Prometheus
// implementation.
type Recorder interface {
	SessionStarted(label string)
	SessionTerminated(label string, reason Reason)
	RenderApplied(label string, d time.Duration)
	SessionFailed(label, op string)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) SessionStarted(string) {}
func (NopRecorder) SessionTerminated(string, Reason) {}
func (NopRecorder) RenderApplied(string, time.Duration) {}
func (NopRecorder) SessionFailed(string, string) {}
