package logging

import (
	"time"
)

// TimingContext holds timing information for manual Start/End tracking
type TimingContext struct {
	name      string
	startTime time.Time
	logger    *Logger
}

// Start begins a timing measurement on this logger.
// Must be paired with End or EndWithCount to log the duration.
//
// Example:
//
//	tc := logger.Start("check round")
//	// ... do work ...
//	tc.EndWithCount(len(contexts))
func (l *Logger) Start(name string) TimingContext {
	return TimingContext{
		name:      name,
		startTime: time.Now(),
		logger:    l,
	}
}

// End completes the measurement and logs the duration.
func (t TimingContext) End() time.Duration {
	duration := time.Since(t.startTime)
	if t.logger != nil && t.logger.IsEnabled() {
		t.logger.Debug(t.name,
			"duration", duration.String(),
			"ms", duration.Milliseconds(),
		)
	}
	return duration
}

// EndWithCount completes the measurement and logs the duration with an item count.
func (t TimingContext) EndWithCount(count int) time.Duration {
	duration := time.Since(t.startTime)
	if t.logger != nil && t.logger.IsEnabled() {
		t.logger.Debug(t.name,
			"duration", duration.String(),
			"ms", duration.Milliseconds(),
			"count", count,
		)
	}
	return duration
}

// Time executes fn and logs its execution time on this logger.
func (l *Logger) Time(name string, fn func()) {
	if !l.IsEnabled() {
		fn()
		return
	}
	tc := l.Start(name)
	fn()
	tc.End()
}
