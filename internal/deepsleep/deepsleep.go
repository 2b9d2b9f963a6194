// Package deepsleep exposes the deep-sleep policy contract: Device asks it
// once per tick whether enough idle time has elapsed to justify sleeping.
// No actual sleep syscall is made here; hardware power management is out of
// scope.
package deepsleep

import "time"

// Policy decides whether the dice should enter deep sleep.
type Policy interface {
	ShouldSleep(idleSince time.Duration) bool
}

// Timeout is the default Policy, comparing idle duration against a fixed
// threshold taken from config.
type Timeout struct {
	Threshold time.Duration
}

func NewTimeout(threshold time.Duration) Timeout { return Timeout{Threshold: threshold} }

func (t Timeout) ShouldSleep(idleSince time.Duration) bool {
	return t.Threshold > 0 && idleSince >= t.Threshold
}
