package main

import (
	"time"
)

// pollResult is the terminal condition a bounded poll reached. The poller
// never returns an error; the caller decides whether a timeout is fatal.
type pollResult int

const (
	pollSatisfied pollResult = iota
	pollTimedOut
)

func (r pollResult) String() string {
	switch r {
	case pollSatisfied:
		return "satisfied"
	case pollTimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// sleeper pauses the calling goroutine. The tests inject one that only
// records durations so polls run on logical time.
type sleeper func(time.Duration)

// pollUntil evaluates cond every interval until it returns true or until
// elapsed reaches maxWait. cond is always evaluated at least once, and is
// handed the elapsed time so callers can escalate mid-wait. Elapsed is a
// counter of completed intervals, not wall clock, so a slow remote query
// inside cond does not eat into the wait.
func pollUntil(cond func(elapsed time.Duration) bool, interval, maxWait time.Duration, sleep sleeper) pollResult {
	var elapsed time.Duration

	for {
		if cond(elapsed) {
			return pollSatisfied
		}
		if elapsed >= maxWait {
			return pollTimedOut
		}
		sleep(interval)
		elapsed += interval
	}
}
