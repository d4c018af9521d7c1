package heartbeat

import (
	"errors"
	"time"

	"github.com/UhthredB/tsaheylu-sub000/pkg/budget"
)

// Outcome is what the scheduler needs to know about the last cycle.
type Outcome struct {
	// RetryAfter is the outstanding rate-limit wait, zero if none.
	RetryAfter time.Duration
	// Suspended is set when the account is suspended; SuspendedFor is the remaining time.
	Suspended    bool
	SuspendedFor time.Duration
}

// OutcomeOf maps a backoff error to an Outcome. Any other error yields the zero Outcome.
func OutcomeOf(err error) Outcome {
	var suspended *budget.SuspendedError
	if errors.As(err, &suspended) {
		return Outcome{Suspended: true, SuspendedFor: suspended.ResumeIn}
	}
	var limited *budget.RateLimitedError
	if errors.As(err, &limited) {
		return Outcome{RetryAfter: limited.RetryAfter}
	}
	return Outcome{}
}

// Schedule computes the single wait before the next loop iteration.
type Schedule struct {
	Interval          time.Duration
	SuspensionCeiling time.Duration
	SuspensionBuffer  time.Duration
}

// NextWait returns how long to sleep given the last outcome.
//   - suspended: the remaining suspension plus the buffer, capped at the ceiling
//   - rate limited: the server or window retry-after
//   - otherwise: the heartbeat interval
func (s Schedule) NextWait(o Outcome) time.Duration {
	if o.Suspended {
		wait := o.SuspendedFor + s.SuspensionBuffer
		if s.SuspensionCeiling > 0 && wait > s.SuspensionCeiling {
			wait = s.SuspensionCeiling
		}
		if wait <= 0 {
			wait = s.SuspensionBuffer
		}
		return wait
	}
	if o.RetryAfter > 0 {
		return o.RetryAfter
	}
	return s.Interval
}
