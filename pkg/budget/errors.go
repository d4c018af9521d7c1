package budget

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRateLimited indicates the sliding-window request budget is spent or the platform returned 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrSuspended indicates the account is suspended and no platform call may be attempted.
	ErrSuspended = errors.New("account suspended")

	// ErrCooldownActive indicates a post or comment cooldown has not elapsed. No network call was made.
	ErrCooldownActive = errors.New("cooldown active")

	// ErrBudgetExhausted indicates the daily comment cap has been reached. No network call was made.
	ErrBudgetExhausted = errors.New("daily budget exhausted")
)

// RateLimitedError carries how long the caller should back off.
type RateLimitedError struct {
	RetryAfter time.Duration
	// Local is true when the limit was enforced in-process rather than returned by the platform.
	Local bool
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: retry after %v", e.RetryAfter)
}

func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }

// SuspendedError carries the absolute resume time and the remaining wait.
type SuspendedError struct {
	ResumeAt time.Time
	ResumeIn time.Duration
	Reason   string
}

func (e *SuspendedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("account suspended for another %v: %s", e.ResumeIn.Round(time.Second), e.Reason)
	}
	return fmt.Sprintf("account suspended for another %v", e.ResumeIn.Round(time.Second))
}

func (e *SuspendedError) Is(target error) bool { return target == ErrSuspended }

// CooldownError reports which action is cooling down and for how long.
type CooldownError struct {
	Action    string
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s cooldown active for another %v", e.Action, e.Remaining.Round(time.Second))
}

func (e *CooldownError) Is(target error) bool { return target == ErrCooldownActive }

// IsBackoff reports whether err means the caller must stop and wait (rate limit or suspension).
func IsBackoff(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrSuspended)
}

// IsSkip reports whether err is a local precondition failure that only skips the current action.
func IsSkip(err error) bool {
	return errors.Is(err, ErrCooldownActive) || errors.Is(err, ErrBudgetExhausted)
}
