package budget

import (
	"time"

	"github.com/sirupsen/logrus"
)

// DailyPeriod is the wall-clock length of one daily budget period.
const DailyPeriod = 24 * time.Hour

// CheckDailyReset rolls the daily counter over when a full period has passed
// since the last reset. Returns true if a reset occurred.
func CheckDailyReset(c *DailyCounters, now time.Time) bool {
	if c.DailyCommentReset == 0 {
		c.DailyCommentReset = now.UnixMilli()
		return true
	}

	sinceReset := now.Sub(c.ResetTime())
	if sinceReset > DailyPeriod {
		logrus.Debugf("daily reset triggered: %v since last reset", sinceReset)
		c.DailyCommentCount = 0
		c.DailyCommentReset = now.UnixMilli()
		return true
	}

	return false
}

// CooldownRemaining returns how long until an action last performed at last
// may run again. Zero means the action is available.
func CooldownRemaining(last time.Time, cooldown time.Duration, now time.Time) time.Duration {
	if last.IsZero() {
		return 0
	}
	ready := last.Add(cooldown)
	if !now.Before(ready) {
		return 0
	}
	return ready.Sub(now)
}

// PruneWindow drops timestamps older than window and returns the survivors.
// The input is assumed to be in ascending order.
func PruneWindow(stamps []time.Time, window time.Duration, now time.Time) []time.Time {
	cutoff := now.Add(-window)
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	return stamps[i:]
}

// WindowRetryAfter returns how long until the oldest timestamp leaves the window.
func WindowRetryAfter(stamps []time.Time, window time.Duration, now time.Time) time.Duration {
	if len(stamps) == 0 {
		return 0
	}
	wait := stamps[0].Add(window).Sub(now)
	if wait < time.Second {
		wait = time.Second
	}
	return wait
}

// SuspensionExpired reports whether the suspension window has passed.
func SuspensionExpired(s *SuspensionState, now time.Time) bool {
	return s.Suspended && !now.Before(s.ResumeAt)
}
