package budget

import "time"

// DailyCounters is the persisted daily action counter document.
type DailyCounters struct {
	DailyCommentCount int `json:"dailyCommentCount"`
	// DailyCommentReset is the epoch-millisecond timestamp of the last rollover.
	DailyCommentReset int64  `json:"dailyCommentReset"`
	LastSaved         string `json:"lastSaved"`
}

// ResetTime returns the rollover timestamp as a time.Time.
func (c DailyCounters) ResetTime() time.Time {
	return time.UnixMilli(c.DailyCommentReset)
}

// SuspensionState is the persisted account-suspension window.
type SuspensionState struct {
	Suspended bool      `json:"suspended"`
	ResumeAt  time.Time `json:"resumeAt"`
	Reason    string    `json:"reason,omitempty"`
	Since     time.Time `json:"since,omitempty"`
}

// Status is a read-only snapshot of the tracker.
type Status struct {
	RequestsInWindow  int           `json:"requestsInWindow"`
	RequestsPerMinute int           `json:"requestsPerMinute"`
	DailyComments     int           `json:"dailyComments"`
	DailyCommentCap   int           `json:"dailyCommentCap"`
	DailyResetAt      time.Time     `json:"dailyResetAt"`
	PostReadyIn       time.Duration `json:"postReadyIn"`
	CommentReadyIn    time.Duration `json:"commentReadyIn"`
	Suspended         bool          `json:"suspended"`
	ResumeAt          time.Time     `json:"resumeAt,omitempty"`
	SuspensionReason  string        `json:"suspensionReason,omitempty"`
	RetryAfterUntil   time.Time     `json:"retryAfterUntil,omitempty"`
}
