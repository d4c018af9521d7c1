package budget

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/UhthredB/tsaheylu-sub000/pkg/state"
	"github.com/sirupsen/logrus"
)

// Limits configures the request budget for one agent identity.
type Limits struct {
	RequestsPerMinute  int
	Window             time.Duration
	PostCooldown       time.Duration
	CommentCooldown    time.Duration
	DailyCommentCap    int
	SuspensionFallback time.Duration
}

// DefaultLimits returns the platform's documented limits.
func DefaultLimits() Limits {
	return Limits{
		RequestsPerMinute:  100,
		Window:             time.Minute,
		PostCooldown:       30 * time.Minute,
		CommentCooldown:    20 * time.Second,
		DailyCommentCap:    50,
		SuspensionFallback: time.Hour,
	}
}

// Option customizes a Budget.
type Option func(*Budget)

// WithClock replaces time.Now, used by tests.
func WithClock(now func() time.Time) Option {
	return func(b *Budget) { b.now = now }
}

// ReadOnly loads the persisted state without ever writing it back.
// Daily rollover and suspension expiry still apply in memory.
func ReadOnly() Option {
	return func(b *Budget) { b.readOnly = true }
}

// Budget tracks the sliding request window, post/comment cooldowns, the
// persisted daily comment counter and the persisted suspension window.
// One Budget belongs to exactly one platform client.
type Budget struct {
	mu       sync.Mutex
	limits   Limits
	store    state.Store
	now      func() time.Time
	readOnly bool

	window      []time.Time
	lastPost    time.Time
	lastComment time.Time
	retryUntil  time.Time

	counters   DailyCounters
	suspension SuspensionState
}

// New creates a Budget and loads the persisted counters and suspension window.
func New(ctx context.Context, store state.Store, limits Limits, opts ...Option) (*Budget, error) {
	if limits.Window <= 0 {
		limits.Window = time.Minute
	}
	if limits.SuspensionFallback <= 0 {
		limits.SuspensionFallback = DefaultLimits().SuspensionFallback
	}

	b := &Budget{
		limits: limits,
		store:  store,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}

	if err := b.loadCounters(ctx); err != nil {
		return nil, err
	}
	if _, err := b.store.Load(ctx, state.SuspensionKey, &b.suspension); err != nil {
		return nil, fmt.Errorf("failed to load suspension state: %w", err)
	}

	if b.suspension.Suspended {
		logrus.Warnf("resuming with persisted suspension until %v (%s)", b.suspension.ResumeAt, b.suspension.Reason)
	}
	logrus.Infof("loaded daily counters: %d/%d comments since %v",
		b.counters.DailyCommentCount, limits.DailyCommentCap, b.counters.ResetTime())

	return b, nil
}

// Limits returns the configured limits.
func (b *Budget) Limits() Limits {
	return b.limits
}

// CheckRequest verifies that an outbound call may be attempted now.
func (b *Budget) CheckRequest(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if err := b.suspendedLocked(ctx, now); err != nil {
		return err
	}

	if b.limits.RequestsPerMinute <= 0 {
		return nil
	}
	b.window = PruneWindow(b.window, b.limits.Window, now)
	if len(b.window) >= b.limits.RequestsPerMinute {
		wait := WindowRetryAfter(b.window, b.limits.Window, now)
		logrus.Debugf("request window full (%d/%d), retry in %v", len(b.window), b.limits.RequestsPerMinute, wait)
		return &RateLimitedError{RetryAfter: wait, Local: true}
	}

	return nil
}

// RecordRequest accounts one call that reached the network.
func (b *Budget) RecordRequest() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.window = append(PruneWindow(b.window, b.limits.Window, now), now)
}

// NoteRetryAfter remembers a server-provided retry-after for status reporting.
func (b *Budget) NoteRetryAfter(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.retryUntil = b.now().Add(d)
}

// CheckPost verifies the post cooldown has elapsed.
func (b *Budget) CheckPost() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if remaining := CooldownRemaining(b.lastPost, b.limits.PostCooldown, b.now()); remaining > 0 {
		return &CooldownError{Action: "post", Remaining: remaining}
	}
	return nil
}

// RecordPost starts the post cooldown.
func (b *Budget) RecordPost() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastPost = b.now()
}

// CheckComment verifies the comment cooldown and the daily cap.
func (b *Budget) CheckComment(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if remaining := CooldownRemaining(b.lastComment, b.limits.CommentCooldown, now); remaining > 0 {
		return &CooldownError{Action: "comment", Remaining: remaining}
	}

	if CheckDailyReset(&b.counters, now) {
		if err := b.saveCountersLocked(ctx); err != nil {
			return err
		}
	}

	if b.limits.DailyCommentCap > 0 && b.counters.DailyCommentCount >= b.limits.DailyCommentCap {
		return fmt.Errorf("%w: %d/%d comments, resets at %v", ErrBudgetExhausted,
			b.counters.DailyCommentCount, b.limits.DailyCommentCap, b.counters.ResetTime().Add(DailyPeriod))
	}

	return nil
}

// RecordComment increments the daily counter and persists it immediately.
func (b *Budget) RecordComment(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Pick up anything persisted since we last looked before mutating.
	if err := b.loadCountersLocked(ctx); err != nil {
		return err
	}

	now := b.now()
	CheckDailyReset(&b.counters, now)
	b.counters.DailyCommentCount++
	b.lastComment = now

	return b.saveCountersLocked(ctx)
}

// DailyComments returns the current daily comment count.
func (b *Budget) DailyComments() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counters.DailyCommentCount
}

// Suspend enters the suspension window for d and persists it.
func (b *Budget) Suspend(ctx context.Context, d time.Duration, reason string) (*SuspendedError, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if d <= 0 {
		d = b.limits.SuspensionFallback
	}
	now := b.now()
	b.suspension = SuspensionState{
		Suspended: true,
		ResumeAt:  now.Add(d),
		Reason:    reason,
		Since:     now,
	}

	logrus.Warnf("account suspended until %v (%v): %s", b.suspension.ResumeAt, d, reason)

	suspended := &SuspendedError{ResumeAt: b.suspension.ResumeAt, ResumeIn: d, Reason: reason}
	if err := b.save(ctx, state.SuspensionKey, b.suspension); err != nil {
		return suspended, fmt.Errorf("failed to persist suspension: %w", err)
	}
	return suspended, nil
}

// Suspended reports whether the account is suspended and the remaining wait.
// An expired suspension is cleared on the first check past its resume time.
func (b *Budget) Suspended(ctx context.Context) (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err, ok := b.suspendedLocked(ctx, b.now()).(*SuspendedError); ok {
		return true, err.ResumeIn
	}
	return false, 0
}

// SuspendedError returns the current suspension as an error, or nil.
func (b *Budget) SuspendedError(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.suspendedLocked(ctx, b.now()); err != nil {
		return err
	}
	return nil
}

// Status returns a snapshot for reporting.
func (b *Budget) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.window = PruneWindow(b.window, b.limits.Window, now)

	st := Status{
		RequestsInWindow:  len(b.window),
		RequestsPerMinute: b.limits.RequestsPerMinute,
		DailyComments:     b.counters.DailyCommentCount,
		DailyCommentCap:   b.limits.DailyCommentCap,
		DailyResetAt:      b.counters.ResetTime().Add(DailyPeriod),
		PostReadyIn:       CooldownRemaining(b.lastPost, b.limits.PostCooldown, now),
		CommentReadyIn:    CooldownRemaining(b.lastComment, b.limits.CommentCooldown, now),
	}
	if b.suspension.Suspended && now.Before(b.suspension.ResumeAt) {
		st.Suspended = true
		st.ResumeAt = b.suspension.ResumeAt
		st.SuspensionReason = b.suspension.Reason
	}
	if now.Before(b.retryUntil) {
		st.RetryAfterUntil = b.retryUntil
	}
	return st
}

func (b *Budget) suspendedLocked(ctx context.Context, now time.Time) error {
	if !b.suspension.Suspended {
		return nil
	}

	if SuspensionExpired(&b.suspension, now) {
		logrus.Infof("suspension window ended at %v, resuming", b.suspension.ResumeAt)
		b.suspension = SuspensionState{}
		if err := b.save(ctx, state.SuspensionKey, b.suspension); err != nil {
			logrus.Errorf("failed to persist cleared suspension: %v", err)
		}
		return nil
	}

	return &SuspendedError{
		ResumeAt: b.suspension.ResumeAt,
		ResumeIn: b.suspension.ResumeAt.Sub(now),
		Reason:   b.suspension.Reason,
	}
}

func (b *Budget) loadCounters(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.loadCountersLocked(ctx); err != nil {
		return err
	}
	if CheckDailyReset(&b.counters, b.now()) {
		return b.saveCountersLocked(ctx)
	}
	return nil
}

func (b *Budget) loadCountersLocked(ctx context.Context) error {
	var loaded DailyCounters
	found, err := b.store.Load(ctx, state.CountersKey, &loaded)
	if err != nil {
		return fmt.Errorf("failed to load daily counters: %w", err)
	}
	if found {
		b.counters = loaded
	}
	return nil
}

func (b *Budget) saveCountersLocked(ctx context.Context) error {
	b.counters.LastSaved = b.now().UTC().Format(time.RFC3339)
	if err := b.save(ctx, state.CountersKey, b.counters); err != nil {
		return fmt.Errorf("failed to persist daily counters: %w", err)
	}
	return nil
}

func (b *Budget) save(ctx context.Context, key string, v interface{}) error {
	if b.readOnly {
		return nil
	}
	return b.store.Save(ctx, key, v)
}
