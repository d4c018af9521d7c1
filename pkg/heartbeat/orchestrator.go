package heartbeat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/UhthredB/tsaheylu-sub000/pkg/audit"
	"github.com/UhthredB/tsaheylu-sub000/pkg/budget"
	"github.com/UhthredB/tsaheylu-sub000/pkg/common"
	"github.com/UhthredB/tsaheylu-sub000/pkg/journey"
	"github.com/UhthredB/tsaheylu-sub000/pkg/metrics"
	"github.com/UhthredB/tsaheylu-sub000/pkg/platform"
	"github.com/UhthredB/tsaheylu-sub000/pkg/service"
)

// Platform is the subset of platform.Client the heartbeat drives.
type Platform interface {
	AgentName() string
	Suspended(ctx context.Context) (bool, time.Duration)
	CanPost() error
	CanComment(ctx context.Context) error

	CreatePost(ctx context.Context, submolt, title, content string) (*platform.Post, error)
	CreateComment(ctx context.Context, postID, content, parentID string) (*platform.Comment, error)
	GetComments(ctx context.Context, postID, sort string) ([]platform.Comment, error)
	UpvotePost(ctx context.Context, postID string) error
	UpvoteComment(ctx context.Context, commentID string) error
	Search(ctx context.Context, query string, limit int) ([]platform.SearchResult, error)
	GetFeed(ctx context.Context, sort string, limit int) ([]platform.Post, error)
	GetProfile(ctx context.Context, name string) (*platform.Profile, error)

	CheckDMs(ctx context.Context) (*platform.DMActivity, error)
	ListDMRequests(ctx context.Context) ([]platform.DMRequest, error)
	ApproveDMRequest(ctx context.Context, conversationID string) error
	ListConversations(ctx context.Context) ([]platform.Conversation, error)
	GetConversation(ctx context.Context, conversationID string) (*platform.ConversationDetail, error)
	SendDM(ctx context.Context, conversationID, message string) error
}

// Ledger is the subset of journey.Ledger the heartbeat drives.
type Ledger interface {
	RecordInteraction(ctx context.Context, contact string, typ journey.InteractionType, summary string, opts ...journey.InteractionOption) (*journey.Interaction, error)
	RecordObjection(ctx context.Context, contact, objection string) error
	HasRecentInteraction(contact string, window time.Duration) bool
	Metrics() journey.Metrics
	Summary() string
}

var (
	_ Platform = (*platform.Client)(nil)
	_ Ledger   = (*journey.Ledger)(nil)
)

// Sleeper blocks for d or until ctx is done, returning ctx.Err() in the latter case.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the production Sleeper.
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithSleeper replaces ContextSleep.
func WithSleeper(s Sleeper) Option {
	return func(o *Orchestrator) { o.sleep = s }
}

// WithRecorder sets the audit recorder for injection events.
func WithRecorder(r audit.Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// CycleResult summarizes one heartbeat cycle.
type CycleResult struct {
	Cycle    int
	Actions  int
	Errors   int
	Backoff  error
	Duration time.Duration
}

// Orchestrator runs the heartbeat: one cycle at a time, phases in fixed order.
type Orchestrator struct {
	platform Platform
	ledger   Ledger
	deps     *service.Dependencies
	recorder audit.Recorder
	cfg      Config
	schedule Schedule

	now   func() time.Time
	sleep Sleeper

	cycle    int
	rotation int
	queryIdx int

	mu                sync.Mutex
	suspended         bool
	onSuspendedChange []func(bool)
}

// New creates an Orchestrator. cfg must pass Validate.
func New(p Platform, l Ledger, deps *service.Dependencies, cfg Config, opts ...Option) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid heartbeat configuration: %w", err)
	}
	o := &Orchestrator{
		platform: p,
		ledger:   l,
		deps:     deps,
		recorder: audit.Nop{},
		cfg:      cfg,
		schedule: cfg.Schedule(),
		now:      time.Now,
		sleep:    ContextSleep,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// OnSuspendedChange registers fn to be called whenever the observed suspension state flips.
func (o *Orchestrator) OnSuspendedChange(fn func(suspended bool)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onSuspendedChange = append(o.onSuspendedChange, fn)
}

// Run loops until ctx is done. Cancellation is observed between cycles and
// during sleeps; an in-flight cycle always runs to completion.
func (o *Orchestrator) Run(ctx context.Context) error {
	logrus.Infof("heartbeat started for %s: interval %v, max %d actions per cycle",
		o.platform.AgentName(), o.cfg.Interval, o.cfg.MaxActionsPerCycle)

	for ctx.Err() == nil {
		if suspended, remaining := o.platform.Suspended(ctx); suspended {
			o.setSuspended(true)
			wait := o.schedule.NextWait(Outcome{Suspended: true, SuspendedFor: remaining})
			logrus.Warnf("account suspended for another %v, sleeping %v before re-checking",
				remaining.Round(time.Second), wait)
			if err := o.sleep(ctx, wait); err != nil {
				break
			}
			continue
		}
		o.setSuspended(false)

		result := o.RunCycle(context.WithoutCancel(ctx))
		outcome := OutcomeOf(result.Backoff)
		if outcome.Suspended {
			o.setSuspended(true)
		}

		wait := o.schedule.NextWait(outcome)
		logrus.Infof("cycle %d done in %v (%d actions, %d errors), next in %v",
			result.Cycle, result.Duration.Round(time.Millisecond), result.Actions, result.Errors, wait)
		if err := o.sleep(ctx, wait); err != nil {
			break
		}
	}

	logrus.Info("heartbeat stopping")
	o.emitMetrics(logrus.WithField("final", true))
	return nil
}

// RunCycle executes every phase once. Phase errors are isolated; a backoff
// error ends the cycle early and is returned in the result.
func (o *Orchestrator) RunCycle(ctx context.Context) CycleResult {
	o.cycle++
	start := o.now()

	scope := common.NewScope(ctx, "heartbeat.cycle")
	defer scope.Finish()
	scope.SetAttributes("cycle", o.cycle)
	scope.Log = scope.Log.WithField("cycle", o.cycle)

	c := &cycle{scope: scope, actionsLeft: o.cfg.MaxActionsPerCycle}
	result := CycleResult{Cycle: o.cycle}

	for _, ph := range o.phases() {
		if ph.due != nil && !ph.due() {
			continue
		}
		err := o.runPhase(c, ph)
		if err == nil {
			continue
		}
		if budget.IsBackoff(err) {
			scope.Log.Warnf("%s: backing off: %v", ph.name, err)
			scope.TraceError(err)
			result.Backoff = err
			break
		}
		result.Errors++
		metrics.PhaseErrorsTotal.WithLabelValues(ph.name).Inc()
		scope.Log.Errorf("%s failed: %v", ph.name, err)
	}

	result.Actions = o.cfg.MaxActionsPerCycle - c.actionsLeft
	result.Duration = o.now().Sub(start)

	label := "ok"
	switch {
	case errors.Is(result.Backoff, budget.ErrSuspended):
		label = "suspended"
	case errors.Is(result.Backoff, budget.ErrRateLimited):
		label = "rate_limited"
	case result.Errors > 0:
		label = "degraded"
	}
	metrics.CyclesTotal.WithLabelValues(label).Inc()
	metrics.CycleDuration.Observe(result.Duration.Seconds())

	return result
}

type phase struct {
	name string
	due  func() bool
	run  func(c *cycle) error
}

func (o *Orchestrator) phases() []phase {
	return []phase{
		{name: PhaseDrainInbox, run: o.drainInbox},
		{name: PhaseModerate, run: o.moderateOwnContent},
		{name: PhasePublish, run: o.publishContent},
		{name: PhaseDiscover, run: o.discoverAndEngage},
		{name: PhaseMetrics, due: func() bool { return o.cycle%o.cfg.MetricsEvery == 0 }, run: func(c *cycle) error {
			o.emitMetrics(c.scope.Log)
			return nil
		}},
	}
}

func (o *Orchestrator) runPhase(c *cycle, ph phase) (err error) {
	child := c.scope.NewChildScope(ph.name)
	defer child.Finish()

	defer func() {
		if r := recover(); r != nil {
			child.Log.Errorf("recovered from panic: %v", r)
			err = errPhasePanic
		}
	}()

	pc := &cycle{scope: child, actionsLeft: c.actionsLeft, phase: ph.name}
	err = ph.run(pc)
	c.actionsLeft = pc.actionsLeft
	if err != nil {
		child.TraceError(err)
	}
	return err
}

func (o *Orchestrator) setSuspended(suspended bool) {
	o.mu.Lock()
	if o.suspended == suspended {
		o.mu.Unlock()
		return
	}
	o.suspended = suspended
	hooks := append([]func(bool){}, o.onSuspendedChange...)
	o.mu.Unlock()

	metrics.SetSuspended(suspended)
	for _, fn := range hooks {
		fn(suspended)
	}
}

func (o *Orchestrator) emitMetrics(log *logrus.Entry) {
	m := o.ledger.Metrics()
	for _, stage := range journey.Stages {
		metrics.FunnelContacts.WithLabelValues(string(stage)).Set(float64(m.Funnel[stage]))
	}
	log.Infof("journey metrics:\n%s", o.ledger.Summary())
}
