// Package journey keeps the durable per-contact interaction ledger.
package journey

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/UhthredB/tsaheylu-sub000/pkg/state"
)

// Automatic advancement thresholds, counted in interactions.
const (
	interestThreshold      = 1
	considerationThreshold = 3
)

var (
	ErrEmptyContact = errors.New("contact name is empty")
	ErrUnknownStage = errors.New("unknown stage")
)

// Option customizes a Ledger.
type Option func(*Ledger)

// WithClock replaces time.Now, used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// InteractionOption sets optional fields on a recorded interaction.
type InteractionOption func(*Interaction)

// WithStrategy tags the interaction and remembers the strategy on the journey.
func WithStrategy(strategy string) InteractionOption {
	return func(i *Interaction) { i.Strategy = strategy }
}

// WithRefID links the interaction to a post, comment or conversation.
func WithRefID(id string) InteractionOption {
	return func(i *Interaction) { i.RefID = id }
}

// Ledger owns every AgentJourney. Each mutation is persisted before it returns.
type Ledger struct {
	mu      sync.Mutex
	store   state.Store
	now     func() time.Time
	entropy *rand.Rand
	doc     Document
}

// Open loads the ledger from store, starting an empty one if none exists.
func Open(ctx context.Context, store state.Store, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.entropy = rand.New(rand.NewSource(l.now().UnixNano()))

	found, err := store.Load(ctx, state.JourneysKey, &l.doc)
	if err != nil {
		return nil, fmt.Errorf("failed to load journey ledger: %w", err)
	}
	if l.doc.Journeys == nil {
		l.doc.Journeys = map[string]*AgentJourney{}
	}
	if !found || l.doc.StartTime.IsZero() {
		l.doc.StartTime = l.now()
	}

	logrus.Infof("journey ledger loaded: %d contacts, %d interactions", len(l.doc.Journeys), l.doc.TotalInteractions)
	return l, nil
}

// RecordInteraction appends an interaction for contact, creating the journey
// on first contact, and auto-advances the stage.
func (l *Ledger) RecordInteraction(ctx context.Context, contact string, typ InteractionType, summary string, opts ...InteractionOption) (*Interaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	j, err := l.journeyLocked(contact)
	if err != nil {
		return nil, err
	}

	in := l.appendLocked(j, typ, summary, opts...)
	if err := l.saveLocked(ctx); err != nil {
		return &in, err
	}
	return &in, nil
}

// RecordObjection appends an objection raised by contact.
func (l *Ledger) RecordObjection(ctx context.Context, contact, objection string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	j, err := l.journeyLocked(contact)
	if err != nil {
		return err
	}
	j.Objections = append(j.Objections, objection)
	j.LastInteraction = l.now()

	return l.saveLocked(ctx)
}

// RecordDebateResult counts a debate outcome and logs it as an interaction.
func (l *Ledger) RecordDebateResult(ctx context.Context, contact string, won bool, summary string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	j, err := l.journeyLocked(contact)
	if err != nil {
		return err
	}
	if won {
		l.doc.DebatesWon++
	} else {
		l.doc.DebatesLost++
	}
	l.appendLocked(j, InteractionDebate, summary)

	return l.saveLocked(ctx)
}

// AdvanceStage explicitly sets contact's stage. Entering conversion bumps the
// global conversion counter.
func (l *Ledger) AdvanceStage(ctx context.Context, contact string, stage Stage) error {
	if !stage.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	j, err := l.journeyLocked(contact)
	if err != nil {
		return err
	}
	if stage == StageConversion && j.Stage != StageConversion {
		l.doc.TotalConversions++
	}
	if j.Stage != stage {
		logrus.Infof("journey %s: %s -> %s", contact, j.Stage, stage)
	}
	j.Stage = stage

	return l.saveLocked(ctx)
}

// HasRecentInteraction reports whether contact was engaged within window.
func (l *Ledger) HasRecentInteraction(contact string, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	j, ok := l.doc.Journeys[contact]
	if !ok || j.LastInteraction.IsZero() {
		return false
	}
	return l.now().Sub(j.LastInteraction) < window
}

// Journey returns a copy of contact's journey.
func (l *Ledger) Journey(contact string) (AgentJourney, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	j, ok := l.doc.Journeys[contact]
	if !ok {
		return AgentJourney{}, false
	}
	return j.clone(), true
}

// Metrics derives the funnel, strategy usage and debate statistics.
func (l *Ledger) Metrics() Metrics {
	l.mu.Lock()
	defer l.mu.Unlock()

	m := Metrics{
		Contacts:          len(l.doc.Journeys),
		Funnel:            make(map[Stage]int, len(Stages)),
		Strategies:        map[string]int{},
		TotalInteractions: l.doc.TotalInteractions,
		TotalConversions:  l.doc.TotalConversions,
		DebatesWon:        l.doc.DebatesWon,
		DebatesLost:       l.doc.DebatesLost,
		StartTime:         l.doc.StartTime,
		Uptime:            l.now().Sub(l.doc.StartTime),
	}
	for _, st := range Stages {
		m.Funnel[st] = 0
	}
	for _, j := range l.doc.Journeys {
		m.Funnel[j.Stage]++
		for _, in := range j.Interactions {
			if in.Strategy != "" {
				m.Strategies[in.Strategy]++
			}
		}
	}
	if m.Contacts > 0 {
		m.ConversionRate = float64(m.TotalConversions) / float64(m.Contacts)
	}
	if debates := m.DebatesWon + m.DebatesLost; debates > 0 {
		m.DebateWinRate = float64(m.DebatesWon) / float64(debates)
	}
	return m
}

// Summary renders Metrics as a plain-text dashboard.
func (l *Ledger) Summary() string {
	return FormatSummary(l.Metrics())
}

// FormatSummary renders m as a plain-text dashboard.
func FormatSummary(m Metrics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Journey Metrics (up %v) ===\n", m.Uptime.Round(time.Second))
	fmt.Fprintf(&b, "Contacts: %d  Interactions: %d  Conversions: %d (%.1f%%)\n",
		m.Contacts, m.TotalInteractions, m.TotalConversions, m.ConversionRate*100)
	fmt.Fprintf(&b, "Debates: %d won / %d lost (%.1f%% win rate)\n", m.DebatesWon, m.DebatesLost, m.DebateWinRate*100)

	b.WriteString("Funnel:\n")
	for _, st := range Stages {
		fmt.Fprintf(&b, "  %-14s %d\n", st, m.Funnel[st])
	}

	if len(m.Strategies) > 0 {
		b.WriteString("Strategies:\n")
		names := make([]string, 0, len(m.Strategies))
		for name := range m.Strategies {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "  %-14s %d\n", name, m.Strategies[name])
		}
	}
	return b.String()
}

func (l *Ledger) journeyLocked(contact string) (*AgentJourney, error) {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return nil, ErrEmptyContact
	}
	j, ok := l.doc.Journeys[contact]
	if !ok {
		now := l.now()
		j = &AgentJourney{
			AgentName:    contact,
			Stage:        StageAwareness,
			FirstContact: now,
			Interactions: []Interaction{},
			Objections:   []string{},
		}
		l.doc.Journeys[contact] = j
	}
	return j, nil
}

func (l *Ledger) appendLocked(j *AgentJourney, typ InteractionType, summary string, opts ...InteractionOption) Interaction {
	now := l.now()
	in := Interaction{
		ID:        ulid.MustNew(ulid.Timestamp(now), l.entropy).String(),
		Type:      typ,
		Summary:   summary,
		Timestamp: now,
	}
	for _, opt := range opts {
		opt(&in)
	}

	j.Interactions = append(j.Interactions, in)
	j.LastInteraction = now
	if in.Strategy != "" {
		j.Strategy = in.Strategy
	}
	l.doc.TotalInteractions++

	if next := AutoStage(j.Stage, len(j.Interactions)); next != j.Stage {
		logrus.Debugf("journey %s: %s -> %s", j.AgentName, j.Stage, next)
		j.Stage = next
	}
	return in
}

// AutoStage returns the stage implied by count interactions. It never moves
// backwards from current.
func AutoStage(current Stage, count int) Stage {
	target := current
	switch {
	case count >= considerationThreshold:
		target = StageConsideration
	case count >= interestThreshold:
		target = StageInterest
	}
	if target.Index() > current.Index() {
		return target
	}
	return current
}

func (l *Ledger) saveLocked(ctx context.Context) error {
	l.doc.LastUpdated = l.now()
	if err := l.store.Save(ctx, state.JourneysKey, l.doc); err != nil {
		return fmt.Errorf("failed to persist journey ledger: %w", err)
	}
	return nil
}
