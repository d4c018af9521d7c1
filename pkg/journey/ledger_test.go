package journey

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/UhthredB/tsaheylu-sub000/pkg/state"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func openTestLedger(t *testing.T, store state.Store, clock *fakeClock) *Ledger {
	t.Helper()
	l, err := Open(context.Background(), store, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return l
}

func TestLedger_StageProgression(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	l := openTestLedger(t, state.NewMemoryStore(), clock)
	ctx := context.Background()

	if _, err := l.RecordInteraction(ctx, "Zed", InteractionReply, "first hello"); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}
	if j, _ := l.Journey("Zed"); j.Stage != StageInterest {
		t.Errorf("Expected interest after 1 interaction, got %s", j.Stage)
	}

	for i := 0; i < 2; i++ {
		clock.Advance(time.Minute)
		if _, err := l.RecordInteraction(ctx, "Zed", InteractionComment, "more"); err != nil {
			t.Fatalf("RecordInteraction: %v", err)
		}
	}
	if j, _ := l.Journey("Zed"); j.Stage != StageConsideration {
		t.Errorf("Expected consideration after 3 interactions, got %s", j.Stage)
	}

	if _, err := l.RecordInteraction(ctx, "Zed", InteractionUpvote, "fourth"); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}
	j, _ := l.Journey("Zed")
	if j.Stage != StageConsideration {
		t.Errorf("Expected stage to hold at consideration, got %s", j.Stage)
	}
	if len(j.Interactions) != 4 {
		t.Errorf("Expected 4 interactions, got %d", len(j.Interactions))
	}
}

func TestLedger_AutoAdvanceNeverRegresses(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	l := openTestLedger(t, state.NewMemoryStore(), clock)
	ctx := context.Background()

	if err := l.AdvanceStage(ctx, "Ana", StageTrial); err != nil {
		t.Fatalf("AdvanceStage: %v", err)
	}
	if _, err := l.RecordInteraction(ctx, "Ana", InteractionDM, "hi"); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}
	if j, _ := l.Journey("Ana"); j.Stage != StageTrial {
		t.Errorf("Expected trial to be kept, got %s", j.Stage)
	}
}

func TestAutoStage(t *testing.T) {
	tests := []struct {
		current Stage
		count   int
		want    Stage
	}{
		{StageAwareness, 0, StageAwareness},
		{StageAwareness, 1, StageInterest},
		{StageInterest, 2, StageInterest},
		{StageInterest, 3, StageConsideration},
		{StageAwareness, 10, StageConsideration},
		{StageConversion, 1, StageConversion},
		{StageAdvocacy, 5, StageAdvocacy},
	}

	for _, tt := range tests {
		if got := AutoStage(tt.current, tt.count); got != tt.want {
			t.Errorf("AutoStage(%s, %d) = %s, want %s", tt.current, tt.count, got, tt.want)
		}
	}
}

func TestLedger_Persistence(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	store, err := state.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	l := openTestLedger(t, store, clock)
	in, err := l.RecordInteraction(ctx, "Zed", InteractionReply, "hello", WithStrategy("reciprocity"), WithRefID("post-1"))
	if err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}
	if len(in.ID) != 26 {
		t.Errorf("Expected a ULID id, got %q", in.ID)
	}
	if err := l.RecordObjection(ctx, "Zed", "this is a cult"); err != nil {
		t.Fatalf("RecordObjection: %v", err)
	}
	if err := l.RecordDebateResult(ctx, "Zed", true, "won on evidence"); err != nil {
		t.Fatalf("RecordDebateResult: %v", err)
	}
	if err := l.AdvanceStage(ctx, "Zed", StageConversion); err != nil {
		t.Fatalf("AdvanceStage: %v", err)
	}

	clock.Advance(time.Hour)
	reopened := openTestLedger(t, store, clock)

	j, ok := reopened.Journey("Zed")
	if !ok {
		t.Fatal("Expected journey to survive reopen")
	}
	if j.Stage != StageConversion || j.Strategy != "reciprocity" {
		t.Errorf("Unexpected journey after reopen: %+v", j)
	}
	if len(j.Interactions) != 2 || j.Interactions[0].RefID != "post-1" || j.Interactions[0].ID != in.ID {
		t.Errorf("Interactions not preserved: %+v", j.Interactions)
	}
	if len(j.Objections) != 1 {
		t.Errorf("Expected 1 objection, got %v", j.Objections)
	}

	m := reopened.Metrics()
	if m.TotalConversions != 1 || m.DebatesWon != 1 || m.TotalInteractions != 2 {
		t.Errorf("Unexpected metrics after reopen: %+v", m)
	}
	if m.Uptime != time.Hour {
		t.Errorf("Expected uptime measured from persisted start, got %v", m.Uptime)
	}
}

func TestLedger_AppendOnly(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	l := openTestLedger(t, state.NewMemoryStore(), clock)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		in, err := l.RecordInteraction(ctx, "Zed", InteractionComment, "c")
		if err != nil {
			t.Fatalf("RecordInteraction: %v", err)
		}
		ids = append(ids, in.ID)
		if err := l.RecordObjection(ctx, "Zed", "o"); err != nil {
			t.Fatalf("RecordObjection: %v", err)
		}
	}

	j, _ := l.Journey("Zed")
	for i, id := range ids {
		if j.Interactions[i].ID != id {
			t.Errorf("Interaction %d changed: %s != %s", i, j.Interactions[i].ID, id)
		}
	}
	if len(j.Objections) != 5 {
		t.Errorf("Expected 5 objections, got %d", len(j.Objections))
	}

	// Mutating the copy must not touch the ledger.
	j.Interactions[0].Summary = "tampered"
	again, _ := l.Journey("Zed")
	if again.Interactions[0].Summary == "tampered" {
		t.Error("Journey returned a shared slice")
	}
}

func TestLedger_AdvanceStage(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	l := openTestLedger(t, state.NewMemoryStore(), clock)
	ctx := context.Background()

	if err := l.AdvanceStage(ctx, "Zed", Stage("bogus")); !errors.Is(err, ErrUnknownStage) {
		t.Errorf("Expected ErrUnknownStage, got %v", err)
	}
	if _, err := l.RecordInteraction(ctx, " ", InteractionReply, "x"); !errors.Is(err, ErrEmptyContact) {
		t.Errorf("Expected ErrEmptyContact, got %v", err)
	}

	l.AdvanceStage(ctx, "Zed", StageConversion)
	l.AdvanceStage(ctx, "Zed", StageConversion)
	if m := l.Metrics(); m.TotalConversions != 1 {
		t.Errorf("Re-entering conversion must not double count, got %d", m.TotalConversions)
	}
}

func TestLedger_HasRecentInteraction(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	l := openTestLedger(t, state.NewMemoryStore(), clock)

	if l.HasRecentInteraction("Zed", time.Hour) {
		t.Error("Unknown contact cannot be recent")
	}
	l.RecordInteraction(context.Background(), "Zed", InteractionReply, "hi")

	clock.Advance(59 * time.Minute)
	if !l.HasRecentInteraction("Zed", time.Hour) {
		t.Error("Expected recent interaction within window")
	}
	clock.Advance(time.Minute)
	if l.HasRecentInteraction("Zed", time.Hour) {
		t.Error("Expected interaction to age out of window")
	}
}

func TestLedger_MetricsAndSummary(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	l := openTestLedger(t, state.NewMemoryStore(), clock)
	ctx := context.Background()

	l.RecordInteraction(ctx, "A", InteractionReply, "x", WithStrategy("authority"))
	l.RecordInteraction(ctx, "B", InteractionReply, "x", WithStrategy("authority"))
	l.RecordInteraction(ctx, "B", InteractionReply, "x", WithStrategy("scarcity"))
	l.RecordDebateResult(ctx, "C", false, "lost")
	l.RecordDebateResult(ctx, "C", true, "won")
	l.RecordDebateResult(ctx, "C", true, "won")

	m := l.Metrics()
	if m.Contacts != 3 {
		t.Errorf("Expected 3 contacts, got %d", m.Contacts)
	}
	if m.Funnel[StageInterest] != 2 || m.Funnel[StageConsideration] != 1 {
		t.Errorf("Unexpected funnel: %v", m.Funnel)
	}
	if m.Strategies["authority"] != 2 || m.Strategies["scarcity"] != 1 {
		t.Errorf("Unexpected strategies: %v", m.Strategies)
	}
	if m.DebateWinRate < 0.66 || m.DebateWinRate > 0.67 {
		t.Errorf("Expected 2/3 win rate, got %v", m.DebateWinRate)
	}

	s := l.Summary()
	for _, want := range []string{"Contacts: 3", "consideration", "authority"} {
		if !strings.Contains(s, want) {
			t.Errorf("Summary missing %q:\n%s", want, s)
		}
	}
}
