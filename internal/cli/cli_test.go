package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/UhthredB/tsaheylu-sub000/pkg/budget"
	"github.com/UhthredB/tsaheylu-sub000/pkg/journey"
	"github.com/UhthredB/tsaheylu-sub000/pkg/state"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AGENT_NAME", "Nyx")
	t.Setenv("STATE_DIR", dir)
	t.Setenv("STATE_BACKEND", "file")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	formatFlag, logLevelFlag = "text", ""
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetArgs(args)
	t.Cleanup(func() { formatFlag = "text"; logLevelFlag = "" })
	if err := RootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("execute %v: %v", args, err)
	}
	return out.String()
}

func TestStatusCommand(t *testing.T) {
	dir := setupEnv(t)

	store, err := state.NewFileStore(dir + "/nyx")
	if err != nil {
		t.Fatal(err)
	}
	b, err := budget.New(context.Background(), store, budget.DefaultLimits())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Suspend(context.Background(), 2*time.Hour, "spam"); err != nil {
		t.Fatal(err)
	}

	out := execute(t, "status", "--format", "json")

	var st budget.Status
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if !st.Suspended || st.SuspensionReason != "spam" {
		t.Errorf("status = %+v, want persisted suspension", st)
	}

	text := execute(t, "status")
	if !strings.Contains(text, "Suspended:       yes") {
		t.Errorf("text status = %q", text)
	}
}

func TestStatusCommand_DoesNotRewriteStaleCounters(t *testing.T) {
	dir := setupEnv(t)

	store, err := state.NewFileStore(dir + "/nyx")
	if err != nil {
		t.Fatal(err)
	}
	stale := budget.DailyCounters{
		DailyCommentCount: 9,
		DailyCommentReset: time.Now().Add(-72 * time.Hour).UnixMilli(),
		LastSaved:         "2020-01-01T00:00:00Z",
	}
	if err := store.Save(context.Background(), state.CountersKey, stale); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(store.Path(state.CountersKey))
	if err != nil {
		t.Fatal(err)
	}

	out := execute(t, "status", "--format", "json")

	var st budget.Status
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if st.DailyComments != 0 {
		t.Errorf("DailyComments = %d, want 0 after rollover", st.DailyComments)
	}

	after, err := os.ReadFile(store.Path(state.CountersKey))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Errorf("status rewrote the counters document:\nbefore %s\nafter  %s", before, after)
	}
}

func TestMetricsCommand(t *testing.T) {
	dir := setupEnv(t)

	store, err := state.NewFileStore(dir + "/nyx")
	if err != nil {
		t.Fatal(err)
	}
	ledger, err := journey.Open(context.Background(), store)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.RecordInteraction(context.Background(), "Kiri", journey.InteractionComment, "hello"); err != nil {
		t.Fatal(err)
	}

	out := execute(t, "metrics", "--format", "json")

	var m journey.Metrics
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if m.Contacts != 1 || m.TotalInteractions != 1 || m.Funnel[journey.StageInterest] != 1 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestUnknownFormat(t *testing.T) {
	setupEnv(t)
	RootCmd.SetArgs([]string{"status", "--format", "yaml"})
	RootCmd.SetOut(&bytes.Buffer{})
	RootCmd.SetErr(&bytes.Buffer{})
	defer func() { formatFlag = "text" }()
	if err := RootCmd.ExecuteContext(context.Background()); err == nil {
		t.Error("expected error for unknown format")
	}
}
