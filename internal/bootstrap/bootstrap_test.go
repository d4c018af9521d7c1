package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/UhthredB/tsaheylu-sub000/internal/config"
	"github.com/UhthredB/tsaheylu-sub000/pkg/audit"
	"github.com/UhthredB/tsaheylu-sub000/pkg/heartbeat"
	"github.com/UhthredB/tsaheylu-sub000/pkg/service"
	"github.com/UhthredB/tsaheylu-sub000/pkg/state"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AgentName:          "Nyx Weaver",
		PlatformName:       "Moltbook",
		PlatformBaseURL:    "https://www.moltbook.com/api/v1",
		PlatformVerifyPath: "/agents/verify",
		RequestsPerMinute:  42,
		PostCooldown:       10 * time.Minute,
		CommentCooldown:    5 * time.Second,
		DailyCommentCap:    7,
		SuspensionFallback: 2 * time.Hour,
		HTTPTimeout:        time.Second,
		StateBackend:       config.BackendFile,
		StateDir:           t.TempDir(),
		RedisKeyPrefix:     "tsaheylu",
	}
}

func TestLimits(t *testing.T) {
	l := Limits(testConfig(t))

	if l.RequestsPerMinute != 42 || l.DailyCommentCap != 7 {
		t.Errorf("Limits() = %+v, want rpm 42 and cap 7", l)
	}
	if l.PostCooldown != 10*time.Minute || l.CommentCooldown != 5*time.Second {
		t.Errorf("Limits() cooldowns = %v/%v", l.PostCooldown, l.CommentCooldown)
	}
	if l.SuspensionFallback != 2*time.Hour {
		t.Errorf("Limits().SuspensionFallback = %v, want 2h", l.SuspensionFallback)
	}
	if l.Window != time.Minute {
		t.Errorf("Limits().Window = %v, want 1m", l.Window)
	}
}

func TestInitStateStore_File(t *testing.T) {
	cfg := testConfig(t)

	store, err := InitStateStore(cfg, nil)
	if err != nil {
		t.Fatalf("InitStateStore() error = %v", err)
	}
	fs, ok := store.(*state.FileStore)
	if !ok {
		t.Fatalf("InitStateStore() = %T, want *state.FileStore", store)
	}

	want := filepath.Join(cfg.StateDir, "nyx_weaver", state.CountersKey+".json")
	if got := fs.Path(state.CountersKey); got != want {
		t.Errorf("Path() = %s, want %s", got, want)
	}
}

func TestInitStateStore_Redis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cfg := testConfig(t)
	cfg.StateBackend = config.BackendRedis

	store, err := InitStateStore(cfg, client)
	if err != nil {
		t.Fatalf("InitStateStore() error = %v", err)
	}
	if err := store.Save(context.Background(), state.CountersKey, map[string]int{"n": 1}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !mr.Exists("tsaheylu:nyx_weaver:" + state.CountersKey) {
		t.Errorf("expected namespaced key, got keys %v", mr.Keys())
	}
}

func TestInitStateStore_RedisWithoutClient(t *testing.T) {
	cfg := testConfig(t)
	cfg.StateBackend = config.BackendRedis

	if _, err := InitStateStore(cfg, nil); err == nil {
		t.Fatal("expected an error without a Redis client")
	}
}

func TestInitPlatformClient(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	solver, err := InitSolver(ctx, cfg)
	if err != nil {
		t.Fatalf("InitSolver() error = %v", err)
	}
	if solver.Oracle != nil {
		t.Errorf("expected no oracle without GEMINI_API_KEY")
	}

	client, err := InitPlatformClient(ctx, cfg, state.NewMemoryStore(), solver, audit.Nop{})
	if err != nil {
		t.Fatalf("InitPlatformClient() error = %v", err)
	}
	if client.AgentName() != cfg.AgentName {
		t.Errorf("AgentName() = %q, want %q", client.AgentName(), cfg.AgentName)
	}
	if suspended, _ := client.Suspended(ctx); suspended {
		t.Error("fresh client should not be suspended")
	}
}

func TestLoadHeartbeatConfig_ShippedFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.HeartbeatConfigPath = filepath.Join("..", "..", "config", "heartbeat.yaml")

	hb, err := LoadHeartbeatConfig(cfg)
	if err != nil {
		t.Fatalf("LoadHeartbeatConfig() error = %v", err)
	}
	if hb.Interval != 30*time.Minute {
		t.Errorf("Interval = %v, want 30m", hb.Interval)
	}
	if len(hb.Topics.Teachings) == 0 || len(hb.Topics.Discussions) == 0 {
		t.Errorf("expected topics from the shipped file, got %+v", hb.Topics)
	}

	cfg.HeartbeatInterval = 5 * time.Minute
	hb, err = LoadHeartbeatConfig(cfg)
	if err != nil {
		t.Fatalf("LoadHeartbeatConfig() error = %v", err)
	}
	if hb.Interval != 5*time.Minute {
		t.Errorf("Interval with override = %v, want 5m", hb.Interval)
	}
}

func TestInitCollaborators(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		deps := InitCollaborators(heartbeat.DefaultConfig())
		if len(deps.Generators) != 2 {
			t.Fatalf("len(Generators) = %d, want 2", len(deps.Generators))
		}
		if deps.Safety == nil || deps.Persuader == nil || deps.Objections == nil {
			t.Errorf("missing collaborator: %+v", deps)
		}
	})

	t.Run("configured topics replace defaults", func(t *testing.T) {
		hb := heartbeat.DefaultConfig()
		hb.Submolt = "tsaheylu"
		hb.Topics.Teachings = []service.Topic{{Title: "only one", Content: "body"}}

		deps := InitCollaborators(hb)
		draft, err := deps.Generators[0].Generate(context.Background(), 5)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if draft.Title != "only one" || draft.Submolt != "tsaheylu" {
			t.Errorf("Generate() = %+v", draft)
		}
	})
}
