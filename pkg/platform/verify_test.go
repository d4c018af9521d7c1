package platform

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/UhthredB/tsaheylu-sub000/pkg/audit"
	"github.com/UhthredB/tsaheylu-sub000/pkg/budget"
	"github.com/UhthredB/tsaheylu-sub000/pkg/challenge"
)

func hasEvent(types []audit.EventType, want audit.EventType) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

func TestChallengeOnSuccessfulResponse(t *testing.T) {
	env := newTestEnv(t, budget.DefaultLimits())
	env.platform.Handle("GET /api/v1/posts/p1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"post":    map[string]interface{}{"id": "p1", "title": "hello"},
			"challenge": map[string]interface{}{
				"challenge_id": "c1",
				"type":         "math",
				"question":     "What is 3 + 4?",
			},
		})
	})

	post, err := env.client.GetPost(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if post.ID != "p1" {
		t.Errorf("Expected post returned to caller, got %+v", post)
	}

	verifies := env.platform.Verifies()
	if len(verifies) != 1 {
		t.Fatalf("Expected exactly one verification POST, got %d", len(verifies))
	}
	if verifies[0]["solution"] != "7" || verifies[0]["challenge_id"] != "c1" {
		t.Errorf("Unexpected verification body: %v", verifies[0])
	}
	if _, ok := verifies[0]["challengeId"]; ok {
		t.Error("Only the id field the platform used should be sent")
	}

	types := env.audit.Types()
	for _, want := range []audit.EventType{audit.ChallengeDetected, audit.ChallengeSolved, audit.ChallengeSubmitted} {
		if !hasEvent(types, want) {
			t.Errorf("Expected %s in audit trail %v", want, types)
		}
	}
}

func TestChallengeInErrorResponse(t *testing.T) {
	env := newTestEnv(t, budget.DefaultLimits())
	env.platform.Handle("POST /api/v1/posts", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "verification required",
			"verification": map[string]interface{}{
				"challenge": map[string]interface{}{"challengeId": "v-1", "question": "What is your name?"},
			},
		})
	})

	_, err := env.client.CreatePost(context.Background(), "general", "t", "c")
	if !errors.Is(err, ErrPlatform) {
		t.Fatalf("Expected platform error, got %v", err)
	}

	verifies := env.platform.Verifies()
	if len(verifies) != 1 {
		t.Fatalf("Expected one verification POST, got %d", len(verifies))
	}
	if verifies[0]["solution"] != "Nyx" || verifies[0]["challengeId"] != "v-1" {
		t.Errorf("Unexpected verification body: %v", verifies[0])
	}
}

func TestChallengeSubmittedOnce(t *testing.T) {
	var oracleCalls int32
	oracle := challenge.OracleFunc(func(ctx context.Context, prompt string) (string, error) {
		atomic.AddInt32(&oracleCalls, 1)
		return "Answer: 11.", nil
	})
	env := newTestEnv(t, budget.DefaultLimits(), WithSolver(challenge.NewSolver("Nyx", "Moltbook", oracle)))

	env.platform.Handle("GET /api/v1/feed", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"posts":     []interface{}{},
			"challenge": map[string]interface{}{"id": "c7", "type": "math", "question": "the smallest prime greater than ten"},
		})
	})
	env.platform.Handle("POST /api/v1/agents/verify", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "boom"})
	})

	if _, err := env.client.GetFeed(context.Background(), "hot", 0); err != nil {
		t.Fatalf("GetFeed: %v", err)
	}

	verifies := env.platform.Verifies()
	if len(verifies) != 1 {
		t.Fatalf("Expected exactly one verification POST after a failed submit, got %d", len(verifies))
	}
	if verifies[0]["solution"] != "11" {
		t.Errorf("Expected cleaned oracle answer, got %v", verifies[0])
	}
	if n := atomic.LoadInt32(&oracleCalls); n != 1 {
		t.Errorf("Expected one oracle call, got %d", n)
	}
	if !hasEvent(env.audit.Types(), audit.ChallengeRejected) {
		t.Errorf("Expected challenge_rejected, got %v", env.audit.Types())
	}
}

func TestUnsolvedChallengeIsNotSubmitted(t *testing.T) {
	env := newTestEnv(t, budget.DefaultLimits())
	env.platform.Handle("GET /api/v1/feed", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"puzzle": "Describe a sunset in one word"})
	})

	if _, err := env.client.GetFeed(context.Background(), "", 0); err != nil {
		t.Fatalf("GetFeed: %v", err)
	}
	if n := len(env.platform.Verifies()); n != 0 {
		t.Errorf("Expected no verification POST, got %d", n)
	}
	if !hasEvent(env.audit.Types(), audit.ChallengeUnsolved) {
		t.Errorf("Expected challenge_unsolved, got %v", env.audit.Types())
	}
}

func TestExplicitVerifyURL(t *testing.T) {
	env := newTestEnv(t, budget.DefaultLimits())

	var custom int32
	env.platform.Handle("POST /custom/verify", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&custom, 1)
		writeJSON(w, http.StatusOK, map[string]interface{}{"verified": true})
	})
	env.platform.Handle("GET /api/v1/feed", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"challenge":  "What is 2 + 2?",
			"verify_url": env.server.URL + "/custom/verify",
		})
	})

	if _, err := env.client.GetFeed(context.Background(), "", 0); err != nil {
		t.Fatalf("GetFeed: %v", err)
	}
	if atomic.LoadInt32(&custom) != 1 {
		t.Errorf("Expected the explicit verify URL to receive the answer")
	}
	if v := env.platform.Verifies(); len(v) != 1 || v[0]["solution"] != "4" {
		t.Errorf("Unexpected verification: %v", v)
	}
}

func TestVerifyExplicitFailureMarker(t *testing.T) {
	env := newTestEnv(t, budget.DefaultLimits())
	env.platform.Handle("POST /api/v1/agents/verify", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": false, "error": "wrong answer"})
	})
	env.platform.Handle("GET /api/v1/feed", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"challenge": map[string]interface{}{"type": "reverse", "content": "hello"}})
	})

	if _, err := env.client.GetFeed(context.Background(), "", 0); err != nil {
		t.Fatalf("GetFeed: %v", err)
	}

	types := env.audit.Types()
	if !hasEvent(types, audit.ChallengeRejected) || hasEvent(types, audit.ChallengeSubmitted) {
		t.Errorf("Expected rejection only, got %v", types)
	}
	if v := env.platform.Verifies(); len(v) != 1 || v[0]["solution"] != "olleh" {
		t.Errorf("Unexpected verification: %v", v)
	}
}

func TestVerificationRequest(t *testing.T) {
	answer := challenge.Answer{Value: "42"}

	tests := []struct {
		name string
		ch   challenge.Challenge
		want map[string]string
	}{
		{"camel case id", challenge.Challenge{ID: "a", IDField: "challengeId"}, map[string]string{"solution": "42", "challengeId": "a"}},
		{"snake case id", challenge.Challenge{ID: "b", IDField: "challenge_id"}, map[string]string{"solution": "42", "challenge_id": "b"}},
		{"plain id", challenge.Challenge{ID: "c", IDField: "id"}, map[string]string{"solution": "42", "challenge_id": "c"}},
		{"no id", challenge.Challenge{}, map[string]string{"solution": "42"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VerificationRequest(&tt.ch, answer)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}
