package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileRecorder_WritesNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.ndjson")

	r, err := NewFileRecorder(path, "Nyx")
	if err != nil {
		t.Fatalf("NewFileRecorder: %v", err)
	}

	ctx := context.Background()
	r.Record(ctx, Event{Type: ChallengeDetected, ChallengeID: "c1", ChallengeType: "math"})
	r.Record(ctx, Event{Type: SuspensionEntered, ResumeAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)})
	r.Record(ctx, Event{Type: InjectionDetected, Source: "dm", Threats: []string{"ignore_instructions"}})
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var m map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			t.Fatalf("line is not JSON: %q: %v", scanner.Text(), err)
		}
		lines = append(lines, m)
	}

	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(lines))
	}
	if lines[0]["event"] != "challenge_detected" || lines[0]["challenge_id"] != "c1" || lines[0]["agent"] != "Nyx" {
		t.Errorf("Unexpected first line: %v", lines[0])
	}
	if lines[1]["resume_at"] != "2026-01-02T03:04:05Z" {
		t.Errorf("Expected resume_at, got %v", lines[1]["resume_at"])
	}
	if _, ok := lines[1]["challenge_id"]; ok {
		t.Error("Empty fields should be omitted")
	}
	if threats, ok := lines[2]["threats"].([]interface{}); !ok || len(threats) != 1 {
		t.Errorf("Expected threats list, got %v", lines[2]["threats"])
	}
}

func TestFileRecorder_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.ndjson")

	for i := 0; i < 2; i++ {
		r, err := NewFileRecorder(path, "")
		if err != nil {
			t.Fatalf("NewFileRecorder: %v", err)
		}
		r.Record(context.Background(), Event{Type: RateLimited, RetryAfter: 30 * time.Second})
		r.Close()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	count := 0
	for _, b := range data {
		if b == '\n' {
			count++
		}
	}
	if count != 2 {
		t.Errorf("Expected 2 appended lines, got %d", count)
	}
}
