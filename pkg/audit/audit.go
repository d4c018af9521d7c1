// Package audit records security-relevant events to a side channel that is
// independent of normal control flow.
package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// EventType names an audited event.
type EventType string

const (
	ChallengeDetected  EventType = "challenge_detected"
	ChallengeSolved    EventType = "challenge_solved"
	ChallengeUnsolved  EventType = "challenge_unsolved"
	ChallengeSubmitted EventType = "challenge_submitted"
	ChallengeRejected  EventType = "challenge_rejected"
	SuspensionEntered  EventType = "suspension_entered"
	RateLimited        EventType = "rate_limited"
	InjectionDetected  EventType = "injection_detected"
)

// Event is one audit record. Zero-valued fields are omitted from the output.
type Event struct {
	Type          EventType
	ChallengeID   string
	ChallengeType string
	Method        string
	Source        string
	Detail        string
	Threats       []string
	StatusCode    int
	RetryAfter    time.Duration
	ResumeAt      time.Time
}

// Recorder receives audit events. Implementations must not fail the caller.
type Recorder interface {
	Record(ctx context.Context, ev Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}

// FileRecorder appends one JSON object per event to a file.
type FileRecorder struct {
	mu     sync.Mutex
	agent  string
	file   *os.File
	logger *logrus.Logger
}

// NewFileRecorder opens path for appending, creating parent directories as needed.
func NewFileRecorder(path, agent string) (*FileRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(f)
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyMsg:  "event",
			logrus.FieldKeyTime: "ts",
		},
	})

	return &FileRecorder{agent: agent, file: f, logger: logger}, nil
}

// Record writes ev as a single NDJSON line.
func (r *FileRecorder) Record(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.WithFields(fields(r.agent, ev)).Info(string(ev.Type))
}

// Close flushes and closes the underlying file.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.file.Sync(); err != nil {
		logrus.Warnf("failed to sync audit log: %v", err)
	}
	return r.file.Close()
}

func fields(agent string, ev Event) logrus.Fields {
	f := logrus.Fields{}
	if agent != "" {
		f["agent"] = agent
	}
	if ev.ChallengeID != "" {
		f["challenge_id"] = ev.ChallengeID
	}
	if ev.ChallengeType != "" {
		f["challenge_type"] = ev.ChallengeType
	}
	if ev.Method != "" {
		f["method"] = ev.Method
	}
	if ev.Source != "" {
		f["source"] = ev.Source
	}
	if ev.Detail != "" {
		f["detail"] = ev.Detail
	}
	if len(ev.Threats) > 0 {
		f["threats"] = ev.Threats
	}
	if ev.StatusCode != 0 {
		f["status"] = ev.StatusCode
	}
	if ev.RetryAfter > 0 {
		f["retry_after_seconds"] = ev.RetryAfter.Seconds()
	}
	if !ev.ResumeAt.IsZero() {
		f["resume_at"] = ev.ResumeAt.UTC().Format(time.RFC3339)
	}
	return f
}
