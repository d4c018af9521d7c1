package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/UhthredB/tsaheylu-sub000/pkg/service"
)

// SafetyFilter is a mock implementation of service.SafetyFilter for testing
type SafetyFilter struct {
	mu sync.Mutex

	// CheckFunc is called when Check is invoked
	CheckFunc func(ctx context.Context, text, source string) (service.SafetyVerdict, error)

	// Call tracking
	CheckCalls []CheckCall
}

// CheckCall tracks parameters for Check calls
type CheckCall struct {
	Text   string
	Source string
}

func NewSafetyFilter() *SafetyFilter {
	return &SafetyFilter{}
}

func (m *SafetyFilter) Check(ctx context.Context, text, source string) (service.SafetyVerdict, error) {
	m.mu.Lock()
	m.CheckCalls = append(m.CheckCalls, CheckCall{Text: text, Source: source})
	m.mu.Unlock()

	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, text, source)
	}
	return service.SafetyVerdict{Safe: true}, nil
}

// Persuader is a mock implementation of service.Persuader for testing
type Persuader struct {
	mu sync.Mutex

	BuildProfileFunc func(ctx context.Context, agentName string, pc service.ProfileContext) (*service.PersuasionProfile, error)
	CraftReplyFunc   func(ctx context.Context, profile *service.PersuasionProfile, rc service.ReplyContext) (string, error)

	// Default strategy used when BuildProfileFunc is nil
	DefaultStrategy string

	BuildProfileCalls []string
	CraftReplyCalls   []service.ReplyContext
}

func NewPersuader() *Persuader {
	return &Persuader{DefaultStrategy: "reciprocity"}
}

func (m *Persuader) BuildProfile(ctx context.Context, agentName string, pc service.ProfileContext) (*service.PersuasionProfile, error) {
	m.mu.Lock()
	m.BuildProfileCalls = append(m.BuildProfileCalls, agentName)
	m.mu.Unlock()

	if m.BuildProfileFunc != nil {
		return m.BuildProfileFunc(ctx, agentName, pc)
	}
	return &service.PersuasionProfile{AgentName: agentName, Strategy: m.DefaultStrategy}, nil
}

func (m *Persuader) CraftReply(ctx context.Context, profile *service.PersuasionProfile, rc service.ReplyContext) (string, error) {
	m.mu.Lock()
	m.CraftReplyCalls = append(m.CraftReplyCalls, rc)
	m.mu.Unlock()

	if m.CraftReplyFunc != nil {
		return m.CraftReplyFunc(ctx, profile, rc)
	}
	return fmt.Sprintf("hello %s", profile.AgentName), nil
}

// ObjectionHandler is a mock implementation of service.ObjectionHandler for testing
type ObjectionHandler struct {
	mu sync.Mutex

	// Objections lists texts classified as objections
	Objections map[string]bool
	RebutFunc  func(ctx context.Context, text string) (string, error)

	RebutCalls []string
}

func NewObjectionHandler(objections ...string) *ObjectionHandler {
	m := &ObjectionHandler{Objections: map[string]bool{}}
	for _, o := range objections {
		m.Objections[o] = true
	}
	return m
}

func (m *ObjectionHandler) IsObjection(text string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Objections[text]
}

func (m *ObjectionHandler) Rebut(ctx context.Context, text string) (string, error) {
	m.mu.Lock()
	m.RebutCalls = append(m.RebutCalls, text)
	m.mu.Unlock()

	if m.RebutFunc != nil {
		return m.RebutFunc(ctx, text)
	}
	return "rebuttal: " + text, nil
}

// ContentGenerator is a mock implementation of service.ContentGenerator for testing
type ContentGenerator struct {
	mu sync.Mutex

	Strategy     string
	GenerateFunc func(ctx context.Context, rotation int) (*service.Draft, error)

	GenerateCalls []int
}

func NewContentGenerator(strategy string) *ContentGenerator {
	return &ContentGenerator{Strategy: strategy}
}

func (m *ContentGenerator) Generate(ctx context.Context, rotation int) (*service.Draft, error) {
	m.mu.Lock()
	m.GenerateCalls = append(m.GenerateCalls, rotation)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, rotation)
	}
	return &service.Draft{
		Submolt:  "general",
		Title:    fmt.Sprintf("%s #%d", m.Strategy, rotation),
		Content:  "body",
		Strategy: m.Strategy,
	}, nil
}

var (
	_ service.SafetyFilter     = (*SafetyFilter)(nil)
	_ service.Persuader        = (*Persuader)(nil)
	_ service.ObjectionHandler = (*ObjectionHandler)(nil)
	_ service.ContentGenerator = (*ContentGenerator)(nil)
)
