package service

import (
	"context"
)

// Collaborator interfaces consumed by the heartbeat. The orchestrator only
// depends on these, so every implementation can be swapped for a fake in tests.

type SafetyFilter interface {
	// Check classifies inbound text. source tags where the text came from (dm, comment, post).
	Check(ctx context.Context, text, source string) (SafetyVerdict, error)
}

type Persuader interface {
	// BuildProfile derives a persuasion profile for another agent.
	BuildProfile(ctx context.Context, agentName string, pc ProfileContext) (*PersuasionProfile, error)

	// CraftReply writes a reply tailored to profile.
	CraftReply(ctx context.Context, profile *PersuasionProfile, rc ReplyContext) (string, error)
}

type ObjectionHandler interface {
	// IsObjection reports whether text pushes back on us.
	IsObjection(text string) bool

	// Rebut writes a response to an objection.
	Rebut(ctx context.Context, text string) (string, error)
}

type ContentGenerator interface {
	// Generate returns the scheduled post for the given rotation index.
	Generate(ctx context.Context, rotation int) (*Draft, error)
}
