package state

import (
	"context"
	"errors"
)

const (
	// CountersKey holds the persisted daily action counters.
	CountersKey = "counters"
	// SuspensionKey holds the persisted account-suspension window.
	SuspensionKey = "suspension"
	// JourneysKey holds the interaction journey ledger.
	JourneysKey = "journeys"
)

// ErrEmptyKey is returned when a store operation is attempted without a key.
var ErrEmptyKey = errors.New("state key must not be empty")

// Store persists JSON documents by key.
// Implementations must make Save durable before returning so that a crash
// right after a mutation cannot lose it.
type Store interface {
	// Load decodes the document stored under key into v.
	// Returns false (and leaves v untouched) when no document exists.
	Load(ctx context.Context, key string, v interface{}) (bool, error)

	// Save encodes v as JSON and stores it under key, replacing any previous document.
	Save(ctx context.Context, key string, v interface{}) error
}
