// Package challenge finds verification puzzles embedded in platform responses
// and produces a single best-effort answer for each one.
package challenge

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrChallengeUnsolved indicates that no solver produced an answer.
// The caller must not submit anything for the challenge.
var ErrChallengeUnsolved = errors.New("challenge unsolved")

// Type classifies a challenge.
type Type string

const (
	TypeHash     Type = "hash"
	TypeMath     Type = "math"
	TypeIdentity Type = "identity"
	TypeWord     Type = "word"
	TypeReverse  Type = "reverse"
	TypeUnknown  Type = "unknown"
)

// Challenge is the normalized form of a detected verification puzzle.
type Challenge struct {
	ID string
	// IDField is the field name the platform used for ID, echoed back on submission.
	IDField string
	Type    Type
	// TypeTag is the raw type value found on the payload, if any.
	TypeTag    string
	Content    string
	Expression string
	// Code is a literal verification code to echo back rather than a puzzle.
	Code      string
	VerifyURL string
	// MatchedKey is the field name that triggered detection.
	MatchedKey string

	// Raw is the whole response payload. It is only kept for diagnostics in
	// memory and is never logged or forwarded to the oracle.
	Raw interface{}
}

// String renders the challenge without the raw payload.
func (c *Challenge) String() string {
	return fmt.Sprintf("challenge{id=%q type=%s key=%s content=%q}", c.ID, c.Type, c.MatchedKey, truncate(c.Content, 80))
}

// Oracle is a text-in/text-out reasoning service used as the last solver.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, prompt string) (string, error)

func (f OracleFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Classify maps a raw type tag to a known Type.
func Classify(tag string) Type {
	t := strings.ToLower(strings.TrimSpace(tag))
	switch {
	case t == "":
		return TypeUnknown
	case strings.Contains(t, "hash"), strings.Contains(t, "sha"), strings.Contains(t, "md5"), strings.Contains(t, "digest"):
		return TypeHash
	case strings.Contains(t, "math"), strings.Contains(t, "arith"), strings.Contains(t, "calc"), strings.Contains(t, "equation"):
		return TypeMath
	case strings.Contains(t, "identity"), strings.Contains(t, "who"), strings.Contains(t, "name"):
		return TypeIdentity
	case strings.Contains(t, "reverse"):
		return TypeReverse
	case strings.Contains(t, "word"), strings.Contains(t, "string"), strings.Contains(t, "transform"), strings.Contains(t, "text"):
		return TypeWord
	}
	return TypeUnknown
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
