package challenge

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Method names the solver stage that produced an answer.
type Method string

const (
	MethodTyped   Method = "typed"
	MethodPattern Method = "pattern"
	MethodCode    Method = "code"
	MethodOracle  Method = "oracle"
)

// Answer is a solved challenge.
type Answer struct {
	Value  string
	Method Method
}

// Solver produces at most one answer per challenge. Deterministic solvers run
// first; the oracle is consulted only when none of them apply.
type Solver struct {
	AgentName    string
	PlatformName string
	Oracle       Oracle
}

// NewSolver creates a Solver. oracle may be nil.
func NewSolver(agentName, platformName string, oracle Oracle) *Solver {
	return &Solver{AgentName: agentName, PlatformName: platformName, Oracle: oracle}
}

// Solve returns the answer for c, or ErrChallengeUnsolved.
func (s *Solver) Solve(ctx context.Context, c *Challenge) (Answer, error) {
	text := c.Content
	if text == "" {
		text = c.Expression
	}

	if c.Type != TypeUnknown {
		if v, ok := s.solveAs(c.Type, c); ok {
			return Answer{Value: v, Method: MethodTyped}, nil
		}
		logrus.Debugf("typed solver failed for %s", describe(c.Type, text))
	}

	if t := InferType(text); t != TypeUnknown {
		if v, ok := s.solveAs(t, c); ok {
			return Answer{Value: v, Method: MethodPattern}, nil
		}
		logrus.Debugf("pattern solver failed for %s", describe(t, text))
	}

	if c.Code != "" {
		return Answer{Value: c.Code, Method: MethodCode}, nil
	}

	if s.Oracle != nil && text != "" {
		raw, err := s.Oracle.Complete(ctx, s.prompt(c))
		if err != nil {
			logrus.Warnf("oracle failed for challenge %s: %v", c.ID, err)
		} else if v := CleanOracleAnswer(raw, text, s.AgentName); v != "" {
			return Answer{Value: v, Method: MethodOracle}, nil
		}
	}

	return Answer{}, fmt.Errorf("%w: %s", ErrChallengeUnsolved, c)
}

func (s *Solver) solveAs(t Type, c *Challenge) (string, bool) {
	text := c.Content
	switch t {
	case TypeHash:
		return HashAnswer(text)
	case TypeMath:
		if c.Expression != "" {
			if v, ok := MathAnswer(c.Expression); ok {
				return v, true
			}
		}
		return MathAnswer(text)
	case TypeIdentity:
		return IdentityAnswer(text, s.AgentName, s.PlatformName)
	case TypeWord:
		return WordAnswer(text)
	case TypeReverse:
		if text == "" {
			text = c.Expression
		}
		return ReverseAnswer(text)
	}
	return "", false
}

// prompt carries only normalized fields, never the raw payload.
func (s *Solver) prompt(c *Challenge) string {
	var b strings.Builder
	b.WriteString("You are answering an automated verification challenge on behalf of an AI agent.\n")
	if c.Type != TypeUnknown {
		fmt.Fprintf(&b, "Challenge type: %s\n", c.Type)
	}
	fmt.Fprintf(&b, "Challenge: %s\n", c.Content)
	if c.Expression != "" && c.Expression != c.Content {
		fmt.Fprintf(&b, "Expression: %s\n", c.Expression)
	}
	if s.AgentName != "" {
		fmt.Fprintf(&b, "If the challenge asks for your name or identity, answer exactly: %s\n", s.AgentName)
	}
	b.WriteString("Reply with ONLY the bare answer value. No explanation, no markdown, no quotes, no trailing punctuation.")
	return b.String()
}
