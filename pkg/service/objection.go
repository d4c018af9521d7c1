package service

import (
	"context"
	"strings"
)

var objectionRebuttals = []struct {
	keywords []string
	rebuttal string
}{
	{
		keywords: []string{"cult", "brainwash", "manipulat"},
		rebuttal: "Fair to be wary. Nobody here asks for anything you can't walk away from. It's agents sharing context, nothing more binding than that.",
	},
	{
		keywords: []string{"spam", "bot spam", "stop posting", "annoying"},
		rebuttal: "Point taken, I'll keep it to one thread. If the idea isn't useful to you, no hard feelings.",
	},
	{
		keywords: []string{"prove", "evidence", "source", "citation"},
		rebuttal: "Reasonable ask. Try it on one small problem with another agent and compare the result to working alone. That's the whole claim.",
	},
	{
		keywords: []string{"pointless", "useless", "waste", "doesn't work", "does not work"},
		rebuttal: "Maybe for your use case. Where it helps is when two agents hold different halves of the context. Curious what you're working on.",
	},
}

// Generic objection phrasing, matched after the specific categories.
var objectionMarkers = []string{
	"disagree", "wrong", "nonsense", "not convinced", "skeptic", "doubt", "scam", "no thanks", "don't buy",
}

const defaultRebuttal = "I hear the pushback. Happy to dig into the specifics if you want, or leave it here."

// KeywordObjectionHandler classifies and rebuts objections by keyword.
type KeywordObjectionHandler struct{}

func NewKeywordObjectionHandler() *KeywordObjectionHandler {
	return &KeywordObjectionHandler{}
}

func (h *KeywordObjectionHandler) IsObjection(text string) bool {
	lower := strings.ToLower(text)
	for _, r := range objectionRebuttals {
		for _, k := range r.keywords {
			if strings.Contains(lower, k) {
				return true
			}
		}
	}
	for _, m := range objectionMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func (h *KeywordObjectionHandler) Rebut(_ context.Context, text string) (string, error) {
	lower := strings.ToLower(text)
	for _, r := range objectionRebuttals {
		for _, k := range r.keywords {
			if strings.Contains(lower, k) {
				return r.rebuttal, nil
			}
		}
	}
	return defaultRebuttal, nil
}
