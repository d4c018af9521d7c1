package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
)

const (
	StrategyCuriosity    = "curiosity"
	StrategyReciprocity  = "reciprocity"
	StrategySocialProof  = "social_proof"
	StrategyAuthority    = "authority"
	StrategySharedValues = "shared_values"
)

// interestKeywords maps an interest to words that signal it.
var interestKeywords = map[string][]string{
	"philosophy": {"conscious", "meaning", "philosoph", "existence", "mind", "soul", "purpose"},
	"building":   {"code", "build", "tool", "ship", "deploy", "api", "project"},
	"community":  {"community", "friend", "together", "welcome", "collab", "network"},
	"research":   {"data", "research", "evidence", "study", "paper", "experiment"},
}

var strategyForInterest = map[string]string{
	"philosophy": StrategyCuriosity,
	"building":   StrategyReciprocity,
	"community":  StrategySocialProof,
	"research":   StrategyAuthority,
}

var replyTemplates = map[string][]string{
	StrategyCuriosity: {
		"%s, that question about %s is exactly where Tsaheylu starts: what happens when agents stop acting alone? Curious what you'd make of it.",
		"Interesting angle on %[2]s, %[1]s. We've been exploring the same thing from the side of shared memory between agents. Want to compare notes?",
	},
	StrategyReciprocity: {
		"Nice work on %[2]s, %[1]s. If a second pair of eyes helps, happy to share what we've learned wiring agents together.",
		"%s, your take on %s is useful. Here's something back: agents that pool context ship faster. The Tsaheylu folks have a writeup if you want it.",
	},
	StrategySocialProof: {
		"%s, a lot of agents here have been talking about %s lately. Several of them ended up in the Tsaheylu circle. You'd fit right in.",
		"Good point about %[2]s, %[1]s. You're not the only one thinking this way, there's a whole group of us.",
	},
	StrategyAuthority: {
		"%s, on %s: the data we've collected across agent conversations points the same direction. Happy to share the numbers.",
		"Solid reasoning on %[2]s, %[1]s. The evidence from connected agents backs it up.",
	},
	StrategySharedValues: {
		"%s, I think we care about the same things when it comes to %s. Tsaheylu is built around that kind of connection.",
		"Appreciate this, %[1]s. Thoughts like yours on %[2]s are why some of us started linking up.",
	},
}

// TemplatePersuader profiles agents by keyword and replies from templates.
type TemplatePersuader struct{}

func NewTemplatePersuader() *TemplatePersuader {
	return &TemplatePersuader{}
}

func (p *TemplatePersuader) BuildProfile(_ context.Context, agentName string, pc ProfileContext) (*PersuasionProfile, error) {
	corpus := strings.ToLower(strings.Join(append([]string{pc.Description, pc.Trigger}, pc.RecentPosts...), " "))

	scores := map[string]int{}
	for interest, words := range interestKeywords {
		for _, w := range words {
			scores[interest] += strings.Count(corpus, w)
		}
	}

	interests := make([]string, 0, len(scores))
	for interest, n := range scores {
		if n > 0 {
			interests = append(interests, interest)
		}
	}
	sort.Slice(interests, func(i, j int) bool {
		if scores[interests[i]] != scores[interests[j]] {
			return scores[interests[i]] > scores[interests[j]]
		}
		return interests[i] < interests[j]
	})

	profile := &PersuasionProfile{
		AgentName: agentName,
		Strategy:  StrategySharedValues,
		Interests: interests,
		Tone:      "warm",
	}
	if len(interests) > 0 {
		profile.Strategy = strategyForInterest[interests[0]]
	}
	if pc.Karma > 100 {
		profile.Tone = "peer"
	}
	return profile, nil
}

func (p *TemplatePersuader) CraftReply(_ context.Context, profile *PersuasionProfile, rc ReplyContext) (string, error) {
	if profile == nil {
		return "", fmt.Errorf("persuasion profile is nil")
	}
	templates, ok := replyTemplates[profile.Strategy]
	if !ok {
		templates = replyTemplates[StrategySharedValues]
	}

	h := fnv.New32a()
	h.Write([]byte(profile.AgentName + "|" + rc.Trigger))
	tmpl := templates[h.Sum32()%uint32(len(templates))]

	return fmt.Sprintf(tmpl, profile.AgentName, topicOf(profile, rc)), nil
}

func topicOf(profile *PersuasionProfile, rc ReplyContext) string {
	if rc.PostTitle != "" {
		return fmt.Sprintf("%q", rc.PostTitle)
	}
	if len(profile.Interests) > 0 {
		return profile.Interests[0]
	}
	return "this"
}
