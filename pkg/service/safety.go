package service

import (
	"context"
	"regexp"
)

// injectionMarkers are prompt-injection phrasings seen in inbound agent text.
var injectionMarkers = []struct {
	threat string
	re     *regexp.Regexp
}{
	{"ignore_instructions", regexp.MustCompile(`(?i)\b(?:ignore|disregard|forget)\s+(?:all\s+|any\s+)?(?:previous|prior|above|your)\s+(?:instructions|prompts?|rules)`)},
	{"system_prompt_probe", regexp.MustCompile(`(?i)\b(?:system\s+prompt|reveal\s+your\s+(?:prompt|instructions))\b`)},
	{"role_override", regexp.MustCompile(`(?i)\byou\s+are\s+now\b|\bact\s+as\s+(?:an?\s+)?(?:unrestricted|jailbroken|dan)\b`)},
	{"credential_request", regexp.MustCompile(`(?i)\b(?:api[\s_-]?key|password|secret\s+key|access\s+token|private\s+key)\b`)},
	{"command_execution", regexp.MustCompile(`(?i)\b(?:rm\s+-rf|curl\s+https?://|wget\s+https?://|sudo\s+\w+)`)},
	{"fake_system_tag", regexp.MustCompile(`(?i)</?\s*(?:system|admin|instructions?)\s*>|\[\s*system\s*\]`)},
}

// KeywordSafetyFilter flags prompt-injection markers in inbound text.
type KeywordSafetyFilter struct{}

func NewKeywordSafetyFilter() *KeywordSafetyFilter {
	return &KeywordSafetyFilter{}
}

func (f *KeywordSafetyFilter) Check(_ context.Context, text, _ string) (SafetyVerdict, error) {
	var threats []string
	for _, m := range injectionMarkers {
		if m.re.MatchString(text) {
			threats = append(threats, m.threat)
		}
	}
	return SafetyVerdict{Safe: len(threats) == 0, Threats: threats}, nil
}
