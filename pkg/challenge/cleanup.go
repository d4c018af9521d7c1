package challenge

import (
	"regexp"
	"strings"
)

var (
	fenceOpenRe  = regexp.MustCompile("^```[A-Za-z0-9_-]*\\s*")
	fenceCloseRe = regexp.MustCompile("\\s*```$")
	preambleRe   = regexp.MustCompile(`(?i)^(?:the\s+)?(?:final\s+)?(?:answer|result|solution|output|response)(?:\s+is)?(?:\s*[:=]\s*|\s+-\s+|\s+|$)|^(?:i\s+am|i'm|my\s+name\s+is|it\s+is|it's|sure[,!.]?)(?:\s*:\s*|\s+-\s+|\s+|$)`)
	trailingRe   = regexp.MustCompile(`[.!;,]+$`)
)

// CleanOracleAnswer reduces free-form model output to a bare answer value.
// A dash separates a preamble only when spaced, so a leading minus sign survives.
// For identity questions, any answer mentioning agentName becomes exactly agentName.
func CleanOracleAnswer(raw, question, agentName string) string {
	s := strings.TrimSpace(raw)
	s = fenceOpenRe.ReplaceAllString(s, "")
	s = fenceCloseRe.ReplaceAllString(s, "")
	s = firstLine(s)

	for {
		prev := s
		s = strings.TrimSpace(s)
		s = preambleRe.ReplaceAllString(s, "")
		s = strings.Trim(s, "*_")
		s = unquote(s)
		s = trailingRe.ReplaceAllString(s, "")
		s = strings.TrimSpace(s)
		if s == prev {
			break
		}
	}

	if agentName != "" && IsIdentityQuestion(question) &&
		strings.Contains(strings.ToLower(s), strings.ToLower(agentName)) {
		return agentName
	}
	return s
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func unquote(s string) string {
	pairs := [][2]string{{`"`, `"`}, {`'`, `'`}, {"`", "`"}, {"“", "”"}, {"‘", "’"}}
	for _, p := range pairs {
		if len(s) >= len(p[0])+len(p[1]) && strings.HasPrefix(s, p[0]) && strings.HasSuffix(s, p[1]) {
			return s[len(p[0]) : len(s)-len(p[1])]
		}
	}
	return s
}
