package budget

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var durationHints = []struct {
	re   *regexp.Regexp
	unit time.Duration
}{
	{regexp.MustCompile(`(\d+)\s*(?:days?|d)\b`), 24 * time.Hour},
	{regexp.MustCompile(`(\d+)\s*(?:hours?|hrs?|h)\b`), time.Hour},
	{regexp.MustCompile(`(\d+)\s*(?:minutes?|mins?|m)\b`), time.Minute},
}

var suspensionWords = []string{"suspended", "suspension"}

// IsSuspensionText reports whether an error body uses suspension language.
func IsSuspensionText(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range suspensionWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// ParseSuspensionDuration extracts a duration from free text such as
// "suspended for 2 days" or "try again in 3 hours 15 minutes". All matched
// units are summed. Returns fallback when nothing parseable is present.
func ParseSuspensionDuration(text string, fallback time.Duration) time.Duration {
	lower := strings.ToLower(text)

	var total time.Duration
	for _, hint := range durationHints {
		for _, m := range hint.re.FindAllStringSubmatch(lower, -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil || n <= 0 {
				continue
			}
			total += time.Duration(n) * hint.unit
		}
	}

	if total <= 0 {
		return fallback
	}
	return total
}
