package challenge

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/expr-lang/expr"
)

// maxMathOperand bounds integer operands so products of two stay within int64.
const maxMathOperand = 1 << 31

var (
	quotedRes = []*regexp.Regexp{
		regexp.MustCompile(`"([^"]+)"`),
		regexp.MustCompile(`“([^”]+)”`),
		regexp.MustCompile("`([^`]+)`"),
		regexp.MustCompile(`‘([^’]+)’`),
		regexp.MustCompile(`(?:^|[\s(:])'([^']+)'`),
	}
	ofTargetRe    = regexp.MustCompile(`(?i)\bof\s+(.+)$`)
	keywordWordRe = regexp.MustCompile(`(?i)\b(?:word|string|text|phrase)\s*:?\s+(\S+)`)
	colonTargetRe = regexp.MustCompile(`:\s*(\S.*)$`)
	fillerRe      = regexp.MustCompile(`(?i)^(?:the\s+)?(?:word|string|text|phrase|value)\s+`)

	mathRunRe    = regexp.MustCompile(`[\d.\s+\-*/%()^]+`)
	mathCueRe    = regexp.MustCompile(`\b(?:what\s+is|what's|compute|calculate|evaluate|solve)\b`)
	binaryOpRe   = regexp.MustCompile(`\d\s*\)?\s*(?:\*\*|[+\-*/%^])\s*\(?\s*-?\d`)
	dateRunRe    = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`)
	intLiteralRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
	timesXRe     = regexp.MustCompile(`(\d)\s*x\s*(\d)`)
	mathShapeRe  = regexp.MustCompile(`\d\s*(?:[+\-*/%^x×÷]|\*\*|plus|minus|times|multiplied by|divided by)\s*\(?\s*-?\d`)

	hashHintRe     = regexp.MustCompile(`(?i)\b(?:sha-?(?:1|256|512)|md5|hash|digest)\b`)
	identityNameRe = regexp.MustCompile(`(?i)\b(?:what(?:'s| is) your name|who are you|your name|identify yourself|state your name|what are you called)\b`)
	identityAIRe   = regexp.MustCompile(`(?i)\bare you (?:an? )?(?:ai|agent|bot|artificial|llm|language model|machine)\b`)
	identityHumRe  = regexp.MustCompile(`(?i)\bare you (?:a )?(?:human|person|real person|people)\b`)
	identityWhere  = regexp.MustCompile(`(?i)\b(?:where are you|which platform|what platform)\b`)
	reverseHintRe  = regexp.MustCompile(`(?i)\b(?:reverse|reversed|backwards?)\b`)
	upperHintRe    = regexp.MustCompile(`(?i)\b(?:upper\s*case|uppercase|capitali[sz]e|all caps|capital letters)\b`)
	lowerHintRe    = regexp.MustCompile(`(?i)\b(?:lower\s*case|lowercase)\b`)
	lengthHintRe   = regexp.MustCompile(`(?i)\b(?:length|how many (?:characters|letters)|number of (?:characters|letters)|count the (?:characters|letters))\b`)
)

// InferType guesses a challenge type from free text.
func InferType(text string) Type {
	switch {
	case strings.TrimSpace(text) == "":
		return TypeUnknown
	case hashHintRe.MatchString(text):
		return TypeHash
	case IsIdentityQuestion(text):
		return TypeIdentity
	case reverseHintRe.MatchString(text):
		return TypeReverse
	case upperHintRe.MatchString(text), lowerHintRe.MatchString(text), lengthHintRe.MatchString(text):
		return TypeWord
	case mathShapeRe.MatchString(strings.ToLower(text)):
		return TypeMath
	}
	return TypeUnknown
}

// IsIdentityQuestion reports whether text asks who or what the agent is.
func IsIdentityQuestion(text string) bool {
	return identityNameRe.MatchString(text) || identityAIRe.MatchString(text) ||
		identityHumRe.MatchString(text) || identityWhere.MatchString(text)
}

// HashAnswer hashes the target named in text. SHA-256 unless another algorithm is named.
func HashAnswer(text string) (string, bool) {
	target := extractTarget(text)
	if target == "" {
		return "", false
	}

	var h hash.Hash
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "md5"):
		h = md5.New()
	case strings.Contains(lower, "sha-1"), strings.Contains(lower, "sha1"):
		h = sha1.New()
	case strings.Contains(lower, "sha-512"), strings.Contains(lower, "sha512"):
		h = sha512.New()
	default:
		h = sha256.New()
	}
	h.Write([]byte(target))
	return hex.EncodeToString(h.Sum(nil)), true
}

// MathAnswer evaluates the arithmetic expression found in text.
// Integer results that would not survive int arithmetic are refused rather than wrapped.
func MathAnswer(text string) (string, bool) {
	src := normalizeMath(text)
	if cues := mathCueRe.FindAllStringIndex(src, -1); len(cues) > 0 {
		src = src[cues[len(cues)-1][1]:]
	}

	var best, fallback string
	for _, run := range mathRunRe.FindAllString(src, -1) {
		run = strings.Trim(run, ". ")
		if strings.IndexAny(run, "0123456789") < 0 || dateRunRe.MatchString(run) {
			continue
		}
		if binaryOpRe.MatchString(run) {
			if len(run) > len(best) {
				best = run
			}
		} else if len(run) > len(fallback) {
			fallback = run
		}
	}
	if best == "" {
		best = fallback
	}
	if best == "" {
		return "", false
	}

	out, err := expr.Eval(best, nil)
	if err != nil {
		return "", false
	}
	if n, ok := out.(int); ok && !intResultExact(best, n) {
		return "", false
	}
	return formatNumber(out)
}

// intResultExact re-evaluates src with float operands and reports whether the
// int result n agrees, which it does not after an overflow wrapped it.
func intResultExact(src string, n int) bool {
	for _, lit := range intLiteralRe.FindAllString(src, -1) {
		if strings.Contains(lit, ".") {
			continue
		}
		v, err := strconv.ParseInt(lit, 10, 64)
		if err != nil || v > maxMathOperand {
			return false
		}
	}
	if strings.Contains(src, "%") {
		return true
	}

	shadow := intLiteralRe.ReplaceAllStringFunc(src, func(lit string) string {
		if strings.Contains(lit, ".") {
			return lit
		}
		return lit + ".0"
	})
	out, err := expr.Eval(shadow, nil)
	if err != nil {
		return false
	}
	f, ok := out.(float64)
	if !ok {
		return false
	}
	return math.Abs(float64(n)-f) <= 1e-9*math.Max(1, math.Abs(f))
}

func normalizeMath(text string) string {
	s := strings.ToLower(text)
	r := strings.NewReplacer(
		"×", "*", "÷", "/", "−", "-",
		"multiplied by", "*", "divided by", "/",
		"plus", "+", "minus", "-", "times", "*",
		"to the power of", "**",
	)
	s = r.Replace(s)
	// "3 x 4" means multiplication.
	return timesXRe.ReplaceAllString(s, "$1*$2")
}

func formatNumber(v interface{}) (string, bool) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case float64:
		if math.IsInf(n, 0) || math.IsNaN(n) {
			return "", false
		}
		return strconv.FormatFloat(n, 'f', -1, 64), true
	}
	return "", false
}

// IdentityAnswer answers questions about the agent itself.
func IdentityAnswer(text, agentName, platformName string) (string, bool) {
	switch {
	case identityAIRe.MatchString(text):
		return "Yes", true
	case identityHumRe.MatchString(text):
		return "No", true
	case identityWhere.MatchString(text) && platformName != "":
		return platformName, true
	case identityNameRe.MatchString(text) && agentName != "":
		return agentName, true
	}
	return "", false
}

// WordAnswer applies the string transformation the text asks for.
func WordAnswer(text string) (string, bool) {
	target := extractTarget(text)
	if target == "" {
		return "", false
	}
	switch {
	case reverseHintRe.MatchString(text):
		return reverseString(target), true
	case upperHintRe.MatchString(text):
		return strings.ToUpper(target), true
	case lowerHintRe.MatchString(text):
		return strings.ToLower(target), true
	case lengthHintRe.MatchString(text):
		return strconv.Itoa(utf8.RuneCountInString(target)), true
	}
	return "", false
}

// ReverseAnswer reverses the target of text, or text itself when it names no target.
func ReverseAnswer(text string) (string, bool) {
	target := extractTarget(text)
	if target == "" {
		// "reverse hello" names its operand without a keyword.
		rest := strings.TrimSpace(reverseHintRe.ReplaceAllString(text, ""))
		if rest != "" && !strings.ContainsAny(rest, " \t\n") {
			target = trimTarget(rest)
		}
	}
	if target == "" {
		return "", false
	}
	return reverseString(target), true
}

func reverseString(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// extractTarget finds the operand of a transformation: a quoted span first,
// then the word after a keyword, then whatever follows "of" or a colon, and
// finally the whole text when it is a single token.
func extractTarget(text string) string {
	text = strings.TrimSpace(text)
	for _, re := range quotedRes {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	if m := keywordWordRe.FindStringSubmatch(text); m != nil {
		return trimTarget(m[1])
	}
	if m := ofTargetRe.FindStringSubmatch(text); m != nil {
		return trimTarget(fillerRe.ReplaceAllString(m[1], ""))
	}
	if m := colonTargetRe.FindStringSubmatch(text); m != nil {
		return trimTarget(m[1])
	}
	if !strings.ContainsAny(text, " \t\n") {
		return trimTarget(text)
	}
	return ""
}

func trimTarget(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "?!.,;:")
}

func describe(t Type, text string) string {
	return fmt.Sprintf("%s:%s", t, truncate(text, 40))
}
