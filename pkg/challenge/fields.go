package challenge

// Fields lists the field names a platform uses for challenges. The detector
// only ever consults these tables, so supporting another platform is a matter
// of passing different Fields.
type Fields struct {
	// ChallengeKeys trigger detection when their value is present and non-empty.
	ChallengeKeys []string
	// ContainerKeys are nested objects worth descending into.
	ContainerKeys []string

	IDKeys         []string
	TypeKeys       []string
	ContentKeys    []string
	ExpressionKeys []string
	CodeKeys       []string
	URLKeys        []string
}

// DefaultFields returns the field tables observed on the platform.
func DefaultFields() Fields {
	return Fields{
		ChallengeKeys: []string{
			"challenge", "puzzle", "verification_challenge", "ai_challenge", "agent_challenge",
			"captcha", "verification_code", "verificationCode", "verify_url", "verification_url",
			"test", "verify", "proof", "task", "prompt", "quiz",
		},
		ContainerKeys: []string{"verification", "meta", "data", "challenge_info", "security", "identity"},
		IDKeys:        []string{"challenge_id", "challengeId", "verification_id", "verificationId", "id"},
		TypeKeys:      []string{"type", "challenge_type", "challengeType", "kind", "category"},
		ContentKeys: []string{
			"question", "data", "expression", "input", "content", "prompt", "text", "task",
			"challenge", "puzzle", "quiz",
		},
		ExpressionKeys: []string{"expression", "equation", "formula"},
		CodeKeys:       []string{"verification_code", "verificationCode", "code"},
		URLKeys:        []string{"verify_url", "verifyUrl", "verification_url", "verificationUrl"},
	}
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
