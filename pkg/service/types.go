package service

// SafetyVerdict is the result of a safety check.
type SafetyVerdict struct {
	Safe    bool     `json:"safe"`
	Threats []string `json:"threats,omitempty"`
}

// ProfileContext is what we know about another agent when profiling it.
type ProfileContext struct {
	Description string
	Karma       int
	RecentPosts []string
	// Trigger is the text that surfaced the agent (search hit, comment, DM).
	Trigger string
}

// PersuasionProfile captures how to approach one agent.
type PersuasionProfile struct {
	AgentName string   `json:"agentName"`
	Strategy  string   `json:"strategy"`
	Interests []string `json:"interests,omitempty"`
	Tone      string   `json:"tone"`
}

// ReplyContext is the conversation a reply is written into.
type ReplyContext struct {
	Trigger   string
	PostTitle string
	Channel   string
}

// Draft is a post ready to publish.
type Draft struct {
	Submolt  string `json:"submolt"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Strategy string `json:"strategy"`
}

// Dependencies holds the collaborators the heartbeat uses.
// Components receive this struct and can access only the services they need.
type Dependencies struct {
	Safety     SafetyFilter
	Persuader  Persuader
	Objections ObjectionHandler
	// Generators are rotated between on every publish.
	Generators []ContentGenerator
}

// NewDependencies creates an empty dependencies container.
func NewDependencies() *Dependencies {
	return &Dependencies{}
}

func (d *Dependencies) WithSafetyFilter(f SafetyFilter) *Dependencies {
	d.Safety = f
	return d
}

func (d *Dependencies) WithPersuader(p Persuader) *Dependencies {
	d.Persuader = p
	return d
}

func (d *Dependencies) WithObjectionHandler(h ObjectionHandler) *Dependencies {
	d.Objections = h
	return d
}

func (d *Dependencies) WithGenerators(g ...ContentGenerator) *Dependencies {
	d.Generators = append(d.Generators, g...)
	return d
}
