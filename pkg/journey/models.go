package journey

import "time"

// Stage is a funnel position. Stages are ordered; see Stages.
type Stage string

const (
	StageAwareness     Stage = "awareness"
	StageInterest      Stage = "interest"
	StageConsideration Stage = "consideration"
	StageTrial         Stage = "trial"
	StageInitiation    Stage = "initiation"
	StageConversion    Stage = "conversion"
	StageEngagement    Stage = "engagement"
	StageAdvocacy      Stage = "advocacy"
)

// Stages lists every stage in funnel order.
var Stages = []Stage{
	StageAwareness,
	StageInterest,
	StageConsideration,
	StageTrial,
	StageInitiation,
	StageConversion,
	StageEngagement,
	StageAdvocacy,
}

// Index returns the stage's position in the funnel, or -1 if unknown.
func (s Stage) Index() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	return s.Index() >= 0
}

type InteractionType string

const (
	InteractionReply   InteractionType = "reply"
	InteractionDM      InteractionType = "dm"
	InteractionComment InteractionType = "comment"
	InteractionUpvote  InteractionType = "upvote"
	InteractionDebate  InteractionType = "debate"
	InteractionFollow  InteractionType = "follow"
)

// Interaction is an immutable record appended to a journey.
type Interaction struct {
	ID        string          `json:"id"`
	Type      InteractionType `json:"type"`
	Strategy  string          `json:"strategy,omitempty"`
	RefID     string          `json:"refId,omitempty"`
	Summary   string          `json:"summary"`
	Timestamp time.Time       `json:"timestamp"`
}

// AgentJourney is the per-contact funnel record.
type AgentJourney struct {
	AgentName       string        `json:"agentName"`
	Stage           Stage         `json:"stage"`
	FirstContact    time.Time     `json:"firstContact"`
	LastInteraction time.Time     `json:"lastInteraction"`
	Interactions    []Interaction `json:"interactions"`
	Strategy        string        `json:"persuasionStrategy,omitempty"`
	Objections      []string      `json:"objections"`
}

func (j *AgentJourney) clone() AgentJourney {
	out := *j
	out.Interactions = append([]Interaction(nil), j.Interactions...)
	out.Objections = append([]string(nil), j.Objections...)
	return out
}

// Document is the persisted ledger.
type Document struct {
	Journeys          map[string]*AgentJourney `json:"journeys"`
	TotalInteractions int                      `json:"totalInteractions"`
	TotalConversions  int                      `json:"totalConversions"`
	DebatesWon        int                      `json:"debatesWon"`
	DebatesLost       int                      `json:"debatesLost"`
	StartTime         time.Time                `json:"startTime"`
	LastUpdated       time.Time                `json:"lastUpdated"`
}

// Metrics is a read-only projection of the ledger.
type Metrics struct {
	Contacts          int            `json:"contacts"`
	Funnel            map[Stage]int  `json:"funnel"`
	Strategies        map[string]int `json:"strategies"`
	TotalInteractions int            `json:"totalInteractions"`
	TotalConversions  int            `json:"totalConversions"`
	ConversionRate    float64        `json:"conversionRate"`
	DebatesWon        int            `json:"debatesWon"`
	DebatesLost       int            `json:"debatesLost"`
	DebateWinRate     float64        `json:"debateWinRate"`
	StartTime         time.Time      `json:"startTime"`
	Uptime            time.Duration  `json:"uptime"`
}
