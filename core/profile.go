package core

// PastRole describes one prior position on a candidate's resume.
type PastRole struct {
	Company  string `json:"company" mapstructure:"company"`
	Role     string `json:"role" mapstructure:"role"`
	Duration string `json:"duration" mapstructure:"duration"`
}

// CandidateProfile is the structured view of a parsed resume. It is built by
// an external parsing step and treated as immutable once the session owns it.
type CandidateProfile struct {
	Name            string     `json:"name" validate:"required"`
	Skills          []string   `json:"skills"`
	ExperienceYears int        `json:"experience_years" validate:"gte=0"`
	Education       string     `json:"education"`
	PastRoles       []PastRole `json:"past_roles"`
	Summary         string     `json:"summary"`
}

// JobRequirements is the structured view of a parsed job description.
// Immutable once the session owns it.
type JobRequirements struct {
	Title              string   `json:"title" validate:"required"`
	Company            string   `json:"company"`
	RequiredSkills     []string `json:"required_skills"`
	PreferredSkills    []string `json:"preferred_skills"`
	Responsibilities   []string `json:"responsibilities"`
	ExperienceRequired int      `json:"experience_required" validate:"gte=0"`
}

// Depth controls how probing a question should be for the current topic.
type Depth string

const (
	// DepthSurface targets introductory, conceptual questions.
	DepthSurface Depth = "surface"
	// DepthDeep targets implementation details, trade-offs and edge cases.
	DepthDeep Depth = "deep"
)

// Topic is one named area the interview explores. Name is unique within a
// session. QuestionsAsked and Covered are mutated exclusively by the
// orchestrator; Covered flips false→true exactly once, at the moment the
// session transitions away from the topic.
type Topic struct {
	Name           string `json:"name" validate:"required"`
	Priority       int    `json:"priority" validate:"gte=1,lte=5"`
	Depth          Depth  `json:"depth"`
	QuestionsAsked int    `json:"questions_asked"`
	Covered        bool   `json:"covered"`
}

// NewTopic creates a surface-depth topic with the given priority.
func NewTopic(name string, priority int) Topic {
	return Topic{Name: name, Priority: priority, Depth: DepthSurface}
}
