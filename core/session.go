package core

import (
	"errors"
	"time"
)

// Status is the lifecycle state of an interview session.
type Status string

const (
	// StatusActive is the only state the core loop drives.
	StatusActive Status = "active"
	// StatusPaused is reserved for embedding layers (API servers etc.);
	// no core operation enters or leaves it.
	StatusPaused Status = "paused"
	// StatusCompleted is terminal; set when the report is generated.
	StatusCompleted Status = "completed"
)

// ErrSessionNotFound is returned by SessionStore implementations when no
// session exists under the requested id. Session lookup failures are hard
// errors; the core never retries or degrades them.
var ErrSessionNotFound = errors.New("session not found")

// InterviewSession is the aggregate root holding the complete mutable state
// of one interview, from creation to final report.
//
// Contract:
//   - Mutated exclusively by the orchestrator while processing answers.
//   - ConversationHistory and Evaluations are append-only.
//   - QuestionsAsked counts interviewer messages only.
//   - CurrentTopicIndex is monotonically non-decreasing; growth past the
//     last topic is what completes the interview.
//   - The full state is a pure function of the Snapshot tuple, enabling
//     snapshot/restore without re-deriving anything from the conversation.
type InterviewSession struct {
	ID           string           `json:"session_id"`
	Candidate    CandidateProfile `json:"candidate_profile"`
	Requirements JobRequirements  `json:"job_requirements"`
	Topics       []Topic          `json:"topics"`

	CurrentTopic      string     `json:"current_topic"`
	CurrentTopicIndex int        `json:"current_topic_index"`
	Status            Status     `json:"status"`
	StartTime         time.Time  `json:"start_time"`
	EndTime           *time.Time `json:"end_time,omitempty"`

	ConversationHistory []Message            `json:"conversation_history"`
	Evaluations         []ResponseEvaluation `json:"evaluations"`
	Report              *FinalReport         `json:"final_report,omitempty"`

	QuestionsAsked int `json:"questions_asked"`
}

// AddMessage appends a message to the conversation log, bumping the question
// counter for interviewer messages.
func (s *InterviewSession) AddMessage(role Role, content, topic string, metadata map[string]any) {
	s.ConversationHistory = append(s.ConversationHistory, Message{
		Role:      role,
		Content:   content,
		Topic:     topic,
		Timestamp: time.Now(),
		Metadata:  metadata,
	})
	if role == RoleInterviewer {
		s.QuestionsAsked++
	}
}

// AddEvaluation appends an evaluation to the session.
func (s *InterviewSession) AddEvaluation(ev ResponseEvaluation) {
	s.Evaluations = append(s.Evaluations, ev)
}

// CurrentTopicObject returns a pointer to the topic matching CurrentTopic,
// or nil when the name matches no topic (e.g. after the index ran past the
// end of the list).
func (s *InterviewSession) CurrentTopicObject() *Topic {
	for i := range s.Topics {
		if s.Topics[i].Name == s.CurrentTopic {
			return &s.Topics[i]
		}
	}
	return nil
}

// LastInterviewerMessage returns the most recent interviewer message, or
// false when none exists yet.
func (s *InterviewSession) LastInterviewerMessage() (Message, bool) {
	for i := len(s.ConversationHistory) - 1; i >= 0; i-- {
		if s.ConversationHistory[i].Role == RoleInterviewer {
			return s.ConversationHistory[i], true
		}
	}
	return Message{}, false
}

// RecentHistory returns up to n trailing messages from the conversation log.
func (s *InterviewSession) RecentHistory(n int) []Message {
	if n <= 0 || len(s.ConversationHistory) == 0 {
		return nil
	}
	if len(s.ConversationHistory) <= n {
		return s.ConversationHistory
	}
	return s.ConversationHistory[len(s.ConversationHistory)-n:]
}

// AverageScore is the mean overall score across every evaluation in the
// session, 0 when none exist.
func (s *InterviewSession) AverageScore() float64 {
	if len(s.Evaluations) == 0 {
		return 0
	}
	var sum float64
	for _, ev := range s.Evaluations {
		sum += ev.OverallScore
	}
	return sum / float64(len(s.Evaluations))
}

// TopicScores returns the overall scores of evaluations recorded for the
// named topic, in insertion order.
func (s *InterviewSession) TopicScores(topic string) []float64 {
	var scores []float64
	for _, ev := range s.Evaluations {
		if ev.Topic == topic {
			scores = append(scores, ev.OverallScore)
		}
	}
	return scores
}

// TopicAverageScore is the mean overall score for the named topic, 0 when
// the topic has no evaluations.
func (s *InterviewSession) TopicAverageScore(topic string) float64 {
	scores := s.TopicScores(topic)
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, sc := range scores {
		sum += sc
	}
	return sum / float64(len(scores))
}

// Complete returns whether the topic index has run past the topic list.
func (s *InterviewSession) Complete() bool {
	return s.CurrentTopicIndex >= len(s.Topics)
}

// Clone returns a deep copy safe for independent mutation. Profiles and
// requirements are value-copied; slices and message metadata are duplicated.
func (s *InterviewSession) Clone() *InterviewSession {
	clone := *s
	clone.Topics = append([]Topic(nil), s.Topics...)
	clone.Evaluations = append([]ResponseEvaluation(nil), s.Evaluations...)
	clone.ConversationHistory = make([]Message, len(s.ConversationHistory))
	for i, m := range s.ConversationHistory {
		cm := m
		if m.Metadata != nil {
			cm.Metadata = make(map[string]any, len(m.Metadata))
			for k, v := range m.Metadata {
				cm.Metadata[k] = v
			}
		}
		clone.ConversationHistory[i] = cm
	}
	if s.EndTime != nil {
		t := *s.EndTime
		clone.EndTime = &t
	}
	if s.Report != nil {
		r := *s.Report
		clone.Report = &r
	}
	return &clone
}

// Snapshot is the persisted tuple an InterviewSession is a pure function of.
type Snapshot struct {
	ID                  string               `json:"session_id"`
	Candidate           CandidateProfile     `json:"candidate_profile"`
	Requirements        JobRequirements      `json:"job_requirements"`
	Topics              []Topic              `json:"topics"`
	CurrentTopic        string               `json:"current_topic"`
	CurrentTopicIndex   int                  `json:"current_topic_index"`
	Status              Status               `json:"status"`
	StartTime           time.Time            `json:"start_time"`
	EndTime             *time.Time           `json:"end_time,omitempty"`
	ConversationHistory []Message            `json:"conversation_history"`
	Evaluations         []ResponseEvaluation `json:"evaluations"`
	QuestionsAsked      int                  `json:"questions_asked"`
}

// Snapshot captures the session state for persistence.
func (s *InterviewSession) Snapshot() Snapshot {
	c := s.Clone()
	return Snapshot{
		ID:                  c.ID,
		Candidate:           c.Candidate,
		Requirements:        c.Requirements,
		Topics:              c.Topics,
		CurrentTopic:        c.CurrentTopic,
		CurrentTopicIndex:   c.CurrentTopicIndex,
		Status:              c.Status,
		StartTime:           c.StartTime,
		EndTime:             c.EndTime,
		ConversationHistory: c.ConversationHistory,
		Evaluations:         c.Evaluations,
		QuestionsAsked:      c.QuestionsAsked,
	}
}

// RestoreSession reconstructs a session from its persisted tuple. The result
// is identical to the snapshotted session except for any generated report,
// which is rebuilt on demand rather than persisted.
func RestoreSession(snap Snapshot) *InterviewSession {
	s := &InterviewSession{
		ID:                  snap.ID,
		Candidate:           snap.Candidate,
		Requirements:        snap.Requirements,
		Topics:              snap.Topics,
		CurrentTopic:        snap.CurrentTopic,
		CurrentTopicIndex:   snap.CurrentTopicIndex,
		Status:              snap.Status,
		StartTime:           snap.StartTime,
		EndTime:             snap.EndTime,
		ConversationHistory: snap.ConversationHistory,
		Evaluations:         snap.Evaluations,
		QuestionsAsked:      snap.QuestionsAsked,
	}
	return s.Clone()
}

// SessionStore persists interview sessions. The orchestrator is agnostic to
// storage; callers fetch a session, pass it through the core operations and
// put it back at natural checkpoints.
type SessionStore interface {
	// Get returns the session stored under id or ErrSessionNotFound.
	Get(id string) (*InterviewSession, error)
	// Put stores (or replaces) the session under its id.
	Put(session *InterviewSession) error
	// Remove deletes the session; removing an absent id is not an error.
	Remove(id string) error
}
