package core

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleInterviewer marks messages authored by the system.
	RoleInterviewer Role = "interviewer"
	// RoleCandidate marks messages authored by the candidate.
	RoleCandidate Role = "candidate"
)

// MetadataExpectedElements is the metadata key under which interviewer
// messages carry the expected answer elements for the asked question.
const MetadataExpectedElements = "expected_elements"

// Message is one entry in a session's append-only conversation log. Messages
// are never mutated after creation.
type Message struct {
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Topic     string         `json:"topic"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ExpectedElements returns the expected answer elements attached to an
// interviewer message, or nil when none were recorded.
func (m Message) ExpectedElements() []string {
	raw, ok := m.Metadata[MetadataExpectedElements]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
