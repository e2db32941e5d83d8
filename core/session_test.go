package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession() *InterviewSession {
	return &InterviewSession{
		ID:        "sess-1",
		Candidate: CandidateProfile{Name: "Jordan Doe", ExperienceYears: 5},
		Requirements: JobRequirements{
			Title:   "Backend Engineer",
			Company: "Acme",
		},
		Topics: []Topic{
			NewTopic("Go Concurrency", 5),
			NewTopic("Distributed Systems", 3),
		},
		CurrentTopic: "Go Concurrency",
		Status:       StatusActive,
		StartTime:    time.Now(),
	}
}

func TestAddMessageCountsOnlyInterviewerQuestions(t *testing.T) {
	s := newTestSession()

	s.AddMessage(RoleInterviewer, "What is a goroutine?", "Go Concurrency", nil)
	s.AddMessage(RoleCandidate, "A lightweight thread.", "Go Concurrency", nil)
	s.AddMessage(RoleInterviewer, "How do channels work?", "Go Concurrency", nil)

	assert.Equal(t, 2, s.QuestionsAsked)
	assert.Len(t, s.ConversationHistory, 3)
}

func TestLastInterviewerMessage(t *testing.T) {
	s := newTestSession()

	_, ok := s.LastInterviewerMessage()
	assert.False(t, ok)

	s.AddMessage(RoleInterviewer, "Q1", "Go Concurrency", nil)
	s.AddMessage(RoleCandidate, "A1", "Go Concurrency", nil)
	s.AddMessage(RoleInterviewer, "Q2", "Go Concurrency", nil)
	s.AddMessage(RoleCandidate, "A2", "Go Concurrency", nil)

	msg, ok := s.LastInterviewerMessage()
	require.True(t, ok)
	assert.Equal(t, "Q2", msg.Content)
}

func TestRecentHistoryWindow(t *testing.T) {
	s := newTestSession()
	for i := 0; i < 10; i++ {
		s.AddMessage(RoleCandidate, "msg", "Go Concurrency", nil)
	}

	assert.Len(t, s.RecentHistory(4), 4)
	assert.Len(t, s.RecentHistory(100), 10)
	assert.Nil(t, s.RecentHistory(0))
}

func TestCurrentTopicObject(t *testing.T) {
	s := newTestSession()

	topic := s.CurrentTopicObject()
	require.NotNil(t, topic)
	assert.Equal(t, "Go Concurrency", topic.Name)

	// Returned pointer mutates the session's topic, not a copy.
	topic.QuestionsAsked = 3
	assert.Equal(t, 3, s.Topics[0].QuestionsAsked)

	s.CurrentTopic = "Unknown"
	assert.Nil(t, s.CurrentTopicObject())
}

func TestScoreAggregation(t *testing.T) {
	s := newTestSession()
	assert.Zero(t, s.AverageScore())

	s.AddEvaluation(ResponseEvaluation{Topic: "Go Concurrency", OverallScore: 4.0})
	s.AddEvaluation(ResponseEvaluation{Topic: "Go Concurrency", OverallScore: 2.0})
	s.AddEvaluation(ResponseEvaluation{Topic: "Distributed Systems", OverallScore: 5.0})

	assert.InDelta(t, 11.0/3.0, s.AverageScore(), 1e-9)
	assert.Equal(t, []float64{4.0, 2.0}, s.TopicScores("Go Concurrency"))
	assert.InDelta(t, 3.0, s.TopicAverageScore("Go Concurrency"), 1e-9)
	assert.Zero(t, s.TopicAverageScore("Unknown"))
}

func TestCompleteRequiresIndexPastTopics(t *testing.T) {
	s := newTestSession()
	assert.False(t, s.Complete())

	s.CurrentTopicIndex = 1
	assert.False(t, s.Complete())

	s.CurrentTopicIndex = 2
	assert.True(t, s.Complete())
}

func TestCloneIsIndependent(t *testing.T) {
	s := newTestSession()
	s.AddMessage(RoleInterviewer, "Q1", "Go Concurrency", map[string]any{
		MetadataExpectedElements: []string{"a", "b"},
	})
	s.AddEvaluation(ResponseEvaluation{Topic: "Go Concurrency", OverallScore: 4.0})

	clone := s.Clone()
	clone.Topics[0].Covered = true
	clone.ConversationHistory[0].Metadata[MetadataExpectedElements] = []string{"x"}
	clone.AddEvaluation(ResponseEvaluation{OverallScore: 1.0})

	assert.False(t, s.Topics[0].Covered)
	assert.Equal(t, []string{"a", "b"}, s.ConversationHistory[0].ExpectedElements())
	assert.Len(t, s.Evaluations, 1)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := newTestSession()
	s.AddMessage(RoleInterviewer, "Q1", "Go Concurrency", map[string]any{
		MetadataExpectedElements: []string{"a"},
	})
	s.AddMessage(RoleCandidate, "A1", "Go Concurrency", nil)
	s.AddEvaluation(ResponseEvaluation{Topic: "Go Concurrency", OverallScore: 3.5})
	s.Topics[0].QuestionsAsked = 1
	s.CurrentTopicIndex = 1
	s.CurrentTopic = "Distributed Systems"

	restored := RestoreSession(s.Snapshot())

	assert.Equal(t, s.ID, restored.ID)
	assert.Equal(t, s.Topics, restored.Topics)
	assert.Equal(t, s.CurrentTopic, restored.CurrentTopic)
	assert.Equal(t, s.CurrentTopicIndex, restored.CurrentTopicIndex)
	assert.Equal(t, s.QuestionsAsked, restored.QuestionsAsked)
	assert.Equal(t, s.ConversationHistory, restored.ConversationHistory)
	assert.Equal(t, s.Evaluations, restored.Evaluations)
	assert.Equal(t, s.AverageScore(), restored.AverageScore())

	// The restored session is detached from the snapshot source.
	restored.Topics[0].Covered = true
	assert.False(t, s.Topics[0].Covered)
}

func TestMessageExpectedElements(t *testing.T) {
	m := Message{Metadata: map[string]any{
		MetadataExpectedElements: []any{"one", "two", 3},
	}}
	assert.Equal(t, []string{"one", "two"}, m.ExpectedElements())

	m = Message{Metadata: map[string]any{MetadataExpectedElements: []string{"x"}}}
	assert.Equal(t, []string{"x"}, m.ExpectedElements())

	assert.Nil(t, Message{}.ExpectedElements())
}

func TestDimensionScoresMean(t *testing.T) {
	scores := DimensionScores{TechnicalAccuracy: 4, Depth: 3, Clarity: 5, Relevance: 2}
	assert.InDelta(t, 3.5, scores.Mean(), 1e-9)
	assert.Zero(t, DimensionScores{}.Mean())
}
