package core

import "time"

// DimensionScores holds the four 0–5 ratings an evaluation is built from.
type DimensionScores struct {
	TechnicalAccuracy float64 `json:"technical_accuracy"`
	Depth             float64 `json:"depth"`
	Clarity           float64 `json:"clarity"`
	Relevance         float64 `json:"relevance"`
}

// Mean returns the unweighted arithmetic mean of the four dimensions.
func (d DimensionScores) Mean() float64 {
	return (d.TechnicalAccuracy + d.Depth + d.Clarity + d.Relevance) / 4.0
}

// ResponseEvaluation is the scored assessment of one candidate answer.
// OverallScore is always the mean of the four dimension scores; it is
// derived, never requested from the reasoning backend independently.
// Evaluations are immutable once appended to a session.
type ResponseEvaluation struct {
	Question  string          `json:"question"`
	Response  string          `json:"response"`
	Topic     string          `json:"topic"`
	Timestamp time.Time       `json:"timestamp"`
	Scores    DimensionScores `json:"scores"`
	// OverallScore caches Scores.Mean() for serialization and reporting.
	OverallScore float64  `json:"overall_score"`
	Strengths    []string `json:"strengths"`
	Gaps         []string `json:"gaps"`
	Feedback     string   `json:"feedback"`
}

// TopicSummary aggregates performance within a single covered topic.
type TopicSummary struct {
	Topic          string   `json:"topic"`
	QuestionsCount int      `json:"questions_count"`
	AverageScore   float64  `json:"average_score"`
	Strengths      []string `json:"strengths"`
	Improvements   []string `json:"areas_for_improvement"`
}

// FinalReport is the read-only snapshot produced exactly once at session
// completion.
//
// OverallScore is the mean of every evaluation recorded in the session,
// including evaluations belonging to a topic that was never marked covered
// (possible when an interview is force-completed early). TopicSummaries only
// include covered topics, so those stray evaluations contribute to the
// overall mean but to no summary.
type FinalReport struct {
	SessionID       string         `json:"session_id"`
	CandidateName   string         `json:"candidate_name"`
	JobTitle        string         `json:"job_title"`
	InterviewDate   time.Time      `json:"interview_date"`
	DurationMinutes float64        `json:"duration_minutes"`
	TotalQuestions  int            `json:"total_questions"`
	TopicsCovered   []string       `json:"topics_covered"`
	OverallScore    float64        `json:"overall_score"`
	TopicSummaries  []TopicSummary `json:"topic_summaries"`
	Strengths       []string       `json:"overall_strengths"`
	Improvements    []string       `json:"areas_for_improvement"`
	Recommendation  string         `json:"recommendation"`
	Notes           string         `json:"additional_notes"`
}
