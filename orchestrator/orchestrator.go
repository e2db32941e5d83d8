// Package orchestrator owns the interview session state machine. It
// sequences the question, evaluation and topic-transition agents for every
// candidate answer, mutates the session accordingly and assembles the final
// report. It is the only code that mutates an InterviewSession.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/interviewmesh/agent"
	"github.com/hupe1980/interviewmesh/core"
	"github.com/hupe1980/interviewmesh/logging"
	"github.com/hupe1980/interviewmesh/metrics"
	"github.com/hupe1980/interviewmesh/reasoning"
)

// Recommendation tiers derived from the overall score.
const (
	RecommendationStrongHire = "Strong Hire"
	RecommendationHire       = "Hire"
	RecommendationMaybe      = "Maybe"
	RecommendationNoHire     = "No Hire"
)

// historyWindow is how many trailing messages feed question generation
// (three Q/A exchanges).
const historyWindow = 6

// LoopConfig bounds topic coverage for one answer-processing cycle.
type LoopConfig struct {
	MinQuestionsPerTopic int
	MaxQuestionsPerTopic int
}

// DefaultLoopConfig mirrors the interview defaults: 2–4 questions per topic.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{MinQuestionsPerTopic: 2, MaxQuestionsPerTopic: 4}
}

// Turn is the outcome of processing one candidate answer.
type Turn struct {
	Evaluation          core.ResponseEvaluation
	EvaluationDegraded  bool
	Transitioned        bool
	TransitionReasoning string
	// NextQuestion is nil once the interview is complete.
	NextQuestion      *agent.QuestionPayload
	QuestionDegraded  bool
	InterviewComplete bool
}

// Options configure an Orchestrator.
type Options struct {
	Logger    logging.Logger
	Collector *metrics.Collector
	// NewID overrides session id generation, for tests.
	NewID func() string
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Orchestrator drives interview sessions: creation, first question, the
// evaluate/transition/ask cycle and final report generation. One
// orchestrator serves many sessions; per-session processing is strictly
// sequential and all mutable state lives on the session itself.
type Orchestrator struct {
	caller    agent.Caller
	question  *agent.QuestionAgent
	evaluator *agent.EvaluationAgent
	topics    *agent.TopicAgent
	logger    logging.Logger
	collector *metrics.Collector
	newID     func() string
	now       func() time.Time
}

// New creates an orchestrator with its three sub-agents wired to the caller.
func New(caller agent.Caller, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Logger: logging.NewNoOpLogger(),
		NewID:  uuid.NewString,
		Clock:  time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Collector == nil {
		opts.Collector = metrics.NewCollector(nil)
	}
	return &Orchestrator{
		caller:    caller,
		question:  agent.NewQuestionAgent(caller, opts.Logger),
		evaluator: agent.NewEvaluationAgent(caller, opts.Logger),
		topics:    agent.NewTopicAgent(caller, opts.Logger),
		logger:    opts.Logger,
		collector: opts.Collector,
		newID:     opts.NewID,
		now:       opts.Clock,
	}
}

// CreateSession builds a fresh active session positioned on the first topic.
func (o *Orchestrator) CreateSession(candidate core.CandidateProfile, requirements core.JobRequirements, topics []core.Topic) *core.InterviewSession {
	currentTopic := "General"
	if len(topics) > 0 {
		currentTopic = topics[0].Name
	}
	session := &core.InterviewSession{
		ID:           o.newID(),
		Candidate:    candidate,
		Requirements: requirements,
		Topics:       append([]core.Topic(nil), topics...),
		CurrentTopic: currentTopic,
		Status:       core.StatusActive,
		StartTime:    o.now(),
	}
	o.logger.Info("created interview session",
		"session_id", session.ID, "candidate", candidate.Name, "topics", len(topics))
	return session
}

// FirstQuestion generates the opening question and appends it to the
// conversation. The result is degraded (never an error) when the reasoning
// backend is unavailable.
func (o *Orchestrator) FirstQuestion(ctx context.Context, session *core.InterviewSession) agent.Result[agent.QuestionPayload] {
	o.logger.Info("generating first interview question", "session_id", session.ID)

	result := o.question.NextQuestion(ctx, agent.QuestionInput{
		Candidate:    session.Candidate,
		Requirements: session.Requirements,
		Topic:        session.CurrentTopic,
		Depth:        core.DepthSurface,
	})
	session.AddMessage(core.RoleInterviewer, result.Value.Question, session.CurrentTopic, map[string]any{
		core.MetadataExpectedElements: result.Value.ExpectedElements,
	})
	o.collector.Record("interview.question_asked", 1, "count",
		map[string]string{"topic": session.CurrentTopic})
	return result
}

// ProcessResponse runs the fixed per-answer sequence: record the answer,
// evaluate it against the last asked question, decide topic flow, then (if
// topics remain) ask the next question. Completion is re-evaluated after
// every answer; the transition advance is the only way the topic index grows.
func (o *Orchestrator) ProcessResponse(ctx context.Context, session *core.InterviewSession, answer string, cfg LoopConfig) (*Turn, error) {
	o.logger.Info("processing response", "session_id", session.ID, "topic", session.CurrentTopic)

	session.AddMessage(core.RoleCandidate, answer, session.CurrentTopic, nil)

	lastQuestion, ok := session.LastInterviewerMessage()
	if !ok {
		return nil, fmt.Errorf("session %s: no question has been asked yet", session.ID)
	}
	currentTopic := session.CurrentTopicObject()
	if currentTopic == nil {
		return nil, fmt.Errorf("session %s: current topic %q not in topic list", session.ID, session.CurrentTopic)
	}

	evalResult := o.evaluator.Evaluate(ctx, agent.EvaluationInput{
		Question:         lastQuestion.Content,
		Response:         answer,
		Topic:            session.CurrentTopic,
		ExpectedElements: lastQuestion.ExpectedElements(),
		Candidate:        session.Candidate,
	})
	session.AddEvaluation(evalResult.Value)
	o.collector.Record("interview.answer_score", evalResult.Value.OverallScore, "score",
		map[string]string{"topic": session.CurrentTopic})

	currentTopic.QuestionsAsked++

	decision := o.topics.Decide(ctx, agent.TransitionInput{
		CurrentTopic:         *currentTopic,
		AllTopics:            session.Topics,
		RecentScores:         session.TopicScores(session.CurrentTopic),
		QuestionsInTopic:     currentTopic.QuestionsAsked,
		TotalQuestions:       session.QuestionsAsked,
		MinQuestionsPerTopic: cfg.MinQuestionsPerTopic,
		MaxQuestionsPerTopic: cfg.MaxQuestionsPerTopic,
		Candidate:            session.Candidate,
		Requirements:         session.Requirements,
	})

	turn := &Turn{
		Evaluation:          evalResult.Value,
		EvaluationDegraded:  evalResult.Degraded,
		TransitionReasoning: decision.Value.Reasoning,
	}

	if decision.Value.ShouldTransition {
		// Covered flips exactly once, at the moment the session leaves the topic.
		currentTopic.Covered = true
		session.CurrentTopicIndex++
		turn.Transitioned = true

		if decision.Value.NextTopic != "" {
			session.CurrentTopic = decision.Value.NextTopic
			if next := session.CurrentTopicObject(); next != nil {
				next.Depth = decision.Value.NextDepth
			}
			o.logger.Info("transitioning to topic",
				"session_id", session.ID, "topic", session.CurrentTopic, "reason", decision.Value.Reasoning)
		}
	} else if decision.Value.NextDepth == core.DepthDeep && currentTopic.Depth == core.DepthSurface {
		currentTopic.Depth = core.DepthDeep
		o.logger.Info("escalating topic depth",
			"session_id", session.ID, "topic", session.CurrentTopic)
	}

	if !session.Complete() {
		topicDepth := core.DepthSurface
		if t := session.CurrentTopicObject(); t != nil {
			topicDepth = t.Depth
		}
		lastEval := evalResult.Value
		questionResult := o.question.NextQuestion(ctx, agent.QuestionInput{
			Candidate:      session.Candidate,
			Requirements:   session.Requirements,
			Topic:          session.CurrentTopic,
			Depth:          topicDepth,
			History:        session.RecentHistory(historyWindow),
			LastEvaluation: &lastEval,
		})
		session.AddMessage(core.RoleInterviewer, questionResult.Value.Question, session.CurrentTopic, map[string]any{
			core.MetadataExpectedElements: questionResult.Value.ExpectedElements,
		})
		o.collector.Record("interview.question_asked", 1, "count",
			map[string]string{"topic": session.CurrentTopic})
		payload := questionResult.Value
		turn.NextQuestion = &payload
		turn.QuestionDegraded = questionResult.Degraded
	}

	turn.InterviewComplete = session.Complete()
	return turn, nil
}

// GenerateFinalReport completes the session and builds its report: per-topic
// summaries over covered topics, the overall mean over every evaluation in
// the session (including any recorded for a topic never marked covered on
// early termination), a recommendation tier and a narrative note with a
// deterministic fallback.
func (o *Orchestrator) GenerateFinalReport(ctx context.Context, session *core.InterviewSession) *core.FinalReport {
	o.logger.Info("generating final report", "session_id", session.ID)

	endTime := o.now()
	session.Status = core.StatusCompleted
	session.EndTime = &endTime

	var summaries []core.TopicSummary
	for _, topic := range session.Topics {
		if !topic.Covered {
			continue
		}
		var evals []core.ResponseEvaluation
		for _, ev := range session.Evaluations {
			if ev.Topic == topic.Name {
				evals = append(evals, ev)
			}
		}
		if len(evals) == 0 {
			continue
		}
		var strengths, gaps []string
		for _, ev := range evals {
			strengths = append(strengths, ev.Strengths...)
			gaps = append(gaps, ev.Gaps...)
		}
		summaries = append(summaries, core.TopicSummary{
			Topic:          topic.Name,
			QuestionsCount: len(evals),
			AverageScore:   session.TopicAverageScore(topic.Name),
			Strengths:      truncate(strengths, 3),
			Improvements:   truncate(gaps, 2),
		})
	}

	overall := session.AverageScore()

	var recommendation string
	switch {
	case overall >= 4.0:
		recommendation = RecommendationStrongHire
	case overall >= 3.5:
		recommendation = RecommendationHire
	case overall >= 3.0:
		recommendation = RecommendationMaybe
	default:
		recommendation = RecommendationNoHire
	}

	var allStrengths, allGaps []string
	for _, ev := range session.Evaluations {
		allStrengths = append(allStrengths, ev.Strengths...)
		allGaps = append(allGaps, ev.Gaps...)
	}

	covered := make([]string, len(summaries))
	for i, s := range summaries {
		covered[i] = s.Topic
	}

	report := &core.FinalReport{
		SessionID:       session.ID,
		CandidateName:   session.Candidate.Name,
		JobTitle:        session.Requirements.Title,
		InterviewDate:   session.StartTime,
		DurationMinutes: endTime.Sub(session.StartTime).Minutes(),
		TotalQuestions:  session.QuestionsAsked,
		TopicsCovered:   covered,
		OverallScore:    overall,
		TopicSummaries:  summaries,
		Strengths:       truncate(dedupe(allStrengths), 5),
		Improvements:    truncate(dedupe(allGaps), 5),
		Recommendation:  recommendation,
		Notes:           o.narrative(ctx, session, summaries, overall, allStrengths, allGaps),
	}

	session.Report = report
	return report
}

// narrative asks the reasoning backend for a short performance summary,
// degrading to a deterministic sentence when the call fails.
func (o *Orchestrator) narrative(ctx context.Context, session *core.InterviewSession, summaries []core.TopicSummary, overall float64, strengths, gaps []string) string {
	covered := make([]string, len(summaries))
	for i, s := range summaries {
		covered[i] = s.Topic
	}

	prompt := fmt.Sprintf(`Generate a brief final interview summary.

Candidate: %s
Position: %s
Topics Covered: %s
Overall Score: %.1f/5.0
Total Questions: %d

Key Strengths Demonstrated:
%s

Areas for Improvement:
%s

Provide 2-3 sentences summarizing the candidate's performance and readiness for the role.
`,
		session.Candidate.Name, session.Requirements.Title,
		strings.Join(covered, ", "), overall, session.QuestionsAsked,
		bulletList(truncate(strengths, 5)), bulletList(truncate(gaps, 5)))

	notes, err := o.caller.GenerateText(ctx, reasoning.TextRequest{
		Prompt:        prompt,
		SystemMessage: "You are an expert interviewer providing final feedback.",
	})
	if err != nil {
		o.logger.Warn("narrative summary failed, using fallback", "session_id", session.ID, "error", err)
		return fmt.Sprintf("Candidate demonstrated %.1f/5.0 performance across %d topics.", overall, len(summaries))
	}
	return notes
}

func bulletList(items []string) string {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString("- ")
		sb.WriteString(item)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// dedupe removes duplicates preserving first-seen order.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func truncate(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
