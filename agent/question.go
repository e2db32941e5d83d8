package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/interviewmesh/core"
	"github.com/hupe1980/interviewmesh/logging"
	"github.com/hupe1980/interviewmesh/reasoning"
)

// Question length bounds accepted from the reasoning backend.
const (
	minQuestionLen = 10
	maxQuestionLen = 1000
)

// QuestionInput is the context a question is generated from.
type QuestionInput struct {
	Candidate      core.CandidateProfile
	Requirements   core.JobRequirements
	Topic          string
	Depth          core.Depth
	History        []core.Message // trailing window, last 2 Q/A pairs are used
	LastEvaluation *core.ResponseEvaluation
}

// QuestionPayload is the generated question plus the answer elements a
// strong response should cover. ExpectedElements travel with the interviewer
// message so the evaluator can calibrate against them later.
type QuestionPayload struct {
	Question         string   `mapstructure:"question"`
	Reasoning        string   `mapstructure:"reasoning"`
	ExpectedElements []string `mapstructure:"expected_elements"`
}

// QuestionAgent produces the next interview question for the current topic
// and depth. It never returns an error: any gateway failure or invalid
// payload degrades to a deterministic topic-referencing fallback question.
type QuestionAgent struct {
	caller Caller
	logger logging.Logger
}

// NewQuestionAgent creates a question agent. A nil logger defaults to noop.
func NewQuestionAgent(caller Caller, logger logging.Logger) *QuestionAgent {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &QuestionAgent{caller: caller, logger: logger}
}

// NextQuestion generates the next question for the given context.
func (a *QuestionAgent) NextQuestion(ctx context.Context, in QuestionInput) Result[QuestionPayload] {
	a.logger.Debug("generating question", "topic", in.Topic, "depth", in.Depth)

	raw, err := a.caller.GenerateStructured(ctx, reasoning.StructuredRequest{
		Prompt:        buildQuestionPrompt(in),
		SystemMessage: "You are an expert technical interviewer conducting a professional interview.",
		ResponseFormatHint: map[string]string{
			"question":          "string",
			"reasoning":         "string",
			"expected_elements": "array of strings",
		},
	})
	if err != nil {
		a.logger.Warn("question generation failed, using fallback", "topic", in.Topic, "error", err)
		return Degraded(fallbackQuestion(in.Topic), err)
	}

	var payload QuestionPayload
	if err := decodePayload(raw, &payload); err != nil {
		a.logger.Warn("question payload malformed, using fallback", "topic", in.Topic, "error", err)
		return Degraded(fallbackQuestion(in.Topic), err)
	}

	q := strings.TrimSpace(payload.Question)
	if len(q) <= minQuestionLen || len(q) > maxQuestionLen {
		err := fmt.Errorf("question length %d outside (%d, %d]", len(q), minQuestionLen, maxQuestionLen)
		a.logger.Warn("question rejected, using fallback", "topic", in.Topic, "error", err)
		return Degraded(fallbackQuestion(in.Topic), err)
	}
	payload.Question = q
	if len(payload.ExpectedElements) == 0 {
		payload.ExpectedElements = []string{"Relevant experience", "Concrete examples"}
	}

	return OK(payload)
}

// fallbackQuestion is the deterministic question used when the reasoning
// backend cannot produce one; the interview must always be able to continue.
func fallbackQuestion(topic string) QuestionPayload {
	if topic == "" {
		topic = "your general experience"
	}
	return QuestionPayload{
		Question:         fmt.Sprintf("Can you describe your experience with %s and how you've applied it in your previous roles?", topic),
		Reasoning:        "Fallback question due to reasoning service error",
		ExpectedElements: []string{"Past experience", "Specific examples", "Outcomes"},
	}
}

func buildQuestionPrompt(in QuestionInput) string {
	var recent []string
	history := in.History
	if len(history) > 4 { // last 2 Q/A pairs
		history = history[len(history)-4:]
	}
	for _, msg := range history {
		recent = append(recent, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}
	recentContext := "No previous questions"
	if len(recent) > 0 {
		recentContext = strings.Join(recent, "\n")
	}

	evalContext := ""
	if in.LastEvaluation != nil {
		evalContext = fmt.Sprintf(`
Previous Response Evaluation:
- Score: %.1f/5.0
- Strengths: %s
- Gaps: %s
`, in.LastEvaluation.OverallScore,
			strings.Join(in.LastEvaluation.Strengths, ", "),
			strings.Join(in.LastEvaluation.Gaps, ", "))
	}

	depthGuidance := "Explores fundamental concepts and use cases"
	if in.Depth == core.DepthDeep {
		depthGuidance = "Dives into implementation details, trade-offs, and edge cases"
	}

	responsibilities := in.Requirements.Responsibilities
	if len(responsibilities) > 3 {
		responsibilities = responsibilities[:3]
	}

	return fmt.Sprintf(`You are conducting a technical interview for the position of %s at %s.

Candidate Background:
- Name: %s
- Experience: %d years
- Skills: %s
- Education: %s

Job Requirements:
- Required Skills: %s
- Responsibilities: %s

Current Topic: %s
Topic Depth: %s (surface = introductory/conceptual, deep = implementation/architecture/edge cases)

Recent Conversation:
%s
%s
Generate the next interview question that:
1. Probes the candidate's understanding of %s at %s level
2. Builds naturally from the previous conversation
3. Tests practical application relevant to this role
4. Is appropriate for someone with %d years of experience
5. %s

Return your response as JSON with:
- "question": The interview question to ask
- "reasoning": Why this question is relevant (1 sentence)
- "expected_elements": List of 3-5 key points a strong answer should cover
`,
		in.Requirements.Title, in.Requirements.Company,
		in.Candidate.Name, in.Candidate.ExperienceYears,
		strings.Join(in.Candidate.Skills, ", "), in.Candidate.Education,
		strings.Join(in.Requirements.RequiredSkills, ", "),
		strings.Join(responsibilities, ", "),
		in.Topic, in.Depth,
		recentContext, evalContext,
		in.Topic, in.Depth,
		in.Candidate.ExperienceYears,
		depthGuidance,
	)
}
