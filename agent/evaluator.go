package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/interviewmesh/core"
	"github.com/hupe1980/interviewmesh/logging"
	"github.com/hupe1980/interviewmesh/reasoning"
)

// EvaluationInput carries everything needed to score one candidate answer.
type EvaluationInput struct {
	Question         string
	Response         string
	Topic            string
	ExpectedElements []string
	Candidate        core.CandidateProfile // experience level calibrates expectations
}

// evaluationPayload is the raw structured response. Strict decoding rejects
// non-numeric scores before clamping is ever attempted.
type evaluationPayload struct {
	TechnicalAccuracy float64  `mapstructure:"technical_accuracy"`
	Depth             float64  `mapstructure:"depth"`
	Clarity           float64  `mapstructure:"clarity"`
	Relevance         float64  `mapstructure:"relevance"`
	Strengths         []string `mapstructure:"strengths"`
	Gaps              []string `mapstructure:"gaps"`
	Feedback          string   `mapstructure:"feedback"`
}

// EvaluationAgent scores candidate answers on four dimensions. It never
// returns an error: any gateway or payload failure degrades to a neutral
// fixed evaluation so the session can always proceed. Availability is
// deliberately prioritized over evaluation fidelity here.
type EvaluationAgent struct {
	caller Caller
	logger logging.Logger
	now    func() time.Time
}

// NewEvaluationAgent creates an evaluation agent. A nil logger defaults to noop.
func NewEvaluationAgent(caller Caller, logger logging.Logger) *EvaluationAgent {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &EvaluationAgent{caller: caller, logger: logger, now: time.Now}
}

// Evaluate scores the answer in ctx of the asked question. The overall score
// is always the unweighted mean of the four dimension scores, each clamped
// to [0,5].
func (a *EvaluationAgent) Evaluate(ctx context.Context, in EvaluationInput) Result[core.ResponseEvaluation] {
	a.logger.Debug("evaluating response", "topic", in.Topic)

	raw, err := a.caller.GenerateStructured(ctx, reasoning.StructuredRequest{
		Prompt:        buildEvaluationPrompt(in),
		SystemMessage: "You are an expert technical interviewer providing constructive feedback.",
		ResponseFormatHint: map[string]string{
			"technical_accuracy": "float 0-5",
			"depth":              "float 0-5",
			"clarity":            "float 0-5",
			"relevance":          "float 0-5",
			"strengths":          "array of strings",
			"gaps":               "array of strings",
			"feedback":           "string",
		},
	})
	if err != nil {
		a.logger.Warn("evaluation failed, using neutral fallback", "topic", in.Topic, "error", err)
		return Degraded(a.fallbackEvaluation(in), err)
	}

	var payload evaluationPayload
	if err := decodePayload(raw, &payload); err != nil {
		a.logger.Warn("evaluation payload malformed, using neutral fallback", "topic", in.Topic, "error", err)
		return Degraded(a.fallbackEvaluation(in), err)
	}

	scores := core.DimensionScores{
		TechnicalAccuracy: clampScore(payload.TechnicalAccuracy),
		Depth:             clampScore(payload.Depth),
		Clarity:           clampScore(payload.Clarity),
		Relevance:         clampScore(payload.Relevance),
	}

	return OK(core.ResponseEvaluation{
		Question:     in.Question,
		Response:     in.Response,
		Topic:        in.Topic,
		Timestamp:    a.now(),
		Scores:       scores,
		OverallScore: scores.Mean(),
		Strengths:    payload.Strengths,
		Gaps:         payload.Gaps,
		Feedback:     payload.Feedback,
	})
}

// fallbackEvaluation is the fixed neutral evaluation used when scoring is
// impossible; one generic strength, one explicit gap, apologetic feedback.
func (a *EvaluationAgent) fallbackEvaluation(in EvaluationInput) core.ResponseEvaluation {
	scores := core.DimensionScores{TechnicalAccuracy: 3.0, Depth: 3.0, Clarity: 3.0, Relevance: 3.0}
	return core.ResponseEvaluation{
		Question:     in.Question,
		Response:     in.Response,
		Topic:        in.Topic,
		Timestamp:    a.now(),
		Scores:       scores,
		OverallScore: scores.Mean(),
		Strengths:    []string{"Response provided"},
		Gaps:         []string{"Unable to evaluate due to technical error"},
		Feedback:     "Thank you for your response. Due to a technical issue, we'll continue with the next question.",
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 5 {
		return 5
	}
	return v
}

func buildEvaluationPrompt(in EvaluationInput) string {
	var expected strings.Builder
	for _, elem := range in.ExpectedElements {
		expected.WriteString("- ")
		expected.WriteString(elem)
		expected.WriteString("\n")
	}

	return fmt.Sprintf(`Evaluate the following interview response:

Question: %s

Candidate's Response:
%s

Expected Key Points:
%s
Candidate Experience Level: %d years

Evaluate the response on these dimensions (0-5 scale):
1. **Technical Accuracy**: Correctness of information and concepts
2. **Depth of Understanding**: How deeply the candidate understands the topic
3. **Communication Clarity**: How clearly the candidate explains their thoughts
4. **Relevance**: How well the response addresses the question

Provide:
- Scores for each dimension (0.0 to 5.0)
- 2-3 specific strengths in the response
- 1-2 gaps or areas that could be improved
- Constructive feedback (2-3 sentences)

Return as JSON with fields: technical_accuracy, depth, clarity, relevance, strengths (array), gaps (array), feedback (string)
`, in.Question, in.Response, expected.String(), in.Candidate.ExperienceYears)
}
