package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/interviewmesh/core"
	"github.com/hupe1980/interviewmesh/logging"
	"github.com/hupe1980/interviewmesh/reasoning"
)

// Average score at or above which a topic is considered handled well enough
// to transition (or to deepen when the minimum is not yet met).
const strongScoreThreshold = 3.5

// TransitionInput feeds one topic-transition decision.
type TransitionInput struct {
	CurrentTopic         core.Topic
	AllTopics            []core.Topic
	RecentScores         []float64 // overall scores for the current topic
	QuestionsInTopic     int
	TotalQuestions       int
	MinQuestionsPerTopic int
	MaxQuestionsPerTopic int
	Candidate            core.CandidateProfile
	Requirements         core.JobRequirements
}

// TransitionDecision is the agent's verdict. When ShouldTransition is true
// and NextTopic is empty, no uncovered topics remain and the interview is
// complete. NextDepth applies to the selected topic on transition, or to the
// current topic as a surface→deep escalation when staying.
type TransitionDecision struct {
	ShouldTransition bool
	NextTopic        string
	NextDepth        core.Depth
	Reasoning        string
}

// topicSelectionPayload is the structured response for next-topic selection.
type topicSelectionPayload struct {
	NextTopic string `mapstructure:"next_topic"`
	Depth     string `mapstructure:"depth"`
	Reasoning string `mapstructure:"reasoning"`
}

// TopicAgent decides whether to stay on the current topic (and at what
// depth) or transition to another. The decision is rule-based first and
// reasoning-assisted only for picking among multiple remaining topics.
// It never returns an error; any failure converts to a safe decision.
type TopicAgent struct {
	caller Caller
	logger logging.Logger
}

// NewTopicAgent creates a topic transition agent. A nil logger defaults to noop.
func NewTopicAgent(caller Caller, logger logging.Logger) *TopicAgent {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &TopicAgent{caller: caller, logger: logger}
}

// Decide applies the transition rules:
//  1. below the per-topic minimum: never transition
//  2. at the per-topic maximum: always transition
//  3. strong recent average (≥3.5): transition
//  4. otherwise stay, escalating surface→deep after 2+ strong answers
func (a *TopicAgent) Decide(ctx context.Context, in TransitionInput) Result[TransitionDecision] {
	avg := average(in.RecentScores)
	a.logger.Debug("evaluating topic transition",
		"topic", in.CurrentTopic.Name, "questions", in.QuestionsInTopic, "avg_score", avg)

	shouldTransition, reasoning := a.ruleDecision(in, avg)
	if !shouldTransition {
		depth := in.CurrentTopic.Depth
		// Depth only ever escalates within a topic, never regresses.
		if depth == core.DepthSurface && in.QuestionsInTopic >= 2 && len(in.RecentScores) > 0 && avg >= strongScoreThreshold {
			depth = core.DepthDeep
		}
		return OK(TransitionDecision{
			ShouldTransition: false,
			NextDepth:        depth,
			Reasoning:        reasoning,
		})
	}

	return a.selectNextTopic(ctx, in, reasoning)
}

func (a *TopicAgent) ruleDecision(in TransitionInput, avg float64) (bool, string) {
	if in.QuestionsInTopic < in.MinQuestionsPerTopic {
		return false, fmt.Sprintf("Need at least %d questions per topic", in.MinQuestionsPerTopic)
	}
	if in.QuestionsInTopic >= in.MaxQuestionsPerTopic {
		return true, fmt.Sprintf("Maximum %d questions per topic reached", in.MaxQuestionsPerTopic)
	}
	if len(in.RecentScores) > 0 && avg >= strongScoreThreshold {
		return true, fmt.Sprintf("Strong performance (avg %.1f/5.0), moving to next topic", avg)
	}
	return false, "Continuing current topic for deeper exploration"
}

// selectNextTopic picks among uncovered topics (excluding the one just
// finished): zero remaining signals completion and keeps the rule reasoning
// that triggered the transition, one is selected deterministically, several
// are put to the reasoning backend with a highest-priority fallback.
func (a *TopicAgent) selectNextTopic(ctx context.Context, in TransitionInput, ruleReason string) Result[TransitionDecision] {
	var uncovered []core.Topic
	for _, t := range in.AllTopics {
		if !t.Covered && t.Name != in.CurrentTopic.Name {
			uncovered = append(uncovered, t)
		}
	}

	switch len(uncovered) {
	case 0:
		return OK(TransitionDecision{
			ShouldTransition: true,
			NextDepth:        core.DepthSurface,
			Reasoning:        ruleReason,
		})
	case 1:
		return OK(TransitionDecision{
			ShouldTransition: true,
			NextTopic:        uncovered[0].Name,
			NextDepth:        core.DepthSurface,
			Reasoning:        "Last remaining topic",
		})
	}

	raw, err := a.caller.GenerateStructured(ctx, reasoning.StructuredRequest{
		Prompt:        buildSelectionPrompt(in.CurrentTopic, uncovered, in.Candidate, in.Requirements),
		SystemMessage: "You are an expert interviewer managing interview flow.",
		ResponseFormatHint: map[string]string{
			"next_topic": "string",
			"depth":      "string (surface or deep)",
			"reasoning":  "string",
		},
	})
	if err != nil {
		a.logger.Warn("topic selection failed, falling back to priority",
			"topic", in.CurrentTopic.Name, "error", err)
		return Degraded(priorityFallback(uncovered), err)
	}

	var payload topicSelectionPayload
	if err := decodePayload(raw, &payload); err != nil {
		a.logger.Warn("topic selection payload malformed, falling back to priority",
			"topic", in.CurrentTopic.Name, "error", err)
		return Degraded(priorityFallback(uncovered), err)
	}

	// The selection must name a topic from the remaining set.
	if !containsTopic(uncovered, payload.NextTopic) {
		err := fmt.Errorf("selected topic %q not in remaining set", payload.NextTopic)
		a.logger.Warn("topic selection rejected, falling back to priority",
			"topic", in.CurrentTopic.Name, "error", err)
		return Degraded(priorityFallback(uncovered), err)
	}

	depth := core.DepthSurface
	if core.Depth(payload.Depth) == core.DepthDeep {
		depth = core.DepthDeep
	}
	return OK(TransitionDecision{
		ShouldTransition: true,
		NextTopic:        payload.NextTopic,
		NextDepth:        depth,
		Reasoning:        payload.Reasoning,
	})
}

// priorityFallback selects the uncovered topic with the highest priority,
// ties broken by list order.
func priorityFallback(uncovered []core.Topic) TransitionDecision {
	best := uncovered[0]
	for _, t := range uncovered[1:] {
		if t.Priority > best.Priority {
			best = t
		}
	}
	return TransitionDecision{
		ShouldTransition: true,
		NextTopic:        best.Name,
		NextDepth:        core.DepthSurface,
		Reasoning:        "Selected highest priority remaining topic",
	}
}

func containsTopic(topics []core.Topic, name string) bool {
	for _, t := range topics {
		if t.Name == name {
			return true
		}
	}
	return false
}

func average(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

func buildSelectionPrompt(current core.Topic, uncovered []core.Topic, candidate core.CandidateProfile, job core.JobRequirements) string {
	var topicsList strings.Builder
	for _, t := range uncovered {
		fmt.Fprintf(&topicsList, "- %s (priority: %d)\n", t.Name, t.Priority)
	}

	return fmt.Sprintf(`You are managing the flow of a technical interview.

Current Topic: %s (now completed)
Candidate Experience: %d years
Target Role: %s

Remaining Topics:
%s
Select the best next topic to explore that:
1. Flows naturally from %s
2. Is critical for the %s role
3. Aligns with the candidate's background
4. Maintains interview engagement

Return JSON with:
- "next_topic": The name of the next topic (must match one from the list)
- "depth": "surface" (for introduction) or "deep" (for detailed exploration)
- "reasoning": Brief explanation (1 sentence)
`, current.Name, candidate.ExperienceYears, job.Title, topicsList.String(), current.Name, job.Title)
}
