package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/interviewmesh/agent"
	"github.com/hupe1980/interviewmesh/core"
	"github.com/hupe1980/interviewmesh/metrics"
	"github.com/hupe1980/interviewmesh/reasoning"
)

// scriptedCaller routes structured calls to canned payloads by inspecting the
// prompt, mirroring how the three agents phrase their requests.
type scriptedCaller struct {
	questionPayload  map[string]any
	questionErr      error
	evalPayload      map[string]any
	evalErr          error
	selectionPayload map[string]any
	selectionErr     error
	narrative        string
	narrativeErr     error

	questionCalls  int
	evalCalls      int
	selectionCalls int
}

var _ agent.Caller = (*scriptedCaller)(nil)

func (c *scriptedCaller) GenerateText(_ context.Context, _ reasoning.TextRequest) (string, error) {
	return c.narrative, c.narrativeErr
}

func (c *scriptedCaller) GenerateStructured(_ context.Context, req reasoning.StructuredRequest) (map[string]any, error) {
	switch {
	case strings.Contains(req.Prompt, "Evaluate the following interview response"):
		c.evalCalls++
		return c.evalPayload, c.evalErr
	case strings.Contains(req.Prompt, "Select the best next topic"):
		c.selectionCalls++
		return c.selectionPayload, c.selectionErr
	default:
		c.questionCalls++
		return c.questionPayload, c.questionErr
	}
}

func happyCaller() *scriptedCaller {
	return &scriptedCaller{
		questionPayload: map[string]any{
			"question":          "How would you design a worker pool with bounded concurrency?",
			"reasoning":         "Tests practical concurrency design",
			"expected_elements": []any{"Channel usage", "Graceful shutdown"},
		},
		evalPayload: map[string]any{
			"technical_accuracy": 4.0,
			"depth":              4.0,
			"clarity":            4.0,
			"relevance":          4.0,
			"strengths":          []any{"clear structure"},
			"gaps":               []any{"no failure handling"},
			"feedback":           "Strong answer.",
		},
		narrative: "The candidate performed well across all topics.",
	}
}

func testCandidate() core.CandidateProfile {
	return core.CandidateProfile{Name: "Jordan Doe", ExperienceYears: 5, Skills: []string{"Go"}}
}

func testRequirements() core.JobRequirements {
	return core.JobRequirements{Title: "Backend Engineer", Company: "Acme"}
}

func TestCreateSession(t *testing.T) {
	o := New(happyCaller(), func(opts *Options) {
		opts.NewID = func() string { return "fixed-id" }
	})

	sess := o.CreateSession(testCandidate(), testRequirements(), []core.Topic{
		core.NewTopic("Go Concurrency", 5),
		core.NewTopic("Databases", 3),
	})

	assert.Equal(t, "fixed-id", sess.ID)
	assert.Equal(t, core.StatusActive, sess.Status)
	assert.Equal(t, "Go Concurrency", sess.CurrentTopic)
	assert.Zero(t, sess.CurrentTopicIndex)
	assert.False(t, sess.StartTime.IsZero())

	empty := o.CreateSession(testCandidate(), testRequirements(), nil)
	assert.Equal(t, "General", empty.CurrentTopic)
}

func TestFirstQuestionAppendsInterviewerMessage(t *testing.T) {
	o := New(happyCaller())
	sess := o.CreateSession(testCandidate(), testRequirements(), []core.Topic{core.NewTopic("Go Concurrency", 5)})

	result := o.FirstQuestion(context.Background(), sess)

	require.False(t, result.Degraded)
	assert.Equal(t, 1, sess.QuestionsAsked)
	msg, ok := sess.LastInterviewerMessage()
	require.True(t, ok)
	assert.Equal(t, result.Value.Question, msg.Content)
	assert.Equal(t, []string{"Channel usage", "Graceful shutdown"}, msg.ExpectedElements())
}

func TestFirstQuestionDegradesToFallback(t *testing.T) {
	caller := happyCaller()
	caller.questionErr = &reasoning.UpstreamError{Kind: reasoning.KindTimeout, Message: "deadline", Attempts: 3}
	o := New(caller)
	sess := o.CreateSession(testCandidate(), testRequirements(), []core.Topic{core.NewTopic("Go Concurrency", 5)})

	result := o.FirstQuestion(context.Background(), sess)

	// A failing backend still yields an askable question referencing the topic.
	require.True(t, result.Degraded)
	assert.Contains(t, result.Value.Question, "Go Concurrency")
	assert.Equal(t, 1, sess.QuestionsAsked)
}

func TestProcessResponseSingleTopicCompletes(t *testing.T) {
	collector := metrics.NewCollector(nil)
	o := New(happyCaller(), func(opts *Options) { opts.Collector = collector })
	sess := o.CreateSession(testCandidate(), testRequirements(), []core.Topic{core.NewTopic("Go Concurrency", 5)})
	o.FirstQuestion(context.Background(), sess)

	turn, err := o.ProcessResponse(context.Background(), sess, "I would use a buffered channel as a semaphore.",
		LoopConfig{MinQuestionsPerTopic: 1, MaxQuestionsPerTopic: 2})
	require.NoError(t, err)

	assert.True(t, turn.Transitioned)
	assert.True(t, turn.InterviewComplete)
	assert.Nil(t, turn.NextQuestion)
	assert.False(t, turn.EvaluationDegraded)
	assert.InDelta(t, 4.0, turn.Evaluation.OverallScore, 1e-9)

	assert.True(t, sess.Complete())
	assert.Equal(t, 1, sess.CurrentTopicIndex)
	assert.True(t, sess.Topics[0].Covered)
	assert.Len(t, sess.Evaluations, 1)

	// The answer score and the asked question land in the collector.
	summary, ok := collector.Summary("interview.answer_score")
	require.True(t, ok)
	assert.Equal(t, 1, summary.Count)
	questions, ok := collector.Summary("interview.question_asked")
	require.True(t, ok)
	assert.Equal(t, 1, questions.Count)
}

func TestProcessResponseTwoTopicFlow(t *testing.T) {
	o := New(happyCaller())
	sess := o.CreateSession(testCandidate(), testRequirements(), []core.Topic{
		core.NewTopic("Go Concurrency", 5),
		core.NewTopic("Databases", 3),
	})
	o.FirstQuestion(context.Background(), sess)
	cfg := LoopConfig{MinQuestionsPerTopic: 1, MaxQuestionsPerTopic: 4}

	turn1, err := o.ProcessResponse(context.Background(), sess, "First answer.", cfg)
	require.NoError(t, err)
	assert.True(t, turn1.Transitioned)
	assert.False(t, turn1.InterviewComplete)
	require.NotNil(t, turn1.NextQuestion)
	assert.Equal(t, "Databases", sess.CurrentTopic)
	assert.Equal(t, 1, sess.CurrentTopicIndex)
	assert.True(t, sess.Topics[0].Covered)
	assert.False(t, sess.Topics[1].Covered)

	turn2, err := o.ProcessResponse(context.Background(), sess, "Second answer.", cfg)
	require.NoError(t, err)
	assert.True(t, turn2.Transitioned)
	assert.True(t, turn2.InterviewComplete)
	assert.Nil(t, turn2.NextQuestion)
	assert.Equal(t, 2, sess.CurrentTopicIndex)
	assert.True(t, sess.Topics[1].Covered)
	assert.Len(t, sess.Evaluations, 2)
}

func TestProcessResponseStaysOnTopicBelowMinimum(t *testing.T) {
	o := New(happyCaller())
	sess := o.CreateSession(testCandidate(), testRequirements(), []core.Topic{core.NewTopic("Go Concurrency", 5)})
	o.FirstQuestion(context.Background(), sess)

	turn, err := o.ProcessResponse(context.Background(), sess, "An answer.",
		LoopConfig{MinQuestionsPerTopic: 2, MaxQuestionsPerTopic: 4})
	require.NoError(t, err)

	assert.False(t, turn.Transitioned)
	assert.False(t, turn.InterviewComplete)
	require.NotNil(t, turn.NextQuestion)
	assert.Zero(t, sess.CurrentTopicIndex)
	assert.False(t, sess.Topics[0].Covered)
	assert.Equal(t, 1, sess.Topics[0].QuestionsAsked)
	assert.Equal(t, 2, sess.QuestionsAsked)
}

func TestProcessResponseDegradedEvaluationContinues(t *testing.T) {
	caller := happyCaller()
	caller.evalErr = &reasoning.UpstreamError{Kind: reasoning.KindAPIError, Message: "down", Attempts: 3}
	o := New(caller)
	sess := o.CreateSession(testCandidate(), testRequirements(), []core.Topic{core.NewTopic("Go Concurrency", 5)})
	o.FirstQuestion(context.Background(), sess)

	turn, err := o.ProcessResponse(context.Background(), sess, "An answer.",
		LoopConfig{MinQuestionsPerTopic: 2, MaxQuestionsPerTopic: 4})
	require.NoError(t, err)

	// The neutral evaluation keeps the interview moving.
	assert.True(t, turn.EvaluationDegraded)
	assert.InDelta(t, 3.0, turn.Evaluation.OverallScore, 1e-9)
	assert.False(t, turn.InterviewComplete)
	require.NotNil(t, turn.NextQuestion)
	assert.Len(t, sess.Evaluations, 1)
}

func TestProcessResponseDepthEscalation(t *testing.T) {
	o := New(happyCaller())
	sess := o.CreateSession(testCandidate(), testRequirements(), []core.Topic{core.NewTopic("Go Concurrency", 5)})
	o.FirstQuestion(context.Background(), sess)
	cfg := LoopConfig{MinQuestionsPerTopic: 3, MaxQuestionsPerTopic: 5}

	_, err := o.ProcessResponse(context.Background(), sess, "Answer one.", cfg)
	require.NoError(t, err)
	assert.Equal(t, core.DepthSurface, sess.Topics[0].Depth)

	// Two strong answers under the minimum escalate the topic to deep.
	_, err = o.ProcessResponse(context.Background(), sess, "Answer two.", cfg)
	require.NoError(t, err)
	assert.Equal(t, core.DepthDeep, sess.Topics[0].Depth)
}

func TestProcessResponseRequiresAskedQuestion(t *testing.T) {
	o := New(happyCaller())
	sess := o.CreateSession(testCandidate(), testRequirements(), []core.Topic{core.NewTopic("Go Concurrency", 5)})

	_, err := o.ProcessResponse(context.Background(), sess, "Answer.", DefaultLoopConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no question has been asked")
}

func TestProcessResponseRequiresKnownCurrentTopic(t *testing.T) {
	o := New(happyCaller())
	sess := o.CreateSession(testCandidate(), testRequirements(), []core.Topic{core.NewTopic("Go Concurrency", 5)})
	o.FirstQuestion(context.Background(), sess)
	sess.CurrentTopic = "Unknown Topic"

	_, err := o.ProcessResponse(context.Background(), sess, "Answer.", DefaultLoopConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in topic list")
}

func TestStrongSingleTopicRunEndsAfterSecondAnswer(t *testing.T) {
	o := New(happyCaller())
	sess := o.CreateSession(testCandidate(), testRequirements(), []core.Topic{core.NewTopic("Python", 5)})
	o.FirstQuestion(context.Background(), sess)
	cfg := LoopConfig{MinQuestionsPerTopic: 2, MaxQuestionsPerTopic: 4}

	turn1, err := o.ProcessResponse(context.Background(), sess, "First strong answer.", cfg)
	require.NoError(t, err)
	assert.False(t, turn1.Transitioned)
	assert.False(t, turn1.InterviewComplete)

	turn2, err := o.ProcessResponse(context.Background(), sess, "Second strong answer.", cfg)
	require.NoError(t, err)
	assert.True(t, turn2.Transitioned)
	assert.Contains(t, turn2.TransitionReasoning, "performance")
	assert.True(t, turn2.InterviewComplete)
	assert.Nil(t, turn2.NextQuestion)
}

func TestWeakSingleTopicRunForcesTransitionAtMaximum(t *testing.T) {
	caller := happyCaller()
	caller.evalPayload = map[string]any{
		"technical_accuracy": 2.5, "depth": 2.5, "clarity": 2.5, "relevance": 2.5,
		"strengths": []any{"attempted"}, "gaps": []any{"shallow"}, "feedback": "Needs depth.",
	}
	o := New(caller)
	sess := o.CreateSession(testCandidate(), testRequirements(), []core.Topic{core.NewTopic("Python", 5)})
	o.FirstQuestion(context.Background(), sess)
	cfg := LoopConfig{MinQuestionsPerTopic: 2, MaxQuestionsPerTopic: 4}

	for i := 0; i < 3; i++ {
		turn, err := o.ProcessResponse(context.Background(), sess, "A weak answer.", cfg)
		require.NoError(t, err)
		assert.False(t, turn.Transitioned, "answer %d", i+1)
		require.NotNil(t, turn.NextQuestion)
	}

	// The fourth answer hits the per-topic maximum regardless of score.
	turn, err := o.ProcessResponse(context.Background(), sess, "A weak answer.", cfg)
	require.NoError(t, err)
	assert.True(t, turn.Transitioned)
	assert.Contains(t, turn.TransitionReasoning, "Maximum 4 questions")
	assert.True(t, turn.InterviewComplete)
}

func TestOverallScoreIsMeanOfAllEvaluations(t *testing.T) {
	o := New(happyCaller())
	sess := o.CreateSession(testCandidate(), testRequirements(), []core.Topic{
		core.NewTopic("Python", 5),
		core.NewTopic("Databases", 4),
		core.NewTopic("Systems", 3),
	})
	for i := range sess.Topics {
		sess.Topics[i].Covered = true
	}
	for _, score := range []float64{4, 4} {
		sess.AddEvaluation(core.ResponseEvaluation{Topic: "Python", OverallScore: score})
	}
	for _, score := range []float64{3, 3, 3} {
		sess.AddEvaluation(core.ResponseEvaluation{Topic: "Databases", OverallScore: score})
	}
	sess.AddEvaluation(core.ResponseEvaluation{Topic: "Systems", OverallScore: 5})

	report := o.GenerateFinalReport(context.Background(), sess)

	// Mean of all six raw scores (22/6), not the mean of the three topic
	// averages (4.0).
	assert.InDelta(t, 22.0/6.0, report.OverallScore, 1e-9)
	assert.Equal(t, RecommendationHire, report.Recommendation)
	assert.Len(t, report.TopicSummaries, 3)
}

func TestGenerateFinalReport(t *testing.T) {
	fixed := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	o := New(happyCaller(), func(opts *Options) {
		opts.Clock = func() time.Time { return fixed.Add(30 * time.Minute) }
	})
	sess := o.CreateSession(testCandidate(), testRequirements(), []core.Topic{
		core.NewTopic("Go Concurrency", 5),
		core.NewTopic("Databases", 3),
	})
	sess.StartTime = fixed
	o.FirstQuestion(context.Background(), sess)
	cfg := LoopConfig{MinQuestionsPerTopic: 1, MaxQuestionsPerTopic: 4}
	_, err := o.ProcessResponse(context.Background(), sess, "First answer.", cfg)
	require.NoError(t, err)
	_, err = o.ProcessResponse(context.Background(), sess, "Second answer.", cfg)
	require.NoError(t, err)

	report := o.GenerateFinalReport(context.Background(), sess)

	assert.Equal(t, core.StatusCompleted, sess.Status)
	require.NotNil(t, sess.EndTime)
	assert.Equal(t, sess.ID, report.SessionID)
	assert.Equal(t, "Jordan Doe", report.CandidateName)
	assert.Equal(t, "Backend Engineer", report.JobTitle)
	assert.InDelta(t, 30.0, report.DurationMinutes, 1e-9)
	assert.Equal(t, []string{"Go Concurrency", "Databases"}, report.TopicsCovered)
	assert.InDelta(t, 4.0, report.OverallScore, 1e-9)
	assert.Equal(t, RecommendationStrongHire, report.Recommendation)
	assert.Len(t, report.TopicSummaries, 2)
	// Duplicate strengths collapse across evaluations.
	assert.Equal(t, []string{"clear structure"}, report.Strengths)
	assert.Equal(t, "The candidate performed well across all topics.", report.Notes)
	assert.Same(t, report, sess.Report)
}

func TestGenerateFinalReportNarrativeFallback(t *testing.T) {
	caller := happyCaller()
	caller.narrativeErr = &reasoning.UpstreamError{Kind: reasoning.KindTimeout, Message: "deadline", Attempts: 3}
	o := New(caller)
	sess := o.CreateSession(testCandidate(), testRequirements(), []core.Topic{core.NewTopic("Go Concurrency", 5)})
	o.FirstQuestion(context.Background(), sess)
	_, err := o.ProcessResponse(context.Background(), sess, "Answer.",
		LoopConfig{MinQuestionsPerTopic: 1, MaxQuestionsPerTopic: 2})
	require.NoError(t, err)

	report := o.GenerateFinalReport(context.Background(), sess)

	assert.Contains(t, report.Notes, "4.0/5.0")
	assert.Contains(t, report.Notes, "1 topics")
}

func TestGenerateFinalReportSkipsUncoveredTopicsInSummaries(t *testing.T) {
	o := New(happyCaller())
	sess := o.CreateSession(testCandidate(), testRequirements(), []core.Topic{
		core.NewTopic("Go Concurrency", 5),
		core.NewTopic("Databases", 3),
	})
	sess.Topics[0].Covered = true
	sess.AddEvaluation(core.ResponseEvaluation{Topic: "Go Concurrency", OverallScore: 4.0})
	// Early termination: an evaluation exists for a topic never marked covered.
	sess.AddEvaluation(core.ResponseEvaluation{Topic: "Databases", OverallScore: 2.0})

	report := o.GenerateFinalReport(context.Background(), sess)

	require.Len(t, report.TopicSummaries, 1)
	assert.Equal(t, "Go Concurrency", report.TopicSummaries[0].Topic)
	// The stray evaluation still counts toward the overall mean.
	assert.InDelta(t, 3.0, report.OverallScore, 1e-9)
}

func TestRecommendationThresholds(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{4.5, RecommendationStrongHire},
		{4.0, RecommendationStrongHire},
		{3.7, RecommendationHire},
		{3.5, RecommendationHire},
		{3.2, RecommendationMaybe},
		{3.0, RecommendationMaybe},
		{2.9, RecommendationNoHire},
	}
	for _, tt := range tests {
		o := New(happyCaller())
		sess := o.CreateSession(testCandidate(), testRequirements(), []core.Topic{core.NewTopic("Go Concurrency", 5)})
		sess.AddEvaluation(core.ResponseEvaluation{Topic: "Go Concurrency", OverallScore: tt.score})

		report := o.GenerateFinalReport(context.Background(), sess)
		assert.Equal(t, tt.want, report.Recommendation, "score %.1f", tt.score)
	}
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, dedupe([]string{"a", "b", "a", "c", "b"}))
	assert.Nil(t, dedupe(nil))
}
