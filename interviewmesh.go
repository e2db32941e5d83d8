// Package interviewmesh provides a high-level facade over the interview
// orchestration core: session creation, the question/evaluate/transition
// loop and final report generation, backed by a resilient reasoning gateway.
// Most applications interact with this package by:
//  1. Creating an InterviewMesh via New() (optionally overriding the
//     backend, session store, logger or configuration)
//  2. Creating a session from a candidate profile, job requirements and a
//     topic list
//  3. Feeding candidate answers through ProcessResponse until the interview
//     completes, then requesting the final report
//
// The facade persists the session to the configured store after every
// state-changing call; the orchestrator itself is storage-agnostic and
// operates on plain session values. All defaults are safe for local
// development and testing; production deployments typically supply a durable
// session store and a structured logger.
package interviewmesh

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/interviewmesh/agent"
	"github.com/hupe1980/interviewmesh/breaker"
	"github.com/hupe1980/interviewmesh/config"
	"github.com/hupe1980/interviewmesh/core"
	"github.com/hupe1980/interviewmesh/logging"
	"github.com/hupe1980/interviewmesh/metrics"
	"github.com/hupe1980/interviewmesh/orchestrator"
	"github.com/hupe1980/interviewmesh/reasoning"
	anthropicbackend "github.com/hupe1980/interviewmesh/reasoning/anthropic"
	openaibackend "github.com/hupe1980/interviewmesh/reasoning/openai"
	"github.com/hupe1980/interviewmesh/session"
	"github.com/hupe1980/interviewmesh/validate"
)

// Options configure the InterviewMesh instance.
type Options struct {
	// Backend overrides the reasoning backend; when nil one is built from
	// Config.Provider.
	Backend reasoning.Backend
	// SessionStore defaults to an in-memory store.
	SessionStore core.SessionStore
	// Logger defaults to a noop logger.
	Logger logging.Logger
	// Collector defaults to a fresh metrics collector.
	Collector *metrics.Collector
	// Config defaults to config.Default(); use config.Load() to pull
	// settings from the environment.
	Config *config.Config
}

// InterviewMesh aggregates the gateway, orchestrator and session store.
type InterviewMesh struct {
	gateway      *reasoning.Gateway
	orchestrator *orchestrator.Orchestrator
	store        core.SessionStore
	loopCfg      orchestrator.LoopConfig
	logger       logging.Logger
}

// Turn re-exports the orchestrator's per-answer outcome.
type Turn = orchestrator.Turn

// New creates an InterviewMesh with optional overrides. Any unset service
// falls back to a safe in-memory/noop default.
func New(optFns ...func(o *Options)) (*InterviewMesh, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNoOpLogger()
	}
	if opts.Collector == nil {
		opts.Collector = metrics.NewCollector(opts.Logger)
	}
	if opts.SessionStore == nil {
		opts.SessionStore = session.NewInMemoryStore()
	}
	if opts.Backend == nil {
		backend, err := buildBackend(opts.Config)
		if err != nil {
			return nil, err
		}
		opts.Backend = backend
	}

	cfg := opts.Config
	gateway := reasoning.NewGateway(opts.Backend, func(o *reasoning.GatewayOptions) {
		o.MaxAttempts = cfg.MaxRetries
		o.CallTimeout = cfg.Timeout()
		o.Logger = opts.Logger
		o.Collector = opts.Collector
		o.Breakers = breaker.NewRegistryWithDefaults(
			cfg.BreakerFailureThreshold, cfg.BreakerRecovery(), opts.Logger)
	})

	orch := orchestrator.New(gateway, func(o *orchestrator.Options) {
		o.Logger = opts.Logger
		o.Collector = opts.Collector
	})

	return &InterviewMesh{
		gateway:      gateway,
		orchestrator: orch,
		store:        opts.SessionStore,
		loopCfg: orchestrator.LoopConfig{
			MinQuestionsPerTopic: cfg.QuestionsPerTopicMin,
			MaxQuestionsPerTopic: cfg.QuestionsPerTopicMax,
		},
		logger: opts.Logger,
	}, nil
}

func buildBackend(cfg *config.Config) (reasoning.Backend, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openaibackend.New(func(o *openaibackend.Options) {
			o.APIKey = cfg.APIKey
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
		}), nil
	case config.ProviderAnthropic:
		return anthropicbackend.New(func(o *anthropicbackend.Options) {
			o.APIKey = cfg.APIKey
			if cfg.Model != "" {
				o.Model = anthropic.Model(cfg.Model)
			}
		}), nil
	default:
		return nil, fmt.Errorf("unknown reasoning provider %q", cfg.Provider)
	}
}

// CreateSession validates the inputs, creates a session and persists it.
func (m *InterviewMesh) CreateSession(candidate core.CandidateProfile, requirements core.JobRequirements, topics []core.Topic) (*core.InterviewSession, error) {
	if err := validate.Profile(candidate); err != nil {
		return nil, err
	}
	if err := validate.Requirements(requirements); err != nil {
		return nil, err
	}
	if err := validate.Topics(topics); err != nil {
		return nil, err
	}
	sess := m.orchestrator.CreateSession(candidate, requirements, topics)
	if err := m.store.Put(sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return sess, nil
}

// FirstQuestion generates and records the opening question for the session.
// The payload is always usable; Degraded marks a fallback question.
func (m *InterviewMesh) FirstQuestion(ctx context.Context, sessionID string) (agent.Result[agent.QuestionPayload], error) {
	var zero agent.Result[agent.QuestionPayload]
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return zero, err
	}
	result := m.orchestrator.FirstQuestion(ctx, sess)
	if err := m.store.Put(sess); err != nil {
		return zero, fmt.Errorf("persist session: %w", err)
	}
	return result, nil
}

// ProcessResponse validates and processes one candidate answer, persisting
// the updated session.
func (m *InterviewMesh) ProcessResponse(ctx context.Context, sessionID, answer string) (*Turn, error) {
	sanitized, err := validate.Answer(answer)
	if err != nil {
		return nil, err
	}
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == core.StatusCompleted {
		return nil, fmt.Errorf("session %s: interview already completed", sessionID)
	}
	turn, err := m.orchestrator.ProcessResponse(ctx, sess, sanitized, m.loopCfg)
	if err != nil {
		return nil, err
	}
	if err := m.store.Put(sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return turn, nil
}

// FinalReport completes the session, builds its report and persists the
// completed session.
func (m *InterviewMesh) FinalReport(ctx context.Context, sessionID string) (*core.FinalReport, error) {
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	report := m.orchestrator.GenerateFinalReport(ctx, sess)
	if err := m.store.Put(sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return report, nil
}

// GetSession returns the stored session snapshot.
func (m *InterviewMesh) GetSession(sessionID string) (*core.InterviewSession, error) {
	return m.store.Get(sessionID)
}

// RemoveSession deletes a session from the store.
func (m *InterviewMesh) RemoveSession(sessionID string) error {
	return m.store.Remove(sessionID)
}

// BreakerStatus reports the state of every circuit breaker in use.
func (m *InterviewMesh) BreakerStatus() map[string]breaker.Status {
	return m.gateway.Breakers().StatusAll()
}
