// Package session drives interviews turn by turn: it plans the interview,
// decides between main questions, follow-ups and completion, and keeps the
// durable context in sync.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/analysis"
	"github.com/spigell/hh-interviewer/internal/conversation"
	"github.com/spigell/hh-interviewer/internal/generation"
	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/logger"
	"github.com/spigell/hh-interviewer/internal/prompt"
)

const (
	DefaultFirstQuestionTimeout    = 45 * time.Second
	DefaultQuestionTimeout         = generation.DefaultTimeout
	DefaultMaxConsecutiveFollowUps = 1
)

// Store is the durable context store the orchestrator relies on.
type Store interface {
	Init(ctx context.Context, sessionID string, profile interview.Profile, focus string, planned int) (*conversation.Context, error)
	Read(ctx context.Context, sessionID string) (*conversation.Context, error)
	Append(ctx context.Context, sessionID string, msg interview.Message) (*conversation.Context, error)
	MarkComplete(ctx context.Context, sessionID string) (*conversation.Context, error)
	Delete(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
}

// Generator produces validated questions from prompts.
type Generator interface {
	Generate(ctx context.Context, prompt string, timeout time.Duration) (generation.Candidate, error)
	GenerateFollowUp(ctx context.Context, prompt string, timeout time.Duration) (generation.FollowUp, error)
	Healthy(ctx context.Context) bool
}

// FallbackFunc builds a deterministic question when generation fails.
type FallbackFunc func(category interview.Category, difficulty interview.Difficulty, focus string, seq int) (interview.Question, error)

// Config tunes the orchestrator. Zero values take the defaults; follow-ups
// cannot be switched off, at least one is always allowed per main question.
type Config struct {
	FirstQuestionTimeout    time.Duration `mapstructure:"first-question-timeout"`
	QuestionTimeout         time.Duration `mapstructure:"question-timeout"`
	MinimumAnswers          int           `mapstructure:"minimum-answers"`
	MaxConsecutiveFollowUps int           `mapstructure:"max-consecutive-follow-ups"`
}

func DefaultConfig() Config {
	return Config{
		FirstQuestionTimeout:    DefaultFirstQuestionTimeout,
		QuestionTimeout:         DefaultQuestionTimeout,
		MinimumAnswers:          interview.DefaultMinimumAnswers,
		MaxConsecutiveFollowUps: DefaultMaxConsecutiveFollowUps,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.FirstQuestionTimeout <= 0 {
		c.FirstQuestionTimeout = def.FirstQuestionTimeout
	}
	if c.QuestionTimeout <= 0 {
		c.QuestionTimeout = def.QuestionTimeout
	}
	if c.MinimumAnswers <= 0 {
		c.MinimumAnswers = def.MinimumAnswers
	}
	if c.MaxConsecutiveFollowUps <= 0 {
		c.MaxConsecutiveFollowUps = def.MaxConsecutiveFollowUps
	}
	return c
}

// Dependencies wires the orchestrator. Store and Generator are required; the
// rest fall back to in-process defaults.
type Dependencies struct {
	Store     Store
	Generator Generator
	Registry  Registry
	Composer  *prompt.Composer
	FollowUps *analysis.FollowUpClassifier
	Flow      *analysis.FlowMonitor
	Fallback  FallbackFunc
	Logger    *zap.Logger
	NewID     func() string
	Now       func() time.Time
}

// Orchestrator implements the session state machine. Calls on one session
// must be serialized by the caller; different sessions are independent.
type Orchestrator struct {
	cfg       Config
	store     Store
	generator Generator
	registry  Registry
	composer  *prompt.Composer
	followUps *analysis.FollowUpClassifier
	flow      *analysis.FlowMonitor
	fallback  FallbackFunc
	logger    *zap.Logger
	newID     func() string
	now       func() time.Time
}

func NewOrchestrator(cfg Config, deps Dependencies) (*Orchestrator, error) {
	if deps.Store == nil {
		return nil, errors.New("session store is required")
	}
	if deps.Generator == nil {
		return nil, errors.New("generator is required")
	}

	o := &Orchestrator{
		cfg:       cfg.withDefaults(),
		store:     deps.Store,
		generator: deps.Generator,
		registry:  deps.Registry,
		composer:  deps.Composer,
		followUps: deps.FollowUps,
		flow:      deps.Flow,
		fallback:  deps.Fallback,
		logger:    deps.Logger,
		newID:     deps.NewID,
		now:       deps.Now,
	}
	if o.registry == nil {
		o.registry = NewMemoryRegistry()
	}
	if o.composer == nil {
		o.composer = prompt.NewComposer(prompt.DefaultHistoryTurns)
	}
	if o.followUps == nil {
		o.followUps = analysis.NewFollowUpClassifier(nil)
	}
	if o.flow == nil {
		o.flow = analysis.NewFlowMonitor(analysis.DefaultFlowWindow)
	}
	if o.fallback == nil {
		o.fallback = interview.FallbackQuestion
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.newID == nil {
		o.newID = uuid.NewString
	}
	if o.now == nil {
		o.now = time.Now
	}

	return o, nil
}

// CreateSession plans the interview and produces its first question. Nothing
// is left behind in the store when creation fails.
func (o *Orchestrator) CreateSession(ctx context.Context, req CreateRequest) (*Created, error) {
	if !o.generator.Healthy(ctx) {
		return nil, ErrBackendUnavailable
	}

	id := strings.TrimSpace(req.SessionID)
	if id == "" {
		id = o.newID()
	} else if _, err := o.store.Read(ctx, id); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionExists, id)
	} else if !errors.Is(err, conversation.ErrNotFound) {
		return nil, fmt.Errorf("check session %s: %w", id, err)
	}

	log := logger.WithSession(o.logger, id)
	planned := interview.Plan(req.Profile)

	c, err := o.store.Init(ctx, id, req.Profile, req.Focus, planned)
	if err != nil {
		return nil, fmt.Errorf("init session context: %w", err)
	}

	target := prompt.NextTarget(c.Profile, 0, planned, nil)
	question, err := o.mainQuestion(ctx, log, c, target, o.cfg.FirstQuestionTimeout)
	if err != nil {
		o.discard(ctx, log, id)
		return nil, fmt.Errorf("produce first question: %w", err)
	}

	c, err = o.store.Append(ctx, id, interview.QuestionMessage(question, o.now().UTC()))
	if err != nil {
		o.discard(ctx, log, id)
		return nil, fmt.Errorf("persist first question: %w", err)
	}

	o.registry.Put(Session{
		ID:                   id,
		PlannedQuestionCount: planned,
		AskedQuestions:       []interview.Question{question},
		State:                StateCreated,
		CreatedAt:            c.CreatedAt,
	})

	log.Info("interview session created",
		zap.Int("planned_questions", planned),
		zap.String("category", string(question.Category)),
	)

	return &Created{
		SessionID:            id,
		FirstQuestion:        question,
		PlannedQuestionCount: planned,
	}, nil
}

// SubmitResponse records an answer and returns the next turn. Completed
// sessions answer with IsComplete and are not modified.
func (o *Orchestrator) SubmitResponse(ctx context.Context, sessionID, answer string) (*Turn, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, ErrEmptyAnswer
	}

	c, err := o.read(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	log := logger.WithSession(o.logger, sessionID)

	s := o.sessionFor(log, c)
	if c.Complete || s.State.Terminal() {
		return &Turn{IsComplete: true}, nil
	}

	last, pending := pendingQuestion(c)
	if pending {
		c, err = o.store.Append(ctx, sessionID, interview.Message{
			Role:      interview.RoleCandidate,
			Text:      answer,
			Timestamp: o.now().UTC(),
		})
		if err != nil {
			return nil, fmt.Errorf("persist answer: %w", err)
		}
	} else {
		// The previous turn stopped before its question was stored.
		log.Warn("no pending question, answer is not recorded")
	}

	if interview.IsComplete(c.AnsweredCount, c.PlannedQuestions, o.cfg.MinimumAnswers) {
		return o.finish(ctx, log, c, s), nil
	}

	flow := o.flow.Analyze(c.RecentCandidate(o.flow.Window()))
	if flow.NeedsRedirection {
		log.Info("off-topic answer detected", zap.String("topic", string(flow.Topic)))
	}

	decision := analysis.Decision{}
	if pending && !flow.NeedsRedirection && c.TrailingFollowUps() < o.cfg.MaxConsecutiveFollowUps {
		decision = o.followUps.ShouldFollowUp(answer, last.Category)
	}

	var (
		question interview.Question
		ack      string
	)
	if decision.FollowUp {
		log.Debug("asking follow-up", zap.String("reason", string(decision.Reason)))
		question, ack, err = o.followUpQuestion(ctx, log, c, last, answer)
	} else {
		target := prompt.NextTarget(c.Profile, c.QuestionsAsked, c.PlannedQuestions, c.Questions())
		question, err = o.mainQuestion(ctx, log, c, target, o.cfg.QuestionTimeout)
		ack = interview.Acknowledgment(c.AnsweredCount - 1)
	}
	if err != nil {
		log.Error("no question could be produced, completing interview", zap.Error(err))
		return o.finish(ctx, log, c, s), nil
	}

	if flow.NeedsRedirection {
		ack = analysis.Redirection(c.AnsweredCount - 1)
	}

	c, err = o.store.Append(ctx, sessionID, interview.QuestionMessage(question, o.now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("persist question: %w", err)
	}

	s.AskedQuestions = append(s.AskedQuestions, question)
	s.AnsweredCount = c.AnsweredCount
	s.State = StateActive
	o.registry.Put(s)

	return &Turn{
		NextQuestion:   &question,
		IsFollowUp:     question.IsFollowUp,
		Acknowledgment: ack,
		Redirected:     flow.NeedsRedirection,
	}, nil
}

// GetSession returns the current question and progress without mutating anything.
func (o *Orchestrator) GetSession(ctx context.Context, sessionID string) (*Snapshot, error) {
	c, err := o.read(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s := o.sessionFor(logger.WithSession(o.logger, sessionID), c)
	snapshot := &Snapshot{
		SessionID: s.ID,
		State:     s.State,
		Progress: Progress{
			Asked:    c.QuestionsAsked,
			Answered: c.AnsweredCount,
			Planned:  c.PlannedQuestions,
		},
		CreatedAt: s.CreatedAt,
	}
	if q, ok := s.CurrentQuestion(); ok {
		snapshot.CurrentQuestion = &q
	}
	return snapshot, nil
}

// CompleteSession releases the session. Completing an unknown or already
// completed session is not an error.
func (o *Orchestrator) CompleteSession(ctx context.Context, sessionID string) error {
	return o.release(ctx, sessionID, StateComplete)
}

// AbandonSession releases the session on an external signal. In-flight
// generation calls are not cancelled; their results are never stored.
func (o *Orchestrator) AbandonSession(ctx context.Context, sessionID string) error {
	return o.release(ctx, sessionID, StateAbandoned)
}

// HealthCheck reports whether both the backend and the store are reachable.
func (o *Orchestrator) HealthCheck(ctx context.Context) bool {
	if err := o.store.Ping(ctx); err != nil {
		o.logger.Warn("context store is unhealthy", zap.Error(err))
		return false
	}
	return o.generator.Healthy(ctx)
}

func (o *Orchestrator) release(ctx context.Context, sessionID string, state State) error {
	log := logger.WithSession(o.logger, sessionID)
	o.registry.Delete(sessionID)

	if err := o.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("release session: %w", err)
	}
	log.Info("interview session released", zap.String("state", string(state)))
	return nil
}

func (o *Orchestrator) read(ctx context.Context, sessionID string) (*conversation.Context, error) {
	c, err := o.store.Read(ctx, sessionID)
	if errors.Is(err, conversation.ErrNotFound) {
		o.registry.Delete(sessionID)
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("read session context: %w", err)
	}
	return c, nil
}

// sessionFor returns the cached session when it matches the durable
// context, rebuilding it otherwise.
func (o *Orchestrator) sessionFor(log *zap.Logger, c *conversation.Context) Session {
	if s, ok := o.registry.Get(c.SessionID); ok &&
		s.AnsweredCount == c.AnsweredCount &&
		len(s.AskedQuestions) == c.QuestionsAsked &&
		s.State.Terminal() == c.Complete {
		return s
	}

	s := sessionFromContext(c)
	o.registry.Put(s)
	log.Debug("session rebuilt from durable context", zap.String("state", string(s.State)))
	return s
}

func sessionFromContext(c *conversation.Context) Session {
	state := StateActive
	switch {
	case c.Complete:
		state = StateComplete
	case c.AnsweredCount == 0:
		state = StateCreated
	}

	return Session{
		ID:                   c.SessionID,
		PlannedQuestionCount: c.PlannedQuestions,
		AskedQuestions:       c.Questions(),
		AnsweredCount:        c.AnsweredCount,
		State:                state,
		CreatedAt:            c.CreatedAt,
	}
}

// pendingQuestion returns the last question when it still awaits an answer.
func pendingQuestion(c *conversation.Context) (interview.Question, bool) {
	if len(c.Transcript) == 0 || c.Transcript[len(c.Transcript)-1].Role != interview.RoleInterviewer {
		return interview.Question{}, false
	}
	return c.LastQuestion()
}

func (o *Orchestrator) input(c *conversation.Context) prompt.Input {
	return prompt.Input{
		Profile:  c.Profile,
		Focus:    c.Focus,
		Asked:    c.QuestionsAsked,
		Planned:  c.PlannedQuestions,
		Recent:   c.Recent(o.composer.HistoryTurns()),
		Previous: c.Questions(),
	}
}

// mainQuestion generates the next planned question, substituting a fallback
// when generation fails. The target category is kept even when the backend
// labels its question differently.
func (o *Orchestrator) mainQuestion(ctx context.Context, log *zap.Logger, c *conversation.Context, target prompt.Target, timeout time.Duration) (interview.Question, error) {
	candidate, err := o.generator.Generate(ctx, o.composer.Question(o.input(c), target), timeout)
	if err != nil {
		log.Warn("question generation failed, using fallback",
			zap.String("category", string(target.Category)),
			zap.Error(err),
		)
		return o.fallbackQuestion(target.Category, target.Difficulty, target.Focus, c.QuestionsAsked)
	}

	if candidate.Category != target.Category {
		log.Debug("backend returned a different category",
			zap.String("expected", string(target.Category)),
			zap.String("got", string(candidate.Category)),
		)
	}

	return interview.Question{
		ID:         o.newID(),
		Text:       candidate.Text,
		Category:   target.Category,
		Difficulty: target.Difficulty,
	}, nil
}

// followUpQuestion generates an acknowledgment and a probing question. Each
// part falls back independently.
func (o *Orchestrator) followUpQuestion(ctx context.Context, log *zap.Logger, c *conversation.Context, last interview.Question, answer string) (interview.Question, string, error) {
	followUp, err := o.generator.GenerateFollowUp(ctx, o.composer.FollowUp(o.input(c), last, answer), o.cfg.QuestionTimeout)
	if err != nil {
		log.Warn("follow-up generation failed, using fallback", zap.Error(err))
	}

	ack := followUp.Acknowledgment
	if ack == "" {
		ack = interview.FollowUpAcknowledgment(c.AnsweredCount - 1)
	}

	if followUp.Question == nil {
		q, err := o.fallbackQuestion(interview.CategoryFollowUp, interview.DifficultyMedium, "", c.QuestionsAsked)
		return q, ack, err
	}

	return interview.Question{
		ID:         o.newID(),
		Text:       followUp.Question.Text,
		Category:   interview.CategoryFollowUp,
		Difficulty: followUp.Question.Difficulty,
		IsFollowUp: true,
	}, ack, nil
}

func (o *Orchestrator) fallbackQuestion(category interview.Category, difficulty interview.Difficulty, focus string, seq int) (interview.Question, error) {
	q, err := o.fallback(category, difficulty, focus, seq)
	if err != nil {
		return interview.Question{}, fmt.Errorf("fallback question: %w", err)
	}
	if strings.TrimSpace(q.Text) == "" {
		return interview.Question{}, errors.New("fallback question is empty")
	}
	q.ID = o.newID()
	q.IsFollowUp = category == interview.CategoryFollowUp
	return q, nil
}

// finish marks the session complete. A failure to persist the flag is only logged.
func (o *Orchestrator) finish(ctx context.Context, log *zap.Logger, c *conversation.Context, s Session) *Turn {
	if _, err := o.store.MarkComplete(ctx, c.SessionID); err != nil {
		log.Warn("failed to mark context complete", zap.Error(err))
	}

	s.AnsweredCount = c.AnsweredCount
	s.State = StateComplete
	o.registry.Put(s)

	log.Info("interview complete",
		zap.Int("answered", c.AnsweredCount),
		zap.Int("planned_questions", c.PlannedQuestions),
	)
	return &Turn{IsComplete: true, Acknowledgment: interview.ClosingMessage}
}

func (o *Orchestrator) discard(ctx context.Context, log *zap.Logger, sessionID string) {
	if err := o.store.Delete(ctx, sessionID); err != nil {
		log.Warn("failed to delete partial session context", zap.Error(err))
	}
}
