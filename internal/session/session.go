// Package session owns the single habit registry, its history, and the most
// recent enrichment result, and serializes every change to them.
package session

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benvon/trajectory/internal/logger"
	"github.com/benvon/trajectory/internal/models"
	"github.com/benvon/trajectory/internal/momentum"
	"github.com/benvon/trajectory/internal/queue"
	"github.com/benvon/trajectory/internal/registry"
	"github.com/benvon/trajectory/internal/services/ai"
	"github.com/benvon/trajectory/internal/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	tracerName     = "github.com/benvon/trajectory/internal/session"
	persistTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

// Source says where the displayed momentum came from
type Source string

const (
	SourceLocal    Source = "local"
	SourceAnalysis Source = "analysis"
)

// State is a point-in-time view of the session
type State struct {
	Habits        []models.Habit         `json:"habits"`
	History       []models.HistoryPoint  `json:"history"`
	LocalMomentum float64                `json:"local_momentum"`
	Momentum      float64                `json:"momentum"`
	Baseline      float64                `json:"baseline"`
	Verdict       momentum.Verdict       `json:"verdict"`
	VerdictHeader string                 `json:"verdict_header"`
	Source        Source                 `json:"source"`
	Analyzing     bool                   `json:"analyzing"`
	Analysis      *models.AnalysisResult `json:"analysis,omitempty"`
	Trajectory    []models.HistoryPoint  `json:"trajectory"`
}

// Session holds the state for one user's day
type Session struct {
	mu        sync.Mutex
	registry  *registry.Registry
	history   []models.HistoryPoint
	analysis  *models.AnalysisResult
	task      *AnalysisTask
	analyzing atomic.Bool

	store     storage.Store
	key       string
	analyzer  ai.Analyzer
	publisher queue.EventPublisher
	logger    *zap.Logger
	tracer    trace.Tracer
	idGen     func() string
}

// Option configures a Session
type Option func(*Session)

// WithRegistry uses r instead of loading one from the store
func WithRegistry(r *registry.Registry) Option {
	return func(s *Session) { s.registry = r }
}

// WithHistory replaces the default seven day history
func WithHistory(history []models.HistoryPoint) Option {
	return func(s *Session) {
		s.history = append([]models.HistoryPoint(nil), history...)
	}
}

// WithStore sets the store the registry is persisted to
func WithStore(store storage.Store) Option {
	return func(s *Session) { s.store = store }
}

// WithKey sets the store key holding the registry
func WithKey(key string) Option {
	return func(s *Session) { s.key = key }
}

// WithAnalyzer sets the enrichment provider
func WithAnalyzer(a ai.Analyzer) Option {
	return func(s *Session) { s.analyzer = a }
}

// WithPublisher sets the event publisher
func WithPublisher(p queue.EventPublisher) Option {
	return func(s *Session) { s.publisher = p }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithTracer sets the tracer used for analysis spans
func WithTracer(t trace.Tracer) Option {
	return func(s *Session) { s.tracer = t }
}

// WithIDGenerator sets the id generator for new habits
func WithIDGenerator(gen func() string) Option {
	return func(s *Session) { s.idGen = gen }
}

// New creates a session. Without WithRegistry it starts from the default habits.
func New(opts ...Option) *Session {
	s := newSession(opts...)
	if s.registry == nil {
		s.registry = registry.NewDefault(s.registryOptions()...)
	}
	return s
}

// Open creates a session and restores the registry from its store.
// Missing or corrupt snapshots fall back to the default habits; any other
// store error is returned.
func Open(ctx context.Context, opts ...Option) (*Session, error) {
	s := newSession(opts...)
	if s.registry == nil {
		r, err := registry.Load(ctx, s.store, s.key, s.logger, s.registryOptions()...)
		if err != nil {
			return nil, err
		}
		s.registry = r
	}
	return s, nil
}

func newSession(opts ...Option) *Session {
	s := &Session{
		history:   models.DefaultHistory(),
		store:     storage.NewMemoryStore(),
		key:       storage.DefaultKey,
		publisher: queue.NopPublisher{},
		logger:    zap.NewNop(),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) registryOptions() []registry.Option {
	if s.idGen == nil {
		return nil
	}
	return []registry.Option{registry.WithIDGenerator(s.idGen)}
}

// HasAnalyzer reports whether enrichment can be requested
func (s *Session) HasAnalyzer() bool {
	return s.analyzer != nil
}

// Analyzing reports whether an enrichment request is outstanding
func (s *Session) Analyzing() bool {
	return s.analyzing.Load()
}

// Habits returns a copy of the registry in display order
func (s *Session) Habits() []models.Habit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Habits()
}

// AddHabit appends a new inactive habit and persists the registry
func (s *Session) AddHabit(ctx context.Context, name string, habitType models.HabitType, weight float64) (models.Habit, error) {
	if strings.TrimSpace(name) == "" {
		return models.Habit{}, ErrEmptyHabitName
	}
	if !habitType.Valid() {
		return models.Habit{}, ErrInvalidHabitType
	}

	s.mu.Lock()
	h, ok := s.registry.Add(name, habitType, weight)
	if !ok {
		s.mu.Unlock()
		return models.Habit{}, ErrEmptyHabitName
	}
	s.persistLocked(ctx)
	local := momentum.Local(s.registry.Habits())
	s.mu.Unlock()

	s.logger.Info("habit_added",
		zap.String("habit_id", h.ID),
		zap.String("name", logger.SanitizeHabitName(h.Name)),
		zap.String("type", string(h.Type)),
		zap.Float64("weight", h.Weight),
	)
	s.publish(ctx, models.EventHabitAdded, h.ID, local, "")
	return h, nil
}

// RemoveHabit deletes the habit with id. It reports whether a habit was removed;
// an absent id leaves the registry and the store untouched.
func (s *Session) RemoveHabit(ctx context.Context, id string) bool {
	s.mu.Lock()
	if !s.registry.Remove(id) {
		s.mu.Unlock()
		return false
	}
	s.persistLocked(ctx)
	local := momentum.Local(s.registry.Habits())
	s.mu.Unlock()

	s.logger.Info("habit_removed", zap.String("habit_id", id))
	s.publish(ctx, models.EventHabitRemoved, id, local, "")
	return true
}

// ToggleHabit flips the habit between its active and inactive status. It
// reports whether a habit was toggled; an absent id is a no-op.
func (s *Session) ToggleHabit(ctx context.Context, id string) (models.Habit, bool) {
	s.mu.Lock()
	h, ok := s.registry.Toggle(id)
	if !ok {
		s.mu.Unlock()
		s.logger.Debug("habit_toggle_absent", zap.String("habit_id", id))
		return models.Habit{}, false
	}
	s.persistLocked(ctx)
	local := momentum.Local(s.registry.Habits())
	s.mu.Unlock()

	s.logger.Debug("habit_toggled",
		zap.String("habit_id", h.ID),
		zap.String("status", string(h.Status)),
		zap.Float64("local_momentum", local),
	)
	s.publish(ctx, models.EventHabitToggled, h.ID, local, "")
	return h, true
}

// Snapshot returns the current state. An analysis result, when present,
// replaces the locally computed score and header.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	habits := s.registry.Habits()
	local := momentum.Local(habits)
	baseline := momentum.Baseline(s.history)

	state := State{
		Habits:        habits,
		History:       append([]models.HistoryPoint(nil), s.history...),
		LocalMomentum: local,
		Momentum:      local,
		Baseline:      baseline,
		Source:        SourceLocal,
		Analyzing:     s.analyzing.Load(),
	}

	if s.analysis != nil {
		result := *s.analysis
		state.Analysis = &result
		state.Momentum = result.DailyMomentum
		state.Source = SourceAnalysis
	}

	state.Verdict = momentum.Classify(state.Momentum, baseline)
	state.VerdictHeader = state.Verdict.Header()
	if state.Analysis != nil {
		state.VerdictHeader = state.Analysis.VerdictHeader
	}
	state.Trajectory = momentum.Trajectory(s.history, state.Momentum)

	return state
}

// Analysis returns the latest enrichment result, if any
func (s *Session) Analysis() (*models.AnalysisResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.analysis == nil {
		return nil, false
	}
	result := *s.analysis
	return &result, true
}

// ClearAnalysis drops the enrichment result so the local score is displayed again.
// An outstanding request is not cancelled and may still deliver a result.
func (s *Session) ClearAnalysis() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analysis = nil
}

// persistLocked writes the registry to the store. Failures are logged and the
// in-memory change stands. Callers must hold s.mu.
func (s *Session) persistLocked(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.registry.Persist(ctx, s.store, s.key); err != nil {
		s.logger.Error("registry_persist_failed",
			zap.String("key", s.key),
			zap.String("error", logger.SanitizeError(err)),
		)
	}
}

func (s *Session) publish(ctx context.Context, eventType models.EventType, habitID string, score float64, verdict string) {
	event := models.NewEvent(eventType)
	event.HabitID = habitID
	event.Momentum = score
	event.Verdict = verdict

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("event_publish_failed",
			zap.String("event_type", string(eventType)),
			zap.String("error", logger.SanitizeError(err)),
		)
	}
}
