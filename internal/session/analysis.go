package session

import (
	"context"
	"errors"
	"time"

	"github.com/benvon/trajectory/internal/logger"
	"github.com/benvon/trajectory/internal/models"
	"github.com/benvon/trajectory/internal/momentum"
	"github.com/benvon/trajectory/internal/services/ai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// AnalysisTask is a handle on one outstanding enrichment request
type AnalysisTask struct {
	done   chan struct{}
	cancel context.CancelFunc
	result *models.AnalysisResult
	err    error
}

// Done is closed once the request has finished and the analyzing flag is clear
func (t *AnalysisTask) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the request finishes or ctx is done
func (t *AnalysisTask) Wait(ctx context.Context) (*models.AnalysisResult, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel aborts the request. The prior result is kept.
func (t *AnalysisTask) Cancel() {
	t.cancel()
}

// Result returns the outcome, or ErrAnalysisInProgress while the request is outstanding
func (t *AnalysisTask) Result() (*models.AnalysisResult, error) {
	select {
	case <-t.done:
		return t.result, t.err
	default:
		return nil, ErrAnalysisInProgress
	}
}

// StartAnalysis issues an enrichment request for the current habits in the background.
// At most one request is outstanding; a second call returns ErrAnalysisInProgress
// and is not queued. The request runs under ctx, so callers that outlive it should
// pass a detached context.
func (s *Session) StartAnalysis(ctx context.Context) (*AnalysisTask, error) {
	if s.analyzer == nil {
		return nil, ErrNoAnalyzer
	}
	if !s.analyzing.CompareAndSwap(false, true) {
		return nil, ErrAnalysisInProgress
	}

	s.mu.Lock()
	req := ai.BuildAnalysisRequest(s.history, s.registry.Habits())
	ctx, cancel := context.WithCancel(ctx)
	task := &AnalysisTask{done: make(chan struct{}), cancel: cancel}
	s.task = task
	s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "session.analyze",
		trace.WithAttributes(
			attribute.Int("habit_count", len(req.CurrentMatrix)),
			attribute.Float64("yesterday_final_score", req.YesterdayFinalScore),
		),
	)

	s.logger.Info("analysis_started",
		zap.Int("habit_count", len(req.CurrentMatrix)),
		zap.String("request_id", ai.ExtractRequestID(ctx)),
	)

	go s.runAnalysis(ctx, span, task, req)
	return task, nil
}

// runAnalysis performs the request. Cleanup order matters: the flag is cleared
// before done closes so a waiter can start the next request immediately.
func (s *Session) runAnalysis(ctx context.Context, span trace.Span, task *AnalysisTask, req *models.AnalysisRequest) {
	defer close(task.done)
	defer s.analyzing.Store(false)
	defer task.cancel()
	defer span.End()

	start := time.Now()
	result, err := s.analyzer.AnalyzeMomentum(ctx, req)
	latency := time.Since(start)

	if err == nil && result == nil {
		err = errors.New("analyzer returned no result")
	}
	if err != nil {
		task.err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis failed")
		s.logger.Error("analysis_failed",
			zap.String("error", logger.SanitizeError(err)),
			zap.Bool("rate_limited", ai.IsRateLimitError(err)),
			zap.Bool("quota_exhausted", ai.IsQuotaError(err)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
		s.publish(ctx, models.EventAnalysisFailed, "", momentum.Local(s.Habits()), "")
		return
	}

	stored := *result
	s.mu.Lock()
	s.analysis = &stored
	s.mu.Unlock()
	task.result = result

	span.SetAttributes(
		attribute.Float64("daily_momentum", result.DailyMomentum),
		attribute.String("risk_assessment", string(result.RiskAssessment)),
	)
	s.logger.Info("analysis_completed",
		zap.Float64("daily_momentum", result.DailyMomentum),
		zap.String("slope_gradient", string(result.SlopeGradient)),
		zap.String("risk_assessment", string(result.RiskAssessment)),
		zap.Int64("latency_ms", latency.Milliseconds()),
	)
	s.publish(ctx, models.EventAnalysisCompleted, "", result.DailyMomentum, result.VerdictHeader)
}

// Analyze runs an enrichment request and waits for its result
func (s *Session) Analyze(ctx context.Context) (*models.AnalysisResult, error) {
	task, err := s.StartAnalysis(ctx)
	if err != nil {
		return nil, err
	}
	return task.Wait(ctx)
}

// Shutdown cancels any outstanding request and waits for its cleanup
func (s *Session) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	task := s.task
	s.mu.Unlock()

	if task == nil {
		return nil
	}
	task.Cancel()
	select {
	case <-task.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
