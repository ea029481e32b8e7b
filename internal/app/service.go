// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	repository "github.com/okian/activities/internal/adapters/repository"
	"github.com/okian/activities/internal/domain/model"
	"github.com/okian/activities/internal/telemetry"
	"github.com/okian/activities/pkg/logger"
	"github.com/okian/activities/pkg/metrics"
)

// TracerName names the tracer used for registry spans.
const TracerName = "github.com/okian/activities/service"

// ErrNotStarted is returned by registry calls made before Start.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies for the activity registry.
type Service struct {
	mu sync.RWMutex

	// Core components
	registry *repository.MemStore

	// Configuration
	enforceCapacity bool
	seed            []model.Activity
	tracer          trace.Tracer

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCapacityEnforcement toggles the max_participants check on signup.
func WithCapacityEnforcement(enabled bool) Option {
	return func(s *Service) {
		s.enforceCapacity = enabled
	}
}

// WithSeed replaces the built-in activities loaded at Start.
func WithSeed(activities []model.Activity) Option {
	return func(s *Service) {
		if len(activities) > 0 {
			s.seed = activities
		}
	}
}

// WithTracerProvider sets the provider registry spans are created on.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		if tp != nil {
			s.tracer = tp.Tracer(TracerName)
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		enforceCapacity: true,
		tracer:          noop.NewTracerProvider().Tracer(TracerName),
		logger:          nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start seeds the registry. Calling Start on a started service is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting activities service...")

	storeOpts := []repository.Option{repository.WithCapacityEnforcement(s.enforceCapacity)}
	if s.seed != nil {
		storeOpts = append(storeOpts, repository.WithSeed(s.seed))
	}
	registry, err := repository.NewMemStore(ctx, storeOpts...)
	if err != nil {
		s.logger.Error(ctx, "failed to seed registry", logger.Error(err))
		return fmt.Errorf("seed registry: %w", err)
	}
	s.registry = registry

	snapshot := registry.List(ctx)
	for name, a := range snapshot {
		metrics.UpdateParticipants(name, len(a.Participants), a.MaxParticipants)
	}
	metrics.UpdateActivitiesTotal(len(snapshot))

	s.started = true
	s.logger.Info(ctx, "activities service started",
		logger.Int("activities", len(snapshot)),
		logger.Bool("enforceCapacity", s.enforceCapacity),
	)

	return nil
}

// Stop marks the service stopped. The registry is dropped with it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.registry = nil
	s.started = false
	s.logger.Info(context.Background(), "activities service stopped")
}

func (s *Service) store() (*repository.MemStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.registry, nil
}

// ListActivities returns a snapshot of every activity keyed by name.
func (s *Service) ListActivities(ctx context.Context) (map[string]model.Activity, error) {
	ctx, span := telemetry.StartSpan(ctx, s.tracer, "registry.list")
	defer span.End()
	start := time.Now()

	registry, err := s.store()
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	activities := registry.List(ctx)
	span.SetAttributes(telemetry.AttrActivityCount.Int(len(activities)))
	metrics.RecordOperationLatency("list", sinceMs(start))
	return activities, nil
}

// Signup adds email to the roster of activity and returns a confirmation.
func (s *Service) Signup(ctx context.Context, activity, email string) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, s.tracer, "registry.signup",
		trace.WithAttributes(telemetry.AttrActivityName.String(activity)))
	defer span.End()
	start := time.Now()

	registry, err := s.store()
	if err != nil {
		telemetry.RecordError(span, err)
		return "", err
	}

	a, err := registry.Signup(ctx, activity, email)
	outcome := outcomeFor(err)
	metrics.RecordSignup(metricLabel(activity, err), outcome)
	metrics.RecordOperationLatency("signup", sinceMs(start))
	span.SetAttributes(telemetry.AttrOutcome.String(outcome))

	if err != nil {
		s.logFailure(ctx, "signup rejected", activity, email, outcome, err)
		telemetry.RecordError(span, err)
		return "", err
	}

	s.observe(span, a)
	s.logger.Info(ctx, "student signed up",
		logger.String("activity", a.Name),
		logger.String("email", email),
		logger.Int("participants", len(a.Participants)),
	)
	return fmt.Sprintf("Signed up %s for %s", strings.TrimSpace(email), a.Name), nil
}

// Unregister removes email from the roster of activity and returns a confirmation.
func (s *Service) Unregister(ctx context.Context, activity, email string) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, s.tracer, "registry.unregister",
		trace.WithAttributes(telemetry.AttrActivityName.String(activity)))
	defer span.End()
	start := time.Now()

	registry, err := s.store()
	if err != nil {
		telemetry.RecordError(span, err)
		return "", err
	}

	a, err := registry.Unregister(ctx, activity, email)
	outcome := outcomeFor(err)
	metrics.RecordUnregister(metricLabel(activity, err), outcome)
	metrics.RecordOperationLatency("unregister", sinceMs(start))
	span.SetAttributes(telemetry.AttrOutcome.String(outcome))

	if err != nil {
		s.logFailure(ctx, "unregister rejected", activity, email, outcome, err)
		telemetry.RecordError(span, err)
		return "", err
	}

	s.observe(span, a)
	s.logger.Info(ctx, "student unregistered",
		logger.String("activity", a.Name),
		logger.String("email", email),
		logger.Int("participants", len(a.Participants)),
	)
	return fmt.Sprintf("Unregistered %s from %s", strings.TrimSpace(email), a.Name), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"enforceCapacity": s.enforceCapacity,
	}

	if s.started {
		ctx := context.Background()
		activities := s.registry.List(ctx)
		total := 0
		for _, a := range activities {
			total += len(a.Participants)
		}
		stats["activities"] = len(activities)
		stats["totalParticipants"] = total

		metrics.UpdateActivitiesTotal(len(activities))
	}

	return stats
}

func (s *Service) observe(span trace.Span, a model.Activity) {
	metrics.UpdateParticipants(a.Name, len(a.Participants), a.MaxParticipants)
	span.SetAttributes(
		telemetry.AttrParticipants.Int(len(a.Participants)),
		telemetry.AttrCapacity.Int(a.MaxParticipants),
	)
}

func (s *Service) logFailure(ctx context.Context, msg, activity, email, outcome string, err error) {
	fields := []logger.Field{
		logger.String("activity", activity),
		logger.String("email", email),
		logger.String("outcome", outcome),
		logger.Error(err),
	}
	if outcome == metrics.OutcomeError {
		s.logger.Error(ctx, msg, fields...)
		return
	}
	s.logger.Debug(ctx, msg, fields...)
}

// outcomeFor maps a registry error to a metrics outcome label.
func outcomeFor(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, repository.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, repository.ErrAlreadyRegistered):
		return metrics.OutcomeAlreadyRegistered
	case errors.Is(err, repository.ErrNotRegistered):
		return metrics.OutcomeNotRegistered
	case errors.Is(err, repository.ErrActivityFull):
		return metrics.OutcomeFull
	case errors.Is(err, repository.ErrInvalidInput):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}

// metricLabel keeps unknown activity names out of the label set.
func metricLabel(activity string, err error) string {
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidInput) {
		return "unknown"
	}
	return strings.TrimSpace(activity)
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
