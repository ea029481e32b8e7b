// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	repository "github.com/okian/activities/internal/adapters/repository"
	service "github.com/okian/activities/internal/app"
	"github.com/okian/activities/internal/domain/model"
	"github.com/okian/activities/internal/telemetry"
	"github.com/okian/activities/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ListActivities(ctx context.Context) (map[string]model.Activity, error)
	Signup(ctx context.Context, activity, email string) (string, error)
	Unregister(ctx context.Context, activity, email string) (string, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	activitiesHandler *ActivitiesHandler

	logger         logger.Logger
	tracerProvider trace.TracerProvider
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the logger used by the request logging middleware.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTracerProvider enables server spans on every request.
func WithTracerProvider(tp trace.TracerProvider) ServerOption {
	return func(s *Server) {
		s.tracerProvider = tp
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		activitiesHandler: NewActivitiesHandler(deps),
		logger:            logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the root chi router: middleware stack, JSON 404/405
// handlers, and the API routes. Other packages may add routes to it.
func (s *Server) Router(ctx context.Context) chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(telemetry.TracingMiddleware(s.tracerProvider))
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.NotFound(MetricsMiddleware(handleNotFound, "not_found"))
	r.MethodNotAllowed(MetricsMiddleware(handleMethodNotAllowed, "method_not_allowed"))

	s.Register(ctx, r)
	return r
}

// Register attaches all API routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/activities", func(r chi.Router) {
		r.Get("/", MetricsMiddleware(s.activitiesHandler.HandleList, "activities"))
		r.Post("/{activity_name}/signup", MetricsMiddleware(s.activitiesHandler.HandleSignup, "signup"))
		r.Post("/{activity_name}/unregister", MetricsMiddleware(s.activitiesHandler.HandleUnregister, "unregister"))
	})
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders err as {"detail": ...} with the status statusFor picks.
// Other HTTP adapters use it so every error body has the same shape.
func WriteError(w http.ResponseWriter, err error) {
	status, detail := statusFor(err)
	writeJSON(w, status, errorResponse{Detail: detail})
}

// statusFor maps an error to its HTTP status and client-facing detail.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "Activity not found"
	case errors.Is(err, repository.ErrAlreadyRegistered):
		return http.StatusBadRequest, "Student is already signed up"
	case errors.Is(err, repository.ErrNotRegistered):
		return http.StatusBadRequest, "Student is not signed up for this activity"
	case errors.Is(err, repository.ErrActivityFull):
		return http.StatusConflict, "Activity is full"
	case errors.Is(err, repository.ErrInvalidInput):
		return http.StatusBadRequest, inputDetail(err)
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "Bad request"
	case errors.Is(err, ErrRouteNotFound):
		return http.StatusNotFound, "Not Found"
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, "Method Not Allowed"
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, "Service unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// inputDetail turns "invalid input: email is required" into "Email is required".
func inputDetail(err error) string {
	prefix := repository.ErrInvalidInput.Error() + ": "
	msg := err.Error()
	i := strings.LastIndex(msg, prefix)
	if i < 0 || i+len(prefix) >= len(msg) {
		return "Invalid input"
	}
	msg = msg[i+len(prefix):]
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, NewKind("api.route", ErrRouteNotFound))
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, NewKind("api.route", ErrMethodNotAllowed))
}
