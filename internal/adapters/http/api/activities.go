package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/okian/activities/internal/domain/model"
)

// ActivitiesDependencies defines the registry operations the handler needs.
type ActivitiesDependencies interface {
	ListActivities(ctx context.Context) (map[string]model.Activity, error)
	Signup(ctx context.Context, activity, email string) (string, error)
	Unregister(ctx context.Context, activity, email string) (string, error)
}

// ActivitiesHandler serves the activity listing and roster changes.
type ActivitiesHandler struct {
	deps ActivitiesDependencies
}

// NewActivitiesHandler creates a new activities handler.
func NewActivitiesHandler(deps ActivitiesDependencies) *ActivitiesHandler {
	return &ActivitiesHandler{deps: deps}
}

// HandleList handles GET /activities requests.
func (h *ActivitiesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_activities"
	activities, err := h.deps.ListActivities(r.Context())
	if err != nil {
		WriteError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

// HandleSignup handles POST /activities/{activity_name}/signup?email= requests.
func (h *ActivitiesHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	const op = "api.signup"
	msg, err := h.deps.Signup(r.Context(), activityName(r), r.URL.Query().Get("email"))
	if err != nil {
		WriteError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

// HandleUnregister handles POST /activities/{activity_name}/unregister?email= requests.
func (h *ActivitiesHandler) HandleUnregister(w http.ResponseWriter, r *http.Request) {
	const op = "api.unregister"
	msg, err := h.deps.Unregister(r.Context(), activityName(r), r.URL.Query().Get("email"))
	if err != nil {
		WriteError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

// activityName returns the decoded {activity_name} path segment. chi matches
// on RawPath only when the request carried one, so only then is the segment
// still escaped. A segment that is not valid percent-encoding is used as-is.
func activityName(r *http.Request) string {
	param := chi.URLParam(r, "activity_name")
	if r.URL.RawPath == "" {
		return param
	}
	if name, err := url.PathUnescape(param); err == nil {
		return name
	}
	return param
}
