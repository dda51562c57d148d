package api

import (
	"net/http"

	"github.com/platinummonkey/pulse/pkg/activity"
	"github.com/platinummonkey/pulse/pkg/contextkeys"
	"github.com/platinummonkey/pulse/pkg/httputil"
	"github.com/platinummonkey/pulse/pkg/instrument"
)

// activity submission outcomes
const (
	activityCreated   = "created"
	activityDuplicate = "duplicate"
	activityAnonymous = "anonymous"
	activityError     = "error"
)

// recordActivity handles /metrics/activity/{what}. It stores at most one
// record per user, event and UTC day and always answers with the pixel.
func (s *Server) recordActivity(w http.ResponseWriter, r *http.Request) {
	what, ok := httputil.ParsePathStringOrError(w, r, "what")
	if !ok {
		return
	}

	result := s.storeActivity(r, what)
	if s.metrics != nil {
		s.metrics.ActivityRecordsTotal.WithLabelValues(result).Inc()
	}

	respond(w, r)
}

func (s *Server) storeActivity(r *http.Request, what string) string {
	userID := activityUser(r)
	if userID == "" {
		return activityAnonymous
	}

	created, err := s.recorder.RecordActivity(r.Context(), userID, what, activity.DayOf(s.now()))
	if err != nil {
		s.requestLogger(r).WithField("event", what).WithError(err).Error("failed to record activity")
		return activityError
	}
	if !created {
		return activityDuplicate
	}
	return activityCreated
}

// activityUser prefers a user attributed inside the request scope
func activityUser(r *http.Request) string {
	if scope := instrument.ScopeFromContext(r.Context()); scope != nil {
		if id := scope.UserID(); id != "" {
			return id
		}
	}
	return contextkeys.GetUserID(r.Context())
}
