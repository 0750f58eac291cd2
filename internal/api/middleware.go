package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"worklane/pkg/apperr"
	"worklane/pkg/participation"
)

type scopeKey struct{}

// scopeOf returns the scope resolved by requireParticipation.
func scopeOf(r *http.Request) participation.Scope {
	sc, _ := r.Context().Value(scopeKey{}).(participation.Scope)
	return sc
}

// requireParticipation runs the participation gate once per request and
// hands the scope and standing to the handler through the context.
func (s *Server) requireParticipation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		sc := participation.Scope{
			WorkspaceID: strings.TrimSpace(r.Header.Get(HeaderWorkspace)),
			MemberID:    strings.TrimSpace(r.Header.Get(HeaderMember)),
			SpaceID:     vars["spaceId"],
			ListID:      vars["listId"],
		}
		if sc.WorkspaceID == "" || sc.MemberID == "" {
			writeError(w, http.StatusForbidden, "missing "+HeaderWorkspace+" or "+HeaderMember)
			return
		}
		ctx, _, err := s.gate.Authorize(r.Context(), sc)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		ctx = context.WithValue(ctx, scopeKey{}, sc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		entry := s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		})
		if rec.status >= 500 {
			entry.Error("request failed")
			return
		}
		entry.Info("request")
	})
}

// fail maps err onto an HTTP status. Unclassified errors are logged and
// hidden from the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case apperr.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case apperr.IsForbidden(err):
		writeError(w, http.StatusForbidden, err.Error())
	case apperr.IsBadRequest(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).WithError(err).Error("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
