package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"worklane/pkg/apperr"
	"worklane/pkg/grouping"
	"worklane/pkg/task"
)

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	f, err := grouping.ParseFilter(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := s.engine.ListTasksFiltered(r.Context(), scopeOf(r), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleTaskGroupedByPriority(w http.ResponseWriter, r *http.Request) {
	f, err := grouping.ParseGroupFilter(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	groups, err := s.engine.ListTasksGroupedByPriority(r.Context(), scopeOf(r), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleTaskGroupedByDueDate(w http.ResponseWriter, r *http.Request) {
	f, err := grouping.ParseGroupFilter(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	groups, err := s.engine.ListTasksGroupedByDueDate(r.Context(), scopeOf(r), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleTaskGet(w http.ResponseWriter, r *http.Request) {
	t, err := s.engine.GetTask(r.Context(), scopeOf(r), mux.Vars(r)["taskId"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	var in task.CreateInput
	if err := decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.engine.CreateTask(r.Context(), scopeOf(r), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	var p task.Patch
	if err := decode(r, &p); err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.engine.UpdateTask(r.Context(), scopeOf(r), mux.Vars(r)["taskId"], p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteTask(r.Context(), scopeOf(r), mux.Vars(r)["taskId"]); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTaskActivity(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, "limit", 100)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	events, err := s.engine.TaskActivity(r.Context(), scopeOf(r), mux.Vars(r)["taskId"], limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// decode reads a JSON body strictly: unknown fields such as progress are
// rejected rather than ignored.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return apperr.BadRequest("request body is empty")
		}
		return apperr.BadRequest("invalid JSON: %v", err)
	}
	return nil
}

// queryLimit reads a positive integer query parameter, falling back to
// defaultVal when it is absent.
func queryLimit(r *http.Request, key string, defaultVal int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, apperr.BadRequest("%s must be a positive integer", key)
	}
	return n, nil
}
