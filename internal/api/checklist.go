package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"worklane/pkg/checklist"
)

func (s *Server) handleChecklistList(w http.ResponseWriter, r *http.Request) {
	items, err := s.engine.ChecklistItems(r.Context(), scopeOf(r), mux.Vars(r)["taskId"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleChecklistAdd(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.engine.AddChecklistItem(r.Context(), scopeOf(r), mux.Vars(r)["taskId"], body.Title)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleChecklistUpdate(w http.ResponseWriter, r *http.Request) {
	var edit checklist.Edit
	if err := decode(r, &edit); err != nil {
		s.fail(w, r, err)
		return
	}
	vars := mux.Vars(r)
	res, err := s.engine.UpdateChecklistItem(r.Context(), scopeOf(r), vars["taskId"], vars["itemId"], edit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleChecklistDelete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := s.engine.DeleteChecklistItem(r.Context(), scopeOf(r), vars["taskId"], vars["itemId"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
