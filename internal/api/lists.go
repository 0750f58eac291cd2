package api

import "net/http"

func (s *Server) handleListIndex(w http.ResponseWriter, r *http.Request) {
	lists, err := s.engine.Lists(r.Context(), scopeOf(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

func (s *Server) handleListCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	l, err := s.engine.CreateList(r.Context(), scopeOf(r), body.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}
