package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Kalinka5/osint-vm/internal/store"
)

type namedRowRequest struct {
	Name string `json:"name"`
}

type namedRowDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// mountReference registers the shared list/get/create handlers for one of
// the id+name reference tables.
func (s *Server) mountReference(r chi.Router, route, table string) {
	r.Route(route, func(r chi.Router) {
		r.Get("/", s.listNamed(table))
		r.Post("/", s.createNamed(table))
		r.Get("/{id}", s.getNamed(table))
	})
}

func (s *Server) listNamed(table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset, err := parseLimitOffset(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rows, err := s.stores.Reference.ListNamed(r.Context(), table, limit, offset)
		if err != nil {
			s.internalError(w, "failed to list "+table, err)
			return
		}
		dtos := make([]namedRowDTO, 0, len(rows))
		for _, row := range rows {
			dtos = append(dtos, namedRowDTO{ID: row.ID, Name: row.Name})
		}
		writeJSON(w, http.StatusOK, map[string]any{table: dtos})
	}
}

func (s *Server) getNamed(table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		row, err := s.stores.Reference.GetNamed(r.Context(), table, id)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "row not found")
			return
		}
		if err != nil {
			s.internalError(w, "failed to load "+table+" row", err)
			return
		}
		writeJSON(w, http.StatusOK, namedRowDTO{ID: row.ID, Name: row.Name})
	}
}

func (s *Server) createNamed(table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req namedRowRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		row, err := s.stores.Reference.CreateNamed(r.Context(), table, req.Name)
		if err != nil {
			s.internalError(w, "failed to create "+table+" row", err)
			return
		}
		writeJSON(w, http.StatusCreated, namedRowDTO{ID: row.ID, Name: row.Name})
	}
}
