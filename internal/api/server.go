// Package api serves the stored settlements over HTTP for the web client:
// the summary list, one detail record, and detail updates.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/models"
	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/settlement"
)

// Server exposes a settlement.Store over HTTP.
type Server struct {
	store settlement.Store
}

// NewServer creates a settlements API server over the given store.
func NewServer(store settlement.Store) *Server {
	return &Server{store: store}
}

// Router builds the chi router with the settlements routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Route("/api/settlements", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
		r.Put("/{id}", s.handleUpdate)
	})
	return r
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		slog.Error("failed to list settlements", "error", err)
		writeError(w, http.StatusInternalServerError, "정산 목록을 불러오지 못했습니다")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	record, err := s.store.Read(r.Context(), id)
	if err != nil {
		var vErr *settlement.ValidationError
		switch {
		case errors.Is(err, settlement.ErrNotFound), errors.As(err, &vErr):
			writeError(w, http.StatusNotFound, "정산 정보를 찾을 수 없습니다")
		default:
			slog.Error("failed to read settlement", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "정산 정보를 불러오지 못했습니다")
		}
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var record models.SettlementDetail
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeError(w, http.StatusBadRequest, "요청 본문이 올바르지 않습니다")
		return
	}

	stored, err := s.store.Update(r.Context(), id, &record)
	if err != nil {
		var vErr *settlement.ValidationError
		if errors.As(err, &vErr) {
			writeError(w, http.StatusBadRequest, vErr.Reason)
			return
		}
		slog.Error("failed to update settlement", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "정산 정보를 저장하지 못했습니다")
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
