package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"trivia-game-service/internal/domain"
)

// StatsStore is the read side of the persistence gateway consumed by the
// REST endpoints.
type StatsStore interface {
	ListSessions(ctx context.Context, limit int) ([]domain.SessionRecord, error)
	GetSession(ctx context.Context, sessionID string) (domain.SessionRecord, error)
	SessionResults(ctx context.Context, sessionID string) ([]domain.PlayerResult, error)
	Leaderboard(ctx context.Context, limit int) ([]domain.PlayerStats, error)
	Stats(ctx context.Context) (domain.StatsSummary, error)
}

// APIHandler serves read-only session history, leaderboard and stats.
type APIHandler struct {
	store StatsStore
}

func NewAPIHandler(store StatsStore) *APIHandler {
	return &APIHandler{store: store}
}

// Register mounts the API routes on mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/sessions", h.listSessions)
	mux.HandleFunc("GET /api/sessions/{id}", h.getSession)
	mux.HandleFunc("GET /api/sessions/{id}/results", h.sessionResults)
	mux.HandleFunc("GET /api/leaderboard", h.leaderboard)
	mux.HandleFunc("GET /api/stats", h.stats)
}

func (h *APIHandler) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.ListSessions(r.Context(), limitParam(r, 50))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions, "count": len(sessions)})
}

func (h *APIHandler) getSession(w http.ResponseWriter, r *http.Request) {
	record, err := h.store.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *APIHandler) sessionResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.store.SessionResults(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *APIHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.Leaderboard(r.Context(), limitParam(r, 100))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}

func (h *APIHandler) stats(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func limitParam(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return fallback
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrRecordNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
