package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/store"
)

// DefaultListLimit caps GET /api/sessions when no limit is given.
const DefaultListLimit = 50

// HistoryHandler serves stored sessions and their capture attempts.
type HistoryHandler struct {
	store *store.Store
}

// NewHistoryHandler creates a HistoryHandler backed by s.
func NewHistoryHandler(s *store.Store) *HistoryHandler {
	return &HistoryHandler{store: s}
}

type listSessionsResponse struct {
	Sessions []*store.Session `json:"sessions"`
}

type listCapturesResponse struct {
	SessionID string           `json:"sessionId"`
	Accepted  int              `json:"accepted"`
	Captures  []*store.Capture `json:"captures"`
}

// ServeHTTP routes /api/sessions, /api/sessions/{id} and
// /api/sessions/{id}/captures.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	id, rest, _ := strings.Cut(path, "/")
	switch {
	case rest == "" && r.Method == http.MethodGet:
		h.get(w, r, id)
	case rest == "" && r.Method == http.MethodDelete:
		h.delete(w, r, id)
	case rest == "captures" && r.Method == http.MethodGet:
		h.captures(w, r, id)
	case rest == "" || rest == "captures":
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *HistoryHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	sessions, err := h.store.Sessions().List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []*store.Session{}
	}
	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: sessions})
}

func (h *HistoryHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := h.store.Sessions().Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *HistoryHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Sessions().Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HistoryHandler) captures(w http.ResponseWriter, r *http.Request, id string) {
	captures, err := h.store.Captures().ListBySession(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list captures")
		return
	}
	if captures == nil {
		captures = []*store.Capture{}
	}

	accepted, err := h.store.Captures().CountAccepted(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count captures")
		return
	}

	writeJSON(w, http.StatusOK, listCapturesResponse{SessionID: id, Accepted: accepted, Captures: captures})
}
