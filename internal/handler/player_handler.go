package handler

import (
	"net/http"

	"github.com/freeeve/playersync/internal/model"
	"github.com/freeeve/playersync/internal/service"
)

// PlayerHandler handles player CRUD endpoints.
type PlayerHandler struct {
	svc *service.PlayerService
}

// NewPlayerHandler creates a PlayerHandler.
func NewPlayerHandler(svc *service.PlayerService) *PlayerHandler {
	return &PlayerHandler{svc: svc}
}

// ListPlayers handles GET /players?sport=
func (h *PlayerHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.svc.ListPlayers(r.Context(), r.URL.Query().Get("sport"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

// GetPlayer handles GET /players/{id}
func (h *PlayerHandler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPlayer(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreatePlayer handles POST /players
func (h *PlayerHandler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePlayerInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.svc.CreatePlayer(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateStats handles PATCH /players/{id}/stats
func (h *PlayerHandler) UpdateStats(w http.ResponseWriter, r *http.Request) {
	var stats model.Stats
	if err := decodeJSON(r, &stats); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.svc.UpdateStats(r.Context(), r.PathValue("id"), stats)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePlayer handles DELETE /players/{id}
func (h *PlayerHandler) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePlayer(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Routes registers the player endpoints on mux.
func (h *PlayerHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /players", h.ListPlayers)
	mux.HandleFunc("GET /players/{id}", h.GetPlayer)
	mux.HandleFunc("POST /players", h.CreatePlayer)
	mux.HandleFunc("PATCH /players/{id}/stats", h.UpdateStats)
	mux.HandleFunc("DELETE /players/{id}", h.DeletePlayer)
}
