package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/waroute/waroute/internal/domain"
	"github.com/waroute/waroute/internal/registry"
	"github.com/waroute/waroute/internal/server"
)

func (h *Handler) listRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := h.store.ListAll(r.Context())
	if err != nil {
		server.AddError(r.Context(), err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list routes"})
		return
	}
	if routes == nil {
		routes = []domain.RouteConfig{}
	}
	writeJSON(w, http.StatusOK, routes)
}

func (h *Handler) createRoute(w http.ResponseWriter, r *http.Request) {
	var n registry.NewRoute
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	route, err := h.store.Add(r.Context(), n)
	if err != nil {
		server.AddError(r.Context(), err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, route)
}

func (h *Handler) updateRoute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var u registry.RouteUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	route, err := h.store.Update(r.Context(), id, u)
	if errors.Is(err, registry.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "route not found"})
		return
	}
	if err != nil {
		server.AddError(r.Context(), err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, route)
}

func (h *Handler) deleteRoute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.store.Remove(r.Context(), id)
	if errors.Is(err, registry.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "route not found"})
		return
	}
	if err != nil {
		server.AddError(r.Context(), err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete route"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "route deleted"})
}

func (h *Handler) triggerSync(w http.ResponseWriter, r *http.Request) {
	if h.syncer == nil || !h.syncer.Enabled() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "synchronization is not configured"})
		return
	}

	started := h.syncer.TriggerNow(r.Context())
	status := http.StatusOK
	if !started {
		// A pass is already in flight; the trigger is a no-op, not a queue.
		status = http.StatusAccepted
	}
	writeJSON(w, status, map[string]bool{"started": started})
}
