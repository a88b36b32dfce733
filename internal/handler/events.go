package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/event-management/internal/model"
	"github.com/go-chi/chi/v5"
)

// CreateEvent handles POST /api/events
// Creates an event owned by the caller, who must be an organizer.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	event, err := h.events.CreateEvent(r.Context(), req, p.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, "event created", event)
}

// ListEvents handles GET /api/events
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListEvents(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "events retrieved", events)
}

// ListOrganizedEvents handles GET /api/events/my/organized
func (h *Handler) ListOrganizedEvents(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	events, err := h.events.ListOrganizedBy(r.Context(), p.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "organized events retrieved", events)
}

// GetEvent handles GET /api/events/{id}
// Returns the event with its organizer and participant details.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	details, err := h.events.GetEventDetails(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "event retrieved", details)
}

// UpdateEvent handles PUT /api/events/{id}
// Only the event's organizer may update it.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	var req model.UpdateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	event, err := h.events.UpdateEvent(r.Context(), chi.URLParam(r, "id"), req, p.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "event updated", event)
}

// DeleteEvent handles DELETE /api/events/{id}
// Only the event's organizer may delete it.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.events.DeleteEvent(r.Context(), chi.URLParam(r, "id"), p.UserID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "event deleted", nil)
}
