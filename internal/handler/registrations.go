package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/event-management/internal/model"
	"github.com/go-chi/chi/v5"
)

// participantList is the response body of the participant listing.
type participantList struct {
	Participants []model.Participant `json:"participants"`
	Count        int                 `json:"count"`
}

// Register handles POST /api/events/{id}/register
// Registers the caller for the event.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	res, err := h.registrations.Register(r.Context(), chi.URLParam(r, "id"), p.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "registered for event", res)
}

// Unregister handles DELETE /api/events/{id}/register
func (h *Handler) Unregister(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	res, err := h.registrations.Unregister(r.Context(), chi.URLParam(r, "id"), p.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "unregistered from event", res)
}

// ListParticipants handles GET /api/events/{id}/participants
func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.registrations.ListParticipants(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "participants retrieved", participantList{
		Participants: participants,
		Count:        len(participants),
	})
}

// ListRegisteredEvents handles GET /api/events/my/registered
func (h *Handler) ListRegisteredEvents(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	events, err := h.registrations.ListRegisteredEvents(r.Context(), p.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "registered events retrieved", events)
}
