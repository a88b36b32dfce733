// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
//
// EventService manages the event lifecycle, RegistrationService mediates every
// change to an event's participant set, and AccountService creates and
// authenticates users.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/event-management/internal/metrics"
	"github.com/Shivanand-hulikatti/event-management/internal/model"
	"github.com/Shivanand-hulikatti/event-management/internal/notify"
	"github.com/Shivanand-hulikatti/event-management/internal/repository"
	"github.com/rs/zerolog"
)

// EventService orchestrates event lifecycle operations.
type EventService struct {
	events   repository.EventStore
	users    repository.UserStore
	notifier notify.Notifier
	logger   zerolog.Logger
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(
	events repository.EventStore,
	users repository.UserStore,
	notifier notify.Notifier,
	logger zerolog.Logger,
) *EventService {
	return &EventService{
		events:   events,
		users:    users,
		notifier: notifier,
		logger:   logger.With().Str("component", "events").Logger(),
	}
}

// CreateEvent validates the request, checks the organizer and stores a new
// scheduled event owned by organizerID.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest, organizerID string) (event *model.Event, err error) {
	defer func() { metrics.EventOps.WithLabelValues("create", outcome(err)).Inc() }()

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	req.Location = strings.TrimSpace(req.Location)
	if req.Title == "" || req.Date == "" || req.Time == "" {
		return nil, invalid("", "title, date, and time are required")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	organizer, err := s.users.FindUserByID(ctx, organizerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("organizer %s: %w", organizerID, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("get organizer: %w", err)
	}
	if organizer.Role != model.RoleOrganizer {
		s.logger.Warn().Str("user_id", organizerID).Msg("event creation by non-organizer rejected")
		return nil, fmt.Errorf("only organizers can create events: %w", ErrUnauthorized)
	}

	event = &model.Event{
		Title:           req.Title,
		Description:     req.Description,
		Date:            req.Date,
		Time:            req.Time,
		Location:        req.Location,
		OrganizerID:     organizer.ID,
		MaxParticipants: req.MaxParticipants,
		Status:          model.StatusScheduled,
	}
	if event.Location == "" {
		event.Location = model.DefaultLocation
	}
	if req.Status != "" {
		event.Status = req.Status
	}

	if err := s.events.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.logger.Info().Str("event_id", event.ID).Str("organizer_id", organizer.ID).Msg("event created")
	s.notifier.Notify(ctx, notify.EventCreated(event, organizer))
	return event, nil
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	event, err := s.events.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// GetEventDetails returns an event together with its organizer and participants.
func (s *EventService) GetEventDetails(ctx context.Context, id string) (*model.EventDetails, error) {
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	details := &model.EventDetails{Event: *event}

	organizer, err := s.users.FindUserByID(ctx, event.OrganizerID)
	switch {
	case err == nil:
		details.Organizer = &model.OrganizerSummary{ID: organizer.ID, Name: organizer.Name, Email: organizer.Email}
	case errors.Is(err, repository.ErrNotFound):
		s.logger.Warn().Str("event_id", id).Str("organizer_id", event.OrganizerID).Msg("event organizer missing")
	default:
		return nil, fmt.Errorf("get organizer: %w", err)
	}

	details.ParticipantDetails, err = listParticipants(ctx, s.events, s.users, id, s.logger)
	if err != nil {
		return nil, err
	}
	return details, nil
}

// ListEvents returns all events in creation order.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	events, err := s.events.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// ListOrganizedBy returns the events owned by userID.
func (s *EventService) ListOrganizedBy(ctx context.Context, userID string) ([]model.Event, error) {
	events, err := s.events.ListEventsByOrganizer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list organized events: %w", err)
	}
	return events, nil
}

// UpdateEvent applies the fields present in patch. Only the event's organizer
// may update it; the check and the write happen under the event's lock.
func (s *EventService) UpdateEvent(ctx context.Context, id string, patch model.UpdateEventRequest, requesterID string) (event *model.Event, err error) {
	defer func() { metrics.EventOps.WithLabelValues("update", outcome(err)).Inc() }()

	trimPatch(&patch)

	// Existence and ownership are reported before any problem with the patch.
	event, err = s.events.UpdateEvent(ctx, id, func(e *model.Event) error {
		if e.OrganizerID != requesterID {
			return fmt.Errorf("only the event organizer can update: %w", ErrUnauthorized)
		}
		if err := validateStruct(patch); err != nil {
			return err
		}
		return applyPatch(e, patch)
	})
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			s.logger.Warn().Str("event_id", id).Str("user_id", requesterID).Msg("event update by non-owner rejected")
		}
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("update event: %w", err)
	}

	s.logger.Info().Str("event_id", id).Msg("event updated")
	s.notifyParticipants(ctx, event, notify.EventUpdated)
	return event, nil
}

// DeleteEvent removes the event and its registrations. Only the event's
// organizer may delete it.
func (s *EventService) DeleteEvent(ctx context.Context, id, requesterID string) (err error) {
	defer func() { metrics.EventOps.WithLabelValues("delete", outcome(err)).Inc() }()

	deleted, err := s.events.DeleteEvent(ctx, id, func(e *model.Event) error {
		if e.OrganizerID != requesterID {
			return fmt.Errorf("only the event organizer can delete: %w", ErrUnauthorized)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			s.logger.Warn().Str("event_id", id).Str("user_id", requesterID).Msg("event deletion by non-owner rejected")
		}
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, ErrUnauthorized) {
			return err
		}
		return fmt.Errorf("delete event: %w", err)
	}

	s.logger.Info().Str("event_id", id).Int("participants", len(deleted.Participants)).Msg("event deleted")
	s.notifyParticipants(ctx, deleted, notify.EventCancelled)
	return nil
}

// notifyParticipants sends one notification per participant of e. Lookup
// failures are logged and skipped.
func (s *EventService) notifyParticipants(ctx context.Context, e *model.Event, build func(*model.Event, *model.User) notify.Notification) {
	for _, userID := range e.Participants {
		u, err := s.users.FindUserByID(ctx, userID)
		if err != nil {
			s.logger.Warn().Err(err).Str("event_id", e.ID).Str("user_id", userID).Msg("skipping notification for unknown participant")
			continue
		}
		s.notifier.Notify(ctx, build(e, u))
	}
}

func trimPatch(p *model.UpdateEventRequest) {
	for _, f := range []*string{p.Title, p.Description, p.Date, p.Time, p.Location} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

// applyPatch writes the present fields of p onto e. It runs under the event's
// lock, so the capacity check sees the live participant count.
func applyPatch(e *model.Event, p model.UpdateEventRequest) error {
	if p.Title != nil {
		if *p.Title == "" {
			return invalid("title", "cannot be empty")
		}
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Date != nil {
		if *p.Date == "" {
			return invalid("date", "cannot be empty")
		}
		e.Date = *p.Date
	}
	if p.Time != nil {
		if *p.Time == "" {
			return invalid("time", "cannot be empty")
		}
		e.Time = *p.Time
	}
	if p.Location != nil {
		e.Location = *p.Location
		if e.Location == "" {
			e.Location = model.DefaultLocation
		}
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	switch {
	case p.ClearMaxParticipants:
		e.MaxParticipants = nil
	case p.MaxParticipants != nil:
		if *p.MaxParticipants < len(e.Participants) {
			return invalid("max_participants", "cannot be lower than the current participant count (%d)", len(e.Participants))
		}
		n := *p.MaxParticipants
		e.MaxParticipants = &n
	}
	return nil
}
