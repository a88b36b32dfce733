package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-management/internal/metrics"
	"github.com/Shivanand-hulikatti/event-management/internal/model"
	"github.com/Shivanand-hulikatti/event-management/internal/notify"
	"github.com/Shivanand-hulikatti/event-management/internal/repository"
	"github.com/rs/zerolog"
)

// RegistrationService mediates every change to an event's participant set.
//
// The duplicate check, the capacity check and the mutation are delegated to
// a single EventStore call, which serialises them per event. This service
// never caches events between calls.
type RegistrationService struct {
	events   repository.EventStore
	users    repository.UserStore
	notifier notify.Notifier
	logger   zerolog.Logger
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(
	events repository.EventStore,
	users repository.UserStore,
	notifier notify.Notifier,
	logger zerolog.Logger,
) *RegistrationService {
	return &RegistrationService{
		events:   events,
		users:    users,
		notifier: notifier,
		logger:   logger.With().Str("component", "registrations").Logger(),
	}
}

// Register adds userID to the event's participants.
//
// A second call for the same pair fails with ErrAlreadyRegistered; a full
// event fails with ErrCapacityExceeded; a missing or deleted event fails with
// ErrNotFound.
func (s *RegistrationService) Register(ctx context.Context, eventID, userID string) (result *model.RegistrationResult, err error) {
	defer func() { metrics.RegistrationOps.WithLabelValues("register", outcome(err)).Inc() }()

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, s.storeErr("get event", err)
	}
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	reg, count, err := s.events.AddParticipant(ctx, eventID, userID)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("event_id", eventID).
			Str("user_id", userID).
			Msg("registration rejected")
		return nil, s.storeErr("register for event", err)
	}

	s.logger.Info().
		Str("event_id", eventID).
		Str("user_id", userID).
		Int("participants", count).
		Msg("user registered for event")
	s.notifier.Notify(ctx, notify.RegistrationConfirmed(event, user))

	return &model.RegistrationResult{
		EventID:          eventID,
		UserID:           userID,
		Status:           reg.Status,
		RegisteredAt:     reg.RegisteredAt,
		ParticipantCount: count,
	}, nil
}

// Unregister removes userID from the event's participants.
func (s *RegistrationService) Unregister(ctx context.Context, eventID, userID string) (result *model.RegistrationResult, err error) {
	defer func() { metrics.RegistrationOps.WithLabelValues("unregister", outcome(err)).Inc() }()

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, s.storeErr("get event", err)
	}

	count, err := s.events.RemoveParticipant(ctx, eventID, userID)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("event_id", eventID).
			Str("user_id", userID).
			Msg("unregistration rejected")
		return nil, s.storeErr("unregister from event", err)
	}

	s.logger.Info().
		Str("event_id", eventID).
		Str("user_id", userID).
		Int("participants", count).
		Msg("user unregistered from event")

	if user, err := s.users.FindUserByID(ctx, userID); err == nil {
		s.notifier.Notify(ctx, notify.RegistrationCancelled(event, user))
	} else {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("skipping unregistration notification")
	}

	return &model.RegistrationResult{
		EventID:          eventID,
		UserID:           userID,
		Status:           model.RegistrationCancelled,
		ParticipantCount: count,
	}, nil
}

// IsRegistered reports whether userID holds an active registration for the event.
func (s *RegistrationService) IsRegistered(ctx context.Context, eventID, userID string) (bool, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return false, s.storeErr("get event", err)
	}
	return event.HasParticipant(userID), nil
}

// ParticipantCount returns the number of active participants of the event.
func (s *RegistrationService) ParticipantCount(ctx context.Context, eventID string) (int, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return 0, s.storeErr("get event", err)
	}
	return event.ParticipantCount(), nil
}

// ListParticipants returns the event's participants in registration order.
func (s *RegistrationService) ListParticipants(ctx context.Context, eventID string) ([]model.Participant, error) {
	return listParticipants(ctx, s.events, s.users, eventID, s.logger)
}

// ListRegisteredEvents returns the events userID is registered for.
func (s *RegistrationService) ListRegisteredEvents(ctx context.Context, userID string) ([]model.Event, error) {
	events, err := s.events.ListEventsByParticipant(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list registered events: %w", err)
	}
	return events, nil
}

// storeErr passes the registration state errors through unchanged so
// handlers can match them, and wraps anything else.
func (s *RegistrationService) storeErr(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrAlreadyRegistered),
		errors.Is(err, repository.ErrNotRegistered),
		errors.Is(err, repository.ErrCapacityExceeded):
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

// listParticipants resolves the event's registrations against the identity
// store. A registration whose user no longer exists is skipped.
func listParticipants(
	ctx context.Context,
	events repository.EventStore,
	users repository.UserStore,
	eventID string,
	logger zerolog.Logger,
) ([]model.Participant, error) {
	regs, err := events.ListRegistrations(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	participants := make([]model.Participant, 0, len(regs))
	for _, reg := range regs {
		u, err := users.FindUserByID(ctx, reg.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				logger.Warn().Str("event_id", eventID).Str("user_id", reg.UserID).Msg("skipping dangling participant")
				continue
			}
			return nil, fmt.Errorf("get participant: %w", err)
		}
		participants = append(participants, model.Participant{
			UserID:       u.ID,
			Name:         u.Name,
			Email:        u.Email,
			Role:         u.Role,
			RegisteredAt: reg.RegisteredAt,
		})
	}
	return participants, nil
}
