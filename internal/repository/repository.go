// Package repository implements persistence for users, events and registrations.
//
// Two backends satisfy the same contract: MemoryStore, which keeps its tables
// in process memory, and PostgresStore, which uses pgx directly (no ORM).
// Both enforce the capacity and uniqueness rules atomically with the mutation
// that could break them, serialised per event.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-management/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrCapacityExceeded is returned when an event has no remaining capacity.
var ErrCapacityExceeded = errors.New("event is at maximum capacity")

// ErrAlreadyRegistered is returned when the same user registers twice.
var ErrAlreadyRegistered = errors.New("user already registered for this event")

// ErrNotRegistered is returned when unregistering a user that holds no registration.
var ErrNotRegistered = errors.New("user not registered for this event")

// ErrEmailTaken is returned when creating a user whose email already exists.
var ErrEmailTaken = errors.New("email already registered")

// StorageError wraps a failure of the underlying store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// UserStore is the identity store.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	FindUserByID(ctx context.Context, id string) (*model.User, error)
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// EventStore owns event records and their participant membership.
//
// Returned events are snapshots; mutating them has no effect on the store.
type EventStore interface {
	CreateEvent(ctx context.Context, event *model.Event) error
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	ListEventsByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error)
	ListEventsByParticipant(ctx context.Context, userID string) ([]model.Event, error)

	// UpdateEvent runs mutate against a copy of the event while holding the
	// event's lock and persists the result. If mutate returns an error nothing
	// is written. ID, OrganizerID, Participants and CreatedAt are not
	// writable through mutate; UpdatedAt is set by the store.
	UpdateEvent(ctx context.Context, id string, mutate func(*model.Event) error) (*model.Event, error)

	// DeleteEvent removes the event and all of its registrations once guard
	// accepts it. It returns the event as it was just before deletion.
	DeleteEvent(ctx context.Context, id string, guard func(*model.Event) error) (*model.Event, error)

	// AddParticipant registers userID for the event: ErrNotFound,
	// ErrAlreadyRegistered or ErrCapacityExceeded on failure, otherwise the
	// new registration and the resulting participant count.
	AddParticipant(ctx context.Context, eventID, userID string) (*model.Registration, int, error)

	// RemoveParticipant cancels userID's active registration: ErrNotFound or
	// ErrNotRegistered on failure, otherwise the resulting participant count.
	RemoveParticipant(ctx context.Context, eventID, userID string) (int, error)

	// ListRegistrations returns the event's active registrations in the
	// order they were made.
	ListRegistrations(ctx context.Context, eventID string) ([]model.Registration, error)
}

// Store is the full persistence contract used by the services.
type Store interface {
	UserStore
	EventStore
}

// preserveImmutable copies the fields mutate may not change from orig to next.
func preserveImmutable(orig, next *model.Event) {
	next.ID = orig.ID
	next.OrganizerID = orig.OrganizerID
	next.Participants = orig.Participants
	next.CreatedAt = orig.CreatedAt
}
