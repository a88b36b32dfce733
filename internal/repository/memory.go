package repository

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/event-management/internal/model"
	"github.com/google/uuid"
)

// eventEntry is one row of the in-memory events table. Its mutex serialises
// every read-check-write on the event; void is set under that mutex when the
// event is deleted so that operations already holding the entry observe it.
type eventEntry struct {
	mu    sync.Mutex
	event *model.Event
	regs  map[string]*model.Registration
	void  bool
}

// MemoryStore is an in-process implementation of Store.
//
// The events map lock is held only to find, insert or remove entries; all
// participant changes happen under the per-event lock so distinct events
// never contend.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string]*eventEntry
	order  []string

	usersMu sync.RWMutex
	users   map[string]*model.User
	byEmail map[string]string

	now func() time.Time
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:  make(map[string]*eventEntry),
		users:   make(map[string]*model.User),
		byEmail: make(map[string]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ─── Users ────────────────────────────────────────────────────────────────────

// CreateUser inserts user, keyed case-insensitively by email.
func (s *MemoryStore) CreateUser(_ context.Context, user *model.User) error {
	email := strings.ToLower(strings.TrimSpace(user.Email))

	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return ErrEmailTaken
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	user.Email = email

	stored := *user
	s.users[stored.ID] = &stored
	s.byEmail[email] = stored.ID
	return nil
}

// FindUserByID returns a user or ErrNotFound.
func (s *MemoryStore) FindUserByID(_ context.Context, id string) (*model.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

// FindUserByEmail returns a user or ErrNotFound.
func (s *MemoryStore) FindUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, ErrNotFound
	}
	out := *s.users[id]
	return &out, nil
}

// ─── Events ───────────────────────────────────────────────────────────────────

// CreateEvent stores a new event, assigning an id and timestamps when unset.
func (s *MemoryStore) CreateEvent(_ context.Context, event *model.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	now := s.now()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = event.CreatedAt
	event.Participants = []string{}

	entry := &eventEntry{
		event: event.Clone(),
		regs:  make(map[string]*model.Registration),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ID] = entry
	s.order = append(s.order, event.ID)
	return nil
}

func (s *MemoryStore) entry(id string) (*eventEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	return e, ok
}

// lock returns the live entry for id with its mutex held.
func (s *MemoryStore) lock(id string) (*eventEntry, error) {
	e, ok := s.entry(id)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	if e.void {
		e.mu.Unlock()
		return nil, ErrNotFound
	}
	return e, nil
}

// GetEvent returns a snapshot of the event or ErrNotFound.
func (s *MemoryStore) GetEvent(_ context.Context, id string) (*model.Event, error) {
	e, err := s.lock(id)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()
	return e.event.Clone(), nil
}

// ListEvents returns all events in insertion order.
func (s *MemoryStore) ListEvents(_ context.Context) ([]model.Event, error) {
	return s.filter(func(*eventEntry) bool { return true }), nil
}

// ListEventsByOrganizer returns the events owned by organizerID.
func (s *MemoryStore) ListEventsByOrganizer(_ context.Context, organizerID string) ([]model.Event, error) {
	return s.filter(func(e *eventEntry) bool { return e.event.OrganizerID == organizerID }), nil
}

// ListEventsByParticipant returns the events userID is registered for.
func (s *MemoryStore) ListEventsByParticipant(_ context.Context, userID string) ([]model.Event, error) {
	return s.filter(func(e *eventEntry) bool {
		_, ok := e.regs[userID]
		return ok
	}), nil
}

// filter snapshots the entry list, then evaluates keep under each entry's lock.
func (s *MemoryStore) filter(keep func(*eventEntry) bool) []model.Event {
	s.mu.RLock()
	entries := make([]*eventEntry, 0, len(s.order))
	for _, id := range s.order {
		entries = append(entries, s.events[id])
	}
	s.mu.RUnlock()

	out := []model.Event{}
	for _, e := range entries {
		e.mu.Lock()
		if !e.void && keep(e) {
			out = append(out, *e.event.Clone())
		}
		e.mu.Unlock()
	}
	return out
}

// UpdateEvent applies mutate to a copy of the event under the event's lock.
func (s *MemoryStore) UpdateEvent(_ context.Context, id string, mutate func(*model.Event) error) (*model.Event, error) {
	e, err := s.lock(id)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	next := e.event.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	preserveImmutable(e.event, next)
	next.Participants = append([]string(nil), e.event.Participants...)
	next.UpdatedAt = s.touch(e.event)

	e.event = next
	return next.Clone(), nil
}

// DeleteEvent removes the event once guard accepts it. Registrations go with it.
func (s *MemoryStore) DeleteEvent(_ context.Context, id string, guard func(*model.Event) error) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.void {
		return nil, ErrNotFound
	}

	snapshot := e.event.Clone()
	if guard != nil {
		if err := guard(snapshot); err != nil {
			return nil, err
		}
	}

	e.void = true
	e.regs = nil
	delete(s.events, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return snapshot, nil
}

// AddParticipant performs the duplicate and capacity checks and the insert
// as one step under the event's lock.
func (s *MemoryStore) AddParticipant(_ context.Context, eventID, userID string) (*model.Registration, int, error) {
	e, err := s.lock(eventID)
	if err != nil {
		return nil, 0, err
	}
	defer e.mu.Unlock()

	if _, ok := e.regs[userID]; ok {
		return nil, len(e.event.Participants), ErrAlreadyRegistered
	}
	if e.event.IsFull() {
		return nil, len(e.event.Participants), ErrCapacityExceeded
	}

	now := s.touch(e.event)
	reg := &model.Registration{
		ID:           uuid.New().String(),
		EventID:      eventID,
		UserID:       userID,
		Status:       model.RegistrationActive,
		RegisteredAt: now,
	}
	e.regs[userID] = reg
	e.event.Participants = append(e.event.Participants, userID)
	e.event.UpdatedAt = now

	out := *reg
	return &out, len(e.event.Participants), nil
}

// RemoveParticipant drops userID's registration under the event's lock.
func (s *MemoryStore) RemoveParticipant(_ context.Context, eventID, userID string) (int, error) {
	e, err := s.lock(eventID)
	if err != nil {
		return 0, err
	}
	defer e.mu.Unlock()

	if _, ok := e.regs[userID]; !ok {
		return len(e.event.Participants), ErrNotRegistered
	}

	delete(e.regs, userID)
	e.event.Participants = slices.DeleteFunc(e.event.Participants, func(v string) bool { return v == userID })
	e.event.UpdatedAt = s.touch(e.event)
	return len(e.event.Participants), nil
}

// ListRegistrations returns the active registrations in participant order.
func (s *MemoryStore) ListRegistrations(_ context.Context, eventID string) ([]model.Registration, error) {
	e, err := s.lock(eventID)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	regs := make([]model.Registration, 0, len(e.event.Participants))
	for _, userID := range e.event.Participants {
		if r, ok := e.regs[userID]; ok {
			regs = append(regs, *r)
		}
	}
	return regs, nil
}

// touch returns the next UpdatedAt value for ev, never earlier than the current one.
func (s *MemoryStore) touch(ev *model.Event) time.Time {
	now := s.now()
	if now.Before(ev.UpdatedAt) {
		return ev.UpdatedAt
	}
	return now
}
