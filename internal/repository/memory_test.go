package repository

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/event-management/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newEvent(t *testing.T, s *MemoryStore, organizerID string, maxParticipants *int) *model.Event {
	t.Helper()
	e := &model.Event{
		Title:           "Storage Test",
		Date:            "2026-11-01",
		Time:            "09:00",
		Location:        model.DefaultLocation,
		OrganizerID:     organizerID,
		MaxParticipants: maxParticipants,
		Status:          model.StatusScheduled,
	}
	require.NoError(t, s.CreateEvent(context.Background(), e))
	return e
}

func capacity(n int) *int { return &n }

func TestMemoryUsers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	u := &model.User{Email: " Ann@Example.COM", Name: "Ann", Role: model.RoleAttendee}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ann@example.com", u.Email)

	got, err := s.FindUserByEmail(ctx, "ANN@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got.Name = "changed"
	again, err := s.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", again.Name)

	err = s.CreateUser(ctx, &model.User{Email: "ann@EXAMPLE.com", Name: "Other", Role: model.RoleAttendee})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = s.FindUserByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.FindUserByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryGetEventReturnsSnapshot(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	e := newEvent(t, s, "org", capacity(3))

	_, _, err := s.AddParticipant(ctx, e.ID, "u1")
	require.NoError(t, err)

	snap, err := s.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	snap.Participants[0] = "intruder"
	*snap.MaxParticipants = 100

	fresh, err := s.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, fresh.Participants)
	assert.Equal(t, 3, *fresh.MaxParticipants)
}

func TestMemoryAddRemoveParticipant(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	e := newEvent(t, s, "org", capacity(2))

	reg, n, err := s.AddParticipant(ctx, e.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, model.RegistrationActive, reg.Status)
	assert.Equal(t, e.ID, reg.EventID)

	_, n, err = s.AddParticipant(ctx, e.ID, "u1")
	require.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.Equal(t, 1, n)

	_, _, err = s.AddParticipant(ctx, e.ID, "u2")
	require.NoError(t, err)
	_, n, err = s.AddParticipant(ctx, e.ID, "u3")
	require.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 2, n)

	n, err = s.RemoveParticipant(ctx, e.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.RemoveParticipant(ctx, e.ID, "u1")
	require.ErrorIs(t, err, ErrNotRegistered)

	regs, err := s.ListRegistrations(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, "u2", regs[0].UserID)

	_, _, err = s.AddParticipant(ctx, "missing", "u1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.RemoveParticipant(ctx, "missing", "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUpdateEventKeepsImmutableFields(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	e := newEvent(t, s, "org", nil)
	_, _, err := s.AddParticipant(ctx, e.ID, "u1")
	require.NoError(t, err)

	updated, err := s.UpdateEvent(ctx, e.ID, func(ev *model.Event) error {
		ev.Title = "New Title"
		ev.ID = "hijacked"
		ev.OrganizerID = "someone-else"
		ev.Participants = nil
		ev.CreatedAt = time.Time{}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "New Title", updated.Title)
	assert.Equal(t, e.ID, updated.ID)
	assert.Equal(t, "org", updated.OrganizerID)
	assert.Equal(t, []string{"u1"}, updated.Participants)
	assert.Equal(t, e.CreatedAt, updated.CreatedAt)
}

func TestMemoryUpdateEventAbortsOnMutateError(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	e := newEvent(t, s, "org", nil)
	boom := errors.New("boom")

	_, err := s.UpdateEvent(ctx, e.ID, func(ev *model.Event) error {
		ev.Title = "Should Not Persist"
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Storage Test", got.Title)
	assert.Equal(t, e.UpdatedAt, got.UpdatedAt)

	_, err = s.UpdateEvent(ctx, "missing", func(*model.Event) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUpdatedAtNeverMovesBackwards(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	e := newEvent(t, s, "org", nil)

	s.now = func() time.Time { return base.Add(-time.Hour) }
	updated, err := s.UpdateEvent(ctx, e.ID, func(ev *model.Event) error {
		ev.Title = "Clock Skew"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, base, updated.UpdatedAt)

	s.now = func() time.Time { return base.Add(time.Minute) }
	_, _, err = s.AddParticipant(ctx, e.ID, "u1")
	require.NoError(t, err)
	got, err := s.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, base.Add(time.Minute), got.UpdatedAt)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
}

func TestMemoryDeleteEvent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	a := newEvent(t, s, "org", nil)
	b := newEvent(t, s, "org", nil)
	c := newEvent(t, s, "org", nil)
	_, _, err := s.AddParticipant(ctx, b.ID, "u1")
	require.NoError(t, err)

	denied := errors.New("denied")
	_, err = s.DeleteEvent(ctx, b.ID, func(*model.Event) error { return denied })
	require.ErrorIs(t, err, denied)

	snap, err := s.DeleteEvent(ctx, b.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, snap.Participants)

	events, err := s.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, a.ID, events[0].ID)
	assert.Equal(t, c.ID, events[1].ID)

	mine, err := s.ListEventsByParticipant(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, mine)

	_, err = s.DeleteEvent(ctx, b.ID, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.ListRegistrations(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryListFilters(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	a := newEvent(t, s, "o1", nil)
	newEvent(t, s, "o2", nil)
	c := newEvent(t, s, "o1", nil)
	_, _, err := s.AddParticipant(ctx, c.ID, "u1")
	require.NoError(t, err)

	byOrg, err := s.ListEventsByOrganizer(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, byOrg, 2)
	assert.Equal(t, a.ID, byOrg[0].ID)
	assert.Equal(t, c.ID, byOrg[1].ID)

	byUser, err := s.ListEventsByParticipant(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, c.ID, byUser[0].ID)

	none, err := s.ListEventsByOrganizer(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMemoryConcurrentCapacity(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	e := newEvent(t, s, "org", capacity(10))

	var admitted atomic.Int32
	var g errgroup.Group
	for i := range 200 {
		g.Go(func() error {
			_, _, err := s.AddParticipant(ctx, e.ID, fmt.Sprintf("u%d", i))
			switch {
			case err == nil:
				admitted.Add(1)
				return nil
			case errors.Is(err, ErrCapacityExceeded):
				return nil
			default:
				return err
			}
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(10), admitted.Load())
	regs, err := s.ListRegistrations(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, regs, 10)
}

func TestMemoryConcurrentUpdateAndRegister(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	e := newEvent(t, s, "org", capacity(50))

	var g errgroup.Group
	for i := range 50 {
		g.Go(func() error {
			_, _, err := s.AddParticipant(ctx, e.ID, fmt.Sprintf("u%d", i))
			return err
		})
		g.Go(func() error {
			_, err := s.UpdateEvent(ctx, e.ID, func(ev *model.Event) error {
				ev.Description = fmt.Sprintf("revision %d", i)
				return nil
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	got, err := s.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, got.Participants, 50)
}
