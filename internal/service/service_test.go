package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/event-management/internal/auth"
	"github.com/Shivanand-hulikatti/event-management/internal/model"
	"github.com/Shivanand-hulikatti/event-management/internal/notify"
	"github.com/Shivanand-hulikatti/event-management/internal/repository"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
}

func (n *recordingNotifier) kinds() []notify.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notify.Kind, 0, len(n.sent))
	for _, m := range n.sent {
		out = append(out, m.Kind)
	}
	return out
}

func (n *recordingNotifier) recipients(kind notify.Kind) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, m := range n.sent {
		if m.Kind == kind {
			out = append(out, m.Recipient)
		}
	}
	return out
}

type testEnv struct {
	store         *repository.MemoryStore
	notifier      *recordingNotifier
	events        *EventService
	registrations *RegistrationService
	accounts      *AccountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	notifier := &recordingNotifier{}
	logger := zerolog.Nop()
	return &testEnv{
		store:         store,
		notifier:      notifier,
		events:        NewEventService(store, store, notifier, logger),
		registrations: NewRegistrationService(store, store, notifier, logger),
		accounts: NewAccountService(store,
			auth.NewPasswordHasher(bcrypt.MinCost),
			auth.NewJWTManager("secret", time.Hour, "test"),
			notifier, logger),
	}
}

func (env *testEnv) user(t *testing.T, name string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{Email: name + "@example.com", Name: name, Role: role, PasswordHash: "x"}
	require.NoError(t, env.store.CreateUser(context.Background(), u))
	return u
}

func (env *testEnv) event(t *testing.T, organizerID string, maxParticipants *int) *model.Event {
	t.Helper()
	e, err := env.events.CreateEvent(context.Background(), model.CreateEventRequest{
		Title:           "Go Meetup",
		Description:     "Monthly meetup",
		Date:            "2026-11-01",
		Time:            "18:30",
		MaxParticipants: maxParticipants,
	}, organizerID)
	require.NoError(t, err)
	return e
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }
