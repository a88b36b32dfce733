package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/event-management/internal/auth"
	"github.com/Shivanand-hulikatti/event-management/internal/notify"
	"github.com/Shivanand-hulikatti/event-management/internal/repository"
	"github.com/Shivanand-hulikatti/event-management/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type apiResponse struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
}

type testServer struct {
	t   *testing.T
	srv *httptest.Server
}

func newTestServer(t *testing.T, authRatePerMinute int) *testServer {
	t.Helper()

	logger := zerolog.New(io.Discard)
	store := repository.NewMemoryStore()
	tokens := auth.NewJWTManager("test-secret", time.Hour, "test")
	notifier := notify.Discard{}

	h := New(
		service.NewEventService(store, store, notifier, logger),
		service.NewRegistrationService(store, store, notifier, logger),
		service.NewAccountService(store, auth.NewPasswordHasher(bcrypt.MinCost), tokens, notifier, logger),
		logger,
	)
	srv := httptest.NewServer(NewRouter(h, RouterConfig{
		Tokens:            tokens,
		AuthRatePerMinute: authRatePerMinute,
		Logger:            logger,
	}))
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv}
}

func (s *testServer) do(method, path, token string, body any) (int, apiResponse) {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, reader)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.srv.Client().Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var out apiResponse
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

// signUp creates an account and returns its id and a token.
func (s *testServer) signUp(name, role string) (string, string) {
	s.t.Helper()

	status, _ := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": name + "@example.com", "password": "password123", "name": name, "role": role,
	})
	require.Equal(s.t, http.StatusCreated, status)

	status, resp := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": name + "@example.com", "password": "password123",
	})
	require.Equal(s.t, http.StatusOK, status)

	var login struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
	require.NoError(s.t, json.Unmarshal(resp.Data, &login))
	return login.UserID, login.Token
}

func (s *testServer) createEvent(token string, body map[string]any) string {
	s.t.Helper()
	status, resp := s.do(http.MethodPost, "/api/events", token, body)
	require.Equal(s.t, http.StatusCreated, status, resp.Error)

	var e struct {
		ID string `json:"id"`
	}
	require.NoError(s.t, json.Unmarshal(resp.Data, &e))
	return e.ID
}

func meetup(capacity int) map[string]any {
	body := map[string]any{"title": "Go Meetup", "date": "2026-11-01", "time": "18:30"}
	if capacity > 0 {
		body["max_participants"] = capacity
	}
	return body
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, 0)
	status, resp := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEventsRequireToken(t *testing.T) {
	s := newTestServer(t, 0)

	status, resp := s.do(http.MethodGet, "/api/events", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	status, _ = s.do(http.MethodGet, "/api/events", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSignUpAndLoginErrors(t *testing.T) {
	s := newTestServer(t, 0)
	s.signUp("dana", "attendee")

	status, resp := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "DANA@example.com", "password": "password123", "name": "Dana",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, repository.ErrEmailTaken.Error(), resp.Error)

	status, _ = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "nope", "password": "1", "name": "",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "dana@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "eve@example.com", "password": "password123", "name": "Eve", "admin": true,
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCreateEventStatusMapping(t *testing.T) {
	s := newTestServer(t, 0)
	_, orgToken := s.signUp("olga", "organizer")
	_, attToken := s.signUp("alice", "attendee")

	id := s.createEvent(orgToken, meetup(5))
	assert.NotEmpty(t, id)

	status, _ := s.do(http.MethodPost, "/api/events", attToken, meetup(5))
	assert.Equal(t, http.StatusForbidden, status)

	status, resp := s.do(http.MethodPost, "/api/events", orgToken, map[string]any{"title": "No Date", "time": "10:00"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, resp.Error, "date")

	status, _ = s.do(http.MethodGet, "/api/events/missing", orgToken, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, resp = s.do(http.MethodGet, "/api/events", attToken, nil)
	require.Equal(t, http.StatusOK, status)
	var events []map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &events))
	assert.Len(t, events, 1)
}

func TestRegistrationFlow(t *testing.T) {
	s := newTestServer(t, 0)
	_, orgToken := s.signUp("olga", "organizer")
	aliceID, aliceToken := s.signUp("alice", "attendee")
	_, bobToken := s.signUp("bob", "attendee")
	id := s.createEvent(orgToken, meetup(1))

	status, resp := s.do(http.MethodPost, "/api/events/"+id+"/register", aliceToken, nil)
	require.Equal(t, http.StatusCreated, status)
	var res struct {
		UserID           string `json:"user_id"`
		ParticipantCount int    `json:"participant_count"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &res))
	assert.Equal(t, aliceID, res.UserID)
	assert.Equal(t, 1, res.ParticipantCount)

	status, resp = s.do(http.MethodPost, "/api/events/"+id+"/register", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, repository.ErrAlreadyRegistered.Error(), resp.Error)

	status, resp = s.do(http.MethodPost, "/api/events/"+id+"/register", bobToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, repository.ErrCapacityExceeded.Error(), resp.Error)

	status, resp = s.do(http.MethodDelete, "/api/events/"+id+"/register", bobToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, repository.ErrNotRegistered.Error(), resp.Error)

	status, resp = s.do(http.MethodGet, "/api/events/"+id+"/participants", bobToken, nil)
	require.Equal(t, http.StatusOK, status)
	var list participantList
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.Equal(t, 1, list.Count)
	require.Len(t, list.Participants, 1)
	assert.Equal(t, "alice@example.com", list.Participants[0].Email)

	status, resp = s.do(http.MethodGet, "/api/events/my/registered", aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	var mine []map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, id, mine[0]["id"])

	status, _ = s.do(http.MethodDelete, "/api/events/"+id+"/register", aliceToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(http.MethodPost, "/api/events/"+id+"/register", bobToken, nil)
	assert.Equal(t, http.StatusCreated, status)

	status, _ = s.do(http.MethodPost, "/api/events/missing/register", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUpdateAndDeleteOwnership(t *testing.T) {
	s := newTestServer(t, 0)
	_, ownerToken := s.signUp("owner", "organizer")
	_, otherToken := s.signUp("other", "organizer")
	id := s.createEvent(ownerToken, meetup(0))

	patch := map[string]any{"title": "Renamed Meetup"}

	status, _ := s.do(http.MethodPut, "/api/events/"+id, otherToken, patch)
	assert.Equal(t, http.StatusForbidden, status)

	status, resp := s.do(http.MethodPut, "/api/events/"+id, ownerToken, patch)
	require.Equal(t, http.StatusOK, status)
	var updated map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &updated))
	assert.Equal(t, "Renamed Meetup", updated["title"])

	status, _ = s.do(http.MethodPut, "/api/events/"+id, ownerToken, map[string]any{"organizer_id": "someone"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp = s.do(http.MethodGet, "/api/events/my/organized", otherToken, nil)
	require.Equal(t, http.StatusOK, status)
	var organized []map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &organized))
	assert.Empty(t, organized)

	status, _ = s.do(http.MethodDelete, "/api/events/"+id, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(http.MethodDelete, "/api/events/"+id, ownerToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(http.MethodGet, "/api/events/"+id, ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestEventCapacityFieldNames(t *testing.T) {
	s := newTestServer(t, 0)
	_, token := s.signUp("olga", "organizer")
	id := s.createEvent(token, meetup(5))

	status, resp := s.do(http.MethodPut, "/api/events/"+id, token, map[string]any{"max_participants": 8})
	require.Equal(t, http.StatusOK, status, resp.Error)
	var updated map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &updated))
	assert.EqualValues(t, 8, updated["max_participants"])
	assert.Equal(t, id, updated["id"])
	assert.NotEmpty(t, updated["organizer_id"])

	status, resp = s.do(http.MethodPut, "/api/events/"+id, token, map[string]any{"clear_max_participants": true})
	require.Equal(t, http.StatusOK, status, resp.Error)
	updated = nil
	require.NoError(t, json.Unmarshal(resp.Data, &updated))
	assert.Nil(t, updated["max_participants"])

	status, _ = s.do(http.MethodPut, "/api/events/"+id, token, map[string]any{"maxParticipants": 3})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAuthRateLimit(t *testing.T) {
	s := newTestServer(t, 2)
	body := map[string]string{"email": "nobody@example.com", "password": "password123"}

	for range 2 {
		status, _ := s.do(http.MethodPost, "/api/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, status)
	}
	status, resp := s.do(http.MethodPost, "/api/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, 0)

	req, err := http.NewRequest(http.MethodOptions, s.srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := s.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
