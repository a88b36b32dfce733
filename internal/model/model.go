// Package model defines the core domain types for the event management system.
package model

import "time"

// Role is the capability tag carried by every user.
type Role string

const (
	RoleOrganizer Role = "organizer"
	RoleAttendee  Role = "attendee"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleOrganizer || r == RoleAttendee
}

// EventStatus is the lifecycle status of an event.
type EventStatus string

const (
	StatusScheduled EventStatus = "scheduled"
	StatusOngoing   EventStatus = "ongoing"
	StatusCompleted EventStatus = "completed"
	StatusCancelled EventStatus = "cancelled"
)

// Valid reports whether s is a known event status.
func (s EventStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusOngoing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// RegistrationStatus is the lifecycle status of a registration record.
type RegistrationStatus string

const (
	RegistrationActive    RegistrationStatus = "registered"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

// DefaultLocation is used when an event is created without a location.
const DefaultLocation = "Virtual"

// User is an account that can organize or attend events.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal is the authenticated caller as derived by the access gate.
type Principal struct {
	UserID string
	Role   Role
}

// Event represents an event created by an organizer.
// Participants holds user ids in registration order.
type Event struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Date            string      `json:"date"`
	Time            string      `json:"time"`
	Location        string      `json:"location"`
	OrganizerID     string      `json:"organizer_id"`
	MaxParticipants *int        `json:"max_participants"`
	Participants    []string    `json:"participants"`
	Status          EventStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// ParticipantCount returns the number of active participants.
func (e *Event) ParticipantCount() int {
	return len(e.Participants)
}

// HasParticipant reports whether userID holds an active registration.
func (e *Event) HasParticipant(userID string) bool {
	for _, id := range e.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// IsFull returns true when the event has a capacity and it is reached.
func (e *Event) IsFull() bool {
	return e.MaxParticipants != nil && len(e.Participants) >= *e.MaxParticipants
}

// Clone returns a deep copy so callers never share the participant slice.
func (e *Event) Clone() *Event {
	c := *e
	c.Participants = append([]string(nil), e.Participants...)
	if e.MaxParticipants != nil {
		n := *e.MaxParticipants
		c.MaxParticipants = &n
	}
	return &c
}

// Registration is one user's relationship to one event.
type Registration struct {
	ID           string             `json:"id"`
	EventID      string             `json:"event_id"`
	UserID       string             `json:"user_id"`
	Status       RegistrationStatus `json:"status"`
	RegisteredAt time.Time          `json:"registered_at"`
	CancelledAt  *time.Time         `json:"cancelled_at,omitempty"`
}

// Participant is the listing view of a registered user.
type Participant struct {
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	RegisteredAt time.Time `json:"registered_at"`
}

// OrganizerSummary is the public view of an event's owner.
type OrganizerSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// EventDetails is an event together with its organizer and participants.
type EventDetails struct {
	Event
	Organizer          *OrganizerSummary `json:"organizer,omitempty"`
	ParticipantDetails []Participant     `json:"participant_details"`
}

// RegistrationResult summarises the outcome of a register or unregister call.
type RegistrationResult struct {
	EventID          string             `json:"event_id"`
	UserID           string             `json:"user_id"`
	Status           RegistrationStatus `json:"status"`
	RegisteredAt     time.Time          `json:"registered_at,omitzero"`
	ParticipantCount int                `json:"participant_count"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title           string      `json:"title" validate:"required,min=3,max=200"`
	Description     string      `json:"description" validate:"max=5000"`
	Date            string      `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string      `json:"time" validate:"required,datetime=15:04"`
	Location        string      `json:"location" validate:"max=300"`
	MaxParticipants *int        `json:"max_participants" validate:"omitempty,gt=0"`
	Status          EventStatus `json:"status" validate:"omitempty,oneof=scheduled ongoing completed cancelled"`
}

// UpdateEventRequest is a partial update; nil fields are left untouched.
// ClearMaxParticipants removes the capacity limit.
type UpdateEventRequest struct {
	Title                *string      `json:"title" validate:"omitempty,min=3,max=200"`
	Description          *string      `json:"description" validate:"omitempty,max=5000"`
	Date                 *string      `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time                 *string      `json:"time" validate:"omitempty,datetime=15:04"`
	Location             *string      `json:"location" validate:"omitempty,max=300"`
	MaxParticipants      *int         `json:"max_participants" validate:"omitempty,gt=0"`
	ClearMaxParticipants bool         `json:"clear_max_participants"`
	Status               *EventStatus `json:"status" validate:"omitempty,oneof=scheduled ongoing completed cancelled"`
}

// SignUpRequest is the payload for creating an account.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name" validate:"required,max=100"`
	Role     Role   `json:"role" validate:"omitempty,oneof=organizer attendee"`
}

// LoginRequest is the payload for exchanging credentials for a token.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult carries the issued token and the user it belongs to.
type LoginResult struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}

// Envelope is the standard JSON response wrapper.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
}

// ErrorResponse is the standard JSON error envelope.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error,omitempty"`
}
