package notify

import (
	"fmt"

	"github.com/Shivanand-hulikatti/event-management/internal/model"
)

// Welcome greets a newly created account.
func Welcome(u *model.User) Notification {
	return Notification{
		Kind:      KindWelcome,
		Recipient: u.Email,
		Subject:   "Welcome to Events",
		Body:      fmt.Sprintf("Hi %s, your %s account is ready.", u.Name, u.Role),
		Data:      map[string]string{"user_id": u.ID},
	}
}

// EventCreated confirms a new event to its organizer.
func EventCreated(e *model.Event, organizer *model.User) Notification {
	return Notification{
		Kind:      KindEventCreated,
		Recipient: organizer.Email,
		Subject:   fmt.Sprintf("Event created: %s", e.Title),
		Body:      fmt.Sprintf("Your event %q on %s at %s (%s) has been created.", e.Title, e.Date, e.Time, e.Location),
		Data:      eventData(e),
	}
}

// EventUpdated tells a participant that an event they joined changed.
func EventUpdated(e *model.Event, recipient *model.User) Notification {
	return Notification{
		Kind:      KindEventUpdated,
		Recipient: recipient.Email,
		Subject:   fmt.Sprintf("Event updated: %s", e.Title),
		Body:      fmt.Sprintf("Hi %s, %q is now on %s at %s (%s), status %s.", recipient.Name, e.Title, e.Date, e.Time, e.Location, e.Status),
		Data:      eventData(e),
	}
}

// EventCancelled tells a participant that an event they joined was deleted.
func EventCancelled(e *model.Event, recipient *model.User) Notification {
	return Notification{
		Kind:      KindEventCancelled,
		Recipient: recipient.Email,
		Subject:   fmt.Sprintf("Event cancelled: %s", e.Title),
		Body:      fmt.Sprintf("Hi %s, %q on %s has been cancelled.", recipient.Name, e.Title, e.Date),
		Data:      eventData(e),
	}
}

// RegistrationConfirmed confirms a successful registration.
func RegistrationConfirmed(e *model.Event, u *model.User) Notification {
	return Notification{
		Kind:      KindRegistrationConfirmed,
		Recipient: u.Email,
		Subject:   fmt.Sprintf("You're registered: %s", e.Title),
		Body:      fmt.Sprintf("Hi %s, you are registered for %q on %s at %s (%s).", u.Name, e.Title, e.Date, e.Time, e.Location),
		Data:      eventData(e),
	}
}

// RegistrationCancelled confirms an unregistration.
func RegistrationCancelled(e *model.Event, u *model.User) Notification {
	return Notification{
		Kind:      KindRegistrationCancelled,
		Recipient: u.Email,
		Subject:   fmt.Sprintf("Registration cancelled: %s", e.Title),
		Body:      fmt.Sprintf("Hi %s, you are no longer registered for %q.", u.Name, e.Title),
		Data:      eventData(e),
	}
}

func eventData(e *model.Event) map[string]string {
	return map[string]string{"event_id": e.ID, "title": e.Title}
}
