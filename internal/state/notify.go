package state

import (
	"time"

	"github.com/google/uuid"
)

// DefaultNotificationTTL is how long a notification stays visible.
const DefaultNotificationTTL = 5 * time.Second

// Severity classifies a notification.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Notification is a transient message raised by an operation.
type Notification struct {
	ID        uuid.UUID
	Message   string
	Severity  Severity
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether n is no longer visible at now.
func (n Notification) Expired(now time.Time) bool {
	return !now.Before(n.ExpiresAt)
}

// Notify records a notification and returns it.
func (s *State) Notify(severity Severity, message string) Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notifyLocked(severity, message)
}

func (s *State) notifyLocked(severity Severity, message string) Notification {
	now := s.now()
	n := Notification{
		ID:        uuid.New(),
		Message:   message,
		Severity:  severity,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.pruneLocked(now)
	// Copy so snapshots handed out earlier keep their contents.
	next := make([]Notification, len(s.notifications), len(s.notifications)+1)
	copy(next, s.notifications)
	s.notifications = append(next, n)

	ev := s.log.Debug()
	if severity == SeverityError {
		ev = s.log.Warn()
	}
	ev.Str("severity", string(severity)).Msg(message)
	return n
}

// Notifications returns the unexpired notifications, oldest first.
func (s *State) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.now())
	return s.notifications
}

// RemoveNotification drops the notification with the given id. It reports
// whether one was found.
func (s *State) RemoveNotification(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notifications {
		if n.ID == id {
			next := make([]Notification, 0, len(s.notifications)-1)
			next = append(next, s.notifications[:i]...)
			s.notifications = append(next, s.notifications[i+1:]...)
			return true
		}
	}
	return false
}

// ClearNotifications drops every notification.
func (s *State) ClearNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = nil
}

func (s *State) pruneLocked(now time.Time) {
	live := 0
	for _, n := range s.notifications {
		if !n.Expired(now) {
			live++
		}
	}
	if live == len(s.notifications) {
		return
	}
	next := make([]Notification, 0, live)
	for _, n := range s.notifications {
		if !n.Expired(now) {
			next = append(next, n)
		}
	}
	s.notifications = next
}
