package audit

import "time"

// Event is an immutable, append-only record of a session lifecycle change.
//
// Invariants:
// - Events are never updated or deleted by callers; the memory repo only
//   evicts the oldest entries once its capacity is reached.
// - Recording is best-effort; session flows never block on audit failures.
// - Token values are never recorded.
type Event struct {
	ID string `json:"id"`

	// Namespace identifies the session (token store namespace) the event belongs to.
	Namespace string `json:"namespace,omitempty"`

	Type EventType `json:"type"`

	// Trigger is the refresh trigger (startup, periodic, unauthorized, manual) when relevant.
	Trigger string `json:"trigger,omitempty"`

	UserID      string `json:"user_id,omitempty"`
	Role        string `json:"role,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`

	// Message is a short human-readable description, e.g. a resolved error message.
	Message string `json:"message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type EventType string

const (
	EventLogin          EventType = "login"
	EventLoginFailed    EventType = "login_failed"
	EventRegister       EventType = "register"
	EventRefresh        EventType = "refresh"
	EventRefreshFailed  EventType = "refresh_failed"
	EventLogout         EventType = "logout"
	EventSessionExpired EventType = "session_expired"
)
