package store

import (
	"context"

	"github.com/growthdesk/growthdesk/pkg/domain"
)

// SessionStore manages the persistence of chat sessions.
type SessionStore interface {
	// CreateSession persists a new session. The ID field must be set by the caller.
	CreateSession(ctx context.Context, s *domain.Session) error

	// GetSession retrieves a session by its unique ID.
	// Returns an error if the session does not exist.
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// ListSessions returns all sessions for a user, most recently
	// updated first. An empty userEmail returns every session.
	ListSessions(ctx context.Context, userEmail string) ([]domain.Session, error)

	// UpdateSessionTitle sets the display title of a session.
	UpdateSessionTitle(ctx context.Context, id, title string) error

	// DeleteSession removes a session and its turns.
	DeleteSession(ctx context.Context, id string) error
}

// TurnStore manages the append-only conversation history of sessions.
// Turns are immutable once appended.
type TurnStore interface {
	// AppendTurn adds a turn to the end of its session's history.
	// The turn's ID should be set by the caller; a zero Timestamp is
	// filled in by the store.
	AppendTurn(ctx context.Context, turn *domain.Turn) error

	// ListTurns returns a session's turns in chronological order.
	ListTurns(ctx context.Context, sessionID string) ([]domain.Turn, error)

	// Subscribe returns a channel that emits session IDs whenever a
	// turn is appended to any session. Used by the live feed endpoint.
	Subscribe() <-chan string
}
