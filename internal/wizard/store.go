package wizard

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when a session id is unknown or expired.
var ErrSessionNotFound = errors.New("wizard session not found")

// Session is a persisted wizard.
type Session struct {
	ID        string    `json:"id"`
	Wizard    Wizard    `json:"wizard"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists wizard sessions between requests. Implementations expire
// sessions after a configured TTL that is refreshed on every save.
type Store interface {
	Create(ctx context.Context, w Wizard) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context, id string) error
}

func newSession(w Wizard, now time.Time) Session {
	return Session{
		ID:        uuid.NewString(),
		Wizard:    w,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// validID rejects ids that are not UUIDs before touching a backend.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
