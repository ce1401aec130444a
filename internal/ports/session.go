package ports

import "github.com/joshuxchn/qloo/internal/domain/entities"

// SessionStore persists the single active user between runs. The slot is
// read, written and cleared as a unit; there are no partial updates.
// Load returns (nil, nil) when no user is stored.
type SessionStore interface {
	Load() (*entities.User, error)
	Save(user *entities.User) error
	Clear() error
}
