package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/joshuxchn/qloo/internal/domain/entities"
	"github.com/joshuxchn/qloo/internal/infrastructure/config"
	"github.com/joshuxchn/qloo/internal/ports"
)

// Store persists the active user as a single JSON file. The file is the
// whole session: it is written and removed as a unit, never patched.
type Store struct {
	fs   afero.Fs
	path string
}

var _ ports.SessionStore = (*Store)(nil)

// New creates a session store on the real filesystem.
func New(cfg config.SessionConfig) *Store {
	return NewWithFs(afero.NewOsFs(), cfg.Path)
}

// NewWithFs creates a session store on the given filesystem. Tests use an
// in-memory fs.
func NewWithFs(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Load reads the stored user. A missing session file is not an error: it
// returns (nil, nil) so callers can treat it as "needs authentication".
func (s *Store) Load() (*entities.User, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var user entities.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("corrupt session file %s: %w", s.path, err)
	}

	if user.ID == "" {
		return nil, fmt.Errorf("corrupt session file %s: missing user id", s.path)
	}

	return &user, nil
}

// Save writes the user to the session slot, replacing any previous user.
func (s *Store) Save(user *entities.User) error {
	if user == nil || user.ID == "" {
		return fmt.Errorf("refusing to store user without id")
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := afero.WriteFile(s.fs, s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	return nil
}

// Clear removes the session slot. Clearing an absent session is a no-op.
func (s *Store) Clear() error {
	if err := s.fs.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
