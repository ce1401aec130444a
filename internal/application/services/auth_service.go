package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/joshuxchn/qloo/internal/domain/entities"
	"github.com/joshuxchn/qloo/internal/infrastructure/logger"
	"github.com/joshuxchn/qloo/internal/ports"
)

// AuthService handles authentication against the backend and the lifecycle
// of the persisted session slot.
type AuthService struct {
	gateway ports.BackendGateway
	session ports.SessionStore
	logger  *logger.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(gateway ports.BackendGateway, session ports.SessionStore, appLogger *logger.Logger) *AuthService {
	return &AuthService{
		gateway: gateway,
		session: session,
		logger:  appLogger.WithComponent("auth_service"),
	}
}

// Login authenticates with the backend and persists the returned user as the
// active session. The session slot is untouched when the backend rejects the
// credentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*entities.User, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)

	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	user, err := s.gateway.Login(ctx, email, password)
	if err != nil {
		s.logger.Warn("Login failed", "email", email, "error", err)
		return nil, err
	}

	if err := s.session.Save(user); err != nil {
		return nil, fmt.Errorf("login succeeded but session could not be stored: %w", err)
	}

	s.logger.Info("Logged in", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// CurrentUser returns the persisted user, or (nil, nil) when nobody is
// signed in.
func (s *AuthService) CurrentUser() (*entities.User, error) {
	return s.session.Load()
}

// Logout clears the session slot as a unit.
func (s *AuthService) Logout() error {
	if err := s.session.Clear(); err != nil {
		return err
	}
	s.logger.Info("Logged out")
	return nil
}
