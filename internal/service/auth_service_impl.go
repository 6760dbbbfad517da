package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alexanderramin/studymap/internal/api"
	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/alexanderramin/studymap/internal/logging"
	"github.com/alexanderramin/studymap/internal/store"
)

type authService struct {
	auth     Authenticator
	sessions SessionStore
	logger   *slog.Logger
	observer UseCaseObserver
}

func NewAuthService(auth Authenticator, sessions SessionStore, logger *slog.Logger, observers ...UseCaseObserver) AuthService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &authService{
		auth:     auth,
		sessions: sessions,
		logger:   logger,
		observer: useCaseObserverOrNoop(observers),
	}
}

// Login stores the issued tokens, then the user from the profile endpoint.
// When the profile cannot be fetched the user id is read from the token.
func (s *authService) Login(ctx context.Context, identifier, password string) (user *domain.User, err error) {
	started := time.Now()
	fields := map[string]any{}
	defer observe(ctx, s.observer, "login", started, fields, &err)

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, fmt.Errorf("%w: identifier and password are required", ErrInvalidInput)
	}

	var tokens api.Tokens
	tokens, err = s.auth.Login(ctx, identifier, password)
	if err != nil {
		return nil, err
	}
	if err = s.sessions.SaveSession(ctx, store.Session{Access: tokens.Access, Refresh: tokens.Refresh}); err != nil {
		return nil, err
	}

	u, perr := s.auth.Profile(ctx)
	if perr != nil {
		s.logger.Warn("profile unavailable, using token claims", "error", perr)
		claims, cerr := api.ParseClaims(tokens.Access)
		if cerr != nil {
			s.logger.Debug("access token carries no readable claims", "error", cerr)
		}
		u = domain.User{ID: claims.UserID, Username: identifier}
		if strings.Contains(identifier, "@") {
			u.Email = identifier
		}
	}
	fields["user_id"] = u.ScopeID()

	if err = s.sessions.SaveSession(ctx, store.Session{User: &u}); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout forgets the session and every plan and progress key.
func (s *authService) Logout(ctx context.Context) (err error) {
	started := time.Now()
	defer observe(ctx, s.observer, "logout", started, nil, &err)

	if err = s.sessions.ClearUserData(ctx); err != nil {
		return err
	}
	return s.sessions.ClearSession(ctx)
}

func (s *authService) CurrentUser(ctx context.Context) (*domain.User, error) {
	sess, err := s.sessions.Session(ctx)
	if err != nil {
		return nil, err
	}
	return sess.User, nil
}
