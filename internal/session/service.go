package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/victornm/codechallenge/internal/domain"
	"github.com/victornm/codechallenge/internal/errors"
	"github.com/victornm/codechallenge/internal/event"
)

// Store is the part of the application store the session needs.
type Store interface {
	AddCandidate(c domain.Candidate)
	SetCurrentUser(u *domain.User)
	CurrentUser() (domain.User, bool)
}

type Config struct {
	Store    Store
	EventBus *event.Bus
	Now      func() time.Time
}

type Service struct {
	store Store
	eb    *event.Bus
	now   func() time.Time
}

func NewService(c Config) *Service {
	s := &Service{
		store: c.Store,
		eb:    c.EventBus,
		now:   c.Now,
	}

	if s.now == nil {
		s.now = time.Now
	}

	return s
}

// LoginRequest represents the login form.
type LoginRequest struct {
	Name  string
	Email string
	Role  domain.Role
	// ChallengeID is set when the user followed a challenge link.
	ChallengeID string
}

type LoginResponse struct {
	User domain.User
	// Candidate is set when a candidate logged in through a challenge link.
	Candidate *domain.Candidate
	Message   string
}

// Login starts a new session, ending the current one if any. A candidate arriving with a challenge ID is also
// registered as a candidate of it.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if req.Role == "" {
		req.Role = domain.RoleCandidate
	}

	if err := validateLogin(req); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	u := domain.User{
		ID:    id.String(),
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
		Role:  req.Role,
	}

	// Taking over the session ends the previous user's, so their views are torn down.
	if prev, ok := s.store.CurrentUser(); ok {
		slog.InfoContext(ctx, "session: logged out by new login", "user", prev.ID, "next", u.ID)
		s.eb.Publish(ctx, domain.EventUserLoggedOut{User: prev})
	}

	s.store.SetCurrentUser(&u)

	resp := &LoginResponse{
		User:    u,
		Message: fmt.Sprintf("Welcome %s! You are logged in as %s.", u.Name, u.Role),
	}

	if u.Role == domain.RoleCandidate && req.ChallengeID != "" {
		c := domain.Candidate{
			ID:          u.ID,
			Name:        u.Name,
			Email:       u.Email,
			LoginTime:   s.now(),
			ChallengeID: req.ChallengeID,
		}
		s.store.AddCandidate(c)
		resp.Candidate = &c
	}

	slog.InfoContext(ctx, "session: logged in", "user", u.ID, "role", u.Role, "challenge", req.ChallengeID)

	s.eb.Publish(ctx, domain.EventUserLoggedIn{User: u})

	return resp, nil
}

// Logout ends the current session. Logging out without a session is a no-op.
func (s *Service) Logout(ctx context.Context) {
	u, ok := s.store.CurrentUser()
	s.store.SetCurrentUser(nil)
	if !ok {
		return
	}

	slog.InfoContext(ctx, "session: logged out", "user", u.ID)

	s.eb.Publish(ctx, domain.EventUserLoggedOut{User: u})
}

// CurrentUser returns the user holding the session.
func (s *Service) CurrentUser(_ context.Context) (*domain.User, error) {
	u, ok := s.store.CurrentUser()
	if !ok {
		return nil, errors.New(errors.CodeUnauthenticated, errors.WithMessagef("no user is logged in"))
	}

	return &u, nil
}

func validateLogin(req LoginRequest) error {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		return errors.InvalidArgument("please fill in all fields")
	}

	if !req.Role.Valid() {
		return errors.InvalidArgument("unknown role: %s", req.Role)
	}

	return nil
}
