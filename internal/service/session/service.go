// Package session implements the credential and session manager: password
// authentication against the single configured identity, and issue/resolve
// of the signed session token.
package session

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/avolkova/journal/internal/config"
	"github.com/avolkova/journal/internal/domain"
)

// tokenManager defines the token operations needed by the session service.
type tokenManager interface {
	Issue(username string, role string) (string, error)
	Verify(token string) (username string, role string, err error)
}

// Service authenticates credentials and resolves session tokens.
// All state is injected at construction; there are no package-level globals,
// so tests can run multiple instances in parallel.
type Service struct {
	log    *slog.Logger
	tokens tokenManager
	cfg    config.AuthConfig

	// groups is the static username → role table. The configured admin
	// identity is the only member; unknown usernames resolve to anonymous.
	groups map[string]domain.Role
}

// NewService creates a session service for the configured identity.
func NewService(logger *slog.Logger, tokens tokenManager, cfg config.AuthConfig) *Service {
	groups := map[string]domain.Role{}
	if cfg.Username != "" {
		groups[cfg.Username] = domain.RoleAdmin
	}

	return &Service{
		log:    logger.With("service", "session"),
		tokens: tokens,
		cfg:    cfg,
		groups: groups,
	}
}

// roleFor derives the permission role from a username via the group table.
// The role is always recomputed here, never trusted from stored state.
func (s *Service) roleFor(username string) domain.Role {
	if role, ok := s.groups[username]; ok {
		return role
	}
	return domain.RoleAnonymous
}

// Authenticate verifies a username/password pair against the configured
// identity. Wrong username and wrong password both return ErrUnauthorized:
// the two failure kinds are deliberately indistinguishable so responses
// cannot be used for username probing.
func (s *Service) Authenticate(ctx context.Context, input LoginInput) (domain.Identity, error) {
	if err := input.Validate(); err != nil {
		return domain.Anonymous, err
	}

	// A service without a configured hash or signing secret can never
	// authenticate anyone.
	if s.cfg.PasswordHash == "" || s.cfg.Secret == "" {
		s.log.WarnContext(ctx, "authentication attempted without configured credentials")
		return domain.Anonymous, domain.ErrUnauthorized
	}

	if input.Username != s.cfg.Username {
		// Burn a bcrypt comparison anyway so the timing of the two
		// failure kinds matches.
		_ = bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(input.Password))
		return domain.Anonymous, domain.ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(input.Password)); err != nil {
		return domain.Anonymous, domain.ErrUnauthorized
	}

	identity := domain.Identity{
		Username: input.Username,
		Role:     s.roleFor(input.Username),
	}

	s.log.InfoContext(ctx, "user logged in", slog.String("username", identity.Username))

	return identity, nil
}

// IssueToken produces a signed session token binding the identity.
func (s *Service) IssueToken(identity domain.Identity) (string, error) {
	return s.tokens.Issue(identity.Username, identity.Role.String())
}

// ResolveToken maps a client-held token to an identity. This is a total
// function: absent, tampered, or otherwise invalid tokens resolve to
// Anonymous, never an error. The role is recomputed from the group table,
// so a token for a username that is no longer configured also resolves
// to Anonymous.
func (s *Service) ResolveToken(token string) domain.Identity {
	if token == "" {
		return domain.Anonymous
	}

	username, _, err := s.tokens.Verify(token)
	if err != nil {
		return domain.Anonymous
	}

	role := s.roleFor(username)
	if role == domain.RoleAnonymous {
		return domain.Anonymous
	}

	return domain.Identity{Username: username, Role: role}
}
