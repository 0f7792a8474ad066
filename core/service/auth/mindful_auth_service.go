// Package auth registers users, logs them in and guards sessions with
// signed tokens.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"mindful_server/core/domain"
	"mindful_server/core/port/in"
	"mindful_server/core/port/out"
	"mindful_server/pkg/apperr"
	"mindful_server/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Config holds the account policy knobs.
type Config struct {
	// UniqueEmail rejects a second account with the same email.
	UniqueEmail bool
	// MinPasswordLength counts runes. Zero disables the check.
	MinPasswordLength int
	// ReuseStoredToken hands back the persisted token on login while it
	// still verifies.
	ReuseStoredToken bool
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// DefaultConfig is the production policy.
func DefaultConfig() Config {
	return Config{
		UniqueEmail:       true,
		MinPasswordLength: 6,
		ReuseStoredToken:  true,
		BcryptCost:        bcrypt.DefaultCost,
	}
}

// Service implements in.AuthService.
type Service struct {
	users  out.UserRepository
	tokens *TokenIssuer
	cfg    Config
	now    func() time.Time
}

var _ in.AuthService = (*Service)(nil)

// NewService creates the auth service.
func NewService(users out.UserRepository, tokens *TokenIssuer, cfg Config) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{users: users, tokens: tokens, cfg: cfg, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and issues its first token.
func (s *Service) Register(ctx context.Context, req *in.RegisterRequest) (*in.AuthResult, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	switch {
	case name == "":
		return nil, apperr.MissingField("name")
	case email == "":
		return nil, apperr.MissingField("email")
	case req.Password == "":
		return nil, apperr.MissingField("password")
	}
	if s.cfg.MinPasswordLength > 0 && utf8.RuneCountInString(req.Password) < s.cfg.MinPasswordLength {
		return nil, apperr.ValidationFailed("password is too short").
			WithDetail("min_length", s.cfg.MinPasswordLength)
	}

	if s.cfg.UniqueEmail {
		existing, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperr.AlreadyExists("user with this email")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperr.ValidationFailed("password is too long")
		}
		return nil, apperr.InternalWithError(err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	session, err := s.issue(user.ID)
	if err != nil {
		return nil, err
	}
	user.Token = session.Token

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.WithField("user_id", user.ID).Info("[AuthService.Register] account created")
	return &in.AuthResult{User: user, Session: session}, nil
}

// Login checks credentials and returns a session token.
func (s *Service) Login(ctx context.Context, req *in.LoginRequest) (*in.AuthResult, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, apperr.MissingField("email")
	}
	if req.Password == "" {
		return nil, apperr.MissingField("password")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.AuthenticationFailed()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperr.AuthenticationFailed()
	}

	if s.cfg.ReuseStoredToken && user.Token != "" {
		if uid, exp, err := s.tokens.Verify(user.Token); err == nil && uid == user.ID {
			return &in.AuthResult{
				User:    user,
				Session: &domain.Session{UserID: user.ID, Token: user.Token, ExpiresAt: exp},
			}, nil
		}
		logger.WithField("user_id", user.ID).Debug("[AuthService.Login] stored token no longer valid, reissuing")
	}

	session, err := s.issue(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateToken(ctx, user.ID, session.Token); err != nil {
		return nil, err
	}
	user.Token = session.Token
	return &in.AuthResult{User: user, Session: session}, nil
}

// RequireSession verifies a raw token and returns the user it names.
func (s *Service) RequireSession(token string) (uuid.UUID, error) {
	userID, _, err := s.tokens.Verify(token)
	return userID, err
}

func (s *Service) issue(userID uuid.UUID) (*domain.Session, error) {
	token, exp, err := s.tokens.Issue(userID)
	if err != nil {
		return nil, apperr.InternalWithError(err)
	}
	return &domain.Session{UserID: userID, Token: token, ExpiresAt: exp}, nil
}
