package in

import (
	"context"

	"mindful_server/core/domain"

	"github.com/google/uuid"
)

// AuthService registers users, logs them in and verifies session tokens.
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResult, error)
	RequireSession(token string) (uuid.UUID, error)
}

type RegisterRequest struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// AuthResult is returned by both register and login.
type AuthResult struct {
	User    *domain.User
	Session *domain.Session
}
