package http

import (
	"time"

	in "mindful_server/core/port/in"
	"mindful_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	service in.AuthService
}

func NewAuthHandler(service in.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Register mounts the routes behind the given middleware, typically a rate
// limiter.
func (h *AuthHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	auth := router.Group("/auth", guards...)
	auth.Post("/register", h.SignUp)
	auth.Post("/login", h.Login)
}

type authResponse struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func toAuthResponse(r *in.AuthResult) authResponse {
	return authResponse{
		UserID:    r.User.ID.String(),
		Name:      r.User.Name,
		Email:     r.User.Email,
		Token:     r.Session.Token,
		ExpiresAt: r.Session.ExpiresAt,
	}
}

// SignUp creates an account and returns its first session token.
// POST /api/v1/auth/register
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req in.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := h.service.Register(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return response.OKWithMessage(c, "User registered successfully", toAuthResponse(result))
}

// Login verifies credentials and returns a session token.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req in.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := h.service.Login(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return response.OKWithMessage(c, "Login successful", toAuthResponse(result))
}
