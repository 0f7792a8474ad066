package middleware

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mindful_server/pkg/apperr"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type fakeVerifier struct {
	valid  string
	userID uuid.UUID
	seen   string
}

func (f *fakeVerifier) RequireSession(token string) (uuid.UUID, error) {
	f.seen = token
	if token != f.valid {
		return uuid.Nil, apperr.InvalidToken("")
	}
	return f.userID, nil
}

func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(Recover())
	app.Use(RequestID())
	return app
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	body, _ := io.ReadAll(resp.Body)
	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return er
}

func TestRequireSession(t *testing.T) {
	verifier := &fakeVerifier{valid: "good-token", userID: uuid.New()}
	app := newTestApp()
	app.Get("/me", RequireSession(verifier), func(c *fiber.Ctx) error {
		id, ok := GetUserID(c)
		if !ok {
			return errors.New("no user in locals")
		}
		return c.SendString(id.String())
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"bare token", "good-token", 200},
		{"bearer token", "Bearer good-token", 200},
		{"lowercase bearer", "bearer good-token", 200},
		{"missing", "", 401},
		{"wrong token", "Bearer nope", 401},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.status == 200 {
				body, _ := io.ReadAll(resp.Body)
				if string(body) != verifier.userID.String() {
					t.Errorf("body = %s, want user id", body)
				}
				return
			}
			er := decodeError(t, resp)
			if er.Error.Code != apperr.CodeInvalidToken || er.Success {
				t.Errorf("error = %+v", er)
			}
			if want := apperr.InvalidToken("").Message; er.Error.Message != want {
				t.Errorf("message = %q, want %q", er.Error.Message, want)
			}
		})
	}
}

func TestErrorHandler(t *testing.T) {
	app := newTestApp()
	app.Get("/app", func(c *fiber.Ctx) error {
		return fmt.Errorf("wrapped: %w", apperr.NotFound("tweet"))
	})
	app.Get("/fiber", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusUnsupportedMediaType, "nope")
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return errors.New("secret internals")
	})
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("boom")
	})

	tests := []struct {
		path   string
		status int
		code   string
	}{
		{"/app", 404, apperr.CodeNotFound},
		{"/fiber", 415, "UNSUPPORTED_MEDIA_TYPE"},
		{"/plain", 500, apperr.CodeInternalError},
		{"/panic", 500, apperr.CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("X-Request-ID", "req-1")
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			er := decodeError(t, resp)
			if er.Error.Code != tt.code || er.RequestID != "req-1" || er.Timestamp == "" {
				t.Errorf("response = %+v", er)
			}
			if er.Error.Message == "secret internals" {
				t.Error("unexpected errors must not leak their message")
			}
		})
	}
}

type fakeLimiter struct {
	allowed int
	calls   int
}

func (f *fakeLimiter) Allow(context.Context, string) (bool, time.Duration) {
	f.calls++
	return f.calls <= f.allowed, 1500 * time.Millisecond
}

func TestRateLimit(t *testing.T) {
	app := newTestApp()
	app.Post("/login", RateLimit(&fakeLimiter{allowed: 2}, 2), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 2; i++ {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
		if resp.StatusCode != 200 {
			t.Fatalf("request %d status = %d", i, resp.StatusCode)
		}
	}

	resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	if got := resp.Header.Get("Retry-After"); got != "2" {
		t.Errorf("Retry-After = %q, want 2", got)
	}
	if er := decodeError(t, resp); er.Error.Code != apperr.CodeRateLimited {
		t.Errorf("code = %s", er.Error.Code)
	}
}

func TestValidateUUID(t *testing.T) {
	app := newTestApp()
	app.Get("/users/:id", ValidateUUID("id"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/users/"+uuid.NewString(), nil))
	if resp.StatusCode != 200 {
		t.Errorf("valid uuid status = %d", resp.StatusCode)
	}
	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/users/not-a-uuid", nil))
	if resp.StatusCode != 400 {
		t.Errorf("invalid uuid status = %d, want 400", resp.StatusCode)
	}
}
