package bootstrap

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"mindful_server/config"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
)

func setupApp(t *testing.T, env map[string]string) *fiber.App {
	t.Helper()
	t.Setenv("STORAGE_BACKEND", "badger")
	t.Setenv("BADGER_DIR", "")
	t.Setenv("CLASSIFIER_BACKEND", "keyword")
	t.Setenv("REDIS_URL", "")
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	deps, cleanup, err := NewDependencies(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewDependencies() error = %v", err)
	}
	t.Cleanup(cleanup)
	return newApp(cfg, deps)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func call(t *testing.T, app *fiber.App, method, path string, body any, token string) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	return do(t, app, req)
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp.StatusCode, env
}

func TestAPI_TweetFlow(t *testing.T) {
	app := setupApp(t, nil)

	status, env := call(t, app, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": "Sari", "email": "Sari@Example.com", "password": "rahasia123",
	}, "")
	if status != http.StatusOK {
		t.Fatalf("register status = %d, error = %+v", status, env.Error)
	}
	var reg struct {
		UserID string `json:"user_id"`
		Email  string `json:"email"`
		Token  string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &reg); err != nil {
		t.Fatal(err)
	}
	if reg.Email != "sari@example.com" || reg.Token == "" {
		t.Fatalf("register data = %+v", reg)
	}

	// Login uses form encoding, as the mobile client does.
	form := url.Values{"email": {"sari@example.com"}, "password": {"rahasia123"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	status, env = do(t, app, req)
	if status != http.StatusOK {
		t.Fatalf("login status = %d, error = %+v", status, env.Error)
	}
	var login struct {
		UserID string `json:"user_id"`
		Token  string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &login); err != nil {
		t.Fatal(err)
	}
	if login.UserID != reg.UserID || login.Token != reg.Token {
		t.Errorf("login should reuse the still valid token: %+v vs %+v", login, reg)
	}

	status, env = call(t, app, http.MethodPost, "/api/v1/tweets", map[string]string{"text": "aku senang sekali hari ini"}, "")
	if status != http.StatusUnauthorized {
		t.Errorf("create without token status = %d, want 401", status)
	}

	status, env = call(t, app, http.MethodPost, "/api/v1/tweets", map[string]string{"text": "aku senang sekali hari ini"}, "Bearer "+login.Token)
	if status != http.StatusOK {
		t.Fatalf("create status = %d, error = %+v", status, env.Error)
	}
	var created struct {
		TweetID    string `json:"tweet_id"`
		Status     string `json:"status"`
		Suggestion string `json:"suggestion"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatal(err)
	}
	if created.Status != "happy" || created.Suggestion == "" {
		t.Errorf("created = %+v", created)
	}

	status, env = call(t, app, http.MethodGet, "/api/v1/tweets/"+created.TweetID, nil, "")
	if status != http.StatusOK {
		t.Fatalf("get status = %d", status)
	}
	var got struct {
		UserID  string `json:"user_id"`
		Emotion string `json:"emotion"`
	}
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatal(err)
	}
	if got.UserID != reg.UserID || got.Emotion != "happy" {
		t.Errorf("got = %+v", got)
	}

	status, env = call(t, app, http.MethodGet, "/api/v1/users/"+reg.UserID+"/tweets", nil, "")
	if status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	var list []map[string]any
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("list length = %d, want 1", len(list))
	}
}

func TestAPI_Errors(t *testing.T) {
	app := setupApp(t, nil)

	tests := []struct {
		name     string
		method   string
		path     string
		body     any
		token    string
		wantCode int
		wantErr  string
	}{
		{"predict without text", http.MethodPost, "/api/v1/predict-emotion", map[string]string{}, "", 400, "MISSING_FIELD"},
		{"predict empty body", http.MethodPost, "/api/v1/predict-emotion", nil, "", 400, "MISSING_FIELD"},
		{"unknown tweet", http.MethodGet, "/api/v1/tweets/00000000-0000-0000-0000-000000000001", nil, "", 404, "NOT_FOUND"},
		{"malformed tweet id", http.MethodGet, "/api/v1/tweets/not-a-uuid", nil, "", 404, "NOT_FOUND"},
		{"bad token", http.MethodPost, "/api/v1/tweets", map[string]string{"text": "halo"}, "garbage", 401, "INVALID_TOKEN"},
		{"register missing fields", http.MethodPost, "/api/v1/auth/register", map[string]string{"name": "x"}, "", 400, ""},
		{"login unknown user", http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "a@b.c", "password": "secret1"}, "", 401, "AUTHENTICATION_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := call(t, app, tt.method, tt.path, tt.body, tt.token)
			if status != tt.wantCode {
				t.Fatalf("status = %d, want %d (error %+v)", status, tt.wantCode, env.Error)
			}
			if env.Success {
				t.Error("success should be false")
			}
			if tt.wantErr != "" && env.Error.Code != tt.wantErr {
				t.Errorf("code = %s, want %s", env.Error.Code, tt.wantErr)
			}
		})
	}
}

func TestAPI_PredictEmotion(t *testing.T) {
	app := setupApp(t, nil)

	status, env := call(t, app, http.MethodPost, "/api/v1/predict-emotion", map[string]string{"text": "aku merasa sangat kesepian"}, "")
	if status != http.StatusOK {
		t.Fatalf("status = %d, error = %+v", status, env.Error)
	}
	var a struct {
		Emotion     string `json:"emotion"`
		MentalState string `json:"mental_state"`
		Message     string `json:"message"`
		Suggestion  string `json:"suggestion"`
	}
	if err := json.Unmarshal(env.Data, &a); err != nil {
		t.Fatal(err)
	}
	if a.Emotion != "lonely" || a.MentalState != "Lonely" || a.Message == "" || a.Suggestion == "" {
		t.Errorf("assessment = %+v", a)
	}
}

func TestAPI_LoginRateLimit(t *testing.T) {
	app := setupApp(t, map[string]string{"LOGIN_RATE_LIMIT": "2"})

	body := map[string]string{"email": "nobody@example.com", "password": "whatever"}
	for i := 0; i < 2; i++ {
		if status, _ := call(t, app, http.MethodPost, "/api/v1/auth/login", body, ""); status != http.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d, want 401", i+1, status)
		}
	}
	status, env := call(t, app, http.MethodPost, "/api/v1/auth/login", body, "")
	if status != http.StatusTooManyRequests || env.Error.Code != "RATE_LIMITED" {
		t.Errorf("status = %d code = %s, want 429 RATE_LIMITED", status, env.Error.Code)
	}
}

func TestAPI_HealthAndMetrics(t *testing.T) {
	app := setupApp(t, nil)

	call(t, app, http.MethodPost, "/api/v1/predict-emotion", map[string]string{"text": "halo"}, "")

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d", path, resp.StatusCode)
		}
		resp.Body.Close()
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var m struct {
		Latency map[string]map[string]any `json:"latency"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Latency["classifier.keyword"]; !ok {
		t.Errorf("metrics missing classifier.keyword: %v", m.Latency)
	}
}

func TestNewDependencies_RejectsLabelMismatch(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "badger")
	t.Setenv("CLASSIFIER_BACKEND", "http")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"labels":["happy","anxiety","depression","lonely","neutral"]}`))
	}))
	defer srv.Close()
	t.Setenv("CLASSIFIER_URL", srv.URL)

	cfg, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := NewDependencies(context.Background(), cfg); err == nil {
		t.Fatal("expected a label order mismatch to fail startup")
	}
}
