package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/louisbranch/skirmish.cards/internal/auth/service"
	"github.com/louisbranch/skirmish.cards/internal/auth/storage/sqlite"
	"github.com/louisbranch/skirmish.cards/internal/auth/token"
	"github.com/louisbranch/skirmish.cards/internal/auth/user"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	issuer, err := token.NewIssuer("test-secret", nil)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return NewHandler(service.New(store), issuer)
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRegisterThenLogin(t *testing.T) {
	handler := newTestHandler(t)

	rec := postJSON(t, handler, "/register", map[string]string{
		"username": "alice",
		"password": "hunter2",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var regBody struct {
		Err string `json:"err"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&regBody); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if regBody.Err != "" {
		t.Fatalf("expected empty err, got %q", regBody.Err)
	}

	rec = postJSON(t, handler, "/login", map[string]string{
		"username": "alice",
		"password": "hunter2",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var loginBody struct {
		Err   string       `json:"err"`
		User  user.Profile `json:"user"`
		Token string       `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&loginBody); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if loginBody.Err != "" {
		t.Fatalf("expected empty err, got %q", loginBody.Err)
	}
	if loginBody.User.Username != "alice" {
		t.Fatalf("expected alice, got %q", loginBody.User.Username)
	}
	if loginBody.User.Rating != user.DefaultRating {
		t.Fatalf("expected rating %d, got %d", user.DefaultRating, loginBody.User.Rating)
	}
	if loginBody.Token == "" {
		t.Fatalf("expected a session token")
	}
}

func TestRegisterValidationErrors(t *testing.T) {
	handler := newTestHandler(t)

	tests := []struct {
		name     string
		username string
		password string
		expected string
	}{
		{
			name:     "short username",
			username: "ab",
			password: "hunter2",
			expected: "username must be between 3 and 15 characters",
		},
		{
			name:     "short password",
			username: "alice",
			password: "ab",
			expected: "password must be between 3 and 250 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, handler, "/register", map[string]string{
				"username": tt.username,
				"password": tt.password,
			})
			var body struct {
				Err string `json:"err"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if body.Err != tt.expected {
				t.Fatalf("expected %q, got %q", tt.expected, body.Err)
			}
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	handler := newTestHandler(t)

	creds := map[string]string{"username": "alice", "password": "hunter2"}
	postJSON(t, handler, "/register", creds)
	rec := postJSON(t, handler, "/register", creds)

	var body struct {
		Err string `json:"err"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Err != "username already exists" {
		t.Fatalf("expected duplicate error, got %q", body.Err)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	handler := newTestHandler(t)

	postJSON(t, handler, "/register", map[string]string{"username": "alice", "password": "hunter2"})
	rec := postJSON(t, handler, "/login", map[string]string{"username": "alice", "password": "wrong"})

	var body struct {
		Err string `json:"err"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Err != "invalid username or password" {
		t.Fatalf("expected invalid credentials, got %q", body.Err)
	}
}

func TestLeaderboardOrdersByRating(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	svc := service.New(store)
	issuer, err := token.NewIssuer("test-secret", nil)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	handler := NewHandler(svc, issuer)

	postJSON(t, handler, "/register", map[string]string{"username": "alice", "password": "hunter2"})
	postJSON(t, handler, "/register", map[string]string{"username": "bob", "password": "hunter2"})
	if err := svc.AdjustRating(t.Context(), "bob", 30); err != nil {
		t.Fatalf("adjust rating: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/leaderboard", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var top []user.Profile
	if err := json.NewDecoder(rec.Body).Decode(&top); err != nil {
		t.Fatalf("decode leaderboard: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	if top[0].Username != "bob" || top[1].Username != "alice" {
		t.Fatalf("unexpected order: %s, %s", top[0].Username, top[1].Username)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodOptions, "/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected permissive CORS origin")
	}
}
