// Package app exposes the HTTP identity surface: registration, login and the
// leaderboard.
package app

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/louisbranch/skirmish.cards/internal/auth/service"
	"github.com/louisbranch/skirmish.cards/internal/auth/storage"
	"github.com/louisbranch/skirmish.cards/internal/auth/token"
	"github.com/louisbranch/skirmish.cards/internal/auth/user"
)

type credentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type errPayload struct {
	Err string `json:"err"`
}

type loginPayload struct {
	Err   string       `json:"err"`
	User  user.Profile `json:"user"`
	Token string       `json:"token"`
}

// NewHandler creates the identity HTTP routes.
func NewHandler(svc *service.Service, issuer *token.Issuer) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
		handleRegister(svc, w, r)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		handleLogin(svc, issuer, w, r)
	})
	mux.HandleFunc("/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		handleLeaderboard(svc, w, r)
	})
	return withCORS(mux)
}

// withCORS allows browser clients from any origin.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func handleRegister(svc *service.Service, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errPayload{Err: "invalid request body"})
		return
	}

	_, err := svc.Register(r.Context(), payload.Username, payload.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, errPayload{})
	case errors.Is(err, user.ErrUsernameLength),
		errors.Is(err, user.ErrPasswordLength),
		errors.Is(err, storage.ErrUsernameTaken):
		writeJSON(w, http.StatusOK, errPayload{Err: err.Error()})
	default:
		log.Printf("auth: register failed for %q: %v", payload.Username, err)
		writeJSON(w, http.StatusInternalServerError, errPayload{Err: "registration unavailable"})
	}
}

func handleLogin(svc *service.Service, issuer *token.Issuer, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errPayload{Err: "invalid request body"})
		return
	}

	u, err := svc.Authenticate(r.Context(), payload.Username, payload.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		writeJSON(w, http.StatusOK, errPayload{Err: service.ErrInvalidCredentials.Error()})
		return
	}
	if err != nil {
		log.Printf("auth: login failed for %q: %v", payload.Username, err)
		writeJSON(w, http.StatusInternalServerError, errPayload{Err: "login unavailable"})
		return
	}

	signed, err := issuer.Issue(u.ID, u.Username)
	if err != nil {
		log.Printf("auth: issue token for %q: %v", u.Username, err)
		writeJSON(w, http.StatusInternalServerError, errPayload{Err: "login unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, loginPayload{
		User:  u.Profile(),
		Token: signed,
	})
}

func handleLeaderboard(svc *service.Service, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	top, err := svc.Leaderboard(r.Context())
	if err != nil {
		log.Printf("auth: leaderboard lookup: %v", err)
		writeJSON(w, http.StatusInternalServerError, errPayload{Err: "leaderboard unavailable"})
		return
	}
	if top == nil {
		top = []user.Profile{}
	}
	writeJSON(w, http.StatusOK, top)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("auth: encode response: %v", err)
	}
}
