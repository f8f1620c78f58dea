// Package api serves the account, score, and ranking endpoints used by the browser client.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/tomz197/fruitcatch/internal/store"
)

// RankingSize is how many entries GET /api/ranking returns.
const RankingSize = 5

// AccountStore is the persistence the handlers need.
type AccountStore interface {
	Signup(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (*store.User, error)
	UpdateBestScore(ctx context.Context, username string, score int) (bool, error)
	Rankings(ctx context.Context, limit int) ([]store.Ranking, error)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type scoreRequest struct {
	Username string `json:"username"`
	Score    *int   `json:"score"`
}

type messageResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	User    *store.User `json:"user,omitempty"`
}

type scoreResponse struct {
	Success bool `json:"success"`
	Updated bool `json:"updated"`
}

// Handler implements the HTTP endpoints.
type Handler struct {
	users AccountStore
	log   *log.Logger
}

// NewHandler creates the handlers over an account store.
func NewHandler(users AccountStore, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{users: users, log: logger.WithPrefix("api")}
}

// Signup creates an account. Domain failures answer 200 with success=false,
// which is what the browser client checks.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	body, err := decode[credentialsRequest](r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid request body"})
		return
	}

	err = h.users.Signup(r.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, store.ErrMissingFields):
		writeJSON(w, http.StatusOK, messageResponse{Message: "Missing fields"})
	case errors.Is(err, store.ErrUserExists):
		writeJSON(w, http.StatusOK, messageResponse{Message: "Username already exists"})
	case err != nil:
		h.log.Error("signup", "user", body.Username, "err", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Signup failed"})
	default:
		h.log.Info("signup", "user", body.Username)
		writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Signup successful"})
	}
}

// Login checks credentials and returns the account.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	body, err := decode[credentialsRequest](r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid request body"})
		return
	}

	user, err := h.users.Login(r.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, store.ErrInvalidCredentials):
		writeJSON(w, http.StatusOK, messageResponse{Message: "Invalid credentials"})
	case err != nil:
		h.log.Error("login", "user", body.Username, "err", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Login failed"})
	default:
		writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Login successful", User: user})
	}
}

// Score records a finished browser run.
func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	body, err := decode[scoreRequest](r)
	if err != nil || body.Score == nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid request body"})
		return
	}

	updated, err := h.users.UpdateBestScore(r.Context(), body.Username, *body.Score)
	switch {
	case errors.Is(err, store.ErrMissingFields), errors.Is(err, store.ErrInvalidScore):
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: err.Error()})
	case err != nil:
		h.log.Error("score", "user", body.Username, "err", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Score update failed"})
	default:
		writeJSON(w, http.StatusOK, scoreResponse{Success: true, Updated: updated})
	}
}

// Ranking returns the top players.
func (h *Handler) Ranking(w http.ResponseWriter, r *http.Request) {
	rankings, err := h.users.Rankings(r.Context(), RankingSize)
	if err != nil {
		h.log.Error("ranking", "err", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Ranking unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, rankings)
}
