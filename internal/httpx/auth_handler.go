package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marketgrid/storefront/internal/auth"
	"github.com/marketgrid/storefront/internal/users"
)

// UserStore is satisfied by *users.Repo.
type UserStore interface {
	Create(ctx context.Context, u users.User) (int64, error)
	ByEmail(ctx context.Context, email string) (users.User, error)
	ByID(ctx context.Context, id int64) (users.User, error)
	UpdateProfile(ctx context.Context, id int64, firstName, lastName, phone string) error
}

type AuthHandler struct {
	Users      UserStore
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

type registerReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResp struct {
	Token string     `json:"token"`
	User  users.User `json:"user"`
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/api/auth/register", h.register)
	r.Post("/api/auth/login", h.login)
}

// RegisterProfile mounts the authenticated profile routes.
func (h *AuthHandler) RegisterProfile(r chi.Router) {
	r.Get("/api/profile", h.getProfile)
	r.Put("/api/profile", h.updateProfile)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") || len(req.Password) < 4 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and password (4+ chars) required"})
		return
	}

	hash, err := users.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "hashing failed"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u := users.User{
		RoleID:       users.RoleCustomer,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
	}
	id, err := h.Users.Create(ctx, u)
	if errors.Is(err, users.ErrEmailTaken) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "email already registered"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	u.ID = id

	tok, err := auth.IssueToken(h.JWTSecret, h.TokenTTL, u.ID, u.RoleID, u.StoreID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "token issue failed"})
		return
	}
	writeJSON(w, http.StatusCreated, tokenResp{Token: tok, User: u})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.ByEmail(ctx, strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil || !users.CheckPassword(u.PasswordHash, req.Password) {
		// same answer for unknown email and wrong password
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	tok, err := auth.IssueToken(h.JWTSecret, h.TokenTTL, u.ID, u.RoleID, u.StoreID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "token issue failed"})
		return
	}
	writeJSON(w, http.StatusOK, tokenResp{Token: tok, User: u})
}

func (h *AuthHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	u, err := h.Users.ByID(ctx, id.UserID)
	if errors.Is(err, users.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type profileReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

func (h *AuthHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}
	var req profileReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, id.UserID, req.FirstName, req.LastName, req.Phone); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
