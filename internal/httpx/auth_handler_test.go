package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketgrid/storefront/internal/auth"
	"github.com/marketgrid/storefront/internal/users"
)

type memUsers struct {
	byEmail map[string]users.User
	nextID  int64
}

func newMemUsers() *memUsers { return &memUsers{byEmail: map[string]users.User{}} }

func (m *memUsers) Create(_ context.Context, u users.User) (int64, error) {
	if _, ok := m.byEmail[u.Email]; ok {
		return 0, users.ErrEmailTaken
	}
	m.nextID++
	u.ID = m.nextID
	m.byEmail[u.Email] = u
	return u.ID, nil
}

func (m *memUsers) ByEmail(_ context.Context, email string) (users.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) ByID(_ context.Context, id int64) (users.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return users.User{}, users.ErrNotFound
}

func (m *memUsers) UpdateProfile(_ context.Context, id int64, first, last, phone string) error {
	for k, u := range m.byEmail {
		if u.ID == id {
			u.FirstName, u.LastName, u.Phone = first, last, phone
			m.byEmail[k] = u
			return nil
		}
	}
	return users.ErrNotFound
}

func newAuthRig() (*chi.Mux, *AuthHandler) {
	h := &AuthHandler{Users: newMemUsers(), JWTSecret: "secret", TokenTTL: time.Hour, BcryptCost: 4}
	r := chi.NewRouter()
	h.Register(r)
	return r, h
}

func TestRegisterThenLogin(t *testing.T) {
	r, _ := newAuthRig()

	body := `{"email":"Ada@Example.com","password":"hunter2","first_name":"Ada","last_name":"L"}`
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp tokenResp
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Equal(t, users.RoleCustomer, resp.User.RoleID)

	claims, err := auth.ParseToken("secret", resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)

	// second register with same email
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body)))
	assert.Equal(t, http.StatusConflict, rr.Code)

	// login, case-insensitive on email
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"ADA@example.com","password":"hunter2"}`)))
	assert.Equal(t, http.StatusOK, rr.Code)

	// wrong password
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"ada@example.com","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// unknown email gets the same answer
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"ghost@example.com","password":"hunter2"}`)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRegisterValidation(t *testing.T) {
	r, _ := newAuthRig()
	for _, body := range []string{
		`{"email":"","password":"hunter2"}`,
		`{"email":"no-at-sign","password":"hunter2"}`,
		`{"email":"a@b.com","password":"abc"}`,
		`not json`,
	} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	h := &AuthHandler{Users: newMemUsers(), JWTSecret: "secret", TokenTTL: time.Hour, BcryptCost: 4}
	r := chi.NewRouter()
	h.Register(r)
	h.RegisterProfile(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email":"p@q.com","password":"hunter2"}`)))
	require.Equal(t, http.StatusCreated, rr.Code)
	var resp tokenResp
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	ident := auth.Identity{UserID: resp.User.ID, RoleID: resp.User.RoleID}

	req := httptest.NewRequest(http.MethodPut, "/api/profile",
		strings.NewReader(`{"first_name":"Pat","last_name":"Quine","phone":"555"}`))
	req = req.WithContext(auth.WithIdentity(req.Context(), ident))
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), ident))
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var u users.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &u))
	assert.Equal(t, "Pat", u.FirstName)
	assert.Equal(t, "555", u.Phone)
}
