package users

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Role IDs as seeded by cmd/seed.
const (
	RoleCustomer int64 = 1
	RoleManager  int64 = 2
	RoleAdmin    int64 = 3
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrEmailTaken  = errors.New("email already registered")
	errDuplicatePg = "23505" // unique_violation
)

type User struct {
	ID           int64     `json:"id"`
	RoleID       int64     `json:"role_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone"`
	StoreID      *int64    `json:"store_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, u User) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO users(role_id, email, password_hash, first_name, last_name, phone, store_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		u.RoleID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone, u.StoreID).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrEmailTaken
		}
		return 0, err
	}
	return id, nil
}

const userColumns = `id, role_id, email, password_hash, first_name, last_name, phone, store_id, created_at`

func (r *Repo) ByEmail(ctx context.Context, email string) (User, error) {
	return r.scanOne(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
}

func (r *Repo) ByID(ctx context.Context, id int64) (User, error) {
	return r.scanOne(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *Repo) scanOne(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.RoleID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone, &u.StoreID, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (r *Repo) UpdateProfile(ctx context.Context, id int64, firstName, lastName, phone string) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE users SET first_name=$2, last_name=$3, phone=$4 WHERE id=$1`,
		id, firstName, lastName, phone)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	type coder interface{ SQLState() string }
	var c coder
	return errors.As(err, &c) && c.SQLState() == errDuplicatePg
}
