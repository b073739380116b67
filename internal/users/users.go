package users

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/example/watchlist/internal/db"
)

const (
	MaxNameLen     = 20
	MaxUsernameLen = 20

	// DefaultAdminName is the display name given to a user created by the admin command.
	DefaultAdminName = "Admin"
)

var (
	ErrInvalidName     = errors.New("invalid display name")
	ErrInvalidUsername = errors.New("invalid username")
)

// User is the single account of the watchlist. PasswordHash is a bcrypt digest.
type User struct {
	ID           int64
	Name         string
	Username     string
	PasswordHash string
}

func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name required", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidName, MaxNameLen)
	}
	return nil
}

func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("%w: username required", ErrInvalidUsername)
	}
	if utf8.RuneCountInString(username) > MaxUsernameLen {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidUsername, MaxUsernameLen)
	}
	return nil
}

type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

const selectUser = `SELECT id, name, username, password_hash FROM users`

// First returns the sole user, or db.ErrNotFound before one is provisioned.
func (r *Repo) First(ctx context.Context) (User, error) {
	var u User
	err := r.db.QueryRow(ctx, selectUser+` ORDER BY id ASC LIMIT 1`).Scan(&u.ID, &u.Name, &u.Username, &u.PasswordHash)
	if err != nil {
		return User{}, db.WrapNotFound(err)
	}
	return u, nil
}

func (r *Repo) Get(ctx context.Context, id int64) (User, error) {
	var u User
	err := r.db.QueryRow(ctx, selectUser+` WHERE id=$1`, id).Scan(&u.ID, &u.Name, &u.Username, &u.PasswordHash)
	if err != nil {
		return User{}, db.WrapNotFound(err)
	}
	return u, nil
}

func (r *Repo) UpdateName(ctx context.Context, id int64, name string) error {
	n, err := r.db.ExecAffected(ctx, `UPDATE users SET name=$2 WHERE id=$1`, id, name)
	if err != nil {
		return fmt.Errorf("update user %d: %w", id, err)
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// SetAdmin gives the sole user new login credentials, creating the user
// when none exists yet. created reports which of the two happened.
func (r *Repo) SetAdmin(ctx context.Context, username, passwordHash string) (created bool, err error) {
	err = r.db.WithTx(ctx, func(tx *db.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `SELECT id FROM users ORDER BY id ASC LIMIT 1`).Scan(&id)
		switch {
		case db.IsNotFound(err):
			created = true
			return tx.Exec(ctx, `INSERT INTO users(name, username, password_hash) VALUES ($1,$2,$3)`,
				DefaultAdminName, username, passwordHash)
		case err != nil:
			return err
		}
		return tx.Exec(ctx, `UPDATE users SET username=$2, password_hash=$3 WHERE id=$1`, id, username, passwordHash)
	})
	if err != nil {
		return false, fmt.Errorf("set admin: %w", err)
	}
	return created, nil
}

// CreateTx inserts a user with only a display name, as part of a larger transaction.
func CreateTx(ctx context.Context, tx *db.Tx, name string) error {
	return tx.Exec(ctx, `INSERT INTO users(name) VALUES ($1)`, name)
}
