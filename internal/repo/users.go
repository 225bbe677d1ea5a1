package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"inkwell/internal/domain"
	"inkwell/internal/events"
)

var ErrEmailTaken = errors.New("email already registered")

// InsertUser stores a new user. PasswordHash must already be hashed.
func (r Repo) InsertUser(ctx context.Context, u domain.User) error {
	if u.ID == "" {
		return errors.New("id required")
	}
	if u.Email == "" {
		return errors.New("email required")
	}
	if u.PasswordHash == "" {
		return errors.New("password_hash required")
	}
	if u.CreatedAt == "" {
		u.CreatedAt = nowRFC3339()
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	_, err = tx.ExecContext(ctx, `INSERT INTO users(id,name,email,password_hash,created_at) VALUES (?,?,?,?,?)`,
		u.ID, u.Name, normalizeEmail(u.Email), u.PasswordHash, u.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrEmailTaken
		}
		return err
	}
	w := events.Writer{DB: r.DB}
	if err := w.Append(ctx, tx, "user.signup", "user", u.ID, u.ID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// GetUserByEmail returns a user including the password hash.
func (r Repo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id,name,email,password_hash,created_at FROM users WHERE email=?`, normalizeEmail(email))
	return scanUser(row)
}

// GetUser returns a user by id.
func (r Repo) GetUser(ctx context.Context, id string) (domain.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id,name,email,password_hash,created_at FROM users WHERE id=?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.User{}, ErrNotFound
	}
	return u, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
