package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/moviemaster/internal/models"
)

// SessionRepository persists the identity provider session in a single row.
type SessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

// Load returns the stored principal with its tokens, or [ErrNotFound].
func (r *SessionRepository) Load() (*models.Principal, error) {
	query := `
		SELECT uid, email, display_name, photo_url, id_token, refresh_token, expires_at
		FROM sessions
		WHERE id = 1
	`

	var p models.Principal
	err := r.db.QueryRow(query).Scan(
		&p.UID, &p.Email, &p.DisplayName, &p.PhotoURL, &p.IDToken, &p.RefreshToken, &p.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return &p, nil
}

// Save replaces the stored session.
func (r *SessionRepository) Save(p models.Principal) error {
	if p.UID == "" || p.RefreshToken == "" {
		return fmt.Errorf("session requires uid and refresh token")
	}

	query := `
		INSERT INTO sessions (id, uid, email, display_name, photo_url, id_token, refresh_token, expires_at, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			uid = excluded.uid,
			email = excluded.email,
			display_name = excluded.display_name,
			photo_url = excluded.photo_url,
			id_token = excluded.id_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, p.UID, p.Email, p.DisplayName, p.PhotoURL, p.IDToken, p.RefreshToken, p.ExpiresAt, r.now())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear removes the stored session.
func (r *SessionRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM sessions"); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
