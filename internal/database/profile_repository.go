package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"geekhub/models"
)

// ProfileRepository stores the profile snapshot taken from identity tokens.
type ProfileRepository struct {
	db *DB
}

// Upsert creates the profile or refreshes its display fields.
func (r *ProfileRepository) Upsert(ctx context.Context, p models.Profile) error {
	now := time.Now().UTC()
	_, err := r.db.conn.ExecContext(ctx, r.db.rebind(`
		INSERT INTO profiles (id, display_name, avatar_url, email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			display_name = COALESCE(excluded.display_name, profiles.display_name),
			avatar_url = COALESCE(excluded.avatar_url, profiles.avatar_url),
			email = CASE WHEN excluded.email = '' THEN profiles.email ELSE excluded.email END,
			updated_at = excluded.updated_at`),
		p.ID, nullString(p.DisplayName), nullString(p.AvatarURL), p.Email, now, now)
	return err
}

// Get returns the profile or ErrNotFound.
func (r *ProfileRepository) Get(ctx context.Context, id string) (*models.Profile, error) {
	var (
		p       models.Profile
		display sql.NullString
		avatar  sql.NullString
	)
	err := r.db.conn.QueryRowContext(ctx, r.db.rebind(
		`SELECT id, display_name, avatar_url, email FROM profiles WHERE id = ?`), id).
		Scan(&p.ID, &display, &avatar, &p.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.DisplayName = stringPtr(display)
	p.AvatarURL = stringPtr(avatar)
	return &p, nil
}
