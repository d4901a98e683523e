package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"geekhub/models"
	"geekhub/services/stats"
)

// LibraryRepository stores library entries. It is also the stats entry source.
type LibraryRepository struct {
	db *DB
}

var _ stats.EntrySource = (*LibraryRepository)(nil)

// LibraryFilter narrows List results.
type LibraryFilter struct {
	MediaType models.MediaType
	Status    models.EntryStatus
	Favorites bool
	Limit     int
	Offset    int
}

const libraryColumns = `e.id, e.user_id, e.content_id, e.type, e.provider, e.external_id, e.title, e.poster_url,
	e.status, e.rating, e.is_favorite, e.notes, e.created_at, e.updated_at, e.finished_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner, extra ...any) (models.LibraryEntry, error) {
	var (
		e        models.LibraryEntry
		poster   sql.NullString
		rating   sql.NullInt64
		finished sql.NullTime
	)
	dest := []any{
		&e.ID, &e.UserID, &e.ContentID, &e.MediaType, &e.Provider, &e.ExternalID, &e.Title, &poster,
		&e.Status, &rating, &e.IsFavorite, &e.Notes, &e.CreatedAt, &e.UpdatedAt, &finished,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return e, err
	}
	e.PosterURL = stringPtr(poster)
	e.Rating = intPtr(rating)
	e.FinishedAt = timePtr(finished)
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e, nil
}

// Save inserts the entry or updates the existing row for the same
// (user, type, provider, external id).
func (r *LibraryRepository) Save(ctx context.Context, e *models.LibraryEntry) error {
	_, err := r.db.conn.ExecContext(ctx, r.db.rebind(`
		INSERT INTO library_entries (id, user_id, content_id, type, provider, external_id, title, poster_url,
			status, rating, is_favorite, notes, created_at, updated_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, type, provider, external_id) DO UPDATE SET
			title = excluded.title,
			poster_url = excluded.poster_url,
			status = excluded.status,
			rating = excluded.rating,
			is_favorite = excluded.is_favorite,
			notes = excluded.notes,
			updated_at = excluded.updated_at,
			finished_at = excluded.finished_at`),
		e.ID, e.UserID, e.ContentID, string(e.MediaType), string(e.Provider), e.ExternalID, e.Title, nullString(e.PosterURL),
		string(e.Status), nullInt(e.Rating), e.IsFavorite, e.Notes, e.CreatedAt.UTC(), e.UpdatedAt.UTC(), nullTime(e.FinishedAt))
	return err
}

// FindByContent returns the user's entry for a catalog item, or nil.
func (r *LibraryRepository) FindByContent(ctx context.Context, userID string, t models.MediaType, provider models.Provider, externalID string) (*models.LibraryEntry, error) {
	row := r.db.conn.QueryRowContext(ctx, r.db.rebind(`SELECT `+libraryColumns+`
		FROM library_entries e
		WHERE e.user_id = ? AND e.type = ? AND e.provider = ? AND e.external_id = ?`),
		userID, string(t), string(provider), externalID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Get returns one of the user's entries or ErrNotFound.
func (r *LibraryRepository) Get(ctx context.Context, userID, id string) (*models.LibraryEntry, error) {
	row := r.db.conn.QueryRowContext(ctx, r.db.rebind(`SELECT `+libraryColumns+`
		FROM library_entries e WHERE e.user_id = ? AND e.id = ?`), userID, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns the user's entries, most recently updated first.
func (r *LibraryRepository) List(ctx context.Context, userID string, f LibraryFilter) ([]models.LibraryEntry, error) {
	var (
		where = []string{"e.user_id = ?"}
		args  = []any{userID}
	)
	if f.MediaType != "" {
		where = append(where, "e.type = ?")
		args = append(args, string(f.MediaType))
	}
	if f.Status != "" {
		where = append(where, "e.status = ?")
		args = append(args, string(f.Status))
	}
	if f.Favorites {
		where = append(where, "e.is_favorite = ?")
		args = append(args, true)
	}
	query := `SELECT ` + libraryColumns + ` FROM library_entries e WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY e.updated_at DESC, e.id ASC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.conn.QueryContext(ctx, r.db.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.LibraryEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes one of the user's entries.
func (r *LibraryRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.conn.ExecContext(ctx, r.db.rebind(
		`DELETE FROM library_entries WHERE user_id = ? AND id = ?`), userID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEntriesWithProfiles returns entries joined with their owner profile,
// ordered by updated_at DESC, id ASC so aggregation ties are deterministic.
func (r *LibraryRepository) ListEntriesWithProfiles(ctx context.Context, f stats.EntryFilter) ([]models.LibraryEntryWithProfile, error) {
	if len(f.UserIDs) == 0 {
		return []models.LibraryEntryWithProfile{}, nil
	}
	where := []string{"e.user_id IN (" + placeholders(len(f.UserIDs)) + ")"}
	args := make([]any, 0, len(f.UserIDs)+3)
	for _, id := range f.UserIDs {
		args = append(args, id)
	}
	if f.MediaType != "" {
		where = append(where, "e.type = ?")
		args = append(args, string(f.MediaType))
	}
	if !f.UpdatedFrom.IsZero() {
		where = append(where, "e.updated_at >= ?")
		args = append(args, f.UpdatedFrom.UTC())
	}
	if !f.UpdatedTo.IsZero() {
		where = append(where, "e.updated_at < ?")
		args = append(args, f.UpdatedTo.UTC())
	}

	query := `SELECT ` + libraryColumns + `, p.id, p.display_name, p.avatar_url, p.email
		FROM library_entries e
		JOIN profiles p ON p.id = e.user_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY e.updated_at DESC, e.id ASC`

	rows, err := r.db.conn.QueryContext(ctx, r.db.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.LibraryEntryWithProfile{}
	for rows.Next() {
		var (
			p       models.Profile
			display sql.NullString
			avatar  sql.NullString
		)
		e, err := scanEntry(rows, &p.ID, &display, &avatar, &p.Email)
		if err != nil {
			return nil, err
		}
		p.DisplayName = stringPtr(display)
		p.AvatarURL = stringPtr(avatar)
		out = append(out, models.LibraryEntryWithProfile{LibraryEntry: e, Profiles: p})
	}
	return out, rows.Err()
}
