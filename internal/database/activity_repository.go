package database

import (
	"context"
	"database/sql"

	"github.com/goccy/go-json"

	"geekhub/models"
)

// ActivityRepository stores feed events.
type ActivityRepository struct {
	db *DB
}

func (r *ActivityRepository) Insert(ctx context.Context, ev *models.ActivityEvent) error {
	payload := []byte("{}")
	if len(ev.Payload) > 0 {
		var err error
		if payload, err = json.Marshal(ev.Payload); err != nil {
			return err
		}
	}
	_, err := r.db.conn.ExecContext(ctx, r.db.rebind(`
		INSERT INTO activity_events (id, user_id, kind, content_id, title, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		ev.ID, ev.UserID, ev.Kind, ev.ContentID, ev.Title, string(payload), ev.CreatedAt.UTC())
	return err
}

// ListForUsers returns the newest events of the given users with their
// profiles attached.
func (r *ActivityRepository) ListForUsers(ctx context.Context, userIDs []string, limit int) ([]models.ActivityEvent, error) {
	if len(userIDs) == 0 {
		return []models.ActivityEvent{}, nil
	}
	args := make([]any, 0, len(userIDs)+1)
	for _, id := range userIDs {
		args = append(args, id)
	}
	args = append(args, limit)

	rows, err := r.db.conn.QueryContext(ctx, r.db.rebind(`
		SELECT a.id, a.user_id, a.kind, a.content_id, a.title, a.payload, a.created_at,
			p.id, p.display_name, p.avatar_url, p.email
		FROM activity_events a JOIN profiles p ON p.id = a.user_id
		WHERE a.user_id IN (`+placeholders(len(userIDs))+`)
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT ?`), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.ActivityEvent{}
	for rows.Next() {
		var (
			ev      models.ActivityEvent
			payload string
			p       models.Profile
			display sql.NullString
			avatar  sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.Kind, &ev.ContentID, &ev.Title, &payload, &ev.CreatedAt,
			&p.ID, &display, &avatar, &p.Email); err != nil {
			return nil, err
		}
		if payload != "" && payload != "{}" {
			if err := json.Unmarshal([]byte(payload), &ev.Payload); err != nil {
				return nil, err
			}
		}
		ev.CreatedAt = ev.CreatedAt.UTC()
		p.DisplayName = stringPtr(display)
		p.AvatarURL = stringPtr(avatar)
		ev.Profile = &p
		events = append(events, ev)
	}
	return events, rows.Err()
}
