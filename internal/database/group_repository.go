package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"geekhub/models"
	"geekhub/services/stats"
)

var ErrAlreadyInGroup = errors.New("user already belongs to a group")

// GroupRepository stores groups and their memberships.
type GroupRepository struct {
	db *DB
}

var _ stats.GroupResolver = (*GroupRepository)(nil)

// Create stores the group and makes its owner the first member.
func (r *GroupRepository) Create(ctx context.Context, g *models.Group) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		if err := r.ensureNoGroup(ctx, tx, g.OwnerID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, r.db.rebind(
			`INSERT INTO user_groups (id, name, owner_id, created_at) VALUES (?, ?, ?, ?)`),
			g.ID, g.Name, g.OwnerID, g.CreatedAt.UTC()); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, r.db.rebind(
			`INSERT INTO group_members (group_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)`),
			g.ID, g.OwnerID, models.GroupRoleOwner, g.CreatedAt.UTC())
		return err
	})
}

// addMember joins a user to a group. A user belongs to at most one group.
func (r *GroupRepository) addMember(ctx context.Context, q queryer, groupID, userID, role string, at time.Time) error {
	if err := r.ensureNoGroup(ctx, q, userID); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx, r.db.rebind(
		`INSERT INTO group_members (group_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)`),
		groupID, userID, role, at.UTC())
	return err
}

func (r *GroupRepository) ensureNoGroup(ctx context.Context, q queryer, userID string) error {
	var existing string
	err := q.QueryRowContext(ctx, r.db.rebind(
		`SELECT group_id FROM group_members WHERE user_id = ?`), userID).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	return ErrAlreadyInGroup
}

// RemoveMember drops a membership. The group is deleted with its last member.
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, r.db.rebind(
			`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`), groupID, userID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		var remaining int
		if err := tx.QueryRowContext(ctx, r.db.rebind(
			`SELECT COUNT(*) FROM group_members WHERE group_id = ?`), groupID).Scan(&remaining); err != nil {
			return err
		}
		if remaining == 0 {
			_, err = tx.ExecContext(ctx, r.db.rebind(`DELETE FROM user_groups WHERE id = ?`), groupID)
			return err
		}
		// hand ownership to the longest-standing member
		_, err = tx.ExecContext(ctx, r.db.rebind(`
			UPDATE user_groups SET owner_id = (
				SELECT user_id FROM group_members WHERE group_id = ? ORDER BY joined_at ASC, user_id ASC LIMIT 1
			) WHERE id = ? AND owner_id = ?`), groupID, groupID, userID)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, r.db.rebind(`
			UPDATE group_members SET role = ?
			WHERE group_id = ? AND user_id = (SELECT owner_id FROM user_groups WHERE id = ?)`),
			models.GroupRoleOwner, groupID, groupID)
		return err
	})
}

// Get returns a group or ErrNotFound.
func (r *GroupRepository) Get(ctx context.Context, id string) (*models.Group, error) {
	var g models.Group
	err := r.db.conn.QueryRowContext(ctx, r.db.rebind(
		`SELECT id, name, owner_id, created_at FROM user_groups WHERE id = ?`), id).
		Scan(&g.ID, &g.Name, &g.OwnerID, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	g.CreatedAt = g.CreatedAt.UTC()
	return &g, nil
}

// ForUser returns the user's group, or nil when they have none.
func (r *GroupRepository) ForUser(ctx context.Context, userID string) (*models.Group, error) {
	var g models.Group
	err := r.db.conn.QueryRowContext(ctx, r.db.rebind(`
		SELECT g.id, g.name, g.owner_id, g.created_at
		FROM user_groups g JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = ?`), userID).
		Scan(&g.ID, &g.Name, &g.OwnerID, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	g.CreatedAt = g.CreatedAt.UTC()
	return &g, nil
}

// Members lists a group's members with their profiles, oldest first.
func (r *GroupRepository) Members(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	rows, err := r.db.conn.QueryContext(ctx, r.db.rebind(`
		SELECT m.group_id, m.user_id, m.role, m.joined_at, p.id, p.display_name, p.avatar_url, p.email
		FROM group_members m JOIN profiles p ON p.id = m.user_id
		WHERE m.group_id = ?
		ORDER BY m.joined_at ASC, m.user_id ASC`), groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []models.GroupMember{}
	for rows.Next() {
		var (
			m       models.GroupMember
			display sql.NullString
			avatar  sql.NullString
		)
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.Role, &m.JoinedAt,
			&m.Profile.ID, &display, &avatar, &m.Profile.Email); err != nil {
			return nil, err
		}
		m.JoinedAt = m.JoinedAt.UTC()
		m.Profile.DisplayName = stringPtr(display)
		m.Profile.AvatarURL = stringPtr(avatar)
		members = append(members, m)
	}
	return members, rows.Err()
}

// GroupMemberIDs returns the ids of everyone in the user's group, the user
// included. It is empty when the user has no group.
func (r *GroupRepository) GroupMemberIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.conn.QueryContext(ctx, r.db.rebind(`
		SELECT m.user_id FROM group_members m
		WHERE m.group_id = (SELECT group_id FROM group_members WHERE user_id = ?)
		ORDER BY m.joined_at ASC, m.user_id ASC`), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
