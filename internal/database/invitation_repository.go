package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"geekhub/models"
)

var ErrInvitationConsumed = errors.New("invitation already used")

// InvitationRepository stores group invitations.
type InvitationRepository struct {
	db *DB
}

const invitationColumns = `id, group_id, token, code, created_by, expires_at, used_at, used_by, created_at`

func scanInvitation(row rowScanner) (models.Invitation, error) {
	var (
		inv  models.Invitation
		used sql.NullTime
	)
	err := row.Scan(&inv.ID, &inv.GroupID, &inv.Token, &inv.Code, &inv.CreatedBy,
		&inv.ExpiresAt, &used, &inv.UsedBy, &inv.CreatedAt)
	if err != nil {
		return inv, err
	}
	inv.ExpiresAt = inv.ExpiresAt.UTC()
	inv.CreatedAt = inv.CreatedAt.UTC()
	inv.UsedAt = timePtr(used)
	return inv, nil
}

func (r *InvitationRepository) Create(ctx context.Context, inv *models.Invitation) error {
	_, err := r.db.conn.ExecContext(ctx, r.db.rebind(`
		INSERT INTO invitations (`+invitationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		inv.ID, inv.GroupID, inv.Token, inv.Code, inv.CreatedBy,
		inv.ExpiresAt.UTC(), nullTime(inv.UsedAt), inv.UsedBy, inv.CreatedAt.UTC())
	return err
}

// GetByToken looks an invitation up by token or short code.
func (r *InvitationRepository) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	row := r.db.conn.QueryRowContext(ctx, r.db.rebind(
		`SELECT `+invitationColumns+` FROM invitations WHERE token = ? OR code = ?`), token, token)
	inv, err := scanInvitation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// List returns a group's invitations, newest first.
func (r *InvitationRepository) List(ctx context.Context, groupID string) ([]models.Invitation, error) {
	rows, err := r.db.conn.QueryContext(ctx, r.db.rebind(
		`SELECT `+invitationColumns+` FROM invitations WHERE group_id = ? ORDER BY created_at DESC, id ASC`), groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Invitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// Delete removes an invitation of the given group.
func (r *InvitationRepository) Delete(ctx context.Context, groupID, id string) error {
	res, err := r.db.conn.ExecContext(ctx, r.db.rebind(
		`DELETE FROM invitations WHERE group_id = ? AND id = ?`), groupID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Redeem marks the invitation used and adds the user to its group in one
// transaction.
func (r *InvitationRepository) Redeem(ctx context.Context, inv *models.Invitation, userID string, at time.Time) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, r.db.rebind(
			`UPDATE invitations SET used_at = ?, used_by = ? WHERE id = ? AND used_at IS NULL`),
			at.UTC(), userID, inv.ID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrInvitationConsumed
		}
		return r.db.Groups.addMember(ctx, tx, inv.GroupID, userID, models.GroupRoleMember, at)
	})
}

// DeleteStale removes invitations that expired, or were used, before the
// cutoff and returns how many were removed.
func (r *InvitationRepository) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.conn.ExecContext(ctx, r.db.rebind(
		`DELETE FROM invitations WHERE expires_at < ? OR (used_at IS NOT NULL AND used_at < ?)`), before.UTC(), before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
