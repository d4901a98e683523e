package activity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"geekhub/models"
)

const (
	DefaultFeedLimit = 30
	MaxFeedLimit     = 100
)

var ErrUserIDRequired = errors.New("user id is required")

// Store persists feed events.
type Store interface {
	Insert(ctx context.Context, ev *models.ActivityEvent) error
	ListForUsers(ctx context.Context, userIDs []string, limit int) ([]models.ActivityEvent, error)
}

// MemberResolver lists the members of a user's group, empty when none.
type MemberResolver interface {
	GroupMemberIDs(ctx context.Context, userID string) ([]string, error)
}

// Service records and reads the activity feed.
type Service struct {
	store   Store
	members MemberResolver
	now     func() time.Time
}

func NewService(store Store, members MemberResolver) *Service {
	return &Service{store: store, members: members, now: func() time.Time { return time.Now().UTC() }}
}

// Record stores an event, filling in id and timestamp when missing.
func (s *Service) Record(ctx context.Context, ev models.ActivityEvent) error {
	if ev.UserID == "" {
		return ErrUserIDRequired
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = s.now()
	}
	return s.store.Insert(ctx, &ev)
}

// Feed returns the newest events of the caller's group, or of the caller
// alone when they have no group.
func (s *Service) Feed(ctx context.Context, userID string, limit int) ([]models.ActivityEvent, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}
	ids, err := s.members.GroupMemberIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve group: %w", err)
	}
	if len(ids) == 0 {
		ids = []string{userID}
	}
	return s.store.ListForUsers(ctx, ids, limit)
}
