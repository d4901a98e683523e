package invitations

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-password/password"

	"geekhub/internal/database"
	"geekhub/internal/logging"
	"geekhub/models"
)

var (
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrInvitationExpired  = errors.New("invitation has expired")
	ErrInvitationUsed     = errors.New("invitation has already been used")
	ErrInvalidToken       = errors.New("invalid invitation token")
	ErrNoGroup            = errors.New("user does not belong to a group")
	ErrAlreadyInGroup     = errors.New("user already belongs to a group")
	ErrGroupNameRequired  = errors.New("group name is required")
	ErrGroupNameTooLong   = errors.New("group name is too long")
)

const (
	// DefaultExpirationDuration is how long invitations are valid by default (7 days)
	DefaultExpirationDuration = 7 * 24 * time.Hour
	// TokenLength is the length of the generated token in bytes (before base64 encoding)
	TokenLength = 32
	// CodeLength is the length of the short code shared by hand
	CodeLength = 8

	maxGroupNameLength = 80
)

// Store persists invitations.
type Store interface {
	Create(ctx context.Context, inv *models.Invitation) error
	GetByToken(ctx context.Context, token string) (*models.Invitation, error)
	List(ctx context.Context, groupID string) ([]models.Invitation, error)
	Delete(ctx context.Context, groupID, id string) error
	Redeem(ctx context.Context, inv *models.Invitation, userID string, at time.Time) error
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}

// GroupStore persists groups and memberships.
type GroupStore interface {
	Create(ctx context.Context, g *models.Group) error
	Get(ctx context.Context, id string) (*models.Group, error)
	ForUser(ctx context.Context, userID string) (*models.Group, error)
	Members(ctx context.Context, groupID string) ([]models.GroupMember, error)
	RemoveMember(ctx context.Context, groupID, userID string) error
}

// Recorder receives group activity. May be nil.
type Recorder interface {
	Record(ctx context.Context, ev models.ActivityEvent) error
}

// codeGenerator draws short codes from uppercase letters and digits without
// look-alike characters.
var codeGenerator = mustCodeGenerator()

func mustCodeGenerator() *password.Generator {
	gen, err := password.NewGenerator(&password.GeneratorInput{
		LowerLetters: "ABCDEFGHJKLMNPQRSTUVWXYZ",
		UpperLetters: "ABCDEFGHJKLMNPQRSTUVWXYZ",
		Digits:       "23456789",
		Symbols:      "-",
	})
	if err != nil {
		panic(err)
	}
	return gen
}

// Service manages groups and the invitation links used to join them.
type Service struct {
	invitations Store
	groups      GroupStore
	activity    Recorder
	now         func() time.Time
}

// NewService wires the service to its stores.
func NewService(invitations Store, groups GroupStore, activity Recorder) *Service {
	return &Service{
		invitations: invitations,
		groups:      groups,
		activity:    activity,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateGroup makes a new group owned by the caller.
func (s *Service) CreateGroup(ctx context.Context, ownerID, name string) (models.GroupDetails, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.GroupDetails{}, ErrGroupNameRequired
	}
	if len([]rune(name)) > maxGroupNameLength {
		return models.GroupDetails{}, ErrGroupNameTooLong
	}

	group := models.Group{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: s.now(),
	}
	if err := s.groups.Create(ctx, &group); err != nil {
		if errors.Is(err, database.ErrAlreadyInGroup) {
			return models.GroupDetails{}, ErrAlreadyInGroup
		}
		return models.GroupDetails{}, fmt.Errorf("create group: %w", err)
	}
	s.record(ctx, models.ActivityEvent{
		UserID:  ownerID,
		Kind:    models.ActivityGroupCreated,
		Title:   group.Name,
		Payload: map[string]any{"groupId": group.ID},
	})
	return s.details(ctx, &group)
}

// MyGroup returns the caller's group with its members.
func (s *Service) MyGroup(ctx context.Context, userID string) (models.GroupDetails, error) {
	group, err := s.groups.ForUser(ctx, userID)
	if err != nil {
		return models.GroupDetails{}, err
	}
	if group == nil {
		return models.GroupDetails{}, ErrNoGroup
	}
	return s.details(ctx, group)
}

// Leave removes the caller from their group.
func (s *Service) Leave(ctx context.Context, userID string) error {
	group, err := s.groups.ForUser(ctx, userID)
	if err != nil {
		return err
	}
	if group == nil {
		return ErrNoGroup
	}
	return s.groups.RemoveMember(ctx, group.ID, userID)
}

func (s *Service) details(ctx context.Context, group *models.Group) (models.GroupDetails, error) {
	members, err := s.groups.Members(ctx, group.ID)
	if err != nil {
		return models.GroupDetails{}, fmt.Errorf("list members: %w", err)
	}
	return models.GroupDetails{Group: *group, Members: members}, nil
}

// Create generates an invitation to the caller's group.
func (s *Service) Create(ctx context.Context, createdBy string, expiresIn time.Duration) (models.Invitation, error) {
	if expiresIn <= 0 {
		expiresIn = DefaultExpirationDuration
	}
	group, err := s.groups.ForUser(ctx, createdBy)
	if err != nil {
		return models.Invitation{}, err
	}
	if group == nil {
		return models.Invitation{}, ErrNoGroup
	}

	// Generate a secure random token
	tokenBytes := make([]byte, TokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return models.Invitation{}, fmt.Errorf("generate token: %w", err)
	}
	code, err := codeGenerator.Generate(CodeLength, 3, 0, false, true)
	if err != nil {
		return models.Invitation{}, fmt.Errorf("generate code: %w", err)
	}

	now := s.now()
	invitation := models.Invitation{
		ID:        uuid.NewString(),
		GroupID:   group.ID,
		Token:     base64.URLEncoding.EncodeToString(tokenBytes),
		Code:      code,
		CreatedBy: createdBy,
		ExpiresAt: now.Add(expiresIn),
		CreatedAt: now,
	}
	if err := s.invitations.Create(ctx, &invitation); err != nil {
		return models.Invitation{}, fmt.Errorf("store invitation: %w", err)
	}
	return invitation, nil
}

// GetByToken finds an invitation by its token or short code.
func (s *Service) GetByToken(ctx context.Context, token string) (models.Invitation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.Invitation{}, ErrInvalidToken
	}
	inv, err := s.invitations.GetByToken(ctx, token)
	if errors.Is(err, database.ErrNotFound) {
		return models.Invitation{}, ErrInvitationNotFound
	}
	if err != nil {
		return models.Invitation{}, err
	}
	return *inv, nil
}

// Validate checks that an invitation exists, is unused and not expired, and
// describes the group it leads to.
func (s *Service) Validate(ctx context.Context, token string) (models.InvitationPreview, error) {
	inv, err := s.usable(ctx, token)
	if err != nil {
		return models.InvitationPreview{}, err
	}
	group, err := s.groups.Get(ctx, inv.GroupID)
	if errors.Is(err, database.ErrNotFound) {
		return models.InvitationPreview{}, ErrInvitationNotFound
	}
	if err != nil {
		return models.InvitationPreview{}, err
	}
	return models.InvitationPreview{GroupID: group.ID, GroupName: group.Name, ExpiresAt: inv.ExpiresAt}, nil
}

func (s *Service) usable(ctx context.Context, token string) (models.Invitation, error) {
	inv, err := s.GetByToken(ctx, token)
	if err != nil {
		return models.Invitation{}, err
	}
	if inv.UsedAt != nil {
		return models.Invitation{}, ErrInvitationUsed
	}
	if s.now().After(inv.ExpiresAt) {
		return models.Invitation{}, ErrInvitationExpired
	}
	return inv, nil
}

// Accept marks the invitation used and adds the caller to its group.
func (s *Service) Accept(ctx context.Context, token, userID string) (models.GroupDetails, error) {
	inv, err := s.usable(ctx, token)
	if err != nil {
		return models.GroupDetails{}, err
	}
	if err := s.invitations.Redeem(ctx, &inv, userID, s.now()); err != nil {
		switch {
		case errors.Is(err, database.ErrInvitationConsumed):
			return models.GroupDetails{}, ErrInvitationUsed
		case errors.Is(err, database.ErrAlreadyInGroup):
			return models.GroupDetails{}, ErrAlreadyInGroup
		}
		return models.GroupDetails{}, fmt.Errorf("redeem invitation: %w", err)
	}

	group, err := s.groups.Get(ctx, inv.GroupID)
	if err != nil {
		return models.GroupDetails{}, err
	}
	s.record(ctx, models.ActivityEvent{
		UserID:  userID,
		Kind:    models.ActivityGroupJoined,
		Title:   group.Name,
		Payload: map[string]any{"groupId": group.ID},
	})
	return s.details(ctx, group)
}

// List returns the invitations of the caller's group, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]models.Invitation, error) {
	group, err := s.groups.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrNoGroup
	}
	return s.invitations.List(ctx, group.ID)
}

// Delete removes an invitation of the caller's group.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	group, err := s.groups.ForUser(ctx, userID)
	if err != nil {
		return err
	}
	if group == nil {
		return ErrNoGroup
	}
	if err := s.invitations.Delete(ctx, group.ID, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrInvitationNotFound
		}
		return err
	}
	return nil
}

// CleanupExpired removes expired and used invitations older than the given duration.
func (s *Service) CleanupExpired(ctx context.Context, olderThan time.Duration) (int, error) {
	removed, err := s.invitations.DeleteStale(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		logging.With("component", "invitations").Info("removed expired invitations", "count", removed)
	}
	return int(removed), nil
}

func (s *Service) record(ctx context.Context, ev models.ActivityEvent) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(ctx, ev); err != nil {
		logging.With("component", "invitations").Warn("failed to record activity", "kind", ev.Kind, "error", err)
	}
}
