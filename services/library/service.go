package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"geekhub/internal/database"
	"geekhub/internal/logging"
	"geekhub/internal/validation"
	"geekhub/models"
)

var (
	ErrUserIDRequired = errors.New("user id is required")
	ErrEntryNotFound  = errors.New("library entry not found")
)

// Store persists library entries.
type Store interface {
	Save(ctx context.Context, e *models.LibraryEntry) error
	FindByContent(ctx context.Context, userID string, t models.MediaType, provider models.Provider, externalID string) (*models.LibraryEntry, error)
	Get(ctx context.Context, userID, id string) (*models.LibraryEntry, error)
	List(ctx context.Context, userID string, f database.LibraryFilter) ([]models.LibraryEntry, error)
	Delete(ctx context.Context, userID, id string) error
}

// Recorder receives library activity. May be nil.
type Recorder interface {
	Record(ctx context.Context, ev models.ActivityEvent) error
}

// Service manages users' library entries.
type Service struct {
	store    Store
	activity Recorder
	now      func() time.Time
}

func NewService(store Store, activity Recorder) *Service {
	return &Service{store: store, activity: activity, now: func() time.Time { return time.Now().UTC() }}
}

// AddOrUpdate saves the user's entry for a catalog item. Completing an item
// stamps FinishedAt unless the client supplied one; leaving the completed
// state clears it.
func (s *Service) AddOrUpdate(ctx context.Context, userID string, in models.LibraryUpsert) (models.LibraryEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.LibraryEntry{}, ErrUserIDRequired
	}
	in.ExternalID = strings.TrimSpace(in.ExternalID)
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return models.LibraryEntry{}, err
	}

	existing, err := s.store.FindByContent(ctx, userID, in.MediaType, in.Provider, in.ExternalID)
	if err != nil {
		return models.LibraryEntry{}, fmt.Errorf("load entry: %w", err)
	}

	now := s.now()
	entry := models.LibraryEntry{
		ID:         uuid.NewString(),
		UserID:     userID,
		ContentID:  in.ContentID(),
		MediaType:  in.MediaType,
		Provider:   in.Provider,
		ExternalID: in.ExternalID,
		Title:      in.Title,
		PosterURL:  in.PosterURL,
		Status:     in.Status,
		Rating:     in.Rating,
		IsFavorite: in.IsFavorite,
		Notes:      in.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if existing != nil {
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
	}
	entry.FinishedAt = finishedAt(in, existing, now)

	if err := s.store.Save(ctx, &entry); err != nil {
		return models.LibraryEntry{}, fmt.Errorf("save entry: %w", err)
	}

	for _, ev := range changeEvents(existing, entry) {
		s.record(ctx, ev)
	}
	return entry, nil
}

func finishedAt(in models.LibraryUpsert, existing *models.LibraryEntry, now time.Time) *time.Time {
	if in.Status != models.StatusCompleted {
		return nil
	}
	if in.FinishedAt != nil {
		t := in.FinishedAt.UTC()
		return &t
	}
	if existing != nil && existing.Status == models.StatusCompleted && existing.FinishedAt != nil {
		return existing.FinishedAt
	}
	return &now
}

func changeEvents(before *models.LibraryEntry, after models.LibraryEntry) []models.ActivityEvent {
	base := models.ActivityEvent{UserID: after.UserID, ContentID: after.ContentID, Title: after.Title}
	var events []models.ActivityEvent
	if before == nil {
		ev := base
		ev.Kind = models.ActivityLibraryAdded
		ev.Payload = map[string]any{"type": string(after.MediaType), "status": string(after.Status)}
		events = append(events, ev)
	} else if before.Status != after.Status {
		ev := base
		ev.Kind = models.ActivityStatusChanged
		ev.Payload = map[string]any{"from": string(before.Status), "to": string(after.Status)}
		events = append(events, ev)
	}
	if after.Rating != nil && (before == nil || before.Rating == nil || *before.Rating != *after.Rating) {
		ev := base
		ev.Kind = models.ActivityRated
		ev.Payload = map[string]any{"rating": *after.Rating}
		events = append(events, ev)
	}
	return events
}

// List returns the user's entries, most recently updated first.
func (s *Service) List(ctx context.Context, userID string, f database.LibraryFilter) ([]models.LibraryEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}
	return s.store.List(ctx, userID, f)
}

// Remove deletes one of the user's entries.
func (s *Service) Remove(ctx context.Context, userID, id string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrUserIDRequired
	}
	entry, err := s.store.Get(ctx, userID, id)
	if errors.Is(err, database.ErrNotFound) {
		return ErrEntryNotFound
	}
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrEntryNotFound
		}
		return err
	}
	s.record(ctx, models.ActivityEvent{
		UserID:    userID,
		Kind:      models.ActivityLibraryRemoved,
		ContentID: entry.ContentID,
		Title:     entry.Title,
	})
	return nil
}

func (s *Service) record(ctx context.Context, ev models.ActivityEvent) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(ctx, ev); err != nil {
		logging.With("component", "library").Warn("failed to record activity", "kind", ev.Kind, "error", err)
	}
}
