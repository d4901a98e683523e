package stats

//go:generate mockgen -source=service.go -destination=mock_source_test.go -package=stats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"geekhub/internal/logging"
	"geekhub/internal/metrics"
	"geekhub/models"
)

var (
	ErrUserIDRequired = errors.New("user id is required")
	ErrInvalidScope   = errors.New("scope must be mine or group")
	ErrInvalidType    = errors.New("type must be all, movie, tv, anime or game")
	ErrInvalidYear    = errors.New("year is out of range")
	ErrNoGroup        = errors.New("user does not belong to a group")
)

// EntryFilter narrows the library entries handed to the aggregator.
type EntryFilter struct {
	UserIDs   []string
	MediaType models.MediaType // empty selects every type
	// UpdatedFrom and UpdatedTo bound updated_at as [from, to).
	UpdatedFrom time.Time
	UpdatedTo   time.Time
}

// EntrySource reads library entries joined with their owner profiles.
type EntrySource interface {
	ListEntriesWithProfiles(ctx context.Context, filter EntryFilter) ([]models.LibraryEntryWithProfile, error)
}

// GroupResolver finds the members of the group a user belongs to. An empty
// slice means the user has no group.
type GroupResolver interface {
	GroupMemberIDs(ctx context.Context, userID string) ([]string, error)
}

// SummaryQuery selects the entries a summary is computed over.
type SummaryQuery struct {
	UserID   string
	Scope    string
	Year     int
	Type     string
	TopLimit int
}

// Service computes stats summaries from stored library entries.
type Service struct {
	entries  EntrySource
	groups   GroupResolver
	labels   [12]string
	topLimit int
	now      func() time.Time
}

// NewService wires the aggregator to its data sources.
func NewService(entries EntrySource, groups GroupResolver, locale string, topLimit int) *Service {
	if topLimit <= 0 {
		topLimit = DefaultTopRatedLimit
	}
	return &Service{
		entries:  entries,
		groups:   groups,
		labels:   MonthLabels(locale),
		topLimit: topLimit,
		now:      time.Now,
	}
}

// Summary loads the entries selected by q and aggregates them.
func (s *Service) Summary(ctx context.Context, q SummaryQuery) (models.StatsSummary, error) {
	q, err := s.normalizeQuery(q)
	if err != nil {
		return models.StatsSummary{}, err
	}

	filter := EntryFilter{
		UserIDs:     []string{q.UserID},
		UpdatedFrom: time.Date(q.Year, time.January, 1, 0, 0, 0, 0, time.UTC),
		UpdatedTo:   time.Date(q.Year+1, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	if q.Type != models.StatsTypeAll {
		filter.MediaType = models.MediaType(q.Type)
	}

	if q.Scope == models.ScopeGroup {
		members, err := s.groups.GroupMemberIDs(ctx, q.UserID)
		if err != nil {
			return models.StatsSummary{}, fmt.Errorf("resolve group members: %w", err)
		}
		if len(members) == 0 {
			return models.StatsSummary{}, ErrNoGroup
		}
		filter.UserIDs = members
	}

	started := time.Now()
	defer func() {
		metrics.StatsSummaryDuration.WithLabelValues(q.Scope).Observe(time.Since(started).Seconds())
	}()

	entries, err := s.entries.ListEntriesWithProfiles(ctx, filter)
	if err != nil {
		return models.StatsSummary{}, fmt.Errorf("list library entries: %w", err)
	}

	logging.With("component", "stats").Debug("aggregating stats",
		"user", q.UserID, "scope", q.Scope, "year", q.Year, "type", q.Type, "entries", len(entries))

	return AggregateSummary(entries, q.Scope, q.Year, q.Type, Options{
		TopRatedLimit: q.TopLimit,
		Labels:        s.labels,
	}), nil
}

func (s *Service) normalizeQuery(q SummaryQuery) (SummaryQuery, error) {
	q.UserID = strings.TrimSpace(q.UserID)
	if q.UserID == "" {
		return q, ErrUserIDRequired
	}

	q.Scope = strings.ToLower(strings.TrimSpace(q.Scope))
	if q.Scope == "" {
		q.Scope = models.ScopeMine
	}
	if q.Scope != models.ScopeMine && q.Scope != models.ScopeGroup {
		return q, ErrInvalidScope
	}

	q.Type = strings.ToLower(strings.TrimSpace(q.Type))
	if q.Type == "" {
		q.Type = models.StatsTypeAll
	}
	if q.Type != models.StatsTypeAll && !models.MediaType(q.Type).Valid() {
		return q, ErrInvalidType
	}

	if q.Year == 0 {
		q.Year = s.now().UTC().Year()
	}
	if q.Year < 1970 || q.Year > 9999 {
		return q, ErrInvalidYear
	}

	if q.TopLimit <= 0 {
		q.TopLimit = s.topLimit
	}
	return q, nil
}
