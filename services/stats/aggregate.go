package stats

import (
	"math"
	"sort"
	"time"

	"geekhub/models"
)

// DefaultTopRatedLimit caps the top-rated list when no limit is given.
const DefaultTopRatedLimit = 5

// Options tunes AggregateSummary.
type Options struct {
	// TopRatedLimit caps the top-rated list; values <= 0 use DefaultTopRatedLimit.
	TopRatedLimit int
	// Labels are the month labels, January first; empty uses the default locale.
	Labels [12]string
}

// AggregateTotals counts entries per status, favorites, ratings and media type.
func AggregateTotals(entries []models.LibraryEntryWithProfile) models.Totals {
	totals := models.Totals{
		Total:  len(entries),
		ByType: make(map[models.MediaType]int, len(models.MediaTypes)),
	}
	for _, t := range models.MediaTypes {
		totals.ByType[t] = 0
	}

	var ratingSum int
	for _, e := range entries {
		switch e.Status {
		case models.StatusCompleted:
			totals.Completed++
		case models.StatusInProgress:
			totals.InProgress++
		case models.StatusPlanned:
			totals.Planned++
		case models.StatusDropped:
			totals.Dropped++
		}
		if e.IsFavorite {
			totals.Favorites++
		}
		if e.Rating != nil {
			totals.Rated++
			ratingSum += *e.Rating
		}
		if e.MediaType != "" {
			totals.ByType[e.MediaType]++
		}
	}

	totals.AvgRating = average(ratingSum, totals.Rated)
	return totals
}

// AggregateMonthly buckets completions and ratings by calendar month.
//
// Completed entries count in the month of FinishedAt, falling back to
// UpdatedAt. Rated entries count in the month of UpdatedAt. Months are read
// in UTC. Entries from other years are not rejected; callers pre-filter.
func AggregateMonthly(entries []models.LibraryEntryWithProfile, labels [12]string) [12]models.MonthBucket {
	if labels[0] == "" {
		labels = MonthLabels("")
	}

	var buckets [12]models.MonthBucket
	for i := range buckets {
		buckets[i] = models.MonthBucket{Month: i, Label: labels[i]}
	}

	for _, e := range entries {
		if e.Status == models.StatusCompleted {
			ts := e.UpdatedAt
			if e.FinishedAt != nil && !e.FinishedAt.IsZero() {
				ts = *e.FinishedAt
			}
			if idx, ok := monthIndex(ts); ok {
				buckets[idx].Completed++
			}
		}
		if e.Rating != nil {
			if idx, ok := monthIndex(e.UpdatedAt); ok {
				buckets[idx].Rated++
			}
		}
	}

	return buckets
}

// TopRated returns the rated entries, highest rating first. Equal ratings keep
// their input order.
func TopRated(entries []models.LibraryEntryWithProfile, limit int) []models.LibraryEntryWithProfile {
	if limit <= 0 {
		limit = DefaultTopRatedLimit
	}

	rated := make([]models.LibraryEntryWithProfile, 0, len(entries))
	for _, e := range entries {
		if e.Rating != nil {
			rated = append(rated, e)
		}
	}

	sort.SliceStable(rated, func(i, j int) bool {
		return *rated[i].Rating > *rated[j].Rating
	})

	if len(rated) > limit {
		rated = rated[:limit]
	}
	return rated
}

type memberAccumulator struct {
	stats     models.MemberStats
	ratingSum int
}

// AggregateMemberStats builds the per-user leaderboard: most completions
// first, then higher average rating, with unrated members after rated ones.
func AggregateMemberStats(entries []models.LibraryEntryWithProfile) []models.MemberStats {
	order := make([]string, 0)
	byUser := make(map[string]*memberAccumulator)

	for _, e := range entries {
		acc, ok := byUser[e.UserID]
		if !ok {
			acc = &memberAccumulator{stats: models.MemberStats{
				UserID:      e.UserID,
				DisplayName: e.Profiles.DisplayName,
				AvatarURL:   e.Profiles.AvatarURL,
			}}
			byUser[e.UserID] = acc
			order = append(order, e.UserID)
		}
		if e.Status == models.StatusCompleted {
			acc.stats.CompletedCount++
		}
		if e.Rating != nil {
			acc.stats.RatedCount++
			acc.ratingSum += *e.Rating
		}
	}

	members := make([]models.MemberStats, 0, len(order))
	for _, id := range order {
		acc := byUser[id]
		acc.stats.AvgRating = average(acc.ratingSum, acc.stats.RatedCount)
		members = append(members, acc.stats)
	}

	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if a.CompletedCount != b.CompletedCount {
			return a.CompletedCount > b.CompletedCount
		}
		switch {
		case a.AvgRating == nil:
			return false
		case b.AvgRating == nil:
			return true
		default:
			return *a.AvgRating > *b.AvgRating
		}
	})

	return members
}

// AggregateSummary runs every aggregation over entries that the caller has
// already filtered by scope, type and year. Members are only computed for
// the group scope.
func AggregateSummary(entries []models.LibraryEntryWithProfile, scope string, year int, mediaType string, opts Options) models.StatsSummary {
	summary := models.StatsSummary{
		Scope:    scope,
		Year:     year,
		Type:     mediaType,
		Totals:   AggregateTotals(entries),
		Monthly:  AggregateMonthly(entries, opts.Labels),
		TopRated: TopRated(entries, opts.TopRatedLimit),
		Members:  []models.MemberStats{},
	}
	if scope == models.ScopeGroup {
		summary.Members = AggregateMemberStats(entries)
	}
	return summary
}

func average(sum, count int) *float64 {
	if count == 0 {
		return nil
	}
	avg := roundOneDecimal(float64(sum) / float64(count))
	return &avg
}

func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}

func monthIndex(ts time.Time) (int, bool) {
	if ts.IsZero() {
		return 0, false
	}
	return int(ts.UTC().Month()) - 1, true
}
