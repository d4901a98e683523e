package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geekhub/models"
)

func ptr[T any](v T) *T { return &v }

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func entry(id, userID string, status models.EntryStatus, rating *int) models.LibraryEntryWithProfile {
	return models.LibraryEntryWithProfile{
		LibraryEntry: models.LibraryEntry{
			ID:        id,
			UserID:    userID,
			ContentID: "tmdb-" + id,
			MediaType: models.MediaTypeMovie,
			Status:    status,
			Rating:    rating,
			UpdatedAt: time.Date(2024, time.March, 3, 12, 0, 0, 0, time.UTC),
		},
		Profiles: models.Profile{ID: userID, DisplayName: ptr("user " + userID)},
	}
}

func TestAggregateTotals_Empty(t *testing.T) {
	totals := AggregateTotals(nil)

	assert.Equal(t, 0, totals.Total)
	assert.Equal(t, 0, totals.Completed)
	assert.Equal(t, 0, totals.InProgress)
	assert.Equal(t, 0, totals.Planned)
	assert.Equal(t, 0, totals.Dropped)
	assert.Equal(t, 0, totals.Favorites)
	assert.Equal(t, 0, totals.Rated)
	assert.Nil(t, totals.AvgRating)
	for _, mt := range models.MediaTypes {
		assert.Equal(t, 0, totals.ByType[mt], "type %s", mt)
	}
}

func TestAggregateTotals_CountsEveryBucket(t *testing.T) {
	entries := []models.LibraryEntryWithProfile{
		entry("1", "a", models.StatusCompleted, ptr(8)),
		entry("2", "a", models.StatusInProgress, nil),
		entry("3", "a", models.StatusPlanned, nil),
		entry("4", "a", models.StatusDropped, ptr(3)),
		entry("5", "a", models.StatusCompleted, nil),
	}
	entries[1].IsFavorite = true
	entries[4].IsFavorite = true
	entries[2].MediaType = models.MediaTypeGame
	entries[3].MediaType = models.MediaTypeAnime

	totals := AggregateTotals(entries)

	assert.Equal(t, 5, totals.Total)
	assert.Equal(t, 2, totals.Completed)
	assert.Equal(t, 1, totals.InProgress)
	assert.Equal(t, 1, totals.Planned)
	assert.Equal(t, 1, totals.Dropped)
	assert.Equal(t, 2, totals.Favorites)
	assert.Equal(t, 2, totals.Rated)
	require.NotNil(t, totals.AvgRating)
	assert.Equal(t, 5.5, *totals.AvgRating)
	assert.Equal(t, 3, totals.ByType[models.MediaTypeMovie])
	assert.Equal(t, 1, totals.ByType[models.MediaTypeGame])
	assert.Equal(t, 1, totals.ByType[models.MediaTypeAnime])
	assert.Equal(t, 0, totals.ByType[models.MediaTypeTV])
}

func TestAggregateTotals_AverageRating(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    float64
	}{
		{name: "mean of three", ratings: []int{8, 10, 6}, want: 8},
		{name: "consecutive", ratings: []int{7, 8, 9}, want: 8},
		{name: "rounds to one decimal", ratings: []int{7, 8, 8}, want: 7.7},
		{name: "rounds half up", ratings: []int{9, 10, 10, 10}, want: 9.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var entries []models.LibraryEntryWithProfile
			for i, r := range tt.ratings {
				entries = append(entries, entry(string(rune('a'+i)), "u", models.StatusCompleted, ptr(r)))
			}
			totals := AggregateTotals(entries)
			require.NotNil(t, totals.AvgRating)
			assert.Equal(t, tt.want, *totals.AvgRating)
		})
	}
}

func TestAggregateMonthly_FinishedAtWins(t *testing.T) {
	e := entry("1", "a", models.StatusCompleted, nil)
	e.FinishedAt = ptr(mustTime(t, "2024-01-15T10:00:00Z"))
	e.UpdatedAt = mustTime(t, "2024-05-01T10:00:00Z")

	buckets := AggregateMonthly([]models.LibraryEntryWithProfile{e}, MonthLabels("es"))

	assert.Equal(t, "Ene", buckets[0].Label)
	assert.Equal(t, 1, buckets[0].Completed)
	assert.Equal(t, 0, buckets[4].Completed)
}

func TestAggregateMonthly_FallsBackToUpdatedAt(t *testing.T) {
	e := entry("1", "a", models.StatusCompleted, nil)
	e.FinishedAt = nil
	e.UpdatedAt = mustTime(t, "2024-07-15T10:00:00Z")

	buckets := AggregateMonthly([]models.LibraryEntryWithProfile{e}, [12]string{})

	assert.Equal(t, 1, buckets[6].Completed)
	assert.Equal(t, "Jul", buckets[6].Label)
}

func TestAggregateMonthly_RatedUsesUpdatedAt(t *testing.T) {
	e := entry("1", "a", models.StatusInProgress, ptr(7))
	e.UpdatedAt = mustTime(t, "2024-11-02T08:00:00Z")

	buckets := AggregateMonthly([]models.LibraryEntryWithProfile{e}, MonthLabels("es"))

	assert.Equal(t, 1, buckets[10].Rated)
	assert.Equal(t, 0, buckets[10].Completed)
}

func TestAggregateMonthly_IgnoresUntrackedEntries(t *testing.T) {
	entries := []models.LibraryEntryWithProfile{
		entry("1", "a", models.StatusPlanned, nil),
		entry("2", "a", models.StatusDropped, nil),
	}

	buckets := AggregateMonthly(entries, MonthLabels("es"))

	for i, b := range buckets {
		assert.Equal(t, i, b.Month)
		assert.Zero(t, b.Completed)
		assert.Zero(t, b.Rated)
	}
}

func TestAggregateMonthly_DoesNotFilterByYear(t *testing.T) {
	old := entry("1", "a", models.StatusCompleted, nil)
	old.FinishedAt = ptr(mustTime(t, "2019-02-10T00:00:00Z"))
	current := entry("2", "a", models.StatusCompleted, nil)
	current.FinishedAt = ptr(mustTime(t, "2024-02-20T00:00:00Z"))

	buckets := AggregateMonthly([]models.LibraryEntryWithProfile{old, current}, MonthLabels("es"))

	assert.Equal(t, 2, buckets[1].Completed)
}

func TestTopRated_DefaultLimit(t *testing.T) {
	var entries []models.LibraryEntryWithProfile
	for i, r := range []int{10, 9, 8, 7, 6, 5, 4} {
		entries = append(entries, entry(string(rune('a'+i)), "u", models.StatusCompleted, ptr(r)))
	}
	entries = append(entries, entry("unrated", "u", models.StatusCompleted, nil))

	top := TopRated(entries, 0)

	require.Len(t, top, 5)
	assert.Equal(t, 10, *top[0].Rating)
	assert.Equal(t, 6, *top[4].Rating)
}

func TestTopRated_StableOnTies(t *testing.T) {
	entries := []models.LibraryEntryWithProfile{
		entry("first", "u", models.StatusCompleted, ptr(8)),
		entry("top", "u", models.StatusCompleted, ptr(9)),
		entry("second", "u", models.StatusCompleted, ptr(8)),
	}

	top := TopRated(entries, 3)

	require.Len(t, top, 3)
	assert.Equal(t, "top", top[0].ID)
	assert.Equal(t, "first", top[1].ID)
	assert.Equal(t, "second", top[2].ID)
}

func TestTopRated_DoesNotMutateInput(t *testing.T) {
	entries := []models.LibraryEntryWithProfile{
		entry("low", "u", models.StatusCompleted, ptr(2)),
		entry("high", "u", models.StatusCompleted, ptr(9)),
	}

	_ = TopRated(entries, 5)

	assert.Equal(t, "low", entries[0].ID)
	assert.Equal(t, "high", entries[1].ID)
}

func TestAggregateMemberStats_Ordering(t *testing.T) {
	entries := []models.LibraryEntryWithProfile{
		entry("a1", "a", models.StatusCompleted, ptr(8)),
		entry("a2", "a", models.StatusCompleted, ptr(8)),
		entry("b1", "b", models.StatusCompleted, ptr(9)),
		entry("b2", "b", models.StatusCompleted, ptr(9)),
		entry("c1", "c", models.StatusCompleted, ptr(7)),
		entry("c2", "c", models.StatusCompleted, ptr(7)),
		entry("c3", "c", models.StatusCompleted, ptr(7)),
	}

	members := AggregateMemberStats(entries)

	require.Len(t, members, 3)
	assert.Equal(t, "c", members[0].UserID)
	assert.Equal(t, "b", members[1].UserID)
	assert.Equal(t, "a", members[2].UserID)
	assert.Equal(t, 3, members[0].CompletedCount)
	assert.Equal(t, 3, members[0].RatedCount)
	require.NotNil(t, members[1].AvgRating)
	assert.Equal(t, 9.0, *members[1].AvgRating)
	assert.Equal(t, "user b", *members[1].DisplayName)
}

func TestAggregateMemberStats_UnratedAfterRated(t *testing.T) {
	entries := []models.LibraryEntryWithProfile{
		entry("x1", "x", models.StatusCompleted, nil),
		entry("y1", "y", models.StatusCompleted, ptr(2)),
		entry("z1", "z", models.StatusCompleted, nil),
	}

	members := AggregateMemberStats(entries)

	require.Len(t, members, 3)
	assert.Equal(t, "y", members[0].UserID)
	assert.Equal(t, "x", members[1].UserID)
	assert.Equal(t, "z", members[2].UserID)
	assert.Nil(t, members[1].AvgRating)
}

func TestAggregateMemberStats_Empty(t *testing.T) {
	members := AggregateMemberStats(nil)
	assert.NotNil(t, members)
	assert.Empty(t, members)
}

func TestAggregateSummary_Scopes(t *testing.T) {
	entries := []models.LibraryEntryWithProfile{
		entry("1", "a", models.StatusCompleted, ptr(9)),
		entry("2", "b", models.StatusPlanned, nil),
	}

	mine := AggregateSummary(entries, models.ScopeMine, 2024, "movie", Options{})
	assert.Equal(t, "mine", mine.Scope)
	assert.Equal(t, 2024, mine.Year)
	assert.Equal(t, "movie", mine.Type)
	assert.NotNil(t, mine.Members)
	assert.Empty(t, mine.Members)
	assert.Equal(t, 2, mine.Totals.Total)
	assert.Len(t, mine.TopRated, 1)
	assert.Equal(t, "Ene", mine.Monthly[0].Label)

	group := AggregateSummary(entries, models.ScopeGroup, 2024, "all", Options{TopRatedLimit: 1, Labels: MonthLabels("en")})
	assert.Len(t, group.Members, 2)
	assert.Equal(t, "Jan", group.Monthly[0].Label)
}

func TestMonthLabels(t *testing.T) {
	assert.Equal(t, "Ene", MonthLabels("")[0])
	assert.Equal(t, "Dic", MonthLabels("es-MX")[11])
	assert.Equal(t, "Aug", MonthLabels("en-GB")[7])
	assert.Equal(t, "Ene", MonthLabels("zz")[0])
}
