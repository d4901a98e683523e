package models

// Stats scopes.
const (
	ScopeMine  = "mine"
	ScopeGroup = "group"
)

// StatsTypeAll selects every media type in a stats query.
const StatsTypeAll = "all"

// Totals summarises a collection of library entries.
type Totals struct {
	Total      int               `json:"total"`
	Completed  int               `json:"completed"`
	InProgress int               `json:"inProgress"`
	Planned    int               `json:"planned"`
	Dropped    int               `json:"dropped"`
	Favorites  int               `json:"favorites"`
	Rated      int               `json:"rated"`
	AvgRating  *float64          `json:"avgRating"`
	ByType     map[MediaType]int `json:"byType"`
}

// MonthBucket holds the activity counted into one calendar month.
type MonthBucket struct {
	Month     int    `json:"month"`
	Label     string `json:"label"`
	Completed int    `json:"completed"`
	Rated     int    `json:"rated"`
}

// MemberStats is one group member's row in the leaderboard.
type MemberStats struct {
	UserID         string   `json:"userId"`
	DisplayName    *string  `json:"displayName"`
	AvatarURL      *string  `json:"avatarUrl"`
	CompletedCount int      `json:"completedCount"`
	RatedCount     int      `json:"ratedCount"`
	AvgRating      *float64 `json:"avgRating"`
}

// StatsSummary is the computed statistics payload returned to clients.
type StatsSummary struct {
	Scope    string                    `json:"scope"`
	Year     int                       `json:"year"`
	Type     string                    `json:"type"`
	Totals   Totals                    `json:"totals"`
	Monthly  [12]MonthBucket           `json:"monthly"`
	TopRated []LibraryEntryWithProfile `json:"topRated"`
	Members  []MemberStats             `json:"members"`
}
