package models

import "time"

// MediaType is the kind of content a library entry tracks.
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
	MediaTypeAnime MediaType = "anime"
	MediaTypeGame  MediaType = "game"
)

// MediaTypes lists every supported media type in display order.
var MediaTypes = []MediaType{MediaTypeMovie, MediaTypeTV, MediaTypeAnime, MediaTypeGame}

// Valid reports whether t is one of the supported media types.
func (t MediaType) Valid() bool {
	switch t {
	case MediaTypeMovie, MediaTypeTV, MediaTypeAnime, MediaTypeGame:
		return true
	}
	return false
}

// EntryStatus is a user's progress on a library entry.
type EntryStatus string

const (
	StatusPlanned    EntryStatus = "planned"
	StatusInProgress EntryStatus = "in_progress"
	StatusCompleted  EntryStatus = "completed"
	StatusDropped    EntryStatus = "dropped"
)

// Valid reports whether s is one of the four tracked statuses.
func (s EntryStatus) Valid() bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusCompleted, StatusDropped:
		return true
	}
	return false
}

// Rating bounds for library entries.
const (
	MinRating = 1
	MaxRating = 10
)

// Profile is the owner snapshot embedded in library entries.
type Profile struct {
	ID          string  `json:"id"`
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	Email       string  `json:"email"`
}

// LibraryEntry is one user's tracking state for one catalog item. The catalog
// fields are a point-in-time snapshot taken when the entry was saved.
type LibraryEntry struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	ContentID  string      `json:"content_id"`
	MediaType  MediaType   `json:"media_type"`
	Provider   Provider    `json:"provider"`
	ExternalID string      `json:"external_id"`
	Title      string      `json:"title"`
	PosterURL  *string     `json:"poster_url"`
	Status     EntryStatus `json:"status"`
	Rating     *int        `json:"rating"`
	IsFavorite bool        `json:"is_favorite"`
	Notes      string      `json:"notes,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	FinishedAt *time.Time  `json:"finished_at"`
}

// LibraryEntryWithProfile is a library entry joined with its owner's profile.
type LibraryEntryWithProfile struct {
	LibraryEntry
	Profiles Profile `json:"profiles"`
}

// LibraryUpsert captures the fields a client may set when saving an entry.
type LibraryUpsert struct {
	MediaType  MediaType   `json:"type" validate:"required,oneof=movie tv anime game"`
	Provider   Provider    `json:"provider" validate:"required,oneof=rawg tmdb"`
	ExternalID string      `json:"externalId" validate:"required,max=64"`
	Title      string      `json:"title" validate:"required,max=500"`
	PosterURL  *string     `json:"posterUrl,omitempty" validate:"omitempty,url"`
	Status     EntryStatus `json:"status" validate:"required,oneof=planned in_progress completed dropped"`
	Rating     *int        `json:"rating,omitempty" validate:"omitempty,min=1,max=10"`
	IsFavorite bool        `json:"isFavorite"`
	Notes      string      `json:"notes,omitempty" validate:"max=4000"`
	FinishedAt *time.Time  `json:"finishedAt,omitempty"`
}

// ContentID returns the unified catalog key for the upserted item.
func (u LibraryUpsert) ContentID() string {
	return CatalogKey(u.Provider, u.ExternalID)
}
