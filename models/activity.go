package models

import "time"

// Activity event kinds.
const (
	ActivityLibraryAdded   = "library.added"
	ActivityStatusChanged  = "library.status_changed"
	ActivityRated          = "library.rated"
	ActivityLibraryRemoved = "library.removed"
	ActivityGroupJoined    = "group.joined"
	ActivityGroupCreated   = "group.created"
)

// ActivityEvent is one entry of the activity feed.
type ActivityEvent struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Kind      string         `json:"kind"`
	ContentID string         `json:"contentId,omitempty"`
	Title     string         `json:"title,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	Profile   *Profile       `json:"profile,omitempty"`
}
