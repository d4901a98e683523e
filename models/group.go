package models

import "time"

// Group roles.
const (
	GroupRoleOwner  = "owner"
	GroupRoleMember = "member"
)

// Group is a small set of users who share their libraries and stats.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// GroupMember is a user's membership in a group.
type GroupMember struct {
	GroupID  string    `json:"groupId"`
	UserID   string    `json:"userId"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
	Profile  Profile   `json:"profile"`
}

// GroupDetails bundles a group with its members.
type GroupDetails struct {
	Group   Group         `json:"group"`
	Members []GroupMember `json:"members"`
}
