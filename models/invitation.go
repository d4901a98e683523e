package models

import "time"

// Invitation is a one-time link that lets a user join a group.
type Invitation struct {
	ID        string     `json:"id"`
	GroupID   string     `json:"groupId"`
	Token     string     `json:"token"`
	Code      string     `json:"code"`      // Short code for sharing by hand
	CreatedBy string     `json:"createdBy"` // User ID of the member who created it
	ExpiresAt time.Time  `json:"expiresAt"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	UsedBy    string     `json:"usedBy,omitempty"` // User ID of the user who accepted it
	CreatedAt time.Time  `json:"createdAt"`
}

// InvitationPreview is what an invitee sees before accepting.
type InvitationPreview struct {
	GroupID   string    `json:"groupId"`
	GroupName string    `json:"groupName"`
	ExpiresAt time.Time `json:"expiresAt"`
}
