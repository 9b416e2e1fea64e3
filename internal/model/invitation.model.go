package model

import (
	"strings"
	"time"
)

type Invitation struct {
	ID        string     `json:"id"`
	GroupID   string     `json:"group_id"`
	Email     string     `json:"email"`
	Token     string     `json:"token"`
	InvitedBy string     `json:"invited_by"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedBy    string     `json:"used_by,omitempty"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (i Invitation) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

func (i Invitation) IsUsed() bool {
	return i.UsedAt != nil
}

type InvitationCreateRequest struct {
	Email string `json:"email"`
}

func (r InvitationCreateRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return ErrMissingEmail
	}
	return nil
}
