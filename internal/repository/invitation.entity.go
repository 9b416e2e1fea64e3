package repository

import (
	"time"

	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/pkg/pg"
)

type InvitationEntity struct {
	pg.Model
	GroupID   string     `gorm:"column:group_id;type:uuid;not null;index"`
	Email     string     `gorm:"column:email;not null"`
	Token     string     `gorm:"column:token;not null;uniqueIndex"`
	InvitedBy string     `gorm:"column:invited_by;not null;index"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null"`
	UsedBy    *string    `gorm:"column:used_by"`
	UsedAt    *time.Time `gorm:"column:used_at"`
}

func (InvitationEntity) TableName() string {
	return "invitations"
}

func toInvitationEntity(m *model.Invitation) *InvitationEntity {
	e := &InvitationEntity{
		GroupID:   m.GroupID,
		Email:     m.Email,
		Token:     m.Token,
		InvitedBy: m.InvitedBy,
		ExpiresAt: m.ExpiresAt.UTC(),
		UsedAt:    m.UsedAt,
	}
	e.ID = m.ID
	if m.UsedBy != "" {
		e.UsedBy = &m.UsedBy
	}
	return e
}

func toInvitationModel(e *InvitationEntity) *model.Invitation {
	m := &model.Invitation{
		ID:        e.ID,
		GroupID:   e.GroupID,
		Email:     e.Email,
		Token:     e.Token,
		InvitedBy: e.InvitedBy,
		ExpiresAt: e.ExpiresAt,
		UsedAt:    e.UsedAt,
		CreatedAt: e.CreatedAt,
	}
	if e.UsedBy != nil {
		m.UsedBy = *e.UsedBy
	}
	return m
}
