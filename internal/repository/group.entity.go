package repository

import (
	"time"

	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/pkg/pg"
	"github.com/shopspring/decimal"
)

type GroupEntity struct {
	pg.Model
	Name          string          `gorm:"column:name;not null"`
	Description   string          `gorm:"column:description"`
	Emoji         string          `gorm:"column:emoji;not null"`
	Color         string          `gorm:"column:color;not null"`
	Currency      string          `gorm:"column:currency;not null"`
	MonthlyBudget decimal.Decimal `gorm:"column:monthly_budget;type:numeric(14,2);not null;default:0"`
	CreatedBy     string          `gorm:"column:created_by;not null;index"`
}

func (GroupEntity) TableName() string {
	return "expense_groups"
}

type GroupMemberEntity struct {
	GroupID  string    `gorm:"column:group_id;type:uuid;primaryKey"`
	UserID   string    `gorm:"column:user_id;primaryKey;index"`
	Name     string    `gorm:"column:name"`
	Role     string    `gorm:"column:role;not null"`
	JoinedAt time.Time `gorm:"column:joined_at;autoCreateTime"`
}

func (GroupMemberEntity) TableName() string {
	return "group_members"
}

func toGroupEntity(m *model.Group) *GroupEntity {
	if m == nil {
		return nil
	}
	e := &GroupEntity{
		Name:          m.Name,
		Description:   m.Description,
		Emoji:         m.Emoji,
		Color:         m.Color,
		Currency:      m.Currency,
		MonthlyBudget: m.MonthlyBudget,
		CreatedBy:     m.CreatedBy,
	}
	e.ID = m.ID
	return e
}

func toGroupModel(e *GroupEntity, members []model.GroupMember) *model.Group {
	if e == nil {
		return nil
	}
	return &model.Group{
		ID:            e.ID,
		Name:          e.Name,
		Description:   e.Description,
		Emoji:         e.Emoji,
		Color:         e.Color,
		Currency:      e.Currency,
		MonthlyBudget: e.MonthlyBudget,
		CreatedBy:     e.CreatedBy,
		CreatedAt:     e.CreatedAt,
		Members:       members,
	}
}

func toMemberEntity(m model.GroupMember) *GroupMemberEntity {
	return &GroupMemberEntity{
		GroupID:  m.GroupID,
		UserID:   m.UserID,
		Name:     m.Name,
		Role:     string(m.Role),
		JoinedAt: m.JoinedAt,
	}
}

func toMemberModel(e *GroupMemberEntity) model.GroupMember {
	return model.GroupMember{
		GroupID:  e.GroupID,
		UserID:   e.UserID,
		Name:     e.Name,
		Role:     model.MemberRole(e.Role),
		JoinedAt: e.JoinedAt,
	}
}
