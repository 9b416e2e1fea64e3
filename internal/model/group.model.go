package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PersonalGroupID selects the synthesized personal group. It is never stored.
const PersonalGroupID = "personal"

// IsPersonalGroup reports whether groupID selects the personal group. Stored
// rows carry an empty group id, requests carry PersonalGroupID.
func IsPersonalGroup(groupID string) bool {
	return groupID == "" || groupID == PersonalGroupID
}

const (
	DefaultGroupEmoji    = "🏠"
	DefaultGroupColor    = "emerald"
	DefaultGroupCurrency = "USD"
	PersonalGroupEmoji   = "💰"
)

type MemberRole string

const (
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
)

type Group struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Emoji         string          `json:"emoji"`
	Color         string          `json:"color"`
	Currency      string          `json:"currency"`
	MonthlyBudget decimal.Decimal `json:"monthly_budget"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
	Members       []GroupMember   `json:"members"`
}

func (g Group) IsPersonal() bool {
	return g.ID == PersonalGroupID
}

type GroupMember struct {
	GroupID  string     `json:"group_id,omitempty"`
	UserID   string     `json:"user_id"`
	Name     string     `json:"name"`
	Role     MemberRole `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
}

// PersonalGroup builds the pseudo-group that holds only the given user.
func PersonalGroup(user Profile) Group {
	return Group{
		ID:       PersonalGroupID,
		Name:     "Personal",
		Emoji:    PersonalGroupEmoji,
		Color:    DefaultGroupColor,
		Currency: DefaultGroupCurrency,
		Members: []GroupMember{{
			UserID: user.ID,
			Name:   user.DisplayName(),
			Role:   MemberRoleAdmin,
		}},
	}
}

type GroupCreateRequest struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Emoji         string          `json:"emoji"`
	Color         string          `json:"color"`
	Currency      string          `json:"currency"`
	MonthlyBudget decimal.Decimal `json:"monthly_budget"`
}

func (r GroupCreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrMissingName
	}
	if r.MonthlyBudget.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// WithDefaults fills the display hints a client may leave out.
func (r GroupCreateRequest) WithDefaults() GroupCreateRequest {
	r.Name = strings.TrimSpace(r.Name)
	if r.Emoji == "" {
		r.Emoji = DefaultGroupEmoji
	}
	if r.Color == "" {
		r.Color = DefaultGroupColor
	}
	if r.Currency == "" {
		r.Currency = DefaultGroupCurrency
	}
	return r
}

// GroupDeleted tells the caller which group to select after a delete.
type GroupDeleted struct {
	GroupID  string `json:"group_id"`
	Selected string `json:"selected_group_id"`
}
