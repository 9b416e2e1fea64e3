package model

import "time"

type Trigger string

const (
	TriggerAddExpense   Trigger = "add_expense"
	TriggerCreateGroup  Trigger = "create_group"
	TriggerInviteMember Trigger = "invite_member"
	TriggerMonthEnd     Trigger = "month_end"
)

var triggers = []Trigger{TriggerAddExpense, TriggerCreateGroup, TriggerInviteMember, TriggerMonthEnd}

func (t Trigger) Valid() bool {
	for _, v := range triggers {
		if t == v {
			return true
		}
	}
	return false
}

func ParseTrigger(s string) (Trigger, error) {
	t := Trigger(s)
	if !t.Valid() {
		return "", ErrUnknownTrigger
	}
	return t, nil
}

type AchievementScope string

const (
	ScopeGlobal   AchievementScope = "global"
	ScopeGroup    AchievementScope = "group"
	ScopePersonal AchievementScope = "personal"
)

type ConditionType string

const (
	ConditionCount  ConditionType = "count"
	ConditionBudget ConditionType = "budget"
)

type Metric string

const (
	MetricExpenses    Metric = "expenses"
	MetricGroups      Metric = "groups"
	MetricInvitations Metric = "invitations"
)

const BudgetUnderLimit = "under_limit"

// Condition is the declarative unlock rule. Count rules use Target and
// Metric, budget rules use Condition and optionally Months.
type Condition struct {
	Type      ConditionType `json:"type"`
	Target    *int64        `json:"target,omitempty"`
	Metric    Metric        `json:"metric,omitempty"`
	Condition string        `json:"condition,omitempty"`
	Months    *int          `json:"months,omitempty"`
}

type Achievement struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	Emoji        string           `json:"emoji"`
	Scope        AchievementScope `json:"scope"`
	TriggerEvent Trigger          `json:"trigger_event"`
	Condition    Condition        `json:"condition"`
}

type UserAchievement struct {
	ID            string       `json:"id"`
	UserID        string       `json:"user_id"`
	AchievementID string       `json:"achievement_id"`
	UnlockedAt    time.Time    `json:"unlocked_at"`
	Achievement   *Achievement `json:"achievement,omitempty"`
}

// TriggerEvent is emitted after a committed mutation that may satisfy an
// achievement condition.
type TriggerEvent struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Trigger    Trigger   `json:"trigger"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AchievementUnlocked is delivered to the notifier after an unlock is stored.
type AchievementUnlocked struct {
	UserID      string      `json:"user_id"`
	Trigger     Trigger     `json:"trigger"`
	Achievement Achievement `json:"achievement"`
	UnlockedAt  time.Time   `json:"unlocked_at"`
}
