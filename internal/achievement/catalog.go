package achievement

import "github.com/nimasrn/split-ledger/internal/model"

func target(n int64) *int64 { return &n }

// Catalog is the built-in set of achievements seeded by the cli.
func Catalog() []model.Achievement {
	return []model.Achievement{
		{
			ID:           "first-expense",
			Title:        "First Expense",
			Description:  "Record your first expense",
			Emoji:        "🧾",
			Scope:        model.ScopeGlobal,
			TriggerEvent: model.TriggerAddExpense,
			Condition:    model.Condition{Type: model.ConditionCount, Target: target(1), Metric: model.MetricExpenses},
		},
		{
			ID:           "big-spender-ten",
			Title:        "Big Spender Ten",
			Description:  "Record ten expenses",
			Emoji:        "💸",
			Scope:        model.ScopeGlobal,
			TriggerEvent: model.TriggerAddExpense,
			Condition:    model.Condition{Type: model.ConditionCount, Target: target(10), Metric: model.MetricExpenses},
		},
		{
			ID:           "group-creator",
			Title:        "Group Creator",
			Description:  "Create your first group",
			Emoji:        "👥",
			Scope:        model.ScopeGroup,
			TriggerEvent: model.TriggerCreateGroup,
			Condition:    model.Condition{Type: model.ConditionCount, Target: target(1), Metric: model.MetricGroups},
		},
		{
			ID:           "social-butterfly",
			Title:        "Social Butterfly",
			Description:  "Invite three people to your groups",
			Emoji:        "🦋",
			Scope:        model.ScopeGroup,
			TriggerEvent: model.TriggerInviteMember,
			Condition:    model.Condition{Type: model.ConditionCount, Target: target(3), Metric: model.MetricInvitations},
		},
		{
			ID:           "budget-master",
			Title:        "Budget Master",
			Description:  "Finish a month within your group budgets",
			Emoji:        "🏆",
			Scope:        model.ScopePersonal,
			TriggerEvent: model.TriggerMonthEnd,
			Condition:    model.Condition{Type: model.ConditionBudget, Condition: model.BudgetUnderLimit},
		},
	}
}
