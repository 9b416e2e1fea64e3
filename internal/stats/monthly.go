// Package stats aggregates a group's expense activity for the calendar month.
package stats

import (
	"sort"
	"time"

	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/shopspring/decimal"
)

const (
	DefaultCategory         = "Other"
	PersonalDefaultCategory = "Uncategorized"
)

var hundred = decimal.NewFromInt(100)

type Input struct {
	Transactions []model.Transaction
	// GroupID is the selected group, PersonalGroupID or empty for personal.
	GroupID string
	// Now fixes the month window. Its location decides the calendar.
	Now time.Time
	// Members is the member count of the selected group, used for the
	// per-person average. Values below one count as one.
	Members int
}

// Monthly summarizes the expenses of in.GroupID created in the month of in.Now.
func Monthly(in Input) model.MonthlyStats {
	loc := in.Now.Location()
	year, month, _ := in.Now.Date()
	personal := model.IsPersonalGroup(in.GroupID)

	total := decimal.Zero
	count := 0
	buckets := make(map[string]*model.CategoryStat)

	for _, t := range in.Transactions {
		if t.Type != model.TransactionTypeExpense || !t.InGroup(in.GroupID) {
			continue
		}
		ty, tm, _ := t.CreatedAt.In(loc).Date()
		if ty != year || tm != month {
			continue
		}

		total = total.Add(t.Amount)
		count++

		name := categoryOf(t, personal)
		b, ok := buckets[name]
		if !ok {
			b = &model.CategoryStat{Name: name, Amount: decimal.Zero}
			buckets[name] = b
		}
		b.Amount = b.Amount.Add(t.Amount)
		b.Count++
	}

	out := model.MonthlyStats{
		TotalExpenses:    decimal.Zero,
		AverageExpense:   decimal.Zero,
		AveragePerPerson: decimal.Zero,
		Categories:       []model.CategoryStat{},
	}
	if count == 0 {
		return out
	}

	members := in.Members
	if members < 1 {
		members = 1
	}

	out.TotalExpenses = total
	out.TransactionCount = count
	out.AverageExpense = total.Div(decimal.NewFromInt(int64(count)))
	out.AveragePerPerson = total.Div(decimal.NewFromInt(int64(members)))
	out.HasData = true

	for _, b := range buckets {
		if total.IsPositive() {
			b.Percentage = b.Amount.Mul(hundred).Div(total).Round(0).IntPart()
		}
		out.Categories = append(out.Categories, *b)
	}
	sort.Slice(out.Categories, func(i, j int) bool {
		ci, cj := out.Categories[i], out.Categories[j]
		if c := ci.Amount.Cmp(cj.Amount); c != 0 {
			return c > 0
		}
		return ci.Name < cj.Name
	})
	return out
}

// categoryOf buckets by category, then tag, then note, then the default label.
func categoryOf(t model.Transaction, personal bool) string {
	for _, v := range []string{t.Category, t.Tag, t.Note} {
		if v != "" {
			return v
		}
	}
	if personal {
		return PersonalDefaultCategory
	}
	return DefaultCategory
}
