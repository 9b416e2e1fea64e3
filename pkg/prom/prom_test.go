package prom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_CanBeCalledTwice(t *testing.T) {
	require.NoError(t, Create("host", "test", "ledger"))
	require.NoError(t, Create("host", "test", "ledger"))
	assert.True(t, MetricSystemEnabled)
}

func TestAchievementUnlocked_IncrementsCounter(t *testing.T) {
	require.NoError(t, Create("host", "test", "ledger"))

	AchievementUnlocked("first-expense")
	AchievementUnlocked("first-expense")

	families, err := Gatherer().Gather()
	require.NoError(t, err)

	var value float64
	for _, f := range families {
		if f.GetName() != "ledger_achievement_unlocks_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			value += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(2), value)
}
