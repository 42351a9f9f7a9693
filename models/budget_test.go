package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodEnd(t *testing.T) {
	start := time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local)

	assert.Equal(t, time.Date(2024, 4, 15, 10, 0, 0, 0, time.Local), PeriodEnd(start, BudgetPeriodMonthly))
	assert.Equal(t, time.Date(2025, 3, 15, 10, 0, 0, 0, time.Local), PeriodEnd(start, BudgetPeriodYearly))

	// 月末溢出顺延
	jan31 := time.Date(2023, 1, 31, 0, 0, 0, 0, time.Local)
	assert.Equal(t, time.Date(2023, 3, 3, 0, 0, 0, 0, time.Local), PeriodEnd(jan31, BudgetPeriodMonthly))

	// 闰日 + 1 年
	leap := time.Date(2024, 2, 29, 0, 0, 0, 0, time.Local)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local), PeriodEnd(leap, BudgetPeriodYearly))
}

func TestBudget_RefreshEndDate_OverridesClientValue(t *testing.T) {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.Local)
	bogus := time.Date(2030, 1, 1, 0, 0, 0, 0, time.Local)
	b := &Budget{StartDate: start, Period: BudgetPeriodMonthly, EndDate: &bogus}

	require.NoError(t, b.BeforeSave(nil))
	require.NotNil(t, b.EndDate)
	assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, time.Local), *b.EndDate)

	// 再次保存结果相同
	first := *b.EndDate
	b.RefreshEndDate()
	assert.Equal(t, first, *b.EndDate)

	b.Period = BudgetPeriodYearly
	b.RefreshEndDate()
	assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.Local), *b.EndDate)
}

func TestIsValidBudgetPeriod(t *testing.T) {
	assert.True(t, IsValidBudgetPeriod("monthly"))
	assert.True(t, IsValidBudgetPeriod("yearly"))
	assert.False(t, IsValidBudgetPeriod("weekly"))
	assert.False(t, IsValidBudgetPeriod(""))
}
