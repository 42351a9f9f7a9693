package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func expense(userID uint, category, amount string, date time.Time) models.Transaction {
	return models.Transaction{UserID: userID, Type: models.TransactionTypeExpense, Category: category, Amount: dec(amount), Date: date}
}

func foodBudget(threshold float64) *models.Budget {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := &models.Budget{
		ID:        1,
		UserID:    7,
		Category:  "Food",
		Amount:    dec("200"),
		Period:    models.BudgetPeriodMonthly,
		StartDate: start,
		Alerts:    models.BudgetAlerts{Enabled: true, Threshold: threshold},
		IsActive:  true,
	}
	b.RefreshEndDate()
	return b
}

func TestComputeProgress_FoodAt85Percent(t *testing.T) {
	b := foodBudget(80)
	now := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		expense(7, "Food", "100", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)),
		expense(7, "Food", "70", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)),
	}

	p := ComputeProgress(b, txs, now)
	assert.True(t, p.Spent.Equal(dec("170")))
	assert.True(t, p.Remaining.Equal(dec("30")))
	assert.InDelta(t, 85.0, p.Percentage, 1e-9)
	assert.True(t, p.ShouldAlert)
	assert.Equal(t, "You've spent 85.0% of your Food budget", AlertMessage(b.Category, p.RawPercentage))
}

func TestComputeProgress_Filters(t *testing.T) {
	b := foodBudget(80)
	now := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		expense(7, "Food", "10", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),  // 区间起点，计入
		expense(7, "Food", "20", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),  // 区间终点，计入
		expense(7, "Food", "40", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)), // 区间外
		expense(8, "Food", "80", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)),   // 其他用户
		expense(7, "Rent", "90", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)),   // 其他分类
		{UserID: 7, Type: models.TransactionTypeIncome, Category: "Food", Amount: dec("500"), Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
	}

	p := ComputeProgress(b, txs, now)
	assert.True(t, p.Spent.Equal(dec("30")), p.Spent.String())
	assert.False(t, p.ShouldAlert)
}

func TestComputeProgress_NoAlertWhenOverspent(t *testing.T) {
	b := foodBudget(80)
	txs := []models.Transaction{expense(7, "Food", "300", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))}

	p := ComputeProgress(b, txs, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC))
	assert.InDelta(t, 150.0, p.RawPercentage, 1e-9)
	assert.Equal(t, 100.0, p.Percentage)
	assert.True(t, p.Remaining.Equal(dec("-100")))
	assert.False(t, p.ShouldAlert)
}

func TestComputeProgress_AlertAtThreshold(t *testing.T) {
	b := foodBudget(80)
	txs := []models.Transaction{expense(7, "Food", "160", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))}

	p := ComputeProgress(b, txs, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC))
	assert.InDelta(t, 80.0, p.Percentage, 1e-9)
	assert.True(t, p.ShouldAlert)

	b.Alerts.Enabled = false
	assert.False(t, ComputeProgress(b, txs, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)).ShouldAlert)
}

func TestComputeProgress_ZeroAmount(t *testing.T) {
	b := foodBudget(80)
	b.Amount = decimal.Zero
	txs := []models.Transaction{expense(7, "Food", "10", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))}

	p := ComputeProgress(b, txs, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 0.0, p.Percentage)
	assert.False(t, p.ShouldAlert)
}

func TestBudgetWindow_OpenEnded(t *testing.T) {
	b := foodBudget(80)
	b.EndDate = nil
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	start, end := BudgetWindow(b, now)
	assert.Equal(t, b.StartDate, start)
	assert.Equal(t, now, end)
}

func budgetRow(rows *sqlmock.Rows, b *models.Budget) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(b.ID, b.UserID, b.Category, b.Amount.String(), b.Period, b.StartDate, b.EndDate,
		b.Alerts.Enabled, b.Alerts.Threshold, b.IsActive, now, now, nil)
}

func TestBudgetTracker_CheckAlerts(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewBudgetTracker(db)
	s.now = func() time.Time { return time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC) }

	food := foodBudget(80)
	rent := foodBudget(80)
	rent.ID = 2
	rent.Category = "Rent"

	mock.ExpectQuery("SELECT .* FROM `budgets`").
		WillReturnRows(budgetRow(budgetRow(sqlmock.NewRows(budgetColumns), food), rent))

	now := time.Now()
	mock.ExpectQuery("SELECT .* FROM `transactions`").
		WillReturnRows(sqlmock.NewRows(transactionColumns).
			AddRow(1, 7, "expense", "Food", "Groceries", "170", "Card", "Shop", "Bank", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), "", "", "", now, now, nil))
	mock.ExpectQuery("SELECT .* FROM `transactions`").
		WillReturnRows(sqlmock.NewRows(transactionColumns).
			AddRow(2, 7, "expense", "Rent", "Flat", "20", "Card", "Landlord", "Bank", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), "", "", "", now, now, nil))

	alerts, err := s.CheckAlerts(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, uint(1), alerts[0].BudgetID)
	assert.Equal(t, "Food", alerts[0].Category)
	assert.InDelta(t, 85.0, alerts[0].Percentage, 1e-9)
	assert.Equal(t, "You've spent 85.0% of your Food budget", alerts[0].Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBudgetTracker_List(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewBudgetTracker(db)
	s.now = func() time.Time { return time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC) }

	mock.ExpectQuery("SELECT .* FROM `budgets`").
		WillReturnRows(budgetRow(sqlmock.NewRows(budgetColumns), foodBudget(80)))
	mock.ExpectQuery("SELECT .* FROM `transactions`").
		WillReturnRows(sqlmock.NewRows(transactionColumns))

	active := true
	items, err := s.List(context.Background(), 7, &active)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Spent.IsZero())
	assert.True(t, items[0].Remaining.Equal(dec("200")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBudgetTracker_Get_OtherUser(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewBudgetTracker(db)

	mock.ExpectQuery("SELECT .* FROM `budgets`").
		WillReturnRows(sqlmock.NewRows(budgetColumns))

	_, err := s.Get(context.Background(), 99, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "Budget not found", err.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBudgetTracker_Create_Defaults(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewBudgetTracker(db)
	fixed := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `budgets`").WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()

	b, err := s.Create(context.Background(), 7, BudgetInput{Category: " Food ", Amount: dec("200")})
	require.NoError(t, err)
	assert.Equal(t, uint(3), b.ID)
	assert.Equal(t, "Food", b.Category)
	assert.Equal(t, models.BudgetPeriodMonthly, b.Period)
	assert.True(t, b.IsActive)
	assert.True(t, b.Alerts.Enabled)
	assert.Equal(t, float64(models.DefaultAlertThreshold), b.Alerts.Threshold)
	require.NotNil(t, b.EndDate)
	assert.Equal(t, fixed.AddDate(0, 1, 0), *b.EndDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBudgetTracker_Create_Invalid(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewBudgetTracker(db)

	tests := []struct {
		name string
		in   BudgetInput
		msg  string
	}{
		{"empty category", BudgetInput{Amount: dec("10")}, "Category is required"},
		{"negative amount", BudgetInput{Category: "Food", Amount: dec("-1")}, "Amount must be a positive number"},
		{"sub-cent amount", BudgetInput{Category: "Food", Amount: dec("100.001")}, "Amount must have at most 2 decimal places"},
		{"bad period", BudgetInput{Category: "Food", Amount: dec("1"), Period: "weekly"}, "Period must be monthly or yearly"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(context.Background(), 7, tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			assert.Equal(t, tt.msg, err.Error())
		})
	}

	threshold := 120.0
	_, err := s.Create(context.Background(), 7, BudgetInput{Category: "Food", Amount: dec("1"), AlertThreshold: &threshold})
	assert.Equal(t, "Alert threshold must be between 0 and 100", err.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBudgetTracker_Update_RecomputesEndDate(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewBudgetTracker(db)

	mock.ExpectQuery("SELECT .* FROM `budgets`").
		WillReturnRows(budgetRow(sqlmock.NewRows(budgetColumns), foodBudget(80)))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `budgets` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	yearly := models.BudgetPeriodYearly
	b, err := s.Update(context.Background(), 7, 1, BudgetPatch{Period: &yearly})
	require.NoError(t, err)
	require.NotNil(t, b.EndDate)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), b.EndDate.UTC())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBudgetTracker_Delete_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewBudgetTracker(db)

	mock.ExpectQuery("SELECT .* FROM `budgets`").
		WillReturnRows(sqlmock.NewRows(budgetColumns))

	err := s.Delete(context.Background(), 7, 42)
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}
