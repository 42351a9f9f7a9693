package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"fintrack/logger"
	"fintrack/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// BudgetProgress 预算执行进度
// Percentage 为进度条展示值（上限 100），RawPercentage 为实际比例，提醒判断使用实际比例
type BudgetProgress struct {
	Spent         decimal.Decimal `json:"spent"`
	Remaining     decimal.Decimal `json:"remaining"`
	Percentage    float64         `json:"percentage"`
	RawPercentage float64         `json:"raw_percentage"`
	ShouldAlert   bool            `json:"should_alert"`
}

// BudgetWithProgress 预算及其进度
type BudgetWithProgress struct {
	models.Budget
	BudgetProgress
}

// BudgetAlert 已触发的预算提醒
type BudgetAlert struct {
	BudgetID     uint            `json:"budget_id"`
	Category     string          `json:"category"`
	BudgetAmount decimal.Decimal `json:"budget_amount"`
	Spent        decimal.Decimal `json:"spent"`
	Remaining    decimal.Decimal `json:"remaining"`
	Percentage   float64         `json:"percentage"`
	Message      string          `json:"message"`
}

// BudgetInput 创建预算参数，nil 字段使用默认值
type BudgetInput struct {
	Category       string
	Amount         decimal.Decimal
	Period         string
	StartDate      *time.Time
	AlertsEnabled  *bool
	AlertThreshold *float64
	IsActive       *bool
}

// BudgetPatch 更新预算允许修改的字段，nil 表示不修改
type BudgetPatch struct {
	Category       *string
	Amount         *decimal.Decimal
	Period         *string
	StartDate      *time.Time
	AlertsEnabled  *bool
	AlertThreshold *float64
	IsActive       *bool
}

// BudgetTracker 预算跟踪
type BudgetTracker struct {
	db  *gorm.DB
	now func() time.Time
	log *logrus.Entry
}

// NewBudgetTracker 创建预算跟踪服务
func NewBudgetTracker(db *gorm.DB) *BudgetTracker {
	return &BudgetTracker{
		db:  db,
		now: time.Now,
		log: logger.WithComponent("budget"),
	}
}

// BudgetWindow 预算统计区间 [StartDate, EndDate]，EndDate 为空时截止到 now
func BudgetWindow(b *models.Budget, now time.Time) (time.Time, time.Time) {
	end := now
	if b.EndDate != nil {
		end = *b.EndDate
	}
	return b.StartDate, end
}

// ComputeProgress 根据交易记录计算预算进度
// 只统计同一用户、同一分类、区间内（含两端）的支出
func ComputeProgress(b *models.Budget, txs []models.Transaction, now time.Time) BudgetProgress {
	start, end := BudgetWindow(b, now)

	spent := decimal.Zero
	for i := range txs {
		t := &txs[i]
		if t.UserID != b.UserID || t.Type != models.TransactionTypeExpense || t.Category != b.Category {
			continue
		}
		if t.Date.Before(start) || t.Date.After(end) {
			continue
		}
		spent = spent.Add(t.Amount)
	}

	remaining := b.Amount.Sub(spent)
	var pct float64
	if b.Amount.IsPositive() {
		pct = spent.Div(b.Amount).Mul(hundred).InexactFloat64()
	}

	return BudgetProgress{
		Spent:         spent,
		Remaining:     remaining,
		Percentage:    math.Min(pct, 100),
		RawPercentage: pct,
		// 超支（remaining <= 0）后不再提醒
		ShouldAlert: b.Alerts.Enabled && pct >= b.Alerts.Threshold && remaining.IsPositive(),
	}
}

// AlertMessage 提醒文案，使用未截断的百分比
func AlertMessage(category string, pct float64) string {
	return fmt.Sprintf("You've spent %.1f%% of your %s budget", pct, category)
}

// expensesInWindow 查询预算区间内的同类支出
func (s *BudgetTracker) expensesInWindow(ctx context.Context, b *models.Budget, now time.Time) ([]models.Transaction, error) {
	start, end := BudgetWindow(b, now)
	var txs []models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND type = ? AND category = ? AND date >= ? AND date <= ?",
			b.UserID, models.TransactionTypeExpense, b.Category, start, end).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("query budget expenses: %w", err)
	}
	return txs, nil
}

func (s *BudgetTracker) withProgress(ctx context.Context, b models.Budget) (BudgetWithProgress, error) {
	now := s.now()
	txs, err := s.expensesInWindow(ctx, &b, now)
	if err != nil {
		return BudgetWithProgress{}, err
	}
	return BudgetWithProgress{Budget: b, BudgetProgress: ComputeProgress(&b, txs, now)}, nil
}

// List 获取用户预算并附带进度，isActive 为 nil 时不过滤
func (s *BudgetTracker) List(ctx context.Context, userID uint, isActive *bool) ([]BudgetWithProgress, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if isActive != nil {
		query = query.Where("is_active = ?", *isActive)
	}

	var budgets []models.Budget
	if err := query.Order("created_at DESC").Find(&budgets).Error; err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	result := make([]BudgetWithProgress, 0, len(budgets))
	for _, b := range budgets {
		item, err := s.withProgress(ctx, b)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, nil
}

// Get 获取单个预算及进度
func (s *BudgetTracker) Get(ctx context.Context, userID, id uint) (*BudgetWithProgress, error) {
	b, err := s.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	item, err := s.withProgress(ctx, *b)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CheckAlerts 返回当前应提醒的预算（仅启用且开启提醒的预算）
func (s *BudgetTracker) CheckAlerts(ctx context.Context, userID uint) ([]BudgetAlert, error) {
	var budgets []models.Budget
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND alert_enabled = ?", userID, true, true).
		Find(&budgets).Error
	if err != nil {
		return nil, fmt.Errorf("list alert budgets: %w", err)
	}

	alerts := make([]BudgetAlert, 0)
	for _, b := range budgets {
		item, err := s.withProgress(ctx, b)
		if err != nil {
			return nil, err
		}
		if !item.ShouldAlert {
			continue
		}
		alerts = append(alerts, BudgetAlert{
			BudgetID:     b.ID,
			Category:     b.Category,
			BudgetAmount: b.Amount,
			Spent:        item.Spent,
			Remaining:    item.Remaining,
			Percentage:   item.RawPercentage,
			Message:      AlertMessage(b.Category, item.RawPercentage),
		})
	}
	return alerts, nil
}

// Create 创建预算，EndDate 由保存钩子计算
func (s *BudgetTracker) Create(ctx context.Context, userID uint, in BudgetInput) (*models.Budget, error) {
	b := models.Budget{
		UserID:    userID,
		Category:  strings.TrimSpace(in.Category),
		Amount:    in.Amount,
		Period:    in.Period,
		StartDate: s.now(),
		Alerts:    models.BudgetAlerts{Enabled: true, Threshold: models.DefaultAlertThreshold},
		IsActive:  true,
	}
	if b.Period == "" {
		b.Period = models.BudgetPeriodMonthly
	}
	if in.StartDate != nil {
		b.StartDate = *in.StartDate
	}
	if in.AlertsEnabled != nil {
		b.Alerts.Enabled = *in.AlertsEnabled
	}
	if in.AlertThreshold != nil {
		b.Alerts.Threshold = *in.AlertThreshold
	}
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}

	if err := validateBudget(&b); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&b).Error; err != nil {
		return nil, fmt.Errorf("create budget: %w", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "budget_id": b.ID, "category": b.Category}).Info("budget created")
	return &b, nil
}

// Update 按白名单字段更新预算，保存时重新计算 EndDate
func (s *BudgetTracker) Update(ctx context.Context, userID, id uint, patch BudgetPatch) (*models.Budget, error) {
	b, err := s.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Category != nil {
		b.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Amount != nil {
		b.Amount = *patch.Amount
	}
	if patch.Period != nil {
		b.Period = *patch.Period
	}
	if patch.StartDate != nil {
		b.StartDate = *patch.StartDate
	}
	if patch.AlertsEnabled != nil {
		b.Alerts.Enabled = *patch.AlertsEnabled
	}
	if patch.AlertThreshold != nil {
		b.Alerts.Threshold = *patch.AlertThreshold
	}
	if patch.IsActive != nil {
		b.IsActive = *patch.IsActive
	}

	if err := validateBudget(b); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Save(b).Error; err != nil {
		return nil, fmt.Errorf("update budget: %w", err)
	}
	return b, nil
}

// Delete 删除预算
func (s *BudgetTracker) Delete(ctx context.Context, userID, id uint) error {
	b, err := s.find(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(b).Error; err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

func (s *BudgetTracker) find(ctx context.Context, userID, id uint) (*models.Budget, error) {
	var b models.Budget
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Budget")
	}
	if err != nil {
		return nil, fmt.Errorf("find budget: %w", err)
	}
	return &b, nil
}

func validateBudget(b *models.Budget) error {
	if b.Category == "" {
		return Invalid("Category is required")
	}
	if b.Amount.IsNegative() {
		return Invalid("Amount must be a positive number")
	}
	if err := checkMoney("Amount", b.Amount); err != nil {
		return err
	}
	if !models.IsValidBudgetPeriod(b.Period) {
		return Invalid("Period must be monthly or yearly")
	}
	if b.Alerts.Threshold < 0 || b.Alerts.Threshold > 100 {
		return Invalid("Alert threshold must be between 0 and 100")
	}
	return nil
}
