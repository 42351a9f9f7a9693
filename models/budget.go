package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 预算周期
const (
	BudgetPeriodMonthly = "monthly"
	BudgetPeriodYearly  = "yearly"
)

// DefaultAlertThreshold 默认提醒阈值（百分比）
const DefaultAlertThreshold = 80

// BudgetAlerts 预算提醒设置
type BudgetAlerts struct {
	Enabled   bool    `json:"enabled" gorm:"not null"`
	Threshold float64 `json:"threshold" gorm:"not null"`
}

// Budget 分类预算
// EndDate 由 StartDate 与 Period 推导，每次保存重新计算
type Budget struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	UserID    uint            `json:"user_id" gorm:"index:idx_budget_user_category,priority:1;index:idx_budget_user_active,priority:1;not null"`
	Category  string          `json:"category" gorm:"size:50;not null;index:idx_budget_user_category,priority:2"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(14,2);not null"`
	Period    string          `json:"period" gorm:"size:10;not null"`
	StartDate time.Time       `json:"start_date" gorm:"not null"`
	EndDate   *time.Time      `json:"end_date"`
	Alerts    BudgetAlerts    `json:"alerts" gorm:"embedded;embeddedPrefix:alert_"`
	IsActive  bool            `json:"is_active" gorm:"not null;index:idx_budget_user_active,priority:2"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `json:"-" gorm:"index"`
	User      User            `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Budget) TableName() string {
	return "budgets"
}

// IsValidBudgetPeriod 校验预算周期
func IsValidBudgetPeriod(p string) bool {
	return p == BudgetPeriodMonthly || p == BudgetPeriodYearly
}

// PeriodEnd 按周期计算结束时间：monthly 为下月同日，yearly 为次年同日
// 日期溢出按日历规则顺延（1月31日 + 1个月 = 3月3日或3月2日）
func PeriodEnd(start time.Time, period string) time.Time {
	if period == BudgetPeriodYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

// RefreshEndDate 重新计算 EndDate，覆盖任何外部传入的值
func (b *Budget) RefreshEndDate() {
	end := PeriodEnd(b.StartDate, b.Period)
	b.EndDate = &end
}

// BeforeSave 保存前刷新结束时间
func (b *Budget) BeforeSave(tx *gorm.DB) error {
	b.RefreshEndDate()
	return nil
}
