package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fintrack/config"
	"fintrack/logger"
	"fintrack/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	recentTransactionLimit = 5
	topCategoryLimit       = 3
)

// CategoryTotal 分类汇总
type CategoryTotal struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// MonthTotals 月度收支
type MonthTotals struct {
	Month   string          `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// Summary 区间收支合计
type Summary struct {
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Balance      decimal.Decimal `json:"balance"`
}

// AccountBalance 账户余额
type AccountBalance struct {
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

// RecentTransaction 最近交易摘要
type RecentTransaction struct {
	ID          uint            `json:"id"`
	Payee       string          `json:"payee"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Date        time.Time       `json:"date"`
}

// DashboardStats 仪表盘数据
type DashboardStats struct {
	ExpenseByCategory  []CategoryTotal     `json:"expense_by_category"`
	IncomeVsExpense    []MonthTotals       `json:"income_vs_expense"`
	TopCategories      []CategoryTotal     `json:"top_categories"`
	Summary            Summary             `json:"summary"`
	RecentTransactions []RecentTransaction `json:"recent_transactions"`
	AccountBalances    []AccountBalance    `json:"account_balances"`
}

// DashboardAggregator 仪表盘统计
type DashboardAggregator struct {
	db     *gorm.DB
	bucket string
	now    func() time.Time
	log    *logrus.Entry
}

// NewDashboardAggregator 创建仪表盘服务，bucket 取 config.MonthBucketName 或 config.MonthBucketYearMonth
func NewDashboardAggregator(db *gorm.DB, bucket string) *DashboardAggregator {
	if bucket != config.MonthBucketYearMonth {
		bucket = config.MonthBucketName
	}
	return &DashboardAggregator{db: db, bucket: bucket, now: time.Now, log: logger.WithComponent("dashboard")}
}

// DefaultWindow 当月第一天 0 点至当月最后一刻
func DefaultWindow(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// MonthKey 月度分组键
// name 模式下不同年份的同名月份会合并到一起
func MonthKey(t time.Time, bucket string) string {
	if bucket == config.MonthBucketYearMonth {
		return t.Format("2006-01")
	}
	return t.Format("Jan")
}

// ComputeStats 根据区间内交易汇总统计，recent 与 accounts 原样输出
func ComputeStats(txs []models.Transaction, accounts []models.Account, recent []RecentTransaction, bucket string) DashboardStats {
	stats := DashboardStats{
		ExpenseByCategory:  make([]CategoryTotal, 0),
		IncomeVsExpense:    make([]MonthTotals, 0),
		RecentTransactions: recent,
		AccountBalances:    make([]AccountBalance, 0, len(accounts)),
		Summary: Summary{
			TotalIncome:  decimal.Zero,
			TotalExpense: decimal.Zero,
		},
	}
	if stats.RecentTransactions == nil {
		stats.RecentTransactions = make([]RecentTransaction, 0)
	}

	categoryIdx := make(map[string]int)
	monthIdx := make(map[string]int)

	for i := range txs {
		t := &txs[i]

		key := MonthKey(t.Date, bucket)
		mi, ok := monthIdx[key]
		if !ok {
			mi = len(stats.IncomeVsExpense)
			monthIdx[key] = mi
			stats.IncomeVsExpense = append(stats.IncomeVsExpense, MonthTotals{Month: key, Income: decimal.Zero, Expense: decimal.Zero})
		}

		switch t.Type {
		case models.TransactionTypeIncome:
			stats.Summary.TotalIncome = stats.Summary.TotalIncome.Add(t.Amount)
			stats.IncomeVsExpense[mi].Income = stats.IncomeVsExpense[mi].Income.Add(t.Amount)
		case models.TransactionTypeExpense:
			stats.Summary.TotalExpense = stats.Summary.TotalExpense.Add(t.Amount)
			stats.IncomeVsExpense[mi].Expense = stats.IncomeVsExpense[mi].Expense.Add(t.Amount)

			ci, ok := categoryIdx[t.Category]
			if !ok {
				ci = len(stats.ExpenseByCategory)
				categoryIdx[t.Category] = ci
				stats.ExpenseByCategory = append(stats.ExpenseByCategory, CategoryTotal{Name: t.Category, Value: decimal.Zero})
			}
			stats.ExpenseByCategory[ci].Value = stats.ExpenseByCategory[ci].Value.Add(t.Amount)
		}
	}
	stats.Summary.Balance = stats.Summary.TotalIncome.Sub(stats.Summary.TotalExpense)

	top := make([]CategoryTotal, len(stats.ExpenseByCategory))
	copy(top, stats.ExpenseByCategory)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Value.GreaterThan(top[j].Value)
	})
	if len(top) > topCategoryLimit {
		top = top[:topCategoryLimit]
	}
	stats.TopCategories = top

	for _, a := range accounts {
		stats.AccountBalances = append(stats.AccountBalances, AccountBalance{Name: a.Name, Balance: a.Balance})
	}
	return stats
}

// Stats 查询并汇总仪表盘数据，start/end 为 nil 时使用当月
// 三次查询并发执行，任一失败则整体返回错误
func (d *DashboardAggregator) Stats(ctx context.Context, userID uint, start, end *time.Time) (*DashboardStats, error) {
	defStart, defEnd := DefaultWindow(d.now())
	if start == nil && end == nil {
		start, end = &defStart, &defEnd
	}

	var (
		txs      []models.Transaction
		accounts []models.Account
		recent   []RecentTransaction
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		query := d.db.WithContext(gctx).Where("user_id = ?", userID)
		if start != nil {
			query = query.Where("date >= ?", *start)
		}
		if end != nil {
			query = query.Where("date <= ?", *end)
		}
		if err := query.Order("date").Find(&txs).Error; err != nil {
			return fmt.Errorf("query window transactions: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := d.db.WithContext(gctx).Where("user_id = ?", userID).Order("created_at").Find(&accounts).Error; err != nil {
			return fmt.Errorf("query accounts: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		err := d.db.WithContext(gctx).Model(&models.Transaction{}).
			Select("id", "payee", "category", "subcategory", "amount", "type", "date").
			Where("user_id = ?", userID).
			Order("date DESC").Order("created_at DESC").
			Limit(recentTransactionLimit).
			Find(&recent).Error
		if err != nil {
			return fmt.Errorf("query recent transactions: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		d.log.WithError(err).WithField("user_id", userID).Error("dashboard stats failed")
		return nil, err
	}

	stats := ComputeStats(txs, accounts, recent, d.bucket)
	return &stats, nil
}
