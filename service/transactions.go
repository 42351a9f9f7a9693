package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack/logger"
	"fintrack/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	DefaultTransactionLimit = 50
	MaxTransactionLimit     = 500
)

// TransactionInput 创建交易参数
type TransactionInput struct {
	Type        string
	Category    string
	Subcategory string
	Amount      decimal.Decimal
	PaymentMode string
	Payee       string
	Account     string
	Date        *time.Time
	Time        string
	Remarks     string
	Attachment  string
}

// TransactionPatch 更新交易允许修改的字段，nil 表示不修改
type TransactionPatch struct {
	Type        *string
	Category    *string
	Subcategory *string
	Amount      *decimal.Decimal
	PaymentMode *string
	Payee       *string
	Account     *string
	Date        *time.Time
	Time        *string
	Remarks     *string
	Attachment  *string
}

// TransactionFilter 交易列表筛选条件
type TransactionFilter struct {
	Type      string
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
}

// TransactionRecorder 收支记录
type TransactionRecorder struct {
	db  *gorm.DB
	now func() time.Time
	log *logrus.Entry
}

// NewTransactionRecorder 创建交易记录服务
func NewTransactionRecorder(db *gorm.DB) *TransactionRecorder {
	return &TransactionRecorder{db: db, now: time.Now, log: logger.WithComponent("transactions")}
}

// List 按日期倒序列出交易
func (r *TransactionRecorder) List(ctx context.Context, userID uint, f TransactionFilter) ([]models.Transaction, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if f.Type != "" {
		query = query.Where("type = ?", f.Type)
	}
	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}
	if f.StartDate != nil {
		query = query.Where("date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		query = query.Where("date <= ?", *f.EndDate)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultTransactionLimit
	}
	if limit > MaxTransactionLimit {
		limit = MaxTransactionLimit
	}

	txs := make([]models.Transaction, 0)
	if err := query.Order("date DESC").Order("created_at DESC").Limit(limit).Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Get 获取单条交易
func (r *TransactionRecorder) Get(ctx context.Context, userID, id uint) (*models.Transaction, error) {
	return r.find(ctx, userID, id)
}

// Create 创建交易，未指定日期时使用当前时间
func (r *TransactionRecorder) Create(ctx context.Context, userID uint, in TransactionInput) (*models.Transaction, error) {
	t := models.Transaction{
		UserID:      userID,
		Type:        in.Type,
		Category:    strings.TrimSpace(in.Category),
		Subcategory: strings.TrimSpace(in.Subcategory),
		Amount:      in.Amount,
		PaymentMode: strings.TrimSpace(in.PaymentMode),
		Payee:       strings.TrimSpace(in.Payee),
		Account:     strings.TrimSpace(in.Account),
		Date:        r.now(),
		Time:        in.Time,
		Remarks:     in.Remarks,
		Attachment:  in.Attachment,
	}
	if in.Date != nil {
		t.Date = *in.Date
	}

	if err := validateTransaction(&t); err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	r.log.WithFields(logrus.Fields{"user_id": userID, "transaction_id": t.ID, "type": t.Type}).Debug("transaction created")
	return &t, nil
}

// Update 按白名单字段更新交易
func (r *TransactionRecorder) Update(ctx context.Context, userID, id uint, patch TransactionPatch) (*models.Transaction, error) {
	t, err := r.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	setString(&t.Type, patch.Type)
	setTrimmed(&t.Category, patch.Category)
	setTrimmed(&t.Subcategory, patch.Subcategory)
	setTrimmed(&t.PaymentMode, patch.PaymentMode)
	setTrimmed(&t.Payee, patch.Payee)
	setTrimmed(&t.Account, patch.Account)
	setString(&t.Time, patch.Time)
	setString(&t.Remarks, patch.Remarks)
	setString(&t.Attachment, patch.Attachment)
	if patch.Amount != nil {
		t.Amount = *patch.Amount
	}
	if patch.Date != nil {
		t.Date = *patch.Date
	}

	if err := validateTransaction(t); err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Save(t).Error; err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	return t, nil
}

// Delete 删除交易
func (r *TransactionRecorder) Delete(ctx context.Context, userID, id uint) error {
	t, err := r.find(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Delete(t).Error; err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (r *TransactionRecorder) find(ctx context.Context, userID, id uint) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Transaction")
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction: %w", err)
	}
	return &t, nil
}

func validateTransaction(t *models.Transaction) error {
	if !models.IsValidTransactionType(t.Type) {
		return Invalid("Type must be income or expense")
	}
	required := []struct{ value, msg string }{
		{t.Category, "Category is required"},
		{t.Subcategory, "Subcategory is required"},
		{t.PaymentMode, "Payment mode is required"},
		{t.Payee, "Payee is required"},
		{t.Account, "Account is required"},
	}
	for _, f := range required {
		if f.value == "" {
			return Invalid(f.msg)
		}
	}
	if t.Amount.IsNegative() {
		return Invalid("Amount must be a positive number")
	}
	return checkMoney("Amount", t.Amount)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
