package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fintrack/logger"
	"fintrack/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountInput 创建账户参数
type AccountInput struct {
	Name      string
	Type      string
	Balance   decimal.Decimal
	Color     string
	IsDefault *bool
}

// AccountPatch 更新账户允许修改的字段，nil 表示不修改
type AccountPatch struct {
	Name      *string
	Type      *string
	Balance   *decimal.Decimal
	Color     *string
	IsDefault *bool
}

// TransferResult 转账结果
type TransferResult struct {
	Reference   string         `json:"reference"`
	FromAccount models.Account `json:"from_account"`
	ToAccount   models.Account `json:"to_account"`
}

// AccountLedger 账户余额维护与转账
type AccountLedger struct {
	db  *gorm.DB
	log *logrus.Entry
}

// NewAccountLedger 创建账户服务
func NewAccountLedger(db *gorm.DB) *AccountLedger {
	return &AccountLedger{db: db, log: logger.WithComponent("ledger")}
}

// List 获取用户全部账户，按创建时间倒序
func (l *AccountLedger) List(ctx context.Context, userID uint) ([]models.Account, error) {
	var accounts []models.Account
	if err := l.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// Get 获取单个账户
func (l *AccountLedger) Get(ctx context.Context, userID, id uint) (*models.Account, error) {
	return findAccount(l.db.WithContext(ctx), userID, id)
}

// Create 创建账户
// 用户的第一个账户自动设为默认；显式设为默认时先取消其他账户的默认标记，两步在同一事务内完成
func (l *AccountLedger) Create(ctx context.Context, userID uint, in AccountInput) (*models.Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, Invalid("Account name is required")
	}
	if !models.IsValidAccountType(in.Type) {
		return nil, Invalid("Invalid account type")
	}
	if err := checkMoney("Balance", in.Balance); err != nil {
		return nil, err
	}

	var acc models.Account
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Account{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}

		isDefault := count == 0
		if in.IsDefault != nil {
			isDefault = *in.IsDefault
			if isDefault {
				if err := unsetDefaults(tx, userID, 0); err != nil {
					return err
				}
			}
		}

		color := in.Color
		if color == "" {
			color = models.DefaultAccountColor(count)
		}

		acc = models.Account{
			UserID:    userID,
			Name:      in.Name,
			Type:      in.Type,
			Balance:   in.Balance,
			Color:     color,
			IsDefault: isDefault,
		}
		return tx.Create(&acc).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	l.log.WithFields(logrus.Fields{"user_id": userID, "account_id": acc.ID, "default": acc.IsDefault}).Info("account created")
	return &acc, nil
}

// Update 按白名单字段更新账户
func (l *AccountLedger) Update(ctx context.Context, userID, id uint, patch AccountPatch) (*models.Account, error) {
	if patch.Balance != nil {
		if err := checkMoney("Balance", *patch.Balance); err != nil {
			return nil, err
		}
	}

	var acc *models.Account
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		acc, err = findAccount(tx, userID, id)
		if err != nil {
			return err
		}

		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return Invalid("Account name is required")
			}
			acc.Name = name
		}
		if patch.Type != nil {
			if !models.IsValidAccountType(*patch.Type) {
				return Invalid("Invalid account type")
			}
			acc.Type = *patch.Type
		}
		if patch.Balance != nil {
			acc.Balance = *patch.Balance
		}
		if patch.Color != nil {
			acc.Color = *patch.Color
		}
		if patch.IsDefault != nil {
			if *patch.IsDefault {
				if err := unsetDefaults(tx, userID, id); err != nil {
					return err
				}
			}
			acc.IsDefault = *patch.IsDefault
		}

		return tx.Save(acc).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	return acc, nil
}

// Delete 删除账户，不检查也不级联引用该账户名称的交易记录
func (l *AccountLedger) Delete(ctx context.Context, userID, id uint) error {
	acc, err := findAccount(l.db.WithContext(ctx), userID, id)
	if err != nil {
		return err
	}
	if err := l.db.WithContext(ctx).Delete(acc).Error; err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// Transfer 在同一用户的两个账户间转账
// 两个账户按 id 升序加行锁，余额更新与转账流水在同一数据库事务内提交，任一步失败整体回滚
func (l *AccountLedger) Transfer(ctx context.Context, userID, fromID, toID uint, amount decimal.Decimal) (*TransferResult, error) {
	if amount.LessThan(MinTransferAmount) {
		return nil, Invalid("Amount must be a positive number")
	}
	if err := checkMoney("Amount", amount); err != nil {
		return nil, err
	}
	if fromID == toID {
		return nil, Invalid("Source and destination accounts cannot be the same")
	}

	var result TransferResult
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		from, to, err := lockPair(tx, userID, fromID, toID)
		if err != nil {
			return err
		}

		if from.Balance.LessThan(amount) {
			return ErrInsufficientBalance
		}

		from.Balance = from.Balance.Sub(amount)
		to.Balance = to.Balance.Add(amount)

		if err := tx.Model(from).Update("balance", from.Balance).Error; err != nil {
			return fmt.Errorf("debit account %d: %w", from.ID, err)
		}
		if err := tx.Model(to).Update("balance", to.Balance).Error; err != nil {
			return fmt.Errorf("credit account %d: %w", to.ID, err)
		}

		posting := models.Transfer{
			UserID:        userID,
			FromAccountID: from.ID,
			ToAccountID:   to.ID,
			Amount:        amount,
		}
		if err := tx.Create(&posting).Error; err != nil {
			return fmt.Errorf("record transfer: %w", err)
		}

		result = TransferResult{Reference: posting.Reference, FromAccount: *from, ToAccount: *to}
		return nil
	})
	if err != nil {
		l.log.WithError(err).WithFields(logrus.Fields{"user_id": userID, "from": fromID, "to": toID}).Warn("transfer rejected")
		return nil, err
	}

	l.log.WithFields(logrus.Fields{
		"user_id":   userID,
		"from":      fromID,
		"to":        toID,
		"amount":    amount.String(),
		"reference": result.Reference,
	}).Info("transfer committed")
	return &result, nil
}

// lockPair 一次查询锁定两个账户（id 升序，避免并发转账互相死锁）
func lockPair(tx *gorm.DB, userID, fromID, toID uint) (*models.Account, *models.Account, error) {
	var accounts []models.Account
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND id IN ?", userID, []uint{fromID, toID}).
		Order("id").
		Find(&accounts).Error
	if err != nil {
		return nil, nil, fmt.Errorf("lock accounts: %w", err)
	}

	var from, to *models.Account
	for i := range accounts {
		switch accounts[i].ID {
		case fromID:
			from = &accounts[i]
		case toID:
			to = &accounts[i]
		}
	}
	if from == nil || to == nil {
		return nil, nil, notFound("Account")
	}
	return from, to, nil
}

// unsetDefaults 取消用户其他账户的默认标记，exceptID 为 0 时处理全部
func unsetDefaults(tx *gorm.DB, userID, exceptID uint) error {
	query := tx.Model(&models.Account{}).Where("user_id = ? AND is_default = ?", userID, true)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Update("is_default", false).Error; err != nil {
		return fmt.Errorf("unset default accounts: %w", err)
	}
	return nil
}

func findAccount(db *gorm.DB, userID, id uint) (*models.Account, error) {
	var acc models.Account
	err := db.Where("id = ? AND user_id = ?", id, userID).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Account")
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &acc, nil
}
