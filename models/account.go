package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 账户类型
const (
	AccountTypeChecking   = "checking"
	AccountTypeSavings    = "savings"
	AccountTypeCash       = "cash"
	AccountTypeInvestment = "investment"
	AccountTypeCredit     = "credit"
)

// AccountColors 未指定颜色时按账户数量轮流分配
var AccountColors = []string{
	"bg-blue-500",
	"bg-green-500",
	"bg-purple-500",
	"bg-pink-500",
	"bg-yellow-500",
	"bg-indigo-500",
	"bg-red-500",
	"bg-teal-500",
}

// Account 资金账户
type Account struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	UserID    uint            `json:"user_id" gorm:"index;not null"`
	Name      string          `json:"name" gorm:"size:100;not null"`
	Type      string          `json:"type" gorm:"size:20;not null"`
	Balance   decimal.Decimal `json:"balance" gorm:"type:decimal(14,2);not null"`
	Color     string          `json:"color" gorm:"size:30"`
	IsDefault bool            `json:"is_default" gorm:"not null"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `json:"-" gorm:"index"`
	User      User            `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Account) TableName() string {
	return "accounts"
}

// IsValidAccountType 校验账户类型
func IsValidAccountType(t string) bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeCash, AccountTypeInvestment, AccountTypeCredit:
		return true
	}
	return false
}

// DefaultAccountColor 第 n 个账户的默认颜色
func DefaultAccountColor(n int64) string {
	if n < 0 {
		n = 0
	}
	return AccountColors[n%int64(len(AccountColors))]
}
