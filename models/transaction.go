package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 收支类型
const (
	TransactionTypeIncome  = "income"
	TransactionTypeExpense = "expense"
)

// Transaction 收支记录
// Account 为账户名称文本，不是外键，账户改名或删除后不会级联
type Transaction struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	UserID      uint            `json:"user_id" gorm:"index:idx_tx_user_date,priority:1;index:idx_tx_user_type,priority:1;not null"`
	Type        string          `json:"type" gorm:"size:10;not null;index:idx_tx_user_type,priority:2"`
	Category    string          `json:"category" gorm:"size:50;not null"`
	Subcategory string          `json:"subcategory" gorm:"size:50;not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(14,2);not null"`
	PaymentMode string          `json:"payment_mode" gorm:"size:50;not null"`
	Payee       string          `json:"payee" gorm:"size:100;not null"`
	Account     string          `json:"account" gorm:"size:100;not null"`
	Date        time.Time       `json:"date" gorm:"not null;index:idx_tx_user_date,priority:2,sort:desc"`
	Time        string          `json:"time" gorm:"size:20"`
	Remarks     string          `json:"remarks" gorm:"size:255"`
	Attachment  string          `json:"attachment" gorm:"size:255"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `json:"-" gorm:"index"`
	User        User            `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Transaction) TableName() string {
	return "transactions"
}

// IsValidTransactionType 校验收支类型
func IsValidTransactionType(t string) bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}
