package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transfer 转账流水，与两个账户余额变更在同一事务内写入
type Transfer struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	UserID        uint            `json:"user_id" gorm:"index;not null"`
	Reference     string          `json:"reference" gorm:"size:36;uniqueIndex;not null"`
	FromAccountID uint            `json:"from_account_id" gorm:"index;not null"`
	ToAccountID   uint            `json:"to_account_id" gorm:"index;not null"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(14,2);not null"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TableName 设置表名
func (Transfer) TableName() string {
	return "transfers"
}

// BeforeCreate 生成转账流水号
func (t *Transfer) BeforeCreate(tx *gorm.DB) error {
	if t.Reference == "" {
		t.Reference = uuid.NewString()
	}
	return nil
}
