package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户模型
type User struct {
	ID                  uint           `json:"id" gorm:"primaryKey"`
	Name                string         `json:"name" gorm:"size:100;not null"`
	Email               string         `json:"email" gorm:"uniqueIndex;size:100;not null"`
	Password            string         `json:"-" gorm:"size:255;not null"`
	GoogleID            *string        `json:"google_id,omitempty" gorm:"size:64;uniqueIndex"` // NULL 表示未绑定
	ProfilePicture      string         `json:"profile_picture" gorm:"size:255"`
	Phone               string         `json:"phone" gorm:"size:30"`
	Address             string         `json:"address" gorm:"size:255"`
	ResetPasswordToken  string         `json:"-" gorm:"size:64;index"`
	ResetPasswordExpire *time.Time     `json:"-"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}

// ResetTokenValid 重置令牌是否仍在有效期内
func (u *User) ResetTokenValid(now time.Time) bool {
	return u.ResetPasswordToken != "" && u.ResetPasswordExpire != nil && now.Before(*u.ResetPasswordExpire)
}

// ClearResetToken 使用后清除重置令牌
func (u *User) ClearResetToken() {
	u.ResetPasswordToken = ""
	u.ResetPasswordExpire = nil
}
