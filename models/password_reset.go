package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ResetTokenTTL 重置链接有效期
const ResetTokenTTL = 10 * time.Minute

// GenerateResetToken 生成随机令牌，返回邮件中的明文和落库的摘要
func GenerateResetToken() (plain, hashed string, err error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	plain = hex.EncodeToString(b)
	return plain, HashResetToken(plain), nil
}

// HashResetToken 令牌摘要，数据库只保存摘要
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
