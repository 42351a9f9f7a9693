package service

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

var (
	accountColumns = []string{"id", "user_id", "name", "type", "balance", "color", "is_default", "created_at", "updated_at", "deleted_at"}
	budgetColumns  = []string{"id", "user_id", "category", "amount", "period", "start_date", "end_date",
		"alert_enabled", "alert_threshold", "is_active", "created_at", "updated_at", "deleted_at"}
	transactionColumns = []string{"id", "user_id", "type", "category", "subcategory", "amount", "payment_mode",
		"payee", "account", "date", "time", "remarks", "attachment", "created_at", "updated_at", "deleted_at"}
)
