package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"fintrack/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	oldDB := database.DB
	database.DB = gormDB
	return mock, func() {
		database.DB = oldDB
		sqlDB.Close()
	}
}

func setUserIDMiddleware(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}
}

func newTestRouter(userID uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if userID != 0 {
		router.Use(setUserIDMiddleware(userID))
	}
	return router
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

var (
	accountColumns = []string{"id", "user_id", "name", "type", "balance", "color", "is_default", "created_at", "updated_at", "deleted_at"}
	budgetColumns  = []string{"id", "user_id", "category", "amount", "period", "start_date", "end_date",
		"alert_enabled", "alert_threshold", "is_active", "created_at", "updated_at", "deleted_at"}
	transactionColumns = []string{"id", "user_id", "type", "category", "subcategory", "amount", "payment_mode",
		"payee", "account", "date", "time", "remarks", "attachment", "created_at", "updated_at", "deleted_at"}
	userColumns = []string{"id", "name", "email", "password", "google_id", "profile_picture", "phone", "address",
		"reset_password_token", "reset_password_expire", "created_at", "updated_at", "deleted_at"}
)

func accountRow(rows *sqlmock.Rows, id, userID uint, name, balance string, isDefault bool) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, userID, name, "cash", balance, "bg-blue-500", isDefault, now, now, nil)
}
