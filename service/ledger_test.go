package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accountRows(accounts ...models.Account) *sqlmock.Rows {
	rows := sqlmock.NewRows(accountColumns)
	now := time.Now()
	for _, a := range accounts {
		rows.AddRow(a.ID, a.UserID, a.Name, a.Type, a.Balance.String(), a.Color, a.IsDefault, now, now, nil)
	}
	return rows
}

func cashAndBank() (models.Account, models.Account) {
	return models.Account{ID: 1, UserID: 7, Name: "Cash", Type: models.AccountTypeCash, Balance: dec("500")},
		models.Account{ID: 2, UserID: 7, Name: "Bank", Type: models.AccountTypeChecking, Balance: dec("1000"), IsDefault: true}
}

func TestAccountLedger_Transfer(t *testing.T) {
	db, mock := newMockDB(t)
	l := NewAccountLedger(db)
	cash, bank := cashAndBank()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `accounts` .* FOR UPDATE").WillReturnRows(accountRows(cash, bank))
	mock.ExpectExec("UPDATE `accounts` SET `balance`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `accounts` SET `balance`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `transfers`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res, err := l.Transfer(context.Background(), 7, 1, 2, dec("200"))
	require.NoError(t, err)
	assert.True(t, res.FromAccount.Balance.Equal(dec("300")))
	assert.True(t, res.ToAccount.Balance.Equal(dec("1200")))
	assert.Len(t, res.Reference, 36)

	// 总额守恒
	total := res.FromAccount.Balance.Add(res.ToAccount.Balance)
	assert.True(t, total.Equal(dec("1500")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountLedger_Transfer_ReverseDirection(t *testing.T) {
	db, mock := newMockDB(t)
	l := NewAccountLedger(db)
	cash, bank := cashAndBank()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `accounts` .* FOR UPDATE").WillReturnRows(accountRows(cash, bank))
	mock.ExpectExec("UPDATE `accounts` SET `balance`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `accounts` SET `balance`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `transfers`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res, err := l.Transfer(context.Background(), 7, 2, 1, dec("1000"))
	require.NoError(t, err)
	assert.Equal(t, "Bank", res.FromAccount.Name)
	assert.True(t, res.FromAccount.Balance.IsZero())
	assert.True(t, res.ToAccount.Balance.Equal(dec("1500")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountLedger_Transfer_InsufficientBalance(t *testing.T) {
	db, mock := newMockDB(t)
	l := NewAccountLedger(db)
	cash, bank := cashAndBank()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `accounts` .* FOR UPDATE").WillReturnRows(accountRows(cash, bank))
	mock.ExpectRollback()

	_, err := l.Transfer(context.Background(), 7, 1, 2, dec("500.01"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientBalance))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountLedger_Transfer_RollbackOnCreditFailure(t *testing.T) {
	db, mock := newMockDB(t)
	l := NewAccountLedger(db)
	cash, bank := cashAndBank()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `accounts` .* FOR UPDATE").WillReturnRows(accountRows(cash, bank))
	mock.ExpectExec("UPDATE `accounts` SET `balance`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `accounts` SET `balance`").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := l.Transfer(context.Background(), 7, 1, 2, dec("100"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credit account 2")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountLedger_Transfer_AccountOfOtherUser(t *testing.T) {
	db, mock := newMockDB(t)
	l := NewAccountLedger(db)
	cash, _ := cashAndBank()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `accounts` .* FOR UPDATE").WillReturnRows(accountRows(cash))
	mock.ExpectRollback()

	_, err := l.Transfer(context.Background(), 7, 1, 5, dec("10"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "Account not found", err.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountLedger_Transfer_Validation(t *testing.T) {
	db, mock := newMockDB(t)
	l := NewAccountLedger(db)

	_, err := l.Transfer(context.Background(), 7, 1, 2, dec("0"))
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "Amount must be a positive number", err.Error())

	_, err = l.Transfer(context.Background(), 7, 1, 1, dec("10"))
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "Source and destination accounts cannot be the same", err.Error())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountLedger_Transfer_SubCentAmount(t *testing.T) {
	db, mock := newMockDB(t)
	l := NewAccountLedger(db)

	// 不足一分或超过两位小数的金额在开启事务前被拒绝，不产生任何写入
	_, err := l.Transfer(context.Background(), 7, 1, 2, dec("0.005"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "Amount must be a positive number", err.Error())

	_, err = l.Transfer(context.Background(), 7, 1, 2, dec("10.005"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "Amount must have at most 2 decimal places", err.Error())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountLedger_Transfer_MinimumAmount(t *testing.T) {
	db, mock := newMockDB(t)
	l := NewAccountLedger(db)
	cash, bank := cashAndBank()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `accounts` .* FOR UPDATE").WillReturnRows(accountRows(cash, bank))
	mock.ExpectExec("UPDATE `accounts` SET `balance`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `accounts` SET `balance`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `transfers`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res, err := l.Transfer(context.Background(), 7, 1, 2, dec("0.010"))
	require.NoError(t, err)
	assert.True(t, res.FromAccount.Balance.Equal(dec("499.99")))
	assert.True(t, res.ToAccount.Balance.Equal(dec("1000.01")))
	assert.True(t, res.FromAccount.Balance.Add(res.ToAccount.Balance).Equal(dec("1500")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountLedger_BalancePrecision(t *testing.T) {
	db, mock := newMockDB(t)
	l := NewAccountLedger(db)

	_, err := l.Create(context.Background(), 7, AccountInput{Name: "Cash", Type: models.AccountTypeCash, Balance: dec("12.345")})
	require.Error(t, err)
	assert.Equal(t, "Balance must have at most 2 decimal places", err.Error())

	balance := dec("0.001")
	_, err = l.Update(context.Background(), 7, 1, AccountPatch{Balance: &balance})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = l.Create(context.Background(), 7, AccountInput{Name: "Cash", Type: models.AccountTypeCash, Balance: dec("1000000000000")})
	require.Error(t, err)
	assert.Equal(t, "Balance is too large", err.Error())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountLedger_Create_FirstAccountIsDefault(t *testing.T) {
	db, mock := newMockDB(t)
	l := NewAccountLedger(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `accounts`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO `accounts`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	acc, err := l.Create(context.Background(), 7, AccountInput{Name: "Cash", Type: models.AccountTypeCash})
	require.NoError(t, err)
	assert.True(t, acc.IsDefault)
	assert.Equal(t, "bg-blue-500", acc.Color)
	assert.True(t, acc.Balance.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountLedger_Create_ExplicitDefaultUnsetsOthers(t *testing.T) {
	db, mock := newMockDB(t)
	l := NewAccountLedger(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `accounts`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec("UPDATE `accounts` SET `is_default`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `accounts`").WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()

	isDefault := true
	acc, err := l.Create(context.Background(), 7, AccountInput{Name: "Savings", Type: models.AccountTypeSavings, IsDefault: &isDefault})
	require.NoError(t, err)
	assert.True(t, acc.IsDefault)
	assert.Equal(t, "bg-purple-500", acc.Color)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountLedger_Create_SecondAccountNotDefault(t *testing.T) {
	db, mock := newMockDB(t)
	l := NewAccountLedger(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `accounts`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec("INSERT INTO `accounts`").WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	acc, err := l.Create(context.Background(), 7, AccountInput{Name: "Bank", Type: models.AccountTypeChecking, Color: "bg-red-500"})
	require.NoError(t, err)
	assert.False(t, acc.IsDefault)
	assert.Equal(t, "bg-red-500", acc.Color)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountLedger_Create_InvalidType(t *testing.T) {
	db, mock := newMockDB(t)
	l := NewAccountLedger(db)

	_, err := l.Create(context.Background(), 7, AccountInput{Name: "Wallet", Type: "crypto"})
	assert.True(t, errors.Is(err, ErrValidation))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountLedger_Update_SetDefault(t *testing.T) {
	db, mock := newMockDB(t)
	l := NewAccountLedger(db)
	cash, _ := cashAndBank()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `accounts`").WillReturnRows(accountRows(cash))
	mock.ExpectExec("UPDATE `accounts` SET `is_default`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `accounts` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	isDefault := true
	name := "Wallet"
	acc, err := l.Update(context.Background(), 7, 1, AccountPatch{Name: &name, IsDefault: &isDefault})
	require.NoError(t, err)
	assert.True(t, acc.IsDefault)
	assert.Equal(t, "Wallet", acc.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountLedger_Update_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	l := NewAccountLedger(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `accounts`").WillReturnRows(sqlmock.NewRows(accountColumns))
	mock.ExpectRollback()

	_, err := l.Update(context.Background(), 8, 1, AccountPatch{})
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountLedger_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	l := NewAccountLedger(db)
	cash, _ := cashAndBank()

	mock.ExpectQuery("SELECT .* FROM `accounts`").WillReturnRows(accountRows(cash))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `accounts` SET `deleted_at`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, l.Delete(context.Background(), 7, 1))
	require.NoError(t, mock.ExpectationsWereMet())
}
