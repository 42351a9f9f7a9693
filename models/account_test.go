package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidAccountType(t *testing.T) {
	for _, typ := range []string{"checking", "savings", "cash", "investment", "credit"} {
		assert.True(t, IsValidAccountType(typ), typ)
	}
	assert.False(t, IsValidAccountType("crypto"))
	assert.False(t, IsValidAccountType(""))
}

func TestDefaultAccountColor(t *testing.T) {
	assert.Equal(t, "bg-blue-500", DefaultAccountColor(0))
	assert.Equal(t, "bg-teal-500", DefaultAccountColor(7))
	// 轮转
	assert.Equal(t, "bg-blue-500", DefaultAccountColor(8))
	assert.Equal(t, "bg-green-500", DefaultAccountColor(9))
	assert.Equal(t, "bg-blue-500", DefaultAccountColor(-1))
}

func TestAccount_JSONBalanceIsNumber(t *testing.T) {
	acc := Account{ID: 1, Name: "Cash", Type: AccountTypeCash, Balance: decimal.RequireFromString("60.50")}
	raw, err := json.Marshal(acc)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, 60.5, out["balance"])
	assert.NotContains(t, out, "user")
}

func TestTransfer_BeforeCreate(t *testing.T) {
	tr := &Transfer{}
	require.NoError(t, tr.BeforeCreate(nil))
	assert.Len(t, tr.Reference, 36)

	// 已有流水号不覆盖
	tr2 := &Transfer{Reference: "fixed"}
	require.NoError(t, tr2.BeforeCreate(nil))
	assert.Equal(t, "fixed", tr2.Reference)
}
