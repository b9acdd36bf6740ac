package database

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/massmux/SatsZapBot/internal/payment"
	"github.com/massmux/SatsZapBot/internal/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabases(t *testing.T) (*TxLogger, Aliases) {
	dir := t.TempDir()
	users, txLogger, err := AutoMigration(filepath.Join(dir, "bot.db"), filepath.Join(dir, "transactions.db"))
	require.NoError(t, err)
	return &TxLogger{DB: txLogger}, Aliases{DB: users}
}

func TestSaveUserAndLookup(t *testing.T) {
	_, aliases := newTestDatabases(t)
	require.NoError(t, SaveUser(aliases.DB, &User{ID: 7, Username: "Satoshi", FirstName: "Sat"}))

	id, err := aliases.LookupAlias(context.Background(), "satoshi")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	user, err := FindUser(aliases.DB, "@SATOSHI")
	require.NoError(t, err)
	assert.Equal(t, "@satoshi", user.DisplayName())

	_, err = aliases.LookupAlias(context.Background(), "nakamoto")
	assert.Error(t, err)
}

func TestSaveUserKeepsState(t *testing.T) {
	_, aliases := newTestDatabases(t)
	user := &User{ID: 7, Username: "satoshi"}
	require.NoError(t, SaveUser(aliases.DB, user))
	require.NoError(t, SetUserState(aliases.DB, user, UserStateEnterAmount, "session"))

	require.NoError(t, SaveUser(aliases.DB, &User{ID: 7, Username: "hal"}))
	loaded, err := GetUser(aliases.DB, 7)
	require.NoError(t, err)
	assert.Equal(t, "hal", loaded.Username)
	assert.Equal(t, UserStateEnterAmount, loaded.StateKey)
	assert.Equal(t, "session", loaded.StateData)

	require.NoError(t, ResetUserState(aliases.DB, loaded))
	loaded, err = GetUser(aliases.DB, 7)
	require.NoError(t, err)
	assert.Equal(t, UserStateNone, loaded.StateKey)
}

func TestRecordPayment(t *testing.T) {
	txLogger, _ := newTestDatabases(t)
	txLogger.RecordPayment(payment.Receipt{
		UserID:     1,
		PeerID:     2,
		Purpose:    payment.PurposeZap,
		Target:     payment.Bolt11Invoice{Invoice: "lnbc1zap"},
		AmountSats: 21,
		Payment:    sdk.Payment{ID: "p1"},
	}, nil)
	txLogger.RecordPayment(payment.Receipt{
		UserID:      1,
		Target:      payment.OnchainAddress{Address: "bc1q"},
		AmountSats:  1000,
		WithdrawAll: true,
	}, fmt.Errorf("no route"))

	records, err := txLogger.Transactions(2, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, KindZap, records[0].Kind)
	assert.True(t, records[0].Success)

	records, err = txLogger.Transactions(1, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, KindWithdrawAll, records[0].Kind)
	assert.False(t, records[0].Success)
	assert.Equal(t, "no route", records[0].Error)
	assert.Equal(t, "onchain:bc1q", records[0].Target)
}
