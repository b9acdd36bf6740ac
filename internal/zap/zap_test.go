package zap

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/massmux/SatsZapBot/internal/errors"
	"github.com/massmux/SatsZapBot/internal/payment"
	"github.com/massmux/SatsZapBot/internal/sdk/sdktest"
	"github.com/massmux/SatsZapBot/internal/storage"
	"github.com/massmux/SatsZapBot/internal/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sender   = int64(10)
	receiver = int64(20)
)

type fixture struct {
	coordinator *Coordinator
	gateway     *wallet.Gateway
	connector   *sdktest.Connector
}

func newFixture(t *testing.T) *fixture {
	db, err := storage.NewBunt(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	connector := sdktest.NewConnector()
	gateway := wallet.New(connector, db, wallet.Config{StorageDir: "wallets"})
	service := payment.NewService(gateway, nil)
	return &fixture{coordinator: New(gateway, service, time.Minute), gateway: gateway, connector: connector}
}

func (f *fixture) wallet(t *testing.T, userID int64) *sdktest.Wallet {
	mnemonic, err := f.gateway.Mnemonic(userID)
	require.NoError(t, err)
	return f.connector.Wallet(mnemonic)
}

func TestRequestValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.wallet(t, sender).Receive(1000, 1)

	_, err := f.coordinator.RequestZap(ctx, sender, sender, 100)
	assert.True(t, errors.Is(err, errors.SelfZapError))
	_, err = f.coordinator.RequestZap(ctx, sender, receiver, 0)
	assert.True(t, errors.Is(err, errors.InvalidAmountError))
	_, err = f.coordinator.RequestZap(ctx, sender, receiver, 1001)
	assert.True(t, errors.Is(err, errors.InsufficientBalanceError))
	assert.Equal(t, 0, f.coordinator.Pending())
}

func TestConfirmZap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	senderWallet := f.wallet(t, sender)
	senderWallet.Receive(1000, 1)

	z, err := f.coordinator.RequestZap(ctx, sender, receiver, 210)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(z.ID, "zap-10-"))
	assert.Len(t, z.ID, len("zap-10-")+8)

	_, err = f.coordinator.ConfirmZap(ctx, z.ID, receiver)
	assert.True(t, errors.Is(err, errors.NotAuthorizedError))
	_, ok := f.coordinator.Get(z.ID)
	assert.True(t, ok)

	result, err := f.coordinator.ConfirmZap(ctx, z.ID, sender)
	require.NoError(t, err)
	assert.Equal(t, int64(210), result.Receipt.AmountSats)
	assert.Equal(t, payment.PurposeZap, result.Receipt.Purpose)

	invoices := f.wallet(t, receiver).Snapshot().Invoices
	require.Len(t, invoices, 1)
	assert.Equal(t, int64(210), *invoices[0].AmountSats)
	assert.Len(t, senderWallet.Snapshot().Sent, 1)

	_, err = f.coordinator.ConfirmZap(ctx, z.ID, sender)
	assert.True(t, errors.Is(err, errors.NotFoundError))
}

func TestNewRequestReplacesPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.wallet(t, sender).Receive(1000, 1)

	first, err := f.coordinator.RequestZap(ctx, sender, receiver, 100)
	require.NoError(t, err)
	second, err := f.coordinator.RequestZap(ctx, sender, receiver, 200)
	require.NoError(t, err)
	assert.Equal(t, 1, f.coordinator.Pending())

	_, err = f.coordinator.CancelZap(first.ID, sender)
	assert.True(t, errors.Is(err, errors.NotFoundError))
	_, err = f.coordinator.CancelZap(second.ID, receiver)
	assert.True(t, errors.Is(err, errors.NotAuthorizedError))
	cancelled, err := f.coordinator.CancelZap(second.ID, sender)
	require.NoError(t, err)
	assert.Equal(t, int64(200), cancelled.AmountSats)
	assert.Equal(t, 0, f.coordinator.Pending())
}

func TestExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.wallet(t, sender).Receive(1000, 1)
	start := time.Now()
	f.coordinator.now = func() time.Time { return start }

	z, err := f.coordinator.RequestZap(ctx, sender, receiver, 100)
	require.NoError(t, err)
	f.coordinator.SetMessage(z.ID, 5, 6)

	assert.Empty(t, f.coordinator.Sweep(start.Add(30*time.Second)))
	expired := f.coordinator.Sweep(start.Add(time.Minute))
	require.Len(t, expired, 1)
	assert.Equal(t, z.ID, expired[0].ID)
	assert.Equal(t, 6, expired[0].MessageID)

	select {
	case e := <-f.coordinator.Expired():
		assert.Equal(t, z.ID, e.ID)
	default:
		t.Fatal("expiry not delivered")
	}

	_, err = f.coordinator.ConfirmZap(ctx, z.ID, sender)
	assert.True(t, errors.Is(err, errors.NotFoundError))
}

func TestConfirmAfterTTLWithoutSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.wallet(t, sender).Receive(1000, 1)
	start := time.Now()
	f.coordinator.now = func() time.Time { return start }
	z, err := f.coordinator.RequestZap(ctx, sender, receiver, 100)
	require.NoError(t, err)

	f.coordinator.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = f.coordinator.ConfirmZap(ctx, z.ID, sender)
	assert.True(t, errors.Is(err, errors.NotFoundError))
	assert.Equal(t, 0, f.coordinator.Pending())
}
