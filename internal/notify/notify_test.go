package notify

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/massmux/SatsZapBot/internal/sdk"
	"github.com/massmux/SatsZapBot/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	mu       sync.Mutex
	payments map[int64][]sdk.Payment
	errs     map[int64]error
	block    map[int64]chan struct{}
	calls    map[int64]int
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{
		payments: make(map[int64][]sdk.Payment),
		errs:     make(map[int64]error),
		block:    make(map[int64]chan struct{}),
		calls:    make(map[int64]int),
	}
}

func (f *fakeHistory) add(userID int64, kind sdk.PaymentType, amount, ts int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := sdk.Payment{ID: fmt.Sprintf("%d-%d", userID, ts), PaymentType: kind, Status: sdk.PaymentCompleted, AmountSats: amount, Timestamp: ts}
	f.payments[userID] = append([]sdk.Payment{p}, f.payments[userID]...)
}

func (f *fakeHistory) ListHistory(ctx context.Context, userID int64, limit int) ([]sdk.Payment, error) {
	f.mu.Lock()
	f.calls[userID]++
	block := f.block[userID]
	err := f.errs[userID]
	payments := append([]sdk.Payment(nil), f.payments[userID]...)
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	if len(payments) > limit {
		payments = payments[:limit]
	}
	return payments, nil
}

func newTestStore(t *testing.T) (*Store, *storage.DB) {
	db, err := storage.NewBunt(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), db
}

func newTestPoller(t *testing.T) (*Poller, *Store, *fakeHistory) {
	store, _ := newTestStore(t)
	history := newFakeHistory()
	p := NewPoller(store, history, Config{Interval: time.Second, BatchSize: 2, BatchTimeout: time.Second, Inactivity: time.Hour, HistoryLimit: 10})
	return p, store, history
}

func drain(p *Poller) []Notification {
	var n []Notification
	for {
		select {
		case notification := <-p.out:
			n = append(n, notification)
		default:
			return n
		}
	}
}

func TestFirstCheckIsSilent(t *testing.T) {
	p, store, history := newTestPoller(t)
	ctx := context.Background()
	_, err := store.Enable(1)
	require.NoError(t, err)
	history.add(1, sdk.PaymentReceive, 100, 10)
	history.add(1, sdk.PaymentReceive, 200, 20)

	n, err := p.Check(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	st, _ := store.Get(1)
	assert.Equal(t, int64(20), st.LastTimestamp)

	history.add(1, sdk.PaymentReceive, 300, 30)
	history.add(1, sdk.PaymentSend, 50, 40)
	history.add(1, sdk.PaymentReceive, 400, 35)
	n, err = p.Check(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	notifications := drain(p)
	require.Len(t, notifications, 2)
	assert.Equal(t, int64(30), notifications[0].Payment.Timestamp)
	assert.Equal(t, int64(35), notifications[1].Payment.Timestamp)
	st, _ = store.Get(1)
	assert.Equal(t, int64(40), st.LastTimestamp)

	n, err = p.Check(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, drain(p))
}

func TestEmptyHistoryInitializesCursor(t *testing.T) {
	p, store, history := newTestPoller(t)
	ctx := context.Background()
	_, err := store.Enable(1)
	require.NoError(t, err)

	_, err = p.Check(ctx, 1)
	require.NoError(t, err)
	st, _ := store.Get(1)
	assert.Equal(t, int64(0), st.LastTimestamp)

	history.add(1, sdk.PaymentReceive, 21, 5)
	n, err := p.Check(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCursorNeverMovesBack(t *testing.T) {
	p, store, history := newTestPoller(t)
	ctx := context.Background()
	_, err := store.Enable(1)
	require.NoError(t, err)
	history.add(1, sdk.PaymentReceive, 100, 50)
	_, err = p.Check(ctx, 1)
	require.NoError(t, err)

	history.mu.Lock()
	history.payments[1] = []sdk.Payment{{PaymentType: sdk.PaymentReceive, AmountSats: 1, Timestamp: 10}}
	history.mu.Unlock()
	n, err := p.Check(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	st, _ := store.Get(1)
	assert.Equal(t, int64(50), st.LastTimestamp)
}

func TestDisabledUsersAreNotChecked(t *testing.T) {
	p, store, history := newTestPoller(t)
	_, err := store.Enable(1)
	require.NoError(t, err)
	_, err = store.Disable(1, ReasonManual)
	require.NoError(t, err)

	report := p.RunCycle(context.Background())
	assert.Equal(t, 0, report.Active)
	assert.Equal(t, 0, history.calls[1])
}

func TestInactiveUsersArePaused(t *testing.T) {
	p, store, history := newTestPoller(t)
	now := time.Now()
	store.now = func() time.Time { return now.Add(-2 * time.Hour) }
	_, err := store.Enable(1)
	require.NoError(t, err)
	store.now = time.Now
	_, err = store.Enable(2)
	require.NoError(t, err)

	report := p.RunCycle(context.Background())
	assert.Equal(t, 1, report.Paused)
	assert.Equal(t, 1, report.Active)
	assert.Equal(t, 0, history.calls[1])
	st, _ := store.Get(1)
	assert.False(t, st.Enabled)
	assert.Equal(t, ReasonInactive, st.DisabledReason)

	st, err = store.Touch(1)
	require.NoError(t, err)
	assert.True(t, st.Enabled)
	assert.False(t, st.Initialized)
}

func TestTouchKeepsManualDisable(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Enable(1)
	require.NoError(t, err)
	_, err = store.Disable(1, ReasonManual)
	require.NoError(t, err)
	st, err := store.Touch(1)
	require.NoError(t, err)
	assert.False(t, st.Enabled)

	_, err = store.Touch(99)
	require.NoError(t, err)
	_, ok := store.Get(99)
	assert.False(t, ok)
}

func TestEnableDefault(t *testing.T) {
	store, _ := newTestStore(t)
	st, err := store.EnableDefault(1)
	require.NoError(t, err)
	assert.True(t, st.Enabled)
	assert.False(t, st.Initialized)
	assert.Equal(t, int64(0), st.LastTimestamp)

	_, err = store.Disable(1, ReasonManual)
	require.NoError(t, err)
	st, err = store.EnableDefault(1)
	require.NoError(t, err)
	assert.False(t, st.Enabled)
}

func TestErrorsAreIsolated(t *testing.T) {
	p, store, history := newTestPoller(t)
	ctx := context.Background()
	for _, id := range []int64{1, 2, 3} {
		_, err := store.Enable(id)
		require.NoError(t, err)
	}
	p.RunCycle(ctx)
	history.errs[1] = fmt.Errorf("bridge down")
	history.add(2, sdk.PaymentReceive, 10, 100)
	history.add(3, sdk.PaymentReceive, 20, 100)

	report := p.RunCycle(ctx)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 2, report.Notified)
	assert.Len(t, drain(p), 2)
	assert.Equal(t, report, p.LastReport())
}

func TestSlowUserIsAbandoned(t *testing.T) {
	p, store, history := newTestPoller(t)
	p.config.BatchTimeout = 50 * time.Millisecond
	ctx := context.Background()
	for _, id := range []int64{1, 2} {
		_, err := store.Enable(id)
		require.NoError(t, err)
	}
	block := make(chan struct{})
	history.block[1] = block

	report := p.RunCycle(ctx)
	assert.Equal(t, 1, report.TimedOut)
	assert.Equal(t, 1, report.Checked)

	report = p.RunCycle(ctx)
	assert.Equal(t, 1, report.Skipped)

	close(block)
	assert.Eventually(t, func() bool { return p.inflight.Count() == 0 }, time.Second, 10*time.Millisecond)
}

func TestAbandonedCheckIsRepeated(t *testing.T) {
	p, store, history := newTestPoller(t)
	p.config.BatchTimeout = 20 * time.Millisecond
	ctx := context.Background()
	_, err := store.Enable(1)
	require.NoError(t, err)
	_, err = p.Check(ctx, 1)
	require.NoError(t, err)

	history.add(1, sdk.PaymentReceive, 21, 100)
	block := make(chan struct{})
	history.mu.Lock()
	history.block[1] = block
	history.mu.Unlock()

	report := p.RunCycle(ctx)
	assert.Equal(t, 1, report.TimedOut)

	// the history arrives after the batch gave up
	history.mu.Lock()
	delete(history.block, 1)
	history.mu.Unlock()
	close(block)
	assert.Eventually(t, func() bool { return p.inflight.Count() == 0 }, time.Second, 5*time.Millisecond)
	st, _ := store.Get(1)
	assert.Equal(t, int64(0), st.LastTimestamp)
	assert.Empty(t, drain(p))

	report = p.RunCycle(ctx)
	assert.Equal(t, 1, report.Notified)
	notifications := drain(p)
	require.Len(t, notifications, 1)
	assert.Equal(t, int64(100), notifications[0].Payment.Timestamp)
	st, _ = store.Get(1)
	assert.Equal(t, int64(100), st.LastTimestamp)
}

func TestResumeKeepsCursor(t *testing.T) {
	p, store, history := newTestPoller(t)
	ctx := context.Background()
	_, err := store.Enable(1)
	require.NoError(t, err)
	history.add(1, sdk.PaymentReceive, 100, 50)
	_, err = p.Check(ctx, 1)
	require.NoError(t, err)

	_, err = store.Disable(1, ReasonInactive)
	require.NoError(t, err)
	st, err := store.Touch(1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), st.LastTimestamp)
	st, err = store.Rewind(1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), st.LastTimestamp)
	_, err = store.Disable(1, ReasonManual)
	require.NoError(t, err)
	st, err = store.Enable(1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), st.LastTimestamp)

	// adoption never moves the cursor back
	history.mu.Lock()
	history.payments[1] = []sdk.Payment{{PaymentType: sdk.PaymentReceive, AmountSats: 1, Timestamp: 10}}
	history.mu.Unlock()
	n, err := p.Check(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	st, _ = store.Get(1)
	assert.True(t, st.Initialized)
	assert.Equal(t, int64(50), st.LastTimestamp)
}

func TestStoreLoad(t *testing.T) {
	store, db := newTestStore(t)
	_, err := store.Enable(1)
	require.NoError(t, err)
	_, err = store.Enable(2)
	require.NoError(t, err)
	_, err = store.Disable(2, ReasonManual)
	require.NoError(t, err)

	reloaded := NewStore(db)
	require.NoError(t, reloaded.Load())
	assert.Len(t, reloaded.States(), 2)
	st, ok := reloaded.Get(2)
	require.True(t, ok)
	assert.False(t, st.Enabled)
	assert.Equal(t, ReasonManual, st.DisabledReason)
}

func TestRewindAdoptsHistorySilently(t *testing.T) {
	p, store, history := newTestPoller(t)
	ctx := context.Background()
	_, err := store.Rewind(1)
	require.NoError(t, err)
	_, exists := store.Get(1)
	assert.False(t, exists)

	_, err = store.Enable(1)
	require.NoError(t, err)
	history.add(1, sdk.PaymentReceive, 100, 10)
	_, err = p.Check(ctx, 1)
	require.NoError(t, err)

	// a restored wallet brings older and newer history with it
	history.add(1, sdk.PaymentReceive, 500, 50)
	_, err = store.Rewind(1)
	require.NoError(t, err)
	n, err := p.Check(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, drain(p))
	st, _ := store.Get(1)
	assert.Equal(t, int64(50), st.LastTimestamp)
}
