package notify

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/massmux/SatsZapBot/internal/runtime"
	"github.com/massmux/SatsZapBot/internal/sdk"
	cmap "github.com/orcaman/concurrent-map"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// History reads the latest payments of a user, newest first.
type History interface {
	ListHistory(ctx context.Context, userID int64, limit int) ([]sdk.Payment, error)
}

// Notification announces a received payment.
type Notification struct {
	UserID  int64
	Payment sdk.Payment
}

type Config struct {
	Interval     time.Duration
	BatchSize    int
	BatchTimeout time.Duration
	Inactivity   time.Duration
	HistoryLimit int
}

// Report summarizes one poll cycle.
type Report struct {
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Active   int           `json:"active"`
	Paused   int           `json:"paused"`
	Checked  int           `json:"checked"`
	Failed   int           `json:"failed"`
	Skipped  int           `json:"skipped"`
	TimedOut int           `json:"timed_out"`
	Notified int           `json:"notified"`
}

type Poller struct {
	store    *Store
	history  History
	config   Config
	out      chan Notification
	inflight cmap.ConcurrentMap
	now      func() time.Time

	mu   sync.RWMutex
	last Report
}

func NewPoller(store *Store, history History, config Config) *Poller {
	if config.BatchSize <= 0 {
		config.BatchSize = 20
	}
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = 10
	}
	if config.BatchTimeout <= 0 {
		config.BatchTimeout = 10 * time.Second
	}
	if config.Inactivity <= 0 {
		config.Inactivity = 24 * time.Hour
	}
	return &Poller{
		store:    store,
		history:  history,
		config:   config,
		out:      make(chan Notification, 256),
		inflight: cmap.New(),
		now:      time.Now,
	}
}

// Notifications returns the outbound channel. It is never closed.
func (p *Poller) Notifications() <-chan Notification {
	return p.out
}

func (p *Poller) LastReport() Report {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// Start runs a poll cycle every interval until ctx is done.
func (p *Poller) Start(ctx context.Context) {
	log.Infof("[notify] polling every %s", p.config.Interval)
	runtime.GetTask("notification-poller", runtime.WithDuration(p.config.Interval)).Do(ctx, func(ctx context.Context) {
		p.RunCycle(ctx)
	})
}

// RunCycle pauses inactive users and checks all active users in batches.
func (p *Poller) RunCycle(ctx context.Context) Report {
	report := Report{Started: p.now()}
	var active []int64
	for _, st := range p.store.States() {
		if !st.Enabled {
			continue
		}
		if p.now().Sub(st.LastActivity) > p.config.Inactivity {
			if _, err := p.store.Disable(st.UserID, ReasonInactive); err != nil {
				log.Errorf("[notify] could not pause user %d: %v", st.UserID, err)
				continue
			}
			log.Debugf("[notify] paused notifications of inactive user %d", st.UserID)
			report.Paused++
			continue
		}
		active = append(active, st.UserID)
	}
	report.Active = len(active)
	sort.Slice(active, func(i, j int) bool { return active[i] < active[j] })

	var mu sync.Mutex
	for start := 0; start < len(active); start += p.config.BatchSize {
		if ctx.Err() != nil {
			break
		}
		end := start + p.config.BatchSize
		if end > len(active) {
			end = len(active)
		}
		p.runBatch(ctx, active[start:end], &report, &mu)
	}
	report.Duration = p.now().Sub(report.Started)
	p.mu.Lock()
	p.last = report
	p.mu.Unlock()
	if report.Notified > 0 || report.Failed > 0 || report.TimedOut > 0 {
		log.Infof("[notify] cycle: %d active, %d notified, %d failed, %d timed out", report.Active, report.Notified, report.Failed, report.TimedOut)
	}
	return report
}

// runBatch checks users concurrently. Checks that outlive the batch timeout are abandoned and
// finish in the background.
func (p *Poller) runBatch(ctx context.Context, users []int64, report *Report, mu *sync.Mutex) {
	bctx, cancel := context.WithTimeout(ctx, p.config.BatchTimeout)
	defer cancel()
	var g errgroup.Group
	pending := len(users)
	// abandoned checks must not touch the report once the batch is over
	closed := false
	for _, userID := range users {
		userID := userID
		key := strconv.FormatInt(userID, 10)
		if !p.inflight.SetIfAbsent(key, true) {
			mu.Lock()
			report.Skipped++
			pending--
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			defer p.inflight.Remove(key)
			n, err := p.Check(bctx, userID)
			mu.Lock()
			defer mu.Unlock()
			if closed {
				log.Debugf("[notify] abandoned check of user %d finished: %v", userID, err)
				return nil
			}
			pending--
			if err != nil {
				log.Warnf("[notify] check of user %d failed: %v", userID, err)
				report.Failed++
				return nil
			}
			report.Checked++
			report.Notified += n
			return nil
		})
	}
	done := make(chan struct{})
	go func() {
		g.Wait()
		close(done)
	}()
	select {
	case <-done:
		mu.Lock()
		closed = true
		mu.Unlock()
	case <-bctx.Done():
		mu.Lock()
		closed = true
		report.TimedOut += pending
		mu.Unlock()
		log.Warnf("[notify] batch of %d users timed out", len(users))
	}
}

// Check reads the history of userID, advances the cursor and emits one notification per new
// received payment. The cursor is persisted before anything is emitted. A check whose context
// ended before the cursor moved leaves the state alone, so the next cycle repeats it.
func (p *Poller) Check(ctx context.Context, userID int64) (int, error) {
	st, ok := p.store.Get(userID)
	if !ok || !st.Enabled {
		return 0, nil
	}
	payments, err := p.history.ListHistory(ctx, userID, p.config.HistoryLimit)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	fresh, err := p.commit(userID, payments)
	if err != nil {
		return 0, err
	}
	// payments below the saved cursor are delivered even if the batch gave up on us
	for _, payment := range fresh {
		p.out <- Notification{UserID: userID, Payment: payment}
	}
	return len(fresh), nil
}

func (p *Poller) commit(userID int64, payments []sdk.Payment) ([]sdk.Payment, error) {
	var fresh []sdk.Payment
	_, err := p.store.update(userID, func(st *State, exists bool) bool {
		fresh = nil
		if !exists || !st.Enabled {
			return false
		}
		max := st.LastTimestamp
		for _, payment := range payments {
			if payment.Timestamp > max {
				max = payment.Timestamp
			}
		}
		if !st.Initialized {
			if max < 0 {
				max = 0
			}
			st.LastTimestamp = max
			st.Initialized = true
			return true
		}
		for _, payment := range payments {
			if payment.PaymentType == sdk.PaymentReceive && payment.Status != sdk.PaymentFailed && payment.Timestamp > st.LastTimestamp {
				fresh = append(fresh, payment)
			}
		}
		if max == st.LastTimestamp {
			return false
		}
		st.LastTimestamp = max
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(fresh, func(i, j int) bool { return fresh[i].Timestamp < fresh[j].Timestamp })
	return fresh, nil
}
