// Package zap coordinates tips between users that the sender has to confirm.
package zap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/massmux/SatsZapBot/internal/errors"
	"github.com/massmux/SatsZapBot/internal/payment"
	"github.com/massmux/SatsZapBot/internal/runtime"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTTL  = 5 * time.Minute
	invoiceMemo = "Zap payment"
)

type Wallets interface {
	Balance(ctx context.Context, userID int64) (int64, error)
	EnsureWallet(userID int64) (bool, error)
	CreateInvoice(ctx context.Context, userID int64, amount *int64, description string) (string, error)
}

type Payer interface {
	Pay(ctx context.Context, userID int64, purpose payment.Purpose, invoice string, peerID int64) (payment.Receipt, error)
}

// PendingZap waits for the sender's confirmation.
type PendingZap struct {
	ID         string
	SenderID   int64
	ReceiverID int64
	AmountSats int64
	CreatedAt  time.Time
	// ChatID and MessageID locate the confirmation prompt, if any.
	ChatID    int64
	MessageID int
}

type Result struct {
	Zap     PendingZap
	Receipt payment.Receipt
}

type Coordinator struct {
	wallets Wallets
	payer   Payer
	ttl     time.Duration
	now     func() time.Time
	expired chan PendingZap

	mu       sync.Mutex
	zaps     map[string]*PendingZap
	bySender map[int64]string
}

func New(wallets Wallets, payer Payer, ttl time.Duration) *Coordinator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Coordinator{
		wallets:  wallets,
		payer:    payer,
		ttl:      ttl,
		now:      time.Now,
		expired:  make(chan PendingZap, 64),
		zaps:     make(map[string]*PendingZap),
		bySender: make(map[int64]string),
	}
}

// Expired delivers zaps removed by the sweep.
func (c *Coordinator) Expired() <-chan PendingZap {
	return c.expired
}

func newZapID(sender int64) string {
	return fmt.Sprintf("zap-%d-%s", sender, uuid.NewV4().String()[:8])
}

// RequestZap records a zap of amount sat from sender to receiver. A previous pending zap of the
// sender is replaced.
func (c *Coordinator) RequestZap(ctx context.Context, sender, receiver, amount int64) (PendingZap, error) {
	if sender == receiver {
		return PendingZap{}, errors.Create(errors.SelfZapError)
	}
	if amount <= 0 {
		return PendingZap{}, errors.Create(errors.InvalidAmountError)
	}
	balance, err := c.wallets.Balance(ctx, sender)
	if err != nil {
		return PendingZap{}, err
	}
	if balance < amount {
		return PendingZap{}, errors.Newf(errors.InsufficientBalanceError, "balance of %d sat is not enough to zap %d sat", balance, amount)
	}
	z := &PendingZap{
		ID:         newZapID(sender),
		SenderID:   sender,
		ReceiverID: receiver,
		AmountSats: amount,
		CreatedAt:  c.now(),
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.bySender[sender]; ok {
		log.Debugf("[zap] %s replaced by %s", old, z.ID)
		delete(c.zaps, old)
	}
	c.zaps[z.ID] = z
	c.bySender[sender] = z.ID
	log.Infof("[zap] %s: %d sat from %d to %d", z.ID, amount, sender, receiver)
	return *z, nil
}

// SetMessage remembers the confirmation prompt of zapID.
func (c *Coordinator) SetMessage(zapID string, chatID int64, messageID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if z, ok := c.zaps[zapID]; ok {
		z.ChatID = chatID
		z.MessageID = messageID
	}
}

func (c *Coordinator) Get(zapID string) (PendingZap, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	z, ok := c.zaps[zapID]
	if !ok || c.expiredAt(z, c.now()) {
		return PendingZap{}, false
	}
	return *z, true
}

func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.zaps)
}

func (c *Coordinator) expiredAt(z *PendingZap, now time.Time) bool {
	return now.Sub(z.CreatedAt) >= c.ttl
}

// take removes zapID if userID may act on it.
func (c *Coordinator) take(zapID string, userID int64) (PendingZap, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	z, ok := c.zaps[zapID]
	if !ok {
		return PendingZap{}, errors.Create(errors.NotFoundError)
	}
	if c.expiredAt(z, c.now()) {
		c.remove(z)
		return PendingZap{}, errors.Create(errors.NotFoundError)
	}
	if z.SenderID != userID {
		return PendingZap{}, errors.Create(errors.NotAuthorizedError)
	}
	c.remove(z)
	return *z, nil
}

func (c *Coordinator) remove(z *PendingZap) {
	delete(c.zaps, z.ID)
	if c.bySender[z.SenderID] == z.ID {
		delete(c.bySender, z.SenderID)
	}
}

// ConfirmZap pays the zap from the sender to a fresh invoice of the receiver. The zap is
// removed before paying, so a second confirmation fails.
func (c *Coordinator) ConfirmZap(ctx context.Context, zapID string, userID int64) (Result, error) {
	z, err := c.take(zapID, userID)
	if err != nil {
		return Result{}, err
	}
	if _, err := c.wallets.EnsureWallet(z.ReceiverID); err != nil {
		return Result{Zap: z}, err
	}
	amount := z.AmountSats
	invoice, err := c.wallets.CreateInvoice(ctx, z.ReceiverID, &amount, invoiceMemo)
	if err != nil {
		return Result{Zap: z}, err
	}
	receipt, err := c.payer.Pay(ctx, z.SenderID, payment.PurposeZap, invoice, z.ReceiverID)
	if err != nil {
		log.Errorf("[zap] %s failed: %v", z.ID, err)
		return Result{Zap: z, Receipt: receipt}, err
	}
	log.Infof("[zap] %s paid", z.ID)
	return Result{Zap: z, Receipt: receipt}, nil
}

func (c *Coordinator) CancelZap(zapID string, userID int64) (PendingZap, error) {
	z, err := c.take(zapID, userID)
	if err != nil {
		return z, err
	}
	log.Infof("[zap] %s cancelled", z.ID)
	return z, nil
}

// Sweep removes every zap older than the ttl and announces it on the expired channel.
func (c *Coordinator) Sweep(now time.Time) []PendingZap {
	c.mu.Lock()
	var expired []PendingZap
	for _, z := range c.zaps {
		if c.expiredAt(z, now) {
			c.remove(z)
			expired = append(expired, *z)
		}
	}
	c.mu.Unlock()
	for _, z := range expired {
		log.Debugf("[zap] %s expired", z.ID)
		select {
		case c.expired <- z:
		default:
			log.Warnf("[zap] expiry of %s not delivered", z.ID)
		}
	}
	return expired
}

// Run sweeps every interval until ctx is done.
func (c *Coordinator) Run(ctx context.Context, interval time.Duration) {
	runtime.GetTask("zap-sweeper", runtime.WithDuration(interval)).Do(ctx, func(ctx context.Context) {
		c.Sweep(c.now())
	})
}
