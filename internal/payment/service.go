package payment

import (
	"context"
	"fmt"

	"github.com/massmux/SatsZapBot/internal/errors"
	"github.com/massmux/SatsZapBot/internal/runtime/mutex"
	"github.com/massmux/SatsZapBot/internal/sdk"
	log "github.com/sirupsen/logrus"
)

// Receipt describes an executed payment.
type Receipt struct {
	SessionID   string
	UserID      int64
	PeerID      int64
	Purpose     Purpose
	Target      Target
	AmountSats  int64
	FeeSats     int64
	Speed       *Speed
	WithdrawAll bool
	Payment     sdk.Payment
}

// Recorder receives every executed or failed payment.
type Recorder interface {
	RecordPayment(r Receipt, err error)
}

// Service drives the send session state machine. All transitions of one user are serialized.
type Service struct {
	store    Store
	wallets  Wallets
	resolver *Resolver
	quoter   *Quoter
	recorder Recorder
}

type Option func(s *Service)

func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

func NewService(wallets Wallets, aliases AliasLookup, opts ...Option) *Service {
	s := &Service{
		store:    NewMemoryStore(),
		wallets:  wallets,
		resolver: NewResolver(wallets, aliases),
		quoter:   NewQuoter(wallets),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func lockKey(userID int64) string {
	return fmt.Sprintf("payment:%d", userID)
}

// Current returns the session of userID, if any.
func (s *Service) Current(userID int64) (*Session, bool) {
	return s.store.Get(userID)
}

// Begin opens a fresh session waiting for a target. An existing session is replaced.
func (s *Service) Begin(userID int64, purpose Purpose) *Session {
	mutex.Lock(lockKey(userID))
	defer mutex.Unlock(lockKey(userID))
	sess := newSession(userID, purpose)
	s.store.Put(sess)
	return sess
}

// Reset drops the session of userID without a trace.
func (s *Service) Reset(userID int64) {
	s.store.Delete(userID)
}

// Start classifies raw as the payment target. If there is no idle session, a new send session
// replaces whatever flow was in progress.
func (s *Service) Start(ctx context.Context, userID int64, raw string) (*Session, error) {
	mutex.Lock(lockKey(userID))
	defer mutex.Unlock(lockKey(userID))
	sess, ok := s.store.Get(userID)
	if !ok || sess.Step != Idle {
		sess = newSession(userID, PurposeSend)
	}
	return sess, s.start(ctx, sess, raw)
}

// StartWith runs a session of the given purpose on raw. Donations use it with the donation invoice.
func (s *Service) StartWith(ctx context.Context, userID int64, purpose Purpose, raw string) (*Session, error) {
	mutex.Lock(lockKey(userID))
	defer mutex.Unlock(lockKey(userID))
	sess := newSession(userID, purpose)
	return sess, s.start(ctx, sess, raw)
}

func (s *Service) start(ctx context.Context, sess *Session, raw string) error {
	sess.setStep(Classifying)
	target, err := s.resolver.Classify(ctx, raw)
	if err != nil {
		if errors.Recoverable(err) {
			sess.setStep(Idle)
			s.store.Put(sess)
			return err
		}
		s.teardown(sess, err)
		return err
	}
	sess.Target = target
	if b, ok := target.(Bolt11Invoice); ok && b.EmbeddedAmount != nil {
		amount := *b.EmbeddedAmount
		sess.Amount = &amount
		return s.quote(ctx, sess)
	}
	sess.setStep(AwaitingAmount)
	s.store.Put(sess)
	return nil
}

func (s *Service) quote(ctx context.Context, sess *Session) error {
	sess.setStep(Quoting)
	q, err := s.quoter.Quote(ctx, sess.UserID, sess.Target, sess.AmountSats(), sess.Comment)
	if err != nil {
		s.teardown(sess, err)
		return err
	}
	switch fee := q.Fee.(type) {
	case TieredFee:
		sess.Fee = fee
		sess.setStep(AwaitingSpeedSelection)
	default:
		sess.await(q)
	}
	s.store.Put(sess)
	return nil
}

// teardown ends the session after a wallet failure.
func (s *Service) teardown(sess *Session, err error) {
	log.Warnf("[payment] session %s of user %d torn down in %s: %v", sess.ID, sess.UserID, sess.Step, err)
	sess.setStep(Failed)
	s.store.Delete(sess.UserID)
}

// session returns the current session if it matches sessionID and is in one of steps.
func (s *Service) session(userID int64, sessionID string, steps ...Step) (*Session, error) {
	sess, ok := s.store.Get(userID)
	if !ok || (sessionID != "" && sess.ID != sessionID) {
		return nil, errors.Create(errors.SessionExpiredError)
	}
	for _, step := range steps {
		if sess.Step == step {
			return sess, nil
		}
	}
	return nil, errors.Create(errors.SessionExpiredError)
}

// SetComment attaches a comment that is sent along lnurl payments.
func (s *Service) SetComment(userID int64, comment string) error {
	mutex.Lock(lockKey(userID))
	defer mutex.Unlock(lockKey(userID))
	sess, err := s.session(userID, "", Idle, AwaitingAmount)
	if err != nil {
		return err
	}
	sess.Comment = &comment
	return nil
}

// EnterAmount sets the amount of a session that awaits one and quotes the payment.
// Invalid amounts leave the session untouched.
func (s *Service) EnterAmount(ctx context.Context, userID int64, amount int64) (*Session, error) {
	mutex.Lock(lockKey(userID))
	defer mutex.Unlock(lockKey(userID))
	sess, err := s.session(userID, "", AwaitingAmount)
	if err != nil {
		return nil, err
	}
	if err := ValidateAmount(sess.Target, amount); err != nil {
		return sess, err
	}
	sess.Amount = &amount
	return sess, s.quote(ctx, sess)
}

// WithdrawAll sends the whole balance, net of fees.
func (s *Service) WithdrawAll(ctx context.Context, userID int64, sessionID string) (*Session, error) {
	mutex.Lock(lockKey(userID))
	defer mutex.Unlock(lockKey(userID))
	sess, err := s.session(userID, sessionID, AwaitingAmount, AwaitingConfirmation)
	if err != nil {
		return nil, err
	}
	if b, ok := sess.Target.(Bolt11Invoice); ok && b.EmbeddedAmount != nil {
		return sess, errors.Create(errors.FixedAmountError)
	}
	if sess.Step != AwaitingAmount {
		return nil, errors.Create(errors.SessionExpiredError)
	}
	balance, err := s.wallets.Balance(ctx, userID)
	if err != nil {
		s.teardown(sess, err)
		return sess, err
	}
	if balance <= 0 {
		s.cancel(sess)
		return sess, errors.Create(errors.InsufficientBalanceError)
	}
	sess.WithdrawAll = true
	sess.Balance = balance
	sess.setStep(Quoting)

	if _, ok := sess.Target.(OnchainAddress); ok {
		q, err := s.quoter.Quote(ctx, userID, sess.Target, balance, nil)
		if err != nil {
			s.teardown(sess, err)
			return sess, err
		}
		tiers := q.Fee.(TieredFee)
		if tiers.Slow >= balance && tiers.Medium >= balance && tiers.Fast >= balance {
			s.cancel(sess)
			return sess, errors.Create(errors.InsufficientBalanceError)
		}
		sess.Amount = &balance
		sess.Fee = tiers
		sess.setStep(AwaitingSpeedSelection)
		s.store.Put(sess)
		return sess, nil
	}

	amount, q, err := s.withdrawAllLightning(ctx, sess, balance)
	if err != nil {
		switch {
		case errors.Recoverable(err):
			sess.WithdrawAll = false
			sess.Balance = 0
			sess.setStep(AwaitingAmount)
			s.store.Put(sess)
		case errors.Is(err, errors.InsufficientBalanceError):
			s.cancel(sess)
		default:
			s.teardown(sess, err)
		}
		return sess, err
	}
	sess.Amount = &amount
	sess.await(q)
	s.store.Put(sess)
	return sess, nil
}

// withdrawAllLightning finds the largest amount whose fee still fits into balance. The first quote
// on the whole balance gives an estimate of the fee, the second quote on the remainder is the
// binding one. If the fee changed between both, the amount is adjusted once more.
func (s *Service) withdrawAllLightning(ctx context.Context, sess *Session, balance int64) (int64, Quote, error) {
	first, err := s.quoter.Quote(ctx, sess.UserID, sess.Target, balance, sess.Comment)
	if err != nil {
		return 0, Quote{}, err
	}
	a1 := balance - singleFee(first)
	if a1 <= 0 {
		return 0, Quote{}, errors.Create(errors.InsufficientBalanceError)
	}
	if err := ValidateAmount(sess.Target, a1); err != nil {
		return 0, Quote{}, err
	}
	second, err := s.quoter.Quote(ctx, sess.UserID, sess.Target, a1, sess.Comment)
	if err != nil {
		return 0, Quote{}, err
	}
	fee2 := singleFee(second)
	a2 := balance - fee2
	if a2 == a1 {
		return a1, second, nil
	}
	if a2 > 0 && ValidateAmount(sess.Target, a2) == nil {
		third, err := s.quoter.Quote(ctx, sess.UserID, sess.Target, a2, sess.Comment)
		if err != nil {
			return 0, Quote{}, err
		}
		if a2+singleFee(third) <= balance {
			return a2, third, nil
		}
	}
	if a1+fee2 <= balance {
		return a1, second, nil
	}
	return 0, Quote{}, errors.Create(errors.InsufficientBalanceError)
}

// SelectSpeed picks the confirmation speed of an onchain payment and prepares it at that speed.
func (s *Service) SelectSpeed(ctx context.Context, userID int64, sessionID string, speed Speed) (*Session, error) {
	mutex.Lock(lockKey(userID))
	defer mutex.Unlock(lockKey(userID))
	sess, err := s.session(userID, sessionID, AwaitingSpeedSelection)
	if err != nil {
		return nil, err
	}
	tiers, ok := sess.Fee.(TieredFee)
	if !ok {
		return nil, errors.Create(errors.SessionExpiredError)
	}
	amount := sess.AmountSats()
	if sess.WithdrawAll {
		amount = sess.Balance - tiers.Fee(speed)
		if amount <= 0 {
			return sess, errors.Create(errors.InsufficientBalanceError)
		}
	}
	sess.setStep(Quoting)
	q, err := s.quoter.Quote(ctx, userID, sess.Target, amount, nil)
	if err != nil {
		s.teardown(sess, err)
		return sess, err
	}
	fresh := q.Fee.(TieredFee)
	if sess.WithdrawAll && amount+fresh.Fee(speed) > sess.Balance {
		amount = sess.Balance - fresh.Fee(speed)
		if amount <= 0 {
			s.cancel(sess)
			return sess, errors.Create(errors.InsufficientBalanceError)
		}
		q, err = s.quoter.Quote(ctx, userID, sess.Target, amount, nil)
		if err != nil {
			s.teardown(sess, err)
			return sess, err
		}
		fresh = q.Fee.(TieredFee)
		if amount+fresh.Fee(speed) > sess.Balance {
			s.cancel(sess)
			return sess, errors.Create(errors.InsufficientBalanceError)
		}
	}
	sess.Amount = &amount
	sess.SelectedSpeed = &speed
	sess.await(q)
	s.store.Put(sess)
	return sess, nil
}

// Confirm executes the prepared payment. The session ends either way.
func (s *Service) Confirm(ctx context.Context, userID int64, sessionID string) (Receipt, error) {
	mutex.Lock(lockKey(userID))
	defer mutex.Unlock(lockKey(userID))
	sess, err := s.session(userID, sessionID, AwaitingConfirmation)
	if err != nil {
		return Receipt{}, err
	}
	defer s.store.Delete(userID)
	return s.confirm(ctx, sess)
}

// Pay quotes and executes a payment to an invoice with an amount at once. The open session of
// userID is left alone. peerID names the bot user that issued the invoice, if any.
func (s *Service) Pay(ctx context.Context, userID int64, purpose Purpose, invoice string, peerID int64) (Receipt, error) {
	mutex.Lock(lockKey(userID))
	defer mutex.Unlock(lockKey(userID))
	sess := newSession(userID, purpose)
	sess.setStep(Classifying)
	target, err := s.resolver.Classify(ctx, invoice)
	if err != nil {
		return Receipt{}, err
	}
	b, ok := target.(Bolt11Invoice)
	if !ok || b.EmbeddedAmount == nil {
		return Receipt{}, errors.Newf(errors.ValidationError, "%s is not an invoice with an amount", Kind(target))
	}
	b.PeerID = peerID
	sess.Target = b
	sess.Amount = b.EmbeddedAmount
	sess.setStep(Quoting)
	q, err := s.quoter.Quote(ctx, userID, b, *b.EmbeddedAmount, nil)
	if err != nil {
		return Receipt{}, err
	}
	sess.await(q)
	return s.confirm(ctx, sess)
}

func (s *Service) confirm(ctx context.Context, sess *Session) (Receipt, error) {
	prepared, ok := sess.Prepared()
	if !ok {
		return Receipt{}, errors.Create(errors.SessionExpiredError)
	}
	receipt := Receipt{
		SessionID:   sess.ID,
		UserID:      sess.UserID,
		PeerID:      Peer(sess.Target),
		Purpose:     sess.Purpose,
		Target:      sess.Target,
		AmountSats:  sess.AmountSats(),
		FeeSats:     sess.FeeSats(),
		Speed:       sess.SelectedSpeed,
		WithdrawAll: sess.WithdrawAll,
	}
	sess.setStep(Executing)
	var err error
	receipt.Payment, err = s.execute(ctx, sess, prepared)
	if s.recorder != nil {
		s.recorder.RecordPayment(receipt, err)
	}
	if err != nil {
		sess.setStep(Failed)
		log.Errorf("[payment] %s of user %d to %s failed: %v", sess.Purpose, sess.UserID, Kind(sess.Target), err)
		return receipt, err
	}
	sess.setStep(Completed)
	log.Infof("[payment] %s of user %d: %d sat to %s, fee %d sat", sess.Purpose, sess.UserID, receipt.AmountSats, Kind(sess.Target), receipt.FeeSats)
	return receipt, nil
}

func (s *Service) execute(ctx context.Context, sess *Session, p Prepared) (sdk.Payment, error) {
	switch {
	case p.lnurl != nil:
		return s.wallets.ExecuteLnurlSend(ctx, sess.UserID, *p.lnurl)
	case p.send != nil:
		options := s.wallets.LightningOptions()
		if _, ok := sess.Target.(OnchainAddress); ok {
			speed := Fast
			if sess.SelectedSpeed != nil {
				speed = *sess.SelectedSpeed
			}
			options = s.wallets.OnchainOptions(speed.confirmationSpeed())
		}
		return s.wallets.ExecuteSend(ctx, sess.UserID, *p.send, options)
	}
	return sdk.Payment{}, errors.Create(errors.SessionExpiredError)
}

// Cancel ends the session. An empty sessionID cancels whatever session is open.
func (s *Service) Cancel(userID int64, sessionID string) error {
	mutex.Lock(lockKey(userID))
	defer mutex.Unlock(lockKey(userID))
	sess, ok := s.store.Get(userID)
	if !ok || (sessionID != "" && sess.ID != sessionID) {
		return errors.Create(errors.SessionExpiredError)
	}
	if sess.Step == Executing {
		return errors.Create(errors.SessionExpiredError)
	}
	s.cancel(sess)
	return nil
}

func (s *Service) cancel(sess *Session) {
	sess.setStep(Cancelled)
	s.store.Delete(sess.UserID)
}
