package payment

import (
	"strconv"
	"time"

	cmap "github.com/orcaman/concurrent-map"
	uuid "github.com/satori/go.uuid"
)

type Step int

const (
	// Idle doubles as "waiting for a target".
	Idle Step = iota
	Classifying
	AwaitingAmount
	Quoting
	AwaitingSpeedSelection
	AwaitingConfirmation
	Executing
	Completed
	Failed
	Cancelled
)

var stepNames = map[Step]string{
	Idle:                   "idle",
	Classifying:            "classifying",
	AwaitingAmount:         "awaiting_amount",
	Quoting:                "quoting",
	AwaitingSpeedSelection: "awaiting_speed_selection",
	AwaitingConfirmation:   "awaiting_confirmation",
	Executing:              "executing",
	Completed:              "completed",
	Failed:                 "failed",
	Cancelled:              "cancelled",
}

func (s Step) String() string {
	return stepNames[s]
}

func (s Step) Terminal() bool {
	return s == Completed || s == Failed || s == Cancelled
}

type Purpose int

const (
	PurposeSend Purpose = iota
	PurposeDonation
	PurposeZap
)

func (p Purpose) String() string {
	switch p {
	case PurposeDonation:
		return "donation"
	case PurposeZap:
		return "zap"
	}
	return "send"
}

// Session is the in-flight send flow of one user.
type Session struct {
	ID            string
	UserID        int64
	Purpose       Purpose
	Step          Step
	Target        Target
	Amount        *int64
	Fee           FeeQuote
	SelectedSpeed *Speed
	WithdrawAll   bool
	Balance       int64
	Comment       *string
	UpdatedAt     time.Time

	// prepared is only set while the session awaits confirmation.
	prepared *Prepared
}

func newSession(userID int64, purpose Purpose) *Session {
	return &Session{
		ID:        uuid.NewV4().String(),
		UserID:    userID,
		Purpose:   purpose,
		Step:      Idle,
		UpdatedAt: time.Now(),
	}
}

func (s *Session) setStep(step Step) {
	s.Step = step
	s.UpdatedAt = time.Now()
	if step != AwaitingConfirmation {
		s.prepared = nil
	}
}

func (s *Session) await(q Quote) {
	s.Fee = q.Fee
	s.setStep(AwaitingConfirmation)
	p := q.Prepared
	s.prepared = &p
}

// Prepared returns the prepared handle. It is only present while awaiting confirmation.
func (s *Session) Prepared() (Prepared, bool) {
	if s.prepared == nil {
		return Prepared{}, false
	}
	return *s.prepared, true
}

// FeeSats returns the fee that applies to the session so far.
func (s *Session) FeeSats() int64 {
	switch f := s.Fee.(type) {
	case SingleFee:
		return f.FeeSats
	case TieredFee:
		if s.SelectedSpeed != nil {
			return f.Fee(*s.SelectedSpeed)
		}
	}
	return 0
}

func (s *Session) AmountSats() int64 {
	if s.Amount == nil {
		return 0
	}
	return *s.Amount
}

// Total is amount plus fee.
func (s *Session) Total() int64 {
	return s.AmountSats() + s.FeeSats()
}

// Store keeps at most one session per user.
type Store interface {
	Get(userID int64) (*Session, bool)
	Put(s *Session)
	Delete(userID int64)
}

type MemoryStore struct {
	sessions cmap.ConcurrentMap
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: cmap.New()}
}

func (m *MemoryStore) Get(userID int64) (*Session, bool) {
	s, ok := m.sessions.Get(strconv.FormatInt(userID, 10))
	if !ok {
		return nil, false
	}
	return s.(*Session), true
}

func (m *MemoryStore) Put(s *Session) {
	m.sessions.Set(strconv.FormatInt(s.UserID, 10), s)
}

func (m *MemoryStore) Delete(userID int64) {
	m.sessions.Remove(strconv.FormatInt(userID, 10))
}

func (m *MemoryStore) Count() int {
	return m.sessions.Count()
}
