package database

import (
	"time"

	"github.com/massmux/SatsZapBot/internal/errors"
	"github.com/massmux/SatsZapBot/internal/payment"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type TransactionKind string

const (
	KindSend        TransactionKind = "send"
	KindZap         TransactionKind = "zap"
	KindDonate      TransactionKind = "donate"
	KindWithdrawAll TransactionKind = "withdraw_all"
)

// Transaction is one line of the payment audit log.
type Transaction struct {
	ID        uint            `gorm:"primarykey"`
	Time      time.Time       `json:"time"`
	Kind      TransactionKind `json:"kind" gorm:"index"`
	FromID    int64           `json:"from_id" gorm:"index"`
	ToID      int64           `json:"to_id"`
	Target    string          `json:"target"`
	Amount    int64           `json:"amount"`
	Fee       int64           `json:"fee"`
	PaymentID string          `json:"payment_id"`
	Success   bool            `json:"success"`
	Error     string          `json:"error"`
}

func kindOf(r payment.Receipt) TransactionKind {
	switch {
	case r.Purpose == payment.PurposeZap:
		return KindZap
	case r.Purpose == payment.PurposeDonation:
		return KindDonate
	case r.WithdrawAll:
		return KindWithdrawAll
	}
	return KindSend
}

// TxLogger writes executed payments to the transaction log.
type TxLogger struct {
	DB *gorm.DB
}

func (l TxLogger) RecordPayment(r payment.Receipt, err error) {
	t := &Transaction{
		Time:      time.Now(),
		Kind:      kindOf(r),
		FromID:    r.UserID,
		ToID:      r.PeerID,
		Amount:    r.AmountSats,
		Fee:       r.FeeSats,
		PaymentID: r.Payment.ID,
		Success:   err == nil,
	}
	if r.Target != nil {
		t.Target = payment.Kind(r.Target) + ":" + r.Target.Display()
	}
	if err != nil {
		t.Error = errors.Message(err)
	}
	if tx := l.DB.Create(t); tx.Error != nil {
		log.Errorf("[TxLogger] could not log %s of user %d: %v", t.Kind, t.FromID, tx.Error)
	}
}

// Transactions returns the latest limit log lines of userID, newest first.
func (l TxLogger) Transactions(userID int64, limit int) ([]Transaction, error) {
	var records []Transaction
	tx := l.DB.Where("from_id = ? OR to_id = ?", userID, userID).Order("id desc").Limit(limit).Find(&records)
	return records, tx.Error
}
