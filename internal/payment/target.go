package payment

import (
	"fmt"

	"github.com/massmux/SatsZapBot/internal/sdk"
	"github.com/massmux/SatsZapBot/internal/str"
)

// Target is a classified payment destination. The set of variants is closed.
type Target interface {
	// NeedsAmount reports whether the user has to enter an amount.
	NeedsAmount() bool
	Display() string
	isTarget()
}

type Bolt11Invoice struct {
	Invoice        string
	EmbeddedAmount *int64
	Description    string
	// PeerID is the bot user the invoice belongs to, 0 for outside invoices.
	PeerID int64
}

type LightningAddress struct {
	Address    string
	PayRequest sdk.LnurlPayRequestDetails
	MinSats    int64
	MaxSats    int64
}

type LnurlPay struct {
	PayRequest sdk.LnurlPayRequestDetails
	MinSats    int64
	MaxSats    int64
}

type OnchainAddress struct {
	Address string
}

func (Bolt11Invoice) isTarget()    {}
func (LightningAddress) isTarget() {}
func (LnurlPay) isTarget()         {}
func (OnchainAddress) isTarget()   {}

func (t Bolt11Invoice) NeedsAmount() bool  { return t.EmbeddedAmount == nil }
func (LightningAddress) NeedsAmount() bool { return true }
func (LnurlPay) NeedsAmount() bool         { return true }
func (OnchainAddress) NeedsAmount() bool   { return true }

func (t Bolt11Invoice) Display() string    { return str.Ellipsis(t.Invoice, 12) }
func (t LightningAddress) Display() string { return t.Address }
func (t LnurlPay) Display() string {
	if t.PayRequest.Domain != "" {
		return t.PayRequest.Domain
	}
	return str.Ellipsis(t.PayRequest.Callback, 16)
}
func (t OnchainAddress) Display() string { return t.Address }

func (t LightningAddress) Bounds() (int64, int64) { return t.MinSats, t.MaxSats }
func (t LnurlPay) Bounds() (int64, int64)         { return t.MinSats, t.MaxSats }

// Kind names the target variant. It is used for the transaction log and in messages.
func Kind(t Target) string {
	switch t.(type) {
	case Bolt11Invoice:
		return "bolt11"
	case LightningAddress:
		return "lightning_address"
	case LnurlPay:
		return "lnurl_pay"
	case OnchainAddress:
		return "onchain"
	}
	return fmt.Sprintf("%T", t)
}

type bounded interface {
	Bounds() (int64, int64)
}

// Speed is the confirmation speed of an onchain payment.
type Speed int

const (
	Slow Speed = iota
	Medium
	Fast
)

var Speeds = []Speed{Slow, Medium, Fast}

func (s Speed) String() string {
	switch s {
	case Slow:
		return "slow"
	case Medium:
		return "medium"
	case Fast:
		return "fast"
	}
	return "unknown"
}

func (s Speed) confirmationSpeed() sdk.ConfirmationSpeed {
	switch s {
	case Slow:
		return sdk.SpeedSlow
	case Medium:
		return sdk.SpeedMedium
	}
	return sdk.SpeedFast
}

func ParseSpeed(s string) (Speed, bool) {
	for _, speed := range Speeds {
		if speed.String() == s {
			return speed, true
		}
	}
	return 0, false
}

// FeeQuote is either a single fee or one fee per confirmation speed.
type FeeQuote interface {
	isFeeQuote()
}

type SingleFee struct {
	FeeSats int64
}

type TieredFee struct {
	Slow   int64
	Medium int64
	Fast   int64
}

func (SingleFee) isFeeQuote() {}
func (TieredFee) isFeeQuote() {}

func (t TieredFee) Fee(speed Speed) int64 {
	switch speed {
	case Slow:
		return t.Slow
	case Medium:
		return t.Medium
	}
	return t.Fast
}

func tieredFee(q sdk.SendOnchainFeeQuote) TieredFee {
	total := func(f sdk.SendOnchainSpeedFee) int64 {
		return f.UserFeeSat + f.L1BroadcastFeeSat
	}
	return TieredFee{Slow: total(q.SpeedSlow), Medium: total(q.SpeedMedium), Fast: total(q.SpeedFast)}
}

// lightningFee picks the spark transfer fee if the sdk offers one, else the lightning fee,
// else zero.
func lightningFee(m sdk.SendPaymentMethod) int64 {
	switch {
	case m.SparkTransferFeeSats != nil:
		return *m.SparkTransferFeeSats
	case m.LightningFeeSats != nil:
		return *m.LightningFeeSats
	}
	return 0
}

// Peer returns the bot user behind t, if any.
func Peer(t Target) int64 {
	if b, ok := t.(Bolt11Invoice); ok {
		return b.PeerID
	}
	return 0
}

// CommentAllowed returns the maximum comment length the target accepts, 0 if it takes none.
func CommentAllowed(t Target) int64 {
	switch t := t.(type) {
	case LightningAddress:
		return t.PayRequest.CommentAllowed
	case LnurlPay:
		return t.PayRequest.CommentAllowed
	}
	return 0
}
