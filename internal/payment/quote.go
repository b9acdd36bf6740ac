package payment

import (
	"context"
	"fmt"

	"github.com/massmux/SatsZapBot/internal/errors"
	"github.com/massmux/SatsZapBot/internal/sdk"
	log "github.com/sirupsen/logrus"
)

// Prepared is the opaque handle returned by a wallet prepare call. Exactly one field is set.
type Prepared struct {
	send  *sdk.PrepareSendResponse
	lnurl *sdk.PrepareLnurlPayResponse
}

type Quote struct {
	Fee      FeeQuote
	Prepared Prepared
}

// Quoter prepares payments and extracts their fees.
type Quoter struct {
	wallets Wallets
}

func NewQuoter(wallets Wallets) *Quoter {
	return &Quoter{wallets: wallets}
}

// Quote prepares a payment of amount sat to t. Onchain targets are quoted with one fee per speed.
func (q *Quoter) Quote(ctx context.Context, userID int64, t Target, amount int64, comment *string) (Quote, error) {
	switch t := t.(type) {
	case Bolt11Invoice:
		var a *int64
		if t.EmbeddedAmount == nil {
			a = &amount
		}
		resp, err := q.wallets.Prepare(ctx, userID, t.Invoice, a)
		if err != nil {
			return Quote{}, err
		}
		return Quote{Fee: SingleFee{FeeSats: lightningFee(resp.PaymentMethod)}, Prepared: Prepared{send: &resp}}, nil
	case LightningAddress:
		return q.quoteLnurl(ctx, userID, t.PayRequest, amount, comment)
	case LnurlPay:
		return q.quoteLnurl(ctx, userID, t.PayRequest, amount, comment)
	case OnchainAddress:
		resp, err := q.wallets.Prepare(ctx, userID, t.Address, &amount)
		if err != nil {
			return Quote{}, err
		}
		if resp.PaymentMethod.FeeQuote == nil {
			return Quote{}, errors.Newf(errors.WalletError, "no onchain fee quote for %s", t.Address)
		}
		return Quote{Fee: tieredFee(*resp.PaymentMethod.FeeQuote), Prepared: Prepared{send: &resp}}, nil
	}
	return Quote{}, errors.New(errors.UnsupportedTargetError, fmt.Errorf("unsupported target %T", t))
}

func (q *Quoter) quoteLnurl(ctx context.Context, userID int64, p sdk.LnurlPayRequestDetails, amount int64, comment *string) (Quote, error) {
	if comment != nil && p.CommentAllowed == 0 {
		log.Debugf("[quote] %s does not accept comments, dropping it", p.Domain)
		comment = nil
	}
	if comment != nil && int64(len(*comment)) > p.CommentAllowed {
		c := (*comment)[:p.CommentAllowed]
		comment = &c
	}
	resp, err := q.wallets.PrepareLnurl(ctx, userID, p, amount, comment)
	if err != nil {
		return Quote{}, err
	}
	return Quote{Fee: SingleFee{FeeSats: resp.FeeSats}, Prepared: Prepared{lnurl: &resp}}, nil
}

func singleFee(q Quote) int64 {
	if f, ok := q.Fee.(SingleFee); ok {
		return f.FeeSats
	}
	return 0
}
