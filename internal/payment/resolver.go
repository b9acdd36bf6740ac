package payment

import (
	"context"
	"regexp"
	"strings"

	"github.com/massmux/SatsZapBot/internal/errors"
	"github.com/massmux/SatsZapBot/internal/sdk"
	log "github.com/sirupsen/logrus"
)

const zapDescription = "Zap payment"

var aliasRegex = regexp.MustCompile(`^@([A-Za-z0-9_]{3,32})$`)

// Resolver turns raw user input into a Target.
type Resolver struct {
	wallets Wallets
	aliases AliasLookup
}

func NewResolver(wallets Wallets, aliases AliasLookup) *Resolver {
	return &Resolver{wallets: wallets, aliases: aliases}
}

// IsAlias reports whether raw looks like an @username.
func IsAlias(raw string) bool {
	return strings.HasPrefix(strings.TrimSpace(raw), "@")
}

// ResolveAlias provisions the wallet of the user behind alias and returns a fresh
// variable amount invoice of that wallet together with the peer's user id.
func (r *Resolver) ResolveAlias(ctx context.Context, alias string) (invoice string, peer int64, err error) {
	m := aliasRegex.FindStringSubmatch(strings.TrimSpace(alias))
	if m == nil {
		return "", 0, errors.Create(errors.InvalidAliasError)
	}
	if r.aliases == nil {
		return "", 0, errors.Create(errors.AliasNotFoundError)
	}
	peer, err = r.aliases.LookupAlias(ctx, strings.ToLower(m[1]))
	if err != nil {
		log.Debugf("[resolver] alias %s: %v", m[1], err)
		return "", 0, errors.New(errors.AliasNotFoundError, err)
	}
	if _, err := r.wallets.EnsureWallet(peer); err != nil {
		return "", peer, err
	}
	invoice, err = r.wallets.CreateInvoice(ctx, peer, nil, zapDescription)
	return invoice, peer, err
}

// Classify resolves aliases and classifies raw into a payment target.
func (r *Resolver) Classify(ctx context.Context, raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.Create(errors.UnrecognizedInputError)
	}
	var peer int64
	if IsAlias(raw) {
		invoice, id, err := r.ResolveAlias(ctx, raw)
		if err != nil {
			return nil, err
		}
		raw, peer = invoice, id
	}
	input, err := r.wallets.Classify(ctx, raw)
	if err != nil {
		return nil, err
	}
	t, err := targetOf(input)
	if b, ok := t.(Bolt11Invoice); ok && peer != 0 {
		b.PeerID = peer
		t = b
	}
	return t, err
}

func targetOf(input sdk.InputType) (Target, error) {
	switch input.Kind {
	case sdk.InputBolt11Invoice:
		if input.Invoice == nil {
			break
		}
		t := Bolt11Invoice{Invoice: input.Invoice.Invoice, Description: input.Invoice.Description}
		if input.Invoice.AmountMsat != nil && *input.Invoice.AmountMsat >= 1000 {
			sats := *input.Invoice.AmountMsat / 1000
			t.EmbeddedAmount = &sats
		}
		return t, nil
	case sdk.InputLightningAddress:
		if input.PayRequest == nil {
			break
		}
		min, max := satBounds(*input.PayRequest)
		address := input.LightningAddress
		if address == "" {
			address = input.PayRequest.Address
		}
		return LightningAddress{Address: address, PayRequest: *input.PayRequest, MinSats: min, MaxSats: max}, nil
	case sdk.InputLnurlPay:
		if input.PayRequest == nil {
			break
		}
		min, max := satBounds(*input.PayRequest)
		return LnurlPay{PayRequest: *input.PayRequest, MinSats: min, MaxSats: max}, nil
	case sdk.InputBitcoinAddress:
		if input.Address == nil {
			break
		}
		return OnchainAddress{Address: input.Address.Address}, nil
	case sdk.InputLnurlWithdraw:
		return nil, errors.Create(errors.UnsupportedTargetError)
	}
	return nil, errors.Create(errors.UnrecognizedInputError)
}

// satBounds converts the millisat bounds of a pay request by integer division.
func satBounds(p sdk.LnurlPayRequestDetails) (int64, int64) {
	return p.MinSendable / 1000, p.MaxSendable / 1000
}

// ValidateAmount checks amount against the bounds of t.
func ValidateAmount(t Target, amount int64) error {
	if amount <= 0 {
		return errors.Create(errors.InvalidAmountError)
	}
	if b, ok := t.(bounded); ok {
		min, max := b.Bounds()
		if amount < min || (max > 0 && amount > max) {
			return errors.Newf(errors.AmountOutOfBoundsError, "amount must be between %d and %d sat", min, max)
		}
	}
	return nil
}
