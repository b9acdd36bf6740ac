// Package wallet owns the per user wallet lifecycle. Every operation connects a fresh
// wallet, runs and disconnects again, so no connection outlives a single call.
package wallet

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/massmux/SatsZapBot/internal/errors"
	"github.com/massmux/SatsZapBot/internal/sdk"
	"github.com/massmux/SatsZapBot/internal/storage"
	"github.com/massmux/SatsZapBot/internal/str"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultInvoiceDescription = "Zap payment"
	lightningAddressAttempts  = 5
	disconnectTimeout         = 10 * time.Second
)

var usernameRegex = regexp.MustCompile(`^[a-z0-9_]{3,32}$`)

type Config struct {
	StorageDir  string
	PreferSpark bool
}

type Gateway struct {
	connector sdk.Connector
	db        *storage.DB
	config    Config
}

func New(connector sdk.Connector, db *storage.DB, config Config) *Gateway {
	return &Gateway{connector: connector, db: db, config: config}
}

// walletError wraps sdk failures. Errors that already carry a code are kept.
func walletError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Code(err) != errors.UnknownError {
		return err
	}
	return errors.New(errors.WalletError, err)
}

// WithWallet connects the wallet of userID, runs fn and always disconnects, even if fn panics.
func (g *Gateway) WithWallet(ctx context.Context, userID int64, fn func(w sdk.Wallet) error) error {
	seed, err := g.seed(userID)
	if err != nil {
		return err
	}
	w, err := g.connector.Connect(ctx, sdk.ConnectRequest{
		Seed:       sdk.Seed{Mnemonic: seed.Mnemonic},
		StorageDir: filepath.Join(g.config.StorageDir, fmt.Sprint(userID), seed.fingerprint()),
	})
	if err != nil {
		log.Errorf("[wallet] connect %d: %v", userID, err)
		return walletError(err)
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
		defer cancel()
		if err := w.Disconnect(dctx); err != nil {
			log.Warnf("[wallet] disconnect %d: %v", userID, err)
		}
	}()
	return walletError(fn(w))
}

func (g *Gateway) Balance(ctx context.Context, userID int64) (balance int64, err error) {
	err = g.WithWallet(ctx, userID, func(w sdk.Wallet) error {
		info, err := w.GetInfo(ctx)
		balance = info.BalanceSats
		return err
	})
	return
}

// CreateInvoice creates a bolt11 invoice. A nil amount creates a variable amount invoice.
func (g *Gateway) CreateInvoice(ctx context.Context, userID int64, amount *int64, description string) (invoice string, err error) {
	if description == "" {
		description = DefaultInvoiceDescription
	}
	err = g.WithWallet(ctx, userID, func(w sdk.Wallet) error {
		resp, err := w.ReceivePayment(ctx, sdk.ReceiveRequest{Method: sdk.ReceiveBolt11, Description: description, AmountSats: amount})
		invoice = resp.PaymentRequest
		return err
	})
	return
}

func (g *Gateway) CreateOnchainAddress(ctx context.Context, userID int64) (address string, err error) {
	err = g.WithWallet(ctx, userID, func(w sdk.Wallet) error {
		resp, err := w.ReceivePayment(ctx, sdk.ReceiveRequest{Method: sdk.ReceiveBitcoin})
		address = resp.PaymentRequest
		return err
	})
	return
}

// ListHistory returns the latest limit payments, newest first.
func (g *Gateway) ListHistory(ctx context.Context, userID int64, limit int) (payments []sdk.Payment, err error) {
	err = g.WithWallet(ctx, userID, func(w sdk.Wallet) error {
		offset := 0
		payments, err = w.ListPayments(ctx, sdk.ListPaymentsRequest{Offset: &offset, Limit: &limit})
		return err
	})
	return
}

// LightningAddress returns the lightning address of userID and registers a random one if there is none.
func (g *Gateway) LightningAddress(ctx context.Context, userID int64) (info sdk.LightningAddressInfo, err error) {
	err = g.WithWallet(ctx, userID, func(w sdk.Wallet) error {
		existing, err := w.GetLightningAddress(ctx)
		if err != nil {
			return err
		}
		if existing != nil {
			info = *existing
			return nil
		}
		for i := 0; i < lightningAddressAttempts; i++ {
			info, err = w.RegisterLightningAddress(ctx, sdk.RegisterLightningAddressRequest{Username: str.RandStringRunes(6)})
			if err == nil {
				return nil
			}
			log.Debugf("[wallet] register lightning address attempt %d: %v", i+1, err)
		}
		return err
	})
	return
}

// RegisterLightningAddress replaces the lightning address of userID with username.
func (g *Gateway) RegisterLightningAddress(ctx context.Context, userID int64, username string) (info sdk.LightningAddressInfo, err error) {
	if !usernameRegex.MatchString(username) {
		return info, errors.Create(errors.InvalidUsernameError)
	}
	err = g.WithWallet(ctx, userID, func(w sdk.Wallet) error {
		info, err = w.RegisterLightningAddress(ctx, sdk.RegisterLightningAddressRequest{Username: username})
		return err
	})
	return
}

// Classify parses raw into an sdk input. Inputs the sdk can't parse are classification errors.
func (g *Gateway) Classify(ctx context.Context, raw string) (sdk.InputType, error) {
	input, err := g.connector.Parse(ctx, raw)
	if err != nil {
		log.Debugf("[wallet] classify: %v", err)
		return input, errors.New(errors.UnrecognizedInputError, err)
	}
	if input.Kind == sdk.InputUnknown {
		return input, errors.Create(errors.UnrecognizedInputError)
	}
	return input, nil
}

// Prepare quotes a payment to an invoice or bitcoin address.
func (g *Gateway) Prepare(ctx context.Context, userID int64, paymentRequest string, amount *int64) (resp sdk.PrepareSendResponse, err error) {
	err = g.WithWallet(ctx, userID, func(w sdk.Wallet) error {
		resp, err = w.PrepareSendPayment(ctx, sdk.PrepareSendRequest{PaymentRequest: paymentRequest, AmountSats: amount})
		return err
	})
	return
}

// PrepareLnurl quotes a payment to an lnurl pay request.
func (g *Gateway) PrepareLnurl(ctx context.Context, userID int64, payRequest sdk.LnurlPayRequestDetails, amount int64, comment *string) (resp sdk.PrepareLnurlPayResponse, err error) {
	err = g.WithWallet(ctx, userID, func(w sdk.Wallet) error {
		resp, err = w.PrepareLnurlPay(ctx, sdk.PrepareLnurlPayRequest{
			AmountSats:               amount,
			PayRequest:               payRequest,
			Comment:                  comment,
			ValidateSuccessActionUrl: true,
		})
		return err
	})
	return
}

// LightningOptions returns the send options used for bolt11 payments.
func (g *Gateway) LightningOptions() *sdk.SendPaymentOptions {
	preferSpark := g.config.PreferSpark
	return &sdk.SendPaymentOptions{PreferSpark: &preferSpark}
}

// OnchainOptions returns the send options for an onchain payment at speed.
func (g *Gateway) OnchainOptions(speed sdk.ConfirmationSpeed) *sdk.SendPaymentOptions {
	return &sdk.SendPaymentOptions{ConfirmationSpeed: &speed}
}

func (g *Gateway) ExecuteSend(ctx context.Context, userID int64, prepared sdk.PrepareSendResponse, options *sdk.SendPaymentOptions) (payment sdk.Payment, err error) {
	err = g.WithWallet(ctx, userID, func(w sdk.Wallet) error {
		payment, err = w.SendPayment(ctx, sdk.SendRequest{PrepareResponse: prepared, Options: options})
		return err
	})
	return
}

func (g *Gateway) ExecuteLnurlSend(ctx context.Context, userID int64, prepared sdk.PrepareLnurlPayResponse) (payment sdk.Payment, err error) {
	err = g.WithWallet(ctx, userID, func(w sdk.Wallet) error {
		payment, err = w.LnurlPay(ctx, sdk.LnurlPayRequest{PrepareResponse: prepared})
		return err
	})
	return
}
