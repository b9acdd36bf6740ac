package payment

import (
	"context"

	"github.com/massmux/SatsZapBot/internal/sdk"
)

// Wallets is the part of the wallet gateway the payment flow needs.
type Wallets interface {
	EnsureWallet(userID int64) (bool, error)
	Balance(ctx context.Context, userID int64) (int64, error)
	CreateInvoice(ctx context.Context, userID int64, amount *int64, description string) (string, error)
	Classify(ctx context.Context, raw string) (sdk.InputType, error)
	Prepare(ctx context.Context, userID int64, paymentRequest string, amount *int64) (sdk.PrepareSendResponse, error)
	PrepareLnurl(ctx context.Context, userID int64, payRequest sdk.LnurlPayRequestDetails, amount int64, comment *string) (sdk.PrepareLnurlPayResponse, error)
	ExecuteSend(ctx context.Context, userID int64, prepared sdk.PrepareSendResponse, options *sdk.SendPaymentOptions) (sdk.Payment, error)
	ExecuteLnurlSend(ctx context.Context, userID int64, prepared sdk.PrepareLnurlPayResponse) (sdk.Payment, error)
	LightningOptions() *sdk.SendPaymentOptions
	OnchainOptions(speed sdk.ConfirmationSpeed) *sdk.SendPaymentOptions
}

// AliasLookup maps a telegram username to a user id.
type AliasLookup interface {
	LookupAlias(ctx context.Context, username string) (int64, error)
}
