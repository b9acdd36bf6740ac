// Package sdk describes the wallet SDK the bot delegates all Bitcoin and Lightning work to.
// Amounts are in sats unless a field name says otherwise.
package sdk

import "context"

type Network string

const (
	Mainnet Network = "mainnet"
	Regtest Network = "regtest"
)

type Seed struct {
	Mnemonic   string
	Passphrase string
}

type ConnectRequest struct {
	Seed       Seed
	StorageDir string
}

// Connector opens wallet connections and parses payment targets.
type Connector interface {
	Connect(ctx context.Context, req ConnectRequest) (Wallet, error)
	Parse(ctx context.Context, input string) (InputType, error)
}

// Wallet is a connected wallet. It must be disconnected after use.
type Wallet interface {
	GetInfo(ctx context.Context) (Info, error)
	ReceivePayment(ctx context.Context, req ReceiveRequest) (ReceiveResponse, error)
	PrepareSendPayment(ctx context.Context, req PrepareSendRequest) (PrepareSendResponse, error)
	SendPayment(ctx context.Context, req SendRequest) (Payment, error)
	PrepareLnurlPay(ctx context.Context, req PrepareLnurlPayRequest) (PrepareLnurlPayResponse, error)
	LnurlPay(ctx context.Context, req LnurlPayRequest) (Payment, error)
	ListPayments(ctx context.Context, req ListPaymentsRequest) ([]Payment, error)
	GetLightningAddress(ctx context.Context) (*LightningAddressInfo, error)
	RegisterLightningAddress(ctx context.Context, req RegisterLightningAddressRequest) (LightningAddressInfo, error)
	Disconnect(ctx context.Context) error
}

type Info struct {
	BalanceSats int64 `json:"balance_sats"`
}
