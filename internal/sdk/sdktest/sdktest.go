// Package sdktest provides an in-memory wallet sdk for tests.
package sdktest

import (
	"context"
	"fmt"
	"sync"

	"github.com/massmux/SatsZapBot/internal/sdk"
)

// Connector is an in-memory sdk.Connector. Wallets are keyed by mnemonic.
type Connector struct {
	mu          sync.Mutex
	wallets     map[string]*Wallet
	inputs      map[string]sdk.InputType
	invoices    int
	Connects    int
	Disconnects int
	ConnectErr  error
	// NewWallet customizes wallets on first connect.
	NewWallet func(w *Wallet)
}

func NewConnector() *Connector {
	return &Connector{
		wallets: make(map[string]*Wallet),
		inputs:  make(map[string]sdk.InputType),
	}
}

func (c *Connector) Connect(ctx context.Context, req sdk.ConnectRequest) (sdk.Wallet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ConnectErr != nil {
		return nil, c.ConnectErr
	}
	c.Connects++
	w := c.walletLocked(req.Seed.Mnemonic)
	w.StorageDir = req.StorageDir
	return &conn{wallet: w, connector: c}, nil
}

// Wallet returns the wallet of mnemonic, creating an empty one if needed.
func (c *Connector) Wallet(mnemonic string) *Wallet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.walletLocked(mnemonic)
}

func (c *Connector) walletLocked(mnemonic string) *Wallet {
	w, ok := c.wallets[mnemonic]
	if !ok {
		w = &Wallet{}
		if c.NewWallet != nil {
			c.NewWallet(w)
		}
		c.wallets[mnemonic] = w
	}
	return w
}

// Open returns the number of connections that were not disconnected.
func (c *Connector) Open() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Connects - c.Disconnects
}

// AddInput makes Parse return input for raw.
func (c *Connector) AddInput(raw string, input sdk.InputType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs[raw] = input
}

func (c *Connector) Parse(ctx context.Context, raw string) (sdk.InputType, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	input, ok := c.inputs[raw]
	if !ok {
		return sdk.InputType{}, fmt.Errorf("unrecognized input")
	}
	return input, nil
}

func (c *Connector) newInvoice(amount *int64, description string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invoices++
	invoice := fmt.Sprintf("lnbcfake%d", c.invoices)
	details := &sdk.Bolt11InvoiceDetails{Invoice: invoice, Description: description}
	if amount != nil {
		msat := *amount * 1000
		details.AmountMsat = &msat
	}
	c.inputs[invoice] = sdk.InputType{Kind: sdk.InputBolt11Invoice, Invoice: details}
	return invoice
}

func (c *Connector) invoiceAmount(invoice string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	input, ok := c.inputs[invoice]
	if !ok || input.Invoice == nil || input.Invoice.AmountMsat == nil {
		return 0
	}
	return *input.Invoice.AmountMsat / 1000
}

// Wallet holds the state of one fake wallet. Fee functions default to zero fees.
type Wallet struct {
	mu               sync.Mutex
	StorageDir       string
	Balance          int64
	Payments         []sdk.Payment
	Invoices         []sdk.ReceiveRequest
	LightningAddress *sdk.LightningAddressInfo
	TakenUsernames   map[string]bool
	Sent             []sdk.SendRequest
	LnurlSent        []sdk.LnurlPayRequest
	Prepared         []sdk.PrepareSendRequest
	PreparedLnurl    []sdk.PrepareLnurlPayRequest

	LightningFee func(amount int64) *int64
	SparkFee     func(amount int64) *int64
	LnurlFee     func(amount int64) int64
	OnchainFees  func(amount int64) sdk.SendOnchainFeeQuote

	// Err fails every wallet call when set.
	Err error
	// HistoryErr fails ListPayments only.
	HistoryErr error
}

// Receive appends a received payment to the history.
func (w *Wallet) Receive(amount, timestamp int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Balance += amount
	w.Payments = append(w.Payments, sdk.Payment{
		ID:          fmt.Sprintf("rcv-%d", len(w.Payments)),
		PaymentType: sdk.PaymentReceive,
		Status:      sdk.PaymentCompleted,
		AmountSats:  amount,
		Timestamp:   timestamp,
	})
}

// AddPayment appends p to the history.
func (w *Wallet) AddPayment(p sdk.Payment) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Payments = append(w.Payments, p)
}

func (w *Wallet) SetErr(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Err = err
}

func (w *Wallet) Snapshot() Wallet {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Wallet{
		Balance:       w.Balance,
		Invoices:      append([]sdk.ReceiveRequest(nil), w.Invoices...),
		Sent:          append([]sdk.SendRequest(nil), w.Sent...),
		LnurlSent:     append([]sdk.LnurlPayRequest(nil), w.LnurlSent...),
		Prepared:      append([]sdk.PrepareSendRequest(nil), w.Prepared...),
		PreparedLnurl: append([]sdk.PrepareLnurlPayRequest(nil), w.PreparedLnurl...),
		StorageDir:    w.StorageDir,
	}
}

type conn struct {
	wallet       *Wallet
	connector    *Connector
	disconnected bool
}

func (c *conn) check() error {
	if c.disconnected {
		return fmt.Errorf("wallet disconnected")
	}
	return c.wallet.Err
}

func (c *conn) GetInfo(ctx context.Context) (sdk.Info, error) {
	c.wallet.mu.Lock()
	defer c.wallet.mu.Unlock()
	if err := c.check(); err != nil {
		return sdk.Info{}, err
	}
	return sdk.Info{BalanceSats: c.wallet.Balance}, nil
}

func (c *conn) ReceivePayment(ctx context.Context, req sdk.ReceiveRequest) (sdk.ReceiveResponse, error) {
	c.wallet.mu.Lock()
	if err := c.check(); err != nil {
		c.wallet.mu.Unlock()
		return sdk.ReceiveResponse{}, err
	}
	c.wallet.Invoices = append(c.wallet.Invoices, req)
	n := len(c.wallet.Invoices)
	c.wallet.mu.Unlock()
	if req.Method == sdk.ReceiveBitcoin {
		return sdk.ReceiveResponse{PaymentRequest: fmt.Sprintf("bc1qfake%d", n)}, nil
	}
	return sdk.ReceiveResponse{PaymentRequest: c.connector.newInvoice(req.AmountSats, req.Description)}, nil
}

func (c *conn) PrepareSendPayment(ctx context.Context, req sdk.PrepareSendRequest) (sdk.PrepareSendResponse, error) {
	c.wallet.mu.Lock()
	defer c.wallet.mu.Unlock()
	if err := c.check(); err != nil {
		return sdk.PrepareSendResponse{}, err
	}
	c.wallet.Prepared = append(c.wallet.Prepared, req)
	var amount int64
	if req.AmountSats != nil {
		amount = *req.AmountSats
	} else {
		amount = c.connector.invoiceAmount(req.PaymentRequest)
	}
	resp := sdk.PrepareSendResponse{AmountSats: amount, Raw: []byte(fmt.Sprintf(`{"amount":%d}`, amount))}
	if c.wallet.OnchainFees != nil {
		quote := c.wallet.OnchainFees(amount)
		resp.PaymentMethod = sdk.SendPaymentMethod{Kind: sdk.SendMethodBitcoin, FeeQuote: &quote}
		return resp, nil
	}
	resp.PaymentMethod = sdk.SendPaymentMethod{Kind: sdk.SendMethodBolt11}
	if c.wallet.LightningFee != nil {
		resp.PaymentMethod.LightningFeeSats = c.wallet.LightningFee(amount)
	}
	if c.wallet.SparkFee != nil {
		resp.PaymentMethod.SparkTransferFeeSats = c.wallet.SparkFee(amount)
	}
	return resp, nil
}

func (c *conn) SendPayment(ctx context.Context, req sdk.SendRequest) (sdk.Payment, error) {
	c.wallet.mu.Lock()
	defer c.wallet.mu.Unlock()
	if err := c.check(); err != nil {
		return sdk.Payment{}, err
	}
	if req.PrepareResponse.AmountSats > c.wallet.Balance {
		return sdk.Payment{}, fmt.Errorf("insufficient funds")
	}
	c.wallet.Sent = append(c.wallet.Sent, req)
	c.wallet.Balance -= req.PrepareResponse.AmountSats
	return sdk.Payment{
		ID:          fmt.Sprintf("snd-%d", len(c.wallet.Sent)),
		PaymentType: sdk.PaymentSend,
		Status:      sdk.PaymentCompleted,
		AmountSats:  req.PrepareResponse.AmountSats,
	}, nil
}

func (c *conn) PrepareLnurlPay(ctx context.Context, req sdk.PrepareLnurlPayRequest) (sdk.PrepareLnurlPayResponse, error) {
	c.wallet.mu.Lock()
	defer c.wallet.mu.Unlock()
	if err := c.check(); err != nil {
		return sdk.PrepareLnurlPayResponse{}, err
	}
	c.wallet.PreparedLnurl = append(c.wallet.PreparedLnurl, req)
	var fee int64
	if c.wallet.LnurlFee != nil {
		fee = c.wallet.LnurlFee(req.AmountSats)
	}
	return sdk.PrepareLnurlPayResponse{AmountSats: req.AmountSats, FeeSats: fee, PayRequest: req.PayRequest, Comment: req.Comment}, nil
}

func (c *conn) LnurlPay(ctx context.Context, req sdk.LnurlPayRequest) (sdk.Payment, error) {
	c.wallet.mu.Lock()
	defer c.wallet.mu.Unlock()
	if err := c.check(); err != nil {
		return sdk.Payment{}, err
	}
	c.wallet.LnurlSent = append(c.wallet.LnurlSent, req)
	c.wallet.Balance -= req.PrepareResponse.AmountSats + req.PrepareResponse.FeeSats
	return sdk.Payment{
		ID:          fmt.Sprintf("lnurl-%d", len(c.wallet.LnurlSent)),
		PaymentType: sdk.PaymentSend,
		Status:      sdk.PaymentCompleted,
		AmountSats:  req.PrepareResponse.AmountSats,
		FeesSats:    req.PrepareResponse.FeeSats,
	}, nil
}

// ListPayments returns the history newest first.
func (c *conn) ListPayments(ctx context.Context, req sdk.ListPaymentsRequest) ([]sdk.Payment, error) {
	c.wallet.mu.Lock()
	defer c.wallet.mu.Unlock()
	if err := c.check(); err != nil {
		return nil, err
	}
	if c.wallet.HistoryErr != nil {
		return nil, c.wallet.HistoryErr
	}
	payments := make([]sdk.Payment, 0, len(c.wallet.Payments))
	for i := len(c.wallet.Payments) - 1; i >= 0; i-- {
		payments = append(payments, c.wallet.Payments[i])
	}
	if req.Offset != nil {
		if *req.Offset >= len(payments) {
			return nil, nil
		}
		payments = payments[*req.Offset:]
	}
	if req.Limit != nil && *req.Limit < len(payments) {
		payments = payments[:*req.Limit]
	}
	return payments, nil
}

func (c *conn) GetLightningAddress(ctx context.Context) (*sdk.LightningAddressInfo, error) {
	c.wallet.mu.Lock()
	defer c.wallet.mu.Unlock()
	if err := c.check(); err != nil {
		return nil, err
	}
	return c.wallet.LightningAddress, nil
}

func (c *conn) RegisterLightningAddress(ctx context.Context, req sdk.RegisterLightningAddressRequest) (sdk.LightningAddressInfo, error) {
	c.wallet.mu.Lock()
	defer c.wallet.mu.Unlock()
	if err := c.check(); err != nil {
		return sdk.LightningAddressInfo{}, err
	}
	if c.wallet.TakenUsernames[req.Username] {
		return sdk.LightningAddressInfo{}, fmt.Errorf("username %s is taken", req.Username)
	}
	info := sdk.LightningAddressInfo{
		Username:         req.Username,
		LightningAddress: req.Username + "@spark.test",
		Lnurl:            "lnurl1" + req.Username,
		Description:      req.Description,
	}
	c.wallet.LightningAddress = &info
	return info, nil
}

func (c *conn) Disconnect(ctx context.Context) error {
	c.connector.mu.Lock()
	defer c.connector.mu.Unlock()
	if c.disconnected {
		return fmt.Errorf("already disconnected")
	}
	c.disconnected = true
	c.connector.Disconnects++
	return nil
}

// Fee returns a fee function that always returns fee.
func Fee(fee int64) func(int64) *int64 {
	return func(int64) *int64 {
		return &fee
	}
}
