package sdk

type InputKind int

const (
	InputUnknown InputKind = iota
	InputBolt11Invoice
	InputLightningAddress
	InputLnurlPay
	InputBitcoinAddress
	InputLnurlWithdraw
)

func (k InputKind) String() string {
	switch k {
	case InputBolt11Invoice:
		return "bolt11"
	case InputLightningAddress:
		return "lightning_address"
	case InputLnurlPay:
		return "lnurl_pay"
	case InputBitcoinAddress:
		return "bitcoin_address"
	case InputLnurlWithdraw:
		return "lnurl_withdraw"
	}
	return "unknown"
}

// InputType is the result of parsing a user supplied payment string.
// Exactly one of the detail pointers matching Kind is set.
type InputType struct {
	Kind             InputKind
	Invoice          *Bolt11InvoiceDetails
	PayRequest       *LnurlPayRequestDetails
	Address          *BitcoinAddressDetails
	Withdraw         *LnurlWithdrawRequestDetails
	LightningAddress string
}

type Bolt11InvoiceDetails struct {
	Invoice     string `json:"invoice"`
	AmountMsat  *int64 `json:"amount_msat,omitempty"`
	Description string `json:"description"`
	PaymentHash string `json:"payment_hash"`
	Expiry      int64  `json:"expiry"`
}

type LnurlPayRequestDetails struct {
	Callback       string `json:"callback"`
	MinSendable    int64  `json:"min_sendable"`
	MaxSendable    int64  `json:"max_sendable"`
	MetadataStr    string `json:"metadata_str"`
	CommentAllowed int64  `json:"comment_allowed"`
	Domain         string `json:"domain"`
	Url            string `json:"url"`
	Address        string `json:"address,omitempty"`
}

type BitcoinAddressDetails struct {
	Address string  `json:"address"`
	Network Network `json:"network"`
}

type LnurlWithdrawRequestDetails struct {
	Callback           string `json:"callback"`
	K1                 string `json:"k1"`
	DefaultDescription string `json:"default_description"`
	MinWithdrawable    int64  `json:"min_withdrawable"`
	MaxWithdrawable    int64  `json:"max_withdrawable"`
}
