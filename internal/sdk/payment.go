package sdk

import "encoding/json"

type ReceiveMethod string

const (
	ReceiveBolt11  ReceiveMethod = "bolt11"
	ReceiveBitcoin ReceiveMethod = "bitcoin_address"
)

type ReceiveRequest struct {
	Method      ReceiveMethod `json:"method"`
	Description string        `json:"description,omitempty"`
	AmountSats  *int64        `json:"amount_sats,omitempty"`
}

type ReceiveResponse struct {
	PaymentRequest string `json:"payment_request"`
	FeeSats        int64  `json:"fee_sats"`
}

type PrepareSendRequest struct {
	PaymentRequest string `json:"payment_request"`
	AmountSats     *int64 `json:"amount_sats,omitempty"`
}

type ConfirmationSpeed string

const (
	SpeedSlow   ConfirmationSpeed = "slow"
	SpeedMedium ConfirmationSpeed = "medium"
	SpeedFast   ConfirmationSpeed = "fast"
)

type SendMethodKind string

const (
	SendMethodBolt11  SendMethodKind = "bolt11_invoice"
	SendMethodBitcoin SendMethodKind = "bitcoin_address"
	SendMethodSpark   SendMethodKind = "spark_address"
)

// SendOnchainSpeedFee is the fee of one confirmation speed. The total is both parts.
type SendOnchainSpeedFee struct {
	UserFeeSat        int64 `json:"user_fee_sat"`
	L1BroadcastFeeSat int64 `json:"l1_broadcast_fee_sat"`
}

type SendOnchainFeeQuote struct {
	ID          string              `json:"id"`
	SpeedSlow   SendOnchainSpeedFee `json:"speed_slow"`
	SpeedMedium SendOnchainSpeedFee `json:"speed_medium"`
	SpeedFast   SendOnchainSpeedFee `json:"speed_fast"`
}

type SendPaymentMethod struct {
	Kind                 SendMethodKind       `json:"kind"`
	LightningFeeSats     *int64               `json:"lightning_fee_sats,omitempty"`
	SparkTransferFeeSats *int64               `json:"spark_transfer_fee_sats,omitempty"`
	FeeQuote             *SendOnchainFeeQuote `json:"fee_quote,omitempty"`
}

// PrepareSendResponse is handed back unchanged to SendPayment.
type PrepareSendResponse struct {
	PaymentMethod SendPaymentMethod `json:"payment_method"`
	AmountSats    int64             `json:"amount_sats"`
	Raw           json.RawMessage   `json:"-"`
}

type SendPaymentOptions struct {
	PreferSpark       *bool              `json:"prefer_spark,omitempty"`
	ConfirmationSpeed *ConfirmationSpeed `json:"confirmation_speed,omitempty"`
}

type SendRequest struct {
	PrepareResponse PrepareSendResponse `json:"prepare_response"`
	Options         *SendPaymentOptions `json:"options,omitempty"`
}

type PrepareLnurlPayRequest struct {
	AmountSats               int64                  `json:"amount_sats"`
	PayRequest               LnurlPayRequestDetails `json:"pay_request"`
	Comment                  *string                `json:"comment,omitempty"`
	ValidateSuccessActionUrl bool                   `json:"validate_success_action_url"`
}

type PrepareLnurlPayResponse struct {
	AmountSats int64                  `json:"amount_sats"`
	FeeSats    int64                  `json:"fee_sats"`
	PayRequest LnurlPayRequestDetails `json:"pay_request"`
	Comment    *string                `json:"comment,omitempty"`
	Raw        json.RawMessage        `json:"-"`
}

type LnurlPayRequest struct {
	PrepareResponse PrepareLnurlPayResponse `json:"prepare_response"`
}

type PaymentType string

const (
	PaymentSend    PaymentType = "send"
	PaymentReceive PaymentType = "receive"
)

type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "completed"
	PaymentPending   PaymentStatus = "pending"
	PaymentFailed    PaymentStatus = "failed"
)

type Payment struct {
	ID          string        `json:"id"`
	PaymentType PaymentType   `json:"payment_type"`
	Status      PaymentStatus `json:"status"`
	AmountSats  int64         `json:"amount"`
	FeesSats    int64         `json:"fees"`
	Timestamp   int64         `json:"timestamp"`
	Description string        `json:"description,omitempty"`
}

type ListPaymentsRequest struct {
	Offset *int `json:"offset,omitempty"`
	Limit  *int `json:"limit,omitempty"`
}

type LightningAddressInfo struct {
	Username         string `json:"username"`
	LightningAddress string `json:"lightning_address"`
	Lnurl            string `json:"lnurl"`
	Description      string `json:"description"`
}

type RegisterLightningAddressRequest struct {
	Username    string `json:"username"`
	Description string `json:"description,omitempty"`
}
