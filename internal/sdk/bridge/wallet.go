package bridge

import (
	"context"
	"encoding/json"

	"github.com/imroc/req"
	"github.com/massmux/SatsZapBot/internal/sdk"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

type wallet struct {
	client  *Client
	session string
	header  req.Header
}

func (w *wallet) call(ctx context.Context, path string, body interface{}, v interface{}) ([]byte, error) {
	if body == nil {
		body = req.BodyJSON(struct{}{})
	}
	b, err := w.client.post(ctx, path, w.header, body)
	if err != nil {
		return nil, err
	}
	if v != nil {
		return b, json.Unmarshal(b, v)
	}
	return b, nil
}

func (w *wallet) GetInfo(ctx context.Context) (info sdk.Info, err error) {
	_, err = w.call(ctx, "/v1/info", nil, &info)
	return
}

func (w *wallet) ReceivePayment(ctx context.Context, r sdk.ReceiveRequest) (resp sdk.ReceiveResponse, err error) {
	_, err = w.call(ctx, "/v1/receive", req.BodyJSON(r), &resp)
	return
}

func (w *wallet) PrepareSendPayment(ctx context.Context, r sdk.PrepareSendRequest) (resp sdk.PrepareSendResponse, err error) {
	b, err := w.call(ctx, "/v1/prepare_send", req.BodyJSON(r), &resp)
	if err != nil {
		return resp, err
	}
	resp.Raw = json.RawMessage(b)
	return resp, nil
}

// SendPayment hands the prepare response back to the bridge exactly as it was received.
func (w *wallet) SendPayment(ctx context.Context, r sdk.SendRequest) (payment sdk.Payment, err error) {
	body, err := sjson.SetRawBytes([]byte(`{}`), "prepare_response", r.PrepareResponse.Raw)
	if err != nil {
		return payment, err
	}
	if r.Options != nil {
		if r.Options.PreferSpark != nil {
			body, err = sjson.SetBytes(body, "options.prefer_spark", *r.Options.PreferSpark)
		}
		if err == nil && r.Options.ConfirmationSpeed != nil {
			body, err = sjson.SetBytes(body, "options.confirmation_speed", string(*r.Options.ConfirmationSpeed))
		}
		if err != nil {
			return payment, err
		}
	}
	b, err := w.call(ctx, "/v1/send", body, nil)
	if err != nil {
		return payment, err
	}
	err = json.Unmarshal([]byte(gjson.GetBytes(b, "payment").Raw), &payment)
	return payment, err
}

func (w *wallet) PrepareLnurlPay(ctx context.Context, r sdk.PrepareLnurlPayRequest) (resp sdk.PrepareLnurlPayResponse, err error) {
	b, err := w.call(ctx, "/v1/prepare_lnurl_pay", req.BodyJSON(r), &resp)
	if err != nil {
		return resp, err
	}
	resp.Raw = json.RawMessage(b)
	return resp, nil
}

func (w *wallet) LnurlPay(ctx context.Context, r sdk.LnurlPayRequest) (payment sdk.Payment, err error) {
	body, err := sjson.SetRawBytes([]byte(`{}`), "prepare_response", r.PrepareResponse.Raw)
	if err != nil {
		return payment, err
	}
	b, err := w.call(ctx, "/v1/lnurl_pay", body, nil)
	if err != nil {
		return payment, err
	}
	err = json.Unmarshal([]byte(gjson.GetBytes(b, "payment").Raw), &payment)
	return payment, err
}

func (w *wallet) ListPayments(ctx context.Context, r sdk.ListPaymentsRequest) ([]sdk.Payment, error) {
	var resp struct {
		Payments []sdk.Payment `json:"payments"`
	}
	_, err := w.call(ctx, "/v1/payments", req.BodyJSON(r), &resp)
	return resp.Payments, err
}

func (w *wallet) GetLightningAddress(ctx context.Context) (*sdk.LightningAddressInfo, error) {
	b, err := w.call(ctx, "/v1/lightning_address/get", nil, nil)
	if err != nil {
		return nil, err
	}
	address := gjson.GetBytes(b, "lightning_address")
	if !address.Exists() || address.Type == gjson.Null {
		return nil, nil
	}
	var info sdk.LightningAddressInfo
	err = json.Unmarshal([]byte(address.Raw), &info)
	return &info, err
}

func (w *wallet) RegisterLightningAddress(ctx context.Context, r sdk.RegisterLightningAddressRequest) (info sdk.LightningAddressInfo, err error) {
	_, err = w.call(ctx, "/v1/lightning_address/register", req.BodyJSON(r), &info)
	return
}

func (w *wallet) Disconnect(ctx context.Context) error {
	_, err := w.call(ctx, "/v1/disconnect", nil, nil)
	if err != nil {
		log.Warnf("[bridge] could not disconnect session %s: %v", w.session, err)
	}
	return err
}
