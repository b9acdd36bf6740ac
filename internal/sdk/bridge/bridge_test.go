package bridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/massmux/SatsZapBot/internal/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newTestClient(t *testing.T, network sdk.Network, handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{Url: server.URL, ApiKey: "key", Network: network}, server.Client()), server
}

func TestParseBitcoinAddress(t *testing.T) {
	c := NewClient(Config{Url: "http://localhost"}, http.DefaultClient)
	for _, raw := range []string{
		"1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa",
		"bitcoin:1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa?amount=0.01&label=x",
		"BITCOIN:1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa",
	} {
		input, err := c.Parse(context.Background(), raw)
		require.NoError(t, err)
		assert.Equal(t, sdk.InputBitcoinAddress, input.Kind)
		assert.Equal(t, "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", input.Address.Address)
	}

	input, err := c.Parse(context.Background(), "BC1QAR0SRRR7XFKVY5L643LYDNW9RE59GTZZWF5MDQ")
	require.NoError(t, err)
	assert.Equal(t, "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", input.Address.Address)
}

func TestParseRejectsAddressOfOtherNetwork(t *testing.T) {
	c := NewClient(Config{Url: "http://localhost", Network: sdk.Regtest}, http.DefaultClient)
	_, err := c.Parse(context.Background(), "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa")
	assert.ErrorIs(t, err, ErrUnrecognized)
}

func TestParseGarbage(t *testing.T) {
	c := NewClient(Config{Url: "http://localhost"}, http.DefaultClient)
	for _, raw := range []string{"", "hello world", "lnbc1notaninvoice"} {
		_, err := c.Parse(context.Background(), raw)
		assert.ErrorIs(t, err, ErrUnrecognized, raw)
	}
}

func TestParseLnurlPay(t *testing.T) {
	c, server := newTestClient(t, sdk.Mainnet, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tag":"payRequest","callback":"https://example.com/cb","minSendable":100000,"maxSendable":1000000,"metadata":"[[\"text/plain\",\"hello\"]]","commentAllowed":140}`))
	})
	input, err := c.Parse(context.Background(), server.URL+"/lnurlp/alice")
	require.NoError(t, err)
	require.Equal(t, sdk.InputLnurlPay, input.Kind)
	assert.Equal(t, int64(100000), input.PayRequest.MinSendable)
	assert.Equal(t, int64(1000000), input.PayRequest.MaxSendable)
	assert.Equal(t, int64(140), input.PayRequest.CommentAllowed)
	// lnurl adds a nonce to the callback
	callback, err := url.Parse(input.PayRequest.Callback)
	require.NoError(t, err)
	assert.Equal(t, "example.com", callback.Host)
	assert.Equal(t, "/cb", callback.Path)
}

func TestParseKeepsUrlCase(t *testing.T) {
	c, server := newTestClient(t, sdk.Mainnet, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lnurlp/Alice" || r.URL.Query().Get("K") != "AbC" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"tag":"payRequest","callback":"https://example.com/cb","minSendable":1000,"maxSendable":2000,"metadata":"[[\"text/plain\",\"hi\"]]"}`))
	})
	input, err := c.Parse(context.Background(), server.URL+"/lnurlp/Alice?K=AbC")
	require.NoError(t, err)
	assert.Equal(t, sdk.InputLnurlPay, input.Kind)

	rawurl, ok := lnurlToUrl("LNURLP://Example.com/Pay/Alice")
	require.True(t, ok)
	assert.Equal(t, "https://Example.com/Pay/Alice", rawurl)
	rawurl, ok = lnurlToUrl("lnurlw://abc.onion/W?tag=withdrawRequest")
	require.True(t, ok)
	assert.Equal(t, "http://abc.onion/W?tag=withdrawRequest", rawurl)
}

func TestParseLnurlWithdraw(t *testing.T) {
	c, server := newTestClient(t, sdk.Mainnet, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tag":"withdrawRequest","callback":"https://example.com/w","k1":"abc","minWithdrawable":1000,"maxWithdrawable":2000}`))
	})
	input, err := c.Parse(context.Background(), server.URL+"/withdraw")
	require.NoError(t, err)
	assert.Equal(t, sdk.InputLnurlWithdraw, input.Kind)
	assert.Equal(t, "abc", input.Withdraw.K1)

	input, err = c.Parse(context.Background(), "https://example.com/w?tag=withdrawRequest&k1=fast&callback=https://example.com/cb")
	require.NoError(t, err)
	assert.Equal(t, sdk.InputLnurlWithdraw, input.Kind)
	assert.Equal(t, "fast", input.Withdraw.K1)
}

func TestParseLnurlErrorStatus(t *testing.T) {
	c, server := newTestClient(t, sdk.Mainnet, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ERROR","reason":"unknown user"}`))
	})
	_, err := c.Parse(context.Background(), server.URL+"/lnurlp/bob")
	assert.EqualError(t, err, "unknown user")
}

func TestWalletSession(t *testing.T) {
	var sendBody []byte
	c, _ := newTestClient(t, sdk.Mainnet, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("X-Api-Key"))
		if r.URL.Path != "/v1/connect" {
			assert.Equal(t, "s-1", r.Header.Get("X-Session-Id"))
		}
		switch r.URL.Path {
		case "/v1/connect":
			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, "abandon", gjson.GetBytes(body, "mnemonic").String())
			assert.Equal(t, "data/1", gjson.GetBytes(body, "storage_dir").String())
			w.Write([]byte(`{"session_id":"s-1"}`))
		case "/v1/info":
			w.Write([]byte(`{"balance_sats":1234}`))
		case "/v1/prepare_send":
			w.Write([]byte(`{"payment_method":{"kind":"bolt11_invoice","lightning_fee_sats":3},"amount_sats":100,"opaque":"x"}`))
		case "/v1/send":
			sendBody, _ = io.ReadAll(r.Body)
			w.Write([]byte(`{"payment":{"id":"p1","payment_type":"send","status":"completed","amount":100,"fees":3,"timestamp":10}}`))
		case "/v1/disconnect":
			w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"no such endpoint"}`))
		}
	})
	ctx := context.Background()
	w, err := c.Connect(ctx, sdk.ConnectRequest{Seed: sdk.Seed{Mnemonic: "abandon"}, StorageDir: "data/1"})
	require.NoError(t, err)

	info, err := w.GetInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), info.BalanceSats)

	prepared, err := w.PrepareSendPayment(ctx, sdk.PrepareSendRequest{PaymentRequest: "lnbc1"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), *prepared.PaymentMethod.LightningFeeSats)

	preferSpark := true
	payment, err := w.SendPayment(ctx, sdk.SendRequest{PrepareResponse: prepared, Options: &sdk.SendPaymentOptions{PreferSpark: &preferSpark}})
	require.NoError(t, err)
	assert.Equal(t, "p1", payment.ID)
	assert.Equal(t, "x", gjson.GetBytes(sendBody, "prepare_response.opaque").String())
	assert.True(t, gjson.GetBytes(sendBody, "options.prefer_spark").Bool())

	_, err = w.ListPayments(ctx, sdk.ListPaymentsRequest{})
	var bridgeErr Error
	require.ErrorAs(t, err, &bridgeErr)
	assert.Equal(t, http.StatusNotFound, bridgeErr.Status)
	assert.Equal(t, "no such endpoint", err.Error())

	assert.NoError(t, w.Disconnect(ctx))
}

func TestConnectWithoutSession(t *testing.T) {
	c, _ := newTestClient(t, sdk.Mainnet, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	})
	_, err := c.Connect(context.Background(), sdk.ConnectRequest{})
	assert.Error(t, err)
}
