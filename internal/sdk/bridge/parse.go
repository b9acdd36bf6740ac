package bridge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	lnurl "github.com/fiatjaf/go-lnurl"
	decodepay "github.com/fiatjaf/ln-decodepay"
	"github.com/massmux/SatsZapBot/internal/sdk"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

var invoicePrefixes = []string{"lnbcrt", "lntbs", "lnbc", "lntb", "lnsb"}

// ErrUnrecognized is returned by Parse for inputs that are no known payment target.
var ErrUnrecognized = fmt.Errorf("unrecognized input")

func isInvoice(s string) bool {
	for _, prefix := range invoicePrefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func stripScheme(s, scheme string) string {
	if hasPrefixFold(s, scheme) {
		return strings.TrimPrefix(s[len(scheme):], "//")
	}
	return s
}

func (c *Client) chainParams() *chaincfg.Params {
	if c.network == sdk.Regtest {
		return &chaincfg.RegressionNetParams
	}
	return &chaincfg.MainNetParams
}

// Parse classifies input locally. Invoices and addresses are decoded offline,
// lnurl and lightning addresses are resolved over http.
func (c *Client) Parse(ctx context.Context, input string) (sdk.InputType, error) {
	s := stripScheme(strings.TrimSpace(input), "lightning:")
	if s == "" {
		return sdk.InputType{}, ErrUnrecognized
	}
	lower := strings.ToLower(s)

	if isInvoice(lower) {
		return parseInvoice(lower)
	}
	if address, ok := c.parseBitcoinAddress(s); ok {
		return sdk.InputType{
			Kind:    sdk.InputBitcoinAddress,
			Address: &sdk.BitcoinAddressDetails{Address: address, Network: c.network},
		}, nil
	}
	if name, domain, ok := lnurl.ParseInternetIdentifier(lower); ok {
		input, err := c.resolveLnurl(ctx, wellKnownUrl(name, domain))
		if err != nil {
			return input, err
		}
		if input.Kind != sdk.InputLnurlPay {
			return sdk.InputType{}, fmt.Errorf("%s does not accept payments", lower)
		}
		input.Kind = sdk.InputLightningAddress
		input.LightningAddress = lower
		input.PayRequest.Address = lower
		return input, nil
	}
	// paths and queries of urls are case sensitive
	rawurl, ok := lnurlToUrl(s)
	if !ok {
		return sdk.InputType{}, ErrUnrecognized
	}
	return c.resolveLnurl(ctx, rawurl)
}

func parseInvoice(invoice string) (sdk.InputType, error) {
	bolt11, err := decodepay.Decodepay(invoice)
	if err != nil {
		log.Debugf("[bridge] could not decode invoice: %v", err)
		return sdk.InputType{}, ErrUnrecognized
	}
	details := &sdk.Bolt11InvoiceDetails{
		Invoice:     invoice,
		Description: bolt11.Description,
		PaymentHash: bolt11.PaymentHash,
		Expiry:      int64(bolt11.Expiry),
	}
	if bolt11.MSatoshi > 0 {
		msat := int64(bolt11.MSatoshi)
		details.AmountMsat = &msat
	}
	return sdk.InputType{Kind: sdk.InputBolt11Invoice, Invoice: details}, nil
}

// parseBitcoinAddress accepts plain addresses and BIP21 uris. Query parameters are ignored.
func (c *Client) parseBitcoinAddress(s string) (string, bool) {
	s = stripScheme(s, "bitcoin:")
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	params := c.chainParams()
	// bech32 addresses are valid in both cases
	if strings.HasPrefix(strings.ToLower(s), params.Bech32HRPSegwit+"1") {
		s = strings.ToLower(s)
	}
	address, err := btcutil.DecodeAddress(s, params)
	if err != nil || !address.IsForNet(params) {
		return "", false
	}
	return address.EncodeAddress(), true
}

func wellKnownUrl(name, domain string) string {
	rawurl := domain + "/.well-known/lnurlp/" + name
	if strings.HasSuffix(domain, ".onion") {
		return "http://" + rawurl
	}
	return "https://" + rawurl
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func lnurlToUrl(s string) (string, bool) {
	if hasPrefixFold(s, "https://") || hasPrefixFold(s, "http://") {
		return s, true
	}
	for _, scheme := range []string{"lnurlp://", "lnurlw://"} {
		if hasPrefixFold(s, scheme) {
			location := s[len(scheme):]
			host := strings.ToLower(location)
			if i := strings.Index(host, "/"); i >= 0 {
				host = host[:i]
			}
			if strings.HasSuffix(host, ".onion") {
				return "http://" + location, true
			}
			return "https://" + location, true
		}
	}
	// bech32 is case insensitive
	encoded, ok := lnurl.FindLNURLInText(strings.ToLower(s))
	if !ok {
		return "", false
	}
	rawurl, err := lnurl.LNURLDecode(encoded)
	if err != nil {
		return "", false
	}
	return rawurl, true
}

func (c *Client) resolveLnurl(ctx context.Context, rawurl string) (sdk.InputType, error) {
	parsed, err := url.Parse(rawurl)
	if err != nil {
		return sdk.InputType{}, ErrUnrecognized
	}
	// fast withdraw links carry everything in the query
	if parsed.Query().Get("tag") == "withdrawRequest" {
		return sdk.InputType{Kind: sdk.InputLnurlWithdraw, Withdraw: &sdk.LnurlWithdrawRequestDetails{
			Callback: parsed.Query().Get("callback"),
			K1:       parsed.Query().Get("k1"),
		}}, nil
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return sdk.InputType{}, err
	}
	resp, err := c.lnurlClient.Do(request)
	if err != nil {
		return sdk.InputType{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return sdk.InputType{}, fmt.Errorf("HTTP error: %s", resp.Status)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return sdk.InputType{}, err
	}
	j := gjson.ParseBytes(b)
	if j.Get("status").String() == "ERROR" {
		return sdk.InputType{}, fmt.Errorf("%s", j.Get("reason").String())
	}
	switch j.Get("tag").String() {
	case "payRequest":
		return payRequest(parsed, b)
	case "withdrawRequest":
		return sdk.InputType{Kind: sdk.InputLnurlWithdraw, Withdraw: &sdk.LnurlWithdrawRequestDetails{
			Callback:           j.Get("callback").String(),
			K1:                 j.Get("k1").String(),
			DefaultDescription: j.Get("defaultDescription").String(),
			MinWithdrawable:    j.Get("minWithdrawable").Int(),
			MaxWithdrawable:    j.Get("maxWithdrawable").Int(),
		}}, nil
	}
	return sdk.InputType{}, ErrUnrecognized
}

func payRequest(parsed *url.URL, b []byte) (sdk.InputType, error) {
	params, err := lnurl.HandlePay(b)
	if err != nil {
		return sdk.InputType{}, err
	}
	var pay lnurl.LNURLPayParams
	switch p := interface{}(params).(type) {
	case lnurl.LNURLPayParams:
		pay = p
	case *lnurl.LNURLPayParams:
		pay = *p
	default:
		return sdk.InputType{}, ErrUnrecognized
	}
	return sdk.InputType{Kind: sdk.InputLnurlPay, PayRequest: &sdk.LnurlPayRequestDetails{
		Callback:       pay.Callback,
		MinSendable:    pay.MinSendable,
		MaxSendable:    pay.MaxSendable,
		MetadataStr:    pay.EncodedMetadata,
		CommentAllowed: pay.CommentAllowed,
		Domain:         parsed.Host,
		Url:            parsed.String(),
	}}, nil
}
