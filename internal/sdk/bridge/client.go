// Package bridge talks to a Spark wallet bridge daemon over http. Every wallet
// connection is a session on the daemon, identified by the X-Session-Id header.
package bridge

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/imroc/req"
	"github.com/massmux/SatsZapBot/internal/sdk"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

type Config struct {
	Url         string
	ApiKey      string
	Network     sdk.Network
	PreferSpark bool
	Timeout     time.Duration
}

type Client struct {
	url     string
	network sdk.Network
	header  req.Header
	r       *req.Req
	// lnurlClient fetches lnurl and lightning address pay requests.
	lnurlClient *http.Client
}

// NewClient returns a bridge client. lnurlClient is used for resolving lnurl pay requests and may route through a proxy.
func NewClient(cfg Config, lnurlClient *http.Client) *Client {
	r := req.New()
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	r.SetTimeout(cfg.Timeout)
	if cfg.Network == "" {
		cfg.Network = sdk.Mainnet
	}
	return &Client{
		url:     strings.TrimSuffix(cfg.Url, "/"),
		network: cfg.Network,
		r:       r,
		header: req.Header{
			"Content-Type": "application/json",
			"Accept":       "application/json",
			"X-Api-Key":    cfg.ApiKey,
		},
		lnurlClient: lnurlClient,
	}
}

// Error is returned for every non 2xx answer of the bridge.
type Error struct {
	Status  int
	Message string
}

func (e Error) Error() string {
	return e.Message
}

func bridgeError(status int, body []byte) error {
	msg := gjson.GetBytes(body, "error").String()
	if msg == "" {
		msg = gjson.GetBytes(body, "detail").String()
	}
	if msg == "" {
		msg = fmt.Sprintf("wallet bridge returned status %d", status)
	}
	return Error{Status: status, Message: msg}
}

func (c *Client) post(ctx context.Context, path string, header req.Header, body interface{}) ([]byte, error) {
	resp, err := c.r.Post(c.url+path, header, body, ctx)
	if err != nil {
		return nil, err
	}
	b := resp.Bytes()
	if resp.Response().StatusCode >= 300 {
		err = bridgeError(resp.Response().StatusCode, b)
		log.Debugf("[bridge] %s: %v", path, err)
		return nil, err
	}
	return b, nil
}

// Connect opens a wallet session for the given seed.
func (c *Client) Connect(ctx context.Context, request sdk.ConnectRequest) (sdk.Wallet, error) {
	b, err := c.post(ctx, "/v1/connect", c.header, req.BodyJSON(struct {
		Mnemonic   string      `json:"mnemonic"`
		Passphrase string      `json:"passphrase,omitempty"`
		StorageDir string      `json:"storage_dir"`
		Network    sdk.Network `json:"network"`
	}{request.Seed.Mnemonic, request.Seed.Passphrase, request.StorageDir, c.network}))
	if err != nil {
		return nil, err
	}
	session := gjson.GetBytes(b, "session_id").String()
	if session == "" {
		return nil, fmt.Errorf("wallet bridge did not return a session")
	}
	header := req.Header{}
	for k, v := range c.header {
		header[k] = v
	}
	header["X-Session-Id"] = session
	return &wallet{client: c, session: session, header: header}, nil
}
