package network

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/massmux/SatsZapBot/internal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/proxy"
)

// GetClient returns an http client that honours the configured socks proxy.
func GetClient() *http.Client {
	return NewClient(internal.Configuration.Bot.SocksProxy, 10*time.Second)
}

// NewClient returns an http client dialing through socks when it is set.
func NewClient(socks *internal.SocksConfiguration, timeout time.Duration) *http.Client {
	client := http.Client{
		Timeout: timeout,
	}
	if socks == nil || socks.Host == "" {
		return &client
	}
	var auth *proxy.Auth
	if socks.Username != "" && socks.Password != "" {
		auth = &proxy.Auth{User: socks.Username, Password: socks.Password}
	}
	d, err := proxy.SOCKS5("tcp", socks.Host, auth, &net.Dialer{
		Timeout:   20 * time.Second,
		KeepAlive: -1,
	})
	if err != nil {
		log.Errorf("[network] could not create socks dialer: %v", err)
		return &client
	}
	client.Transport = &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := d.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return d.Dial(network, addr)
		},
	}
	return &client
}
