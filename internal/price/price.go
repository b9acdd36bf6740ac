package price

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/massmux/SatsZapBot/internal/runtime"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

var satsPerBitcoin = decimal.NewFromInt(100_000_000)

type PriceWatcher struct {
	client         *http.Client
	UpdateInterval time.Duration
	Currencies     []string
	Exchanges      map[string]func(string) (decimal.Decimal, error)
	mu             sync.RWMutex
	price          map[string]decimal.Decimal
}

func NewPriceWatcher(client *http.Client) *PriceWatcher {
	pricewatcher := &PriceWatcher{
		client:         client,
		Currencies:     []string{"USD", "EUR"},
		price:          make(map[string]decimal.Decimal),
		Exchanges:      make(map[string]func(string) (decimal.Decimal, error)),
		UpdateInterval: time.Second * time.Duration(30),
	}
	pricewatcher.Exchanges["coinbase"] = pricewatcher.GetCoinbasePrice
	pricewatcher.Exchanges["bitfinex"] = pricewatcher.GetBitfinexPrice
	return pricewatcher
}

func (p *PriceWatcher) Start(ctx context.Context) {
	log.Infof("[PriceWatcher] Watcher started")
	p.update()
	runtime.GetTask("price-watcher", runtime.WithDuration(p.UpdateInterval)).Do(ctx, func(ctx context.Context) {
		p.update()
	})
}

func (p *PriceWatcher) update() {
	for _, currency := range p.Currencies {
		sum := decimal.Zero
		n := 0
		for exchange, getPrice := range p.Exchanges {
			fprice, err := getPrice(currency)
			if err != nil {
				// if one exchange is down, use the next
				log.Errorf("[PriceWatcher] %s: %v", exchange, err)
				continue
			}
			n++
			sum = sum.Add(fprice)
			log.Debugf("[PriceWatcher] %s %s price: %s", exchange, currency, fprice)
		}
		if n == 0 {
			continue
		}
		p.Set(currency, sum.Div(decimal.NewFromInt(int64(n))))
	}
}

// Set stores the bitcoin price for currency.
func (p *PriceWatcher) Set(currency string, price decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.price[currency] = price
}

// Fiat converts sats into currency. ok is false if no price is known yet.
func (p *PriceWatcher) Fiat(sats int64, currency string) (value decimal.Decimal, ok bool) {
	p.mu.RLock()
	price, ok := p.price[currency]
	p.mu.RUnlock()
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(sats).Div(satsPerBitcoin).Mul(price), true
}

// FormatFiat renders sats as e.g. "12.34 EUR", or an empty string without a price.
func (p *PriceWatcher) FormatFiat(sats int64, currency string) string {
	value, ok := p.Fiat(sats, currency)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s %s", value.StringFixed(2), currency)
}

func (p *PriceWatcher) get(url, path string) (decimal.Decimal, error) {
	response, err := p.client.Get(url)
	if err != nil {
		return decimal.Zero, err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("unexpected status %s", response.Status)
	}
	bodyBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return decimal.Zero, err
	}
	price := gjson.GetBytes(bodyBytes, path)
	return decimal.NewFromString(strings.TrimSpace(price.String()))
}

func (p *PriceWatcher) GetCoinbasePrice(currency string) (decimal.Decimal, error) {
	return p.get(fmt.Sprintf("https://api.coinbase.com/v2/prices/spot?currency=%s", currency), "data.amount")
}

func (p *PriceWatcher) GetBitfinexPrice(currency string) (decimal.Decimal, error) {
	var bitfinexCurrencyToPair = map[string]string{"USD": "btcusd", "EUR": "btceur"}
	pair, ok := bitfinexCurrencyToPair[currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("unsupported currency %s", currency)
	}
	return p.get(fmt.Sprintf("https://api.bitfinex.com/v1/pubticker/%s", pair), "last_price")
}
