package price

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFiat(t *testing.T) {
	p := NewPriceWatcher(http.DefaultClient)
	assert.Equal(t, "", p.FormatFiat(1000, "EUR"))

	p.Set("EUR", decimal.NewFromInt(50_000))
	assert.Equal(t, "0.50 EUR", p.FormatFiat(1000, "EUR"))
	assert.Equal(t, "50000.00 EUR", p.FormatFiat(100_000_000, "EUR"))
}

func TestGetParsesJsonPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"amount":"61234.5"}}`))
	}))
	defer server.Close()

	p := NewPriceWatcher(server.Client())
	price, err := p.get(server.URL, "data.amount")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("61234.5").Equal(price))
}

func TestUpdateAveragesExchanges(t *testing.T) {
	p := NewPriceWatcher(http.DefaultClient)
	p.Currencies = []string{"USD"}
	p.Exchanges = map[string]func(string) (decimal.Decimal, error){
		"a": func(string) (decimal.Decimal, error) { return decimal.NewFromInt(100), nil },
		"b": func(string) (decimal.Decimal, error) { return decimal.NewFromInt(200), nil },
		"c": func(string) (decimal.Decimal, error) { return decimal.Zero, assert.AnError },
	}
	p.update()
	v, ok := p.Fiat(100_000_000, "USD")
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(150).Equal(v))
}
