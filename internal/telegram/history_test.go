package telegram

import (
	"testing"

	"github.com/massmux/SatsZapBot/internal/sdk"
	"github.com/stretchr/testify/assert"
)

func payments(n int) []sdk.Payment {
	p := make([]sdk.Payment, n)
	for i := range p {
		p[i] = sdk.Payment{ID: string(rune('a' + i)), AmountSats: int64(i + 1)}
	}
	return p
}

func TestHistoryPage(t *testing.T) {
	shown, page, pages := historyPage(payments(12), 1)
	assert.Equal(t, 3, pages)
	assert.Equal(t, 1, page)
	assert.Len(t, shown, 5)
	assert.Equal(t, int64(6), shown[0].AmountSats)

	shown, page, _ = historyPage(payments(12), 2)
	assert.Equal(t, 2, page)
	assert.Len(t, shown, 2)
}

func TestHistoryPageClamps(t *testing.T) {
	_, page, pages := historyPage(payments(7), 9)
	assert.Equal(t, 2, pages)
	assert.Equal(t, 1, page)

	_, page, _ = historyPage(payments(7), -1)
	assert.Equal(t, 0, page)

	shown, _, pages := historyPage(nil, 0)
	assert.Empty(t, shown)
	assert.Equal(t, 0, pages)
}

func TestFormatPayment(t *testing.T) {
	sent := formatPayment(sdk.Payment{PaymentType: sdk.PaymentSend, Status: sdk.PaymentCompleted, AmountSats: 100, FeesSats: 2, Timestamp: 0})
	assert.Contains(t, sent, "🔴")
	assert.Contains(t, sent, "-100 sat")
	assert.Contains(t, sent, "(fee 2)")

	received := formatPayment(sdk.Payment{PaymentType: sdk.PaymentReceive, Status: sdk.PaymentPending, AmountSats: 5, Description: "coffee"})
	assert.Contains(t, received, "🔄")
	assert.Contains(t, received, "+5 sat")
	assert.Contains(t, received, "coffee")
}
